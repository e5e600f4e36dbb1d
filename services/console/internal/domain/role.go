package domain

// RoleAll специальное значение списка ролей: доступ для любого пользователя
const RoleAll = "all"

// Имена ролей каталога
const (
	RoleAdministrador  = "ADMINISTRADOR"
	RoleDBAdmin        = "DB ADMIN"
	RoleGerencia       = "GERENCIA"
	RoleSupSistemas    = "SUP SISTEMAS"
	RoleTecnico        = "TECNICO"
	RoleSupervisorSala = "SUPERVISOR SALA"
	RoleEncargadoArea  = "ENCARGADO AREA"
	RoleProveedor      = "PROVEEDOR"
	RoleSolicitante    = "SOLICITANTE"
	RoleObservador     = "OBSERVADOR"
)

// Role элемент каталога ролей (GET /roles/lista/)
type Role struct {
	ID          int64  `json:"id"`
	Nombre      string `json:"nombre"`
	Descripcion string `json:"descripcion,omitempty"`
	EstaActivo  bool   `json:"esta_activo"`
}

// RoleSet упорядоченный набор имен ролей без повторов
type RoleSet []string

// NewRoleSet строит набор, сохраняя порядок первого появления
func NewRoleSet(names ...string) RoleSet {
	seen := make(map[string]struct{}, len(names))
	set := make(RoleSet, 0, len(names))
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		set = append(set, name)
	}
	return set
}

// RoleNames извлекает имена ролей каталога
func RoleNames(roles []Role) RoleSet {
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, r.Nombre)
	}
	return NewRoleSet(names...)
}

// Contains проверяет членство
func (s RoleSet) Contains(name string) bool {
	for _, r := range s {
		if r == name {
			return true
		}
	}
	return false
}

// AllowsAnyone сообщает, что набор пуст или содержит RoleAll
func (s RoleSet) AllowsAnyone() bool {
	return len(s) == 0 || s.Contains(RoleAll)
}
