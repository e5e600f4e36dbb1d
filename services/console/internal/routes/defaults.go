package routes

import (
	"NexusPlatform/services/console/internal/domain"
)

// Системные пути
const (
	PathHome         = "/"
	PathLogin        = "/auth/login"
	PathAccessDenied = "/auth/access"
	PathError        = "/auth/error"
	PathNotFound     = "/pages/notfound"
	PathEULA         = "/lisencia"
)

var systemNames = map[string]string{
	PathNotFound:     "notfound",
	PathLogin:        "login",
	PathAccessDenied: "accessDenied",
	PathError:        "error",
	PathEULA:         "lisencia",
}

var (
	rolesMantenimiento = []string{
		domain.RoleAdministrador, domain.RoleDBAdmin, domain.RoleSupSistemas,
		domain.RoleTecnico, domain.RoleGerencia, domain.RoleSupervisorSala,
	}
	rolesIncidentes = []string{
		domain.RoleAdministrador, domain.RoleDBAdmin, domain.RoleGerencia,
		domain.RoleSupSistemas, domain.RoleTecnico, domain.RoleSupervisorSala, domain.RoleEncargadoArea,
	}
	rolesInventario = []string{
		domain.RoleSupSistemas, domain.RoleTecnico, domain.RoleSupervisorSala, domain.RoleAdministrador,
	}
)

func page(path, component, title string, roles ...string) domain.MenuNode {
	if len(roles) == 0 {
		roles = []string{domain.RoleAll}
	}
	return domain.MenuNode{
		Kind:          domain.MenuPage,
		Path:          path,
		ComponentPath: component,
		Title:         title,
		Roles:         roles,
	}
}

func group(title string, children ...domain.MenuNode) domain.MenuNode {
	return domain.MenuNode{Kind: domain.MenuGroup, Title: title, Children: children}
}

// DefaultMenu встроенное меню приложения. Возвращается новая копия при каждом вызове.
func DefaultMenu() []domain.MenuNode {
	admin := domain.RoleAdministrador
	return []domain.MenuNode{
		group("Inicio",
			page("/", "views/Dashboard.vue", "Escritorio"),
			page("/profile", "views/pages/Profile.vue", "Mi Perfil"),
			page("/notificaciones/:id", "views/NotificacionDetail.vue", "Detalle de Notificación"),
		),
		group("Mando Central",
			page("/admin/roles", "views/MandoCentral/Roles.vue", "Gestión de Roles", admin),
			page("/admin/casinos", "views/MandoCentral/Casinos.vue", "Casinos y Salas", admin),
			page("/admin/usuarios", "views/MandoCentral/Usuarios.vue", "Usuarios", admin),
			page("/admin/proveedores", "views/MandoCentral/Proveedores.vue", "Proveedores", admin),
			page("/admin/modelos", "views/MandoCentral/ModelosMaquinas.vue", "Modelos", admin),
			page("/admin/maquinas", "views/MandoCentral/Maquinas.vue", "Máquinas", admin),
			page("/admin/tickets", "views/MandoCentral/Tickets.vue", "Tickets", admin),
			page("/admin/bitacora-tecnica", "views/MandoCentral/BitacoraTecnica.vue", "Bitácora Técnica", admin),
			page("/admin/mantenimientos-preventivos", "views/MandoCentral/MantenimientosPreventivos.vue", "Mantenimientos Preventivos", rolesMantenimiento...),
			page("/admin/incidentes-infraestructura", "views/MandoCentral/IncidentesInfraestructura.vue", "Incidentes de Infraestructura", admin),
		),
		group("Centro de Servicios",
			page("/centro-servicios/usuarios", "views/CentroServicios/Usuarios.vue", "Usuarios",
				domain.RoleAdministrador, domain.RoleDBAdmin, domain.RoleSupSistemas, domain.RoleGerencia, domain.RoleSupervisorSala),
			page("/centro-servicios/proveedores", "views/CentroServicios/Proveedores.vue", "Proveedores", rolesInventario...),
			page("/centro-servicios/modelos", "views/CentroServicios/ModelosMaquinas.vue", "Modelos de Máquinas", rolesInventario...),
			page("/centro-servicios/maquinas", "views/CentroServicios/Maquinas.vue", "Maquinas", rolesInventario...),
			page("/centro-servicios/tickets", "views/CentroServicios/Tickets.vue", "Tickets", rolesIncidentes...),
			page("/centro-servicios/mapa-sala", "views/CentroServicios/MapaSala.vue", "Mapa de Sala", rolesMantenimiento...),
			page("/centro-servicios/inventario", "views/CentroServicios/InventarioSala.vue", "Inventario de Sala", rolesInventario...),
			page("/centro-servicios/mantenimientos-preventivos", "views/CentroServicios/MantenimientosPreventivos.vue", "Mantenimientos Preventivos", rolesMantenimiento...),
			page("/centro-servicios/incidentes-infraestructura", "views/CentroServicios/IncidenciasInfraestructura.vue", "Incidentes de Infraestructura", rolesIncidentes...),
		),
		group("Operatividad",
			page("/operatividad/auditorias-externas", "views/Operatividad/AuditoriasExternas.vue", "Auditorías Externas", rolesMantenimiento...),
			page("/operatividad/relevo-turno", "views/Operatividad/RelevosTurnos.vue", "Relevo de Turno", rolesMantenimiento...),
		),
		page("/evolucion-nexus", "views/pages/EvolucionNexus.vue", "Evolución NEXUS",
			domain.RoleAdministrador, domain.RoleDBAdmin, domain.RoleGerencia, domain.RoleSupSistemas, domain.RoleTecnico, domain.RoleSupervisorSala),
	}
}

// SystemMenu маршруты, которые добавляются к любому меню
func SystemMenu() []domain.MenuNode {
	public := func(path, component, title string) domain.MenuNode {
		return domain.MenuNode{Kind: domain.MenuPage, Path: path, ComponentPath: component, Title: title, Public: true}
	}
	eula := public(PathEULA, "views/pages/public/lisencia.vue", "Acuerdo de Licencia de Uso")
	eula.AllowAuthenticated = true

	return []domain.MenuNode{
		public(PathNotFound, "views/pages/NotFound.vue", "Página No Encontrada"),
		public(PathLogin, "views/pages/auth/Login.vue", "Iniciar Sesión"),
		public(PathAccessDenied, "views/pages/auth/Access.vue", "Acceso Denegado"),
		public(PathError, "views/pages/auth/Error.vue", "Error del Sistema"),
		eula,
	}
}

// WithSystem возвращает меню с системными маршрутами в конце
func WithSystem(menu []domain.MenuNode) []domain.MenuNode {
	out := make([]domain.MenuNode, 0, len(menu)+len(SystemMenu()))
	out = append(out, menu...)
	return append(out, SystemMenu()...)
}

// PagePaths собирает пути всех страниц дерева в порядке обхода
func PagePaths(menu []domain.MenuNode) []string {
	var out []string
	var collect func(nodes []domain.MenuNode)
	collect = func(nodes []domain.MenuNode) {
		for _, n := range nodes {
			if n.Path != "" && n.ComponentPath != "" {
				out = append(out, n.Path)
			}
			collect(n.Children)
		}
	}
	collect(menu)
	return out
}
