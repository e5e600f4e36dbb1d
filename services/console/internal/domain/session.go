package domain

// Фиксированные ключи персистентного состояния клиента
const (
	KeyToken        = "token"
	KeyRefreshToken = "refresh_token"
	KeyUser         = "user"
	KeyRoles        = "roles"
	KeyMenuConfig   = "menu_config"
)

// SessionKeys ключи, которые очищаются вместе при выходе или инвалидации сессии
var SessionKeys = []string{KeyToken, KeyRefreshToken, KeyUser, KeyRoles}

// Credentials данные для входа
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserProfile профиль пользователя в том виде, в котором его возвращает бэкенд
type UserProfile struct {
	ID             int64  `json:"id"`
	Username       string `json:"username"`
	Email          string `json:"email,omitempty"`
	Nombres        string `json:"nombres,omitempty"`
	NombreCompleto string `json:"nombre_completo,omitempty"`
	CasinoID       int64  `json:"casino,omitempty"`
	CasinoNombre   string `json:"casino_nombre,omitempty"`
	Rol            int64  `json:"rol,omitempty"`
	RolNombre      string `json:"rol_nombre"`
	EstaActivo     bool   `json:"esta_activo"`
	EULAAccepted   bool   `json:"EULAAceptada"`
}

// DisplayName возвращает полное имя, если оно есть, иначе логин
func (u *UserProfile) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.NombreCompleto != "" {
		return u.NombreCompleto
	}
	return u.Username
}

// Session текущая сессия. Аутентифицирована только при наличии и токена, и пользователя.
type Session struct {
	Token        string       `json:"token"`
	RefreshToken string       `json:"refresh_token"`
	User         *UserProfile `json:"usuario"`
}

// IsAuthenticated сообщает, есть ли действующая сессия
func (s Session) IsAuthenticated() bool {
	return s.Token != "" && s.User != nil
}

// LoginResponse ответ POST /usuarios/login/
type LoginResponse struct {
	Message      string       `json:"message"`
	Token        string       `json:"token"`
	RefreshToken string       `json:"refresh_token"`
	Usuario      *UserProfile `json:"usuario"`
}

// TokenPair ответ POST /usuarios/refresh/
type TokenPair struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}
