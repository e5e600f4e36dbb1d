package session

import (
	"context"
	"fmt"
	"net/http"

	"NexusPlatform/pkg/errors"
	"NexusPlatform/pkg/logger"
	"NexusPlatform/pkg/validation"
	"NexusPlatform/services/console/internal/domain"
)

// Сообщения по умолчанию, когда сервер не вернул текст ошибки
const (
	msgLoginFailed   = "Datos no validos, verifica tu usuario y contraseña"
	msgEULAFailed    = "Error al aceptar los términos y condiciones"
	msgRolesFailed   = "Error al obtener los roles"
	msgRefreshFailed = "No se pudo renovar la sesión"
)

// API минимальный транспорт, нужный сервису
type API interface {
	Do(ctx context.Context, method, path string, body, out interface{}) error
}

// Service операции аутентификации поверх Store
type Service struct {
	api       API
	store     *Store
	validator *validation.Validator
	logger    logger.Logger
}

// NewService создает сервис аутентификации
func NewService(api API, store *Store, log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		api:       api,
		store:     store,
		validator: validation.NewValidator(),
		logger:    log.With(logger.String("component", "auth")),
	}
}

// Store возвращает хранилище сессии
func (s *Service) Store() *Store {
	return s.store
}

// Login выполняет вход и сохраняет сессию.
// Ошибки всегда несут сообщение, пригодное для показа пользователю.
func (s *Service) Login(ctx context.Context, creds domain.Credentials) (domain.Session, error) {
	if err := s.validator.ValidateRequiredFields(map[string]interface{}{
		"username": creds.Username,
		"password": creds.Password,
	}, map[string]string{
		"username": "Usuario",
		"password": "Contraseña",
	}); err != nil {
		return domain.Session{}, err
	}

	var resp domain.LoginResponse
	if err := s.api.Do(ctx, http.MethodPost, "usuarios/login/", creds, &resp); err != nil {
		s.logger.Info("login rejected", logger.String("username", creds.Username), logger.String("code", string(errors.CodeOf(err))))
		return domain.Session{}, errors.WithFallback(err, msgLoginFailed)
	}

	if err := s.store.SetLogin(ctx, resp.Token, resp.RefreshToken, resp.Usuario); err != nil {
		return domain.Session{}, err
	}
	return s.store.Session(), nil
}

// Logout очищает токены, пользователя и кэш ролей
func (s *Service) Logout(ctx context.Context) error {
	return s.store.Clear(ctx)
}

// AcceptEULA принимает лицензию на сервере и сразу отражает это в профиле,
// чтобы следующая проверка навигации видела изменение без повторного входа.
func (s *Service) AcceptEULA(ctx context.Context) (string, error) {
	user := s.store.User()
	if user == nil || user.ID == 0 {
		return "", errors.New(errors.ErrUnauthorized, "Usuario no encontrado en la sesión")
	}

	var resp struct {
		Message string `json:"message"`
	}
	path := fmt.Sprintf("usuarios/%d/aceplisencia/", user.ID)
	if err := s.api.Do(ctx, http.MethodPatch, path, nil, &resp); err != nil {
		return "", errors.WithFallback(err, msgEULAFailed)
	}

	if err := s.store.MarkEULAAccepted(ctx); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// Refresh обменивает refresh токен на новую пару токенов
func (s *Service) Refresh(ctx context.Context) error {
	refresh := s.store.RefreshToken()
	if refresh == "" {
		return errors.New(errors.ErrUnauthorized, "No hay token de actualización")
	}

	var pair domain.TokenPair
	body := map[string]string{"refresh_token": refresh}
	if err := s.api.Do(ctx, http.MethodPost, "usuarios/refresh/", body, &pair); err != nil {
		return errors.WithFallback(err, msgRefreshFailed)
	}
	return s.store.UpdateTokens(ctx, pair.Token, pair.RefreshToken)
}

// FetchRoles загружает каталог ролей и кэширует его
func (s *Service) FetchRoles(ctx context.Context) ([]domain.Role, error) {
	var roles []domain.Role
	if err := s.api.Do(ctx, http.MethodGet, "roles/lista/", nil, &roles); err != nil {
		return nil, errors.WithFallback(err, msgRolesFailed)
	}
	if err := s.store.SetRoles(ctx, roles); err != nil {
		s.logger.Warn("failed to cache roles", logger.Error(err))
	}
	return roles, nil
}

// CachedRoles возвращает последний загруженный каталог ролей
func (s *Service) CachedRoles() []domain.Role {
	return s.store.Roles()
}
