package session

import (
	"context"
	"fmt"
	"sync"

	"NexusPlatform/pkg/errors"
	"NexusPlatform/pkg/logger"
	"NexusPlatform/services/console/internal/domain"
	"NexusPlatform/services/console/internal/storage"
	"NexusPlatform/services/console/internal/transport"
)

// EventType тип изменения сессии
type EventType string

const (
	EventLogin        EventType = "login"
	EventRefreshed    EventType = "refreshed"
	EventEULAAccepted EventType = "eula_accepted"
	EventLogout       EventType = "logout"
	EventInvalidated  EventType = "invalidated"
)

// Event уведомление подписчику; Session снимок состояния после изменения
type Event struct {
	Type    EventType
	Session domain.Session
}

// Store единственный владелец состояния сессии. Любое изменение сначала
// сохраняется в хранилище, затем применяется в памяти и рассылается подписчикам.
type Store struct {
	storage storage.Storage
	logger  logger.Logger

	mu      sync.RWMutex
	session domain.Session
	roles   []domain.Role

	subMu       sync.Mutex
	subscribers map[int]func(Event)
	nextID      int
}

// NewStore создает хранилище сессии поверх долговременного хранилища
func NewStore(s storage.Storage, log logger.Logger) *Store {
	if log == nil {
		log = logger.NewNop()
	}
	return &Store{
		storage:     s,
		logger:      log.With(logger.String("component", "session")),
		subscribers: make(map[int]func(Event)),
	}
}

// Load читает сохраненную сессию. Поврежденный профиль пользователя
// считается отсутствующим, и сессия остается неаутентифицированной.
func (s *Store) Load(ctx context.Context) error {
	token, _, err := s.storage.Get(ctx, domain.KeyToken)
	if err != nil {
		return fmt.Errorf("error al leer el token: %w", err)
	}
	refresh, _, err := s.storage.Get(ctx, domain.KeyRefreshToken)
	if err != nil {
		return fmt.Errorf("error al leer el token de actualización: %w", err)
	}

	var user *domain.UserProfile
	var profile domain.UserProfile
	ok, err := storage.GetJSON(ctx, s.storage, domain.KeyUser, &profile)
	switch {
	case err != nil:
		s.logger.Warn("stored user profile is unreadable, ignoring", logger.Error(err))
	case ok:
		user = &profile
	}

	var roles []domain.Role
	if _, err := storage.GetJSON(ctx, s.storage, domain.KeyRoles, &roles); err != nil {
		s.logger.Warn("stored roles are unreadable, ignoring", logger.Error(err))
		roles = nil
	}

	s.mu.Lock()
	s.session = domain.Session{Token: token, RefreshToken: refresh, User: user}
	s.roles = roles
	s.mu.Unlock()

	s.logger.Debug("session loaded", logger.Bool("authenticated", s.IsAuthenticated()))
	return nil
}

// Session возвращает копию текущей сессии
func (s *Store) Session() domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copySession(s.session)
}

// IsAuthenticated сообщает, есть ли и токен, и пользователь
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.IsAuthenticated()
}

// User возвращает копию профиля или nil
func (s *Store) User() *domain.UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyUser(s.session.User)
}

// Token возвращает токен доступа (реализует transport.TokenSource)
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Token
}

// RefreshToken возвращает refresh токен
func (s *Store) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.RefreshToken
}

// SetLogin сохраняет данные успешного входа
func (s *Store) SetLogin(ctx context.Context, token, refresh string, user *domain.UserProfile) error {
	if token == "" || user == nil {
		return errors.New(errors.ErrInternal, "respuesta de inicio de sesión incompleta")
	}

	s.mu.Lock()
	if err := s.storage.Set(ctx, domain.KeyToken, token); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("error al guardar el token: %w", err)
	}
	if refresh != "" {
		if err := s.storage.Set(ctx, domain.KeyRefreshToken, refresh); err != nil {
			s.mu.Unlock()
			return fmt.Errorf("error al guardar el token de actualización: %w", err)
		}
	} else if err := s.storage.Delete(ctx, domain.KeyRefreshToken); err != nil {
		// refresh токен прошлой сессии не должен пережить новый вход
		s.mu.Unlock()
		return fmt.Errorf("error al eliminar el token de actualización: %w", err)
	}
	if err := storage.SetJSON(ctx, s.storage, domain.KeyUser, user); err != nil {
		s.mu.Unlock()
		return err
	}
	s.session = domain.Session{Token: token, RefreshToken: refresh, User: copyUser(user)}
	snapshot := copySession(s.session)
	s.mu.Unlock()

	s.logger.Info("session started",
		logger.String("username", user.Username),
		logger.String("role", user.RolNombre),
	)
	s.emit(Event{Type: EventLogin, Session: snapshot})
	return nil
}

// UpdateTokens заменяет пару токенов, сохраняя пользователя
func (s *Store) UpdateTokens(ctx context.Context, token, refresh string) error {
	if token == "" {
		return errors.New(errors.ErrInternal, "token vacío")
	}

	s.mu.Lock()
	if err := s.storage.Set(ctx, domain.KeyToken, token); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("error al guardar el token: %w", err)
	}
	if refresh != "" {
		if err := s.storage.Set(ctx, domain.KeyRefreshToken, refresh); err != nil {
			s.mu.Unlock()
			return fmt.Errorf("error al guardar el token de actualización: %w", err)
		}
		s.session.RefreshToken = refresh
	}
	s.session.Token = token
	snapshot := copySession(s.session)
	s.mu.Unlock()

	s.emit(Event{Type: EventRefreshed, Session: snapshot})
	return nil
}

// MarkEULAAccepted отмечает лицензию принятой в профиле текущего пользователя
func (s *Store) MarkEULAAccepted(ctx context.Context) error {
	s.mu.Lock()
	if s.session.User == nil {
		s.mu.Unlock()
		return errors.New(errors.ErrUnauthorized, "Usuario no encontrado en la sesión")
	}

	updated := copyUser(s.session.User)
	updated.EULAAccepted = true
	if err := storage.SetJSON(ctx, s.storage, domain.KeyUser, updated); err != nil {
		s.mu.Unlock()
		return err
	}
	s.session.User = updated
	snapshot := copySession(s.session)
	s.mu.Unlock()

	s.emit(Event{Type: EventEULAAccepted, Session: snapshot})
	return nil
}

// SetRoles кэширует каталог ролей
func (s *Store) SetRoles(ctx context.Context, roles []domain.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := storage.SetJSON(ctx, s.storage, domain.KeyRoles, roles); err != nil {
		return err
	}
	s.roles = append([]domain.Role(nil), roles...)
	return nil
}

// Roles возвращает кэшированный каталог ролей
func (s *Store) Roles() []domain.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Role(nil), s.roles...)
}

// Clear завершает сессию (выход пользователя)
func (s *Store) Clear(ctx context.Context) error {
	return s.reset(ctx, EventLogout)
}

// Invalidate очищает сессию после ответа 401
func (s *Store) Invalidate(ctx context.Context) error {
	return s.reset(ctx, EventInvalidated)
}

// reset удаляет все ключи сессии одним вызовом Delete
func (s *Store) reset(ctx context.Context, event EventType) error {
	s.mu.Lock()
	if err := s.storage.Delete(ctx, domain.SessionKeys...); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("error al limpiar la sesión: %w", err)
	}
	hadSession := s.session.Token != "" || s.session.User != nil
	s.session = domain.Session{}
	s.roles = nil
	s.mu.Unlock()

	if hadSession || event == EventLogout {
		s.logger.Info("session cleared", logger.String("reason", string(event)))
		s.emit(Event{Type: event})
	}
	return nil
}

// Subscribe регистрирует подписчика. Возвращает функцию отписки.
func (s *Store) Subscribe(fn func(Event)) func() {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subscribers, id)
		s.subMu.Unlock()
	}
}

func (s *Store) emit(event Event) {
	s.subMu.Lock()
	handlers := make([]func(Event), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		handlers = append(handlers, fn)
	}
	s.subMu.Unlock()

	for _, fn := range handlers {
		fn(event)
	}
}

// Bind подписывает хранилище на сигнал 401 транспорта
func (s *Store) Bind(client *transport.Client) func() {
	return client.OnUnauthenticated(func(e transport.UnauthenticatedEvent) {
		s.logger.Warn("unauthenticated response, invalidating session",
			logger.String("request_id", e.RequestID),
			logger.String("path", e.Path),
		)
		if err := s.Invalidate(context.Background()); err != nil {
			s.logger.Error("failed to invalidate session", logger.Error(err))
		}
	})
}

func copyUser(u *domain.UserProfile) *domain.UserProfile {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

func copySession(s domain.Session) domain.Session {
	s.User = copyUser(s.User)
	return s
}
