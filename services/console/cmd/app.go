package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	pkgconfig "NexusPlatform/pkg/config"
	"NexusPlatform/pkg/health"
	"NexusPlatform/pkg/logger"
	"NexusPlatform/pkg/metrics"
	"NexusPlatform/services/console/internal/access"
	"NexusPlatform/services/console/internal/guard"
	"NexusPlatform/services/console/internal/notification"
	"NexusPlatform/services/console/internal/routes"
	"NexusPlatform/services/console/internal/session"
	"NexusPlatform/services/console/internal/storage"
	"NexusPlatform/services/console/internal/transport"
)

const commandTimeout = 30 * time.Second

// app собранные компоненты клиента для одного запуска
type app struct {
	cfg     *pkgconfig.Config
	metrics *metrics.Metrics
	log     logger.Logger

	backend       *storage.Backend
	store         *session.Store
	api           *transport.Client
	auth          *session.Service
	notifications *notification.Client
	menus         *routes.MenuSource
	registry      *routes.Registry

	unbind func()
}

// newApp открывает хранилище, восстанавливает сессию и связывает транспорт
// с хранилищем сессии: любой 401 инвалидирует сессию.
func newApp(ctx context.Context, cfg *pkgconfig.Config, m *metrics.Metrics, log logger.Logger) (*app, error) {
	backend, err := storage.Open(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("error al abrir el almacenamiento: %w", err)
	}

	store := session.NewStore(backend, log)
	if err := store.Load(ctx); err != nil {
		backend.Close()
		return nil, fmt.Errorf("error al cargar la sesión: %w", err)
	}

	api, err := transport.New(transport.Options{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.APITimeout(),
		Tokens:  store,
		Metrics: m,
		Logger:  log,
	})
	if err != nil {
		backend.Close()
		return nil, err
	}

	a := &app{
		cfg:           cfg,
		metrics:       m,
		log:           log,
		backend:       backend,
		store:         store,
		api:           api,
		auth:          session.NewService(api, store, log),
		notifications: notification.NewClient(api, log),
		menus:         routes.NewMenuSource(backend, api, log),
		registry:      routes.DefaultRegistry(),
	}
	a.unbind = store.Bind(api)

	log.Debug("console ready",
		logger.String("api", api.BaseURL()),
		logger.String("storage", backend.Name),
		logger.Bool("authenticated", store.IsAuthenticated()))
	return a, nil
}

// Close освобождает ресурсы
func (a *app) Close() error {
	if a.unbind != nil {
		a.unbind()
	}
	return a.backend.Close()
}

// newInbox создает Inbox поверх клиента уведомлений
func (a *app) newInbox() *notification.Inbox {
	return notification.NewInbox(a.notifications, a.metrics, a.log)
}

// routeTable загружает меню и строит таблицу маршрутов вместе с системными страницами
func (a *app) routeTable(ctx context.Context) (routes.LoadedMenu, routes.Table, error) {
	loaded, err := a.menus.Load(ctx)
	if err != nil {
		return routes.LoadedMenu{}, routes.Table{}, err
	}
	table := routes.BuildRoutes(routes.WithSystem(loaded.Menu), a.registry, a.log)
	return loaded, table, nil
}

// newGuard строит охранник навигации по текущему меню
func (a *app) newGuard(ctx context.Context, titles guard.TitleSink) (*guard.Guard, routes.Table, error) {
	_, table, err := a.routeTable(ctx)
	if err != nil {
		return nil, routes.Table{}, err
	}
	return guard.New(routes.NewMatcher(table), a.store, titles, a.log), table, nil
}

// evaluator проверка ролей текущего пользователя
func (a *app) evaluator() *access.Evaluator {
	return access.NewEvaluator(a.store)
}

// healthChecker проверяет хранилище и доступность API.
// Проверка API идет мимо транспорта, чтобы 401 не сбрасывал сессию.
func (a *app) healthChecker() *health.ComponentChecker {
	checker := health.NewComponentChecker(Version, 5*time.Second)
	checker.Register("storage", a.backend.Ping)

	httpClient := &http.Client{Timeout: a.cfg.APITimeout()}
	if a.metrics != nil {
		httpClient.Transport = a.metrics.Transport(http.DefaultTransport)
	}
	baseURL := a.api.BaseURL()
	checker.Register("api", func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
		if err != nil {
			return err
		}
		resp, err := httpClient.Do(req)
		if err != nil {
			return err
		}
		resp.Body.Close()
		if resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("API respondió %d", resp.StatusCode)
		}
		return nil
	})
	return checker
}

// getApp лениво собирает компоненты при первом обращении команды
func (c *cli) getApp() (*app, error) {
	if c.app != nil {
		return c.app, nil
	}
	ctx, cancel := context.WithTimeout(c.ctx, commandTimeout)
	defer cancel()

	a, err := newApp(ctx, c.svc, c.metrics, c.log)
	if err != nil {
		return nil, err
	}
	c.app = a
	return a, nil
}

// withTimeout контекст одной команды
func (c *cli) withTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.ctx, commandTimeout)
}
