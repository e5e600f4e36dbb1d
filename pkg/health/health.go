package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"
)

// Значения статуса
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// HealthChecker интерфейс для проверки здоровья сервиса
type HealthChecker interface {
	Check(ctx context.Context) *HealthStatus
}

// HealthStatus представляет статус здоровья сервиса
type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]Status `json:"services,omitempty"`
	Version   string            `json:"version,omitempty"`
}

// Healthy сообщает, что все компоненты исправны
func (h *HealthStatus) Healthy() bool {
	return h.Status == StatusHealthy
}

// Names возвращает отсортированные имена компонентов
func (h *HealthStatus) Names() []string {
	names := make([]string, 0, len(h.Services))
	for name := range h.Services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Status представляет статус компонента
type Status struct {
	Status  string `json:"status"`
	Details string `json:"details,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// CheckFunc проверяет один компонент
type CheckFunc func(ctx context.Context) error

// ComponentChecker агрегирует проверки именованных компонентов (хранилище, API бэкенда)
type ComponentChecker struct {
	version string
	timeout time.Duration

	mu     sync.RWMutex
	checks map[string]CheckFunc
}

// NewComponentChecker создает новый ComponentChecker
func NewComponentChecker(version string, timeout time.Duration) *ComponentChecker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &ComponentChecker{
		version: version,
		timeout: timeout,
		checks:  make(map[string]CheckFunc),
	}
}

// Register добавляет проверку компонента; повторная регистрация заменяет проверку
func (c *ComponentChecker) Register(name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// Check выполняет все проверки параллельно, каждую со своим таймаутом
func (c *ComponentChecker) Check(ctx context.Context) *HealthStatus {
	c.mu.RLock()
	checks := make(map[string]CheckFunc, len(c.checks))
	for name, check := range c.checks {
		checks[name] = check
	}
	c.mu.RUnlock()

	result := &HealthStatus{
		Status:    StatusHealthy,
		Timestamp: time.Now(),
		Services:  make(map[string]Status, len(checks)),
		Version:   c.version,
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for name, check := range checks {
		wg.Add(1)
		go func(name string, check CheckFunc) {
			defer wg.Done()

			checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()

			start := time.Now()
			err := check(checkCtx)
			status := Status{Status: StatusHealthy, Latency: time.Since(start).Round(time.Millisecond).String()}
			if err != nil {
				status.Status = StatusUnhealthy
				status.Details = err.Error()
			}

			mu.Lock()
			result.Services[name] = status
			if err != nil {
				result.Status = StatusUnhealthy
			}
			mu.Unlock()
		}(name, check)
	}
	wg.Wait()

	return result
}

// Handler создает HTTP обработчик для health check эндпоинта.
// Неисправный компонент дает 503.
func Handler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := checker.Check(r.Context())

		w.Header().Set("Content-Type", "application/json")
		if status.Healthy() {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
		}

		json.NewEncoder(w).Encode(status)
	}
}

// LiveHandler создает HTTP обработчик для live check эндпоинта
func LiveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "alive"})
	}
}
