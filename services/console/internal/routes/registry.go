package routes

import (
	"fmt"
	"sort"
	"sync"

	"NexusPlatform/services/console/internal/domain"
)

// Resolver находит загрузчик представления по пути компонента
type Resolver interface {
	Resolve(componentPath string) (domain.Loader, bool)
}

// View представление, известное только по пути компонента
type View struct {
	Path string
}

// Name возвращает путь компонента
func (v View) Name() string { return v.Path }

type registryEntry struct {
	load domain.Loader

	once      sync.Once
	component domain.Component
	err       error
}

// Registry набор известных представлений. Загрузчик каждого
// представления вызывается не более одного раза.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*registryEntry
}

// NewRegistry создает пустой реестр
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*registryEntry)}
}

// Register регистрирует загрузчик представления
func (r *Registry) Register(componentPath string, load domain.Loader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[componentPath] = &registryEntry{load: load}
}

// Resolve возвращает ленивый загрузчик с мемоизацией результата
func (r *Registry) Resolve(componentPath string) (domain.Loader, bool) {
	r.mu.RLock()
	entry, ok := r.entries[componentPath]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}

	return func() (domain.Component, error) {
		entry.once.Do(func() {
			entry.component, entry.err = entry.load()
			if entry.err == nil && entry.component == nil {
				entry.err = fmt.Errorf("el componente %s no devolvió vista", componentPath)
			}
		})
		return entry.component, entry.err
	}, true
}

// Components возвращает отсортированные пути зарегистрированных представлений
func (r *Registry) Components() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.entries))
	for path := range r.entries {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

// DefaultRegistry реестр со всеми представлениями встроенного меню и системными маршрутами
func DefaultRegistry() *Registry {
	r := NewRegistry()
	var register func(nodes []domain.MenuNode)
	register = func(nodes []domain.MenuNode) {
		for _, n := range nodes {
			if n.ComponentPath != "" {
				view := View{Path: n.ComponentPath}
				r.Register(n.ComponentPath, func() (domain.Component, error) { return view, nil })
			}
			register(n.Children)
		}
	}
	register(DefaultMenu())
	register(SystemMenu())
	return r
}
