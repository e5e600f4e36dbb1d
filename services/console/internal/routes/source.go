package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"gopkg.in/yaml.v2"

	"NexusPlatform/pkg/errors"
	"NexusPlatform/pkg/logger"
	"NexusPlatform/services/console/internal/domain"
	"NexusPlatform/services/console/internal/storage"
)

// Origin откуда было взято меню
type Origin string

const (
	OriginOverride Origin = "override"
	OriginRemote   Origin = "remote"
	OriginDefault  Origin = "default"
)

// API транспорт для удаленного меню
type API interface {
	Do(ctx context.Context, method, path string, body, out interface{}) error
}

// LoadedMenu результат загрузки меню
type LoadedMenu struct {
	Menu        []domain.MenuNode `json:"menu"`
	Origin      Origin            `json:"origin"`
	Diagnostics []Diagnostic      `json:"diagnostics,omitempty"`
	// MissingDefaults пути встроенного меню, которых нет в сохраненной настройке
	MissingDefaults []string `json:"missing_defaults,omitempty"`
}

// MenuSource выбирает конфигурацию меню.
// Сохраненная настройка целиком заменяет встроенное меню, без слияния.
type MenuSource struct {
	storage  storage.Storage
	api      API
	defaults func() []domain.MenuNode
	logger   logger.Logger
}

// NewMenuSource создает источник меню; api может быть nil
func NewMenuSource(s storage.Storage, api API, log logger.Logger) *MenuSource {
	if log == nil {
		log = logger.NewNop()
	}
	return &MenuSource{
		storage:  s,
		api:      api,
		defaults: DefaultMenu,
		logger:   log.With(logger.String("component", "menu")),
	}
}

// Load загружает меню: сохраненная настройка, затем активное меню сервера,
// затем встроенное меню.
func (m *MenuSource) Load(ctx context.Context) (LoadedMenu, error) {
	raw, ok, err := m.storage.Get(ctx, domain.KeyMenuConfig)
	if err != nil {
		return LoadedMenu{}, fmt.Errorf("error al leer la configuración del menú: %w", err)
	}

	if ok {
		menu, err := ParseMenu([]byte(raw))
		if err == nil {
			return m.fromOverride(menu), nil
		}
		m.logger.Warn("stored menu override is unreadable, ignoring", logger.Error(err))
	}

	if m.api != nil {
		var remote []domain.MenuNode
		if err := m.api.Do(ctx, http.MethodGet, "menus/activo/", nil, &remote); err != nil {
			m.logger.Info("remote menu unavailable, using default", logger.Error(err))
		} else if len(remote) > 0 {
			menu, diags := ValidateMenu(remote)
			m.logDiagnostics(diags)
			return LoadedMenu{Menu: menu, Origin: OriginRemote, Diagnostics: diags}, nil
		}
	}

	menu, diags := ValidateMenu(m.defaults())
	return LoadedMenu{Menu: menu, Origin: OriginDefault, Diagnostics: diags}, nil
}

func (m *MenuSource) fromOverride(override []domain.MenuNode) LoadedMenu {
	menu, diags := ValidateMenu(override)
	m.logDiagnostics(diags)

	present := make(map[string]struct{})
	for _, p := range PagePaths(menu) {
		present[p] = struct{}{}
	}
	var missing []string
	for _, p := range PagePaths(m.defaults()) {
		if _, ok := present[p]; !ok {
			missing = append(missing, p)
		}
	}
	if len(missing) > 0 {
		m.logger.Warn("stale menu override",
			logger.Strings("missing_paths", missing),
			logger.Int("missing", len(missing)),
		)
	}

	return LoadedMenu{Menu: menu, Origin: OriginOverride, Diagnostics: diags, MissingDefaults: missing}
}

func (m *MenuSource) logDiagnostics(diags []Diagnostic) {
	for _, d := range diags {
		m.logger.Warn("menu diagnostic",
			logger.String("location", d.Location),
			logger.String("path", d.Path),
			logger.String("message", d.Message),
		)
	}
}

// SaveOverride проверяет меню и сохраняет его как пользовательскую настройку
func (m *MenuSource) SaveOverride(ctx context.Context, menu []domain.MenuNode) ([]Diagnostic, error) {
	cleaned, diags := ValidateMenu(menu)
	if len(PagePaths(cleaned)) == 0 {
		return diags, errors.New(errors.ErrValidation, "el menú no contiene páginas válidas")
	}

	data, err := json.Marshal(cleaned)
	if err != nil {
		return diags, fmt.Errorf("error al serializar el menú: %w", err)
	}
	if err := m.storage.Set(ctx, domain.KeyMenuConfig, string(data)); err != nil {
		return diags, fmt.Errorf("error al guardar el menú: %w", err)
	}
	m.logger.Info("menu override saved", logger.Int("pages", len(PagePaths(cleaned))))
	return diags, nil
}

// ClearOverride удаляет пользовательскую настройку меню
func (m *MenuSource) ClearOverride(ctx context.Context) error {
	return m.storage.Delete(ctx, domain.KeyMenuConfig)
}

// Publish отправляет меню на сервер как активное
func (m *MenuSource) Publish(ctx context.Context, menu []domain.MenuNode) error {
	if m.api == nil {
		return errors.New(errors.ErrInternal, "cliente API no configurado")
	}
	cleaned, _ := ValidateMenu(menu)
	var resp struct {
		Success bool `json:"success"`
	}
	if err := m.api.Do(ctx, http.MethodPost, "menus/", cleaned, &resp); err != nil {
		return errors.WithFallback(err, "Error al publicar el menú")
	}
	if !resp.Success {
		return errors.New(errors.ErrBusinessRule, "el servidor no aceptó el menú")
	}
	return nil
}

// ParseMenu разбирает меню в JSON или YAML
func ParseMenu(data []byte) ([]domain.MenuNode, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("menú vacío")
	}

	var menu []domain.MenuNode
	if trimmed[0] == '[' || trimmed[0] == '{' {
		if trimmed[0] == '{' {
			var wrapper struct {
				Menu []domain.MenuNode `json:"menu"`
			}
			if err := json.Unmarshal(trimmed, &wrapper); err != nil {
				return nil, fmt.Errorf("error al interpretar el menú: %w", err)
			}
			return wrapper.Menu, nil
		}
		if err := json.Unmarshal(trimmed, &menu); err != nil {
			return nil, fmt.Errorf("error al interpretar el menú: %w", err)
		}
		return menu, nil
	}

	if err := yaml.Unmarshal(trimmed, &menu); err != nil {
		return nil, fmt.Errorf("error al interpretar el menú: %w", err)
	}
	return menu, nil
}
