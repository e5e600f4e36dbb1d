package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	pkgconfig "NexusPlatform/pkg/config"
	"NexusPlatform/pkg/validation"
)

// Config представляет пользовательскую конфигурацию консоли (~/.nexus/config.yaml).
// Значения поверх сервисной конфигурации pkg/config.
type Config struct {
	// API настройки
	API struct {
		BaseURL string `yaml:"base_url" json:"base_url"`
		Timeout string `yaml:"timeout" json:"timeout"`
	} `yaml:"api" json:"api"`

	// Хранилище состояния сессии
	Storage struct {
		Backend string `yaml:"backend" json:"backend"`
	} `yaml:"storage" json:"storage"`

	// Опрос непрочитанных уведомлений
	Notifications struct {
		PollInterval string `yaml:"poll_interval" json:"poll_interval"`
	} `yaml:"notifications" json:"notifications"`

	// Настройки вывода
	Output struct {
		Format string `yaml:"format" json:"format"` // table, json, yaml
		Colors bool   `yaml:"colors" json:"colors"`
	} `yaml:"output" json:"output"`

	// Файл сервисной конфигурации (logger, redis, database)
	ServiceConfig string `yaml:"service_config,omitempty" json:"service_config,omitempty"`

	// Путь к файлу конфигурации
	Path string `yaml:"-" json:"-"`
}

// Ключи, которые можно менять командой config set
const (
	KeyBaseURL       = "api.base_url"
	KeyTimeout       = "api.timeout"
	KeyStorage       = "storage.backend"
	KeyPollInterval  = "notifications.poll_interval"
	KeyOutputFormat  = "output.format"
	KeyOutputColors  = "output.colors"
	KeyServiceConfig = "service_config"
)

var validFormats = []string{"table", "json", "yaml"}

var validBackends = []string{
	pkgconfig.StorageFile,
	pkgconfig.StorageRedis,
	pkgconfig.StoragePostgres,
	pkgconfig.StorageMemory,
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *Config {
	config := &Config{}

	config.API.BaseURL = "http://localhost:8000/api/"
	config.API.Timeout = "10s"

	config.Storage.Backend = pkgconfig.StorageFile

	config.Notifications.PollInterval = "45s"

	config.Output.Format = "table"
	config.Output.Colors = true

	return config
}

// LoadConfig загружает конфигурацию из файла.
// Если файла нет, возвращается конфигурация по умолчанию.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()
	config.Path = path

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error al leer el archivo de configuración: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error al interpretar la configuración: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Save сохраняет конфигурацию в файл
func (c *Config) Save() error {
	if c.Path == "" {
		return fmt.Errorf("no se indicó la ruta del archivo de configuración")
	}

	if err := os.MkdirAll(filepath.Dir(c.Path), 0700); err != nil {
		return fmt.Errorf("error al crear el directorio: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("error al serializar la configuración: %w", err)
	}

	if err := os.WriteFile(c.Path, data, 0600); err != nil {
		return fmt.Errorf("error al escribir el archivo de configuración: %w", err)
	}

	return nil
}

// GetConfigPath возвращает путь к файлу конфигурации
func GetConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("no se pudo obtener el directorio personal: %w", err)
	}

	return filepath.Join(home, ".nexus", "config.yaml"), nil
}

// InitConfig создает файл с настройками по умолчанию.
// Существующий файл перезаписывается только при force.
func InitConfig(path string, force bool) (*Config, error) {
	if path == "" {
		var err error
		if path, err = GetConfigPath(); err != nil {
			return nil, err
		}
	}

	if _, err := os.Stat(path); err == nil && !force {
		return nil, fmt.Errorf("el archivo de configuración ya existe: %s", path)
	}

	config := DefaultConfig()
	config.Path = path

	if err := config.Save(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate проверяет валидность конфигурации
func (c *Config) Validate() error {
	v := validation.NewValidator()

	if err := v.ValidateURL(c.API.BaseURL, []string{"http", "https"}); err != nil {
		return fmt.Errorf("api.base_url inválido: %w", err)
	}

	if d, err := time.ParseDuration(c.API.Timeout); err != nil || d <= 0 {
		return fmt.Errorf("api.timeout debe ser una duración positiva: %s", c.API.Timeout)
	}

	if d, err := time.ParseDuration(c.Notifications.PollInterval); err != nil || d <= 0 {
		return fmt.Errorf("notifications.poll_interval debe ser una duración positiva: %s", c.Notifications.PollInterval)
	}

	if err := v.ValidateEnum(c.Storage.Backend, validBackends, "storage.backend"); err != nil {
		return fmt.Errorf("backend de almacenamiento inválido: %s", c.Storage.Backend)
	}

	if err := v.ValidateEnum(c.Output.Format, validFormats, "output.format"); err != nil {
		return fmt.Errorf("formato de salida inválido: %s", c.Output.Format)
	}

	return nil
}

// Keys возвращает ключи, поддерживаемые Set, в алфавитном порядке
func Keys() []string {
	keys := []string{KeyBaseURL, KeyTimeout, KeyStorage, KeyPollInterval, KeyOutputFormat, KeyOutputColors, KeyServiceConfig}
	sort.Strings(keys)
	return keys
}

// Set меняет одно значение по ключу и проверяет результат.
// При ошибке конфигурация остается прежней.
func (c *Config) Set(key, value string) error {
	next := *c

	switch strings.ToLower(key) {
	case KeyBaseURL:
		next.API.BaseURL = value
	case KeyTimeout:
		next.API.Timeout = value
	case KeyStorage:
		next.Storage.Backend = value
	case KeyPollInterval:
		next.Notifications.PollInterval = value
	case KeyOutputFormat:
		next.Output.Format = strings.ToLower(value)
	case KeyOutputColors:
		colors, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("output.colors debe ser true o false: %s", value)
		}
		next.Output.Colors = colors
	case KeyServiceConfig:
		next.ServiceConfig = value
	default:
		return fmt.Errorf("clave desconocida %q, disponibles: %s", key, strings.Join(Keys(), ", "))
	}

	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

// SetAPISettings устанавливает настройки API
func (c *Config) SetAPISettings(baseURL, timeout string) {
	c.API.BaseURL = baseURL
	c.API.Timeout = timeout
}

// SetOutputSettings устанавливает настройки вывода
func (c *Config) SetOutputSettings(format string, colors bool) {
	c.Output.Format = format
	c.Output.Colors = colors
}

// Apply переносит значения консоли в сервисную конфигурацию
func (c *Config) Apply(base *pkgconfig.Config) {
	if c.API.BaseURL != "" {
		base.API.BaseURL = c.API.BaseURL
	}
	if c.API.Timeout != "" {
		base.API.Timeout = c.API.Timeout
	}
	if c.Storage.Backend != "" {
		base.Storage.Backend = c.Storage.Backend
	}
	if c.Notifications.PollInterval != "" {
		base.Notifications.PollInterval = c.Notifications.PollInterval
	}
}
