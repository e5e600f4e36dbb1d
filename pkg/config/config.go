package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// Config представляет конфигурацию клиента NEXUS. Структура содержит вложенные структуры для различных компонентов.
type Config struct {
	Environment   string              `json:"environment" yaml:"environment"`
	Logger        LoggerConfig        `json:"logger" yaml:"logger"`
	API           APIConfig           `json:"api" yaml:"api"`
	Storage       StorageConfig       `json:"storage" yaml:"storage"`
	Redis         RedisConfig         `json:"redis" yaml:"redis"`
	Database      DatabaseConfig      `json:"database" yaml:"database"`
	Notifications NotificationsConfig `json:"notifications" yaml:"notifications"`
	Metrics       MetricsConfig       `json:"metrics" yaml:"metrics"`
}

// LoggerConfig представляет конфигурацию логгера. Определяет уровень логирования и формат вывода логов.
type LoggerConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// APIConfig представляет параметры подключения к REST бэкенду
type APIConfig struct {
	BaseURL string `json:"base_url" yaml:"base_url"`
	Timeout string `json:"timeout" yaml:"timeout"`
}

// StorageConfig определяет, где хранится состояние сессии
type StorageConfig struct {
	Backend string `json:"backend" yaml:"backend"`
	Dir     string `json:"dir" yaml:"dir"`
	Prefix  string `json:"prefix" yaml:"prefix"`
}

// RedisConfig представляет конфигурацию Redis
type RedisConfig struct {
	Addr          string `json:"addr" yaml:"addr"`
	Password      string `json:"password" yaml:"password"`
	DB            int    `json:"db" yaml:"db"`
	PoolSize      int    `json:"pool_size" yaml:"pool_size"`
	MinIdleConn   int    `json:"min_idle_conn" yaml:"min_idle_conn"`
	MaxRetries    int    `json:"max_retries" yaml:"max_retries"`
	RetryInterval string `json:"retry_interval" yaml:"retry_interval"`
	HealthCheck   string `json:"health_check" yaml:"health_check"`
}

// DatabaseConfig представляет конфигурацию базы данных. Содержит параметры подключения к базе данных, включая хост, порт, имя базы, пользователя и пароль.
type DatabaseConfig struct {
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	Name     string `json:"name" yaml:"name"`
	User     string `json:"user" yaml:"user"`
	Password string `json:"password" yaml:"password"`
	SSLMode  string `json:"ssl_mode" yaml:"ssl_mode"`
}

// NotificationsConfig настройки опроса счетчика непрочитанных
type NotificationsConfig struct {
	PollInterval string `json:"poll_interval" yaml:"poll_interval"`
}

// MetricsConfig адрес, на котором watch-режим отдает /metrics и /health
type MetricsConfig struct {
	Addr string `json:"addr" yaml:"addr"`
}

// Поддерживаемые backend-ы хранилища
const (
	StorageFile     = "file"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Default возвращает конфигурацию со значениями по умолчанию
func Default() *Config {
	return &Config{
		Environment: "dev",
		Logger: LoggerConfig{
			Level:  "info",
			Format: "json",
		},
		API: APIConfig{
			BaseURL: "http://localhost:8000/api/",
			Timeout: "10s",
		},
		Storage: StorageConfig{
			Backend: StorageFile,
			Dir:     "$HOME/.nexus",
			Prefix:  "nexus:console:",
		},
		Redis: RedisConfig{
			Addr:          "localhost:6379",
			DB:            0,
			PoolSize:      10,
			MinIdleConn:   2,
			MaxRetries:    3,
			RetryInterval: "1s",
			HealthCheck:   "30s",
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			Name:     "nexus",
			User:     "nexus",
			Password: "nexus",
			SSLMode:  "disable",
		},
		Notifications: NotificationsConfig{
			PollInterval: "45s",
		},
		Metrics: MetricsConfig{
			Addr: ":9464",
		},
	}
}

// LoadConfig загружает конфигурацию в следующем порядке приоритета:
// 1. Загрузка значений по умолчанию
// 2. Загрузка из файла (если указан)
// 3. Загрузка .env (если существует) и переопределение значениями из переменных окружения
// 4. Валидация конфигурации
// Возвращает готовую конфигурацию или ошибку.
func LoadConfig(configFile string) (*Config, error) {
	config := Default()

	if configFile != "" {
		if err := loadConfigFromFile(config, configFile); err != nil {
			return nil, fmt.Errorf("error al cargar la configuración del archivo: %w", err)
		}
	}

	if err := loadDotEnv(); err != nil {
		return nil, fmt.Errorf("error al cargar el archivo .env: %w", err)
	}

	if err := loadConfigFromEnv(config); err != nil {
		return nil, fmt.Errorf("error al cargar la configuración del entorno: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("configuración inválida: %w", err)
	}

	return config, nil
}

func loadConfigFromFile(config *Config, filename string) error {
	filename = os.ExpandEnv(filename)

	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return fmt.Errorf("el archivo de configuración no existe: %s", filename)
	}

	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return err
	}

	if strings.HasSuffix(filename, ".json") {
		return json.Unmarshal(content, config)
	}

	// Try to unmarshal as YAML first, then JSON
	if err := yaml.Unmarshal(content, config); err != nil {
		if jsonErr := json.Unmarshal(content, config); jsonErr != nil {
			return fmt.Errorf("el archivo de configuración no es YAML ni JSON válido: %w", err)
		}
	}

	return nil
}

// loadDotEnv подхватывает .env из NEXUS_ENV_FILE или текущей директории.
// Уже заданные переменные окружения не перезаписываются.
func loadDotEnv() error {
	path := os.Getenv("NEXUS_ENV_FILE")
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}

func loadConfigFromEnv(config *Config) error {
	if env := os.Getenv("NEXUS_ENVIRONMENT"); env != "" {
		config.Environment = env
	}

	// Logger config
	if level := os.Getenv("NEXUS_LOG_LEVEL"); level != "" {
		config.Logger.Level = level
	}
	if format := os.Getenv("NEXUS_LOG_FORMAT"); format != "" {
		config.Logger.Format = format
	}

	// API config
	if url := os.Getenv("NEXUS_API_URL"); url != "" {
		config.API.BaseURL = url
	}
	if timeout := os.Getenv("NEXUS_API_TIMEOUT"); timeout != "" {
		config.API.Timeout = timeout
	}

	// Storage config
	if backend := os.Getenv("NEXUS_STORAGE_BACKEND"); backend != "" {
		config.Storage.Backend = backend
	}
	if dir := os.Getenv("NEXUS_STORAGE_DIR"); dir != "" {
		config.Storage.Dir = dir
	}

	// Redis config
	if addr := os.Getenv("NEXUS_REDIS_ADDR"); addr != "" {
		config.Redis.Addr = addr
	}
	if password := os.Getenv("NEXUS_REDIS_PASSWORD"); password != "" {
		config.Redis.Password = password
	}
	if db := os.Getenv("NEXUS_REDIS_DB"); db != "" {
		n, err := strconv.Atoi(db)
		if err != nil {
			return fmt.Errorf("NEXUS_REDIS_DB inválido: %s", db)
		}
		config.Redis.DB = n
	}

	// Database config
	if host := os.Getenv("NEXUS_DB_HOST"); host != "" {
		config.Database.Host = host
	}
	if port := os.Getenv("NEXUS_DB_PORT"); port != "" {
		if _, err := fmt.Sscanf(port, "%d", &config.Database.Port); err != nil {
			return fmt.Errorf("NEXUS_DB_PORT inválido: %s", port)
		}
	}
	if name := os.Getenv("NEXUS_DB_NAME"); name != "" {
		config.Database.Name = name
	}
	if user := os.Getenv("NEXUS_DB_USER"); user != "" {
		config.Database.User = user
	}
	if password := os.Getenv("NEXUS_DB_PASSWORD"); password != "" {
		config.Database.Password = password
	}

	if interval := os.Getenv("NEXUS_POLL_INTERVAL"); interval != "" {
		config.Notifications.PollInterval = interval
	}
	if addr := os.Getenv("NEXUS_METRICS_ADDR"); addr != "" {
		config.Metrics.Addr = addr
	}

	return nil
}

func validateConfig(config *Config) error {
	// Поддерживаются только: dev, staging, prod
	switch config.Environment {
	case "dev", "staging", "prod":
	default:
		return fmt.Errorf("entorno inválido: %s, permitidos: dev, staging, prod", config.Environment)
	}

	if config.Logger.Level == "" {
		return fmt.Errorf("logger.level es requerido")
	}
	if config.Logger.Format == "" {
		return fmt.Errorf("logger.format es requerido")
	}

	if config.API.BaseURL == "" {
		return fmt.Errorf("api.base_url es requerido")
	}
	if !strings.HasPrefix(config.API.BaseURL, "http://") && !strings.HasPrefix(config.API.BaseURL, "https://") {
		return fmt.Errorf("api.base_url debe comenzar con http:// o https://")
	}
	if _, err := time.ParseDuration(config.API.Timeout); err != nil {
		return fmt.Errorf("api.timeout no es una duración válida: %s", config.API.Timeout)
	}

	switch config.Storage.Backend {
	case StorageFile, StorageMemory:
	case StorageRedis:
		if config.Redis.Addr == "" {
			return fmt.Errorf("redis.addr es requerido para el almacenamiento redis")
		}
	case StoragePostgres:
		// Проверяем, что все обязательные поля заполнены и порт в допустимом диапазоне
		if config.Database.Host == "" {
			return fmt.Errorf("database.host es requerido")
		}
		if config.Database.Port <= 0 || config.Database.Port > 65535 {
			return fmt.Errorf("database.port debe estar entre 1 y 65535")
		}
		if config.Database.Name == "" {
			return fmt.Errorf("database.name es requerido")
		}
		if config.Database.User == "" {
			return fmt.Errorf("database.user is required")
		}
	default:
		return fmt.Errorf("storage.backend inválido: %s, permitidos: file, redis, postgres, memory", config.Storage.Backend)
	}

	interval, err := time.ParseDuration(config.Notifications.PollInterval)
	if err != nil {
		return fmt.Errorf("notifications.poll_interval is not a valid duration: %s", config.Notifications.PollInterval)
	}
	if interval <= 0 {
		return fmt.Errorf("notifications.poll_interval must be positive")
	}

	return nil
}

// APITimeout возвращает таймаут запросов к API
func (c *Config) APITimeout() time.Duration {
	d, err := time.ParseDuration(c.API.Timeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// PollInterval возвращает интервал опроса непрочитанных уведомлений
func (c *Config) PollInterval() time.Duration {
	d, err := time.ParseDuration(c.Notifications.PollInterval)
	if err != nil || d <= 0 {
		return 45 * time.Second
	}
	return d
}

// StorageDir возвращает каталог файлового хранилища с раскрытыми переменными окружения
func (c *Config) StorageDir() string {
	return os.ExpandEnv(c.Storage.Dir)
}

// Save сохраняет конфигурацию в файл в формате YAML.
// Автоматически создает директорию, если она не существует.
func (c *Config) Save(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	content, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(filename, content, 0600)
}
