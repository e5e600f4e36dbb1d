package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"NexusPlatform/pkg/config"
	"NexusPlatform/pkg/logger"
)

// Client представляет подключение к Redis
type Client struct {
	Client *redis.Client
}

// Config представляет конфигурацию Redis
type Config struct {
	Addr     string
	Password string
	DB       int
	// Connection pool settings
	PoolSize    int
	MinIdleConn int
	// Retry settings
	MaxRetries    int
	RetryInterval time.Duration
	// Health check
	HealthCheck time.Duration
}

// NewConfig создает конфигурацию по умолчанию
func NewConfig() *Config {
	return &Config{
		Addr:          "localhost:6379",
		Password:      "",
		DB:            0,
		PoolSize:      10,
		MinIdleConn:   2,
		MaxRetries:    3,
		RetryInterval: 1 * time.Second,
		HealthCheck:   30 * time.Second,
	}
}

// FromConfig строит конфигурацию подключения из секции redis общего конфига
func FromConfig(cfg config.RedisConfig) (*Config, error) {
	c := NewConfig()
	if cfg.Addr != "" {
		c.Addr = cfg.Addr
	}
	c.Password = cfg.Password
	c.DB = cfg.DB
	if cfg.PoolSize > 0 {
		c.PoolSize = cfg.PoolSize
	}
	if cfg.MinIdleConn > 0 {
		c.MinIdleConn = cfg.MinIdleConn
	}
	if cfg.MaxRetries >= 0 {
		c.MaxRetries = cfg.MaxRetries
	}
	if cfg.RetryInterval != "" {
		d, err := time.ParseDuration(cfg.RetryInterval)
		if err != nil {
			return nil, fmt.Errorf("redis.retry_interval inválido: %w", err)
		}
		c.RetryInterval = d
	}
	if cfg.HealthCheck != "" {
		d, err := time.ParseDuration(cfg.HealthCheck)
		if err != nil {
			return nil, fmt.Errorf("redis.health_check inválido: %w", err)
		}
		c.HealthCheck = d
	}
	return c, nil
}

// Connect устанавливает подключение к Redis с retry логикой.
// Ожидание между попытками прерывается отменой контекста.
func Connect(ctx context.Context, cfg *Config, log logger.Logger) (*Client, error) {
	var lastErr error

	for i := 0; i <= cfg.MaxRetries; i++ {
		client := redis.NewClient(&redis.Options{
			Addr:         cfg.Addr,
			Password:     cfg.Password,
			DB:           cfg.DB,
			PoolSize:     cfg.PoolSize,
			MinIdleConns: cfg.MinIdleConn,
			// Таймауты
			DialTimeout:        5 * time.Second,
			ReadTimeout:        3 * time.Second,
			WriteTimeout:       3 * time.Second,
			PoolTimeout:        4 * time.Second,
			IdleCheckFrequency: cfg.HealthCheck,
		})

		err := client.Ping(ctx).Err()
		if err == nil {
			log.Debug("connected to redis", logger.String("addr", cfg.Addr), logger.Int("attempt", i+1))
			return &Client{Client: client}, nil
		}

		lastErr = fmt.Errorf("redis no responde: %w", err)
		client.Close()
		log.Warn("redis ping failed", logger.String("addr", cfg.Addr), logger.Int("attempt", i+1), logger.Error(err))

		if i < cfg.MaxRetries {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("conexión a redis interrumpida: %w", ctx.Err())
			case <-time.After(cfg.RetryInterval):
			}
		}
	}

	return nil, fmt.Errorf("no se pudo conectar a redis tras %d intentos: %w", cfg.MaxRetries, lastErr)
}

// Close закрывает подключение к Redis
func (r *Client) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

// HealthCheck проверяет состояние подключения к Redis
func (r *Client) HealthCheck(ctx context.Context) error {
	if r.Client == nil {
		return fmt.Errorf("el cliente de redis no está inicializado")
	}
	return r.Client.Ping(ctx).Err()
}
