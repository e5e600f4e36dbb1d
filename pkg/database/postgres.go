package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"NexusPlatform/pkg/config"
	"NexusPlatform/pkg/logger"
)

// Postgres представляет подключение к PostgreSQL
type Postgres struct {
	Pool *pgxpool.Pool
}

// Config представляет конфигурацию PostgreSQL
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	// Connection pool settings
	MaxConns    int
	MinConns    int
	MaxConnLife time.Duration
	MaxConnIdle time.Duration
	HealthCheck time.Duration
	// Retry settings
	MaxRetries    int
	RetryInterval time.Duration
}

// NewConfig создает конфигурацию по умолчанию.
// Клиенту достаточно маленького пула: состояние сессии читается и пишется редко.
func NewConfig() *Config {
	return &Config{
		Host:          "localhost",
		Port:          5432,
		User:          "nexus",
		Password:      "nexus",
		Database:      "nexus",
		SSLMode:       "disable",
		MaxConns:      4,
		MinConns:      1,
		MaxConnLife:   30 * time.Minute,
		MaxConnIdle:   5 * time.Minute,
		HealthCheck:   30 * time.Second,
		MaxRetries:    3,
		RetryInterval: 1 * time.Second,
	}
}

// FromConfig строит конфигурацию подключения из секции database общего конфига
func FromConfig(cfg config.DatabaseConfig) *Config {
	c := NewConfig()
	if cfg.Host != "" {
		c.Host = cfg.Host
	}
	if cfg.Port != 0 {
		c.Port = cfg.Port
	}
	if cfg.User != "" {
		c.User = cfg.User
	}
	c.Password = cfg.Password
	if cfg.Name != "" {
		c.Database = cfg.Name
	}
	if cfg.SSLMode != "" {
		c.SSLMode = cfg.SSLMode
	}
	return c
}

// ConnString возвращает строку подключения с параметрами пула
func (c *Config) ConnString() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   "/" + c.Database,
	}
	q := url.Values{}
	q.Set("sslmode", c.SSLMode)
	q.Set("pool_max_conns", fmt.Sprint(c.MaxConns))
	q.Set("pool_min_conns", fmt.Sprint(c.MinConns))
	q.Set("pool_max_conn_lifetime", c.MaxConnLife.String())
	q.Set("pool_max_conn_idle_time", c.MaxConnIdle.String())
	u.RawQuery = q.Encode()
	return u.String()
}

// PoolConfig разбирает строку подключения в конфигурацию пула
func (c *Config) PoolConfig() (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(c.ConnString())
	if err != nil {
		return nil, fmt.Errorf("configuración de pool inválida: %w", err)
	}
	poolConfig.HealthCheckPeriod = c.HealthCheck
	poolConfig.MaxConnLifetimeJitter = 30 * time.Second
	return poolConfig, nil
}

// Connect устанавливает подключение к PostgreSQL с retry логикой
func Connect(ctx context.Context, cfg *Config, log logger.Logger) (*Postgres, error) {
	poolConfig, err := cfg.PoolConfig()
	if err != nil {
		return nil, err
	}

	var lastErr error
	for i := 0; i <= cfg.MaxRetries; i++ {
		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				log.Debug("connected to postgres", logger.String("host", cfg.Host), logger.String("database", cfg.Database))
				return &Postgres{Pool: pool}, nil
			}
			pool.Close()
			lastErr = fmt.Errorf("la base de datos no responde: %w", err)
		} else {
			lastErr = fmt.Errorf("error al conectar a la base de datos: %w", err)
		}

		log.Warn("postgres connect failed", logger.String("host", cfg.Host), logger.Int("attempt", i+1), logger.Error(lastErr))

		if i < cfg.MaxRetries {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("conexión a postgres interrumpida: %w", ctx.Err())
			case <-time.After(cfg.RetryInterval):
			}
		}
	}

	return nil, fmt.Errorf("no se pudo conectar a la base de datos tras %d intentos: %w", cfg.MaxRetries, lastErr)
}

// SQLDB возвращает database/sql обертку над пулом (pgx stdlib)
func (p *Postgres) SQLDB() *sql.DB {
	return stdlib.OpenDBFromPool(p.Pool)
}

// Close закрывает подключение к базе данных
func (p *Postgres) Close() {
	if p.Pool != nil {
		p.Pool.Close()
	}
}

// HealthCheck проверяет состояние подключения к базе данных
func (p *Postgres) HealthCheck(ctx context.Context) error {
	if p.Pool == nil {
		return fmt.Errorf("el pool de la base de datos no está inicializado")
	}

	var result string
	return p.Pool.QueryRow(ctx, "SELECT 'healthy'").Scan(&result)
}
