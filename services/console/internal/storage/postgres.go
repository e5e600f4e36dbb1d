package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"NexusPlatform/pkg/logger"
)

// StateTable таблица состояния клиента
const StateTable = "nexus_client_state"

const (
	createTableSQL = `CREATE TABLE IF NOT EXISTS nexus_client_state (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`
	selectValueSQL = `SELECT value FROM nexus_client_state WHERE key = $1`
	upsertValueSQL = `INSERT INTO nexus_client_state (key, value, updated_at) VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`
	deleteValueSQL = `DELETE FROM nexus_client_state WHERE key = $1`
)

// PostgresStorage хранит состояние в PostgreSQL через database/sql (драйвер pgx stdlib)
type PostgresStorage struct {
	db     *sql.DB
	logger logger.Logger
}

// NewPostgresStorage создает хранилище поверх открытого *sql.DB
func NewPostgresStorage(db *sql.DB, log logger.Logger) *PostgresStorage {
	return &PostgresStorage{db: db, logger: log}
}

// EnsureSchema создает таблицу состояния, если ее нет
func (p *PostgresStorage) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("error al crear la tabla %s: %w", StateTable, err)
	}
	return nil
}

// Get возвращает значение ключа
func (p *PostgresStorage) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := p.db.QueryRowContext(ctx, selectValueSQL, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("error al leer %s: %w", key, err)
	}
	return value, true, nil
}

// Set сохраняет значение (upsert)
func (p *PostgresStorage) Set(ctx context.Context, key, value string) error {
	if _, err := p.db.ExecContext(ctx, upsertValueSQL, key, value); err != nil {
		return fmt.Errorf("error al guardar %s: %w", key, err)
	}
	return nil
}

// Delete удаляет ключи в одной транзакции
func (p *PostgresStorage) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error al iniciar la transacción: %w", err)
	}

	for _, key := range keys {
		if _, err := tx.ExecContext(ctx, deleteValueSQL, key); err != nil {
			tx.Rollback()
			return fmt.Errorf("error al eliminar %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error al confirmar la transacción: %w", err)
	}

	p.logger.Debug("state keys removed", logger.Strings("keys", keys))
	return nil
}

// Ping проверяет подключение
func (p *PostgresStorage) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}
