package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"NexusPlatform/pkg/logger"
)

// DefaultRedisPrefix префикс ключей состояния в Redis
const DefaultRedisPrefix = "nexus:console:"

// RedisCommands подмножество команд go-redis, которое использует хранилище.
// *redis.Client удовлетворяет интерфейсу.
type RedisCommands interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

// RedisStorage хранит состояние в Redis (общие киоски, несколько терминалов одного оператора)
type RedisStorage struct {
	client RedisCommands
	prefix string
	logger logger.Logger
}

// NewRedisStorage создает хранилище поверх клиента Redis
func NewRedisStorage(client RedisCommands, prefix string, log logger.Logger) *RedisStorage {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStorage{client: client, prefix: prefix, logger: log}
}

func (r *RedisStorage) key(key string) string {
	return r.prefix + key
}

// Get возвращает значение ключа
func (r *RedisStorage) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := r.client.Get(ctx, r.key(key)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("error al leer %s de Redis: %w", key, err)
	}
	return value, true, nil
}

// Set сохраняет значение без TTL: сессия живет до выхода или ответа 401
func (r *RedisStorage) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("error al guardar %s en Redis: %w", key, err)
	}
	return nil
}

// Delete удаляет ключи одной командой DEL
func (r *RedisStorage) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.key(k)
	}
	removed, err := r.client.Del(ctx, full...).Result()
	if err != nil {
		return fmt.Errorf("error al eliminar claves de Redis: %w", err)
	}
	r.logger.Debug("state keys removed", logger.Strings("keys", keys), logger.Int64("removed", removed))
	return nil
}

// Ping проверяет подключение
func (r *RedisStorage) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
