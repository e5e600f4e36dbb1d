package storage

import (
	"context"
	"encoding/json"
	"fmt"
)

// Storage долговременное key/value хранилище состояния клиента.
// Delete с несколькими ключами выполняется атомарно для вызывающего.
type Storage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
}

// GetJSON читает и десериализует значение. ok == false, если ключа нет.
func GetJSON(ctx context.Context, s Storage, key string, v interface{}) (bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, fmt.Errorf("error al deserializar la clave %s: %w", key, err)
	}
	return true, nil
}

// SetJSON сериализует и сохраняет значение
func SetJSON(ctx context.Context, s Storage, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("error al serializar la clave %s: %w", key, err)
	}
	return s.Set(ctx, key, string(data))
}
