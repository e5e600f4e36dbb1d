package storage

import (
	"context"
	"fmt"

	"NexusPlatform/pkg/config"
	"NexusPlatform/pkg/database"
	"NexusPlatform/pkg/logger"
	pkgredis "NexusPlatform/pkg/redis"
)

// Backend открытое хранилище вместе с функцией освобождения ресурсов
type Backend struct {
	Storage
	Name  string
	close func() error
}

// Close освобождает подключения backend-а
func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// Open открывает backend, выбранный в конфигурации
func Open(ctx context.Context, cfg *config.Config, log logger.Logger) (*Backend, error) {
	log = log.With(logger.String("storage", cfg.Storage.Backend))

	switch cfg.Storage.Backend {
	case config.StorageMemory:
		return &Backend{Storage: NewMemoryStorage(), Name: config.StorageMemory}, nil

	case config.StorageFile, "":
		fs, err := NewFileStorage(cfg.StorageDir(), log)
		if err != nil {
			return nil, err
		}
		return &Backend{Storage: fs, Name: config.StorageFile}, nil

	case config.StorageRedis:
		redisCfg, err := pkgredis.FromConfig(cfg.Redis)
		if err != nil {
			return nil, err
		}
		client, err := pkgredis.Connect(ctx, redisCfg, log)
		if err != nil {
			return nil, err
		}
		return &Backend{
			Storage: NewRedisStorage(client.Client, cfg.Storage.Prefix, log),
			Name:    config.StorageRedis,
			close:   client.Close,
		}, nil

	case config.StoragePostgres:
		pg, err := database.Connect(ctx, database.FromConfig(cfg.Database), log)
		if err != nil {
			return nil, err
		}
		db := pg.SQLDB()
		ps := NewPostgresStorage(db, log)
		if err := ps.EnsureSchema(ctx); err != nil {
			db.Close()
			pg.Close()
			return nil, err
		}
		return &Backend{
			Storage: ps,
			Name:    config.StoragePostgres,
			close: func() error {
				err := db.Close()
				pg.Close()
				return err
			},
		}, nil

	default:
		return nil, fmt.Errorf("backend de almacenamiento desconocido: %s", cfg.Storage.Backend)
	}
}
