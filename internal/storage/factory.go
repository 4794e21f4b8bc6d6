package storage

import (
	"context"
	"fmt"

	"github.com/annel0/pixel-platformer/internal/config"
)

// OpenCheckpointRepo создаёт репозиторий по storage.backend
func OpenCheckpointRepo(ctx context.Context, cfg config.StorageConfig) (CheckpointRepo, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*cfg.StorageTimeout())
	defer cancel()

	switch cfg.Backend {
	case "", "memory":
		return NewMemoryCheckpointRepo(), nil
	case "redis":
		rc := DefaultRedisConfig()
		if cfg.RedisAddr != "" {
			rc.Addr = cfg.RedisAddr
		}
		return NewRedisCheckpointRepo(ctx, rc)
	case "maria":
		return NewMariaCheckpointRepo(ctx, cfg.MariaDSN)
	case "mongo":
		return NewMongoCheckpointRepo(ctx, MongoConfig{URI: cfg.MongoURI, Database: cfg.MongoDB})
	default:
		return nil, fmt.Errorf("неизвестный бэкенд чекпоинтов %q", cfg.Backend)
	}
}
