package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/annel0/pixel-platformer/internal/vec"
)

// ErrCheckpointNotFound возвращается Delete, когда удалять нечего
var ErrCheckpointNotFound = errors.New("checkpoint not found")

// Checkpoint точка возрождения актора на уровне
type Checkpoint struct {
	Level    string    `json:"level"`
	Position vec.Vec2  `json:"position"`
	SavedAt  time.Time `json:"saved_at"`
}

// CheckpointRepo определяет интерфейс для сохранения и загрузки чекпоинтов.
// Чекпоинты привязаны к ключу слота (например "player-1"), а не к ActorID:
// ID актора меняется при каждой сборке сцены.
type CheckpointRepo interface {
	// Save сохраняет чекпоинт слота
	Save(ctx context.Context, key string, cp Checkpoint) error

	// Load загружает чекпоинт.
	// Возвращает:
	//   Checkpoint - сохранённая точка
	//   bool - false если слот ещё ни разу не сохранялся
	//   error - ошибка бэкенда
	Load(ctx context.Context, key string) (Checkpoint, bool, error)

	// Delete удаляет чекпоинт (сброс прогресса)
	Delete(ctx context.Context, key string) error

	// BatchSave сохраняет несколько чекпоинтов одновременно
	BatchSave(ctx context.Context, checkpoints map[string]Checkpoint) error

	Close() error
}

func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("пустой ключ чекпоинта")
	}
	return nil
}

func ctxDone(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
