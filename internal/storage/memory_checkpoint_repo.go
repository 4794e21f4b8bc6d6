package storage

import (
	"context"
	"fmt"
	"sync"
)

// MemoryCheckpointRepo реализует CheckpointRepo в памяти.
// Используется как fallback, когда внешний бэкенд недоступен, и в тестах.
// ВНИМАНИЕ: Данные теряются при перезапуске!
type MemoryCheckpointRepo struct {
	mu   sync.RWMutex
	data map[string]Checkpoint
}

// NewMemoryCheckpointRepo создает новый репозиторий чекпоинтов в памяти
func NewMemoryCheckpointRepo() *MemoryCheckpointRepo {
	return &MemoryCheckpointRepo{
		data: make(map[string]Checkpoint),
	}
}

func (r *MemoryCheckpointRepo) Save(ctx context.Context, key string, cp Checkpoint) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := ctxDone(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[key] = cp
	return nil
}

func (r *MemoryCheckpointRepo) Load(ctx context.Context, key string) (Checkpoint, bool, error) {
	if err := validateKey(key); err != nil {
		return Checkpoint{}, false, err
	}
	if err := ctxDone(ctx); err != nil {
		return Checkpoint{}, false, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	cp, ok := r.data[key]
	return cp, ok, nil
}

func (r *MemoryCheckpointRepo) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := ctxDone(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[key]; !ok {
		return fmt.Errorf("слот %q: %w", key, ErrCheckpointNotFound)
	}
	delete(r.data, key)
	return nil
}

func (r *MemoryCheckpointRepo) BatchSave(ctx context.Context, checkpoints map[string]Checkpoint) error {
	if len(checkpoints) == 0 {
		return nil
	}
	if err := ctxDone(ctx); err != nil {
		return err
	}
	// Валидация всех записей перед сохранением
	for key := range checkpoints {
		if err := validateKey(key); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for key, cp := range checkpoints {
		r.data[key] = cp
	}
	return nil
}

// Count возвращает количество сохранённых слотов (для отладки)
func (r *MemoryCheckpointRepo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.data)
}

func (r *MemoryCheckpointRepo) Close() error { return nil }
