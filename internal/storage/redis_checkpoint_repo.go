package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/annel0/pixel-platformer/internal/logging"
)

// RedisCheckpointRepo хранит чекпоинты в Redis (JSON по ключу слота).
// Save складывает записи в батч-буфер, фоновая горутина сбрасывает его пайплайном.
type RedisCheckpointRepo struct {
	client      *redis.Client
	keyPrefix   string
	ttl         time.Duration
	batchSize   int
	batchMu     sync.Mutex
	batchBuffer map[string]Checkpoint
	batchTicker *time.Ticker
	shutdown    chan struct{}
	wg          sync.WaitGroup
	logger      *logging.Logger
}

// RedisConfig содержит настройки подключения к Redis
type RedisConfig struct {
	Addr         string        // Адрес Redis сервера
	Password     string        // Пароль (пустой если не требуется)
	DB           int           // Номер базы данных
	KeyPrefix    string        // Префикс для ключей
	TTL          time.Duration // 0 - без срока жизни
	BatchSize    int           // Размер батча для записи
	BatchFlushMs int           // Интервал сброса батча в миллисекундах
}

// DefaultRedisConfig возвращает конфигурацию по умолчанию
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Addr:         "localhost:6379",
		KeyPrefix:    "platformer:checkpoint:",
		BatchSize:    32,
		BatchFlushMs: 250,
	}
}

// NewRedisCheckpointRepo подключается к Redis и запускает сброс батчей
func NewRedisCheckpointRepo(ctx context.Context, config *RedisConfig) (*RedisCheckpointRepo, error) {
	if config == nil {
		config = DefaultRedisConfig()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	repo := &RedisCheckpointRepo{
		client:      client,
		keyPrefix:   config.KeyPrefix,
		ttl:         config.TTL,
		batchSize:   config.BatchSize,
		batchBuffer: make(map[string]Checkpoint),
		batchTicker: time.NewTicker(time.Duration(config.BatchFlushMs) * time.Millisecond),
		shutdown:    make(chan struct{}),
		logger:      logging.GetStorageLogger(),
	}
	repo.wg.Add(1)
	go repo.batchFlusher()

	repo.logger.Info("🔴 Connected to Redis at %s", config.Addr)
	return repo, nil
}

// Save кладёт чекпоинт в батч-буфер; полный буфер сбрасывается сразу
func (r *RedisCheckpointRepo) Save(ctx context.Context, key string, cp Checkpoint) error {
	if err := validateKey(key); err != nil {
		return err
	}
	r.batchMu.Lock()
	r.batchBuffer[key] = cp
	if len(r.batchBuffer) >= r.batchSize {
		batch := r.batchBuffer
		r.batchBuffer = make(map[string]Checkpoint)
		r.batchMu.Unlock()
		return r.flushBatch(ctx, batch)
	}
	r.batchMu.Unlock()
	return nil
}

// Load сначала смотрит в несброшенный буфер, затем в Redis
func (r *RedisCheckpointRepo) Load(ctx context.Context, key string) (Checkpoint, bool, error) {
	if err := validateKey(key); err != nil {
		return Checkpoint{}, false, err
	}
	r.batchMu.Lock()
	cp, pending := r.batchBuffer[key]
	r.batchMu.Unlock()
	if pending {
		return cp, true, nil
	}

	data, err := r.client.Get(ctx, r.keyPrefix+key).Bytes()
	if err == redis.Nil {
		return Checkpoint{}, false, nil
	} else if err != nil {
		return Checkpoint{}, false, fmt.Errorf("failed to get checkpoint: %w", err)
	}
	if err := json.Unmarshal(data, &cp); err != nil {
		return Checkpoint{}, false, fmt.Errorf("failed to unmarshal checkpoint: %w", err)
	}
	return cp, true, nil
}

func (r *RedisCheckpointRepo) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	r.batchMu.Lock()
	_, pending := r.batchBuffer[key]
	delete(r.batchBuffer, key)
	r.batchMu.Unlock()

	n, err := r.client.Del(ctx, r.keyPrefix+key).Result()
	if err != nil {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	if n == 0 && !pending {
		return fmt.Errorf("слот %q: %w", key, ErrCheckpointNotFound)
	}
	return nil
}

func (r *RedisCheckpointRepo) BatchSave(ctx context.Context, checkpoints map[string]Checkpoint) error {
	for key := range checkpoints {
		if err := validateKey(key); err != nil {
			return err
		}
	}
	return r.flushBatch(ctx, checkpoints)
}

// Close останавливает сброс и дописывает остаток буфера
func (r *RedisCheckpointRepo) Close() error {
	close(r.shutdown)
	r.wg.Wait()
	r.batchTicker.Stop()

	r.batchMu.Lock()
	batch := r.batchBuffer
	r.batchBuffer = make(map[string]Checkpoint)
	r.batchMu.Unlock()
	if err := r.flushBatch(context.Background(), batch); err != nil {
		r.logger.Error("❌ Failed to flush checkpoints on close: %v", err)
	}
	return r.client.Close()
}

func (r *RedisCheckpointRepo) batchFlusher() {
	defer r.wg.Done()
	for {
		select {
		case <-r.shutdown:
			return
		case <-r.batchTicker.C:
			r.batchMu.Lock()
			if len(r.batchBuffer) == 0 {
				r.batchMu.Unlock()
				continue
			}
			batch := r.batchBuffer
			r.batchBuffer = make(map[string]Checkpoint)
			r.batchMu.Unlock()

			if err := r.flushBatch(context.Background(), batch); err != nil {
				r.logger.Error("❌ Failed to flush batch: %v", err)
			}
		}
	}
}

func (r *RedisCheckpointRepo) flushBatch(ctx context.Context, batch map[string]Checkpoint) error {
	if len(batch) == 0 {
		return nil
	}
	pipe := r.client.Pipeline()
	for key, cp := range batch {
		data, err := json.Marshal(cp)
		if err != nil {
			r.logger.Warn("⚠️ Failed to marshal checkpoint %s: %v", key, err)
			continue
		}
		pipe.Set(ctx, r.keyPrefix+key, data, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to execute batch: %w", err)
	}
	return nil
}
