package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/annel0/pixel-platformer/internal/logging"
	"github.com/annel0/pixel-platformer/internal/physics"
	"github.com/annel0/pixel-platformer/internal/vec"
)

// ErrCheckpointWriterBusy очередь записи переполнена, чекпоинт остался только в памяти
var ErrCheckpointWriterBusy = errors.New("checkpoint writer busy")

// ErrCheckpointWriterClosed запись после Close
var ErrCheckpointWriterClosed = errors.New("checkpoint writer closed")

const defaultCheckpointQueue = 16

// SlotResolver сопоставляет актору ключ слота чекпоинта
type SlotResolver func(id physics.ActorID) (string, bool)

type pendingCheckpoint struct {
	key string
	cp  Checkpoint
}

// CheckpointRespawn выдаёт точку возрождения из кэша последних чекпоинтов.
// Кадр симуляции не ходит в бэкенд: кэш прогревается при сборке сцены через Warm,
// а Remember обновляет его сразу и пишет в репозиторий фоновой горутиной.
// Без сохранённой точки используется безопасная точка.
type CheckpointRespawn struct {
	repo     CheckpointRepo
	resolve  SlotResolver
	fallback physics.SafePointRespawn
	timeout  time.Duration
	logger   *logging.Logger

	mu     sync.RWMutex
	cached map[string]Checkpoint
	closed bool

	queue chan pendingCheckpoint
	wg    sync.WaitGroup
	once  sync.Once
}

var _ physics.RespawnProvider = (*CheckpointRespawn)(nil)

func NewCheckpointRespawn(repo CheckpointRepo, resolve SlotResolver, fallback vec.Vec2, timeout time.Duration) *CheckpointRespawn {
	if timeout <= 0 {
		timeout = 200 * time.Millisecond
	}
	c := &CheckpointRespawn{
		repo:     repo,
		resolve:  resolve,
		fallback: physics.SafePointRespawn{Point: fallback},
		timeout:  timeout,
		logger:   logging.GetStorageLogger(),
		cached:   make(map[string]Checkpoint),
		queue:    make(chan pendingCheckpoint, defaultCheckpointQueue),
	}
	c.wg.Add(1)
	go c.writer()
	return c
}

// Warm загружает чекпоинт слота из репозитория в кэш. Вызывается вне кадра.
func (c *CheckpointRespawn) Warm(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cp, found, err := c.repo.Load(ctx, key)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	c.mu.Lock()
	if _, ok := c.cached[key]; !ok {
		c.cached[key] = cp
	}
	c.mu.Unlock()
	return nil
}

// RespawnPoint читает только кэш
func (c *CheckpointRespawn) RespawnPoint(id physics.ActorID) (vec.Vec2, bool) {
	key, ok := c.resolve(id)
	if !ok {
		return c.fallback.RespawnPoint(id)
	}
	c.mu.RLock()
	cp, found := c.cached[key]
	c.mu.RUnlock()
	if !found {
		return c.fallback.RespawnPoint(id)
	}
	return cp.Position, true
}

// Remember запоминает чекпоинт и ставит его в очередь записи без ожидания.
// При переполнении очереди кэш всё равно обновлён.
func (c *CheckpointRespawn) Remember(key string, cp Checkpoint) error {
	if err := validateKey(key); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrCheckpointWriterClosed
	}
	c.cached[key] = cp

	select {
	case c.queue <- pendingCheckpoint{key: key, cp: cp}:
		return nil
	default:
		c.logger.Warn("⚠️ очередь чекпоинтов заполнена, %s сохранён только в памяти", key)
		return ErrCheckpointWriterBusy
	}
}

// Close дописывает очередь и останавливает горутину записи
func (c *CheckpointRespawn) Close() {
	c.once.Do(func() {
		c.mu.Lock()
		c.closed = true
		close(c.queue)
		c.mu.Unlock()
		c.wg.Wait()
	})
}

func (c *CheckpointRespawn) writer() {
	defer c.wg.Done()
	for p := range c.queue {
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		if err := c.repo.Save(ctx, p.key, p.cp); err != nil {
			c.logger.Warn("⚠️ чекпоинт %s не записан: %v", p.key, err)
		} else {
			c.logger.Debug("💾 чекпоинт %s записан: (%d,%d)", p.key, p.cp.Position.X, p.cp.Position.Y)
		}
		cancel()
	}
}
