package api

import (
	"context"
	"errors"
	"sync"

	"github.com/annel0/pixel-platformer/internal/level"
)

// ErrHostBusy очередь команд симуляции переполнена
var ErrHostBusy = errors.New("simulation command queue is full")

// SceneHost связывает HTTP-обработчики с горутиной симуляции.
// Симуляция публикует снапшоты и выполняет команды между кадрами, сама сцена
// из HTTP-горутин не трогается.
type SceneHost struct {
	mu   sync.RWMutex
	snap level.Snapshot
	has  bool

	commands chan command
}

type command struct {
	fn   func(*level.Scene) error
	done chan error
}

// NewSceneHost создаёт хост с очередью на buffer команд
func NewSceneHost(buffer int) *SceneHost {
	if buffer <= 0 {
		buffer = 16
	}
	return &SceneHost{commands: make(chan command, buffer)}
}

// Publish сохраняет последний снапшот (вызывается из симуляции)
func (h *SceneHost) Publish(s level.Snapshot) {
	h.mu.Lock()
	h.snap = s
	h.has = true
	h.mu.Unlock()
}

// Latest последний опубликованный снапшот
func (h *SceneHost) Latest() (level.Snapshot, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.snap, h.has
}

// Do ставит команду в очередь и ждёт, пока симуляция её выполнит
func (h *SceneHost) Do(ctx context.Context, fn func(*level.Scene) error) error {
	cmd := command{fn: fn, done: make(chan error, 1)}
	select {
	case h.commands <- cmd:
	default:
		return ErrHostBusy
	}
	select {
	case err := <-cmd.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Drain выполняет накопленные команды над сценой; вызывается между кадрами
func (h *SceneHost) Drain(scene *level.Scene) int {
	n := 0
	for {
		select {
		case cmd := <-h.commands:
			cmd.done <- cmd.fn(scene)
			n++
		default:
			return n
		}
	}
}
