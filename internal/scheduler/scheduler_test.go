package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderByPriorityThenOrder(t *testing.T) {
	s := New()
	var calls []string
	rec := func(name string) UpdateFunc { return func() { calls = append(calls, name) } }

	s.Register("after", AfterPlayer, 0, rec("after"))
	s.Register("player", PlayerMovement, 0, rec("player"))
	s.Register("platform-b", BeforePlayer, 2, rec("platform-b"))
	s.Register("platform-a", BeforePlayer, 1, rec("platform-a"))
	s.Register("platform-a2", BeforePlayer, 1, rec("platform-a2"))

	require.True(t, s.Tick())
	assert.Equal(t, []string{"platform-a", "platform-a2", "platform-b", "player", "after"}, calls,
		"порядок: приоритет, затем order, затем порядок регистрации")
}

func TestFreezeSkipsFrames(t *testing.T) {
	s := New()
	count := 0
	s.Register("counter", PlayerMovement, 0, func() { count++ })

	s.Freeze(3)
	for i := 0; i < 3; i++ {
		assert.False(t, s.Tick(), "кадр %d должен быть заморожен", i)
	}
	assert.Equal(t, 0, count)

	// Регистрация во время заморозки принимается
	s.Freeze(1)
	extra := 0
	s.Register("extra", AfterPlayer, 0, func() { extra++ })
	assert.False(t, s.Tick())

	assert.True(t, s.Tick())
	assert.Equal(t, 1, count)
	assert.Equal(t, 1, extra)
	assert.Equal(t, uint64(5), s.Frame())
}

func TestMutationDuringPass(t *testing.T) {
	s := New()
	var calls []string
	var victim Handle

	s.Register("killer", BeforePlayer, 0, func() {
		calls = append(calls, "killer")
		s.Unregister(victim)
		s.Register("late", BeforePlayer, 0, func() { calls = append(calls, "late") })
	})
	victim = s.Register("victim", PlayerMovement, 0, func() { calls = append(calls, "victim") })

	s.Tick()
	assert.Equal(t, []string{"killer"}, calls, "снятый в проходе не вызывается, новый ждёт следующий кадр")

	calls = nil
	s.Tick()
	assert.Contains(t, calls, "late")
	assert.NotContains(t, calls, "victim")
}

type countingObserver struct{ frozen, ran int }

func (o *countingObserver) FrameDone(_ uint64, _ time.Duration, frozen bool) {
	if frozen {
		o.frozen++
	} else {
		o.ran++
	}
}

func TestObserverAndClose(t *testing.T) {
	s := New()
	obs := &countingObserver{}
	s.SetObserver(obs)
	s.Register("noop", PlayerMovement, 0, func() {})

	s.Freeze(1)
	s.Tick()
	s.Tick()
	assert.Equal(t, 1, obs.frozen)
	assert.Equal(t, 1, obs.ran)

	s.Close()
	assert.Equal(t, 0, s.Len())
	assert.False(t, s.Unregister(1))
}

func TestRunFixedStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var n int32
	done := make(chan error, 1)
	go func() {
		done <- RunFixed(ctx, time.Millisecond, func() {
			if atomic.AddInt32(&n, 1) == 3 {
				cancel()
			}
		})
	}()

	select {
	case err := <-done:
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(2 * time.Second):
		t.Fatal("RunFixed не завершился после отмены")
	}
	assert.GreaterOrEqual(t, atomic.LoadInt32(&n), int32(3))
}
