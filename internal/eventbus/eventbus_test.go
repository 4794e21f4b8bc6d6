package eventbus

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/pixel-platformer/internal/player"
	"github.com/annel0/pixel-platformer/internal/vec"
)

// collector собирает доставленные события
type collector struct {
	mu  sync.Mutex
	got []*Envelope
}

func (c *collector) handle(_ context.Context, ev *Envelope) {
	c.mu.Lock()
	c.got = append(c.got, ev)
	c.mu.Unlock()
}

func (c *collector) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.got)
}

func (c *collector) types() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int)
	for _, ev := range c.got {
		out[ev.EventType]++
	}
	return out
}

func TestMemoryBusFilter(t *testing.T) {
	bus := NewMemoryBus(16)
	defer bus.Close()

	var all, glove collector
	_, err := bus.Subscribe(context.Background(), Filter{}, all.handle)
	require.NoError(t, err)
	_, err = bus.Subscribe(context.Background(), Filter{Types: []string{"glove.contact"}}, glove.handle)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, bus.Publish(ctx, &Envelope{ID: "1", EventType: "glove.contact"}))
	require.NoError(t, bus.Publish(ctx, &Envelope{ID: "2", EventType: "player.jump"}))

	assert.Eventually(t, func() bool { return all.len() == 2 && glove.len() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, map[string]int{"glove.contact": 1}, glove.types())

	stats := bus.Metrics()
	assert.Equal(t, uint64(2), stats.Published)
}

func TestMemoryBusUnsubscribe(t *testing.T) {
	bus := NewMemoryBus(16)
	defer bus.Close()

	var c collector
	sub, err := bus.Subscribe(context.Background(), Filter{}, c.handle)
	require.NoError(t, err)
	sub.Unsubscribe()

	require.NoError(t, bus.Publish(context.Background(), &Envelope{EventType: "player.jump"}))
	require.NoError(t, bus.Close())
	assert.Equal(t, 0, c.len(), "отписанный обработчик не вызывается")
}

func TestMemoryBusClose(t *testing.T) {
	bus := NewMemoryBus(64)

	var c collector
	_, err := bus.Subscribe(context.Background(), Filter{}, c.handle)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		require.NoError(t, bus.Publish(context.Background(), &Envelope{EventType: "player.jump"}))
	}
	require.NoError(t, bus.Close())
	assert.Equal(t, 20, c.len(), "Close доставляет остаток очереди")

	assert.ErrorIs(t, bus.Publish(context.Background(), &Envelope{}), ErrClosed)
	_, err = bus.Subscribe(context.Background(), Filter{}, c.handle)
	assert.ErrorIs(t, err, ErrClosed)
	assert.NoError(t, bus.Close(), "повторное закрытие безопасно")
}

func TestPublisher(t *testing.T) {
	bus := NewMemoryBus(64)
	defer bus.Close()

	var c collector
	_, err := bus.Subscribe(context.Background(), Filter{}, c.handle)
	require.NoError(t, err)

	frame := uint64(41)
	pub := NewPublisher(bus, "test-room", func() uint64 { return frame }, 8)
	pub.SetCorrelation("session-1")

	pub.Emit(player.Event{Kind: player.EventGloveContact, Actor: 2, Position: vec.Vec2{X: 30, Y: 10}, Solid: 3, Direction: "right"})
	frame++
	pub.Emit(player.Event{Kind: player.EventSquished, Actor: 2})
	pub.Close()

	require.Eventually(t, func() bool { return c.len() == 2 }, time.Second, 5*time.Millisecond)
	assert.Zero(t, pub.Dropped())

	c.mu.Lock()
	defer c.mu.Unlock()
	byType := make(map[string]*Envelope)
	for _, ev := range c.got {
		byType[ev.EventType] = ev
	}

	contact := byType["glove.contact"]
	require.NotNil(t, contact)
	assert.NotEmpty(t, contact.ID)
	assert.Equal(t, "test-room", contact.Source)
	assert.Equal(t, "session-1", contact.CorrelationID)
	assert.Equal(t, uint64(41), contact.Frame)
	assert.Equal(t, 3, contact.Priority)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(contact.Payload, &payload))
	assert.Equal(t, "right", payload["direction"])
	assert.Equal(t, float64(3), payload["solid"])

	squished := byType["actor.squished"]
	require.NotNil(t, squished)
	assert.Equal(t, uint64(42), squished.Frame)
	assert.Equal(t, 7, squished.Priority)
	assert.NotEqual(t, contact.ID, squished.ID)
}

func TestPublisherDropsWhenBusClosed(t *testing.T) {
	bus := NewMemoryBus(4)
	require.NoError(t, bus.Close())

	pub := NewPublisher(bus, "x", nil, 4)
	pub.Emit(player.Event{Kind: player.EventJump})
	pub.Close()
	assert.Equal(t, uint64(1), pub.Dropped())
}

func TestMetricsExporter(t *testing.T) {
	bus := NewMemoryBus(16)
	defer bus.Close()

	reg := prometheus.NewRegistry()
	me := NewMetricsExporter(bus, reg)

	var c collector
	_, err := bus.Subscribe(context.Background(), Filter{}, c.handle)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		require.NoError(t, bus.Publish(context.Background(), &Envelope{EventType: "player.jump"}))
	}
	require.Eventually(t, func() bool { return bus.Metrics().Consumed == 3 }, time.Second, 5*time.Millisecond)

	me.Collect()
	assert.Equal(t, 3.0, testutil.ToFloat64(me.published))
	assert.Equal(t, 3.0, testutil.ToFloat64(me.consumed))

	me.Collect()
	assert.Equal(t, 3.0, testutil.ToFloat64(me.published), "повторный сбор добавляет только приращение")
}

func TestGlobalBus(t *testing.T) {
	Init(nil)
	assert.NoError(t, Publish(context.Background(), &Envelope{}))
	assert.Equal(t, Stats{}, GlobalStats())

	bus := NewMemoryBus(4)
	defer bus.Close()
	Init(bus)
	defer Init(nil)
	require.NoError(t, Publish(context.Background(), &Envelope{EventType: "player.jump"}))
	assert.Equal(t, uint64(1), GlobalStats().Published)
	assert.Equal(t, bus, Global())
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "events.glove.contact", Subject("glove.contact"))
}
