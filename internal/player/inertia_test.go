package player

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/annel0/pixel-platformer/internal/vec"
)

func TestInertiaBufferExpires(t *testing.T) {
	b := InertiaBuffer{MaxStoredFrames: 3}
	b.Receive(vec.Vec2Float{X: 60})

	for i := 0; i < 3; i++ {
		b.Tick()
		assert.True(t, b.Pending(), "кадр %d: инерция ещё хранится", i+1)
	}
	b.Tick()
	assert.False(t, b.Pending(), "после предела инерция сбрасывается")
}

func TestInertiaBufferReceiveRestartsCounter(t *testing.T) {
	b := InertiaBuffer{MaxStoredFrames: 2}
	b.Receive(vec.Vec2Float{X: 10})
	b.Tick()
	b.Tick()
	b.Receive(vec.Vec2Float{X: 20})
	b.Tick()

	assert.Equal(t, vec.Vec2Float{X: 20}, b.Vector)
	assert.Equal(t, 1, b.FramesSinceReceived)

	v := b.Consume()
	assert.Equal(t, vec.Vec2Float{X: 20}, v)
	assert.False(t, b.Pending())
}

func TestJumpVelocityWithInertia(t *testing.T) {
	cases := []struct {
		name     string
		vy, iy   float64
		expected float64
	}{
		{"без инерции", 120, 0, 120},
		{"вверх добавляет высоту", 120, 60, math.Sqrt(120*120 + 60*60)},
		{"вниз отнимает высоту", 120, -60, math.Sqrt(120*120 - 60*60)},
		{"вниз сильнее прыжка", 50, -80, 0},
		{"в падении просто складывается", -30, 20, -10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.expected, jumpVelocityWithInertia(tc.vy, tc.iy, 900), 1e-9)
		})
	}
}
