package player

import (
	"math"

	"github.com/annel0/pixel-platformer/internal/vec"
)

// InertiaBuffer скорость, полученная от внешнего тела.
// Хранится ограниченное число кадров и тратится только в особые моменты:
// прыжок, прыжок от стены, съезд с опоры.
type InertiaBuffer struct {
	Vector              vec.Vec2Float `json:"vector"`
	FramesSinceReceived int           `json:"frames_since_received"`
	MaxStoredFrames     int           `json:"max_stored_frames"`
}

// Receive запоминает скорость, заменяя прежнюю
func (b *InertiaBuffer) Receive(v vec.Vec2Float) {
	b.Vector = v
	b.FramesSinceReceived = 0
}

// Tick старит буфер на кадр
func (b *InertiaBuffer) Tick() {
	if b.Vector.IsZero() {
		return
	}
	b.FramesSinceReceived++
	if b.FramesSinceReceived > b.MaxStoredFrames {
		b.Vector = vec.Vec2Float{}
		b.FramesSinceReceived = 0
	}
}

// Consume забирает накопленную скорость
func (b *InertiaBuffer) Consume() vec.Vec2Float {
	v := b.Vector
	b.Vector = vec.Vec2Float{}
	b.FramesSinceReceived = 0
	return v
}

// Pending есть ли что тратить
func (b InertiaBuffer) Pending() bool {
	return !b.Vector.IsZero()
}

// jumpVelocityWithInertia переводит вертикальную инерцию в дополнительную высоту прыжка.
// Высота вершины h = v²/2g, поэтому добавка extra = sign(iy)·iy²/2g даёт v' = sqrt(v² + 2g·extra).
func jumpVelocityWithInertia(vy, iy, gravity float64) float64 {
	if iy == 0 {
		return vy
	}
	if vy <= 0 || gravity <= 0 {
		return vy + iy
	}
	extra := float64(vec.SignF(iy)) * iy * iy / (2 * gravity)
	return math.Sqrt(math.Max(0, vy*vy+2*gravity*extra))
}
