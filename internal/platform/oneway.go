package platform

import (
	"github.com/annel0/pixel-platformer/internal/physics"
)

// OneWayPlatform твёрдое тело, которое держит только с одной стороны
type OneWayPlatform struct {
	solid     *physics.Solid
	direction physics.Direction8
}

// NewOneWayPlatform создаёт платформу. Допустимы только Up, Down, Left, Right.
func NewOneWayPlatform(w *physics.World, cfg physics.SolidConfig, dir physics.Direction8) *OneWayPlatform {
	if dir.IsDiagonal() {
		dir = physics.Up
	}
	p := &OneWayPlatform{direction: dir}
	cfg.Owner = p
	p.solid = w.AddSolid(cfg)
	return p
}

// CollidingDirection реализует physics.OneWayFilter
func (p *OneWayPlatform) CollidingDirection() physics.Direction8 { return p.direction }

func (p *OneWayPlatform) Solid() *physics.Solid { return p.solid }
