package player

import (
	"github.com/annel0/pixel-platformer/internal/input"
	"github.com/annel0/pixel-platformer/internal/physics"
	"github.com/annel0/pixel-platformer/internal/vec"
)

// HangSession висение на якоре; существует только в состоянии GloveHang
type HangSession struct {
	Anchor          physics.SolidID `json:"anchor"`
	AnchorPoint     vec.Vec2        `json:"anchor_point"`
	Start           vec.Vec2        `json:"start"`
	Frames          int             `json:"frames"`
	PreHangVelocity vec.Vec2Float   `json:"pre_hang_velocity"`
	Grow            vec.Vec2        `json:"grow"`
	TravelAxis      physics.Axis    `json:"travel_axis"`
}

// enterHang завершает рывок висением на якоре
func (p *Player) enterHang(g *GloveSession) {
	anchor := g.Anchor
	grow := p.contactSide(g)
	pos, size := p.actor.Position(), p.actor.Size()

	travel := physics.AxisX
	if grow.X != 0 {
		travel = physics.AxisY
	}
	h := &HangSession{
		Anchor:          anchor,
		AnchorPoint:     anchorPoint(pos, size, grow),
		Start:           pos,
		PreHangVelocity: p.velocity,
		Grow:            grow,
		TravelAxis:      travel,
	}

	p.velocity = vec.Vec2Float{}
	p.changeState(GloveHang)
	p.hang = h
	p.actor.RideSolid(anchor)

	p.logger.Debug("🧗 висение на #%d в (%d,%d), ход по оси %s", anchor, pos.X, pos.Y, travel)
	p.emit(Event{Kind: EventGloveArrive, Solid: anchor, Direction: g.Direction.String(), Velocity: h.PreHangVelocity})
}

// contactSide сторона касания якоря. Для диагонали сначала проверяется боковая сторона.
func (p *Player) contactSide(g *GloveSession) vec.Vec2 {
	step := g.Direction.Step()
	if !g.Direction.IsDiagonal() {
		return step
	}
	r := p.actor.Rect()
	q := p.world.Query()
	side := r.Grow(vec.Vec2{X: step.X})
	if q.SpecificSolidInArea(side.Min, side.Max, g.Anchor) {
		return vec.Vec2{X: step.X}
	}
	top := r.Grow(vec.Vec2{Y: step.Y})
	if q.SpecificSolidInArea(top.Min, top.Max, g.Anchor) {
		return vec.Vec2{Y: step.Y}
	}
	return step
}

// anchorPoint пиксель якоря рядом с центром footprint со стороны касания
func anchorPoint(pos, size, grow vec.Vec2) vec.Vec2 {
	pt := vec.Vec2{X: pos.X + size.X/2, Y: pos.Y + size.Y/2}
	switch {
	case grow.X > 0:
		pt.X = pos.X + size.X
	case grow.X < 0:
		pt.X = pos.X - 1
	}
	switch {
	case grow.Y > 0:
		pt.Y = pos.Y + size.Y
	case grow.Y < 0:
		pt.Y = pos.Y - 1
	}
	return pt
}

// updateHang кадр висения
func (p *Player) updateHang() {
	h := p.hang
	if h == nil {
		p.changeState(Idle)
		return
	}
	h.Frames++

	if !p.held(input.Grapple) {
		p.breakHang("released")
		return
	}
	if p.world.Solid(h.Anchor) == nil {
		p.breakHang("anchor destroyed")
		return
	}
	grown := p.actor.Rect().Grow(h.Grow)
	if !p.world.Query().SpecificSolidInArea(grown.Min, grown.Max, h.Anchor) {
		p.breakHang("anchor lost")
		return
	}
	offset := p.actor.Position().Sub(h.Start)
	travelled := offset.X
	if h.TravelAxis == physics.AxisY {
		travelled = offset.Y
	}
	if vec.Abs(travelled) > p.cfg.HangTravelRadius {
		p.breakHang("travel limit")
		return
	}

	amount := p.cfg.HangTravelSpeed / frameRate
	if h.TravelAxis == physics.AxisY {
		if dir := p.heldAxis(input.Down, input.Up); dir != 0 {
			p.actor.MoveY(float64(dir) * amount)
		}
		return
	}
	if dir := p.heldAxis(input.Left, input.Right); dir != 0 {
		p.actor.MoveX(float64(dir) * amount)
	}
}

// heldAxis -1, 0 или 1 по паре удерживаемых кнопок
func (p *Player) heldAxis(neg, pos input.Action) int {
	dir := 0
	if p.held(pos) {
		dir++
	}
	if p.held(neg) {
		dir--
	}
	return dir
}

// breakHang выход из висения. В окне отсрочки сохраняется погашенная скорость до висения.
func (p *Player) breakHang(reason string) {
	h := p.hang
	launch := vec.Vec2Float{}
	anchor := physics.NoSolid
	if h != nil {
		anchor = h.Anchor
		if h.Frames <= p.cfg.HangGraceFrames {
			launch = h.PreHangVelocity.Mul(p.cfg.HangLaunchDamping)
		}
	}
	p.velocity = launch
	p.changeState(Idle)

	p.logger.Debug("🧗 висение прервано: %s", reason)
	p.emit(Event{Kind: EventHangBreak, Solid: anchor, Reason: reason})
}
