package player

import (
	"github.com/annel0/pixel-platformer/internal/physics"
	"github.com/annel0/pixel-platformer/internal/vec"
)

// updateRiding переопределяет базовое правило опоры:
// прижимаясь к стене в воздухе, игрок едет на стене.
func (p *Player) updateRiding() {
	prev := p.actor.Riding()

	switch {
	case p.state == Glove:
		// во время рывка опора задаётся касанием
		return
	case p.velocity.Y == 0 && p.framesAfterGround == 0:
		p.actor.UpdateRiding()
	default:
		var wall []physics.SolidID
		if p.leftHolding && p.probe(physics.SideLeft) {
			wall = p.actor.SolidsAt(physics.SideLeft)
		} else if p.rightHolding && p.probe(physics.SideRight) {
			wall = p.actor.SolidsAt(physics.SideRight)
		}
		if len(wall) == 0 {
			p.actor.UpdateRiding()
		} else {
			p.actor.RideSolid(p.world.PickRide(wall))
		}
	}

	if prev != physics.NoSolid && p.actor.Riding() == physics.NoSolid {
		p.consumeInertia()
	}
}

// OnCarried сдвигает геометрию захвата вместе с якорем
func (p *Player) OnCarried(solid physics.SolidID, dx, dy int) {
	d := vec.Vec2{X: dx, Y: dy}
	if g := p.glove; g != nil && g.Anchor == solid {
		g.Start = g.Start.Add(d)
		g.Goal = g.Goal.Add(d)
	}
	if h := p.hang; h != nil && h.Anchor == solid {
		h.Start = h.Start.Add(d)
		h.AnchorPoint = h.AnchorPoint.Add(d)
	}
}

// OnSolidDestroyed прерывает захват или висение на уничтоженном якоре
func (p *Player) OnSolidDestroyed(solid physics.SolidID) {
	if g := p.glove; g != nil && g.Anchor == solid {
		p.breakGlove("anchor destroyed")
	}
	if h := p.hang; h != nil && h.Anchor == solid {
		p.breakHang("anchor destroyed")
	}
}

// OnSquished сбрасывает движение после переноса в точку возрождения
func (p *Player) OnSquished(from, to vec.Vec2) {
	p.velocity = vec.Vec2Float{}
	p.jumpBuffer = 0
	p.gloveBuffer = 0
	p.forceJumpTimer = 0
	p.wallJumping = false
	p.forceForward = false
	p.inertia.Consume()
	p.changeState(Idle)

	p.emit(Event{Kind: EventSquished, Reason: "overlap after resolution"})
	p.logger.Debug("💀 игрок раздавлен в (%d,%d), перенос в (%d,%d)", from.X, from.Y, to.X, to.Y)
	p.emit(Event{Kind: EventRespawned})
}
