package player

import (
	"math"

	"github.com/annel0/pixel-platformer/internal/physics"
	"github.com/annel0/pixel-platformer/internal/vec"
)

func (p *Player) gravityStep() float64 { return p.cfg.Gravity / frameRate }

func (p *Player) probe(side physics.Side) bool { return p.actor.ProbeSolid(side) }

func (p *Player) probeAt(pos vec.Vec2, side physics.Side) bool {
	return p.actor.ProbeSolidAt(pos, side)
}

// handleJump обрабатывает буфер прыжка: обычный прыжок с земли или в койот-окне,
// иначе прыжок от стены, найденной в пределах допуска.
func (p *Player) handleJump() {
	if p.state == Jump {
		p.frameAfterJump++
	}
	if p.jumpInputCancel {
		p.jumpInputCancel = false
		return
	}
	if p.jumpBuffer <= 0 {
		return
	}

	pos := p.actor.Position()
	solidLeft, solidRight := false, false
	for i := 0; i <= p.cfg.WallJumpTolerance; i++ {
		if !solidLeft {
			solidLeft = p.probeAt(vec.Vec2{X: pos.X - i, Y: pos.Y}, physics.SideLeft)
		}
		if !solidRight {
			solidRight = p.probeAt(vec.Vec2{X: pos.X + i, Y: pos.Y}, physics.SideRight)
		}
	}

	switch {
	case p.probe(physics.SideBelow) || (!p.coyoteSpent && p.framesAfterGround <= p.cfg.CoyoteFrames):
		p.jump()
	case solidLeft && solidRight:
		p.WallJump(-p.facing)
	case solidLeft:
		p.WallJump(1)
	case solidRight:
		p.WallJump(-1)
	}

	if p.jumpBuffer > 0 {
		p.jumpBuffer--
	}
}

func (p *Player) jump() {
	p.changeState(Jump)
	p.velocity.Y = p.cfg.JumpVelocity + p.gravityStep()
	p.jumpBuffer = 0
	p.frameAfterJump = 0
	p.coyoteSpent = true
	p.consumeInertia()
	p.emit(Event{Kind: EventJump})
}

// WallJump отталкивает от стены в направлении direction на максимальной скорости
func (p *Player) WallJump(direction int) {
	// принудительный прыжок отменяется, управление по Y возвращается
	p.forceJumpTimer = 0

	p.facing = -p.facing
	p.changeState(Jump)
	p.velocity.Y = p.cfg.JumpVelocity + p.gravityStep()
	p.jumpBuffer = 0
	p.frameAfterJump = 0
	p.coyoteSpent = true
	p.velocity.X = float64(direction) * p.cfg.XMaxSpeed
	p.wallJumping = true
	p.forceForward = true
	p.consumeInertia()
	p.emit(Event{Kind: EventWallJump, Direction: directionName(direction)})
}

// ForceJump принудительный прыжок (пружина): скорость v и удержание прыжка на seconds секунд.
// Прерывает захват и висение.
func (p *Player) ForceJump(v, seconds float64) {
	switch {
	case p.state == Glove && p.glove != nil:
		p.breakGlove("force jump")
	case p.state == GloveHang && p.hang != nil:
		p.breakHang("force jump")
	}
	p.velocity.Y = v + p.gravityStep()
	p.forceJumpTimer = seconds
	p.jumpHolding = true
	p.changeState(Jump)

	// нажатие прыжка в этом кадре не должно сработать повторно
	p.jumpInputCancel = true
}

func (p *Player) handleForward() {
	switch {
	case p.leftBuffer > 0:
		p.leftBuffer = 0
		p.facing = -1
	case p.rightBuffer > 0:
		p.rightBuffer = 0
		p.facing = 1
	case p.leftHolding && !p.rightHolding:
		p.facing = -1
	case p.rightHolding && !p.leftHolding:
		p.facing = 1
	}
}

func (p *Player) calculateX() {
	accel := p.cfg.XAcceleration / frameRate
	stop := p.cfg.XStopAcceleration / frameRate

	// после прыжка от стены держим направление полёта
	if p.forceForward {
		if s := vec.SignF(p.velocity.X); s != 0 {
			p.facing = s
		}
		p.leftHolding, p.rightHolding = true, true
	}

	if !p.leftHolding && !p.rightHolding {
		if math.Abs(p.velocity.X) < stop*2 {
			p.velocity.X = 0
		} else if p.velocity.X > 0 {
			p.velocity.X -= stop
		} else {
			p.velocity.X += stop
		}
		return
	}

	if p.facing == -1 && p.leftHolding {
		p.accelerateToward(-1, physics.SideLeft, accel, stop)
	}
	if p.facing == 1 && p.rightHolding {
		p.accelerateToward(1, physics.SideRight, accel, stop)
	}
}

// accelerateToward разгоняет в сторону dir; упор в стену гасит скорость
func (p *Player) accelerateToward(dir int, side physics.Side, accel, stop float64) {
	d := float64(dir)
	if p.velocity.X*d >= 0 {
		if !p.probe(side) {
			p.velocity.X += d * accel
			if p.velocity.X*d > p.cfg.XMaxSpeed {
				p.velocity.X = d * p.cfg.XMaxSpeed
			}
		} else {
			p.actor.ClearRemainder(physics.AxisX)
			p.velocity.X -= d * stop
			if p.velocity.X*d < 0 {
				p.velocity.X = 0
			}
			p.forceForward = false
		}
	} else {
		// разворот тормозит вдвое сильнее
		p.velocity.X += d * stop * 2
	}
	p.holeCorrection(dir, side)
}

// holeCorrection при упоре в стену на вертикальной скорости ищет проём
// на 1..HoleCorrection пикселей по ходу движения и подтягивает туда.
func (p *Player) holeCorrection(dir int, side physics.Side) {
	if p.velocity.Y == 0 || !p.probe(side) {
		return
	}
	sign := vec.SignF(p.velocity.Y)
	vertical := physics.SideAbove
	if sign < 0 {
		vertical = physics.SideBelow
	}
	pos := p.actor.Position()
	for i := 1; i <= p.cfg.HoleCorrection; i++ {
		// путь по вертикали должен быть свободен
		if p.probeAt(vec.Vec2{X: pos.X, Y: pos.Y + (i-1)*sign}, vertical) {
			return
		}
		if !p.probeAt(vec.Vec2{X: pos.X, Y: pos.Y + i*sign}, side) {
			p.actor.MoveExact(physics.AxisY, i*sign)
			p.actor.MoveExact(physics.AxisX, dir)
			p.velocity.Y = 0
			return
		}
	}
}

func (p *Player) calculateY() {
	g := p.gravityStep()

	if p.forceJumpTimer > 0 {
		p.forceJumpTimer -= 1 / frameRate
		p.jumpHolding = true
	}
	if p.velocity.Y <= 0 {
		p.forceJumpTimer = 0
	}

	if p.wallJumping && p.velocity.Y <= p.cfg.WallJumpOver {
		p.wallJumping = false
		p.forceForward = false
	}

	grounded := p.probe(physics.SideBelow)
	if grounded {
		if p.state == Idle {
			p.actor.ClearRemainder(physics.AxisY)
		}
		if p.velocity.Y <= 0 {
			p.velocity.Y = 0
			p.coyoteSpent = false
			p.changeState(Idle)
		}
		p.framesAfterGround = 0
	} else {
		inFastFall := p.velocity.Y < p.cfg.FastFallStart && p.velocity.Y > p.cfg.FastFallEnd
		if p.state == Jump {
			switch {
			case p.velocity.Y > 0 && (p.velocity.Y < p.cfg.JumpStartFastDecrease || !p.jumpHolding):
				p.velocity.Y -= g * p.cfg.FastDecreaseMultiplier
			case inFastFall:
				p.velocity.Y -= g * p.cfg.FastFallMultiplier
			default:
				p.velocity.Y -= g
			}
		} else {
			p.changeState(Jump)
			if inFastFall {
				p.velocity.Y -= g * p.cfg.FastFallMultiplier
			} else {
				p.velocity.Y -= g
			}
		}

		// скольжение по стене ограничивает падение сильнее
		limit := p.cfg.MaxFall
		if p.wallSliding() {
			limit = p.cfg.MaxSlide
		}
		if p.velocity.Y < -limit {
			p.velocity.Y = -limit
		}
		p.framesAfterGround++
	}

	if !p.probe(physics.SideAbove) {
		return
	}

	// потолок: сначала пробуем обойти угол
	cornerCorrected := false
	if p.velocity.Y > 0 {
		pos := p.actor.Position()
		if p.velocity.X >= 0 {
			cornerCorrected = p.tryCornerCorrection(pos, 1)
		}
		if !cornerCorrected && p.velocity.X <= 0 {
			cornerCorrected = p.tryCornerCorrection(pos, -1)
		}
	}

	// первые кадры прыжка от стены сохраняют вертикальную скорость
	if p.wallJumping && p.frameAfterJump <= p.cfg.WallJumpKeepYFrames {
		p.velocity.Y -= g
		return
	}

	if !cornerCorrected {
		ceiling := g * p.cfg.FastDecreaseMultiplier
		if p.velocity.Y > ceiling {
			p.velocity.Y = ceiling
		} else if p.probe(physics.SideBelow) {
			// зажат между полом и потолком
			p.velocity.Y = 0
		}
	}
}

func (p *Player) tryCornerCorrection(pos vec.Vec2, dir int) bool {
	for i := 1; i <= p.cfg.CornerCorrection; i++ {
		if !p.probeAt(vec.Vec2{X: pos.X + dir*i, Y: pos.Y}, physics.SideAbove) {
			p.actor.MoveExact(physics.AxisX, dir*i)
			return true
		}
	}
	return false
}

func (p *Player) wallSliding() bool {
	return (p.leftHolding && p.probe(physics.SideLeft)) || (p.rightHolding && p.probe(physics.SideRight))
}

// ReceiveVelocity реализует physics.VelocityReceivable
func (p *Player) ReceiveVelocity(v vec.Vec2Float) {
	p.inertia.Receive(v)
}

// consumeInertia превращает накопленную инерцию в скорость
func (p *Player) consumeInertia() {
	if !p.inertia.Pending() {
		return
	}
	p.applyInertia(p.inertia.Consume())
}

func (p *Player) applyInertia(v vec.Vec2Float) {
	p.velocity.X += v.X
	p.velocity.Y = jumpVelocityWithInertia(p.velocity.Y, v.Y, p.cfg.Gravity)
}

func directionName(dir int) string {
	if dir < 0 {
		return "left"
	}
	return "right"
}
