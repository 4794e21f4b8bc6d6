package platform

import (
	"github.com/annel0/pixel-platformer/internal/logging"
	"github.com/annel0/pixel-platformer/internal/physics"
	"github.com/annel0/pixel-platformer/internal/scheduler"
	"github.com/annel0/pixel-platformer/internal/vec"
)

// MovingConfig параметры движущейся платформы
type MovingConfig struct {
	From, To       vec.Vec2
	Size           vec.Vec2
	Speed          float64 // px/s
	RidingPriority int
	Order          int
}

// MovingPlatform качается между двумя точками и проходит сквозь твёрдые тела,
// толкая и везя акторов.
type MovingPlatform struct {
	solid       *physics.Solid
	from, to    vec.Vec2
	velocity    vec.Vec2Float // в сторону To
	remainder   vec.Vec2Float
	minimumStep float64
	returning   bool

	sched  *scheduler.Scheduler
	handle scheduler.Handle
	logger *logging.Logger
}

// NewMovingPlatform создаёт платформу в точке From и регистрирует её до игрока
func NewMovingPlatform(w *physics.World, sched *scheduler.Scheduler, cfg MovingConfig) *MovingPlatform {
	p := &MovingPlatform{
		from:        cfg.From,
		to:          cfg.To,
		velocity:    vec.FromVec2(cfg.To.Sub(cfg.From)).Normalized().Mul(cfg.Speed),
		minimumStep: cfg.Speed / scheduler.FrameRate,
		sched:       sched,
		logger:      logging.GetPhysicsLogger(),
	}
	p.solid = w.AddSolid(physics.SolidConfig{
		BodyConfig: physics.BodyConfig{
			Position:       cfg.From,
			Size:           cfg.Size,
			UpdatePriority: scheduler.BeforePlayer,
			Order:          cfg.Order,
			Owner:          p,
		},
		RidingPriority: cfg.RidingPriority,
	})
	if sched != nil {
		p.handle = sched.Register("moving-platform", scheduler.BeforePlayer, cfg.Order, p.Update)
	}
	return p
}

func (p *MovingPlatform) Solid() *physics.Solid { return p.solid }

// Velocity текущая скорость с учётом направления
func (p *MovingPlatform) Velocity() vec.Vec2Float {
	if p.returning {
		return p.velocity.Mul(-1)
	}
	return p.velocity
}

// Target точка, к которой платформа сейчас едет
func (p *MovingPlatform) Target() vec.Vec2 {
	if p.returning {
		return p.from
	}
	return p.to
}

// Update один кадр движения
func (p *MovingPlatform) Update() {
	if p.snapToTarget() {
		return
	}
	p.remainder = p.remainder.Add(p.Velocity().Mul(1.0 / scheduler.FrameRate))
	dx, dy := vec.Round(p.remainder.X), vec.Round(p.remainder.Y)
	p.solid.MoveByIgnoreSolid(dx, dy)
	p.remainder.X -= float64(dx)
	p.remainder.Y -= float64(dy)
}

// snapToTarget довозит платформу точно в конечную точку, когда до неё меньше шага
func (p *MovingPlatform) snapToTarget() bool {
	target := p.Target()
	current := vec.FromVec2(p.solid.Position()).Add(p.remainder)
	if vec.FromVec2(target).Sub(current).Length() >= p.minimumStep {
		return false
	}
	pos := p.solid.Position()
	p.solid.MoveByIgnoreSolid(target.X-pos.X, target.Y-pos.Y)
	p.remainder = vec.Vec2Float{}
	p.returning = !p.returning
	p.logger.Trace("🔁 платформа #%d развернулась в (%d,%d)", p.solid.ID(), target.X, target.Y)
	return true
}

// OnRide реализует physics.Rideable
func (p *MovingPlatform) OnRide(*physics.Actor) {}

// OnLeave передаёт сошедшему актору скорость платформы
func (p *MovingPlatform) OnLeave(a *physics.Actor) {
	if r, ok := a.Owner().(physics.VelocityReceivable); ok {
		r.ReceiveVelocity(p.Velocity())
	}
}

// Close снимает платформу с планировщика
func (p *MovingPlatform) Close() {
	if p.sched != nil {
		p.sched.Unregister(p.handle)
	}
}
