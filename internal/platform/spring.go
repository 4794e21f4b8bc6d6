package platform

import (
	"github.com/annel0/pixel-platformer/internal/physics"
	"github.com/annel0/pixel-platformer/internal/scheduler"
	"github.com/annel0/pixel-platformer/internal/vec"
)

// Launchable актор, которого можно подбросить принудительным прыжком
type Launchable interface {
	ForceJump(velocity, seconds float64)
}

// SpringConfig параметры пружины
type SpringConfig struct {
	Position          vec.Vec2
	Size              vec.Vec2
	LaunchVelocity    float64
	LaunchOffset      int
	ForceSeconds      float64
	MountOnBelowSolid bool
	RideBelowSolid    bool
	Order             int
}

// Spring тело слоя акторов; подбрасывает всех пересекающих его Launchable
type Spring struct {
	actor    *physics.Actor
	cfg      SpringConfig
	launches int

	sched  *scheduler.Scheduler
	handle scheduler.Handle
}

// NewSpring создаёт пружину и регистрирует её до игрока
func NewSpring(w *physics.World, sched *scheduler.Scheduler, cfg SpringConfig) *Spring {
	if cfg.ForceSeconds <= 0 {
		cfg.ForceSeconds = 1
	}
	s := &Spring{cfg: cfg, sched: sched}
	s.actor = w.AddActor(physics.BodyConfig{
		Position:       cfg.Position,
		Size:           cfg.Size,
		UpdatePriority: scheduler.BeforePlayer,
		Order:          cfg.Order,
		Owner:          s,
	})
	if cfg.MountOnBelowSolid {
		// едет вместе с телом снизу, не упираясь в стены
		s.actor.SetIgnoreSolids(true)
	}
	if cfg.MountOnBelowSolid || cfg.RideBelowSolid {
		s.actor.UpdateRiding()
	}
	if sched != nil {
		s.handle = sched.Register("spring", scheduler.BeforePlayer, cfg.Order, s.Update)
	}
	return s
}

func (s *Spring) Actor() *physics.Actor { return s.actor }

// Launches сколько раз пружина сработала
func (s *Spring) Launches() int { return s.launches }

// Update подбрасывает пересекающих акторов
func (s *Spring) Update() {
	w := s.actor.World()
	for _, id := range s.actor.OverlappingActors() {
		other := w.Actor(id)
		if other == nil {
			continue
		}
		l, ok := other.Owner().(Launchable)
		if !ok {
			continue
		}
		dy := s.actor.Position().Y + s.cfg.LaunchOffset - other.Position().Y
		other.MoveExact(physics.AxisY, dy)
		l.ForceJump(s.cfg.LaunchVelocity, s.cfg.ForceSeconds)
		s.launches++
	}
}

// Close снимает пружину с планировщика
func (s *Spring) Close() {
	if s.sched != nil {
		s.sched.Unregister(s.handle)
	}
}
