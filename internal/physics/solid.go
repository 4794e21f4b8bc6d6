package physics

import (
	"github.com/annel0/pixel-platformer/internal/vec"
)

// Solid твёрдое тело: не проходит сквозь другие твёрдые тела, толкает и везёт акторов
type Solid struct {
	body
	id             SolidID
	world          *World
	owner          any
	ridingPriority int
	riders         []ActorID
}

func (s *Solid) ID() SolidID         { return s.id }
func (s *Solid) World() *World       { return s.world }
func (s *Solid) Owner() any          { return s.owner }
func (s *Solid) SetOwner(o any)      { s.owner = o }
func (s *Solid) RidingPriority() int { return s.ridingPriority }

// IsOneWay сообщает, является ли тело односторонним
func (s *Solid) IsOneWay() bool {
	_, ok := s.owner.(OneWayFilter)
	return ok
}

// Riders возвращает копию списка пассажиров в порядке въезда
func (s *Solid) Riders() []ActorID {
	out := make([]ActorID, len(s.riders))
	copy(out, s.riders)
	return out
}

// HasRider едет ли актор на этом теле
func (s *Solid) HasRider(id ActorID) bool {
	for _, r := range s.riders {
		if r == id {
			return true
		}
	}
	return false
}

func (s *Solid) addRider(a *Actor) {
	if s.HasRider(a.id) {
		return
	}
	s.riders = append(s.riders, a.id)
	if r, ok := s.owner.(Rideable); ok {
		r.OnRide(a)
	}
}

func (s *Solid) removeRider(a *Actor) {
	for i, r := range s.riders {
		if r == a.id {
			s.riders = append(s.riders[:i], s.riders[i+1:]...)
			if rd, ok := s.owner.(Rideable); ok {
				rd.OnLeave(a)
			}
			return
		}
	}
}

// ProbeSolid есть ли другое твёрдое тело вплотную (без учёта односторонности)
func (s *Solid) ProbeSolid(side Side) bool {
	p1, p2 := probeSegment(s.pos, s.size, side)
	return s.world.index.SegmentBlocked(p1, p2, LayerSolid)
}

// MoveBy сдвигает тело сначала по Y, затем по X. Само тело останавливается
// о другие твёрдые тела; пересечённых акторов толкает, пассажиров везёт.
// Возвращает фактически пройденное смещение.
func (s *Solid) MoveBy(dx, dy int) vec.Vec2 {
	var moved vec.Vec2
	moved.Y = s.moveAxis(AxisY, dy, false)
	moved.X = s.moveAxis(AxisX, dx, false)
	return moved
}

// MoveByIgnoreSolid проходит смещение целиком, сквозь любые тела.
// После толкания каждый сдвинутый актор проверяется на застревание.
func (s *Solid) MoveByIgnoreSolid(dx, dy int) {
	s.moveAxis(AxisY, dy, true)
	s.moveAxis(AxisX, dx, true)
}

func (s *Solid) moveAxis(axis Axis, amount int, ignoreSolids bool) int {
	if amount == 0 {
		return 0
	}

	moved := amount
	if !ignoreSolids {
		moved = s.stepSelf(axis, amount)
	} else {
		s.shift(axis, amount)
	}
	if moved == 0 {
		return 0
	}
	s.sync()

	riders := s.Riders()
	prev := s.world.pusher
	s.world.pusher = s.id
	defer func() { s.world.pusher = prev }()

	// сначала толкаем пересечённых
	r := s.Rect()
	pushed := make(map[ActorID]struct{})
	var order []ActorID
	for _, id := range s.world.index.Overlapping(r.Min, r.Max, LayerActor) {
		a := s.world.Actor(ActorID(id))
		if a == nil {
			continue
		}
		a.pushBy(axis, moved)
		pushed[a.id] = struct{}{}
		order = append(order, a.id)
	}
	if ignoreSolids {
		// порядок по ID, чтобы события сдавливания шли детерминированно
		for _, id := range order {
			if a := s.world.Actor(id); a != nil {
				a.CheckOverlapDeath()
			}
		}
	}

	// затем везём тех, кого ещё не сдвинули
	for _, id := range riders {
		if _, ok := pushed[id]; ok {
			continue
		}
		if a := s.world.Actor(id); a != nil && a.riding == s.id {
			a.pushBy(axis, moved)
		}
	}

	dx, dy := moved, 0
	if axis == AxisY {
		dx, dy = 0, moved
	}
	for _, id := range riders {
		a := s.world.Actor(id)
		if a == nil || a.riding != s.id {
			continue
		}
		if n, ok := a.owner.(CarryNotifiable); ok {
			n.OnCarried(s.id, dx, dy)
		}
	}
	return moved
}

// stepSelf идёт попиксельно, пока не упрётся в другое твёрдое тело
func (s *Solid) stepSelf(axis Axis, amount int) int {
	sign := vec.Sign(amount)
	side := sideFor(axis, sign)
	moved := 0
	for iter := 1; amount != 0; iter++ {
		if iter == s.world.stepLimit {
			s.world.reportOverrun(LayerSolid, uint32(s.id), axis, amount)
			break
		}
		if s.ProbeSolid(side) {
			break
		}
		s.shift(axis, sign)
		amount -= sign
		moved += sign
	}
	return moved
}

func (s *Solid) sync() {
	s.world.index.Move(LayerSolid, uint32(s.id), s.Rect())
	s.world.publish(LayerSolid, uint32(s.id), s.pos)
}
