package physics

import (
	"github.com/annel0/pixel-platformer/internal/vec"
)

// SquishRadii радиусы коррекции при сдавливании
type SquishRadii struct {
	Corner int `yaml:"corner"`
	Side   int `yaml:"side"`
}

// DefaultSquishRadii значения по умолчанию (угол 3, бок 6)
var DefaultSquishRadii = SquishRadii{Corner: 3, Side: 6}

// Actor кинематическое тело, которое упирается в твёрдые тела и может на них ехать
type Actor struct {
	body
	id           ActorID
	world        *World
	owner        any
	riding       SolidID
	squish       SquishRadii
	ignoreSolids bool
}

func (a *Actor) ID() ActorID     { return a.id }
func (a *Actor) World() *World   { return a.world }
func (a *Actor) Owner() any      { return a.owner }
func (a *Actor) SetOwner(o any)  { a.owner = o }
func (a *Actor) Riding() SolidID { return a.riding }

// SetSquishRadii задаёт радиусы коррекции сдавливания
func (a *Actor) SetSquishRadii(r SquishRadii) { a.squish = r }

// SetIgnoreSolids заставляет актора двигаться сквозь твёрдые тела (пружина на платформе)
func (a *Actor) SetIgnoreSolids(v bool) { a.ignoreSolids = v }

// MoveX добавляет amount к остатку по X и проходит целую часть попиксельно
func (a *Actor) MoveX(amount float64) MoveOutcome {
	return a.moveAxis(AxisX, amount)
}

// MoveY добавляет amount к остатку по Y и проходит целую часть попиксельно
func (a *Actor) MoveY(amount float64) MoveOutcome {
	return a.moveAxis(AxisY, amount)
}

func (a *Actor) moveAxis(axis Axis, amount float64) MoveOutcome {
	rem := a.remainderOn(axis)
	*rem += amount
	move := vec.Round(*rem)
	if move == 0 {
		return MoveOutcome{}
	}
	*rem -= float64(move)

	out := a.moveExact(axis, move)
	if out.Blocked {
		*rem = 0
	}
	return out
}

// MoveExact проходит целое число пикселей, не трогая остаток
func (a *Actor) MoveExact(axis Axis, move int) MoveOutcome {
	return a.moveExact(axis, move)
}

func (a *Actor) moveExact(axis Axis, move int) MoveOutcome {
	var out MoveOutcome
	if move == 0 {
		return out
	}
	if a.ignoreSolids {
		a.shift(axis, move)
		out.Moved = move
		a.sync()
		return out
	}

	sign := vec.Sign(move)
	side := sideFor(axis, sign)
	for iter := 1; move != 0; iter++ {
		if iter == a.world.stepLimit {
			out.Pending = move
			out.Err = ErrStepResolutionOverrun
			a.world.reportOverrun(LayerActor, uint32(a.id), axis, move)
			break
		}
		if blocker := a.blockerAt(a.pos, side); blocker != NoSolid {
			out.Pending = move
			out.Blocked = true
			out.BlockedBy = blocker
			break
		}
		a.shift(axis, sign)
		move -= sign
		out.Moved += sign
	}
	if out.Moved != 0 {
		a.sync()
	}
	return out
}

// pushBy сдвигает актора по приказу твёрдого тела; упор запускает разрешение сдавливания
func (a *Actor) pushBy(axis Axis, move int) {
	out := a.moveExact(axis, move)
	if out.Blocked && out.Pending != 0 {
		a.resolveSquish(axis, out.Pending)
	}
}

// MoveIgnoreSolid сдвигает на целое смещение без проверок
func (a *Actor) MoveIgnoreSolid(dx, dy int) {
	if dx == 0 && dy == 0 {
		return
	}
	a.pos = a.pos.Add(vec.Vec2{X: dx, Y: dy})
	a.sync()
}

// Teleport переносит актора в точку и сбрасывает остатки
func (a *Actor) Teleport(p vec.Vec2) {
	a.pos = p
	a.ResetRemainders()
	a.sync()
}

func (a *Actor) sync() {
	a.world.index.Move(LayerActor, uint32(a.id), a.Rect())
	a.world.publish(LayerActor, uint32(a.id), a.pos)
}

// Зонды

// ProbeSolid есть ли блокирующее тело вплотную с данной стороны
func (a *Actor) ProbeSolid(side Side) bool {
	return a.blockerAt(a.pos, side) != NoSolid
}

// ProbeSolidAt то же для предполагаемой позиции
func (a *Actor) ProbeSolidAt(pos vec.Vec2, side Side) bool {
	return a.blockerAt(pos, side) != NoSolid
}

// SolidsAt возвращает все блокирующие тела вплотную с данной стороны
func (a *Actor) SolidsAt(side Side) []SolidID {
	return a.blockersAt(a.pos, side, false, a.world.pusher)
}

// blockerAt первое блокирующее тело. Толкающее тело на время толчка не мешает зондам.
func (a *Actor) blockerAt(pos vec.Vec2, side Side) SolidID {
	return a.firstBlocker(pos, side, a.world.pusher)
}

func (a *Actor) firstBlocker(pos vec.Vec2, side Side, ignore SolidID) SolidID {
	ids := a.blockersAt(pos, side, true, ignore)
	if len(ids) == 0 {
		return NoSolid
	}
	return ids[0]
}

// blockersAt учитывает односторонние тела: они блокируют только со своей закрытой стороны
// и никогда не блокируют актора, который уже их пересекает.
func (a *Actor) blockersAt(pos vec.Vec2, side Side, first bool, ignore SolidID) []SolidID {
	p1, p2 := probeSegment(pos, a.size, side)
	return a.filterBlockers(p1, p2, RectAt(pos, a.size), side, first, ignore)
}

// SolidsOnSegment тела на произвольном отрезке так, как их видит зонд со стороны side
// из текущего положения актора (для бросков захвата)
func (a *Actor) SolidsOnSegment(p1, p2 vec.Vec2, side Side) []SolidID {
	return a.filterBlockers(p1, p2, a.Rect(), side, false, NoSolid)
}

func (a *Actor) filterBlockers(p1, p2 vec.Vec2, footprint Rect, side Side, first bool, ignore SolidID) []SolidID {
	hits := a.world.index.SolidsAlongSegment(p1, p2)
	if len(hits) == 0 {
		return nil
	}
	out := hits[:0]
	for _, id := range hits {
		s := a.world.Solid(id)
		if s == nil || id == ignore {
			continue
		}
		if f, ok := s.owner.(OneWayFilter); ok {
			if !blocksSide(f.CollidingDirection(), side) || footprint.Overlaps(s.Rect()) {
				continue
			}
		}
		out = append(out, id)
		if first {
			break
		}
	}
	return out
}

// OverlapsSolid пересекает ли актор обычное (не одностороннее) твёрдое тело
func (a *Actor) OverlapsSolid() bool {
	r := a.Rect()
	for _, id := range a.world.index.Overlapping(r.Min, r.Max, LayerSolid) {
		s := a.world.Solid(SolidID(id))
		if s == nil || s.IsOneWay() {
			continue
		}
		return true
	}
	return false
}

// OverlappingActors возвращает других акторов внутри footprint
func (a *Actor) OverlappingActors() []ActorID {
	r := a.Rect()
	ids := a.world.index.Overlapping(r.Min, r.Max, LayerActor)
	out := make([]ActorID, 0, len(ids))
	for _, id := range ids {
		if ActorID(id) != a.id {
			out = append(out, ActorID(id))
		}
	}
	return out
}

// Езда

// RideSolid делает тело опорой; прежняя опора всегда отпускается первой
func (a *Actor) RideSolid(id SolidID) {
	if a.riding == id {
		return
	}
	a.LeaveRide()
	s := a.world.Solid(id)
	if s == nil {
		return
	}
	a.riding = id
	s.addRider(a)
}

// LeaveRide отпускает текущую опору
func (a *Actor) LeaveRide() {
	if a.riding == NoSolid {
		return
	}
	if s := a.world.Solid(a.riding); s != nil {
		s.removeRider(a)
	}
	a.riding = NoSolid
}

// UpdateRiding базовое правило: опора выбирается среди тел прямо под актором
func (a *Actor) UpdateRiding() {
	below := a.SolidsAt(SideBelow)
	if len(below) == 0 {
		a.LeaveRide()
		return
	}
	a.RideSolid(a.world.PickRide(below))
}

// Сдавливание

// resolveSquish пробует небольшие сдвиги, чтобы выпустить актора из тисков.
// Если после этого актор всё ещё внутри тела, он переносится в точку возрождения.
func (a *Actor) resolveSquish(axis Axis, pending int) {
	switch {
	case axis == AxisY && pending > 0:
		// толкают вверх: уходим вбок из-под потолка и доезжаем остаток
		if dx, ok := a.findLateralGap(); ok {
			a.moveExact(AxisX, dx)
			a.moveExact(AxisY, pending)
		}
	case axis == AxisY && pending < 0:
		if !a.ProbeSolid(SideAbove) {
			return
		}
		if dx, ok := a.findLateralGap(); ok {
			a.moveExact(AxisX, dx)
		}
	case axis == AxisX:
		sign := vec.Sign(pending)
		forward, pusher := sideFor(AxisX, sign), sideFor(AxisX, -sign)
		for i := 1; i <= a.squish.Side; i++ {
			ahead := vec.Vec2{X: a.pos.X, Y: a.pos.Y - i}
			behind := vec.Vec2{X: a.pos.X - pending, Y: a.pos.Y - i}
			// со стороны толкающего смотрим и на само толкающее тело
			if !a.ProbeSolidAt(ahead, forward) || a.firstBlocker(behind, pusher, NoSolid) == NoSolid {
				a.moveExact(AxisY, -i)
				a.moveExact(AxisX, pending)
				break
			}
		}
	}
	a.CheckOverlapDeath()
}

// findLateralGap ищет ближайший сдвиг (сначала вправо), где над актором свободно
func (a *Actor) findLateralGap() (int, bool) {
	for _, dir := range [2]int{1, -1} {
		for i := 1; i <= a.squish.Corner; i++ {
			if !a.ProbeSolidAt(vec.Vec2{X: a.pos.X + dir*i, Y: a.pos.Y}, SideAbove) {
				return dir * i, true
			}
		}
	}
	return 0, false
}

// CheckOverlapDeath переносит актора в точку возрождения, если он застрял в теле
func (a *Actor) CheckOverlapDeath() bool {
	if !a.OverlapsSolid() {
		return false
	}
	from := a.pos
	to, _ := a.world.RespawnPoint(a.id)
	a.LeaveRide()
	a.Teleport(to)
	a.world.diag.FatalSquish(a.id, from, to)
	if n, ok := a.owner.(SquishNotifiable); ok {
		n.OnSquished(from, to)
	}
	return true
}
