package player

import (
	"math"

	"github.com/annel0/pixel-platformer/internal/input"
	"github.com/annel0/pixel-platformer/internal/physics"
	"github.com/annel0/pixel-platformer/internal/vec"
)

// GloveSession рывок захвата; существует только в состоянии Glove
type GloveSession struct {
	Direction physics.Direction8 `json:"direction"`
	Start     vec.Vec2           `json:"start"`
	Goal      vec.Vec2           `json:"goal"`
	Anchor    physics.SolidID    `json:"anchor"`
	Frames    int                `json:"frames"`
	lastPos   vec.Vec2
}

// castResult итог броска захвата
type castResult struct {
	anchor physics.SolidID
	goal   vec.Vec2
	steps  int
}

// tickGloveBuffer отсчитывает буфер захвата. По истечении направление
// считывается один раз и выполняется бросок. true если захват зацепился.
func (p *Player) tickGloveBuffer() bool {
	if p.gloveBuffer <= 0 {
		return false
	}
	p.gloveBuffer--
	if p.gloveBuffer > 0 {
		return false
	}
	dir := p.sampleDirection()
	res, ok := p.cast(dir)
	if !ok {
		p.logger.Trace("🪝 бросок %s: цели нет", dir)
		return false
	}
	p.startGlove(dir, res)
	return true
}

// sampleDirection направление из удерживаемых кнопок; без них по взгляду
func (p *Player) sampleDirection() physics.Direction8 {
	h := p.heldAxis(input.Left, input.Right)
	v := p.heldAxis(input.Down, input.Up)
	if d, ok := physics.DirectionFromStep(h, v); ok {
		return d
	}
	if p.facing < 0 {
		return physics.Left
	}
	return physics.Right
}

// cast ищет якорь в направлении d. Первое касание выигрывает.
func (p *Player) cast(d physics.Direction8) (castResult, bool) {
	if d.IsDiagonal() {
		return p.castDiagonal(d)
	}
	return p.castAxis(d)
}

// castAxis прощупывает полосу ширины GloveBandWidth по центру footprint
func (p *Player) castAxis(d physics.Direction8) (castResult, bool) {
	pos, size := p.actor.Position(), p.actor.Size()
	step := d.Step()
	side := sideOf(step)

	for i := 1; i <= p.cfg.GloveLengthAxis; i++ {
		p1, p2 := axisBandLine(pos, size, d, i, p.cfg.GloveBandWidth)
		hits := p.actor.SolidsOnSegment(p1, p2, side)
		if len(hits) == 0 {
			continue
		}
		return castResult{
			anchor: p.pickAnchor(hits),
			goal:   pos.Add(step.Scale(i - 1)),
			steps:  i,
		}, true
	}
	return castResult{}, false
}

// castDiagonal прощупывает ведущий «уголок» footprint, сдвинутого на i шагов по диагонали
func (p *Player) castDiagonal(d physics.Direction8) (castResult, bool) {
	pos := p.actor.Position()
	step := d.Step()

	for i := 1; i <= p.cfg.GloveLengthDiagonal; i++ {
		hits := p.leadingEdgeSolids(pos.Add(step.Scale(i)), step)
		if len(hits) == 0 {
			continue
		}
		return castResult{
			anchor: p.pickAnchor(hits),
			goal:   pos.Add(step.Scale(i - 1)),
			steps:  i,
		}, true
	}
	return castResult{}, false
}

// leadingEdgeSolids тела на строке и столбце footprint в позиции at со стороны шага
func (p *Player) leadingEdgeSolids(at, step vec.Vec2) []physics.SolidID {
	rowA, rowB, colA, colB := leadingEdge(at, p.actor.Size(), step)
	hits := p.actor.SolidsOnSegment(rowA, rowB, sideOf(vec.Vec2{Y: step.Y}))
	for _, id := range p.actor.SolidsOnSegment(colA, colB, sideOf(vec.Vec2{X: step.X})) {
		if !containsSolid(hits, id) {
			hits = append(hits, id)
		}
	}
	return hits
}

// pickAnchor среди одновременно задетых тел выбирает БОЛЬШИЙ RidingPriority, затем меньший ID.
// Это правило противоположно выбору опоры под ногами.
func (p *Player) pickAnchor(ids []physics.SolidID) physics.SolidID {
	best := physics.NoSolid
	bestPriority := 0
	for _, id := range ids {
		s := p.world.Solid(id)
		if s == nil {
			continue
		}
		pr := s.RidingPriority()
		if best == physics.NoSolid || pr > bestPriority || (pr == bestPriority && id < best) {
			best, bestPriority = id, pr
		}
	}
	return best
}

func (p *Player) startGlove(d physics.Direction8, res castResult) {
	pos := p.actor.Position()
	p.glove = &GloveSession{
		Direction: d,
		Start:     pos,
		Goal:      res.goal,
		Anchor:    res.anchor,
		lastPos:   pos,
	}
	p.velocity = d.Unit().Mul(p.cfg.GloveSpeed)
	p.gloveBuffer = 0
	p.jumpBuffer = 0
	// после рывка с земли койот-окно не действует
	p.coyoteSpent = true
	p.wallJumping = false
	p.forceForward = false
	p.forceJumpTimer = 0

	p.changeState(Glove)
	p.actor.RideSolid(res.anchor)
	if p.sched != nil && p.cfg.GloveFreezeFrames > 0 {
		p.sched.Freeze(p.cfg.GloveFreezeFrames)
	}

	p.logger.Debug("🪝 захват %s: якорь #%d, цель (%d,%d) за %d шагов",
		d, res.anchor, res.goal.X, res.goal.Y, res.steps)
	p.emit(Event{Kind: EventGloveContact, Solid: res.anchor, Direction: d.String()})
}

// updateGlove кадр рывка: прибытие, проверка застревания, коррекция траектории, движение
func (p *Player) updateGlove() {
	g := p.glove
	if g == nil {
		p.changeState(Jump)
		return
	}
	if p.world.Solid(g.Anchor) == nil {
		p.breakGlove("anchor destroyed")
		return
	}
	pos := p.actor.Position()

	// 1. прибытие
	if arrived, lost := p.gloveArrival(g, pos); arrived {
		p.enterHang(g)
		return
	} else if lost {
		p.breakGlove("overshoot")
		return
	}

	// 2. застревание
	if g.Frames > 0 && pos == g.lastPos {
		p.breakGlove("stuck")
		return
	}

	// 3. коррекция траектории
	if !p.correctGlove(g) {
		p.breakGlove("trajectory")
		return
	}

	// 4. движение, не дальше цели
	g.lastPos = p.actor.Position()
	g.Frames++
	p.gloveTravel(physics.AxisX, p.velocity.X, g.Goal.X-p.actor.Position().X)
	p.gloveTravel(physics.AxisY, p.velocity.Y, g.Goal.Y-p.actor.Position().Y)
}

// gloveArrival: для осевого рывка достаточно дойти до цели по оси движения;
// для диагонального нужно дойти хотя бы по одной оси и касаться якоря ведущим уголком.
func (p *Player) gloveArrival(g *GloveSession, pos vec.Vec2) (arrived, lost bool) {
	step := g.Direction.Step()
	passedX := step.X != 0 && (pos.X-g.Goal.X)*step.X >= 0
	passedY := step.Y != 0 && (pos.Y-g.Goal.Y)*step.Y >= 0

	if !g.Direction.IsDiagonal() {
		return passedX || passedY, false
	}
	if !passedX && !passedY {
		return false, false
	}
	if p.anchorAhead(g.Anchor, pos, step) {
		return true, false
	}
	return false, passedX && passedY
}

// anchorAhead касается ли якорь ведущего уголка на шаг впереди
func (p *Player) anchorAhead(anchor physics.SolidID, pos, step vec.Vec2) bool {
	rowA, rowB, colA, colB := leadingEdge(pos.Add(step), p.actor.Size(), step)
	q := p.world.Query()
	return q.SpecificSolidInArea(rowA, rowB, anchor) || q.SpecificSolidInArea(colA, colB, anchor)
}

// correctGlove возвращает игрока на траекторию; false если отклонение больше допуска
func (p *Player) correctGlove(g *GloveSession) bool {
	pos := p.actor.Position()
	if !g.Direction.IsDiagonal() {
		axis, drift := physics.AxisY, pos.Y-g.Start.Y
		if g.Direction.IsVertical() {
			axis, drift = physics.AxisX, pos.X-g.Start.X
		}
		if vec.Abs(drift) > p.cfg.GloveAxisTolerance {
			return false
		}
		if drift != 0 {
			p.actor.MoveExact(axis, -drift)
		}
		return true
	}

	step := g.Direction.Step()
	div := vec.Abs(pos.X-g.Start.X) - vec.Abs(pos.Y-g.Start.Y)
	if vec.Abs(div) > p.cfg.GloveDiagonalTolerance {
		return false
	}
	switch {
	case div > 0:
		p.actor.MoveExact(physics.AxisY, step.Y*div)
	case div < 0:
		p.actor.MoveExact(physics.AxisX, step.X*-div)
	}
	return true
}

// gloveTravel двигает ось на v/60, но не дальше оставшегося расстояния
func (p *Player) gloveTravel(axis physics.Axis, v float64, remaining int) {
	if v == 0 || remaining == 0 || vec.SignF(v) != vec.Sign(remaining) {
		return
	}
	amount := v / frameRate
	if math.Abs(amount) >= float64(vec.Abs(remaining)) {
		p.actor.ClearRemainder(axis)
		p.actor.MoveExact(axis, remaining)
		return
	}
	if axis == physics.AxisX {
		p.actor.MoveX(amount)
	} else {
		p.actor.MoveY(amount)
	}
}

// breakGlove срывает рывок в прыжок с погашенной скоростью и накопленной инерцией
func (p *Player) breakGlove(reason string) {
	g := p.glove
	p.velocity = p.velocity.Mul(p.cfg.GloveBreakDamping)
	p.changeState(Jump)
	p.consumeInertia()

	anchor := physics.NoSolid
	if g != nil {
		anchor = g.Anchor
	}
	p.logger.Debug("🪝 захват сорван: %s", reason)
	p.emit(Event{Kind: EventGloveBreak, Solid: anchor, Reason: reason})
}

// Геометрия

// axisBandLine линия полосы на расстоянии i за ведущей кромкой
func axisBandLine(pos, size vec.Vec2, d physics.Direction8, i, band int) (vec.Vec2, vec.Vec2) {
	switch d {
	case physics.Left, physics.Right:
		lo, hi := bandRange(pos.Y, size.Y, band)
		x := pos.X - i
		if d == physics.Right {
			x = pos.X + size.X - 1 + i
		}
		return vec.Vec2{X: x, Y: lo}, vec.Vec2{X: x, Y: hi}
	default:
		lo, hi := bandRange(pos.X, size.X, band)
		y := pos.Y - i
		if d == physics.Up {
			y = pos.Y + size.Y - 1 + i
		}
		return vec.Vec2{X: lo, Y: y}, vec.Vec2{X: hi, Y: y}
	}
}

// bandRange полоса ширины band по центру отрезка [start, start+length), обрезанная им
func bandRange(start, length, band int) (int, int) {
	if band <= 0 || band > length {
		band = length
	}
	lo := start + (length-band)/2
	return lo, lo + band - 1
}

// leadingEdge строка и столбец footprint в позиции at со стороны шага step
func leadingEdge(at, size, step vec.Vec2) (rowA, rowB, colA, colB vec.Vec2) {
	row := at.Y
	if step.Y > 0 {
		row = at.Y + size.Y - 1
	}
	col := at.X
	if step.X > 0 {
		col = at.X + size.X - 1
	}
	return vec.Vec2{X: at.X, Y: row}, vec.Vec2{X: at.X + size.X - 1, Y: row},
		vec.Vec2{X: col, Y: at.Y}, vec.Vec2{X: col, Y: at.Y + size.Y - 1}
}

// sideOf сторона зонда для шага по одной оси
func sideOf(step vec.Vec2) physics.Side {
	switch {
	case step.X < 0:
		return physics.SideLeft
	case step.X > 0:
		return physics.SideRight
	case step.Y > 0:
		return physics.SideAbove
	default:
		return physics.SideBelow
	}
}

func containsSolid(ids []physics.SolidID, id physics.SolidID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
