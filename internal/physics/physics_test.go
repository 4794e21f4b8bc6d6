package physics

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/pixel-platformer/internal/vec"
)

type recordingDiag struct {
	overruns []int
	squished []ActorID
}

func (d *recordingDiag) StepOverrun(_ Layer, _ uint32, _ Axis, pending int) {
	d.overruns = append(d.overruns, pending)
}

func (d *recordingDiag) FatalSquish(a ActorID, _, _ vec.Vec2) {
	d.squished = append(d.squished, a)
}

type carryEvent struct {
	solid  SolidID
	dx, dy int
}

// riderOwner записывает все уведомления, которые получает актор
type riderOwner struct {
	carried   []carryEvent
	destroyed []SolidID
	squished  int
}

func (r *riderOwner) OnCarried(s SolidID, dx, dy int) {
	r.carried = append(r.carried, carryEvent{solid: s, dx: dx, dy: dy})
}
func (r *riderOwner) OnSolidDestroyed(s SolidID)  { r.destroyed = append(r.destroyed, s) }
func (r *riderOwner) OnSquished(_, _ vec.Vec2) { r.squished++ }

type oneWayOwner struct{ dir Direction8 }

func (o oneWayOwner) CollidingDirection() Direction8 { return o.dir }

type rideLog struct {
	name   string
	events *[]string
}

func (r rideLog) OnRide(*Actor)  { *r.events = append(*r.events, "ride:"+r.name) }
func (r rideLog) OnLeave(*Actor) { *r.events = append(*r.events, "leave:"+r.name) }

func newTestWorld() (*World, *recordingDiag) {
	diag := &recordingDiag{}
	w := NewWorld(WorldOptions{
		CellSize:    16,
		Diagnostics: diag,
		Respawn:     SafePointRespawn{Point: vec.Vec2{X: 100, Y: 100}},
	})
	return w, diag
}

func box(x, y, w, h int) BodyConfig {
	return BodyConfig{Position: vec.Vec2{X: x, Y: y}, Size: vec.Vec2{X: w, Y: h}}
}

func solidBox(x, y, w, h, priority int) SolidConfig {
	return SolidConfig{BodyConfig: box(x, y, w, h), RidingPriority: priority}
}

func TestActorIntegerMoves(t *testing.T) {
	w, _ := newTestWorld()
	a := w.AddActor(box(10, 10, 8, 8))

	for _, n := range []int{1, 5, -3, 17, -40, 48} {
		before := a.Position()
		out := a.MoveX(float64(n))
		assert.Equal(t, n, out.Moved, "сдвиг на %d", n)
		assert.Equal(t, before.X+n, a.Position().X)
		assert.InDelta(t, 0, a.Remainder().X, 1e-9, "остаток должен вернуться к нулю")

		out = a.MoveY(float64(n))
		assert.Equal(t, n, out.Moved)
		assert.InDelta(t, 0, a.Remainder().Y, 1e-9)
	}
}

func TestActorFractionalAccumulation(t *testing.T) {
	w, _ := newTestWorld()
	a := w.AddActor(box(0, 0, 4, 4))

	moved := 0
	for i := 0; i < 3; i++ {
		moved += a.MoveX(0.4).Moved
	}
	assert.Equal(t, 1, moved)
	assert.Equal(t, 1, a.Position().X)
	assert.InDelta(t, 0.2, a.Remainder().X, 1e-9)

	t.Run("половина округляется к чётному", func(t *testing.T) {
		b := w.AddActor(box(50, 50, 4, 4))
		assert.Equal(t, 0, b.MoveX(0.5).Moved)
		assert.Equal(t, 2, b.MoveX(1.0).Moved, "1.5 округляется до 2")
	})
}

func TestActorBlockedByWall(t *testing.T) {
	w, _ := newTestWorld()
	wall := w.AddSolid(solidBox(30, 0, 8, 40, 0))
	a := w.AddActor(box(10, 10, 8, 8))
	a.MoveX(0.3)

	out := a.MoveX(20)
	assert.True(t, out.Blocked)
	assert.Equal(t, wall.ID(), out.BlockedBy)
	assert.Equal(t, 12, out.Moved)
	assert.Equal(t, 8, out.Pending)
	assert.Equal(t, 22, a.Position().X)
	assert.Zero(t, a.Remainder().X, "остаток по оси упора обнуляется")
	assert.True(t, a.ProbeSolid(SideRight))
	assert.False(t, a.ProbeSolid(SideLeft))
}

func TestStepResolutionOverrun(t *testing.T) {
	w, diag := newTestWorld()
	a := w.AddActor(box(0, 0, 4, 4))

	out := a.MoveX(60)
	require.ErrorIs(t, out.Err, ErrStepResolutionOverrun)
	assert.Equal(t, 49, out.Moved, "цикл прерывается в начале 50-й итерации")
	assert.Equal(t, 11, out.Pending)
	assert.Equal(t, []int{11}, diag.overruns)

	// кадр продолжается: следующий ход работает как обычно
	assert.Equal(t, 3, a.MoveX(3).Moved)
}

func TestSegmentQueryRejectsDiagonal(t *testing.T) {
	w, _ := newTestWorld()
	w.AddSolid(solidBox(0, 0, 4, 4, 0))

	var recovered any
	func() {
		defer func() { recovered = recover() }()
		w.Query().SegmentBlocked(vec.Vec2{X: 0, Y: 0}, vec.Vec2{X: 3, Y: 3}, LayerSolid)
	}()

	err, ok := recovered.(error)
	require.True(t, ok, "ожидалась паника с ошибкой")
	assert.True(t, errors.Is(err, ErrInvalidQueryArguments))
}

func TestSolidsAlongSegmentOrder(t *testing.T) {
	w, _ := newTestWorld()
	near := w.AddSolid(solidBox(3, 0, 2, 2, 0))
	far := w.AddSolid(solidBox(10, 0, 2, 2, 0))

	q := w.Query()
	assert.Equal(t, []SolidID{near.ID(), far.ID()}, q.SolidsAlongSegment(vec.Vec2{X: 0}, vec.Vec2{X: 20}))
	assert.Equal(t, []SolidID{far.ID(), near.ID()}, q.SolidsAlongSegment(vec.Vec2{X: 20}, vec.Vec2{X: 0}))
	assert.True(t, q.SpecificSolidInArea(vec.Vec2{X: 11, Y: 1}, vec.Vec2{X: 15, Y: 5}, far.ID()))
	assert.False(t, q.SpecificSolidInArea(vec.Vec2{X: 11, Y: 1}, vec.Vec2{X: 15, Y: 5}, near.ID()))
}

func TestSolidCarriesRider(t *testing.T) {
	w, _ := newTestWorld()
	platform := w.AddSolid(solidBox(0, 0, 32, 8, 0))
	owner := &riderOwner{}
	a := w.AddActor(BodyConfig{Position: vec.Vec2{X: 4, Y: 8}, Size: vec.Vec2{X: 8, Y: 8}, Owner: owner})

	a.UpdateRiding()
	require.Equal(t, platform.ID(), a.Riding())
	require.True(t, platform.HasRider(a.ID()))

	moved := platform.MoveBy(5, 0)
	assert.Equal(t, vec.Vec2{X: 5}, moved)
	assert.Equal(t, 9, a.Position().X)
	assert.Equal(t, []carryEvent{{solid: platform.ID(), dx: 5, dy: 0}}, owner.carried)
}

func TestPushedRiderIsNotCarriedTwice(t *testing.T) {
	w, _ := newTestWorld()
	platform := w.AddSolid(solidBox(0, 0, 32, 8, 0))
	owner := &riderOwner{}
	a := w.AddActor(BodyConfig{Position: vec.Vec2{X: 4, Y: 8}, Size: vec.Vec2{X: 8, Y: 8}, Owner: owner})
	a.UpdateRiding()

	platform.MoveBy(0, 3)
	assert.Equal(t, 11, a.Position().Y, "толкнули на 3, повторно не везли")
	assert.Equal(t, []carryEvent{{solid: platform.ID(), dx: 0, dy: 3}}, owner.carried)

	platform.MoveBy(0, -3)
	assert.Equal(t, 8, a.Position().Y, "вниз пассажира везут")
}

func TestRidePriorityAndSwitchOrder(t *testing.T) {
	w, _ := newTestWorld()
	var events []string
	high := w.AddSolid(SolidConfig{BodyConfig: BodyConfig{
		Position: vec.Vec2{X: 0, Y: 0}, Size: vec.Vec2{X: 8, Y: 8}, Owner: rideLog{name: "p2", events: &events},
	}, RidingPriority: 2})
	low := w.AddSolid(SolidConfig{BodyConfig: BodyConfig{
		Position: vec.Vec2{X: 8, Y: 0}, Size: vec.Vec2{X: 8, Y: 8}, Owner: rideLog{name: "p1", events: &events},
	}, RidingPriority: 1})
	a := w.AddActor(box(4, 8, 8, 8))

	assert.ElementsMatch(t, []SolidID{high.ID(), low.ID()}, a.SolidsAt(SideBelow))
	a.UpdateRiding()
	assert.Equal(t, low.ID(), a.Riding(), "меньший RidingPriority побеждает")
	assert.False(t, high.HasRider(a.ID()))

	a.RideSolid(high.ID())
	assert.Equal(t, []string{"ride:p1", "leave:p1", "ride:p2"}, events, "сначала съезд, потом въезд")
	assert.False(t, low.HasRider(a.ID()))
	assert.True(t, high.HasRider(a.ID()))

	a.MoveY(5)
	a.UpdateRiding()
	assert.Equal(t, NoSolid, a.Riding())
	assert.Empty(t, high.Riders())
}

func TestOneWayPlatform(t *testing.T) {
	w, _ := newTestWorld()
	platform := w.AddSolid(SolidConfig{BodyConfig: BodyConfig{
		Position: vec.Vec2{X: 0, Y: 0}, Size: vec.Vec2{X: 32, Y: 4}, Owner: oneWayOwner{dir: Up},
	}})
	require.True(t, platform.IsOneWay())

	a := w.AddActor(box(4, -8, 8, 8))

	t.Run("снизу проходит насквозь", func(t *testing.T) {
		out := a.MoveY(10)
		assert.False(t, out.Blocked)
		assert.Equal(t, 2, a.Position().Y)
	})

	t.Run("не держит уже пересекающего актора", func(t *testing.T) {
		out := a.MoveY(-1)
		assert.False(t, out.Blocked)
		assert.Equal(t, 1, a.Position().Y)
		assert.False(t, a.OverlapsSolid(), "одностороннее тело не считается застреванием")
	})

	t.Run("сверху держит", func(t *testing.T) {
		a.Teleport(vec.Vec2{X: 4, Y: 4})
		out := a.MoveY(-3)
		assert.True(t, out.Blocked)
		assert.Equal(t, platform.ID(), out.BlockedBy)
		assert.Equal(t, 4, a.Position().Y)
		a.UpdateRiding()
		assert.Equal(t, platform.ID(), a.Riding())
	})

	t.Run("сбоку не блокирует", func(t *testing.T) {
		b := w.AddActor(box(-8, 0, 8, 8))
		out := b.MoveX(5)
		assert.False(t, out.Blocked)
		assert.Equal(t, -3, b.Position().X)
	})
}

func TestDestroySolidNotifiesRiders(t *testing.T) {
	w, _ := newTestWorld()
	platform := w.AddSolid(solidBox(0, 0, 32, 8, 0))
	owner := &riderOwner{}
	a := w.AddActor(BodyConfig{Position: vec.Vec2{X: 4, Y: 8}, Size: vec.Vec2{X: 8, Y: 8}, Owner: owner})
	a.UpdateRiding()

	w.DestroySolid(platform.ID())
	assert.Nil(t, w.Solid(platform.ID()))
	assert.Equal(t, NoSolid, a.Riding())
	assert.Equal(t, []SolidID{platform.ID()}, owner.destroyed)
	assert.False(t, a.ProbeSolid(SideBelow))

	// ID не переиспользуются
	next := w.AddSolid(solidBox(100, 0, 4, 4, 0))
	assert.NotEqual(t, platform.ID(), next.ID())
}

func TestSquishCorrection(t *testing.T) {
	w, diag := newTestWorld()
	floor := w.AddSolid(solidBox(0, 0, 32, 8, 0))
	w.AddSolid(solidBox(0, 16, 6, 8, 0)) // узкий потолок слева
	a := w.AddActor(box(4, 8, 8, 8))

	floor.MoveBy(0, 2)
	assert.Equal(t, vec.Vec2{X: 6, Y: 10}, a.Position(), "актор ушёл вбок из-под потолка")
	assert.Empty(t, diag.squished)
}

func TestSquishCorrectionToTheLeft(t *testing.T) {
	w, diag := newTestWorld()
	floor := w.AddSolid(solidBox(0, 0, 32, 8, 0))
	w.AddSolid(solidBox(10, 16, 22, 8, 0)) // потолок справа, слева проём
	a := w.AddActor(box(4, 8, 8, 8))

	floor.MoveBy(0, 2)
	assert.Equal(t, vec.Vec2{X: 2, Y: 10}, a.Position(), "справа проёма нет, актор уходит влево")
	assert.Empty(t, diag.squished)
}

func TestSideSquishSlidesUnderWall(t *testing.T) {
	w, diag := newTestWorld()
	pusher := w.AddSolid(solidBox(2, 20, 8, 8, 0))
	w.AddSolid(solidBox(18, 24, 4, 20, 0)) // нижняя кромка стены на уровне четвёртой строки актора
	a := w.AddActor(box(10, 20, 8, 8))

	pusher.MoveBy(2, 0)

	assert.Equal(t, vec.Vec2{X: 12, Y: 16}, a.Position(), "актор проскальзывает под стену и доезжает толчок")
	assert.Empty(t, diag.squished)
}

func TestSideSquishBeyondRadiusIsFatal(t *testing.T) {
	w, diag := newTestWorld()
	pusher := w.AddSolid(solidBox(2, 20, 8, 8, 0))
	w.AddSolid(solidBox(18, 10, 4, 40, 0)) // стена без проёма в пределах радиуса
	a := w.AddActor(box(10, 20, 8, 8))

	pusher.MoveBy(2, 0)

	assert.Equal(t, vec.Vec2{X: 100, Y: 100}, a.Position())
	assert.Equal(t, []ActorID{a.ID()}, diag.squished)
}

type unknownActors struct{}

func (unknownActors) RespawnPoint(ActorID) (vec.Vec2, bool) { return vec.Vec2{}, false }

func TestFatalSquishFallsBackToSafePoint(t *testing.T) {
	diag := &recordingDiag{}
	w := NewWorld(WorldOptions{
		CellSize:    16,
		Diagnostics: diag,
		Respawn:     unknownActors{},
		SafePoint:   vec.Vec2{X: 50, Y: 60},
	})
	floor := w.AddSolid(solidBox(0, 0, 32, 8, 0))
	w.AddSolid(solidBox(0, 16, 32, 8, 0))
	a := w.AddActor(box(4, 8, 8, 8))

	p, ok := w.RespawnPoint(a.ID())
	assert.False(t, ok)
	assert.Equal(t, vec.Vec2{X: 50, Y: 60}, p)

	floor.MoveBy(0, 2)
	assert.Equal(t, vec.Vec2{X: 50, Y: 60}, a.Position(), "провайдер не знает актора, берётся безопасная точка мира")
	assert.Len(t, diag.squished, 1)
}

func TestFatalSquishOrderIsStable(t *testing.T) {
	for run := 0; run < 10; run++ {
		w, diag := newTestWorld()
		ghost := w.AddSolid(solidBox(0, 0, 64, 8, 0))
		w.AddSolid(solidBox(0, 16, 64, 8, 0))
		first := w.AddActor(box(30, 8, 8, 8))
		second := w.AddActor(box(4, 8, 8, 8))

		ghost.MoveByIgnoreSolid(0, 2)

		require.Equal(t, []ActorID{first.ID(), second.ID()}, diag.squished, "прогон %d: порядок по ID", run)
	}
}

func TestFatalSquishRespawns(t *testing.T) {
	w, diag := newTestWorld()
	floor := w.AddSolid(solidBox(0, 0, 32, 8, 0))
	w.AddSolid(solidBox(0, 16, 32, 8, 0))
	owner := &riderOwner{}
	a := w.AddActor(BodyConfig{Position: vec.Vec2{X: 4, Y: 8}, Size: vec.Vec2{X: 8, Y: 8}, Owner: owner})
	a.UpdateRiding()

	floor.MoveBy(0, 2)
	assert.Equal(t, vec.Vec2{X: 100, Y: 100}, a.Position())
	assert.Equal(t, NoSolid, a.Riding())
	assert.Equal(t, []ActorID{a.ID()}, diag.squished)
	assert.Equal(t, 1, owner.squished)
	assert.Equal(t, vec.Vec2Float{}, a.Remainder())
}

func TestSolidMoveVariants(t *testing.T) {
	w, _ := newTestWorld()
	w.AddSolid(solidBox(20, 0, 4, 4, 0))

	blocked := w.AddSolid(solidBox(0, 0, 4, 4, 0))
	moved := blocked.MoveBy(30, 0)
	assert.Equal(t, 16, moved.X, "твёрдое тело останавливается о другое")
	assert.Equal(t, 16, blocked.Position().X)

	ghost := w.AddSolid(solidBox(0, 8, 4, 4, 0))
	ghost.MoveByIgnoreSolid(30, -8)
	assert.Equal(t, vec.Vec2{X: 30, Y: 0}, ghost.Position())
}

func TestRemoveActor(t *testing.T) {
	w, _ := newTestWorld()
	platform := w.AddSolid(solidBox(0, 0, 32, 8, 0))
	a := w.AddActor(box(4, 8, 8, 8))
	a.UpdateRiding()

	w.RemoveActor(a.ID())
	assert.Nil(t, w.Actor(a.ID()))
	assert.Empty(t, platform.Riders())
	assert.Equal(t, 0, w.Index().Count(LayerActor))
	assert.Len(t, w.Actors(), 0)
}
