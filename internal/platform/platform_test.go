package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/pixel-platformer/internal/physics"
	"github.com/annel0/pixel-platformer/internal/scheduler"
	"github.com/annel0/pixel-platformer/internal/vec"
)

type launchRecorder struct {
	velocity, seconds float64
	calls             int
}

func (l *launchRecorder) ForceJump(v, s float64) {
	l.velocity, l.seconds = v, s
	l.calls++
}

type velocityRecorder struct {
	received []vec.Vec2Float
}

func (r *velocityRecorder) ReceiveVelocity(v vec.Vec2Float) {
	r.received = append(r.received, v)
}

func newWorld() *physics.World {
	return physics.NewWorld(physics.WorldOptions{CellSize: 16})
}

func TestMovingPlatformOscillates(t *testing.T) {
	w := newWorld()
	sched := scheduler.New()
	p := NewMovingPlatform(w, sched, MovingConfig{
		From: vec.Vec2{X: 0, Y: 0}, To: vec.Vec2{X: 30, Y: 0},
		Size: vec.Vec2{X: 16, Y: 4}, Speed: 60,
	})

	for i := 0; i < 30; i++ {
		sched.Tick()
	}
	assert.Equal(t, vec.Vec2{X: 30, Y: 0}, p.Solid().Position(), "платформа доехала до конечной точки")

	sched.Tick()
	sched.Tick()
	assert.Equal(t, -60.0, p.Velocity().X, "после конечной точки едет обратно")
	assert.Less(t, p.Solid().Position().X, 30)

	minX := p.Solid().Position().X
	for i := 0; i < 40; i++ {
		sched.Tick()
		if x := p.Solid().Position().X; x < minX {
			minX = x
		}
	}
	assert.Equal(t, 0, minX, "обратно доходит ровно до начальной точки")

	p.Close()
	assert.Equal(t, 0, sched.Len())
}

func TestMovingPlatformCarriesAndHandsOffVelocity(t *testing.T) {
	w := newWorld()
	sched := scheduler.New()
	p := NewMovingPlatform(w, sched, MovingConfig{
		From: vec.Vec2{X: 0, Y: 0}, To: vec.Vec2{X: 100, Y: 0},
		Size: vec.Vec2{X: 32, Y: 8}, Speed: 60,
	})
	rec := &velocityRecorder{}
	rider := w.AddActor(physics.BodyConfig{
		Position: vec.Vec2{X: 4, Y: 8}, Size: vec.Vec2{X: 8, Y: 8}, Owner: rec,
	})
	rider.UpdateRiding()
	require.Equal(t, p.Solid().ID(), rider.Riding())

	for i := 0; i < 10; i++ {
		sched.Tick()
	}
	assert.Equal(t, 10, p.Solid().Position().X)
	assert.Equal(t, 14, rider.Position().X, "пассажир едет вместе с платформой")

	rider.LeaveRide()
	require.Len(t, rec.received, 1)
	assert.Equal(t, vec.Vec2Float{X: 60, Y: 0}, rec.received[0])
}

func TestSpringLaunchesLaunchable(t *testing.T) {
	w := newWorld()
	s := NewSpring(w, nil, SpringConfig{
		Position: vec.Vec2{X: 0, Y: 0}, Size: vec.Vec2{X: 8, Y: 4},
		LaunchVelocity: 180, LaunchOffset: 4,
	})
	l := &launchRecorder{}
	a := w.AddActor(physics.BodyConfig{Position: vec.Vec2{X: 2, Y: 2}, Size: vec.Vec2{X: 4, Y: 4}, Owner: l})
	w.AddActor(physics.BodyConfig{Position: vec.Vec2{X: 1, Y: 1}, Size: vec.Vec2{X: 2, Y: 2}})

	s.Update()
	assert.Equal(t, 4, a.Position().Y, "актор выставлен на высоту пружины плюс смещение")
	assert.Equal(t, 1, l.calls)
	assert.Equal(t, 180.0, l.velocity)
	assert.Equal(t, 1.0, l.seconds)
	assert.Equal(t, 1, s.Launches(), "без Launchable пружина не срабатывает")
}

func TestMountedSpringFollowsSolid(t *testing.T) {
	w := newWorld()
	base := w.AddSolid(physics.SolidConfig{BodyConfig: physics.BodyConfig{
		Position: vec.Vec2{X: 0, Y: 0}, Size: vec.Vec2{X: 32, Y: 8},
	}})
	w.AddSolid(physics.SolidConfig{BodyConfig: physics.BodyConfig{
		Position: vec.Vec2{X: 20, Y: 8}, Size: vec.Vec2{X: 4, Y: 4},
	}})
	s := NewSpring(w, nil, SpringConfig{
		Position: vec.Vec2{X: 4, Y: 8}, Size: vec.Vec2{X: 8, Y: 4}, MountOnBelowSolid: true,
	})
	require.Equal(t, base.ID(), s.Actor().Riding())

	base.MoveBy(20, 0)
	assert.Equal(t, 24, s.Actor().Position().X, "закреплённая пружина проходит сквозь стену")
}

func TestOneWayPlatformFilter(t *testing.T) {
	w := newWorld()
	p := NewOneWayPlatform(w, physics.SolidConfig{BodyConfig: physics.BodyConfig{
		Position: vec.Vec2{X: 0, Y: 0}, Size: vec.Vec2{X: 16, Y: 2},
	}}, physics.RightDown)
	assert.Equal(t, physics.Up, p.CollidingDirection(), "диагональ заменяется на Up")
	assert.True(t, p.Solid().IsOneWay())

	a := w.AddActor(physics.BodyConfig{Position: vec.Vec2{X: 2, Y: 2}, Size: vec.Vec2{X: 4, Y: 4}})
	assert.True(t, a.ProbeSolid(physics.SideBelow))
	a.Teleport(vec.Vec2{X: 2, Y: -4})
	assert.False(t, a.ProbeSolid(physics.SideAbove))
}
