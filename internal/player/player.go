// Package player реализует автомат движения игрока поверх кинематического актора:
// ускорение, буфер прыжка и койот-время, прыжок от стены, инерцию, захват и висение.
package player

import (
	"github.com/annel0/pixel-platformer/internal/config"
	"github.com/annel0/pixel-platformer/internal/input"
	"github.com/annel0/pixel-platformer/internal/logging"
	"github.com/annel0/pixel-platformer/internal/physics"
	"github.com/annel0/pixel-platformer/internal/scheduler"
	"github.com/annel0/pixel-platformer/internal/vec"
)

const frameRate = float64(scheduler.FrameRate)

// Options параметры создания игрока
type Options struct {
	Position vec.Vec2
	Size     vec.Vec2
	Order    int
	Input    input.Source
	Events   EventSink
}

// Player контроллер игрока
type Player struct {
	cfg    config.PlayerConfig
	actor  *physics.Actor
	world  *physics.World
	sched  *scheduler.Scheduler
	handle scheduler.Handle
	input  input.Source
	events EventSink
	logger *logging.Logger

	state    State
	handlers [GloveHang + 1]stateHandler

	velocity vec.Vec2Float
	facing   int

	// прыжок
	jumpBuffer        int
	frameAfterJump    int
	jumpHolding       bool
	jumpInputCancel   bool
	forceJumpTimer    float64
	wallJumping       bool
	framesAfterGround int
	coyoteSpent       bool

	// горизонталь
	leftHolding, rightHolding bool
	leftBuffer, rightBuffer   int
	forceForward              bool

	inertia     InertiaBuffer
	gloveBuffer int
	glove       *GloveSession
	hang        *HangSession
}

// New создаёт игрока и регистрирует его кадр в группе PlayerMovement
func New(w *physics.World, sched *scheduler.Scheduler, cfg config.PlayerConfig, opts Options) *Player {
	if opts.Size.IsZero() {
		opts.Size = vec.Vec2{X: 8, Y: 8}
	}
	if opts.Events == nil {
		opts.Events = discardSink{}
	}
	p := &Player{
		cfg:    cfg,
		world:  w,
		sched:  sched,
		input:  opts.Input,
		events: opts.Events,
		logger: logging.GetPlayerLogger(),
		state:  Idle,
		facing: 1,
		inertia: InertiaBuffer{
			MaxStoredFrames: cfg.InertiaMaxStoredFrames,
		},
	}
	normal := normalState{}
	p.handlers = [GloveHang + 1]stateHandler{
		Idle:      normal,
		Walk:      normal,
		Jump:      normal,
		Glove:     gloveState{},
		GloveHang: hangState{},
	}

	p.actor = w.AddActor(physics.BodyConfig{
		Position:       opts.Position,
		Size:           opts.Size,
		UpdatePriority: scheduler.PlayerMovement,
		Order:          opts.Order,
		Owner:          p,
	})
	p.actor.SetSquishRadii(physics.SquishRadii{Corner: cfg.CornerCorrection, Side: cfg.SideSquishCorrection})

	if sched != nil {
		p.handle = sched.Register("player", scheduler.PlayerMovement, opts.Order, p.Update)
	}
	return p
}

// Update один кадр игрока
func (p *Player) Update() {
	p.readInput()

	if p.state.isLocomotion() && p.tickGloveBuffer() {
		// кадр касания: дальше работает стоп-кадр
		return
	}

	next := p.handlers[p.state].Update(p)
	p.changeState(next)
	p.inertia.Tick()
}

// readInput переносит фронты и удержания в буферы
func (p *Player) readInput() {
	if p.input == nil {
		p.leftHolding, p.rightHolding, p.jumpHolding = false, false, false
		return
	}
	if p.input.Pressed(input.Jump) {
		p.jumpBuffer = p.cfg.JumpBufferFrames
	}
	p.jumpHolding = p.input.Held(input.Jump)

	if p.input.Pressed(input.Left) {
		p.leftBuffer = p.cfg.FacingBufferFrames
	}
	if p.input.Pressed(input.Right) {
		p.rightBuffer = p.cfg.FacingBufferFrames
	}
	p.leftHolding = p.input.Held(input.Left)
	p.rightHolding = p.input.Held(input.Right)

	if p.input.Pressed(input.Grapple) && p.state.isLocomotion() {
		p.gloveBuffer = p.cfg.GloveBufferFrames
		if p.gloveBuffer <= 0 {
			p.gloveBuffer = 1
		}
	}
}

func (p *Player) held(a input.Action) bool {
	return p.input != nil && p.input.Held(a)
}

// changeState мгновенный переход; Exit и Enter вызываются только при смене обработчика
func (p *Player) changeState(to State) {
	if to == p.state {
		return
	}
	from := p.state
	fromHandler, toHandler := p.handlers[from], p.handlers[to]
	if fromHandler != toHandler {
		fromHandler.Exit(p)
	}
	p.state = to
	if fromHandler != toHandler {
		toHandler.Enter(p)
	}
	p.emit(Event{Kind: EventStateChange, From: from, To: to})
}

func (s State) isLocomotion() bool {
	return s == Idle || s == Walk || s == Jump
}

func (p *Player) emit(e Event) {
	e.Actor = p.actor.ID()
	e.Position = p.actor.Position()
	if e.Velocity.IsZero() {
		e.Velocity = p.velocity
	}
	p.events.Emit(e)
}

// Доступ к состоянию

func (p *Player) Actor() *physics.Actor   { return p.actor }
func (p *Player) State() State            { return p.state }
func (p *Player) Velocity() vec.Vec2Float { return p.velocity }
func (p *Player) Facing() int             { return p.facing }
func (p *Player) Inertia() InertiaBuffer  { return p.inertia }
func (p *Player) Glove() *GloveSession    { return p.glove }
func (p *Player) Hang() *HangSession      { return p.hang }

// SetInput подменяет источник ввода
func (p *Player) SetInput(src input.Source) { p.input = src }

// SetEvents подменяет получателя событий
func (p *Player) SetEvents(s EventSink) {
	if s == nil {
		s = discardSink{}
	}
	p.events = s
}

// Close снимает игрока с планировщика
func (p *Player) Close() {
	if p.sched != nil {
		p.sched.Unregister(p.handle)
	}
}

// Snapshot сериализуемое состояние игрока
type Snapshot struct {
	ID       physics.ActorID `json:"id"`
	State    State           `json:"state"`
	Position vec.Vec2        `json:"position"`
	Velocity vec.Vec2Float   `json:"velocity"`
	Facing   int             `json:"facing"`
	Riding   physics.SolidID `json:"riding"`
	Inertia  InertiaBuffer   `json:"inertia"`
	Glove    *GloveSession   `json:"glove,omitempty"`
	Hang     *HangSession    `json:"hang,omitempty"`
}

func (p *Player) Snapshot() Snapshot {
	s := Snapshot{
		ID:       p.actor.ID(),
		State:    p.state,
		Position: p.actor.Position(),
		Velocity: p.velocity,
		Facing:   p.facing,
		Riding:   p.actor.Riding(),
		Inertia:  p.inertia,
	}
	if p.glove != nil {
		g := *p.glove
		s.Glove = &g
	}
	if p.hang != nil {
		h := *p.hang
		s.Hang = &h
	}
	return s
}
