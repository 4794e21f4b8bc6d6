package physics

import (
	"github.com/annel0/pixel-platformer/internal/logging"
	"github.com/annel0/pixel-platformer/internal/scheduler"
	"github.com/annel0/pixel-platformer/internal/vec"
)

// ActorID индекс слота актора (с единицы). Слоты не переиспользуются.
type ActorID uint32

// SolidID индекс слота твёрдого тела (с единицы). Слоты не переиспользуются.
type SolidID uint32

const (
	NoActor ActorID = 0
	NoSolid SolidID = 0
)

// DefaultStepLimit предел итераций пошагового цикла
const DefaultStepLimit = 50

// WorldOptions параметры мира
type WorldOptions struct {
	CellSize    int
	StepLimit   int
	Diagnostics Diagnostics
	Respawn     RespawnProvider
	// SafePoint запасная точка, если Respawn не знает актора
	SafePoint   vec.Vec2
	Sink        TransformSink
}

// World арена тел: акторы и твёрдые тела лежат в слотах, связи между ними хранятся индексами.
type World struct {
	index     *SpatialIndex
	actors    []*Actor
	solids    []*Solid
	stepLimit int
	diag      Diagnostics
	respawn   RespawnProvider
	safePoint vec.Vec2
	sink      TransformSink
	logger    *logging.Logger

	// тело, которое сейчас толкает или везёт акторов
	pusher SolidID
}

// NewWorld создаёт пустой мир
func NewWorld(opts WorldOptions) *World {
	if opts.StepLimit <= 0 {
		opts.StepLimit = DefaultStepLimit
	}
	if opts.Diagnostics == nil {
		opts.Diagnostics = NewLogDiagnostics()
	}
	if opts.Respawn == nil {
		opts.Respawn = SafePointRespawn{Point: opts.SafePoint}
	}
	return &World{
		index:     NewSpatialIndex(opts.CellSize),
		stepLimit: opts.StepLimit,
		diag:      opts.Diagnostics,
		respawn:   opts.Respawn,
		safePoint: opts.SafePoint,
		sink:      opts.Sink,
		logger:    logging.GetPhysicsLogger(),
	}
}

// Query возвращает сервис пространственных запросов
func (w *World) Query() SpatialQuery { return w.index }

// Index возвращает сам индекс (статистика для метрик)
func (w *World) Index() *SpatialIndex { return w.index }

func (w *World) SetDiagnostics(d Diagnostics) {
	if d != nil {
		w.diag = d
	}
}

func (w *World) Diagnostics() Diagnostics { return w.diag }

func (w *World) SetRespawnProvider(p RespawnProvider) {
	if p != nil {
		w.respawn = p
	}
}

// SafePoint запасная точка возрождения
func (w *World) SafePoint() vec.Vec2 { return w.safePoint }

// RespawnPoint точка возрождения актора; если провайдер его не знает, безопасная точка мира
func (w *World) RespawnPoint(id ActorID) (vec.Vec2, bool) {
	if p, ok := w.respawn.RespawnPoint(id); ok {
		return p, true
	}
	return w.safePoint, false
}

func (w *World) SetTransformSink(s TransformSink) { w.sink = s }

// BodyConfig начальные параметры тела
type BodyConfig struct {
	Position       vec.Vec2
	Size           vec.Vec2
	UpdatePriority scheduler.Priority
	Order          int
	Owner          any
}

// SolidConfig параметры твёрдого тела
type SolidConfig struct {
	BodyConfig
	RidingPriority int
}

// AddActor создаёт актора и регистрирует его в слое акторов
func (w *World) AddActor(cfg BodyConfig) *Actor {
	a := &Actor{
		body:   newBody(cfg),
		id:     ActorID(len(w.actors) + 1),
		world:  w,
		owner:  cfg.Owner,
		squish: DefaultSquishRadii,
	}
	w.actors = append(w.actors, a)
	w.index.Insert(LayerActor, uint32(a.id), a.Rect())
	w.publish(LayerActor, uint32(a.id), a.pos)
	return a
}

// AddSolid создаёт твёрдое тело
func (w *World) AddSolid(cfg SolidConfig) *Solid {
	s := &Solid{
		body:           newBody(cfg.BodyConfig),
		id:             SolidID(len(w.solids) + 1),
		world:          w,
		owner:          cfg.Owner,
		ridingPriority: cfg.RidingPriority,
	}
	w.solids = append(w.solids, s)
	w.index.Insert(LayerSolid, uint32(s.id), s.Rect())
	w.publish(LayerSolid, uint32(s.id), s.pos)
	return s
}

// Actor возвращает живого актора или nil
func (w *World) Actor(id ActorID) *Actor {
	if id == NoActor || int(id) > len(w.actors) {
		return nil
	}
	return w.actors[id-1]
}

// Solid возвращает существующее тело или nil
func (w *World) Solid(id SolidID) *Solid {
	if id == NoSolid || int(id) > len(w.solids) {
		return nil
	}
	return w.solids[id-1]
}

// Actors возвращает живых акторов в порядке ID
func (w *World) Actors() []*Actor {
	out := make([]*Actor, 0, len(w.actors))
	for _, a := range w.actors {
		if a != nil {
			out = append(out, a)
		}
	}
	return out
}

// Solids возвращает существующие тела в порядке ID
func (w *World) Solids() []*Solid {
	out := make([]*Solid, 0, len(w.solids))
	for _, s := range w.solids {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

// RemoveActor убирает актора из мира, сначала сняв его с опоры
func (w *World) RemoveActor(id ActorID) {
	a := w.Actor(id)
	if a == nil {
		return
	}
	a.LeaveRide()
	w.index.Remove(LayerActor, uint32(id))
	w.actors[id-1] = nil
}

// DestroySolid уничтожает тело и уведомляет всех, кто на нём ехал
func (w *World) DestroySolid(id SolidID) {
	s := w.Solid(id)
	if s == nil {
		return
	}
	riders := s.Riders()
	w.index.Remove(LayerSolid, uint32(id))
	w.solids[id-1] = nil
	s.riders = nil

	for _, rid := range riders {
		a := w.Actor(rid)
		if a == nil {
			continue
		}
		a.riding = NoSolid
		if n, ok := a.owner.(DestructionNotifiable); ok {
			n.OnSolidDestroyed(id)
		}
	}
	w.logger.Debug("🧱 тело #%d уничтожено, пассажиров: %d", id, len(riders))
}

// PickRide выбирает опору: меньший RidingPriority, затем меньший ID
func (w *World) PickRide(ids []SolidID) SolidID {
	best := NoSolid
	bestPriority := 0
	for _, id := range ids {
		s := w.Solid(id)
		if s == nil {
			continue
		}
		if best == NoSolid || s.ridingPriority < bestPriority ||
			(s.ridingPriority == bestPriority && id < best) {
			best = id
			bestPriority = s.ridingPriority
		}
	}
	return best
}

func (w *World) publish(layer Layer, id uint32, pos vec.Vec2) {
	if w.sink != nil {
		w.sink.SyncTransform(layer, id, pos)
	}
}

func (w *World) reportOverrun(layer Layer, id uint32, axis Axis, pending int) {
	w.diag.StepOverrun(layer, id, axis, pending)
}

// body общее ядро актора и твёрдого тела
type body struct {
	pos       vec.Vec2
	size      vec.Vec2
	remainder vec.Vec2Float
	priority  scheduler.Priority
	order     int
}

func newBody(cfg BodyConfig) body {
	return body{pos: cfg.Position, size: cfg.Size, priority: cfg.UpdatePriority, order: cfg.Order}
}

// Position текущая позиция левого нижнего пикселя
func (b *body) Position() vec.Vec2 { return b.pos }

// Size размер тела
func (b *body) Size() vec.Vec2 { return b.size }

// Remainder накопленный дробный остаток
func (b *body) Remainder() vec.Vec2Float { return b.remainder }

// Rect занимаемые пиксели
func (b *body) Rect() Rect { return RectAt(b.pos, b.size) }

// UpdatePriority группа обновления тела
func (b *body) UpdatePriority() scheduler.Priority { return b.priority }

// Order порядок внутри группы
func (b *body) Order() int { return b.order }

// ClearRemainder обнуляет остаток по оси
func (b *body) ClearRemainder(axis Axis) {
	if axis == AxisX {
		b.remainder.X = 0
	} else {
		b.remainder.Y = 0
	}
}

// ResetRemainders обнуляет оба остатка
func (b *body) ResetRemainders() {
	b.remainder = vec.Vec2Float{}
}

func (b *body) remainderOn(axis Axis) *float64 {
	if axis == AxisX {
		return &b.remainder.X
	}
	return &b.remainder.Y
}

func (b *body) shift(axis Axis, d int) {
	if axis == AxisX {
		b.pos.X += d
	} else {
		b.pos.Y += d
	}
}

// MoveOutcome итог одного вызова движения по оси
type MoveOutcome struct {
	Moved     int     // пройдено пикселей со знаком
	Pending   int     // не пройдено из-за препятствия или предела итераций
	Blocked   bool    // упёрлись в тело
	BlockedBy SolidID // первое блокирующее тело на зонде
	Err       error   // ErrStepResolutionOverrun при переполнении цикла
}
