package level

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/annel0/pixel-platformer/internal/config"
	"github.com/annel0/pixel-platformer/internal/input"
	"github.com/annel0/pixel-platformer/internal/logging"
	"github.com/annel0/pixel-platformer/internal/physics"
	"github.com/annel0/pixel-platformer/internal/platform"
	"github.com/annel0/pixel-platformer/internal/player"
	"github.com/annel0/pixel-platformer/internal/scheduler"
	"github.com/annel0/pixel-platformer/internal/storage"
	"github.com/annel0/pixel-platformer/internal/vec"
)

// ErrNoCheckpoints сцена собрана без хранилища чекпоинтов
var ErrNoCheckpoints = errors.New("checkpoint store not configured")

// Options внешние зависимости сцены; все поля необязательны
type Options struct {
	Events      player.EventSink
	Diagnostics physics.Diagnostics
	Observer    scheduler.FrameObserver
	Checkpoints storage.CheckpointRepo
	// Slot ключ чекпоинта игрока
	Slot string
}

// Scene мир, планировщик и все сущности уровня
type Scene struct {
	def   *Definition
	cfg   *config.Config
	world *physics.World
	sched *scheduler.Scheduler
	input *input.Tracker

	player  *player.Player
	oneWay  []*platform.OneWayPlatform
	moving  []*platform.MovingPlatform
	springs []*platform.Spring
	solids  []*physics.Solid

	events      player.EventSink
	checkpoints storage.CheckpointRepo
	respawn     *storage.CheckpointRespawn
	slot        string

	// чекпоинт сохраняется при первом касании земли после возрождения
	checkpointPending bool

	logger *logging.Logger
}

// Build собирает сцену по описанию. Сущности регистрируются в планировщике
// в порядке описания: платформы и пружины до игрока.
func Build(def *Definition, cfg *config.Config, opts Options) (*Scene, error) {
	if def == nil {
		return nil, fmt.Errorf("пустое описание уровня")
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = config.Default()
	}
	if opts.Slot == "" {
		opts.Slot = cfg.Storage.PlayerSlot
	}

	s := &Scene{
		def:         def,
		cfg:         cfg,
		sched:       scheduler.New(),
		input:       &input.Tracker{},
		checkpoints: opts.Checkpoints,
		slot:        opts.Slot,
		logger:      logging.GetComponentLogger("level"),
	}
	s.events = player.MultiSink{sceneSink{s}, opts.Events}
	if opts.Observer != nil {
		s.sched.SetObserver(opts.Observer)
	}

	safe := vec.Vec2{X: def.SafePoint.X, Y: def.SafePoint.Y}
	if safe.IsZero() {
		safe = vec.Vec2{X: cfg.Physics.SquishFallback.X, Y: cfg.Physics.SquishFallback.Y}
	}
	s.world = physics.NewWorld(physics.WorldOptions{
		CellSize:    cfg.Physics.SpatialCellSize,
		StepLimit:   cfg.Physics.StepLimit,
		Diagnostics: opts.Diagnostics,
		Respawn:     physics.SafePointRespawn{Point: safe},
		SafePoint:   safe,
	})

	for i, sd := range def.Solids {
		s.solids = append(s.solids, s.world.AddSolid(physics.SolidConfig{
			BodyConfig:     physics.BodyConfig{Position: sd.Position(), Size: sd.Size(), Order: i},
			RidingPriority: sd.RidingPriority,
		}))
	}
	for i, od := range def.OneWay {
		dir, _ := ParseDirection(od.Direction)
		s.oneWay = append(s.oneWay, platform.NewOneWayPlatform(s.world, physics.SolidConfig{
			BodyConfig: physics.BodyConfig{Position: od.Position(), Size: od.Size(), Order: i},
		}, dir))
	}
	for i, md := range def.Moving {
		s.moving = append(s.moving, platform.NewMovingPlatform(s.world, s.sched, platform.MovingConfig{
			From:           vec.Vec2{X: md.From.X, Y: md.From.Y},
			To:             vec.Vec2{X: md.To.X, Y: md.To.Y},
			Size:           md.Size(),
			Speed:          md.Speed,
			RidingPriority: md.RidingPriority,
			Order:          i,
		}))
	}
	for i, sp := range def.Springs {
		s.springs = append(s.springs, platform.NewSpring(s.world, s.sched, platform.SpringConfig{
			Position:          sp.Position(),
			Size:              sp.Size(),
			LaunchVelocity:    cfg.Platforms.SpringLaunchVelocity,
			LaunchOffset:      cfg.Platforms.SpringLaunchOffset,
			ForceSeconds:      cfg.Platforms.SpringForceSeconds,
			MountOnBelowSolid: sp.MountOnBelowSolid,
			RideBelowSolid:    sp.RideBelowSolid,
			Order:             len(def.Moving) + i,
		}))
	}

	s.player = player.New(s.world, s.sched, cfg.Player, player.Options{
		Position: def.Player.Position(),
		Size:     def.Player.Size(),
		Input:    s.input,
		Events:   s.events,
	})

	if s.checkpoints != nil {
		playerID := s.player.Actor().ID()
		resolve := func(id physics.ActorID) (string, bool) {
			return s.slot, id == playerID
		}
		s.respawn = storage.NewCheckpointRespawn(s.checkpoints, resolve, safe, cfg.Storage.StorageTimeout())
		if err := s.respawn.Warm(context.Background(), s.slot); err != nil {
			s.logger.Warn("⚠️ чекпоинт %s не загружен, старт с безопасной точки: %v", s.slot, err)
		}
		s.world.SetRespawnProvider(s.respawn)
	}

	s.logger.Info("🗺️ Уровень %s собран: твёрдых %d, односторонних %d, движущихся %d, пружин %d",
		def.Name, len(s.solids), len(s.oneWay), len(s.moving), len(s.springs))
	return s, nil
}

// Step продвигает сцену на один кадр с данным вводом.
// Возвращает false, если кадр пропущен стоп-кадром.
func (s *Scene) Step(f input.Frame) bool {
	s.input.Advance(f)
	ran := s.sched.Tick()
	if ran && s.checkpointPending && s.grounded() {
		s.checkpointPending = false
		if err := s.SaveCheckpoint(context.Background()); err != nil {
			s.logger.Warn("⚠️ чекпоинт не сохранён: %v", err)
		}
	}
	return ran
}

func (s *Scene) grounded() bool {
	return s.player.State() == player.Idle && s.player.Actor().Riding() != physics.NoSolid
}

// SaveCheckpoint запоминает текущую позицию игрока. Точка возрождения
// обновляется сразу, запись в репозиторий идёт в фоне.
func (s *Scene) SaveCheckpoint(ctx context.Context) error {
	if s.respawn == nil {
		return ErrNoCheckpoints
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	cp := storage.Checkpoint{
		Level:    s.def.Name,
		Position: s.player.Actor().Position(),
		SavedAt:  time.Now().UTC(),
	}
	if err := s.respawn.Remember(s.slot, cp); err != nil {
		return fmt.Errorf("сохранение чекпоинта: %w", err)
	}
	s.logger.Debug("🚩 чекпоинт %s: (%d,%d)", s.slot, cp.Position.X, cp.Position.Y)
	return nil
}

// DestroySolid уничтожает твёрдое тело уровня и публикует событие
func (s *Scene) DestroySolid(id physics.SolidID) bool {
	if s.world.Solid(id) == nil {
		return false
	}
	s.world.DestroySolid(id)
	s.events.Emit(player.Event{Kind: player.EventSolidDestroyed, Solid: id})
	return true
}

func (s *Scene) World() *physics.World           { return s.world }
func (s *Scene) Scheduler() *scheduler.Scheduler { return s.sched }
func (s *Scene) Player() *player.Player          { return s.player }
func (s *Scene) Definition() *Definition         { return s.def }
func (s *Scene) Frame() uint64                   { return s.sched.Frame() }

// Close снимает все сущности с планировщика и дописывает чекпоинты
func (s *Scene) Close() {
	s.sched.Close()
	if s.respawn != nil {
		s.respawn.Close()
	}
}

// sceneSink следит за событиями, важными для самой сцены
type sceneSink struct{ s *Scene }

func (k sceneSink) Emit(e player.Event) {
	if e.Kind == player.EventRespawned && k.s.respawn != nil {
		k.s.checkpointPending = true
	}
}

// BodyView тело в снапшоте
type BodyView struct {
	ID        uint32        `json:"id"`
	Kind      string        `json:"kind"`
	Position  vec.Vec2      `json:"position"`
	Size      vec.Vec2      `json:"size"`
	Remainder vec.Vec2Float `json:"remainder"`
	Riding    uint32        `json:"riding,omitempty"`
	Riders    int           `json:"riders,omitempty"`
}

// Snapshot сериализуемое состояние сцены
type Snapshot struct {
	Level    string          `json:"level"`
	Frame    uint64          `json:"frame"`
	Frozen   bool            `json:"frozen"`
	Player   player.Snapshot `json:"player"`
	Solids   []BodyView      `json:"solids"`
	Actors   []BodyView      `json:"actors"`
	Checksum uint64          `json:"checksum"`
}

func (s *Scene) Snapshot() Snapshot {
	snap := Snapshot{
		Level:    s.def.Name,
		Frame:    s.sched.Frame(),
		Frozen:   s.sched.Frozen(),
		Player:   s.player.Snapshot(),
		Checksum: s.Checksum(),
	}
	for _, sol := range s.world.Solids() {
		kind := "solid"
		if sol.IsOneWay() {
			kind = "one-way"
		} else if _, ok := sol.Owner().(*platform.MovingPlatform); ok {
			kind = "moving"
		}
		snap.Solids = append(snap.Solids, BodyView{
			ID:        uint32(sol.ID()),
			Kind:      kind,
			Position:  sol.Position(),
			Size:      sol.Size(),
			Remainder: sol.Remainder(),
			Riders:    len(sol.Riders()),
		})
	}
	for _, a := range s.world.Actors() {
		kind := "actor"
		switch a.Owner().(type) {
		case *player.Player:
			kind = "player"
		case *platform.Spring:
			kind = "spring"
		}
		snap.Actors = append(snap.Actors, BodyView{
			ID:        uint32(a.ID()),
			Kind:      kind,
			Position:  a.Position(),
			Size:      a.Size(),
			Remainder: a.Remainder(),
			Riding:    uint32(a.Riding()),
		})
	}
	return snap
}

// Checksum детерминированный отпечаток состояния: позиции, остатки и связи
// всех тел плюс автомат игрока. Две прогонки одного ввода дают одинаковый отпечаток.
func (s *Scene) Checksum() uint64 {
	d := xxhash.New()
	var buf [8]byte
	putInt := func(v int64) {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		d.Write(buf[:])
	}
	putFloat := func(f float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
		d.Write(buf[:])
	}

	putInt(int64(s.sched.Frame()))
	for _, sol := range s.world.Solids() {
		putInt(int64(sol.ID()))
		putInt(int64(sol.Position().X))
		putInt(int64(sol.Position().Y))
		putFloat(sol.Remainder().X)
		putFloat(sol.Remainder().Y)
	}
	for _, a := range s.world.Actors() {
		putInt(int64(a.ID()))
		putInt(int64(a.Position().X))
		putInt(int64(a.Position().Y))
		putFloat(a.Remainder().X)
		putFloat(a.Remainder().Y)
		putInt(int64(a.Riding()))
	}
	p := s.player
	putInt(int64(p.State()))
	putFloat(p.Velocity().X)
	putFloat(p.Velocity().Y)
	putInt(int64(p.Facing()))
	return d.Sum64()
}
