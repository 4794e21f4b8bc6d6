package physics

import (
	"github.com/annel0/pixel-platformer/internal/logging"
	"github.com/annel0/pixel-platformer/internal/vec"
)

// Diagnostics принимает внутренние сбои движка. Ни один из них не прерывает кадр.
type Diagnostics interface {
	StepOverrun(layer Layer, id uint32, axis Axis, pending int)
	FatalSquish(actor ActorID, from, to vec.Vec2)
}

// LogDiagnostics пишет сбои в лог компонента physics
type LogDiagnostics struct {
	logger *logging.Logger
}

// NewLogDiagnostics создаёт диагностику поверх логгера физики
func NewLogDiagnostics() *LogDiagnostics {
	return &LogDiagnostics{logger: logging.GetPhysicsLogger()}
}

func (d *LogDiagnostics) StepOverrun(layer Layer, id uint32, axis Axis, pending int) {
	d.logger.Warn("⚠️ StepResolutionOverrun: %s #%d ось %s, брошено %d px", layer, id, axis, pending)
}

func (d *LogDiagnostics) FatalSquish(actor ActorID, from, to vec.Vec2) {
	d.logger.Warn("💀 OverlapAfterResolution: актор #%d раздавлен в (%d,%d), перенос в (%d,%d)",
		actor, from.X, from.Y, to.X, to.Y)
}

// RespawnProvider выдаёт точку переноса для раздавленного актора
type RespawnProvider interface {
	RespawnPoint(id ActorID) (vec.Vec2, bool)
}

// SafePointRespawn всегда возвращает одну и ту же точку
type SafePointRespawn struct {
	Point vec.Vec2
}

func (s SafePointRespawn) RespawnPoint(ActorID) (vec.Vec2, bool) {
	return s.Point, true
}

// TransformSink получает каждую новую целочисленную позицию тела (рендер, снапшоты)
type TransformSink interface {
	SyncTransform(layer Layer, id uint32, pos vec.Vec2)
}
