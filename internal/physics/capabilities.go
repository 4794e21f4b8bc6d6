package physics

import "github.com/annel0/pixel-platformer/internal/vec"

// Возможности владельцев тел. Проверяются приведением типа владельца (Owner),
// поэтому реализуются только там, где они нужны.

// CarryNotifiable получает уведомление, когда несущее тело сдвинуло актора
type CarryNotifiable interface {
	OnCarried(solid SolidID, dx, dy int)
}

// DestructionNotifiable получает уведомление об уничтожении тела, на котором едет
type DestructionNotifiable interface {
	OnSolidDestroyed(solid SolidID)
}

// VelocityReceivable принимает скорость от внешнего тела (инерция платформы)
type VelocityReceivable interface {
	ReceiveVelocity(v vec.Vec2Float)
}

// Rideable реализуется владельцем твёрдого тела, которому важны въезд и съезд
type Rideable interface {
	OnRide(a *Actor)
	OnLeave(a *Actor)
}

// OneWayFilter делает твёрдое тело односторонним.
// Up блокирует только зонды снизу актора (актор стоит сверху), Down только сверху,
// Left только справа, Right только слева.
type OneWayFilter interface {
	CollidingDirection() Direction8
}

// SquishNotifiable узнаёт о фатальном сдавливании и переносе в точку возрождения
type SquishNotifiable interface {
	OnSquished(from, to vec.Vec2)
}

// blocksSide решает, закрывает ли одностороннее тело зонд с данной стороны
func blocksSide(dir Direction8, side Side) bool {
	switch dir {
	case Up:
		return side == SideBelow
	case Down:
		return side == SideAbove
	case Left:
		return side == SideRight
	case Right:
		return side == SideLeft
	}
	return false
}
