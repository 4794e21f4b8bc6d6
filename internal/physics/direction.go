package physics

import (
	"math"

	"github.com/annel0/pixel-platformer/internal/vec"
)

// Direction8 одно из восьми направлений.
// Порядок важен: всё, что больше Down, является диагональю.
type Direction8 int

const (
	Left Direction8 = iota
	Right
	Up
	Down
	LeftUp
	LeftDown
	RightUp
	RightDown
)

var directionNames = [...]string{"Left", "Right", "Up", "Down", "LeftUp", "LeftDown", "RightUp", "RightDown"}

func (d Direction8) String() string {
	if d < Left || d > RightDown {
		return "Unknown"
	}
	return directionNames[d]
}

// IsDiagonal сообщает, диагональное ли направление
func (d Direction8) IsDiagonal() bool { return d > Down }

// IsHorizontal Left или Right
func (d Direction8) IsHorizontal() bool { return d <= Right }

// IsVertical Up или Down
func (d Direction8) IsVertical() bool { return d == Up || d == Down }

// Step возвращает единичный шаг по сетке (y растёт вверх)
func (d Direction8) Step() vec.Vec2 {
	switch d {
	case Left:
		return vec.Vec2{X: -1}
	case Right:
		return vec.Vec2{X: 1}
	case Up:
		return vec.Vec2{Y: 1}
	case Down:
		return vec.Vec2{Y: -1}
	case LeftUp:
		return vec.Vec2{X: -1, Y: 1}
	case LeftDown:
		return vec.Vec2{X: -1, Y: -1}
	case RightUp:
		return vec.Vec2{X: 1, Y: 1}
	case RightDown:
		return vec.Vec2{X: 1, Y: -1}
	}
	return vec.Vec2{}
}

// Unit возвращает единичный вектор направления
func (d Direction8) Unit() vec.Vec2Float {
	s := d.Step()
	if d.IsDiagonal() {
		k := 1 / math.Sqrt2
		return vec.Vec2Float{X: float64(s.X) * k, Y: float64(s.Y) * k}
	}
	return vec.FromVec2(s)
}

// DirectionFromStep подбирает направление по знакам смещения
func DirectionFromStep(dx, dy int) (Direction8, bool) {
	switch {
	case dx < 0 && dy > 0:
		return LeftUp, true
	case dx < 0 && dy < 0:
		return LeftDown, true
	case dx > 0 && dy > 0:
		return RightUp, true
	case dx > 0 && dy < 0:
		return RightDown, true
	case dx < 0:
		return Left, true
	case dx > 0:
		return Right, true
	case dy > 0:
		return Up, true
	case dy < 0:
		return Down, true
	}
	return Left, false
}

// Axis ось перемещения
type Axis int

const (
	AxisX Axis = iota
	AxisY
)

func (a Axis) String() string {
	if a == AxisX {
		return "x"
	}
	return "y"
}

// Side сторона зонда относительно тела
type Side int

const (
	SideBelow Side = iota
	SideAbove
	SideLeft
	SideRight
)

func (s Side) String() string {
	switch s {
	case SideBelow:
		return "below"
	case SideAbove:
		return "above"
	case SideLeft:
		return "left"
	default:
		return "right"
	}
}

// sideFor возвращает сторону зонда для шага по оси
func sideFor(axis Axis, sign int) Side {
	if axis == AxisX {
		if sign < 0 {
			return SideLeft
		}
		return SideRight
	}
	if sign < 0 {
		return SideBelow
	}
	return SideAbove
}

// probeSegment возвращает отрезок зонда вдоль стороны тела в позиции pos
func probeSegment(pos, size vec.Vec2, side Side) (vec.Vec2, vec.Vec2) {
	switch side {
	case SideBelow:
		return vec.Vec2{X: pos.X, Y: pos.Y - 1}, vec.Vec2{X: pos.X + size.X - 1, Y: pos.Y - 1}
	case SideAbove:
		return vec.Vec2{X: pos.X, Y: pos.Y + size.Y}, vec.Vec2{X: pos.X + size.X - 1, Y: pos.Y + size.Y}
	case SideLeft:
		return vec.Vec2{X: pos.X - 1, Y: pos.Y}, vec.Vec2{X: pos.X - 1, Y: pos.Y + size.Y - 1}
	default:
		return vec.Vec2{X: pos.X + size.X, Y: pos.Y}, vec.Vec2{X: pos.X + size.X, Y: pos.Y + size.Y - 1}
	}
}
