package vec

import "math"

// Vec2Float представляет 2D вектор с плавающей точкой (скорости, остатки)
type Vec2Float struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// ToVec2 округляет компоненты (половина к чётному)
func (v Vec2Float) ToVec2() Vec2 {
	return Vec2{X: Round(v.X), Y: Round(v.Y)}
}

// FromVec2 создает Vec2Float из Vec2
func FromVec2(v Vec2) Vec2Float {
	return Vec2Float{X: float64(v.X), Y: float64(v.Y)}
}

// Add складывает два вектора
func (v Vec2Float) Add(other Vec2Float) Vec2Float {
	return Vec2Float{X: v.X + other.X, Y: v.Y + other.Y}
}

// Sub вычитает вектор
func (v Vec2Float) Sub(other Vec2Float) Vec2Float {
	return Vec2Float{X: v.X - other.X, Y: v.Y - other.Y}
}

// Mul умножает вектор на скаляр
func (v Vec2Float) Mul(scalar float64) Vec2Float {
	return Vec2Float{X: v.X * scalar, Y: v.Y * scalar}
}

// Normalized возвращает нормализованный вектор
func (v Vec2Float) Normalized() Vec2Float {
	length := v.Length()
	if length == 0 {
		return Vec2Float{X: 0, Y: 0}
	}
	return Vec2Float{X: v.X / length, Y: v.Y / length}
}

// Length возвращает длину вектора
func (v Vec2Float) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y)
}

// IsZero проверяет нулевой вектор
func (v Vec2Float) IsZero() bool {
	return v.X == 0 && v.Y == 0
}

// Round округляет до ближайшего целого, половину к чётному.
// Так движок материализует субпиксельный остаток в шаги сетки.
func Round(f float64) int {
	return int(math.RoundToEven(f))
}

// SignF возвращает знак числа с плавающей точкой
func SignF(f float64) int {
	switch {
	case f > 0:
		return 1
	case f < 0:
		return -1
	default:
		return 0
	}
}
