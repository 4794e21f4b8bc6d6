package physics

import (
	"github.com/annel0/pixel-platformer/internal/vec"
)

// Rect представляет прямоугольный коллайдер в пикселях.
// Min и Max включительны: тело размером 8x8 в (10,10) занимает [10..17]x[10..17].
type Rect struct {
	Min vec.Vec2 `json:"min"`
	Max vec.Vec2 `json:"max"`
}

// RectAt строит прямоугольник по позиции левого нижнего пикселя и размеру
func RectAt(pos, size vec.Vec2) Rect {
	return Rect{
		Min: pos,
		Max: vec.Vec2{X: pos.X + size.X - 1, Y: pos.Y + size.Y - 1},
	}
}

// NewRect нормализует пару углов в прямоугольник
func NewRect(a, b vec.Vec2) Rect {
	r := Rect{Min: a, Max: b}
	if r.Min.X > r.Max.X {
		r.Min.X, r.Max.X = r.Max.X, r.Min.X
	}
	if r.Min.Y > r.Max.Y {
		r.Min.Y, r.Max.Y = r.Max.Y, r.Min.Y
	}
	return r
}

// Width возвращает ширину в пикселях
func (r Rect) Width() int { return r.Max.X - r.Min.X + 1 }

// Height возвращает высоту в пикселях
func (r Rect) Height() int { return r.Max.Y - r.Min.Y + 1 }

// Overlaps проверяет пересечение двух прямоугольников.
// Центры пикселей (+0.5) никогда не лежат на целой границе,
// поэтому включительное целочисленное сравнение эквивалентно выборке по центрам.
func (r Rect) Overlaps(o Rect) bool {
	return r.Min.X <= o.Max.X && r.Max.X >= o.Min.X &&
		r.Min.Y <= o.Max.Y && r.Max.Y >= o.Min.Y
}

// Contains проверяет, лежит ли пиксель внутри прямоугольника
func (r Rect) Contains(p vec.Vec2) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// Translate сдвигает прямоугольник
func (r Rect) Translate(d vec.Vec2) Rect {
	return Rect{Min: r.Min.Add(d), Max: r.Max.Add(d)}
}

// Grow расширяет прямоугольник в сторону знака d (по одному пикселю на ось)
func (r Rect) Grow(d vec.Vec2) Rect {
	if d.X < 0 {
		r.Min.X += d.X
	} else {
		r.Max.X += d.X
	}
	if d.Y < 0 {
		r.Min.Y += d.Y
	} else {
		r.Max.Y += d.Y
	}
	return r
}
