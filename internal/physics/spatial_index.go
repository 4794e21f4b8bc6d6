package physics

import (
	"fmt"
	"sort"

	"github.com/annel0/pixel-platformer/internal/vec"
)

// Layer слой коллайдеров пространственного индекса
type Layer int

const (
	LayerSolid Layer = iota
	LayerActor
)

func (l Layer) String() string {
	if l == LayerSolid {
		return "solid"
	}
	return "actor"
}

// SpatialQuery отвечает на запросы пересечения отрезков и областей.
// Все запросы выбирают центры пикселей (смещение 0.5), см. Rect.Overlaps.
type SpatialQuery interface {
	// SegmentBlocked проверяет горизонтальный или вертикальный отрезок p1–p2 на слое
	SegmentBlocked(p1, p2 vec.Vec2, layer Layer) bool
	// SolidsAlongSegment возвращает твёрдые тела на отрезке в порядке от p1
	SolidsAlongSegment(p1, p2 vec.Vec2) []SolidID
	// Overlapping возвращает ID коллайдеров слоя в области (по возрастанию)
	Overlapping(min, max vec.Vec2, layer Layer) []uint32
	// SpecificSolidInArea проверяет, пересекает ли конкретное тело область
	SpecificSolidInArea(min, max vec.Vec2, target SolidID) bool
}

// cellKey представляет ключ ячейки в пространственной сетке
type cellKey struct {
	x, y int
}

// colliderKey идентифицирует коллайдер в ячейке
type colliderKey struct {
	layer Layer
	id    uint32
}

// SpatialIndex сеточный широкофазный индекс коллайдеров.
// Не потокобезопасен: им владеет проход кадра.
type SpatialIndex struct {
	cellSize  int
	cells     map[cellKey]map[colliderKey]struct{}
	colliders [2]map[uint32]Rect
}

var _ SpatialQuery = (*SpatialIndex)(nil)

// NewSpatialIndex создаёт новый пространственный индекс
func NewSpatialIndex(cellSize int) *SpatialIndex {
	if cellSize <= 0 {
		cellSize = 32
	}
	return &SpatialIndex{
		cellSize:  cellSize,
		cells:     make(map[cellKey]map[colliderKey]struct{}),
		colliders: [2]map[uint32]Rect{make(map[uint32]Rect), make(map[uint32]Rect)},
	}
}

// Insert добавляет или обновляет коллайдер
func (si *SpatialIndex) Insert(layer Layer, id uint32, r Rect) {
	if old, ok := si.colliders[layer][id]; ok {
		si.Update(layer, id, old, r)
		return
	}
	si.colliders[layer][id] = r
	key := colliderKey{layer: layer, id: id}
	si.forCells(r, func(c cellKey) {
		cell := si.cells[c]
		if cell == nil {
			cell = make(map[colliderKey]struct{})
			si.cells[c] = cell
		}
		cell[key] = struct{}{}
	})
}

// Update переносит коллайдер, трогая ячейки только при смене их набора
func (si *SpatialIndex) Update(layer Layer, id uint32, old, r Rect) {
	si.colliders[layer][id] = r
	ol, oh := si.cellRange(old)
	nl, nh := si.cellRange(r)
	if ol == nl && oh == nh {
		return
	}
	key := colliderKey{layer: layer, id: id}
	si.forCells(old, func(c cellKey) { si.removeFromCell(c, key) })
	si.forCells(r, func(c cellKey) {
		cell := si.cells[c]
		if cell == nil {
			cell = make(map[colliderKey]struct{})
			si.cells[c] = cell
		}
		cell[key] = struct{}{}
	})
}

// Move обновляет коллайдер, если он уже есть в индексе
func (si *SpatialIndex) Move(layer Layer, id uint32, r Rect) {
	old, ok := si.colliders[layer][id]
	if !ok {
		si.Insert(layer, id, r)
		return
	}
	si.Update(layer, id, old, r)
}

// Remove удаляет коллайдер из индекса
func (si *SpatialIndex) Remove(layer Layer, id uint32) {
	r, ok := si.colliders[layer][id]
	if !ok {
		return
	}
	delete(si.colliders[layer], id)
	key := colliderKey{layer: layer, id: id}
	si.forCells(r, func(c cellKey) { si.removeFromCell(c, key) })
}

// Count возвращает количество коллайдеров слоя
func (si *SpatialIndex) Count(layer Layer) int {
	return len(si.colliders[layer])
}

// CellCount возвращает количество активных ячеек
func (si *SpatialIndex) CellCount() int {
	return len(si.cells)
}

// SegmentBlocked реализует SpatialQuery
func (si *SpatialIndex) SegmentBlocked(p1, p2 vec.Vec2, layer Layer) bool {
	mustBeCollinear(p1, p2)
	found := false
	si.scan(NewRect(p1, p2), layer, func(uint32, Rect) bool {
		found = true
		return false
	})
	return found
}

// SolidsAlongSegment реализует SpatialQuery
func (si *SpatialIndex) SolidsAlongSegment(p1, p2 vec.Vec2) []SolidID {
	mustBeCollinear(p1, p2)
	type hit struct {
		id   uint32
		dist int
	}
	hits := make([]hit, 0, 2)
	si.scan(NewRect(p1, p2), LayerSolid, func(id uint32, r Rect) bool {
		hits = append(hits, hit{id: id, dist: firstTouch(p1, p2, r)})
		return true
	})
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].dist != hits[j].dist {
			return hits[i].dist < hits[j].dist
		}
		return hits[i].id < hits[j].id
	})
	result := make([]SolidID, len(hits))
	for i, h := range hits {
		result[i] = SolidID(h.id)
	}
	return result
}

// Overlapping реализует SpatialQuery
func (si *SpatialIndex) Overlapping(min, max vec.Vec2, layer Layer) []uint32 {
	ids := make([]uint32, 0, 2)
	si.scan(NewRect(min, max), layer, func(id uint32, _ Rect) bool {
		ids = append(ids, id)
		return true
	})
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// SpecificSolidInArea реализует SpatialQuery
func (si *SpatialIndex) SpecificSolidInArea(min, max vec.Vec2, target SolidID) bool {
	r, ok := si.colliders[LayerSolid][uint32(target)]
	if !ok {
		return false
	}
	return r.Overlaps(NewRect(min, max))
}

// Вспомогательные методы

// scan обходит уникальные коллайдеры слоя, пересекающие область.
// visit возвращает false, чтобы остановить обход.
func (si *SpatialIndex) scan(area Rect, layer Layer, visit func(id uint32, r Rect) bool) {
	seen := make(map[uint32]struct{}, 4)
	lo, hi := si.cellRange(area)
	for x := lo.x; x <= hi.x; x++ {
		for y := lo.y; y <= hi.y; y++ {
			for key := range si.cells[cellKey{x: x, y: y}] {
				if key.layer != layer {
					continue
				}
				if _, dup := seen[key.id]; dup {
					continue
				}
				seen[key.id] = struct{}{}
				r := si.colliders[layer][key.id]
				if !r.Overlaps(area) {
					continue
				}
				if !visit(key.id, r) {
					return
				}
			}
		}
	}
}

func (si *SpatialIndex) cellRange(r Rect) (cellKey, cellKey) {
	return cellKey{x: floorDiv(r.Min.X, si.cellSize), y: floorDiv(r.Min.Y, si.cellSize)},
		cellKey{x: floorDiv(r.Max.X, si.cellSize), y: floorDiv(r.Max.Y, si.cellSize)}
}

func (si *SpatialIndex) forCells(r Rect, fn func(cellKey)) {
	lo, hi := si.cellRange(r)
	for x := lo.x; x <= hi.x; x++ {
		for y := lo.y; y <= hi.y; y++ {
			fn(cellKey{x: x, y: y})
		}
	}
}

func (si *SpatialIndex) removeFromCell(c cellKey, key colliderKey) {
	cell, ok := si.cells[c]
	if !ok {
		return
	}
	delete(cell, key)
	if len(cell) == 0 {
		delete(si.cells, c)
	}
}

// floorDiv делит с округлением вниз для отрицательных координат
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// firstTouch расстояние от p1 до первого пикселя r на отрезке
func firstTouch(p1, p2 vec.Vec2, r Rect) int {
	if p1.Y == p2.Y && p1.X != p2.X {
		if p1.X <= p2.X {
			return maxInt(r.Min.X, p1.X) - p1.X
		}
		return p1.X - minInt(r.Max.X, p1.X)
	}
	if p1.Y <= p2.Y {
		return maxInt(r.Min.Y, p1.Y) - p1.Y
	}
	return p1.Y - minInt(r.Max.Y, p1.Y)
}

// mustBeCollinear падает на отрезке не по оси: это ошибка учёта осей у вызывающего
func mustBeCollinear(p1, p2 vec.Vec2) {
	if p1.X != p2.X && p1.Y != p2.Y {
		panic(fmt.Errorf("%w: segment (%d,%d)-(%d,%d) is not axis-aligned",
			ErrInvalidQueryArguments, p1.X, p1.Y, p2.X, p2.Y))
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
