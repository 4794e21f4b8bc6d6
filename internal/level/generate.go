package level

import (
	"fmt"

	"github.com/annel0/pixel-platformer/internal/config"
	"github.com/annel0/pixel-platformer/internal/util"
)

// Параметры генерации
const (
	columnWidth    = 16
	groundMin      = 16
	groundRange    = 48
	groundScale    = 0.15
	platformStep   = 48
	platformChance = 0.55
	platformScale  = 0.31
	wallHeight     = 400
)

// Generate строит уровень по сиду: колонны земли по шуму Перлина,
// парящие односторонние платформы, одна движущаяся платформа и пружина.
// Один и тот же сид всегда даёт один и тот же уровень.
func Generate(seed int64, width int) *Definition {
	if width < columnWidth*8 {
		width = columnWidth * 8
	}
	noise := util.NewNoise(seed)
	columns := width / columnWidth
	width = columns * columnWidth

	def := &Definition{
		Name: fmt.Sprintf("seed-%d", seed),
		Seed: seed,
	}

	heights := make([]int, columns)
	top := 0
	for c := 0; c < columns; c++ {
		h := groundMin + int(noise.At1D(float64(c)*groundScale)*groundRange)
		heights[c] = h
		if h > top {
			top = h
		}
		def.Solids = append(def.Solids, SolidDef{
			Box: Box{X: c * columnWidth, Y: 0, W: columnWidth, H: h},
		})
	}

	// стены по краям
	def.Solids = append(def.Solids,
		SolidDef{Box: Box{X: -columnWidth, Y: 0, W: columnWidth, H: wallHeight}},
		SolidDef{Box: Box{X: width, Y: 0, W: columnWidth, H: wallHeight}},
	)

	for x := platformStep; x+24 < width; x += platformStep {
		if noise.At2D(float64(x)*platformScale, 7.3) < platformChance {
			continue
		}
		y := top + 24 + int(noise.At2D(float64(x)*platformScale, 3.1)*32)
		def.OneWay = append(def.OneWay, OneWayDef{
			Box:       Box{X: x, Y: y, W: 24, H: 4},
			Direction: "up",
		})
	}

	mx := width / 3
	def.Moving = append(def.Moving, MovingDef{
		Box:            Box{W: 24, H: 4},
		From:           config.Point{X: mx, Y: top + 16},
		To:             config.Point{X: mx + 64, Y: top + 16},
		Speed:          30,
		RidingPriority: 1,
	})

	sc := columns / 2
	def.Springs = append(def.Springs, SpringDef{
		Box:            Box{X: sc*columnWidth + 4, Y: heights[sc], W: 8, H: 4},
		RideBelowSolid: true,
	})

	def.Player = Box{X: columnWidth + 4, Y: heights[1], W: 8, H: 8}
	def.SafePoint = config.Point{X: def.Player.X, Y: def.Player.Y}
	return def
}
