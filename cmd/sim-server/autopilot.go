package main

import (
	"github.com/annel0/pixel-platformer/internal/input"
	"github.com/annel0/pixel-platformer/internal/util"
)

// frameSource выдаёт ввод очередного кадра
type frameSource interface {
	Next() input.Frame
}

// autopilot гоняет игрока по уровню по шуму Перлина: медленно меняет
// направление, изредка прыгает и бросает перчатку
type autopilot struct {
	noise *util.Noise
	frame int
}

func newAutopilot(seed int64) *autopilot {
	return &autopilot{noise: util.NewNoise(seed)}
}

func (a *autopilot) Next() input.Frame {
	t := float64(a.frame)
	a.frame++

	var f input.Frame
	if a.noise.At1D(t*0.004) > 0.5 {
		f = f.With(input.Right)
	} else {
		f = f.With(input.Left)
	}
	if a.noise.At2D(t*0.05, 17) > 0.62 {
		f = f.With(input.Jump)
	}
	if a.noise.At2D(t*0.03, 71) > 0.7 {
		f = f.With(input.Grapple)
		if a.noise.At2D(t*0.01, 113) > 0.5 {
			f = f.With(input.Up)
		}
	}
	return f
}

// loopingScript повторяет сценарий по кругу
type loopingScript struct {
	script *input.Script
}

func (l loopingScript) Next() input.Frame {
	if l.script.Done() {
		l.script.Rewind()
	}
	return l.script.Next()
}
