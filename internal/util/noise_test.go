package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoiseDeterministicPerSeed(t *testing.T) {
	a, b := NewNoise(42), NewNoise(42)
	for i := 0; i < 50; i++ {
		x := float64(i) * 0.37
		assert.Equal(t, a.At2D(x, 1.5), b.At2D(x, 1.5), "одинаковый сид даёт одинаковый шум")
		v := a.At1D(x)
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}
