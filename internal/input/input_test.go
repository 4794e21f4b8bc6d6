package input

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameBits(t *testing.T) {
	f := Of(Jump, Right, Grapple)
	assert.True(t, f.Has(Jump))
	assert.False(t, f.Has(Left))
	assert.Equal(t, "J.R..G", f.String())
	assert.Equal(t, f, ParseFrame("jrg"))
	assert.Equal(t, Of(Right, Grapple), f.Without(Jump))
}

func TestTrackerEdges(t *testing.T) {
	var tr Tracker

	tr.Advance(Of(Jump))
	assert.True(t, tr.Pressed(Jump), "первый кадр с кнопкой даёт фронт")
	assert.True(t, tr.Held(Jump))

	tr.Advance(Of(Jump, Left))
	assert.False(t, tr.Pressed(Jump), "удержание не повторяет фронт")
	assert.True(t, tr.Pressed(Left))

	tr.Advance(Of(Left))
	assert.True(t, tr.Released(Jump))
	assert.False(t, tr.Held(Jump))

	tr.Reset()
	assert.Equal(t, Frame(0), tr.Current())
}

func TestScript(t *testing.T) {
	s := NewScript(Of(Jump)).Repeat(Of(Right), 2)
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, Of(Jump), s.Next())
	assert.Equal(t, Of(Right), s.Next())
	assert.Equal(t, Of(Right), s.Next())
	assert.True(t, s.Done())
	assert.Equal(t, Frame(0), s.Next())
}

func TestParseScript(t *testing.T) {
	src := `
# разбег и прыжок
3 R
RJ
2 .
`
	s, err := ParseScript(strings.NewReader(src))
	require.NoError(t, err)
	require.Equal(t, 6, s.Len())

	want := []Frame{Of(Right), Of(Right), Of(Right), Of(Right, Jump), 0, 0}
	for i, f := range want {
		assert.Equal(t, f, s.Next(), "кадр %d", i)
	}
	assert.True(t, s.Done())

	s.Rewind()
	assert.Equal(t, Of(Right), s.Next())

	_, err = ParseScript(strings.NewReader("x R"))
	assert.Error(t, err)
	_, err = ParseScript(strings.NewReader("1 2 3"))
	assert.Error(t, err)
}
