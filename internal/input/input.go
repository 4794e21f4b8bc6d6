// Package input переводит состояние кнопок кадра в фронты нажатий и удержания.
// Ядро ничего не знает о клавишах и устройствах, только о действиях.
package input

import "strings"

// Action игровое действие
type Action uint8

const (
	Jump Action = iota
	Left
	Right
	Up
	Down
	Grapple
	actionCount
)

var actionNames = [actionCount]string{"jump", "left", "right", "up", "down", "grapple"}
var actionLetters = [actionCount]byte{'J', 'L', 'R', 'U', 'D', 'G'}

func (a Action) String() string {
	if a >= actionCount {
		return "unknown"
	}
	return actionNames[a]
}

// Frame удержанные в кадре действия, по биту на действие
type Frame uint8

// Of собирает кадр из списка удержанных действий
func Of(actions ...Action) Frame {
	var f Frame
	for _, a := range actions {
		f = f.With(a)
	}
	return f
}

func (f Frame) Has(a Action) bool { return f&(1<<a) != 0 }

func (f Frame) With(a Action) Frame { return f | 1<<a }

func (f Frame) Without(a Action) Frame { return f &^ (1 << a) }

// String компактная запись вида "J.R..G"
func (f Frame) String() string {
	var b strings.Builder
	for a := Action(0); a < actionCount; a++ {
		if f.Has(a) {
			b.WriteByte(actionLetters[a])
		} else {
			b.WriteByte('.')
		}
	}
	return b.String()
}

// ParseFrame разбирает запись из букв JLRUDG; прочие символы игнорируются
func ParseFrame(s string) Frame {
	var f Frame
	for i := 0; i < len(s); i++ {
		for a := Action(0); a < actionCount; a++ {
			if s[i] == actionLetters[a] || s[i] == actionLetters[a]+('a'-'A') {
				f = f.With(a)
			}
		}
	}
	return f
}

// Source отвечает на вопросы о нажатиях текущего кадра
type Source interface {
	Pressed(a Action) bool
	Held(a Action) bool
}

// Tracker вычисляет фронты нажатий из последовательности кадров
type Tracker struct {
	prev, cur Frame
}

// Advance переходит к следующему кадру
func (t *Tracker) Advance(f Frame) {
	t.prev, t.cur = t.cur, f
}

// Current удержанные действия текущего кадра
func (t *Tracker) Current() Frame { return t.cur }

func (t *Tracker) Pressed(a Action) bool { return t.cur.Has(a) && !t.prev.Has(a) }

func (t *Tracker) Held(a Action) bool { return t.cur.Has(a) }

// Released отпущено ли действие в этом кадре
func (t *Tracker) Released(a Action) bool { return !t.cur.Has(a) && t.prev.Has(a) }

// Reset забывает историю
func (t *Tracker) Reset() { t.prev, t.cur = 0, 0 }

// Script заранее записанная последовательность кадров; после конца отдаёт пустые кадры
type Script struct {
	frames []Frame
	pos    int
}

// NewScript создаёт сценарий ввода
func NewScript(frames ...Frame) *Script {
	return &Script{frames: frames}
}

// Repeat добавляет кадр n раз
func (s *Script) Repeat(f Frame, n int) *Script {
	for i := 0; i < n; i++ {
		s.frames = append(s.frames, f)
	}
	return s
}

// Next возвращает следующий кадр
func (s *Script) Next() Frame {
	if s.pos >= len(s.frames) {
		return 0
	}
	f := s.frames[s.pos]
	s.pos++
	return f
}

// Done исчерпан ли сценарий
func (s *Script) Done() bool { return s.pos >= len(s.frames) }

// Len количество кадров
func (s *Script) Len() int { return len(s.frames) }
