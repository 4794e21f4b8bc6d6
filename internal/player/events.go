package player

import (
	"encoding/json"

	"github.com/annel0/pixel-platformer/internal/physics"
	"github.com/annel0/pixel-platformer/internal/vec"
)

// EventKind тип игрового события
type EventKind string

const (
	EventJump           EventKind = "player.jump"
	EventWallJump       EventKind = "player.walljump"
	EventStateChange    EventKind = "player.state"
	EventGloveContact   EventKind = "glove.contact"
	EventGloveBreak     EventKind = "glove.break"
	EventGloveArrive    EventKind = "glove.arrive"
	EventHangBreak      EventKind = "hang.break"
	EventSquished       EventKind = "actor.squished"
	EventRespawned      EventKind = "actor.respawned"
	EventSolidDestroyed EventKind = "solid.destroyed"
)

// Event игровое событие игрока
type Event struct {
	Kind      EventKind       `json:"kind"`
	Actor     physics.ActorID `json:"actor"`
	Position  vec.Vec2        `json:"position"`
	Velocity  vec.Vec2Float   `json:"velocity"`
	Solid     physics.SolidID `json:"solid,omitempty"`
	Direction string          `json:"direction,omitempty"`
	From      State           `json:"from"`
	To        State           `json:"to"`
	Reason    string          `json:"reason,omitempty"`
}

// MarshalJSON пишет from/to только у смены состояния. Idle равен нулю,
// поэтому omitempty здесь терял бы переходы из Idle и в Idle.
func (e Event) MarshalJSON() ([]byte, error) {
	type plain Event
	out := struct {
		plain
		From *State `json:"from,omitempty"`
		To   *State `json:"to,omitempty"`
	}{plain: plain(e)}
	if e.Kind == EventStateChange {
		out.From, out.To = &e.From, &e.To
	}
	return json.Marshal(out)
}

// EventSink принимает события. Реализация не должна блокировать кадр.
type EventSink interface {
	Emit(e Event)
}

// MultiSink раздаёт событие нескольким получателям
type MultiSink []EventSink

func (m MultiSink) Emit(e Event) {
	for _, s := range m {
		if s != nil {
			s.Emit(e)
		}
	}
}

type discardSink struct{}

func (discardSink) Emit(Event) {}
