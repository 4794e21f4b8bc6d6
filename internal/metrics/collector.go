// Package metrics переводит диагностику движка, итоги кадров и события игрока
// в метрики Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/annel0/pixel-platformer/internal/physics"
	"github.com/annel0/pixel-platformer/internal/player"
	"github.com/annel0/pixel-platformer/internal/vec"
)

const namespace = "platformer"

// Collector реализует physics.Diagnostics, scheduler.FrameObserver и player.EventSink.
// Диагностика дополнительно передаётся во вложенную реализацию (по умолчанию лог).
type Collector struct {
	next physics.Diagnostics

	frames        prometheus.Counter
	frozenFrames  prometheus.Counter
	frameDuration prometheus.Histogram
	stepOverruns  *prometheus.CounterVec
	fatalSquish   prometheus.Counter
	transitions   *prometheus.CounterVec
	gloveContacts prometheus.Counter
	gloveBreaks   *prometheus.CounterVec
	events        *prometheus.CounterVec
}

// NewCollector создаёт коллектор и регистрирует метрики в reg.
// next может быть nil, тогда диагностика пишется в лог физики.
func NewCollector(reg prometheus.Registerer, next physics.Diagnostics) *Collector {
	if next == nil {
		next = physics.NewLogDiagnostics()
	}
	c := &Collector{
		next: next,
		frames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_total",
			Help:      "Выполненные тики планировщика, включая замороженные.",
		}),
		frozenFrames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frozen_frames_total",
			Help:      "Тики, пропущенные из-за заморозки.",
		}),
		frameDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "frame_duration_seconds",
			Help:      "Длительность прохода кадра.",
			Buckets:   []float64{0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.0167},
		}),
		stepOverruns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "step_overruns_total",
			Help:      "Превышения лимита пошагового движения.",
		}, []string{"layer"}),
		fatalSquish: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fatal_squish_total",
			Help:      "Акторы, перенесённые в точку возрождения после раздавливания.",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "player_state_transitions_total",
			Help:      "Переходы автомата игрока.",
		}, []string{"from", "to"}),
		gloveContacts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "glove_contacts_total",
			Help:      "Успешные броски перчатки.",
		}),
		gloveBreaks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "glove_breaks_total",
			Help:      "Срывы рывка и висения по причинам.",
		}, []string{"kind", "reason"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "player_events_total",
			Help:      "События игрока по типам.",
		}, []string{"kind"}),
	}
	reg.MustRegister(c.frames, c.frozenFrames, c.frameDuration, c.stepOverruns,
		c.fatalSquish, c.transitions, c.gloveContacts, c.gloveBreaks, c.events)
	return c
}

func (c *Collector) StepOverrun(layer physics.Layer, id uint32, axis physics.Axis, pending int) {
	c.stepOverruns.WithLabelValues(layer.String()).Inc()
	c.next.StepOverrun(layer, id, axis, pending)
}

func (c *Collector) FatalSquish(actor physics.ActorID, from, to vec.Vec2) {
	c.fatalSquish.Inc()
	c.next.FatalSquish(actor, from, to)
}

// FrameDone замороженный тик считается, но его длительность не наблюдается
func (c *Collector) FrameDone(_ uint64, elapsed time.Duration, frozen bool) {
	c.frames.Inc()
	if frozen {
		c.frozenFrames.Inc()
		return
	}
	c.frameDuration.Observe(elapsed.Seconds())
}

func (c *Collector) Emit(e player.Event) {
	c.events.WithLabelValues(string(e.Kind)).Inc()
	switch e.Kind {
	case player.EventStateChange:
		c.transitions.WithLabelValues(e.From.String(), e.To.String()).Inc()
	case player.EventGloveContact:
		c.gloveContacts.Inc()
	case player.EventGloveBreak:
		c.gloveBreaks.WithLabelValues("glove", e.Reason).Inc()
	case player.EventHangBreak:
		c.gloveBreaks.WithLabelValues("hang", e.Reason).Inc()
	}
}
