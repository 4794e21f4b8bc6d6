package eventbus

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/annel0/pixel-platformer/internal/logging"
	"github.com/annel0/pixel-platformer/internal/player"
)

// Версия схемы полезной нагрузки событий игрока
const payloadVersion = 1

// FrameClock текущий кадр симуляции
type FrameClock func() uint64

// Publisher переводит события игрока в Envelope и публикует их из своей горутины.
// Emit никогда не блокирует кадр: при переполнении очереди событие отбрасывается.
type Publisher struct {
	bus         EventBus
	source      string
	clock       FrameClock
	correlation string

	queue   chan *Envelope
	dropped uint64
	wg      sync.WaitGroup
	once    sync.Once

	logger *logging.Logger
}

// NewPublisher создаёт публикатор с очередью размера buffer
func NewPublisher(bus EventBus, source string, clock FrameClock, buffer int) *Publisher {
	if buffer <= 0 {
		buffer = 256
	}
	p := &Publisher{
		bus:    bus,
		source: source,
		clock:  clock,
		queue:  make(chan *Envelope, buffer),
		logger: logging.GetComponentLogger("events"),
	}
	p.wg.Add(1)
	go p.run()
	return p
}

// SetCorrelation помечает последующие события идентификатором сессии повтора
func (p *Publisher) SetCorrelation(id string) { p.correlation = id }

// priority раздавленные и возрождённые важнее рывков и прыжков
func priority(kind player.EventKind) int {
	switch kind {
	case player.EventSquished, player.EventRespawned, player.EventSolidDestroyed:
		return 7
	case player.EventStateChange:
		return 1
	default:
		return 3
	}
}

// Emit реализует player.EventSink
func (p *Publisher) Emit(e player.Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		p.logger.Warn("⚠️ Событие %s не сериализовано: %v", e.Kind, err)
		atomic.AddUint64(&p.dropped, 1)
		return
	}
	var frame uint64
	if p.clock != nil {
		frame = p.clock()
	}
	env := &Envelope{
		ID:            uuid.NewString(),
		Timestamp:     time.Now().UTC(),
		Source:        p.source,
		EventType:     string(e.Kind),
		Version:       payloadVersion,
		CorrelationID: p.correlation,
		Frame:         frame,
		Priority:      priority(e.Kind),
		Payload:       payload,
	}
	select {
	case p.queue <- env:
	default:
		atomic.AddUint64(&p.dropped, 1)
	}
}

// Dropped число событий, не попавших в очередь
func (p *Publisher) Dropped() uint64 { return atomic.LoadUint64(&p.dropped) }

func (p *Publisher) run() {
	defer p.wg.Done()
	for env := range p.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := p.bus.Publish(ctx, env); err != nil {
			atomic.AddUint64(&p.dropped, 1)
			p.logger.Warn("⚠️ Не удалось опубликовать %s: %v", env.EventType, err)
		}
		cancel()
	}
}

// Close дожидается отправки очереди. После Close вызывать Emit нельзя.
func (p *Publisher) Close() {
	p.once.Do(func() {
		close(p.queue)
		p.wg.Wait()
	})
}
