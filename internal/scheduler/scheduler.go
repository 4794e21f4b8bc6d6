package scheduler

import (
	"sort"
	"time"

	"github.com/annel0/pixel-platformer/internal/logging"
)

// FrameRate фиксированная частота кадров физики
const FrameRate = 60

// FrameDuration длительность одного кадра
const FrameDuration = time.Second / FrameRate

// Priority группа обновления; меньшее значение выполняется раньше
type Priority int

const (
	BeforePlayer Priority = iota
	PlayerMovement
	AfterPlayer
)

func (p Priority) String() string {
	switch p {
	case BeforePlayer:
		return "beforePlayer"
	case PlayerMovement:
		return "playerMovement"
	case AfterPlayer:
		return "afterPlayer"
	default:
		return "custom"
	}
}

// UpdateFunc колбэк одного кадра
type UpdateFunc func()

// Handle идентификатор регистрации
type Handle uint64

// FrameObserver получает итог каждого тика (метрики, трассировка)
type FrameObserver interface {
	FrameDone(frame uint64, elapsed time.Duration, frozen bool)
}

// Observers раздаёт итог кадра нескольким наблюдателям
type Observers []FrameObserver

func (o Observers) FrameDone(frame uint64, elapsed time.Duration, frozen bool) {
	for _, obs := range o {
		if obs != nil {
			obs.FrameDone(frame, elapsed, frozen)
		}
	}
}

type entry struct {
	handle   Handle
	name     string
	priority Priority
	order    int
	seq      uint64
	fn       UpdateFunc
	removed  bool
}

// Scheduler упорядоченный реестр колбэков кадра с глобальным счётчиком заморозки.
// Один проход кадра выполняется синхронно в порядке (priority, order, регистрация).
type Scheduler struct {
	entries    []*entry
	byHandle   map[Handle]*entry
	nextHandle Handle
	seq        uint64

	frame      uint64
	freezeLeft int
	observer   FrameObserver
	logger     *logging.Logger
}

// New создаёт планировщик
func New() *Scheduler {
	return &Scheduler{
		byHandle: make(map[Handle]*entry),
		logger:   logging.GetSchedulerLogger(),
	}
}

// SetObserver подключает наблюдателя кадров
func (s *Scheduler) SetObserver(o FrameObserver) {
	s.observer = o
}

// Register добавляет колбэк. Зарегистрированный во время прохода запустится со следующего кадра.
func (s *Scheduler) Register(name string, priority Priority, order int, fn UpdateFunc) Handle {
	s.nextHandle++
	s.seq++
	e := &entry{
		handle:   s.nextHandle,
		name:     name,
		priority: priority,
		order:    order,
		seq:      s.seq,
		fn:       fn,
	}

	// вставка с сохранением порядка
	i := sort.Search(len(s.entries), func(i int) bool { return less(e, s.entries[i]) })
	s.entries = append(s.entries, nil)
	copy(s.entries[i+1:], s.entries[i:])
	s.entries[i] = e
	s.byHandle[e.handle] = e

	s.logger.Debug("➕ %s зарегистрирован (priority=%s order=%d)", name, priority, order)
	return e.handle
}

// Unregister удаляет колбэк. Если проход уже идёт, колбэк больше не будет вызван в нём.
func (s *Scheduler) Unregister(h Handle) bool {
	e, ok := s.byHandle[h]
	if !ok {
		return false
	}
	e.removed = true
	delete(s.byHandle, h)
	for i, cur := range s.entries {
		if cur == e {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			break
		}
	}
	s.logger.Debug("➖ %s снят с регистрации", e.name)
	return true
}

// Freeze останавливает следующие frames проходов (hit-stop).
// Регистрация и снятие во время заморозки работают как обычно.
func (s *Scheduler) Freeze(frames int) {
	if frames < 0 {
		frames = 0
	}
	s.freezeLeft = frames
}

// Frozen сообщает, будет ли пропущен следующий проход
func (s *Scheduler) Frozen() bool {
	return s.freezeLeft > 0
}

// Tick выполняет один кадр. Возвращает false, если кадр съела заморозка.
func (s *Scheduler) Tick() bool {
	start := time.Now()
	s.frame++

	if s.freezeLeft > 0 {
		s.freezeLeft--
		s.notify(start, true)
		return false
	}

	snapshot := make([]*entry, len(s.entries))
	copy(snapshot, s.entries)
	for _, e := range snapshot {
		if e.removed {
			continue
		}
		e.fn()
	}

	s.notify(start, false)
	return true
}

// Frame номер последнего выполненного тика (включая замороженные)
func (s *Scheduler) Frame() uint64 {
	return s.frame
}

// Len количество зарегистрированных колбэков
func (s *Scheduler) Len() int {
	return len(s.entries)
}

// Names возвращает имена колбэков в порядке вызова
func (s *Scheduler) Names() []string {
	names := make([]string, len(s.entries))
	for i, e := range s.entries {
		names[i] = e.name
	}
	return names
}

// Close снимает все регистрации
func (s *Scheduler) Close() {
	for _, e := range s.entries {
		e.removed = true
	}
	s.entries = nil
	s.byHandle = make(map[Handle]*entry)
	s.freezeLeft = 0
}

func (s *Scheduler) notify(start time.Time, frozen bool) {
	if s.observer != nil {
		s.observer.FrameDone(s.frame, time.Since(start), frozen)
	}
}

func less(a, b *entry) bool {
	if a.priority != b.priority {
		return a.priority < b.priority
	}
	if a.order != b.order {
		return a.order < b.order
	}
	return a.seq < b.seq
}
