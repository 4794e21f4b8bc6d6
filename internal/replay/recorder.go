package replay

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/annel0/pixel-platformer/internal/input"
	"github.com/annel0/pixel-platformer/internal/logging"
	"github.com/annel0/pixel-platformer/internal/storage"
)

// ChunkFrames кадров в одном куске
const ChunkFrames = 600

// Source откуда взят уровень записи
type Source struct {
	Level string
	// Path пустой для сгенерированного уровня
	Path  string
	Seed  int64
	Width int
}

// Recorder пишет ввод сессии кусками по ChunkFrames кадров
type Recorder struct {
	store *storage.ReplayStore
	codec *Codec
	meta  storage.SessionMeta

	buf    []input.Frame
	closed bool

	logger *logging.Logger
}

// NewRecorder открывает новую сессию в хранилище
func NewRecorder(store *storage.ReplayStore, src Source) (*Recorder, error) {
	codec, err := NewCodec()
	if err != nil {
		return nil, err
	}
	meta := storage.SessionMeta{
		ID:        uuid.NewString(),
		Level:     src.Level,
		Path:      src.Path,
		Seed:      src.Seed,
		Width:     src.Width,
		CreatedAt: time.Now(),
	}
	if err := store.PutSession(meta); err != nil {
		codec.Close()
		return nil, fmt.Errorf("не удалось создать сессию: %w", err)
	}

	logger := logging.GetComponentLogger("replay")
	logger.Info("🎬 Запись сессии %s (уровень %s)", meta.ID, meta.Level)

	return &Recorder{
		store:  store,
		codec:  codec,
		meta:   meta,
		buf:    make([]input.Frame, 0, ChunkFrames),
		logger: logger,
	}, nil
}

func (r *Recorder) ID() string { return r.meta.ID }

// Frames число записанных кадров
func (r *Recorder) Frames() int { return r.meta.Frames + len(r.buf) }

// Record добавляет кадр ввода
func (r *Recorder) Record(f input.Frame) error {
	if r.closed {
		return fmt.Errorf("сессия %s уже закрыта", r.meta.ID)
	}
	r.buf = append(r.buf, f)
	if len(r.buf) >= ChunkFrames {
		return r.flush()
	}
	return nil
}

func (r *Recorder) flush() error {
	if len(r.buf) == 0 {
		return nil
	}
	data := r.codec.Encode(r.buf)
	if err := r.store.PutChunk(r.meta.ID, r.meta.Chunks, data); err != nil {
		return fmt.Errorf("не удалось записать кусок %d: %w", r.meta.Chunks, err)
	}
	r.logger.Debug("💾 Кусок %d сессии %s: %d кадров, %d байт", r.meta.Chunks, r.meta.ID, len(r.buf), len(data))
	r.meta.Chunks++
	r.meta.Frames += len(r.buf)
	r.buf = r.buf[:0]
	return nil
}

// Close дописывает остаток и фиксирует итоговый отпечаток сцены
func (r *Recorder) Close(checksum uint64) (storage.SessionMeta, error) {
	if r.closed {
		return r.meta, nil
	}
	defer r.codec.Close()
	if err := r.flush(); err != nil {
		return r.meta, err
	}
	r.closed = true
	r.meta.Checksum = checksum
	r.meta.ClosedAt = time.Now()
	if err := r.store.PutSession(r.meta); err != nil {
		return r.meta, fmt.Errorf("не удалось закрыть сессию: %w", err)
	}
	r.logger.Info("🏁 Сессия %s закрыта: %d кадров, отпечаток %016x", r.meta.ID, r.meta.Frames, checksum)
	return r.meta, nil
}
