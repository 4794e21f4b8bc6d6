package replay

import (
	"fmt"

	"github.com/annel0/pixel-platformer/internal/config"
	"github.com/annel0/pixel-platformer/internal/input"
	"github.com/annel0/pixel-platformer/internal/level"
	"github.com/annel0/pixel-platformer/internal/storage"
)

// Load читает метаданные и все кадры сессии
func Load(store *storage.ReplayStore, id string) (storage.SessionMeta, []input.Frame, error) {
	meta, err := store.Session(id)
	if err != nil {
		return meta, nil, err
	}
	chunks, err := store.Chunks(id)
	if err != nil {
		return meta, nil, err
	}
	codec, err := NewCodec()
	if err != nil {
		return meta, nil, err
	}
	defer codec.Close()

	frames := make([]input.Frame, 0, meta.Frames)
	for i, data := range chunks {
		part, err := codec.Decode(data)
		if err != nil {
			return meta, nil, fmt.Errorf("кусок %d: %w", i, err)
		}
		frames = append(frames, part...)
	}
	if meta.ClosedAt.IsZero() {
		return meta, frames, nil
	}
	if len(frames) != meta.Frames {
		return meta, nil, fmt.Errorf("сессия %s: ожидалось %d кадров, прочитано %d", id, meta.Frames, len(frames))
	}
	return meta, frames, nil
}

// DefinitionFor восстанавливает описание уровня записи
func DefinitionFor(meta storage.SessionMeta) (*level.Definition, error) {
	if meta.Path != "" {
		return level.LoadDefinition(meta.Path)
	}
	if meta.Width <= 0 {
		return nil, fmt.Errorf("сессия %s: нет ни пути уровня, ни ширины генератора", meta.ID)
	}
	return level.Generate(meta.Seed, meta.Width), nil
}

// Result итог проверки детерминизма
type Result struct {
	Session  string `json:"session"`
	Frames   int    `json:"frames"`
	Expected uint64 `json:"expected"`
	Actual   uint64 `json:"actual"`
	OK       bool   `json:"ok"`
}

// Verify пересобирает сцену, прогоняет записанный ввод и сравнивает отпечаток
func Verify(store *storage.ReplayStore, id string, cfg *config.Config) (Result, error) {
	meta, frames, err := Load(store, id)
	if err != nil {
		return Result{Session: id}, err
	}
	if meta.ClosedAt.IsZero() {
		return Result{Session: id}, fmt.Errorf("сессия %s не закрыта", id)
	}
	def, err := DefinitionFor(meta)
	if err != nil {
		return Result{Session: id}, err
	}
	scene, err := level.Build(def, cfg, level.Options{})
	if err != nil {
		return Result{Session: id}, err
	}
	defer scene.Close()

	for _, f := range frames {
		scene.Step(f)
	}
	res := Result{
		Session:  id,
		Frames:   len(frames),
		Expected: meta.Checksum,
		Actual:   scene.Checksum(),
	}
	res.OK = res.Expected == res.Actual
	return res, nil
}
