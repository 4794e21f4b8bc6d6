package replay

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/pixel-platformer/internal/config"
	"github.com/annel0/pixel-platformer/internal/input"
	"github.com/annel0/pixel-platformer/internal/level"
	"github.com/annel0/pixel-platformer/internal/storage"
)

func openStore(t *testing.T) *storage.ReplayStore {
	t.Helper()
	store, err := storage.OpenReplayStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// script бег вправо с прыжками и рывком перчатки
func script(n int) []input.Frame {
	frames := make([]input.Frame, n)
	for i := range frames {
		f := input.Of(input.Right)
		if i%45 < 10 {
			f = f.With(input.Jump)
		}
		if i%200 == 150 {
			f = f.With(input.Grapple)
		}
		frames[i] = f
	}
	return frames
}

// record прогоняет сцену и пишет ввод
func record(t *testing.T, store *storage.ReplayStore, def *level.Definition, src Source, frames []input.Frame) storage.SessionMeta {
	t.Helper()
	scene, err := level.Build(def, config.Default(), level.Options{})
	require.NoError(t, err)
	defer scene.Close()

	rec, err := NewRecorder(store, src)
	require.NoError(t, err)
	for _, f := range frames {
		scene.Step(f)
		require.NoError(t, rec.Record(f))
	}
	meta, err := rec.Close(scene.Checksum())
	require.NoError(t, err)
	return meta
}

func TestCodecRoundTrip(t *testing.T) {
	codec, err := NewCodec()
	require.NoError(t, err)
	defer codec.Close()

	frames := script(1000)
	data := codec.Encode(frames)
	assert.Less(t, len(data), len(frames), "повторяющийся ввод должен сжиматься")

	back, err := codec.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, frames, back)

	_, err = codec.Decode([]byte("not zstd"))
	assert.Error(t, err)
}

func TestRecorderChunks(t *testing.T) {
	store := openStore(t)
	def := level.Generate(5, 320)
	frames := script(ChunkFrames*2 + 100)

	meta := record(t, store, def, Source{Level: def.Name, Seed: 5, Width: 320}, frames)

	assert.Equal(t, len(frames), meta.Frames)
	assert.Equal(t, 3, meta.Chunks, "два полных куска и остаток")
	assert.False(t, meta.ClosedAt.IsZero())

	chunks, err := store.Chunks(meta.ID)
	require.NoError(t, err)
	assert.Len(t, chunks, 3)

	loaded, got, err := Load(store, meta.ID)
	require.NoError(t, err)
	assert.Equal(t, meta.Checksum, loaded.Checksum)
	assert.Equal(t, frames, got)
}

func TestRecorderRejectsAfterClose(t *testing.T) {
	store := openStore(t)
	rec, err := NewRecorder(store, Source{Level: "x", Seed: 1, Width: 64})
	require.NoError(t, err)
	require.NoError(t, rec.Record(input.Of(input.Left)))
	assert.Equal(t, 1, rec.Frames())

	_, err = rec.Close(42)
	require.NoError(t, err)
	assert.Error(t, rec.Record(0))

	meta, err := rec.Close(43)
	require.NoError(t, err, "повторное закрытие безопасно")
	assert.Equal(t, uint64(42), meta.Checksum)
}

func TestVerifyGenerated(t *testing.T) {
	store := openStore(t)
	def := level.Generate(11, 256)
	meta := record(t, store, def, Source{Level: def.Name, Seed: 11, Width: 256}, script(900))

	res, err := Verify(store, meta.ID, config.Default())
	require.NoError(t, err)
	assert.True(t, res.OK, "повтор должен дать тот же отпечаток")
	assert.Equal(t, 900, res.Frames)
	assert.Equal(t, res.Expected, res.Actual)
}

func TestVerifyFromFile(t *testing.T) {
	const room = `
name: replay-room
solids:
  - {x: 0, y: 0, w: 200, h: 10}
  - {x: 150, y: 10, w: 10, h: 60}
moving:
  - {w: 24, h: 4, from: {x: 60, y: 30}, to: {x: 100, y: 30}, speed: 40}
player: {x: 10, y: 10, w: 8, h: 8}
`
	path := filepath.Join(t.TempDir(), "room.yaml")
	require.NoError(t, os.WriteFile(path, []byte(room), 0o644))
	def, err := level.LoadDefinition(path)
	require.NoError(t, err)

	store := openStore(t)
	meta := record(t, store, def, Source{Level: def.Name, Path: path}, script(400))

	res, err := Verify(store, meta.ID, config.Default())
	require.NoError(t, err)
	assert.True(t, res.OK)
}

func TestVerifyDetectsMismatch(t *testing.T) {
	store := openStore(t)
	def := level.Generate(2, 128)
	meta := record(t, store, def, Source{Level: def.Name, Seed: 2, Width: 128}, script(120))

	meta.Checksum++
	require.NoError(t, store.PutSession(meta))

	res, err := Verify(store, meta.ID, config.Default())
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.NotEqual(t, res.Expected, res.Actual)
}

func TestVerifyErrors(t *testing.T) {
	store := openStore(t)

	_, err := Verify(store, "missing", config.Default())
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)

	rec, err := NewRecorder(store, Source{Level: "open", Seed: 1, Width: 64})
	require.NoError(t, err)
	_, err = Verify(store, rec.ID(), config.Default())
	assert.Error(t, err, "незакрытая сессия не проверяется")

	rec2, err := NewRecorder(store, Source{Level: "no-source"})
	require.NoError(t, err)
	_, err = rec2.Close(0)
	require.NoError(t, err)
	_, err = Verify(store, rec2.ID(), config.Default())
	assert.Error(t, err, "нет источника уровня")
}
