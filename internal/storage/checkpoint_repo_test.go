package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/pixel-platformer/internal/physics"
	"github.com/annel0/pixel-platformer/internal/vec"
)

// TestMemoryCheckpointRepo тестирует in-memory репозиторий чекпоинтов
func TestMemoryCheckpointRepo(t *testing.T) {
	repo := NewMemoryCheckpointRepo()
	ctx := context.Background()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("Save and Load", func(t *testing.T) {
		cp := Checkpoint{Level: "seed-1", Position: vec.Vec2{X: 10, Y: 20}, SavedAt: now}
		require.NoError(t, repo.Save(ctx, "player-1", cp))

		got, found, err := repo.Load(ctx, "player-1")
		require.NoError(t, err)
		require.True(t, found, "чекпоинт не найден")
		assert.Equal(t, cp, got)
	})

	t.Run("Load Missing Slot", func(t *testing.T) {
		got, found, err := repo.Load(ctx, "nobody")
		require.NoError(t, err)
		assert.False(t, found)
		assert.Equal(t, Checkpoint{}, got)
	})

	t.Run("Update", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, "player-2", Checkpoint{Position: vec.Vec2{X: 1, Y: 2}}))
		require.NoError(t, repo.Save(ctx, "player-2", Checkpoint{Position: vec.Vec2{X: 3, Y: 4}}))

		got, _, err := repo.Load(ctx, "player-2")
		require.NoError(t, err)
		assert.Equal(t, vec.Vec2{X: 3, Y: 4}, got.Position, "позиция должна обновиться")
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, "player-3", Checkpoint{}))
		require.NoError(t, repo.Delete(ctx, "player-3"))

		_, found, err := repo.Load(ctx, "player-3")
		require.NoError(t, err)
		assert.False(t, found, "чекпоинт найден после удаления")

		err = repo.Delete(ctx, "player-3")
		assert.True(t, errors.Is(err, ErrCheckpointNotFound))
	})

	t.Run("BatchSave", func(t *testing.T) {
		before := repo.Count()
		err := repo.BatchSave(ctx, map[string]Checkpoint{
			"a": {Position: vec.Vec2{X: 1}},
			"b": {Position: vec.Vec2{X: 2}},
		})
		require.NoError(t, err)
		assert.Equal(t, before+2, repo.Count())

		err = repo.BatchSave(ctx, map[string]Checkpoint{"": {}})
		assert.Error(t, err, "пустой ключ в batch недопустим")
	})

	t.Run("Empty Key", func(t *testing.T) {
		assert.Error(t, repo.Save(ctx, "", Checkpoint{}))
		_, _, err := repo.Load(ctx, "")
		assert.Error(t, err)
	})

	t.Run("Cancelled Context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		assert.ErrorIs(t, repo.Save(cctx, "player-1", Checkpoint{}), context.Canceled)
	})
}

type failingRepo struct{ MemoryCheckpointRepo }

func (*failingRepo) Load(context.Context, string) (Checkpoint, bool, error) {
	return Checkpoint{}, false, errors.New("backend down")
}

func TestCheckpointRespawn(t *testing.T) {
	ctx := context.Background()
	safe := vec.Vec2{X: 280, Y: 135}
	resolve := func(id physics.ActorID) (string, bool) {
		if id == 1 {
			return "player-1", true
		}
		return "", false
	}

	t.Run("без чекпоинта безопасная точка", func(t *testing.T) {
		rp := NewCheckpointRespawn(NewMemoryCheckpointRepo(), resolve, safe, 0)
		defer rp.Close()

		p, ok := rp.RespawnPoint(1)
		assert.True(t, ok)
		assert.Equal(t, safe, p)
	})

	t.Run("прогрев кэша", func(t *testing.T) {
		repo := NewMemoryCheckpointRepo()
		require.NoError(t, repo.Save(ctx, "player-1", Checkpoint{Position: vec.Vec2{X: 40, Y: 16}}))
		rp := NewCheckpointRespawn(repo, resolve, safe, 0)
		defer rp.Close()

		require.NoError(t, rp.Warm(ctx, "player-1"))
		p, ok := rp.RespawnPoint(1)
		assert.True(t, ok)
		assert.Equal(t, vec.Vec2{X: 40, Y: 16}, p)
	})

	t.Run("кадр не читает репозиторий", func(t *testing.T) {
		repo := NewMemoryCheckpointRepo()
		rp := NewCheckpointRespawn(repo, resolve, safe, 0)
		defer rp.Close()

		require.NoError(t, repo.Save(ctx, "player-1", Checkpoint{Position: vec.Vec2{X: 40, Y: 16}}))
		p, _ := rp.RespawnPoint(1)
		assert.Equal(t, safe, p, "без Warm в кэше ничего нет")
	})

	t.Run("Remember обновляет кэш сразу и пишет в фоне", func(t *testing.T) {
		repo := NewMemoryCheckpointRepo()
		rp := NewCheckpointRespawn(repo, resolve, safe, 0)

		require.NoError(t, rp.Remember("player-1", Checkpoint{Level: "room", Position: vec.Vec2{X: 7, Y: 9}}))
		p, ok := rp.RespawnPoint(1)
		assert.True(t, ok)
		assert.Equal(t, vec.Vec2{X: 7, Y: 9}, p)

		rp.Close()
		cp, found, err := repo.Load(ctx, "player-1")
		require.NoError(t, err)
		require.True(t, found, "Close дописывает очередь")
		assert.Equal(t, "room", cp.Level)

		assert.ErrorIs(t, rp.Remember("player-1", Checkpoint{}), ErrCheckpointWriterClosed)
		rp.Close()
	})

	t.Run("пустой ключ", func(t *testing.T) {
		rp := NewCheckpointRespawn(NewMemoryCheckpointRepo(), resolve, safe, 0)
		defer rp.Close()
		assert.Error(t, rp.Remember("", Checkpoint{}))
	})

	t.Run("актор без слота", func(t *testing.T) {
		rp := NewCheckpointRespawn(NewMemoryCheckpointRepo(), resolve, safe, 0)
		defer rp.Close()
		require.NoError(t, rp.Remember("player-1", Checkpoint{Position: vec.Vec2{X: 1, Y: 1}}))

		p, _ := rp.RespawnPoint(7)
		assert.Equal(t, safe, p)
	})

	t.Run("ошибка бэкенда", func(t *testing.T) {
		broken := NewCheckpointRespawn(&failingRepo{}, resolve, safe, time.Millisecond)
		defer broken.Close()

		assert.Error(t, broken.Warm(ctx, "player-1"))
		p, ok := broken.RespawnPoint(1)
		assert.True(t, ok)
		assert.Equal(t, safe, p)
	})
}
