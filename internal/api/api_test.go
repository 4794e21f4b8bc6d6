package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/pixel-platformer/internal/config"
	"github.com/annel0/pixel-platformer/internal/level"
	"github.com/annel0/pixel-platformer/internal/storage"
)

type fixture struct {
	server *DebugServer
	host   *SceneHost
	scene  *level.Scene
}

func newFixture(t *testing.T, repo storage.CheckpointRepo) *fixture {
	t.Helper()
	scene, err := level.Build(level.Generate(4, 128), config.Default(), level.Options{Checkpoints: repo})
	require.NoError(t, err)
	t.Cleanup(scene.Close)

	host := NewSceneHost(4)
	return &fixture{
		server: NewDebugServer(Config{Host: host}),
		host:   host,
		scene:  scene,
	}
}

// simulate крутит кадры и команды, как цикл симуляции
func (f *fixture) simulate(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Millisecond):
				f.scene.Step(0)
				f.host.Drain(f.scene)
				f.host.Publish(f.scene.Snapshot())
			}
		}
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func (f *fixture) do(method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) GenericResponse {
	t.Helper()
	var resp GenericResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHealth(t *testing.T) {
	f := newFixture(t, nil)
	w := f.do(http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestSceneEndpoint(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(http.MethodGet, "/api/scene")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code, "до первого кадра снапшота нет")

	f.scene.Step(0)
	f.host.Publish(f.scene.Snapshot())

	w = f.do(http.MethodGet, "/api/scene")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.True(t, resp.Success)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "seed-4", data["level"])
	assert.Equal(t, float64(1), data["frame"])
}

func TestCheckpointEndpoint(t *testing.T) {
	repo := storage.NewMemoryCheckpointRepo()
	f := newFixture(t, repo)
	f.simulate(t)

	require.Eventually(t, func() bool {
		_, ok := f.host.Latest()
		return ok
	}, time.Second, time.Millisecond)

	w := f.do(http.MethodPost, "/api/checkpoint")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Eventually(t, func() bool { return repo.Count() == 1 }, time.Second, time.Millisecond,
		"чекпоинт записывается в фоне")
}

func TestCheckpointWithoutStore(t *testing.T) {
	f := newFixture(t, nil)
	f.simulate(t)
	require.Eventually(t, func() bool {
		_, ok := f.host.Latest()
		return ok
	}, time.Second, time.Millisecond)

	w := f.do(http.MethodPost, "/api/checkpoint")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.False(t, decode(t, w).Success)
}

func TestServerInfo(t *testing.T) {
	f := newFixture(t, nil)
	w := f.do(http.MethodGet, "/api/server")
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w).Data.(map[string]interface{})
	assert.Equal(t, Version, data["version"])
	assert.Contains(t, data, "uptime")
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, nil)
	f.do(http.MethodGet, "/health")
	w := f.do(http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "debug_api_http_request_duration_seconds")
}

func TestSceneHostBusy(t *testing.T) {
	host := NewSceneHost(1)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	// первая команда занимает очередь и ждёт до таймаута
	err := host.Do(ctx, func(*level.Scene) error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	err = host.Do(context.Background(), func(*level.Scene) error { return nil })
	assert.ErrorIs(t, err, ErrHostBusy)

	assert.Equal(t, 1, host.Drain(nil))
}

func TestFormatUptime(t *testing.T) {
	cases := map[time.Duration]string{
		5 * time.Second:               "5с",
		2*time.Minute + 3*time.Second: "2м 3с",
		time.Hour + time.Second:       "1ч 0м 1с",
		49*time.Hour + 30*time.Minute: "2д 1ч 30м 0с",
	}
	for d, want := range cases {
		assert.Equal(t, want, formatUptime(d))
	}
}
