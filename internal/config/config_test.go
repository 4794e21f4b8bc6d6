package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutPath(t *testing.T) {
	t.Setenv("PLATFORMER_CONFIG", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.Physics.FrameRate)
	assert.Equal(t, Point{X: 280, Y: 135}, cfg.Physics.SquishFallback)
	assert.Equal(t, 6, cfg.Player.JumpBufferFrames)
	assert.NoError(t, cfg.Validate())
}

func TestLoadOverlaysYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	data := []byte(`
physics:
  squish_fallback: {x: 16, y: 32}
player:
  x_max_speed: 100
  coyote_frames: 8
storage:
  backend: redis
`)
	require.NoError(t, os.WriteFile(path, data, 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, Point{X: 16, Y: 32}, cfg.Physics.SquishFallback)
	assert.Equal(t, 100.0, cfg.Player.XMaxSpeed)
	assert.Equal(t, 8, cfg.Player.CoyoteFrames)
	assert.Equal(t, 900.0, cfg.Player.Gravity, "незаданные поля остаются по умолчанию")
	assert.Equal(t, "redis", cfg.Storage.Backend)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Default()
	cfg.Physics.FrameRate = 30
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Storage.Backend = "cassandra"
	assert.Error(t, cfg.Validate())
}

func TestPortFallback(t *testing.T) {
	s := ServerConfig{}
	t.Setenv("PLATFORMER_REST_PORT", "9001")
	assert.Equal(t, 9001, s.GetRESTPort())

	s.RESTPort = 7000
	assert.Equal(t, 7000, s.GetRESTPort())
	assert.Equal(t, 2112, (&ServerConfig{}).GetMetricsPort())
}
