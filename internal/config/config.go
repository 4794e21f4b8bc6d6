package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации симуляции.
// Все числовые параметры копируются в сущности при создании и ядром не меняются.
type Config struct {
	Physics   PhysicsConfig   `yaml:"physics"`
	Player    PlayerConfig    `yaml:"player"`
	Platforms PlatformsConfig `yaml:"platforms"`
	Level     LevelConfig     `yaml:"level"`
	Server    ServerConfig    `yaml:"server"`
	EventBus  EventBusConfig  `yaml:"eventbus"`
	Storage   StorageConfig   `yaml:"storage"`
	Replay    ReplayConfig    `yaml:"replay"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// Point целочисленная точка в конфиге
type Point struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

type PhysicsConfig struct {
	FrameRate       int   `yaml:"frame_rate"`
	StepLimit       int   `yaml:"step_limit"`
	SquishFallback  Point `yaml:"squish_fallback"`
	SpatialCellSize int   `yaml:"spatial_cell_size"`
}

// PlayerConfig числовые параметры игрока (px, px/s, кадры)
type PlayerConfig struct {
	Gravity      float64 `yaml:"gravity"`
	MaxFall      float64 `yaml:"max_fall"`
	MaxSlide     float64 `yaml:"max_slide"`
	JumpVelocity float64 `yaml:"jump_velocity"`

	XAcceleration     float64 `yaml:"x_acceleration"`
	XMaxSpeed         float64 `yaml:"x_max_speed"`
	XStopAcceleration float64 `yaml:"x_stop_acceleration"`

	FastDecreaseMultiplier float64 `yaml:"fast_decrease_multiplier"`
	JumpStartFastDecrease  float64 `yaml:"jump_start_fast_decrease"`
	FastFallMultiplier     float64 `yaml:"fast_fall_multiplier"`
	FastFallStart          float64 `yaml:"fast_fall_start"`
	FastFallEnd            float64 `yaml:"fast_fall_end"`

	WallJumpOver        float64 `yaml:"wall_jump_over"`
	WallJumpKeepYFrames int     `yaml:"wall_jump_keep_y_frames"`

	JumpBufferFrames   int `yaml:"jump_buffer_frames"`
	FacingBufferFrames int `yaml:"facing_buffer_frames"`
	CoyoteFrames       int `yaml:"coyote_frames"`
	WallJumpTolerance  int `yaml:"wall_jump_tolerance"`

	CornerCorrection     int `yaml:"corner_correction"`
	HoleCorrection       int `yaml:"hole_correction"`
	SideSquishCorrection int `yaml:"side_squish_correction"`

	GloveSpeed             float64 `yaml:"glove_speed"`
	GloveLengthAxis        int     `yaml:"glove_length_axis"`
	GloveLengthDiagonal    int     `yaml:"glove_length_diagonal"`
	GloveBandWidth         int     `yaml:"glove_band_width"`
	GloveAxisTolerance     int     `yaml:"glove_axis_tolerance"`
	GloveDiagonalTolerance int     `yaml:"glove_diagonal_tolerance"`
	GloveFreezeFrames      int     `yaml:"glove_freeze_frames"`
	GloveBufferFrames      int     `yaml:"glove_buffer_frames"`
	GloveBreakDamping      float64 `yaml:"glove_break_damping"`

	InertiaMaxStoredFrames int `yaml:"inertia_max_stored_frames"`

	HangTravelRadius  int     `yaml:"hang_travel_radius"`
	HangTravelSpeed   float64 `yaml:"hang_travel_speed"`
	HangGraceFrames   int     `yaml:"hang_grace_frames"`
	HangLaunchDamping float64 `yaml:"hang_launch_damping"`
}

type PlatformsConfig struct {
	SpringLaunchVelocity float64 `yaml:"spring_launch_velocity"`
	SpringLaunchOffset   int     `yaml:"spring_launch_offset"`
	SpringForceSeconds   float64 `yaml:"spring_force_seconds"`
}

// LevelConfig задаёт YAML уровня или сид генератора
type LevelConfig struct {
	Path  string `yaml:"path"`
	Seed  int64  `yaml:"seed"`
	Width int    `yaml:"width"`
}

type ServerConfig struct {
	RESTPort    int `yaml:"rest_port"`
	MetricsPort int `yaml:"metrics_port"`
}

type EventBusConfig struct {
	URL       string `yaml:"url"`
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
	Buffer    int    `yaml:"buffer"`
}

// StorageConfig выбирает бэкенд чекпоинтов: memory | redis | maria | mongo
type StorageConfig struct {
	Backend    string `yaml:"backend"`
	RedisAddr  string `yaml:"redis_addr"`
	MariaDSN   string `yaml:"maria_dsn"`
	MongoURI   string `yaml:"mongo_uri"`
	MongoDB    string `yaml:"mongo_database"`
	TimeoutMs  int    `yaml:"timeout_ms"`
	PlayerSlot string `yaml:"player_slot"`
}

type ReplayConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

type TelemetryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Service string `yaml:"service"`
}

type LoggingConfig struct {
	ConsoleLevel string `yaml:"console_level"`
	FileLevel    string `yaml:"file_level"`
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		Physics: PhysicsConfig{
			FrameRate:       60,
			StepLimit:       50,
			SquishFallback:  Point{X: 280, Y: 135},
			SpatialCellSize: 32,
		},
		Player: DefaultPlayer(),
		Platforms: PlatformsConfig{
			SpringLaunchVelocity: 180,
			SpringLaunchOffset:   4,
			SpringForceSeconds:   1,
		},
		Level: LevelConfig{Seed: 1, Width: 320},
		EventBus: EventBusConfig{
			Stream:    "PLATFORMER",
			Retention: 24,
			Buffer:    1024,
		},
		Storage: StorageConfig{
			Backend:    "memory",
			RedisAddr:  "localhost:6379",
			MongoURI:   "mongodb://localhost:27017",
			MongoDB:    "platformer",
			TimeoutMs:  200,
			PlayerSlot: "player-1",
		},
		Replay:    ReplayConfig{Dir: "data/replays"},
		Telemetry: TelemetryConfig{Service: "pixel-platformer"},
		Logging:   LoggingConfig{ConsoleLevel: "INFO", FileLevel: "DEBUG"},
	}
}

// DefaultPlayer возвращает параметры игрока по умолчанию
func DefaultPlayer() PlayerConfig {
	return PlayerConfig{
		Gravity:      900,
		MaxFall:      160,
		MaxSlide:     40,
		JumpVelocity: 105,

		XAcceleration:     1000,
		XMaxSpeed:         90,
		XStopAcceleration: 400,

		FastDecreaseMultiplier: 2,
		JumpStartFastDecrease:  40,
		FastFallMultiplier:     0.5,
		FastFallStart:          40,
		FastFallEnd:            -40,

		WallJumpOver:        40,
		WallJumpKeepYFrames: 6,

		JumpBufferFrames:   6,
		FacingBufferFrames: 10,
		CoyoteFrames:       5,
		WallJumpTolerance:  2,

		CornerCorrection:     3,
		HoleCorrection:       2,
		SideSquishCorrection: 6,

		GloveSpeed:             240,
		GloveLengthAxis:        48,
		GloveLengthDiagonal:    32,
		GloveBandWidth:         4,
		GloveAxisTolerance:     2,
		GloveDiagonalTolerance: 1,
		GloveFreezeFrames:      3,
		GloveBufferFrames:      2,
		GloveBreakDamping:      0.5,

		InertiaMaxStoredFrames: 10,

		HangTravelRadius:  8,
		HangTravelSpeed:   60,
		HangGraceFrames:   6,
		HangLaunchDamping: 0.6,
	}
}

// Validate проверяет параметры, которые ядро не может скорректировать само
func (c *Config) Validate() error {
	if c.Physics.FrameRate != 60 {
		return fmt.Errorf("physics.frame_rate должен быть 60, получено %d", c.Physics.FrameRate)
	}
	if c.Physics.StepLimit <= 1 {
		return fmt.Errorf("physics.step_limit должен быть > 1, получено %d", c.Physics.StepLimit)
	}
	p := c.Player
	if p.Gravity <= 0 || p.JumpVelocity <= 0 || p.XMaxSpeed <= 0 {
		return fmt.Errorf("player: gravity, jump_velocity и x_max_speed должны быть > 0")
	}
	if p.GloveLengthAxis <= 0 || p.GloveLengthDiagonal <= 0 || p.GloveBandWidth <= 0 {
		return fmt.Errorf("player: длины и ширина захвата должны быть > 0")
	}
	switch c.Storage.Backend {
	case "", "memory", "redis", "maria", "mongo":
	default:
		return fmt.Errorf("storage.backend: неизвестный бэкенд %q", c.Storage.Backend)
	}
	return nil
}

// StorageTimeout возвращает таймаут операций хранилища
func (s *StorageConfig) StorageTimeout() time.Duration {
	if s.TimeoutMs <= 0 {
		return 200 * time.Millisecond
	}
	return time.Duration(s.TimeoutMs) * time.Millisecond
}

// GetRESTPort возвращает REST API порт с поддержкой fallback значений
func (s *ServerConfig) GetRESTPort() int {
	return getPortWithEnvFallback(s.RESTPort, "PLATFORMER_REST_PORT", 8088)
}

// GetMetricsPort возвращает Prometheus метрики порт с поддержкой fallback значений
func (s *ServerConfig) GetMetricsPort() int {
	return getPortWithEnvFallback(s.MetricsPort, "PLATFORMER_METRICS_PORT", 2112)
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	if configPort > 0 {
		return configPort
	}

	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	return defaultPort
}

// Load читает YAML файл поверх значений по умолчанию.
// Если path == "", пробует ENV PLATFORMER_CONFIG, иначе возвращает Default().
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv("PLATFORMER_CONFIG")
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("чтение конфига %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("разбор конфига %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
