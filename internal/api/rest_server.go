package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/annel0/pixel-platformer/internal/eventbus"
	"github.com/annel0/pixel-platformer/internal/level"
	"github.com/annel0/pixel-platformer/internal/logging"
	"github.com/annel0/pixel-platformer/internal/middleware"
	"github.com/annel0/pixel-platformer/internal/storage"
)

// Version версия отладочного API
const Version = "v0.1.0"

// DebugServer отладочный HTTP API симуляции
type DebugServer struct {
	router  *gin.Engine
	server  *http.Server
	host    *SceneHost
	port    string
	metrics *ServerMetrics
	logger  *logging.Logger
}

// Config содержит конфигурацию для отладочного сервера
type Config struct {
	Port     string               // порт для запуска сервера, например ":8088"
	Host     *SceneHost           // мост к горутине симуляции
	Registry *prometheus.Registry // регистр метрик для /metrics; nil — новый
	Service  string               // имя сервиса для otelgin и метрик
}

// NewDebugServer создает отладочный сервер
func NewDebugServer(config Config) *DebugServer {
	if config.Port == "" {
		config.Port = ":8088"
	}
	if config.Host == nil {
		config.Host = NewSceneHost(0)
	}
	if config.Registry == nil {
		config.Registry = prometheus.NewRegistry()
	}
	if config.Service == "" {
		config.Service = "debug_api"
	}

	// Устанавливаем режим релиза для gin
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()        // без стандартного logger/recovery
	router.Use(gin.Recovery()) // добавим только recovery

	// === Observability middleware ===
	loggerMw := middleware.NewRequestLogger()
	router.Use(loggerMw.Handler())

	router.Use(otelgin.Middleware(config.Service))

	promMw := middleware.NewPrometheusMiddleware(config.Service, config.Registry)
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router, config.Registry)

	ds := &DebugServer{
		router:  router,
		host:    config.Host,
		port:    config.Port,
		metrics: NewServerMetrics(),
		logger:  logging.GetComponentLogger("http"),
	}
	ds.server = &http.Server{
		Addr:              config.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	ds.setupRoutes()
	return ds
}

// setupRoutes настраивает маршруты
func (ds *DebugServer) setupRoutes() {
	ds.router.Use(corsMiddleware())

	api := ds.router.Group("/api")
	{
		api.GET("/server", ds.handleServerInfo)

		scene := api.Group("/")
		scene.Use(ds.requireSnapshot())
		{
			scene.GET("/scene", ds.handleScene)
			scene.POST("/checkpoint", ds.handleCheckpoint)
		}
	}

	// Health check
	ds.router.GET("/health", ds.handleHealth)
}

// Handler для тестов и встраивания
func (ds *DebugServer) Handler() http.Handler { return ds.router }

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// handleScene возвращает последний снапшот сцены
func (ds *DebugServer) handleScene(c *gin.Context) {
	snap, _ := ds.host.Latest()
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Снапшот сцены",
		Data:    snap,
	})
}

// handleCheckpoint сохраняет текущую позицию игрока между кадрами симуляции
func (ds *DebugServer) handleCheckpoint(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	var frame uint64
	err := ds.host.Do(ctx, func(s *level.Scene) error {
		frame = s.Frame()
		return s.SaveCheckpoint(ctx)
	})
	switch {
	case err == nil:
		c.JSON(http.StatusOK, GenericResponse{
			Success: true,
			Message: "Чекпоинт сохранён",
			Data:    gin.H{"frame": frame},
		})
	case errors.Is(err, level.ErrNoCheckpoints):
		c.JSON(http.StatusConflict, GenericResponse{Success: false, Message: "Хранилище чекпоинтов не настроено"})
	case errors.Is(err, ErrHostBusy), errors.Is(err, context.DeadlineExceeded), errors.Is(err, storage.ErrCheckpointWriterBusy):
		c.JSON(http.StatusServiceUnavailable, GenericResponse{Success: false, Message: "Симуляция не ответила"})
	default:
		ds.logger.Warn("⚠️ Чекпоинт по запросу не сохранён: %v", err)
		c.JSON(http.StatusInternalServerError, GenericResponse{Success: false, Message: "Внутренняя ошибка сервера"})
	}
}

// handleServerInfo возвращает информацию о сервере
func (ds *DebugServer) handleServerInfo(c *gin.Context) {
	// Получаем реальные метрики
	memoryMB, _ := ds.metrics.GetMemoryUsage()
	cpuPercent, _ := ds.metrics.GetCPUUsage()

	info := map[string]interface{}{
		"version":     Version,
		"name":        "Pixel Platformer Simulation",
		"status":      "running",
		"uptime":      ds.metrics.GetUptime(),
		"memory_mb":   fmt.Sprintf("%.1f", memoryMB),
		"cpu_percent": fmt.Sprintf("%.1f", cpuPercent),
		"memory":      ds.metrics.GetDetailedMemoryStats(),
		"eventbus":    eventbus.GlobalStats(),
	}
	if snap, ok := ds.host.Latest(); ok {
		info["frame"] = snap.Frame
		info["level"] = snap.Level
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Информация о сервере",
		Data:    info,
	})
}

// handleHealth проверка состояния сервера
func (ds *DebugServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}

// Start запускает сервер; возвращает http.ErrServerClosed после Stop
func (ds *DebugServer) Start() error {
	ds.logger.Info("🌐 Отладочный API слушает %s", ds.port)
	return ds.server.ListenAndServe()
}

// Stop корректно останавливает сервер
func (ds *DebugServer) Stop(ctx context.Context) error {
	return ds.server.Shutdown(ctx)
}
