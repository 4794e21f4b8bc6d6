package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/annel0/pixel-platformer/internal/api"
	"github.com/annel0/pixel-platformer/internal/config"
	"github.com/annel0/pixel-platformer/internal/eventbus"
	"github.com/annel0/pixel-platformer/internal/input"
	"github.com/annel0/pixel-platformer/internal/level"
	"github.com/annel0/pixel-platformer/internal/logging"
	"github.com/annel0/pixel-platformer/internal/metrics"
	"github.com/annel0/pixel-platformer/internal/observability"
	"github.com/annel0/pixel-platformer/internal/player"
	"github.com/annel0/pixel-platformer/internal/replay"
	"github.com/annel0/pixel-platformer/internal/scheduler"
	"github.com/annel0/pixel-platformer/internal/storage"
)

// Снапшот для API публикуется раз в столько кадров
const snapshotEvery = 6

func main() {
	var (
		configPath = flag.String("config", "", "путь к YAML конфигу (или PLATFORMER_CONFIG)")
		scriptPath = flag.String("script", "", "сценарий ввода; без него играет автопилот")
		maxFrames  = flag.Int("frames", 0, "остановиться после N кадров (0 — до сигнала)")
	)
	flag.Parse()

	if err := logging.InitDefaultLogger("sim-server"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Error("❌ Ошибка загрузки конфига: %v", err)
		os.Exit(1)
	}
	logging.SetDefaultLevels(logging.ParseLevel(cfg.Logging.ConsoleLevel), logging.ParseLevel(cfg.Logging.FileLevel))
	logging.Info("🎮 Запуск симуляции платформера...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// === ТЕЛЕМЕТРИЯ ===
	if cfg.Telemetry.Enabled {
		shutdown, err := observability.InitTelemetry(ctx, cfg.Telemetry.Service)
		if err != nil {
			logging.Warn("⚠️ OpenTelemetry недоступен: %v", err)
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logging.Warn("⚠️ Ошибка остановки телеметрии: %v", err)
				}
			}()
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// === ХРАНИЛИЩЕ ЧЕКПОИНТОВ ===
	repo, err := storage.OpenCheckpointRepo(ctx, cfg.Storage)
	if err != nil {
		logging.Warn("⚠️ Бэкенд чекпоинтов %s недоступен (%v), используется память", cfg.Storage.Backend, err)
		repo = storage.NewMemoryCheckpointRepo()
	}
	defer repo.Close()

	// === ШИНА СОБЫТИЙ ===
	bus := openBus(cfg.EventBus)
	eventbus.Init(bus)
	defer bus.Close()
	if _, err := eventbus.StartLoggingListener(bus); err != nil {
		logging.Warn("⚠️ Логирование событий не подключено: %v", err)
	}
	exporter := eventbus.NewMetricsExporter(bus, reg)
	exporter.Start(time.Second)
	defer exporter.Stop()

	// === УРОВЕНЬ ===
	def, src, err := loadLevel(cfg.Level)
	if err != nil {
		logging.Error("❌ Ошибка загрузки уровня: %v", err)
		os.Exit(1)
	}

	collector := metrics.NewCollector(reg, nil)
	var scene *level.Scene
	publisher := eventbus.NewPublisher(bus, def.Name, func() uint64 { return scene.Frame() }, cfg.EventBus.Buffer)

	observers := scheduler.Observers{collector}
	var tracer *observability.FrameTracer
	if cfg.Telemetry.Enabled {
		tracer = observability.NewFrameTracer(cfg.Physics.FrameRate)
		observers = append(observers, tracer)
	}

	scene, err = level.Build(def, cfg, level.Options{
		Events:      player.MultiSink{publisher, collector},
		Diagnostics: collector,
		Observer:    observers,
		Checkpoints: repo,
	})
	if err != nil {
		logging.Error("❌ Ошибка сборки сцены: %v", err)
		os.Exit(1)
	}
	defer scene.Close()

	// === ЗАПИСЬ ПОВТОРА ===
	var recorder *replay.Recorder
	if cfg.Replay.Enabled {
		store, err := storage.OpenReplayStore(cfg.Replay.Dir)
		if err != nil {
			logging.Warn("⚠️ Хранилище повторов недоступно: %v", err)
		} else {
			defer store.Close()
			recorder, err = replay.NewRecorder(store, src)
			if err != nil {
				logging.Warn("⚠️ Запись повтора не начата: %v", err)
			} else {
				publisher.SetCorrelation(recorder.ID())
			}
		}
	}

	frames, err := openInput(*scriptPath, def.Seed)
	if err != nil {
		logging.Error("❌ Ошибка чтения сценария: %v", err)
		os.Exit(1)
	}

	// === ОТЛАДОЧНЫЙ API ===
	host := api.NewSceneHost(16)
	restPort := fmt.Sprintf(":%d", cfg.Server.GetRESTPort())
	server := api.NewDebugServer(api.Config{
		Port:     restPort,
		Host:     host,
		Registry: reg,
		Service:  cfg.Telemetry.Service,
	})
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("❌ Ошибка отладочного API: %v", err)
		}
	}()

	logging.Info("✅ Симуляция запущена: уровень %s, %d Гц", def.Name, cfg.Physics.FrameRate)
	logging.Info("   🌐 API: http://localhost%s/api/scene", restPort)
	logging.Info("   📈 Метрики: http://localhost%s/metrics", restPort)

	// === ЦИКЛ КАДРОВ ===
	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()
	step := func() {
		f := frames.Next()
		scene.Step(f)
		if recorder != nil {
			if err := recorder.Record(f); err != nil {
				logging.Warn("⚠️ Запись повтора остановлена: %v", err)
				recorder = nil
			}
		}
		host.Drain(scene)
		if scene.Frame()%snapshotEvery == 0 {
			host.Publish(scene.Snapshot())
		}
		if *maxFrames > 0 && scene.Frame() >= uint64(*maxFrames) {
			cancelRun()
		}
	}
	if err := scheduler.RunFixed(runCtx, scheduler.FrameDuration, step); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error("❌ Цикл кадров завершился: %v", err)
	}

	// === GRACEFUL SHUTDOWN ===
	logging.Info("📡 Завершение работы на кадре %d...", scene.Frame())
	if recorder != nil {
		meta, err := recorder.Close(scene.Checksum())
		if err != nil {
			logging.Error("❌ Ошибка закрытия повтора: %v", err)
		} else {
			logging.Info("🎬 Повтор %s: %d кадров", meta.ID, meta.Frames)
		}
	}
	if tracer != nil {
		tracer.Flush()
	}
	publisher.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		logging.Error("❌ Ошибка остановки API: %v", err)
	}
	logging.Info("👋 Симуляция остановлена")
}

// openBus подключает JetStream или откатывается на шину в памяти
func openBus(cfg config.EventBusConfig) eventbus.EventBus {
	if cfg.URL != "" {
		bus, err := eventbus.NewJetStreamBus(cfg.URL, cfg.Stream, time.Duration(cfg.Retention)*time.Hour)
		if err == nil {
			return bus
		}
		logging.Warn("⚠️ NATS недоступен (%v), используется шина в памяти", err)
	}
	return eventbus.NewMemoryBus(cfg.Buffer)
}

// loadLevel читает YAML уровня или генерирует его по сиду
func loadLevel(cfg config.LevelConfig) (*level.Definition, replay.Source, error) {
	if cfg.Path != "" {
		def, err := level.LoadDefinition(cfg.Path)
		if err != nil {
			return nil, replay.Source{}, err
		}
		return def, replay.Source{Level: def.Name, Path: cfg.Path, Seed: def.Seed}, nil
	}
	def := level.Generate(cfg.Seed, cfg.Width)
	return def, replay.Source{Level: def.Name, Seed: cfg.Seed, Width: cfg.Width}, nil
}

func openInput(path string, seed int64) (frameSource, error) {
	if path == "" {
		return newAutopilot(seed), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	script, err := input.ParseScript(f)
	if err != nil {
		return nil, err
	}
	if script.Len() == 0 {
		return nil, fmt.Errorf("сценарий %s пуст", path)
	}
	return loopingScript{script: script}, nil
}
