package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/mmo-portals/internal/api"
	"github.com/annel0/mmo-portals/internal/config"
	"github.com/annel0/mmo-portals/internal/economy"
	"github.com/annel0/mmo-portals/internal/eventbus"
	"github.com/annel0/mmo-portals/internal/fill"
	"github.com/annel0/mmo-portals/internal/game"
	"github.com/annel0/mmo-portals/internal/listener"
	"github.com/annel0/mmo-portals/internal/logging"
	"github.com/annel0/mmo-portals/internal/observability"
	"github.com/annel0/mmo-portals/internal/portal"
	"github.com/annel0/mmo-portals/internal/session"
	"github.com/annel0/mmo-portals/internal/storage"
	"github.com/annel0/mmo-portals/internal/teleport"
	"github.com/annel0/mmo-portals/internal/vec"
	"github.com/annel0/mmo-portals/internal/world"
	"github.com/annel0/mmo-portals/internal/world/block"
)

func main() {
	// Инициализируем систему логирования
	if err := logging.InitDefaultLogger("server"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()

	logging.Info("🌀 Запуск Portal Server...")

	// === КОНФИГУРАЦИЯ ===
	cfg, err := config.Load("")
	if err != nil {
		logging.Error("❌ Ошибка чтения конфигурации: %v", err)
		log.Fatalf("❌ Ошибка чтения конфигурации: %v", err)
	}
	logging.Info("📡 Конфигурация: backend=%s, bucket_filling=%v, enforce_access=%v",
		cfg.Storage.PortalBackend, cfg.Portals.BucketFilling, cfg.Portals.EnforcePortalAccess)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// OpenTelemetry включается явно, чтобы не зависеть от коллектора в dev-режиме
	if os.Getenv("PORTALS_OTEL") == "1" {
		shutdown, err := observability.InitTelemetry(ctx, "portal-server")
		if err != nil {
			logging.Error("Ошибка инициализации OpenTelemetry: %v", err)
		} else {
			defer shutdown(context.Background())
		}
	}

	// === МИРЫ ===
	worlds := world.NewManager()
	worlds.CreateWorld("world")

	// === РЕПОЗИТОРИЙ ПОРТАЛОВ ===
	var repo portal.Repo
	var closers []func()

	switch cfg.Storage.PortalBackend {
	case "maria":
		mariaRepo, err := portal.NewMariaRepo(cfg.Storage.MariaDSN)
		if err != nil {
			logging.Error("❌ Ошибка подключения к MariaDB: %v", err)
			log.Fatalf("❌ Ошибка подключения к MariaDB: %v", err)
		}
		closers = append(closers, func() { mariaRepo.Close() })
		repo = mariaRepo
	case "mongo":
		mongoRepo, err := portal.NewMongoRepo(portal.MongoConfig{
			URI:        cfg.Storage.MongoURI,
			Database:   "portals",
			Collection: "portals",
		})
		if err != nil {
			logging.Error("❌ Ошибка подключения к MongoDB: %v", err)
			log.Fatalf("❌ Ошибка подключения к MongoDB: %v", err)
		}
		closers = append(closers, func() { mongoRepo.Close() })
		repo = mongoRepo
	default:
		repo = portal.NewMemoryRepo()
	}

	portals, err := portal.NewManager(ctx, repo, cfg.Portals.EnforcePortalAccess)
	if err != nil {
		logging.Error("❌ Ошибка загрузки порталов: %v", err)
		log.Fatalf("❌ Ошибка загрузки порталов: %v", err)
	}

	// Пустой реестр получает демонстрационный портал, чтобы сервер
	// было с чем потрогать сразу после запуска.
	if portals.Count() == 0 {
		seedDemoPortal(ctx, portals)
	}

	// === ШИНА АУДИТА ===
	var bus eventbus.EventBus
	if cfg.EventBus.URL != "" {
		jsBus, err := eventbus.NewJetStreamBus(cfg.EventBus.URL, cfg.EventBus.Stream,
			time.Duration(cfg.EventBus.Retention)*time.Hour)
		if err != nil {
			logging.Error("❌ Ошибка подключения к NATS: %v", err)
			log.Fatalf("❌ Ошибка подключения к NATS: %v", err)
		}
		closers = append(closers, jsBus.Close)
		bus = jsBus
	} else {
		bus = eventbus.NewMemoryBus(1024)
	}
	eventbus.Init(bus)

	metrics := eventbus.NewMetricsExporter(bus)
	metrics.StartHTTP(fmt.Sprintf(":%d", cfg.Server.GetMetricsPort()))
	closers = append(closers, metrics.Stop)

	// === ХРАНИЛИЩЕ ПОЗИЦИЙ ===
	var positions storage.PositionRepo
	if cfg.Storage.RedisAddr != "" {
		redisCfg := storage.DefaultRedisConfig()
		redisCfg.Addr = cfg.Storage.RedisAddr
		redisRepo, err := storage.NewRedisPositionRepo(redisCfg)
		if err != nil {
			logging.Error("❌ Ошибка подключения к Redis: %v", err)
			log.Fatalf("❌ Ошибка подключения к Redis: %v", err)
		}
		closers = append(closers, func() { redisRepo.Close() })
		positions = redisRepo
	} else {
		positions = storage.NewMemoryPositionRepo()
	}

	// === ИГРОВАЯ ЛОГИКА ===
	sessions := session.NewStore()
	ledger := economy.NewMemoryLedger()
	gate := economy.NewGate(ledger, cfg.Portals.EnforcePortalAccess)
	filler := fill.NewRegionFiller(worlds)

	loop := game.NewLoop(0)
	go loop.Run(ctx)

	relocator := teleport.NewSafeRelocator(worlds)
	teleporter := teleport.NewOrchestrator(relocator, sessions, positions, loop)

	handlers := listener.New(&cfg.Portals, worlds, portals, filler, sessions, gate, teleporter)
	_ = handlers // подписка на события среды происходит на стороне хоста

	// === REST API ===
	rest := api.NewRestServer(api.Config{
		Port:     fmt.Sprintf(":%d", cfg.Server.GetRESTPort()),
		Portals:  portals,
		Sessions: sessions,
	})
	rest.Start()

	logging.Info("✅ Все сервисы запущены")
	logging.Info("   🌀 Порталов в реестре: %d", portals.Count())
	logging.Info("   🌐 REST API: http://localhost:%d", cfg.Server.GetRESTPort())
	logging.Info("   📈 Метрики: http://localhost:%d/metrics", cfg.Server.GetMetricsPort())

	// Канал для получения сигналов ОС
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logging.Info("📡 Получен сигнал %v, завершение работы...", sig)

	// === GRACEFUL SHUTDOWN ===
	if err := rest.Stop(); err != nil {
		logging.Error("❌ Ошибка остановки REST API: %v", err)
	}
	cancel() // останавливает игровой цикл, дорабатывая очередь задач

	for i := len(closers) - 1; i >= 0; i-- {
		closers[i]()
	}

	logging.Info("👋 Сервер успешно остановлен")
}

// seedDemoPortal добавляет портал "demo" в пустой реестр
func seedDemoPortal(ctx context.Context, portals *portal.Manager) {
	def := portal.Definition{
		Name:          "demo",
		Region:        portal.NewRegion("world", vec.Vec3{X: 10, Y: 64, Z: 10}, vec.Vec3{X: 11, Y: 66, Z: 10}),
		FrameMaterial: block.ObsidianID,
		Destination: portal.Destination{
			Name: "spawn",
			Loc:  world.NewLocation("world", 0, 65, 0),
			Safe: true,
		},
	}
	if err := portals.Add(ctx, def); err != nil {
		logging.Warn("Не удалось добавить демонстрационный портал: %v", err)
		return
	}
	logging.Info("🌀 Добавлен демонстрационный портал '%s'", def.Name)
}
