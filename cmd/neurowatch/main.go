package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/neurowatch-systems/neurowatch/internal/config"
	"github.com/neurowatch-systems/neurowatch/internal/correlation"
	"github.com/neurowatch-systems/neurowatch/internal/handlers"
	"github.com/neurowatch-systems/neurowatch/internal/logging"
	"github.com/neurowatch-systems/neurowatch/internal/middleware"
	"github.com/neurowatch-systems/neurowatch/internal/notifier"
	"github.com/neurowatch-systems/neurowatch/internal/ratelimit"
	"github.com/neurowatch-systems/neurowatch/internal/repository"
	"github.com/neurowatch-systems/neurowatch/internal/server"
	"github.com/neurowatch-systems/neurowatch/internal/service"
	"github.com/neurowatch-systems/neurowatch/pkg/tokens"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	useMemory := flag.Bool("memory", false, "use in-memory storage (development only)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logging.New(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format)
	logging.SetDefault(logger)

	var repo repository.Repository
	if *useMemory {
		logger.Warn("using in-memory storage; data is lost on restart")
		repo = repository.NewInMemoryRepository()
	} else {
		connString := cfg.Database.Postgres.ConnString()

		logger.Info("running database migrations")
		m, err := migrate.New("file://migrations", connString)
		if err != nil {
			log.Fatalf("Failed to initialize migrations: %v", err)
		}
		if err := m.Up(); err != nil && err != migrate.ErrNoChange {
			log.Fatalf("Failed to run migrations: %v", err)
		}

		pgRepo, err := repository.NewPostgresRepository(context.Background(), connString)
		if err != nil {
			log.Fatalf("Failed to connect to PostgreSQL: %v", err)
		}
		defer pgRepo.Close()
		repo = pgRepo
	}

	if cfg.Auth.AccessSecret == "" {
		log.Fatal("auth.access_secret must be set (NEUROWATCH_AUTH_ACCESS_SECRET)")
	}
	tokenGen := tokens.NewTokenGenerator(cfg.Auth.AccessSecret, cfg.Auth.AccessTTL)

	engine := correlation.NewEngine(
		correlation.NewRepositoryDirectory(repo),
		repo,
		repo,
		correlation.Options{
			Window:       cfg.Correlation.Window,
			Quorum:       cfg.Correlation.Quorum,
			StoreTimeout: cfg.Correlation.StoreTimeout,
			Logger:       logger,
		},
	)

	var publisher notifier.Publisher
	if cfg.NATS.Enabled {
		natsCfg := notifier.DefaultConfig()
		natsCfg.URL = cfg.NATS.URL
		p, err := notifier.NewNATSPublisher(natsCfg)
		if err != nil {
			log.Fatalf("Failed to connect to NATS: %v", err)
		}
		defer p.Close()
		publisher = p
	}

	limiter, err := ratelimit.NewRedisRateLimiter(
		cfg.Redis.URL, cfg.Redis.RateLimit, cfg.Redis.RateWindow, !cfg.Redis.Enabled)
	if err != nil {
		log.Fatalf("Failed to initialize rate limiter: %v", err)
	}
	defer limiter.Close()

	authService := service.NewAuthService(repo, tokenGen)
	deviceService := service.NewDeviceService(repo)
	ingestService := service.NewIngestService(repo, engine, publisher, limiter, logger)
	eventService := service.NewEventService(repo)

	router := server.NewRouter(server.RouterConfig{
		AuthHandler:      handlers.NewAuthHandler(authService),
		DeviceHandler:    handlers.NewDeviceHandler(deviceService),
		TelemetryHandler: handlers.NewTelemetryHandler(ingestService),
		EventHandler:     handlers.NewEventHandler(eventService),
		AuthMiddleware:   middleware.NewAuthMiddleware(authService),
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("neurowatch listening",
			"addr", srv.Addr,
			"window", cfg.Correlation.Window.String(),
			"quorum", cfg.Correlation.Quorum,
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.WriteTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("server stopped gracefully")
}
