package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/smartfarmer/backend/internal/config"
	"github.com/smartfarmer/backend/internal/delivery/http"
	"github.com/smartfarmer/backend/internal/domain"
	"github.com/smartfarmer/backend/internal/observability"
	"github.com/smartfarmer/backend/internal/repository/postgres"
	"github.com/smartfarmer/backend/internal/service"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	zl, err := observability.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Dependency Injection: Repositories
	dataRepo, closeRepo := openRepository(ctx, cfg, zl)
	defer closeRepo()

	// Dependency Injection: Services
	sim := service.NewSeededSimulator(cfg.RandomSeed, clock)
	weatherSvc := service.NewWeatherStack(cfg, clock, metrics, zl.Named("weather"))
	yieldSvc := service.NewYieldService(cfg, sim, metrics, zl.Named("yield"))

	provider, err := service.NewAdvisoryProvider(ctx, cfg)
	if err != nil {
		zl.Warn("advisory provider disabled", zap.Error(err))
		provider = nil
	}
	advisorySvc := service.NewAdvisoryService(provider, clock, metrics, zl.Named("advisory"))

	orchestrator := service.NewOrchestrator(cfg, weatherSvc, yieldSvc, advisorySvc, sim, dataRepo, clock, metrics, zl.Named("facade"))
	refresher := service.NewRefresher(orchestrator, cfg.RefreshInterval, domain.ParseLanguage(cfg.DefaultLanguage), clock, metrics, zl.Named("refresher"))
	refresher.Start(ctx, cfg.DefaultDistrict)

	zl.Info("services configured",
		zap.Bool("weather", cfg.WeatherEnabled()),
		zap.Bool("ml", cfg.MLEnabled()),
		zap.Bool("advisory", cfg.AdvisoryEnabled()),
	)

	// Fiber App
	app := fiber.New(fiber.Config{
		AppName:      "Smart Farmer API v1.0",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 2*cfg.RemoteTimeout + 5*time.Second,
		ErrorHandler: http.ErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization," + http.SessionHeader,
	}))

	// Routes
	http.SetupRoutes(app, http.NewHandler(orchestrator, refresher, dataRepo))

	// Graceful shutdown
	go func() {
		zl.Info("server starting", zap.String("port", cfg.Port))
		if err := app.Listen(":" + cfg.Port); err != nil {
			zl.Fatal("server error", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zl.Info("shutting down server")
	if err := app.ShutdownWithTimeout(cfg.ShutdownTimeout); err != nil {
		zl.Warn("server forced to shutdown", zap.Error(err))
	}
	stop()
	refresher.Stop()
	orchestrator.WaitBackground()
	zl.Info("server exited gracefully")
}

// openRepository connects to PostgreSQL when configured and falls back to the
// in-memory repository otherwise.
func openRepository(ctx context.Context, cfg *config.Config, zl *zap.Logger) (service.DataRepository, func()) {
	if cfg.DatabaseURL == "" {
		zl.Info("no DATABASE_URL, using in-memory storage")
		return postgres.NewMockRepository(), func() {}
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(connectCtx, cfg.DatabaseURL)
	if err == nil {
		err = pool.Ping(connectCtx)
	}
	if err != nil {
		zl.Warn("could not connect to database, using in-memory storage", zap.Error(err))
		if pool != nil {
			pool.Close()
		}
		return postgres.NewMockRepository(), func() {}
	}

	repo := postgres.NewPostgresRepository(pool)
	if err := repo.EnsureSchema(connectCtx); err != nil {
		zl.Warn("schema setup failed", zap.Error(err))
	}
	zl.Info("connected to PostgreSQL")
	return repo, pool.Close
}
