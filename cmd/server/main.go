package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"iplocator/internal/config"
	"iplocator/internal/events"
	"iplocator/internal/handlers"
	"iplocator/internal/logging"
	"iplocator/internal/repository"
	"iplocator/internal/services"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func Run(ctx context.Context) error {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	switch cfg.GeoProvider {
	case "ipapi", "maxmind", "":
	default:
		return fmt.Errorf("unknown geo provider %q", cfg.GeoProvider)
	}

	// 2. Setup Logger
	logger := logging.New(cfg, os.Stdout)
	slog.SetDefault(logger)

	// 3. Initialize Database
	db, err := repository.InitDB(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := repository.CloseDB(db); err != nil {
			logger.Error("Failed to close database", "error", err)
		}
	}()

	// 4. Run Migrations
	if repository.IsPostgres(cfg.DatabaseURL) {
		logger.Info("Running database migrations...")
		if err := repository.RunMigrations(cfg.DatabaseURL, ""); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	} else if err := repository.AutoMigrate(db); err != nil {
		return fmt.Errorf("auto migration failed: %w", err)
	}

	// 5. Initialize Redis
	var cache *repository.GeoCache
	if cfg.RedisURL != "" {
		rdb, err := repository.InitRedis(cfg.RedisURL, cfg.RedisPassword, 0)
		if err != nil {
			logger.Warn("Failed to connect to Redis, geo cache disabled", "error", err)
		} else {
			defer rdb.Close()
			cache = repository.NewGeoCache(rdb, logger)
		}
	}

	workers, workerCtx := errgroup.WithContext(ctx)

	// 6. Initialize Services
	var publisher events.Publisher = events.Noop{}
	if cfg.RabbitMQURL != "" {
		amqpPublisher := events.NewAMQPPublisher(cfg.RabbitMQURL, logger)
		publisher = amqpPublisher
		workers.Go(func() error { amqpPublisher.Start(workerCtx); return nil })
	}

	var locator services.GeoLocator
	if cfg.GeoProvider == "maxmind" {
		geoIPService := services.NewGeoIPService(cfg, logger)
		geoIPService.Init()
		defer geoIPService.Close()
		workers.Go(func() error { geoIPService.StartUpdater(workerCtx); return nil })
		locator = geoIPService
	} else {
		locator = services.NewIPAPIClient(cfg, cache, logger)
	}

	visitStore := repository.NewVisitStore(db)
	auditService := services.NewAuditService(db, logger)
	authService := services.NewAuthService(repository.NewAdminStore(db), repository.NewSessionStore(db), logger)
	visitService := services.NewVisitService(locator, visitStore, publisher, logger)
	reconciler := services.NewReconciler(visitStore, services.NewNominatimClient(cfg, cache, logger), publisher, logger)
	sweeper := services.NewSessionSweeper(authService, cfg.SessionSweepInterval, logger)
	rateLimiter := services.NewIPRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst, logger)

	// 7. Initialize Handler
	h := handlers.NewHandler(cfg, logger, visitService, reconciler, authService, auditService)

	// 8. Setup Router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := h.SetupRouter(rateLimiter)

	// 9. Start Background Workers
	workers.Go(func() error { auditService.Start(workerCtx); return nil })
	workers.Go(func() error { sweeper.Start(workerCtx); return nil })
	workers.Go(func() error { rateLimiter.StartCleanup(workerCtx, 10*time.Minute); return nil })

	// 10. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	workers.Go(func() error {
		logger.Info("Starting server", "port", cfg.Port, "geo_provider", cfg.GeoProvider)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	workers.Go(func() error {
		<-workerCtx.Done()
		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server forced to shutdown", "error", err)
		}
		return nil
	})

	err = workers.Wait()
	logger.Info("Server exiting")
	return err
}
