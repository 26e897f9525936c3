// @title Crop Advisor API
// @version 1.0
// @description Crop recommendations from soil readings, historical seasonal production and district demand forecasts.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/OldStager01/crop-advisor/api"
	"github.com/OldStager01/crop-advisor/api/handlers"
	"github.com/OldStager01/crop-advisor/internal/auth"
	"github.com/OldStager01/crop-advisor/internal/classifier"
	"github.com/OldStager01/crop-advisor/internal/dataset"
	"github.com/OldStager01/crop-advisor/internal/events"
	"github.com/OldStager01/crop-advisor/internal/forecast"
	"github.com/OldStager01/crop-advisor/internal/logger"
	"github.com/OldStager01/crop-advisor/internal/metrics"
	"github.com/OldStager01/crop-advisor/internal/recommend"
	"github.com/OldStager01/crop-advisor/internal/scheduler"
	"github.com/OldStager01/crop-advisor/internal/store"
	"github.com/OldStager01/crop-advisor/pkg/config"
	"github.com/OldStager01/crop-advisor/pkg/database"
	"github.com/OldStager01/crop-advisor/pkg/database/queries"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to config file")
	migrate := flag.Bool("migrate", false, "run database migrations and exit")
	seed := flag.Bool("seed", false, "import the configured CSV datasets into Postgres and exit")
	refreshOnce := flag.Bool("refresh-once", false, "run one forecast refresh and exit")
	issueToken := flag.String("issue-token", "", "print an admin token for `subject` and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger.Setup(cfg.App.LogLevel, cfg.App.Mode)
	logger.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Mode)

	authService := auth.NewService(cfg.API.JWTSecret, cfg.API.JWTDuration, cfg.API.JWTIssuer)
	if *issueToken != "" {
		token, err := authService.GenerateToken(*issueToken, auth.RoleAdmin)
		if err != nil {
			return fmt.Errorf("failed to issue token: %w", err)
		}
		fmt.Println(token)
		return nil
	}

	var db *database.DB
	if cfg.Database.Enabled {
		db, err = database.New(cfg.Database.ToDBConfig())
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		if version, err := db.GetVersion(context.Background()); err == nil {
			logger.Infof("Database connection established: %s", version)
		}
	}

	if *migrate || *seed {
		if db == nil {
			return errors.New("database.enabled must be true to migrate or seed")
		}
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Database.MigrationTimeout)
		defer cancel()
		if *migrate {
			return runMigrations(ctx, db)
		}
		return seedDatabase(ctx, cfg, db)
	}

	crops, districts, err := loadDatasets(cfg, db)
	if err != nil {
		return err
	}

	model, err := classifier.Load(classifier.Paths{
		ScalerPath:     cfg.Artifacts.ScalerPath,
		ClassifierPath: cfg.Artifacts.ClassifierPath,
		CatalogPath:    cfg.Artifacts.CatalogPath,
	})
	if err != nil {
		return fmt.Errorf("failed to load classifier artifacts: %w", err)
	}

	forecasts := newStore(cfg.Store)
	defer forecasts.Close()

	bus := events.NewEventBus(cfg.Events.BufferSize)
	defer bus.Close()
	metrics.Get().WatchEventDrops(bus.Dropped)

	var (
		runStore events.RunStore
		runs     *queries.RefreshRunRepository
	)
	if db != nil {
		runs = queries.NewRefreshRunRepository(db.DB)
		runStore = runs
	}
	eventLogger := events.NewEventLogger(runStore, bus.SubscribeAll())
	eventLogger.Start()
	defer eventLogger.Stop()

	publisher := events.NewPublisher(bus)

	svc, err := recommend.NewService(recommend.Deps{
		Classifier: model,
		Crops:      crops,
		Districts:  districts,
		Store:      forecasts,
		Publisher:  publisher,
	}, recommend.Config{
		Seasonal: profile(cfg.Forecast.Seasonal),
		Demand:   profile(cfg.Forecast.Demand),
		OnMiss:   cfg.Forecast.OnMiss,
		TTL:      cfg.Forecast.TTL,
		Seed:     cfg.Forecast.Seed,
	})
	if err != nil {
		return fmt.Errorf("failed to build recommendation service: %w", err)
	}

	job := scheduler.New(scheduler.Config{
		Interval:   cfg.Scheduler.Interval,
		RunOnStart: cfg.Scheduler.RunOnStart,
		Workers:    cfg.Scheduler.Workers,
		Timeout:    cfg.Scheduler.Timeout,
	}, svc, publisher, nil)

	if runs != nil {
		last, err := runs.Latest(context.Background())
		if err != nil && !errors.Is(err, queries.ErrRunNotFound) {
			logger.Warnf("Failed to load last refresh run: %v", err)
		}
		job.Restore(last)
	}

	if *refreshOnce {
		if cfg.Store.Type != "redis" {
			logger.Warn("Refreshing into the in-memory store; results are discarded on exit")
		}
		result, err := job.RunOnce(context.Background())
		if err != nil {
			return fmt.Errorf("forecast refresh failed: %w", err)
		}
		logger.Infof("Forecast refresh %s: %d stored, %d skipped, %d failed",
			result.ID, result.Succeeded, result.Skipped, result.Failed)
		return nil
	}

	if cfg.Scheduler.Enabled {
		if err := job.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
	}
	defer job.Stop()

	var metricsServer *http.Server
	if cfg.Prometheus.Enabled {
		metricsServer = metrics.StartServer(cfg.Prometheus.Port)
	}

	checks := map[string]handlers.Checker{
		"forecast_store": handlers.CheckFunc(forecasts.Ping),
	}
	if db != nil {
		checks["database"] = db
	}

	server := api.NewServer(cfg.API, cfg.WebSocket, api.Deps{
		Mode:        cfg.App.Mode,
		Recommender: svc,
		Job:         job,
		Auth:        authService,
		Events:      bus.SubscribeAll(),
		Checks:      checks,
	})

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		logger.Infof("API server listening on port %d", cfg.API.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdownChan:
		logger.Infof("Received signal %v, shutting down", sig)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Errorf("Metrics server shutdown error: %v", err)
		}
	}

	logger.Info("Server stopped gracefully")
	return nil
}

func runMigrations(ctx context.Context, db *database.DB) error {
	logger.Info("Running database migrations")
	if err := database.NewMigrator(db).Run(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Migrations completed successfully")
	return nil
}

func seedDatabase(ctx context.Context, cfg *config.Config, db *database.DB) error {
	crops, err := dataset.LoadCropCSV(cfg.Datasets.SeasonalPath)
	if err != nil {
		return err
	}
	districts, err := dataset.LoadDistrictCSV(cfg.Datasets.DistrictPath)
	if err != nil {
		return err
	}

	repo := queries.NewProductionRepository(db)
	n, err := repo.SeedCrops(ctx, crops)
	if err != nil {
		return fmt.Errorf("failed to seed crop production: %w", err)
	}
	logger.Infof("Seeded %d crop production rows", n)

	n, err = repo.SeedDistricts(ctx, districts)
	if err != nil {
		return fmt.Errorf("failed to seed district production: %w", err)
	}
	logger.Infof("Seeded %d district production rows", n)
	return nil
}

func loadDatasets(cfg *config.Config, db *database.DB) (*dataset.CropTable, *dataset.DistrictTable, error) {
	if cfg.Datasets.Source == "postgres" {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Database.MigrationTimeout)
		defer cancel()

		for _, table := range []string{"crop_production", "district_production"} {
			exists, err := db.TableExists(ctx, table)
			if err != nil {
				return nil, nil, err
			}
			if !exists {
				return nil, nil, fmt.Errorf("table %s does not exist, run with -migrate and -seed first", table)
			}
		}

		repo := queries.NewProductionRepository(db)
		crops, err := repo.LoadCropTable(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load crop production: %w", err)
		}
		districts, err := repo.LoadDistrictTable(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load district production: %w", err)
		}
		logger.Infof("Loaded %d crop rows and %d district rows from Postgres", crops.Len(), len(districts.Rows()))
		return crops, districts, nil
	}

	crops, err := dataset.LoadCropCSV(cfg.Datasets.SeasonalPath)
	if err != nil {
		return nil, nil, err
	}
	districts, err := dataset.LoadDistrictCSV(cfg.Datasets.DistrictPath)
	if err != nil {
		return nil, nil, err
	}
	logger.Infof("Loaded %d crop rows and %d district rows from CSV", crops.Len(), len(districts.Rows()))
	if !crops.HasYear() {
		logger.Warn("Seasonal dataset has no year column; seasonal forecasts are disabled")
	}
	return crops, districts, nil
}

func newStore(cfg config.StoreConfig) store.Store {
	if cfg.Type == "redis" {
		logger.Infof("Using Redis forecast store at %s", cfg.Redis.Addr)
		return store.NewRedisStore(store.RedisConfig{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			KeyPrefix:    cfg.Redis.KeyPrefix,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
			MaxFailures:  cfg.CircuitBreaker.MaxFailures,
			OpenTimeout:  cfg.CircuitBreaker.Timeout,
		})
	}
	logger.Info("Using in-memory forecast store")
	return store.NewMemoryStore()
}

func profile(p config.ProfileConfig) forecast.Profile {
	return forecast.Profile{
		TimeSteps:       p.TimeSteps,
		MinHistory:      p.MinHistory,
		Hidden:          p.HiddenUnits,
		Epochs:          p.Epochs,
		BatchSize:       p.BatchSize,
		LearningRate:    p.LearningRate,
		ValidationSplit: p.ValidationSplit,
		Patience:        p.Patience,
	}
}
