// internal/app.go
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"

	router "securebank/internal/api"
	"securebank/internal/api/handler"
	"securebank/internal/auth"
	"securebank/internal/config"
	"securebank/internal/ledger"
	"securebank/internal/metrics"
	"securebank/internal/repository"
	"securebank/internal/repository/file"
	"securebank/internal/repository/memory"
	"securebank/internal/repository/postgres"
	"securebank/internal/repository/redis"
	"securebank/internal/service"
	"securebank/internal/util"
	"securebank/pkg/db"
)

// Application holds all the initialized components of the application.
type Application struct {
	Config *config.AppConfig
	Logger *slog.Logger
	DB     *sqlx.DB        // set for the postgres backend
	Redis  *goredis.Client // set for the redis backend

	// Persistence
	KV                 repository.KVStore
	SnapshotRepository repository.SnapshotRepository
	Store              *ledger.Store

	// Services
	BankService service.BankService

	// Observability
	Registry *prometheus.Registry

	// HTTP API
	HTTPHandler http.Handler
}

// NewApplication creates a new Application instance.
func NewApplication() *Application {
	return &Application{Logger: util.GetLogger()}
}

// Initialize loads configuration from the environment and initializes all components.
func (app *Application) Initialize(ctx context.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	return app.InitializeWithConfig(ctx, cfg)
}

// InitializeWithConfig initializes all application components from cfg.
func (app *Application) InitializeWithConfig(ctx context.Context, cfg *config.AppConfig) error {
	app.Config = cfg

	// 1. Initialize Logger
	util.InitLogger(cfg.LogLevel)
	app.Logger = util.GetLogger()
	app.Logger.Info("Application configuration loaded successfully.", "storage_backend", cfg.StorageBackend)

	// 2. Open the storage backend
	kv, err := app.openKVStore(ctx)
	if err != nil {
		return err
	}
	app.KV = kv
	app.SnapshotRepository = repository.NewSnapshotRepository(kv)
	app.Logger.Info("Storage backend initialized.")

	// 3. Rehydrate the ledger
	app.Store = ledger.NewStore(app.SnapshotRepository, app.Logger)
	if err := app.Store.Load(ctx); err != nil {
		return fmt.Errorf("failed to load ledger: %w", err)
	}

	// 4. Initialize Services
	checker, err := auth.NewCredentialChecker(cfg.PasswordHashing)
	if err != nil {
		return fmt.Errorf("failed to configure password hashing: %w", err)
	}
	app.Registry = prometheus.NewRegistry()
	recorder, err := metrics.NewPrometheusRecorder("securebank", app.Registry)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}
	app.BankService = service.NewBankService(
		app.Store,
		checker,
		recorder,
		app.Logger,
		service.WithNotificationTTL(cfg.NotificationTTL),
	)
	app.Logger.Info("Services initialized.")

	// 5. Initialize HTTP Handlers and Router
	bankHandler := handler.NewBankHandler(app.BankService, app.Logger)
	app.HTTPHandler = router.NewRouter(bankHandler, router.RouterConfig{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Metrics:        promhttp.HandlerFor(app.Registry, promhttp.HandlerOpts{}),
	}, app.Logger)
	app.Logger.Info("HTTP router and handlers initialized.")

	return nil
}

func (app *Application) openKVStore(ctx context.Context) (repository.KVStore, error) {
	switch app.Config.StorageBackend {
	case config.BackendMemory:
		return memory.NewKVStore(), nil

	case config.BackendFile:
		kv, err := file.NewKVStore(app.Config.StorageDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open storage directory: %w", err)
		}
		return kv, nil

	case config.BackendPostgres:
		database, err := db.NewPostgresDB(ctx, app.Config.DB)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		app.DB = database
		app.Logger.Info("Database connection established.")
		if err := db.RunMigrations(ctx, database.DB); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return postgres.NewKVStore(database), nil

	case config.BackendRedis:
		client, err := redis.Connect(ctx, app.Config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		app.Redis = client
		app.Logger.Info("Redis connection established.")
		return redis.NewKVStore(client, app.Config.RedisPrefix), nil
	}
	return nil, fmt.Errorf("unsupported storage backend %q", app.Config.StorageBackend)
}

// Shutdown gracefully shuts down application resources.
func (app *Application) Shutdown(ctx context.Context) error {
	app.Logger.Info("Shutting down application...")
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			app.Logger.Error("Failed to close database connection", "error", err)
			return fmt.Errorf("failed to close database connection: %w", err)
		}
		app.Logger.Info("Database connection closed.")
	}
	if app.Redis != nil {
		if err := app.Redis.Close(); err != nil {
			app.Logger.Error("Failed to close redis connection", "error", err)
			return fmt.Errorf("failed to close redis connection: %w", err)
		}
		app.Logger.Info("Redis connection closed.")
	}
	app.Logger.Info("Application shut down gracefully.")
	return nil
}
