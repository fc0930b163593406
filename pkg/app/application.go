package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/osvaldoandrade/scanq/internal/metrics"
	"github.com/osvaldoandrade/scanq/internal/middleware"
	"github.com/osvaldoandrade/scanq/internal/providers"
	"github.com/osvaldoandrade/scanq/internal/ratelimit"
	"github.com/osvaldoandrade/scanq/internal/repository"
	"github.com/osvaldoandrade/scanq/internal/services"
	"github.com/osvaldoandrade/scanq/internal/tracing"
	"github.com/osvaldoandrade/scanq/pkg/auth"
	"github.com/osvaldoandrade/scanq/pkg/catalog"
	"github.com/osvaldoandrade/scanq/pkg/config"

	"github.com/gin-gonic/gin"
)

type Application struct {
	Config          *config.Config
	Engine          *gin.Engine
	Intake          services.IntakeService
	TaskView        services.TaskViewService
	Logger          *slog.Logger
	TZ              *time.Location
	Catalog         *catalog.Catalog
	Validators      []auth.Validator
	RateLimiter     ratelimit.Limiter
	TracingShutdown func(context.Context) error
}

// ApplicationOption configures the Application
type ApplicationOption func(*Application) error

// WithValidators overrides the validators built from config.
func WithValidators(validators ...auth.Validator) ApplicationOption {
	return func(app *Application) error {
		app.Validators = validators
		return nil
	}
}

// WithCatalog injects a pre-built worker catalog instead of loading one from
// the configured directory.
func WithCatalog(cat *catalog.Catalog) ApplicationOption {
	return func(app *Application) error {
		app.Catalog = cat
		return nil
	}
}

func NewApplication(cfg *config.Config, opts ...ApplicationOption) (*Application, error) {
	redisClient := providers.NewRedisProvider(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	limiter := ratelimit.NewTokenBucketLimiter(redisClient)

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		loc = time.FixedZone("UTC", 0)
	}

	level := new(slog.LevelVar)
	switch cfg.LogLevel {
	case "debug":
		level.Set(slog.LevelDebug)
	case "warn":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	default:
		level.Set(slog.LevelInfo)
	}
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	if cfg.LogFormat == "text" {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}
	logger := slog.New(handler).With("service", "scanq", "env", cfg.Env)
	slog.SetDefault(logger)

	metrics.RegisterRedisCollector(redisClient, logger)

	tracingShutdown, err := tracing.Setup(context.Background(), tracing.Config{
		Enabled:      cfg.TracingEnabled,
		ServiceName:  "scanq",
		OTLPEndpoint: cfg.OTLPEndpoint,
		OTLPInsecure: cfg.OTLPInsecure,
		SampleRatio:  cfg.TraceSampleRatio,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("tracing setup: %w", err)
	}

	repo := repository.NewTaskRepository(
		redisClient,
		loc,
		cfg.TasksStreamMaxLen,
		time.Duration(cfg.TaskRetentionHours)*time.Hour,
	)
	uploader := providers.NewLocalUploader(cfg.DataDir)

	engine := gin.New()
	engine.Use(gin.Recovery(), middleware.RequestIDMiddleware(), middleware.LoggerMiddleware(logger))
	if cfg.TracingEnabled {
		engine.Use(middleware.TracingMiddleware("scanq"))
	}
	engine.MaxMultipartMemory = 32 << 20

	app := &Application{
		Config:          cfg,
		Engine:          engine,
		Logger:          logger,
		TZ:              loc,
		RateLimiter:     limiter,
		TracingShutdown: tracingShutdown,
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	if app.Catalog == nil {
		cat, err := catalog.LoadDir(cfg.CatalogDir)
		if err != nil {
			return nil, fmt.Errorf("load worker catalog: %w", err)
		}
		app.Catalog = cat
	}

	// Build validators from config unless an option already supplied them.
	if app.Validators == nil {
		for _, p := range cfg.AuthProviders {
			raw, err := json.Marshal(p.Config)
			if err != nil {
				return nil, fmt.Errorf("auth provider %s config: %w", p.Type, err)
			}
			validator, err := auth.NewValidator(auth.ProviderConfig{Type: p.Type, Config: raw})
			if err != nil {
				return nil, err
			}
			app.Validators = append(app.Validators, validator)
		}
	}

	app.Intake = services.NewIntakeService(
		repo,
		uploader,
		app.Catalog,
		logger,
		time.Now,
		cfg.PublicBaseURL,
		cfg.MaxFileSizeMB,
		cfg.MaxSeedValiditySeconds,
		cfg.AdvancedSelection,
		cfg.Disclaimers,
	)
	app.TaskView = services.NewTaskViewService(repo, app.Catalog)

	retention := services.NewRetentionService(repo, logger, cfg.RetentionSweepSeconds)
	go retention.Start(context.Background())

	return app, nil
}
