package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/cory-johannsen/lotto/internal/config"
	"github.com/cory-johannsen/lotto/internal/httpapi"
	"github.com/cory-johannsen/lotto/internal/lottery"
	"github.com/cory-johannsen/lotto/internal/lotto/synth"
	"github.com/cory-johannsen/lotto/internal/observability"
	"github.com/cory-johannsen/lotto/internal/prediction"
	"github.com/cory-johannsen/lotto/internal/scripting"
	"github.com/cory-johannsen/lotto/internal/server"
	"github.com/cory-johannsen/lotto/internal/storage/memory"
	"github.com/cory-johannsen/lotto/internal/storage/postgres"
)

// healthInterval is how often the gRPC health status is refreshed.
const healthInterval = 30 * time.Second

// storage bundles the selected Store with the probe used for health reporting.
type storage struct {
	store  lottery.Store
	health server.HealthChecker
}

// app is the fully wired service.
type app struct {
	lifecycle *server.Lifecycle
}

// provideStorage opens the configured store. The cleanup closes the pool.
//
// Postcondition: Returns a usable storage or a non-nil error.
func provideStorage(cfg config.DatabaseConfig, logger *zap.Logger) (storage, func(), error) {
	if cfg.Driver == config.DriverMemory {
		logger.Warn("using in-memory store; data is lost on restart")
		s := memory.NewStore()
		return storage{store: s, health: s.Ping}, func() {}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dbStart := time.Now()
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return storage{}, nil, fmt.Errorf("connecting to database: %w", err)
	}
	logger.Info("database connected",
		zap.String("host", cfg.Host),
		zap.Duration("elapsed", time.Since(dbStart)),
	)
	health := func(ctx context.Context) error {
		return pool.Health(ctx, 5*time.Second)
	}
	return storage{store: postgres.NewStore(pool.DB()), health: health}, pool.Close, nil
}

func provideStore(s storage) lottery.Store {
	return s.store
}

func provideHealthChecker(s storage) server.HealthChecker {
	return s.health
}

// provideNarrator loads the optional Lua narrative script. Without one the
// synthesizer uses its plain narrator.
func provideNarrator(cfg config.DrawConfig, logger *zap.Logger) (synth.Narrator, error) {
	if cfg.NarrativeScript == "" {
		return nil, nil
	}
	n, err := scripting.LoadNarrator(cfg.NarrativeScript, cfg.ScriptInstructionLimit, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("narrative script loaded", zap.String("path", cfg.NarrativeScript))
	return n, nil
}

func provideSynthesizer(cfg config.DrawConfig, narrator synth.Narrator, logger *zap.Logger) *synth.Synthesizer {
	return synth.New(lottery.TuningFromConfig(cfg), narrator, logger)
}

// providePredictor returns nil when no API key is configured.
func providePredictor(cfg config.PredictionConfig, logger *zap.Logger) lottery.Predictor {
	if !cfg.Enabled() {
		logger.Info("prediction disabled: no API key configured")
		return nil
	}
	return prediction.NewClient(prediction.Config{
		APIKey:    cfg.APIKey,
		BaseURL:   cfg.BaseURL,
		Model:     cfg.Model,
		MaxTokens: cfg.MaxTokens,
		Timeout:   cfg.Timeout,
	}, logger)
}

func provideService(
	store lottery.Store,
	synthesizer *synth.Synthesizer,
	predictor lottery.Predictor,
	metrics *observability.Metrics,
	cfg config.DrawConfig,
	logger *zap.Logger,
) *lottery.Service {
	opts := []lottery.Option{
		lottery.WithRecorder(metrics),
		lottery.WithInterval(cfg.Interval()),
	}
	if predictor != nil {
		opts = append(opts, lottery.WithPredictor(predictor))
	}
	return lottery.NewService(store, synthesizer, logger, opts...)
}

func provideOperatorAuth(cfg config.AuthConfig, logger *zap.Logger) *httpapi.OperatorAuth {
	return httpapi.NewOperatorAuth(cfg.OperatorUser, cfg.PasswordHash, logger)
}

func provideRateLimiter(cfg config.RateLimitConfig, metrics *observability.Metrics, logger *zap.Logger) *httpapi.RateLimiter {
	return httpapi.NewRateLimiter(cfg.RequestsPerSecond, cfg.Burst, metrics, logger)
}

// provideApp registers the listeners in start order: HTTP first, then the
// gRPC health service when a port is configured.
func provideApp(cfg config.ServerConfig, router *mux.Router, health server.HealthChecker, logger *zap.Logger) *app {
	lifecycle := server.NewLifecycle(logger)
	lifecycle.Add("http", server.NewHTTPService(cfg.HTTPAddr(), router, cfg.ShutdownTimeout, logger))
	if cfg.GRPCPort != 0 {
		lifecycle.Add("grpc-health", server.NewHealthService(cfg.GRPCAddr(), health, healthInterval, logger))
	}
	return &app{lifecycle: lifecycle}
}
