//go:build wireinject

package main

import (
	"github.com/google/wire"
	"go.uber.org/zap"

	"github.com/cory-johannsen/lotto/internal/config"
	"github.com/cory-johannsen/lotto/internal/httpapi"
	"github.com/cory-johannsen/lotto/internal/observability"
)

func initializeApp(cfg config.Config, logger *zap.Logger) (*app, func(), error) {
	wire.Build(
		wire.FieldsOf(new(config.Config), "Server", "Database", "Draw", "Prediction", "Auth", "RateLimit"),
		provideStorage,
		provideStore,
		provideHealthChecker,
		provideNarrator,
		provideSynthesizer,
		providePredictor,
		observability.NewMetrics,
		provideService,
		httpapi.NewHandlers,
		provideOperatorAuth,
		provideRateLimiter,
		httpapi.NewRouter,
		provideApp,
	)
	return nil, nil, nil
}
