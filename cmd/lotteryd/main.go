// Package main provides the lottery service binary: the JSON API plus a gRPC
// health endpoint.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/lotto/internal/config"
	"github.com/cory-johannsen/lotto/internal/observability"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting lottery service",
		zap.String("http_addr", cfg.Server.HTTPAddr()),
		zap.String("storage", cfg.Database.Driver),
	)

	a, cleanup, err := initializeApp(cfg, logger)
	if err != nil {
		logger.Fatal("initializing service", zap.Error(err))
	}
	defer cleanup()

	logger.Info("lottery service initialized",
		zap.Duration("startup", time.Since(start)),
	)

	if err := a.lifecycle.Run(context.Background()); err != nil {
		logger.Error("server error", zap.Error(err))
	}
}
