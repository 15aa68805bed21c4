package main

import (
	"log"

	"go.uber.org/zap"

	"healthvault/internal/server/app"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	application, err := app.New(version, buildDate, logger)
	if err != nil {
		logger.Fatal("failed to init server", zap.Error(err))
	}
	if err := application.Run(); err != nil {
		logger.Fatal("server stopped with error", zap.Error(err))
	}
}
