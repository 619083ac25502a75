package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/nowfit/chat/internal/config"
	"github.com/nowfit/chat/internal/logging"
	"github.com/nowfit/chat/internal/server"
	"github.com/nowfit/chat/internal/storage/sqlite"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadServerConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	store, err := sqlite.NewStore(cfg.Database)
	if err != nil {
		logger.Fatal("init storage: " + err.Error())
	}
	defer store.Close()

	app := server.NewApp(cfg, store, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		logger.Fatal("server shutdown: " + err.Error())
	}
}
