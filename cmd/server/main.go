package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"user-auth-service/internal/app"
	"user-auth-service/internal/config"
	"user-auth-service/internal/logger"
)

func main() {
	logger.Setup()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "error", err.Error())
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		slog.Error("startup failed", "error", err.Error())
		os.Exit(1)
	}

	if err := application.Run(ctx); err != nil {
		slog.Error("server stopped with error", "error", err.Error())
		os.Exit(1)
	}

	slog.Info("server stopped")
}
