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

	"github.com/evidark-org/evidark/internal/adapter"
	"github.com/evidark-org/evidark/internal/bootstrap"
	"github.com/evidark-org/evidark/internal/config"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.LoadAppConfig()

	db := config.InitGorm(cfg)
	defer func() {
		sqlDB, err := db.DB()
		if err != nil {
			return
		}
		if err := sqlDB.Close(); err != nil {
			slog.Error("Error closing database connection", "error", err)
		}
	}()

	redisAdapter, err := adapter.NewRedisAdapter(cfg)
	if err != nil {
		os.Exit(1)
	}
	defer func() {
		if err := redisAdapter.Close(); err != nil {
			slog.Error("Error closing Redis connection", "error", err)
		}
	}()

	validate := config.NewValidator()
	chiMux := config.NewChi(cfg)

	app := bootstrap.Init(cfg, db, redisAdapter, validate, chiMux)
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hubDone := make(chan struct{})
	go func() {
		app.Hub.Run(ctx)
		close(hubDone)
	}()

	if err := app.Scheduler.Start(); err != nil {
		os.Exit(1)
	}
	defer app.Scheduler.Stop()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.AppPort),
		Handler:           chiMux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Starting EviDark", "port", cfg.AppPort, "env", cfg.AppEnv)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			slog.Error("Failed to start server", "error", err)
		}
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Failed to shut down server gracefully", "error", err)
	}

	select {
	case <-hubDone:
	case <-shutdownCtx.Done():
		slog.Warn("Hub did not stop before shutdown deadline")
	}

	slog.Info("EviDark stopped")
}
