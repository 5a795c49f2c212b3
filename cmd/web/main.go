package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"marketly.com/app/internal/config"
	"marketly.com/app/internal/db"
	apphttp "marketly.com/app/internal/http"
	"marketly.com/app/internal/modules/chat"
	"marketly.com/app/internal/storage"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := os.Getenv("CONFIG_FILE")
	if cfgPath == "" {
		cfgPath = "configs/config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	logger := config.InitLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gdb, err := db.Open(cfg.Database, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(gdb); err != nil {
			logger.Warn("db_close_failed", "error", err)
		}
	}()

	if cfg.Database.AutoMigrate {
		if err := db.MigrateUp(gdb, cfg.Database.Driver, logger); err != nil {
			return err
		}
	}

	store, err := storage.FromConfig(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	logger.Info("storage ready", "driver", store.Driver, "backend", store.Storage)

	hub := chat.NewHub(cfg.AllowedOrigins, logger)

	router, err := apphttp.NewRouter(apphttp.Deps{
		Config:  cfg,
		Logger:  logger,
		DB:      gdb,
		Storage: store.Storage,
		Hub:     hub,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", "addr", srv.Addr, "app_env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		// hijacked websocket conns are not closed by Shutdown
		hub.Close()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
