// Package server owns the process lifecycle of `atelier serve`: connect,
// listen, and shut down cleanly on SIGINT/SIGTERM.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rainbowartistery/atelier/app/repositories"
	"github.com/rainbowartistery/atelier/config"
	"github.com/rainbowartistery/atelier/internal/kernel"
	"github.com/rainbowartistery/atelier/pkg/cache"
	"github.com/rainbowartistery/atelier/pkg/database"
	"github.com/rainbowartistery/atelier/pkg/logger"
	"github.com/rainbowartistery/atelier/pkg/mail"
	"github.com/rainbowartistery/atelier/pkg/schedule"
	"github.com/rainbowartistery/atelier/pkg/storage"
	"github.com/rainbowartistery/atelier/pkg/workerpool"
)

const shutdownGrace = 15 * time.Second

// Start boots every dependency and serves until the process is signalled.
func Start() error {
	if err := config.Load(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	closeLogs := logger.Setup()
	defer closeLogs()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := database.Connect(); err != nil {
		return err
	}
	defer func() {
		if sqlDB, err := database.DB.DB(); err == nil {
			sqlDB.Close()
		}
	}()

	store, err := cache.Connect(ctx)
	if err != nil {
		return err
	}
	disk, err := storage.Connect(ctx)
	if err != nil {
		return err
	}
	pool := workerpool.New(4, 64)

	jobs := schedule.New()
	admins := repositories.NewAdminRepository(database.DB)
	jobs.Every(time.Hour).Name("auth:purge-tokens").Run(func(ctx context.Context) error {
		n, err := admins.PurgeExpiredTokens(ctx, time.Now())
		if err == nil && n > 0 {
			logger.Info("schedule: purged expired sign-in tokens", "count", n)
		}
		return err
	})
	jobs.Start(ctx)

	k := kernel.NewHTTPKernel(kernel.Deps{
		DB:     database.DB,
		Cache:  store,
		Disk:   disk,
		Mailer: mail.FromConfig(),
		Pool:   pool,
	})

	srv := &http.Server{
		Addr:              ":" + config.AppPort(),
		Handler:           k.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("atelier listening", "addr", srv.Addr, "env", config.AppEnv(),
			"db", config.DatabaseDriver(), "cache", store.Driver(), "storage", disk.Name())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server: listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("atelier shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server: shutdown", "error", err)
	}
	// Queued notification mail gets whatever grace is left.
	if err := pool.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server: worker pool did not drain", "error", err)
	}
	jobs.Wait()
	return nil
}
