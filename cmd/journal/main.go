package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"journal/internal/backend"
	"journal/internal/cli"
	apphttp "journal/internal/http"
	applog "journal/internal/log"
	"journal/internal/services"
	"journal/internal/session"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadConfig()
	if err != nil {
		cli.FatalConfig(err)
	}
	logger := cli.SetupLogger(cfg.LogLevel)

	ctx, stop := cli.SignalContext()
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		cli.Fatal(logger, "Invalid backend configuration", err)
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize backend", err)
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", applog.FieldError, err)
		}
	}()

	entries := services.NewEntryService(res.Store, res.Publisher)
	if records, err := entries.Records(ctx); err != nil {
		// served pages will report the problem; keep the process up for /healthz
		logger.Error("Journal could not be loaded at startup", applog.FieldError, err)
	} else {
		logger.Info("Journal loaded", applog.FieldRecords, len(records))
	}

	sessions := session.NewStore(cfg.SessionMax, cfg.SessionTTL)
	sessions.StartCleanup(10 * time.Minute)

	srv, err := apphttp.NewServer(":"+cfg.Port, entries, sessions, apphttp.Options{
		Currency:           cfg.Currency,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		SessionTTL:         cfg.SessionTTL,
		Logger:             logger,
	})
	if err != nil {
		cli.Fatal(logger, "Failed to build HTTP server", err)
	}
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting journal server", append(cli.Describe(cfg), applog.FieldOperation, applog.OpStartup)...)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received", applog.FieldOperation, applog.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", applog.FieldError, err)
		return
	}
	logger.Info("Server stopped gracefully")
}
