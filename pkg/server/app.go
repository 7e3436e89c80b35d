// Package server ties the scrape run and the ops endpoint into one
// application lifecycle.
package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"RatePull/internal/scraper"
	"RatePull/internal/usecase"
	"RatePull/pkg/config"
	xhttp "RatePull/pkg/http"
	applogger "RatePull/pkg/logger"
)

// App encapsulates the application lifecycle. Unlike a daemon, a
// scrape run is finite: the app exits when the runner finishes, or
// earlier on SIGINT/SIGTERM.
type App struct {
	cfg    *config.Config
	runner *usecase.ScrapeRunner
	log    *applogger.Logger

	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, runner *usecase.ScrapeRunner, log *applogger.Logger) *App {
	return &App{cfg: cfg, runner: runner, log: log}
}

// Run starts the ops server when enabled, executes the scrape run and
// blocks until it finishes or a shutdown signal arrives.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if a.cfg.Server.Enabled {
		a.httpServer = xhttp.NewServer(a.log,
			xhttp.WithPort(a.cfg.Server.Port),
			xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		)
		if err := a.httpServer.Start(); err != nil {
			return err
		}
	}

	type result struct {
		stats []scraper.Stats
		err   error
	}
	done := make(chan result, 1)
	go func() {
		stats, err := a.runner.Run(ctx)
		done <- result{stats: stats, err: err}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var runErr error
	select {
	case res := <-done:
		runErr = res.err
	case sig := <-sigCh:
		a.log.Info("shutdown signal received", applogger.String("signal", sig.String()))
		cancel()
		res := <-done
		runErr = res.err
	}

	if err := a.shutdown(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// shutdown stops the ops server.
func (a *App) shutdown() error {
	if a.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
		return err
	}
	return nil
}
