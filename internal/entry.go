// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/starford/ansuz/internal/graphsvc"
	"github.com/starford/ansuz/internal/journal"
	"github.com/starford/ansuz/internal/roamapi"
	"github.com/starford/ansuz/internal/watch"
)

// App bundles the wired components for one invocation.
type App struct {
	Config  *Config
	Logger  *slog.Logger
	Service *graphsvc.Service
	Journal *journal.DB
}

// NewApp builds the logger, API client, graph service, and run journal
// from the given options.
func NewApp(opts ...Option) (*App, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := app.config

	// Structured JSON logger on stderr; stdout stays clean for command
	// output and the MCP stdio transport.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Debug("configuration loaded",
		slog.String("graph", cfg.Roam.Graph),
		slog.String("journal_path", cfg.Journal.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	client := roamapi.NewClient(cfg.Roam.Graph, cfg.Roam.Token, cfg.Roam.BaseURL, logger)
	svc := graphsvc.New(client, cfg.Importer, logger)

	db, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	return &App{
		Config:  cfg,
		Logger:  logger,
		Service: svc,
		Journal: db,
	}, nil
}

// Close releases the journal database.
func (a *App) Close() error {
	return a.Journal.Close()
}

// RunWatch runs the drop-directory watcher until a shutdown signal or
// context cancellation.
func (a *App) RunWatch(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)
	watchCtx, stopWatch := context.WithCancel(gCtx)
	defer stopWatch()

	g.Go(func() error {
		return watch.Run(watchCtx, a.Service, a.Journal, a.Config.Watch.Dir, a.Logger)
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			a.Logger.Info("received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
		}
		stopWatch()
		return nil
	})

	if err := g.Wait(); err != nil {
		a.Logger.Error("watch mode error", slog.String("error", err.Error()))
		return err
	}
	a.Logger.Info("watcher stopped")
	return nil
}
