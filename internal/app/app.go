// Package app initializes and holds the long-lived services of the
// harvester, acting as a dependency injection container.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/jobscope/harvester/internal/api"
	"github.com/jobscope/harvester/internal/logging"
	"github.com/jobscope/harvester/internal/store/mongodb"
	"github.com/jobscope/harvester/pkg/config"
)

// App holds the shared services a crawl run depends on: the logger, the
// Mongo connection, and the operational HTTP server. It is initialized once
// at startup and fails fast when a critical service is unreachable.
type App struct {
	cfg    config.Config
	logger *zap.Logger
	mongo  *mongodb.Client
	ops    *http.Server
}

// New initializes all services. An unreachable document store aborts
// startup: a crawl without its visitation log cannot make skip decisions.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	logger.Info("connecting to document store", zap.String("database", cfg.Mongo.Database))
	mc, err := mongodb.Dial(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		Timeout:  cfg.MongoTimeout(),
	})
	if err != nil {
		return nil, fmt.Errorf("dial mongo: %w", err)
	}

	a := &App{cfg: cfg, logger: logger, mongo: mc}
	a.ops = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Ops.Port),
		Handler:           api.NewServer(mc.Ping, logger).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return a, nil
}

// Logger returns the shared zap logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Mongo returns the shared document-store connection.
func (a *App) Mongo() *mongodb.Client {
	return a.mongo
}

// Config returns the loaded configuration.
func (a *App) Config() config.Config {
	return a.cfg
}

// ServeOps starts the operational HTTP server in the background. Shutdown
// happens in Close.
func (a *App) ServeOps() {
	go func() {
		a.logger.Info("ops server listening", zap.String("addr", a.ops.Addr))
		if err := a.ops.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error("ops server failed", zap.Error(err))
		}
	}()
}

// Close shuts down the ops server and disconnects from the store.
func (a *App) Close(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := a.ops.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("ops server shutdown", zap.Error(err))
	}

	if err := a.mongo.Close(ctx); err != nil {
		return err
	}
	_ = a.logger.Sync()
	return nil
}
