// Package app wires configuration into concrete providers and carries the
// assembled application through a context for the CLI commands.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/openbeta/climb-harvester/internal/config"
	"github.com/openbeta/climb-harvester/internal/database"
	"github.com/openbeta/climb-harvester/internal/logging"
	"github.com/openbeta/climb-harvester/internal/publisher"
	pubsubpub "github.com/openbeta/climb-harvester/internal/publisher/pubsub"
	"github.com/openbeta/climb-harvester/internal/storage"
	"github.com/openbeta/climb-harvester/internal/storage/gcs"
	"github.com/openbeta/climb-harvester/internal/storage/local"
)

type ctxKey struct{}

// App holds the configured dependencies shared by the CLI commands.
type App struct {
	Config    config.Config
	Logger    *zap.Logger
	DB        database.Provider
	Storage   storage.Provider
	Publisher publisher.Publisher
}

// New builds every provider named in the config, failing fast on any
// misconfiguration.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}

	a := &App{
		Config:    cfg,
		Logger:    logger,
		DB:        database.NoOpProvider{},
		Storage:   storage.NoOpProvider{},
		Publisher: publisher.NoOp{},
	}

	switch cfg.DB.Provider {
	case "", "noop":
	case "postgres":
		db, err := database.NewPostgresProvider(ctx, cfg.DB.DSN)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("initializing postgres provider: %w", err)
		}
		a.DB = db
	default:
		a.Close()
		return nil, fmt.Errorf("unknown db provider %q", cfg.DB.Provider)
	}

	switch cfg.Storage.Provider {
	case "", "noop":
	case "local":
		store, err := local.New(local.Config{BaseDir: cfg.Storage.BaseDir})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("initializing local storage: %w", err)
		}
		a.Storage = store
	case "gcs":
		store, err := gcs.New(ctx, gcs.Config{Bucket: cfg.Storage.Bucket})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("initializing gcs storage: %w", err)
		}
		a.Storage = store
	default:
		a.Close()
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Storage.Provider)
	}

	switch cfg.PubSub.Provider {
	case "", "noop":
	case "pubsub":
		pub, err := pubsubpub.New(ctx, pubsubpub.Config{
			ProjectID: cfg.PubSub.ProjectID,
			TopicID:   cfg.PubSub.TopicID,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("initializing pubsub publisher: %w", err)
		}
		a.Publisher = pub
	default:
		a.Close()
		return nil, fmt.Errorf("unknown pubsub provider %q", cfg.PubSub.Provider)
	}

	return a, nil
}

// Close releases every provider. Safe to call on a partially built App.
func (a *App) Close() {
	if a.Publisher != nil {
		if err := a.Publisher.Close(); err != nil {
			a.Logger.Warn("closing publisher", zap.Error(err))
		}
	}
	if a.DB != nil {
		a.DB.Close()
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
}

// WithApp stores the app on a context for command handlers.
func WithApp(ctx context.Context, a *App) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

// FromContext retrieves the app placed by WithApp.
func FromContext(ctx context.Context) (*App, error) {
	a, ok := ctx.Value(ctxKey{}).(*App)
	if !ok || a == nil {
		return nil, fmt.Errorf("application not found in context")
	}
	return a, nil
}
