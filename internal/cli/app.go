package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/emiliopalmerini/chatsrt/internal/adapters/otel"
	"github.com/emiliopalmerini/chatsrt/internal/adapters/storage"
	"github.com/emiliopalmerini/chatsrt/internal/adapters/turso"
	"github.com/emiliopalmerini/chatsrt/internal/infrastructure/config"
	"github.com/emiliopalmerini/chatsrt/internal/infrastructure/database"
	"github.com/emiliopalmerini/chatsrt/internal/migrate"
	"github.com/emiliopalmerini/chatsrt/internal/ports"
)

// AppContext holds the shared dependencies of CLI commands. Storage and
// exporters are opened on first use, so commands that do not need them
// never touch the database. Fields that are already set are used as is.
type AppContext struct {
	Config *config.Config
	Logger *slog.Logger

	DB          *database.Client
	Conversions ports.ConversionRepository
	Archive     ports.ChatArchive
	Metrics     ports.MetricsExporter
}

// NewAppContext creates an AppContext; nothing is opened yet.
func NewAppContext(cfg *config.Config, logger *slog.Logger) *AppContext {
	return &AppContext{Config: cfg, Logger: logger}
}

// Database opens the history database without migrating it.
func (a *AppContext) Database() (*database.Client, error) {
	if a.DB != nil {
		return a.DB, nil
	}
	if !a.Config.History.Enabled {
		return nil, fmt.Errorf("%w: CHATSRT_HISTORY_ENABLED is false", ErrHistoryUnavailable)
	}

	db, err := database.NewWithOptions(a.Config.History.URL, database.Options{
		AuthToken:   a.Config.History.AuthToken,
		ReplicaPath: a.Config.History.ReplicaPath,
		Ping:        true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrHistoryUnavailable, err)
	}
	a.DB = db
	return db, nil
}

// ConversionRepo opens and migrates the history store.
func (a *AppContext) ConversionRepo(ctx context.Context) (ports.ConversionRepository, error) {
	if a.Conversions != nil {
		return a.Conversions, nil
	}
	db, err := a.Database()
	if err != nil {
		return nil, err
	}
	if err := migrate.RunAll(ctx, db.DB); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrHistoryUnavailable, err)
	}
	a.Conversions = turso.NewConversionRepository(db.DB)
	return a.Conversions, nil
}

// ChatArchive returns the configured archive, or nil when archiving is
// disabled.
func (a *AppContext) ChatArchive(ctx context.Context) (ports.ChatArchive, error) {
	if a.Archive != nil || !a.Config.Archive.Enabled {
		return a.Archive, nil
	}

	switch a.Config.Archive.Backend {
	case "db":
		if _, err := a.ConversionRepo(ctx); err != nil {
			return nil, err
		}
		a.Archive = turso.NewChatArchiveRepository(a.DB.DB)
	default:
		archive, err := storage.NewChatArchive(a.Config.Archive.Dir)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize chat archive: %w", err)
		}
		a.Archive = archive
	}
	return a.Archive, nil
}

// MetricsExporter returns the OTLP exporter, or a no-op one when export is
// disabled or the exporter cannot be created.
func (a *AppContext) MetricsExporter(ctx context.Context) ports.MetricsExporter {
	if a.Metrics != nil {
		return a.Metrics
	}
	if !a.Config.OTEL.Active() {
		a.Metrics = otel.NewNoOpExporter("disabled")
		return a.Metrics
	}

	exp, err := otel.NewExporter(ctx, a.Config.OTEL)
	if err != nil {
		a.Logger.Warn("metrics export disabled",
			slog.String("component", "otel"),
			slog.Any("err", err))
		a.Metrics = otel.NewNoOpExporter(err.Error())
		return a.Metrics
	}
	a.Metrics = exp
	return a.Metrics
}

// Close flushes metrics, syncs an embedded replica and closes the database.
func (a *AppContext) Close(ctx context.Context) error {
	var firstErr error
	if a.Metrics != nil {
		if err := a.Metrics.Close(ctx); err != nil {
			firstErr = fmt.Errorf("failed to flush metrics: %w", err)
		}
	}
	if a.DB != nil {
		if err := a.DB.Sync(); err != nil {
			a.Logger.Warn("sync failed", slog.String("component", "history"), slog.Any("err", err))
		}
		if err := a.DB.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close database: %w", err)
		}
	}
	return firstErr
}
