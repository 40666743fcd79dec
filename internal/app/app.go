package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"

	"EhonBot/internal/config"
	"EhonBot/internal/infrastructure/catalog"
	"EhonBot/internal/infrastructure/discovery"
	"EhonBot/internal/infrastructure/history"
	"EhonBot/internal/infrastructure/llm"
	"EhonBot/internal/infrastructure/metadata"
	"EhonBot/internal/infrastructure/scheduler"
	"EhonBot/internal/infrastructure/xpost"
	"EhonBot/internal/logging"
	"EhonBot/internal/ports"
	"EhonBot/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	pipeline *usecase.Pipeline
	logger   *slog.Logger
	db       *sql.DB
}

// New builds a runnable application instance from configuration.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	site := discovery.NewSite(nil, cfg.Discovery, baseLogger.With("component", "discovery"))

	apiClient := catalog.NewClient(nil, cfg.Catalog, baseLogger.With("component", "catalog"))
	searcher := catalog.NewSearcher(apiClient, cfg.Catalog, cfg.Selection, baseLogger.With("component", "catalog"))

	var db *sql.DB
	var store ports.HistoryStore
	if cfg.History.DSN != "" {
		var err error
		db, err = sql.Open("postgres", cfg.History.DSN)
		if err != nil {
			return nil, fmt.Errorf("open history database: %w", err)
		}
		store = history.NewPostgresStore(db, cfg.History.RetentionDays, cfg.History.MinRetentionDays)
	} else {
		store = history.NewFileStore(cfg.History.Path, cfg.History.RetentionDays, cfg.History.MinRetentionDays,
			baseLogger.With("component", "history"))
	}

	var enricher ports.CaptionEnricher
	if cfg.Metadata.Endpoint != "" {
		enricher = metadata.NewClient(cfg.Metadata.Endpoint)
	}

	selector := usecase.NewSelector(usecase.SelectorDeps{
		Discovery: site,
		Catalog:   searcher,
		History:   store,
		Logger:    baseLogger.With("component", "selector"),
		Config: usecase.SelectorConfig{
			DiscoveryAttempts: cfg.Discovery.Attempts,
			BrowseAttempts:    cfg.Selection.BrowseAttempts,
			MaxBrowsePage:     cfg.Catalog.MaxPage,
			FallbackDedup:     cfg.Selection.FallbackDedup,
		},
	})

	var tokens ports.TokenSink
	if cfg.Twitter.OutputPath != "" {
		tokens = xpost.NewOutputSink(cfg.Twitter.OutputPath)
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Selector:  selector,
		Enricher:  enricher,
		Generator: llm.NewOpenAIClient(cfg.OpenAI),
		Publisher: xpost.NewPublisher(cfg.Twitter, baseLogger.With("component", "publisher")),
		History:   store,
		Tokens:    tokens,
		Logger:    baseLogger.With("component", "pipeline"),
	})

	return &Application{cfg: cfg, pipeline: pipeline, logger: baseLogger, db: db}, nil
}

// Run executes one posting run, or blocks on the recurring scheduler when
// one is configured.
func (a *Application) Run(ctx context.Context) error {
	if a.pipeline == nil {
		return nil
	}
	defer a.close()

	if !a.cfg.Scheduler.Enabled {
		return a.pipeline.Run(ctx)
	}

	driver := scheduler.NewIntervalScheduler(a.cfg.Scheduler.Interval)
	runner := usecase.NewScheduler(driver, a.pipeline, a.logger.With("component", "scheduler"))
	if err := runner.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	<-ctx.Done()
	return runner.Stop(context.Background())
}

func (a *Application) close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil && a.logger != nil {
			a.logger.Warn("closing history database", "error", err)
		}
	}
}
