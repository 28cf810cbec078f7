package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/docsprobe/internal/checks"
	"github.com/ternarybob/docsprobe/internal/common"
	"github.com/ternarybob/docsprobe/internal/interfaces"
	"github.com/ternarybob/docsprobe/internal/models"
	"github.com/ternarybob/docsprobe/internal/report"
	"github.com/ternarybob/docsprobe/internal/similarity"
	"github.com/ternarybob/docsprobe/internal/storage"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager
	Similarity     checks.SimilarityScorer // nil when the embedding oracle is off
	Runner         *checks.Runner
	Reports        *report.Writer
}

// New initializes storage, the similarity oracle and the scenario runner, in that order
func New(ctx context.Context, cfg *common.Config, logger arbor.ILogger) (*App, error) {
	if logger == nil {
		logger = common.GetLogger()
	}
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	app.initSimilarity(ctx)

	app.Runner = checks.NewRunner(cfg, app.Similarity, logger)
	app.Reports = report.NewWriter(cfg.Report, logger)

	logger.Info().
		Bool("similarity_enabled", app.Similarity != nil).
		Int("scenarios", len(app.Runner.Scenarios())).
		Msg("Application initialization complete")

	return app, nil
}

// initDatabase initializes the storage layer (Badger)
func (a *App) initDatabase() error {
	storageManager, err := storage.NewStorageManager(a.Logger, a.Config)
	if err != nil {
		return fmt.Errorf("failed to create storage manager: %w", err)
	}
	a.StorageManager = storageManager
	return nil
}

// initSimilarity builds the embedding scorer. A missing key only disables the similarity scenario.
func (a *App) initSimilarity(ctx context.Context) {
	scorer, err := similarity.New(ctx, a.Config.Similarity, a.StorageManager.EmbeddingStorage(), a.Logger)
	if err != nil {
		if errors.Is(err, similarity.ErrDisabled) {
			a.Logger.Warn().Err(err).Msg("Similarity oracle disabled, language/similarity will be skipped")
		} else {
			a.Logger.Error().Err(err).Msg("Failed to initialize similarity oracle")
		}
		return
	}
	a.Similarity = scorer
}

// RunSuite executes the scenarios matching filters, writes reports and saves the run
func (a *App) RunSuite(ctx context.Context, filters []string) (*models.Run, error) {
	run := &models.Run{
		ID:        uuid.New().String(),
		Site:      a.Config.Site.URL,
		StartedAt: time.Now(),
	}

	a.Logger.Info().Str("run_id", run.ID).Strs("filters", filters).Msg("Suite run starting")

	run.Results = a.Runner.Run(ctx, filters)
	run.FinishedAt = time.Now()
	run.Summarize()

	a.Logger.Info().
		Str("run_id", run.ID).
		Int("passed", run.Passed).
		Int("failed", run.Failed).
		Int("errors", run.Errored).
		Int("skipped", run.Skipped).
		Dur("duration", run.Duration()).
		Msg("Suite run finished")

	var errs []error
	if _, err := a.Reports.Write(run); err != nil {
		errs = append(errs, fmt.Errorf("failed to write reports: %w", err))
	}
	// Save with a fresh context so a cancelled run is still recorded
	if err := a.StorageManager.RunStorage().SaveRun(context.Background(), run); err != nil {
		errs = append(errs, fmt.Errorf("failed to save run: %w", err))
	}

	return run, errors.Join(errs...)
}

// History returns the latest runs, newest first
func (a *App) History(ctx context.Context, limit int) ([]*models.Run, error) {
	return a.StorageManager.RunStorage().ListRuns(ctx, limit)
}

// Close releases storage
func (a *App) Close() error {
	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close storage")
			return err
		}
		a.Logger.Info().Msg("Storage closed")
	}
	return nil
}
