package checks

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/docsprobe/internal/browser"
	"github.com/ternarybob/docsprobe/internal/common"
	"github.com/ternarybob/docsprobe/internal/models"
)

// Env is everything a scenario may touch
type Env struct {
	Session    *browser.Session
	Config     *common.Config
	Logger     arbor.ILogger
	Similarity SimilarityScorer // nil when no embedding oracle is configured
	Artifacts  *Artifacts
}

// Scenario is one named check run against a fresh browser session
type Scenario struct {
	Name  string
	Group string
	Run   func(ctx context.Context, env *Env) error
}

// SessionFactory opens the browser session handed to a scenario
type SessionFactory func(ctx context.Context) (*browser.Session, error)

// openHome navigates to the site root, the starting point of most scenarios
func openHome(env *Env) error {
	return env.Session.Navigate(env.Config.Site.URL)
}

// DefaultScenarios returns the suite in execution order
func DefaultScenarios() []Scenario {
	return []Scenario{
		{
			Name:  "accessibility/tab-navigation",
			Group: "accessibility",
			Run: func(ctx context.Context, env *Env) error {
				_, err := NewAccessibilityChecker(env.Session, env.Config, env.Logger).Walk()
				return err
			},
		},
		{
			Name:  "language/switcher",
			Group: "language",
			Run: func(ctx context.Context, env *Env) error {
				if err := openHome(env); err != nil {
					return err
				}
				_, err := NewLanguageChecker(env.Session, env.Config, env.Artifacts, env.Logger).CheckLanguageSwitcher()
				return err
			},
		},
		{
			Name:  "language/similarity",
			Group: "language",
			Run: func(ctx context.Context, env *Env) error {
				if env.Similarity == nil {
					return fmt.Errorf("%w: no embedding API key configured", ErrSkipped)
				}
				_, err := NewLanguageChecker(env.Session, env.Config, env.Artifacts, env.Logger).
					CheckTranslationSimilarity(ctx, env.Similarity)
				return err
			},
		},
		{
			Name:  "theme/dark-mode-persistence",
			Group: "theme",
			Run: func(ctx context.Context, env *Env) error {
				if err := openHome(env); err != nil {
					return err
				}
				_, err := NewThemeChecker(env.Session, env.Config, env.Logger).CheckPersistence()
				return err
			},
		},
		{
			Name:  "search/results",
			Group: "search",
			Run: func(ctx context.Context, env *Env) error {
				if err := openHome(env); err != nil {
					return err
				}
				c := NewSearchChecker(env.Session, env.Config, env.Logger)
				if err := c.OpenSearch(); err != nil {
					return err
				}
				if err := c.EnterQuery(env.Config.Search.Query); err != nil {
					return err
				}
				_, err := c.CheckResults(env.Config.Search.Query)
				return err
			},
		},
		{
			Name:  "search/first-result",
			Group: "search",
			Run: func(ctx context.Context, env *Env) error {
				if err := openHome(env); err != nil {
					return err
				}
				_, err := NewSearchChecker(env.Session, env.Config, env.Logger).SearchAndOpenFirst(env.Config.Search.Query)
				return err
			},
		},
		{
			Name:  "search/recent",
			Group: "search",
			Run: func(ctx context.Context, env *Env) error {
				if err := openHome(env); err != nil {
					return err
				}
				c := NewSearchChecker(env.Session, env.Config, env.Logger)
				if _, err := c.SearchAndOpenFirst(env.Config.Search.Query); err != nil {
					return err
				}
				return c.CheckRecent(env.Config.Search.Query)
			},
		},
		{
			Name:  "search/favorite",
			Group: "search",
			Run: func(ctx context.Context, env *Env) error {
				if err := openHome(env); err != nil {
					return err
				}
				c := NewSearchChecker(env.Session, env.Config, env.Logger)
				if _, err := c.SearchAndOpenFirst(env.Config.Search.Query); err != nil {
					return err
				}
				if err := c.SaveFavorite(env.Config.Search.Query); err != nil {
					return err
				}
				return c.RemoveFavorite(env.Config.Search.Query)
			},
		},
		{
			Name:  "search/no-results",
			Group: "search",
			Run: func(ctx context.Context, env *Env) error {
				if err := openHome(env); err != nil {
					return err
				}
				return NewSearchChecker(env.Session, env.Config, env.Logger).CheckNoResults()
			},
		},
		{
			Name:  "layout/header",
			Group: "layout",
			Run: func(ctx context.Context, env *Env) error {
				if err := openHome(env); err != nil {
					return err
				}
				return NewLayoutChecker(env.Session, env.Config, env.Artifacts, env.Logger).CheckHeader()
			},
		},
		{
			Name:  "layout/footer",
			Group: "layout",
			Run: func(ctx context.Context, env *Env) error {
				if err := openHome(env); err != nil {
					return err
				}
				return NewLayoutChecker(env.Session, env.Config, env.Artifacts, env.Logger).CheckFooter()
			},
		},
		{
			Name:  "layout/breakpoints",
			Group: "layout",
			Run: func(ctx context.Context, env *Env) error {
				if err := openHome(env); err != nil {
					return err
				}
				_, err := NewLayoutChecker(env.Session, env.Config, env.Artifacts, env.Logger).CheckBreakpoints()
				return err
			},
		},
	}
}

// Classify maps a scenario error onto a result status
func Classify(err error) models.ScenarioStatus {
	switch {
	case err == nil:
		return models.ScenarioPassed
	case errors.Is(err, ErrSkipped):
		return models.ScenarioSkipped
	case errors.Is(err, ErrAssertion), errors.Is(err, ErrTimeout):
		return models.ScenarioFailed
	default:
		return models.ScenarioError
	}
}

// Match reports whether name passes the filters (any substring; no filters = all)
func Match(name string, filters []string) bool {
	if len(filters) == 0 {
		return true
	}
	for _, f := range filters {
		if f != "" && strings.Contains(name, f) {
			return true
		}
	}
	return false
}

// Runner executes scenarios one after another
type Runner struct {
	config     *common.Config
	similarity SimilarityScorer
	logger     arbor.ILogger
	scenarios  []Scenario
	newSession SessionFactory
}

// NewRunner creates a Runner over DefaultScenarios with real Chrome sessions
func NewRunner(config *common.Config, similarity SimilarityScorer, logger arbor.ILogger) *Runner {
	r := &Runner{
		config:     config,
		similarity: similarity,
		logger:     logger,
		scenarios:  DefaultScenarios(),
	}
	r.newSession = func(ctx context.Context) (*browser.Session, error) {
		return browser.NewSession(ctx, config.Browser, logger)
	}
	return r
}

// WithScenarios replaces the scenario list
func (r *Runner) WithScenarios(scenarios []Scenario) *Runner {
	r.scenarios = scenarios
	return r
}

// WithSessionFactory replaces how sessions are opened
func (r *Runner) WithSessionFactory(factory SessionFactory) *Runner {
	r.newSession = factory
	return r
}

// Scenarios lists the configured scenario names
func (r *Runner) Scenarios() []string {
	names := make([]string, 0, len(r.scenarios))
	for _, s := range r.scenarios {
		names = append(names, s.Name)
	}
	return names
}

// Run executes every scenario matching filters and returns one result each.
// A cancelled ctx stops the run; remaining scenarios are not reported.
func (r *Runner) Run(ctx context.Context, filters []string) []models.ScenarioResult {
	var results []models.ScenarioResult

	for _, scenario := range r.scenarios {
		if !Match(scenario.Name, filters) {
			continue
		}
		if ctx.Err() != nil {
			r.logger.Warn().Str("scenario", scenario.Name).Msg("Run cancelled, stopping")
			break
		}

		r.logger.Info().Str("scenario", scenario.Name).Msg("Scenario starting")
		result := r.runOne(ctx, scenario)

		event := r.logger.Info()
		if result.Status == models.ScenarioFailed || result.Status == models.ScenarioError {
			event = r.logger.Error()
		}
		event.
			Str("scenario", result.Name).
			Str("status", string(result.Status)).
			Dur("duration", result.Duration).
			Str("message", result.Message).
			Msg("Scenario finished")

		results = append(results, result)
	}

	return results
}

// runOne opens a session, runs scenario under the scenario timeout and closes the session
func (r *Runner) runOne(ctx context.Context, scenario Scenario) (result models.ScenarioResult) {
	start := time.Now()
	artifacts := NewArtifacts(r.config.Report.ArtifactsDir)
	result = models.ScenarioResult{Name: scenario.Name, Group: scenario.Group}

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error().
				Str("scenario", scenario.Name).
				Str("panic", fmt.Sprintf("%v", rec)).
				Str("stack", common.GetStackTrace()).
				Msg("Recovered from panic in scenario")
			result.Status = models.ScenarioError
			result.Message = fmt.Sprintf("panic: %v", rec)
		}
		result.Duration = time.Since(start)
		result.Artifacts = cleanPaths(artifacts.Files())
	}()

	if timeout := r.config.Browser.ScenarioTimeout.Duration; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	session, err := r.newSession(ctx)
	if err != nil {
		result.Status = models.ScenarioError
		result.Message = fmt.Sprintf("failed to start browser: %v", err)
		return result
	}
	if session != nil {
		defer session.Close()
	}

	env := &Env{
		Session:    session,
		Config:     r.config,
		Logger:     r.logger,
		Similarity: r.similarity,
		Artifacts:  artifacts,
	}

	err = scenario.Run(ctx, env)
	result.Status = Classify(err)
	if err != nil {
		result.Message = err.Error()
	}
	return result
}

func cleanPaths(paths []string) []string {
	for i, p := range paths {
		paths[i] = filepath.Clean(p)
	}
	return paths
}
