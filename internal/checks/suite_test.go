package checks

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/docsprobe/internal/browser"
	"github.com/ternarybob/docsprobe/internal/common"
	"github.com/ternarybob/docsprobe/internal/models"
)

// noSession lets scenarios that never touch the browser run without Chrome
func noSession(ctx context.Context) (*browser.Session, error) {
	return nil, nil
}

func newTestRunner(t *testing.T, scenarios ...Scenario) *Runner {
	t.Helper()
	config := common.NewDefaultConfig()
	config.Report.ArtifactsDir = t.TempDir()
	return NewRunner(config, nil, arbor.NewLogger()).
		WithScenarios(scenarios).
		WithSessionFactory(noSession)
}

func TestDefaultScenarios_Names(t *testing.T) {
	var names []string
	for _, s := range DefaultScenarios() {
		names = append(names, s.Name)
		assert.NotEmpty(t, s.Group, s.Name)
		assert.NotNil(t, s.Run, s.Name)
	}

	assert.Equal(t, []string{
		"accessibility/tab-navigation",
		"language/switcher",
		"language/similarity",
		"theme/dark-mode-persistence",
		"search/results",
		"search/first-result",
		"search/recent",
		"search/favorite",
		"search/no-results",
		"layout/header",
		"layout/footer",
		"layout/breakpoints",
	}, names)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want models.ScenarioStatus
	}{
		{"nil", nil, models.ScenarioPassed},
		{"assertion", failf("header element was not found"), models.ScenarioFailed},
		{"wrapped timeout", fmt.Errorf("search button: %w", ErrTimeout), models.ScenarioFailed},
		{"content drift", fmt.Errorf("%w: 0.12 < 0.40", ErrContentDrift), models.ScenarioFailed},
		{"link errors", LinkErrors{"Klingon (tlh)"}, models.ScenarioFailed},
		{"joined breakpoints", errors.Join(failf("mobile"), failf("laptop")), models.ScenarioFailed},
		{"skipped", fmt.Errorf("%w: no key", ErrSkipped), models.ScenarioSkipped},
		{"driver fault", errors.New("websocket closed"), models.ScenarioError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestMatch(t *testing.T) {
	assert.True(t, Match("search/recent", nil))
	assert.True(t, Match("search/recent", []string{"search"}))
	assert.True(t, Match("layout/breakpoints", []string{"theme", "breakpoints"}))
	assert.False(t, Match("layout/header", []string{"search"}))
	assert.False(t, Match("layout/header", []string{""}))
}

func TestRunner_RunClassifiesAndFilters(t *testing.T) {
	var ran []string
	record := func(err error) func(ctx context.Context, env *Env) error {
		return func(ctx context.Context, env *Env) error {
			ran = append(ran, "x")
			return err
		}
	}

	r := newTestRunner(t,
		Scenario{Name: "group/pass", Group: "group", Run: record(nil)},
		Scenario{Name: "group/fail", Group: "group", Run: record(failf("nope"))},
		Scenario{Name: "group/error", Group: "group", Run: record(errors.New("boom"))},
		Scenario{Name: "other/skip", Group: "other", Run: record(ErrSkipped)},
	)

	results := r.Run(context.Background(), []string{"group/"})
	require.Len(t, results, 3)
	assert.Len(t, ran, 3)

	assert.Equal(t, models.ScenarioPassed, results[0].Status)
	assert.Empty(t, results[0].Message)
	assert.Equal(t, models.ScenarioFailed, results[1].Status)
	assert.Contains(t, results[1].Message, "nope")
	assert.Equal(t, models.ScenarioError, results[2].Status)
	assert.Equal(t, "boom", results[2].Message)

	for _, result := range results {
		assert.Equal(t, "group", result.Group)
		assert.GreaterOrEqual(t, result.Duration, time.Duration(0))
	}
}

func TestRunner_CollectsArtifacts(t *testing.T) {
	r := newTestRunner(t, Scenario{
		Name: "layout/snapshot",
		Run: func(ctx context.Context, env *Env) error {
			_, err := env.Artifacts.WriteFile("snapshot.md", []byte("# page"))
			return err
		},
	})

	results := r.Run(context.Background(), nil)
	require.Len(t, results, 1)
	assert.Equal(t, models.ScenarioPassed, results[0].Status)
	require.Len(t, results[0].Artifacts, 1)
	assert.FileExists(t, results[0].Artifacts[0])
}

func TestRunner_RecoversPanic(t *testing.T) {
	r := newTestRunner(t,
		Scenario{Name: "bad/panic", Run: func(ctx context.Context, env *Env) error { panic("kaboom") }},
		Scenario{Name: "good/after", Run: func(ctx context.Context, env *Env) error { return nil }},
	)

	results := r.Run(context.Background(), nil)
	require.Len(t, results, 2)
	assert.Equal(t, models.ScenarioError, results[0].Status)
	assert.Equal(t, "panic: kaboom", results[0].Message)
	assert.Equal(t, models.ScenarioPassed, results[1].Status)
}

func TestRunner_SessionFailureIsError(t *testing.T) {
	called := false
	r := newTestRunner(t, Scenario{
		Name: "any/scenario",
		Run: func(ctx context.Context, env *Env) error {
			called = true
			return nil
		},
	}).WithSessionFactory(func(ctx context.Context) (*browser.Session, error) {
		return nil, errors.New("chrome not found")
	})

	results := r.Run(context.Background(), nil)
	require.Len(t, results, 1)
	assert.False(t, called)
	assert.Equal(t, models.ScenarioError, results[0].Status)
	assert.Contains(t, results[0].Message, "chrome not found")
}

func TestRunner_AppliesScenarioTimeout(t *testing.T) {
	var deadline time.Time
	r := newTestRunner(t, Scenario{
		Name: "any/deadline",
		Run: func(ctx context.Context, env *Env) error {
			var ok bool
			deadline, ok = ctx.Deadline()
			if !ok {
				return failf("no deadline")
			}
			return nil
		},
	})
	r.config.Browser.ScenarioTimeout = common.Dur(time.Minute)

	results := r.Run(context.Background(), nil)
	require.Len(t, results, 1)
	assert.Equal(t, models.ScenarioPassed, results[0].Status)
	assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)
}

func TestRunner_StopsWhenCancelled(t *testing.T) {
	r := newTestRunner(t, Scenario{Name: "any/one", Run: func(ctx context.Context, env *Env) error { return nil }})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Empty(t, r.Run(ctx, nil))
}

func TestRunner_SimilarityWithoutScorerIsSkipped(t *testing.T) {
	config := common.NewDefaultConfig()
	config.Report.ArtifactsDir = t.TempDir()
	r := NewRunner(config, nil, arbor.NewLogger()).WithSessionFactory(noSession)

	results := r.Run(context.Background(), []string{"language/similarity"})
	require.Len(t, results, 1)
	assert.Equal(t, models.ScenarioSkipped, results[0].Status)
	assert.Contains(t, results[0].Message, "no embedding API key")
}

func TestRunner_Scenarios(t *testing.T) {
	r := NewRunner(common.NewDefaultConfig(), nil, arbor.NewLogger())
	assert.Len(t, r.Scenarios(), 12)
}
