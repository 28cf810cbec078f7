// uitest_context.go - Shared UI test context and helpers for the live suite.
// NOTE: This is NOT a test file - it contains shared test infrastructure.

package ui

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/docsprobe/internal/browser"
	"github.com/ternarybob/docsprobe/internal/checks"
	"github.com/ternarybob/docsprobe/internal/common"
)

// DefaultTestTimeout bounds a single UI test
const DefaultTestTimeout = 3 * time.Minute

// UITestContext holds shared state for UI tests: one browser per test
type UITestContext struct {
	T          *testing.T
	Ctx        context.Context
	Config     *common.Config
	Logger     arbor.ILogger
	Session    *browser.Session
	Artifacts  *checks.Artifacts
	ResultsDir string

	// Internal cleanup functions
	cleanup []func()

	// Screenshot counter for sequential naming
	screenshotNum int
}

// NewUITestContext creates a browser session against the configured site.
// Skips the test when the live suite cannot run.
func NewUITestContext(t *testing.T, timeout time.Duration) *UITestContext {
	t.Helper()
	if skipReason != "" {
		t.Skip(skipReason)
	}
	config, err := LoadTestConfig()
	if err != nil {
		t.Fatalf("Failed to load test configuration: %v", err)
	}
	if config.Browser.ExecPath == "" && !chromeInstalled() {
		t.Skip("Chrome not installed")
	}

	resultsDir := filepath.Join("..", "results", sanitizeName(t.Name()))
	if err := os.MkdirAll(resultsDir, 0755); err != nil {
		t.Fatalf("Failed to create results directory: %v", err)
	}
	config.Report.ArtifactsDir = resultsDir

	logger := arbor.NewLogger()

	ctx, cancelTimeout := context.WithTimeout(context.Background(), timeout)

	session, err := browser.NewSession(ctx, config.Browser, logger)
	if err != nil {
		cancelTimeout()
		t.Fatalf("Failed to start browser: %v", err)
	}

	utc := &UITestContext{
		T:          t,
		Ctx:        ctx,
		Config:     config,
		Logger:     logger,
		Session:    session,
		Artifacts:  checks.NewArtifacts(resultsDir),
		ResultsDir: resultsDir,
	}

	// Cleanup runs in reverse order (LIFO)
	utc.cleanup = append(utc.cleanup, cancelTimeout)
	utc.cleanup = append(utc.cleanup, session.Close)

	return utc
}

// Cleanup releases all resources. Call this with defer.
func (utc *UITestContext) Cleanup() {
	if utc.T.Failed() {
		utc.Log("=== TEST RESULT: FAIL ===")
		if err := utc.Screenshot("failure"); err != nil {
			utc.Log("Failed to capture failure screenshot: %v", err)
		}
	} else {
		utc.Log("=== TEST RESULT: PASS ===")
	}

	for i := len(utc.cleanup) - 1; i >= 0; i-- {
		utc.cleanup[i]()
	}
}

// Log writes a message to the test log
func (utc *UITestContext) Log(format string, args ...interface{}) {
	utc.T.Logf(format, args...)
}

// Screenshot captures the viewport with a sequential number prefix
func (utc *UITestContext) Screenshot(name string) error {
	utc.screenshotNum++
	path := filepath.Join(utc.ResultsDir, fmt.Sprintf("%02d_%s.png", utc.screenshotNum, sanitizeName(name)))
	return utc.Session.Screenshot(path)
}

// OpenHome navigates to the site root
func (utc *UITestContext) OpenHome() {
	utc.T.Helper()
	if err := utc.Session.Navigate(utc.Config.Site.URL); err != nil {
		utc.T.Fatalf("Failed to open %s: %v", utc.Config.Site.URL, err)
	}
}

// Env exposes the context as a scenario environment
func (utc *UITestContext) Env(similarity checks.SimilarityScorer) *checks.Env {
	return &checks.Env{
		Session:    utc.Session,
		Config:     utc.Config,
		Logger:     utc.Logger,
		Similarity: similarity,
		Artifacts:  utc.Artifacts,
	}
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

func sanitizeName(name string) string {
	return unsafeName.ReplaceAllString(name, "_")
}

func chromeInstalled() bool {
	for _, name := range []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "headless-shell"} {
		if _, err := exec.LookPath(name); err == nil {
			return true
		}
	}
	return false
}
