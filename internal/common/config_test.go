package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable applyEnvOverrides reads so the host environment cannot leak in
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DOCSPROBE_SITE_URL", "DOCSPROBE_SITE_NAME", "DOCSPROBE_HEADLESS", "DOCSPROBE_NO_SANDBOX",
		"DOCSPROBE_BROWSER_EXEC_PATH", "DOCSPROBE_WAIT_TIMEOUT", "DOCSPROBE_GEMINI_API_KEY",
		"GEMINI_API_KEY", "GOOGLE_API_KEY", "DOCSPROBE_EMBED_MODEL", "DOCSPROBE_SIMILARITY_ENABLED",
		"DOCSPROBE_SIMILARITY_THRESHOLD", "DOCSPROBE_LOG_LEVEL", "DOCSPROBE_LOG_OUTPUT",
		"DOCSPROBE_BADGER_PATH", "DOCSPROBE_RESULTS_DIR", "DOCSPROBE_ARTIFACTS_DIR", "DOCSPROBE_SCHEDULE",
	} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "docsprobe.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNewDefaultConfig_MatchesSiteContract(t *testing.T) {
	config := NewDefaultConfig()

	assert.Equal(t, "https://react.dev/", config.Site.URL)
	assert.Equal(t, 60, config.Accessibility.MaxTabs)
	assert.Equal(t, 0.4, config.Language.SimilarityThreshold)
	assert.Equal(t, 1500, config.Language.MaxChars)
	assert.Equal(t, []string{"en", "fr", "ja", "ko", "zh", "es", "tr"}, config.Language.LocaleCodes)
	assert.Equal(t, 50, config.Layout.OverflowTolerancePx)
	assert.Equal(t, 10*time.Second, config.Browser.WaitTimeout.Duration)
	assert.Equal(t, "mvermlekrbm", config.Search.InvalidQuery)

	require.Len(t, config.Layout.Breakpoints, 3)
	assert.Equal(t, Breakpoint{Name: "mobile", Width: 375, Height: 667}, config.Layout.Breakpoints[0])
	assert.Equal(t, Breakpoint{Name: "laptop", Width: 1200, Height: 800}, config.Layout.Breakpoints[1])
	assert.Equal(t, Breakpoint{Name: "desktop", Width: 1920, Height: 1080}, config.Layout.Breakpoints[2])

	require.NoError(t, config.Validate())
}

func TestLoadFromFiles_NoFilesUsesDefaults(t *testing.T) {
	clearEnv(t)

	config, err := LoadFromFiles()
	require.NoError(t, err)
	assert.Equal(t, NewDefaultConfig().Site, config.Site)
}

func TestLoadFromFiles_LaterFilesOverride(t *testing.T) {
	clearEnv(t)

	base := writeConfig(t, `
[site]
url = "https://example.org/"
name = "example.org"

[browser]
wait_timeout = "3s"
`)
	override := writeConfig(t, `
[browser]
wait_timeout = "7s"

[layout]
overflow_tolerance_px = 20

[[layout.breakpoints]]
name = "tablet"
width = 768
height = 1024
`)

	config, err := LoadFromFiles(base, override)
	require.NoError(t, err)

	assert.Equal(t, "https://example.org/", config.Site.URL)
	assert.Equal(t, 7*time.Second, config.Browser.WaitTimeout.Duration)
	assert.Equal(t, 20, config.Layout.OverflowTolerancePx)
	require.Len(t, config.Layout.Breakpoints, 1)
	assert.Equal(t, "tablet", config.Layout.Breakpoints[0].Name)
	// Untouched sections keep their defaults
	assert.Equal(t, 60, config.Accessibility.MaxTabs)
}

func TestLoadFromFiles_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("DOCSPROBE_SITE_URL", "https://env.example/")
	t.Setenv("DOCSPROBE_HEADLESS", "false")
	t.Setenv("DOCSPROBE_SIMILARITY_THRESHOLD", "0.55")
	t.Setenv("DOCSPROBE_LOG_OUTPUT", "stdout, file")
	t.Setenv("GEMINI_API_KEY", "fallback-key")

	path := writeConfig(t, `
[site]
url = "https://file.example/"
`)

	config, err := LoadFromFiles(path)
	require.NoError(t, err)

	assert.Equal(t, "https://env.example/", config.Site.URL)
	assert.False(t, config.Browser.Headless)
	assert.Equal(t, 0.55, config.Language.SimilarityThreshold)
	assert.Equal(t, []string{"stdout", "file"}, config.Logging.Output)
	assert.Equal(t, "fallback-key", config.Similarity.APIKey)
}

func TestLoadFromFiles_PrimaryAPIKeyWins(t *testing.T) {
	clearEnv(t)
	t.Setenv("DOCSPROBE_GEMINI_API_KEY", "primary")
	t.Setenv("GOOGLE_API_KEY", "secondary")

	config, err := LoadFromFiles()
	require.NoError(t, err)
	assert.Equal(t, "primary", config.Similarity.APIKey)
}

func TestLoadFromFiles_Errors(t *testing.T) {
	clearEnv(t)

	_, err := LoadFromFiles(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")

	bad := writeConfig(t, `[browser]
wait_timeout = "soon"
`)
	_, err = LoadFromFiles(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestValidate_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing site url", func(c *Config) { c.Site.URL = "" }},
		{"relative site url", func(c *Config) { c.Site.URL = "react.dev" }},
		{"zero max tabs", func(c *Config) { c.Accessibility.MaxTabs = 0 }},
		{"no locale codes", func(c *Config) { c.Language.LocaleCodes = nil }},
		{"threshold above one", func(c *Config) { c.Language.SimilarityThreshold = 1.5 }},
		{"no breakpoints", func(c *Config) { c.Layout.Breakpoints = nil }},
		{"zero width breakpoint", func(c *Config) { c.Layout.Breakpoints[0].Width = 0 }},
		{"duplicate breakpoint", func(c *Config) { c.Layout.Breakpoints[1].Name = c.Layout.Breakpoints[0].Name }},
		{"zero wait timeout", func(c *Config) { c.Browser.WaitTimeout = Dur(0) }},
		{"unknown log level", func(c *Config) { c.Logging.Level = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := NewDefaultConfig()
			tt.mutate(config)
			assert.Error(t, config.Validate())
		})
	}
}

func TestApplyFlagOverrides(t *testing.T) {
	config := NewDefaultConfig()

	require.NoError(t, ApplyFlagOverrides(config, "", ""))
	assert.True(t, config.Browser.Headless)
	assert.Empty(t, config.Scheduler.Schedule)

	require.NoError(t, ApplyFlagOverrides(config, "false", "@every 1h"))
	assert.False(t, config.Browser.Headless)
	assert.Equal(t, "@every 1h", config.Scheduler.Schedule)

	assert.Error(t, ApplyFlagOverrides(config, "maybe", ""))
}

func TestDuration_TextRoundTrip(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte(" 1500ms ")))
	assert.Equal(t, 1500*time.Millisecond, d.Duration)

	text, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1.5s", string(text))

	assert.Error(t, d.UnmarshalText([]byte("later")))
}
