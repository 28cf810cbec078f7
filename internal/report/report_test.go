package report

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/docsprobe/internal/common"
	"github.com/ternarybob/docsprobe/internal/models"
)

func sampleRun(artifacts ...string) *models.Run {
	start := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	run := &models.Run{
		ID:         "run-1",
		Site:       "https://react.dev/",
		StartedAt:  start,
		FinishedAt: start.Add(95 * time.Second),
		Results: []models.ScenarioResult{
			{Name: "accessibility/tab-navigation", Group: "accessibility", Status: models.ScenarioPassed, Duration: 12 * time.Second},
			{Name: "language/switcher", Group: "language", Status: models.ScenarioFailed, Duration: 40 * time.Second,
				Message: "assertion failed: problems found for: Klingon (tlh) | Latin (404 page!)"},
			{Name: "language/similarity", Group: "language", Status: models.ScenarioSkipped, Message: "skipped: no embedding API key configured"},
			{Name: "layout/breakpoints", Group: "layout", Status: models.ScenarioPassed, Duration: 5 * time.Second, Artifacts: artifacts},
		},
	}
	run.Summarize()
	return run
}

// writePNG creates a small solid image at path
func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 20, G: 120, B: 220, A: 255})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestBuildMarkdown(t *testing.T) {
	markdown := BuildMarkdown(sampleRun("screenshot_mobile.png", "similarity_source.md"))

	assert.True(t, strings.HasPrefix(markdown, "# docsprobe run run-1\n"))
	assert.Contains(t, markdown, "- **Site:** https://react.dev/")
	assert.Contains(t, markdown, "- **Duration:** 1m35s")
	assert.Contains(t, markdown, "- **Result:** FAILED")
	assert.Contains(t, markdown, "| 2 | 1 | 0 | 1 |")
	assert.Contains(t, markdown, "| language/switcher | failed | 40s |")
	assert.Contains(t, markdown, "### language/similarity")
	assert.Contains(t, markdown, "Klingon (tlh) | Latin (404 page!)")
	assert.Contains(t, markdown, "## Artifacts")
	assert.Contains(t, markdown, "- `screenshot_mobile.png`")
}

func TestBuildMarkdown_PassingRunWithoutArtifacts(t *testing.T) {
	run := &models.Run{ID: "ok", Site: "https://react.dev/", StartedAt: time.Now()}
	run.Results = []models.ScenarioResult{{Name: "layout/header", Status: models.ScenarioPassed}}
	run.Summarize()

	markdown := BuildMarkdown(run)
	assert.Contains(t, markdown, "- **Result:** PASSED")
	assert.NotContains(t, markdown, "## Artifacts")
}

func TestScreenshots(t *testing.T) {
	assert.Equal(t, []string{"a.png", "dir/B.PNG"}, Screenshots([]string{"a.png", "b.md", "dir/B.PNG", "c"}))
	assert.Nil(t, Screenshots(nil))
}

func TestRenderHTML(t *testing.T) {
	page, err := RenderHTML("report <1>", BuildMarkdown(sampleRun()))
	require.NoError(t, err)

	html := string(page)
	assert.Contains(t, html, "<title>report &lt;1&gt;</title>")
	assert.Contains(t, html, "<table>")
	assert.Contains(t, html, "<td>language/switcher</td>")
	assert.Contains(t, html, "<h3")
	assert.True(t, strings.HasSuffix(html, "</html>\n"))
}

func TestRenderPDF(t *testing.T) {
	tests := []struct {
		name     string
		markdown string
	}{
		{"Empty", ""},
		{"Run report", BuildMarkdown(sampleRun())},
		{"Styling and code", "Normal **Bold** *Italic* `code`\n\n```\nline one\nline two\n```\n\n- one\n- two"},
		{"Non latin text", "# 日本語\n\nFrançais"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := RenderPDF(tt.markdown, nil)
			require.NoError(t, err)
			require.NotEmpty(t, data)
			assert.Equal(t, "%PDF", string(data[:4]))
		})
	}
}

func TestRenderPDF_ScreenshotAppendix(t *testing.T) {
	dir := t.TempDir()
	mobile := filepath.Join(dir, "screenshot_mobile.png")
	desktop := filepath.Join(dir, "screenshot_desktop.png")
	writePNG(t, mobile, 75, 133)
	writePNG(t, desktop, 192, 108)

	without, err := RenderPDF("# Report", nil)
	require.NoError(t, err)

	with, err := RenderPDF("# Report", []string{mobile, desktop, filepath.Join(dir, "missing.png")})
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(with[:4]))
	assert.Greater(t, len(with), len(without))
}

func TestRenderPDF_SkipsUnreadableScreenshot(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "broken.png")
	require.NoError(t, os.WriteFile(bad, []byte("not a png"), 0644))

	data, err := RenderPDF("# Report", []string{bad})
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data[:4]))
}

func TestWriter_Write(t *testing.T) {
	shot := filepath.Join(t.TempDir(), "screenshot_laptop.png")
	writePNG(t, shot, 120, 80)

	config := common.ReportConfig{OutputDir: t.TempDir(), Markdown: true, HTML: true, PDF: true}
	w := NewWriter(config, arbor.NewLogger())
	run := sampleRun(shot)

	written, err := w.Write(run)
	require.NoError(t, err)

	dir := filepath.Join(config.OutputDir, "run-1")
	assert.Equal(t, dir, w.Dir(run))
	assert.Equal(t, []string{
		filepath.Join(dir, "run.json"),
		filepath.Join(dir, "report.md"),
		filepath.Join(dir, "report.html"),
		filepath.Join(dir, "report.pdf"),
	}, written)
	for _, path := range written {
		assert.FileExists(t, path)
	}
}

func TestWriter_OnlyJSONWhenFormatsDisabled(t *testing.T) {
	config := common.ReportConfig{OutputDir: t.TempDir()}
	written, err := NewWriter(config, arbor.NewLogger()).Write(sampleRun())
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(config.OutputDir, "run-1", "run.json")}, written)
}
