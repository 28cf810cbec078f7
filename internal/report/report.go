package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/docsprobe/internal/common"
	"github.com/ternarybob/docsprobe/internal/models"
)

// Writer renders a finished run into the formats enabled in config
type Writer struct {
	config common.ReportConfig
	logger arbor.ILogger
}

// NewWriter creates a report Writer
func NewWriter(config common.ReportConfig, logger arbor.ILogger) *Writer {
	return &Writer{config: config, logger: logger}
}

// Dir is the directory reports for run are written into
func (w *Writer) Dir(run *models.Run) string {
	return filepath.Join(w.config.OutputDir, run.ID)
}

// Write renders run.json plus the enabled markdown, HTML and PDF reports.
// Returns the paths written.
func (w *Writer) Write(run *models.Run) ([]string, error) {
	dir := w.Dir(run)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}

	var written []string

	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode run: %w", err)
	}
	jsonPath := filepath.Join(dir, "run.json")
	if err := os.WriteFile(jsonPath, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write run.json: %w", err)
	}
	written = append(written, jsonPath)

	markdown := BuildMarkdown(run)

	if w.config.Markdown {
		path := filepath.Join(dir, "report.md")
		if err := os.WriteFile(path, []byte(markdown), 0644); err != nil {
			return written, fmt.Errorf("failed to write markdown report: %w", err)
		}
		written = append(written, path)
	}

	if w.config.HTML {
		path := filepath.Join(dir, "report.html")
		if err := WriteHTML(path, markdown); err != nil {
			return written, err
		}
		written = append(written, path)
	}

	if w.config.PDF {
		path := filepath.Join(dir, "report.pdf")
		if err := WritePDF(path, markdown, Screenshots(run.Artifacts())); err != nil {
			return written, err
		}
		written = append(written, path)
	}

	w.logger.Info().Str("dir", dir).Int("files", len(written)).Msg("Reports written")
	return written, nil
}
