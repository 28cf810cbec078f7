package report

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ternarybob/docsprobe/internal/models"
)

// BuildMarkdown renders a run as a markdown document: header, summary table,
// one section per scenario and the artifact list.
func BuildMarkdown(run *models.Run) string {
	var b strings.Builder

	verdict := "PASSED"
	if !run.OK() {
		verdict = "FAILED"
	}

	fmt.Fprintf(&b, "# docsprobe run %s\n\n", run.ID)
	fmt.Fprintf(&b, "- **Site:** %s\n", run.Site)
	fmt.Fprintf(&b, "- **Started:** %s\n", run.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "- **Duration:** %s\n", formatDuration(run.Duration()))
	fmt.Fprintf(&b, "- **Result:** %s\n\n", verdict)

	b.WriteString("## Summary\n\n")
	b.WriteString("| Passed | Failed | Errors | Skipped |\n")
	b.WriteString("|--------|--------|--------|---------|\n")
	fmt.Fprintf(&b, "| %d | %d | %d | %d |\n\n", run.Passed, run.Failed, run.Errored, run.Skipped)

	b.WriteString("| Scenario | Status | Duration |\n")
	b.WriteString("|----------|--------|----------|\n")
	for _, result := range run.Results {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", escapeCell(result.Name), result.Status, formatDuration(result.Duration))
	}
	b.WriteString("\n")

	if len(run.Results) > 0 {
		b.WriteString("## Scenarios\n")
		for _, result := range run.Results {
			fmt.Fprintf(&b, "\n### %s\n\n", result.Name)
			fmt.Fprintf(&b, "**Status:** %s (%s)\n", result.Status, formatDuration(result.Duration))
			if result.Message != "" {
				fmt.Fprintf(&b, "\n```\n%s\n```\n", strings.TrimSpace(result.Message))
			}
		}
		b.WriteString("\n")
	}

	artifacts := run.Artifacts()
	if len(artifacts) > 0 {
		b.WriteString("## Artifacts\n\n")
		for _, path := range artifacts {
			fmt.Fprintf(&b, "- `%s`\n", filepath.ToSlash(path))
		}
	}

	return b.String()
}

// Screenshots filters paths down to PNG images
func Screenshots(paths []string) []string {
	var shots []string
	for _, p := range paths {
		if strings.EqualFold(filepath.Ext(p), ".png") {
			shots = append(shots, p)
		}
	}
	return shots
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(100 * time.Millisecond).String()
}
