package models

import (
	"time"
)

// ScenarioStatus is the outcome of one scenario
type ScenarioStatus string

const (
	ScenarioPassed  ScenarioStatus = "passed"
	ScenarioFailed  ScenarioStatus = "failed"  // Assertion or timeout
	ScenarioError   ScenarioStatus = "error"   // Driver or runtime fault
	ScenarioSkipped ScenarioStatus = "skipped" // Precondition missing (e.g. no embedding API key)
)

// ScenarioResult records one scenario execution
type ScenarioResult struct {
	Name      string         `json:"name"`
	Group     string         `json:"group"`
	Status    ScenarioStatus `json:"status"`
	Message   string         `json:"message,omitempty"`
	Duration  time.Duration  `json:"duration"`
	Artifacts []string       `json:"artifacts,omitempty"`
}

// Run is one execution of the suite against a site
type Run struct {
	ID         string           `json:"id" badgerhold:"key"`
	Site       string           `json:"site"`
	StartedAt  time.Time        `json:"started_at" badgerholdIndex:"StartedAt"`
	FinishedAt time.Time        `json:"finished_at"`
	Results    []ScenarioResult `json:"results"`
	Passed     int              `json:"passed"`
	Failed     int              `json:"failed"`
	Errored    int              `json:"errored"`
	Skipped    int              `json:"skipped"`
}

// Summarize recounts the per-status totals from Results
func (r *Run) Summarize() {
	r.Passed, r.Failed, r.Errored, r.Skipped = 0, 0, 0, 0
	for _, result := range r.Results {
		switch result.Status {
		case ScenarioPassed:
			r.Passed++
		case ScenarioFailed:
			r.Failed++
		case ScenarioError:
			r.Errored++
		case ScenarioSkipped:
			r.Skipped++
		}
	}
}

// OK reports whether no scenario failed or errored
func (r *Run) OK() bool {
	return r.Failed == 0 && r.Errored == 0
}

// Duration is the wall time of the run
func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Artifacts collects the artifacts of every scenario in run order
func (r *Run) Artifacts() []string {
	var all []string
	for _, result := range r.Results {
		all = append(all, result.Artifacts...)
	}
	return all
}
