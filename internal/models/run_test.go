package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRun_Summarize(t *testing.T) {
	run := &Run{
		Results: []ScenarioResult{
			{Name: "a", Status: ScenarioPassed, Artifacts: []string{"one.png"}},
			{Name: "b", Status: ScenarioFailed},
			{Name: "c", Status: ScenarioSkipped},
			{Name: "d", Status: ScenarioPassed, Artifacts: []string{"two.png", "three.md"}},
		},
	}

	run.Summarize()

	assert.Equal(t, 2, run.Passed)
	assert.Equal(t, 1, run.Failed)
	assert.Equal(t, 0, run.Errored)
	assert.Equal(t, 1, run.Skipped)
	assert.False(t, run.OK())
	assert.Equal(t, []string{"one.png", "two.png", "three.md"}, run.Artifacts())
}

func TestRun_OKWithSkips(t *testing.T) {
	run := &Run{Results: []ScenarioResult{{Status: ScenarioPassed}, {Status: ScenarioSkipped}}}
	run.Summarize()
	assert.True(t, run.OK())
}

func TestRun_Duration(t *testing.T) {
	start := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	run := &Run{StartedAt: start}
	assert.Equal(t, time.Duration(0), run.Duration())

	run.FinishedAt = start.Add(90 * time.Second)
	assert.Equal(t, 90*time.Second, run.Duration())
}
