package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/docsprobe/internal/checks"
)

func TestLayout_Header(t *testing.T) {
	utc := NewUITestContext(t, DefaultTestTimeout)
	defer utc.Cleanup()
	utc.OpenHome()

	require.NoError(t, checks.NewLayoutChecker(utc.Session, utc.Config, utc.Artifacts, utc.Logger).CheckHeader())
}

func TestLayout_Footer(t *testing.T) {
	utc := NewUITestContext(t, DefaultTestTimeout)
	defer utc.Cleanup()
	utc.OpenHome()

	require.NoError(t, checks.NewLayoutChecker(utc.Session, utc.Config, utc.Artifacts, utc.Logger).CheckFooter())
}

func TestLayout_ResponsiveBreakpoints(t *testing.T) {
	utc := NewUITestContext(t, DefaultTestTimeout)
	defer utc.Cleanup()
	utc.OpenHome()

	results, err := checks.NewLayoutChecker(utc.Session, utc.Config, utc.Artifacts, utc.Logger).CheckBreakpoints()
	for _, r := range results {
		utc.Log("%s (%dx%d): scroll=%d client=%d passed=%v", r.Name, r.Width, r.Height, r.ScrollWidth, r.ClientWidth, r.Passed)
		assert.FileExists(t, r.Screenshot)
	}
	require.NoError(t, err)
	assert.Len(t, results, len(utc.Config.Layout.Breakpoints))
}
