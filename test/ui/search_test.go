package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/docsprobe/internal/checks"
	"github.com/ternarybob/docsprobe/internal/common"
)

func newSearchChecker(t *testing.T) (*UITestContext, *checks.SearchChecker) {
	utc := NewUITestContext(t, DefaultTestTimeout)
	return utc, checks.NewSearchChecker(utc.Session, utc.Config, utc.Logger)
}

func TestSearch_Results(t *testing.T) {
	utc, c := newSearchChecker(t)
	defer utc.Cleanup()
	utc.OpenHome()

	query := utc.Config.Search.Query
	require.NoError(t, c.OpenSearch())
	require.NoError(t, c.EnterQuery(query))

	n, err := c.CheckResults(query)
	require.NoError(t, err)
	assert.Greater(t, n, 0)
}

func TestSearch_FirstResultNavigates(t *testing.T) {
	utc, c := newSearchChecker(t)
	defer utc.Cleanup()
	utc.OpenHome()

	location, err := c.SearchAndOpenFirst(utc.Config.Search.Query)
	require.NoError(t, err)
	assert.False(t, common.SameURL(location, utc.Config.Site.URL), "still on %s", location)
}

func TestSearch_RecentSearches(t *testing.T) {
	utc, c := newSearchChecker(t)
	defer utc.Cleanup()
	utc.OpenHome()

	query := utc.Config.Search.Query
	_, err := c.SearchAndOpenFirst(query)
	require.NoError(t, err)
	require.NoError(t, c.CheckRecent(query))
}

func TestSearch_FavoriteSaveAndRemove(t *testing.T) {
	utc, c := newSearchChecker(t)
	defer utc.Cleanup()
	utc.OpenHome()

	query := utc.Config.Search.Query
	_, err := c.SearchAndOpenFirst(query)
	require.NoError(t, err)
	require.NoError(t, c.SaveFavorite(query))
	require.NoError(t, c.RemoveFavorite(query))
}

func TestSearch_NoResults(t *testing.T) {
	utc, c := newSearchChecker(t)
	defer utc.Cleanup()
	utc.OpenHome()

	require.NoError(t, c.CheckNoResults())
}
