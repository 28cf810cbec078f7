package checks

import (
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/docsprobe/internal/browser"
	"github.com/ternarybob/docsprobe/internal/common"
)

// SearchChecker drives the DocSearch panel
type SearchChecker struct {
	session *browser.Session
	site    common.SiteConfig
	config  common.SearchConfig
	logger  arbor.ILogger
}

// NewSearchChecker creates a SearchChecker
func NewSearchChecker(session *browser.Session, config *common.Config, logger arbor.ILogger) *SearchChecker {
	return &SearchChecker{
		session: session,
		site:    config.Site,
		config:  config.Search,
		logger:  logger,
	}
}

// ContainsFold reports whether any of texts contains query, ignoring case
func ContainsFold(texts []string, query string) bool {
	q := strings.ToLower(query)
	for _, text := range texts {
		if strings.Contains(strings.ToLower(text), q) {
			return true
		}
	}
	return false
}

// OpenSearch shrinks the viewport and opens the search panel
func (c *SearchChecker) OpenSearch() error {
	if err := c.session.SetViewport(c.config.ViewportWidth, c.config.ViewportHeight); err != nil {
		return err
	}
	if err := c.session.WaitVisible(c.config.ButtonSelector); err != nil {
		return fmt.Errorf("search button is not visible: %w", err)
	}
	return c.session.Click(c.config.ButtonSelector)
}

// EnterQuery types query into the search input
func (c *SearchChecker) EnterQuery(query string) error {
	return c.session.SendKeys(c.config.InputSelector, query)
}

// CheckResults asserts at least one result title is shown for query
func (c *SearchChecker) CheckResults(query string) (int, error) {
	if err := c.session.WaitPresent(c.config.ResultTitleSelector); err != nil {
		return 0, fmt.Errorf("no results found for query %q: %w", query, err)
	}
	n, err := c.session.Count(c.config.ResultTitleSelector)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, failf("no results found for query %q", query)
	}
	c.logger.Info().Str("query", query).Int("results", n).Msg("Search returned results")
	return n, nil
}

// ClickFirstResult clicks the first hit and waits for the URL to change.
// Returns the hit text and the new URL.
func (c *SearchChecker) ClickFirstResult() (string, string, error) {
	initial, err := c.session.Location()
	if err != nil {
		return "", "", err
	}
	if err := c.session.WaitVisible(c.config.ResultItemSelector); err != nil {
		return "", "", err
	}
	texts, err := c.session.Texts(c.config.ResultItemSelector)
	if err != nil {
		return "", "", err
	}
	text := ""
	if len(texts) > 0 {
		text = texts[0]
	}
	c.logger.Info().Str("text", text).Msg("First result")

	if err := c.session.Click(c.config.ResultItemSelector); err != nil {
		return text, "", err
	}

	location, err := c.session.WaitLocation("clicking result did not navigate", func(loc string) bool {
		return loc != initial
	})
	if err != nil {
		return text, location, err
	}
	if common.SameURL(location, c.site.URL) {
		return text, location, failf("clicking result did not navigate to a new page (still %s)", location)
	}
	return text, location, nil
}

// SearchAndOpenFirst runs a query and follows its first result
func (c *SearchChecker) SearchAndOpenFirst(query string) (string, error) {
	if err := c.OpenSearch(); err != nil {
		return "", err
	}
	if err := c.EnterQuery(query); err != nil {
		return "", err
	}
	_, location, err := c.ClickFirstResult()
	return location, err
}

// CheckRecent reopens search and asserts query is listed under recent searches
func (c *SearchChecker) CheckRecent(query string) error {
	if err := c.OpenSearch(); err != nil {
		return err
	}
	texts, err := c.itemTexts(c.config.RecentSelector)
	if err != nil {
		return fmt.Errorf("recent searches did not appear: %w", err)
	}
	if !ContainsFold(texts, query) {
		return failf("query %q was not found in Recent Searches", query)
	}
	return nil
}

// SaveFavorite reopens search and saves the recent entry matching query
func (c *SearchChecker) SaveFavorite(query string) error {
	if err := c.OpenSearch(); err != nil {
		return err
	}
	if _, err := c.itemTexts(c.config.RecentSelector); err != nil {
		return fmt.Errorf("recent searches did not appear: %w", err)
	}

	outcome, err := c.clickItemButton(c.config.RecentSelector, c.config.SaveButtonSelector, query)
	if err != nil {
		return err
	}
	switch outcome {
	case "missing":
		return failf("query %q was not found in Recent Searches, cannot save", query)
	case "nobutton":
		return failf("recent entry for %q has no save button", query)
	}
	c.logger.Info().Str("query", query).Msg("Saved search to favorites")
	return nil
}

// RemoveFavorite removes the favorite matching query and waits until it is gone
func (c *SearchChecker) RemoveFavorite(query string) error {
	if _, err := c.itemTexts(c.config.FavoriteSelector); err != nil {
		return fmt.Errorf("favorite searches did not appear: %w", err)
	}

	outcome, err := c.clickItemButton(c.config.FavoriteSelector, c.config.RemoveButtonSelector, query)
	if err != nil {
		return err
	}
	switch outcome {
	case "missing":
		return failf("query %q not found in Favorites, cannot remove", query)
	case "nobutton":
		return failf("favorite entry for %q has no remove button", query)
	}

	expr := fmt.Sprintf(`!Array.from(document.querySelectorAll(%s)).some(el => (el.innerText || el.textContent || '').toLowerCase().includes(%s))`,
		browser.JSString(c.config.FavoriteSelector), browser.JSString(strings.ToLower(query)))
	if err := c.session.Poll(expr); err != nil {
		return fmt.Errorf("query %q still listed in Favorites after removal: %w", query, err)
	}
	c.logger.Info().Str("query", query).Msg("Removed search from favorites")
	return nil
}

// CheckNoResults searches for an unknown term and expects the "no results" title
func (c *SearchChecker) CheckNoResults() error {
	if err := c.OpenSearch(); err != nil {
		return err
	}
	if err := c.EnterQuery(c.config.InvalidQuery); err != nil {
		return err
	}
	if err := c.session.WaitText(c.config.NoResultTitleSelector, c.config.NoResultText); err != nil {
		return err
	}
	texts, err := c.session.Texts(c.config.NoResultTitleSelector)
	if err != nil {
		return err
	}
	for _, text := range texts {
		if strings.Contains(text, c.config.NoResultText) {
			return nil
		}
	}
	return failf("expected %q message was not found", c.config.NoResultText)
}

// itemTexts waits for at least one list item and returns all their texts
func (c *SearchChecker) itemTexts(selector string) ([]string, error) {
	if err := c.session.WaitPresent(selector); err != nil {
		return nil, err
	}
	return c.session.Texts(selector)
}

// clickItemButton clicks buttonSelector inside the first item whose text contains query.
// Returns "clicked", "missing" (no matching item) or "nobutton".
func (c *SearchChecker) clickItemButton(itemSelector, buttonSelector, query string) (string, error) {
	var outcome string
	expr := fmt.Sprintf(`(() => {
		for (const item of document.querySelectorAll(%s)) {
			if (!(item.innerText || item.textContent || '').toLowerCase().includes(%s)) continue;
			const button = item.querySelector(%s);
			if (!button) return 'nobutton';
			button.click();
			return 'clicked';
		}
		return 'missing';
	})()`, browser.JSString(itemSelector), browser.JSString(strings.ToLower(query)), browser.JSString(buttonSelector))
	if err := c.session.Evaluate(expr, &outcome); err != nil {
		return "", err
	}
	return outcome, nil
}
