package checks

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/docsprobe/internal/browser"
	"github.com/ternarybob/docsprobe/internal/common"
)

// SimilarityScorer scores how close two texts are in meaning
type SimilarityScorer interface {
	Similarity(ctx context.Context, a, b string) (float64, error)
	Model() string
}

// SimilarityResult records one translation similarity check
type SimilarityResult struct {
	SourceURL  string  `json:"source_url"`
	TargetURL  string  `json:"target_url"`
	SourceText string  `json:"source_text"`
	TargetText string  `json:"target_text"`
	Score      float64 `json:"score"`
	Threshold  float64 `json:"threshold"`
	Model      string  `json:"model"`
}

// LanguageChecker validates the translations menu and translated content
type LanguageChecker struct {
	session   *browser.Session
	site      common.SiteConfig
	config    common.LanguageConfig
	artifacts *Artifacts
	logger    arbor.ILogger
}

// NewLanguageChecker creates a LanguageChecker
func NewLanguageChecker(session *browser.Session, config *common.Config, artifacts *Artifacts, logger arbor.ILogger) *LanguageChecker {
	return &LanguageChecker{
		session:   session,
		site:      config.Site,
		config:    config.Language,
		artifacts: artifacts,
		logger:    logger,
	}
}

// OpenTranslations clicks the translations button and waits for the "full translations" list
func (c *LanguageChecker) OpenTranslations() error {
	if err := c.session.Click(c.config.TranslationsButton); err != nil {
		return err
	}
	expr := fmt.Sprintf(`document.querySelectorAll(%s).length > %d`, browser.JSString(c.config.ListSelector), c.config.ListIndex)
	if err := c.session.Poll(expr); err != nil {
		return fmt.Errorf("translation lists did not appear: %w", err)
	}
	return nil
}

// CollectTranslationLinks returns the site links of the "full translations" list
func (c *LanguageChecker) CollectTranslationLinks() ([]TranslationLink, error) {
	var lists []string
	expr := fmt.Sprintf(`Array.from(document.querySelectorAll(%s)).map(el => el.outerHTML)`, browser.JSString(c.config.ListSelector))
	if err := c.session.Evaluate(expr, &lists); err != nil {
		return nil, err
	}
	if len(lists) <= c.config.ListIndex {
		return nil, failf("expected at least %d translation lists matching %q, found %d",
			c.config.ListIndex+1, c.config.ListSelector, len(lists))
	}

	location, err := c.session.Location()
	if err != nil {
		return nil, err
	}
	return ParseTranslationLinks(lists[c.config.ListIndex], location, c.site.Name, c.config.ExcludeHost)
}

// CheckTranslationPage opens link in a new tab and returns a problem descriptor,
// or "" when the page declares an expected locale and is not an error page.
func (c *LanguageChecker) CheckTranslationPage(link TranslationLink) (string, error) {
	if common.IsSelfLink(link.Href, c.site.Name, c.site.URL) {
		c.logger.Debug().Str("href", link.Href).Msg("Skipping self link")
		return "", nil
	}

	tab, err := c.session.NewTab(link.Href)
	if err != nil {
		return "", err
	}
	defer tab.Close()

	if err := tab.WaitPresent("html"); err != nil {
		return "", err
	}
	if err := tab.WaitReadyState(); err != nil {
		return "", err
	}

	lang, err := tab.Attribute("html", "lang")
	if err != nil {
		return "", err
	}
	title, err := tab.Title()
	if err != nil {
		return "", err
	}
	source, err := tab.OuterHTML("html")
	if err != nil {
		return "", err
	}

	problem := ""
	if !MatchesLocale(lang, c.config.LocaleCodes) {
		problem = fmt.Sprintf("%s (%s)", link.Name, lang)
	}
	if IsNotFoundPage(title, source, c.config.NotFoundTitle, c.config.NotFoundText) {
		problem = fmt.Sprintf("%s (404 page!)", link.Name)
	}
	return problem, nil
}

// CheckLanguageSwitcher validates every translation link, reporting all problems at once
func (c *LanguageChecker) CheckLanguageSwitcher() ([]TranslationLink, error) {
	if err := c.OpenTranslations(); err != nil {
		return nil, err
	}

	links, err := c.CollectTranslationLinks()
	if err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return nil, failf("no translation links found in the full translations list")
	}

	var problems LinkErrors
	for _, link := range links {
		c.logger.Info().Str("name", link.Name).Str("href", link.Href).Msgf("Testing %s | %s", link.Name, link.Href)
		problem, err := c.CheckTranslationPage(link)
		if err != nil {
			return links, fmt.Errorf("checking %s: %w", link.Name, err)
		}
		if problem != "" {
			problems = append(problems, problem)
		}
	}

	if len(problems) > 0 {
		return links, problems
	}

	c.logger.Info().Int("links", len(links)).Msg("All language links opened correct language pages")
	return links, nil
}

// SectionHTML returns the main content region, or the fallback region when main is absent
func (c *LanguageChecker) SectionHTML() (string, error) {
	found, err := c.session.Exists(c.config.SectionSelector)
	if err != nil {
		return "", err
	}
	if found {
		return c.session.OuterHTML(c.config.SectionSelector)
	}
	return c.session.OuterHTML(c.config.FallbackSelector)
}

// CheckTranslationSimilarity compares the home page with the translated page through scorer
func (c *LanguageChecker) CheckTranslationSimilarity(ctx context.Context, scorer SimilarityScorer) (*SimilarityResult, error) {
	if scorer == nil {
		return nil, fmt.Errorf("%w: no similarity scorer configured", ErrSkipped)
	}

	result := &SimilarityResult{
		SourceURL: c.site.URL,
		TargetURL: c.config.TargetURL,
		Threshold: c.config.SimilarityThreshold,
		Model:     scorer.Model(),
	}

	sourceHTML, sourceParagraphs, err := c.loadSection(c.site.URL)
	if err != nil {
		return nil, err
	}
	targetHTML, targetParagraphs, err := c.loadSection(c.config.TargetURL)
	if err != nil {
		return nil, err
	}

	result.SourceText = CleanText(sourceParagraphs, c.config.MaxChars)
	result.TargetText = CleanText(targetParagraphs, c.config.MaxChars)
	if result.SourceText == "" || result.TargetText == "" {
		return result, failf("no paragraph text extracted (source %d chars, target %d chars)",
			len(result.SourceText), len(result.TargetText))
	}

	c.writeSnapshot("similarity_source.md", sourceHTML, c.site.URL)
	c.writeSnapshot("similarity_target.md", targetHTML, c.config.TargetURL)

	result.Score, err = scorer.Similarity(ctx, result.SourceText, result.TargetText)
	if err != nil {
		return result, fmt.Errorf("failed to score similarity: %w", err)
	}

	c.logger.Info().
		Str("model", result.Model).
		Float64("score", result.Score).
		Float64("threshold", result.Threshold).
		Msg("Translation similarity scored")

	if result.Score < result.Threshold {
		return result, fmt.Errorf("%w: full page translation does not match (similarity %.3f < %.2f)",
			ErrContentDrift, result.Score, result.Threshold)
	}
	return result, nil
}

// SectionParagraphs returns the rendered text of every visible <p> in the content region
func (c *LanguageChecker) SectionParagraphs() ([]string, error) {
	var paragraphs []string
	expr := fmt.Sprintf(`(() => {
		const region = document.querySelector(%s) || document.querySelector(%s);
		if (!region) return [];
		return Array.from(region.querySelectorAll('p'))
			.filter(p => p.getClientRects().length > 0)
			.map(p => (p.innerText || '').trim());
	})()`, browser.JSString(c.config.SectionSelector), browser.JSString(c.config.FallbackSelector))
	if err := c.session.Evaluate(expr, &paragraphs); err != nil {
		return nil, fmt.Errorf("failed to read section paragraphs: %w", err)
	}
	return paragraphs, nil
}

// loadSection navigates to url, lets it settle and returns its content region and paragraphs
func (c *LanguageChecker) loadSection(url string) (string, []string, error) {
	if err := c.session.Navigate(url); err != nil {
		return "", nil, err
	}
	if err := c.session.WaitReadyState(); err != nil {
		return "", nil, err
	}
	if err := c.session.Sleep(c.config.PageLoadDelay.Duration); err != nil {
		return "", nil, err
	}
	html, err := c.SectionHTML()
	if err != nil {
		return "", nil, err
	}
	paragraphs, err := c.SectionParagraphs()
	if err != nil {
		return "", nil, err
	}
	return html, paragraphs, nil
}

// writeSnapshot stores a markdown rendering of html. Failures only log.
func (c *LanguageChecker) writeSnapshot(name, html, baseURL string) {
	if c.artifacts == nil {
		return
	}
	markdown, err := Snapshot(html, baseURL)
	if err != nil {
		c.logger.Warn().Err(err).Str("artifact", name).Msg("Failed to render snapshot")
		return
	}
	if _, err := c.artifacts.WriteFile(name, []byte(markdown)); err != nil {
		c.logger.Warn().Err(err).Str("artifact", name).Msg("Failed to write snapshot")
	}
}
