package checks

import (
	"fmt"
	"net/url"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

// TranslationLink is one entry of the translations listing
type TranslationLink struct {
	Name string `json:"name"`
	Href string `json:"href"`
}

// ParseTranslationLinks extracts (name, href) pairs from one translations list.
// Relative hrefs resolve against baseURL. Only hrefs containing siteName and not
// containing excludeHost survive, first occurrence wins.
func ParseTranslationLinks(listHTML, baseURL, siteName, excludeHost string) ([]TranslationLink, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(listHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse translations list: %w", err)
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		base = nil
	}

	var links []TranslationLink
	seen := make(map[string]bool)

	doc.Find("li").Each(func(i int, li *goquery.Selection) {
		a := li.Find("a").First()
		if a.Length() == 0 {
			return
		}
		href, ok := a.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}
		href = resolveHref(strings.TrimSpace(href), base)

		if !strings.Contains(href, siteName) || (excludeHost != "" && strings.Contains(href, excludeHost)) {
			return
		}
		if seen[href] {
			return
		}
		seen[href] = true

		links = append(links, TranslationLink{
			Name: strings.Join(strings.Fields(a.Text()), " "),
			Href: href,
		})
	})

	return links, nil
}

func resolveHref(href string, base *url.URL) string {
	if base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// MatchesLocale reports whether lang starts with one of codes
func MatchesLocale(lang string, codes []string) bool {
	if lang == "" {
		return false
	}
	for _, code := range codes {
		if code != "" && strings.HasPrefix(lang, code) {
			return true
		}
	}
	return false
}

// IsNotFoundPage reports whether a page looks like an error page
func IsNotFoundPage(title, source, notFoundTitle, notFoundText string) bool {
	return (notFoundTitle != "" && strings.Contains(title, notFoundTitle)) ||
		(notFoundText != "" && strings.Contains(source, notFoundText))
}

// CleanText concatenates the whitespace-collapsed text of every non-empty paragraph,
// truncates to maxChars runes and lowercases the result.
func CleanText(paragraphs []string, maxChars int) string {
	var b strings.Builder
	for _, p := range paragraphs {
		b.WriteString(strings.Join(strings.Fields(p), " "))
	}

	runes := []rune(b.String())
	if maxChars > 0 && len(runes) > maxChars {
		runes = runes[:maxChars]
	}
	return strings.ToLower(string(runes))
}

// Snapshot renders sectionHTML as markdown for drift review
func Snapshot(sectionHTML, baseURL string) (string, error) {
	converter := md.NewConverter(baseURL, true, nil)
	markdown, err := converter.ConvertString(sectionHTML)
	if err != nil {
		return "", fmt.Errorf("failed to convert section to markdown: %w", err)
	}
	return markdown, nil
}
