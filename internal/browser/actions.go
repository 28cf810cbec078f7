package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/chromedp/chromedp"
)

// JSString renders s as a JavaScript string literal for embedding in scripts
func JSString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// Navigate loads url and waits for the body to be ready
func (s *Session) Navigate(url string) error {
	if err := s.run(chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return s.WaitPresent("body")
}

// Reload reloads the current page and waits for the body
func (s *Session) Reload() error {
	if err := s.run(chromedp.Reload()); err != nil {
		return fmt.Errorf("failed to reload page: %w", err)
	}
	return s.WaitPresent("body")
}

// Location returns the current page URL
func (s *Session) Location() (string, error) {
	var location string
	if err := s.run(chromedp.Location(&location)); err != nil {
		return "", fmt.Errorf("failed to read location: %w", err)
	}
	return location, nil
}

// Title returns the current document title
func (s *Session) Title() (string, error) {
	var title string
	if err := s.run(chromedp.Title(&title)); err != nil {
		return "", fmt.Errorf("failed to read title: %w", err)
	}
	return title, nil
}

// WaitPresent waits until selector matches a node in the DOM
func (s *Session) WaitPresent(selector string) error {
	return s.runBounded(fmt.Sprintf("element %q not present", selector),
		chromedp.WaitReady(selector, chromedp.ByQuery))
}

// WaitVisible waits until selector matches a visible node
func (s *Session) WaitVisible(selector string) error {
	return s.runBounded(fmt.Sprintf("element %q not visible", selector),
		chromedp.WaitVisible(selector, chromedp.ByQuery))
}

// WaitText waits until any node matching selector has text containing text
func (s *Session) WaitText(selector, text string) error {
	expr := fmt.Sprintf(`Array.from(document.querySelectorAll(%s)).some(el => (el.textContent || '').includes(%s))`,
		JSString(selector), JSString(text))
	if err := s.Poll(expr); err != nil {
		return fmt.Errorf("text %q in %q: %w", text, selector, err)
	}
	return nil
}

// Poll evaluates expr in the page until it is truthy or the wait timeout passes
func (s *Session) Poll(expr string) error {
	var ok bool
	err := s.run(chromedp.Poll("!!("+expr+")", &ok,
		chromedp.WithPollingTimeout(s.waitTimeout),
		chromedp.WithPollingInterval(s.pollInterval),
	))
	if err == nil {
		return nil
	}
	if errors.Is(err, chromedp.ErrPollingTimeout) {
		return fmt.Errorf("condition %q never held within %s: %w", expr, s.waitTimeout, ErrTimeout)
	}
	return fmt.Errorf("failed to poll %q: %w", expr, err)
}

// Click waits for selector to be visible and clicks it with the mouse
func (s *Session) Click(selector string) error {
	return s.runBounded(fmt.Sprintf("failed to click %q", selector),
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Click(selector, chromedp.ByQuery),
	)
}

// ClickJS clicks the first match of selector through element.click().
// Works for controls hidden behind responsive breakpoints.
func (s *Session) ClickJS(selector string) error {
	if err := s.WaitPresent(selector); err != nil {
		return err
	}
	var clicked bool
	expr := fmt.Sprintf(`(() => { const el = document.querySelector(%s); if (!el) return false; el.click(); return true; })()`,
		JSString(selector))
	if err := s.run(chromedp.Evaluate(expr, &clicked)); err != nil {
		return fmt.Errorf("failed to click %q: %w", selector, err)
	}
	if !clicked {
		return fmt.Errorf("failed to click %q: element disappeared", selector)
	}
	return nil
}

// SendKeys types text into the element matching selector
func (s *Session) SendKeys(selector, text string) error {
	return s.runBounded(fmt.Sprintf("failed to type into %q", selector),
		chromedp.WaitReady(selector, chromedp.ByQuery),
		chromedp.SendKeys(selector, text, chromedp.ByQuery),
	)
}

// Evaluate runs expr in the page and decodes its result into res
func (s *Session) Evaluate(expr string, res interface{}) error {
	if err := s.run(chromedp.Evaluate(expr, res)); err != nil {
		return fmt.Errorf("failed to evaluate script: %w", err)
	}
	return nil
}

// Exists reports whether selector currently matches any node
func (s *Session) Exists(selector string) (bool, error) {
	var found bool
	err := s.Evaluate(fmt.Sprintf(`document.querySelector(%s) !== null`, JSString(selector)), &found)
	return found, err
}

// Count returns how many nodes currently match selector
func (s *Session) Count(selector string) (int, error) {
	var n int
	err := s.Evaluate(fmt.Sprintf(`document.querySelectorAll(%s).length`, JSString(selector)), &n)
	return n, err
}

// Texts returns the rendered text of every node matching selector
func (s *Session) Texts(selector string) ([]string, error) {
	var texts []string
	expr := fmt.Sprintf(`Array.from(document.querySelectorAll(%s)).map(el => (el.innerText || el.textContent || '').trim())`,
		JSString(selector))
	if err := s.Evaluate(expr, &texts); err != nil {
		return nil, err
	}
	return texts, nil
}

// ComputedStyle returns the computed value of property on the first match of selector
func (s *Session) ComputedStyle(selector, property string) (string, error) {
	var res struct {
		Found bool   `json:"found"`
		Value string `json:"value"`
	}
	expr := fmt.Sprintf(`(() => { const el = document.querySelector(%s); if (!el) return {found: false, value: ''}; return {found: true, value: getComputedStyle(el).getPropertyValue(%s)}; })()`,
		JSString(selector), JSString(property))
	if err := s.Evaluate(expr, &res); err != nil {
		return "", err
	}
	if !res.Found {
		return "", fmt.Errorf("element %q not found for style %q", selector, property)
	}
	return res.Value, nil
}

// Attribute returns attribute name of the first match of selector ("" when unset)
func (s *Session) Attribute(selector, name string) (string, error) {
	var value string
	expr := fmt.Sprintf(`(() => { const el = document.querySelector(%s); return el ? (el.getAttribute(%s) || '') : ''; })()`,
		JSString(selector), JSString(name))
	err := s.Evaluate(expr, &value)
	return value, err
}

// OuterHTML returns the outer HTML of the first match of selector
func (s *Session) OuterHTML(selector string) (string, error) {
	var html string
	if err := s.runBounded(fmt.Sprintf("failed to read html of %q", selector),
		chromedp.WaitReady(selector, chromedp.ByQuery),
		chromedp.OuterHTML(selector, &html, chromedp.ByQuery),
	); err != nil {
		return "", err
	}
	return html, nil
}

// SetViewport emulates a viewport of width x height CSS pixels
func (s *Session) SetViewport(width, height int) error {
	if err := s.run(chromedp.EmulateViewport(int64(width), int64(height))); err != nil {
		return fmt.Errorf("failed to set viewport %dx%d: %w", width, height, err)
	}
	return nil
}

// WaitReadyState waits for document.readyState to reach "complete"
func (s *Session) WaitReadyState() error {
	return s.Poll(`document.readyState === 'complete'`)
}

// WaitLocation polls the page URL until match accepts it
func (s *Session) WaitLocation(what string, match func(location string) bool) (string, error) {
	var last string
	err := s.WaitUntil(what, func(ctx context.Context) (bool, error) {
		var location string
		if err := chromedp.Run(ctx, chromedp.Location(&location)); err != nil {
			return false, err
		}
		last = location
		return match(location), nil
	})
	return last, err
}

// Back navigates one entry back in history and waits for the body
func (s *Session) Back() error {
	if err := s.run(chromedp.NavigateBack()); err != nil {
		return fmt.Errorf("failed to navigate back: %w", err)
	}
	return s.WaitPresent("body")
}
