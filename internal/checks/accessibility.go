package checks

import (
	"context"
	"strconv"
	"strings"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp/kb"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/docsprobe/internal/browser"
	"github.com/ternarybob/docsprobe/internal/common"
)

// FocusStep is one focus position reached by keyboard traversal
type FocusStep struct {
	Index   int                    `json:"index"`
	Element browser.FocusedElement `json:"element"`
}

// WalkResult describes a forward and backward TAB traversal
type WalkResult struct {
	Steps        []FocusStep `json:"steps"`
	TargetIndex  int         `json:"target_index"` // 0-based step at which the target link was focused
	BackSteps    []FocusStep `json:"back_steps"`
	OpenedNewTab bool        `json:"opened_new_tab"`
	Destination  string      `json:"destination"`
}

// HasVisibleOutline reports whether computed outline-style and outline-width draw a focus ring
func HasVisibleOutline(style, width string) bool {
	style = strings.TrimSpace(style)
	if style == "" || style == "none" || style == "hidden" {
		return false
	}
	px, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(width), "px"), 64)
	return err == nil && px > 0
}

// AccessibilityChecker walks keyboard focus across the home page
type AccessibilityChecker struct {
	session *browser.Session
	site    common.SiteConfig
	config  common.AccessibilityConfig
	logger  arbor.ILogger
}

// NewAccessibilityChecker creates an AccessibilityChecker
func NewAccessibilityChecker(session *browser.Session, config *common.Config, logger arbor.ILogger) *AccessibilityChecker {
	return &AccessibilityChecker{
		session: session,
		site:    config.Site,
		config:  config.Accessibility,
		logger:  logger,
	}
}

// Walk presses TAB until the target link is focused, activates it, verifies the
// destination, then presses Shift+TAB exactly TargetIndex times.
func (c *AccessibilityChecker) Walk() (*WalkResult, error) {
	s := c.session
	if err := s.Navigate(c.site.URL); err != nil {
		return nil, err
	}

	knownTargets, err := s.PageTargets()
	if err != nil {
		return nil, err
	}

	result := &WalkResult{TargetIndex: -1}
	for i := 0; i < c.config.MaxTabs; i++ {
		focused, err := c.step()
		if err != nil {
			return result, err
		}

		if !HasVisibleOutline(focused.OutlineStyle, focused.OutlineWidth) {
			return result, failf("focused element %s at step %d has no visible focus outline (style %q, width %q, %s: %q)",
				focused, i, focused.OutlineStyle, focused.OutlineWidth, c.config.OutlineProperty, focused.Outline)
		}
		result.Steps = append(result.Steps, FocusStep{Index: i, Element: focused})

		if common.ContainsHost(focused.Href, c.config.TargetHref) {
			c.logger.Info().Int("step", i).Str("href", focused.Href).Msg("Target link focused, activating")
			if err := s.PressKey(kb.Enter); err != nil {
				return result, err
			}
			result.TargetIndex = i
			break
		}
	}

	if result.TargetIndex < 0 {
		return result, failf("did not reach the %s link with TAB navigation after %d presses", c.config.TargetHref, c.config.MaxTabs)
	}

	if err := c.verifyDestination(result, knownTargets); err != nil {
		return result, err
	}

	for j := result.TargetIndex; j > 0; j-- {
		if err := s.PressKey(kb.Tab, input.ModifierShift); err != nil {
			return result, err
		}
		if err := s.Sleep(c.config.StepDelay.Duration); err != nil {
			return result, err
		}
		focused, err := s.ActiveElement(c.config.OutlineProperty)
		if err != nil {
			return result, err
		}
		result.BackSteps = append(result.BackSteps, FocusStep{Index: j - 1, Element: focused})
	}

	c.logger.Info().
		Int("forward_steps", len(result.Steps)).
		Int("back_steps", len(result.BackSteps)).
		Bool("new_tab", result.OpenedNewTab).
		Msg("Keyboard traversal complete")

	return result, nil
}

// step presses TAB once and reads the newly focused element
func (c *AccessibilityChecker) step() (browser.FocusedElement, error) {
	if err := c.session.PressKey(kb.Tab); err != nil {
		return browser.FocusedElement{}, err
	}
	if err := c.session.Sleep(c.config.StepDelay.Duration); err != nil {
		return browser.FocusedElement{}, err
	}
	return c.session.ActiveElement(c.config.OutlineProperty)
}

// verifyDestination waits for the activated link to open, in a new tab or in place
func (c *AccessibilityChecker) verifyDestination(result *WalkResult, knownTargets []*target.Info) error {
	s := c.session
	known := make(map[string]bool, len(knownTargets))
	for _, t := range knownTargets {
		known[string(t.TargetID)] = true
	}

	var newTarget *target.Info
	var location string
	err := s.WaitUntil("target link did not open", func(ctx context.Context) (bool, error) {
		targets, err := s.PageTargets()
		if err != nil {
			return false, err
		}
		for _, t := range targets {
			if !known[string(t.TargetID)] {
				newTarget = t
				return true, nil
			}
		}
		location, err = s.Location()
		if err != nil {
			return false, err
		}
		return common.ContainsHost(location, c.config.TargetHref), nil
	})
	if err != nil {
		return err
	}

	if newTarget == nil {
		result.Destination = location
		c.logger.Info().Str("url", location).Msg("Target opened in the same tab")
		// Return to the origin so reverse traversal runs on the page that was walked
		return s.Back()
	}

	result.OpenedNewTab = true
	tab, err := s.AttachTarget(newTarget.TargetID)
	if err != nil {
		return err
	}
	defer tab.Close()

	destination, err := tab.WaitLocation("new tab URL", func(loc string) bool {
		return common.ContainsHost(loc, c.config.TargetHref)
	})
	result.Destination = destination
	if err != nil {
		return failf("new tab is not a %s page (url %q): %v", c.config.TargetHref, destination, err)
	}

	c.logger.Info().Str("url", destination).Msg("Target opened in a new tab")
	return nil
}
