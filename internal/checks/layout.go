package checks

import (
	"errors"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/docsprobe/internal/browser"
	"github.com/ternarybob/docsprobe/internal/common"
)

// BreakpointResult is the measurement taken at one viewport size
type BreakpointResult struct {
	Name        string `json:"name"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ScrollWidth int    `json:"scroll_width"`
	ClientWidth int    `json:"client_width"`
	Overflow    int    `json:"overflow"`
	Passed      bool   `json:"passed"`
	Screenshot  string `json:"screenshot,omitempty"`
}

// OverflowWithin reports whether horizontal overflow stays strictly below tolerance
func OverflowWithin(scrollWidth, clientWidth, tolerance int) bool {
	return scrollWidth-clientWidth < tolerance
}

// LayoutChecker verifies landmarks and responsive overflow
type LayoutChecker struct {
	session   *browser.Session
	config    common.LayoutConfig
	artifacts *Artifacts
	logger    arbor.ILogger
}

// NewLayoutChecker creates a LayoutChecker
func NewLayoutChecker(session *browser.Session, config *common.Config, artifacts *Artifacts, logger arbor.ILogger) *LayoutChecker {
	return &LayoutChecker{
		session:   session,
		config:    config.Layout,
		artifacts: artifacts,
		logger:    logger,
	}
}

// CheckHeader asserts the header navigation landmark is present
func (c *LayoutChecker) CheckHeader() error {
	if err := c.session.WaitPresent(c.config.HeaderSelector); err != nil {
		return fmt.Errorf("header element was not found: %w", err)
	}
	return nil
}

// CheckFooter asserts the footer landmark is present
func (c *LayoutChecker) CheckFooter() error {
	if err := c.session.WaitPresent(c.config.FooterSelector); err != nil {
		return fmt.Errorf("footer element was not found: %w", err)
	}
	return nil
}

// CheckLandmarks asserts both header and footer are present
func (c *LayoutChecker) CheckLandmarks() error {
	if err := c.CheckHeader(); err != nil {
		return err
	}
	return c.CheckFooter()
}

// CheckBreakpoints measures every configured breakpoint and joins all failures
func (c *LayoutChecker) CheckBreakpoints() ([]BreakpointResult, error) {
	results := make([]BreakpointResult, 0, len(c.config.Breakpoints))
	var errs []error

	for _, bp := range c.config.Breakpoints {
		result, err := c.measure(bp)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", bp.Name, err))
			continue
		}
		results = append(results, result)

		c.logger.Info().
			Str("breakpoint", bp.Name).
			Int("scroll_width", result.ScrollWidth).
			Int("client_width", result.ClientWidth).
			Bool("passed", result.Passed).
			Msg("Breakpoint measured")

		if !result.Passed {
			errs = append(errs, failf("layout breaks at %s, horizontal scroll detected (%dpx >= %dpx)",
				bp.Name, result.Overflow, c.config.OverflowTolerancePx))
		}
	}

	return results, errors.Join(errs...)
}

// measure resizes to bp, waits for layout and records widths plus a screenshot
func (c *LayoutChecker) measure(bp common.Breakpoint) (BreakpointResult, error) {
	result := BreakpointResult{Name: bp.Name, Width: bp.Width, Height: bp.Height}

	if err := c.session.SetViewport(bp.Width, bp.Height); err != nil {
		return result, err
	}
	if err := c.session.WaitReadyState(); err != nil {
		return result, err
	}
	if err := c.session.Sleep(c.config.SettleDelay.Duration); err != nil {
		return result, err
	}

	var widths struct {
		Scroll int `json:"scroll"`
		Client int `json:"client"`
	}
	if err := c.session.Evaluate(`({scroll: document.body.scrollWidth, client: document.body.clientWidth})`, &widths); err != nil {
		return result, err
	}
	result.ScrollWidth = widths.Scroll
	result.ClientWidth = widths.Client
	result.Overflow = widths.Scroll - widths.Client
	result.Passed = OverflowWithin(widths.Scroll, widths.Client, c.config.OverflowTolerancePx)

	if c.artifacts != nil {
		path := c.artifacts.Path(c.config.ScreenshotPrefix + bp.Name + ".png")
		if err := c.session.Screenshot(path); err != nil {
			return result, err
		}
		c.artifacts.Add(path)
		result.Screenshot = path
	}

	return result, nil
}
