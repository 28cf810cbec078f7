package checks

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/docsprobe/internal/browser"
	"github.com/ternarybob/docsprobe/internal/common"
)

// ThemeResult holds the colours observed while toggling the theme
type ThemeResult struct {
	Baseline string `json:"baseline"`
	Dark     string `json:"dark"`
	Light    string `json:"light"`
}

// ThemeChecker verifies the dark/light toggle survives reloads
type ThemeChecker struct {
	session *browser.Session
	config  common.ThemeConfig
	logger  arbor.ILogger
}

// NewThemeChecker creates a ThemeChecker
func NewThemeChecker(session *browser.Session, config *common.Config, logger arbor.ILogger) *ThemeChecker {
	return &ThemeChecker{
		session: session,
		config:  config.Theme,
		logger:  logger,
	}
}

// CheckPersistence toggles dark then light mode, reloading after each toggle
func (c *ThemeChecker) CheckPersistence() (*ThemeResult, error) {
	result := &ThemeResult{}

	if err := c.session.WaitPresent(c.config.DarkButtonSelector); err != nil {
		return result, fmt.Errorf("dark mode toggle not found: %w", err)
	}
	baseline, err := c.settledColor()
	if err != nil {
		return result, err
	}
	result.Baseline = baseline

	dark, err := c.toggle(c.config.DarkButtonSelector, baseline)
	if err != nil {
		return result, fmt.Errorf("theme did not change: %w", err)
	}
	result.Dark = dark
	if dark == baseline {
		return result, failf("theme did not change (still %s)", dark)
	}

	if err := c.assertPersists(dark, "dark"); err != nil {
		return result, err
	}

	light, err := c.toggle(c.config.LightButtonSelector, dark)
	if err != nil {
		return result, fmt.Errorf("theme did not change back to light: %w", err)
	}
	result.Light = light
	if light == dark {
		return result, failf("theme did not change back to light (still %s)", light)
	}

	if err := c.assertPersists(light, "light"); err != nil {
		return result, err
	}

	c.logger.Info().
		Str("baseline", result.Baseline).
		Str("dark", result.Dark).
		Str("light", result.Light).
		Msg("Theme persisted across reloads")

	return result, nil
}

// color reads the watched property of the target element
func (c *ThemeChecker) color() (string, error) {
	return c.session.ComputedStyle(c.config.TargetSelector, c.config.ColorProperty)
}

// toggle clicks button and waits for the colour to move away from previous
func (c *ThemeChecker) toggle(button, previous string) (string, error) {
	if err := c.session.WaitPresent(button); err != nil {
		return "", err
	}
	if err := c.session.ClickJS(button); err != nil {
		return "", err
	}
	expr := fmt.Sprintf(`getComputedStyle(document.querySelector(%s)).getPropertyValue(%s) !== %s`,
		browser.JSString(c.config.TargetSelector), browser.JSString(c.config.ColorProperty), browser.JSString(previous))
	if err := c.session.Poll(expr); err != nil {
		return "", err
	}
	return c.settledColor()
}

// settledColor waits until two consecutive reads agree, so CSS transitions have finished
func (c *ThemeChecker) settledColor() (string, error) {
	var last string
	err := c.session.WaitUntil("theme colour did not settle", func(ctx context.Context) (bool, error) {
		current, err := c.color()
		if err != nil {
			return false, err
		}
		stable := current == last
		last = current
		return stable, nil
	})
	return last, err
}

// assertPersists reloads and expects the colour to equal want
func (c *ThemeChecker) assertPersists(want, mode string) error {
	if err := c.session.Reload(); err != nil {
		return err
	}
	if err := c.session.WaitPresent(c.config.TargetSelector); err != nil {
		return err
	}
	got, err := c.settledColor()
	if err != nil {
		return err
	}
	if got != want {
		return failf("%s mode did not persist after refresh (%s != %s)", mode, got, want)
	}
	return nil
}
