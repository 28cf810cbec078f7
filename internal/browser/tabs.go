package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
)

// PageTargets lists every page target (tab) of the browser owning this session
func (s *Session) PageTargets() ([]*target.Info, error) {
	targets, err := chromedp.Targets(s.ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list targets: %w", err)
	}
	pages := make([]*target.Info, 0, len(targets))
	for _, t := range targets {
		if t.Type == "page" {
			pages = append(pages, t)
		}
	}
	return pages, nil
}

// AttachTarget returns a child session driving an existing tab. Closing it closes the tab.
func (s *Session) AttachTarget(id target.ID) (*Session, error) {
	tabCtx, cancel := chromedp.NewContext(s.ctx, chromedp.WithTargetID(id))
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to attach to target %s: %w", id, err)
	}
	return s.child(tabCtx, cancel, func() {
		if err := s.CloseTarget(id); err != nil {
			s.logger.Debug().Err(err).Str("target", string(id)).Msg("Closing attached tab returned error")
		}
	}), nil
}

// NewTab opens url in a fresh tab of the same browser and waits for its body.
// The returned session closes the tab on Close.
func (s *Session) NewTab(url string) (*Session, error) {
	tabCtx, cancel := chromedp.NewContext(s.ctx)
	tab := s.child(tabCtx, cancel)
	if err := tab.Navigate(url); err != nil {
		tab.Close()
		return nil, err
	}
	return tab, nil
}

// CloseTarget closes the tab identified by id through the browser connection
func (s *Session) CloseTarget(id target.ID) error {
	err := s.run(chromedp.ActionFunc(func(ctx context.Context) error {
		c := chromedp.FromContext(ctx)
		return target.CloseTarget(id).Do(cdp.WithExecutor(ctx, c.Browser))
	}))
	if err != nil {
		return fmt.Errorf("failed to close target %s: %w", id, err)
	}
	return nil
}
