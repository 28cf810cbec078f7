package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/docsprobe/internal/common"
)

// ErrTimeout marks a bounded wait whose condition never held
var ErrTimeout = errors.New("timed out waiting for condition")

// Session owns one browser (allocator + tab context) or, for child sessions,
// one extra tab inside the parent's browser.
type Session struct {
	ctx          context.Context
	logger       arbor.ILogger
	waitTimeout  time.Duration
	pollInterval time.Duration
	cleanup      []func()
	closed       bool
}

// NewSession launches a browser configured by cfg and verifies it responds
func NewSession(parent context.Context, cfg common.BrowserConfig, logger arbor.ILogger) (*Session, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", cfg.DisableGPU),
		chromedp.Flag("no-sandbox", cfg.NoSandbox),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-popup-blocking", true),
		chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight),
	)
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	s := &Session{
		ctx:          browserCtx,
		logger:       logger,
		waitTimeout:  cfg.WaitTimeout.Duration,
		pollInterval: cfg.PollInterval.Duration,
	}

	// Cleanup runs in reverse order (LIFO)
	s.cleanup = append(s.cleanup, cancelAlloc)
	s.cleanup = append(s.cleanup, cancelBrowser)
	s.cleanup = append(s.cleanup, func() {
		if err := chromedp.Cancel(browserCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Debug().Err(err).Msg("Browser cancel returned error")
		}
	})

	startTime := time.Now()
	if err := chromedp.Run(browserCtx, chromedp.Navigate("about:blank")); err != nil {
		s.Close()
		return nil, fmt.Errorf("browser failed startup test: %w", err)
	}

	logger.Debug().
		Bool("headless", cfg.Headless).
		Int("width", cfg.WindowWidth).
		Int("height", cfg.WindowHeight).
		Dur("startup_time", time.Since(startTime)).
		Msg("Browser session started")

	return s, nil
}

// child creates a Session sharing this session's settings on another tab context
func (s *Session) child(ctx context.Context, cleanup ...func()) *Session {
	return &Session{
		ctx:          ctx,
		logger:       s.logger,
		waitTimeout:  s.waitTimeout,
		pollInterval: s.pollInterval,
		cleanup:      cleanup,
	}
}

// Context returns the chromedp context of this tab
func (s *Session) Context() context.Context {
	return s.ctx
}

// WaitTimeout returns the bound applied to every wait
func (s *Session) WaitTimeout() time.Duration {
	return s.waitTimeout
}

// Close releases the tab (and browser for root sessions). Safe to call twice.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	for i := len(s.cleanup) - 1; i >= 0; i-- {
		s.cleanup[i]()
	}
}

// run executes actions against the session context
func (s *Session) run(actions ...chromedp.Action) error {
	return chromedp.Run(s.ctx, actions...)
}

// runBounded executes actions under the wait timeout, mapping deadline errors to ErrTimeout
func (s *Session) runBounded(what string, actions ...chromedp.Action) error {
	ctx, cancel := context.WithTimeout(s.ctx, s.waitTimeout)
	defer cancel()

	err := chromedp.Run(ctx, actions...)
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) && s.ctx.Err() == nil {
		return fmt.Errorf("%s after %s: %w", what, s.waitTimeout, ErrTimeout)
	}
	return fmt.Errorf("%s: %w", what, err)
}

// Sleep pauses for d unless the session context ends first
func (s *Session) Sleep(d time.Duration) error {
	if d <= 0 {
		return nil
	}
	return s.run(chromedp.Sleep(d))
}

// WaitUntil polls cond from Go until it reports true or the wait timeout passes.
// Used for conditions that survive navigation, where in-page polling cannot.
func (s *Session) WaitUntil(what string, cond func(ctx context.Context) (bool, error)) error {
	ctx, cancel := context.WithTimeout(s.ctx, s.waitTimeout)
	defer cancel()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	var lastErr error
	for {
		ok, err := cond(ctx)
		if err == nil && ok {
			return nil
		}
		lastErr = err

		select {
		case <-ctx.Done():
			if s.ctx.Err() != nil {
				return fmt.Errorf("%s: %w", what, s.ctx.Err())
			}
			if lastErr != nil {
				return fmt.Errorf("%s after %s (last error: %v): %w", what, s.waitTimeout, lastErr, ErrTimeout)
			}
			return fmt.Errorf("%s after %s: %w", what, s.waitTimeout, ErrTimeout)
		case <-ticker.C:
		}
	}
}
