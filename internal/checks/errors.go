package checks

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ternarybob/docsprobe/internal/browser"
)

var (
	// ErrAssertion marks an expected condition that was not observed
	ErrAssertion = errors.New("assertion failed")

	// ErrTimeout marks a polled condition that never held
	ErrTimeout = browser.ErrTimeout

	// ErrContentDrift marks translated content whose similarity fell below threshold
	ErrContentDrift = fmt.Errorf("content drift: %w", ErrAssertion)

	// ErrSkipped marks a scenario whose precondition is missing
	ErrSkipped = errors.New("skipped")
)

// failf returns an ErrAssertion carrying a formatted message
func failf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrAssertion, fmt.Sprintf(format, args...))
}

// LinkErrors aggregates per-link problems into one failure
type LinkErrors []string

func (e LinkErrors) Error() string {
	return "problems found for: " + strings.Join(e, ", ")
}

// Unwrap makes errors.Is(err, ErrAssertion) hold
func (e LinkErrors) Unwrap() error {
	return ErrAssertion
}
