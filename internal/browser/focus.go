package browser

import (
	"fmt"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
)

// FocusedElement describes document.activeElement at one point in time
type FocusedElement struct {
	Tag          string `json:"tag"`
	Href         string `json:"href"`
	Text         string `json:"text"`
	Outline      string `json:"outline"`
	OutlineStyle string `json:"outline_style"`
	OutlineWidth string `json:"outline_width"`
}

// String renders the element for logs and reports
func (f FocusedElement) String() string {
	if f.Href != "" {
		return fmt.Sprintf("<%s href=%q>", f.Tag, f.Href)
	}
	if f.Text != "" {
		return fmt.Sprintf("<%s>%s", f.Tag, truncate(f.Text, 40))
	}
	return fmt.Sprintf("<%s>", f.Tag)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

// ActiveElement reads the focused element, the computed value of outlineProperty
// and the computed outline-style and outline-width longhands
func (s *Session) ActiveElement(outlineProperty string) (FocusedElement, error) {
	var focused FocusedElement
	expr := fmt.Sprintf(`(() => {
		const el = document.activeElement;
		if (!el) return {tag: '', href: '', text: '', outline: '', outline_style: '', outline_width: ''};
		const href = typeof el.href === 'string' ? el.href : (el.getAttribute('href') || '');
		const style = getComputedStyle(el);
		return {
			tag: el.tagName.toLowerCase(),
			href: href,
			text: (el.innerText || '').trim(),
			outline: style.getPropertyValue(%s),
			outline_style: style.getPropertyValue('outline-style'),
			outline_width: style.getPropertyValue('outline-width'),
		};
	})()`, JSString(outlineProperty))

	if err := s.Evaluate(expr, &focused); err != nil {
		return FocusedElement{}, fmt.Errorf("failed to read active element: %w", err)
	}
	return focused, nil
}

// PressKey dispatches key (see chromedp/kb) to the focused element with optional modifiers
func (s *Session) PressKey(key string, modifiers ...input.Modifier) error {
	var opts []chromedp.KeyOption
	if len(modifiers) > 0 {
		opts = append(opts, chromedp.KeyModifiers(modifiers...))
	}
	if err := s.run(chromedp.KeyEvent(key, opts...)); err != nil {
		return fmt.Errorf("failed to press key %q: %w", key, err)
	}
	return nil
}
