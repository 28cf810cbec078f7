package browser

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp/kb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/docsprobe/internal/common"
)

const fixturePage = `<!DOCTYPE html>
<html lang="en">
<head><title>Fixture</title>
<style>a:focus, button:focus { outline: 2px solid rgb(20, 120, 220); }</style>
</head>
<body>
  <button id="first">First</button>
  <a id="second" href="/next">Second</a>
  <div id="later"></div>
  <script>
    setTimeout(() => { document.getElementById('later').textContent = 'arrived'; }, 200);
  </script>
</body>
</html>`

// requireChrome skips the test when no Chrome binary is installed
func requireChrome(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping browser test in short mode")
	}
	for _, name := range []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "headless-shell"} {
		if _, err := exec.LookPath(name); err == nil {
			return
		}
	}
	t.Skip("Chrome not installed")
}

func newTestSession(t *testing.T) *Session {
	t.Helper()
	requireChrome(t)

	cfg := common.NewDefaultConfig().Browser
	cfg.WaitTimeout = common.Dur(3 * time.Second)
	cfg.NoSandbox = true

	s, err := NewSession(context.Background(), cfg, arbor.NewLogger())
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func newFixtureServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if r.URL.Path == "/next" {
			_, _ = w.Write([]byte(`<html lang="fr"><head><title>Next</title></head><body><p>suivant</p></body></html>`))
			return
		}
		_, _ = w.Write([]byte(fixturePage))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestSession_NavigateAndRead(t *testing.T) {
	s := newTestSession(t)
	server := newFixtureServer(t)

	require.NoError(t, s.Navigate(server.URL))

	title, err := s.Title()
	require.NoError(t, err)
	assert.Equal(t, "Fixture", title)

	location, err := s.Location()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(location, server.URL))

	lang, err := s.Attribute("html", "lang")
	require.NoError(t, err)
	assert.Equal(t, "en", lang)

	exists, err := s.Exists("#second")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = s.Exists("#missing")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, s.WaitText("#later", "arrived"))
}

func TestSession_WaitTimesOut(t *testing.T) {
	s := newTestSession(t)
	server := newFixtureServer(t)
	require.NoError(t, s.Navigate(server.URL))

	err := s.WaitPresent("#never")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeout), "got %v", err)

	err = s.Poll(`document.title === 'Other'`)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeout), "got %v", err)
}

func TestSession_TabMovesFocusWithOutline(t *testing.T) {
	s := newTestSession(t)
	server := newFixtureServer(t)
	require.NoError(t, s.Navigate(server.URL))

	require.NoError(t, s.PressKey(kb.Tab))
	first, err := s.ActiveElement("outline")
	require.NoError(t, err)
	assert.Equal(t, "button", first.Tag)
	assert.Contains(t, first.Outline, "solid")
	assert.Equal(t, "solid", first.OutlineStyle)
	assert.Equal(t, "2px", first.OutlineWidth)

	require.NoError(t, s.PressKey(kb.Tab))
	second, err := s.ActiveElement("outline")
	require.NoError(t, err)
	assert.Equal(t, "a", second.Tag)
	assert.Equal(t, server.URL+"/next", second.Href)

	require.NoError(t, s.PressKey(kb.Tab, input.ModifierShift))
	back, err := s.ActiveElement("outline")
	require.NoError(t, err)
	assert.Equal(t, "button", back.Tag)
}

func TestSession_NewTabIsIndependent(t *testing.T) {
	s := newTestSession(t)
	server := newFixtureServer(t)
	require.NoError(t, s.Navigate(server.URL))

	before, err := s.PageTargets()
	require.NoError(t, err)

	tab, err := s.NewTab(server.URL + "/next")
	require.NoError(t, err)

	lang, err := tab.Attribute("html", "lang")
	require.NoError(t, err)
	assert.Equal(t, "fr", lang)

	during, err := s.PageTargets()
	require.NoError(t, err)
	assert.Len(t, during, len(before)+1)

	tab.Close()

	// Original tab is untouched
	title, err := s.Title()
	require.NoError(t, err)
	assert.Equal(t, "Fixture", title)
}

func TestSession_AttachTargetCloseClosesTab(t *testing.T) {
	s := newTestSession(t)
	server := newFixtureServer(t)
	require.NoError(t, s.Navigate(server.URL))

	before, err := s.PageTargets()
	require.NoError(t, err)
	known := make(map[target.ID]bool, len(before))
	for _, info := range before {
		known[info.TargetID] = true
	}

	var opened bool
	require.NoError(t, s.Evaluate(`window.open(location.origin + '/next') !== null`, &opened))
	require.True(t, opened)

	var popup *target.Info
	require.Eventually(t, func() bool {
		targets, err := s.PageTargets()
		if err != nil {
			return false
		}
		for _, info := range targets {
			if !known[info.TargetID] {
				popup = info
				return true
			}
		}
		return false
	}, 3*time.Second, 50*time.Millisecond)

	tab, err := s.AttachTarget(popup.TargetID)
	require.NoError(t, err)
	location, err := tab.WaitLocation("popup URL", func(loc string) bool {
		return strings.HasSuffix(loc, "/next")
	})
	require.NoError(t, err)
	assert.Equal(t, server.URL+"/next", location)

	tab.Close()

	assert.Eventually(t, func() bool {
		targets, err := s.PageTargets()
		return err == nil && len(targets) == len(before)
	}, 3*time.Second, 50*time.Millisecond)
}

func TestSession_ViewportAndScreenshot(t *testing.T) {
	s := newTestSession(t)
	server := newFixtureServer(t)
	require.NoError(t, s.Navigate(server.URL))

	require.NoError(t, s.SetViewport(375, 667))
	var width int
	require.NoError(t, s.Evaluate(`document.documentElement.clientWidth`, &width))
	assert.Equal(t, 375, width)

	path := filepath.Join(t.TempDir(), "shots", "mobile.png")
	require.NoError(t, s.Screenshot(path))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestFocusedElement_String(t *testing.T) {
	assert.Equal(t, `<a href="https://youtube.com/x">`, FocusedElement{Tag: "a", Href: "https://youtube.com/x"}.String())
	assert.Equal(t, "<button>Search", FocusedElement{Tag: "button", Text: "Search"}.String())
	assert.Equal(t, "<div>", FocusedElement{Tag: "div"}.String())
	assert.Equal(t, "<p>"+strings.Repeat("x", 40)+"...", FocusedElement{Tag: "p", Text: strings.Repeat("x", 50)}.String())
}
