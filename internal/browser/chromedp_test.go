package browser_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/raysh454/browserbridge/internal/browser"
	"github.com/raysh454/browserbridge/internal/demoserver"
	"github.com/raysh454/browserbridge/internal/model"
	"github.com/raysh454/browserbridge/internal/testutil"
)

// startSession launches a real browser against a demo target. Tests skip
// when the environment has no usable Chrome.
func startSession(t *testing.T) (browser.Session, *browser.ChromeLauncher, string) {
	t.Helper()

	target := httptest.NewServer(demoserver.NewDemoServer(demoserver.DefaultConfig()).Handler())
	t.Cleanup(target.Close)

	l := browser.NewChromeLauncher(browser.DefaultConfig(), &testutil.DummyLogger{})
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s, err := l.Acquire(ctx)
	if err != nil {
		t.Skipf("Skipping chromedp test (environment does not support chromedp): %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, l, target.URL
}

func TestChromeSession_NavigateRendersScripts(t *testing.T) {
	t.Parallel()
	s, l, base := startSession(t)

	if l.Live() != 1 {
		t.Errorf("Live() = %d, want 1", l.Live())
	}

	res, err := s.Navigate(context.Background(), base+"/", 15*time.Second)
	if err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	if res.Status != 200 {
		t.Errorf("status = %d, want 200", res.Status)
	}
	if res.Headers["x-demo"] != "index" {
		t.Errorf("headers = %v", res.Headers)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(res.Body))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := doc.Find("#app").Text(); got != "rendered by script" {
		t.Errorf("#app = %q", got)
	}
	if doc.Find("#marker").Length() != 1 {
		t.Error("script-created #marker missing")
	}
}

func TestChromeSession_NavigateFollowsRedirect(t *testing.T) {
	t.Parallel()
	s, _, base := startSession(t)

	res, err := s.Navigate(context.Background(), base+"/redirect?to=/status/404", 15*time.Second)
	if err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	if res.Status != 404 {
		t.Errorf("status = %d, want final hop 404", res.Status)
	}
}

func TestChromeSession_UserAgentAndHeaders(t *testing.T) {
	t.Parallel()
	s, _, base := startSession(t)
	ctx := context.Background()

	if err := s.SetUserAgent(ctx, "bridge-test/1.0"); err != nil {
		t.Fatalf("SetUserAgent: %v", err)
	}
	if err := s.SetExtraHeaders(ctx, map[string]string{"X-Probe": "abc"}); err != nil {
		t.Fatalf("SetExtraHeaders: %v", err)
	}
	res, err := s.Navigate(ctx, base+"/headers", 15*time.Second)
	if err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	if !strings.Contains(res.Body, "x-probe: abc") {
		t.Errorf("extra header not sent: %s", res.Body)
	}
	if !strings.Contains(res.Body, "user-agent: bridge-test/1.0") {
		t.Errorf("user agent not applied: %s", res.Body)
	}
	ua, err := s.UserAgent(ctx)
	if err != nil {
		t.Fatalf("UserAgent: %v", err)
	}
	if ua != "bridge-test/1.0" {
		t.Errorf("UserAgent = %q, want the override", ua)
	}
}

func TestChromeSession_Cookies(t *testing.T) {
	t.Parallel()
	s, _, base := startSession(t)
	ctx := context.Background()

	if err := s.SetCookies(ctx, []model.Cookie{{Name: "seed", Value: "x"}}, base+"/cookies"); err != nil {
		t.Fatalf("SetCookies: %v", err)
	}
	res, err := s.Navigate(ctx, base+"/cookies", 15*time.Second)
	if err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	if !strings.Contains(res.Body, "seed=x") {
		t.Errorf("seed cookie not sent: %s", res.Body)
	}

	jar, err := s.Cookies(ctx, base+"/cookies")
	if err != nil {
		t.Fatalf("Cookies: %v", err)
	}
	names := map[string]bool{}
	for _, c := range jar {
		names[c.Name] = true
	}
	if !names["seed"] || !names["demo_visit"] {
		t.Errorf("cookies = %+v", jar)
	}
}

func TestChromeSession_Fetch(t *testing.T) {
	t.Parallel()
	s, _, base := startSession(t)

	res, err := s.Fetch(context.Background(), browser.FetchRequest{
		Method:  "POST",
		URL:     base + "/echo",
		Headers: map[string]string{"Content-Type": "application/x-www-form-urlencoded"},
		Body:    "a=1&b=2",
	}, 15*time.Second)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.Status != 200 {
		t.Errorf("status = %d", res.Status)
	}
	if res.Headers["x-echo-method"] != "POST" {
		t.Errorf("headers = %v", res.Headers)
	}
	var echo struct {
		Body string `json:"body"`
	}
	if err := json.Unmarshal([]byte(res.Body), &echo); err != nil {
		t.Fatalf("decode echo: %v (%s)", err, res.Body)
	}
	if echo.Body != "a=1&b=2" {
		t.Errorf("echoed body = %q", echo.Body)
	}
}

func TestChromeSession_NavigateTimeout(t *testing.T) {
	t.Parallel()
	s, _, base := startSession(t)

	_, err := s.Navigate(context.Background(), base+"/slow?ms=5000", 300*time.Millisecond)
	if !errors.Is(err, browser.ErrNavigationTimeout) {
		t.Fatalf("err = %v, want ErrNavigationTimeout", err)
	}
}

func TestChromeSession_FetchTimeout(t *testing.T) {
	t.Parallel()
	s, _, base := startSession(t)

	_, err := s.Fetch(context.Background(), browser.FetchRequest{URL: base + "/slow?ms=5000"}, 300*time.Millisecond)
	if !errors.Is(err, browser.ErrNavigationTimeout) {
		t.Fatalf("err = %v, want ErrNavigationTimeout", err)
	}
}

func TestChromeSession_CloseReleases(t *testing.T) {
	t.Parallel()
	s, l, base := startSession(t)

	if err := s.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if l.Live() != 0 {
		t.Errorf("Live() = %d after close", l.Live())
	}
	if _, err := s.Navigate(context.Background(), base, time.Second); !errors.Is(err, browser.ErrSessionClosed) {
		t.Errorf("Navigate after close err = %v", err)
	}
}

func TestChromeLauncher_AcquireCancelled(t *testing.T) {
	t.Parallel()
	l := browser.NewChromeLauncher(browser.DefaultConfig(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := l.Acquire(ctx); !errors.Is(err, browser.ErrLaunch) {
		t.Fatalf("err = %v, want ErrLaunch", err)
	}
	if l.Live() != 0 {
		t.Errorf("Live() = %d", l.Live())
	}
}

func TestChromeLauncher_BadExecPath(t *testing.T) {
	t.Parallel()
	cfg := browser.DefaultConfig()
	cfg.ExecPath = "/nonexistent/chrome-binary"
	l := browser.NewChromeLauncher(cfg, nil)

	_, err := l.Acquire(context.Background())
	if !errors.Is(err, browser.ErrLaunch) {
		t.Fatalf("err = %v, want ErrLaunch", err)
	}
	if l.Live() != 0 {
		t.Errorf("Live() = %d", l.Live())
	}
}
