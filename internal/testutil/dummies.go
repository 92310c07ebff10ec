// Package testutil provides shared test doubles for use across package tests.
// All dummies implement the corresponding interfaces from the production code,
// allowing injection into components under test without a real browser.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/raysh454/browserbridge/internal/browser"
	"github.com/raysh454/browserbridge/internal/logging"
	"github.com/raysh454/browserbridge/internal/model"
)

// ─── Logger ────────────────────────────────────────────────────────────

// DummyLogger implements logging.Logger with in-memory recording.
type DummyLogger struct {
	mu     sync.Mutex
	Errors []string
	Infos  []string
	Debugs []string
	Warns  []string
}

func (l *DummyLogger) Debug(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Debugs = append(l.Debugs, msg)
}

func (l *DummyLogger) Info(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Infos = append(l.Infos, msg)
}

func (l *DummyLogger) Warn(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Warns = append(l.Warns, msg)
}

func (l *DummyLogger) Error(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Errors = append(l.Errors, msg)
}

func (l *DummyLogger) With(_ ...logging.Field) logging.Logger { return l }

// ErrorCount returns how many messages were logged at error level.
func (l *DummyLogger) ErrorCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.Errors)
}

// ─── Browser ───────────────────────────────────────────────────────────

// ErrInjected is the default error returned by failure hooks.
var ErrInjected = errors.New("injected failure")

// FakeLauncher implements browser.Launcher without starting any process.
// Every Acquire creates a fresh FakeSession, configured by Setup when set.
type FakeLauncher struct {
	// AcquireErr makes Acquire fail without creating a session.
	AcquireErr error
	// AcquireDelay is waited (or ctx) before a session is handed out.
	AcquireDelay time.Duration
	// Setup customises each new session before it is returned.
	Setup func(*FakeSession)

	mu       sync.Mutex
	live     int
	peak     int
	acquired int
	sessions []*FakeSession
}

func (l *FakeLauncher) Acquire(ctx context.Context) (browser.Session, error) {
	if l.AcquireDelay > 0 {
		select {
		case <-time.After(l.AcquireDelay):
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", browser.ErrLaunch, ctx.Err())
		}
	}
	if l.AcquireErr != nil {
		return nil, fmt.Errorf("%w: %w", browser.ErrLaunch, l.AcquireErr)
	}

	l.mu.Lock()
	l.acquired++
	l.live++
	if l.live > l.peak {
		l.peak = l.live
	}
	s := &FakeSession{
		id:       fmt.Sprintf("fake-%d", l.acquired),
		launcher: l,
		Status:   200,
		Body:     "<html><body>ok</body></html>",
		Agent:    "FakeBrowser/1.0",
		Jar:      map[string]model.Cookie{},
	}
	l.sessions = append(l.sessions, s)
	l.mu.Unlock()

	if l.Setup != nil {
		l.Setup(s)
	}
	return s, nil
}

func (l *FakeLauncher) Live() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.live
}

// Peak reports the highest number of simultaneously live sessions.
func (l *FakeLauncher) Peak() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.peak
}

// Acquired reports how many sessions were handed out in total.
func (l *FakeLauncher) Acquired() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.acquired
}

// Sessions returns the sessions handed out so far.
func (l *FakeLauncher) Sessions() []*FakeSession {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*FakeSession(nil), l.sessions...)
}

// FakeSession implements browser.Session and records every call. Navigate
// and Fetch answer with Status, Headers and Body unless an error or panic is
// injected.
type FakeSession struct {
	id       string
	launcher *FakeLauncher

	Status  int
	Headers map[string]string
	Body    string
	Agent   string

	// Delay blocks Navigate and Fetch for this long, honouring the timeout
	// and ctx the way the real session does.
	Delay time.Duration

	NavigateErr  error
	FetchErr     error
	ConfigureErr error
	// PanicIn names a method ("Navigate", "Fetch", "SetCookies", ...) that
	// panics instead of returning.
	PanicIn string

	mu           sync.Mutex
	Jar          map[string]model.Cookie
	UserAgentSet string
	ExtraHeaders map[string]string
	Navigated    []string
	Fetched      []browser.FetchRequest
	closeCalls   int
}

func (s *FakeSession) ID() string { return s.id }

func (s *FakeSession) maybePanic(method string) {
	if s.PanicIn == method {
		panic("fake session: " + method)
	}
}

func (s *FakeSession) SetUserAgent(ctx context.Context, userAgent string) error {
	s.maybePanic("SetUserAgent")
	if s.ConfigureErr != nil {
		return s.ConfigureErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.UserAgentSet = userAgent
	return nil
}

func (s *FakeSession) SetExtraHeaders(ctx context.Context, headers map[string]string) error {
	s.maybePanic("SetExtraHeaders")
	if s.ConfigureErr != nil {
		return s.ConfigureErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ExtraHeaders = maps.Clone(headers)
	return nil
}

func (s *FakeSession) SetCookies(ctx context.Context, cookies []model.Cookie, pageURL string) error {
	s.maybePanic("SetCookies")
	if s.ConfigureErr != nil {
		return s.ConfigureErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range cookies {
		if c.URL == "" && c.Domain == "" {
			c.URL = pageURL
		}
		s.Jar[c.Name] = c
	}
	return nil
}

func (s *FakeSession) wait(ctx context.Context, timeout time.Duration) error {
	if s.Delay <= 0 {
		return nil
	}
	var expired <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		expired = t.C
	}
	select {
	case <-time.After(s.Delay):
		return nil
	case <-expired:
		return fmt.Errorf("%w of %d ms exceeded", browser.ErrNavigationTimeout, timeout.Milliseconds())
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *FakeSession) Navigate(ctx context.Context, url string, timeout time.Duration) (*browser.RawResult, error) {
	s.maybePanic("Navigate")
	if s.IsClosed() {
		return nil, browser.ErrSessionClosed
	}
	s.mu.Lock()
	s.Navigated = append(s.Navigated, url)
	s.mu.Unlock()

	if err := s.wait(ctx, timeout); err != nil {
		return nil, err
	}
	if s.NavigateErr != nil {
		return nil, s.NavigateErr
	}
	return &browser.RawResult{Status: s.Status, Headers: maps.Clone(s.Headers), Body: s.Body}, nil
}

func (s *FakeSession) Fetch(ctx context.Context, req browser.FetchRequest, timeout time.Duration) (*browser.RawResult, error) {
	s.maybePanic("Fetch")
	if s.IsClosed() {
		return nil, browser.ErrSessionClosed
	}
	s.mu.Lock()
	s.Fetched = append(s.Fetched, req)
	s.mu.Unlock()

	if err := s.wait(ctx, timeout); err != nil {
		return nil, err
	}
	if s.FetchErr != nil {
		return nil, s.FetchErr
	}
	return &browser.RawResult{Status: s.Status, Headers: maps.Clone(s.Headers), Body: s.Body}, nil
}

func (s *FakeSession) Cookies(ctx context.Context, url string) ([]model.Cookie, error) {
	s.maybePanic("Cookies")
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Cookie, 0, len(s.Jar))
	for _, c := range s.Jar {
		out = append(out, c)
	}
	return out, nil
}

func (s *FakeSession) UserAgent(ctx context.Context) (string, error) {
	s.maybePanic("UserAgent")
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.UserAgentSet != "" {
		return s.UserAgentSet, nil
	}
	return s.Agent, nil
}

func (s *FakeSession) Close() error {
	s.mu.Lock()
	s.closeCalls++
	first := s.closeCalls == 1
	s.mu.Unlock()

	if first {
		s.launcher.mu.Lock()
		s.launcher.live--
		s.launcher.mu.Unlock()
	}
	return nil
}

// CloseCalls reports how many times Close was called.
func (s *FakeSession) CloseCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeCalls
}

// IsClosed reports whether Close was called at least once.
func (s *FakeSession) IsClosed() bool {
	return s.CloseCalls() > 0
}

// Snapshot returns copies of what was configured and requested.
func (s *FakeSession) Snapshot() (userAgent string, headers map[string]string, navigated []string, fetched []browser.FetchRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.UserAgentSet, maps.Clone(s.ExtraHeaders), append([]string(nil), s.Navigated...), append([]browser.FetchRequest(nil), s.Fetched...)
}
