package browser

import (
	"context"
	"errors"
	"time"

	"github.com/raysh454/browserbridge/internal/model"
)

var (
	// ErrLaunch is returned when the browser process could not be started.
	ErrLaunch = errors.New("browser launch failed")

	// ErrNavigationTimeout is returned when a navigation or in-page fetch
	// does not complete within its timeout.
	ErrNavigationTimeout = errors.New("navigation timeout")

	// ErrNavigationFailed is returned when the browser reports a network
	// level failure (DNS, refused connection, ...) or the in-page fetch throws.
	ErrNavigationFailed = errors.New("navigation failed")

	// ErrSessionClosed is returned by operations on a released session.
	ErrSessionClosed = errors.New("session closed")
)

// Launcher starts isolated browser sessions. Every Acquire yields a new
// browser process; sessions are never shared or reused.
type Launcher interface {
	Acquire(ctx context.Context) (Session, error)

	// Live reports how many acquired sessions have not been closed yet.
	Live() int
}

// Session is one browser process with exactly one tab. Close terminates the
// process; it is safe to call more than once.
type Session interface {
	ID() string

	SetUserAgent(ctx context.Context, userAgent string) error
	SetExtraHeaders(ctx context.Context, headers map[string]string) error
	SetCookies(ctx context.Context, cookies []model.Cookie, pageURL string) error

	// Navigate loads url as a full page and waits for the network to settle.
	Navigate(ctx context.Context, url string, timeout time.Duration) (*RawResult, error)

	// Fetch loads a blank page and issues req from its script context.
	Fetch(ctx context.Context, req FetchRequest, timeout time.Duration) (*RawResult, error)

	Cookies(ctx context.Context, url string) ([]model.Cookie, error)
	UserAgent(ctx context.Context) (string, error)

	Close() error
}

// RawResult is what either execution path produces before normalization.
type RawResult struct {
	Status  int
	Headers map[string]string
	Body    string
}

// FetchRequest describes an in-page fetch.
type FetchRequest struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    string
}
