// Package bridge turns a command into a browser-performed request: it
// validates the command, starts an isolated browser session, configures it,
// runs the matching strategy and shapes the result. Every session is closed
// before Solve returns.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/raysh454/browserbridge/internal/browser"
	"github.com/raysh454/browserbridge/internal/logging"
	"github.com/raysh454/browserbridge/internal/metrics"
	"github.com/raysh454/browserbridge/internal/model"
)

// captureTimeout bounds reading the session's cookies and user agent after
// the request itself has completed.
const captureTimeout = 5 * time.Second

// Config holds the orchestrator's tunables.
type Config struct {
	// DefaultTimeout applies when a command carries no maxTimeout.
	DefaultTimeout time.Duration
	// MaxConcurrentSessions caps how many browsers run at once.
	MaxConcurrentSessions int
	// QueueTimeout is how long a command may wait for a free slot.
	QueueTimeout time.Duration
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		DefaultTimeout:        20 * time.Second,
		MaxConcurrentSessions: 4,
		QueueTimeout:          30 * time.Second,
	}
}

// Bridge is safe for concurrent use.
type Bridge struct {
	cfg       Config
	launcher  browser.Launcher
	logger    logging.Logger
	metrics   *metrics.Metrics
	admission *admission
}

// New creates a Bridge. metrics may be nil.
func New(cfg Config, launcher browser.Launcher, logger logging.Logger, m *metrics.Metrics) *Bridge {
	def := DefaultConfig()
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = def.DefaultTimeout
	}
	if cfg.MaxConcurrentSessions <= 0 {
		cfg.MaxConcurrentSessions = def.MaxConcurrentSessions
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Bridge{
		cfg:       cfg,
		launcher:  launcher,
		logger:    logger.With(logging.Field{Key: "component", Value: "bridge"}),
		metrics:   m,
		admission: newAdmission(cfg.MaxConcurrentSessions, cfg.QueueTimeout),
	}
}

// LiveSessions reports how many browsers are currently running.
func (b *Bridge) LiveSessions() int {
	return b.launcher.Live()
}

// Solve performs cmd through a fresh browser session. Errors are always of
// type *Error.
func (b *Bridge) Solve(ctx context.Context, cmd *model.Command) (sol *model.Solution, err error) {
	start := time.Now()
	reqID := uuid.NewString()
	logger := b.logger.With(logging.Field{Key: "request_id", Value: reqID})

	cmdName := "unknown"
	if cmd != nil && cmd.Cmd.Valid() {
		cmdName = string(cmd.Cmd)
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic while solving", logging.Field{Key: "panic", Value: fmt.Sprint(r)})
			sol, err = nil, &Error{Kind: KindInternal, Message: fmt.Sprintf("internal failure: %v", r)}
		}
		kind := "ok"
		if err != nil {
			kind = string(KindOf(err))
			logger.Warn("command failed",
				logging.Field{Key: "kind", Value: kind},
				logging.Field{Key: "error", Value: err},
				logging.Field{Key: "duration_ms", Value: time.Since(start).Milliseconds()})
		}
		b.metrics.ObserveSolve(cmdName, kind, time.Since(start))
	}()

	if verr := validate(cmd); verr != nil {
		return nil, verr
	}
	timeout := cmd.Timeout(b.cfg.DefaultTimeout)
	logger = logger.With(
		logging.Field{Key: "cmd", Value: cmdName},
		logging.Field{Key: "url", Value: cmd.URL},
	)
	logger.Debug("command accepted", logging.Field{Key: "timeout_ms", Value: timeout.Milliseconds()})

	waitStart := time.Now()
	if aerr := b.admission.acquire(ctx); aerr != nil {
		b.metrics.ObserveAdmission(time.Since(waitStart), false)
		return nil, classify(KindOverloaded, aerr)
	}
	b.metrics.ObserveAdmission(time.Since(waitStart), true)
	defer b.admission.release()

	err = b.withSession(ctx, logger, func(s browser.Session) error {
		if err := configure(ctx, s, cmd); err != nil {
			return classify(KindInternal, err)
		}
		raw, err := strategyFor(cmd.Cmd)(ctx, s, cmd, timeout)
		if err != nil {
			return classify(KindExecution, err)
		}
		sol = normalize(raw, cmd.URL)
		b.capture(ctx, logger, s, cmd.URL, sol)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("command solved",
		logging.Field{Key: "status", Value: sol.Status},
		logging.Field{Key: "duration_ms", Value: time.Since(start).Milliseconds()})
	return sol, nil
}

// withSession launches a session, hands it to fn and closes it on every
// path, panics included.
func (b *Bridge) withSession(ctx context.Context, logger logging.Logger, fn func(browser.Session) error) error {
	s, err := b.launcher.Acquire(ctx)
	b.metrics.ObserveLaunch(err == nil)
	if err != nil {
		return classify(KindSessionLaunch, err)
	}
	b.metrics.SetLiveSessions(b.launcher.Live())
	logger = logger.With(logging.Field{Key: "session_id", Value: s.ID()})
	logger.Debug("session acquired")

	defer func() {
		if cerr := s.Close(); cerr != nil {
			logger.Warn("closing session", logging.Field{Key: "error", Value: cerr})
		}
		b.metrics.SetLiveSessions(b.launcher.Live())
		logger.Debug("session released")
	}()
	return fn(s)
}

// capture fills in the user agent and cookies the session ended up with.
// Failures are logged and leave the fields empty.
func (b *Bridge) capture(ctx context.Context, logger logging.Logger, s browser.Session, url string, sol *model.Solution) {
	cctx, cancel := context.WithTimeout(ctx, captureTimeout)
	defer cancel()

	if ua, err := s.UserAgent(cctx); err != nil {
		logger.Warn("reading user agent", logging.Field{Key: "error", Value: err})
	} else {
		sol.UserAgent = ua
	}
	if cookies, err := s.Cookies(cctx, url); err != nil {
		logger.Warn("reading cookies", logging.Field{Key: "error", Value: err})
	} else if cookies != nil {
		sol.Cookies = cookies
	}
}

// classify maps err onto a kind. Browser sentinels and context errors take
// precedence over fallback.
func classify(fallback Kind, err error) *Error {
	var be *Error
	switch {
	case errors.As(err, &be):
		return be
	case errors.Is(err, browser.ErrLaunch):
		return newError(KindSessionLaunch, err)
	case errors.Is(err, browser.ErrNavigationTimeout), errors.Is(err, context.DeadlineExceeded):
		return newError(KindNavigationTimeout, err)
	case errors.Is(err, browser.ErrNavigationFailed), errors.Is(err, browser.ErrSessionClosed),
		errors.Is(err, context.Canceled):
		return newError(KindExecution, err)
	default:
		return newError(fallback, err)
	}
}
