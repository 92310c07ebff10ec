package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"

	"github.com/raysh454/browserbridge/internal/logging"
)

// ChromeLauncher starts one headless Chrome per Acquire through chromedp's
// exec allocator.
type ChromeLauncher struct {
	cfg    Config
	logger logging.Logger
	live   atomic.Int64
}

// NewChromeLauncher returns a launcher using cfg. Zero-valued timing fields
// fall back to DefaultConfig.
func NewChromeLauncher(cfg Config, logger logging.Logger) *ChromeLauncher {
	def := DefaultConfig()
	if cfg.LaunchTimeout <= 0 {
		cfg.LaunchTimeout = def.LaunchTimeout
	}
	if cfg.WaitUntil == "" {
		cfg.WaitUntil = def.WaitUntil
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ChromeLauncher{
		cfg:    cfg,
		logger: logger.With(logging.Field{Key: "component", Value: "browser"}),
	}
}

func (l *ChromeLauncher) Live() int {
	return int(l.live.Load())
}

func (l *ChromeLauncher) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", l.cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
		chromedp.Flag("mute-audio", true),
	)
	if l.cfg.NoSandbox {
		opts = append(opts,
			chromedp.NoSandbox,
			chromedp.Flag("disable-setuid-sandbox", true),
		)
	}
	if l.cfg.DisableWebSecurity {
		opts = append(opts, chromedp.Flag("disable-web-security", true))
	}
	if l.cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(l.cfg.ExecPath))
	}
	for name, value := range l.cfg.ExtraFlags {
		opts = append(opts, chromedp.Flag(name, value))
	}
	return opts
}

// Acquire launches a new browser process and opens its single tab. The
// returned session must be closed by the caller. On failure nothing is left
// running.
func (l *ChromeLauncher) Acquire(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLaunch, err)
	}

	id := uuid.NewString()
	logger := l.logger.With(logging.Field{Key: "session_id", Value: id})

	// The allocator is rooted in Background so the process lifetime is owned
	// by the session, not by whichever context happened to launch it.
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), l.allocatorOptions()...)
	printf := func(format string, args ...any) {
		logger.Debug(fmt.Sprintf(format, args...))
	}
	tabCtx, tabCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(printf),
		chromedp.WithErrorf(printf),
	)

	s := &chromeSession{
		id:          id,
		cfg:         l.cfg,
		logger:      logger,
		ctx:         tabCtx,
		cancel:      tabCancel,
		allocCancel: allocCancel,
		launcher:    l,
	}
	l.live.Add(1)

	// Kill a hung startup, or one whose caller went away.
	watchdog := time.AfterFunc(l.cfg.LaunchTimeout, allocCancel)
	stop := context.AfterFunc(ctx, allocCancel)
	err := chromedp.Run(tabCtx)
	watchdog.Stop()
	stop()
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("%w: %w", ErrLaunch, err)
	}

	if err := chromedp.Run(tabCtx,
		network.Enable(),
		page.Enable(),
		page.SetLifecycleEventsEnabled(true),
	); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("%w: enabling domains: %w", ErrLaunch, err)
	}

	logger.Debug("browser session started", logging.Field{Key: "live", Value: l.Live()})
	return s, nil
}

// chromeSession implements Session over a chromedp tab context.
type chromeSession struct {
	id     string
	cfg    Config
	logger logging.Logger

	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	launcher    *ChromeLauncher

	closeOnce sync.Once
	closed    atomic.Bool
}

func (s *chromeSession) ID() string { return s.id }

// Close shuts the browser down gracefully, then tears the allocator down,
// which kills the process if it is still around and removes its profile dir.
func (s *chromeSession) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		if cerr := chromedp.Cancel(s.ctx); cerr != nil && !errors.Is(cerr, context.Canceled) {
			err = cerr
		}
		s.cancel()
		s.allocCancel()
		s.launcher.live.Add(-1)
		s.logger.Debug("browser session closed", logging.Field{Key: "live", Value: s.launcher.Live()})
	})
	return err
}

// runContext derives a context for one operation on the tab. It is cancelled
// when the caller's ctx is, and expires after timeout when timeout > 0.
func (s *chromeSession) runContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc, error) {
	if s.closed.Load() {
		return nil, nil, ErrSessionClosed
	}
	runCtx, cancel := context.WithCancel(s.ctx)
	stop := context.AfterFunc(ctx, cancel)
	if timeout > 0 {
		var tcancel context.CancelFunc
		runCtx, tcancel = context.WithTimeout(runCtx, timeout)
		return runCtx, func() { tcancel(); stop(); cancel() }, nil
	}
	return runCtx, func() { stop(); cancel() }, nil
}

// timeoutOr classifies an error from a bounded operation: a deadline hit on
// runCtx while the caller is still waiting is a navigation timeout.
func timeoutOr(caller, runCtx context.Context, timeout time.Duration, err error) error {
	if caller.Err() != nil {
		return caller.Err()
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w of %d ms exceeded", ErrNavigationTimeout, timeout.Milliseconds())
	}
	return err
}
