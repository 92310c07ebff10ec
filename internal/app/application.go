package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/raysh454/browserbridge/internal/bridge"
	"github.com/raysh454/browserbridge/internal/browser"
	"github.com/raysh454/browserbridge/internal/cli"
	"github.com/raysh454/browserbridge/internal/logging"
	"github.com/raysh454/browserbridge/internal/metrics"
	"github.com/raysh454/browserbridge/internal/server"
)

// shutdownTimeout bounds how long in-flight solves may keep running once a
// shutdown was requested.
const shutdownTimeout = 30 * time.Second

// Application is the runtime state container. It owns the launcher, the
// bridge and the HTTP server, and ties their lifetimes together.
type Application struct {
	Config *Config
	Args   *cli.CLIArgs

	Logger   logging.Logger
	Launcher browser.Launcher
	Metrics  *metrics.Metrics
	Bridge   *bridge.Bridge
	Server   *server.Server

	httpServer *http.Server
}

// NewApplication wires every component from cfg. A nil launcher means a
// ChromeLauncher configured from cfg; tests pass a fake.
func NewApplication(cfg *Config, args *cli.CLIArgs, logger logging.Logger, launcher browser.Launcher) *Application {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if args == nil {
		args = &cli.CLIArgs{}
	}
	if args.Port != 0 {
		cfg.Server.Port = args.Port
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if launcher == nil {
		launcher = browser.NewChromeLauncher(cfg.browserConfig(), logger)
	}

	m := metrics.New()
	limits := []struct {
		name, help string
		value      int
	}{
		{"max_concurrent_sessions", "Configured cap on live browser sessions.", cfg.Bridge.MaxConcurrentSessions},
		{"default_timeout_ms", "Configured per-command timeout when maxTimeout is absent.", cfg.Bridge.DefaultTimeoutMs},
		{"queue_timeout_ms", "Configured wait for a free session slot.", cfg.Bridge.QueueTimeoutMs},
	}
	for _, lim := range limits {
		v := float64(lim.value)
		if err := m.Register(metrics.NewLimitGauge(lim.name, lim.help, func() float64 { return v })); err != nil {
			logger.Warn("registering limit gauge failed",
				logging.Field{Key: "name", Value: lim.name}, logging.Field{Key: "error", Value: err})
		}
	}
	b := bridge.New(cfg.bridgeConfig(), launcher, logger, m)
	srv := server.NewServer(cfg.serverConfig(logger), b, m)

	return &Application{
		Config:     cfg,
		Args:       args,
		Logger:     logger,
		Launcher:   launcher,
		Metrics:    m,
		Bridge:     b,
		Server:     srv,
		httpServer: srv.HTTPServer(),
	}
}

// Run listens on the configured address and serves until ctx is done.
func (a *Application) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", a.httpServer.Addr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully. In-flight
// solves are given shutdownTimeout to finish.
func (a *Application) Serve(ctx context.Context, ln net.Listener) error {
	a.Logger.Info("browserbridge listening",
		logging.Field{Key: "addr", Value: ln.Addr().String()},
		logging.Field{Key: "max_concurrent_sessions", Value: a.Config.Bridge.MaxConcurrentSessions},
		logging.Field{Key: "default_timeout_ms", Value: a.Config.Bridge.DefaultTimeoutMs})

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return a.Shutdown(shutdownCtx)
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (a *Application) Shutdown(ctx context.Context) error {
	if a == nil {
		return errors.New("application is nil")
	}
	a.Logger.Info("application shutdown initiated",
		logging.Field{Key: "live_sessions", Value: a.Launcher.Live()})

	err := a.httpServer.Shutdown(ctx)
	if err != nil {
		a.Logger.Warn("http server shutdown returned error", logging.Field{Key: "error", Value: err})
	}
	if s, ok := a.Logger.(interface{ Sync() error }); ok {
		_ = s.Sync()
	}
	return err
}

// Check launches a single browser, writes its version to w and closes it.
func (a *Application) Check(ctx context.Context, w io.Writer) error {
	s, err := a.Launcher.Acquire(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	ua, err := s.UserAgent(ctx)
	if err != nil {
		return fmt.Errorf("reading browser version: %w", err)
	}
	_, err = fmt.Fprintf(w, "browser ok: %s\n", ua)
	return err
}
