package app

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/raysh454/browserbridge/internal/bridge"
	"github.com/raysh454/browserbridge/internal/browser"
	"github.com/raysh454/browserbridge/internal/logging"
	"github.com/raysh454/browserbridge/internal/server"
)

// Config holds all runtime configuration. Every field is read from the
// environment by Load.
type Config struct {
	Server  ServerConfig
	Bridge  BridgeConfig
	Browser BrowserConfig
	Logging LogConfig
}

// ServerConfig holds HTTP listener configuration.
type ServerConfig struct {
	Port int    `envconfig:"PORT" default:"3000"`
	Host string `envconfig:"HOST" default:""`
}

// BridgeConfig holds orchestration limits.
type BridgeConfig struct {
	DefaultTimeoutMs      int `envconfig:"DEFAULT_TIMEOUT_MS" default:"20000"`
	MaxConcurrentSessions int `envconfig:"MAX_CONCURRENT_SESSIONS" default:"4"`
	QueueTimeoutMs        int `envconfig:"QUEUE_TIMEOUT_MS" default:"30000"`
}

// BrowserConfig holds how Chrome is launched.
type BrowserConfig struct {
	Headless           bool   `envconfig:"HEADLESS" default:"true"`
	ChromePath         string `envconfig:"CHROME_PATH" default:""`
	NoSandbox          bool   `envconfig:"BROWSER_NO_SANDBOX" default:"true"`
	DisableWebSecurity bool   `envconfig:"BROWSER_DISABLE_WEB_SECURITY" default:"true"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DefaultConfig returns the configuration Load produces with an empty
// environment.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 3000,
		},
		Bridge: BridgeConfig{
			DefaultTimeoutMs:      20000,
			MaxConcurrentSessions: 4,
			QueueTimeoutMs:        30000,
		},
		Browser: BrowserConfig{
			Headless:           true,
			NoSandbox:          true,
			DisableWebSecurity: true,
		},
		Logging: LogConfig{
			Level: "info",
		},
	}
}

// Validate rejects values no component could run with.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("PORT out of range: %d", c.Server.Port)
	}
	if c.Bridge.DefaultTimeoutMs <= 0 {
		return fmt.Errorf("DEFAULT_TIMEOUT_MS must be positive, got %d", c.Bridge.DefaultTimeoutMs)
	}
	if c.Bridge.MaxConcurrentSessions <= 0 {
		return fmt.Errorf("MAX_CONCURRENT_SESSIONS must be positive, got %d", c.Bridge.MaxConcurrentSessions)
	}
	if c.Bridge.QueueTimeoutMs < 0 {
		return fmt.Errorf("QUEUE_TIMEOUT_MS must not be negative, got %d", c.Bridge.QueueTimeoutMs)
	}
	return nil
}

// ListenAddr joins HOST and PORT.
func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

func (c *Config) bridgeConfig() bridge.Config {
	return bridge.Config{
		DefaultTimeout:        time.Duration(c.Bridge.DefaultTimeoutMs) * time.Millisecond,
		MaxConcurrentSessions: c.Bridge.MaxConcurrentSessions,
		QueueTimeout:          time.Duration(c.Bridge.QueueTimeoutMs) * time.Millisecond,
	}
}

func (c *Config) browserConfig() browser.Config {
	bc := browser.DefaultConfig()
	bc.Headless = c.Browser.Headless
	bc.ExecPath = c.Browser.ChromePath
	bc.NoSandbox = c.Browser.NoSandbox
	bc.DisableWebSecurity = c.Browser.DisableWebSecurity
	return bc
}

func (c *Config) serverConfig(logger logging.Logger) server.Config {
	sc := server.DefaultConfig()
	sc.ListenAddr = c.ListenAddr()
	sc.Logger = logger
	return sc
}

// LoggingConfig returns the settings for logging.NewZapLogger.
func (c *Config) LoggingConfig() logging.Config {
	return logging.Config{Level: c.Logging.Level, Development: c.Logging.Development}
}
