package browser

import "time"

// Config controls how browser processes are launched and how navigation
// completion is detected.
type Config struct {
	Headless bool

	// ExecPath overrides the Chrome binary; empty lets chromedp find one.
	ExecPath string

	NoSandbox bool

	// DisableWebSecurity turns off same-origin checks so the in-page fetch,
	// which runs from about:blank, can read cross-origin responses.
	DisableWebSecurity bool

	// LaunchTimeout bounds process startup.
	LaunchTimeout time.Duration

	// WaitUntil is the page lifecycle event that marks a navigation as done.
	// "networkAlmostIdle" fires once no more than two connections have been
	// active for 500ms.
	WaitUntil string

	// ExtraFlags are passed to Chrome as --name=value.
	ExtraFlags map[string]any
}

// DefaultConfig returns a Config suitable for unattended server use.
func DefaultConfig() Config {
	return Config{
		Headless:           true,
		NoSandbox:          true,
		DisableWebSecurity: true,
		LaunchTimeout:      30 * time.Second,
		WaitUntil:          "networkAlmostIdle",
	}
}
