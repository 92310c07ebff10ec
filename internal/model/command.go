package model

import "time"

// CommandName selects which request strategy the bridge runs.
type CommandName string

const (
	CmdRequestGet  CommandName = "request.get"
	CmdRequestPost CommandName = "request.post"
)

// Valid reports whether c is one of the supported commands.
func (c CommandName) Valid() bool {
	return c == CmdRequestGet || c == CmdRequestPost
}

// Command is the request descriptor accepted by POST /v1.
type Command struct {
	Cmd       CommandName       `json:"cmd"`
	URL       string            `json:"url"`
	Headers   map[string]string `json:"headers,omitempty"`
	Cookies   []Cookie          `json:"cookies,omitempty"`
	UserAgent string            `json:"userAgent,omitempty"`
	PostData  string            `json:"postData,omitempty"`

	// Method is accepted for compatibility; the strategy is chosen by Cmd.
	Method string `json:"method,omitempty"`

	// MaxTimeout is in milliseconds. Zero means "use the configured default".
	MaxTimeout int `json:"maxTimeout,omitempty"`
}

// Timeout returns MaxTimeout as a duration, or def when unset.
func (c *Command) Timeout(def time.Duration) time.Duration {
	if c == nil || c.MaxTimeout <= 0 {
		return def
	}
	return time.Duration(c.MaxTimeout) * time.Millisecond
}

// Cookie is a cookie to seed into the session before the first request, and
// the shape cookies are reported back in.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain,omitempty"`
	Path     string  `json:"path,omitempty"`
	URL      string  `json:"url,omitempty"`
	Secure   bool    `json:"secure,omitempty"`
	HTTPOnly bool    `json:"httpOnly,omitempty"`
	SameSite string  `json:"sameSite,omitempty"` // "Strict", "Lax" or "None"
	Expires  float64 `json:"expires,omitempty"`  // unix seconds
}
