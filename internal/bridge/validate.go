package bridge

import (
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/idna"

	"github.com/raysh454/browserbridge/internal/browser"
	"github.com/raysh454/browserbridge/internal/model"
)

// MsgInvalidCommand is the message for a missing url or unknown cmd.
const MsgInvalidCommand = "Invalid command or missing URL"

// hostProfile maps and checks host names without the STD3 ASCII rules, so
// names Chrome resolves, such as my_service, still pass.
var hostProfile = idna.New(idna.MapForLookup(), idna.StrictDomainName(false))

// validate rejects a command before any browser is started.
func validate(cmd *model.Command) *Error {
	if cmd == nil || strings.TrimSpace(cmd.URL) == "" || !cmd.Cmd.Valid() {
		return &Error{Kind: KindInvalidCommand, Message: MsgInvalidCommand}
	}
	if cmd.MaxTimeout < 0 {
		return invalidf("maxTimeout must be positive, got %d", cmd.MaxTimeout)
	}
	if err := validateURL(cmd.URL); err != nil {
		return err
	}
	for i, c := range cmd.Cookies {
		if strings.TrimSpace(c.Name) == "" {
			return invalidf("cookie %d: missing name", i)
		}
		if _, err := browser.ParseSameSite(c.SameSite); err != nil {
			return invalidf("cookie %q: %v", c.Name, err)
		}
		if c.URL != "" {
			if err := validateURL(c.URL); err != nil {
				return invalidf("cookie %q: %s", c.Name, err.Message)
			}
		}
	}
	return nil
}

func validateURL(raw string) *Error {
	u, err := url.Parse(raw)
	if err != nil {
		return invalidf("invalid url %q: %v", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return invalidf("invalid url %q: scheme must be http or https", raw)
	}
	host := u.Hostname()
	if host == "" {
		return invalidf("invalid url %q: missing host", raw)
	}
	if net.ParseIP(host) != nil {
		return nil
	}
	if _, err := hostProfile.ToASCII(host); err != nil {
		return invalidf("invalid url %q: %v", raw, err)
	}
	return nil
}
