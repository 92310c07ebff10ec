package browser

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"

	"github.com/raysh454/browserbridge/internal/model"
)

// ParseSameSite maps the descriptor's sameSite string onto CDP's enum. An
// empty string is valid and leaves the attribute unset.
func ParseSameSite(v string) (network.CookieSameSite, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "":
		return "", nil
	case "strict":
		return network.CookieSameSiteStrict, nil
	case "lax":
		return network.CookieSameSiteLax, nil
	case "none":
		return network.CookieSameSiteNone, nil
	default:
		return "", fmt.Errorf("unknown sameSite %q", v)
	}
}

// cookieParams converts descriptor cookies to CDP params. Cookies with
// neither a domain nor a url are scoped to pageURL.
func cookieParams(cookies []model.Cookie, pageURL string) ([]*network.CookieParam, error) {
	out := make([]*network.CookieParam, 0, len(cookies))
	for _, c := range cookies {
		if c.Name == "" {
			return nil, fmt.Errorf("cookie without name")
		}
		sameSite, err := ParseSameSite(c.SameSite)
		if err != nil {
			return nil, fmt.Errorf("cookie %q: %w", c.Name, err)
		}

		p := &network.CookieParam{
			Name:     c.Name,
			Value:    c.Value,
			URL:      c.URL,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
			SameSite: sameSite,
		}
		if p.Domain == "" && p.URL == "" {
			p.URL = pageURL
		}
		if c.Expires > 0 {
			sec, frac := math.Modf(c.Expires)
			exp := cdp.TimeSinceEpoch(time.Unix(int64(sec), int64(frac*1e9)))
			p.Expires = &exp
		}
		out = append(out, p)
	}
	return out, nil
}

func fromNetworkCookies(cookies []*network.Cookie) []model.Cookie {
	out := make([]model.Cookie, 0, len(cookies))
	for _, c := range cookies {
		if c == nil {
			continue
		}
		mc := model.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
			SameSite: string(c.SameSite),
		}
		// Session cookies report -1.
		if !c.Session && c.Expires > 0 {
			mc.Expires = c.Expires
		}
		out = append(out, mc)
	}
	return out
}
