package bridge

import (
	"context"
	"fmt"
	"net/url"

	"github.com/raysh454/browserbridge/internal/browser"
	"github.com/raysh454/browserbridge/internal/model"
)

// configure applies identity and trust material to s before anything is
// requested. Headers become page defaults only for GET; the POST strategy
// sends them on the fetch itself.
func configure(ctx context.Context, s browser.Session, cmd *model.Command) error {
	if cmd.UserAgent != "" {
		if err := s.SetUserAgent(ctx, cmd.UserAgent); err != nil {
			return fmt.Errorf("configure user agent: %w", err)
		}
	}
	if len(cmd.Headers) > 0 && cmd.Cmd == model.CmdRequestGet {
		if err := s.SetExtraHeaders(ctx, cmd.Headers); err != nil {
			return fmt.Errorf("configure headers: %w", err)
		}
	}
	if len(cmd.Cookies) > 0 {
		cookies := cmd.Cookies
		if cmd.Cmd == model.CmdRequestPost {
			cookies = crossSiteCookies(cookies, cmd.URL)
		}
		if err := s.SetCookies(ctx, cookies, cmd.URL); err != nil {
			return fmt.Errorf("configure cookies: %w", err)
		}
	}
	return nil
}

// crossSiteCookies returns cookies with SameSite=None; Secure applied to every
// https cookie that left sameSite unset. The POST fetch runs from about:blank,
// which Chrome treats as cross-site, so Lax (its default) would withhold them.
// Chrome refuses SameSite=None without Secure, so plain http cookies are left
// as given.
func crossSiteCookies(cookies []model.Cookie, pageURL string) []model.Cookie {
	out := make([]model.Cookie, len(cookies))
	copy(out, cookies)
	for i := range out {
		c := &out[i]
		if c.SameSite != "" {
			continue
		}
		target := c.URL
		if target == "" {
			target = pageURL
		}
		u, err := url.Parse(target)
		if err != nil || u.Scheme != "https" {
			continue
		}
		c.SameSite = "None"
		c.Secure = true
	}
	return out
}
