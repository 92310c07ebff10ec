package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/raysh454/browserbridge/internal/logging"
	"github.com/raysh454/browserbridge/internal/model"
)

func (s *chromeSession) SetUserAgent(ctx context.Context, userAgent string) error {
	runCtx, cancel, err := s.runContext(ctx, 0)
	if err != nil {
		return err
	}
	defer cancel()

	if err := chromedp.Run(runCtx, emulation.SetUserAgentOverride(userAgent)); err != nil {
		return fmt.Errorf("setting user agent: %w", err)
	}
	return nil
}

func (s *chromeSession) SetExtraHeaders(ctx context.Context, headers map[string]string) error {
	runCtx, cancel, err := s.runContext(ctx, 0)
	if err != nil {
		return err
	}
	defer cancel()

	h := make(network.Headers, len(headers))
	for k, v := range headers {
		h[k] = v
	}
	if err := chromedp.Run(runCtx, network.SetExtraHTTPHeaders(h)); err != nil {
		return fmt.Errorf("setting extra headers: %w", err)
	}
	return nil
}

func (s *chromeSession) SetCookies(ctx context.Context, cookies []model.Cookie, pageURL string) error {
	if len(cookies) == 0 {
		return nil
	}
	runCtx, cancel, err := s.runContext(ctx, 0)
	if err != nil {
		return err
	}
	defer cancel()

	params, err := cookieParams(cookies, pageURL)
	if err != nil {
		return err
	}
	if err := chromedp.Run(runCtx, network.SetCookies(params)); err != nil {
		return fmt.Errorf("setting cookies: %w", err)
	}
	s.logger.Debug("cookies seeded", logging.Field{Key: "count", Value: len(params)})
	return nil
}

func (s *chromeSession) Cookies(ctx context.Context, url string) ([]model.Cookie, error) {
	runCtx, cancel, err := s.runContext(ctx, 0)
	if err != nil {
		return nil, err
	}
	defer cancel()

	var cookies []*network.Cookie
	err = chromedp.Run(runCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		cookies, err = network.GetCookies().WithURLs([]string{url}).Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("reading cookies: %w", err)
	}
	return fromNetworkCookies(cookies), nil
}

// UserAgent reports the agent the tab presents to pages, which includes any
// override set through SetUserAgent.
func (s *chromeSession) UserAgent(ctx context.Context) (string, error) {
	runCtx, cancel, err := s.runContext(ctx, 0)
	if err != nil {
		return "", err
	}
	defer cancel()

	var ua string
	if err := chromedp.Run(runCtx, chromedp.Evaluate(`navigator.userAgent`, &ua)); err != nil {
		return "", fmt.Errorf("reading user agent: %w", err)
	}
	return ua, nil
}
