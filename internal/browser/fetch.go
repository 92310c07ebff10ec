package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

// fetchFunction runs inside about:blank. An abort from its own timer is
// reported as {timedOut: true} rather than thrown so it can be told apart
// from network failures.
const fetchFunction = `async (url, init, timeoutMs) => {
	const controller = new AbortController();
	const timer = timeoutMs > 0 ? setTimeout(() => controller.abort(), timeoutMs) : null;
	try {
		const res = await fetch(url, Object.assign({}, init, { signal: controller.signal }));
		const body = await res.text();
		const headers = {};
		res.headers.forEach((value, name) => { headers[name] = value; });
		return { status: res.status, headers: headers, body: body };
	} catch (e) {
		if (e && e.name === 'AbortError') {
			return { timedOut: true };
		}
		throw e;
	} finally {
		if (timer !== null) {
			clearTimeout(timer);
		}
	}
}`

type fetchResult struct {
	Status   int               `json:"status"`
	Headers  map[string]string `json:"headers"`
	Body     string            `json:"body"`
	TimedOut bool              `json:"timedOut"`
}

// fetchExpression renders the call to fetchFunction with its arguments
// encoded as JSON literals.
func fetchExpression(req FetchRequest, timeout time.Duration) (string, error) {
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodPost
	}
	init := map[string]any{
		"method":      method,
		"credentials": "include",
	}
	if len(req.Headers) > 0 {
		init["headers"] = req.Headers
	}
	if method != http.MethodGet && method != http.MethodHead {
		init["body"] = req.Body
	}

	urlJSON, err := json.Marshal(req.URL)
	if err != nil {
		return "", fmt.Errorf("encoding url: %w", err)
	}
	initJSON, err := json.Marshal(init)
	if err != nil {
		return "", fmt.Errorf("encoding fetch init: %w", err)
	}
	return fmt.Sprintf("(%s)(%s, %s, %d)", fetchFunction, urlJSON, initJSON, timeout.Milliseconds()), nil
}

// Fetch moves the tab to about:blank, so no state from a real page leaks
// into the request, and performs req with the page's fetch API.
func (s *chromeSession) Fetch(ctx context.Context, req FetchRequest, timeout time.Duration) (*RawResult, error) {
	expr, err := fetchExpression(req, timeout)
	if err != nil {
		return nil, err
	}

	runCtx, cancel, err := s.runContext(ctx, timeout)
	if err != nil {
		return nil, err
	}
	defer cancel()

	w := newNavigationWatcher("load")
	chromedp.ListenTarget(runCtx, w.listen)

	var out fetchResult
	err = chromedp.Run(runCtx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			fid, loader, errorText, _, err := page.Navigate("about:blank").Do(ctx)
			if err != nil {
				return err
			}
			if errorText != "" {
				return fmt.Errorf("%w: %s at about:blank", ErrNavigationFailed, errorText)
			}
			// An empty loader means a same-document navigation: nothing to wait for.
			if loader == "" {
				return nil
			}
			return w.wait(ctx, fid)
		}),
		chromedp.Evaluate(expr, &out, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithAwaitPromise(true).WithUserGesture(true)
		}),
	)
	if err != nil {
		var exc *runtime.ExceptionDetails
		if errors.As(err, &exc) && ctx.Err() == nil && runCtx.Err() == nil {
			return nil, fmt.Errorf("%w: %s %s: %s", ErrNavigationFailed, req.Method, req.URL, describeException(exc))
		}
		return nil, timeoutOr(ctx, runCtx, timeout, err)
	}
	if out.TimedOut {
		return nil, fmt.Errorf("%w of %d ms exceeded", ErrNavigationTimeout, timeout.Milliseconds())
	}

	return &RawResult{
		Status:  out.Status,
		Headers: lowerKeys(out.Headers),
		Body:    out.Body,
	}, nil
}

func describeException(exc *runtime.ExceptionDetails) string {
	if exc.Exception != nil && exc.Exception.Description != "" {
		return exc.Exception.Description
	}
	return exc.Text
}
