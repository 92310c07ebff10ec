package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/raysh454/browserbridge/internal/logging"
)

// Chrome reports this for non-2xx responses with an empty body. The page
// still commits, so it is not a failure here.
const errHTTPResponseCodeFailure = "net::ERR_HTTP_RESPONSE_CODE_FAILURE"

const navigationStatusScript = `(function() {
	try {
		var nav = performance.getEntriesByType('navigation')[0];
		return nav && nav.responseStatus ? nav.responseStatus : 0;
	} catch (e) {
		return 0;
	}
})()`

// Navigate loads url in the tab and waits for the configured lifecycle event
// of the resulting document. The whole operation, including reading the
// rendered HTML, is bounded by timeout.
func (s *chromeSession) Navigate(ctx context.Context, url string, timeout time.Duration) (*RawResult, error) {
	runCtx, cancel, err := s.runContext(ctx, timeout)
	if err != nil {
		return nil, err
	}
	defer cancel()

	w := newNavigationWatcher(s.cfg.WaitUntil)
	chromedp.ListenTarget(runCtx, w.listen)

	var (
		frame cdp.FrameID
		html  string
	)
	err = chromedp.Run(runCtx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			fid, _, errorText, _, err := page.Navigate(url).Do(ctx)
			if err != nil {
				return err
			}
			if errorText != "" && errorText != errHTTPResponseCodeFailure {
				return fmt.Errorf("%w: %s at %s", ErrNavigationFailed, errorText, url)
			}
			frame = fid
			return w.wait(ctx, fid)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			root, err := dom.GetDocument().Do(ctx)
			if err != nil {
				return fmt.Errorf("getting document: %w", err)
			}
			html, err = dom.GetOuterHTML().WithNodeID(root.NodeID).Do(ctx)
			if err != nil {
				return fmt.Errorf("getting outer html: %w", err)
			}
			return nil
		}),
	)
	if err != nil {
		return nil, timeoutOr(ctx, runCtx, timeout, err)
	}

	res := &RawResult{Body: html, Headers: map[string]string{}}
	if doc := w.document(frame); doc != nil {
		res.Status = int(doc.Status)
		res.Headers = flattenHeaders(doc.Headers)
		return res, nil
	}

	// Documents served from cache or by a service worker may not surface a
	// response event; fall back to the Navigation Timing entry.
	var status int64
	if err := chromedp.Run(runCtx, chromedp.Evaluate(navigationStatusScript, &status)); err != nil {
		return nil, timeoutOr(ctx, runCtx, timeout, fmt.Errorf("reading navigation status: %w", err))
	}
	s.logger.Warn("document response not observed, using navigation timing status",
		logging.Field{Key: "url", Value: url},
		logging.Field{Key: "status", Value: status})
	res.Status = int(status)
	return res, nil
}
