package bridge

import (
	"context"
	"net/http"
	"time"

	"github.com/raysh454/browserbridge/internal/browser"
	"github.com/raysh454/browserbridge/internal/model"
)

// strategy performs one command on a configured session.
type strategy func(ctx context.Context, s browser.Session, cmd *model.Command, timeout time.Duration) (*browser.RawResult, error)

func strategyFor(name model.CommandName) strategy {
	switch name {
	case model.CmdRequestGet:
		return getStrategy
	case model.CmdRequestPost:
		return postStrategy
	default:
		return nil
	}
}

// getStrategy loads the url as a full page.
func getStrategy(ctx context.Context, s browser.Session, cmd *model.Command, timeout time.Duration) (*browser.RawResult, error) {
	return s.Navigate(ctx, cmd.URL, timeout)
}

// postStrategy issues the request from a blank page's script context.
func postStrategy(ctx context.Context, s browser.Session, cmd *model.Command, timeout time.Duration) (*browser.RawResult, error) {
	return s.Fetch(ctx, browser.FetchRequest{
		Method:  http.MethodPost,
		URL:     cmd.URL,
		Headers: cmd.Headers,
		Body:    cmd.PostData,
	}, timeout)
}
