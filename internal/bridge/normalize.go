package bridge

import (
	"github.com/raysh454/browserbridge/internal/browser"
	"github.com/raysh454/browserbridge/internal/model"
)

// normalize shapes either strategy's raw result into a Solution for url.
func normalize(raw *browser.RawResult, url string) *model.Solution {
	sol := &model.Solution{
		URL:     url,
		Headers: map[string]string{},
		Cookies: []model.Cookie{},
	}
	if raw == nil {
		return sol
	}
	sol.Status = raw.Status
	sol.Response = raw.Body
	for k, v := range raw.Headers {
		sol.Headers[k] = v
	}
	return sol
}
