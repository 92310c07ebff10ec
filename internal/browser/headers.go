package browser

import (
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/network"
)

// flattenHeaders turns CDP response headers into a name→value map. Names are
// lower-cased so both execution paths report headers the same way; Chrome
// already joins repeated headers with "\n".
func flattenHeaders(h network.Headers) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		name := strings.ToLower(k)
		switch val := v.(type) {
		case string:
			out[name] = val
		case []any:
			parts := make([]string, 0, len(val))
			for _, item := range val {
				parts = append(parts, fmt.Sprint(item))
			}
			out[name] = strings.Join(parts, "\n")
		case nil:
			out[name] = ""
		default:
			out[name] = fmt.Sprint(val)
		}
	}
	return out
}

func lowerKeys(h map[string]string) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[strings.ToLower(k)] = v
	}
	return out
}
