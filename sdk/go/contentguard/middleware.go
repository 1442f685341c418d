package contentguard

import (
	"encoding/json"
	"net/http"
)

// Middleware returns an http.Handler that checks the target URL of each
// request before passing it to next. Blocked requests are recorded and
// receive a 403 with a JSON body.
func (c *Client) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		target := targetURL(r)
		result, err := c.store.Guard(r.Context(), target)
		if err != nil {
			c.cfg.logger.Warn("block not recorded", "url", target, "error", err)
		}

		if result.Blocked {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			json.NewEncoder(w).Encode(map[string]any{
				"blocked":         true,
				"reason":          result.Reason,
				"stage":           string(result.Stage),
				"matched_keyword": result.MatchedKeyword,
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// targetURL rebuilds the absolute URL a request is for. Proxy requests
// already carry one.
func targetURL(r *http.Request) string {
	if r.URL.IsAbs() {
		return r.URL.String()
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}
