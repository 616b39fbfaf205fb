package chi

import (
	"net/http"
	"strings"
)

// isAuthExempt reports whether a path stays reachable without
// credentials. Probes and scrapers hit these anonymously.
func isAuthExempt(path string) bool {
	switch path {
	case "/api/v1/health", "/api/v1/metrics":
		return true
	}
	return false
}

// keySet collects the non-empty API keys. An empty result means auth is
// not configured.
func keySet(apiKeys []string) map[string]struct{} {
	set := make(map[string]struct{}, len(apiKeys))
	for _, key := range apiKeys {
		if key != "" {
			set[key] = struct{}{}
		}
	}
	return set
}

// authVerdict checks one request's credentials against the key set,
// returning the rejection message when the request must be refused.
func authVerdict(r *http.Request, keys map[string]struct{}) (string, bool) {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return "missing authorization header", false
	}
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok {
		return "authorization header must use Bearer scheme", false
	}
	if _, known := keys[token]; !known {
		return "invalid api key", false
	}
	return "", true
}

// BearerAuthMiddleware validates Authorization: Bearer tokens against
// the configured key set. With no keys configured the middleware
// disables itself and passes every request through.
func BearerAuthMiddleware(apiKeys []string) func(http.Handler) http.Handler {
	keys := keySet(apiKeys)

	return func(next http.Handler) http.Handler {
		if len(keys) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isAuthExempt(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			if msg, ok := authVerdict(r, keys); !ok {
				writeError(w, http.StatusUnauthorized, codeBadRequest, msg)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
