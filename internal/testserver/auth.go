package testserver

import (
	"net/http"

	"github.com/aetherfy/aetherfy-vectors-go/internal/auth"
)

// exemptPaths bypass authentication.
var exemptPaths = map[string]struct{}{
	"/health": {},
}

// bearerAuth validates Bearer tokens against keys.
// If keys is empty, authentication is disabled (pass-through).
func bearerAuth(keys []string) func(http.Handler) http.Handler {
	valid := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if k != "" {
			valid[k] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		if len(valid) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := auth.BearerToken(r.Header)
			if !ok {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authorization header must use Bearer scheme")
				return
			}
			if _, ok := valid[token]; !ok {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid api key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
