package routes

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/ntousis/aeolus-api/pkg/utils"
)

// withAuth enforces the configured bearer token with a constant-time
// comparison. Health and metrics stay open for probes and scrapers.
func (app *App) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if app.Config == nil || !app.Config.RequireAuth {
			next.ServeHTTP(w, r)
			return
		}

		if r.URL.Path == "/healthz" || r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") {
			utils.ReplyUnauthorized(w, "missing bearer token")
			return
		}

		if subtle.ConstantTimeCompare([]byte(token), []byte(app.Config.BearerToken)) != 1 {
			utils.ReplyUnauthorized(w, "invalid bearer token")
			return
		}

		next.ServeHTTP(w, r)
	})
}
