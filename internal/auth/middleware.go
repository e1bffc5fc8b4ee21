package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/keithlinneman/yummigo-web/internal/log"
)

// HeaderAPIKey carries the admin API key on mutating requests.
const HeaderAPIKey = "x-admin-key"

// Middleware rejects requests without a valid x-admin-key and stores the
// resulting Session on the context.
func Middleware(g *Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			sess, err := g.Authorize(ctx, r.Header.Get(HeaderAPIKey))
			if err != nil {
				L := log.FromContext(ctx)
				if errors.Is(err, ErrNotConfigured) {
					L.Error(ctx, err, "admin request rejected, api key not configured")
				} else {
					L.Warn(ctx, "admin request rejected", "reason", "bad api key")
				}
				WriteError(w, err)
				return
			}
			ctx = WithSession(ctx, sess)
			ctx = log.WithContext(ctx, log.FromContext(ctx).With("session", sess.ID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WriteError renders an auth failure as {"error": "..."}.
func WriteError(w http.ResponseWriter, err error) {
	status, msg := http.StatusUnauthorized, "Unauthorized"
	if errors.Is(err, ErrNotConfigured) {
		status, msg = http.StatusInternalServerError, "Server configuration error"
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
