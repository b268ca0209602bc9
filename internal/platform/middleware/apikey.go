package middleware

import (
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"crossgate/pkg/requestcontext"
)

// RequireAPIKey guards mutating endpoints with a shared admin key. Only the
// bcrypt hash of the key is held in configuration. An empty hash disables the
// check for development.
func RequireAPIKey(keyHash string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if keyHash == "" {
				next.ServeHTTP(w, r)
				return
			}
			presented := r.Header.Get("X-API-Key")
			if err := bcrypt.CompareHashAndPassword([]byte(keyHash), []byte(presented)); err != nil {
				logger.WarnContext(r.Context(), "rejected request with bad API key",
					"path", r.URL.Path,
					"request_id", requestcontext.RequestID(r.Context()),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
