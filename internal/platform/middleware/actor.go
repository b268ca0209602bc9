package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"crossgate/pkg/requestcontext"
)

// ActorClaims are the claims carried by a crossgate bearer token. Actor
// identity is advisory; the engine does not authenticate users, it records
// who claims to act. Real authentication belongs to the host environment.
type ActorClaims struct {
	ActorID   string `json:"actor_id"`
	ActorRole string `json:"actor_role"`
	jwt.RegisteredClaims
}

// ActorExtractor resolves the acting identity for a request.
type ActorExtractor struct {
	signingKey []byte
	logger     *slog.Logger
}

// NewActorExtractor builds an extractor. An empty signing key disables token
// parsing entirely and only the headers are consulted.
func NewActorExtractor(signingKey string, logger *slog.Logger) *ActorExtractor {
	var key []byte
	if signingKey != "" {
		key = []byte(signingKey)
	}
	return &ActorExtractor{signingKey: key, logger: logger}
}

// Extract injects the actor identity into the request context. Bearer tokens
// win over headers when a signing key is configured; a malformed token is
// rejected rather than silently downgraded to headers.
func (e *ActorExtractor) Extract(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		authHeader := r.Header.Get("Authorization")
		if token, ok := strings.CutPrefix(authHeader, "Bearer "); ok && e.signingKey != nil {
			claims := &ActorClaims{}
			parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrTokenUnverifiable
				}
				return e.signingKey, nil
			})
			if err != nil || !parsed.Valid {
				e.logger.WarnContext(ctx, "rejected malformed actor token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
				return
			}
			ctx = requestcontext.WithActorID(ctx, claims.ActorID)
			ctx = requestcontext.WithActorRole(ctx, claims.ActorRole)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		ctx = requestcontext.WithActorID(ctx, r.Header.Get("X-Actor-ID"))
		ctx = requestcontext.WithActorRole(ctx, r.Header.Get("X-Actor-Role"))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
