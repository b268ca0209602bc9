// Package httptransport assembles the public HTTP surface from the
// per-feature handlers.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"crossgate/internal/platform/middleware"
	"crossgate/internal/transport/http/shared"
)

// Registrar is anything that can attach its routes to a chi router. Every
// feature handler satisfies it.
type Registrar interface {
	Register(r chi.Router)
}

// RouterConfig carries the cross-cutting pieces the router wires in front of
// the feature handlers.
type RouterConfig struct {
	Logger          *slog.Logger
	Actor           *middleware.ActorExtractor
	AdminAPIKeyHash string
	RequestTimeout  time.Duration
}

// NewRouter builds the full route tree. Reads are open to any authenticated
// actor; mutating verbs additionally require the admin API key when one is
// configured.
func NewRouter(cfg RouterConfig, handlers ...Registrar) http.Handler {
	timeout := cfg.RequestTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Timeout(timeout))
	r.Use(middleware.ClientMetadata)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(api chi.Router) {
		api.Use(middleware.ContentTypeJSON)
		if cfg.Actor != nil {
			api.Use(cfg.Actor.Extract)
		}
		api.Use(writeGuard(cfg.AdminAPIKeyHash, cfg.Logger))

		for _, h := range handlers {
			h.Register(api)
		}
	})

	return r
}

// writeGuard applies the API key check to mutating verbs only.
func writeGuard(keyHash string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		guarded := middleware.RequireAPIKey(keyHash, logger)(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
			default:
				guarded.ServeHTTP(w, r)
			}
		})
	}
}
