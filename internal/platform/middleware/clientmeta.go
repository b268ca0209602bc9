package middleware

import (
	"fmt"
	"net"
	"net/http"

	"github.com/mssola/useragent"

	"crossgate/pkg/requestcontext"
)

// ClientMetadata normalizes the caller's remote address and user agent into
// the request context. The audit trail records these alongside each entry so
// "who did what" carries the client environment too.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		ip := r.Header.Get("X-Forwarded-For")
		if ip == "" {
			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				host = r.RemoteAddr
			}
			ip = host
		}
		ctx = requestcontext.WithClientIP(ctx, ip)

		if raw := r.Header.Get("User-Agent"); raw != "" {
			ua := useragent.New(raw)
			browser, version := ua.Browser()
			ctx = requestcontext.WithUserAgent(ctx,
				fmt.Sprintf("%s %s (%s)", browser, version, ua.OS()))
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
