package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/deepgram/taskboard/internal/config"
	"github.com/deepgram/taskboard/pkg/httpext"
	"github.com/deepgram/taskboard/pkg/ratelimit"
	"github.com/rs/zerolog/log"
)

func RateLimit(cfg config.RateLimitConfig, limitKey string) func(http.Handler) http.Handler {
	limit := cfg.For(limitKey)
	limiter := ratelimit.NewLimiter(limit.Window, limit.MaxHits)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limit.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			ip := ClientIP(r)
			if !limiter.Allow(ip) {
				log.Warn().Str("ip", ip).Str("limit", limitKey).Msg("Rate limit exceeded")
				httpext.JsonError(w, "Rate limit exceeded", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP uses the first X-Forwarded-For hop if behind a proxy, otherwise
// the remote address without its port.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
