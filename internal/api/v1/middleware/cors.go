package middleware

import (
	"net/http"

	"github.com/deepgram/taskboard/internal/config"
)

// Preflight answers CORS preflight requests for endpoints that only accept
// POST. The request origin is reflected when allowed, "*" when absent.
func Preflight(cfg config.CORSConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		if origin == "*" || cfg.IsAllowedOrigin(origin) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			h.Set("Access-Control-Max-Age", "86400")
			if origin != "*" {
				h.Add("Vary", "Origin")
			}
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
