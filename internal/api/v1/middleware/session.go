package middleware

import (
	"net/http"

	"github.com/deepgram/taskboard/internal/services/session"
	"github.com/rs/zerolog/log"
)

// SessionResolver loads and refreshes the caller's session.
type SessionResolver interface {
	Resolve(w http.ResponseWriter, r *http.Request) (*session.Token, error)
}

// SessionErrorWriter renders a session failure in the route's own error
// envelope. err is session.ErrNoSession, session.ErrRefreshFailed or an
// unexpected failure.
type SessionErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// RequireSession resolves the session once at the route boundary and hands
// it to the next handler through the request context. Sessions whose access
// token may not be forwarded are rejected here.
func RequireSession(sessions SessionResolver, writeErr SessionErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := sessions.Resolve(w, r)
			if err == nil {
				_, err = token.Bearer()
			}
			if err != nil {
				log.Debug().
					Err(err).
					Str("path", r.URL.Path).
					Msg("Request rejected - no usable session")
				writeErr(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(session.NewContext(r.Context(), token)))
		})
	}
}

// GetSession retrieves the token stored by RequireSession
func GetSession(r *http.Request) *session.Token {
	token, _ := session.FromContext(r.Context())
	return token
}
