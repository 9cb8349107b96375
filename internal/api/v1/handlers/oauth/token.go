package oauth

import (
	"errors"
	"net/http"
	"time"

	"github.com/deepgram/taskboard/internal/api/v1/middleware"
	"github.com/deepgram/taskboard/internal/services/session"
	"github.com/deepgram/taskboard/pkg/httpext"
	"github.com/rs/zerolog/log"
)

const (
	IssuedTokenTypeAccessToken = "urn:ietf:params:oauth:token-type:access_token"

	// defaultExpiresIn is reported when the provider never told us the
	// access token lifetime.
	defaultExpiresIn = time.Hour
)

// TokenExchangeResponse follows the RFC 8693 token exchange response.
type TokenExchangeResponse struct {
	AccessToken     string `json:"access_token"`
	IssuedTokenType string `json:"issued_token_type"`
	TokenType       string `json:"token_type"`
	ExpiresIn       int64  `json:"expires_in"`
}

// HandleTokenExchange republishes the session's access token to a trusted
// agent. It expects RequireSession to have resolved the caller's session.
func HandleTokenExchange(now func() time.Time, w http.ResponseWriter, r *http.Request) {
	token := middleware.GetSession(r)
	bearer, err := token.Bearer()
	if err != nil {
		WriteError(w, r, err)
		return
	}

	httpext.NoStore(w)
	httpext.JSON(w, http.StatusOK, TokenExchangeResponse{
		AccessToken:     bearer,
		IssuedTokenType: IssuedTokenTypeAccessToken,
		TokenType:       "Bearer",
		ExpiresIn:       token.ExpiresIn(now(), defaultExpiresIn),
	})
}

// WriteError renders session failures in OAuth error form.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	httpext.NoStore(w)

	if errors.Is(err, session.ErrNoSession) || errors.Is(err, session.ErrRefreshFailed) {
		httpext.JsonErrorWithDetails(w, http.StatusUnauthorized, httpext.ErrorResponse{
			Error:            "unauthorized",
			ErrorDescription: "User is not authenticated",
		})
		return
	}

	log.Error().Err(err).Str("path", r.URL.Path).Msg("Token exchange failed")
	httpext.JsonErrorWithDetails(w, http.StatusInternalServerError, httpext.ErrorResponse{
		Error:            "server_error",
		ErrorDescription: "An error occurred during token exchange",
	})
}
