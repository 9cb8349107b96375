package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/deepgram/taskboard/internal/infrastructure/keycloak"
	"github.com/deepgram/taskboard/internal/services/authflow"
	"github.com/deepgram/taskboard/internal/services/session"
	"github.com/deepgram/taskboard/pkg/httpext"
	"github.com/rs/zerolog/log"
)

// IdentityProvider is the part of the Keycloak client the sign-in flow uses.
type IdentityProvider interface {
	AuthCodeURL(state, verifier string) string
	ExchangeCode(ctx context.Context, code, verifier string) (*keycloak.TokenPair, error)
	UserInfo(ctx context.Context, accessToken string) (*keycloak.UserInfo, error)
}

// HandleSignIn starts an authorization code flow and redirects to the
// provider.
func HandleSignIn(flows *authflow.Service, idp IdentityProvider, w http.ResponseWriter, r *http.Request) {
	state, verifier, err := flows.Begin(r.Context(), r.URL.Query().Get("callbackUrl"))
	if err != nil {
		log.Error().Err(err).Msg("Failed to start sign-in")
		httpext.JsonErrorWithDetails(w, http.StatusInternalServerError, httpext.ErrorResponse{
			Error:            "server_error",
			ErrorDescription: "Could not start sign-in",
		})
		return
	}

	http.Redirect(w, r, idp.AuthCodeURL(state, verifier), http.StatusFound)
}

// HandleCallback finishes the flow: it redeems the code, loads the user's
// identity and creates the session.
func HandleCallback(flows *authflow.Service, idp IdentityProvider, sessions *session.Service, w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if providerErr := q.Get("error"); providerErr != "" {
		log.Warn().
			Str("error", providerErr).
			Str("description", q.Get("error_description")).
			Msg("Identity provider returned an authorization error")
		httpext.JsonErrorWithDetails(w, http.StatusBadRequest, httpext.ErrorResponse{
			Error:            providerErr,
			ErrorDescription: q.Get("error_description"),
		})
		return
	}

	code, state := q.Get("code"), q.Get("state")
	if code == "" || state == "" {
		httpext.JsonErrorWithDetails(w, http.StatusBadRequest, httpext.ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "Missing code or state parameter",
		})
		return
	}

	flow, err := flows.Complete(r.Context(), state)
	if errors.Is(err, authflow.ErrUnknownState) {
		httpext.JsonErrorWithDetails(w, http.StatusBadRequest, httpext.ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "Invalid or expired state",
		})
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to load sign-in state")
		httpext.JsonErrorWithDetails(w, http.StatusInternalServerError, httpext.ErrorResponse{
			Error:            "server_error",
			ErrorDescription: "Could not complete sign-in",
		})
		return
	}

	pair, err := idp.ExchangeCode(r.Context(), code, flow.Verifier)
	if err != nil {
		log.Error().Err(err).Msg("Authorization code exchange failed")
		httpext.JsonErrorWithDetails(w, http.StatusBadGateway, httpext.ErrorResponse{
			Error:            "access_denied",
			ErrorDescription: "Authorization code exchange failed",
		})
		return
	}

	user, err := idp.UserInfo(r.Context(), pair.AccessToken)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load user identity")
		httpext.JsonErrorWithDetails(w, http.StatusBadGateway, httpext.ErrorResponse{
			Error:            "access_denied",
			ErrorDescription: "Could not load user identity",
		})
		return
	}

	if _, err := sessions.Create(w, r, pair, user); err != nil {
		log.Error().Err(err).Msg("Failed to create session")
		httpext.JsonErrorWithDetails(w, http.StatusInternalServerError, httpext.ErrorResponse{
			Error:            "server_error",
			ErrorDescription: "Could not create session",
		})
		return
	}

	http.Redirect(w, r, flow.CallbackURL, http.StatusFound)
}

func HandleSignOut(sessions *session.Service, w http.ResponseWriter, r *http.Request) {
	if err := sessions.Clear(w, r); err != nil {
		log.Error().Err(err).Msg("Failed to revoke session")
		httpext.JsonError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SessionResponse describes the signed-in user. Tokens are never included.
type SessionResponse struct {
	User                 *session.User `json:"user,omitempty"`
	Expires              *time.Time    `json:"expires,omitempty"`
	AccessTokenExpiresAt int64         `json:"accessTokenExpiresAt,omitempty"`
	Error                string        `json:"error,omitempty"`
}

// HandleSession reports the caller's session, running the refresh policy on
// the way. Anonymous callers get an empty object.
func HandleSession(sessions *session.Service, w http.ResponseWriter, r *http.Request) {
	httpext.NoStore(w)

	token, err := sessions.Resolve(w, r)
	if errors.Is(err, session.ErrNoSession) {
		httpext.JSON(w, http.StatusOK, SessionResponse{})
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to resolve session")
		httpext.JsonError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	user := token.User
	expires := token.ExpiresAt.UTC()
	resp := SessionResponse{
		User:    &user,
		Expires: &expires,
		Error:   token.Error,
	}
	if !token.AccessTokenExpiresAt.IsZero() {
		resp.AccessTokenExpiresAt = token.AccessTokenExpiresAt.UnixMilli()
	}
	httpext.JSON(w, http.StatusOK, resp)
}
