package keycloak

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/deepgram/taskboard/internal/config"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

var (
	// ErrCodeExchange is returned when the authorization code could not be
	// exchanged for tokens.
	ErrCodeExchange = errors.New("keycloak: authorization code exchange failed")
	// ErrRefresh is returned when the refresh grant fails for any reason.
	ErrRefresh = errors.New("keycloak: token refresh failed")
	// ErrUserInfo is returned when the userinfo endpoint cannot be read.
	ErrUserInfo = errors.New("keycloak: userinfo request failed")
)

// ProviderError carries the token endpoint's response when it answered with
// an error status.
type ProviderError struct {
	Kind       error
	StatusCode int
	Code       string
	Body       string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%v: status %d: %s", e.Kind, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%v: %v", e.Kind, e.Err)
}

func (e *ProviderError) Is(target error) bool { return target == e.Kind }

func (e *ProviderError) Unwrap() error { return e.Err }

// Rejected reports whether the token endpoint answered and refused the
// grant. Transport failures and 5xx answers are not rejections.
func (e *ProviderError) Rejected() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// IsRejected reports whether err is a ProviderError the provider answered
// with a 4xx status.
func IsRejected(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Rejected()
}

// TokenPair is the subset of a token endpoint response the session keeps.
// ExpiresAt is zero when the provider did not report expires_in.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	IDToken      string
	ExpiresAt    time.Time
}

// UserInfo is the identity the session displays and forwards downstream.
type UserInfo struct {
	Subject string
	Name    string
	Email   string
}

type Client struct {
	oauth      *oauth2.Config
	provider   *oidc.Provider
	httpClient *http.Client
}

// NewClient builds a client from static endpoint configuration. No discovery
// request is made, so construction never touches the network.
func NewClient(cfg config.KeycloakConfig, redirectURL string) *Client {
	httpClient := &http.Client{Timeout: cfg.Timeout}

	providerConfig := &oidc.ProviderConfig{
		IssuerURL:   cfg.Issuer,
		AuthURL:     cfg.AuthURL(),
		TokenURL:    cfg.TokenURL(),
		UserInfoURL: cfg.UserInfoURL(),
		JWKSURL:     cfg.JWKSURL(),
	}
	provider := providerConfig.NewProvider(oidc.ClientContext(context.Background(), httpClient))

	log.Info().
		Str("issuer", cfg.Issuer).
		Str("client_id", cfg.ClientID).
		Msg("Initialising Keycloak client")

	return &Client{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  redirectURL,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL(),
				TokenURL:  cfg.TokenURL(),
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		provider:   provider,
		httpClient: httpClient,
	}
}

func (c *Client) context(ctx context.Context) context.Context {
	return oidc.ClientContext(ctx, c.httpClient)
}

// AuthCodeURL returns the provider login URL for an authorization code flow
// protected by state and a PKCE S256 challenge.
func (c *Client) AuthCodeURL(state, verifier string) string {
	return c.oauth.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
}

// ExchangeCode redeems an authorization code.
func (c *Client) ExchangeCode(ctx context.Context, code, verifier string) (*TokenPair, error) {
	token, err := c.oauth.Exchange(c.context(ctx), code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, providerError(ErrCodeExchange, err)
	}
	return pairFromToken(token), nil
}

// Refresh runs the refresh_token grant. The returned pair's RefreshToken is
// whatever the provider answered with, falling back to the one sent.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, &ProviderError{Kind: ErrRefresh, Err: errors.New("no refresh token")}
	}

	// An empty access token forces the source to hit the token endpoint.
	source := c.oauth.TokenSource(c.context(ctx), &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	if err != nil {
		err = providerError(ErrRefresh, err)
		if IsRejected(err) {
			log.Warn().Err(err).Msg("Refresh grant rejected by identity provider")
		} else {
			log.Error().Err(err).Msg("Identity provider unreachable during refresh")
		}
		return nil, err
	}
	return pairFromToken(token), nil
}

// UserInfo reads the profile of the user owning accessToken. Name falls back
// to preferred_username when the provider has no display name.
func (c *Client) UserInfo(ctx context.Context, accessToken string) (*UserInfo, error) {
	info, err := c.provider.UserInfo(c.context(ctx), oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUserInfo, err)
	}

	var claims struct {
		Name              string `json:"name"`
		PreferredUsername string `json:"preferred_username"`
	}
	if err := info.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUserInfo, err)
	}

	name := claims.Name
	if name == "" {
		name = claims.PreferredUsername
	}

	return &UserInfo{
		Subject: info.Subject,
		Name:    name,
		Email:   info.Email,
	}, nil
}

func pairFromToken(token *oauth2.Token) *TokenPair {
	pair := &TokenPair{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
	}
	if idToken, ok := token.Extra("id_token").(string); ok {
		pair.IDToken = idToken
	}
	return pair
}

func providerError(kind error, err error) error {
	pe := &ProviderError{Kind: kind, Err: err}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		pe.Code = retrieveErr.ErrorCode
		pe.Body = string(retrieveErr.Body)
		if retrieveErr.Response != nil {
			pe.StatusCode = retrieveErr.Response.StatusCode
		}
	}
	return pe
}
