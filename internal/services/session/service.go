package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/deepgram/taskboard/internal/config"
	"github.com/deepgram/taskboard/internal/infrastructure/keycloak"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// Refresher runs the refresh_token grant against the identity provider. A
// grant the provider refuses must satisfy keycloak.IsRejected; every other
// error is treated as transient.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*keycloak.TokenPair, error)
}

type Option func(*Service)

// WithClock overrides the time source used for expiry decisions.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

type Service struct {
	codec     *Codec
	jar       cookieJar
	maxAge    time.Duration
	refresher Refresher
	store     RevocationStore
	group     singleflight.Group
	now       func() time.Time
}

func NewService(cfg config.SessionConfig, refresher Refresher, store RevocationStore, opts ...Option) (*Service, error) {
	s := &Service{
		jar:       cookieJar{name: cfg.CookieName, secure: cfg.Secure},
		maxAge:    cfg.MaxAge,
		refresher: refresher,
		store:     store,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	codec, err := NewCodec(cfg.Secret, s.now)
	if err != nil {
		return nil, err
	}
	s.codec = codec

	log.Info().
		Str("cookie", cfg.CookieName).
		Dur("max_age", cfg.MaxAge).
		Msg("Initialising session service")

	return s, nil
}

// Create starts a session for a freshly signed-in user and writes its
// cookie.
func (s *Service) Create(w http.ResponseWriter, r *http.Request, pair *keycloak.TokenPair, user *keycloak.UserInfo) (*Token, error) {
	now := s.now()
	t := Token{
		ID:                   uuid.New().String(),
		AccessToken:          pair.AccessToken,
		RefreshToken:         pair.RefreshToken,
		AccessTokenExpiresAt: pair.ExpiresAt,
		User: User{
			ID:    user.Subject,
			Name:  user.Name,
			Email: user.Email,
		},
		IssuedAt:  now,
		ExpiresAt: now.Add(s.maxAge),
	}

	if err := s.write(w, r, t); err != nil {
		return nil, err
	}

	log.Info().Str("session_id", t.ID).Str("user_id", t.User.ID).Msg("Session created")
	return &t, nil
}

// Resolve reads the request's session and runs the refresh policy on it. A
// token that changed is re-issued on w. A refresh the provider rejects does
// not surface as an error; the returned token carries the failure tag
// instead. Any other refresh failure is returned and the cookie is left as
// it was, so the next read retries.
func (s *Service) Resolve(w http.ResponseWriter, r *http.Request) (*Token, error) {
	value, ok := s.jar.read(r)
	if !ok {
		return nil, ErrNoSession
	}

	t, err := s.codec.Open(value)
	if err != nil {
		log.Debug().Err(err).Msg("Discarding unreadable session cookie")
		s.jar.clear(w, r)
		return nil, ErrNoSession
	}

	revoked, err := s.store.IsRevoked(r.Context(), t.ID)
	if err != nil {
		return nil, fmt.Errorf("checking session revocation: %w", err)
	}
	if revoked {
		log.Debug().Str("session_id", t.ID).Msg("Rejecting revoked session")
		s.jar.clear(w, r)
		return nil, ErrNoSession
	}

	next, changed, err := s.apply(r.Context(), *t)
	if err != nil {
		return nil, err
	}
	if changed {
		if err := s.write(w, r, next); err != nil {
			return nil, err
		}
	}
	return &next, nil
}

// apply runs one step of the refresh policy. Concurrent callers holding the
// same expired session share a single provider call, which is detached from
// the cancellation of whichever request started it.
func (s *Service) apply(ctx context.Context, t Token) (Token, bool, error) {
	switch Evaluate(t, s.now()) {
	case StateValid, StateRefreshFailed:
		return t, false, nil
	}

	if t.RefreshToken == "" {
		log.Warn().Str("session_id", t.ID).Msg("Access token expired with no refresh token")
		return MarkRefreshFailed(t), true, nil
	}

	shared := context.WithoutCancel(ctx)
	v, err, _ := s.group.Do(t.ID, func() (interface{}, error) {
		pair, err := s.refresher.Refresh(shared, t.RefreshToken)
		if keycloak.IsRejected(err) {
			log.Warn().Err(err).Str("session_id", t.ID).Msg("Access token refresh rejected")
			return MarkRefreshFailed(t), nil
		}
		if err != nil {
			return nil, fmt.Errorf("refreshing access token: %w", err)
		}
		log.Debug().Str("session_id", t.ID).Time("expires_at", pair.ExpiresAt).Msg("Access token refreshed")
		return ApplyRefresh(t, Grant{
			AccessToken:  pair.AccessToken,
			RefreshToken: pair.RefreshToken,
			ExpiresAt:    pair.ExpiresAt,
		}), nil
	})
	if err != nil {
		return t, false, err
	}
	return v.(Token), true, nil
}

// Clear revokes the request's session, if any, and expires its cookie.
func (s *Service) Clear(w http.ResponseWriter, r *http.Request) error {
	defer s.jar.clear(w, r)

	value, ok := s.jar.read(r)
	if !ok {
		return nil
	}
	t, err := s.codec.Open(value)
	if err != nil {
		return nil
	}

	if err := s.store.Revoke(r.Context(), t.ID, t.ExpiresAt.Sub(s.now())); err != nil {
		return fmt.Errorf("revoking session: %w", err)
	}
	log.Info().Str("session_id", t.ID).Msg("Session revoked")
	return nil
}

func (s *Service) write(w http.ResponseWriter, r *http.Request, t Token) error {
	remaining := t.ExpiresAt.Sub(s.now())
	if remaining <= 0 {
		s.jar.clear(w, r)
		return errors.New("session: ceiling already passed")
	}

	value, err := s.codec.Seal(t)
	if err != nil {
		return err
	}
	s.jar.write(w, r, value, remaining)
	return nil
}

type contextKey struct{}

// NewContext attaches a resolved token to ctx.
func NewContext(ctx context.Context, t *Token) context.Context {
	return context.WithValue(ctx, contextKey{}, t)
}

// FromContext returns the token attached by NewContext.
func FromContext(ctx context.Context) (*Token, bool) {
	t, ok := ctx.Value(contextKey{}).(*Token)
	return t, ok && t != nil
}
