package session

import (
	"errors"
	"time"
)

// ErrorRefreshFailed is the error tag recorded on a token whose refresh grant
// was rejected.
const ErrorRefreshFailed = "RefreshAccessTokenError"

var (
	// ErrNoSession means the request carries no usable session.
	ErrNoSession = errors.New("session: no authenticated session")
	// ErrRefreshFailed means the session exists but its access token could not
	// be renewed. The user has to sign in again.
	ErrRefreshFailed = errors.New("session: access token refresh failed")
)

type User struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// Token is the per-browser session state. Values are replaced, never mutated
// in place; the transition functions below return copies.
type Token struct {
	ID                   string
	AccessToken          string
	RefreshToken         string
	AccessTokenExpiresAt time.Time
	User                 User
	Error                string
	IssuedAt             time.Time
	// ExpiresAt is the absolute session ceiling. Refreshes never move it.
	ExpiresAt time.Time
}

// Bearer returns the access token if it may be forwarded downstream.
func (t *Token) Bearer() (string, error) {
	if t == nil || t.AccessToken == "" {
		return "", ErrNoSession
	}
	if t.Error != "" {
		return "", ErrRefreshFailed
	}
	return t.AccessToken, nil
}

// ExpiresIn is the whole number of seconds the access token stays valid,
// never negative. Unknown expiry reports fallback.
func (t *Token) ExpiresIn(now time.Time, fallback time.Duration) int64 {
	if t.AccessTokenExpiresAt.IsZero() {
		return int64(fallback / time.Second)
	}
	remaining := t.AccessTokenExpiresAt.Sub(now).Milliseconds() / 1000
	if remaining < 0 {
		return 0
	}
	return remaining
}

type State int

const (
	StateValid State = iota
	StateExpired
	StateRefreshFailed
)

func (s State) String() string {
	switch s {
	case StateValid:
		return "valid"
	case StateExpired:
		return "expired"
	case StateRefreshFailed:
		return "refresh_failed"
	default:
		return "unknown"
	}
}

// Evaluate classifies t at now. A zero expiry counts as expired.
func Evaluate(t Token, now time.Time) State {
	if t.Error != "" {
		return StateRefreshFailed
	}
	if now.Before(t.AccessTokenExpiresAt) {
		return StateValid
	}
	return StateExpired
}

// Grant is a successful token endpoint response.
type Grant struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// ApplyRefresh moves t to the state after a successful refresh grant. The
// refresh token is only replaced when the provider issued a new one.
func ApplyRefresh(t Token, g Grant) Token {
	t.AccessToken = g.AccessToken
	t.AccessTokenExpiresAt = g.ExpiresAt
	if g.RefreshToken != "" {
		t.RefreshToken = g.RefreshToken
	}
	t.Error = ""
	return t
}

// MarkRefreshFailed records a rejected refresh. The stale access token stays
// in place but Bearer refuses to hand it out.
func MarkRefreshFailed(t Token) Token {
	t.RefreshToken = ""
	t.Error = ErrorRefreshFailed
	return t
}
