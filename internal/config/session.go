package config

import (
	"errors"
	"time"
)

const (
	sessionPrefix = "SESSION"

	// MinSessionSecretLength is the minimum number of bytes accepted for
	// SESSION_SECRET.
	MinSessionSecretLength = 32
)

var ErrWeakSessionSecret = errors.New("SESSION_SECRET must be at least 32 bytes")

type SessionConfig struct {
	Secret     string        `envconfig:"SECRET" required:"true"`
	CookieName string        `envconfig:"COOKIE_NAME" default:"taskboard_session"`
	MaxAge     time.Duration `envconfig:"MAX_AGE" default:"720h"`
	Secure     bool          `envconfig:"COOKIE_SECURE" default:"true"`
}

func GetSessionConfig() (SessionConfig, error) {
	var c SessionConfig
	if err := process("session", sessionPrefix, &c); err != nil {
		return SessionConfig{}, err
	}
	if err := c.Validate(); err != nil {
		return SessionConfig{}, err
	}
	return c, nil
}

func (c SessionConfig) Validate() error {
	if len(c.Secret) < MinSessionSecretLength {
		return ErrWeakSessionSecret
	}
	if c.MaxAge <= 0 {
		return errors.New("SESSION_MAX_AGE must be positive")
	}
	if c.CookieName == "" {
		return errors.New("SESSION_COOKIE_NAME must not be empty")
	}
	return nil
}
