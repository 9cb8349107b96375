package config

import (
	"errors"
	"strings"
	"time"
)

const keycloakPrefix = "KEYCLOAK"

// KeycloakConfig describes the confidential client registered with the
// identity provider.
type KeycloakConfig struct {
	// Issuer is the realm URL, e.g. https://sso.example.com/realms/taskboard
	Issuer       string        `envconfig:"ISSUER" required:"true"`
	ClientID     string        `envconfig:"CLIENT_ID" required:"true"`
	ClientSecret string        `envconfig:"CLIENT_SECRET" required:"true"`
	Scopes       []string      `envconfig:"SCOPES" default:"openid,email,profile"`
	Timeout      time.Duration `envconfig:"TIMEOUT" default:"10s"`
}

func GetKeycloakConfig() (KeycloakConfig, error) {
	var c KeycloakConfig
	if err := process("keycloak", keycloakPrefix, &c); err != nil {
		return KeycloakConfig{}, err
	}
	c.Issuer = strings.TrimSuffix(c.Issuer, "/")
	if err := c.Validate(); err != nil {
		return KeycloakConfig{}, err
	}
	return c, nil
}

func (c KeycloakConfig) Validate() error {
	switch {
	case c.Issuer == "":
		return errors.New("KEYCLOAK_ISSUER must not be empty")
	case c.ClientID == "":
		return errors.New("KEYCLOAK_CLIENT_ID must not be empty")
	case c.ClientSecret == "":
		return errors.New("KEYCLOAK_CLIENT_SECRET must not be empty")
	case c.Timeout <= 0:
		return errors.New("KEYCLOAK_TIMEOUT must be positive")
	}
	return nil
}

func (c KeycloakConfig) endpoint(path string) string {
	return c.Issuer + "/protocol/openid-connect/" + path
}

func (c KeycloakConfig) AuthURL() string     { return c.endpoint("auth") }
func (c KeycloakConfig) TokenURL() string    { return c.endpoint("token") }
func (c KeycloakConfig) UserInfoURL() string { return c.endpoint("userinfo") }
func (c KeycloakConfig) JWKSURL() string     { return c.endpoint("certs") }
