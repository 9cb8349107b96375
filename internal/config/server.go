package config

import (
	"strings"
	"time"
)

type ServerConfig struct {
	Port string `envconfig:"PORT" default:"3000"`
	// BaseURL is the externally visible origin, used to build the sign-in
	// redirect URL registered with the identity provider.
	BaseURL         string        `envconfig:"BASE_URL" default:"http://localhost:3000"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

func GetServerConfig() (ServerConfig, error) {
	var c ServerConfig
	if err := process("server", "", &c); err != nil {
		return ServerConfig{}, err
	}
	c.BaseURL = strings.TrimSuffix(c.BaseURL, "/")
	return c, nil
}

// Addr returns the listen address for http.Server.
func (c ServerConfig) Addr() string {
	return ":" + strings.TrimPrefix(c.Port, ":")
}

// CallbackURL is the redirect URI handed to the identity provider.
func (c ServerConfig) CallbackURL() string {
	return c.BaseURL + "/api/auth/callback/keycloak"
}
