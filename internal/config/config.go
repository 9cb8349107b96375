package config

import "github.com/rs/zerolog/log"

// Config aggregates every configuration concern of the service.
type Config struct {
	Server      ServerConfig
	Keycloak    KeycloakConfig
	Orchestrate OrchestrateConfig
	Session     SessionConfig
	Redis       RedisConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Log         LogConfig
}

// Load reads the full configuration from the environment and fails on the
// first missing or invalid value.
func Load() (*Config, error) {
	var (
		c   Config
		err error
	)

	if c.Log, err = GetLogConfig(); err != nil {
		return nil, err
	}
	if c.Server, err = GetServerConfig(); err != nil {
		return nil, err
	}
	if c.Keycloak, err = GetKeycloakConfig(); err != nil {
		return nil, err
	}
	if c.Orchestrate, err = GetOrchestrateConfig(); err != nil {
		return nil, err
	}
	if c.Session, err = GetSessionConfig(); err != nil {
		return nil, err
	}
	if c.Redis, err = GetRedisConfig(); err != nil {
		return nil, err
	}
	if c.RateLimit, err = GetRateLimitConfig(); err != nil {
		return nil, err
	}
	if c.CORS, err = GetCORSConfig(); err != nil {
		return nil, err
	}

	log.Info().
		Str("issuer", c.Keycloak.Issuer).
		Str("orchestrate_url", c.Orchestrate.APIURL).
		Bool("redis", c.Redis.Enabled()).
		Bool("rate_limit", c.RateLimit.Enabled).
		Msg("Configuration loaded")

	return &c, nil
}
