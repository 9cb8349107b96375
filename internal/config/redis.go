package config

import (
	"github.com/rs/zerolog/log"
)

const redisPrefix = "REDIS"

type RedisConfig struct {
	// URL is either host:port or a redis:// URL.
	URL      string `envconfig:"URL"`
	Password string `envconfig:"PASSWORD"`
	DB       int    `envconfig:"DB" default:"0"`
}

func GetRedisConfig() (RedisConfig, error) {
	var c RedisConfig
	if err := process("redis", redisPrefix, &c); err != nil {
		return RedisConfig{}, err
	}
	if !c.Enabled() {
		log.Warn().Msg("REDIS_URL not set - sign-in state and revocations will be kept in memory")
	}
	return c, nil
}

func (c RedisConfig) Enabled() bool {
	return c.URL != ""
}
