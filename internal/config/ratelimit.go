package config

import (
	"time"

	"github.com/rs/zerolog/log"
)

const ratelimitPrefix = "RATELIMIT"

const (
	RateLimitTokenExchange = "token_exchange"
	RateLimitChat          = "chat"
	RateLimitAuth          = "auth"
)

// RateLimitConfig holds per-minute request budgets for each limited route group.
type RateLimitConfig struct {
	Enabled       bool `envconfig:"ENABLED" default:"false"`
	TokenExchange int  `envconfig:"TOKEN_EXCHANGE" default:"60"`
	Chat          int  `envconfig:"CHAT" default:"120"`
	Auth          int  `envconfig:"AUTH" default:"30"`
}

// RateLimit is the resolved budget for one route group.
type RateLimit struct {
	Enabled bool
	MaxHits int
	Window  time.Duration
}

func GetRateLimitConfig() (RateLimitConfig, error) {
	var c RateLimitConfig
	if err := process("ratelimit", ratelimitPrefix, &c); err != nil {
		return RateLimitConfig{}, err
	}
	return c, nil
}

func (c RateLimitConfig) For(key string) RateLimit {
	limits := map[string]int{
		RateLimitTokenExchange: c.TokenExchange,
		RateLimitChat:          c.Chat,
		RateLimitAuth:          c.Auth,
	}

	maxHits, exists := limits[key]
	if !exists {
		log.Warn().Str("key", key).Msg("No rate limit config found")
		return RateLimit{Enabled: false}
	}

	return RateLimit{
		Enabled: c.Enabled && maxHits > 0,
		MaxHits: maxHits,
		Window:  time.Minute,
	}
}
