package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// process loads one configuration concern from the environment. An empty
// prefix reads the tagged variable names as-is.
func process(name, prefix string, spec interface{}) error {
	if err := envconfig.Process(prefix, spec); err != nil {
		log.Error().Err(err).Str("config", name).Msg("Failed to load configuration from environment")
		return fmt.Errorf("error loading %s configuration: %w", name, err)
	}
	log.Debug().Str("config", name).Msg("Configuration loaded from environment")
	return nil
}
