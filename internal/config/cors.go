package config

const corsPrefix = "CORS"

type CORSConfig struct {
	// AllowedOrigins restricts which origins are reflected on preflight.
	// Empty means any origin is reflected.
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS"`
}

func GetCORSConfig() (CORSConfig, error) {
	var c CORSConfig
	if err := process("cors", corsPrefix, &c); err != nil {
		return CORSConfig{}, err
	}
	return c, nil
}

func (c CORSConfig) IsAllowedOrigin(origin string) bool {
	if len(c.AllowedOrigins) == 0 {
		return true
	}
	for _, allowed := range c.AllowedOrigins {
		if allowed == origin || allowed == "*" {
			return true
		}
	}
	return false
}
