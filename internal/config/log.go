package config

const logPrefix = "LOG"

type LogConfig struct {
	Level  string `envconfig:"LEVEL" default:"info"`
	Pretty bool   `envconfig:"PRETTY" default:"false"`
}

func GetLogConfig() (LogConfig, error) {
	var c LogConfig
	if err := process("log", logPrefix, &c); err != nil {
		return LogConfig{}, err
	}
	return c, nil
}
