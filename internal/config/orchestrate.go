package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const orchestratePrefix = "ORCHESTRATE"

type OrchestrateConfig struct {
	APIURL  string        `envconfig:"API_URL" default:"http://localhost:8000"`
	AgentID string        `envconfig:"AGENT_ID" default:"7e78e8e6-27a7-4922-bb90-955c5367778e"`
	Timeout time.Duration `envconfig:"TIMEOUT" default:"60s"`
}

func GetOrchestrateConfig() (OrchestrateConfig, error) {
	var c OrchestrateConfig
	if err := process("orchestrate", orchestratePrefix, &c); err != nil {
		return OrchestrateConfig{}, err
	}
	c.APIURL = strings.TrimSuffix(c.APIURL, "/")
	return c, nil
}

// CompletionsURL returns the agent's chat completions endpoint.
func (c OrchestrateConfig) CompletionsURL() string {
	return fmt.Sprintf("%s/api/v1/orchestrate/%s/chat/completions", c.APIURL, url.PathEscape(c.AgentID))
}
