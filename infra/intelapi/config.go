package intelapi

import "fmt"

// AuthConfig carries the client-credentials grant used against the intel
// gateway. Empty ClientID disables authentication entirely.
type AuthConfig struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	TokenURL     string `json:"token_url"`
}

// Config configures the pull-based intel provider.
type Config struct {
	Enabled        bool       `json:"enabled"`
	BaseURL        string     `json:"base_url"`
	TimeoutSeconds int        `json:"timeout_seconds"`
	Auth           AuthConfig `json:"auth"`
}

func (c *Config) SetDefaults() {
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = 10
	}
}

func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.BaseURL == "" {
		return fmt.Errorf("intelapi: base_url is required when enabled")
	}
	if c.Auth.ClientID != "" && c.Auth.TokenURL == "" {
		return fmt.Errorf("intelapi: auth.token_url is required when a client id is set")
	}
	return nil
}
