package config

// APIConfig defines settings for the operator HTTP API.
type APIConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr"`
	// LogToken guards the decision-log endpoint when non-empty.
	LogToken string `json:"log_token"`
}

// SetDefaults applies sane defaults.
func (c *APIConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8087"
	}
}
