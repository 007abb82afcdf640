package feed

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// Topics names the MQTT topics the feed works with.
type Topics struct {
	// Convoy carries convoy state records to ingest.
	Convoy string `json:"convoy"`
	// Route carries route intel records.
	Route string `json:"route"`
	// Checkpoint carries traffic control point records.
	Checkpoint string `json:"checkpoint"`
	// Recommendation is where issued recommendations are published.
	Recommendation string `json:"recommendation"`
}

// Config defines the connection parameters for the Paho MQTT feed.
type Config struct {
	Enabled    bool            `json:"enabled"`
	Broker     string          `json:"broker"`
	ClientID   string          `json:"client_id"`
	Username   string          `json:"username"`
	Password   string          `json:"password"`
	UseTLS     bool            `json:"use_tls"`
	ClientCert string          `json:"client_cert"`
	ClientKey  string          `json:"client_key"`
	CABundle   string          `json:"ca_bundle"`
	QoS        map[string]byte `json:"qos"`
	Topics     Topics          `json:"topics"`
	MaxRetries int             `json:"max_retries"`
	BackoffMS  int             `json:"backoff_ms"`
	TLSConfig  *tls.Config     `json:"-"`
}

// SetDefaults applies the reference topic layout and retry policy.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "convoyd"
	}
	if c.Topics.Convoy == "" {
		c.Topics.Convoy = "intel/convoy"
	}
	if c.Topics.Route == "" {
		c.Topics.Route = "intel/route"
	}
	if c.Topics.Checkpoint == "" {
		c.Topics.Checkpoint = "intel/checkpoint"
	}
	if c.Topics.Recommendation == "" {
		c.Topics.Recommendation = "dispatch/recommendation"
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.BackoffMS == 0 {
		c.BackoffMS = 100
	}
}

// Validate checks mandatory fields for an enabled feed.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Broker == "" {
		return fmt.Errorf("feed: broker is required")
	}
	return nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the
// config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("feed: tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("feed: load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("feed: read ca: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caBytes)
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		RootCAs:      pool,
		MinVersion:   tls.VersionTLS12,
	}, nil
}
