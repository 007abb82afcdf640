// Package config loads the service configuration from YAML or JSON with
// optional environment overrides (K_ prefix, __ as the key separator).
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/milops/convoyd/core/engine"
	"github.com/milops/convoyd/core/metrics"
	"github.com/milops/convoyd/infra/feed"
	"github.com/milops/convoyd/infra/intelapi"
	"github.com/milops/convoyd/infra/monitoring"
)

type Config struct {
	Feed    feed.Config       `json:"feed"`
	Intel   intelapi.Config   `json:"intel"`
	Engine  engine.Config     `json:"engine"`
	Metrics metrics.Config    `json:"metrics"`
	Audit   AuditConfig       `json:"audit"`
	API     APIConfig         `json:"api"`
	Sentry  monitoring.Config `json:"sentry"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Feed.SetDefaults()
	cfg.Intel.SetDefaults()
	cfg.Engine.SetDefaults()
	cfg.Audit.SetDefaults()
	cfg.API.SetDefaults()
	if err := cfg.Feed.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Intel.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Engine.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Audit.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
