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

	coremetrics "github.com/marinelab/propfit/core/metrics"
	"github.com/marinelab/propfit/core/model"
	"github.com/marinelab/propfit/core/sampler"
)

// Config is the full pipeline configuration.
type Config struct {
	Fleet   FleetConfig        `json:"fleet"`
	Truth   model.TruthParams  `json:"truth"`
	Sampler sampler.Config     `json:"sampler"`
	Metrics coremetrics.Config `json:"metrics"`
	Output  OutputConfig       `json:"output"`
}

// Load reads a yaml or json configuration file, applies PROPFIT_ environment
// overrides, fills defaults and validates.
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
	if err := k.Load(env.Provider("PROPFIT_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "propfit_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills every section's optional fields.
func (c *Config) SetDefaults() {
	c.Fleet.SetDefaults()
	if (c.Truth == model.TruthParams{}) {
		c.Truth = DefaultTruth()
	}
	c.Sampler.SetDefaults()
	c.Metrics.SetDefaults()
	c.Output.SetDefaults()
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Fleet.Validate(); err != nil {
		return fmt.Errorf("fleet: %w", err)
	}
	if err := c.Truth.Validate(); err != nil {
		return fmt.Errorf("truth: %w", err)
	}
	if err := c.Sampler.Validate(); err != nil {
		return fmt.Errorf("sampler: %w", err)
	}
	if err := c.Output.Validate(); err != nil {
		return fmt.Errorf("output: %w", err)
	}
	return nil
}

// DefaultTruth returns the ground-truth hyperparameters used when the config
// does not override them: a fleet whose resistance coefficients grow
// linearly with tonnage, with moderate between-vessel spread.
func DefaultTruth() model.TruthParams {
	return model.TruthParams{
		Alpha0:   18.6,
		Alpha1:   9.0,
		SigmaA:   1.0,
		Beta0:    0.45,
		Beta1:    1.05,
		SigmaB:   0.2,
		SigmaObs: 5.0,
	}
}
