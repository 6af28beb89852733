package config

import (
	"fmt"
	"os"
	"time"

	"negprice/internal/model"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration shape (YAML).
type Config struct {
	Server    ServerConfig        `yaml:"server"`
	Analysis  AnalysisConfig      `yaml:"analysis"`
	Batteries []model.BatterySpec `yaml:"batteries"`
}

type ServerConfig struct {
	Port         int      `yaml:"port"`
	ResultsDir   string   `yaml:"results_dir"`
	ArtifactsDir string   `yaml:"artifacts_dir"`
	ResultTTL    string   `yaml:"result_ttl"` // Go duration, empty = keep forever
	CORSOrigins  []string `yaml:"cors_origins"`
}

type AnalysisConfig struct {
	Timezone             string           `yaml:"timezone"`
	Currency             string           `yaml:"currency"`
	EURToSEKRate         float64          `yaml:"eur_sek_rate"`
	Floors               []float64        `yaml:"floors"`
	Sections             []string         `yaml:"sections"`
	Costs                *model.CostBlock `yaml:"costs"`
	RetailPriceSEKPerKWh *float64         `yaml:"retail_price_sek_per_kwh"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			ResultsDir:   "data/results",
			ArtifactsDir: "data/artifacts",
		},
		Analysis: AnalysisConfig{
			Timezone:     "Europe/Stockholm",
			Currency:     "SEK",
			EURToSEKRate: 11.5,
		},
		Batteries: []model.BatterySpec{
			{CapacityKWh: 5, PowerLimitKW: 3, RoundTripEfficiency: 0.9, DischargeHour: 19, DecisionBasis: model.BasisSpot},
			{CapacityKWh: 10, PowerLimitKW: 5, RoundTripEfficiency: 0.9, DischargeHour: 19, DecisionBasis: model.BasisSpot},
			{CapacityKWh: 15, PowerLimitKW: 5, RoundTripEfficiency: 0.9, DischargeHour: 19, DecisionBasis: model.BasisSpot},
		},
	}
}

// Load reads a YAML config, overlays it on the defaults and validates it.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(raw, c); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config %s invalid: %w", path, err)
	}
	return c, nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.ResultTTL != "" {
		if _, err := time.ParseDuration(c.Server.ResultTTL); err != nil {
			return fmt.Errorf("server.result_ttl: %w", err)
		}
	}
	// Validate the analysis block by normalizing a run options copy.
	opts := c.RunOptions()
	if err := opts.Normalize(); err != nil {
		return err
	}
	return nil
}

// ResultTTL returns the parsed TTL, 0 when unset.
func (c *Config) ResultTTL() time.Duration {
	if c.Server.ResultTTL == "" {
		return 0
	}
	d, err := time.ParseDuration(c.Server.ResultTTL)
	if err != nil {
		return 0
	}
	return d
}

// RunOptions converts the config into per-run engine options.
func (c *Config) RunOptions() model.RunOptions {
	return model.RunOptions{
		Timezone:             c.Analysis.Timezone,
		Currency:             c.Analysis.Currency,
		FXRate:               c.Analysis.EURToSEKRate,
		Floors:               append([]float64(nil), c.Analysis.Floors...),
		Batteries:            append([]model.BatterySpec(nil), c.Batteries...),
		Costs:                c.Analysis.Costs,
		RetailPriceSEKPerKWh: c.Analysis.RetailPriceSEKPerKWh,
		Sections:             append([]string(nil), c.Analysis.Sections...),
	}
}
