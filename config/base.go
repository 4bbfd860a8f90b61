package config

import (
	"fmt"
	"slices"
)

// Environments accepted by BaseConfig.Validate.
var Environments = []string{"development", "staging", "production"}

// BaseConfig holds the identity of a running pageiter process.
type BaseConfig struct {
	Name        string `yaml:"name" mapstructure:"name"`
	Environment string `yaml:"environment" mapstructure:"environment"`
	Version     string `yaml:"version" mapstructure:"version"`
	Debug       bool   `yaml:"debug" mapstructure:"debug"`
}

// ApplyDefaults fills the environment and turns on debug for development.
func (c *BaseConfig) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Environment == "development" {
		c.Debug = true
	}
}

// Validate checks the name and environment.
func (c *BaseConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	if !slices.Contains(Environments, c.Environment) {
		return fmt.Errorf("environment must be one of %v (got: %s)", Environments, c.Environment)
	}
	return nil
}
