package config

import (
	"fmt"

	"github.com/kbukum/pageiter/logger"
)

// ServiceConfig is the section every pageiter binary embeds: identity plus
// logging. Embedding structs add their own sections next to it.
//
//	type AppConfig struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Iterator iterator.Config `yaml:"iterator" mapstructure:"iterator"`
//	}
type ServiceConfig struct {
	BaseConfig `yaml:",inline" mapstructure:",squash"`
	Logging    logger.Config `yaml:"logging" mapstructure:"logging"`
}

// ApplyDefaults applies base and logging defaults. In development the log
// level drops to debug unless set explicitly.
func (c *ServiceConfig) ApplyDefaults() {
	c.BaseConfig.ApplyDefaults()
	if c.Debug && c.Logging.Level == "" {
		c.Logging.Level = "debug"
	}
	c.Logging.ApplyDefaults()
}

// Validate validates base and logging sections.
func (c *ServiceConfig) Validate() error {
	if err := c.BaseConfig.Validate(); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}

// GetServiceConfig returns the embedded section. Structs embedding
// ServiceConfig satisfy bootstrap.Config through it.
func (c *ServiceConfig) GetServiceConfig() *ServiceConfig {
	return c
}
