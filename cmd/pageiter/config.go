package main

import (
	"fmt"

	"github.com/kbukum/pageiter/config"
	"github.com/kbukum/pageiter/database"
	"github.com/kbukum/pageiter/iterator"
	"github.com/kbukum/pageiter/observability"
	"github.com/kbukum/pageiter/redis"
	"github.com/kbukum/pageiter/server"
	"github.com/kbukum/pageiter/version"
)

const serviceName = "pageiter"

// AppConfig is the pageiter CLI configuration, read from config.yml, .env
// and the environment (ITERATOR_BATCH_SIZE, DATABASE_DSN, REDIS_ADDR, ...).
type AppConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Iterator      iterator.Config      `yaml:"iterator" mapstructure:"iterator"`
	Database      database.Config      `yaml:"database" mapstructure:"database"`
	Redis         redis.Config         `yaml:"redis" mapstructure:"redis"`
	Server        server.Config        `yaml:"server" mapstructure:"server"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

func (c *AppConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	if c.Version == "" {
		c.Version = version.Get().Short()
	}
	c.ServiceConfig.ApplyDefaults()
	c.Iterator.ApplyDefaults()
	c.Database.ApplyDefaults()
	c.Redis.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Observability.ApplyDefaults()
}

func (c *AppConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Iterator.Validate(); err != nil {
		return fmt.Errorf("iterator: %w", err)
	}
	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Redis.Validate(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	return c.Observability.Validate()
}

func loadConfig(configFile, envFile string) (*AppConfig, error) {
	var opts []config.LoaderOption
	if configFile != "" {
		opts = append(opts, config.WithConfigFile(configFile))
	}
	if envFile != "" {
		opts = append(opts, config.WithEnvFile(envFile))
	}
	cfg := &AppConfig{}
	if err := config.LoadConfig(serviceName, cfg, opts...); err != nil {
		return nil, err
	}
	return cfg, nil
}
