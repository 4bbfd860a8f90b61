// Package config loads pageiter configuration from a YAML file, an optional
// .env file and the process environment.
//
// Files are searched in the usual places (./cmd/<service>/config.yml,
// ./config/config.yml, ./config.yml) unless given explicitly. Environment
// variables override file values; ITERATOR_BATCH_SIZE binds to
// iterator.batch_size.
//
//	var cfg AppConfig
//	if err := config.LoadConfig("pageiter", &cfg); err != nil { ... }
//	cfg.ApplyDefaults()
package config
