// Package config loads dispatcher configuration using Viper.
//
// Values come, in increasing priority, from built-in defaults, a YAML
// config file, a .env file and the process environment. Environment keys
// use the APIFIRE_ prefix with underscores for nesting:
//
//	APIFIRE_DEFAULT_TIMEOUT=30s
//	APIFIRE_LOGGER_LEVEL=debug
//
// # Usage
//
//	var cfg config.Config
//	if err := config.Load("my-service", &cfg); err != nil { ... }
package config
