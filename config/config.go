package config

import (
	"fmt"
	"time"

	"github.com/kbukum/apifire/logger"
	"github.com/kbukum/apifire/version"
)

const defaultTimeout = 15 * time.Second

// Config configures a dispatcher and the sessions it creates.
type Config struct {
	// Name identifies the dispatcher in logs and health reports.
	Name string `yaml:"name" mapstructure:"name"`
	// DefaultTimeout is the timeout of the pre-seeded session. Defaults to 15s.
	DefaultTimeout time.Duration `yaml:"default_timeout" mapstructure:"default_timeout"`
	// UserAgent is sent with every request that does not set its own.
	// Defaults to apifire/<version>.
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`
	// Headers are default headers applied to every request.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`
	// TempDir is where downloads are staged. Empty uses the OS default.
	TempDir string `yaml:"temp_dir" mapstructure:"temp_dir"`
	// Logger configures dispatcher logging.
	Logger logger.Config `yaml:"logger" mapstructure:"logger"`
}

// ApplyDefaults fills in zero-value fields with defaults.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "apifire"
	}
	if c.DefaultTimeout <= 0 {
		c.DefaultTimeout = defaultTimeout
	}
	if c.UserAgent == "" {
		c.UserAgent = version.UserAgent()
	}
	c.Logger.ApplyDefaults()
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.DefaultTimeout <= 0 {
		return fmt.Errorf("config.default_timeout must be positive (got: %s)", c.DefaultTimeout)
	}
	if err := c.Logger.Validate(); err != nil {
		return fmt.Errorf("config.logger: %w", err)
	}
	return nil
}
