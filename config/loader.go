package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "APIFIRE"

// FileSystem abstracts the file operations the loader needs.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

// RealFileSystem implements FileSystem using actual file operations.
type RealFileSystem struct{}

func (RealFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (RealFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

// LoaderConfig holds dependencies and optional file overrides.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string
	EnvFile    string
}

// LoaderOption is a functional option for Load.
type LoaderOption func(*LoaderConfig)

// WithFileSystem sets a custom filesystem for the loader.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// Load reads configuration for serviceName into cfg, applies defaults and
// validates the result. A missing config file is not an error.
func Load(serviceName string, cfg *Config, opts ...LoaderOption) error {
	lc := LoaderConfig{FileSystem: RealFileSystem{}}
	for _, opt := range opts {
		opt(&lc)
	}

	v := viper.New()
	setDefaults(v)

	if path := resolveConfigFile(serviceName, lc); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	if path := resolveEnvFile(lc); path != "" {
		if err := lc.FileSystem.LoadEnv(path); err != nil {
			return fmt.Errorf("config: load %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("config: unmarshal for service %s: %w", serviceName, err)
	}
	if cfg.Name == "" {
		cfg.Name = serviceName
	}

	cfg.ApplyDefaults()
	return cfg.Validate()
}

// setDefaults registers every key so AutomaticEnv can resolve it even when
// no config file mentions it.
func setDefaults(v *viper.Viper) {
	v.SetDefault("name", "")
	v.SetDefault("default_timeout", defaultTimeout)
	v.SetDefault("user_agent", "")
	v.SetDefault("temp_dir", "")
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output", "stdout")
	v.SetDefault("logger.no_color", false)
	v.SetDefault("logger.caller", false)
}

// resolveConfigFile returns the explicit config file or the first match in
// the standard search locations.
func resolveConfigFile(serviceName string, lc LoaderConfig) string {
	if lc.ConfigFile != "" {
		if lc.FileSystem.Exists(lc.ConfigFile) {
			return lc.ConfigFile
		}
		return ""
	}
	searchPaths := []string{
		fmt.Sprintf("./cmd/%s/config.yml", serviceName),
		"./config/config.yml",
		"./config.yml",
	}
	for _, path := range searchPaths {
		if lc.FileSystem.Exists(path) {
			return path
		}
	}
	return ""
}

func resolveEnvFile(lc LoaderConfig) string {
	if lc.EnvFile != "" {
		if lc.FileSystem.Exists(lc.EnvFile) {
			return lc.EnvFile
		}
		return ""
	}
	if lc.FileSystem.Exists(".env") {
		return ".env"
	}
	return ""
}
