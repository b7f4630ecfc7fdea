// Package config loads runtime settings from the environment and an optional
// config file. The command has no flags; everything is set here.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. DEVPROBE_LOG_LEVEL.
const EnvPrefix = "DEVPROBE"

// Accelerator preferences.
const (
	AcceleratorAuto   = "auto"
	AcceleratorCUDA   = "cuda"
	AcceleratorWebGPU = "webgpu"
	AcceleratorNone   = "none"
)

// Config represents the application configuration
type Config struct {
	Log         LogConfig  `mapstructure:"log"`
	Accelerator string     `mapstructure:"accelerator"`
	CUDA        CUDAConfig `mapstructure:"cuda"`
}

// LogConfig sets the logrus level.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// CUDAConfig overrides the CUDA shared library locations.
type CUDAConfig struct {
	RuntimeLibrary string `mapstructure:"runtime_library"`
	CublasLibrary  string `mapstructure:"cublas_library"`
	CurandLibrary  string `mapstructure:"curand_library"`
	Seed           uint64 `mapstructure:"seed"`
}

// DefaultConfig returns configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Log:         LogConfig{Level: "warn"},
		Accelerator: AcceleratorAuto,
	}
}

// Load reads configuration from DEVPROBE_* environment variables and, if
// present, devprobe.yaml in the working directory or $HOME/.config/devprobe.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("devprobe")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "devprobe"))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return decode(v)
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("accelerator", d.Accelerator)
	v.SetDefault("cuda.runtime_library", "")
	v.SetDefault("cuda.cublas_library", "")
	v.SetDefault("cuda.curand_library", "")
	v.SetDefault("cuda.seed", 0)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the accelerator preference.
func (c *Config) Validate() error {
	c.Accelerator = strings.ToLower(strings.TrimSpace(c.Accelerator))
	switch c.Accelerator {
	case AcceleratorAuto, AcceleratorCUDA, AcceleratorWebGPU, AcceleratorNone:
		return nil
	default:
		return fmt.Errorf("invalid accelerator %q (want auto, cuda, webgpu or none)", c.Accelerator)
	}
}
