package config

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/caarlos0/env/v9"
)

type Config struct {
	Repair Repair
	Log    Log
}

type Repair struct {
	Reference string `env:"JPEGREPAIR_REFERENCE"`
	Output    string `env:"JPEGREPAIR_OUTPUT" envDefault:"Repaired"`
	Workers   int    `env:"JPEGREPAIR_WORKERS" envDefault:"0"`
}

type Log struct {
	Debug bool `env:"JPEGREPAIR_DEBUG" envDefault:"false"`
	Quiet bool `env:"JPEGREPAIR_QUIET" envDefault:"false"`
}

// NewConfig reads the configuration from the environment. Command line
// flags are applied on top by the caller.
func NewConfig() (*Config, error) {
	cfg := &Config{}
	err := env.Parse(cfg)
	if err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Validate checks the settings and fills in derived defaults.
func (c *Config) Validate() error {
	if c.Repair.Reference == "" {
		return errors.New("a reference JPEG is required")
	}
	if c.Repair.Output == "" {
		return errors.New("output folder must not be empty")
	}
	if c.Repair.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Repair.Workers)
	}
	if c.Repair.Workers == 0 {
		c.Repair.Workers = runtime.NumCPU()
	}
	return nil
}
