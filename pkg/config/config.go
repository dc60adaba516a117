// Package config holds the tool configuration: where the dongle is, how to
// talk to it and how chatty to be.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/mcuadros/go-defaults"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration. Zero values are filled in from the
// default tags; a YAML file overrides them.
type Config struct {
	Port         string `yaml:"port" default:"/dev/ttyACM0"`
	Baud         int    `yaml:"baud" default:"115200"`
	LogLevel     string `yaml:"log_level" default:"panic"`
	OutputFormat string `yaml:"output_format" default:"table"` // table, json
}

// Default returns the configuration with every field at its default.
func Default() *Config {
	c := &Config{}
	defaults.SetDefaults(c)
	return c
}

// Load reads a YAML configuration file on top of the defaults.
func Load(path string) (*Config, error) {
	c := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return c, nil
}

// NewLogger creates a logger configured per LogLevel. Unknown levels are an
// error rather than a silent fallback.
func (c *Config) NewLogger() (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}

	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
	return logger, nil
}
