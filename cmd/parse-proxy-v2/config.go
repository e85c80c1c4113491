package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/mastercactapus/proxyv2"
)

const envPrefix = "PARSE_PROXY_V2"

// Config holds the settings for a single run.
type Config struct {
	// Port to listen on. Empty reads the header from stdin.
	Port string `mapstructure:"port"`

	// Timeout bounds the accept and read when listening. Zero waits forever.
	Timeout time.Duration `mapstructure:"timeout"`

	Format   string `mapstructure:"format"`
	LogLevel string `mapstructure:"log-level"`
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("port", "")
	v.SetDefault("timeout", time.Duration(0))
	v.SetDefault("format", string(proxyv2.FormatText))
	v.SetDefault("log-level", "info")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// loadConfig reads cfgFile (if set) into v and returns the validated result.
func loadConfig(v *viper.Viper, cfgFile string) (*Config, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the port, timeout and format.
func (c *Config) Validate() error {
	if c.Port != "" {
		port, err := strconv.Atoi(c.Port)
		if err != nil {
			return fmt.Errorf("invalid port '%s': %w", c.Port, err)
		}
		if port < 0 || port > 65535 {
			return fmt.Errorf("invalid port '%d': must be between 0-65535", port)
		}
	}
	if c.Timeout < 0 {
		return fmt.Errorf("invalid timeout '%s': must not be negative", c.Timeout)
	}
	switch proxyv2.Format(c.Format) {
	case proxyv2.FormatText, proxyv2.FormatYAML, proxyv2.FormatJSON:
	default:
		return fmt.Errorf("invalid format '%s': must be text, yaml, or json", c.Format)
	}
	return nil
}
