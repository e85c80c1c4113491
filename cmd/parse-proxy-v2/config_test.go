package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig(newViper(), "")
	require.NoError(t, err)
	assert.Equal(t, "", cfg.Port)
	assert.Equal(t, time.Duration(0), cfg.Timeout)
	assert.Equal(t, "text", cfg.Format)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	err := os.WriteFile(path, []byte("port: \"8443\"\ntimeout: 5s\nformat: yaml\nlog-level: debug\n"), 0o644)
	require.NoError(t, err)

	cfg, err := loadConfig(newViper(), path)
	require.NoError(t, err)
	assert.Equal(t, "8443", cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, "yaml", cfg.Format)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("PARSE_PROXY_V2_FORMAT", "json")
	t.Setenv("PARSE_PROXY_V2_LOG_LEVEL", "warn")

	cfg, err := loadConfig(newViper(), "")
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestConfig_Validate(t *testing.T) {
	check := func(name string, cfg Config, valid bool) {
		t.Run(name, func(t *testing.T) {
			err := cfg.Validate()
			if valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}

	check("stdin", Config{Format: "text"}, true)
	check("port", Config{Port: "8080", Format: "yaml"}, true)
	check("bad-port", Config{Port: "http", Format: "text"}, false)
	check("port-range", Config{Port: "70000", Format: "text"}, false)
	check("timeout", Config{Timeout: -time.Second, Format: "text"}, false)
	check("format", Config{Format: "xml"}, false)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := loadConfig(newViper(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
