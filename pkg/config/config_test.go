package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err, "explicit path must exist")

	t.Setenv("GANTRY_CONFIG", "")
	cfg, err = Load("")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:7867", cfg.ListenAddress)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "default", cfg.Source("listen_address"))
	assert.Empty(t, cfg.DatabaseURL)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	content := `
state_dir: /var/lib/gantry
listen_address: 0.0.0.0:9000
log_level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/gantry", cfg.StateDir)
	assert.Equal(t, "0.0.0.0:9000", cfg.ListenAddress)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "file", cfg.Source("state_dir"))
	assert.Equal(t, "default", cfg.Source("log_format"))
	assert.Equal(t, path, cfg.ConfigFilePath())
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: debug\n"), 0o644))

	t.Setenv("GANTRY_LOG_LEVEL", "warn")
	t.Setenv("GANTRY_DATABASE_URL", "postgres://gantry@localhost/gantry")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "environment", cfg.Source("log_level"))
	assert.Equal(t, "postgres://gantry@localhost/gantry", cfg.DatabaseURL)
	assert.Equal(t, "environment", cfg.Source("database_url"))
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("{{not yaml"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.LogLevel = "verbose" },
			wantErr: "invalid log_level",
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.LogFormat = "xml" },
			wantErr: "invalid log_format",
		},
		{
			name:    "empty state dir",
			mutate:  func(c *Config) { c.StateDir = "" },
			wantErr: "state_dir",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := newDefault()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tc.wantErr)
			}
		})
	}
}

func TestAttributesRedactsAPIKey(t *testing.T) {
	cfg := newDefault()
	cfg.APIKey = "supersecret"

	for _, attr := range cfg.Attributes() {
		if attr.Name == "api_key" {
			assert.Equal(t, "(redacted)", attr.Value)
			return
		}
	}
	t.Fatal("api_key attribute missing")
}

func TestFormatText(t *testing.T) {
	cfg := newDefault()
	out := cfg.FormatText()
	assert.Contains(t, out, "Config file: (none)")
	assert.Contains(t, out, "listen_address")
	assert.Contains(t, out, "127.0.0.1:7867")
	assert.Contains(t, out, "(not set)")
}

func TestFormatJSON(t *testing.T) {
	cfg := newDefault()
	out, err := cfg.FormatJSON()
	require.NoError(t, err)
	assert.Contains(t, out, `"config_file"`)
	assert.Contains(t, out, `"state_dir"`)
}
