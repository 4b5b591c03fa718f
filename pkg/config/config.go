package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// SystemConfigPath is consulted first when no explicit path is given.
	SystemConfigPath = "/etc/gantry/config.yml"

	// userConfigRelPath is resolved under the user config dir.
	userConfigRelPath = "gantry/config.yml"
)

// Config holds the supervisor settings that don't live in the stack file.
type Config struct {
	// StateDir holds the state database, named volumes, process logs, and
	// the supervisor discovery file.
	StateDir string `yaml:"state_dir" json:"state_dir"`

	// ListenAddress is where the control API binds.
	ListenAddress string `yaml:"listen_address" json:"listen_address"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// LogFormat is text or json.
	LogFormat string `yaml:"log_format" json:"log_format"`

	// DatabaseURL overrides the embedded SQLite state store with a
	// postgres:// URL for shared state.
	DatabaseURL string `yaml:"database_url" json:"database_url"`

	// APIKey signs and verifies control API tokens. Mutating API routes
	// are rejected when it is empty.
	APIKey string `yaml:"api_key" json:"api_key"`

	// sources tracks where each value came from
	sources map[string]string

	// configFilePath is the path of the loaded config file, if any
	configFilePath string
}

// Attribute is one configuration attribute with its value and source.
type Attribute struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

// newDefault returns a config with default values.
func newDefault() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		StateDir:      filepath.Join(home, ".gantry"),
		ListenAddress: "127.0.0.1:7867",
		LogLevel:      "info",
		LogFormat:     "text",
		sources:       make(map[string]string),
	}
}

// Load reads configuration from file and environment. Environment variables
// win over file values. The file is the first of: explicitPath (when
// non-empty, and then it must exist), GANTRY_CONFIG env, the user config
// dir, /etc/gantry/config.yml; a missing default file is not an error.
func Load(explicitPath string) (*Config, error) {
	config := newDefault()
	for _, name := range attributeNames() {
		config.sources[name] = "default"
	}

	path, required := configFilePath(explicitPath)
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			var fileConfig Config
			if err := yaml.Unmarshal(data, &fileConfig); err != nil {
				return nil, fmt.Errorf("parse config file %s: %w", path, err)
			}
			config.configFilePath = path
			config.applyFileConfig(&fileConfig)
		case required:
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	config.applyEnvConfig()
	return config, nil
}

func configFilePath(explicitPath string) (path string, required bool) {
	if explicitPath != "" {
		return explicitPath, true
	}
	if env := os.Getenv("GANTRY_CONFIG"); env != "" {
		return env, true
	}
	if userDir, err := os.UserConfigDir(); err == nil {
		userPath := filepath.Join(userDir, userConfigRelPath)
		if _, err := os.Stat(userPath); err == nil {
			return userPath, false
		}
	}
	return SystemConfigPath, false
}

func attributeNames() []string {
	return []string{
		"state_dir", "listen_address", "log_level", "log_format",
		"database_url", "api_key",
	}
}

func (c *Config) applyFileConfig(file *Config) {
	if file.StateDir != "" {
		c.StateDir = file.StateDir
		c.sources["state_dir"] = "file"
	}
	if file.ListenAddress != "" {
		c.ListenAddress = file.ListenAddress
		c.sources["listen_address"] = "file"
	}
	if file.LogLevel != "" {
		c.LogLevel = file.LogLevel
		c.sources["log_level"] = "file"
	}
	if file.LogFormat != "" {
		c.LogFormat = file.LogFormat
		c.sources["log_format"] = "file"
	}
	if file.DatabaseURL != "" {
		c.DatabaseURL = file.DatabaseURL
		c.sources["database_url"] = "file"
	}
	if file.APIKey != "" {
		c.APIKey = file.APIKey
		c.sources["api_key"] = "file"
	}
}

func (c *Config) applyEnvConfig() {
	if val := os.Getenv("GANTRY_STATE_DIR"); val != "" {
		c.StateDir = val
		c.sources["state_dir"] = "environment"
	}
	if val := os.Getenv("GANTRY_LISTEN_ADDRESS"); val != "" {
		c.ListenAddress = val
		c.sources["listen_address"] = "environment"
	}
	if val := os.Getenv("GANTRY_LOG_LEVEL"); val != "" {
		c.LogLevel = val
		c.sources["log_level"] = "environment"
	}
	if val := os.Getenv("GANTRY_LOG_FORMAT"); val != "" {
		c.LogFormat = val
		c.sources["log_format"] = "environment"
	}
	if val := os.Getenv("GANTRY_DATABASE_URL"); val != "" {
		c.DatabaseURL = val
		c.sources["database_url"] = "environment"
	}
	if val := os.Getenv("GANTRY_API_KEY"); val != "" {
		c.APIKey = val
		c.sources["api_key"] = "environment"
	}
}

// Validate checks attribute values.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level: %s", c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log_format: %s", c.LogFormat)
	}
	if c.StateDir == "" {
		return fmt.Errorf("state_dir must not be empty")
	}
	return nil
}

// ConfigFilePath returns the path of the loaded config file, empty when no
// file was found.
func (c *Config) ConfigFilePath() string {
	return c.configFilePath
}

// Source returns the source of a configuration attribute.
func (c *Config) Source(name string) string {
	if c.sources == nil {
		return "default"
	}
	if s, ok := c.sources[name]; ok {
		return s
	}
	return "default"
}

// LogDir returns the per-service process log directory.
func (c *Config) LogDir() string {
	return filepath.Join(c.StateDir, "logs")
}

// Attributes returns all configuration attributes with values and sources.
// Secrets are redacted.
func (c *Config) Attributes() []Attribute {
	apiKey := ""
	if c.APIKey != "" {
		apiKey = "(redacted)"
	}
	return []Attribute{
		{Name: "state_dir", Value: c.StateDir, Source: c.Source("state_dir")},
		{Name: "listen_address", Value: c.ListenAddress, Source: c.Source("listen_address")},
		{Name: "log_level", Value: c.LogLevel, Source: c.Source("log_level")},
		{Name: "log_format", Value: c.LogFormat, Source: c.Source("log_format")},
		{Name: "database_url", Value: c.DatabaseURL, Source: c.Source("database_url")},
		{Name: "api_key", Value: apiKey, Source: c.Source("api_key")},
	}
}

// FormatText returns a text representation of the configuration.
func (c *Config) FormatText() string {
	var sb strings.Builder
	file := c.configFilePath
	if file == "" {
		file = "(none)"
	}
	sb.WriteString(fmt.Sprintf("Config file: %s\n\n", file))
	sb.WriteString(fmt.Sprintf("%-20s %-40s %s\n", "NAME", "VALUE", "SOURCE"))
	sb.WriteString(fmt.Sprintf("%-20s %-40s %s\n", "----", "-----", "------"))

	for _, attr := range c.Attributes() {
		value := attr.Value
		if value == "" {
			value = "(not set)"
		}
		sb.WriteString(fmt.Sprintf("%-20s %-40s %s\n", attr.Name, value, attr.Source))
	}
	return sb.String()
}

// FormatJSON returns a JSON representation of the configuration.
func (c *Config) FormatJSON() (string, error) {
	result := map[string]interface{}{
		"config_file": c.configFilePath,
		"attributes":  c.Attributes(),
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
