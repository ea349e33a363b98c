// Package config loads client settings from an optional TOML file, applies
// environment overrides and fills defaults.
package config

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gravitational/trace"
	"github.com/pelletier/go-toml"
)

const (
	DefaultBaseURL  = "http://localhost:4321/api/v1/"
	DefaultTimeout  = 30 * time.Second
	DefaultSeverity = "info"

	StorageMemory = "memory"
	StorageDisk   = "disk"
	StorageFile   = "file"

	baseURLEnvVar  = "QUID_API_BASE_URL"
	timeoutEnvVar  = "QUID_API_TIMEOUT"
	storageEnvVar  = "QUID_STORAGE"
	dirEnvVar      = "QUID_STORAGE_DIR"
	severityEnvVar = "QUID_LOG_SEVERITY"
)

const exampleConfig = `# example quid client configuration TOML file
[api]
base_url = "http://localhost:4321/api/v1/" # Backend API base URL
timeout = "30s"                             # Per request timeout

[storage]
type = "disk"        # Credential storage: "disk", "file" or "memory"
dir = "~/.quid"      # Storage directory (disk) or snapshot location (file)

[log]
severity = "info"    # Logger severity: "debug", "info", "warn" or "error"
`

type (
	Config struct {
		API     APIConfig     `toml:"api"`
		Storage StorageConfig `toml:"storage"`
		Log     LogConfig     `toml:"log"`
	}

	APIConfig struct {
		BaseURL string `toml:"base_url"`
		Timeout string `toml:"timeout"`
	}

	StorageConfig struct {
		Type string `toml:"type"`
		Dir  string `toml:"dir"`
	}

	LogConfig struct {
		Severity string `toml:"severity"`
	}
)

// ExampleConfig returns a commented sample configuration.
func ExampleConfig() string {
	return exampleConfig
}

// Load reads filepath when not empty, then applies environment overrides and defaults.
func Load(filepath string) (*Config, error) {
	conf := &Config{}
	if filepath != "" {
		t, err := toml.LoadFile(filepath)
		if err != nil {
			return nil, trace.Wrap(err)
		}
		if err := t.Unmarshal(conf); err != nil {
			return nil, trace.Wrap(err)
		}
	}
	conf.applyEnv()
	if err := conf.CheckAndSetDefaults(); err != nil {
		return nil, trace.Wrap(err)
	}
	return conf, nil
}

func (c *Config) applyEnv() {
	c.API.BaseURL = GetEnv(baseURLEnvVar, c.API.BaseURL)
	c.API.Timeout = GetEnv(timeoutEnvVar, c.API.Timeout)
	c.Storage.Type = GetEnv(storageEnvVar, c.Storage.Type)
	c.Storage.Dir = GetEnv(dirEnvVar, c.Storage.Dir)
	c.Log.Severity = GetEnv(severityEnvVar, c.Log.Severity)
}

// CheckAndSetDefaults validates the config and fills empty values.
func (c *Config) CheckAndSetDefaults() error {
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(c.API.BaseURL, "/") {
		c.API.BaseURL += "/"
	}
	parsed, err := url.Parse(c.API.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return trace.BadParameter("invalid api.base_url %q", c.API.BaseURL)
	}

	if c.API.Timeout != "" {
		if timeout, err := time.ParseDuration(c.API.Timeout); err != nil || timeout <= 0 {
			return trace.BadParameter("invalid api.timeout %q", c.API.Timeout)
		}
	}

	switch c.Storage.Type {
	case "":
		c.Storage.Type = StorageDisk
	case StorageDisk, StorageFile, StorageMemory:
	default:
		return trace.BadParameter("unsupported storage.type %q", c.Storage.Type)
	}
	if c.Storage.Dir == "" {
		c.Storage.Dir = DefaultDir()
	}
	c.Storage.Dir = expandHome(c.Storage.Dir)

	c.Log.Severity = strings.ToLower(c.Log.Severity)
	if c.Log.Severity == "" {
		c.Log.Severity = DefaultSeverity
	}
	return nil
}

// RequestTimeout returns the parsed api.timeout.
func (c *APIConfig) RequestTimeout() time.Duration {
	timeout, err := time.ParseDuration(c.Timeout)
	if err != nil || timeout <= 0 {
		return DefaultTimeout
	}
	return timeout
}

// DefaultDir returns ~/.quid, or .quid when the home directory is unknown.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".quid"
	}
	return filepath.Join(home, ".quid")
}

func expandHome(dir string) string {
	if dir != "~" && !strings.HasPrefix(dir, "~/") {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return dir
	}
	return filepath.Join(home, strings.TrimPrefix(dir, "~"))
}

// GetEnv returns the environment variable or defaultValue when unset or empty.
func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
