package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	sds "github.com/kailas-cloud/edsanalytics/pkg/sdk"
)

// Config holds the demo runner and store stub configuration.
type Config struct {
	EDS      EDSConfig      `yaml:"eds"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Stub     StubConfig     `yaml:"stub"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// EDSConfig locates the store namespace the demo talks to.
type EDSConfig struct {
	Scheme      string `yaml:"scheme"` // http, https (default: http)
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	TenantID    string `yaml:"tenant_id"`
	NamespaceID string `yaml:"namespace_id"`
	APIVersion  string `yaml:"api_version"`
	TimeoutSec  int    `yaml:"timeout_sec"`
}

// PipelineConfig holds demo workflow settings.
type PipelineConfig struct {
	Events int `yaml:"events"`
}

// StubConfig holds the local store stub HTTP server settings.
type StubConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// MetricsConfig holds the demo runner's metrics listener. Port 0 disables it.
type MetricsConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML, expanding ${VAR} references, then applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.EDS.Scheme == "" {
		c.EDS.Scheme = "http"
	}
	if c.EDS.Host == "" {
		c.EDS.Host = "localhost"
	}
	if c.EDS.Port <= 0 {
		c.EDS.Port = 5590
	}
	if c.EDS.TenantID == "" {
		c.EDS.TenantID = "default"
	}
	if c.EDS.NamespaceID == "" {
		c.EDS.NamespaceID = "default"
	}
	if c.EDS.APIVersion == "" {
		c.EDS.APIVersion = "v1"
	}
	if c.EDS.TimeoutSec <= 0 {
		c.EDS.TimeoutSec = 30
	}
	if c.Pipeline.Events == 0 {
		c.Pipeline.Events = 100
	}
	if c.Stub.Port <= 0 {
		c.Stub.Port = 5590
	}
	if c.Stub.ReadTimeoutSec <= 0 {
		c.Stub.ReadTimeoutSec = 10
	}
	if c.Stub.WriteTimeoutSec <= 0 {
		c.Stub.WriteTimeoutSec = 10
	}
	if c.Stub.ShutdownSec <= 0 {
		c.Stub.ShutdownSec = 10
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	switch c.EDS.Scheme {
	case "http", "https":
	default:
		return fmt.Errorf("eds.scheme must be \"http\" or \"https\", got %q", c.EDS.Scheme)
	}
	if c.EDS.Port > 65535 {
		return fmt.Errorf("eds.port must be between 1 and 65535, got %d", c.EDS.Port)
	}
	if c.Pipeline.Events < 2 {
		return fmt.Errorf("pipeline.events must be at least 2, got %d", c.Pipeline.Events)
	}
	if c.Stub.Port > 65535 {
		return fmt.Errorf("stub.port must be between 1 and 65535, got %d", c.Stub.Port)
	}
	if c.Metrics.Port < 0 || c.Metrics.Port > 65535 {
		return fmt.Errorf("metrics.port must be between 0 and 65535, got %d", c.Metrics.Port)
	}
	return nil
}

// SDS converts the eds section into the client configuration.
func (c EDSConfig) SDS() sds.Config {
	return sds.Config{
		Scheme:      c.Scheme,
		Host:        c.Host,
		Port:        c.Port,
		TenantID:    c.TenantID,
		NamespaceID: c.NamespaceID,
		APIVersion:  c.APIVersion,
	}
}

// Timeout returns the per-request client timeout.
func (c EDSConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
