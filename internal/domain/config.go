package domain

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the server configuration.
// It is loaded from an optional YAML file and then overlaid with the
// environment.
type Config struct {
	Transport   TransportConfig   `yaml:"transport"`
	OpenProject OpenProjectConfig `yaml:"openproject"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// TransportConfig defines transport settings.
type TransportConfig struct {
	Type string     `yaml:"type"` // "stdio" or "http"
	HTTP HTTPConfig `yaml:"http,omitempty"`
}

// HTTPConfig defines HTTP transport settings.
type HTTPConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns host:port.
func (h HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

// OpenProjectConfig holds the connection settings for the remote service.
// BaseURL and APIKey may be empty at load time; the connector reports
// their absence on first use.
type OpenProjectConfig struct {
	BaseURL                 string        `yaml:"base_url"`
	APIKey                  string        `yaml:"api_key"`
	AuthType                string        `yaml:"auth_type"` // "token" or "basic"
	Proxy                   string        `yaml:"proxy,omitempty"`
	Timeout                 time.Duration `yaml:"timeout,omitempty"`
	RateLimit               float64       `yaml:"rate_limit,omitempty"`
	RateBurst               int           `yaml:"rate_burst,omitempty"`
	TestConnectionOnStartup bool          `yaml:"test_connection_on_startup"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "text"
}

// Defaults applied before the file and the environment.
const (
	DefaultHTTPHost  = "0.0.0.0"
	DefaultHTTPPort  = 8008
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 10.0
	DefaultRateBurst = 5
)

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() *Config {
	return &Config{
		Transport: TransportConfig{
			Type: "http",
			HTTP: HTTPConfig{Host: DefaultHTTPHost, Port: DefaultHTTPPort},
		},
		OpenProject: OpenProjectConfig{
			AuthType:  "token",
			Timeout:   DefaultTimeout,
			RateLimit: DefaultRateLimit,
			RateBurst: DefaultRateBurst,
		},
		Logging: LoggingConfig{Level: "info", Format: "json"},
	}
}

// LoadConfig reads the YAML file at path (skipped when path is empty),
// applies the environment and validates the result.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("configuration file not found: %s", path)
			}
			return nil, fmt.Errorf("failed to read configuration file: %w", err)
		}

		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("invalid YAML syntax in configuration file: %w", err)
		}
	}

	if err := config.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// LoadDotEnv loads KEY=VALUE pairs from files into the process environment
// without overriding variables that are already set. Missing files are
// ignored.
func LoadDotEnv(files ...string) error {
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", file, err)
		}
	}
	return nil
}

// ApplyEnv overlays environment variables onto the configuration.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	var errs []string

	if v, ok := lookup("OPENPROJECT_URL"); ok {
		c.OpenProject.BaseURL = v
	}
	if v, ok := lookup("OPENPROJECT_API_KEY"); ok {
		c.OpenProject.APIKey = v
	}
	if v, ok := lookup("OPENPROJECT_AUTH_TYPE"); ok && v != "" {
		c.OpenProject.AuthType = v
	}
	if v, ok := lookup("OPENPROJECT_PROXY"); ok {
		c.OpenProject.Proxy = v
	}
	if v, ok := lookup("TEST_CONNECTION_ON_STARTUP"); ok {
		c.OpenProject.TestConnectionOnStartup = strings.EqualFold(v, "true")
	}
	if v, ok := lookup("USE_HTTP_TRANSPORT"); ok {
		if strings.EqualFold(v, "true") {
			c.Transport.Type = "http"
		} else {
			c.Transport.Type = "stdio"
		}
	}
	if v, ok := lookup("HTTP_HOST"); ok && v != "" {
		c.Transport.HTTP.Host = v
	}
	if v, ok := lookup("HTTP_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("HTTP_PORT must be an integer, got %q", v))
		} else {
			c.Transport.HTTP.Port = port
		}
	}
	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		c.Logging.Level = strings.ToLower(v)
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid environment: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Validate checks the configuration for correctness.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errors []string

	if err := c.validateTransport(); err != nil {
		errors = append(errors, err.Error())
	}

	if err := c.OpenProject.Validate(); err != nil {
		errors = append(errors, err.Error())
	}

	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s'", c.Logging.Level))
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

// validateTransport validates the transport configuration.
func (c *Config) validateTransport() error {
	var errors []string

	if c.Transport.Type == "" {
		errors = append(errors, "transport type is required")
	} else if c.Transport.Type != "stdio" && c.Transport.Type != "http" {
		errors = append(errors, fmt.Sprintf("invalid transport type '%s': must be 'stdio' or 'http'", c.Transport.Type))
	}

	if c.Transport.Type == "http" {
		if c.Transport.HTTP.Host == "" {
			errors = append(errors, "HTTP host is required when transport type is 'http'")
		}
		if c.Transport.HTTP.Port <= 0 || c.Transport.HTTP.Port > 65535 {
			errors = append(errors, fmt.Sprintf("invalid HTTP port %d: must be between 1 and 65535", c.Transport.HTTP.Port))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, "; "))
	}

	return nil
}

// Validate checks the fields that are present. Absent URL or key are not
// errors here.
func (oc *OpenProjectConfig) Validate() error {
	var errors []string

	if oc.BaseURL != "" {
		parsedURL, err := url.Parse(oc.BaseURL)
		if err != nil {
			errors = append(errors, fmt.Sprintf("OpenProject base_url is invalid: %v", err))
		} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			errors = append(errors, "OpenProject base_url must use http or https scheme")
		} else if parsedURL.Host == "" {
			errors = append(errors, "OpenProject base_url must include a host")
		}
	}

	if oc.AuthType != "" && oc.AuthType != "token" && oc.AuthType != "basic" {
		errors = append(errors, fmt.Sprintf("OpenProject auth type '%s' is invalid: must be 'basic' or 'token'", oc.AuthType))
	}

	if oc.Proxy != "" {
		proxyURL, err := url.Parse(oc.Proxy)
		if err != nil {
			errors = append(errors, fmt.Sprintf("OpenProject proxy is invalid: %v", err))
		} else {
			switch proxyURL.Scheme {
			case "http", "https", "socks5", "socks5h":
			default:
				errors = append(errors, fmt.Sprintf("OpenProject proxy scheme '%s' is not supported", proxyURL.Scheme))
			}
		}
	}

	if oc.Timeout < 0 {
		errors = append(errors, "OpenProject timeout cannot be negative")
	}
	if oc.RateLimit < 0 || oc.RateBurst < 0 {
		errors = append(errors, "OpenProject rate limit and burst cannot be negative")
	}

	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, "; "))
	}

	return nil
}

// RequireConnection returns a ConfigurationError when the URL or the API
// key is missing.
func (oc *OpenProjectConfig) RequireConnection() error {
	var missing []string
	if oc.BaseURL == "" {
		missing = append(missing, "OPENPROJECT_URL")
	}
	if oc.APIKey == "" {
		missing = append(missing, "OPENPROJECT_API_KEY")
	}
	if len(missing) > 0 {
		return &ConfigurationError{Missing: missing}
	}
	return nil
}
