package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIBaseURL     string
	WSBaseURL      string
	TokenFile      string
	ListenAddr     string
	RequestTimeout time.Duration
	EnableMetrics  bool
	Environment    string
	LogLevel       string
	ImportMapping  string // YAML column mapping for spreadsheet imports; empty uses the built-in one
}

// Load reads environment variables, optionally seeded from envFile (or a
// .env in the working directory when envFile is empty).
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
		}
	} else {
		// A missing .env is fine when everything comes from the environment.
		_ = godotenv.Load()
	}

	config := &Config{
		APIBaseURL:     getEnv("API_BASE_URL", "http://localhost:8000"),
		WSBaseURL:      os.Getenv("WS_BASE_URL"),
		TokenFile:      getEnv("TOKEN_FILE", defaultTokenFile()),
		ListenAddr:     getEnv("LISTEN_ADDR", "127.0.0.1:8090"),
		RequestTimeout: 15 * time.Second,
		EnableMetrics:  os.Getenv("ENABLE_METRICS") == "true",
		Environment:    getEnv("ENVIRONMENT", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		ImportMapping:  os.Getenv("IMPORT_MAPPING"),
	}

	if timeoutStr := os.Getenv("REQUEST_TIMEOUT"); timeoutStr != "" {
		timeout, err := time.ParseDuration(timeoutStr)
		if err != nil {
			return nil, fmt.Errorf("invalid REQUEST_TIMEOUT %q: %w", timeoutStr, err)
		}
		config.RequestTimeout = timeout
	}

	if config.WSBaseURL == "" {
		config.WSBaseURL = deriveWSBase(config.APIBaseURL)
	}

	return config, nil
}

// LoadAndValidate loads the configuration and validates it.
func LoadAndValidate(envFile string) (*Config, error) {
	cfg, err := Load(envFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate ensures that required configuration fields are usable.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if err := checkURL("API_BASE_URL", c.APIBaseURL, "http", "https"); err != nil {
		return err
	}
	if err := checkURL("WS_BASE_URL", c.WSBaseURL, "ws", "wss"); err != nil {
		return err
	}
	if c.Environment == "production" {
		if u, _ := url.Parse(c.APIBaseURL); u != nil && u.Scheme != "https" {
			return errors.New("API_BASE_URL must use https in production")
		}
	}
	if c.TokenFile == "" {
		return errors.New("TOKEN_FILE must not be empty")
	}
	if c.ListenAddr == "" {
		return errors.New("LISTEN_ADDR must not be empty")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("REQUEST_TIMEOUT must be positive")
	}
	if c.RequestTimeout > 5*time.Minute {
		return errors.New("REQUEST_TIMEOUT must not exceed 5m")
	}
	if c.ImportMapping != "" {
		if _, err := os.Stat(c.ImportMapping); err != nil {
			return fmt.Errorf("IMPORT_MAPPING is not readable: %w", err)
		}
	}
	return nil
}

func checkURL(key, raw string, schemes ...string) error {
	if raw == "" {
		return fmt.Errorf("%s must be provided", key)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", key, err)
	}
	for _, s := range schemes {
		if u.Scheme == s && u.Host != "" {
			return nil
		}
	}
	return fmt.Errorf("%s must be an absolute %s URL", key, strings.Join(schemes, "/"))
}

// deriveWSBase maps http(s)://host to ws(s)://host.
func deriveWSBase(apiBase string) string {
	u, err := url.Parse(apiBase)
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	return u.String()
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".era-console-token.yaml"
	}
	return filepath.Join(dir, "era-console", "token.yaml")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
