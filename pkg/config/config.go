package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	AppEnv    string `yaml:"app_env"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	APIBaseURL  string        `yaml:"api_url"`
	HTTPTimeout time.Duration `yaml:"http_timeout"`

	StoreDriver string `yaml:"store_driver"`
	StorePath   string `yaml:"store_path"`

	// MetricsAddr is empty unless long-running commands should expose /metrics.
	MetricsAddr string `yaml:"metrics_addr"`
}

func Default() Config {
	return Config{
		AppEnv:      "dev",
		LogLevel:    "warn",
		LogFormat:   "text",
		APIBaseURL:  "http://localhost:8080/api",
		HTTPTimeout: 30 * time.Second,
		StoreDriver: "file",
		StorePath:   defaultStorePath(),
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// QUICKCART_CONFIG (if any), then environment variables.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("QUICKCART_CONFIG"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}

	cfg.AppEnv = getEnv("APP_ENV", cfg.AppEnv)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)
	cfg.APIBaseURL = getEnv("QUICKCART_API_URL", cfg.APIBaseURL)
	cfg.HTTPTimeout = getEnvDuration("QUICKCART_HTTP_TIMEOUT", cfg.HTTPTimeout)
	cfg.StoreDriver = getEnv("QUICKCART_STORE_DRIVER", cfg.StoreDriver)
	cfg.StorePath = getEnv("QUICKCART_STORE_PATH", cfg.StorePath)
	cfg.MetricsAddr = getEnv("QUICKCART_METRICS_ADDR", cfg.MetricsAddr)

	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func defaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "quickcart", "state.yaml")
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)

	if v == "" {
		return def
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}

	return n
}

// getEnvDuration accepts Go durations ("15s") or a bare number of seconds.
func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n := getEnvInt(key, -1); n >= 0 {
		return time.Duration(n) * time.Second
	}
	return def
}
