package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
)

type Config struct {
	Host              string        `env:"HOST" envDefault:"0.0.0.0"`
	Port              string        `env:"PORT" envDefault:"8082"`
	RequestTimeout    time.Duration `env:"REQUEST_TIMEOUT" envDefault:"60s"`
	ImageFetchTimeout time.Duration `env:"IMAGE_FETCH_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// MaxImageBytes bounds the fetched payload; MaxImagePixels bounds the decoded buffer.
	MaxImageBytes  int64 `env:"MAX_IMAGE_BYTES" envDefault:"20971520"` // 20MB
	MaxImagePixels int64 `env:"MAX_IMAGE_PIXELS" envDefault:"50000000"`

	TempDir       string `env:"TEMP_DIR"`
	FilterMode    string `env:"FILTER_MODE" envDefault:"grayscale"`
	JPEGQuality   int    `env:"JPEG_QUALITY" envDefault:"90"`
	FilterWorkers int    `env:"FILTER_WORKERS" envDefault:"0"`

	AzureStorageAccount string `env:"AZURE_STORAGE_ACCOUNT"`
	AzureStorageKey     string `env:"AZURE_STORAGE_KEY"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// AzureEnabled reports whether blob-hosted images are fetched through the Azure SDK.
func (c *Config) AzureEnabled() bool {
	return c.AzureStorageAccount != "" && c.AzureStorageKey != ""
}

// LoadFromEnv reads an optional .env file, then the process environment.
func LoadFromEnv() (*Config, error) {
	// Missing .env is the normal case outside local development
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if strings.TrimSpace(cfg.TempDir) == "" {
		cfg.TempDir = os.TempDir()
	}
	absTemp, err := filepath.Abs(cfg.TempDir)
	if err != nil {
		return nil, fmt.Errorf("invalid TEMP_DIR %q: %w", cfg.TempDir, err)
	}
	cfg.TempDir = absTemp

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges that env tags cannot express.
func (c *Config) Validate() error {
	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.MaxImageBytes <= 0 {
		return fmt.Errorf("MAX_IMAGE_BYTES must be > 0 (got %d)", c.MaxImageBytes)
	}
	if c.MaxImagePixels <= 0 {
		return fmt.Errorf("MAX_IMAGE_PIXELS must be > 0 (got %d)", c.MaxImagePixels)
	}
	if c.RequestTimeout <= 0 || c.ImageFetchTimeout <= 0 || c.ShutdownTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0 (got request=%s, fetch=%s, shutdown=%s)",
			c.RequestTimeout, c.ImageFetchTimeout, c.ShutdownTimeout)
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("JPEG_QUALITY must be between 1 and 100 (got %d)", c.JPEGQuality)
	}
	if c.FilterWorkers < 0 {
		return fmt.Errorf("FILTER_WORKERS must be >= 0 (got %d)", c.FilterWorkers)
	}
	if (c.AzureStorageAccount == "") != (c.AzureStorageKey == "") {
		return fmt.Errorf("AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY must be set together")
	}
	return nil
}
