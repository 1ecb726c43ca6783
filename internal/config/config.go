// Package config reads the service configuration from environment
// variables.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config carries everything the daemon needs to wire its collaborators.
type Config struct {
	AppEnv string
	Port   string

	OllamaURL    string
	OllamaModel  string
	OSSEndpoint  string
	OSSKeyID     string
	OSSKeySecret string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	MaxRequestBytes  int64
}

// Load reads the configuration, applying defaults where a variable is
// unset. Analysis and storage backends are optional: when their settings
// are absent the matching edits fail at request time, not at startup.
func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		Port:             getEnv("PORT", "8080"),
		OllamaURL:        getEnv("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel:      getEnv("OLLAMA_MODEL", "llava"),
		OSSEndpoint:      os.Getenv("OSS_ENDPOINT"),
		OSSKeyID:         os.Getenv("OSS_ACCESS_KEY_ID"),
		OSSKeySecret:     os.Getenv("OSS_ACCESS_KEY_SECRET"),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 30)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 60)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		MaxRequestBytes:  int64(getEnvInt("MAX_REQUEST_BYTES", 32<<20)),
	}
	return cfg, nil
}

// HasOSS reports whether object storage credentials are configured.
func (c *Config) HasOSS() bool {
	return c.OSSEndpoint != "" && c.OSSKeyID != "" && c.OSSKeySecret != ""
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
