package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Blob store
	BlobDBPath string

	// Auth backend selection
	AuthBackend string

	// Local auth backend
	LocalAuthDBPath string
	JWTSecret       string

	// Remote auth backend
	RestBaseURL string
	RestAPIKey  string

	// AMQP (empty URL disables the report sync pipeline)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Worker
	SyncInterval time.Duration

	// Report writer selection
	ReportWriter string
}

func Load() *Config {
	cfg := &Config{
		Port:       getEnv("PORT", "8081"),
		BlobDBPath: getEnv("BLOB_DB_PATH", "./data/fintrack.db"),

		AuthBackend: getEnv("AUTH_BACKEND", "local"),

		LocalAuthDBPath: getEnv("AUTH_DB_PATH", "./data/auth.db"),
		JWTSecret:       getEnv("JWT_SECRET", ""),

		RestBaseURL: getEnv("REST_BASE_URL", ""),
		RestAPIKey:  getEnv("REST_API_KEY", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "fintrack"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "sync_reports"),

		SyncInterval: getEnvDuration("SYNC_INTERVAL", 30*time.Second),

		ReportWriter: getEnv("REPORT_WRITER", "memory"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.BlobDBPath == "" {
		errors = append(errors, "blob database path cannot be empty")
	} else if err := ensureDir(c.BlobDBPath); err != nil {
		errors = append(errors, err.Error())
	}

	switch c.AuthBackend {
	case "local":
		if c.LocalAuthDBPath == "" {
			errors = append(errors, "auth database path cannot be empty when using local backend")
		} else if err := ensureDir(c.LocalAuthDBPath); err != nil {
			errors = append(errors, err.Error())
		}
	case "rest":
		if c.RestBaseURL == "" {
			errors = append(errors, "REST_BASE_URL is required when using rest backend")
		} else if parsedURL, err := url.Parse(c.RestBaseURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid REST_BASE_URL '%s': %v", c.RestBaseURL, err))
		} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			errors = append(errors, fmt.Sprintf("invalid REST_BASE_URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
		}
		if c.RestAPIKey == "" {
			errors = append(errors, "REST_API_KEY is required when using rest backend")
		}
	case "memory":
		// No additional configuration.
	default:
		errors = append(errors, fmt.Sprintf("invalid auth backend '%s': must be one of [local rest memory]", c.AuthBackend))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.ReportWriter != "google" && c.ReportWriter != "memory" {
		errors = append(errors, fmt.Sprintf("invalid report writer '%s': must be one of [google memory]", c.ReportWriter))
	}

	if c.SyncInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at least 1 second", c.SyncInterval))
	} else if c.SyncInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at most 24 hours", c.SyncInterval))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("cannot create database directory '%s': %v", dir, err)
		}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
