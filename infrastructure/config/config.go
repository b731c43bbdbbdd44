// Package config loads the run configuration from an optional .env file and
// SITE_* environment variables. Command-line flags are applied on top by the
// terminal layer before Validate is called.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds everything a run needs
type Config struct {
	// Target site
	BaseURL string

	// Browser
	Driver      string        // playwright, rod or snapshot
	Engine      string        // chromium, firefox or webkit (playwright only)
	Headless    bool
	NavTimeout  time.Duration // per navigation
	SnapshotDir string        // HTML captures for the snapshot driver

	// Runner
	Parallel        int
	ScenarioTimeout time.Duration
	ScreenshotDir   string // empty disables screenshots of failed scenarios

	// Files
	CatalogPath string // optional selector catalog override
	ReportDir   string

	// Logging
	LogLevel  string
	LogFormat string // text or json

	// parse problems found while reading the environment, reported by Validate
	parseErrs []string
}

// ValidationError represents a configuration validation error with multiple issues.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("configuration validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// Load reads envFile (ignored when it does not exist; "" means ".env") and
// the environment. Variables already set in the environment win over the file.
// The result is not validated.
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}
	return FromEnv(), nil
}

// FromEnv builds a Config from the SITE_* environment variables and defaults
func FromEnv() *Config {
	cfg := &Config{}

	cfg.BaseURL = strings.TrimSpace(os.Getenv("SITE_BASE_URL"))

	cfg.Driver = getEnvOrDefault("SITE_BROWSER", "playwright")
	cfg.Engine = getEnvOrDefault("SITE_BROWSER_ENGINE", "chromium")
	cfg.Headless = cfg.parseBool("SITE_HEADLESS", true)
	cfg.NavTimeout = cfg.parseDuration("SITE_NAV_TIMEOUT", 30*time.Second)
	cfg.SnapshotDir = os.Getenv("SITE_SNAPSHOT_DIR")

	cfg.Parallel = cfg.parseInt("SITE_PARALLEL", 4)
	cfg.ScenarioTimeout = cfg.parseDuration("SITE_SCENARIO_TIMEOUT", 60*time.Second)
	cfg.ScreenshotDir = os.Getenv("SITE_SCREENSHOT_DIR")

	cfg.CatalogPath = os.Getenv("SITE_CATALOG")
	cfg.ReportDir = os.Getenv("SITE_REPORT_DIR")

	cfg.LogLevel = getEnvOrDefault("SITE_LOG_LEVEL", "info")
	cfg.LogFormat = getEnvOrDefault("SITE_LOG_FORMAT", "text")

	return cfg
}

// Validate checks that the configuration can drive a run.
// Every problem is reported at once.
func (c *Config) Validate() error {
	errs := append([]string(nil), c.parseErrs...)

	if c.BaseURL == "" {
		errs = append(errs, "SITE_BASE_URL is required (or pass --base-url)")
	} else if u, err := url.Parse(c.BaseURL); err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		errs = append(errs, fmt.Sprintf("SITE_BASE_URL %q must be an absolute http(s) URL", c.BaseURL))
	}

	switch c.Driver {
	case "playwright":
		switch c.Engine {
		case "chromium", "firefox", "webkit":
		default:
			errs = append(errs, fmt.Sprintf("SITE_BROWSER_ENGINE %q must be chromium, firefox or webkit", c.Engine))
		}
	case "rod":
		if c.Engine != "" && c.Engine != "chromium" {
			errs = append(errs, "the rod driver only supports chromium")
		}
	case "snapshot":
		if c.SnapshotDir == "" {
			errs = append(errs, "SITE_SNAPSHOT_DIR is required for the snapshot driver")
		}
	default:
		errs = append(errs, fmt.Sprintf("SITE_BROWSER %q must be playwright, rod or snapshot", c.Driver))
	}

	if c.Parallel < 1 {
		errs = append(errs, "SITE_PARALLEL must be at least 1")
	}
	if c.ScenarioTimeout <= 0 {
		errs = append(errs, "SITE_SCENARIO_TIMEOUT must be positive")
	}
	if c.NavTimeout <= 0 {
		errs = append(errs, "SITE_NAV_TIMEOUT must be positive")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Sprintf("SITE_LOG_LEVEL %q is not a log level", c.LogLevel))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Sprintf("SITE_LOG_FORMAT %q must be text or json", c.LogFormat))
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// NewLogger creates the logger described by LogLevel and LogFormat
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	if c.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}
	return logger
}

// Helper functions for parsing environment variables

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func (c *Config) parseInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		c.parseErrs = append(c.parseErrs, fmt.Sprintf("%s %q is not an integer", key, value))
		return defaultValue
	}
	return parsed
}

func (c *Config) parseBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		c.parseErrs = append(c.parseErrs, fmt.Sprintf("%s %q is not a boolean", key, value))
		return defaultValue
	}
	return parsed
}

func (c *Config) parseDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		c.parseErrs = append(c.parseErrs, fmt.Sprintf("%s %q is not a duration", key, value))
		return defaultValue
	}
	return parsed
}
