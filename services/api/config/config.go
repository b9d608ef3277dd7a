package config

import (
	"errors"
	"fmt"
	"github.com/joho/godotenv"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds environment-driven settings for the REST API.
type Config struct {
	DatabaseURL string
	DBDriver    string
	Port        int
	BearerToken string
	LogLevel    string
	LogFormat   string

	// Default filter window for the dashboard's initial state.
	DefaultWindowDays int

	SyntheticIDOffset    int
	SurfaceWaterPatterns []string

	// Measurement web service; the secondary catalog is enabled iff WQBaseURL is set.
	WQBaseURL          string
	WQDatasetFile      string
	WQProvider         string
	WQRecordType       string
	WQRequestTimeout   time.Duration
	WQFetchConcurrency int
}

// SecondaryEnabled reports whether the water-quality catalog is configured.
func (c Config) SecondaryEnabled() bool {
	return c.WQBaseURL != ""
}

// Load reads configuration from environment variables (optionally .env).
func Load() (Config, error) {
	_ = godotenv.Load() // ignore missing file

	cfg := Config{
		DBDriver:             "postgres",
		Port:                 8080,
		LogLevel:             "info",
		LogFormat:            "json",
		DefaultWindowDays:    365,
		SyntheticIDOffset:    10000,
		SurfaceWaterPatterns: []string{"SQ"},
		WQDatasetFile:        "WQAll.hts",
		WQProvider:           "ECan",
		WQRecordType:         "WQ Sample",
		WQRequestTimeout:     30 * time.Second,
		WQFetchConcurrency:   4,
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return cfg, errors.New("DATABASE_URL is required")
	}

	if driver := os.Getenv("DB_DRIVER"); driver != "" {
		switch driver = strings.ToLower(driver); driver {
		case "postgres", "sqlserver":
			cfg.DBDriver = driver
		default:
			return cfg, fmt.Errorf("invalid DB_DRIVER: %s", driver)
		}
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil && port > 0 {
			cfg.Port = port
		} else {
			return cfg, fmt.Errorf("invalid PORT: %s", portStr)
		}
	} else if portStr := os.Getenv("API_PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil && port > 0 {
			cfg.Port = port
		} else {
			return cfg, fmt.Errorf("invalid API_PORT: %s", portStr)
		}
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		switch level = strings.ToLower(level); level {
		case "debug", "info", "warn", "error":
			cfg.LogLevel = level
		default:
			return cfg, fmt.Errorf("invalid LOG_LEVEL: %s", level)
		}
	}

	if format := os.Getenv("LOG_FORMAT"); format != "" {
		switch format = strings.ToLower(format); format {
		case "json", "console":
			cfg.LogFormat = format
		default:
			return cfg, fmt.Errorf("invalid LOG_FORMAT: %s", format)
		}
	}

	if daysStr := os.Getenv("API_DEFAULT_WINDOW_DAYS"); daysStr != "" {
		if days, err := strconv.Atoi(daysStr); err == nil && days > 0 {
			cfg.DefaultWindowDays = days
		} else {
			return cfg, fmt.Errorf("invalid API_DEFAULT_WINDOW_DAYS: %s", daysStr)
		}
	}

	if offsetStr := os.Getenv("SYNTHETIC_ID_OFFSET"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset > 0 {
			cfg.SyntheticIDOffset = offset
		} else {
			return cfg, fmt.Errorf("invalid SYNTHETIC_ID_OFFSET: %s", offsetStr)
		}
	}

	if patterns := os.Getenv("SURFACE_WATER_PATTERNS"); patterns != "" {
		cfg.SurfaceWaterPatterns = splitList(patterns)
	}

	cfg.WQBaseURL = strings.TrimSpace(os.Getenv("WQ_BASE_URL"))

	if file := os.Getenv("WQ_DATASET_FILE"); file != "" {
		cfg.WQDatasetFile = file
	}
	if provider := os.Getenv("WQ_PROVIDER"); provider != "" {
		cfg.WQProvider = provider
	}
	if recordType := os.Getenv("WQ_RECORD_TYPE"); recordType != "" {
		cfg.WQRecordType = recordType
	}

	if timeoutStr := os.Getenv("WQ_REQUEST_TIMEOUT"); timeoutStr != "" {
		if timeout, err := time.ParseDuration(timeoutStr); err == nil && timeout > 0 {
			cfg.WQRequestTimeout = timeout
		} else {
			return cfg, fmt.Errorf("invalid WQ_REQUEST_TIMEOUT: %s", timeoutStr)
		}
	}

	if concStr := os.Getenv("WQ_FETCH_CONCURRENCY"); concStr != "" {
		if conc, err := strconv.Atoi(concStr); err == nil && conc > 0 {
			cfg.WQFetchConcurrency = conc
		} else {
			return cfg, fmt.Errorf("invalid WQ_FETCH_CONCURRENCY: %s", concStr)
		}
	}

	cfg.BearerToken = os.Getenv("API_BEARER_TOKEN")

	return cfg, nil
}

// ListenAddr returns the host:port string for the HTTP server.
func (c Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func splitList(s string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
