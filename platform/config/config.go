// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// ParserConfig provides settings for the AI note parser.
type ParserConfig interface {
	GetGeminiAPIKey() string
	GetGeminiModel() string
	IsParserEnabled() bool
}

// GateRulesConfig provides the location of the stage gate rules file.
type GateRulesConfig interface {
	GetGateRulesPath() string
}

// WorkerConfig provides settings for the ingestion worker process.
type WorkerConfig interface {
	GetWorkerPollInterval() time.Duration
	GetWorkerReclaimInterval() time.Duration
	GetWorkerReclaimAfter() time.Duration
	GetJobCleanupInterval() time.Duration
	GetCompletedJobRetention() time.Duration
	GetFailedJobRetention() time.Duration
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                   string
	HTTPAddr              string
	DatabaseURL           string
	CORSAllowAll          bool
	CORSOrigins           []string
	CORSAllowCreds        bool
	GeminiAPIKey          string
	GeminiModel           string
	GateRulesPath         string
	WorkerPollInterval    time.Duration
	WorkerReclaimInterval time.Duration
	WorkerReclaimAfter    time.Duration
	JobCleanupInterval    time.Duration
	CompletedJobRetention time.Duration
	FailedJobRetention    time.Duration
}

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// ParserConfig implementation
func (c *Config) GetGeminiAPIKey() string { return c.GeminiAPIKey }
func (c *Config) GetGeminiModel() string  { return c.GeminiModel }
func (c *Config) IsParserEnabled() bool   { return c.GeminiAPIKey != "" }

// GateRulesConfig implementation
func (c *Config) GetGateRulesPath() string { return c.GateRulesPath }

// WorkerConfig implementation
func (c *Config) GetWorkerPollInterval() time.Duration    { return c.WorkerPollInterval }
func (c *Config) GetWorkerReclaimInterval() time.Duration { return c.WorkerReclaimInterval }
func (c *Config) GetWorkerReclaimAfter() time.Duration    { return c.WorkerReclaimAfter }
func (c *Config) GetJobCleanupInterval() time.Duration    { return c.JobCleanupInterval }
func (c *Config) GetCompletedJobRetention() time.Duration { return c.CompletedJobRetention }
func (c *Config) GetFailedJobRetention() time.Duration    { return c.FailedJobRetention }

// Load reads configuration from environment variables, with .env support for
// local development.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                   getEnv("APP_ENV", "development"),
		HTTPAddr:              getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		CORSAllowAll:          corsAllowAll,
		CORSOrigins:           corsOrigins,
		CORSAllowCreds:        strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		GeminiAPIKey:          getEnv("GEMINI_API_KEY", ""),
		GeminiModel:           getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		GateRulesPath:         getEnv("GATE_RULES_PATH", "rules.yml"),
		WorkerPollInterval:    mustDuration(getEnv("WORKER_POLL_INTERVAL", "10s")),
		WorkerReclaimInterval: mustDuration(getEnv("WORKER_RECLAIM_INTERVAL", "1m")),
		WorkerReclaimAfter:    mustDuration(getEnv("WORKER_RECLAIM_AFTER", "15m")),
		JobCleanupInterval:    mustDuration(getEnv("JOB_CLEANUP_INTERVAL", "1h")),
		CompletedJobRetention: mustDuration(getEnv("JOB_COMPLETED_RETENTION", "336h")),
		FailedJobRetention:    mustDuration(getEnv("JOB_FAILED_RETENTION", "720h")),
	}

	return cfg, nil
}

// =============================================================================
// Helpers
// =============================================================================

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func splitCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

// mustDuration parses a duration, resolving invalid or non-positive values to
// zero so consumers can substitute their own defaults.
func mustDuration(raw string) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0
	}
	return d
}
