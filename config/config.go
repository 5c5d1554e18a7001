// Package config loads runtime settings from the environment and holds
// the planning constants shared across workers.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Settings holds all runtime configuration. Values come from the
// environment, optionally seeded from a .env file.
type Settings struct {
	// Oracle provider: "openai", "anthropic", "google", or "mock".
	OracleProvider string

	OpenAIAPIKey    string
	AnthropicAPIKey string
	GoogleAPIKey    string

	// PrimaryModel handles complex reasoning (planner, research, critic).
	// FastModel handles the lighter workers.
	PrimaryModel string
	FastModel    string

	// Checkpoint store: "memory", "sqlite", or "mysql".
	StoreBackend string
	SQLitePath   string
	MySQLDSN     string

	// Cache backend: "memory" or "redis".
	CacheBackend string
	RedisAddr    string
	RedisDB      int

	// HTTP server bind address.
	HTTPAddr string

	// Execution limits.
	MaxReplanIterations int
	MaxGraphSteps       int
	FanoutLimit         int
	OracleTimeout       time.Duration
	ScrapeTimeout       time.Duration
	CacheTTLDefault     time.Duration

	// Per-worker sampling temperature overrides, keyed by node ID.
	// Workers missing from the map use the built-in defaults.
	Temperatures map[string]float64

	// Emit JSONL events instead of text.
	LogJSON bool
}

// Load reads settings from the environment. If envFile is non-empty and
// exists it is loaded first (existing environment wins, matching
// godotenv semantics).
func Load(envFile string) (*Settings, error) {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return nil, fmt.Errorf("load %s: %w", envFile, err)
			}
		}
	}

	s := &Settings{
		OracleProvider:      getEnv("TRIPFLOW_ORACLE_PROVIDER", "openai"),
		OpenAIAPIKey:        os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey:     os.Getenv("ANTHROPIC_API_KEY"),
		GoogleAPIKey:        os.Getenv("GOOGLE_API_KEY"),
		PrimaryModel:        getEnv("TRIPFLOW_PRIMARY_MODEL", "gpt-4o"),
		FastModel:           getEnv("TRIPFLOW_FAST_MODEL", "gpt-4o-mini"),
		StoreBackend:        getEnv("TRIPFLOW_STORE", "memory"),
		SQLitePath:          getEnv("TRIPFLOW_SQLITE_PATH", "./tripflow.db"),
		MySQLDSN:            os.Getenv("TRIPFLOW_MYSQL_DSN"),
		CacheBackend:        getEnv("TRIPFLOW_CACHE", "memory"),
		RedisAddr:           getEnv("TRIPFLOW_REDIS_ADDR", "localhost:6379"),
		RedisDB:             getEnvInt("TRIPFLOW_REDIS_DB", 0),
		HTTPAddr:            getEnv("TRIPFLOW_HTTP_ADDR", ":8080"),
		MaxReplanIterations: getEnvInt("MAX_REPLAN_ITERATIONS", 3),
		MaxGraphSteps:       getEnvInt("MAX_GRAPH_STEPS", 40),
		FanoutLimit:         getEnvInt("TRIPFLOW_FANOUT_LIMIT", 8),
		OracleTimeout:       getEnvDuration("TRIPFLOW_ORACLE_TIMEOUT", 30*time.Second),
		ScrapeTimeout:       getEnvDuration("TRIPFLOW_SCRAPE_TIMEOUT", 45*time.Second),
		CacheTTLDefault:     getEnvDuration("CACHE_TTL_DEFAULT", 24*time.Hour),
		Temperatures:        loadTemperatures(),
		LogJSON:             getEnvBool("TRIPFLOW_LOG_JSON", false),
	}

	if s.MaxReplanIterations < 0 {
		return nil, fmt.Errorf("MAX_REPLAN_ITERATIONS must be >= 0, got %d", s.MaxReplanIterations)
	}
	if s.MaxGraphSteps <= 0 {
		return nil, fmt.Errorf("MAX_GRAPH_STEPS must be > 0, got %d", s.MaxGraphSteps)
	}
	if s.FanoutLimit <= 0 {
		return nil, fmt.Errorf("TRIPFLOW_FANOUT_LIMIT must be > 0, got %d", s.FanoutLimit)
	}
	return s, nil
}

// loadTemperatures reads TEMPERATURE_<WORKER> overrides for every
// known worker, e.g. TEMPERATURE_PLANNER=0.9.
func loadTemperatures() map[string]float64 {
	temps := make(map[string]float64, len(defaultTemperatures))
	for worker := range defaultTemperatures {
		key := "TEMPERATURE_" + strings.ToUpper(worker)
		if v := os.Getenv(key); v != "" {
			if t, err := strconv.ParseFloat(v, 64); err == nil {
				temps[worker] = t
			}
		}
	}
	return temps
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// getEnvDuration accepts either a Go duration string ("30s") or a plain
// number of seconds ("86400").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}
