package config

import (
	"log"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Supported ledger store drivers.
const (
	StoreDriverMemory   = "memory"
	StoreDriverPostgres = "postgres"
	StoreDriverSQLite   = "sqlite"
)

// Config holds application configuration.
type Config struct {
	Port          string
	IsProduction  bool
	LogLevel      slog.Level
	StoreDriver   string
	DatabaseURL   string
	SQLitePath    string
	EnableDBCheck bool
	RunMigrations bool

	// Movement commit retries
	MovementMaxAttempts  int
	MovementRetryBackoff time.Duration

	// Background reconciliation; a zero interval disables it
	ReconcileInterval  time.Duration
	ReconcileBatchSize int

	CORSAllowedOrigins []string
	RateLimit          string // ulule formatted rate, e.g. "100-M"; empty disables

	ShutdownTimeout  time.Duration
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("PORT", "8080")
	v.SetDefault("IS_PRODUCTION", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORE_DRIVER", StoreDriverMemory)
	v.SetDefault("PGSQL_URL", "")
	v.SetDefault("SQLITE_PATH", "ledger.db")
	v.SetDefault("ENABLE_DB_CHECK", false)
	v.SetDefault("RUN_MIGRATIONS", true)
	v.SetDefault("MOVEMENT_MAX_ATTEMPTS", 5)
	v.SetDefault("MOVEMENT_RETRY_BACKOFF", "10ms")
	v.SetDefault("RECONCILE_INTERVAL", "15m")
	v.SetDefault("RECONCILE_BATCH_SIZE", 100)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "")
	v.SetDefault("RATE_LIMIT", "")
	v.SetDefault("SHUTDOWN_TIMEOUT", "15s")
	v.SetDefault("HTTP_READ_TIMEOUT", "10s")
	v.SetDefault("HTTP_WRITE_TIMEOUT", "30s")

	// Environment variables override the defaults above and anything loaded from .env.
	v.AutomaticEnv()

	cfg := &Config{}

	cfg.Port = v.GetString("PORT")
	if cfg.Port == "" {
		cfg.Port = "8080" // Default port
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}

	cfg.IsProduction = v.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = v.GetBool("ENABLE_DB_CHECK")
	cfg.RunMigrations = v.GetBool("RUN_MIGRATIONS")

	levelStr := v.GetString("LOG_LEVEL")
	if err := cfg.LogLevel.UnmarshalText([]byte(levelStr)); err != nil {
		cfg.LogLevel = slog.LevelInfo
		log.Printf("Warning: Invalid value for LOG_LEVEL ('%s'). Defaulting to info.\n", levelStr)
	}

	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(v.GetString("STORE_DRIVER")))
	switch cfg.StoreDriver {
	case StoreDriverMemory, StoreDriverPostgres, StoreDriverSQLite:
	default:
		log.Printf("Warning: Invalid value for STORE_DRIVER ('%s'). Defaulting to %s.\n", cfg.StoreDriver, StoreDriverMemory)
		cfg.StoreDriver = StoreDriverMemory
	}

	cfg.DatabaseURL = v.GetString("PGSQL_URL")
	if cfg.StoreDriver == StoreDriverPostgres && cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.SQLitePath = v.GetString("SQLITE_PATH")
	if cfg.StoreDriver == StoreDriverSQLite && cfg.SQLitePath == "" {
		cfg.SQLitePath = "ledger.db"
		log.Printf("Warning: SQLITE_PATH not set. Defaulting to %s.\n", cfg.SQLitePath)
	}

	cfg.MovementMaxAttempts = v.GetInt("MOVEMENT_MAX_ATTEMPTS")
	if cfg.MovementMaxAttempts < 1 {
		log.Printf("Warning: Invalid value for MOVEMENT_MAX_ATTEMPTS (%d). Defaulting to 5.\n", cfg.MovementMaxAttempts)
		cfg.MovementMaxAttempts = 5
	}

	cfg.MovementRetryBackoff = durationOrDefault(v, "MOVEMENT_RETRY_BACKOFF", 10*time.Millisecond)
	cfg.ReconcileInterval = durationOrDefault(v, "RECONCILE_INTERVAL", 15*time.Minute)

	cfg.ReconcileBatchSize = v.GetInt("RECONCILE_BATCH_SIZE")
	if cfg.ReconcileBatchSize < 1 {
		log.Printf("Warning: Invalid value for RECONCILE_BATCH_SIZE (%d). Defaulting to 100.\n", cfg.ReconcileBatchSize)
		cfg.ReconcileBatchSize = 100
	}

	cfg.CORSAllowedOrigins = splitList(v.GetString("CORS_ALLOWED_ORIGINS"))
	cfg.RateLimit = strings.TrimSpace(v.GetString("RATE_LIMIT"))

	cfg.ShutdownTimeout = durationOrDefault(v, "SHUTDOWN_TIMEOUT", 15*time.Second)
	cfg.HTTPReadTimeout = durationOrDefault(v, "HTTP_READ_TIMEOUT", 10*time.Second)
	cfg.HTTPWriteTimeout = durationOrDefault(v, "HTTP_WRITE_TIMEOUT", 30*time.Second)

	return cfg, nil
}

// durationOrDefault parses a Go duration string (e.g. "60m", "1h"), warning on bad input.
func durationOrDefault(v *viper.Viper, key string, fallback time.Duration) time.Duration {
	raw := v.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, fallback.String())
		return fallback
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
