package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Pterodactyl PterodactylConfig
	Renewal     RenewalConfig
	Webhook     WebhookConfig
	Auth        AuthConfig
	LogLevel    string
}

type ServerConfig struct {
	Port            string
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	URL           string
	RunMigrations bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// Requests per minute allowed for each authenticated user.
	RequestsPerMinute int
}

type PterodactylConfig struct {
	Domain            string
	APIKey            string
	MaxRetries        int
	RetryDelay        time.Duration
	CacheTTL          time.Duration
	CacheBackend      string
	RequestsPerSecond float64
	HTTPTimeout       time.Duration
}

type RenewalConfig struct {
	Enabled         bool
	Cost            int64
	Period          time.Duration
	GracePeriod     time.Duration
	DeletionPeriod  time.Duration
	AutoSuspend     bool
	AutoDelete      bool
	SweepSchedule   string
	ResourceTimeout time.Duration
}

type WebhookConfig struct {
	Username    string
	MaxAttempts int
	RetryDelay  time.Duration
	Timeout     time.Duration
	Concurrency int
}

type AuthConfig struct {
	SessionSecret string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	var parseErrs []string
	intVal := func(key string, def int) int {
		v, err := getEnvInt(key, def)
		if err != nil {
			parseErrs = append(parseErrs, err.Error())
		}
		return v
	}
	boolVal := func(key string, def bool) bool {
		v, err := getEnvBool(key, def)
		if err != nil {
			parseErrs = append(parseErrs, err.Error())
		}
		return v
	}
	durVal := func(key string, def time.Duration) time.Duration {
		v, err := getEnvDuration(key, def)
		if err != nil {
			parseErrs = append(parseErrs, err.Error())
		}
		return v
	}
	floatVal := func(key string, def float64) float64 {
		raw := os.Getenv(key)
		if raw == "" {
			return def
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			parseErrs = append(parseErrs, fmt.Sprintf("%s: invalid number %q", key, raw))
			return def
		}
		return v
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			ShutdownTimeout: durVal("SHUTDOWN_TIMEOUT", 15*time.Second),
		},
		Database: DatabaseConfig{
			URL:           os.Getenv("DATABASE_URL"),
			RunMigrations: boolVal("DATABASE_MIGRATE", true),
		},
		Redis: RedisConfig{
			Addr:              getEnv("REDIS_URL", "localhost:6379"),
			Password:          os.Getenv("REDIS_PASSWORD"),
			DB:                intVal("REDIS_DB", 0),
			RequestsPerMinute: intVal("API_RATE_LIMIT_PER_MINUTE", 120),
		},
		Pterodactyl: PterodactylConfig{
			Domain:            strings.TrimSuffix(os.Getenv("PTERODACTYL_DOMAIN"), "/"),
			APIKey:            os.Getenv("PTERODACTYL_KEY"),
			MaxRetries:        intVal("PTERO_MAX_RETRIES", 3),
			RetryDelay:        durVal("PTERO_RETRY_DELAY", time.Second),
			CacheTTL:          durVal("PTERO_CACHE_TTL", 60*time.Second),
			CacheBackend:      getEnv("PTERO_CACHE_BACKEND", "memory"),
			RequestsPerSecond: floatVal("PTERO_MAX_RPS", 0),
			HTTPTimeout:       durVal("PTERO_HTTP_TIMEOUT", 30*time.Second),
		},
		Renewal: RenewalConfig{
			Enabled:         boolVal("RENEWAL_ENABLED", true),
			Cost:            int64(intVal("RENEWAL_COST", 100)),
			Period:          durVal("RENEWAL_PERIOD", 7*24*time.Hour),
			GracePeriod:     durVal("RENEWAL_GRACE", 24*time.Hour),
			DeletionPeriod:  durVal("RENEWAL_DELETION", 72*time.Hour),
			AutoSuspend:     boolVal("RENEWAL_AUTO_SUSPEND", true),
			AutoDelete:      boolVal("RENEWAL_AUTO_DELETE", true),
			SweepSchedule:   getEnv("SWEEP_SCHEDULE", "@every 1h"),
			ResourceTimeout: durVal("SWEEP_RESOURCE_TIMEOUT", 2*time.Minute),
		},
		Webhook: WebhookConfig{
			Username:    getEnv("WEBHOOK_USERNAME", "Helium"),
			MaxAttempts: intVal("WEBHOOK_MAX_ATTEMPTS", 4),
			RetryDelay:  durVal("WEBHOOK_RETRY_DELAY", time.Second),
			Timeout:     durVal("WEBHOOK_TIMEOUT", 10*time.Second),
			Concurrency: intVal("WEBHOOK_CONCURRENCY", 8),
		},
		Auth: AuthConfig{
			SessionSecret: os.Getenv("SESSION_SECRET"),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if len(parseErrs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(parseErrs, "; "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate reports every missing or inconsistent setting at once.
func (c *Config) Validate() error {
	var problems []string

	required := map[string]string{
		"PTERODACTYL_DOMAIN": c.Pterodactyl.Domain,
		"PTERODACTYL_KEY":    c.Pterodactyl.APIKey,
		"DATABASE_URL":       c.Database.URL,
		"SESSION_SECRET":     c.Auth.SessionSecret,
	}
	for _, key := range []string{"PTERODACTYL_DOMAIN", "PTERODACTYL_KEY", "DATABASE_URL", "SESSION_SECRET"} {
		if required[key] == "" {
			problems = append(problems, "missing "+key)
		}
	}

	if c.Pterodactyl.MaxRetries < 0 {
		problems = append(problems, "PTERO_MAX_RETRIES must not be negative")
	}
	if c.Pterodactyl.RetryDelay <= 0 {
		problems = append(problems, "PTERO_RETRY_DELAY must be positive")
	}
	if c.Pterodactyl.CacheBackend != "memory" && c.Pterodactyl.CacheBackend != "redis" {
		problems = append(problems, "PTERO_CACHE_BACKEND must be memory or redis")
	}
	if c.Renewal.Enabled {
		if c.Renewal.Period <= 0 {
			problems = append(problems, "RENEWAL_PERIOD must be positive when renewals are enabled")
		}
		if c.Renewal.Cost < 0 {
			problems = append(problems, "RENEWAL_COST must not be negative")
		}
	}
	if c.Renewal.GracePeriod < 0 || c.Renewal.DeletionPeriod < 0 {
		problems = append(problems, "RENEWAL_GRACE and RENEWAL_DELETION must not be negative")
	}
	if c.Webhook.MaxAttempts < 1 {
		problems = append(problems, "WEBHOOK_MAX_ATTEMPTS must be at least 1")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue, fmt.Errorf("%s: invalid integer %q", key, value)
	}
	return n, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue, fmt.Errorf("%s: invalid boolean %q", key, value)
	}
	return b, nil
}

// getEnvDuration accepts Go durations ("90s", "1h") or a bare number of seconds.
func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue, fmt.Errorf("%s: invalid duration %q", key, value)
	}
	return d, nil
}
