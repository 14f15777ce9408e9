package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store drivers.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	AppEnv   string
	AppName  string
	LogLevel string
	HTTPPort string

	StoreDriver              string
	DBHost                   string
	DBPort                   string
	DBUser                   string
	DBPassword               string
	DBName                   string
	DBSSLMode                string
	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxLifetimeMinutes int

	RedisHost         string
	RedisPort         string
	RedisPassword     string
	RedisDB           int
	RedisPoolSize     int
	RedisMinIdleConns int
	RedisMaxRetries   int

	LeaderboardTTL            time.Duration
	LeaderboardComputeTimeout time.Duration
	LeaderboardRegistrySize   int
	LeaderboardWarmSchedule   string

	KafkaBrokers []string
	KafkaTopic   string

	OTLPEndpoint    string
	TracingDisabled bool
}

func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:                  os.Getenv("APP_ENV"),
		AppName:                 os.Getenv("APP_NAME"),
		LogLevel:                os.Getenv("LOG_LEVEL"),
		HTTPPort:                os.Getenv("HTTP_PORT"),
		StoreDriver:             strings.ToLower(os.Getenv("STORE_DRIVER")),
		DBHost:                  os.Getenv("DB_HOST"),
		DBPort:                  os.Getenv("DB_PORT"),
		DBUser:                  os.Getenv("DB_USER"),
		DBPassword:              os.Getenv("DB_PASSWORD"),
		DBName:                  os.Getenv("DB_NAME"),
		DBSSLMode:               os.Getenv("DB_SSL_MODE"),
		RedisHost:               os.Getenv("REDIS_HOST"),
		RedisPort:               os.Getenv("REDIS_PORT"),
		RedisPassword:           os.Getenv("REDIS_PASSWORD"),
		LeaderboardWarmSchedule: os.Getenv("LEADERBOARD_WARM_SCHEDULE"),
		KafkaTopic:              os.Getenv("KAFKA_TOPIC"),
		OTLPEndpoint:            os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		TracingDisabled:         os.Getenv("OTEL_SDK_DISABLED") == "true",
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.HTTPPort == "" {
		cfg.HTTPPort = "8080"
	}
	if cfg.StoreDriver == "" {
		cfg.StoreDriver = StorePostgres
	}
	if cfg.DBSSLMode == "" {
		cfg.DBSSLMode = "disable"
	}
	if cfg.RedisPort == "" {
		cfg.RedisPort = "6379"
	}
	if cfg.KafkaTopic == "" {
		cfg.KafkaTopic = "referral-events"
	}
	for _, b := range strings.Split(os.Getenv("KAFKA_BROKERS"), ",") {
		if b = strings.TrimSpace(b); b != "" {
			cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
		}
	}

	var err error
	ints := []struct {
		name string
		dst  *int
		def  int
	}{
		{"DB_MAX_OPEN_CONNS", &cfg.DBMaxOpenConns, 25},
		{"DB_MAX_IDLE_CONNS", &cfg.DBMaxIdleConns, 5},
		{"DB_CONN_MAX_LIFETIME_MINUTES", &cfg.DBConnMaxLifetimeMinutes, 30},
		{"REDIS_DB", &cfg.RedisDB, 0},
		{"REDIS_POOL_SIZE", &cfg.RedisPoolSize, 10},
		{"REDIS_MIN_IDLE_CONNS", &cfg.RedisMinIdleConns, 2},
		{"REDIS_MAX_RETRIES", &cfg.RedisMaxRetries, 3},
		{"LEADERBOARD_REGISTRY_SIZE", &cfg.LeaderboardRegistrySize, 64},
	}
	for _, v := range ints {
		*v.dst = v.def
		if s := os.Getenv(v.name); s != "" {
			if *v.dst, err = strconv.Atoi(s); err != nil {
				return nil, fmt.Errorf("invalid %s: %w", v.name, err)
			}
		}
	}

	ttl := 300
	if s := os.Getenv("LEADERBOARD_TTL_SECONDS"); s != "" {
		if ttl, err = strconv.Atoi(s); err != nil {
			return nil, fmt.Errorf("invalid LEADERBOARD_TTL_SECONDS: %w", err)
		}
	}
	if ttl < 1 {
		return nil, fmt.Errorf("invalid LEADERBOARD_TTL_SECONDS: must be at least 1, got %d", ttl)
	}
	cfg.LeaderboardTTL = time.Duration(ttl) * time.Second

	cfg.LeaderboardComputeTimeout = 10 * time.Second
	if s := os.Getenv("LEADERBOARD_COMPUTE_TIMEOUT"); s != "" {
		if cfg.LeaderboardComputeTimeout, err = time.ParseDuration(s); err != nil {
			return nil, fmt.Errorf("invalid LEADERBOARD_COMPUTE_TIMEOUT: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var missing []string
	require := func(name, value string) {
		if value == "" {
			missing = append(missing, name)
		}
	}
	require("APP_ENV", c.AppEnv)
	require("APP_NAME", c.AppName)
	require("REDIS_HOST", c.RedisHost)

	switch c.StoreDriver {
	case StorePostgres:
		require("DB_HOST", c.DBHost)
		require("DB_PORT", c.DBPort)
		require("DB_USER", c.DBUser)
		require("DB_PASSWORD", c.DBPassword)
		require("DB_NAME", c.DBName)
	case StoreMemory:
	default:
		return fmt.Errorf("invalid STORE_DRIVER %q: want %s or %s", c.StoreDriver, StorePostgres, StoreMemory)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

// PostgresDSN returns the lib/pq connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		dsnValue(c.DBHost), dsnValue(c.DBPort), dsnValue(c.DBUser),
		dsnValue(c.DBPassword), dsnValue(c.DBName), dsnValue(c.DBSSLMode),
	)
}

var dsnEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// dsnValue single-quotes v when it is empty or holds a space, quote or backslash.
func dsnValue(v string) string {
	if v != "" && !strings.ContainsAny(v, " \t\n'\\") {
		return v
	}
	return "'" + dsnEscaper.Replace(v) + "'"
}
