package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LogConfig controls the global logger.
type LogConfig struct {
	Level     string
	Format    string
	Component string
	Source    bool
}

type Config struct {
	Log LogConfig

	DB struct {
		DSN      string
		Host     string
		Port     string
		User     string
		Password string
		Name     string
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	HTTP struct {
		Host string
		Port string
		Mode string // gin mode: debug | release | test
	}

	Cache struct {
		SweepInterval time.Duration
		DiscoverTTL   time.Duration
		ListTTL       time.Duration
	}

	Discovery struct {
		DefaultPageSize int
		MaxPageSize     int
		QueryTimeout    time.Duration
	}

	App struct {
		ENV string
	}
}

func New() *Config {
	// Optional .env for local development; a missing file is fine.
	_ = godotenv.Load()

	cfg := &Config{}

	// Logger
	cfg.Log.Level = getEnvDefault("LOG_LEVEL", "info")
	cfg.Log.Format = getEnvDefault("LOG_FORMAT", "text")
	cfg.Log.Component = getEnvDefault("LOG_COMPONENT", "discovery_server")
	cfg.Log.Source = isTruthy(os.Getenv("LOG_SOURCE"))

	// Database
	cfg.DB.DSN = os.Getenv("MYSQL_DSN")
	if cfg.DB.DSN == "" {
		cfg.DB.Host = getEnvDefault("DB_HOST", "localhost")
		cfg.DB.Port = getEnvDefault("DB_PORT", "3306")
		cfg.DB.User = getEnvDefault("DB_USER", "root")
		cfg.DB.Password = getEnvDefault("DB_PASSWORD", "root")
		cfg.DB.Name = getEnvDefault("DB_NAME", "sparkmatch")

		cfg.DB.DSN = fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
			cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name,
		)
	}

	// Redis
	cfg.Redis.Addr = getEnvDefault("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnvDefault("REDIS_PASSWORD", "")
	if dbStr := getEnvDefault("REDIS_DB", "0"); dbStr != "" {
		if dbInt, err := strconv.Atoi(dbStr); err == nil {
			cfg.Redis.DB = dbInt
		}
	}

	// HTTP
	cfg.HTTP.Host = getEnvDefault("HTTP_HOST", "0.0.0.0")
	cfg.HTTP.Port = getEnvDefault("HTTP_PORT", "8080")
	cfg.HTTP.Mode = getEnvDefault("HTTP_MODE", "debug")

	// In-process cache
	cfg.Cache.SweepInterval = getEnvDuration("CACHE_SWEEP_INTERVAL", 5*time.Minute)
	cfg.Cache.DiscoverTTL = getEnvDuration("CACHE_DISCOVER_TTL", 3*time.Minute)
	cfg.Cache.ListTTL = getEnvDuration("CACHE_LIST_TTL", time.Minute)

	// Discovery engine
	cfg.Discovery.DefaultPageSize = getEnvInt("DISCOVERY_DEFAULT_PAGE_SIZE", 20)
	cfg.Discovery.MaxPageSize = getEnvInt("DISCOVERY_MAX_PAGE_SIZE", 50)
	cfg.Discovery.QueryTimeout = getEnvDuration("DISCOVERY_QUERY_TIMEOUT", 5*time.Second)

	cfg.App.ENV = getEnvDefault("APP_ENV", "development")

	return cfg
}

func getEnvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvDuration(k string, def time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
