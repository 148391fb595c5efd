package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	AppPort               string
	AppEnv                string
	AppCorsAllowedOrigins []string
	TrustedProxyCIDRs     []string

	DBDriver     string
	DBHost       string
	DBPort       string
	DBUser       string
	DBPassword   string
	DBName       string
	DBSSLMode    string
	DBSQLitePath string
	DBMigrate    bool

	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	JWTSecret string
	JWTExp    int

	WSAuthTimeoutSeconds int
	WSSendBuffer         int
	WSEventsPerSecond    float64
	WSEventBurst         int

	MessageMaxLength        int
	MessagePageLimitDefault int
	MessagePageLimitMax     int
	RateLimitSendPerMinute  int

	PresenceReconcileCron string
}

func LoadAppConfig() *AppConfig {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, reading from system environment variables")
	}

	cfg := &AppConfig{
		AppPort:               mustGetEnv("APP_PORT"),
		AppEnv:                mustGetEnv("APP_ENV"),
		AppCorsAllowedOrigins: strings.Split(getEnv("APP_CORS_ALLOWED_ORIGINS", "*"), ","),
		TrustedProxyCIDRs:     splitNonEmpty(getEnv("TRUSTED_PROXY_CIDRS", "")),

		DBDriver:     getEnv("DB_DRIVER", "postgres"),
		DBSQLitePath: getEnv("DB_SQLITE_PATH", "evidark.db"),
		DBMigrate:    getEnvAsBool("DB_MIGRATE", false),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		JWTSecret: mustGetEnv("JWT_SECRET"),
		JWTExp:    getEnvAsInt("JWT_EXP", 86400),

		WSAuthTimeoutSeconds: getEnvAsInt("WS_AUTH_TIMEOUT_SECONDS", 10),
		WSSendBuffer:         getEnvAsInt("WS_SEND_BUFFER", 256),
		WSEventsPerSecond:    getEnvAsFloat("WS_EVENTS_PER_SECOND", 10),
		WSEventBurst:         getEnvAsInt("WS_EVENT_BURST", 20),

		MessageMaxLength:        getEnvAsInt("MESSAGE_MAX_LENGTH", 5000),
		MessagePageLimitDefault: getEnvAsInt("MESSAGE_PAGE_LIMIT_DEFAULT", 50),
		MessagePageLimitMax:     getEnvAsInt("MESSAGE_PAGE_LIMIT_MAX", 100),
		RateLimitSendPerMinute:  getEnvAsInt("RATE_LIMIT_SEND_PER_MINUTE", 60),

		PresenceReconcileCron: getEnv("PRESENCE_RECONCILE_CRON", "*/5 * * * *"),
	}

	if cfg.DBDriver == "postgres" {
		cfg.DBHost = mustGetEnv("DB_HOST")
		cfg.DBPort = mustGetEnv("DB_PORT")
		cfg.DBUser = mustGetEnv("DB_USER")
		cfg.DBPassword = mustGetEnv("DB_PASSWORD")
		cfg.DBName = mustGetEnv("DB_NAME")
		cfg.DBSSLMode = getEnv("DB_SSLMODE", "disable")
	}

	return cfg
}

func (c *AppConfig) DBConnectionString() string {
	return fmt.Sprintf("host=%s port=%s user=%s dbname=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBName, c.DBPassword, c.DBSSLMode)
}

func splitNonEmpty(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func mustGetEnv(key string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		slog.Error("Environment variable is required but not set", "key", key)
		os.Exit(1)
	}
	return value
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valStr, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		slog.Warn("Environment variable must be an integer, using fallback", "key", key, "value", valStr, "fallback", fallback)
		return fallback
	}
	return val
}

func getEnvAsFloat(key string, fallback float64) float64 {
	valStr, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	val, err := strconv.ParseFloat(valStr, 64)
	if err != nil {
		slog.Warn("Environment variable must be a float, using fallback", "key", key, "value", valStr, "fallback", fallback)
		return fallback
	}
	return val
}

func getEnvAsBool(key string, fallback bool) bool {
	valStr, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	val, err := strconv.ParseBool(valStr)
	if err != nil {
		slog.Warn("Environment variable must be a boolean, using fallback", "key", key, "value", valStr, "fallback", fallback)
		return fallback
	}
	return val
}
