package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv          string
	LogLevel        string
	HTTPAddr        string
	MetricsAddr     string
	MySQLDSN        string
	RedisAddr       string
	RedisDB         int
	RedisPass       string
	CacheTTL        time.Duration
	JWTSecret       string
	SameDayTurnover bool
	RateLimitRPS    int
	SweepWorkers    int
	SweepInterval   time.Duration
}

// Load reads the environment. A .env file in the working directory, when present,
// fills in variables that are not already set.
func Load() Config {
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("loaded .env")
	}

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:          env("APP_ENV", "prod"),
		LogLevel:        env("LOG_LEVEL", "info"),
		HTTPAddr:        env("HTTP_ADDR", ":8080"),
		MetricsAddr:     env("METRICS_ADDR", ""),
		MySQLDSN:        env("MYSQL_DSN", "root:root@tcp(localhost:3306)/hotel?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:       env("REDIS_ADDR", "localhost:6379"),
		RedisPass:       env("REDIS_PASSWORD", ""),
		RedisDB:         atoi("REDIS_DB", 0),
		CacheTTL:        time.Duration(atoi("CACHE_TTL_SECONDS", 60)) * time.Second,
		JWTSecret:       env("JWT_SECRET", ""),
		SameDayTurnover: envBool("BOOKING_SAME_DAY_TURNOVER", false),
		RateLimitRPS:    atoi("RATE_LIMIT_RPS", 50),
		SweepWorkers:    atoi("SWEEP_WORKERS", 4),
		SweepInterval:   time.Duration(atoi("SWEEP_INTERVAL_SECONDS", 300)) * time.Second,
	}
	if c.JWTSecret == "" {
		log.Warn().Msg("JWT_SECRET is empty")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envBool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
