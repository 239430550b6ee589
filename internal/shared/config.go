package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	LogLevel    string
	HTTPAddr    string
	MetricsAddr string

	// StoreDriver selects the document store: "mysql" or "memory".
	StoreDriver string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	QueueKey    string
	CacheTTL    time.Duration

	// MembershipPolicy is "strict" or "best-effort".
	MembershipPolicy string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration
	CookieSecure     bool

	RateLimitRPS   float64
	RateLimitBurst int

	WorkerPoll    time.Duration
	WorkerBatch   int
	WorkerWorkers int
}

// Load reads the environment, after merging a .env file when one exists.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg(".env could not be loaded; using process environment")
	}

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("not an integer; using default")
		}
		return def
	}
	atof := func(k string, def float64) float64 {
		if v := os.Getenv(k); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return f
			}
			log.Warn().Str("key", k).Str("value", v).Msg("not a number; using default")
		}
		return def
	}
	atob := func(k string, def bool) bool {
		if v := os.Getenv(k); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				return b
			}
			log.Warn().Str("key", k).Str("value", v).Msg("not a boolean; using default")
		}
		return def
	}

	c := Config{
		AppEnv:           env("APP_ENV", "prod"),
		LogLevel:         env("LOG_LEVEL", "info"),
		HTTPAddr:         env("HTTP_ADDR", ":8080"),
		MetricsAddr:      env("METRICS_ADDR", ":9100"),
		StoreDriver:      env("STORE_DRIVER", "mysql"),
		MySQLDSN:         env("MYSQL_DSN", "root:root@tcp(localhost:3306)/hotel_booking?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:        env("REDIS_ADDR", "localhost:6379"),
		RedisDB:          atoi("REDIS_DB", 0),
		RedisPass:        env("REDIS_PASSWORD", ""),
		QueueKey:         env("QUEUE_KEY", "hotel:jobs"),
		CacheTTL:         time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
		MembershipPolicy: env("MEMBERSHIP_POLICY", "strict"),
		AccessTokenTTL:   time.Duration(atoi("ACCESS_TOKEN_TTL_SECONDS", 2*24*3600)) * time.Second,
		RefreshTokenTTL:  time.Duration(atoi("REFRESH_TOKEN_TTL_SECONDS", 7*24*3600)) * time.Second,
		CookieSecure:     atob("COOKIE_SECURE", true),
		RateLimitRPS:     atof("RATE_LIMIT_RPS", 50),
		RateLimitBurst:   atoi("RATE_LIMIT_BURST", 100),
		WorkerPoll:       time.Duration(atoi("WORKER_POLL_MS", 1000)) * time.Millisecond,
		WorkerBatch:      atoi("WORKER_BATCH", 50),
		WorkerWorkers:    atoi("WORKER_CONCURRENCY", 8),
	}
	if c.AppEnv == "dev" || c.AppEnv == "development" {
		if os.Getenv("COOKIE_SECURE") == "" {
			c.CookieSecure = false
		}
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
