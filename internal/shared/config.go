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
	HTTPAddr    string
	MetricsAddr string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	CacheTTL    time.Duration

	JWTSecret     string
	TokenTTL      time.Duration
	AdminEmail    string
	AdminPassHash string // bcrypt

	ImportStrict bool
	SubmitRPS    int // per-IP limit on public POST endpoints
	SubmitBurst  int
}

func Load() Config {
	// local dev convenience; absent file is fine
	_ = godotenv.Load()

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ":9100"),
		MySQLDSN:    env("MYSQL_DSN", "root:root@tcp(localhost:3306)/kanzlei?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:   env("REDIS_ADDR", "localhost:6379"),
		RedisPass:   env("REDIS_PASSWORD", ""),
		RedisDB:     atoi("REDIS_DB", 0),
		CacheTTL:    time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,

		JWTSecret:     env("JWT_SECRET", ""),
		TokenTTL:      time.Duration(atoi("TOKEN_TTL_MINUTES", 60)) * time.Minute,
		AdminEmail:    env("ADMIN_EMAIL", ""),
		AdminPassHash: env("ADMIN_PASSWORD_HASH", ""),

		ImportStrict: env("IMPORT_STRICT", "") == "true",
		SubmitRPS:    atoi("SUBMIT_RPS", 1),
		SubmitBurst:  atoi("SUBMIT_BURST", 5),
	}
	if c.JWTSecret == "" {
		log.Warn().Msg("JWT_SECRET is empty; admin login disabled")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
