package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env   string
	Port  int
	DBURL string

	// Redis (posts cache)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Session
	SessionSecret string
	SessionTTL    time.Duration
	CookieName    string

	// Posts proxy
	PostsAPIURL      string
	PostsCachePrefix string
	PostsCacheTTL    time.Duration

	// SMTP (welcome emails); notifier falls back to logging when host is empty
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string

	// Seed admin account
	AdminEmail    string
	AdminPassword string
	AdminName     string

	// Observability
	OTLPEndpoint string

	AllowedOrigins []string
}

func Load() Config {
	// best effort; real env vars win over .env
	_ = godotenv.Load()

	env := getEnv("APP_ENV", "dev")
	port := getEnvInt("PORT", 8080)
	dbURL := buildDBURL()

	return Config{
		Env:   env,
		Port:  port,
		DBURL: dbURL,

		RedisAddr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		SessionSecret: getEnv("SESSION_SECRET", "dev-only-secret-change-me"),
		SessionTTL:    getEnvDuration("SESSION_TTL", 24*time.Hour),
		CookieName:    getEnv("SESSION_COOKIE_NAME", "arcodify_session"),

		PostsAPIURL:      getEnv("POSTS_API_URL", "https://jsonplaceholder.typicode.com/posts"),
		PostsCachePrefix: getEnv("POSTS_CACHE_PREFIX", "posts"),
		PostsCacheTTL:    getEnvDuration("POSTS_CACHE_TTL", 5*time.Minute),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", "no-reply@arcodify.dev"),

		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		AdminName:     getEnv("ADMIN_NAME", "Administrator"),

		OTLPEndpoint: getEnv("OTLP_ENDPOINT", ""),

		AllowedOrigins: []string{getEnv("ALLOWED_ORIGIN", "http://localhost:3000")},
	}
}

func buildDBURL() string {
	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "arcodify")
	pass := getEnv("DB_PASSWORD", "arcodify")
	name := getEnv("DB_NAME", "arcodify")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			fmt.Println(err)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)

		if err != nil {
			fmt.Println(err)
			return fallback
		}

		return d
	}
	return fallback
}
