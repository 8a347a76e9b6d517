// Package config loads server settings from the environment. A .env file in
// the working directory is read first when present.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every runtime setting of the server.
type Config struct {
	Port   int
	DBPath string

	JWTSecret string
	JWTTTL    time.Duration

	LogLevel  string
	LogFormat string

	EmailAPIURL  string
	EmailAPIKey  string
	EmailFrom    string
	EmailTimeout time.Duration

	NotifyQueueSize int

	RateLimitRPS   float64
	RateLimitBurst int

	AllowedOrigins []string
}

// Load reads .env (if any) and the environment. Malformed numeric or
// duration values are reported as errors.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var errs []error
	cfg := &Config{
		Port:            getInt("PORT", 8080, &errs),
		DBPath:          getEnv("DB_PATH", "./data/savings.db"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		JWTTTL:          getDuration("JWT_TTL", 24*time.Hour, &errs),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "text"),
		EmailAPIURL:     os.Getenv("EMAIL_API_URL"),
		EmailAPIKey:     os.Getenv("EMAIL_API_KEY"),
		EmailFrom:       getEnv("EMAIL_FROM", "noreply@groupsavings.local"),
		EmailTimeout:    getDuration("EMAIL_TIMEOUT", 5*time.Second, &errs),
		NotifyQueueSize: getInt("NOTIFY_QUEUE_SIZE", 256, &errs),
		RateLimitRPS:    getFloat("RATE_LIMIT_RPS", 10, &errs),
		RateLimitBurst:  getInt("RATE_LIMIT_BURST", 50, &errs),
		AllowedOrigins:  getList("ALLOWED_ORIGINS"),
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with and warns about weak
// ones.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if len(c.JWTSecret) < 32 {
		slog.Warn("JWT_SECRET should be at least 32 characters")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT %d out of range", c.Port)
	}
	if c.EmailAPIURL != "" && c.EmailAPIKey == "" {
		return errors.New("EMAIL_API_KEY is required when EMAIL_API_URL is set")
	}
	return nil
}

// EmailEnabled reports whether an email API is configured.
func (c *Config) EmailEnabled() bool {
	return c.EmailAPIURL != ""
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int, errs *[]error) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return n
}

func getFloat(key string, fallback float64, errs *[]error) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return f
}

func getDuration(key string, fallback time.Duration, errs *[]error) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return d
}

func getList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
