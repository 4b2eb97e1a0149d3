package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// TokenTTL is the lifetime of every issued access token.
const TokenTTL = 24 * time.Hour

type Config struct {
	Env   string `validate:"required,oneof=dev test prod"`
	Port  int    `validate:"gte=0,lte=65535"`
	DBURL string

	JWTSecret string        `validate:"required,min=16"`
	TokenTTL  time.Duration `validate:"gt=0"`

	AdminEmail    string `validate:"omitempty,email"`
	AdminPassword string
	AdminName     string
	AdminRole     string `validate:"omitempty,oneof=admin user"`

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Anonymous callers share one bucket per endpoint so their quota is kept tight.
	AnonRateLimit   int           `validate:"gt=0"`
	AuthedRateLimit int           `validate:"gt=0"`
	RateLimitWindow time.Duration `validate:"gt=0"`

	OTELEndpoint string
	CORSOrigins  []string
	MaxBodyBytes int64 `validate:"gt=0"`
}

// LoadEnvFile pre-populates the process environment from a dotenv file.
// A missing file is not an error; variables already set win.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	return godotenv.Load(path)
}

func Load() Config {
	return Config{
		Env:   getEnv("APP_ENV", "dev"),
		Port:  getEnvInt("PORT", 8080),
		DBURL: buildDBURL(),

		JWTSecret: getEnv("JWT_SECRET", ""),
		TokenTTL:  TokenTTL,

		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		AdminName:     getEnv("ADMIN_NAME", "Administrator"),
		AdminRole:     getEnv("ADMIN_ROLE", "admin"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		AnonRateLimit:   getEnvInt("RATE_LIMIT_ANON", 10),
		AuthedRateLimit: getEnvInt("RATE_LIMIT_AUTHED", 100),
		RateLimitWindow: time.Duration(getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second,

		OTELEndpoint: getEnv("OTEL_COLLECTOR_ADDR", ""),
		CORSOrigins:  splitList(getEnv("CORS_ORIGINS", "")),
		MaxBodyBytes: int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func buildDBURL() string {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "taskhub")
	pass := getEnv("DB_PASSWORD", "taskhub")
	name := getEnv("DB_NAME", "taskhub")
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
			slog.Warn("ignoring non-numeric env value", "key", key, "err", err)
			return fallback
		}

		return num
	}
	return fallback
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
