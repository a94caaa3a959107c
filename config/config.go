package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Dosada05/tournament-dashboard/brackets"
	"github.com/joho/godotenv"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	StorageDriver      string
	DatabaseURL        string
	ServerPort         int
	CORSAllowedOrigins []string
	ReseedMaxAttempts  int

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string
}

// PublishingEnabled reports whether every R2 setting is present.
func (c *Config) PublishingEnabled() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" &&
		c.R2BucketName != "" && c.R2PublicBaseURL != ""
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	// Загружаем .env файл, если он есть. Ошибку не считаем фатальной.
	_ = godotenv.Load()

	cfg := &Config{
		StorageDriver:     strings.ToLower(strings.TrimSpace(os.Getenv("STORAGE_DRIVER"))),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),
	}

	switch cfg.StorageDriver {
	case "":
		cfg.StorageDriver = StorageDriverPostgres
	case StorageDriverPostgres, StorageDriverMemory:
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q (expected %s or %s)", cfg.StorageDriver, StorageDriverPostgres, StorageDriverMemory)
	}
	if cfg.StorageDriver == StorageDriverPostgres && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	portStr := os.Getenv("SERVER_PORT")
	if portStr == "" {
		portStr = "8080" // Порт по умолчанию
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}
	cfg.ServerPort = port

	cfg.CORSAllowedOrigins = splitList(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}

	cfg.ReseedMaxAttempts = brackets.DefaultMaxReseedAttempts
	if v := os.Getenv("RESEED_MAX_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid RESEED_MAX_ATTEMPTS %q: must be a non-negative integer", v)
		}
		cfg.ReseedMaxAttempts = n
	}

	// R2 настраивается целиком или не настраивается вовсе.
	anyR2 := cfg.R2AccountID != "" || cfg.R2AccessKeyID != "" || cfg.R2SecretAccessKey != "" ||
		cfg.R2BucketName != "" || cfg.R2PublicBaseURL != ""
	if anyR2 && !cfg.PublishingEnabled() {
		return nil, fmt.Errorf("incomplete R2 configuration: set R2_ACCOUNT_ID, R2_ACCESS_KEY_ID, R2_SECRET_ACCESS_KEY, R2_BUCKET_NAME and R2_PUBLIC_BASE_URL together")
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
