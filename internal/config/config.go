package config

import (
	"fmt"
	"log"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Environment string `env:"ENV" env-default:"development"`

	// HTTP API
	HTTPAddr        string        `env:"HTTP_ADDR" env-default:":8000"`
	CORSOrigins     []string      `env:"CORS_ORIGINS" env-separator:"," env-default:"http://localhost:5173"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"10s"`
	MetricsAddr     string        `env:"METRICS_ADDR"`

	// PostgreSQL
	DBDSN         string `env:"DB_DSN"`
	DBMaxConns    int32  `env:"DB_MAX_CONNS" env-default:"10"`
	DBMinConns    int32  `env:"DB_MIN_CONNS" env-default:"1"`
	DBAutoMigrate bool   `env:"DB_AUTO_MIGRATE" env-default:"true"`

	// Redis streams
	RedisAddr           string        `env:"REDIS_ADDR" env-default:"localhost:6379"`
	RedisPassword       string        `env:"REDIS_PASSWORD"`
	RedisDB             int           `env:"REDIS_DB" env-default:"0"`
	StreamFromBackend   string        `env:"STREAM_FROM_BACKEND" env-default:"from_backend"`
	StreamToBackend     string        `env:"STREAM_TO_BACKEND" env-default:"to_backend"`
	StreamMaxLen        int64         `env:"STREAM_MAX_LEN" env-default:"500"`
	StreamBlock         time.Duration `env:"STREAM_BLOCK" env-default:"5s"`
	BackendPollInterval time.Duration `env:"BACKEND_POLL_INTERVAL" env-default:"500ms"`
	BotPollInterval     time.Duration `env:"BOT_POLL_INTERVAL" env-default:"2s"`

	// Outbox
	OutboxInterval    time.Duration `env:"OUTBOX_INTERVAL" env-default:"1s"`
	OutboxBatch       int           `env:"OUTBOX_BATCH" env-default:"50"`
	OutboxMaxAttempts int           `env:"OUTBOX_MAX_ATTEMPTS" env-default:"5"`

	// JWT
	JWTSecretKey          string        `env:"JWT_SECRET_KEY"`
	JWTCookieAccessName   string        `env:"JWT_COOKIE_ACCESS_NAME" env-default:"access_token"`
	JWTCookieRefreshName  string        `env:"JWT_COOKIE_REFRESH_NAME" env-default:"refresh_token"`
	JWTAccessTokenExpires time.Duration `env:"JWT_ACCESS_TOKEN_EXPIRES" env-default:"15m"`
	JWTRefreshExpires     time.Duration `env:"JWT_REFRESH_TOKEN_EXPIRES" env-default:"720h"`
	CookieSecure          bool          `env:"COOKIE_SECURE" env-default:"false"`

	// Telegram
	TelegramToken string `env:"TELEGRAM_TOKEN"`

	// MinIO
	MinioEndpoint       string `env:"MINIO_ENDPOINT" env-default:"http://localhost:9000"`
	MinioPublicEndpoint string `env:"MINIO_PUBLIC_ENDPOINT"`
	MinioUser           string `env:"MINIO_ROOT_USER"`
	MinioPassword       string `env:"MINIO_ROOT_PASSWORD"`
	MinioBucket         string `env:"MINIO_BUCKET" env-default:"avatars"`
	MinioRegion         string `env:"MINIO_REGION" env-default:"us-east-1"`
}

func load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	} else {
		log.Println("✅ Loaded configuration from .env file")
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}

	if cfg.MinioPublicEndpoint == "" {
		cfg.MinioPublicEndpoint = cfg.MinioEndpoint
	}

	return &cfg, nil
}

// LoadBackend загружает конфигурацию backend процесса
func LoadBackend() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}

	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}
	if cfg.JWTSecretKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY is required but not set")
	}

	return cfg, nil
}

// LoadBot загружает конфигурацию telegram бота
func LoadBot() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}

	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is required but not set")
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
