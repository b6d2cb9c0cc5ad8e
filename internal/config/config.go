package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDSN       string
	RedisAddr   string // Пусто — relay работает в памяти (один инстанс)
	HTTPAddr    string
	Environment string

	// Пускать ли в выдачу неверифицированных учителей — политика пока не
	// устоялась, поэтому вынесено в конфиг
	RequireVerifiedTeacher bool

	// Как часто фоновый sweeper принудительно завершает просроченные сессии
	SweepInterval time.Duration

	MigrationsPath string
}

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	} else {
		log.Println("✅ Loaded configuration from .env file")
	}

	cfg := &Config{
		DBDSN:                  os.Getenv("DB_DSN"),
		RedisAddr:              os.Getenv("REDIS_ADDR"),
		HTTPAddr:               os.Getenv("HTTP_ADDR"),
		Environment:            os.Getenv("ENV"),
		RequireVerifiedTeacher: parseBool(os.Getenv("REQUIRE_VERIFIED_TEACHER"), false),
		SweepInterval:          parseDuration(os.Getenv("SWEEP_INTERVAL"), 5*time.Second),
		MigrationsPath:         os.Getenv("MIGRATIONS_PATH"),
	}

	// Устанавливаем дефолтные значения
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	if cfg.MigrationsPath == "" {
		cfg.MigrationsPath = "migrations"
	}

	// Проверяем обязательные поля
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}

	return cfg, nil
}

func parseBool(raw string, def bool) bool {
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		log.Printf("⚠️  Invalid bool value %q, using default %v", raw, def)
		return def
	}
	return v
}

func parseDuration(raw string, def time.Duration) time.Duration {
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("⚠️  Invalid duration value %q, using default %v", raw, def)
		return def
	}
	return v
}
