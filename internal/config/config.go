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
	Environment string
	HTTPAddr    string
	DBDSN       string

	JWTSecret      string
	InternalAPIKey string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	TelegramToken  string
	TelegramChatID int64

	GenerationHorizonWeeks int
	GenerationInterval     time.Duration
	MaxWeeksForward        int

	// Политика для отмены последним учеником: освобождать ли слот
	ReleaseSlotOnStudentCancel bool
}

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	} else {
		log.Println("✅ Loaded configuration from .env file")
	}

	cfg := &Config{
		Environment:    os.Getenv("ENV"),
		HTTPAddr:       os.Getenv("HTTP_ADDR"),
		DBDSN:          os.Getenv("DB_DSN"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		InternalAPIKey: os.Getenv("INTERNAL_API_KEY"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
	}

	// Дефолтные значения
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}

	cfg.RedisDB = envInt("REDIS_DB", 0)
	cfg.CacheTTL = time.Duration(envInt("CACHE_TTL_SECONDS", 300)) * time.Second
	cfg.GenerationHorizonWeeks = envInt("GENERATION_HORIZON_WEEKS", 2)
	cfg.GenerationInterval = time.Duration(envInt("GENERATION_INTERVAL_HOURS", 24)) * time.Hour
	cfg.MaxWeeksForward = envInt("MAX_WEEKS_FORWARD", 4)
	cfg.ReleaseSlotOnStudentCancel = envBool("RELEASE_SLOT_ON_STUDENT_CANCEL", true)

	cfg.TelegramToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.TelegramChatID = int64(envInt("TELEGRAM_CHAT_ID", 0))

	// Проверяем обязательные поля
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but not set")
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// CacheEnabled — пустой адрес Redis отключает кэширование
func (c *Config) CacheEnabled() bool {
	return c.RedisAddr != ""
}

func envInt(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("⚠️  %s=%q is not a number, using default %d", key, raw, def)
		return def
	}
	return v
}

func envBool(key string, def bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		log.Printf("⚠️  %s=%q is not a bool, using default %v", key, raw, def)
		return def
	}
	return v
}
