package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/brewtab/cafe-backend/internal/models"
)

type Config struct {
	APP_ENV     string
	PORT        string
	LOG_LEVEL   string
	DB_HOST     string
	DB_PORT     string
	DB_USER     string
	DB_PASSWORD string
	DB_NAME     string

	JWT_SECRET         string
	JWT_REFRESH_SECRET string
	JWT_EXPIRE         time.Duration
	REFRESH_EXPIRE     time.Duration
	REMEMBER_EXPIRE    time.Duration

	MAX_LOGIN_ATTEMPTS int
	LOCKOUT_TIME       time.Duration
	BCRYPT_ROUNDS      int

	FRONTEND_URL string

	SMTP_HOST      string
	SMTP_PORT      string
	SMTP_USERNAME  string
	SMTP_PASSWORD  string
	SMTP_FROM_NAME string

	REDIS_ADDR    string
	KAFKA_ADDRESS string
	ES_URL        string
	ES_USER       string
	ES_PASSWORD   string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	config := &Config{
		APP_ENV:     getEnv("APP_ENV", "development"),
		PORT:        getEnv("PORT", "8080"),
		LOG_LEVEL:   getEnv("LOG_LEVEL", "info"),
		DB_HOST:     os.Getenv("DB_HOST"),
		DB_PORT:     os.Getenv("DB_PORT"),
		DB_USER:     os.Getenv("DB_USER"),
		DB_PASSWORD: os.Getenv("DB_PASSWORD"),
		DB_NAME:     os.Getenv("DB_NAME"),

		JWT_SECRET:         os.Getenv("JWT_SECRET"),
		JWT_REFRESH_SECRET: os.Getenv("JWT_REFRESH_SECRET"),
		JWT_EXPIRE:         getDuration("JWT_EXPIRE", 15*time.Minute),
		REFRESH_EXPIRE:     getDuration("REFRESH_EXPIRE", 7*24*time.Hour),
		REMEMBER_EXPIRE:    getDuration("REMEMBER_EXPIRE", 30*24*time.Hour),

		MAX_LOGIN_ATTEMPTS: getInt("MAX_LOGIN_ATTEMPTS", 5),
		LOCKOUT_TIME:       getDuration("LOCKOUT_TIME", 30*time.Minute),
		BCRYPT_ROUNDS:      getInt("BCRYPT_ROUNDS", 12),

		FRONTEND_URL: getEnv("FRONTEND_URL", "http://localhost:3000"),

		SMTP_HOST:      os.Getenv("SMTP_HOST"),
		SMTP_PORT:      getEnv("SMTP_PORT", "587"),
		SMTP_USERNAME:  os.Getenv("SMTP_USERNAME"),
		SMTP_PASSWORD:  os.Getenv("SMTP_PASSWORD"),
		SMTP_FROM_NAME: getEnv("SMTP_FROM_NAME", "Cafe Orders"),

		REDIS_ADDR:    getEnv("REDIS_ADDR", "localhost:6379"),
		KAFKA_ADDRESS: os.Getenv("KAFKA_ADDRESS"),
		ES_URL:        os.Getenv("ES_URL"),
		ES_USER:       os.Getenv("ES_USER"),
		ES_PASSWORD:   os.Getenv("ES_PASSWORD"),
	}

	if config.JWT_SECRET == "" || config.JWT_REFRESH_SECRET == "" {
		return nil, fmt.Errorf("JWT_SECRET and JWT_REFRESH_SECRET must be set")
	}

	return config, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Notice: invalid %s=%q, using default %d", key, v, fallback)
		return fallback
	}
	return n
}

// getDuration accepts either a Go duration string ("30m") or a plain
// number of minutes, which is what older deployments exported.
func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Minute
	}
	log.Printf("Notice: invalid %s=%q, using default %s", key, v, fallback)
	return fallback
}

func InitDB(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.DB_USER, cfg.DB_PASSWORD, cfg.DB_HOST, cfg.DB_PORT, cfg.DB_NAME,
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(
		&models.Admin{},
		&models.RefreshToken{},
		&models.Order{},
		&models.OrderItem{},
		&models.MenuItem{},
	); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}
