package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Telegram TelegramConfig
	Spin     SpinConfig
}

type ServerConfig struct {
	Port         string
	Environment  string
	JWTSecret    string
	JWTTTL       time.Duration
	AllowOrigins string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type TelegramConfig struct {
	BotToken  string
	WebAppURL string
}

type SpinConfig struct {
	NotifyURL      string
	NotifyInterval time.Duration
}

func (d DatabaseConfig) DSN() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.Name + "?sslmode=" + d.SSLMode
}

func (r RedisConfig) Addr() string {
	return r.Host + ":" + r.Port
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))

	jwtTTL, err := time.ParseDuration(getEnv("JWT_TTL", "720h"))
	if err != nil {
		jwtTTL = 30 * 24 * time.Hour
	}
	notifyInterval, err := time.ParseDuration(getEnv("SPIN_NOTIFY_INTERVAL", "1h"))
	if err != nil {
		notifyInterval = time.Hour
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8181"),
			Environment:  getEnv("ENVIRONMENT", "development"),
			JWTSecret:    getEnv("JWT_SECRET", "change-me-in-production"),
			JWTTTL:       jwtTTL,
			AllowOrigins: getEnv("ALLOW_ORIGINS", "*"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "bfm"),
			Password: getEnv("DB_PASSWORD", "bfm"),
			Name:     getEnv("DB_NAME", "bfm"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Telegram: TelegramConfig{
			BotToken:  getEnv("TELEGRAM_BOT_TOKEN", ""),
			WebAppURL: getEnv("TELEGRAM_WEBAPP_URL", ""),
		},
		Spin: SpinConfig{
			NotifyURL:      getEnv("SPIN_URL", ""),
			NotifyInterval: notifyInterval,
		},
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Reward cooldowns and wait gates. Fixed amounts live in the model package.
const (
	SpinCooldown       = 24 * time.Hour
	QuizCooldown       = 24 * time.Hour
	ReadingSessionTTL  = 10 * time.Minute
	TwitterVerifyDelay = 5 * time.Minute
)
