package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DatabaseURL   string        `yaml:"DATABASE_URL"`
	JWTSecret     string        `yaml:"JWT_SECRET"`
	JWTExpiration time.Duration `yaml:"JWT_EXPIRATION"`
	ServerPort    string        `yaml:"SERVER_PORT"`

	LogLevel  string `yaml:"LOG_LEVEL"`
	LogFormat string `yaml:"LOG_FORMAT"`

	RedisAddr     string `yaml:"REDIS_ADDR"`
	RedisPassword string `yaml:"REDIS_PASSWORD"`
	RedisDB       int    `yaml:"REDIS_DB"`

	StorageDir   string        `yaml:"STORAGE_DIR"`
	SignedURLTTL time.Duration `yaml:"SIGNED_URL_TTL"`

	NotifyDriver string   `yaml:"NOTIFY_DRIVER"`
	NotifyURL    string   `yaml:"NOTIFY_URL"`
	NotifyAPIKey string   `yaml:"NOTIFY_API_KEY"`
	KafkaBrokers []string `yaml:"KAFKA_BROKERS"`
	KafkaTopic   string   `yaml:"KAFKA_TOPIC"`
	AMQPURL      string   `yaml:"AMQP_URL"`
	AMQPQueue    string   `yaml:"AMQP_QUEUE"`

	AdminEmail    string `yaml:"ADMIN_EMAIL"`
	AdminPassword string `yaml:"ADMIN_PASSWORD"`
}

func defaults() *Config {
	return &Config{
		DatabaseURL:   "postgresql://postgres@localhost:5432/precisionpulse",
		JWTSecret:     "your-super-secret-key-change-in-production",
		JWTExpiration: 24 * time.Hour,
		ServerPort:    "8080",
		LogLevel:      "info",
		LogFormat:     "json",
		StorageDir:    "data/files",
		SignedURLTTL:  10 * time.Minute,
		NotifyDriver:  "log",
		KafkaTopic:    "injury-reports",
		AMQPQueue:     "injury.reports",
		AdminEmail:    "admin@precisionpulse.local",
		AdminPassword: "admin",
	}
}

// Load reads .env (if present), then the YAML file named by CONFIG_FILE (if
// set), then lets environment variables override both.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.ServerPort = getEnv("SERVER_PORT", cfg.ServerPort)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)
	cfg.RedisAddr = getEnv("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", cfg.RedisPassword)
	cfg.StorageDir = getEnv("STORAGE_DIR", cfg.StorageDir)
	cfg.NotifyDriver = strings.ToLower(getEnv("NOTIFY_DRIVER", cfg.NotifyDriver))
	cfg.NotifyURL = getEnv("NOTIFY_URL", cfg.NotifyURL)
	cfg.NotifyAPIKey = getEnv("NOTIFY_API_KEY", cfg.NotifyAPIKey)
	cfg.KafkaTopic = getEnv("KAFKA_TOPIC", cfg.KafkaTopic)
	cfg.AMQPURL = getEnv("AMQP_URL", cfg.AMQPURL)
	cfg.AMQPQueue = getEnv("AMQP_QUEUE", cfg.AMQPQueue)
	cfg.AdminEmail = getEnv("ADMIN_EMAIL", cfg.AdminEmail)
	cfg.AdminPassword = getEnv("ADMIN_PASSWORD", cfg.AdminPassword)

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = splitList(brokers)
	}

	var err error
	if cfg.RedisDB, err = getEnvInt("REDIS_DB", cfg.RedisDB); err != nil {
		return nil, err
	}
	if cfg.JWTExpiration, err = getEnvDuration("JWT_EXPIRATION", cfg.JWTExpiration); err != nil {
		return nil, err
	}
	if cfg.SignedURLTTL, err = getEnvDuration("SIGNED_URL_TTL", cfg.SignedURLTTL); err != nil {
		return nil, err
	}

	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	switch c.NotifyDriver {
	case "log":
	case "http":
		if c.NotifyURL == "" {
			return fmt.Errorf("NOTIFY_URL is required for the http notify driver")
		}
	case "kafka":
		if len(c.KafkaBrokers) == 0 {
			return fmt.Errorf("KAFKA_BROKERS is required for the kafka notify driver")
		}
	case "rabbitmq":
		if c.AMQPURL == "" {
			return fmt.Errorf("AMQP_URL is required for the rabbitmq notify driver")
		}
	default:
		return fmt.Errorf("unknown NOTIFY_DRIVER %q", c.NotifyDriver)
	}
	if c.JWTExpiration <= 0 || c.SignedURLTTL <= 0 {
		return fmt.Errorf("JWT_EXPIRATION and SIGNED_URL_TTL must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
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
