// Package config содержит логику чтения конфигурации магазина ключей.
package config

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config содержит параметры конфигурации магазина ключей.
type Config struct {
	RunAddress    string        `env:"RUN_ADDRESS"`
	DatabaseURI   string        `env:"DATABASE_URI"`
	JWTSecret     string        `env:"JWT_SECRET"`
	JWTExpire     time.Duration `env:"JWT_EXPIRE"`
	RedisAddr     string        `env:"REDIS_ADDR"`
	CacheTTL      time.Duration `env:"CACHE_TTL"`
	KafkaBrokers  []string      `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic    string        `env:"KAFKA_TOPIC"`
	AdminEmail    string        `env:"ADMIN_EMAIL"`
	AdminPassword string        `env:"ADMIN_PASSWORD"`
	AppEnv        string        `env:"APP_ENV"`
}

// Development сообщает, запущен ли сервис в режиме разработки.
func (c *Config) Development() bool {
	return c.AppEnv == "development"
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	cfg := &Config{}
	var brokers string

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI, in-memory storage when empty")
	flag.StringVar(&cfg.JWTSecret, "s", "", "secret for signing access tokens")
	flag.DurationVar(&cfg.JWTExpire, "e", 7*24*time.Hour, "access token lifetime")
	flag.StringVar(&cfg.RedisAddr, "c", "", "redis address for catalog cache")
	flag.DurationVar(&cfg.CacheTTL, "t", 5*time.Minute, "catalog cache TTL")
	flag.StringVar(&brokers, "k", "", "comma separated kafka brokers for order events")
	flag.StringVar(&cfg.KafkaTopic, "topic", "keystore.orders", "kafka topic for order events")
	flag.StringVar(&cfg.AdminEmail, "admin-email", "admin@kienstore.com", "bootstrap admin email")
	flag.StringVar(&cfg.AdminPassword, "admin-password", "admin123456", "bootstrap admin password")
	flag.StringVar(&cfg.AppEnv, "env", "production", "application environment")

	flag.Parse()

	cfg.KafkaBrokers = splitList(brokers)

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.KafkaBrokers = splitList(strings.Join(cfg.KafkaBrokers, ","))

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:8080"
	}
	if cfg.JWTExpire <= 0 {
		return nil, fmt.Errorf("invalid token lifetime %s", cfg.JWTExpire)
	}

	return cfg, nil
}

func splitList(s string) []string {
	var res []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			res = append(res, part)
		}
	}
	return res
}
