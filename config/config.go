package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port           string   `env:"PORT" envDefault:"8080"`
	Environment    string   `env:"ENVIRONMENT" envDefault:"development"`
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	// Remote store
	RemoteStore string `env:"REMOTE_STORE" envDefault:"postgres"`
	DatabaseURL string `env:"DATABASE_URL"`

	// Local staging store
	LocalStore     string `env:"LOCAL_STORE" envDefault:"bolt"`
	LocalStorePath string `env:"LOCAL_STORE_PATH"`

	// Identity
	AuthSecret string `env:"AUTH_JWT_SECRET"`
	AuthIssuer string `env:"AUTH_JWT_ISSUER"`

	// Connectivity probe
	ProbeInterval time.Duration `env:"CONNECTIVITY_PROBE_INTERVAL" envDefault:"15s"`
	ProbeTimeout  time.Duration `env:"CONNECTIVITY_PROBE_TIMEOUT" envDefault:"5s"`

	// Operator notifications
	LarkWebhook string `env:"LARK_WEBHOOK_URL"`

	// Finished match fan-out
	AMQPURL      string `env:"AMQP_URL"`
	AMQPExchange string `env:"AMQP_EXCHANGE" envDefault:"wtr.matches"`

	// Live scoreboard
	MQTTBroker      string `env:"MQTT_BROKER"`
	MQTTUsername    string `env:"MQTT_USERNAME"`
	MQTTPassword    string `env:"MQTT_PASSWORD"`
	MQTTTopicPrefix string `env:"MQTT_TOPIC_PREFIX" envDefault:"wtr/scoreboard"`
}

// Load reads .env (if present) and then the environment.
func Load() (*Config, error) {
	// A missing .env file is normal outside development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.LocalStorePath == "" {
		cfg.LocalStorePath = defaultLocalStorePath(cfg.LocalStore)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.RemoteStore {
	case "postgres":
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL is required when REMOTE_STORE=postgres")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown REMOTE_STORE %q", c.RemoteStore)
	}
	switch c.LocalStore {
	case "bolt", "sqlite":
	default:
		return fmt.Errorf("unknown LOCAL_STORE %q", c.LocalStore)
	}
	if strings.TrimSpace(c.AuthSecret) == "" {
		return fmt.Errorf("AUTH_JWT_SECRET is required")
	}
	if c.ProbeInterval <= 0 || c.ProbeTimeout <= 0 {
		return fmt.Errorf("connectivity probe interval and timeout must be positive")
	}
	return nil
}

// defaultLocalStorePath puts the local store in the user's config directory.
func defaultLocalStorePath(driver string) string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = "."
	}
	name := "local.db"
	if driver == "sqlite" {
		name = "local.sqlite"
	}
	return filepath.Join(configDir, "WhatTheRuck", name)
}
