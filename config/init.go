package config

import (
	"log"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"github.com/inboxpurge/inboxpurge/internal/config"
	"github.com/inboxpurge/inboxpurge/internal/logger"
	"github.com/inboxpurge/inboxpurge/internal/tracing"
)

func InitConfig() (*Config, error) {
	cfg := &Config{
		AppConfig:           &config.AppConfig{},
		Logger:              &logger.Config{},
		Tracing:             &tracing.JaegerConfig{},
		DatabaseConfig:      &config.DatabaseConfig{},
		GmailConfig:         &config.GmailConfig{},
		OpenAIConfig:        &config.OpenAIConfig{},
		CleanupPolicyConfig: &config.CleanupPolicyConfig{},
	}

	err := godotenv.Load()
	if err != nil {
		log.Print("Unable to load .env file")
	}

	err = env.Parse(cfg)
	if err != nil {
		log.Fatalf("Error loading inboxpurge config: %v", err)
	}

	return cfg, nil
}
