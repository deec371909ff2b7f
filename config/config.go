package config

import (
	"github.com/inboxpurge/inboxpurge/internal/config"
	"github.com/inboxpurge/inboxpurge/internal/logger"
	"github.com/inboxpurge/inboxpurge/internal/tracing"
)

type Config struct {
	AppConfig           *config.AppConfig
	Logger              *logger.Config
	Tracing             *tracing.JaegerConfig
	DatabaseConfig      *config.DatabaseConfig
	GmailConfig         *config.GmailConfig
	OpenAIConfig        *config.OpenAIConfig
	CleanupPolicyConfig *config.CleanupPolicyConfig
}
