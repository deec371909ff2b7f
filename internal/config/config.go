package config

type AppConfig struct {
	APIPort string `env:"PORT,required" envDefault:"12222"`
	APIKey  string `env:"API_KEY,required"`
}

type DatabaseConfig struct {
	Host            string `env:"INBOXPURGE_POSTGRES_HOST,required"`
	Port            string `env:"INBOXPURGE_POSTGRES_PORT,required"`
	User            string `env:"INBOXPURGE_POSTGRES_USER,required"`
	DBName          string `env:"INBOXPURGE_POSTGRES_DB_NAME,required"`
	Password        string `env:"INBOXPURGE_POSTGRES_PASSWORD,required"`
	MaxConn         int    `env:"INBOXPURGE_POSTGRES_DB_MAX_CONN"`
	MaxIdleConn     int    `env:"INBOXPURGE_POSTGRES_DB_MAX_IDLE_CONN"`
	ConnMaxLifetime int    `env:"INBOXPURGE_POSTGRES_DB_CONN_MAX_LIFETIME"`
	LogLevel        string `env:"INBOXPURGE_POSTGRES_LOG_LEVEL" envDefault:"WARN"`
	SSLMode         string `env:"INBOXPURGE_POSTGRES_SSL_MODE" envDefault:"require"`
}

type GmailConfig struct {
	CredentialsPath string `env:"GMAIL_CREDENTIALS_PATH" envDefault:"client_secret.json"`
	TokenPath       string `env:"GMAIL_TOKEN_PATH" envDefault:"token.json"`
	UserID          string `env:"GMAIL_USER_ID" envDefault:"me"`
}

type OpenAIConfig struct {
	APIKey string `env:"OPENAI_API_KEY"`
	Model  string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
}

// CleanupPolicyConfig carries the tunable deletion policy knobs.
// Aggressive applies to senders already matching junk patterns or
// exposing unsubscribe capability; conservative applies to the rest.
type CleanupPolicyConfig struct {
	AggressiveAgeDays   int `env:"CLEANUP_AGGRESSIVE_AGE_DAYS" envDefault:"7"`
	ConservativeAgeDays int `env:"CLEANUP_CONSERVATIVE_AGE_DAYS" envDefault:"30"`
	CursorFlushEvery    int `env:"CLEANUP_CURSOR_FLUSH_EVERY" envDefault:"10"`
	MaxMessagesPerQuery int `env:"CLEANUP_MAX_MESSAGES_PER_QUERY" envDefault:"10000"`
}
