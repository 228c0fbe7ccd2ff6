package config

import (
	"os"
	"strconv"
)

// parseEnv overlays Config fields from environment variables. Only string and
// integer settings are exposed here; interval tuning goes through the JSON
// file or flags.
//
// Recognized variables:
//
//	DATABASE_DSN        ledger DSN or SQLite path
//	API_ADDR            admin HTTP bind address
//	API_TOKEN           admin HTTP bearer token
//	EMBY_SERVER_URL     media-server base URL
//	EMBY_API_KEY        media-server admin API key
//	TELEGRAM_BOT_TOKEN  notification bot token
//	FIRST_ADMIN_ID      chat ID seeded as the first administrator
func parseEnv(config *Config) {
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		config.DatabaseDSN = v
	}
	if v := os.Getenv("API_ADDR"); v != "" {
		config.APIAddr = v
	}
	if v := os.Getenv("API_TOKEN"); v != "" {
		config.APIToken = v
	}
	if v := os.Getenv("EMBY_SERVER_URL"); v != "" {
		config.EmbyServerURL = v
	}
	if v := os.Getenv("EMBY_API_KEY"); v != "" {
		config.EmbyAPIKey = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		config.TelegramBotToken = v
	}
	if v := os.Getenv("FIRST_ADMIN_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.FirstAdminChatID = id
		}
	}
}
