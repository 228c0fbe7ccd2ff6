package config

import (
	"flag"
	"os"
	"time"

	"github.com/motorinps-dev/emby/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   admin HTTP bind address (e.g., ":8080")
//	-d string   ledger DSN (SQLite path or postgres:// DSN)
//	-e string   Emby server base URL
//	-k string   Emby API key
//	-b string   Telegram bot token
//	-p string   provisioning username prefix
//	-r int      retention period, hours
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with the -c/-config flags handled by
// the JSON overlay. The retention flag is an integer in hours, converted to
// a time.Duration afterwards.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-e", "-k", "-b", "-p", "-r"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.APIAddr, "a", config.APIAddr, "address and port for the admin API")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "ledger DSN")
	fs.StringVar(&config.EmbyServerURL, "e", config.EmbyServerURL, "Emby server URL")
	fs.StringVar(&config.EmbyAPIKey, "k", config.EmbyAPIKey, "Emby API key")
	fs.StringVar(&config.TelegramBotToken, "b", config.TelegramBotToken, "Telegram bot token")
	fs.StringVar(&config.UsernamePrefix, "p", config.UsernamePrefix, "username prefix")

	retentionHours := fs.Int("r", int(config.RetentionPeriod.Hours()), "retention_period (in hours)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.RetentionPeriod = time.Duration(*retentionHours) * time.Hour
}
