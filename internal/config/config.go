// Package config handles configuration for the service, including defaults,
// JSON overlay, environment variables, and command-line flags.
package config

import "time"

// Config holds runtime settings for the account lifecycle service.
//
// Fields:
//   - DatabaseDSN: ledger location; a postgres:// DSN selects the Postgres
//     backend, anything else is treated as a SQLite file path.
//   - APIAddr / APIToken: bind address and bearer token for the admin HTTP
//     surface. An empty token leaves the surface unauthenticated (dev only).
//   - EmbyServerURL / EmbyAPIKey: remote media-server account API settings.
//   - TelegramBotToken: notification sink credentials; empty means deletion
//     events are only logged.
//   - FirstAdminChatID: chat ID seeded into the administrator set at startup.
//   - UsernamePrefix: provisioning naming convention; accounts outside the
//     prefix are never provisioned or expired.
//   - RetentionPeriod: time after first login before an account is deleted.
//   - LoginSweepInterval / ExpirySweepInterval: reconciliation periods, with
//     LoginSweepDelay / ExpirySweepDelay delaying the first run after start.
//   - RequestTimeout / PingTimeout: per-call timeouts for the remote API.
type Config struct {
	DatabaseDSN         string
	APIAddr             string
	APIToken            string
	EmbyServerURL       string
	EmbyAPIKey          string
	TelegramBotToken    string
	FirstAdminChatID    int64
	UsernamePrefix      string
	RetentionPeriod     time.Duration
	LoginSweepInterval  time.Duration
	LoginSweepDelay     time.Duration
	ExpirySweepInterval time.Duration
	ExpirySweepDelay    time.Duration
	RequestTimeout      time.Duration
	PingTimeout         time.Duration
}

// LoadDefaults populates Config with development defaults. The intervals and
// the retention period mirror the production reference values.
func (c *Config) LoadDefaults() {
	c.DatabaseDSN = "emby_accounts.db"
	c.APIAddr = ":8080"
	c.APIToken = ""
	c.EmbyServerURL = "http://127.0.0.1:8096"
	c.EmbyAPIKey = ""
	c.TelegramBotToken = ""
	c.FirstAdminChatID = 0
	c.UsernamePrefix = "user"
	c.RetentionPeriod = 14 * 24 * time.Hour
	c.LoginSweepInterval = time.Hour
	c.LoginSweepDelay = 10 * time.Second
	c.ExpirySweepInterval = 6 * time.Hour
	c.ExpirySweepDelay = time.Minute
	c.RequestTimeout = 10 * time.Second
	c.PingTimeout = 5 * time.Second
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, environment variables, and finally
// command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
