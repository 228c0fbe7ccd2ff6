package config

import (
	"encoding/json"
	"os"

	"github.com/motorinps-dev/emby/internal/flagx"
	"github.com/motorinps-dev/emby/internal/timex"
)

// JsonConfig is an intermediate DTO used only for reading JSON configuration
// files. Interval fields use timex.Duration, which accepts both string values
// such as "6h" and integer nanoseconds. After unmarshalling, its fields are
// copied into the runtime Config struct which uses time.Duration.
type JsonConfig struct {
	DatabaseDSN         string         `json:"database_dsn"`
	APIAddr             string         `json:"api_addr"`
	APIToken            string         `json:"api_token"`
	EmbyServerURL       string         `json:"emby_server_url"`
	EmbyAPIKey          string         `json:"emby_api_key"`
	TelegramBotToken    string         `json:"telegram_bot_token"`
	FirstAdminChatID    int64          `json:"first_admin_chat_id"`
	UsernamePrefix      string         `json:"username_prefix"`
	RetentionPeriod     timex.Duration `json:"retention_period"`
	LoginSweepInterval  timex.Duration `json:"login_sweep_interval"`
	LoginSweepDelay     timex.Duration `json:"login_sweep_delay"`
	ExpirySweepInterval timex.Duration `json:"expiry_sweep_interval"`
	ExpirySweepDelay    timex.Duration `json:"expiry_sweep_delay"`
	RequestTimeout      timex.Duration `json:"request_timeout"`
	PingTimeout         timex.Duration `json:"ping_timeout"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config. The file path is taken from the -c or -config command-line flags;
// when neither is set, no JSON file is loaded. An unreadable or invalid file
// panics.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.APIAddr != "" {
		config.APIAddr = c.APIAddr
	}
	if c.APIToken != "" {
		config.APIToken = c.APIToken
	}
	if c.EmbyServerURL != "" {
		config.EmbyServerURL = c.EmbyServerURL
	}
	if c.EmbyAPIKey != "" {
		config.EmbyAPIKey = c.EmbyAPIKey
	}
	if c.TelegramBotToken != "" {
		config.TelegramBotToken = c.TelegramBotToken
	}
	if c.FirstAdminChatID != 0 {
		config.FirstAdminChatID = c.FirstAdminChatID
	}
	if c.UsernamePrefix != "" {
		config.UsernamePrefix = c.UsernamePrefix
	}
	if c.RetentionPeriod.Duration != 0 {
		config.RetentionPeriod = c.RetentionPeriod.Duration
	}
	if c.LoginSweepInterval.Duration != 0 {
		config.LoginSweepInterval = c.LoginSweepInterval.Duration
	}
	if c.LoginSweepDelay.Duration != 0 {
		config.LoginSweepDelay = c.LoginSweepDelay.Duration
	}
	if c.ExpirySweepInterval.Duration != 0 {
		config.ExpirySweepInterval = c.ExpirySweepInterval.Duration
	}
	if c.ExpirySweepDelay.Duration != 0 {
		config.ExpirySweepDelay = c.ExpirySweepDelay.Duration
	}
	if c.RequestTimeout.Duration != 0 {
		config.RequestTimeout = c.RequestTimeout.Duration
	}
	if c.PingTimeout.Duration != 0 {
		config.PingTimeout = c.PingTimeout.Duration
	}
}
