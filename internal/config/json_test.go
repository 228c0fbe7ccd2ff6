package config

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJsonConfig_Unmarshal(t *testing.T) {
	data := `{
		"database_dsn": "ledger.db",
		"api_addr": ":9090",
		"emby_server_url": "http://emby:8096",
		"retention_period": "336h",
		"login_sweep_interval": "1h",
		"expiry_sweep_interval": 21600000000000
	}`

	var c JsonConfig
	require.NoError(t, json.Unmarshal([]byte(data), &c))

	assert.Equal(t, "ledger.db", c.DatabaseDSN)
	assert.Equal(t, ":9090", c.APIAddr)
	assert.Equal(t, "http://emby:8096", c.EmbyServerURL)
	assert.Equal(t, 336*time.Hour, c.RetentionPeriod.Duration)
	assert.Equal(t, time.Hour, c.LoginSweepInterval.Duration)
	assert.Equal(t, 6*time.Hour, c.ExpirySweepInterval.Duration)
}

func TestJsonConfig_InvalidDuration(t *testing.T) {
	var c JsonConfig
	err := json.Unmarshal([]byte(`{"retention_period": "fortnight"}`), &c)
	require.Error(t, err)
}
