package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const minimalConfig = `
[line]
channel_secret = "s"
channel_access_token = "t"

[broadcast]
mode = "subscribers"
`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "10000", cfg.Server.Port)
	assert.Equal(t, 10, cfg.Server.RequestTimeoutSec)
	assert.Equal(t, "Asia/Taipei", cfg.Market.Timezone)
	assert.Equal(t, 9, cfg.Market.OpenHour)
	assert.Equal(t, 13, cfg.Market.CloseHour)
	assert.Equal(t, "interval", cfg.Broadcast.Schedule)
	assert.Equal(t, 60, cfg.Broadcast.IntervalMin)
	assert.Equal(t, []string{"yahoo", "finmind", "sina"}, cfg.Providers.Order)
}

func TestLoadRequiresCredentials(t *testing.T) {
	_, err := Load(writeConfig(t, `[broadcast]
mode = "subscribers"`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel_secret")
}

func TestEnvOverridesSecrets(t *testing.T) {
	t.Setenv("LINE_CHANNEL_SECRET", "env-secret")
	t.Setenv("LINE_CHANNEL_ACCESS_TOKEN", "env-token")
	t.Setenv("PORT", "8081")

	cfg, err := Load(writeConfig(t, `[broadcast]
mode = "subscribers"`))
	require.NoError(t, err)
	assert.Equal(t, "env-secret", cfg.Line.ChannelSecret)
	assert.Equal(t, "env-token", cfg.Line.ChannelAccessToken)
	assert.Equal(t, "8081", cfg.Server.Port)
}

func TestFixedModeNeedsRecipients(t *testing.T) {
	_, err := Load(writeConfig(t, `
[line]
channel_secret = "s"
channel_access_token = "t"

[broadcast]
mode = "fixed"
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recipient")
}

func TestRejectsUnknownModeAndSchedule(t *testing.T) {
	_, err := Load(writeConfig(t, minimalConfig+"\nschedule = \"sometimes\""))
	require.Error(t, err)

	_, err = Load(writeConfig(t, `
[line]
channel_secret = "s"
channel_access_token = "t"

[broadcast]
mode = "everyone"
`))
	require.Error(t, err)
}

func TestRejectsBadMarketHours(t *testing.T) {
	_, err := Load(writeConfig(t, minimalConfig+`
[market]
open_hour = 15
close_hour = 9
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "market hours")
}

func TestFixedSymbolsDeduplicated(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig+`
[symbols]
fixed = ["2330.TW", " 2330.TW", "8070.TW", ""]
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"2330.TW", "8070.TW"}, cfg.Symbols.Fixed)
}
