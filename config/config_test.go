package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "*", cfg.CORSOrigin)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 64, cfg.OrderBuffer)
	assert.False(t, cfg.Bots.Enabled)
	assert.Equal(t, 200*time.Millisecond, cfg.Bots.ParsedInterval)
}

func TestLoadParsesFileAndEnvToken(t *testing.T) {
	t.Setenv("MARKET_AUTH_TOKEN", "hunter2")
	path := writeConfig(t, `
listen_addr: ":9999"
log_level: debug
order_buffer: 128
bots:
  enabled: true
  item_id: 7
  base_price: 250
  buyers: 3
  sellers: 1
  submit_interval: 50ms
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.ListenAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 128, cfg.OrderBuffer)
	assert.Equal(t, "hunter2", cfg.AuthToken)
	assert.True(t, cfg.Bots.Enabled)
	assert.Equal(t, int64(7), cfg.Bots.ItemID)
	assert.Equal(t, int64(250), cfg.Bots.BasePrice)
	assert.Equal(t, 3, cfg.Bots.Buyers)
	assert.Equal(t, 1, cfg.Bots.Sellers)
	assert.Equal(t, 50*time.Millisecond, cfg.Bots.ParsedInterval)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writeConfig(t, "listen_addr: [not, a, string\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode config file")
}

func TestLoadRejectsBadInterval(t *testing.T) {
	path := writeConfig(t, "bots:\n  submit_interval: soon\n")
	_, err := Load(path)
	require.Error(t, err)
}

func TestEnabledBotsGetDefaults(t *testing.T) {
	path := writeConfig(t, "bots:\n  enabled: true\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cfg.Bots.ItemID)
	assert.Equal(t, int64(100), cfg.Bots.BasePrice)
	assert.Equal(t, 2, cfg.Bots.Buyers)
	assert.Equal(t, 2, cfg.Bots.Sellers)
}
