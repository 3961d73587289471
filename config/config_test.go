package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.NotNil(t, cfg)
	assert.Equal(t, "sim", cfg.Broker.Type)
	assert.Equal(t, "csv", cfg.Ledger.Type)
	assert.Equal(t, "CASH", cfg.Market.SecType)
	assert.Equal(t, "IDEALPRO", cfg.Market.Exchange)
	assert.Equal(t, "EST", cfg.Market.Timezone)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:   "valid config",
			modify: func(*Config) {},
		},
		{
			name:    "missing addr",
			modify:  func(c *Config) { c.Server.Addr = "" },
			wantErr: true,
			errMsg:  "server.addr is required",
		},
		{
			name:    "bad read timeout",
			modify:  func(c *Config) { c.Server.ReadTimeout = "soon" },
			wantErr: true,
			errMsg:  "server.read_timeout",
		},
		{
			name:    "unknown broker",
			modify:  func(c *Config) { c.Broker.Type = "ib" },
			wantErr: true,
			errMsg:  "broker.type must be 'sim' or 'oanda'",
		},
		{
			name: "oanda without token",
			modify: func(c *Config) {
				c.Broker.Type = "oanda"
				c.Broker.Oanda.AccountID = "101-001-1-001"
			},
			wantErr: true,
			errMsg:  "broker.oanda.token required",
		},
		{
			name: "oanda live",
			modify: func(c *Config) {
				c.Broker.Type = "oanda"
				c.Broker.Oanda.Env = "live"
			},
			wantErr: true,
			errMsg:  "live trading is not allowed",
		},
		{
			name: "oanda complete",
			modify: func(c *Config) {
				c.Broker.Type = "oanda"
				c.Broker.Oanda.AccountID = "101-001-1-001"
				c.Broker.Oanda.Token = "secret"
			},
		},
		{
			name:    "sqlite without path",
			modify:  func(c *Config) { c.Ledger.Type, c.Ledger.Path = "sqlite", "" },
			wantErr: true,
			errMsg:  "ledger.path required for sqlite type",
		},
		{
			name:    "postgres without dsn",
			modify:  func(c *Config) { c.Ledger.Type = "postgres" },
			wantErr: true,
			errMsg:  "ledger.dsn required",
		},
		{
			name:    "unknown ledger",
			modify:  func(c *Config) { c.Ledger.Type = "excel" },
			wantErr: true,
			errMsg:  "ledger.type must be",
		},
		{
			name:    "timezone with spaces",
			modify:  func(c *Config) { c.Market.Timezone = "US Eastern" },
			wantErr: true,
			errMsg:  "market.timezone",
		},
		{
			name:    "unknown timezone",
			modify:  func(c *Config) { c.Market.Timezone = "PDT" },
			wantErr: true,
			errMsg:  "not a known zone",
		},
		{
			name:   "utc timezone",
			modify: func(c *Config) { c.Market.Timezone = "UTC" },
		},
		{
			name:    "bad log format",
			modify:  func(c *Config) { c.Log.Format = "xml" },
			wantErr: true,
			errMsg:  "log.format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name string
		ext  string
	}{
		{"json format", ".json"},
		{"yaml format", ".yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Ledger.Type = "sqlite"
			cfg.Ledger.Path = "./ledger.db"
			cfg.Market.Timezone = "JST"
			path := filepath.Join(tmpDir, "test"+tt.ext)

			require.NoError(t, cfg.SaveToFile(path))
			_, err := os.Stat(path)
			require.NoError(t, err)

			loaded, err := LoadFromFile(path)
			require.NoError(t, err)
			assert.Equal(t, cfg.Ledger, loaded.Ledger)
			assert.Equal(t, cfg.Market, loaded.Market)
			assert.Equal(t, cfg.Server, loaded.Server)
			assert.Equal(t, cfg.Broker.Type, loaded.Broker.Type)
		})
	}
}

func TestLoadFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ledger:\n  type: csv\n  path: /tmp/orders.csv\n"), 0o600))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/orders.csv", cfg.Ledger.Path)
	assert.Equal(t, ":8050", cfg.Server.Addr)
	assert.Equal(t, "sim", cfg.Broker.Type)
}

func TestLoadTakesCredentialsFromEnv(t *testing.T) {
	t.Setenv(EnvOandaToken, "env-token")
	t.Setenv(EnvOandaAccountID, "env-account")

	path := filepath.Join(t.TempDir(), "oanda.yaml")
	require.NoError(t, os.WriteFile(path, []byte("broker:\n  type: oanda\n  client_id: 4\n"), 0o600))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "env-token", cfg.Broker.Oanda.Token)
	assert.Equal(t, "env-account", cfg.Broker.Oanda.AccountID)
	assert.Equal(t, "practice", cfg.Broker.Oanda.Env)
}

func TestLoadInvalidFile(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path.yaml")
	assert.Error(t, err)
}

func TestServerTimeouts(t *testing.T) {
	r, w, err := Default().Server.Timeouts()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, r)
	assert.Equal(t, time.Minute, w)

	r, w, err = ServerConfig{}.Timeouts()
	require.NoError(t, err)
	assert.Zero(t, r)
	assert.Zero(t, w)
}
