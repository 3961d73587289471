package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/fxdesk/broker"
	"github.com/rustyeddy/fxdesk/ledger"
)

// Environment variables that fill empty OANDA credentials.
const (
	EnvOandaToken     = "OANDA_TOKEN"
	EnvOandaAccountID = "OANDA_ACCOUNT_ID"
)

// Config represents the complete desk configuration
type Config struct {
	Server ServerConfig  `json:"server" yaml:"server"`
	Broker BrokerConfig  `json:"broker" yaml:"broker"`
	Ledger ledger.Config `json:"ledger" yaml:"ledger"`
	Market MarketConfig  `json:"market" yaml:"market"`
	Log    LogConfig     `json:"log" yaml:"log"`
}

// ServerConfig contains the HTTP listener settings
type ServerConfig struct {
	Addr         string `json:"addr" yaml:"addr"`
	ReadTimeout  string `json:"read_timeout" yaml:"read_timeout"`   // e.g. "10s"
	WriteTimeout string `json:"write_timeout" yaml:"write_timeout"` // e.g. "60s"
}

// Timeouts parses the read and write timeouts. Empty means no timeout.
func (s ServerConfig) Timeouts() (read, write time.Duration, err error) {
	if s.ReadTimeout != "" {
		if read, err = time.ParseDuration(s.ReadTimeout); err != nil {
			return 0, 0, fmt.Errorf("server.read_timeout: %w", err)
		}
	}
	if s.WriteTimeout != "" {
		if write, err = time.ParseDuration(s.WriteTimeout); err != nil {
			return 0, 0, fmt.Errorf("server.write_timeout: %w", err)
		}
	}
	return read, write, nil
}

// BrokerConfig selects the gateway
type BrokerConfig struct {
	Type     string      `json:"type" yaml:"type"` // "sim" or "oanda"
	ClientID int64       `json:"client_id" yaml:"client_id"`
	Seed     int64       `json:"seed,omitempty" yaml:"seed,omitempty"` // sim only
	Oanda    OandaConfig `json:"oanda" yaml:"oanda"`
}

// OandaConfig contains the v20 REST credentials
type OandaConfig struct {
	Env       string `json:"env" yaml:"env"` // "practice" or "live"
	AccountID string `json:"account_id,omitempty" yaml:"account_id,omitempty"`
	Token     string `json:"token,omitempty" yaml:"token,omitempty"`
	Timeout   string `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// MarketConfig holds the defaults for contracts built from a currency pair
type MarketConfig struct {
	SecType  string `json:"sec_type" yaml:"sec_type"`
	Exchange string `json:"exchange" yaml:"exchange"`
	Timezone string `json:"timezone" yaml:"timezone"` // literal appended to end timestamps
}

// LogConfig contains logger settings
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"` // "json" or "console"
}

// LoadFromFile loads configuration from a file (YAML, falling back to JSON),
// fills credentials from the environment and validates the result.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		cfg = Default()
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// ApplyEnv fills empty OANDA credentials from the environment.
func (c *Config) ApplyEnv() {
	if c.Broker.Oanda.Token == "" {
		c.Broker.Oanda.Token = os.Getenv(EnvOandaToken)
	}
	if c.Broker.Oanda.AccountID == "" {
		c.Broker.Oanda.AccountID = os.Getenv(EnvOandaAccountID)
	}
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if _, _, err := c.Server.Timeouts(); err != nil {
		return err
	}

	switch c.Broker.Type {
	case "sim":
	case "oanda":
		if c.Broker.Oanda.Env == "live" {
			return fmt.Errorf("broker.oanda.env: live trading is not allowed")
		}
		if c.Broker.Oanda.Token == "" {
			return fmt.Errorf("broker.oanda.token required (or set %s)", EnvOandaToken)
		}
		if c.Broker.Oanda.AccountID == "" {
			return fmt.Errorf("broker.oanda.account_id required (or set %s)", EnvOandaAccountID)
		}
		if c.Broker.Oanda.Timeout != "" {
			if _, err := time.ParseDuration(c.Broker.Oanda.Timeout); err != nil {
				return fmt.Errorf("broker.oanda.timeout: %w", err)
			}
		}
	default:
		return fmt.Errorf("broker.type must be 'sim' or 'oanda'")
	}
	if c.Broker.ClientID < 0 {
		return fmt.Errorf("broker.client_id must not be negative")
	}

	switch c.Ledger.Type {
	case "csv", "sqlite":
		if c.Ledger.Path == "" {
			return fmt.Errorf("ledger.path required for %s type", c.Ledger.Type)
		}
	case "postgres":
		if c.Ledger.DSN == "" {
			return fmt.Errorf("ledger.dsn required for postgres type")
		}
	default:
		return fmt.Errorf("ledger.type must be 'csv', 'sqlite' or 'postgres'")
	}

	if c.Market.SecType == "" {
		return fmt.Errorf("market.sec_type is required")
	}
	if c.Market.Exchange == "" {
		return fmt.Errorf("market.exchange is required")
	}
	if strings.ContainsAny(c.Market.Timezone, " \t") {
		return fmt.Errorf("market.timezone must be a single word, got %q", c.Market.Timezone)
	}
	if c.Market.Timezone != "" && !broker.KnownZone(c.Market.Timezone) {
		return fmt.Errorf("market.timezone %q is not a known zone", c.Market.Timezone)
	}

	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be 'json' or 'console'")
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":8050",
			ReadTimeout:  "10s",
			WriteTimeout: "60s",
		},
		Broker: BrokerConfig{
			Type:     "sim",
			ClientID: 1,
			Seed:     1,
			Oanda: OandaConfig{
				Env:     "practice",
				Timeout: "30s",
			},
		},
		Ledger: ledger.Config{
			Type: "csv",
			Path: "./submitted_orders.csv",
		},
		Market: MarketConfig{
			SecType:  "CASH",
			Exchange: "IDEALPRO",
			Timezone: "EST",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
