package cmd

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/fxdesk/config"
)

var rootCmd = &cobra.Command{
	Use:   "fxdesk",
	Short: "An FX trading desk: market data queries, order entry and an order ledger",
	Long: `fxdesk connects an operator to a broker gateway.

It provides tools for:
  - Querying historical bars for a currency pair
  - Placing market and limit orders
  - Keeping an append-only ledger of every submitted order
  - Serving all of the above as an HTTP JSON API

Gateways: sim (built in, deterministic) and oanda (v20 REST, practice only).
Ledgers: csv, sqlite and postgres.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadDotEnv(envFile)
	},
}

var (
	cfgFile string
	envFile string
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (YAML or JSON); defaults are used when empty")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file with OANDA_TOKEN / OANDA_ACCOUNT_ID")
}

// loadDotEnv loads path into the environment. A missing file is not an error.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// loadConfig reads cfgFile, or falls back to the defaults plus environment.
func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.LoadFromFile(cfgFile)
	}
	cfg := config.Default()
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
