package cmd

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/fxdesk/dashboard"
)

var tradeCmd = &cobra.Command{
	Use:   "trade <BUY|SELL> <quantity> <symbol>",
	Short: "Place an order and record it in the ledger",
	Long: `Place one market or limit order through the configured gateway.

A successful order is appended to the ledger and the full ledger is printed.

Examples:
  fxdesk trade BUY 200 AUD --currency USD
  fxdesk trade SELL 25000 EUR --currency USD --type LMT --limit 1.0925`,
	Args: cobra.ExactArgs(3),
	RunE: runTrade,
}

var (
	tOrderType       string
	tLimit           string
	tSecType         string
	tCurrency        string
	tExchange        string
	tPrimaryExchange string
)

func init() {
	rootCmd.AddCommand(tradeCmd)

	tradeCmd.Flags().StringVarP(&tOrderType, "type", "t", "MKT", "order type (MKT or LMT)")
	tradeCmd.Flags().StringVarP(&tLimit, "limit", "l", "", "limit price (required for LMT)")
	tradeCmd.Flags().StringVar(&tSecType, "sec-type", "CASH", "security type")
	tradeCmd.Flags().StringVar(&tCurrency, "currency", "USD", "quote currency")
	tradeCmd.Flags().StringVar(&tExchange, "exchange", "IDEALPRO", "exchange")
	tradeCmd.Flags().StringVar(&tPrimaryExchange, "primary-exchange", "", "primary exchange")
}

func runTrade(cmd *cobra.Command, args []string) error {
	qty, err := decimal.NewFromString(args[1])
	if err != nil {
		return fmt.Errorf("quantity %q: %w", args[1], err)
	}
	var limit *decimal.Decimal
	if tLimit != "" {
		p, err := decimal.NewFromString(tLimit)
		if err != nil {
			return fmt.Errorf("limit %q: %w", tLimit, err)
		}
		limit = &p
	}
	var primary *string
	if cmd.Flags().Changed("primary-exchange") {
		primary = &tPrimaryExchange
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	desk, _, cleanup, err := openDesk(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	res, err := desk.SubmitTrade(cmd.Context(), dashboard.TradeForm{
		Action:          args[0],
		OrderType:       tOrderType,
		Quantity:        qty,
		LimitPrice:      limit,
		Symbol:          args[2],
		SecType:         tSecType,
		Currency:        tCurrency,
		Exchange:        tExchange,
		PrimaryExchange: primary,
	})
	if err != nil {
		return err
	}

	fmt.Println(res.Message)
	if res.Table == nil {
		return nil
	}
	return printLedger(res.Table)
}
