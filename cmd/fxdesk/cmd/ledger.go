package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/fxdesk/ledger"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Print the order ledger",
	Long: `Print every submitted order in the order it was recorded.

Examples:
  fxdesk ledger
  fxdesk ledger --json`,
	Args: cobra.NoArgs,
	RunE: runLedger,
}

var ledgerJSON bool

func init() {
	rootCmd.AddCommand(ledgerCmd)
	ledgerCmd.Flags().BoolVar(&ledgerJSON, "json", false, "print records as JSON")
}

func runLedger(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if ledgerMissing(cfg.Ledger) {
		fmt.Fprintf(cmd.ErrOrStderr(), "no ledger yet at %s\n", cfg.Ledger.Path)
		return nil
	}
	l, err := ledger.Open(cmd.Context(), cfg.Ledger)
	if err != nil {
		return err
	}
	defer l.Close()

	rows, err := l.ReadAll(cmd.Context())
	if err != nil {
		return err
	}
	if ledgerJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}
	return printLedger(rows)
}

// ledgerMissing reports whether a file-backed ledger has not been created.
// Opening it would create the file.
func ledgerMissing(cfg ledger.Config) bool {
	switch cfg.Type {
	case "", "csv", "sqlite":
		_, err := os.Stat(cfg.Path)
		return errors.Is(err, fs.ErrNotExist)
	}
	return false
}

func printLedger(rows []ledger.Record) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIMESTAMP\tORDER\tCLIENT\tPERM\tCON_ID\tSYMBOL\tACTION\tSIZE\tTYPE\tLMT")
	for _, r := range rows {
		lmt := "-"
		if r.LimitPrice != nil {
			lmt = r.LimitPrice.String()
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%s\t%s\t%s\t%s\t%s\n",
			r.Timestamp.Format(time.RFC3339), r.OrderID, r.ClientID, r.PermID, r.InstrumentID,
			r.Symbol, r.Action, r.Size, r.OrderType, lmt)
	}
	return w.Flush()
}
