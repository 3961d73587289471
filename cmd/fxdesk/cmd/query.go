package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/fxdesk/dashboard"
)

var queryCmd = &cobra.Command{
	Use:   "query <BASE.QUOTE>",
	Short: "Query historical bars for a currency pair",
	Long: `Run one market data query and print the bars.

The end time is used only when --end-date and all of --hour, --minute and
--second are given; otherwise the query ends now.

Examples:
  fxdesk query AUD.CAD --duration 20 --unit D --bar-size "1 day"
  fxdesk query EUR.USD --end-date 2024-01-15 --hour 9 --minute 30 --second 0 --what BID`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

var (
	qWhat     string
	qBarSize  string
	qRTH      bool
	qEndDate  string
	qHour     int
	qMinute   int
	qSecond   int
	qDuration int
	qUnit     string
)

func init() {
	rootCmd.AddCommand(queryCmd)

	queryCmd.Flags().StringVarP(&qWhat, "what", "w", "MIDPOINT", "what to show (MIDPOINT, BID, ASK, ...)")
	queryCmd.Flags().StringVarP(&qBarSize, "bar-size", "b", "1 hour", "bar size, e.g. \"5 mins\" or \"1 day\"")
	queryCmd.Flags().BoolVar(&qRTH, "rth", true, "regular trading hours only")
	queryCmd.Flags().StringVar(&qEndDate, "end-date", "", "end date YYYY-MM-DD")
	queryCmd.Flags().IntVar(&qHour, "hour", 0, "end hour 0-23")
	queryCmd.Flags().IntVar(&qMinute, "minute", 0, "end minute 0-59")
	queryCmd.Flags().IntVar(&qSecond, "second", 0, "end second 0-59")
	queryCmd.Flags().IntVarP(&qDuration, "duration", "n", 1, "duration magnitude")
	queryCmd.Flags().StringVarP(&qUnit, "unit", "u", "D", "duration unit (S, D, W, M, Y)")
}

// changedInt returns a pointer to v when the flag was given.
func changedInt(cmd *cobra.Command, name string, v int) *int {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &v
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	desk, _, cleanup, err := openDesk(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	res, err := desk.SubmitQuery(cmd.Context(), dashboard.QueryForm{
		Pair:          args[0],
		WhatToShow:    qWhat,
		BarSize:       qBarSize,
		UseRTH:        qRTH,
		EndDate:       qEndDate,
		EndHour:       changedInt(cmd, "hour", qHour),
		EndMinute:     changedInt(cmd, "minute", qMinute),
		EndSecond:     changedInt(cmd, "second", qSecond),
		DurationValue: qDuration,
		DurationUnit:  qUnit,
	})
	if err != nil {
		return err
	}

	fmt.Println(res.Confirmation)
	if res.Alert.Displayed {
		fmt.Fprintln(os.Stderr, res.Alert.Message)
		return nil
	}

	fmt.Println(res.Chart.Title)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tOPEN\tHIGH\tLOW\tCLOSE")
	for _, b := range res.Chart.Bars {
		fmt.Fprintf(w, "%s\t%.5f\t%.5f\t%.5f\t%.5f\n", b.Time.Format(time.RFC3339), b.Open, b.High, b.Low, b.Close)
	}
	return w.Flush()
}
