package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/quantcore/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query a SQLite trade journal",
	Long: `Query and display records from a SQLite journal written by a
backtest run.

Examples:
  quantcore journal trade <trade-id> --db run.db
  quantcore journal day 2025-03-03 --db run.db
  quantcore journal rejections --db run.db`,
}

var journalTradeCmd = &cobra.Command{
	Use:   "trade <trade-id>",
	Short: "Get details of a specific trade",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalTrade,
}

var journalDayCmd = &cobra.Command{
	Use:   "day <YYYY-MM-DD>",
	Short: "List trades closed on a specific day",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalDay,
}

var journalRejectionsCmd = &cobra.Command{
	Use:   "rejections",
	Short: "List rejected trade signals",
	Args:  cobra.NoArgs,
	RunE:  runJournalRejections,
}

var journalDBPath string

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalTradeCmd)
	journalCmd.AddCommand(journalDayCmd)
	journalCmd.AddCommand(journalRejectionsCmd)

	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "db", "d", "./quantcore.sqlite", "path to SQLite journal DB")
}

func openDB() (*journal.SQLite, error) {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return j, nil
}

func runJournalTrade(cmd *cobra.Command, args []string) error {
	j, err := openDB()
	if err != nil {
		return err
	}
	defer j.Close()

	rec, err := j.GetTrade(args[0])
	if err != nil {
		return fmt.Errorf("get trade: %w", err)
	}

	fmt.Printf("Trade %s\n", rec.ID)
	fmt.Printf("  %s %s x%d (lot %d)\n", rec.Side, rec.Instrument, rec.Lots, rec.LotSize)
	fmt.Printf("  Entry:  %.2f at %s\n", rec.Entry, rec.EntryTime.Format(time.RFC3339))
	fmt.Printf("  Exit:   %.2f at %s (%s)\n", rec.Exit, rec.ExitTime.Format(time.RFC3339), rec.ExitReason)
	fmt.Printf("  Stop/Target: %.2f / %.2f\n", rec.Stop, rec.Target)
	fmt.Printf("  Gross: %.2f  Costs: %.2f  Net: %.2f\n", rec.GrossPnL, rec.Costs, rec.NetPnL)
	if rec.Strategy != "" {
		fmt.Printf("  Strategy: %s\n", rec.Strategy)
	}
	return nil
}

func runJournalDay(cmd *cobra.Command, args []string) error {
	day, err := time.Parse("2006-01-02", args[0])
	if err != nil {
		return fmt.Errorf("parse day: %w", err)
	}

	j, err := openDB()
	if err != nil {
		return err
	}
	defer j.Close()

	trades, err := j.ListTradesClosedBetween(day, day.AddDate(0, 0, 1))
	if err != nil {
		return fmt.Errorf("list trades: %w", err)
	}
	if len(trades) == 0 {
		fmt.Println("no trades")
		return nil
	}

	var net float64
	for _, rec := range trades {
		net += rec.NetPnL
		fmt.Printf("%s  %-5s %-12s x%-3d  %9.2f -> %9.2f  net %10.2f  %s\n",
			rec.ExitTime.Format("15:04:05"), rec.Side, rec.Instrument, rec.Lots,
			rec.Entry, rec.Exit, rec.NetPnL, rec.ExitReason)
	}
	fmt.Printf("%d trades, net %.2f\n", len(trades), net)
	return nil
}

func runJournalRejections(cmd *cobra.Command, args []string) error {
	j, err := openDB()
	if err != nil {
		return err
	}
	defer j.Close()

	recs, err := j.ListRejections()
	if err != nil {
		return fmt.Errorf("list rejections: %w", err)
	}
	if len(recs) == 0 {
		fmt.Println("no rejections")
		return nil
	}

	for _, r := range recs {
		fmt.Printf("%s  %-12s %-6s x%-3d  %-6s %s  %s\n",
			r.Time.Format("2006-01-02 15:04:05"), r.Instrument, r.Action, r.Lots,
			r.Stage, r.Reason, r.Detail)
	}
	return nil
}
