package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/breakout/config"
	"github.com/rustyeddy/breakout/exchange/upbit"
	"github.com/rustyeddy/breakout/journal"
	"github.com/rustyeddy/breakout/pkg/logger"
	"github.com/rustyeddy/breakout/runner"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current holdings and parameters",
	Long: `Status fetches the account balances once, values every holding at
its current price and prints a snapshot. Nothing is traded or journaled.

Example:
  breakout status --symbol KRW-BTC --params params.json`,
	RunE: runStatus,
}

var (
	statusSymbol     string
	statusParamsPath string
	statusDBPath     string
	statusSinceHours int
)

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVarP(&statusSymbol, "symbol", "s", "KRW-BTC", "market code (QUOTE-BASE)")
	statusCmd.Flags().StringVarP(&statusParamsPath, "params", "p", "params.json", "path to the strategy parameter file")
	statusCmd.Flags().StringVarP(&statusDBPath, "db", "d", "breakout.sqlite", "path to the SQLite journal DB")
	statusCmd.Flags().IntVar(&statusSinceHours, "since", 24, "show journal events from the last N hours")
}

func runStatus(cmd *cobra.Command, args []string) error {
	log, err := logger.New(logLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	creds := config.LoadCredentials()
	if err := creds.RequireExchange(); err != nil {
		return err
	}
	params := config.LoadParams(statusParamsPath, log)
	client := upbit.NewClient(creds.UpbitAccessKey, creds.UpbitSecretKey)

	r := runner.New(statusSymbol, params, client, nil, nil, nil, log)
	st, err := r.Status(context.Background())
	if err != nil {
		return err
	}

	fmt.Println("==================================================")
	fmt.Println(" Account Status")
	fmt.Println("==================================================")
	fmt.Printf("Symbol:        %s\n", st.Symbol)
	fmt.Printf("Interval:      %s\n", st.Interval)
	fmt.Printf("Lookback:      %d\n", st.Lookback)
	fmt.Println()

	currencies := make([]string, 0, len(st.Balances))
	for c := range st.Balances {
		currencies = append(currencies, c)
	}
	sort.Strings(currencies)
	for _, c := range currencies {
		h := st.Balances[c]
		fmt.Printf("%-6s %14.8f  %14.0f\n", c, h.Amount, h.Value)
	}
	fmt.Println("--------------------------------------------------")
	fmt.Printf("Total:         %14.0f\n", st.Total)

	return printRecentEvents()
}

// printRecentEvents summarizes recent journal activity when a journal DB
// exists next to the bot. No DB is not an error; there is simply nothing
// to show.
func printRecentEvents() error {
	if _, err := os.Stat(statusDBPath); err != nil {
		return nil
	}

	jnl, err := journal.NewSQLite(statusDBPath)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer jnl.Close()

	cutoff := time.Now().Add(-time.Duration(statusSinceHours) * time.Hour)
	events, err := jnl.EventsSince(cutoff)
	if err != nil {
		return fmt.Errorf("read journal: %w", err)
	}
	if len(events) == 0 {
		return nil
	}

	fmt.Println()
	fmt.Printf("Events (last %dh)\n", statusSinceHours)
	fmt.Println("--------------------------------------------------")
	for _, e := range events {
		fmt.Printf("%s  %-14s %-4s %12.0f %12.8f  %s\n",
			e.Time.Format("01-02 15:04"), e.Type, e.Side, e.Price, e.Quantity, e.Note)
	}
	return nil
}
