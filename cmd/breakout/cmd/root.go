package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "breakout",
	Short: "A Donchian channel breakout trading bot for Upbit",
	Long: `Breakout is a single-asset trend-following bot built around the
Donchian channel breakout rule.

It provides tools for:
  - Backtesting the breakout rule over historical candles
  - Optimizing the channel lookback by grid search
  - Running the live trading loop against the Upbit exchange
  - Journaling every order and pushing Slack notifications
  - Inspecting current holdings and parameters`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

var logLevel string

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
}
