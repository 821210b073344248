package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "1.0.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Display the current version of the breakout CLI.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("breakout version %s\n", version)
		fmt.Println("A Donchian channel breakout trading bot for Upbit")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
