package commands

import (
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "nepse",
	Short: "NEPSE floorsheet analysis",
	Long: `NEPSE floorsheet analysis CLI

Fetches live market data from the Nepal Stock Exchange and aggregates
floorsheet trades into per-broker buy/sell rankings.

Examples:
  go run ./cmd/nepse securities --order-by volume --top 10
  go run ./cmd/nepse sectors
  go run ./cmd/nepse floorsheet NABIL --date 2024-01-15 --top 5
  go run ./cmd/nepse sector 51 --combined
  go run ./cmd/nepse serve`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}
