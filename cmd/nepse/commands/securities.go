package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pawanpaudel93/nepse-analysis/internal/reports"
)

// securitiesCmd lists the security catalog.
var securitiesCmd = &cobra.Command{
	Use:   "securities",
	Short: "List traded securities",
	Long: `Lists every security traded today with its price summary.

Example:
  go run ./cmd/nepse securities
  go run ./cmd/nepse securities --order-by volume --desc --top 10`,
	RunE: runSecurities,
}

var (
	securitiesOrderBy string
	securitiesDesc    bool
	securitiesTop     int
)

func init() {
	rootCmd.AddCommand(securitiesCmd)

	securitiesCmd.Flags().StringVar(&securitiesOrderBy, "order-by", "symbol",
		fmt.Sprintf("sort key %v", reports.SecurityOrderKeys()))
	securitiesCmd.Flags().BoolVar(&securitiesDesc, "desc", false, "sort descending")
	securitiesCmd.Flags().IntVar(&securitiesTop, "top", 0, "limit output to the top N rows (0 = all)")
}

var securityWidths = []int{10, 36, 10, 10, 10, 10, 12, 14, 8}

func runSecurities(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	rt, err := initRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	securities, err := rt.service.Securities(securitiesOrderBy, !securitiesDesc, securitiesTop)
	if err != nil {
		return err
	}

	fmt.Println()
	printTableHeader([]string{"Symbol", "Name", "Open", "High", "Low", "LTP", "Prev Close", "Volume", "Change"}, securityWidths)
	for _, security := range securities {
		printTableRow([]string{
			security.Symbol,
			truncate(security.SecurityName, 36),
			fmt.Sprintf("%.2f", security.OpenPrice),
			fmt.Sprintf("%.2f", security.HighPrice),
			fmt.Sprintf("%.2f", security.LowPrice),
			fmt.Sprintf("%.2f", security.LastTradedPrice),
			fmt.Sprintf("%.2f", security.PreviousClose),
			commaInt(security.TotalTradeQuantity),
			fmt.Sprintf("%.2f", security.PercentageChange),
		}, securityWidths)
	}
	fmt.Printf("\n%d securities\n", len(securities))

	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
