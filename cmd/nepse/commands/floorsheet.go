package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// floorsheetCmd aggregates one security's floorsheet into per-broker
// buy/sell rankings.
var floorsheetCmd = &cobra.Command{
	Use:   "floorsheet [symbol]",
	Short: "Per-broker buy/sell report for a security",
	Long: `Fetches the floorsheet for one security and aggregates it into
ranked per-broker buy and sell tables.

With --from and --to the floorsheet is folded over the whole date range
into combined per-broker totals instead.

Examples:
  go run ./cmd/nepse floorsheet NABIL
  go run ./cmd/nepse floorsheet NABIL --date 2024-01-15 --top 5
  go run ./cmd/nepse floorsheet NABIL --from 2024-01-01 --to 2024-01-15`,
	Args: cobra.ExactArgs(1),
	RunE: runFloorsheet,
}

var (
	floorsheetDate    string
	floorsheetTop     int
	floorsheetFrom    string
	floorsheetTo      string
	floorsheetOrderBy string
)

func init() {
	rootCmd.AddCommand(floorsheetCmd)

	floorsheetCmd.Flags().StringVar(&floorsheetDate, "date", "", "business date (YYYY-MM-DD, default today)")
	floorsheetCmd.Flags().IntVar(&floorsheetTop, "top", 0, "limit each side to the top N brokers (0 = all)")
	floorsheetCmd.Flags().StringVar(&floorsheetFrom, "from", "", "range start date (YYYY-MM-DD)")
	floorsheetCmd.Flags().StringVar(&floorsheetTo, "to", "", "range end date (YYYY-MM-DD)")
	floorsheetCmd.Flags().StringVar(&floorsheetOrderBy, "order-by", "buy", "range totals ordering, buy or sell")
}

func runFloorsheet(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	symbol := args[0]

	if (floorsheetFrom == "") != (floorsheetTo == "") {
		return fmt.Errorf("--from and --to must be given together")
	}
	orderBySell, err := rangeOrderBySell(floorsheetOrderBy)
	if err != nil {
		return err
	}

	rt, err := initRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	if floorsheetFrom != "" {
		totals, err := rt.service.FloorsheetRange(ctx, symbol, floorsheetFrom, floorsheetTo)
		if err != nil {
			return err
		}
		heading := fmt.Sprintf("%s floorsheet %s ~ %s", symbol, floorsheetFrom, floorsheetTo)
		printRangeTotals(heading, totals, orderBySell)
		return nil
	}

	report, err := rt.service.SecurityFloorsheet(ctx, symbol, floorsheetDate, floorsheetTop)
	if err != nil {
		return err
	}

	date := floorsheetDate
	if date == "" {
		date = "today"
	}
	printDayReport(fmt.Sprintf("%s floorsheet (%s)", symbol, date), report)
	return nil
}
