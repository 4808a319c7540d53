package commands

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"
)

// sectorCmd aggregates floorsheets for every security in a sector.
var sectorCmd = &cobra.Command{
	Use:   "sector [sector-id]",
	Short: "Per-broker buy/sell reports for a whole sector",
	Long: `Fetches the floorsheet of every security in a sector and
aggregates each into ranked per-broker buy and sell tables.

With --combined the per-security reports are merged into one
sector-wide ranking. With --from and --to the floorsheets are folded
over the whole date range instead.

Examples:
  go run ./cmd/nepse sector 51
  go run ./cmd/nepse sector 51 --combined --top 5
  go run ./cmd/nepse sector 51 --from 2024-01-01 --to 2024-01-15`,
	Args: cobra.ExactArgs(1),
	RunE: runSector,
}

var (
	sectorDate     string
	sectorTop      int
	sectorCombined bool
	sectorFrom     string
	sectorTo       string
	sectorOrderBy  string
)

func init() {
	rootCmd.AddCommand(sectorCmd)

	sectorCmd.Flags().StringVar(&sectorDate, "date", "", "business date (YYYY-MM-DD, default today)")
	sectorCmd.Flags().IntVar(&sectorTop, "top", 0, "limit each side to the top N brokers (0 = all)")
	sectorCmd.Flags().BoolVar(&sectorCombined, "combined", false, "merge all securities into one sector-wide ranking")
	sectorCmd.Flags().StringVar(&sectorFrom, "from", "", "range start date (YYYY-MM-DD)")
	sectorCmd.Flags().StringVar(&sectorTo, "to", "", "range end date (YYYY-MM-DD)")
	sectorCmd.Flags().StringVar(&sectorOrderBy, "order-by", "buy", "range totals ordering, buy or sell")
}

func runSector(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	sectorID, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid sector id %q", args[0])
	}

	if (sectorFrom == "") != (sectorTo == "") {
		return fmt.Errorf("--from and --to must be given together")
	}
	orderBySell, err := rangeOrderBySell(sectorOrderBy)
	if err != nil {
		return err
	}

	rt, err := initRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	if sectorFrom != "" {
		totalsBySymbol, err := rt.service.SectorFloorsheetRange(ctx, sectorID, sectorFrom, sectorTo)
		if err != nil {
			return err
		}
		for _, symbol := range sortedKeys(totalsBySymbol) {
			heading := fmt.Sprintf("%s floorsheet %s ~ %s", symbol, sectorFrom, sectorTo)
			printRangeTotals(heading, totalsBySymbol[symbol], orderBySell)
		}
		return nil
	}

	if sectorCombined {
		report, err := rt.service.SectorCombined(ctx, sectorID, sectorDate, sectorTop)
		if err != nil {
			return err
		}
		printDayReport(fmt.Sprintf("Sector %d combined floorsheet", sectorID), report)
		return nil
	}

	reportsBySymbol, err := rt.service.SectorFloorsheet(ctx, sectorID, sectorDate, sectorTop)
	if err != nil {
		return err
	}
	for _, symbol := range sortedKeys(reportsBySymbol) {
		printDayReport(fmt.Sprintf("%s floorsheet", symbol), reportsBySymbol[symbol])
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
