package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pawanpaudel93/nepse-analysis/internal/analysis"
)

// Shared output formatting so every command renders the same way.

// commaInt formats an integer with thousands separators.
func commaInt(v int64) string {
	s := strconv.FormatInt(v, 10)
	negative := strings.HasPrefix(s, "-")
	if negative {
		s = s[1:]
	}

	var b strings.Builder
	for i, digit := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(digit)
	}

	if negative {
		return "-" + b.String()
	}
	return b.String()
}

// printTableHeader prints column titles and a separator line.
func printTableHeader(columns []string, widths []int) {
	for i, col := range columns {
		fmt.Printf("%-*s", widths[i], col)
		if i < len(columns)-1 {
			fmt.Print("  ")
		}
	}
	fmt.Println()

	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2
		}
	}
	fmt.Println(strings.Repeat("─", totalWidth))
}

// printTableRow prints one table row.
func printTableRow(values []string, widths []int) {
	for i, val := range values {
		fmt.Printf("%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Print("  ")
		}
	}
	fmt.Println()
}

var rankedWidths = []int{40, 14, 8}

// printRankedSide renders one side of a day report as a table.
func printRankedSide(title string, side analysis.RankedList) {
	fmt.Printf("\n%s\n", title)
	if len(side) == 0 {
		fmt.Println("  (no trades)")
		return
	}

	printTableHeader([]string{"Broker", "Quantity", "%"}, rankedWidths)
	for _, broker := range side {
		printTableRow([]string{
			broker.Broker,
			commaInt(broker.Quantity),
			fmt.Sprintf("%.2f", broker.Percent),
		}, rankedWidths)
	}
}

// printDayReport renders a full buy/sell day report.
func printDayReport(heading string, report analysis.DayBrokerReport) {
	fmt.Printf("\n=== %s ===\n", heading)
	printRankedSide("Buy side", report.Buy)
	printRankedSide("Sell side", report.Sell)
	fmt.Println()
}

// rangeOrderBySell maps the --order-by flag onto the Sorted toggle.
func rangeOrderBySell(value string) (bool, error) {
	switch value {
	case "buy":
		return false, nil
	case "sell":
		return true, nil
	default:
		return false, fmt.Errorf("invalid --order-by %q (want buy or sell)", value)
	}
}

var rangeWidths = []int{40, 14, 14}

// printRangeTotals renders folded per-broker totals for a date range.
func printRangeTotals(heading string, totals analysis.RangeTotals, orderBySell bool) {
	fmt.Printf("\n=== %s ===\n\n", heading)
	ranked := totals.Sorted(orderBySell)
	if len(ranked) == 0 {
		fmt.Println("  (no trades)")
		fmt.Println()
		return
	}

	printTableHeader([]string{"Broker", "Buy Qty", "Sell Qty"}, rangeWidths)
	for _, broker := range ranked {
		printTableRow([]string{
			broker.Broker,
			commaInt(broker.Buy),
			commaInt(broker.Sell),
		}, rangeWidths)
	}
	fmt.Println()
}
