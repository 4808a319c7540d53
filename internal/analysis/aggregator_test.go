package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawanpaudel93/nepse-analysis/internal/external/nepse"
)

func record(buyer, seller string, qty int64) nepse.TradeRecord {
	return nepse.TradeRecord{
		BuyerMemberID:    buyer[:2],
		BuyerBrokerName:  buyer[2:],
		SellerMemberID:   seller[:2],
		SellerBrokerName: seller[2:],
		ContractQuantity: qty,
	}
}

func sampleRecords() []nepse.TradeRecord {
	return []nepse.TradeRecord{
		{BuyerMemberID: "10", BuyerBrokerName: "X", SellerMemberID: "20", SellerBrokerName: "Y", ContractQuantity: 100},
		{BuyerMemberID: "10", BuyerBrokerName: "X", SellerMemberID: "30", SellerBrokerName: "Z", ContractQuantity: 50},
	}
}

func TestAggregateSingleDay(t *testing.T) {
	report := AggregateSingleDay(sampleRecords(), 150, 0)

	require.Len(t, report.Buy, 1)
	assert.Equal(t, "10 - X", report.Buy[0].Broker)
	assert.Equal(t, int64(150), report.Buy[0].Quantity)
	assert.Equal(t, 100.0, report.Buy[0].Percent)

	require.Len(t, report.Sell, 2)
	assert.Equal(t, "20 - Y", report.Sell[0].Broker)
	assert.Equal(t, int64(100), report.Sell[0].Quantity)
	assert.Equal(t, 66.67, report.Sell[0].Percent)
	assert.Equal(t, "30 - Z", report.Sell[1].Broker)
	assert.Equal(t, int64(50), report.Sell[1].Quantity)
	assert.Equal(t, 33.33, report.Sell[1].Percent)
}

func TestAggregateSingleDayQuantitySums(t *testing.T) {
	records := []nepse.TradeRecord{
		record("01A", "02B", 700),
		record("03C", "02B", 120),
		record("01A", "04D", 80),
		record("05E", "01A", 1100),
		record("03C", "05E", 4),
	}
	var total int64
	for _, r := range records {
		total += r.ContractQuantity
	}

	report := AggregateSingleDay(records, total, 0)

	var buySum, sellSum int64
	for _, e := range report.Buy {
		buySum += e.Quantity
	}
	for _, e := range report.Sell {
		sellSum += e.Quantity
	}

	// Unbounded: each side accounts for every traded share.
	assert.Equal(t, total, buySum)
	assert.Equal(t, total, sellSum)
}

func TestAggregateSingleDayIdempotent(t *testing.T) {
	records := sampleRecords()

	first := AggregateSingleDay(records, 150, 0)
	second := AggregateSingleDay(records, 150, 0)

	assert.Equal(t, first, second)
}

func TestAggregateSingleDayTopN(t *testing.T) {
	records := []nepse.TradeRecord{
		record("01A", "09Q", 10),
		record("02B", "09Q", 30),
		record("03C", "09Q", 20),
		record("04D", "09Q", 40),
	}

	report := AggregateSingleDay(records, 100, 2)

	require.Len(t, report.Buy, 2)
	assert.Equal(t, "04 - D", report.Buy[0].Broker)
	assert.Equal(t, "02 - B", report.Buy[1].Broker)

	// The single seller keeps its full total regardless of truncation.
	require.Len(t, report.Sell, 1)
	assert.Equal(t, int64(100), report.Sell[0].Quantity)
}

func TestAggregateSingleDayStableTies(t *testing.T) {
	// Equal quantities must rank in first-seen order.
	records := []nepse.TradeRecord{
		record("07G", "01A", 50),
		record("03C", "01A", 50),
		record("05E", "01A", 50),
	}

	report := AggregateSingleDay(records, 150, 0)

	require.Len(t, report.Buy, 3)
	assert.Equal(t, "07 - G", report.Buy[0].Broker)
	assert.Equal(t, "03 - C", report.Buy[1].Broker)
	assert.Equal(t, "05 - E", report.Buy[2].Broker)
}

func TestAggregateSingleDayEmpty(t *testing.T) {
	report := AggregateSingleDay(nil, 0, 5)

	assert.Empty(t, report.Buy)
	assert.Empty(t, report.Sell)
}

func TestCombineRenormalizes(t *testing.T) {
	// Two securities, one shared buyer. Percentages must be recomputed
	// against the sector-wide side totals, not the per-security ones.
	first := AggregateSingleDay([]nepse.TradeRecord{
		record("10X", "20Y", 300),
	}, 300, 0)
	second := AggregateSingleDay([]nepse.TradeRecord{
		record("10X", "30Z", 100),
	}, 100, 0)

	combined := Combine([]DayBrokerReport{first, second}, 0)

	require.Len(t, combined.Buy, 1)
	assert.Equal(t, int64(400), combined.Buy[0].Quantity)
	assert.Equal(t, 100.0, combined.Buy[0].Percent)

	require.Len(t, combined.Sell, 2)
	assert.Equal(t, int64(300), combined.Sell[0].Quantity)
	assert.Equal(t, 75.0, combined.Sell[0].Percent)
	assert.Equal(t, int64(100), combined.Sell[1].Quantity)
	assert.Equal(t, 25.0, combined.Sell[1].Percent)
}

func TestRangeTotalsSingleDayMatchesAggregate(t *testing.T) {
	// A single-day range collapses to the unbounded single-day aggregate.
	records := sampleRecords()
	report := AggregateSingleDay(records, 150, 0)

	totals := make(RangeTotals)
	totals.Add(report)

	require.Contains(t, totals, "10 - X")
	assert.Equal(t, BuySell{Buy: 150, Sell: 0}, *totals["10 - X"])
	assert.Equal(t, BuySell{Buy: 0, Sell: 100}, *totals["20 - Y"])
	assert.Equal(t, BuySell{Buy: 0, Sell: 50}, *totals["30 - Z"])
}

func TestRangeTotalsAdditiveAcrossDays(t *testing.T) {
	day1 := AggregateSingleDay([]nepse.TradeRecord{
		record("10X", "20Y", 100),
	}, 100, 0)
	day2 := AggregateSingleDay([]nepse.TradeRecord{
		record("20Y", "10X", 40),
		record("10X", "30Z", 10),
	}, 50, 0)

	totals := make(RangeTotals)
	totals.Add(day1)
	totals.Add(day2)

	assert.Equal(t, BuySell{Buy: 110, Sell: 40}, *totals["10 - X"])
	assert.Equal(t, BuySell{Buy: 40, Sell: 100}, *totals["20 - Y"])
	assert.Equal(t, BuySell{Buy: 0, Sell: 10}, *totals["30 - Z"])
}

func TestRangeTotalsSorted(t *testing.T) {
	totals := RangeTotals{
		"01 - A": {Buy: 50, Sell: 500},
		"02 - B": {Buy: 200, Sell: 10},
		"03 - C": {Buy: 200, Sell: 90},
	}

	byBuy := totals.Sorted(false)
	require.Len(t, byBuy, 3)
	// Ties on buy quantity fall back to broker name.
	assert.Equal(t, "02 - B", byBuy[0].Broker)
	assert.Equal(t, "03 - C", byBuy[1].Broker)
	assert.Equal(t, "01 - A", byBuy[2].Broker)

	bySell := totals.Sorted(true)
	assert.Equal(t, "01 - A", bySell[0].Broker)
	assert.Equal(t, "03 - C", bySell[1].Broker)
	assert.Equal(t, "02 - B", bySell[2].Broker)
}
