package analysis

import (
	"math"
	"sort"

	"github.com/pawanpaudel93/nepse-analysis/internal/external/nepse"
)

// Broker aggregation over floorsheet trade records. Everything here is pure:
// the same multiset of records always produces the same ranking, because
// totals are commutative sums and the final sort is stable by descending
// quantity (ties keep first-seen fold order).

// RankedBroker is one entry of a ranked side: the broker identity
// "<memberId> - <brokerName>", its summed contract quantity and its share of
// the side total.
type RankedBroker struct {
	Broker   string  `json:"broker"`
	Quantity int64   `json:"quantity"`
	Percent  float64 `json:"percent"`
}

// RankedList is a broker aggregate sorted by descending quantity, truncated
// to top-N when bounded.
type RankedList []RankedBroker

// DayBrokerReport holds both sides of one aggregation call.
type DayBrokerReport struct {
	Buy  RankedList `json:"buy"`
	Sell RankedList `json:"sell"`
}

// BuySell carries per-broker totals folded across a date range.
type BuySell struct {
	Buy  int64 `json:"buy"`
	Sell int64 `json:"sell"`
}

// sideFold accumulates quantities per broker while remembering first-seen
// order, so ranking ties stay deterministic.
type sideFold struct {
	order []string
	qty   map[string]int64
}

func newSideFold() *sideFold {
	return &sideFold{qty: make(map[string]int64)}
}

func (f *sideFold) add(broker string, quantity int64) {
	if _, seen := f.qty[broker]; !seen {
		f.order = append(f.order, broker)
	}
	f.qty[broker] += quantity
}

func (f *sideFold) total() int64 {
	var sum int64
	for _, q := range f.qty {
		sum += q
	}
	return sum
}

// ranked produces the RankedList for this side. Percentages are computed
// against total only after the fold is complete (two-pass), rounded to two
// decimals. topN <= 0 means unbounded.
func (f *sideFold) ranked(total int64, topN int) RankedList {
	list := make(RankedList, 0, len(f.order))
	for _, broker := range f.order {
		quantity := f.qty[broker]
		entry := RankedBroker{Broker: broker, Quantity: quantity}
		if total > 0 {
			entry.Percent = round2(float64(quantity) * 100 / float64(total))
		}
		list = append(list, entry)
	}

	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Quantity > list[j].Quantity
	})

	if topN > 0 && len(list) > topN {
		list = list[:topN]
	}

	return list
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// brokerKey builds the broker identity string used across all aggregates.
func brokerKey(memberID, brokerName string) string {
	return memberID + " - " + brokerName
}

// AggregateSingleDay folds one day's trade records into independently
// ranked buy and sell sides. totalQty is the server-reported total traded
// quantity for the query; both sides' quantities sum to it when unbounded.
func AggregateSingleDay(records []nepse.TradeRecord, totalQty int64, topN int) DayBrokerReport {
	if len(records) == 0 {
		return DayBrokerReport{Buy: RankedList{}, Sell: RankedList{}}
	}

	buy := newSideFold()
	sell := newSideFold()

	for _, record := range records {
		buy.add(brokerKey(record.BuyerMemberID, record.BuyerBrokerName), record.ContractQuantity)
		sell.add(brokerKey(record.SellerMemberID, record.SellerBrokerName), record.ContractQuantity)
	}

	return DayBrokerReport{
		Buy:  buy.ranked(totalQty, topN),
		Sell: sell.ranked(totalQty, topN),
	}
}

// Combine merges several per-security day reports into one sector-wide
// ranking, re-normalizing percentages against the sector-wide side totals.
// The input order fixes tie order; callers pass reports in catalog order so
// the result does not depend on map iteration.
func Combine(reports []DayBrokerReport, topN int) DayBrokerReport {
	buy := newSideFold()
	sell := newSideFold()

	for _, report := range reports {
		for _, entry := range report.Buy {
			buy.add(entry.Broker, entry.Quantity)
		}
		for _, entry := range report.Sell {
			sell.add(entry.Broker, entry.Quantity)
		}
	}

	return DayBrokerReport{
		Buy:  buy.ranked(buy.total(), topN),
		Sell: sell.ranked(sell.total(), topN),
	}
}

// RangeTotals folds unbounded day reports across a date range into combined
// per-broker buy/sell totals.
type RangeTotals map[string]*BuySell

// Add folds one day's report into the running totals. Days with no data
// simply contribute nothing.
func (t RangeTotals) Add(report DayBrokerReport) {
	for _, entry := range report.Buy {
		t.entry(entry.Broker).Buy += entry.Quantity
	}
	for _, entry := range report.Sell {
		t.entry(entry.Broker).Sell += entry.Quantity
	}
}

func (t RangeTotals) entry(broker string) *BuySell {
	bs, ok := t[broker]
	if !ok {
		bs = &BuySell{}
		t[broker] = bs
	}
	return bs
}

// Sorted returns the range totals ordered by the requested side descending,
// brokers tying on quantity ordered by name for stable output.
func (t RangeTotals) Sorted(orderBySell bool) []RangedBroker {
	list := make([]RangedBroker, 0, len(t))
	for broker, bs := range t {
		list = append(list, RangedBroker{Broker: broker, Buy: bs.Buy, Sell: bs.Sell})
	}

	sort.Slice(list, func(i, j int) bool {
		a, b := list[i].Buy, list[j].Buy
		if orderBySell {
			a, b = list[i].Sell, list[j].Sell
		}
		if a != b {
			return a > b
		}
		return list[i].Broker < list[j].Broker
	})

	return list
}

// RangedBroker is one row of a range report.
type RangedBroker struct {
	Broker string `json:"broker"`
	Buy    int64  `json:"buy"`
	Sell   int64  `json:"sell"`
}
