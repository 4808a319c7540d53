package nepse

// Wire types for the NEPSE web API. Field names follow the JSON the site's
// own frontend consumes; the API is undocumented, so the tags are the
// contract.

// Security represents one listed security with its current-day trade stats,
// as returned by /api/nots/securityDailyTradeStat/{index}.
type Security struct {
	SecurityID         int     `json:"securityId"`
	Symbol             string  `json:"symbol"`
	SecurityName       string  `json:"securityName"`
	OpenPrice          float64 `json:"openPrice"`
	HighPrice          float64 `json:"highPrice"`
	LowPrice           float64 `json:"lowPrice"`
	LastTradedPrice    float64 `json:"lastTradedPrice"`
	PreviousClose      float64 `json:"previousClose"`
	TotalTradeQuantity int64   `json:"totalTradeQuantity"`
	PercentageChange   float64 `json:"percentageChange"`
}

// Sector represents one index classification from /api/nots.
type Sector struct {
	ID   int    `json:"id"`
	Name string `json:"index"`
}

// Holiday is one entry from /api/nots/holiday/list.
type Holiday struct {
	HolidayDate string `json:"holidayDate"`
}

// MarketOpen is the /api/nots/nepse-data/market-open envelope. Only the id
// matters; it seeds the floorsheet payload-id derivation.
type MarketOpen struct {
	ID int `json:"id"`
}

// TradeRecord is a single floorsheet contract. Records are folded into
// aggregates immediately and never retained.
type TradeRecord struct {
	ContractID       int64  `json:"contractId"`
	BuyerMemberID    string `json:"buyerMemberId"`
	BuyerBrokerName  string `json:"buyerBrokerName"`
	SellerMemberID   string `json:"sellerMemberId"`
	SellerBrokerName string `json:"sellerBrokerName"`
	ContractQuantity int64  `json:"contractQuantity"`
	ContractRate     float64 `json:"contractRate"`
}

// floorsheetEnvelope is one page of POST /api/nots/security/floorsheet/{id}.
type floorsheetEnvelope struct {
	TotalQty    int64 `json:"totalQty"`
	Floorsheets struct {
		Content []TradeRecord `json:"content"`
		Last    bool          `json:"last"`
		Empty   bool          `json:"empty"`
	} `json:"floorsheets"`
}

// Floorsheet is the accumulated result of one fully paginated fetch: every
// trade record for one security on one business date plus the
// server-reported total traded quantity for the query.
type Floorsheet struct {
	Records  []TradeRecord
	TotalQty int64
}
