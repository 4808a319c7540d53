package reports

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pawanpaudel93/nepse-analysis/internal/analysis"
	"github.com/pawanpaudel93/nepse-analysis/internal/external/nepse"
	"github.com/pawanpaudel93/nepse-analysis/pkg/logger"
)

// DateLayout is the business-date form every NEPSE endpoint speaks.
const DateLayout = "2006-01-02"

// Exchange is the slice of the NEPSE client the report service needs.
type Exchange interface {
	Securities(ctx context.Context) ([]nepse.Security, error)
	SectorSecurities(ctx context.Context, sectorID int) ([]nepse.Security, error)
	Sectors(ctx context.Context) ([]nepse.Sector, error)
	Holidays(ctx context.Context, year int) ([]string, error)
	Floorsheet(ctx context.Context, securityID int, date string) (*nepse.Floorsheet, error)
}

// SectorStore persists the sector snapshot between runs.
type SectorStore interface {
	Load(ctx context.Context) ([]nepse.Sector, error)
	Save(ctx context.Context, sectors []nepse.Sector) error
}

// Service owns the reference-data caches and exposes the report operations.
// All caches are instance state loaded at construction time; two services
// never share anything. The mutex serializes cache replacement against
// concurrent readers, since serve mode runs the refresh job alongside the
// HTTP handlers.
type Service struct {
	exchange Exchange
	store    SectorStore
	logger   *logger.Logger

	mu         sync.RWMutex
	securities map[string]nepse.Security
	sectors    map[int]string
	holidays   map[string]bool

	now func() time.Time
}

var (
	// ErrCatalogEmpty means the securities catalog failed to load; every
	// data operation refuses to run against an empty catalog.
	ErrCatalogEmpty = errors.New("securities catalog is empty")

	// ErrUnknownSymbol reports a symbol absent from the catalog.
	ErrUnknownSymbol = errors.New("unknown symbol")

	// ErrUnknownSector reports a sector id absent from the sector map.
	ErrUnknownSector = errors.New("unknown sector")
)

// New creates a report service. store may be nil to disable snapshot
// persistence.
func New(exchange Exchange, store SectorStore, log *logger.Logger) *Service {
	return &Service{
		exchange:   exchange,
		store:      store,
		logger:     log,
		securities: make(map[string]nepse.Security),
		sectors:    make(map[int]string),
		holidays:   make(map[string]bool),
		now:        time.Now,
	}
}

// Load populates the reference caches: the securities catalog, the sector
// map (snapshot first, network on miss) and this year's holiday set. A
// failed securities load is logged and leaves the catalog empty; operations
// then refuse with ErrCatalogEmpty instead of producing nonsense.
func (s *Service) Load(ctx context.Context) error {
	securities, err := s.exchange.Securities(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load securities catalog")
	} else {
		s.setSecurities(securities)
	}

	if err := s.loadSectors(ctx); err != nil {
		s.logger.WithError(err).Error("Failed to load sectors")
	}

	year := s.now().Year()
	holidays, err := s.exchange.Holidays(ctx, year)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load holiday calendar")
	} else {
		s.setHolidays(holidays)
	}

	s.mu.RLock()
	s.logger.WithFields(map[string]interface{}{
		"securities": len(s.securities),
		"sectors":    len(s.sectors),
		"holidays":   len(s.holidays),
	}).Info("Reference data loaded")
	s.mu.RUnlock()

	return nil
}

// loadSectors prefers the persisted snapshot and only hits the network (and
// writes the snapshot back) when none exists.
func (s *Service) loadSectors(ctx context.Context) error {
	if s.store != nil {
		cached, err := s.store.Load(ctx)
		if err != nil {
			s.logger.WithError(err).Warn("Sector snapshot unreadable, falling back to network")
		} else if len(cached) > 0 {
			s.setSectors(cached)
			return nil
		}
	}

	sectors, err := s.exchange.Sectors(ctx)
	if err != nil {
		return err
	}
	s.setSectors(sectors)

	if s.store != nil {
		if err := s.store.Save(ctx, sectors); err != nil {
			s.logger.WithError(err).Warn("Failed to persist sector snapshot")
		}
	}

	return nil
}

func (s *Service) setSecurities(securities []nepse.Security) {
	catalog := make(map[string]nepse.Security, len(securities))
	for _, security := range securities {
		catalog[security.Symbol] = security
	}
	s.mu.Lock()
	s.securities = catalog
	s.mu.Unlock()
}

func (s *Service) setSectors(sectors []nepse.Sector) {
	m := make(map[int]string, len(sectors))
	for _, sector := range sectors {
		m[sector.ID] = sector.Name
	}
	s.mu.Lock()
	s.sectors = m
	s.mu.Unlock()
}

func (s *Service) setHolidays(holidays []string) {
	set := make(map[string]bool, len(holidays))
	for _, date := range holidays {
		set[date] = true
	}
	s.mu.Lock()
	s.holidays = set
	s.mu.Unlock()
}

// Read-side accessors; every report operation goes through these instead of
// touching the maps directly.

func (s *Service) catalogSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.securities)
}

func (s *Service) security(symbol string) (nepse.Security, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	security, ok := s.securities[symbol]
	return security, ok
}

func (s *Service) sectorExists(sectorID int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sectors[sectorID]
	return ok
}

func (s *Service) isHoliday(date string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.holidays[date]
}

// RefreshReference re-fetches the securities catalog, the sector list and
// the holiday calendar from the network, updating the snapshot. Used by the
// daily refresh job.
func (s *Service) RefreshReference(ctx context.Context) error {
	securities, err := s.exchange.Securities(ctx)
	if err != nil {
		return fmt.Errorf("refresh securities: %w", err)
	}
	s.setSecurities(securities)

	sectors, err := s.exchange.Sectors(ctx)
	if err != nil {
		return fmt.Errorf("refresh sectors: %w", err)
	}
	s.setSectors(sectors)
	if s.store != nil {
		if err := s.store.Save(ctx, sectors); err != nil {
			s.logger.WithError(err).Warn("Failed to persist sector snapshot")
		}
	}

	holidays, err := s.exchange.Holidays(ctx, s.now().Year())
	if err != nil {
		return fmt.Errorf("refresh holidays: %w", err)
	}
	s.setHolidays(holidays)

	s.logger.Info("Reference data refreshed")
	return nil
}

// Sectors returns the sector list ordered by id.
func (s *Service) Sectors() []nepse.Sector {
	s.mu.RLock()
	list := make([]nepse.Sector, 0, len(s.sectors))
	for id, name := range s.sectors {
		list = append(list, nepse.Sector{ID: id, Name: name})
	}
	s.mu.RUnlock()
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

// Security order keys accepted by Securities.
var securityOrderKeys = map[string]func(a, b nepse.Security) bool{
	"symbol":     func(a, b nepse.Security) bool { return a.Symbol < b.Symbol },
	"name":       func(a, b nepse.Security) bool { return a.SecurityName < b.SecurityName },
	"open":       func(a, b nepse.Security) bool { return a.OpenPrice < b.OpenPrice },
	"high":       func(a, b nepse.Security) bool { return a.HighPrice < b.HighPrice },
	"low":        func(a, b nepse.Security) bool { return a.LowPrice < b.LowPrice },
	"ltp":        func(a, b nepse.Security) bool { return a.LastTradedPrice < b.LastTradedPrice },
	"prev.close": func(a, b nepse.Security) bool { return a.PreviousClose < b.PreviousClose },
	"volume":     func(a, b nepse.Security) bool { return a.TotalTradeQuantity < b.TotalTradeQuantity },
	"change":     func(a, b nepse.Security) bool { return a.PercentageChange < b.PercentageChange },
}

// SecurityOrderKeys lists the accepted order keys for Securities.
func SecurityOrderKeys() []string {
	keys := make([]string, 0, len(securityOrderKeys))
	for key := range securityOrderKeys {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Securities returns the catalog ordered by the given key, truncated to
// topN when topN > 0.
func (s *Service) Securities(orderBy string, asc bool, topN int) ([]nepse.Security, error) {
	less, ok := securityOrderKeys[orderBy]
	if !ok {
		return nil, fmt.Errorf("cannot order by %q, valid keys: %v", orderBy, SecurityOrderKeys())
	}

	s.mu.RLock()
	list := make([]nepse.Security, 0, len(s.securities))
	for _, security := range s.securities {
		list = append(list, security)
	}
	s.mu.RUnlock()

	if len(list) == 0 {
		return nil, ErrCatalogEmpty
	}
	// Pre-sort by symbol so equal keys rank deterministically.
	sort.Slice(list, func(i, j int) bool { return list[i].Symbol < list[j].Symbol })
	sort.SliceStable(list, func(i, j int) bool {
		if asc {
			return less(list[i], list[j])
		}
		return less(list[j], list[i])
	})

	if topN > 0 && len(list) > topN {
		list = list[:topN]
	}

	return list, nil
}

// validTradingDate applies the pre-request guard: the date must parse, must
// not fall on the exchange's closed weekdays (Friday and Saturday), must not
// be in the future and must not be a listed holiday. A false return is not
// an error, it is a well-defined "no data" answer.
func (s *Service) validTradingDate(date string) (bool, error) {
	parsed, err := time.Parse(DateLayout, date)
	if err != nil {
		return false, fmt.Errorf("invalid date %q: %w", date, err)
	}

	weekday := parsed.Weekday()
	if weekday == time.Friday || weekday == time.Saturday {
		s.logger.WithField("date", date).Info("Floorsheet is not available on Friday and Saturday")
		return false, nil
	}

	today := s.now().Format(DateLayout)
	if date > today {
		s.logger.WithField("date", date).Info("Floorsheet is not available for future dates")
		return false, nil
	}

	if s.isHoliday(date) {
		s.logger.WithField("date", date).Info("Floorsheet is not available on holidays")
		return false, nil
	}

	return true, nil
}

// emptyReport is the well-defined "no data" result.
func emptyReport() analysis.DayBrokerReport {
	return analysis.DayBrokerReport{Buy: analysis.RankedList{}, Sell: analysis.RankedList{}}
}

// SecurityFloorsheet aggregates one security's floorsheet for one business
// date into ranked buy/sell sides. Invalid dates and failed fetches yield an
// empty report, not an error, so downstream rendering degrades to an empty
// table.
func (s *Service) SecurityFloorsheet(ctx context.Context, symbol, date string, topN int) (analysis.DayBrokerReport, error) {
	if s.catalogSize() == 0 {
		return emptyReport(), ErrCatalogEmpty
	}

	security, ok := s.security(symbol)
	if !ok {
		return emptyReport(), fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}

	if date == "" {
		date = s.now().Format(DateLayout)
	}

	valid, err := s.validTradingDate(date)
	if err != nil {
		return emptyReport(), err
	}
	if !valid {
		return emptyReport(), nil
	}

	sheet, err := s.exchange.Floorsheet(ctx, security.SecurityID, date)
	if err != nil {
		if !errors.Is(err, nepse.ErrDateUnavailable) {
			s.logger.WithError(err).WithFields(map[string]interface{}{
				"symbol": symbol,
				"date":   date,
			}).Error("Floorsheet fetch failed")
		}
		return emptyReport(), nil
	}

	return analysis.AggregateSingleDay(sheet.Records, sheet.TotalQty, topN), nil
}

// SectorFloorsheet aggregates every security in a sector independently for
// one business date. The map is keyed by symbol.
func (s *Service) SectorFloorsheet(ctx context.Context, sectorID int, date string, topN int) (map[string]analysis.DayBrokerReport, error) {
	reports, _, err := s.sectorReports(ctx, sectorID, date, topN)
	return reports, err
}

// SectorCombined merges every security in the sector into one sector-wide
// ranking, re-normalized against the sector-wide totals.
func (s *Service) SectorCombined(ctx context.Context, sectorID int, date string, topN int) (analysis.DayBrokerReport, error) {
	// Per-security aggregation runs unbounded; truncation happens only
	// after the merge.
	_, ordered, err := s.sectorReports(ctx, sectorID, date, 0)
	if err != nil {
		return emptyReport(), err
	}
	return analysis.Combine(ordered, topN), nil
}

// sectorReports runs the per-security aggregation for one sector and date,
// returning both the symbol-keyed map and the catalog-ordered slice (the
// latter keeps downstream merges deterministic).
func (s *Service) sectorReports(ctx context.Context, sectorID int, date string, topN int) (map[string]analysis.DayBrokerReport, []analysis.DayBrokerReport, error) {
	if s.catalogSize() == 0 {
		return nil, nil, ErrCatalogEmpty
	}

	if !s.sectorExists(sectorID) {
		return nil, nil, fmt.Errorf("%w: %d", ErrUnknownSector, sectorID)
	}

	if date == "" {
		date = s.now().Format(DateLayout)
	}

	valid, err := s.validTradingDate(date)
	if err != nil {
		return nil, nil, err
	}
	if !valid {
		return map[string]analysis.DayBrokerReport{}, nil, nil
	}

	securities, err := s.exchange.SectorSecurities(ctx, sectorID)
	if err != nil {
		s.logger.WithError(err).WithField("sector_id", sectorID).Error("Failed to list sector securities")
		return map[string]analysis.DayBrokerReport{}, nil, nil
	}

	reports := make(map[string]analysis.DayBrokerReport, len(securities))
	ordered := make([]analysis.DayBrokerReport, 0, len(securities))
	for _, security := range securities {
		report, err := s.SecurityFloorsheet(ctx, security.Symbol, date, topN)
		if err != nil {
			// Unknown symbols inside a sector listing mean the catalog
			// and the sector endpoint disagree; skip and carry on.
			s.logger.WithError(err).WithField("symbol", security.Symbol).Warn("Skipping sector member")
			continue
		}
		reports[security.Symbol] = report
		ordered = append(ordered, report)
	}

	return reports, ordered, nil
}

// FloorsheetRange folds every calendar day in [start, end] inclusive into
// combined per-broker buy/sell totals for one security. Non-trading days
// contribute nothing.
func (s *Service) FloorsheetRange(ctx context.Context, symbol, start, end string) (analysis.RangeTotals, error) {
	days, err := dateRange(start, end)
	if err != nil {
		return nil, err
	}

	if s.catalogSize() == 0 {
		return nil, ErrCatalogEmpty
	}
	if _, ok := s.security(symbol); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}

	totals := make(analysis.RangeTotals)
	for _, day := range days {
		report, err := s.SecurityFloorsheet(ctx, symbol, day, 0)
		if err != nil {
			return nil, err
		}
		totals.Add(report)
	}

	return totals, nil
}

// SectorFloorsheetRange folds every calendar day in [start, end] inclusive
// into per-broker totals for every security in the sector, nested by symbol.
func (s *Service) SectorFloorsheetRange(ctx context.Context, sectorID int, start, end string) (map[string]analysis.RangeTotals, error) {
	days, err := dateRange(start, end)
	if err != nil {
		return nil, err
	}

	final := make(map[string]analysis.RangeTotals)
	for _, day := range days {
		reports, err := s.SectorFloorsheet(ctx, sectorID, day, 0)
		if err != nil {
			return nil, err
		}
		for symbol, report := range reports {
			totals, ok := final[symbol]
			if !ok {
				totals = make(analysis.RangeTotals)
				final[symbol] = totals
			}
			totals.Add(report)
		}
	}

	return final, nil
}

// dateRange expands [start, end] inclusive into ISO dates.
func dateRange(start, end string) ([]string, error) {
	from, err := time.Parse(DateLayout, start)
	if err != nil {
		return nil, fmt.Errorf("invalid start date %q: %w", start, err)
	}
	to, err := time.Parse(DateLayout, end)
	if err != nil {
		return nil, fmt.Errorf("invalid end date %q: %w", end, err)
	}
	if to.Before(from) {
		return nil, fmt.Errorf("end date %s precedes start date %s", end, start)
	}

	var days []string
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format(DateLayout))
	}
	return days, nil
}
