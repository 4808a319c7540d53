package nepse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Reference-data loaders: the securities catalog, the sector index list and
// the holiday calendar. Each is fetched once per process and cached by the
// owning service, never by this client.

// Securities fetches the full daily-trade-stat catalog for the whole market.
func (c *Client) Securities(ctx context.Context) ([]Security, error) {
	return c.dailyTradeStat(ctx, allSecuritiesIndex)
}

// SectorSecurities fetches the securities belonging to one sector index.
func (c *Client) SectorSecurities(ctx context.Context, sectorID int) ([]Security, error) {
	return c.dailyTradeStat(ctx, sectorID)
}

func (c *Client) dailyTradeStat(ctx context.Context, index int) ([]Security, error) {
	path := fmt.Sprintf("/api/nots/securityDailyTradeStat/%d", index)
	body, err := c.request(ctx, http.MethodGet, path, c.cfg.BaseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch daily trade stat %d: %w", index, err)
	}

	var securities []Security
	if err := json.Unmarshal(body, &securities); err != nil {
		return nil, fmt.Errorf("decode daily trade stat %d: %w", index, err)
	}

	return securities, nil
}

// Sectors fetches the sector index list.
func (c *Client) Sectors(ctx context.Context) ([]Sector, error) {
	body, err := c.request(ctx, http.MethodGet, "/api/nots", c.cfg.BaseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch sectors: %w", err)
	}

	var sectors []Sector
	if err := json.Unmarshal(body, &sectors); err != nil {
		return nil, fmt.Errorf("decode sectors: %w", err)
	}

	return sectors, nil
}

// Holidays fetches the exchange holiday dates (ISO form) for one calendar
// year.
func (c *Client) Holidays(ctx context.Context, year int) ([]string, error) {
	path := fmt.Sprintf("/api/nots/holiday/list?year=%d", year)
	body, err := c.request(ctx, http.MethodGet, path, c.cfg.BaseURL+"/holiday-listing", nil)
	if err != nil {
		return nil, fmt.Errorf("fetch holidays for %d: %w", year, err)
	}

	var holidays []Holiday
	if err := json.Unmarshal(body, &holidays); err != nil {
		return nil, fmt.Errorf("decode holidays for %d: %w", year, err)
	}

	dates := make([]string, 0, len(holidays))
	for _, h := range holidays {
		dates = append(dates, h.HolidayDate)
	}

	return dates, nil
}
