package nepse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Floorsheet fetches every trade record for one security on one business
// date, paging until the server reports the last page. The page index
// increments until exhaustion; empty pages contribute nothing. An explicit
// "Searched Date is not valid." response terminates the fetch with
// ErrDateUnavailable instead of looping.
func (c *Client) Floorsheet(ctx context.Context, securityID int, date string) (*Floorsheet, error) {
	path := fmt.Sprintf("/api/nots/security/floorsheet/%d", securityID)
	referer := fmt.Sprintf("%s/company/detail/%d", c.cfg.BaseURL, securityID)
	payload := map[string]int{"id": c.currentPayloadID()}

	result := &Floorsheet{}

	for page := 0; ; page++ {
		query := fmt.Sprintf("?size=%d&businessDate=%s&sort=contractId,asc&page=%d",
			c.cfg.PageSize, date, page)

		body, err := c.request(ctx, http.MethodPost, path+query, referer, payload)
		if err != nil {
			if errors.Is(err, ErrDateUnavailable) {
				c.logger.WithFields(map[string]interface{}{
					"security_id": securityID,
					"date":        date,
				}).Warn("Server rejected business date")
				return nil, err
			}
			return nil, fmt.Errorf("fetch floorsheet page %d: %w", page, err)
		}

		var envelope floorsheetEnvelope
		if err := json.Unmarshal(body, &envelope); err != nil {
			return nil, fmt.Errorf("decode floorsheet page %d: %w", page, err)
		}

		result.TotalQty = envelope.TotalQty
		if !envelope.Floorsheets.Empty {
			result.Records = append(result.Records, envelope.Floorsheets.Content...)
		}

		if envelope.Floorsheets.Last {
			break
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"security_id": securityID,
		"date":        date,
		"records":     len(result.Records),
		"total_qty":   result.TotalQty,
	}).Debug("Floorsheet fetched")

	return result, nil
}
