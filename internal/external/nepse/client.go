package nepse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/pawanpaudel93/nepse-analysis/pkg/config"
	"github.com/pawanpaudel93/nepse-analysis/pkg/httputil"
	"github.com/pawanpaudel93/nepse-analysis/pkg/logger"
)

// The daily-trade-stat index that returns the whole market rather than a
// single sector.
const allSecuritiesIndex = 58

// Client owns one authenticated NEPSE session: the decoded token pair, the
// derived floorsheet payload id, and every request made against the site.
// CLI fetching is sequential, but serve mode shares one client across
// handlers, so the session state is mutex-guarded.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	cfg        config.NEPSEConfig

	mu        sync.Mutex
	tokens    TokenPair
	payloadID int

	// now is stubbed in tests; PostID depends on the calendar day.
	now func() time.Time
}

func (c *Client) currentTokens() TokenPair {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tokens
}

func (c *Client) setTokens(tokens TokenPair) {
	c.mu.Lock()
	c.tokens = tokens
	c.mu.Unlock()
}

func (c *Client) currentPayloadID() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.payloadID
}

// NewClient creates an unauthenticated NEPSE client. Call Authenticate
// before issuing any data request.
func NewClient(cfg config.NEPSEConfig, httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		cfg:        cfg,
		now:        time.Now,
	}
}

// Authenticate fetches and decodes the initial token pair, then derives the
// numeric payload id the floorsheet endpoint requires. A decode failure here
// is fatal; the session cannot proceed without valid tokens.
func (c *Client) Authenticate(ctx context.Context) error {
	body, err := c.request(ctx, http.MethodGet, "/api/authenticate/prove", c.cfg.BaseURL, nil)
	if err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}

	var payload AuthPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("authenticate: decode envelope: %w", err)
	}

	tokens, err := DecodeTokens(payload)
	if err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}
	c.setTokens(tokens)
	c.logger.Info("NEPSE session authenticated")

	return c.fetchPayloadID(ctx)
}

// refresh exchanges the refresh token for a new pair using the same decode
// routine as Authenticate. It bypasses request() so a 401 from the refresh
// endpoint itself can never trigger another refresh.
func (c *Client) refresh(ctx context.Context) error {
	body, status, err := c.send(ctx, http.MethodPost, "/api/authenticate/refresh-token", c.cfg.BaseURL+"/",
		map[string]string{"refreshToken": c.currentTokens().RefreshToken})
	if err != nil {
		return fmt.Errorf("refresh token: %w", err)
	}
	if err := checkStatus(status, body); err != nil {
		return fmt.Errorf("refresh token: %w", err)
	}

	var payload AuthPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("refresh token: decode envelope: %w", err)
	}

	tokens, err := DecodeTokens(payload)
	if err != nil {
		return fmt.Errorf("refresh token: %w", err)
	}
	c.setTokens(tokens)
	c.logger.Info("NEPSE token pair refreshed")

	return nil
}

// fetchPayloadID reads the market-open id and maps it through the post-id
// derivation.
func (c *Client) fetchPayloadID(ctx context.Context) error {
	body, err := c.request(ctx, http.MethodGet, "/api/nots/nepse-data/market-open", c.cfg.BaseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("fetch market-open id: %w", err)
	}

	var open MarketOpen
	if err := json.Unmarshal(body, &open); err != nil {
		return fmt.Errorf("fetch market-open id: decode: %w", err)
	}

	id, err := PostID(open.ID, c.now().Day())
	if err != nil {
		return fmt.Errorf("fetch market-open id: %w", err)
	}
	c.mu.Lock()
	c.payloadID = id
	c.mu.Unlock()

	return nil
}

// request issues one authenticated request and returns the response body.
// On a 401 it refreshes the token pair exactly once and retries the
// original request once; a second 401 surfaces as ErrUnauthorized.
func (c *Client) request(ctx context.Context, method, path, referer string, payload interface{}) ([]byte, error) {
	body, status, err := c.send(ctx, method, path, referer, payload)
	if err != nil {
		return nil, err
	}

	if status == http.StatusUnauthorized {
		// The access token expired mid-session. Refresh once, retry once.
		if refreshErr := c.refresh(ctx); refreshErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnauthorized, refreshErr)
		}
		body, status, err = c.send(ctx, method, path, referer, payload)
		if err != nil {
			return nil, err
		}
		if status == http.StatusUnauthorized {
			return nil, ErrUnauthorized
		}
	}

	if err := checkStatus(status, body); err != nil {
		return nil, err
	}

	return body, nil
}

// checkStatus maps a non-2xx response onto the error taxonomy.
func checkStatus(status int, body []byte) error {
	if status >= 200 && status <= 299 {
		return nil
	}
	text := strings.TrimSpace(string(body))
	if strings.Trim(text, `"`) == "Searched Date is not valid." {
		return ErrDateUnavailable
	}
	return &StatusError{StatusCode: status, Body: text}
}

// send performs a single request attempt (transport retries aside) and
// returns the raw body and status.
func (c *Client) send(ctx context.Context, method, path, referer string, payload interface{}) ([]byte, int, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("marshal payload: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}

	c.setCommonHeaders(req, referer)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Origin", c.cfg.BaseURL)
	}
	if token := c.currentTokens().AccessToken; token != "" {
		// The site uses a home-grown "Salter" scheme, not Bearer.
		req.Header.Set("Authorization", "Salter "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read response body: %w", err)
	}

	return body, resp.StatusCode, nil
}

// setCommonHeaders applies the browser-shaped headers the site expects.
// Anything less trips its anti-bot filtering.
func (c *Client) setCommonHeaders(req *http.Request, referer string) {
	req.Header.Set("Authority", strings.TrimPrefix(c.cfg.BaseURL, "https://"))
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("User-Agent",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/98.0.4758.102 Safari/537.36")
	req.Header.Set("Sec-GPC", "1")
	req.Header.Set("Sec-Fetch-Site", "same-origin")
	req.Header.Set("Sec-Fetch-Mode", "cors")
	req.Header.Set("Sec-Fetch-Dest", "empty")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Referer", referer)
}
