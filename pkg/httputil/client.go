package httputil

import (
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/pawanpaudel93/nepse-analysis/pkg/logger"
)

// Client is an HTTP client wrapper with retry logic, request throttling
// and logging. All HTTP requests go through this client.
//
// The throttle is a token bucket refilled at one request per interval,
// so requests are never issued faster than the configured rate.
type Client struct {
	httpClient  *http.Client
	logger      *logger.Logger
	retryConfig RetryConfig
	limiter     *rate.Limiter
}

// RetryConfig holds retry configuration.
type RetryConfig struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Statuses     map[int]bool // HTTP statuses that trigger a retry
}

// DefaultRetryStatuses returns the set of statuses retried by default.
// 401 and 413 are included only when retryAuth is set; 401 is normally
// the session layer's business (refresh-and-retry-once).
func DefaultRetryStatuses(retryAuth bool) map[int]bool {
	statuses := map[int]bool{
		http.StatusTooManyRequests:    true,
		http.StatusBadGateway:         true,
		http.StatusServiceUnavailable: true,
		http.StatusGatewayTimeout:     true,
	}
	if retryAuth {
		statuses[http.StatusUnauthorized] = true
		statuses[http.StatusRequestEntityTooLarge] = true
	}
	return statuses
}

// New creates a new HTTP client.
func New(log *logger.Logger, timeout, interval time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: log,
		retryConfig: RetryConfig{
			MaxRetries:   3,
			InitialDelay: 1 * time.Second,
			MaxDelay:     10 * time.Second,
			Statuses:     DefaultRetryStatuses(false),
		},
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}
}

// WithRetry configures retry behaviour.
func (c *Client) WithRetry(maxRetries int, statuses map[int]bool) *Client {
	c.retryConfig.MaxRetries = maxRetries
	if statuses != nil {
		c.retryConfig.Statuses = statuses
	}
	return c
}

// Do executes the request with throttling, retry and logging.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	startTime := time.Now()
	url := req.URL.String()
	method := req.Method

	// Politeness throttle: never issue requests faster than the
	// configured interval.
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("throttle wait: %w", err)
	}

	c.logger.WithFields(map[string]interface{}{
		"method": method,
		"url":    url,
	}).Debug("HTTP request started")

	resp, err := c.doWithRetry(req)

	duration := time.Since(startTime)

	if err != nil {
		c.logger.WithFields(map[string]interface{}{
			"method":   method,
			"url":      url,
			"duration": duration,
			"error":    err.Error(),
		}).Error("HTTP request failed")
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"method":      method,
		"url":         url,
		"status_code": resp.StatusCode,
		"duration":    duration,
	}).Debug("HTTP request completed")

	return resp, nil
}

// doWithRetry executes the request with bounded exponential backoff.
func (c *Client) doWithRetry(req *http.Request) (*http.Response, error) {
	var resp *http.Response
	var err error

	delay := c.retryConfig.InitialDelay

	for attempt := 0; attempt <= c.retryConfig.MaxRetries; attempt++ {
		if attempt > 0 && req.GetBody != nil {
			body, bodyErr := req.GetBody()
			if bodyErr != nil {
				return nil, fmt.Errorf("rewind request body: %w", bodyErr)
			}
			req.Body = body
		}

		resp, err = c.httpClient.Do(req)

		if err == nil && !c.retryConfig.Statuses[resp.StatusCode] {
			return resp, nil
		}

		// Last attempt: return whatever we have
		if attempt == c.retryConfig.MaxRetries {
			break
		}

		if resp != nil {
			resp.Body.Close()
		}

		c.logger.WithFields(map[string]interface{}{
			"attempt": attempt + 1,
			"delay":   delay,
			"url":     req.URL.String(),
		}).Warn("Retrying HTTP request")

		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(delay):
		}

		delay *= 2
		if delay > c.retryConfig.MaxDelay {
			delay = c.retryConfig.MaxDelay
		}
	}

	return resp, err
}
