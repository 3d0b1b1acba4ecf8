package eosrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Config holds configuration for the chain API client.
type Config struct {
	// BaseURL is the base URL of the chain API node.
	// Default: https://eos.greymass.com
	BaseURL string

	// RateLimit is the number of requests per second allowed.
	// Default: 5
	RateLimit int

	// Timeout is the HTTP request timeout.
	// Default: 15 seconds
	Timeout time.Duration

	// RetryAttempts is the number of retry attempts for failed requests.
	// Default: 2
	RetryAttempts int

	// RetryDelay is the delay between retry attempts.
	// Default: 500 milliseconds
	RetryDelay time.Duration

	// CacheTTL is how long currency stats stay cached.
	// Default: 5 minutes
	CacheTTL time.Duration
}

// DefaultConfig returns a default configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:       "https://eos.greymass.com",
		RateLimit:     5,
		Timeout:       15 * time.Second,
		RetryAttempts: 2,
		RetryDelay:    500 * time.Millisecond,
		CacheTTL:      5 * time.Minute,
	}
}

// Client is an HTTP client for the chain API with rate limiting.
type Client struct {
	cfg *Config

	httpClient  *http.Client
	rateLimiter *rate.Limiter

	stats *statsCache
}

// NewClient creates a new chain API client.
func NewClient(cfg *Config) *Client {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimit)

	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		rateLimiter: limiter,
		stats:       newStatsCache(cfg.CacheTTL),
	}
}

// doRequest posts body to path with rate limiting and retries, decoding the
// JSON response into out.
func (c *Client) doRequest(ctx context.Context, path string, body interface{},
	out interface{}) error {

	url := c.cfg.BaseURL + path

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.RetryAttempts; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter error: %w", err)
		}

		respBody, status, err := c.post(ctx, url, payload)
		if err != nil {
			lastErr = fmt.Errorf("HTTP request failed: %w", err)
			if attempt < c.cfg.RetryAttempts && ctx.Err() == nil {
				c.backoff(ctx, attempt, 1)
				continue
			}
			return lastErr
		}

		if status >= 200 && status < 300 {
			if out == nil {
				return nil
			}
			if err := json.Unmarshal(respBody, out); err != nil {
				return fmt.Errorf("failed to parse response: %w",
					err)
			}
			return nil
		}

		switch status {
		case http.StatusTooManyRequests:
			lastErr = fmt.Errorf("rate limited by node (429)")
			if attempt < c.cfg.RetryAttempts {
				c.backoff(ctx, attempt, 2)
				continue
			}
		case 500, 502, 503, 504:
			lastErr = newAPIError(status, respBody)
			if attempt < c.cfg.RetryAttempts {
				c.backoff(ctx, attempt, 1)
				continue
			}
		default:
			return newAPIError(status, respBody)
		}
	}

	return fmt.Errorf("request failed after %d attempts: %w",
		c.cfg.RetryAttempts+1, lastErr)
}

func (c *Client) post(ctx context.Context, url string,
	payload []byte) ([]byte, int, error) {

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, url, reqBody,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response body: %w",
			err)
	}

	return respBody, resp.StatusCode, nil
}

// backoff sleeps before the next attempt unless ctx is done first.
func (c *Client) backoff(ctx context.Context, attempt, factor int) {
	delay := c.cfg.RetryDelay * time.Duration((attempt+1)*factor)

	select {
	case <-time.After(delay):
	case <-ctx.Done():
	}
}

// GetInfo returns the node's chain info.
func (c *Client) GetInfo(ctx context.Context) (*InfoResponse, error) {
	var info InfoResponse
	if err := c.doRequest(ctx, "/v1/chain/get_info", nil, &info); err != nil {
		return nil, err
	}

	return &info, nil
}

// GetTableRows queries a contract table.
func (c *Client) GetTableRows(ctx context.Context,
	req *TableRowsRequest) (*TableRowsResponse, error) {

	var resp TableRowsResponse
	err := c.doRequest(ctx, "/v1/chain/get_table_rows", req, &resp)
	if err != nil {
		return nil, err
	}

	return &resp, nil
}

// GetCurrencyStats returns the token stats of symbol issued by code.
// Results are cached for the configured TTL.
func (c *Client) GetCurrencyStats(ctx context.Context, code,
	symbol string) (*CurrencyStats, error) {

	key := code + "/" + symbol
	if stats, ok := c.stats.get(key); ok {
		return stats, nil
	}

	var resp map[string]CurrencyStats
	err := c.doRequest(ctx, "/v1/chain/get_currency_stats",
		&currencyStatsRequest{Code: code, Symbol: symbol}, &resp)
	if err != nil {
		return nil, err
	}

	stats, ok := resp[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: %s on %s", ErrUnknownSymbol, symbol,
			code)
	}

	c.stats.set(key, &stats)

	return &stats, nil
}
