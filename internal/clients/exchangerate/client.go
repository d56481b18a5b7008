// Package exchangerate provides currency exchange rate fetching with bounded
// retries. A fetch either succeeds and yields a complete, consistent rate
// set, or fails and leaves prior state untouched.
package exchangerate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// NetworkError reports a rate fetch that failed after all attempts.
type NetworkError struct {
	Attempts int
	Last     error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("rate fetch failed after %d attempt(s): %v", e.Attempts, e.Last)
}

func (e *NetworkError) Unwrap() error { return e.Last }

// RateSet is one consistent snapshot of rates for a base currency.
type RateSet struct {
	Base     string
	Rates    map[string]float64
	Attempts int // attempts spent fetching, including the successful one
}

// Client for exchangerate-api.com style endpoints.
type Client struct {
	baseURL     string
	client      *http.Client
	log         zerolog.Logger
	maxAttempts int
	baseDelay   time.Duration
}

// NewClient creates a rate client with bounded retry: up to 3 attempts with
// the delay doubling between them.
func NewClient(baseURL string, log zerolog.Logger) *Client {
	return &Client{
		baseURL:     baseURL,
		client:      &http.Client{Timeout: 10 * time.Second},
		log:         log.With().Str("client", "exchangerate").Logger(),
		maxAttempts: 3,
		baseDelay:   500 * time.Millisecond,
	}
}

// FetchRates fetches the current rates for a base currency. The context
// cancels both an in-flight request and the backoff wait between attempts.
func (c *Client) FetchRates(ctx context.Context, base string) (*RateSet, error) {
	var lastErr error
	delay := c.baseDelay

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		rates, err := c.fetchOnce(ctx, base)
		if err == nil {
			return &RateSet{Base: base, Rates: rates, Attempts: attempt}, nil
		}
		lastErr = err
		c.log.Warn().
			Err(err).
			Int("attempt", attempt).
			Str("base", base).
			Msg("Rate fetch attempt failed")

		if ctx.Err() != nil {
			return nil, &NetworkError{Attempts: attempt, Last: ctx.Err()}
		}
		if attempt == c.maxAttempts {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, &NetworkError{Attempts: attempt, Last: ctx.Err()}
		}
		delay *= 2
	}
	return nil, &NetworkError{Attempts: c.maxAttempts, Last: lastErr}
}

func (c *Client) fetchOnce(ctx context.Context, base string) (map[string]float64, error) {
	url := fmt.Sprintf("%s/%s", c.baseURL, base)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var result struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(result.Rates) == 0 {
		return nil, fmt.Errorf("response contained no rates")
	}
	return result.Rates, nil
}
