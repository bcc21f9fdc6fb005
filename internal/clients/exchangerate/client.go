// Package exchangerate provides currency exchange rates from exchangerate-api.com.
package exchangerate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultBaseURL is the public exchangerate-api.com endpoint
const DefaultBaseURL = "https://api.exchangerate-api.com/v4/latest"

// RequestRecorder receives the outcome of every upstream request
type RequestRecorder interface {
	RecordOracleRequest(source string, duration time.Duration, err error)
}

// Client for exchangerate-api.com
type Client struct {
	baseURL  string
	client   *http.Client
	recorder RequestRecorder
	log      zerolog.Logger
}

// NewClient creates a new exchangerate-api.com client.
// An empty baseURL uses DefaultBaseURL.
func NewClient(baseURL string, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
		log:     log.With().Str("client", "exchangerate-api").Logger(),
	}
}

// SetRecorder sets the metrics recorder
func (c *Client) SetRecorder(r RequestRecorder) {
	c.recorder = r
}

// GetRate returns how many units of toCurrency one unit of fromCurrency buys
func (c *Client) GetRate(ctx context.Context, fromCurrency, toCurrency string) (float64, error) {
	fromCurrency = strings.ToUpper(fromCurrency)
	toCurrency = strings.ToUpper(toCurrency)
	if fromCurrency == toCurrency {
		return 1.0, nil
	}

	start := time.Now()
	rate, err := c.fetchRate(ctx, fromCurrency, toCurrency)
	if c.recorder != nil {
		c.recorder.RecordOracleRequest("exchangerate", time.Since(start), err)
	}
	if err != nil {
		return 0, err
	}

	c.log.Debug().
		Str("from", fromCurrency).
		Str("to", toCurrency).
		Float64("rate", rate).
		Msg("Fetched rate")

	return rate, nil
}

func (c *Client) fetchRate(ctx context.Context, fromCurrency, toCurrency string) (float64, error) {
	url := fmt.Sprintf("%s/%s", c.baseURL, fromCurrency)
	c.log.Debug().Str("url", url).Msg("Fetching rates")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var result struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("failed to parse response: %w", err)
	}

	rate, exists := result.Rates[toCurrency]
	if !exists || rate <= 0 {
		return 0, fmt.Errorf("rate not found for %s->%s", fromCurrency, toCurrency)
	}

	return rate, nil
}
