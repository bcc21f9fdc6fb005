// Package yahoo provides quotes and currency rates from the Yahoo Finance chart API.
package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the public chart API host
const DefaultBaseURL = "https://query1.finance.yahoo.com"

// ErrNoPriceData is returned when the chart response carries no usable price
var ErrNoPriceData = errors.New("no price data")

// APIError is a non-200 response from the chart API
type APIError struct {
	StatusCode int
	Symbol     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("yahoo API error: HTTP %d for %s", e.StatusCode, e.Symbol)
}

// RequestRecorder receives the outcome of every upstream request
type RequestRecorder interface {
	RecordOracleRequest(source string, duration time.Duration, err error)
}

// Config configures the client
type Config struct {
	BaseURL              string
	RequestsPerSecond    float64
	Burst                int
	MaxConsecutiveErrors uint32        // consecutive failures that open the breaker
	OpenTimeout          time.Duration // how long the breaker stays open
	Timeout              time.Duration
}

// Quote is the latest price of a symbol in its quote currency
type Quote struct {
	Symbol   string  `json:"symbol"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
}

// Client talks to the Yahoo Finance chart API.
// Requests are rate limited and pass through a circuit breaker.
type Client struct {
	baseURL  string
	client   *http.Client
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker
	recorder RequestRecorder
	log      zerolog.Logger
}

// NewClient creates a new Yahoo Finance client
func NewClient(cfg Config, log zerolog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 2
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.MaxConsecutiveErrors == 0 {
		cfg.MaxConsecutiveErrors = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		log:     log.With().Str("client", "yahoo").Logger(),
	}

	maxErrors := cfg.MaxConsecutiveErrors
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "yahoo",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxErrors
		},
		// Unknown symbols are the caller's problem, not an upstream outage
		IsSuccessful: func(err error) bool {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 && apiErr.StatusCode != http.StatusTooManyRequests
			}
			return err == nil || errors.Is(err, ErrNoPriceData)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
		},
	})

	return c
}

// SetRecorder sets the metrics recorder
func (c *Client) SetRecorder(r RequestRecorder) {
	c.recorder = r
}

// GetQuote returns the latest daily close of symbol and its quote currency
func (c *Client) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	start := time.Now()
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.fetchChart(ctx, symbol)
	})
	if c.recorder != nil {
		c.recorder.RecordOracleRequest("yahoo", time.Since(start), err)
	}
	if err != nil {
		return nil, err
	}

	quote := result.(*Quote)
	c.log.Debug().
		Str("symbol", symbol).
		Float64("price", quote.Price).
		Str("currency", quote.Currency).
		Msg("Fetched quote")

	return quote, nil
}

// GetPrice returns the latest price of symbol in its quote currency
func (c *Client) GetPrice(ctx context.Context, symbol string) (float64, error) {
	quote, err := c.GetQuote(ctx, symbol)
	if err != nil {
		return 0, err
	}
	return quote.Price, nil
}

// GetRate returns how many units of toCurrency one unit of fromCurrency buys,
// using the FROMTO=X currency pair.
func (c *Client) GetRate(ctx context.Context, fromCurrency, toCurrency string) (float64, error) {
	fromCurrency = strings.ToUpper(fromCurrency)
	toCurrency = strings.ToUpper(toCurrency)
	if fromCurrency == toCurrency {
		return 1.0, nil
	}
	return c.GetPrice(ctx, PairSymbol(fromCurrency, toCurrency))
}

// PairSymbol returns the Yahoo symbol of a currency pair, e.g. USDTWD=X
func PairSymbol(fromCurrency, toCurrency string) string {
	return fmt.Sprintf("%s%s=X", strings.ToUpper(fromCurrency), strings.ToUpper(toCurrency))
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency           string  `json:"currency"`
				Symbol             string  `json:"symbol"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (c *Client) fetchChart(ctx context.Context, symbol string) (*Quote, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d", c.baseURL, url.PathEscape(symbol))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; rebalancer)")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo request for %s failed: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Symbol: symbol}
	}

	var data chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to parse chart response for %s: %w", symbol, err)
	}

	if data.Chart.Error != nil {
		return nil, fmt.Errorf("%w for %s: %s", ErrNoPriceData, symbol, data.Chart.Error.Description)
	}
	if len(data.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoPriceData, symbol)
	}

	result := data.Chart.Result[0]
	price := result.Meta.RegularMarketPrice
	if quotes := result.Indicators.Quote; len(quotes) > 0 && len(quotes[0].Close) > 0 && quotes[0].Close[0] != nil {
		price = *quotes[0].Close[0]
	}
	if price <= 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoPriceData, symbol)
	}

	return &Quote{
		Symbol:   symbol,
		Price:    price,
		Currency: strings.ToUpper(result.Meta.Currency),
	}, nil
}
