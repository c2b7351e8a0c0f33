// Package eodhd provides a market-data client for the EODHD API
package eodhd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/tradedesk/internal/common"
	"github.com/bobmcallan/tradedesk/internal/interfaces"
	"github.com/bobmcallan/tradedesk/internal/models"
)

// flexFloat64 handles JSON values that may be either a number or a string.
type flexFloat64 float64

func (f *flexFloat64) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*f = flexFloat64(num)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == "" || s == "NA" || s == "N/A" {
			*f = 0
			return nil
		}
		num, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = flexFloat64(num)
		return nil
	}
	if string(data) == "null" {
		*f = 0
		return nil
	}
	return fmt.Errorf("cannot unmarshal %s into float64", string(data))
}

const (
	DefaultBaseURL   = "https://eodhd.com/api"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 10 // requests per second
	DefaultExchange  = "US"
)

// Intraday intervals supported by the provider.
var validIntervals = map[string]bool{"1m": true, "5m": true, "1h": true}

// Client implements interfaces.MarketDataClient
type Client struct {
	baseURL    string
	apiKey     string
	exchange   string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithExchange sets the exchange suffix appended to symbols that carry none.
func WithExchange(exchange string) ClientOption {
	return func(c *Client) {
		if exchange != "" {
			c.exchange = strings.ToUpper(exchange)
		}
	}
}

// NewClient creates a new EODHD client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:  DefaultBaseURL,
		apiKey:   apiKey,
		exchange: DefaultExchange,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("EODHD API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// get performs a rate-limited GET request
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("api_token", c.apiKey)
	params.Set("fmt", "json")

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("url", c.baseURL+path).Msg("EODHD API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// ticker converts a catalogue symbol into the provider's SYMBOL.EXCHANGE form.
func (c *Client) ticker(symbol string) string {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if strings.Contains(symbol, ".") {
		return symbol
	}
	return symbol + "." + c.exchange
}

// realTimeResponse is the provider payload for /real-time.
type realTimeResponse struct {
	Code          string      `json:"code"`
	Timestamp     int64       `json:"timestamp"`
	Open          flexFloat64 `json:"open"`
	High          flexFloat64 `json:"high"`
	Low           flexFloat64 `json:"low"`
	Close         flexFloat64 `json:"close"`
	Volume        flexFloat64 `json:"volume"`
	PreviousClose flexFloat64 `json:"previousClose"`
	Change        flexFloat64 `json:"change"`
	ChangePct     flexFloat64 `json:"change_p"`
}

func (r *realTimeResponse) toQuote(symbol string) models.Quote {
	return models.Quote{
		Symbol:        symbol,
		Price:         float64(r.Close),
		Open:          float64(r.Open),
		High:          float64(r.High),
		Low:           float64(r.Low),
		PreviousClose: float64(r.PreviousClose),
		Change:        float64(r.Change),
		ChangePct:     float64(r.ChangePct),
		Volume:        int64(r.Volume),
		Timestamp:     time.Unix(r.Timestamp, 0),
		Source:        "eodhd",
	}
}

// matchesTicker reports whether the code returned by the provider belongs to
// the requested ticker. A bare code matches on the base symbol; a code with
// an exchange suffix must match exactly.
func matchesTicker(requested, returned string) bool {
	if returned == "" {
		return true
	}
	requested = strings.ToUpper(requested)
	returned = strings.ToUpper(returned)
	if requested == returned {
		return true
	}
	if strings.Contains(returned, ".") {
		return false
	}
	base, _, _ := strings.Cut(requested, ".")
	return base == returned
}

// GetRealTimeQuote retrieves the latest quote for symbol.
func (c *Client) GetRealTimeQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	ticker := c.ticker(symbol)
	path := fmt.Sprintf("/real-time/%s", ticker)

	var resp realTimeResponse
	if err := c.get(ctx, path, nil, &resp); err != nil {
		return nil, err
	}
	if !matchesTicker(ticker, resp.Code) {
		return nil, fmt.Errorf("ticker mismatch: requested %s, provider returned %s", ticker, resp.Code)
	}
	if resp.Close <= 0 {
		return nil, fmt.Errorf("no price for %s", ticker)
	}

	quote := resp.toQuote(models.NormalizeSymbol(symbol))
	return &quote, nil
}

// GetRealTimeQuotes retrieves quotes for several symbols in one request.
// Symbols the provider has no price for are omitted from the result.
func (c *Client) GetRealTimeQuotes(ctx context.Context, symbols []string) ([]models.Quote, error) {
	if len(symbols) == 0 {
		return nil, nil
	}
	if len(symbols) == 1 {
		q, err := c.GetRealTimeQuote(ctx, symbols[0])
		if err != nil {
			return nil, err
		}
		return []models.Quote{*q}, nil
	}

	byTicker := make(map[string]string, len(symbols))
	tickers := make([]string, 0, len(symbols))
	for _, s := range symbols {
		t := c.ticker(s)
		byTicker[t] = models.NormalizeSymbol(s)
		tickers = append(tickers, t)
	}

	params := url.Values{}
	params.Set("s", strings.Join(tickers[1:], ","))
	path := fmt.Sprintf("/real-time/%s", tickers[0])

	var resp []realTimeResponse
	if err := c.get(ctx, path, params, &resp); err != nil {
		return nil, err
	}

	quotes := make([]models.Quote, 0, len(resp))
	for i := range resp {
		symbol, ok := byTicker[strings.ToUpper(resp[i].Code)]
		if !ok || resp[i].Close <= 0 {
			continue
		}
		quotes = append(quotes, resp[i].toQuote(symbol))
	}
	return quotes, nil
}

// intradayBar is the provider payload for /intraday.
type intradayBar struct {
	Timestamp int64       `json:"timestamp"`
	Open      flexFloat64 `json:"open"`
	High      flexFloat64 `json:"high"`
	Low       flexFloat64 `json:"low"`
	Close     flexFloat64 `json:"close"`
	Volume    flexFloat64 `json:"volume"`
}

// GetIntraday retrieves intraday bars for symbol at interval (1m, 5m or 1h).
func (c *Client) GetIntraday(ctx context.Context, symbol, interval string) ([]models.IntradayBar, error) {
	if interval == "" {
		interval = "5m"
	}
	if !validIntervals[interval] {
		return nil, common.NewValidationError("interval", "must be one of 1m, 5m, 1h")
	}

	params := url.Values{}
	params.Set("interval", interval)
	path := fmt.Sprintf("/intraday/%s", c.ticker(symbol))

	var raw []intradayBar
	if err := c.get(ctx, path, params, &raw); err != nil {
		return nil, err
	}

	bars := make([]models.IntradayBar, 0, len(raw))
	for _, b := range raw {
		bars = append(bars, models.IntradayBar{
			Timestamp: time.Unix(b.Timestamp, 0),
			Open:      float64(b.Open),
			High:      float64(b.High),
			Low:       float64(b.Low),
			Close:     float64(b.Close),
			Volume:    int64(b.Volume),
		})
	}
	return bars, nil
}

// Compile-time check
var _ interfaces.MarketDataClient = (*Client)(nil)
