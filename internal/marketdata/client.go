package marketdata

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

	"github.com/shopspring/decimal"

	"fundbot/internal/logger"
)

const (
	defaultBaseURL = "https://api.financialdatasets.ai"
	dateLayout     = "2006-01-02"
)

// Client talks to a financialdatasets-compatible REST API. Zero value is not
// usable; construct with NewClient.
type Client struct {
	baseURL    string
	apiKey     string
	httpc      *http.Client
	maxRetries int
}

type ClientOption func(*Client)

func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.httpc.Timeout = d }
}

func WithMaxRetries(n int) ClientOption {
	return func(c *Client) { c.maxRetries = n }
}

func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		httpc:      &http.Client{Timeout: 30 * time.Second},
		maxRetries: 2,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) GetPrices(ctx context.Context, ticker string, start, end time.Time) ([]Price, error) {
	q := url.Values{}
	q.Set("ticker", ticker)
	q.Set("interval", "day")
	q.Set("interval_multiplier", "1")
	q.Set("start_date", start.Format(dateLayout))
	q.Set("end_date", end.Format(dateLayout))

	var payload struct {
		Prices []struct {
			Time   string  `json:"time"`
			Open   float64 `json:"open"`
			High   float64 `json:"high"`
			Low    float64 `json:"low"`
			Close  float64 `json:"close"`
			Volume int64   `json:"volume"`
		} `json:"prices"`
	}
	if err := c.getJSON(ctx, "/prices/", q, &payload); err != nil {
		return nil, err
	}
	out := make([]Price, 0, len(payload.Prices))
	for _, p := range payload.Prices {
		ts, err := parseBarTime(p.Time)
		if err != nil {
			logger.Warnf("marketdata: skipping bar with bad timestamp %q for %s", p.Time, ticker)
			continue
		}
		out = append(out, Price{
			Time:   ts,
			Open:   decimal.NewFromFloat(p.Open),
			High:   decimal.NewFromFloat(p.High),
			Low:    decimal.NewFromFloat(p.Low),
			Close:  decimal.NewFromFloat(p.Close),
			Volume: p.Volume,
		})
	}
	return out, nil
}

func (c *Client) GetFinancialMetrics(ctx context.Context, ticker string, asOf time.Time, period string, limit int) ([]FinancialMetrics, error) {
	if period == "" {
		period = "ttm"
	}
	q := url.Values{}
	q.Set("ticker", ticker)
	q.Set("report_period_lte", asOf.Format(dateLayout))
	q.Set("period", period)
	q.Set("limit", strconv.Itoa(limit))

	var payload struct {
		FinancialMetrics []FinancialMetrics `json:"financial_metrics"`
	}
	if err := c.getJSON(ctx, "/financial-metrics/", q, &payload); err != nil {
		return nil, err
	}
	return payload.FinancialMetrics, nil
}

func (c *Client) GetInsiderTrades(ctx context.Context, ticker string, asOf time.Time, limit int) ([]InsiderTrade, error) {
	q := url.Values{}
	q.Set("ticker", ticker)
	q.Set("filing_date_lte", asOf.Format(dateLayout))
	q.Set("limit", strconv.Itoa(limit))

	var payload struct {
		InsiderTrades []InsiderTrade `json:"insider_trades"`
	}
	if err := c.getJSON(ctx, "/insider-trades/", q, &payload); err != nil {
		return nil, err
	}
	return payload.InsiderTrades, nil
}

func (c *Client) GetCompanyNews(ctx context.Context, ticker string, asOf time.Time, limit int) ([]NewsItem, error) {
	q := url.Values{}
	q.Set("ticker", ticker)
	q.Set("end_date", asOf.Format(dateLayout))
	q.Set("limit", strconv.Itoa(limit))

	var payload struct {
		News []NewsItem `json:"news"`
	}
	if err := c.getJSON(ctx, "/news/", q, &payload); err != nil {
		return nil, err
	}
	return payload.News, nil
}

func (c *Client) GetMarketCap(ctx context.Context, ticker string, asOf time.Time) (decimal.Decimal, error) {
	q := url.Values{}
	q.Set("ticker", ticker)
	q.Set("report_period_lte", asOf.Format(dateLayout))
	q.Set("limit", "1")

	var payload struct {
		CompanyFacts struct {
			MarketCap *float64 `json:"market_cap"`
		} `json:"company_facts"`
	}
	if err := c.getJSON(ctx, "/company/facts/", q, &payload); err != nil {
		return decimal.Zero, err
	}
	if payload.CompanyFacts.MarketCap == nil {
		return decimal.Zero, fmt.Errorf("market cap missing for %s: %w", ticker, ErrNotFound)
	}
	return decimal.NewFromFloat(*payload.CompanyFacts.MarketCap), nil
}

// getJSON performs one GET with bounded retry on 429/5xx responses.
func (c *Client) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	endpoint := c.baseURL + path + "?" + q.Encode()
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		if c.apiKey != "" {
			req.Header.Set("X-API-KEY", c.apiKey)
		}
		resp, err := c.httpc.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: %v", ErrUnavailable, err)
			continue
		}
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		resp.Body.Close()
		if readErr != nil {
			lastErr = fmt.Errorf("%w: %v", ErrUnavailable, readErr)
			continue
		}
		switch {
		case resp.StatusCode/100 == 2:
			if err := json.Unmarshal(body, out); err != nil {
				return fmt.Errorf("marketdata: decoding %s failed: %w", path, err)
			}
			return nil
		case resp.StatusCode == http.StatusTooManyRequests:
			lastErr = &APIError{Status: resp.StatusCode, Body: truncate(body), Kind: ErrRateLimited}
			continue
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return &APIError{Status: resp.StatusCode, Body: truncate(body), Kind: ErrAuth}
		case resp.StatusCode == http.StatusNotFound:
			return &APIError{Status: resp.StatusCode, Body: truncate(body), Kind: ErrNotFound}
		case resp.StatusCode/100 == 5:
			lastErr = &APIError{Status: resp.StatusCode, Body: truncate(body), Kind: ErrUnavailable}
			continue
		default:
			return &APIError{Status: resp.StatusCode, Body: truncate(body), Kind: ErrUnavailable}
		}
	}
	return lastErr
}

func parseBarTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	return time.Parse(dateLayout, strings.SplitN(s, "T", 2)[0])
}

func truncate(b []byte) string {
	const max = 256
	if len(b) <= max {
		return string(b)
	}
	return string(b[:max]) + "..."
}
