// Package marketdata defines the market-data provider boundary consumed by
// the analyst producers, plus a REST client and a read-through cache.
package marketdata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Provider failures analysts care about. Any of these is a producer-local
// failure, never a pipeline abort.
var (
	ErrNotFound    = errors.New("marketdata: not found")
	ErrRateLimited = errors.New("marketdata: rate limited")
	ErrAuth        = errors.New("marketdata: authentication failed")
	ErrUnavailable = errors.New("marketdata: provider unavailable")
)

// APIError wraps a provider response failure with its HTTP status.
type APIError struct {
	Status int
	Body   string
	Kind   error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("marketdata: status=%d body=%s", e.Status, e.Body)
}

func (e *APIError) Unwrap() error { return e.Kind }

// Price is one daily bar.
type Price struct {
	Time   time.Time       `json:"time"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume int64           `json:"volume"`
}

// FinancialMetrics is one reporting period's fundamentals snapshot. Fields
// are pointers because providers routinely omit line items.
type FinancialMetrics struct {
	Ticker               string   `json:"ticker"`
	ReportPeriod         string   `json:"report_period"`
	ReturnOnEquity       *float64 `json:"return_on_equity"`
	NetMargin            *float64 `json:"net_margin"`
	OperatingMargin      *float64 `json:"operating_margin"`
	PriceToEarningsRatio *float64 `json:"price_to_earnings_ratio"`
	PriceToBookRatio     *float64 `json:"price_to_book_ratio"`
	PriceToSalesRatio    *float64 `json:"price_to_sales_ratio"`
	RevenueGrowth        *float64 `json:"revenue_growth"`
	EarningsGrowth       *float64 `json:"earnings_growth"`
	FreeCashFlowPerShare *float64 `json:"free_cash_flow_per_share"`
	EarningsPerShare     *float64 `json:"earnings_per_share"`
	GrowthRate           *float64 `json:"growth_rate"`
}

// InsiderTrade is one reported insider transaction. Negative share counts
// are sales.
type InsiderTrade struct {
	Ticker            string     `json:"ticker"`
	TransactionShares *float64   `json:"transaction_shares"`
	TransactionDate   *time.Time `json:"transaction_date"`
}

// NewsItem is one article with provider-labelled sentiment.
type NewsItem struct {
	Ticker    string `json:"ticker"`
	Title     string `json:"title"`
	Sentiment string `json:"sentiment"` // positive|negative|neutral
}

// Provider is the market-data boundary. Implementations must be safe for
// concurrent use: producers for many instruments fan out against one
// provider.
type Provider interface {
	GetPrices(ctx context.Context, ticker string, start, end time.Time) ([]Price, error)
	GetFinancialMetrics(ctx context.Context, ticker string, asOf time.Time, period string, limit int) ([]FinancialMetrics, error)
	GetInsiderTrades(ctx context.Context, ticker string, asOf time.Time, limit int) ([]InsiderTrade, error)
	GetCompanyNews(ctx context.Context, ticker string, asOf time.Time, limit int) ([]NewsItem, error)
	GetMarketCap(ctx context.Context, ticker string, asOf time.Time) (decimal.Decimal, error)
}

// LatestClose returns the close of the most recent bar, or an error when the
// series is empty. Used by the risk evaluator as the pricing source.
func LatestClose(prices []Price) (decimal.Decimal, error) {
	if len(prices) == 0 {
		return decimal.Zero, fmt.Errorf("no price data: %w", ErrNotFound)
	}
	latest := prices[0]
	for _, p := range prices[1:] {
		if p.Time.After(latest.Time) {
			latest = p
		}
	}
	return latest.Close, nil
}
