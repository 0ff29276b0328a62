package marketdata

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingProvider counts calls and serves canned data.
type countingProvider struct {
	priceCalls int
	newsCalls  int
	err        error
}

func (p *countingProvider) GetPrices(ctx context.Context, ticker string, start, end time.Time) ([]Price, error) {
	p.priceCalls++
	if p.err != nil {
		return nil, p.err
	}
	return []Price{{Time: end, Close: decimal.NewFromInt(100)}}, nil
}

func (p *countingProvider) GetFinancialMetrics(ctx context.Context, ticker string, asOf time.Time, period string, limit int) ([]FinancialMetrics, error) {
	return nil, nil
}

func (p *countingProvider) GetInsiderTrades(ctx context.Context, ticker string, asOf time.Time, limit int) ([]InsiderTrade, error) {
	return nil, nil
}

func (p *countingProvider) GetCompanyNews(ctx context.Context, ticker string, asOf time.Time, limit int) ([]NewsItem, error) {
	p.newsCalls++
	return []NewsItem{{Ticker: ticker}}, nil
}

func (p *countingProvider) GetMarketCap(ctx context.Context, ticker string, asOf time.Time) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func TestCachedProvider(t *testing.T) {
	asOf := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	start := asOf.AddDate(0, 0, -5)

	t.Run("second hit served from cache", func(t *testing.T) {
		inner := &countingProvider{}
		c := NewCachedProvider(inner, time.Minute)

		_, err := c.GetPrices(context.Background(), "AAPL", start, asOf)
		require.NoError(t, err)
		_, err = c.GetPrices(context.Background(), "AAPL", start, asOf)
		require.NoError(t, err)
		assert.Equal(t, 1, inner.priceCalls)
	})

	t.Run("different key misses", func(t *testing.T) {
		inner := &countingProvider{}
		c := NewCachedProvider(inner, time.Minute)

		_, _ = c.GetPrices(context.Background(), "AAPL", start, asOf)
		_, _ = c.GetPrices(context.Background(), "MSFT", start, asOf)
		assert.Equal(t, 2, inner.priceCalls)
	})

	t.Run("expired entry refetches", func(t *testing.T) {
		inner := &countingProvider{}
		c := NewCachedProvider(inner, time.Minute)
		now := asOf
		c.nowFn = func() time.Time { return now }

		_, _ = c.GetCompanyNews(context.Background(), "AAPL", asOf, 10)
		now = now.Add(2 * time.Minute)
		_, _ = c.GetCompanyNews(context.Background(), "AAPL", asOf, 10)
		assert.Equal(t, 2, inner.newsCalls)
	})

	t.Run("errors are not cached", func(t *testing.T) {
		inner := &countingProvider{err: errors.New("down")}
		c := NewCachedProvider(inner, time.Minute)

		_, err := c.GetPrices(context.Background(), "AAPL", start, asOf)
		require.Error(t, err)

		inner.err = nil
		_, err = c.GetPrices(context.Background(), "AAPL", start, asOf)
		require.NoError(t, err)
		assert.Equal(t, 2, inner.priceCalls)
	})
}
