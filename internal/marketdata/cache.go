package marketdata

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// CachedProvider is a read-through TTL cache in front of another provider.
// Entries expire but are not otherwise evicted; the working set is one entry
// per (endpoint, instrument, as-of day).
type CachedProvider struct {
	inner Provider
	ttl   time.Duration

	mu      sync.Mutex
	entries map[string]cacheEntry
	nowFn   func() time.Time
}

type cacheEntry struct {
	value   any
	storedA time.Time
}

func NewCachedProvider(inner Provider, ttl time.Duration) *CachedProvider {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &CachedProvider{
		inner:   inner,
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		nowFn:   time.Now,
	}
}

func (c *CachedProvider) lookup(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.nowFn().Sub(entry.storedA) > c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return entry.value, true
}

func (c *CachedProvider) store(key string, value any) {
	c.mu.Lock()
	c.entries[key] = cacheEntry{value: value, storedA: c.nowFn()}
	c.mu.Unlock()
}

func (c *CachedProvider) GetPrices(ctx context.Context, ticker string, start, end time.Time) ([]Price, error) {
	key := fmt.Sprintf("prices|%s|%s|%s", ticker, start.Format(dateLayout), end.Format(dateLayout))
	if v, ok := c.lookup(key); ok {
		return v.([]Price), nil
	}
	out, err := c.inner.GetPrices(ctx, ticker, start, end)
	if err != nil {
		return nil, err
	}
	c.store(key, out)
	return out, nil
}

func (c *CachedProvider) GetFinancialMetrics(ctx context.Context, ticker string, asOf time.Time, period string, limit int) ([]FinancialMetrics, error) {
	key := fmt.Sprintf("metrics|%s|%s|%s|%d", ticker, asOf.Format(dateLayout), period, limit)
	if v, ok := c.lookup(key); ok {
		return v.([]FinancialMetrics), nil
	}
	out, err := c.inner.GetFinancialMetrics(ctx, ticker, asOf, period, limit)
	if err != nil {
		return nil, err
	}
	c.store(key, out)
	return out, nil
}

func (c *CachedProvider) GetInsiderTrades(ctx context.Context, ticker string, asOf time.Time, limit int) ([]InsiderTrade, error) {
	key := fmt.Sprintf("insider|%s|%s|%d", ticker, asOf.Format(dateLayout), limit)
	if v, ok := c.lookup(key); ok {
		return v.([]InsiderTrade), nil
	}
	out, err := c.inner.GetInsiderTrades(ctx, ticker, asOf, limit)
	if err != nil {
		return nil, err
	}
	c.store(key, out)
	return out, nil
}

func (c *CachedProvider) GetCompanyNews(ctx context.Context, ticker string, asOf time.Time, limit int) ([]NewsItem, error) {
	key := fmt.Sprintf("news|%s|%s|%d", ticker, asOf.Format(dateLayout), limit)
	if v, ok := c.lookup(key); ok {
		return v.([]NewsItem), nil
	}
	out, err := c.inner.GetCompanyNews(ctx, ticker, asOf, limit)
	if err != nil {
		return nil, err
	}
	c.store(key, out)
	return out, nil
}

func (c *CachedProvider) GetMarketCap(ctx context.Context, ticker string, asOf time.Time) (decimal.Decimal, error) {
	key := fmt.Sprintf("mcap|%s|%s", ticker, asOf.Format(dateLayout))
	if v, ok := c.lookup(key); ok {
		return v.(decimal.Decimal), nil
	}
	out, err := c.inner.GetMarketCap(ctx, ticker, asOf)
	if err != nil {
		return decimal.Zero, err
	}
	c.store(key, out)
	return out, nil
}
