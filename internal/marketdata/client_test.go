package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPrices(t *testing.T) {
	asOf := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/prices/", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-API-KEY"))
		assert.Equal(t, "AAPL", r.URL.Query().Get("ticker"))
		assert.Equal(t, "day", r.URL.Query().Get("interval"))
		w.Write([]byte(`{"prices": [
			{"time": "2026-03-02T00:00:00Z", "open": 99, "high": 101, "low": 98, "close": 100.5, "volume": 12345},
			{"time": "garbage", "close": 1},
			{"time": "2026-03-01", "close": 99.5}
		]}`))
	}))
	defer srv.Close()

	c := NewClient("secret", WithBaseURL(srv.URL))
	prices, err := c.GetPrices(context.Background(), "AAPL", asOf.AddDate(0, 0, -5), asOf)
	require.NoError(t, err)
	require.Len(t, prices, 2, "bars with unparseable timestamps are dropped")
	assert.Equal(t, "100.5", prices[0].Close.String())
	assert.Equal(t, int64(12345), prices[0].Volume)

	latest, err := LatestClose(prices)
	require.NoError(t, err)
	assert.Equal(t, "100.5", latest.String())
}

func TestGetJSONStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		status int
		want   error
	}{
		{"not found", http.StatusNotFound, ErrNotFound},
		{"unauthorized", http.StatusUnauthorized, ErrAuth},
		{"forbidden", http.StatusForbidden, ErrAuth},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer srv.Close()

			c := NewClient("k", WithBaseURL(srv.URL), WithMaxRetries(0))
			_, err := c.GetFinancialMetrics(context.Background(), "AAPL", time.Now(), "ttm", 1)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestGetJSONRetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"financial_metrics": [{"ticker": "AAPL"}]}`))
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL), WithMaxRetries(1))
	metrics, err := c.GetFinancialMetrics(context.Background(), "AAPL", time.Now(), "ttm", 1)
	require.NoError(t, err)
	require.Len(t, metrics, 1)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGetJSONExhaustedRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL), WithMaxRetries(0))
	_, err := c.GetCompanyNews(context.Background(), "AAPL", time.Now(), 10)
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestGetMarketCap(t *testing.T) {
	t.Run("present", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/company/facts/", r.URL.Path)
			w.Write([]byte(`{"company_facts": {"market_cap": 3000000000000}}`))
		}))
		defer srv.Close()

		c := NewClient("k", WithBaseURL(srv.URL))
		mcap, err := c.GetMarketCap(context.Background(), "AAPL", time.Now())
		require.NoError(t, err)
		assert.Equal(t, "3000000000000", mcap.StringFixed(0))
	})

	t.Run("missing maps to not found", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"company_facts": {}}`))
		}))
		defer srv.Close()

		c := NewClient("k", WithBaseURL(srv.URL))
		_, err := c.GetMarketCap(context.Background(), "AAPL", time.Now())
		require.ErrorIs(t, err, ErrNotFound)
	})
}
