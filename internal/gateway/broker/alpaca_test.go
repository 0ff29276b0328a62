package broker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAlpaca(t *testing.T, handler http.Handler) (*Alpaca, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	a, err := NewAlpaca(Credentials{APIKey: "key-id", APISecret: "key-secret"}, true)
	require.NoError(t, err)
	a.baseURL = srv.URL
	a.dataURL = srv.URL
	return a, srv
}

func TestNew(t *testing.T) {
	t.Run("unsupported kind", func(t *testing.T) {
		_, err := New("interactive-brokers", Credentials{APIKey: "k", APISecret: "s"}, true)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported broker kind")
	})

	t.Run("empty kind defaults to alpaca", func(t *testing.T) {
		b, err := New("", Credentials{APIKey: "k", APISecret: "s"}, true)
		require.NoError(t, err)
		assert.IsType(t, &Alpaca{}, b)
	})

	t.Run("missing credentials rejected", func(t *testing.T) {
		_, err := New(KindAlpaca, Credentials{APIKey: "k"}, true)
		require.Error(t, err)
	})
}

func TestAlpacaEnvironments(t *testing.T) {
	paper, err := NewAlpaca(Credentials{APIKey: "k", APISecret: "s"}, true)
	require.NoError(t, err)
	assert.Equal(t, alpacaPaperURL, paper.baseURL)

	live, err := NewAlpaca(Credentials{APIKey: "k", APISecret: "s"}, false)
	require.NoError(t, err)
	assert.Equal(t, alpacaLiveURL, live.baseURL)
}

func TestAlpacaConnect(t *testing.T) {
	a, _ := newTestAlpaca(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/account", r.URL.Path)
		assert.Equal(t, "key-id", r.Header.Get("APCA-API-KEY-ID"))
		assert.Equal(t, "key-secret", r.Header.Get("APCA-API-SECRET-KEY"))
		w.Write([]byte(`{"cash": "25000.50", "equity": "31000", "buying_power": "50000"}`))
	}))

	require.NoError(t, a.Connect(context.Background()))

	info, err := a.GetAccountInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "25000.5", info.Cash.String())
	assert.Equal(t, "31000", info.Equity.String())
}

func TestAlpacaConnectAuthFailure(t *testing.T) {
	a, _ := newTestAlpaca(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message": "forbidden"}`))
	}))

	err := a.Connect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connecting to alpaca")
	assert.Contains(t, err.Error(), "status=403")
}

func TestAlpacaGetPositions(t *testing.T) {
	a, _ := newTestAlpaca(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/positions", r.URL.Path)
		w.Write([]byte(`[
			{"symbol": "AAPL", "qty": "12", "avg_entry_price": "180.25", "current_price": "190.10", "market_value": "2281.20", "unrealized_pl": "118.20"},
			{"symbol": "MSFT", "qty": "3", "avg_entry_price": "400", "current_price": "410", "market_value": "1230", "unrealized_pl": "30"}
		]`))
	}))

	positions, err := a.GetPositions(context.Background())
	require.NoError(t, err)
	require.Len(t, positions, 2)
	assert.Equal(t, "AAPL", positions[0].Symbol)
	assert.Equal(t, int64(12), positions[0].Quantity)
	assert.Equal(t, "190.1", positions[0].CurrentPrice.String())
}

func TestAlpacaPlaceOrder(t *testing.T) {
	a, _ := newTestAlpaca(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/orders", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "AAPL", body["symbol"])
		assert.Equal(t, "10", body["qty"], "quantity is sent as a string")
		assert.Equal(t, "buy", body["side"])
		assert.Equal(t, "market", body["type"])
		assert.Equal(t, "day", body["time_in_force"], "time in force defaults to day")
		assert.Equal(t, "run-1-AAPL", body["client_order_id"])

		w.Write([]byte(`{"id": "ord-1", "status": "accepted", "qty": "10", "filled_qty": "4", "filled_avg_price": "190.00", "client_order_id": "run-1-AAPL"}`))
	}))

	resp, err := a.PlaceOrder(context.Background(), Order{
		Symbol:        "AAPL",
		Quantity:      10,
		Side:          SideBuy,
		Type:          TypeMarket,
		ClientOrderID: "run-1-AAPL",
	})
	require.NoError(t, err)
	assert.Equal(t, "ord-1", resp.OrderID)
	assert.Equal(t, "accepted", resp.Status)
	assert.Equal(t, "4", resp.FilledQty.String())
	assert.Equal(t, "6", resp.RemainingQty.String())
}

func TestAlpacaPlaceOrderRejected(t *testing.T) {
	a, _ := newTestAlpaca(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message": "insufficient buying power"}`))
	}))

	_, err := a.PlaceOrder(context.Background(), Order{Symbol: "AAPL", Quantity: 1, Side: SideBuy, Type: TypeMarket})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient buying power")
}

func TestAlpacaGetMarketPrice(t *testing.T) {
	t.Run("prefers ask", func(t *testing.T) {
		a, _ := newTestAlpaca(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v2/stocks/AAPL/quotes/latest", r.URL.Path)
			w.Write([]byte(`{"quote": {"ap": 190.55, "bp": 190.50}}`))
		}))
		price, err := a.GetMarketPrice(context.Background(), "AAPL")
		require.NoError(t, err)
		assert.Equal(t, "190.55", price.String())
	})

	t.Run("falls back to bid", func(t *testing.T) {
		a, _ := newTestAlpaca(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"quote": {"ap": 0, "bp": 190.50}}`))
		}))
		price, err := a.GetMarketPrice(context.Background(), "AAPL")
		require.NoError(t, err)
		assert.Equal(t, "190.5", price.String())
	})
}
