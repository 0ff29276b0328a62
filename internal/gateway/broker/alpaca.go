package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fundbot/internal/pkg/circuit"
)

const (
	alpacaLiveURL  = "https://api.alpaca.markets"
	alpacaPaperURL = "https://paper-api.alpaca.markets"
	alpacaDataURL  = "https://data.alpaca.markets"
)

// Alpaca is the REST implementation of Broker against the Alpaca trading
// API (paper or live).
type Alpaca struct {
	creds     Credentials
	baseURL   string
	dataURL   string
	httpc     *http.Client
	breaker   *circuit.Breaker
	connected bool
}

func NewAlpaca(creds Credentials, paper bool) (*Alpaca, error) {
	if creds.APIKey == "" || creds.APISecret == "" {
		return nil, fmt.Errorf("alpaca API key and secret must be provided")
	}
	base := alpacaLiveURL
	if paper {
		base = alpacaPaperURL
	}
	return &Alpaca{
		creds:   creds,
		baseURL: base,
		dataURL: alpacaDataURL,
		httpc:   &http.Client{Timeout: 30 * time.Second},
		breaker: circuit.NewBreaker("alpaca", 5, 30*time.Second),
	}, nil
}

// Connect verifies credentials with an account read. The REST API has no
// session, so this is the liveness and auth check.
func (a *Alpaca) Connect(ctx context.Context) error {
	if a.connected {
		return nil
	}
	if _, err := a.GetAccountInfo(ctx); err != nil {
		return fmt.Errorf("connecting to alpaca: %w", err)
	}
	a.connected = true
	return nil
}

func (a *Alpaca) Disconnect(ctx context.Context) error {
	a.connected = false
	return nil
}

func (a *Alpaca) GetAccountInfo(ctx context.Context) (AccountInfo, error) {
	var payload struct {
		Cash        string `json:"cash"`
		Equity      string `json:"equity"`
		BuyingPower string `json:"buying_power"`
	}
	if err := a.doJSON(ctx, http.MethodGet, a.baseURL+"/v2/account", nil, &payload); err != nil {
		return AccountInfo{}, err
	}
	cash, err := decimal.NewFromString(payload.Cash)
	if err != nil {
		return AccountInfo{}, fmt.Errorf("parsing account cash %q: %w", payload.Cash, err)
	}
	equity, _ := decimal.NewFromString(payload.Equity)
	bp, _ := decimal.NewFromString(payload.BuyingPower)
	return AccountInfo{Cash: cash, Equity: equity, BuyingPower: bp}, nil
}

func (a *Alpaca) GetPositions(ctx context.Context) ([]Position, error) {
	var payload []struct {
		Symbol        string `json:"symbol"`
		Qty           string `json:"qty"`
		AvgEntryPrice string `json:"avg_entry_price"`
		CurrentPrice  string `json:"current_price"`
		MarketValue   string `json:"market_value"`
		UnrealizedPL  string `json:"unrealized_pl"`
	}
	if err := a.doJSON(ctx, http.MethodGet, a.baseURL+"/v2/positions", nil, &payload); err != nil {
		return nil, err
	}
	out := make([]Position, 0, len(payload))
	for _, p := range payload {
		qty, _ := decimal.NewFromString(p.Qty)
		avg, _ := decimal.NewFromString(p.AvgEntryPrice)
		cur, _ := decimal.NewFromString(p.CurrentPrice)
		mv, _ := decimal.NewFromString(p.MarketValue)
		pl, _ := decimal.NewFromString(p.UnrealizedPL)
		out = append(out, Position{
			Symbol:        p.Symbol,
			Quantity:      qty.IntPart(),
			AvgEntryPrice: avg,
			CurrentPrice:  cur,
			MarketValue:   mv,
			UnrealizedPL:  pl,
		})
	}
	return out, nil
}

func (a *Alpaca) PlaceOrder(ctx context.Context, order Order) (OrderResponse, error) {
	tif := order.TimeInForce
	if tif == "" {
		tif = "day"
	}
	body := map[string]any{
		"symbol":        order.Symbol,
		"qty":           fmt.Sprintf("%d", order.Quantity),
		"side":          string(order.Side),
		"type":          string(order.Type),
		"time_in_force": tif,
	}
	if order.Type == TypeLimit {
		body["limit_price"] = order.LimitPrice.String()
	}
	if order.ClientOrderID != "" {
		body["client_order_id"] = order.ClientOrderID
	}
	var payload alpacaOrder
	if err := a.doJSON(ctx, http.MethodPost, a.baseURL+"/v2/orders", body, &payload); err != nil {
		return OrderResponse{}, err
	}
	return payload.toResponse(), nil
}

func (a *Alpaca) CancelOrder(ctx context.Context, orderID string) error {
	return a.doJSON(ctx, http.MethodDelete, a.baseURL+"/v2/orders/"+orderID, nil, nil)
}

func (a *Alpaca) GetOrderStatus(ctx context.Context, orderID string) (OrderResponse, error) {
	var payload alpacaOrder
	if err := a.doJSON(ctx, http.MethodGet, a.baseURL+"/v2/orders/"+orderID, nil, &payload); err != nil {
		return OrderResponse{}, err
	}
	return payload.toResponse(), nil
}

func (a *Alpaca) GetMarketPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	var payload struct {
		Quote struct {
			AskPrice float64 `json:"ap"`
			BidPrice float64 `json:"bp"`
		} `json:"quote"`
	}
	url := fmt.Sprintf("%s/v2/stocks/%s/quotes/latest", a.dataURL, symbol)
	if err := a.doJSON(ctx, http.MethodGet, url, nil, &payload); err != nil {
		return decimal.Zero, err
	}
	if payload.Quote.AskPrice > 0 {
		return decimal.NewFromFloat(payload.Quote.AskPrice), nil
	}
	return decimal.NewFromFloat(payload.Quote.BidPrice), nil
}

type alpacaOrder struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	Qty           string `json:"qty"`
	FilledQty     string `json:"filled_qty"`
	FilledAvg     string `json:"filled_avg_price"`
	ClientOrderID string `json:"client_order_id"`
}

func (o alpacaOrder) toResponse() OrderResponse {
	qty, _ := decimal.NewFromString(o.Qty)
	filled, _ := decimal.NewFromString(o.FilledQty)
	avg, _ := decimal.NewFromString(o.FilledAvg)
	return OrderResponse{
		OrderID:        o.ID,
		Status:         o.Status,
		FilledQty:      filled,
		FilledAvgPrice: avg,
		RemainingQty:   qty.Sub(filled),
		ClientOrderID:  o.ClientOrderID,
	}
}

func (a *Alpaca) doJSON(ctx context.Context, method, url string, body any, out any) error {
	if !a.breaker.Allow() {
		return fmt.Errorf("alpaca circuit open")
	}
	err := a.roundTrip(ctx, method, url, body, out)
	if err != nil {
		a.breaker.RecordFailure()
		return err
	}
	a.breaker.RecordSuccess()
	return nil
}

func (a *Alpaca) roundTrip(ctx context.Context, method, url string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	req.Header.Set("APCA-API-KEY-ID", a.creds.APIKey)
	req.Header.Set("APCA-API-SECRET-KEY", a.creds.APISecret)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("alpaca request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("reading alpaca response: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("alpaca %s %s: status=%d body=%s", method, url, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding alpaca response: %w", err)
	}
	return nil
}
