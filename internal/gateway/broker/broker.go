// Package broker abstracts the trade-execution venue so the execution stage
// can work against different backends without changing its logic.
package broker

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type OrderSide string

const (
	SideBuy  OrderSide = "buy"
	SideSell OrderSide = "sell"
)

type OrderType string

const (
	TypeMarket OrderType = "market"
	TypeLimit  OrderType = "limit"
)

// Order is one order submission.
type Order struct {
	Symbol        string
	Quantity      int64
	Side          OrderSide
	Type          OrderType
	LimitPrice    decimal.Decimal
	TimeInForce   string // defaults to "day"
	ClientOrderID string
}

// OrderResponse is the venue's acknowledgement of an order.
type OrderResponse struct {
	OrderID        string
	Status         string
	FilledQty      decimal.Decimal
	FilledAvgPrice decimal.Decimal
	RemainingQty   decimal.Decimal
	ClientOrderID  string
}

// AccountInfo is the venue-side account snapshot used for reconciliation.
type AccountInfo struct {
	Cash        decimal.Decimal
	Equity      decimal.Decimal
	BuyingPower decimal.Decimal
}

// Position is a venue-side holding.
type Position struct {
	Symbol        string
	Quantity      int64
	AvgEntryPrice decimal.Decimal
	CurrentPrice  decimal.Decimal
	MarketValue   decimal.Decimal
	UnrealizedPL  decimal.Decimal
}

// Broker is the venue connection. One execution-stage invocation owns the
// session exclusively between Connect and Disconnect.
type Broker interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	GetAccountInfo(ctx context.Context) (AccountInfo, error)
	GetPositions(ctx context.Context) ([]Position, error)
	PlaceOrder(ctx context.Context, order Order) (OrderResponse, error)
	CancelOrder(ctx context.Context, orderID string) error
	GetOrderStatus(ctx context.Context, orderID string) (OrderResponse, error)
	GetMarketPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// Kind selects a broker backend.
type Kind string

const KindAlpaca Kind = "alpaca"

// Credentials carry venue API access. Missing credentials are a fatal
// configuration error reported before any run starts.
type Credentials struct {
	APIKey    string
	APISecret string
}

// New builds a broker for the given kind. Paper selects the sandbox
// environment where the backend distinguishes.
func New(kind Kind, creds Credentials, paper bool) (Broker, error) {
	switch Kind(strings.ToLower(string(kind))) {
	case KindAlpaca, "":
		return NewAlpaca(creds, paper)
	default:
		return nil, fmt.Errorf("unsupported broker kind %q", kind)
	}
}
