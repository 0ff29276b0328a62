package analyst

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"fundbot/internal/marketdata"
	"fundbot/internal/types"
)

// Valuation gap beyond which the signal leaves neutral territory.
const valuationGapThreshold = 0.15

// Valuation compares an earnings-based intrinsic value per share against the
// latest close and signals on the gap.
type Valuation struct {
	Data marketdata.Provider
}

func NewValuation(data marketdata.Provider) *Valuation {
	return &Valuation{Data: data}
}

func (v *Valuation) Name() string { return "valuation" }

func (v *Valuation) Analyze(ctx context.Context, instrument string, asOf time.Time) (types.Signal, error) {
	metrics, err := v.Data.GetFinancialMetrics(ctx, instrument, asOf, "ttm", 1)
	if err != nil {
		return types.Signal{}, fmt.Errorf("fetching financial metrics: %w", err)
	}
	if len(metrics) == 0 {
		return types.Signal{}, fmt.Errorf("no financial metrics found: %w", marketdata.ErrNotFound)
	}
	m := metrics[0]
	if m.EarningsPerShare == nil || *m.EarningsPerShare <= 0 {
		return types.Signal{}, fmt.Errorf("earnings per share unavailable: %w", marketdata.ErrNotFound)
	}

	prices, err := v.Data.GetPrices(ctx, instrument, asOf.AddDate(0, 0, -14), asOf)
	if err != nil {
		return types.Signal{}, fmt.Errorf("fetching prices: %w", err)
	}
	lastClose, err := marketdata.LatestClose(prices)
	if err != nil {
		return types.Signal{}, err
	}
	price, _ := lastClose.Float64()
	if price <= 0 {
		return types.Signal{}, fmt.Errorf("non-positive close price: %w", marketdata.ErrNotFound)
	}

	growth := 0.0
	if m.EarningsGrowth != nil && *m.EarningsGrowth > 0 {
		growth = *m.EarningsGrowth
	}
	// Graham-style multiple: base 8.5 plus 2x expected growth (in percent),
	// capped so a hot growth print cannot run the multiple away.
	multiple := 8.5 + 2*minFloat(growth*100, 15)
	intrinsic := *m.EarningsPerShare * multiple
	gap := (intrinsic - price) / price

	diagnostics := map[string]string{
		"intrinsic_value": fmt.Sprintf("%.2f", intrinsic),
		"last_close":      fmt.Sprintf("%.2f", price),
		"gap":             fmt.Sprintf("%.1f%%", gap*100),
	}
	if mcap, err := v.Data.GetMarketCap(ctx, instrument, asOf); err == nil && mcap.GreaterThan(decimal.Zero) {
		diagnostics["market_cap"] = mcap.StringFixed(0)
	}

	signal := types.Signal{Diagnostics: diagnostics}
	switch {
	case gap > valuationGapThreshold:
		signal.Direction = types.Bullish
	case gap < -valuationGapThreshold:
		signal.Direction = types.Bearish
	default:
		signal.Direction = types.Neutral
	}
	signal.Confidence = clampConfidence(absFloat(gap) * 100)
	return signal, nil
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func absFloat(a float64) float64 {
	if a < 0 {
		return -a
	}
	return a
}
