// Package risk converts aggregated signals and portfolio state into a
// bounded action envelope per instrument.
package risk

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"fundbot/internal/marketdata"
	"fundbot/internal/progress"
	"fundbot/internal/types"
)

const component = "risk_evaluator"

// Reason classifies why an envelope could not be produced.
type Reason string

const (
	ReasonMissingData Reason = "missing_data"
)

// Error is a per-instrument risk failure. It degrades the instrument to a
// hold decision downstream; it never aborts the run.
type Error struct {
	Instrument string
	Reason     Reason
	Err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("risk evaluation failed for %s (%s): %v", e.Instrument, e.Reason, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Limits configures how position limits are derived.
type Limits struct {
	// MaxPositionPct is the fraction of total portfolio value allowed in a
	// single instrument when no explicit limit is set. 0 < pct <= 1.
	MaxPositionPct float64
	// PerInstrument overrides the derived limit for specific symbols,
	// denominated in quote currency.
	PerInstrument map[string]decimal.Decimal
}

// Evaluator derives risk envelopes from current prices and portfolio state.
type Evaluator struct {
	data     marketdata.Provider
	limits   Limits
	reporter progress.Reporter
}

func NewEvaluator(data marketdata.Provider, limits Limits, reporter progress.Reporter) *Evaluator {
	if limits.MaxPositionPct <= 0 || limits.MaxPositionPct > 1 {
		limits.MaxPositionPct = 0.20
	}
	if reporter == nil {
		reporter = progress.Nop{}
	}
	return &Evaluator{data: data, limits: limits, reporter: reporter}
}

// Evaluate computes the envelope for one instrument. The portfolio is read
// only; signals are currently unused for sizing but reserved for
// signal-aware limits.
func (e *Evaluator) Evaluate(ctx context.Context, instrument string, portfolio *types.Portfolio, asOf time.Time) (types.RiskEnvelope, error) {
	e.reporter.Update(component, instrument, "fetching current price")

	prices, err := e.data.GetPrices(ctx, instrument, asOf.AddDate(0, 0, -14), asOf)
	if err != nil {
		return types.RiskEnvelope{}, &Error{Instrument: instrument, Reason: ReasonMissingData, Err: err}
	}
	price, err := marketdata.LatestClose(prices)
	if err != nil {
		return types.RiskEnvelope{}, &Error{Instrument: instrument, Reason: ReasonMissingData, Err: err}
	}
	if !price.IsPositive() {
		return types.RiskEnvelope{}, &Error{
			Instrument: instrument,
			Reason:     ReasonMissingData,
			Err:        fmt.Errorf("non-positive price %s", price),
		}
	}

	limit := e.positionLimit(instrument, portfolio)
	remaining := limit.Sub(portfolio.Exposure(instrument))
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	maxQty := remaining.Div(price).IntPart() // floor for positive operands
	if maxQty < 0 {
		maxQty = 0
	}

	e.reporter.Update(component, instrument, fmt.Sprintf("max quantity %d at %s", maxQty, price))
	return types.RiskEnvelope{
		Instrument:        instrument,
		MaxQuantity:       maxQty,
		RemainingExposure: remaining,
		CurrentPrice:      price,
	}, nil
}

// positionLimit prefers an explicit per-instrument limit, otherwise a
// configured fraction of total portfolio value. Always non-negative.
func (e *Evaluator) positionLimit(instrument string, portfolio *types.Portfolio) decimal.Decimal {
	if explicit, ok := e.limits.PerInstrument[instrument]; ok {
		if explicit.IsNegative() {
			return decimal.Zero
		}
		return explicit
	}
	limit := portfolio.TotalValue().Mul(decimal.NewFromFloat(e.limits.MaxPositionPct))
	if limit.IsNegative() {
		return decimal.Zero
	}
	return limit
}
