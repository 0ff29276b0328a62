package analyst

import (
	"context"
	"fmt"
	"time"

	"fundbot/internal/marketdata"
	"fundbot/internal/types"
)

// Fundamentals scores profitability, valuation multiples and growth against
// fixed thresholds and votes bullish/bearish per category.
type Fundamentals struct {
	Data         marketdata.Provider
	MetricsLimit int
}

func NewFundamentals(data marketdata.Provider, metricsLimit int) *Fundamentals {
	if metricsLimit <= 0 {
		metricsLimit = 10
	}
	return &Fundamentals{Data: data, MetricsLimit: metricsLimit}
}

func (f *Fundamentals) Name() string { return "fundamentals" }

func (f *Fundamentals) Analyze(ctx context.Context, instrument string, asOf time.Time) (types.Signal, error) {
	metrics, err := f.Data.GetFinancialMetrics(ctx, instrument, asOf, "ttm", f.MetricsLimit)
	if err != nil {
		return types.Signal{}, fmt.Errorf("fetching financial metrics: %w", err)
	}
	if len(metrics) == 0 {
		return types.Signal{}, fmt.Errorf("no financial metrics found: %w", marketdata.ErrNotFound)
	}
	m := metrics[0]

	var votes []types.Direction
	diagnostics := map[string]string{}

	// Profitability: ROE > 15%, net margin > 20%, operating margin > 15%.
	profitability := countAbove([]check{
		{m.ReturnOnEquity, 0.15},
		{m.NetMargin, 0.20},
		{m.OperatingMargin, 0.15},
	})
	votes = append(votes, voteAtLeast(profitability, 2))
	diagnostics["profitability"] = fmt.Sprintf("score %d/3", profitability)

	// Valuation: multiples below PE 20, P/B 3, P/S 2 are attractive.
	valuation := countBelow([]check{
		{m.PriceToEarningsRatio, 20},
		{m.PriceToBookRatio, 3},
		{m.PriceToSalesRatio, 2},
	})
	votes = append(votes, voteAtLeast(valuation, 2))
	diagnostics["valuation"] = fmt.Sprintf("score %d/3", valuation)

	// Growth: both revenue and earnings growing over 10%.
	growth := countAbove([]check{
		{m.RevenueGrowth, 0.10},
		{m.EarningsGrowth, 0.10},
	})
	votes = append(votes, voteAtLeast(growth, 2))
	diagnostics["growth"] = fmt.Sprintf("score %d/2", growth)

	return tallyVotes(votes, diagnostics), nil
}

type check struct {
	value     *float64
	threshold float64
}

func countAbove(checks []check) int {
	n := 0
	for _, c := range checks {
		if c.value != nil && *c.value > c.threshold {
			n++
		}
	}
	return n
}

func countBelow(checks []check) int {
	n := 0
	for _, c := range checks {
		if c.value != nil && *c.value < c.threshold {
			n++
		}
	}
	return n
}

func voteAtLeast(score, min int) types.Direction {
	if score >= min {
		return types.Bullish
	}
	return types.Bearish
}

// tallyVotes turns category votes into an overall signal whose confidence
// reflects the winning share.
func tallyVotes(votes []types.Direction, diagnostics map[string]string) types.Signal {
	bullish := 0
	for _, v := range votes {
		if v == types.Bullish {
			bullish++
		}
	}
	total := len(votes)
	if total == 0 {
		return types.Signal{Direction: types.Neutral, Diagnostics: diagnostics}
	}
	if bullish*2 > total {
		return types.Signal{
			Direction:   types.Bullish,
			Confidence:  clampConfidence(float64(bullish) / float64(total) * 100),
			Diagnostics: diagnostics,
		}
	}
	return types.Signal{
		Direction:   types.Bearish,
		Confidence:  clampConfidence(float64(total-bullish) / float64(total) * 100),
		Diagnostics: diagnostics,
	}
}
