package analyst

import (
	"context"
	"fmt"
	"sort"
	"time"

	talib "github.com/markcheno/go-talib"

	"fundbot/internal/marketdata"
	"fundbot/internal/types"
)

const (
	technicalLookbackDays = 120
	minTechnicalBars      = 35 // enough for MACD(12,26,9) to stabilize
)

// Technical votes across RSI, EMA trend and MACD momentum on daily closes.
type Technical struct {
	Data marketdata.Provider
}

func NewTechnical(data marketdata.Provider) *Technical {
	return &Technical{Data: data}
}

func (t *Technical) Name() string { return "technical" }

func (t *Technical) Analyze(ctx context.Context, instrument string, asOf time.Time) (types.Signal, error) {
	start := asOf.AddDate(0, 0, -technicalLookbackDays)
	prices, err := t.Data.GetPrices(ctx, instrument, start, asOf)
	if err != nil {
		return types.Signal{}, fmt.Errorf("fetching prices: %w", err)
	}
	if len(prices) < minTechnicalBars {
		return types.Signal{}, fmt.Errorf("insufficient price history (%d bars): %w", len(prices), marketdata.ErrNotFound)
	}

	sort.Slice(prices, func(i, j int) bool { return prices[i].Time.Before(prices[j].Time) })
	closes := make([]float64, len(prices))
	for i, p := range prices {
		closes[i], _ = p.Close.Float64()
	}

	var votes []types.Direction
	diagnostics := map[string]string{}

	rsi := talib.Rsi(closes, 14)
	lastRSI := rsi[len(rsi)-1]
	switch {
	case lastRSI < 30:
		votes = append(votes, types.Bullish)
	case lastRSI > 70:
		votes = append(votes, types.Bearish)
	default:
		votes = append(votes, types.Neutral)
	}
	diagnostics["rsi"] = fmt.Sprintf("%.1f", lastRSI)

	fast := talib.Ema(closes, 12)
	slow := talib.Ema(closes, 26)
	lastFast, lastSlow := fast[len(fast)-1], slow[len(slow)-1]
	if lastFast > lastSlow {
		votes = append(votes, types.Bullish)
	} else {
		votes = append(votes, types.Bearish)
	}
	diagnostics["ema_trend"] = fmt.Sprintf("ema12=%.2f ema26=%.2f", lastFast, lastSlow)

	_, _, hist := talib.Macd(closes, 12, 26, 9)
	lastHist := hist[len(hist)-1]
	if lastHist > 0 {
		votes = append(votes, types.Bullish)
	} else {
		votes = append(votes, types.Bearish)
	}
	diagnostics["macd_hist"] = fmt.Sprintf("%.4f", lastHist)

	return majority(votes, diagnostics), nil
}

// majority resolves indicator votes; ties or a neutral plurality stay
// neutral with low confidence.
func majority(votes []types.Direction, diagnostics map[string]string) types.Signal {
	var bullish, bearish int
	for _, v := range votes {
		switch v {
		case types.Bullish:
			bullish++
		case types.Bearish:
			bearish++
		}
	}
	total := len(votes)
	switch {
	case bullish > bearish:
		return types.Signal{
			Direction:   types.Bullish,
			Confidence:  clampConfidence(float64(bullish) / float64(total) * 100),
			Diagnostics: diagnostics,
		}
	case bearish > bullish:
		return types.Signal{
			Direction:   types.Bearish,
			Confidence:  clampConfidence(float64(bearish) / float64(total) * 100),
			Diagnostics: diagnostics,
		}
	default:
		return types.Signal{Direction: types.Neutral, Confidence: 25, Diagnostics: diagnostics}
	}
}
