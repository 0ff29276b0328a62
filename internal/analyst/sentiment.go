package analyst

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fundbot/internal/marketdata"
	"fundbot/internal/types"
)

// SentimentWeights controls how insider-trade direction and news sentiment
// are blended. The split is deliberately configurable rather than a
// constant; it is tuned in the field.
type SentimentWeights struct {
	Insider float64 `mapstructure:"insider"`
	News    float64 `mapstructure:"news"`
}

func DefaultSentimentWeights() SentimentWeights {
	return SentimentWeights{Insider: 0.3, News: 0.7}
}

// Normalized rescales the weights to sum to 1, falling back to the defaults
// when both are zero or negative.
func (w SentimentWeights) Normalized() SentimentWeights {
	if w.Insider < 0 {
		w.Insider = 0
	}
	if w.News < 0 {
		w.News = 0
	}
	sum := w.Insider + w.News
	if sum <= 0 {
		return DefaultSentimentWeights()
	}
	return SentimentWeights{Insider: w.Insider / sum, News: w.News / sum}
}

// Sentiment blends insider transaction direction with news sentiment labels.
// Weights can be swapped at runtime; in-flight calls keep the blend they
// started with.
type Sentiment struct {
	Data         marketdata.Provider
	InsiderLimit int
	NewsLimit    int

	mu      sync.RWMutex
	weights SentimentWeights
}

func NewSentiment(data marketdata.Provider, weights SentimentWeights, insiderLimit, newsLimit int) *Sentiment {
	if insiderLimit <= 0 {
		insiderLimit = 1000
	}
	if newsLimit <= 0 {
		newsLimit = 100
	}
	return &Sentiment{
		Data:         data,
		weights:      weights.Normalized(),
		InsiderLimit: insiderLimit,
		NewsLimit:    newsLimit,
	}
}

func (s *Sentiment) Name() string { return "sentiment" }

// SetWeights swaps the blend weights, normalizing first.
func (s *Sentiment) SetWeights(w SentimentWeights) {
	s.mu.Lock()
	s.weights = w.Normalized()
	s.mu.Unlock()
}

func (s *Sentiment) currentWeights() SentimentWeights {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.weights
}

func (s *Sentiment) Analyze(ctx context.Context, instrument string, asOf time.Time) (types.Signal, error) {
	trades, err := s.Data.GetInsiderTrades(ctx, instrument, asOf, s.InsiderLimit)
	if err != nil {
		return types.Signal{}, fmt.Errorf("fetching insider trades: %w", err)
	}
	news, err := s.Data.GetCompanyNews(ctx, instrument, asOf, s.NewsLimit)
	if err != nil {
		return types.Signal{}, fmt.Errorf("fetching company news: %w", err)
	}

	insiderBullish, insiderBearish, insiderCount := insiderRatios(trades)
	newsBullish, newsBearish, newsCount := newsRatios(news)

	w := s.currentWeights()
	combinedBullish := w.Insider*insiderBullish + w.News*newsBullish
	combinedBearish := w.Insider*insiderBearish + w.News*newsBearish

	diagnostics := map[string]string{
		"insider_trades": fmt.Sprintf("%d", insiderCount),
		"news_count":     fmt.Sprintf("%d", newsCount),
		"weights":        fmt.Sprintf("insider=%.2f news=%.2f", w.Insider, w.News),
	}

	// Dominant share above 0.5 scales to 0..100.
	if combinedBullish > combinedBearish {
		return types.Signal{
			Direction:   types.Bullish,
			Confidence:  clampConfidence((combinedBullish - 0.5) * 200),
			Diagnostics: diagnostics,
		}, nil
	}
	return types.Signal{
		Direction:   types.Bearish,
		Confidence:  clampConfidence((combinedBearish - 0.5) * 200),
		Diagnostics: diagnostics,
	}, nil
}

// insiderRatios treats negative transaction shares as bearish and positive
// as bullish. An empty series counts as a 50/50 split.
func insiderRatios(trades []marketdata.InsiderTrade) (bullish, bearish float64, count int) {
	var buys, sells int
	for _, t := range trades {
		if t.TransactionShares == nil {
			continue
		}
		if *t.TransactionShares < 0 {
			sells++
		} else {
			buys++
		}
	}
	count = buys + sells
	if count == 0 {
		return 0.5, 0.5, 0
	}
	return float64(buys) / float64(count), float64(sells) / float64(count), count
}

func newsRatios(news []marketdata.NewsItem) (bullish, bearish float64, count int) {
	var pos, neg int
	for _, n := range news {
		switch n.Sentiment {
		case "positive":
			pos++
		case "negative":
			neg++
		}
		count++
	}
	if count == 0 {
		return 0.5, 0.5, 0
	}
	return float64(pos) / float64(count), float64(neg) / float64(count), count
}
