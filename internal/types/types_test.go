package types

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAction(t *testing.T) {
	assert.Equal(t, ActionBuy, NormalizeAction("buy"))
	assert.Equal(t, ActionBuy, NormalizeAction(" BUY "))
	assert.Equal(t, ActionSell, NormalizeAction("Sell"))
	assert.Equal(t, ActionHold, NormalizeAction("hold"))
	assert.Equal(t, ActionHold, NormalizeAction("wait"))
	assert.Equal(t, ActionHold, NormalizeAction("short everything"))
	assert.Equal(t, ActionHold, NormalizeAction(""))
}

func TestParseDirection(t *testing.T) {
	assert.Equal(t, Bullish, ParseDirection("bullish"))
	assert.Equal(t, Bullish, ParseDirection("LONG"))
	assert.Equal(t, Bearish, ParseDirection("sell"))
	assert.Equal(t, Neutral, ParseDirection("sideways"))
	assert.Equal(t, Neutral, ParseDirection(""))
}

func TestHoldDecision(t *testing.T) {
	d := HoldDecision("AAPL", "no usable signals")
	assert.Equal(t, ActionHold, d.Action)
	assert.Zero(t, d.Quantity)
	assert.Equal(t, "no usable signals", d.Rationale)
}

func TestSignalSetUsable(t *testing.T) {
	set := SignalSet{
		"technical": {Signal: Signal{Direction: Bullish, Confidence: 80}},
		"sentiment": {Signal: Signal{Direction: Neutral}, Err: "timeout"},
	}
	usable := set.Usable()
	require.Len(t, usable, 1)
	assert.Equal(t, Bullish, usable["technical"].Direction)
}

func TestPortfolioReplace(t *testing.T) {
	p := NewPortfolio(decimal.NewFromInt(1000), []string{"AAPL"})

	t.Run("rejects negative cash", func(t *testing.T) {
		err := p.Replace(decimal.NewFromInt(-1), nil)
		require.Error(t, err)
		assert.True(t, p.Cash.Equal(decimal.NewFromInt(1000)), "prior state must survive a rejected update")
	})

	t.Run("swaps state", func(t *testing.T) {
		err := p.Replace(decimal.NewFromInt(500), map[string]Position{
			"MSFT": {Symbol: "MSFT", Shares: 2, MarketValue: decimal.NewFromInt(800)},
		})
		require.NoError(t, err)
		assert.True(t, p.TotalValue().Equal(decimal.NewFromInt(1300)))
		assert.True(t, p.Exposure("MSFT").Equal(decimal.NewFromInt(800)))
		assert.True(t, p.Exposure("AAPL").IsZero())
	})
}

func TestPortfolioClone(t *testing.T) {
	p := NewPortfolio(decimal.NewFromInt(100), []string{"AAPL"})
	c := p.Clone()
	c.Positions["AAPL"] = Position{Symbol: "AAPL", Shares: 5}
	assert.Zero(t, p.Positions["AAPL"].Shares, "clone must not share position storage")
}
