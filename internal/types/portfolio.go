package types

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Position is one holding inside the portfolio.
type Position struct {
	Symbol        string          `json:"symbol"`
	Shares        int64           `json:"shares"`
	AvgEntryPrice decimal.Decimal `json:"avg_entry_price"`
	MarketValue   decimal.Decimal `json:"market_value"`
	UnrealizedPL  decimal.Decimal `json:"unrealized_pl"`
}

// Portfolio is the account state shared across one pipeline run. It is read
// by the risk and decision stages and mutated only by the execution stage
// during reconciliation.
type Portfolio struct {
	Cash      decimal.Decimal     `json:"cash"`
	Positions map[string]Position `json:"positions"`
}

// NewPortfolio builds a portfolio with the given starting cash and a zero
// position slot for every instrument.
func NewPortfolio(cash decimal.Decimal, instruments []string) *Portfolio {
	positions := make(map[string]Position, len(instruments))
	for _, sym := range instruments {
		positions[sym] = Position{Symbol: sym}
	}
	return &Portfolio{Cash: cash, Positions: positions}
}

// TotalValue is cash plus the market value of all positions.
func (p *Portfolio) TotalValue() decimal.Decimal {
	total := p.Cash
	for _, pos := range p.Positions {
		total = total.Add(pos.MarketValue)
	}
	return total
}

// Exposure returns the market value held in one instrument.
func (p *Portfolio) Exposure(symbol string) decimal.Decimal {
	if pos, ok := p.Positions[symbol]; ok {
		return pos.MarketValue
	}
	return decimal.Zero
}

// Replace swaps in reconciled account state. Rejects any update that would
// leave cash negative; the previous state is kept in that case.
func (p *Portfolio) Replace(cash decimal.Decimal, positions map[string]Position) error {
	if cash.IsNegative() {
		return fmt.Errorf("portfolio update rejected: cash %s < 0", cash)
	}
	p.Cash = cash
	if positions == nil {
		positions = map[string]Position{}
	}
	p.Positions = positions
	return nil
}

// Clone returns a deep copy, used to snapshot state for prompts and logs.
func (p *Portfolio) Clone() *Portfolio {
	positions := make(map[string]Position, len(p.Positions))
	for k, v := range p.Positions {
		positions[k] = v
	}
	return &Portfolio{Cash: p.Cash, Positions: positions}
}
