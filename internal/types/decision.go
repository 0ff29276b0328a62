package types

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Action is the final instruction for one instrument.
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
	ActionHold Action = "hold"
)

// NormalizeAction folds model output onto the known action set. "wait" is
// treated as hold; anything else unrecognized also degrades to hold.
func NormalizeAction(s string) Action {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy":
		return ActionBuy
	case "sell":
		return ActionSell
	default:
		return ActionHold
	}
}

// RiskEnvelope bounds what the decision stage may do with one instrument in
// one run. Never persisted across runs.
type RiskEnvelope struct {
	Instrument        string          `json:"instrument"`
	MaxQuantity       int64           `json:"max_quantity"`
	RemainingExposure decimal.Decimal `json:"remaining_exposure"`
	CurrentPrice      decimal.Decimal `json:"current_price"`
}

// Decision is the resolved buy/sell/hold instruction for one instrument.
// Invariants enforced by the resolver: hold implies quantity 0, quantity
// never exceeds the envelope's MaxQuantity, confidence lies in [0,100].
type Decision struct {
	Instrument string  `json:"instrument"`
	Action     Action  `json:"action"`
	Quantity   int64   `json:"quantity"`
	Confidence float64 `json:"confidence"`
	Rationale  string  `json:"rationale"`
}

// HoldDecision is the safe default used whenever an instrument cannot be
// traded: missing data, no usable signals, or a collaborator failure.
func HoldDecision(instrument, rationale string) Decision {
	return Decision{
		Instrument: instrument,
		Action:     ActionHold,
		Rationale:  rationale,
	}
}

// ExecutionStatus classifies the outcome of one instrument's execution.
type ExecutionStatus string

const (
	ExecutionSuccess ExecutionStatus = "success"
	ExecutionFailed  ExecutionStatus = "failed"
	ExecutionSkipped ExecutionStatus = "skipped"
)

// ExecutionOutcome records what happened to one instrument's decision at the
// venue. Immutable once recorded; exactly one per instrument per run.
type ExecutionOutcome struct {
	Instrument string          `json:"instrument"`
	Status     ExecutionStatus `json:"status"`
	OrderID    string          `json:"order_id,omitempty"`
	Error      string          `json:"error,omitempty"`
}
