package types

import "strings"

// Direction is an analyst's directional opinion on an instrument.
type Direction string

const (
	Bullish Direction = "bullish"
	Bearish Direction = "bearish"
	Neutral Direction = "neutral"
)

// ParseDirection maps free-form analyst output onto a known direction.
// Anything unrecognized is neutral.
func ParseDirection(s string) Direction {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bullish", "buy", "long":
		return Bullish
	case "bearish", "sell", "short":
		return Bearish
	default:
		return Neutral
	}
}

// Signal is one producer's opinion for one instrument at one point in time.
// Immutable after creation.
type Signal struct {
	Direction   Direction         `json:"signal"`
	Confidence  float64           `json:"confidence"` // 0..100
	Diagnostics map[string]string `json:"reasoning,omitempty"`
}

// ProducerResult is one slot in the aggregated signal set: either a usable
// signal or a captured producer failure. A failed slot still carries a
// neutral zero-confidence signal so downstream stages always see one entry
// per configured producer.
type ProducerResult struct {
	Signal Signal `json:"signal"`
	Err    string `json:"error,omitempty"`
}

// Failed reports whether this slot records a producer failure.
func (r ProducerResult) Failed() bool { return r.Err != "" }

// SignalSet maps producer name to its result for a single instrument.
type SignalSet map[string]ProducerResult

// Usable returns the signals without an error tag, keyed by producer.
func (s SignalSet) Usable() map[string]Signal {
	out := make(map[string]Signal, len(s))
	for name, res := range s {
		if !res.Failed() {
			out[name] = res.Signal
		}
	}
	return out
}
