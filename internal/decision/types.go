// Package decision resolves aggregated analyst signals and risk envelopes
// into final bounded decisions, delegating rationale/quantity synthesis to a
// generation collaborator and enforcing the safety invariants regardless of
// what that collaborator returns.
package decision

import (
	"context"
	"errors"
	"fmt"

	"fundbot/internal/types"
)

// Proposal is the collaborator's raw suggestion for one instrument, before
// any normalization or clamping.
type Proposal struct {
	Action     string  `json:"action"`
	Quantity   int64   `json:"quantity"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// Input is the material handed to the generation collaborator.
type Input struct {
	SignalsByInstrument map[string]map[string]types.Signal
	Portfolio           *types.Portfolio
	MaxShares           map[string]int64
}

// Generator produces proposals for the given instruments. A failed or
// malformed generation is returned as an error and degraded per instrument
// by the resolver; it never aborts the run.
type Generator interface {
	Generate(ctx context.Context, input Input) (map[string]Proposal, error)
}

// errNoProposal marks an instrument the collaborator silently dropped from
// its response.
var errNoProposal = errors.New("collaborator returned no proposal")

// Error is a per-instrument decision failure. The resolver records its text
// as the hold rationale when a generation degrades.
type Error struct {
	Instrument string
	Err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("decision generation failed for %s: %v", e.Instrument, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
