// Package pipeline wires the trading decision workflow: fan data out to the
// signal producers, fan signals back in, bound them with risk envelopes,
// resolve final decisions and drive execution, with every per-instrument
// failure absorbed at the instrument boundary.
package pipeline

import (
	"fmt"
	"time"

	"fundbot/internal/types"
)

// Status is the run's position in the stage machine. Completed and Failed
// are terminal; no status is revisited.
type Status string

const (
	StatusCreated           Status = "created"
	StatusProducersRunning  Status = "producers_running"
	StatusRiskEvaluated     Status = "risk_evaluated"
	StatusDecisionsResolved Status = "decisions_resolved"
	StatusExecuting         Status = "executing"
	StatusCompleted         Status = "completed"
	StatusFailed            Status = "failed"
)

// Error is a run-level failure: workflow misconfiguration or another fault
// outside any single instrument's control. Per-instrument failures never
// surface as this type.
type Error struct {
	Stage Status
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("pipeline failed at %s: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// RunState is the shared mutable state threaded through one run. It is
// owned by the runner, mutated only by the stage currently executing, and
// immutable once the run reaches a terminal status.
type RunState struct {
	ID          string           `json:"id"`
	Instruments []string         `json:"instruments"`
	AsOf        time.Time        `json:"as_of"`
	Portfolio   *types.Portfolio `json:"portfolio"`

	// SignalsByProducer is producer -> instrument -> captured result.
	SignalsByProducer map[string]map[string]types.ProducerResult `json:"signals_by_producer"`
	Decisions         map[string]types.Decision                  `json:"decisions"`
	ExecutionResults  map[string]types.ExecutionOutcome          `json:"execution_results"`

	Status     Status    `json:"status"`
	FailReason string    `json:"fail_reason,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// signalsFor collects every producer's result for one instrument. The
// returned set never mixes in another instrument's results.
func (s *RunState) signalsFor(instrument string) types.SignalSet {
	set := make(types.SignalSet, len(s.SignalsByProducer))
	for producer, byInstrument := range s.SignalsByProducer {
		if res, ok := byInstrument[instrument]; ok {
			set[producer] = res
		}
	}
	return set
}
