package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fundbot/internal/analyst"
	"fundbot/internal/decision"
	"fundbot/internal/executor"
	"fundbot/internal/progress"
	"fundbot/internal/risk"
	"fundbot/internal/types"
)

const component = "pipeline"

// Journal records run results after the run reaches a terminal state.
// Failures inside the journal must not affect the run; implementations log
// and swallow their own errors.
type Journal interface {
	RecordRun(state *RunState)
}

// Options tune the runner's fan-out behavior.
type Options struct {
	// ProducerTimeout bounds each individual producer invocation.
	ProducerTimeout time.Duration
	// Parallelism caps concurrent producer tasks; 0 means unbounded.
	Parallelism int
}

// Runner owns the decision pipeline. Build once, run per tick.
type Runner struct {
	registry  *analyst.Registry
	evaluator *risk.Evaluator
	resolver  *decision.Resolver
	executor  *executor.Executor
	reporter  progress.Reporter
	journal   Journal
	opts      Options
}

func NewRunner(
	registry *analyst.Registry,
	evaluator *risk.Evaluator,
	resolver *decision.Resolver,
	exec *executor.Executor,
	reporter progress.Reporter,
	journal Journal,
	opts Options,
) *Runner {
	if reporter == nil {
		reporter = progress.Nop{}
	}
	if opts.ProducerTimeout <= 0 {
		opts.ProducerTimeout = 60 * time.Second
	}
	return &Runner{
		registry:  registry,
		evaluator: evaluator,
		resolver:  resolver,
		executor:  exec,
		reporter:  reporter,
		journal:   journal,
		opts:      opts,
	}
}

// Request describes one pipeline invocation.
type Request struct {
	Instruments []string
	AsOf        time.Time
	Portfolio   *types.Portfolio
	// ActiveProducers selects producers by name; empty means all registered.
	ActiveProducers []string
}

// Run executes the full workflow. The returned state always carries exactly
// one decision per requested instrument unless the run failed before the
// producer stage (a run-level *Error). Per-instrument failures degrade that
// instrument to a safe hold and never fail the run.
func (r *Runner) Run(ctx context.Context, req Request) (*RunState, error) {
	state := &RunState{
		ID:          uuid.NewString(),
		Instruments: req.Instruments,
		AsOf:        req.AsOf,
		Portfolio:   req.Portfolio,
		Status:      StatusCreated,
		StartedAt:   time.Now().UTC(),
	}
	defer func() {
		state.FinishedAt = time.Now().UTC()
		if r.journal != nil {
			r.journal.RecordRun(state)
		}
	}()

	producers, err := r.validate(req)
	if err != nil {
		state.Status = StatusFailed
		state.FailReason = err.Error()
		return state, err
	}

	// Stage 1: producer fan-out / fan-in.
	state.Status = StatusProducersRunning
	r.reporter.Update(component, "", fmt.Sprintf("run %s: %d producers x %d instruments", state.ID, len(producers), len(req.Instruments)))
	state.SignalsByProducer = collectSignals(ctx, producers, req.Instruments, req.AsOf,
		r.opts.ProducerTimeout, r.opts.Parallelism, r.reporter)

	// Stage 2: per-instrument risk envelopes. A risk failure costs only
	// that instrument its envelope; it is degraded to hold at resolution.
	envelopes := make(map[string]types.RiskEnvelope, len(req.Instruments))
	riskFailures := make(map[string]string)
	for _, instrument := range req.Instruments {
		envelope, err := r.evaluator.Evaluate(ctx, instrument, req.Portfolio, req.AsOf)
		if err != nil {
			riskFailures[instrument] = err.Error()
			r.reporter.Update(component, instrument, fmt.Sprintf("risk degraded to hold: %v", err))
			continue
		}
		envelopes[instrument] = envelope
	}
	state.Status = StatusRiskEvaluated

	// Stage 3: decision resolution over each instrument's own signal set.
	signalsByInstrument := make(map[string]types.SignalSet, len(req.Instruments))
	for _, instrument := range req.Instruments {
		signalsByInstrument[instrument] = state.signalsFor(instrument)
	}
	state.Decisions = r.resolver.ResolveAll(ctx, signalsByInstrument, envelopes, req.Portfolio)
	for instrument, reason := range riskFailures {
		// Rationale carries the risk error rather than the generic fallback.
		state.Decisions[instrument] = types.HoldDecision(instrument, reason)
	}
	// A run never silently drops an instrument.
	for _, instrument := range req.Instruments {
		if _, ok := state.Decisions[instrument]; !ok {
			state.Decisions[instrument] = types.HoldDecision(instrument, "no decision produced")
		}
	}
	state.Status = StatusDecisionsResolved

	// Stage 4: execution with per-instrument isolation.
	state.Status = StatusExecuting
	state.ExecutionResults = r.executor.Execute(ctx, state.Decisions, req.Portfolio)

	state.Status = StatusCompleted
	r.reporter.Update(component, "", fmt.Sprintf("run %s completed", state.ID))
	return state, nil
}

// validate resolves the producer set and rejects malformed requests. These
// are the only failures that abort a run.
func (r *Runner) validate(req Request) ([]analyst.Producer, error) {
	if len(req.Instruments) == 0 {
		return nil, &Error{Stage: StatusCreated, Err: fmt.Errorf("no instruments requested")}
	}
	if req.Portfolio == nil {
		return nil, &Error{Stage: StatusCreated, Err: fmt.Errorf("nil portfolio")}
	}
	producers, err := r.registry.Select(req.ActiveProducers)
	if err != nil {
		return nil, &Error{Stage: StatusCreated, Err: err}
	}
	if len(producers) == 0 {
		return nil, &Error{Stage: StatusCreated, Err: fmt.Errorf("no producers configured")}
	}
	return producers, nil
}
