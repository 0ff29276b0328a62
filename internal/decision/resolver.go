package decision

import (
	"context"
	"fmt"

	"fundbot/internal/progress"
	"fundbot/internal/types"
)

const component = "decision_resolver"

// Resolver turns aggregated signals plus risk envelopes into final
// decisions. Whatever the generation collaborator returns, the resolver
// guarantees: exactly one decision per requested instrument, action in
// {buy,sell,hold}, hold implies quantity 0, quantity within the envelope,
// confidence within [0,100].
type Resolver struct {
	generator Generator
	reporter  progress.Reporter
}

func NewResolver(generator Generator, reporter progress.Reporter) *Resolver {
	if reporter == nil {
		reporter = progress.Nop{}
	}
	return &Resolver{generator: generator, reporter: reporter}
}

// ResolveAll produces one decision per instrument in signalsByInstrument.
// The collaborator is invoked once with every instrument that has at least
// one usable signal; instruments without usable signals, or without an
// envelope, fall back to hold without touching the collaborator.
func (r *Resolver) ResolveAll(
	ctx context.Context,
	signalsByInstrument map[string]types.SignalSet,
	envelopes map[string]types.RiskEnvelope,
	portfolio *types.Portfolio,
) map[string]types.Decision {
	decisions := make(map[string]types.Decision, len(signalsByInstrument))

	input := Input{
		SignalsByInstrument: make(map[string]map[string]types.Signal),
		MaxShares:           make(map[string]int64),
		Portfolio:           portfolio,
	}
	for instrument, set := range signalsByInstrument {
		envelope, hasEnvelope := envelopes[instrument]
		usable := set.Usable()
		switch {
		case !hasEnvelope:
			decisions[instrument] = types.HoldDecision(instrument, "risk evaluation failed")
		case len(usable) == 0:
			r.reporter.Update(component, instrument, "no usable signals")
			decisions[instrument] = types.HoldDecision(instrument, "no usable signals")
		default:
			input.SignalsByInstrument[instrument] = usable
			input.MaxShares[instrument] = envelope.MaxQuantity
		}
	}
	if len(input.SignalsByInstrument) == 0 {
		return decisions
	}

	r.reporter.Update(component, "", "generating decisions")
	proposals, err := r.generator.Generate(ctx, input)
	if err != nil {
		// Collaborator failure degrades every pending instrument, never the run.
		r.reporter.Update(component, "", fmt.Sprintf("generation failed: %v", err))
		for instrument := range input.SignalsByInstrument {
			derr := &Error{Instrument: instrument, Err: err}
			decisions[instrument] = types.HoldDecision(instrument, derr.Error())
		}
		return decisions
	}

	for instrument := range input.SignalsByInstrument {
		proposal, ok := proposals[instrument]
		if !ok {
			derr := &Error{Instrument: instrument, Err: errNoProposal}
			decisions[instrument] = types.HoldDecision(instrument, derr.Error())
			continue
		}
		decisions[instrument] = finalize(instrument, proposal, envelopes[instrument])
		r.reporter.Update(component, instrument, string(decisions[instrument].Action))
	}
	return decisions
}

// finalize applies the post-processing invariants unconditionally.
func finalize(instrument string, p Proposal, envelope types.RiskEnvelope) types.Decision {
	d := types.Decision{
		Instrument: instrument,
		Action:     types.NormalizeAction(p.Action),
		Quantity:   p.Quantity,
		Confidence: clamp(p.Confidence, 0, 100),
		Rationale:  p.Reasoning,
	}
	if d.Quantity < 0 {
		d.Quantity = 0
	}
	if d.Action == types.ActionHold {
		d.Quantity = 0
		return d
	}
	if d.Quantity > envelope.MaxQuantity {
		d.Rationale = appendRationale(d.Rationale,
			fmt.Sprintf("quantity clamped from %d to risk limit %d", d.Quantity, envelope.MaxQuantity))
		d.Quantity = envelope.MaxQuantity
	}
	return d
}

func appendRationale(base, note string) string {
	if base == "" {
		return note
	}
	return base + " [" + note + "]"
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
