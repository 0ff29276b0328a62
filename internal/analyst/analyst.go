// Package analyst holds the signal producers: independent, stateless
// components that each turn fetched market data into a directional signal
// with a confidence score for one instrument.
package analyst

import (
	"context"
	"fmt"
	"sort"
	"time"

	"fundbot/internal/types"
)

// Producer derives one signal for one instrument at one as-of date. A
// failed producer returns a non-nil error; it never panics across the
// boundary and never blocks past its context deadline.
type Producer interface {
	Name() string
	Analyze(ctx context.Context, instrument string, asOf time.Time) (types.Signal, error)
}

// ProducerError tags a failure with the producer and instrument it belongs
// to. Per-producer, per-instrument, non-fatal.
type ProducerError struct {
	Producer   string
	Instrument string
	Err        error
}

func (e *ProducerError) Error() string {
	return fmt.Sprintf("producer %s failed for %s: %v", e.Producer, e.Instrument, e.Err)
}

func (e *ProducerError) Unwrap() error { return e.Err }

// DefaultOrder is the canonical producer ordering used when no explicit
// selection is configured.
var DefaultOrder = []string{"technical", "fundamentals", "sentiment", "valuation"}

// Registry holds the configured producers keyed by name.
type Registry struct {
	producers map[string]Producer
}

func NewRegistry(producers ...Producer) *Registry {
	r := &Registry{producers: make(map[string]Producer, len(producers))}
	for _, p := range producers {
		if p != nil {
			r.producers[p.Name()] = p
		}
	}
	return r
}

// Select resolves the requested producer names, preserving DefaultOrder for
// known names and appending unknown-but-registered ones alphabetically. An
// empty selection means all registered producers.
func (r *Registry) Select(names []string) ([]Producer, error) {
	if len(names) == 0 {
		names = r.Names()
	}
	out := make([]Producer, 0, len(names))
	for _, name := range names {
		p, ok := r.producers[name]
		if !ok {
			return nil, fmt.Errorf("unknown analyst %q", name)
		}
		out = append(out, p)
	}
	return out, nil
}

// Names returns registered producer names in DefaultOrder-first order.
func (r *Registry) Names() []string {
	known := make(map[string]bool, len(r.producers))
	var out []string
	for _, name := range DefaultOrder {
		if _, ok := r.producers[name]; ok {
			out = append(out, name)
			known[name] = true
		}
	}
	var rest []string
	for name := range r.producers {
		if !known[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}
