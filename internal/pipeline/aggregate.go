package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"fundbot/internal/analyst"
	"fundbot/internal/progress"
	"fundbot/internal/types"
)

// collectSignals fans every (producer, instrument) pair out concurrently and
// waits for all of them. Each pair's failure (error return, timeout or
// panic) is captured in place as a neutral zero-confidence entry, so the
// returned map always holds exactly one result per configured producer per
// instrument and no downstream stage ever sees a partial set.
func collectSignals(
	ctx context.Context,
	producers []analyst.Producer,
	instruments []string,
	asOf time.Time,
	timeout time.Duration,
	parallelism int,
	reporter progress.Reporter,
) map[string]map[string]types.ProducerResult {
	results := make(map[string]map[string]types.ProducerResult, len(producers))
	for _, p := range producers {
		results[p.Name()] = make(map[string]types.ProducerResult, len(instruments))
	}

	var mu sync.Mutex
	group, groupCtx := errgroup.WithContext(ctx)
	if parallelism > 0 {
		group.SetLimit(parallelism)
	}

	for _, p := range producers {
		for _, instrument := range instruments {
			p, instrument := p, instrument
			group.Go(func() error {
				res := invokeProducer(groupCtx, p, instrument, asOf, timeout, reporter)
				mu.Lock()
				results[p.Name()][instrument] = res
				mu.Unlock()
				return nil
			})
		}
	}
	_ = group.Wait() // tasks never return errors; failures are data
	return results
}

// invokeProducer runs one producer for one instrument under its own
// deadline and converts every failure mode into a captured result.
func invokeProducer(
	ctx context.Context,
	p analyst.Producer,
	instrument string,
	asOf time.Time,
	timeout time.Duration,
	reporter progress.Reporter,
) (res types.ProducerResult) {
	defer func() {
		if r := recover(); r != nil {
			res = failedResult(fmt.Sprintf("producer panic: %v", r))
			reporter.Update(p.Name(), instrument, res.Err)
		}
	}()

	callCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	reporter.Update(p.Name(), instrument, "analyzing")
	signal, err := p.Analyze(callCtx, instrument, asOf)
	if err != nil {
		perr := &analyst.ProducerError{Producer: p.Name(), Instrument: instrument, Err: err}
		reporter.Update(p.Name(), instrument, perr.Error())
		return failedResult(err.Error())
	}
	reporter.Update(p.Name(), instrument, "done")
	return types.ProducerResult{Signal: signal}
}

// failedResult is the safe default slot for a failed producer: neutral,
// zero confidence, error recorded.
func failedResult(reason string) types.ProducerResult {
	return types.ProducerResult{
		Signal: types.Signal{Direction: types.Neutral, Confidence: 0},
		Err:    reason,
	}
}
