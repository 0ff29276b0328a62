// Package executor submits resolved decisions to the trade-execution venue
// with per-instrument failure isolation, then reconciles portfolio state
// from the venue.
package executor

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"fundbot/internal/gateway/broker"
	"fundbot/internal/logger"
	"fundbot/internal/progress"
	"fundbot/internal/types"
)

const component = "trading_executor"

// Executor drives one run's order flow. The broker session is acquired
// lazily on the first tradable decision and released on every exit path.
type Executor struct {
	broker       broker.Broker
	reporter     progress.Reporter
	orderTimeout time.Duration
}

func New(b broker.Broker, reporter progress.Reporter, orderTimeout time.Duration) *Executor {
	if reporter == nil {
		reporter = progress.Nop{}
	}
	if orderTimeout <= 0 {
		orderTimeout = 30 * time.Second
	}
	return &Executor{broker: b, reporter: reporter, orderTimeout: orderTimeout}
}

// Execute submits one order per tradable decision and records exactly one
// outcome per instrument. A submission failure for one instrument never
// blocks the others. After all submissions it reconciles account state into
// the portfolio; reconciliation failure is logged and leaves the portfolio
// at its prior value.
func (e *Executor) Execute(ctx context.Context, decisions map[string]types.Decision, portfolio *types.Portfolio) map[string]types.ExecutionOutcome {
	outcomes := make(map[string]types.ExecutionOutcome, len(decisions))

	connected := false
	defer func() {
		if connected {
			if err := e.broker.Disconnect(context.WithoutCancel(ctx)); err != nil {
				logger.Warnf("executor: broker disconnect failed: %v", err)
			}
		}
	}()

	// Stable ordering keeps logs and tests deterministic; outcomes are
	// independent either way.
	instruments := make([]string, 0, len(decisions))
	for sym := range decisions {
		instruments = append(instruments, sym)
	}
	sort.Strings(instruments)

	for _, instrument := range instruments {
		d := decisions[instrument]
		if d.Action == types.ActionHold || d.Quantity <= 0 {
			e.reporter.Update(component, instrument, "hold, no action needed")
			outcomes[instrument] = types.ExecutionOutcome{Instrument: instrument, Status: types.ExecutionSkipped}
			continue
		}

		if !connected {
			if err := e.broker.Connect(ctx); err != nil {
				// Venue unreachable: every remaining tradable decision fails
				// the same way, but outcomes are still recorded per instrument.
				msg := fmt.Sprintf("broker connect failed: %v", err)
				e.reporter.Update(component, instrument, msg)
				outcomes[instrument] = types.ExecutionOutcome{Instrument: instrument, Status: types.ExecutionFailed, Error: msg}
				continue
			}
			connected = true
		}

		outcomes[instrument] = e.submit(ctx, d)
	}

	if connected {
		e.reconcile(ctx, portfolio)
	}
	return outcomes
}

func (e *Executor) submit(ctx context.Context, d types.Decision) types.ExecutionOutcome {
	side := broker.SideBuy
	if d.Action == types.ActionSell {
		side = broker.SideSell
	}
	e.reporter.Update(component, d.Instrument, fmt.Sprintf("submitting %s %d", side, d.Quantity))

	orderCtx, cancel := context.WithTimeout(ctx, e.orderTimeout)
	defer cancel()

	resp, err := e.broker.PlaceOrder(orderCtx, broker.Order{
		Symbol:        d.Instrument,
		Quantity:      d.Quantity,
		Side:          side,
		Type:          broker.TypeMarket,
		ClientOrderID: uuid.NewString(),
	})
	if err != nil {
		e.reporter.Update(component, d.Instrument, fmt.Sprintf("order failed: %v", err))
		return types.ExecutionOutcome{
			Instrument: d.Instrument,
			Status:     types.ExecutionFailed,
			Error:      err.Error(),
		}
	}
	e.reporter.Update(component, d.Instrument, fmt.Sprintf("%s %d shares, order %s", side, d.Quantity, resp.OrderID))
	return types.ExecutionOutcome{
		Instrument: d.Instrument,
		Status:     types.ExecutionSuccess,
		OrderID:    resp.OrderID,
	}
}

// reconcile reads account cash and open positions back from the venue and
// replaces the portfolio view. Only this stage mutates the portfolio.
func (e *Executor) reconcile(ctx context.Context, portfolio *types.Portfolio) {
	e.reporter.Update(component, "", "reconciling portfolio")

	account, err := e.broker.GetAccountInfo(ctx)
	if err != nil {
		logger.Warnf("executor: reconciliation account read failed, keeping prior portfolio: %v", err)
		return
	}
	venuePositions, err := e.broker.GetPositions(ctx)
	if err != nil {
		logger.Warnf("executor: reconciliation positions read failed, keeping prior portfolio: %v", err)
		return
	}

	positions := make(map[string]types.Position, len(venuePositions))
	for _, p := range venuePositions {
		positions[p.Symbol] = types.Position{
			Symbol:        p.Symbol,
			Shares:        p.Quantity,
			AvgEntryPrice: p.AvgEntryPrice,
			MarketValue:   p.MarketValue,
			UnrealizedPL:  p.UnrealizedPL,
		}
	}
	if err := portfolio.Replace(account.Cash, positions); err != nil {
		logger.Warnf("executor: %v", err)
	}
}
