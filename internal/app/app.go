// Package app assembles the configured runtime and drives one-shot or
// scheduled operation.
package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"fundbot/internal/config"
	"fundbot/internal/gateway/broker"
	"fundbot/internal/gateway/notifier"
	"fundbot/internal/logger"
	"fundbot/internal/pipeline"
	"fundbot/internal/scheduler"
	"fundbot/internal/store/runlog"
	transporthttp "fundbot/internal/transport/http"
	"fundbot/internal/types"
)

type App struct {
	cfg         *config.Config
	runner      *pipeline.Runner
	broker      broker.Broker
	journal     *runlog.Store
	notify      notifier.TextNotifier
	weights     *config.WeightsWatcher
	sched       *scheduler.Scheduler
	httpSrv     *transporthttp.Server
	instruments []string
	producers   []string
}

// NewApp builds the application from config. Scheduled selects recurring
// operation; one-shot runs the workflow once and exits.
func NewApp(cfg *config.Config, scheduled bool, opts ...BuilderOption) (*App, error) {
	return NewBuilder(cfg, opts...).Build(scheduled)
}

func (a *App) schedulerStater() transporthttp.SchedulerStater {
	if a.sched == nil {
		return nil
	}
	return a.sched
}

// Run starts the HTTP server, the weights watcher and either the scheduler
// loop or a single workflow run, and blocks until ctx is cancelled or the
// work finishes.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	group, ctx := errgroup.WithContext(ctx)

	if a.weights != nil {
		group.Go(func() error {
			a.weights.Run(ctx)
			return nil
		})
	}
	group.Go(func() error {
		if err := a.httpSrv.Start(ctx); err != nil && ctx.Err() == nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if a.sched != nil {
		group.Go(func() error {
			err := a.sched.Start(ctx)
			if err != nil && ctx.Err() != nil {
				return nil // cooperative stop
			}
			return err
		})
		return group.Wait()
	}

	// One-shot: run once, then release the auxiliary goroutines.
	runCtx, cancel := context.WithCancel(ctx)
	var runErr error
	group.Go(func() error {
		defer cancel()
		runErr = a.tick(runCtx)
		return nil
	})
	_ = group.Wait()
	return runErr
}

// tick is one full workflow invocation, used directly in one-shot mode and
// as the scheduler's tick function.
func (a *App) tick(ctx context.Context) error {
	portfolio, err := a.loadPortfolio(ctx)
	if err != nil {
		return fmt.Errorf("loading portfolio: %w", err)
	}

	state, err := a.runner.Run(ctx, pipeline.Request{
		Instruments:     a.instruments,
		AsOf:            time.Now().UTC(),
		Portfolio:       portfolio,
		ActiveProducers: a.producers,
	})
	if err != nil {
		return err
	}

	if msg := renderRunSummary(state); msg != "" {
		if err := a.notify.SendText(msg); err != nil {
			logger.Warnf("app: run summary push failed: %v", err)
		}
	}
	return nil
}

// loadPortfolio snapshots cash and open positions from the venue before a
// run. The workflow reads this snapshot; only execution reconciliation
// mutates it afterwards.
func (a *App) loadPortfolio(ctx context.Context) (*types.Portfolio, error) {
	if err := a.broker.Connect(ctx); err != nil {
		return nil, err
	}
	defer func() {
		if err := a.broker.Disconnect(context.WithoutCancel(ctx)); err != nil {
			logger.Warnf("app: broker disconnect failed: %v", err)
		}
	}()

	account, err := a.broker.GetAccountInfo(ctx)
	if err != nil {
		return nil, err
	}
	venuePositions, err := a.broker.GetPositions(ctx)
	if err != nil {
		return nil, err
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
	portfolio := types.NewPortfolio(account.Cash, a.instruments)
	if err := portfolio.Replace(account.Cash, positions); err != nil {
		return nil, err
	}
	return portfolio, nil
}

func (a *App) Close() {
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			logger.Warnf("app: closing run journal: %v", err)
		}
	}
}
