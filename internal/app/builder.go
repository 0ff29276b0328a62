package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fundbot/internal/analyst"
	"fundbot/internal/config"
	"fundbot/internal/decision"
	"fundbot/internal/executor"
	"fundbot/internal/gateway/broker"
	"fundbot/internal/gateway/notifier"
	"fundbot/internal/gateway/provider"
	"fundbot/internal/marketdata"
	"fundbot/internal/pipeline"
	"fundbot/internal/progress"
	"fundbot/internal/risk"
	"fundbot/internal/scheduler"
	"fundbot/internal/store/runlog"
	transporthttp "fundbot/internal/transport/http"
)

// Builder assembles the runtime from configuration. Constructor hooks are
// swappable so tests can inject fakes without touching real venues.
type Builder struct {
	cfg *config.Config

	dataFn   func(config.DataConfig) marketdata.Provider
	chatFn   func(config.AIConfig) provider.ChatClient
	brokerFn func(config.BrokerConfig) (broker.Broker, error)
}

type BuilderOption func(*Builder)

func WithDataProvider(p marketdata.Provider) BuilderOption {
	return func(b *Builder) { b.dataFn = func(config.DataConfig) marketdata.Provider { return p } }
}

func WithChatClient(c provider.ChatClient) BuilderOption {
	return func(b *Builder) { b.chatFn = func(config.AIConfig) provider.ChatClient { return c } }
}

func WithBroker(bk broker.Broker) BuilderOption {
	return func(b *Builder) { b.brokerFn = func(config.BrokerConfig) (broker.Broker, error) { return bk, nil } }
}

func NewBuilder(cfg *config.Config, opts ...BuilderOption) *Builder {
	b := &Builder{
		cfg:      cfg,
		dataFn:   buildDataProvider,
		chatFn:   buildChatClient,
		brokerFn: buildBroker,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

func buildDataProvider(cfg config.DataConfig) marketdata.Provider {
	client := marketdata.NewClient(cfg.APIKey,
		marketdata.WithBaseURL(cfg.APIURL),
		marketdata.WithTimeout(time.Duration(cfg.TimeoutSeconds)*time.Second),
		marketdata.WithMaxRetries(cfg.MaxRetries),
	)
	return marketdata.NewCachedProvider(client, time.Duration(cfg.CacheTTLSeconds)*time.Second)
}

func buildChatClient(cfg config.AIConfig) provider.ChatClient {
	return provider.NewOpenAIChatClient(cfg.APIURL, cfg.APIKey, cfg.Model, 0.2,
		time.Duration(cfg.TimeoutSeconds)*time.Second)
}

func buildBroker(cfg config.BrokerConfig) (broker.Broker, error) {
	return broker.New(broker.Kind(cfg.Backend), broker.Credentials{
		APIKey:    cfg.APIKey,
		APISecret: cfg.APISecret,
	}, cfg.Paper)
}

// Build wires the full application. Scheduled mode additionally constructs
// the recurring scheduler; its interval is validated here, before any run.
func (b *Builder) Build(scheduled bool) (*App, error) {
	cfg := b.cfg
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}

	data := b.dataFn(cfg.Data)
	reporter := progress.Log{}

	sentiment := analyst.NewSentiment(data, analyst.SentimentWeights{
		Insider: cfg.Analysts.Sentiment.InsiderWeight,
		News:    cfg.Analysts.Sentiment.NewsWeight,
	}, 0, 0)
	registry := analyst.NewRegistry(
		analyst.NewTechnical(data),
		analyst.NewFundamentals(data, 10),
		sentiment,
		analyst.NewValuation(data),
	)

	// viper lowercases map keys; instruments are tracked upper-cased
	perInstrument := make(map[string]decimal.Decimal, len(cfg.Risk.PerInstrument))
	for sym, amount := range cfg.Risk.PerInstrument {
		perInstrument[strings.ToUpper(sym)] = decimal.NewFromFloat(amount)
	}
	evaluator := risk.NewEvaluator(data, risk.Limits{
		MaxPositionPct: cfg.Risk.MaxPositionPct,
		PerInstrument:  perInstrument,
	}, reporter)

	resolver := decision.NewResolver(decision.NewLLMGenerator(b.chatFn(cfg.AI)), reporter)

	venue, err := b.brokerFn(cfg.Broker)
	if err != nil {
		return nil, fmt.Errorf("building broker: %w", err)
	}
	exec := executor.New(venue, reporter, time.Duration(cfg.Broker.OrderTimeoutSeconds)*time.Second)

	journal, err := runlog.Open(cfg.Journal.Path)
	if err != nil {
		return nil, fmt.Errorf("opening run journal: %w", err)
	}

	runner := pipeline.NewRunner(registry, evaluator, resolver, exec, reporter, journal, pipeline.Options{
		ProducerTimeout: time.Duration(cfg.Pipeline.ProducerTimeoutSeconds) * time.Second,
		Parallelism:     cfg.Pipeline.Parallelism,
	})

	var push notifier.TextNotifier = notifier.Nop{}
	if cfg.Notify.Telegram.Enabled {
		push = notifier.NewTelegram(cfg.Notify.Telegram.BotToken, cfg.Notify.Telegram.ChatID)
	}

	app := &App{
		cfg:         cfg,
		runner:      runner,
		broker:      venue,
		journal:     journal,
		notify:      push,
		instruments: cfg.Pipeline.NormalizedInstruments(),
		producers:   cfg.Analysts.Active,
	}

	if path := cfg.Analysts.Sentiment.WeightsPath; path != "" {
		watcher, err := config.NewWeightsWatcher(path)
		if err != nil {
			return nil, fmt.Errorf("starting weights watcher: %w", err)
		}
		watcher.Subscribe(func(w config.SentimentWeightsFile) {
			sentiment.SetWeights(analyst.SentimentWeights{Insider: w.InsiderWeight, News: w.NewsWeight})
		})
		app.weights = watcher
	}

	if scheduled {
		loc, err := time.LoadLocation(cfg.Scheduler.ExchangeTimezone)
		if err != nil {
			return nil, fmt.Errorf("loading exchange timezone: %w", err)
		}
		sched, err := scheduler.New(app.tick, scheduler.Options{
			Interval:        time.Duration(cfg.Scheduler.IntervalMinutes) * time.Minute,
			MarketHoursOnly: cfg.Scheduler.MarketHoursOnly,
			RetryAttempts:   cfg.Scheduler.RetryAttempts,
			RetryDelay:      time.Duration(cfg.Scheduler.RetryDelaySeconds) * time.Second,
			Location:        loc,
			MinInterval:     time.Duration(cfg.Scheduler.MinIntervalMinutes) * time.Minute,
			MaxInterval:     time.Duration(cfg.Scheduler.MaxIntervalMinutes) * time.Minute,
		})
		if err != nil {
			return nil, err
		}
		app.sched = sched
	}

	app.httpSrv = transporthttp.NewServer(transporthttp.Config{
		Addr:      cfg.App.HTTPAddr,
		Scheduler: app.schedulerStater(),
		Runs:      journal,
	})
	return app, nil
}
