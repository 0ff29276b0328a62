// Package config loads and validates the fund runtime configuration.
package config

import "strings"

// Config is the main configuration carrier.
type Config struct {
	App       AppConfig       `toml:"app"`
	Data      DataConfig      `toml:"data"`
	AI        AIConfig        `toml:"ai"`
	Analysts  AnalystsConfig  `toml:"analysts"`
	Risk      RiskConfig      `toml:"risk"`
	Broker    BrokerConfig    `toml:"broker"`
	Pipeline  PipelineConfig  `toml:"pipeline"`
	Scheduler SchedulerConfig `toml:"scheduler"`
	Journal   JournalConfig   `toml:"journal"`
	Notify    NotifyConfig    `toml:"notify"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	HTTPAddr string `toml:"http_addr"`
	LogPath  string `toml:"log_path"`
	LLMLog   string `toml:"llm_log_path"`
	LLMDump  bool   `toml:"llm_dump_payload"`
}

// DataConfig describes the market-data API access.
type DataConfig struct {
	APIURL          string `toml:"api_url"`
	APIKey          string `toml:"api_key"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
	MaxRetries      int    `toml:"max_retries"`
	CacheTTLSeconds int    `toml:"cache_ttl_seconds"`
}

// AIConfig describes the decision model endpoint.
type AIConfig struct {
	APIURL         string `toml:"api_url"`
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// AnalystsConfig selects and tunes the signal producers.
type AnalystsConfig struct {
	// Active selects producers by name; empty means all registered.
	Active    []string        `toml:"active"`
	Sentiment SentimentConfig `toml:"sentiment"`
}

// SentimentConfig holds the sentiment blend weights. WeightsPath, when set,
// points to a yaml file watched for live weight changes.
type SentimentConfig struct {
	InsiderWeight float64 `toml:"insider_weight"`
	NewsWeight    float64 `toml:"news_weight"`
	WeightsPath   string  `toml:"weights_path"`
}

// RiskConfig bounds position sizing. PerInstrument values are absolute
// quote-currency limits overriding the percentage-derived one.
type RiskConfig struct {
	MaxPositionPct float64            `toml:"max_position_pct"`
	PerInstrument  map[string]float64 `toml:"per_instrument"`
}

type BrokerConfig struct {
	Backend             string `toml:"backend"`
	Paper               bool   `toml:"paper"`
	APIKey              string `toml:"api_key"`
	APISecret           string `toml:"api_secret"`
	OrderTimeoutSeconds int    `toml:"order_timeout_seconds"`
}

type PipelineConfig struct {
	Instruments            []string `toml:"instruments"`
	ProducerTimeoutSeconds int      `toml:"producer_timeout_seconds"`
	Parallelism            int      `toml:"parallelism"`
}

type SchedulerConfig struct {
	IntervalMinutes   int    `toml:"interval_minutes"`
	MarketHoursOnly   bool   `toml:"market_hours_only"`
	RetryAttempts     int    `toml:"retry_attempts"`
	RetryDelaySeconds int    `toml:"retry_delay_seconds"`
	ExchangeTimezone  string `toml:"exchange_timezone"`
	// MinIntervalMinutes/MaxIntervalMinutes bound the accepted interval.
	MinIntervalMinutes int `toml:"min_interval_minutes"`
	MaxIntervalMinutes int `toml:"max_interval_minutes"`
}

type JournalConfig struct {
	Path string `toml:"path"`
}

type NotifyConfig struct {
	Telegram TelegramConfig `toml:"telegram"`
}

type TelegramConfig struct {
	Enabled  bool   `toml:"enabled"`
	BotToken string `toml:"bot_token"`
	ChatID   string `toml:"chat_id"`
}

// NormalizedInstruments returns the instrument list upper-cased and trimmed,
// dropping blanks.
func (p PipelineConfig) NormalizedInstruments() []string {
	out := make([]string, 0, len(p.Instruments))
	for _, s := range p.Instruments {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
