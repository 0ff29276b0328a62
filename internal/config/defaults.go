package config

import "os"

const (
	defaultAppEnv          = "dev"
	defaultAppLogLevel     = "info"
	defaultAppHTTPAddr     = ":9985"
	defaultAppLogPath      = "data/logs/fundbot.log"
	defaultAppLLMLogPath   = "data/logs/fundbot-llm.log"
	defaultDataAPIURL      = "https://api.financialdatasets.ai"
	defaultDataTimeout     = 30
	defaultDataRetries     = 2
	defaultDataCacheTTL    = 300
	defaultAIAPIURL        = "https://api.openai.com/v1"
	defaultAIModel         = "gpt-4o"
	defaultAITimeout       = 120
	defaultInsiderWeight   = 0.3
	defaultNewsWeight      = 0.7
	defaultMaxPositionPct  = 0.20
	defaultBrokerBackend   = "alpaca"
	defaultOrderTimeout    = 30
	defaultProducerTimeout = 60
	defaultInterval        = 60
	defaultMinInterval     = 5
	defaultMaxInterval     = 240
	defaultRetryAttempts   = 3
	defaultRetryDelay      = 60
	defaultTimezone        = "America/New_York"
	defaultJournalPath     = "data/db/runs.db"
)

func (c *Config) applyDefaults() {
	setString(&c.App.Env, defaultAppEnv)
	setString(&c.App.LogLevel, defaultAppLogLevel)
	setString(&c.App.HTTPAddr, defaultAppHTTPAddr)
	setString(&c.App.LogPath, defaultAppLogPath)
	setString(&c.App.LLMLog, defaultAppLLMLogPath)

	setString(&c.Data.APIURL, defaultDataAPIURL)
	setFromEnv(&c.Data.APIKey, "FINANCIAL_DATASETS_API_KEY")
	setInt(&c.Data.TimeoutSeconds, defaultDataTimeout)
	setInt(&c.Data.MaxRetries, defaultDataRetries)
	setInt(&c.Data.CacheTTLSeconds, defaultDataCacheTTL)

	setString(&c.AI.APIURL, defaultAIAPIURL)
	setFromEnv(&c.AI.APIKey, "OPENAI_API_KEY")
	setString(&c.AI.Model, defaultAIModel)
	setInt(&c.AI.TimeoutSeconds, defaultAITimeout)

	if c.Analysts.Sentiment.InsiderWeight == 0 && c.Analysts.Sentiment.NewsWeight == 0 {
		c.Analysts.Sentiment.InsiderWeight = defaultInsiderWeight
		c.Analysts.Sentiment.NewsWeight = defaultNewsWeight
	}

	if c.Risk.MaxPositionPct == 0 {
		c.Risk.MaxPositionPct = defaultMaxPositionPct
	}

	setString(&c.Broker.Backend, defaultBrokerBackend)
	setFromEnv(&c.Broker.APIKey, "ALPACA_API_KEY")
	setFromEnv(&c.Broker.APISecret, "ALPACA_API_SECRET")
	setInt(&c.Broker.OrderTimeoutSeconds, defaultOrderTimeout)

	setInt(&c.Pipeline.ProducerTimeoutSeconds, defaultProducerTimeout)

	setInt(&c.Scheduler.IntervalMinutes, defaultInterval)
	setInt(&c.Scheduler.MinIntervalMinutes, defaultMinInterval)
	setInt(&c.Scheduler.MaxIntervalMinutes, defaultMaxInterval)
	setInt(&c.Scheduler.RetryAttempts, defaultRetryAttempts)
	setInt(&c.Scheduler.RetryDelaySeconds, defaultRetryDelay)
	setString(&c.Scheduler.ExchangeTimezone, defaultTimezone)

	setString(&c.Journal.Path, defaultJournalPath)
}

func setString(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}

func setInt(dst *int, def int) {
	if *dst == 0 {
		*dst = def
	}
}

// setFromEnv fills a blank secret from the environment so keys stay out of
// the config file.
func setFromEnv(dst *string, envKey string) {
	if *dst == "" {
		*dst = os.Getenv(envKey)
	}
}
