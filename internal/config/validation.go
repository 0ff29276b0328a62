package config

import (
	"fmt"
	"strings"
	"time"
)

func validate(c *Config) error {
	if err := c.Data.validate(); err != nil {
		return err
	}
	if err := c.AI.validate(); err != nil {
		return err
	}
	if err := c.Analysts.validate(); err != nil {
		return err
	}
	if err := c.Risk.validate(); err != nil {
		return err
	}
	if err := c.Pipeline.validate(); err != nil {
		return err
	}
	if err := c.Scheduler.validate(); err != nil {
		return err
	}
	if err := c.Notify.validate(); err != nil {
		return err
	}
	return nil
}

func (d DataConfig) validate() error {
	if strings.TrimSpace(d.APIURL) == "" {
		return fmt.Errorf("data.api_url cannot be empty")
	}
	if d.TimeoutSeconds <= 0 {
		return fmt.Errorf("data.timeout_seconds must be > 0")
	}
	return nil
}

func (a AIConfig) validate() error {
	if strings.TrimSpace(a.APIURL) == "" {
		return fmt.Errorf("ai.api_url cannot be empty")
	}
	if strings.TrimSpace(a.Model) == "" {
		return fmt.Errorf("ai.model cannot be empty")
	}
	return nil
}

func (a AnalystsConfig) validate() error {
	s := a.Sentiment
	if s.InsiderWeight < 0 || s.NewsWeight < 0 {
		return fmt.Errorf("analysts.sentiment weights must be >= 0")
	}
	if s.InsiderWeight+s.NewsWeight == 0 {
		return fmt.Errorf("analysts.sentiment weights cannot both be zero")
	}
	return nil
}

func (r RiskConfig) validate() error {
	if r.MaxPositionPct <= 0 || r.MaxPositionPct > 1 {
		return fmt.Errorf("risk.max_position_pct must be in (0, 1]")
	}
	for sym, amount := range r.PerInstrument {
		if amount <= 0 {
			return fmt.Errorf("risk.per_instrument.%s must be > 0", sym)
		}
	}
	return nil
}

func (p PipelineConfig) validate() error {
	if len(p.NormalizedInstruments()) == 0 {
		return fmt.Errorf("pipeline.instruments requires at least one symbol")
	}
	if p.ProducerTimeoutSeconds <= 0 {
		return fmt.Errorf("pipeline.producer_timeout_seconds must be > 0")
	}
	return nil
}

func (s SchedulerConfig) validate() error {
	if s.IntervalMinutes <= 0 {
		return fmt.Errorf("scheduler.interval_minutes must be > 0")
	}
	if s.MinIntervalMinutes <= 0 {
		return fmt.Errorf("scheduler.min_interval_minutes must be > 0")
	}
	if s.MaxIntervalMinutes < s.MinIntervalMinutes {
		return fmt.Errorf("scheduler.max_interval_minutes must be >= scheduler.min_interval_minutes")
	}
	if s.RetryAttempts <= 0 {
		return fmt.Errorf("scheduler.retry_attempts must be > 0")
	}
	if s.RetryDelaySeconds < 0 {
		return fmt.Errorf("scheduler.retry_delay_seconds must be >= 0")
	}
	if _, err := time.LoadLocation(s.ExchangeTimezone); err != nil {
		return fmt.Errorf("scheduler.exchange_timezone invalid: %w", err)
	}
	return nil
}

func (n NotifyConfig) validate() error {
	t := n.Telegram
	if !t.Enabled {
		return nil
	}
	if strings.TrimSpace(t.BotToken) == "" || strings.TrimSpace(t.ChatID) == "" {
		return fmt.Errorf("notify.telegram requires bot_token and chat_id when enabled")
	}
	return nil
}
