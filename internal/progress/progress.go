// Package progress carries per-stage status events out of the trading
// pipeline. Stages report what they are doing for which instrument; the
// reporter has no influence on control flow and may be a no-op.
package progress

import "fundbot/internal/logger"

// Reporter receives (component, instrument, status) events. Instrument is
// empty for component-level events.
type Reporter interface {
	Update(component, instrument, status string)
}

// Nop discards all events.
type Nop struct{}

func (Nop) Update(string, string, string) {}

// Log writes every event to the process log at debug level.
type Log struct{}

func (Log) Update(component, instrument, status string) {
	if instrument == "" {
		logger.Debugf("[%s] %s", component, status)
		return
	}
	logger.Debugf("[%s] %s: %s", component, instrument, status)
}

// Multi fans one event out to several reporters.
type Multi []Reporter

func (m Multi) Update(component, instrument, status string) {
	for _, r := range m {
		if r != nil {
			r.Update(component, instrument, status)
		}
	}
}
