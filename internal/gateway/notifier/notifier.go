// Package notifier pushes run summaries to a messaging channel.
package notifier

// TextNotifier is the minimal push interface. Components depend on it
// rather than on a concrete backend.
type TextNotifier interface {
	SendText(text string) error
}

// Nop discards every message.
type Nop struct{}

func (Nop) SendText(string) error { return nil }
