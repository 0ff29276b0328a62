package app

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"fundbot/internal/gateway/notifier"
	"fundbot/internal/pipeline"
	"fundbot/internal/types"
)

// renderRunSummary builds the push message for one finished run. Failed
// runs report the reason; completed runs list each instrument's decision
// and execution outcome.
func renderRunSummary(state *pipeline.RunState) string {
	if state == nil {
		return ""
	}

	msg := notifier.Message{
		Icon:      "📊",
		Title:     fmt.Sprintf("Trading run %s", shortID(state.ID)),
		Timestamp: state.FinishedAt,
	}

	if state.Status == pipeline.StatusFailed {
		msg.Icon = "⚠️"
		msg.Sections = append(msg.Sections, notifier.Section{
			Title: "Failed",
			Lines: []string{state.FailReason},
		})
		return msg.RenderMarkdown()
	}

	instruments := append([]string(nil), state.Instruments...)
	sort.Strings(instruments)

	var decided []string
	for _, sym := range instruments {
		d, ok := state.Decisions[sym]
		if !ok {
			continue
		}
		line := fmt.Sprintf("%-6s %-4s qty=%-5d conf=%.0f", sym, d.Action, d.Quantity, d.Confidence)
		if out, ok := state.ExecutionResults[sym]; ok {
			line += " " + outcomeLabel(out)
		}
		decided = append(decided, line)
	}
	msg.Sections = append(msg.Sections, notifier.Section{Title: "Decisions", Lines: decided})

	duration := state.FinishedAt.Sub(state.StartedAt).Truncate(10 * time.Millisecond)
	msg.Footer = fmt.Sprintf("%d instruments in %s", len(instruments), duration)
	return msg.RenderMarkdown()
}

func outcomeLabel(out types.ExecutionOutcome) string {
	switch out.Status {
	case types.ExecutionSuccess:
		return "filled " + out.OrderID
	case types.ExecutionSkipped:
		return "skipped"
	case types.ExecutionFailed:
		return "FAILED: " + out.Error
	default:
		return string(out.Status)
	}
}

func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}
