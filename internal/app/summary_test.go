package app

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"fundbot/internal/pipeline"
	"fundbot/internal/types"
)

func TestRenderRunSummary(t *testing.T) {
	started := time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC)

	t.Run("completed run lists decisions and outcomes", func(t *testing.T) {
		state := &pipeline.RunState{
			ID:          "a1b2c3d4-0000",
			Instruments: []string{"MSFT", "AAPL"},
			Decisions: map[string]types.Decision{
				"AAPL": {Instrument: "AAPL", Action: types.ActionBuy, Quantity: 10, Confidence: 72},
				"MSFT": types.HoldDecision("MSFT", "mixed signals"),
			},
			ExecutionResults: map[string]types.ExecutionOutcome{
				"AAPL": {Instrument: "AAPL", Status: types.ExecutionSuccess, OrderID: "ord-1"},
				"MSFT": {Instrument: "MSFT", Status: types.ExecutionSkipped},
			},
			Status:     pipeline.StatusCompleted,
			StartedAt:  started,
			FinishedAt: started.Add(2300 * time.Millisecond),
		}
		out := renderRunSummary(state)

		assert.Contains(t, out, "Trading run a1b2c3d4")
		assert.Contains(t, out, "buy")
		assert.Contains(t, out, "filled ord-1")
		assert.Contains(t, out, "skipped")
		assert.Contains(t, out, "2 instruments in 2.3s")
		assert.Less(t, strings.Index(out, "AAPL"), strings.Index(out, "MSFT"), "instruments sorted")
	})

	t.Run("failed run reports the reason", func(t *testing.T) {
		state := &pipeline.RunState{
			ID:         "deadbeef-1",
			Status:     pipeline.StatusFailed,
			FailReason: "no instruments requested",
			FinishedAt: started,
		}
		out := renderRunSummary(state)
		assert.Contains(t, out, "⚠️")
		assert.Contains(t, out, "Failed")
		assert.Contains(t, out, "no instruments requested")
	})

	t.Run("nil state renders nothing", func(t *testing.T) {
		assert.Empty(t, renderRunSummary(nil))
	})
}
