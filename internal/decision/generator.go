package decision

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"fundbot/internal/gateway/provider"
	"fundbot/internal/logger"
	"fundbot/internal/types"
)

const systemPrompt = `You are a portfolio manager making trading decisions based on analyst signals.
For each instrument, decide whether to buy, sell, or hold using the signals and their confidence levels.
Never exceed the max_shares limit given for an instrument.
Respond with a single JSON object mapping each instrument to
{"action": "buy|sell|hold", "quantity": <integer>=0>, "confidence": <0-100>, "reasoning": "<why>"}.`

// LLMGenerator renders signals into a prompt, calls the chat provider and
// parses the response into proposals.
type LLMGenerator struct {
	Client provider.ChatClient
}

func NewLLMGenerator(client provider.ChatClient) *LLMGenerator {
	return &LLMGenerator{Client: client}
}

func (g *LLMGenerator) Generate(ctx context.Context, input Input) (map[string]Proposal, error) {
	if g.Client == nil {
		return nil, fmt.Errorf("chat client not configured")
	}
	user, err := renderUserPrompt(input)
	if err != nil {
		return nil, err
	}
	raw, err := g.Client.CallWithMessages(ctx, systemPrompt, user)
	if err != nil {
		return nil, fmt.Errorf("calling decision model: %w", err)
	}
	logger.DumpModelExchange("portfolio-decision", user, raw)

	proposals, err := ParseProposals(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing decision model output: %w", err)
	}
	return proposals, nil
}

// renderUserPrompt serializes the signal sets, portfolio context and share
// limits in a stable instrument order.
func renderUserPrompt(input Input) (string, error) {
	instruments := make([]string, 0, len(input.SignalsByInstrument))
	for sym := range input.SignalsByInstrument {
		instruments = append(instruments, sym)
	}
	sort.Strings(instruments)

	payload := struct {
		Signals   map[string]map[string]types.Signal `json:"signals_by_instrument"`
		MaxShares map[string]int64                   `json:"max_shares"`
		Portfolio *types.Portfolio                   `json:"portfolio,omitempty"`
	}{
		Signals:   input.SignalsByInstrument,
		MaxShares: input.MaxShares,
		Portfolio: input.Portfolio,
	}
	body, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("rendering decision prompt: %w", err)
	}

	var b strings.Builder
	b.WriteString("Make trading decisions for: ")
	b.WriteString(strings.Join(instruments, ", "))
	b.WriteString("\n\n")
	b.Write(body)
	return b.String(), nil
}
