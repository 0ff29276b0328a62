// Package provider implements the chat-completion client used by the
// decision generator. Compatible with OpenAI-style /v1/chat/completions
// endpoints.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"fundbot/internal/logger"
	"fundbot/internal/pkg/circuit"
)

// ChatClient sends a system/user prompt pair and returns the raw completion
// text.
type ChatClient interface {
	CallWithMessages(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// OpenAIChatClient is the HTTP implementation of ChatClient.
type OpenAIChatClient struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration
	// MaxRetries bounds retry on 429/5xx responses; 0 means the default of 2.
	MaxRetries int

	httpc   *http.Client
	breaker *circuit.Breaker
}

func NewOpenAIChatClient(baseURL, apiKey, model string, temperature float64, timeout time.Duration) *OpenAIChatClient {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OpenAIChatClient{
		BaseURL:     baseURL,
		APIKey:      apiKey,
		Model:       model,
		Temperature: temperature,
		Timeout:     timeout,
		httpc:       &http.Client{Timeout: timeout},
		breaker:     circuit.NewBreaker("chat-provider", 5, 60*time.Second),
	}
}

func (c *OpenAIChatClient) CallWithMessages(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if c.breaker != nil && !c.breaker.Allow() {
		return "", fmt.Errorf("chat provider circuit open")
	}
	out, err := c.call(ctx, systemPrompt, userPrompt)
	if c.breaker != nil {
		if err != nil {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
	}
	return out, err
}

func (c *OpenAIChatClient) call(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	endpoint := c.endpoint()

	messages := []map[string]string{}
	if systemPrompt != "" {
		messages = append(messages, map[string]string{"role": "system", "content": systemPrompt})
	}
	messages = append(messages, map[string]string{"role": "user", "content": userPrompt})

	body, _ := json.Marshal(map[string]any{
		"model":       c.Model,
		"messages":    messages,
		"temperature": c.Temperature,
	})

	maxRetries := c.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 2
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return "", err
		}
		req.Header.Set("Content-Type", "application/json")
		if c.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.APIKey)
		}

		resp, err := c.httpClient().Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode/100 == 2 {
			var r struct {
				Choices []struct {
					Message struct {
						Content string `json:"content"`
					} `json:"message"`
				} `json:"choices"`
			}
			derr := json.NewDecoder(resp.Body).Decode(&r)
			resp.Body.Close()
			if derr != nil {
				return "", fmt.Errorf("decoding chat response: %w", derr)
			}
			if len(r.Choices) == 0 {
				return "", fmt.Errorf("chat response has no choices")
			}
			return r.Choices[0].Message.Content, nil
		}

		msg := readErrorBody(resp.Body)
		resp.Body.Close()
		lastErr = fmt.Errorf("chat provider status=%d: %s", resp.StatusCode, msg)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode/100 == 5 {
			logger.Warnf("chat provider attempt %d failed: %v", attempt+1, lastErr)
			continue
		}
		return "", lastErr
	}
	return "", lastErr
}

// endpoint normalizes the base URL so configs with or without the
// /chat/completions suffix both work.
func (c *OpenAIChatClient) endpoint() string {
	u := c.BaseURL
	if u == "" {
		u = "https://api.openai.com/v1"
	}
	u = strings.TrimRight(u, "/")
	u = strings.TrimSuffix(u, "/chat/completions")
	return u + "/chat/completions"
}

func (c *OpenAIChatClient) httpClient() *http.Client {
	if c.httpc == nil {
		c.httpc = &http.Client{Timeout: c.Timeout}
	}
	return c.httpc
}

func readErrorBody(r io.Reader) string {
	var eresp struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(r, 4096))
	if err := json.Unmarshal(raw, &eresp); err == nil && eresp.Error.Message != "" {
		return eresp.Error.Message
	}
	return strings.TrimSpace(string(raw))
}
