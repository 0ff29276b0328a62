package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallWithMessages(t *testing.T) {
	t.Run("sends messages and returns content", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/chat/completions", r.URL.Path)
			assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

			var body struct {
				Model    string `json:"model"`
				Messages []struct {
					Role    string `json:"role"`
					Content string `json:"content"`
				} `json:"messages"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "gpt-4o", body.Model)
			require.Len(t, body.Messages, 2)
			assert.Equal(t, "system", body.Messages[0].Role)

			w.Write([]byte(`{"choices": [{"message": {"content": "{\"AAPL\": {\"action\": \"buy\"}}"}}]}`))
		}))
		defer srv.Close()

		c := NewOpenAIChatClient(srv.URL, "sk-test", "gpt-4o", 0.2, 10*time.Second)
		out, err := c.CallWithMessages(context.Background(), "you are a pm", "decide")
		require.NoError(t, err)
		assert.Contains(t, out, "AAPL")
	})

	t.Run("retries transient failures", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			w.Write([]byte(`{"choices": [{"message": {"content": "ok"}}]}`))
		}))
		defer srv.Close()

		c := NewOpenAIChatClient(srv.URL, "k", "m", 0, 10*time.Second)
		c.MaxRetries = 1
		out, err := c.CallWithMessages(context.Background(), "", "hi")
		require.NoError(t, err)
		assert.Equal(t, "ok", out)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("client errors do not retry", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error": {"message": "bad request"}}`))
		}))
		defer srv.Close()

		c := NewOpenAIChatClient(srv.URL, "k", "m", 0, 10*time.Second)
		_, err := c.CallWithMessages(context.Background(), "", "hi")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bad request")
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("endpoint suffix normalized", func(t *testing.T) {
		c := &OpenAIChatClient{BaseURL: "https://llm.example.com/v1/chat/completions/"}
		assert.Equal(t, "https://llm.example.com/v1/chat/completions", c.endpoint())

		c = &OpenAIChatClient{BaseURL: "https://llm.example.com/v1"}
		assert.Equal(t, "https://llm.example.com/v1/chat/completions", c.endpoint())
	})

	t.Run("empty choices is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"choices": []}`))
		}))
		defer srv.Close()

		c := NewOpenAIChatClient(srv.URL, "k", "m", 0, 10*time.Second)
		_, err := c.CallWithMessages(context.Background(), "", "hi")
		require.Error(t, err)
	})
}
