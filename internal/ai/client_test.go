package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"qadamsafe/internal/config"
	"qadamsafe/internal/interfaces"
	"qadamsafe/internal/interfaces/mocks"
	"qadamsafe/internal/models"

	"github.com/ollama/ollama/api"
	openaigo "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func temperature(v float64) *float64 { return &v }

func newTestOpenAIClient(t *testing.T, handler http.HandlerFunc) interfaces.AIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		AIProvider:       ProviderOpenAI,
		AIBaseURL:        srv.URL + "/v1",
		AIModel:          "gpt-4o-mini",
		AIAPIKey:         "test-key",
		AITimeout:        5 * time.Second,
		AIMaxRetries:     3,
		AIInitialBackoff: time.Millisecond,
	}
	client, err := NewClient(cfg, zap.NewNop())
	require.NoError(t, err)
	return client
}

func TestOpenAIClient_GenerateText(t *testing.T) {
	client := newTestOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req openaigo.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		assert.InDelta(t, 0.5, req.Temperature, 0.001)
		require.NotNil(t, req.ResponseFormat)
		assert.Equal(t, openaigo.ChatCompletionResponseFormatTypeJSONObject, req.ResponseFormat.Type)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, openaigo.ChatMessageRoleSystem, req.Messages[0].Role)

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"{\"title\":\"ok\"}"},"finish_reason":"stop"}],"usage":{"prompt_tokens":120,"completion_tokens":30,"total_tokens":150}}`)
	})

	text, usage, err := client.GenerateText(context.Background(), "system", "user", interfaces.GenerationParams{
		Temperature: temperature(0.5),
		JSONMode:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"title":"ok"}`, text)
	assert.Equal(t, interfaces.UsageInfo{PromptTokens: 120, CompletionTokens: 30, TotalTokens: 150}, usage)
	assert.Equal(t, "gpt-4o-mini", client.Model())
}

func TestOpenAIClient_RetriesOnServiceUnavailable(t *testing.T) {
	var calls atomic.Int32
	client := newTestOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprint(w, `{"error":{"message":"overloaded","type":"server_error"}}`)
			return
		}
		fmt.Fprint(w, `{"id":"1","choices":[{"index":0,"message":{"role":"assistant","content":"done"}}],"usage":{"prompt_tokens":1,"completion_tokens":1,"total_tokens":2}}`)
	})

	text, _, err := client.GenerateText(context.Background(), "system", "", interfaces.GenerationParams{})
	require.NoError(t, err)
	assert.Equal(t, "done", text)
	assert.EqualValues(t, 3, calls.Load())
}

func TestOpenAIClient_NoRetryOnBadRequest(t *testing.T) {
	var calls atomic.Int32
	client := newTestOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"message":"bad model","type":"invalid_request_error"}}`)
	})

	_, _, err := client.GenerateText(context.Background(), "system", "", interfaces.GenerationParams{})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrAIGenerationFailed)
	assert.EqualValues(t, 1, calls.Load())
}

func TestOllamaClient_GenerateText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		var req api.ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3", req.Model)
		require.NotNil(t, req.Stream)
		assert.False(t, *req.Stream)
		assert.JSONEq(t, `"json"`, string(req.Format))
		assert.EqualValues(t, 0.5, req.Options["temperature"])

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"model":"llama3","message":{"role":"assistant","content":"{}"},"done":true,"done_reason":"stop","prompt_eval_count":40,"eval_count":12}`)
	}))
	defer srv.Close()

	c, err := newOllamaClient(srv.URL+"/v1/", "llama3", srv.Client(), zap.NewNop())
	require.NoError(t, err)

	text, usage, err := c.GenerateText(context.Background(), "system", "user", interfaces.GenerationParams{
		Temperature: temperature(0.5),
		JSONMode:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, "{}", text)
	assert.Equal(t, 52, usage.TotalTokens)
}

func TestNewClient(t *testing.T) {
	client, err := NewClient(&config.Config{}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, client)

	_, err = NewClient(&config.Config{AIProvider: "gemini"}, zap.NewNop())
	assert.Error(t, err)
}

func TestRetryingClient(t *testing.T) {
	rateLimited := fmt.Errorf("%w: %w", models.ErrAIGenerationFailed, &openaigo.APIError{HTTPStatusCode: http.StatusTooManyRequests})

	t.Run("gives up after max retries with doubling backoff", func(t *testing.T) {
		next := new(mocks.MockAIClient)
		next.On("GenerateText", mock.Anything, "s", "u", mock.Anything).Return("", interfaces.UsageInfo{}, rateLimited)

		var delays []time.Duration
		c := WithRetry(next, RetryPolicy{MaxRetries: 3, InitialBackoff: time.Second}, zap.NewNop()).(*retryingClient)
		c.sleep = func(_ context.Context, d time.Duration) error {
			delays = append(delays, d)
			return nil
		}

		_, _, err := c.GenerateText(context.Background(), "s", "u", interfaces.GenerationParams{})
		assert.ErrorIs(t, err, models.ErrAIGenerationFailed)
		assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, delays)
		next.AssertNumberOfCalls(t, "GenerateText", 4)
	})

	t.Run("stops when context is cancelled", func(t *testing.T) {
		next := new(mocks.MockAIClient)
		next.On("GenerateText", mock.Anything, "s", "u", mock.Anything).Return("", interfaces.UsageInfo{}, rateLimited)

		ctx, cancel := context.WithCancel(context.Background())
		c := WithRetry(next, RetryPolicy{MaxRetries: 3, InitialBackoff: time.Hour}, zap.NewNop()).(*retryingClient)
		c.sleep = func(ctx context.Context, _ time.Duration) error {
			cancel()
			return ctx.Err()
		}

		_, _, err := c.GenerateText(ctx, "s", "u", interfaces.GenerationParams{})
		assert.Error(t, err)
		next.AssertNumberOfCalls(t, "GenerateText", 1)
	})
}

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"429", &openaigo.APIError{HTTPStatusCode: 429}, true},
		{"500 request error", &openaigo.RequestError{HTTPStatusCode: 500, Err: errors.New("boom")}, true},
		{"502 not retried", &openaigo.APIError{HTTPStatusCode: 502}, false},
		{"ollama 503", api.StatusError{StatusCode: 503}, true},
		{"ollama 404", api.StatusError{StatusCode: 404}, false},
		{"deadline", fmt.Errorf("wrapped: %w", context.DeadlineExceeded), true},
		{"plain", errors.New("invalid json"), false},
		{"nil", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsRetryable(tc.err))
		})
	}
}
