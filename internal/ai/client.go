package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"qadamsafe/internal/config"
	"qadamsafe/internal/interfaces"
	"qadamsafe/internal/models"

	"github.com/ollama/ollama/api"
	"github.com/pkoukk/tiktoken-go"
	openaigo "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// NewClient создает AI клиент по конфигурации, обернутый в повторные попытки.
// Если провайдер не задан, возвращает nil без ошибки: генерация выключена.
func NewClient(cfg *config.Config, logger *zap.Logger) (interfaces.AIClient, error) {
	if !cfg.AIEnabled() {
		logger.Info("AI provider not configured, scenario generation disabled")
		return nil, nil
	}
	httpClient := &http.Client{Timeout: cfg.AITimeout}

	var base interfaces.AIClient
	switch strings.ToLower(cfg.AIProvider) {
	case ProviderOpenAI:
		openaiConfig := openaigo.DefaultConfig(cfg.AIAPIKey)
		openaiConfig.BaseURL = cfg.AIBaseURL
		openaiConfig.HTTPClient = httpClient
		base = newOpenAIClient(openaigo.NewClientWithConfig(openaiConfig), cfg.AIModel, logger)
	case ProviderOllama:
		c, err := newOllamaClient(cfg.AIBaseURL, cfg.AIModel, httpClient, logger)
		if err != nil {
			return nil, err
		}
		base = c
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.AIProvider)
	}

	logger.Info("AI client created",
		zap.String("provider", cfg.AIProvider),
		zap.String("baseURL", cfg.AIBaseURL),
		zap.String("model", cfg.AIModel),
		zap.Duration("timeout", cfg.AITimeout),
	)
	return WithRetry(base, RetryPolicy{MaxRetries: cfg.AIMaxRetries, InitialBackoff: cfg.AIInitialBackoff}, logger), nil
}

// tokenCounter лениво загружает BPE словарь модели. Если словарь недоступен, считает 0.
type tokenCounter struct {
	model string
	once  sync.Once
	enc   *tiktoken.Tiktoken
}

func (t *tokenCounter) count(texts ...string) int {
	t.once.Do(func() {
		enc, err := tiktoken.EncodingForModel(t.model)
		if err != nil {
			enc, err = tiktoken.GetEncoding("cl100k_base")
		}
		if err == nil {
			t.enc = enc
		}
	})
	if t.enc == nil {
		return 0
	}
	n := 0
	for _, s := range texts {
		n += len(t.enc.Encode(s, nil, nil))
	}
	return n
}

// --- OpenAI ---

type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openaigo.ChatCompletionRequest) (openaigo.ChatCompletionResponse, error)
}

type openAIClient struct {
	client chatCompleter
	model  string
	tokens *tokenCounter
	logger *zap.Logger
}

func newOpenAIClient(client chatCompleter, model string, logger *zap.Logger) *openAIClient {
	return &openAIClient{
		client: client,
		model:  model,
		tokens: &tokenCounter{model: model},
		logger: logger.Named("OpenAIClient"),
	}
}

func (c *openAIClient) Model() string { return c.model }

func (c *openAIClient) GenerateText(ctx context.Context, systemPrompt, userInput string, params interfaces.GenerationParams) (string, interfaces.UsageInfo, error) {
	var usage interfaces.UsageInfo
	if strings.TrimSpace(systemPrompt) == "" {
		aiRequestsTotal.WithLabelValues(c.model, "error").Inc()
		return "", usage, fmt.Errorf("%w: system prompt is empty", models.ErrAIGenerationFailed)
	}

	messages := []openaigo.ChatCompletionMessage{
		{Role: openaigo.ChatMessageRoleSystem, Content: systemPrompt},
	}
	if userInput != "" {
		messages = append(messages, openaigo.ChatCompletionMessage{Role: openaigo.ChatMessageRoleUser, Content: userInput})
	}
	req := openaigo.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
	}
	if params.Temperature != nil {
		req.Temperature = float32(*params.Temperature)
	}
	if params.MaxTokens != nil {
		req.MaxTokens = *params.MaxTokens
	}
	if params.JSONMode {
		req.ResponseFormat = &openaigo.ChatCompletionResponseFormat{Type: openaigo.ChatCompletionResponseFormatTypeJSONObject}
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, req)
	duration := time.Since(start)
	if err != nil {
		c.logger.Warn("AI API request failed", zap.Duration("duration", duration), zap.Error(err))
		aiRequestsTotal.WithLabelValues(c.model, "error").Inc()
		return "", usage, fmt.Errorf("%w: %w", models.ErrAIGenerationFailed, err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		aiRequestsTotal.WithLabelValues(c.model, "error_empty_response").Inc()
		return "", usage, fmt.Errorf("%w: empty response", models.ErrAIGenerationFailed)
	}

	aiRequestsTotal.WithLabelValues(c.model, "success").Inc()
	aiRequestDuration.WithLabelValues(c.model).Observe(duration.Seconds())

	text := resp.Choices[0].Message.Content
	if resp.Usage.TotalTokens > 0 {
		usage = interfaces.UsageInfo{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	} else {
		// OpenAI-совместимые прокси иногда не отдают usage
		usage.PromptTokens = c.tokens.count(systemPrompt, userInput)
		usage.CompletionTokens = c.tokens.count(text)
		usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
	}
	observeUsage(c.model, usage.PromptTokens, usage.CompletionTokens)

	c.logger.Info("AI response received",
		zap.Duration("duration", duration),
		zap.Int("length", len(text)),
		zap.Int("promptTokens", usage.PromptTokens),
		zap.Int("completionTokens", usage.CompletionTokens),
	)
	return text, usage, nil
}

// --- Ollama ---

type ollamaChatter interface {
	Chat(ctx context.Context, req *api.ChatRequest, fn api.ChatResponseFunc) error
}

type ollamaClient struct {
	client ollamaChatter
	model  string
	logger *zap.Logger
}

func newOllamaClient(baseURL, model string, httpClient *http.Client, logger *zap.Logger) (*ollamaClient, error) {
	// api.NewClient ждет корень сервера, без /v1
	ollamaBaseURL := strings.TrimSuffix(strings.TrimSuffix(baseURL, "/"), "/v1")
	parsedURL, err := url.Parse(ollamaBaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama base URL %q: %w", ollamaBaseURL, err)
	}
	return &ollamaClient{
		client: api.NewClient(parsedURL, httpClient),
		model:  model,
		logger: logger.Named("OllamaClient"),
	}, nil
}

func (c *ollamaClient) Model() string { return c.model }

func (c *ollamaClient) GenerateText(ctx context.Context, systemPrompt, userInput string, params interfaces.GenerationParams) (string, interfaces.UsageInfo, error) {
	var usage interfaces.UsageInfo
	if strings.TrimSpace(systemPrompt) == "" {
		aiRequestsTotal.WithLabelValues(c.model, "error").Inc()
		return "", usage, fmt.Errorf("%w: system prompt is empty", models.ErrAIGenerationFailed)
	}

	messages := []api.Message{{Role: "system", Content: systemPrompt}}
	if userInput != "" {
		messages = append(messages, api.Message{Role: "user", Content: userInput})
	}
	options := map[string]interface{}{}
	if params.Temperature != nil {
		options["temperature"] = *params.Temperature
	}
	if params.MaxTokens != nil {
		options["num_predict"] = *params.MaxTokens
	}
	stream := false
	req := &api.ChatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   &stream,
		Options:  options,
	}
	if params.JSONMode {
		req.Format = json.RawMessage(`"json"`)
	}

	start := time.Now()
	var resp api.ChatResponse
	err := c.client.Chat(ctx, req, func(r api.ChatResponse) error {
		resp = r
		return nil
	})
	duration := time.Since(start)
	if err != nil {
		c.logger.Warn("Ollama request failed", zap.Duration("duration", duration), zap.Error(err))
		aiRequestsTotal.WithLabelValues(c.model, "error").Inc()
		return "", usage, fmt.Errorf("%w: %w", models.ErrAIGenerationFailed, err)
	}
	if strings.TrimSpace(resp.Message.Content) == "" {
		aiRequestsTotal.WithLabelValues(c.model, "error_empty_response").Inc()
		return "", usage, fmt.Errorf("%w: empty response", models.ErrAIGenerationFailed)
	}

	aiRequestsTotal.WithLabelValues(c.model, "success").Inc()
	aiRequestDuration.WithLabelValues(c.model).Observe(duration.Seconds())

	usage = interfaces.UsageInfo{
		PromptTokens:     resp.PromptEvalCount,
		CompletionTokens: resp.EvalCount,
		TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
	}
	observeUsage(c.model, usage.PromptTokens, usage.CompletionTokens)
	c.logger.Info("Ollama response received",
		zap.Duration("duration", duration),
		zap.Int("length", len(resp.Message.Content)),
		zap.String("doneReason", resp.DoneReason),
	)
	return resp.Message.Content, usage, nil
}
