package interfaces

import (
	"context"
)

// GenerationParams - параметры генерации. nil означает значение по умолчанию провайдера.
type GenerationParams struct {
	Temperature *float64
	MaxTokens   *int
	JSONMode    bool
}

// UsageInfo содержит информацию об использовании токенов.
type UsageInfo struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// AIClient интерфейс для взаимодействия с AI API.
type AIClient interface {
	GenerateText(ctx context.Context, systemPrompt, userInput string, params GenerationParams) (string, UsageInfo, error)
	// Model returns the configured model name.
	Model() string
}
