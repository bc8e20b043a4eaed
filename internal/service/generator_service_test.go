package service

import (
	"context"
	"errors"
	"testing"

	"qadamsafe/internal/ai"
	"qadamsafe/internal/interfaces"
	"qadamsafe/internal/interfaces/mocks"
	"qadamsafe/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const generatedScenario = `{
  "title": "Поддельная доставка",
  "description": "SMS о посылке",
  "steps": [
    {"id": "sms", "type": "information", "content": "Пришло SMS: ваша посылка задержана, оплатите 150 тг по ссылке."},
    {"id": "choice", "type": "question", "content": "Что сделаете?", "options": [
      {"id": "a", "text": "Перейду по ссылке", "outcomeType": "dangerous", "explanation": "Это фишинг"},
      {"id": "b", "text": "Проверю трек-номер на сайте перевозчика", "outcomeType": "safe"}
    ]}
  ]
}`

func TestGenerateScenario(t *testing.T) {
	ctx := context.Background()
	author := uuid.New()
	req := ai.ScenarioRequest{Type: models.ScenarioSMSPhishing}

	t.Run("stores sanitized scenario", func(t *testing.T) {
		client := new(mocks.MockAIClient)
		repo := new(mocks.MockScenarioRepository)
		client.On("GenerateText", ctx, mock.Anything, mock.Anything, mock.MatchedBy(func(p interfaces.GenerationParams) bool {
			return p.JSONMode && p.MaxTokens != nil && *p.MaxTokens == generationMaxTokens
		})).Return(generatedScenario, interfaces.UsageInfo{TotalTokens: 900}, nil).Once()
		repo.On("Create", ctx, mock.AnythingOfType("*models.Scenario")).Return(nil).Once()

		s, err := NewGeneratorService(client, repo, zap.NewNop()).GenerateScenario(ctx, author, models.RoleTeacher, req)
		require.NoError(t, err)
		assert.True(t, s.IsAIGenerated)
		require.NotNil(t, s.CreatedBy)
		assert.Equal(t, author, *s.CreatedBy)
		assert.Equal(t, models.ScenarioSMSPhishing, s.Type)
		assert.Len(t, s.Content.Steps, 2)
		repo.AssertExpectations(t)
	})

	t.Run("students are forbidden", func(t *testing.T) {
		_, err := NewGeneratorService(new(mocks.MockAIClient), new(mocks.MockScenarioRepository), zap.NewNop()).
			GenerateScenario(ctx, author, models.RoleUser, req)
		assert.ErrorIs(t, err, models.ErrForbidden)
	})

	t.Run("disabled without client", func(t *testing.T) {
		_, err := NewGeneratorService(nil, new(mocks.MockScenarioRepository), zap.NewNop()).
			GenerateScenario(ctx, author, models.RoleAdmin, req)
		assert.ErrorIs(t, err, models.ErrAIDisabled)
	})

	t.Run("unsupported language", func(t *testing.T) {
		_, err := NewGeneratorService(new(mocks.MockAIClient), new(mocks.MockScenarioRepository), zap.NewNop()).
			GenerateScenario(ctx, author, models.RoleAdmin, ai.ScenarioRequest{Language: "de"})
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})

	t.Run("provider error", func(t *testing.T) {
		client := new(mocks.MockAIClient)
		repo := new(mocks.MockScenarioRepository)
		upstream := errors.New("connection reset")
		client.On("GenerateText", ctx, mock.Anything, mock.Anything, mock.Anything).Return("", interfaces.UsageInfo{}, upstream).Once()

		_, err := NewGeneratorService(client, repo, zap.NewNop()).GenerateScenario(ctx, author, models.RoleAdmin, req)
		assert.ErrorIs(t, err, models.ErrAIGenerationFailed)
		assert.ErrorIs(t, err, upstream)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("garbage response", func(t *testing.T) {
		client := new(mocks.MockAIClient)
		client.On("GenerateText", ctx, mock.Anything, mock.Anything, mock.Anything).Return("I cannot help with that", interfaces.UsageInfo{}, nil).Once()

		_, err := NewGeneratorService(client, new(mocks.MockScenarioRepository), zap.NewNop()).GenerateScenario(ctx, author, models.RoleAdmin, req)
		assert.ErrorIs(t, err, models.ErrAIGenerationFailed)
	})
}
