package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"qadamsafe/internal/ai"
	"qadamsafe/internal/interfaces"
	"qadamsafe/internal/models"
	"qadamsafe/internal/player"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	generationTemperature = 0.5
	generationMaxTokens   = 4096
)

// GeneratorService создает сценарии через AI.
type GeneratorService interface {
	GenerateScenario(ctx context.Context, authorID uuid.UUID, role string, req ai.ScenarioRequest) (*models.Scenario, error)
}

type generatorServiceImpl struct {
	client       interfaces.AIClient
	scenarioRepo interfaces.ScenarioRepository
	logger       *zap.Logger
}

// NewGeneratorService: client может быть nil, тогда генерация возвращает ErrAIDisabled.
func NewGeneratorService(client interfaces.AIClient, scenarioRepo interfaces.ScenarioRepository, logger *zap.Logger) GeneratorService {
	return &generatorServiceImpl{
		client:       client,
		scenarioRepo: scenarioRepo,
		logger:       logger.Named("GeneratorService"),
	}
}

func (s *generatorServiceImpl) GenerateScenario(ctx context.Context, authorID uuid.UUID, role string, req ai.ScenarioRequest) (*models.Scenario, error) {
	if !models.IsStaffRole(role) {
		return nil, models.ErrForbidden
	}
	if s.client == nil {
		return nil, models.ErrAIDisabled
	}
	if req.Type != "" && !req.Type.Valid() {
		return nil, fmt.Errorf("unknown scenario type %q: %w", req.Type, models.ErrInvalidInput)
	}
	if req.Difficulty != "" && !req.Difficulty.Valid() {
		return nil, fmt.Errorf("unknown difficulty %q: %w", req.Difficulty, models.ErrInvalidInput)
	}
	if req.Language == "" {
		req.Language = models.LanguageRU
	} else if !models.ValidLanguage(req.Language) {
		return nil, fmt.Errorf("unsupported language %q: %w", req.Language, models.ErrInvalidInput)
	}

	log := s.logger.With(
		zap.Stringer("authorID", authorID),
		zap.String("type", string(req.Type)),
		zap.String("model", s.client.Model()),
	)

	systemPrompt, userInput := ai.BuildScenarioPrompt(req)
	temperature := generationTemperature
	maxTokens := generationMaxTokens
	start := time.Now()
	raw, usage, err := s.client.GenerateText(ctx, systemPrompt, userInput, interfaces.GenerationParams{
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
		JSONMode:    true,
	})
	if err != nil {
		log.Error("AI generation failed", zap.Error(err))
		if errors.Is(err, models.ErrAIGenerationFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", models.ErrAIGenerationFailed, err)
	}

	scenario, err := ai.ParseScenario(raw, req)
	if err != nil {
		log.Warn("AI returned an unusable scenario", zap.Error(err), zap.Int("responseLength", len(raw)))
		return nil, err
	}
	if err := player.Validate(scenario); err != nil {
		log.Warn("Generated scenario failed validation", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", models.ErrAIGenerationFailed, err)
	}

	scenario.CreatedBy = &authorID
	if err := s.scenarioRepo.Create(ctx, scenario); err != nil {
		log.Error("Failed to store generated scenario", zap.Error(err))
		return nil, err
	}

	log.Info("Scenario generated",
		zap.Stringer("scenarioID", scenario.ID),
		zap.Int("steps", len(scenario.Content.Steps)),
		zap.Int("totalTokens", usage.TotalTokens),
		zap.Duration("duration", time.Since(start)),
	)
	return scenario, nil
}
