package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"qadamsafe/internal/models"
)

const (
	MaxGeneratedSteps = 10
	maxOptionsPerStep = 4

	DefaultPointsReward = 15
	DefaultOrder        = 100
)

var optionLetters = []string{"a", "b", "c", "d"}

// scenarioDraft допускает оба варианта: steps на верхнем уровне и content.steps.
type scenarioDraft struct {
	Title           string                  `json:"title"`
	TitleEn         string                  `json:"titleEn"`
	TitleKk         string                  `json:"titleKk"`
	Description     string                  `json:"description"`
	DescriptionEn   string                  `json:"descriptionEn"`
	DescriptionKk   string                  `json:"descriptionKk"`
	Steps           []models.Step           `json:"steps"`
	Content         *models.ScenarioContent `json:"content"`
	CompletionBlock *models.CompletionBlock `json:"completionBlock"`
}

var defaultCompletionBlock = models.CompletionBlock{
	Title:     "Сценарий пройден!",
	TitleEn:   "Scenario Complete!",
	TitleKk:   "Сценарий аяқталды!",
	Message:   "Вы прошли обучающий сценарий. Будьте бдительны в реальной жизни.",
	MessageEn: "You completed the learning scenario. Stay vigilant in real life.",
	MessageKk: "Сіз оқу сценарийін аяқтадыңыз. Шынайы өмірде сақ болыңыз.",
}

// ParseScenario разбирает ответ модели и приводит его к играбельному виду.
// Ответ без шагов считается ошибкой генерации.
func ParseScenario(raw string, req ScenarioRequest) (*models.Scenario, error) {
	text := stripCodeFence(raw)

	var draft scenarioDraft
	if err := json.Unmarshal([]byte(text), &draft); err != nil {
		return nil, fmt.Errorf("%w: response is not valid JSON: %w", models.ErrAIGenerationFailed, err)
	}
	steps := draft.Steps
	if len(steps) == 0 && draft.Content != nil {
		steps = draft.Content.Steps
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("%w: response has no steps", models.ErrAIGenerationFailed)
	}

	s := &models.Scenario{
		Title:         strings.TrimSpace(draft.Title),
		TitleEn:       draft.TitleEn,
		TitleKk:       draft.TitleKk,
		Description:   draft.Description,
		DescriptionEn: draft.DescriptionEn,
		DescriptionKk: draft.DescriptionKk,
		Type:          req.Type,
		Difficulty:    req.Difficulty,
		Content: models.ScenarioContent{
			Steps:           steps,
			CompletionBlock: draft.CompletionBlock,
		},
	}
	if s.Content.CompletionBlock == nil && draft.Content != nil {
		s.Content.CompletionBlock = draft.Content.CompletionBlock
	}
	Sanitize(s)
	return s, nil
}

// Sanitize исправляет типичные ошибки модели на месте и проставляет
// значения по умолчанию для сгенерированного сценария.
func Sanitize(s *models.Scenario) {
	steps := s.Content.Steps
	if len(steps) > MaxGeneratedSteps {
		steps = steps[:MaxGeneratedSteps]
	}

	seenSteps := make(map[string]struct{}, len(steps))
	for i := range steps {
		step := &steps[i]
		step.ID = strings.TrimSpace(step.ID)
		if _, dup := seenSteps[step.ID]; step.ID == "" || dup {
			step.ID = freeStepID(seenSteps, i+1)
		}
		seenSteps[step.ID] = struct{}{}

		if len(step.Options) > maxOptionsPerStep {
			step.Options = step.Options[:maxOptionsPerStep]
		}
		if !step.Type.Valid() {
			if len(step.Options) >= 2 {
				step.Type = models.StepQuestion
			} else {
				step.Type = models.StepInformation
			}
		}
		// Вопрос с одним вариантом играть нельзя
		if step.Type.HasOptions() && len(step.Options) < 2 {
			step.Type = models.StepInformation
		}
		if step.Type == models.StepInformation {
			step.Options = nil
			if step.Context == "" && step.Content != "" {
				step.Context = step.Content
			}
		}

		seenOptions := make(map[string]struct{}, len(step.Options))
		for j := range step.Options {
			opt := &step.Options[j]
			opt.ID = strings.TrimSpace(opt.ID)
			if _, dup := seenOptions[opt.ID]; opt.ID == "" || dup {
				opt.ID = freeOptionID(seenOptions, j)
			}
			seenOptions[opt.ID] = struct{}{}
			if !opt.OutcomeType.Valid() {
				opt.OutcomeType = models.OutcomeDangerous
			}
		}
	}

	for i := range steps {
		step := &steps[i]
		if _, ok := seenSteps[step.NextStepID]; !ok {
			step.NextStepID = ""
		}
		for j := range step.Options {
			if _, ok := seenSteps[step.Options[j].NextStepID]; !ok {
				step.Options[j].NextStepID = ""
			}
		}
	}
	s.Content.Steps = steps

	if s.Title == "" {
		s.Title = "AI сценарий"
	}
	if s.Content.CompletionBlock == nil {
		cb := defaultCompletionBlock
		s.Content.CompletionBlock = &cb
	}
	if !s.Type.Valid() {
		s.Type = models.ScenarioSocialEngineering
	}
	if !s.Difficulty.Valid() {
		s.Difficulty = models.DifficultyIntermediate
	}
	s.RequiredTier = models.TierFree
	s.PointsReward = DefaultPointsReward
	s.Order = DefaultOrder
	s.IsLegitimate = false
	s.IsAIGenerated = true
	if len(s.Tags) == 0 {
		s.Tags = []string{"ai"}
	}
}

// freeStepID returns step{n} for the first n >= from not taken yet.
func freeStepID(seen map[string]struct{}, from int) string {
	for n := from; ; n++ {
		id := fmt.Sprintf("step%d", n)
		if _, taken := seen[id]; !taken {
			return id
		}
	}
}

// freeOptionID starts at the option's own letter and wraps around a..d.
// Шагов с вариантами не больше maxOptionsPerStep, так что свободная буква есть всегда.
func freeOptionID(seen map[string]struct{}, pos int) string {
	for k := 0; k < len(optionLetters); k++ {
		id := optionLetters[(pos+k)%len(optionLetters)]
		if _, taken := seen[id]; !taken {
			return id
		}
	}
	return fmt.Sprintf("opt%d", pos+1)
}

func stripCodeFence(raw string) string {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
