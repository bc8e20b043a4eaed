package ai

import (
	"strings"
	"testing"

	"qadamsafe/internal/models"
	"qadamsafe/internal/player"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const messyResponse = "```json\n" + `{
  "title": "Звонок из банка",
  "content": {
    "steps": [
      {"type": "information", "content": "Вам звонят с незнакомого номера.", "options": [{"id": "x", "text": "ok"}]},
      {"id": "ask", "type": "quiz", "question": "Назовите код?", "nextStepId": "ghost", "options": [
        {"text": "Назвать код", "outcomeType": "fatal"},
        {"text": "Положить трубку", "outcomeType": "safe", "nextStepId": "nowhere"},
        {"id": "c", "text": "Спросить ФИО", "outcomeType": "risky"},
        {"id": "c", "text": "Перезвонить в банк", "outcomeType": "safe"},
        {"id": "e", "text": "Лишний", "outcomeType": "safe"}
      ]},
      {"id": "ask", "type": "decision", "options": [{"id": "a", "text": "Один", "outcomeType": "safe"}]}
    ]
  }
}` + "\n```"

func TestParseScenario_FixesCommonMistakes(t *testing.T) {
	s, err := ParseScenario(messyResponse, ScenarioRequest{Type: models.ScenarioPhoneScam, Language: "ru"})
	require.NoError(t, err)

	require.Len(t, s.Content.Steps, 3)
	first, second, third := s.Content.Steps[0], s.Content.Steps[1], s.Content.Steps[2]

	assert.Equal(t, "step1", first.ID)
	assert.Empty(t, first.Options, "information step keeps no options")
	assert.Equal(t, first.Content, first.Context)

	assert.Equal(t, "ask", second.ID)
	assert.Equal(t, models.StepQuestion, second.Type)
	assert.Empty(t, second.NextStepID)
	require.Len(t, second.Options, 4)
	assert.Equal(t, []string{"a", "b", "c", "d"}, []string{second.Options[0].ID, second.Options[1].ID, second.Options[2].ID, second.Options[3].ID})
	assert.Equal(t, models.OutcomeDangerous, second.Options[0].OutcomeType)
	assert.Empty(t, second.Options[1].NextStepID)

	assert.Equal(t, "step3", third.ID, "duplicate id is replaced")
	assert.Equal(t, models.StepInformation, third.Type, "single-option decision becomes information")
	assert.Empty(t, third.Options)

	assert.Equal(t, models.ScenarioPhoneScam, s.Type)
	assert.Equal(t, models.DifficultyIntermediate, s.Difficulty)
	assert.Equal(t, models.TierFree, s.RequiredTier)
	assert.Equal(t, DefaultPointsReward, s.PointsReward)
	assert.Equal(t, DefaultOrder, s.Order)
	assert.True(t, s.IsAIGenerated)
	require.NotNil(t, s.Content.CompletionBlock)

	assert.NoError(t, player.Validate(s))
}

func TestParseScenario_TruncatesSteps(t *testing.T) {
	var b strings.Builder
	b.WriteString(`{"title":"t","steps":[`)
	for i := 0; i < 14; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(`{"type":"information","content":"x"}`)
	}
	b.WriteString("]}")

	s, err := ParseScenario(b.String(), ScenarioRequest{Type: "UNKNOWN", Difficulty: models.DifficultyExpert})
	require.NoError(t, err)
	assert.Len(t, s.Content.Steps, MaxGeneratedSteps)
	assert.Equal(t, models.ScenarioSocialEngineering, s.Type)
	assert.Equal(t, models.DifficultyExpert, s.Difficulty)
}

func TestParseScenario_GeneratedIDsDoNotCollide(t *testing.T) {
	raw := `{"title": "SMS", "content": {"steps": [
	  {"id": "step2", "type": "question", "question": "Перейти по ссылке?", "options": [
	    {"id": "b", "text": "Перейти", "outcomeType": "dangerous"},
	    {"text": "Удалить", "outcomeType": "safe"}
	  ]},
	  {"type": "question", "question": "Ответить?", "options": [
	    {"id": "a", "text": "Нет", "outcomeType": "safe"},
	    {"text": "Да", "outcomeType": "risky"},
	    {"id": "a", "text": "Позвонить", "outcomeType": "risky"}
	  ]}
	]}}`

	s, err := ParseScenario(raw, ScenarioRequest{Type: models.ScenarioSMSPhishing, Language: "ru"})
	require.NoError(t, err)
	require.Len(t, s.Content.Steps, 2)

	first, second := s.Content.Steps[0], s.Content.Steps[1]
	assert.Equal(t, "step2", first.ID)
	assert.Equal(t, "step3", second.ID, "step2 is taken")
	assert.Equal(t, []string{"b", "c"}, []string{first.Options[0].ID, first.Options[1].ID})
	assert.Equal(t, []string{"a", "b", "c"}, []string{second.Options[0].ID, second.Options[1].ID, second.Options[2].ID})

	assert.NoError(t, player.Validate(s))
}

func TestParseScenario_Errors(t *testing.T) {
	_, err := ParseScenario("not json at all", ScenarioRequest{})
	assert.ErrorIs(t, err, models.ErrAIGenerationFailed)

	_, err = ParseScenario(`{"title":"empty","steps":[]}`, ScenarioRequest{})
	assert.ErrorIs(t, err, models.ErrAIGenerationFailed)
}

func TestBuildScenarioPrompt(t *testing.T) {
	system, user := BuildScenarioPrompt(ScenarioRequest{
		Type:       models.ScenarioJobScam,
		Language:   models.LanguageKK,
		Difficulty: models.DifficultyBeginner,
	})
	assert.Contains(t, system, "JSON")
	assert.Contains(t, user, topicPrompts[models.ScenarioJobScam])
	assert.Contains(t, user, "казахский")
	assert.Contains(t, user, difficultyHints[models.DifficultyBeginner])

	_, fallback := BuildScenarioPrompt(ScenarioRequest{Type: "nope", Language: "de"})
	assert.Contains(t, fallback, topicPrompts[models.ScenarioSocialEngineering])
	assert.NotContains(t, fallback, "Основной язык")
}
