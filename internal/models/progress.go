package models

import (
	"time"

	"github.com/google/uuid"
)

// Decision is one answered step.
type Decision struct {
	StepID      string      `json:"stepId"`
	OptionID    string      `json:"optionId"`
	OutcomeType OutcomeType `json:"outcomeType"`
	Timestamp   time.Time   `json:"timestamp"`
}

// UserProgress - прогресс пользователя по одному сценарию.
// Score хранит лучший результат, Mistakes - наименьшее число ошибок за все попытки,
// Decisions - решения последней попытки.
type UserProgress struct {
	UserID      uuid.UUID  `db:"user_id" json:"userId"`
	ScenarioID  uuid.UUID  `db:"scenario_id" json:"scenarioId"`
	Completed   bool       `db:"completed" json:"completed"`
	Score       int        `db:"score" json:"score"`
	Mistakes    int        `db:"mistakes" json:"mistakes"`
	Decisions   []Decision `db:"decisions" json:"decisions"`
	Attempts    int        `db:"attempts" json:"attempts"`
	CompletedAt *time.Time `db:"completed_at" json:"completedAt,omitempty"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updatedAt"`
}

// IsPerfect reports a completed run without mistakes.
func (p *UserProgress) IsPerfect() bool {
	return p != nil && p.Completed && p.Mistakes == 0
}

// UserStats агрегирует прогресс пользователя.
type UserStats struct {
	Completed      int `json:"completed"`
	Total          int `json:"total"`
	TotalScore     int `json:"totalScore"`
	TotalMistakes  int `json:"totalMistakes"`
	CompletionRate int `json:"completionRate"`
}

// CompletionResult is returned after a scenario run is recorded.
type CompletionResult struct {
	Progress             *UserProgress      `json:"progress"`
	Score                int                `json:"score"`
	Mistakes             int                `json:"mistakes"`
	SafeCount            int                `json:"safeCount"`
	RiskyCount           int                `json:"riskyCount"`
	DangerousCount       int                `json:"dangerousCount"`
	SecurityScore        int                `json:"securityScore"`
	SecurityScoreGained  int                `json:"securityScoreGained"`
	Rank                 int                `json:"rank"`
	PreviousRank         int                `json:"previousRank"`
	UnlockedAchievements []*UserAchievement `json:"unlockedAchievements"`
}
