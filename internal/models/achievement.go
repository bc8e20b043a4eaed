package models

import (
	"time"

	"github.com/google/uuid"
)

// Known achievement keys.
const (
	AchievementFirstScenario  = "first_scenario"
	AchievementFiveScenarios  = "five_scenarios"
	AchievementTenScenarios   = "ten_scenarios"
	AchievementAllScenarios   = "all_scenarios"
	AchievementPerfectScore   = "perfect_score"
	AchievementSecurityExpert = "security_expert"
)

type Achievement struct {
	ID            uuid.UUID `db:"id" json:"id"`
	Key           string    `db:"key" json:"key"`
	Title         string    `db:"title" json:"title"`
	TitleEn       string    `db:"title_en" json:"titleEn,omitempty"`
	Description   string    `db:"description" json:"description"`
	DescriptionEn string    `db:"description_en" json:"descriptionEn,omitempty"`
	Icon          string    `db:"icon" json:"icon"`
	RequiredValue int       `db:"required_value" json:"requiredValue"`
}

// UserAchievement is the per-user progress towards an achievement.
type UserAchievement struct {
	UserID        uuid.UUID    `db:"user_id" json:"userId"`
	AchievementID uuid.UUID    `db:"achievement_id" json:"achievementId"`
	Progress      int          `db:"progress" json:"progress"`
	Completed     bool         `db:"completed" json:"completed"`
	CompletedAt   *time.Time   `db:"completed_at" json:"completedAt,omitempty"`
	Achievement   *Achievement `db:"-" json:"achievement,omitempty"`
}
