package models

import (
	"time"

	"github.com/google/uuid"
)

// OutcomeType классифицирует выбранный ответ.
type OutcomeType string

const (
	OutcomeSafe      OutcomeType = "safe"
	OutcomeRisky     OutcomeType = "risky"
	OutcomeDangerous OutcomeType = "dangerous"
)

// Valid reports whether o is safe, risky or dangerous.
func (o OutcomeType) Valid() bool {
	switch o {
	case OutcomeSafe, OutcomeRisky, OutcomeDangerous:
		return true
	}
	return false
}

// StepType determines how a step is played.
type StepType string

const (
	StepQuestion    StepType = "question"
	StepInformation StepType = "information"
	StepDecision    StepType = "decision"
)

// Valid reports whether s is a known step type.
func (s StepType) Valid() bool {
	switch s {
	case StepQuestion, StepInformation, StepDecision:
		return true
	}
	return false
}

// HasOptions reports whether steps of this type expect the learner to pick an option.
func (s StepType) HasOptions() bool {
	return s == StepQuestion || s == StepDecision
}

type ScenarioType string

const (
	ScenarioEmailPhishing     ScenarioType = "EMAIL_PHISHING"
	ScenarioSMSPhishing       ScenarioType = "SMS_PHISHING"
	ScenarioPhoneScam         ScenarioType = "PHONE_SCAM"
	ScenarioSocialEngineering ScenarioType = "SOCIAL_ENGINEERING"
	ScenarioFakeWebsite       ScenarioType = "FAKE_WEBSITE"
	ScenarioWhatsAppScam      ScenarioType = "WHATSAPP_SCAM"
	ScenarioInvestmentScam    ScenarioType = "INVESTMENT_SCAM"
	ScenarioJobScam           ScenarioType = "JOB_SCAM"
	ScenarioLotteryScam       ScenarioType = "LOTTERY_SCAM"
	ScenarioRomanceScam       ScenarioType = "ROMANCE_SCAM"
)

// Valid reports whether t is a known scenario type.
func (t ScenarioType) Valid() bool {
	switch t {
	case ScenarioEmailPhishing, ScenarioSMSPhishing, ScenarioPhoneScam, ScenarioSocialEngineering,
		ScenarioFakeWebsite, ScenarioWhatsAppScam, ScenarioInvestmentScam, ScenarioJobScam,
		ScenarioLotteryScam, ScenarioRomanceScam:
		return true
	}
	return false
}

type Difficulty string

const (
	DifficultyBeginner     Difficulty = "BEGINNER"
	DifficultyIntermediate Difficulty = "INTERMEDIATE"
	DifficultyAdvanced     Difficulty = "ADVANCED"
	DifficultyExpert       Difficulty = "EXPERT"
)

// Valid reports whether d is a known difficulty.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced, DifficultyExpert:
		return true
	}
	return false
}

// Option is one selectable answer of a step.
type Option struct {
	ID            string      `json:"id"`
	Text          string      `json:"text"`
	TextEn        string      `json:"textEn,omitempty"`
	TextKk        string      `json:"textKk,omitempty"`
	OutcomeType   OutcomeType `json:"outcomeType"`
	NextStepID    string      `json:"nextStepId,omitempty"`
	Explanation   string      `json:"explanation,omitempty"`
	ExplanationEn string      `json:"explanationEn,omitempty"`
	ExplanationKk string      `json:"explanationKk,omitempty"`
}

// Step is a single unit of a scenario. Phone-related fields are only used
// when VisualType is "phone".
type Step struct {
	ID               string   `json:"id"`
	Type             StepType `json:"type"`
	Content          string   `json:"content"`
	ContentEn        string   `json:"contentEn,omitempty"`
	ContentKk        string   `json:"contentKk,omitempty"`
	Context          string   `json:"context,omitempty"`
	Question         string   `json:"question,omitempty"`
	Options          []Option `json:"options,omitempty"`
	Explanation      string   `json:"explanation,omitempty"`
	NextStepID       string   `json:"nextStepId,omitempty"`
	VisualType       string   `json:"visualType,omitempty"`       // phone | text
	PhoneMessageType string   `json:"phoneMessageType,omitempty"` // sms | whatsapp | telegram | call
	SenderName       string   `json:"senderName,omitempty"`
	SenderNumber     string   `json:"senderNumber,omitempty"`
	MessageText      string   `json:"messageText,omitempty"`
	MessageTextEn    string   `json:"messageTextEn,omitempty"`
	MessageTextKk    string   `json:"messageTextKk,omitempty"`
	ProfileEmoji     string   `json:"profileEmoji,omitempty"`
}

// CompletionBlock is shown after the last step.
type CompletionBlock struct {
	Title     string   `json:"title,omitempty"`
	TitleEn   string   `json:"titleEn,omitempty"`
	TitleKk   string   `json:"titleKk,omitempty"`
	Message   string   `json:"message,omitempty"`
	MessageEn string   `json:"messageEn,omitempty"`
	MessageKk string   `json:"messageKk,omitempty"`
	Tips      []string `json:"tips,omitempty"`
}

// ScenarioContent is stored as a single JSONB document.
type ScenarioContent struct {
	Steps           []Step           `json:"steps"`
	CompletionBlock *CompletionBlock `json:"completionBlock,omitempty"`
}

// Scenario - обучающий сценарий.
type Scenario struct {
	ID            uuid.UUID        `db:"id" json:"id"`
	Title         string           `db:"title" json:"title"`
	TitleEn       string           `db:"title_en" json:"titleEn,omitempty"`
	TitleKk       string           `db:"title_kk" json:"titleKk,omitempty"`
	Description   string           `db:"description" json:"description"`
	DescriptionEn string           `db:"description_en" json:"descriptionEn,omitempty"`
	DescriptionKk string           `db:"description_kk" json:"descriptionKk,omitempty"`
	Type          ScenarioType     `db:"type" json:"type"`
	Difficulty    Difficulty       `db:"difficulty" json:"difficulty"`
	RequiredTier  SubscriptionTier `db:"required_tier" json:"requiredTier"`
	PointsReward  int              `db:"points_reward" json:"pointsReward"`
	Order         int              `db:"sort_order" json:"order"`
	IsLegitimate  bool             `db:"is_legitimate" json:"isLegitimate"`
	IsAIGenerated bool             `db:"is_ai_generated" json:"isAIGenerated"`
	Tags          []string         `db:"tags" json:"tags,omitempty"`
	Content       ScenarioContent  `db:"content" json:"content"`
	CreatedBy     *uuid.UUID       `db:"created_by" json:"createdBy,omitempty"`
	CreatedAt     time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time        `db:"updated_at" json:"updatedAt"`
}

// StepByID returns the step with the given id, or nil.
func (s *Scenario) StepByID(id string) *Step {
	for i := range s.Content.Steps {
		if s.Content.Steps[i].ID == id {
			return &s.Content.Steps[i]
		}
	}
	return nil
}

// ScenarioWithStatus is a scenario as seen by a particular user.
type ScenarioWithStatus struct {
	*Scenario
	Locked       bool          `json:"locked"`
	UserProgress *UserProgress `json:"userProgress"`
}
