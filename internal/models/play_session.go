package models

import (
	"time"

	"github.com/google/uuid"
)

// PlayState - сериализуемое состояние проигрывателя сценария.
type PlayState struct {
	StepIndex   int                 `json:"stepIndex"`
	Finished    bool                `json:"finished"`
	OptionOrder map[string][]string `json:"optionOrder"`
	Decisions   []Decision          `json:"decisions"`
}

// PlaySession is a server-driven run stored in Redis.
type PlaySession struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"userId"`
	ScenarioID uuid.UUID `json:"scenarioId"`
	State      PlayState `json:"state"`
	CreatedAt  time.Time `json:"createdAt"`
}
