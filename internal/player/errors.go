package player

import (
	"errors"

	"qadamsafe/internal/models"
)

var (
	ErrSessionFinished = errors.New("session is finished")
	ErrNotAQuestion    = errors.New("current step does not accept an answer")
	ErrNotInformation  = errors.New("current step requires an answer")
	ErrUnknownOption   = errors.New("option does not belong to the current step")
	ErrStepMismatch    = errors.New("decision does not answer the current step")
	ErrIncomplete      = errors.New("scenario run is not finished")

	// ErrInvalidScenario is returned by Validate with the concrete problem wrapped.
	ErrInvalidScenario = models.ErrInvalidScenario
)
