package models

import "errors"

// Application-wide standard errors
var (
	ErrNotFound = errors.New("resource not found")

	// User & Authentication Errors
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")

	// Token Errors
	ErrTokenInvalid   = errors.New("token is invalid")
	ErrTokenMalformed = errors.New("token is malformed")
	ErrTokenExpired   = errors.New("token has expired")
	ErrTokenNotFound  = errors.New("token not found in storage")

	// Scenario & progress errors
	ErrScenarioNotFound     = errors.New("scenario not found")
	ErrScenarioLocked       = errors.New("scenario is locked")
	ErrSubscriptionRequired = errors.New("subscription tier too low for this scenario")
	ErrInvalidScenario      = errors.New("invalid scenario definition")
	ErrInvalidDecisions     = errors.New("invalid decisions for scenario")
	ErrSessionNotFound      = errors.New("play session not found or expired")

	// Classroom errors
	ErrClassroomNotFound  = errors.New("classroom not found")
	ErrAlreadyJoined      = errors.New("already joined this classroom")
	ErrClassroomCodeTaken = errors.New("classroom code already in use")

	// AI generation
	ErrAIGenerationFailed = errors.New("ai scenario generation failed")
	ErrAIDisabled         = errors.New("ai scenario generation is not configured")

	// General Request/Server Errors
	ErrInternalServer = errors.New("internal server error")
	ErrBadRequest     = errors.New("bad request")
	ErrInvalidInput   = errors.New("invalid input data")
)
