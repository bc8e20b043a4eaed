package models

// Stable error codes returned to clients.
const (
	ErrCodeBadRequest           = "bad_request"
	ErrCodeValidation           = "validation_error"
	ErrCodeWrongCredentials     = "wrong_credentials"
	ErrCodeDuplicateEmail       = "duplicate_email"
	ErrCodeUserNotFound         = "user_not_found"
	ErrCodeTokenInvalid         = "token_invalid"
	ErrCodeTokenExpired         = "token_expired"
	ErrCodeForbidden            = "forbidden"
	ErrCodeNotFound             = "not_found"
	ErrCodeScenarioLocked       = "scenario_locked"
	ErrCodeSubscriptionRequired = "subscription_required"
	ErrCodeInvalidDecisions     = "invalid_decisions"
	ErrCodeAlreadyJoined        = "already_joined"
	ErrCodeAIUnavailable        = "ai_unavailable"
	ErrCodeTooManyRequests      = "too_many_requests"
	ErrCodeInternal             = "internal_error"
)

// ErrorResponse - стандартное тело ответа об ошибке.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
