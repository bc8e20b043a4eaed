package handler

import (
	"errors"
	"net/http"

	"qadamsafe/internal/models"
	"qadamsafe/internal/player"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func handleServiceError(c *gin.Context, err error) {
	var statusCode int
	var errResp models.ErrorResponse

	switch {
	// AI ошибки проверяем первыми: они оборачивают ErrInvalidScenario
	case errors.Is(err, models.ErrAIGenerationFailed):
		statusCode = http.StatusBadGateway
		errResp = models.ErrorResponse{Code: models.ErrCodeAIUnavailable, Message: "AI provider did not return a usable scenario"}
	case errors.Is(err, models.ErrAIDisabled):
		statusCode = http.StatusServiceUnavailable
		errResp = models.ErrorResponse{Code: models.ErrCodeAIUnavailable, Message: "AI scenario generation is not configured"}
	case errors.Is(err, models.ErrInvalidCredentials):
		statusCode = http.StatusUnauthorized
		errResp = models.ErrorResponse{Code: models.ErrCodeWrongCredentials, Message: "Invalid email or password"}
	case errors.Is(err, models.ErrEmailAlreadyExists):
		statusCode = http.StatusConflict
		errResp = models.ErrorResponse{Code: models.ErrCodeDuplicateEmail, Message: "Email already exists"}
	case errors.Is(err, models.ErrUserNotFound):
		statusCode = http.StatusNotFound
		errResp = models.ErrorResponse{Code: models.ErrCodeUserNotFound, Message: "User not found"}
	case errors.Is(err, models.ErrTokenExpired):
		statusCode = http.StatusUnauthorized
		errResp = models.ErrorResponse{Code: models.ErrCodeTokenExpired, Message: "Token has expired"}
	case errors.Is(err, models.ErrTokenInvalid), errors.Is(err, models.ErrTokenMalformed),
		errors.Is(err, models.ErrTokenNotFound), errors.Is(err, models.ErrUnauthorized):
		statusCode = http.StatusUnauthorized
		errResp = models.ErrorResponse{Code: models.ErrCodeTokenInvalid, Message: "Token is invalid or revoked"}
	case errors.Is(err, models.ErrForbidden):
		statusCode = http.StatusForbidden
		errResp = models.ErrorResponse{Code: models.ErrCodeForbidden, Message: "Access denied"}
	case errors.Is(err, models.ErrScenarioLocked):
		statusCode = http.StatusForbidden
		errResp = models.ErrorResponse{Code: models.ErrCodeScenarioLocked, Message: "Complete the previous scenario first"}
	case errors.Is(err, models.ErrSubscriptionRequired):
		statusCode = http.StatusForbidden
		errResp = models.ErrorResponse{Code: models.ErrCodeSubscriptionRequired, Message: "Your subscription does not include this scenario"}
	case errors.Is(err, models.ErrScenarioNotFound), errors.Is(err, models.ErrClassroomNotFound),
		errors.Is(err, models.ErrSessionNotFound), errors.Is(err, models.ErrNotFound):
		statusCode = http.StatusNotFound
		errResp = models.ErrorResponse{Code: models.ErrCodeNotFound, Message: err.Error()}
	case errors.Is(err, models.ErrAlreadyJoined):
		statusCode = http.StatusConflict
		errResp = models.ErrorResponse{Code: models.ErrCodeAlreadyJoined, Message: "Already joined this classroom"}
	case errors.Is(err, models.ErrInvalidDecisions),
		errors.Is(err, player.ErrStepMismatch), errors.Is(err, player.ErrUnknownOption),
		errors.Is(err, player.ErrIncomplete), errors.Is(err, player.ErrNotAQuestion),
		errors.Is(err, player.ErrNotInformation), errors.Is(err, player.ErrSessionFinished):
		statusCode = http.StatusBadRequest
		errResp = models.ErrorResponse{Code: models.ErrCodeInvalidDecisions, Message: err.Error()}
	case errors.Is(err, models.ErrInvalidScenario):
		statusCode = http.StatusBadRequest
		errResp = models.ErrorResponse{Code: models.ErrCodeValidation, Message: err.Error()}
	case errors.Is(err, models.ErrInvalidInput), errors.Is(err, models.ErrBadRequest):
		statusCode = http.StatusBadRequest
		errResp = models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: err.Error()}
	default:
		zap.L().Error("Unhandled internal error in handleServiceError", zap.Error(err), zap.String("path", c.FullPath()))
		statusCode = http.StatusInternalServerError
		errResp = models.ErrorResponse{Code: models.ErrCodeInternal, Message: "An unexpected internal error occurred"}
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(statusCode, errResp)
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: message})
}
