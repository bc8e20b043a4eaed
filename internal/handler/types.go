package handler

import (
	"qadamsafe/internal/models"
	"qadamsafe/internal/player"
)

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Language string `json:"language"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type languageRequest struct {
	Language string `json:"language" binding:"required"`
}

// authResponse - пользователь вместе с парой токенов.
type authResponse struct {
	User   *models.User         `json:"user"`
	Tokens *models.TokenDetails `json:"tokens"`
}

type completeRequest struct {
	Decisions []player.Choice `json:"decisions" binding:"required,dive"`
}

type answerRequest struct {
	OptionID string `json:"optionId" binding:"required"`
}

type classroomRequest struct {
	Name string `json:"name" binding:"required"`
}

type joinClassroomRequest struct {
	Code string `json:"code" binding:"required"`
}

type generateScenarioRequest struct {
	Type       models.ScenarioType `json:"type"`
	Language   string              `json:"language"`
	Difficulty models.Difficulty   `json:"difficulty"`
}

type deviceTokenRequest struct {
	Token    string `json:"token" binding:"required"`
	Platform string `json:"platform"`
}
