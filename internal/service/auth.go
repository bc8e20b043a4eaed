package service

import (
	"context"

	"qadamsafe/internal/models"

	"github.com/google/uuid"
)

// AuthService defines authentication and profile logic.
type AuthService interface {
	Register(ctx context.Context, email, password, name, language string) (*models.User, *models.TokenDetails, error)
	Login(ctx context.Context, email, password string) (*models.User, *models.TokenDetails, error)
	Logout(ctx context.Context, claims *models.Claims, refreshToken string) error
	Refresh(ctx context.Context, refreshToken string) (*models.TokenDetails, error)
	VerifyAccessToken(ctx context.Context, tokenString string) (*models.Claims, error)
	GetMe(ctx context.Context, userID uuid.UUID) (*models.User, error)
	UpdateLanguage(ctx context.Context, userID uuid.UUID, language string) (*models.User, error)
	MarkWelcomeSeen(ctx context.Context, userID uuid.UUID) (*models.User, error)
}
