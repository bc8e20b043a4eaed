package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"qadamsafe/internal/config"
	"qadamsafe/internal/interfaces"
	"qadamsafe/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	tokenIssuer       = "qadamsafe"
	minPasswordLength = 8
	maxPasswordLength = 100
	maxNameLength     = 100
)

var _ AuthService = (*authServiceImpl)(nil)

type authServiceImpl struct {
	userRepo  interfaces.UserRepository
	tokenRepo interfaces.TokenRepository
	// leaderboard может быть nil
	leaderboard LeaderboardService
	cfg         *config.Config
	logger      *zap.Logger
	now         func() time.Time
}

// NewAuthService creates a new instance of authServiceImpl.
func NewAuthService(userRepo interfaces.UserRepository, tokenRepo interfaces.TokenRepository, leaderboard LeaderboardService, cfg *config.Config, logger *zap.Logger) AuthService {
	return &authServiceImpl{
		userRepo:    userRepo,
		tokenRepo:   tokenRepo,
		leaderboard: leaderboard,
		cfg:         cfg,
		logger:      logger.Named("AuthService"),
		now:         time.Now,
	}
}

// Register creates a new user and logs them in.
func (s *authServiceImpl) Register(ctx context.Context, email, password, name, language string) (*models.User, *models.TokenDetails, error) {
	// Приводим email к нижнему регистру и убираем пробелы
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)

	logFields := []zap.Field{zap.String("email", email)}
	s.logger.Info("Registering new user", logFields...)

	if _, err := mail.ParseAddress(email); err != nil {
		s.logger.Warn("Registration attempt with invalid email format", append(logFields, zap.Error(err))...)
		return nil, nil, fmt.Errorf("invalid email format: %w", models.ErrInvalidInput)
	}
	if err := validatePassword(password); err != nil {
		s.logger.Warn("Registration attempt with weak password", append(logFields, zap.Error(err))...)
		return nil, nil, err
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return nil, nil, fmt.Errorf("name is longer than %d characters: %w", maxNameLength, models.ErrInvalidInput)
	}
	if name == "" {
		// Имя по умолчанию - часть email до @
		name = email[:strings.IndexByte(email, '@')]
	}
	language = strings.ToLower(strings.TrimSpace(language))
	if language == "" {
		language = models.LanguageRU
	}
	if !models.ValidLanguage(language) {
		return nil, nil, fmt.Errorf("unsupported language %q: %w", language, models.ErrInvalidInput)
	}

	hashedPassword, err := hashPassword(password, s.cfg.PasswordPepper)
	if err != nil {
		s.logger.Error("Failed to hash password during registration", append(logFields, zap.Error(err))...)
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:            email,
		Name:             name,
		PasswordHash:     hashedPassword,
		Role:             models.RoleUser,
		Language:         language,
		SubscriptionTier: models.TierFree,
		Rank:             models.RankNovice,
	}
	// Уникальность email гарантирует ограничение в БД, репозиторий вернёт ErrEmailAlreadyExists
	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		if !errors.Is(err, models.ErrEmailAlreadyExists) {
			s.logger.Error("Failed to create user via repository", append(logFields, zap.Error(err))...)
		}
		return nil, nil, err
	}
	// Прогретый кэш лидерборда иначе не увидит нового пользователя до истечения TTL
	if s.leaderboard != nil {
		s.leaderboard.Track(ctx, user)
	}

	td, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("User registered successfully", zap.Stringer("userID", user.ID))
	return user, td, nil
}

// Login authenticates a user and returns token details.
func (s *authServiceImpl) Login(ctx context.Context, email, password string) (*models.User, *models.TokenDetails, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	s.logger.Info("Login attempt", zap.String("email", email))

	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			s.logger.Warn("Login failed: user not found", zap.String("email", email))
			return nil, nil, models.ErrInvalidCredentials
		}
		s.logger.Error("Login failed: error getting user from repository", zap.Error(err), zap.String("email", email))
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !checkPasswordHash(password, user.PasswordHash, s.cfg.PasswordPepper) {
		s.logger.Warn("Login failed: invalid password", zap.Stringer("userID", user.ID))
		return nil, nil, models.ErrInvalidCredentials
	}

	td, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("User logged in successfully", zap.Stringer("userID", user.ID))
	return user, td, nil
}

// Logout revokes the access token from claims and, if given, the refresh token.
func (s *authServiceImpl) Logout(ctx context.Context, claims *models.Claims, refreshToken string) error {
	log := s.logger.With(zap.Stringer("userID", claims.UserID), zap.String("accessUUID", claims.ID))

	refreshUUID := ""
	if refreshToken != "" {
		// Истёкший refresh тоже можно отозвать, поэтому claims не валидируем
		rc, err := s.parseToken(refreshToken, jwt.WithoutClaimsValidation())
		if err != nil {
			log.Warn("Logout with unparseable refresh token, revoking access token only", zap.Error(err))
		} else if rc.UserID != claims.UserID {
			log.Warn("Logout with refresh token of another user, ignoring it")
		} else {
			refreshUUID = rc.ID
		}
	}

	deletedCount, err := s.tokenRepo.DeleteTokens(ctx, claims.UserID, claims.ID, refreshUUID)
	if err != nil {
		// Токены могли уже истечь, клиенту это неважно
		log.Error("Failed to delete tokens during logout", zap.Error(err))
		return nil
	}
	log.Info("User logged out", zap.Int64("deletedCount", deletedCount))
	return nil
}

// Refresh issues new access and refresh tokens based on a valid refresh token.
func (s *authServiceImpl) Refresh(ctx context.Context, refreshTokenString string) (*models.TokenDetails, error) {
	s.logger.Info("Token refresh attempt")
	claims, err := s.parseToken(refreshTokenString)
	if err != nil {
		return nil, err
	}

	refreshUUID := claims.ID
	userID, err := s.tokenRepo.GetUserIDByRefreshUUID(ctx, refreshUUID)
	if err != nil {
		if errors.Is(err, models.ErrTokenNotFound) {
			s.logger.Warn("Refresh attempt with revoked token", zap.String("refreshUUID", refreshUUID))
			return nil, models.ErrTokenInvalid
		}
		s.logger.Error("Error checking refresh token existence via repository", zap.Error(err), zap.String("refreshUUID", refreshUUID))
		return nil, fmt.Errorf("error checking refresh token existence: %w", err)
	}
	if userID != claims.UserID {
		s.logger.Error("Refresh token user ID mismatch", zap.Stringer("tokenUserID", claims.UserID), zap.Stringer("repoUserID", userID))
		return nil, models.ErrTokenInvalid
	}

	// Роль могла измениться, берём актуальную из БД
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, models.ErrTokenInvalid
		}
		return nil, fmt.Errorf("failed to get user for refresh: %w", err)
	}

	newTd, err := s.createTokens(user)
	if err != nil {
		return nil, err
	}
	if _, delErr := s.tokenRepo.DeleteTokens(ctx, userID, "", refreshUUID); delErr != nil {
		s.logger.Error("Non-critical: Failed to delete old refresh token", zap.Error(delErr), zap.String("refreshUUID", refreshUUID))
	}
	if err := s.tokenRepo.SetToken(ctx, userID, newTd); err != nil {
		s.logger.Error("Failed to save new token details during refresh", zap.Error(err), zap.Stringer("userID", userID))
		return nil, fmt.Errorf("failed to save new token details: %w", err)
	}

	s.logger.Info("Token refreshed successfully", zap.Stringer("userID", userID))
	return newTd, nil
}

// VerifyAccessToken parses the token and checks that it was not revoked.
func (s *authServiceImpl) VerifyAccessToken(ctx context.Context, tokenString string) (*models.Claims, error) {
	claims, err := s.parseToken(tokenString)
	if err != nil {
		return nil, err
	}

	if _, err := s.tokenRepo.GetUserIDByAccessUUID(ctx, claims.ID); err != nil {
		if errors.Is(err, models.ErrTokenNotFound) {
			s.logger.Debug("Access token not found in store (revoked/logged out)", zap.String("accessUUID", claims.ID))
			return nil, models.ErrTokenInvalid
		}
		s.logger.Error("Error checking access token existence via repository", zap.Error(err), zap.String("accessUUID", claims.ID))
		return nil, fmt.Errorf("error checking access token existence: %w", err)
	}
	return claims, nil
}

func (s *authServiceImpl) GetMe(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return s.userRepo.GetUserByID(ctx, userID)
}

func (s *authServiceImpl) UpdateLanguage(ctx context.Context, userID uuid.UUID, language string) (*models.User, error) {
	language = strings.ToLower(strings.TrimSpace(language))
	if !models.ValidLanguage(language) {
		return nil, fmt.Errorf("unsupported language %q: %w", language, models.ErrInvalidInput)
	}
	if err := s.userRepo.UpdateLanguage(ctx, userID, language); err != nil {
		return nil, err
	}
	s.logger.Debug("Language updated", zap.Stringer("userID", userID), zap.String("language", language))
	return s.userRepo.GetUserByID(ctx, userID)
}

func (s *authServiceImpl) MarkWelcomeSeen(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	if err := s.userRepo.MarkWelcomeSeen(ctx, userID); err != nil {
		return nil, err
	}
	return s.userRepo.GetUserByID(ctx, userID)
}

// --- Helper Functions ---

func (s *authServiceImpl) issueTokens(ctx context.Context, user *models.User) (*models.TokenDetails, error) {
	td, err := s.createTokens(user)
	if err != nil {
		return nil, err
	}
	if err := s.tokenRepo.SetToken(ctx, user.ID, td); err != nil {
		s.logger.Error("Failed to save token details via repository", zap.Error(err), zap.Stringer("userID", user.ID))
		return nil, fmt.Errorf("failed to save token details: %w", err)
	}
	return td, nil
}

func (s *authServiceImpl) parseToken(tokenString string, opts ...jwt.ParserOption) (*models.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, models.ErrTokenExpired
		}
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return nil, models.ErrTokenMalformed
		}
		s.logger.Debug("Failed to parse token", zap.Error(err))
		return nil, models.ErrTokenInvalid
	}

	claims, ok := token.Claims.(*models.Claims)
	if !ok || !token.Valid || claims.UserID == uuid.Nil {
		return nil, models.ErrTokenInvalid
	}
	return claims, nil
}

// createTokens generates new access and refresh tokens for a user.
func (s *authServiceImpl) createTokens(user *models.User) (*models.TokenDetails, error) {
	now := s.now()
	td := &models.TokenDetails{
		AccessUUID:  uuid.NewString(),
		RefreshUUID: uuid.NewString(),
		AtExpires:   now.Add(s.cfg.AccessTokenTTL).Unix(),
		RtExpires:   now.Add(s.cfg.RefreshTokenTTL).Unix(),
	}

	sign := func(id string, expires int64) (string, error) {
		claims := &models.Claims{
			UserID: user.ID,
			Role:   user.Role,
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        id,
				ExpiresAt: jwt.NewNumericDate(time.Unix(expires, 0)),
				Subject:   user.ID.String(),
				Issuer:    tokenIssuer,
				IssuedAt:  jwt.NewNumericDate(now),
			},
		}
		return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	}

	var err error
	if td.AccessToken, err = sign(td.AccessUUID, td.AtExpires); err != nil {
		s.logger.Error("Failed to sign access token", zap.Error(err), zap.Stringer("userID", user.ID))
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}
	if td.RefreshToken, err = sign(td.RefreshUUID, td.RtExpires); err != nil {
		s.logger.Error("Failed to sign refresh token", zap.Error(err), zap.Stringer("userID", user.ID))
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return td, nil
}

// validatePassword: 8..100 символов, хотя бы одна буква и одна цифра.
func validatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < minPasswordLength || n > maxPasswordLength {
		return fmt.Errorf("password must be %d-%d characters: %w", minPasswordLength, maxPasswordLength, models.ErrInvalidInput)
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return fmt.Errorf("password must contain a letter and a digit: %w", models.ErrInvalidInput)
	}
	return nil
}

// applyPepper applies HMAC-SHA256 using the pepper as the key.
func applyPepper(password, pepper string) []byte {
	h := hmac.New(sha256.New, []byte(pepper))
	h.Write([]byte(password))
	return h.Sum(nil)
}

// hashPassword generates a bcrypt hash of the password after applying the pepper.
func hashPassword(password, pepper string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword(applyPepper(password, pepper), bcrypt.DefaultCost)
	return string(bytes), err
}

// checkPasswordHash compares a plain text password (after applying pepper) with a stored hash.
func checkPasswordHash(password, hash, pepper string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), applyPepper(password, pepper)) == nil
}
