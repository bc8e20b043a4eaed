package handler

import (
	"errors"
	"net/http"
	"strings"

	"qadamsafe/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

const (
	ctxUserID = "user_id"
	ctxClaims = "claims"
)

var tokenVerificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "qadamsafe_token_verifications_total",
		Help: "Access token verifications by status.",
	},
	[]string{"status"},
)

var (
	adminOnly = []string{models.RoleAdmin}
	staffOnly = []string{models.RoleTeacher, models.RoleAdmin}
)

// AuthMiddleware проверяет Bearer access токен и кладет claims в контекст.
func (h *Handler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			tokenVerificationsTotal.WithLabelValues("failure").Inc()
			handleServiceError(c, models.ErrTokenInvalid)
			return
		}

		claims, err := h.auth.VerifyAccessToken(c.Request.Context(), parts[1])
		if err != nil {
			h.logger.Debug("Access token verification failed", zap.Error(err))
			tokenVerificationsTotal.WithLabelValues("failure").Inc()
			handleServiceError(c, err)
			return
		}

		tokenVerificationsTotal.WithLabelValues("success").Inc()
		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxClaims, claims)
		c.Next()
	}
}

// RequireRole пропускает только перечисленные роли. Ставится после AuthMiddleware.
func RequireRole(roles []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := claimsFromContext(c)
		if err != nil {
			handleServiceError(c, err)
			return
		}
		for _, r := range roles {
			if claims.Role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, models.ErrorResponse{
			Code:    models.ErrCodeForbidden,
			Message: "Insufficient role",
		})
	}
}

func claimsFromContext(c *gin.Context) (*models.Claims, error) {
	v, ok := c.Get(ctxClaims)
	if !ok {
		return nil, models.ErrUnauthorized
	}
	claims, ok := v.(*models.Claims)
	if !ok || claims.UserID == uuid.Nil {
		return nil, errors.New("invalid claims in request context")
	}
	return claims, nil
}

// mustClaims пишет ошибку в ответ, если claims нет. Вызывающий должен просто вернуться при ok == false.
func mustClaims(c *gin.Context) (*models.Claims, bool) {
	claims, err := claimsFromContext(c)
	if err != nil {
		handleServiceError(c, err)
		return nil, false
	}
	return claims, true
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "Invalid "+name+": must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}
