package handler

import (
	"net/http"

	"qadamsafe/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Services - зависимости HTTP слоя. Generator и WebSocket могут быть nil.
type Services struct {
	Auth         service.AuthService
	Scenarios    service.ScenarioService
	Play         service.PlayService
	Progress     service.ProgressService
	Achievements service.AchievementService
	Leaderboard  service.LeaderboardService
	Classrooms   service.ClassroomService
	Generator    service.GeneratorService
	Devices      service.DeviceTokenService
	WebSocket    http.HandlerFunc
}

type Handler struct {
	auth         service.AuthService
	scenarios    service.ScenarioService
	play         service.PlayService
	progress     service.ProgressService
	achievements service.AchievementService
	leaderboard  service.LeaderboardService
	classrooms   service.ClassroomService
	generator    service.GeneratorService
	devices      service.DeviceTokenService
	websocket    http.HandlerFunc
	logger       *zap.Logger
}

func NewHandler(s Services, logger *zap.Logger) *Handler {
	return &Handler{
		auth:         s.Auth,
		scenarios:    s.Scenarios,
		play:         s.Play,
		progress:     s.Progress,
		achievements: s.Achievements,
		leaderboard:  s.Leaderboard,
		classrooms:   s.Classrooms,
		generator:    s.Generator,
		devices:      s.Devices,
		websocket:    s.WebSocket,
		logger:       logger.Named("HTTPHandler"),
	}
}

// RegisterRoutes вешает все маршруты API. authLimiter применяется к публичным auth ручкам, может быть nil.
func (h *Handler) RegisterRoutes(router *gin.Engine, authLimiter gin.HandlerFunc) {
	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	router.GET("/health", healthHandler)
	router.HEAD("/health", healthHandler)

	if h.websocket != nil {
		router.GET("/ws", gin.WrapF(h.websocket))
	}

	public := []gin.HandlerFunc{}
	if authLimiter != nil {
		public = append(public, authLimiter)
	}
	authMw := h.AuthMiddleware()

	authGroup := router.Group("/api/auth")
	{
		authGroup.POST("/register", append(public, h.register)...)
		authGroup.POST("/login", append(public, h.login)...)
		authGroup.POST("/refresh", append(public, h.refresh)...)
		authGroup.POST("/logout", authMw, h.logout)
		authGroup.GET("/me", authMw, h.getMe)
		authGroup.PATCH("/language", authMw, h.updateLanguage)
		authGroup.POST("/welcome-seen", authMw, h.markWelcomeSeen)
	}

	api := router.Group("/api", authMw)
	{
		api.GET("/scenarios", h.listScenarios)
		api.GET("/scenarios/:id", h.getScenario)
		api.POST("/scenarios/:id/complete", h.completeScenario)
		api.POST("/scenarios", RequireRole(adminOnly), h.createScenario)
		api.DELETE("/scenarios/:id", RequireRole(adminOnly), h.deleteScenario)

		api.POST("/play/:scenarioId", h.startSession)
		api.POST("/play/sessions/:sessionId/answer", h.answer)
		api.POST("/play/sessions/:sessionId/continue", h.continueSession)

		api.GET("/progress", h.getProgress)
		api.GET("/progress/stats", h.getStats)
		api.GET("/progress/scenario/:scenarioId", h.getScenarioProgress)

		api.GET("/achievements", h.listAchievements)
		api.GET("/achievements/user", h.listUserAchievements)
		api.POST("/achievements/check", h.checkAchievements)

		api.GET("/leaderboard", h.getLeaderboard)
		api.GET("/leaderboard/me", h.getLeaderboardPosition)

		api.POST("/classrooms", RequireRole(staffOnly), h.createClassroom)
		api.POST("/classrooms/join", h.joinClassroom)
		api.GET("/classrooms", h.listClassrooms)
		api.GET("/classrooms/:id/students", h.listClassroomStudents)

		api.POST("/ai/scenarios", RequireRole(staffOnly), h.generateScenario)

		api.POST("/devices", h.registerDevice)
		api.DELETE("/devices", h.unregisterDevice)
	}
}
