package handler

import (
	"net/http"
	"strconv"

	"qadamsafe/internal/service"

	"github.com/gin-gonic/gin"
)

func (h *Handler) getProgress(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	progress, err := h.progress.GetProgress(c.Request.Context(), claims.UserID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}

func (h *Handler) getStats(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	stats, err := h.progress.GetStats(c.Request.Context(), claims.UserID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// getScenarioProgress отдает null, если сценарий еще не проходили.
func (h *Handler) getScenarioProgress(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	scenarioID, ok := uuidParam(c, "scenarioId")
	if !ok {
		return
	}
	p, err := h.progress.GetScenarioProgress(c.Request.Context(), claims.UserID, scenarioID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) listAchievements(c *gin.Context) {
	achievements, err := h.achievements.ListAchievements(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, achievements)
}

func (h *Handler) listUserAchievements(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	achievements, err := h.achievements.ListUserAchievements(c.Request.Context(), claims.UserID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, achievements)
}

func (h *Handler) checkAchievements(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	unlocked, err := h.achievements.CheckAndAward(c.Request.Context(), claims.UserID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unlocked": unlocked})
}

func (h *Handler) getLeaderboard(c *gin.Context) {
	limit := service.DefaultLeaderboardLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			badRequest(c, "Invalid limit parameter")
			return
		}
		limit = n
	}
	entries, err := h.leaderboard.GetLeaderboard(c.Request.Context(), limit)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *Handler) getLeaderboardPosition(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	entry, err := h.leaderboard.GetPosition(c.Request.Context(), claims.UserID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}
