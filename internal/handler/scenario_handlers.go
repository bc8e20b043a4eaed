package handler

import (
	"net/http"

	"qadamsafe/internal/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) listScenarios(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	scenarios, err := h.scenarios.ListScenarios(c.Request.Context(), claims.UserID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, scenarios)
}

func (h *Handler) getScenario(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	s, err := h.scenarios.GetScenario(c.Request.Context(), claims.UserID, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// completeScenario принимает решения целиком, сервер их переигрывает и считает очки сам.
func (h *Handler) completeScenario(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req completeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	res, err := h.progress.CompleteScenario(c.Request.Context(), claims.UserID, id, req.Decisions)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) createScenario(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	var s models.Scenario
	if err := c.ShouldBindJSON(&s); err != nil {
		badRequest(c, "Invalid scenario: "+err.Error())
		return
	}
	created, err := h.scenarios.CreateScenario(c.Request.Context(), claims.UserID, &s)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) deleteScenario(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.scenarios.DeleteScenario(c.Request.Context(), id); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) startSession(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	scenarioID, ok := uuidParam(c, "scenarioId")
	if !ok {
		return
	}
	view, err := h.play.StartSession(c.Request.Context(), claims.UserID, scenarioID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *Handler) answer(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	sessionID, ok := uuidParam(c, "sessionId")
	if !ok {
		return
	}
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	view, err := h.play.Answer(c.Request.Context(), claims.UserID, sessionID, req.OptionID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) continueSession(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	sessionID, ok := uuidParam(c, "sessionId")
	if !ok {
		return
	}
	view, err := h.play.Continue(c.Request.Context(), claims.UserID, sessionID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
