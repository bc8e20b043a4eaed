package handler

import (
	"net/http"

	"qadamsafe/internal/ai"

	"github.com/gin-gonic/gin"
)

func (h *Handler) createClassroom(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	var req classroomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	classroom, err := h.classrooms.CreateClassroom(c.Request.Context(), claims.UserID, claims.Role, req.Name)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, classroom)
}

func (h *Handler) joinClassroom(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	var req joinClassroomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	classroom, err := h.classrooms.JoinClassroom(c.Request.Context(), claims.UserID, req.Code)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, classroom)
}

func (h *Handler) listClassrooms(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	classrooms, err := h.classrooms.ListClassrooms(c.Request.Context(), claims.UserID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, classrooms)
}

func (h *Handler) listClassroomStudents(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	students, err := h.classrooms.ListStudents(c.Request.Context(), claims.UserID, claims.Role, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, students)
}

func (h *Handler) generateScenario(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	var req generateScenarioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	scenario, err := h.generator.GenerateScenario(c.Request.Context(), claims.UserID, claims.Role, ai.ScenarioRequest{
		Type:       req.Type,
		Language:   req.Language,
		Difficulty: req.Difficulty,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, scenario)
}

func (h *Handler) registerDevice(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	var req deviceTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	if err := h.devices.RegisterDeviceToken(c.Request.Context(), claims.UserID, req.Token, req.Platform); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) unregisterDevice(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	var req deviceTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	if err := h.devices.UnregisterDeviceToken(c.Request.Context(), claims.UserID, req.Token); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
