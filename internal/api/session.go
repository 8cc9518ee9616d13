package api

import (
	"net/http"

	"veira-pos/internal/assistant"
	"veira-pos/internal/models"
	"veira-pos/internal/service"

	"github.com/gin-gonic/gin"
)

// LoginRequest selects the role to work as
type LoginRequest struct {
	Role *models.UserRole `json:"role" binding:"required"`
}

// ChatRequest is one assistant question with prior turns
type ChatRequest struct {
	Message string           `json:"message" binding:"required"`
	History []assistant.Turn `json:"history"`
}

func (h *Handler) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	sess, err := h.pos.Login(c.Request.Context(), *req.Role)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (h *Handler) logout(c *gin.Context) {
	c.JSON(http.StatusOK, h.pos.Logout(c.Request.Context()))
}

func (h *Handler) getSession(c *gin.Context) {
	c.JSON(http.StatusOK, h.pos.Session(c.Request.Context()))
}

func (h *Handler) getSettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.pos.Settings(c.Request.Context()))
}

func (h *Handler) updateSettings(c *gin.Context) {
	var req service.SettingsUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	st, err := h.pos.UpdateSettings(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) getInsights(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"insight": h.insights.Insights(c.Request.Context())})
}

func (h *Handler) chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	reply, err := h.insights.Chat(c.Request.Context(), req.Message, req.History)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reply": reply})
}
