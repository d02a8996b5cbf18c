package api

import (
	"strings"

	"github.com/educycle/marketplace/internal/http/response"

	"github.com/gin-gonic/gin"
)

// ChatRequest is a chatbot turn. A blank session id starts a session.
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message" binding:"required"`
}

// ChatAsk answers one chatbot question and persists the exchange.
func (h *Handler) ChatAsk(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	reply, err := h.ChatbotService.Ask(req.SessionID, req.Message)
	if err != nil {
		respondError(c, response.CodeInternal, "chat failed", err)
		return
	}
	response.Success(c, reply)
}

// ChatTranscript returns a session's turns in order.
func (h *Handler) ChatTranscript(c *gin.Context) {
	sessionID := strings.TrimSpace(c.Param("session_id"))
	if sessionID == "" {
		respondError(c, response.CodeBadRequest, "invalid session_id", nil)
		return
	}
	messages, err := h.ChatbotService.Transcript(sessionID)
	if err != nil {
		respondError(c, response.CodeInternal, "transcript fetch failed", err)
		return
	}
	response.Success(c, gin.H{"messages": messages})
}
