package api

import (
	"github.com/educycle/marketplace/internal/http/response"
	"github.com/educycle/marketplace/internal/service"

	"github.com/gin-gonic/gin"
)

// SendMessageRequest is a direct message payload.
type SendMessageRequest struct {
	RecipientID uint   `json:"recipient_id" binding:"required"`
	ItemID      *uint  `json:"item_id"`
	Body        string `json:"body" binding:"required"`
}

// SendMessage delivers a direct message.
func (h *Handler) SendMessage(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	message, err := h.MessageService.Send(service.SendMessageInput{
		SenderID:    uid,
		RecipientID: req.RecipientID,
		ItemID:      req.ItemID,
		Body:        req.Body,
	})
	if err != nil {
		respondWithMappedError(c, err, messageErrorRules, response.CodeInternal, "message send failed")
		return
	}
	response.Success(c, gin.H{"message": message})
}

// Conversation returns both directions with one peer, oldest first.
func (h *Handler) Conversation(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	peerID, ok := paramID(c, "peer_id")
	if !ok {
		return
	}
	page, pageSize := paginationFromQuery(c)
	messages, total, err := h.MessageService.Conversation(uid, peerID, page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "message fetch failed", err)
		return
	}
	response.SuccessWithPage(c, gin.H{"messages": messages}, buildPagination(page, pageSize, total))
}

// Inbox returns received messages, newest first.
func (h *Handler) Inbox(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, pageSize := paginationFromQuery(c)
	messages, total, err := h.MessageService.Inbox(uid, page, pageSize, uint(queryInt(c, "peer_id", 0)))
	if err != nil {
		respondError(c, response.CodeInternal, "message fetch failed", err)
		return
	}
	response.SuccessWithPage(c, gin.H{"messages": messages}, buildPagination(page, pageSize, total))
}

// MarkMessageRead flags one received message read.
func (h *Handler) MarkMessageRead(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.MessageService.MarkRead(id, uid); err != nil {
		respondWithMappedError(c, err, messageErrorRules, response.CodeInternal, "message update failed")
		return
	}
	response.Success(c, gin.H{"read": true})
}

// UnreadMessageCount returns the caller's unread message count.
func (h *Handler) UnreadMessageCount(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	count, err := h.MessageService.CountUnread(uid)
	if err != nil {
		respondError(c, response.CodeInternal, "message fetch failed", err)
		return
	}
	response.Success(c, gin.H{"unread": count})
}
