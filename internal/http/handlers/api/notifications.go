package api

import (
	"errors"

	"github.com/educycle/marketplace/internal/http/response"
	"github.com/educycle/marketplace/internal/service"

	"github.com/gin-gonic/gin"
)

// ListNotifications returns the caller's notifications, newest first.
// unread_only=true narrows to unread ones.
func (h *Handler) ListNotifications(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, pageSize := paginationFromQuery(c)
	unreadOnly := c.Query("unread_only") == "true"
	notifications, total, err := h.NotificationService.List(uid, page, pageSize, unreadOnly)
	if err != nil {
		respondError(c, response.CodeInternal, "notification fetch failed", err)
		return
	}
	response.SuccessWithPage(c, gin.H{"notifications": notifications}, buildPagination(page, pageSize, total))
}

// UnreadNotificationCount returns the caller's unread count.
func (h *Handler) UnreadNotificationCount(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	count, err := h.NotificationService.CountUnread(uid)
	if err != nil {
		respondError(c, response.CodeInternal, "notification fetch failed", err)
		return
	}
	response.Success(c, gin.H{"unread": count})
}

// MarkNotificationRead flags one notification read.
func (h *Handler) MarkNotificationRead(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.NotificationService.MarkRead(id, uid); err != nil {
		if errors.Is(err, service.ErrForbidden) {
			respondError(c, response.CodeNotFound, "notification not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "notification update failed", err)
		return
	}
	response.Success(c, gin.H{"read": true})
}

// MarkAllNotificationsRead flags every notification read.
func (h *Handler) MarkAllNotificationsRead(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	if err := h.NotificationService.MarkAllRead(uid); err != nil {
		respondError(c, response.CodeInternal, "notification update failed", err)
		return
	}
	response.Success(c, gin.H{"read": true})
}
