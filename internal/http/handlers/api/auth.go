package api

import (
	"errors"
	"time"

	"github.com/educycle/marketplace/internal/http/response"
	"github.com/educycle/marketplace/internal/service"

	"github.com/gin-gonic/gin"
)

// RegisterRequest is the signup payload.
type RegisterRequest struct {
	Username    string `json:"username" binding:"required"`
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"display_name"`
}

// LoginRequest is the login payload. Username also accepts the email.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register creates an account.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	user, err := h.UserService.Register(service.RegisterInput{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserExists):
			respondError(c, response.CodeConflict, "username or email already taken", nil)
		case errors.Is(err, service.ErrInvalidCredentials):
			respondError(c, response.CodeBadRequest, "username and a password of at least 6 characters are required", nil)
		case errors.Is(err, service.ErrInvalidEmail):
			respondError(c, response.CodeBadRequest, "invalid email address", nil)
		default:
			respondError(c, response.CodeInternal, "registration failed", err)
		}
		return
	}
	response.Success(c, gin.H{"user": user})
}

// Login checks credentials and issues a token.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	user, token, expiresAt, err := h.UserService.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			respondError(c, response.CodeUnauthorized, "invalid username or password", nil)
			return
		}
		respondError(c, response.CodeInternal, "login failed", err)
		return
	}
	response.Success(c, gin.H{
		"user":       user,
		"token":      token,
		"expires_at": expiresAt.Format(time.RFC3339),
	})
}

// Profile returns the authenticated account.
func (h *Handler) Profile(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	user, err := h.UserService.Get(uid)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			respondError(c, response.CodeNotFound, "user not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "profile fetch failed", err)
		return
	}
	response.Success(c, gin.H{"user": user})
}
