package api

import (
	"github.com/educycle/marketplace/internal/http/response"

	"github.com/gin-gonic/gin"
)

// CartItemRequest adds or updates a cart line.
type CartItemRequest struct {
	ItemID   uint `json:"item_id" binding:"required"`
	Quantity int  `json:"quantity" binding:"required"`
}

// GetCart returns the caller's cart with line and grand totals.
func (h *Handler) GetCart(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	summary, err := h.CartService.Get(uid)
	if err != nil {
		respondError(c, response.CodeInternal, "cart fetch failed", err)
		return
	}
	response.Success(c, summary)
}

// AddCartItem adds a line, incrementing quantity when it exists.
func (h *Handler) AddCartItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	if err := h.CartService.Add(uid, req.ItemID, req.Quantity); err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "cart update failed")
		return
	}
	response.Success(c, gin.H{"added": true})
}

// UpdateCartItem sets a line quantity. Zero removes the line.
func (h *Handler) UpdateCartItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	itemID, ok := paramID(c, "item_id")
	if !ok {
		return
	}
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	if req.Quantity <= 0 {
		if err := h.CartService.Remove(uid, itemID); err != nil {
			respondError(c, response.CodeInternal, "cart update failed", err)
			return
		}
		response.Success(c, gin.H{"removed": true})
		return
	}
	if err := h.CartService.SetQuantity(uid, itemID, req.Quantity); err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "cart update failed")
		return
	}
	response.Success(c, gin.H{"updated": true})
}

// DeleteCartItem removes a line.
func (h *Handler) DeleteCartItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	itemID, ok := paramID(c, "item_id")
	if !ok {
		return
	}
	if err := h.CartService.Remove(uid, itemID); err != nil {
		respondError(c, response.CodeInternal, "cart update failed", err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

// ClearCart empties the cart.
func (h *Handler) ClearCart(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	if err := h.CartService.Clear(uid); err != nil {
		respondError(c, response.CodeInternal, "cart update failed", err)
		return
	}
	response.Success(c, gin.H{"cleared": true})
}
