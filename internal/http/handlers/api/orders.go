package api

import (
	"github.com/educycle/marketplace/internal/constants"
	"github.com/educycle/marketplace/internal/http/response"
	"github.com/educycle/marketplace/internal/service"

	"github.com/gin-gonic/gin"
)

// CheckoutRequest starts a checkout over the whole cart.
type CheckoutRequest struct {
	ShippingAddress string `json:"shipping_address" binding:"required"`
	PaymentMethod   string `json:"payment_method" binding:"required"`
}

// AdvanceOrderRequest moves a sale along the fulfilment chain.
type AdvanceOrderRequest struct {
	Status string `json:"status" binding:"required"`
}

// Checkout converts the cart into one order per seller.
func (h *Handler) Checkout(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	orders, err := h.OrderService.Checkout(service.CheckoutInput{
		BuyerID:         uid,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   constants.PaymentMethod(req.PaymentMethod),
	})
	if err != nil {
		respondWithMappedError(c, err, checkoutErrorRules, response.CodeInternal, "checkout failed")
		return
	}
	response.Success(c, gin.H{"orders": orders})
}

// ListOrders returns the caller's purchases.
func (h *Handler) ListOrders(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, pageSize := paginationFromQuery(c)
	orders, total, err := h.OrderService.ListForBuyer(uid, page, pageSize, c.Query("status"))
	if err != nil {
		respondError(c, response.CodeInternal, "order fetch failed", err)
		return
	}
	response.SuccessWithPage(c, gin.H{"orders": orders}, buildPagination(page, pageSize, total))
}

// ListSales returns the caller's sales.
func (h *Handler) ListSales(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, pageSize := paginationFromQuery(c)
	orders, total, err := h.OrderService.ListForSeller(uid, page, pageSize, c.Query("status"))
	if err != nil {
		respondError(c, response.CodeInternal, "order fetch failed", err)
		return
	}
	response.SuccessWithPage(c, gin.H{"orders": orders}, buildPagination(page, pageSize, total))
}

// GetOrder returns one order. Only its buyer or seller may read it.
func (h *Handler) GetOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	order, err := h.OrderService.Get(id, uid)
	if err != nil {
		respondWithMappedError(c, err, orderErrorRules, response.CodeInternal, "order fetch failed")
		return
	}
	response.Success(c, gin.H{"order": order})
}

// AdvanceOrder moves a sale to the next status. Seller only.
func (h *Handler) AdvanceOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req AdvanceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	order, err := h.OrderService.Advance(id, uid, req.Status)
	if err != nil {
		respondWithMappedError(c, err, orderErrorRules, response.CodeInternal, "order update failed")
		return
	}
	response.Success(c, gin.H{"order": order})
}

// CancelOrder cancels a pending purchase. Buyer only.
func (h *Handler) CancelOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	order, err := h.OrderService.Cancel(id, uid)
	if err != nil {
		respondWithMappedError(c, err, orderErrorRules, response.CodeInternal, "order update failed")
		return
	}
	response.Success(c, gin.H{"order": order})
}
