package api

import (
	"github.com/educycle/marketplace/internal/http/response"

	"github.com/gin-gonic/gin"
)

// InitiatePayment starts a payment attempt for a pending order, using
// the method chosen at checkout.
func (h *Handler) InitiatePayment(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	result, err := h.PaymentService.Initiate(c.Request.Context(), orderID, uid)
	if err != nil {
		respondWithMappedError(c, err, paymentErrorRules, response.CodeInternal, "payment initiation failed")
		return
	}
	response.Success(c, result)
}

// ListOrderPayments returns an order's payment attempts.
func (h *Handler) ListOrderPayments(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	payments, err := h.PaymentService.ListByOrder(orderID, uid)
	if err != nil {
		respondWithMappedError(c, err, paymentErrorRules, response.CodeInternal, "payment fetch failed")
		return
	}
	response.Success(c, gin.H{"payments": payments})
}

// RefundPayment refunds a completed payment. Seller only.
func (h *Handler) RefundPayment(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	paymentID, ok := paramID(c, "id")
	if !ok {
		return
	}
	payment, err := h.PaymentService.Refund(c.Request.Context(), paymentID, uid)
	if err != nil {
		respondWithMappedError(c, err, paymentErrorRules, response.CodeInternal, "refund failed")
		return
	}
	response.Success(c, gin.H{"payment": payment})
}
