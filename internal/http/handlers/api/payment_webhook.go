package api

import (
	"errors"
	"io"

	"github.com/educycle/marketplace/internal/http/response"
	"github.com/educycle/marketplace/internal/models"
	"github.com/educycle/marketplace/internal/service"

	"github.com/gin-gonic/gin"
)

// CardWebhook receives card gateway events. Signature failures are
// rejected without touching any payment row; redeliveries of settled
// events are acknowledged as no-ops.
func (h *Handler) CardWebhook(c *gin.Context) {
	h.handlePaymentWebhook(c, "card", h.PaymentService.HandleCardWebhook)
}

// WalletWebhook receives wallet gateway events.
func (h *Handler) WalletWebhook(c *gin.Context) {
	h.handlePaymentWebhook(c, "wallet", h.PaymentService.HandleWalletWebhook)
}

func (h *Handler) handlePaymentWebhook(c *gin.Context, gateway string, handle func(map[string]string, []byte) (*models.Payment, error)) {
	log := requestLog(c)
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		log.Warnw("payment_webhook_body_read_failed", "gateway", gateway, "error", err)
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	log.Infow("payment_webhook_received",
		"gateway", gateway,
		"client_ip", c.ClientIP(),
		"body_size", len(body),
	)

	headers := make(map[string]string, len(c.Request.Header))
	for name, values := range c.Request.Header {
		if len(values) > 0 {
			headers[name] = values[0]
		}
	}

	payment, err := handle(headers, body)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrWebhookRejected):
			log.Warnw("payment_webhook_rejected", "gateway", gateway, "error", err)
			respondError(c, response.CodeBadRequest, "webhook rejected", nil)
		case errors.Is(err, service.ErrGatewayDisabled):
			log.Warnw("payment_webhook_gateway_disabled", "gateway", gateway)
			respondError(c, response.CodeBadRequest, "gateway disabled", nil)
		case errors.Is(err, service.ErrPaymentNotFound):
			log.Warnw("payment_webhook_payment_not_found", "gateway", gateway)
			respondError(c, response.CodeNotFound, "payment not found", nil)
		case errors.Is(err, service.ErrPaymentStateInvalid):
			log.Warnw("payment_webhook_state_invalid", "gateway", gateway)
			respondError(c, response.CodeBadRequest, "invalid payment state", nil)
		default:
			respondError(c, response.CodeInternal, "webhook processing failed", err)
		}
		return
	}
	response.Success(c, gin.H{"received": true, "payment": payment})
}
