package service

import (
	"fmt"
	"time"

	"github.com/educycle/marketplace/internal/constants"
	"github.com/educycle/marketplace/internal/logger"
	"github.com/educycle/marketplace/internal/models"
	"github.com/educycle/marketplace/internal/payment/cardpay"
	"github.com/educycle/marketplace/internal/payment/upiwallet"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// webhookEvent is the gateway-agnostic view of a verified webhook
// both handlers reduce to.
type webhookEvent struct {
	ProviderRef    string
	ProviderIntent string
	PaymentID      uint
	Status         string
	Amount         string
	Currency       string
	PaidAt         *time.Time
	RawBody        []byte
}

// HandleCardWebhook verifies and applies a card gateway webhook. A
// bad signature rejects the call before anything is read; a replayed
// transaction id acknowledges without touching state.
func (s *PaymentService) HandleCardWebhook(headers map[string]string, body []byte) (*models.Payment, error) {
	log := paymentLogger("provider", "cardpay", "body_size", len(body))

	cfg, err := s.cardConfig()
	if err != nil {
		log.Warnw("payment_webhook_gateway_disabled", "error", err)
		return nil, err
	}
	result, err := cardpay.VerifyAndParseWebhook(cfg, headers, body, time.Now())
	if err != nil {
		log.Warnw("payment_webhook_verify_failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrWebhookRejected, err)
	}

	return s.applyWebhookEvent(log, webhookEvent{
		ProviderRef:    result.ProviderRef,
		ProviderIntent: result.IntentID,
		PaymentID:      result.PaymentID,
		Status:         result.Status,
		Amount:         result.Amount,
		Currency:       result.Currency,
		PaidAt:         result.PaidAt,
		RawBody:        body,
	})
}

// HandleWalletWebhook verifies and applies a wallet gateway webhook.
func (s *PaymentService) HandleWalletWebhook(headers map[string]string, body []byte) (*models.Payment, error) {
	log := paymentLogger("provider", "upiwallet", "body_size", len(body))

	cfg, err := s.walletConfig()
	if err != nil {
		log.Warnw("payment_webhook_gateway_disabled", "error", err)
		return nil, err
	}
	result, err := upiwallet.VerifyAndParseWebhook(cfg, headers, body)
	if err != nil {
		log.Warnw("payment_webhook_verify_failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrWebhookRejected, err)
	}

	return s.applyWebhookEvent(log, webhookEvent{
		ProviderRef:    result.ProviderRef,
		ProviderIntent: result.ProviderOrderID,
		Status:         result.Status,
		Amount:         result.Amount,
		Currency:       result.Currency,
		PaidAt:         result.PaidAt,
		RawBody:        body,
	})
}

// applyWebhookEvent is the shared settlement path. Dedupe by provider
// transaction id happens first: a transaction id already bound to a
// payment means this delivery was processed before and the event is
// acknowledged as a no-op.
func (s *PaymentService) applyWebhookEvent(log *zap.SugaredLogger, event webhookEvent) (*models.Payment, error) {
	if event.ProviderRef != "" {
		existing, err := s.paymentRepo.GetByProviderRef(event.ProviderRef)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			log.Infow("payment_webhook_duplicate",
				"provider_ref", event.ProviderRef,
				"payment_id", existing.ID,
			)
			return existing, nil
		}
	}

	payment, err := s.locateWebhookPayment(event)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		log.Warnw("payment_webhook_payment_not_found",
			"provider_intent", event.ProviderIntent,
			"payment_id", event.PaymentID,
		)
		return nil, ErrPaymentNotFound
	}

	if event.Amount != "" {
		reported, parseErr := decimal.NewFromString(event.Amount)
		if parseErr != nil ||
			!payment.Amount.Decimal.Equal(reported) ||
			(event.Currency != "" && normalizeCurrency(payment.Currency) != normalizeCurrency(event.Currency)) {
			log.Warnw("payment_webhook_amount_mismatch",
				"payment_id", payment.ID,
				"expected_amount", payment.Amount.String(),
				"reported_amount", event.Amount,
				"expected_currency", payment.Currency,
				"reported_currency", event.Currency,
			)
			return nil, ErrWebhookRejected
		}
	}

	switch event.Status {
	case "success":
		return s.applyWebhookSuccess(log, payment, event)
	case "failed":
		return s.applyWebhookFailure(log, payment, event)
	default:
		// intermediate states are acknowledged without mutation
		log.Infow("payment_webhook_ignored", "payment_id", payment.ID, "status", event.Status)
		return payment, nil
	}
}

func (s *PaymentService) locateWebhookPayment(event webhookEvent) (*models.Payment, error) {
	if event.PaymentID != 0 {
		payment, err := s.paymentRepo.GetByID(event.PaymentID)
		if err != nil || payment != nil {
			return payment, err
		}
	}
	if event.ProviderIntent != "" {
		return s.paymentRepo.GetLatestByProviderIntent(event.ProviderIntent)
	}
	return nil, nil
}

func (s *PaymentService) applyWebhookSuccess(log *zap.SugaredLogger, payment *models.Payment, event webhookEvent) (*models.Payment, error) {
	if payment.Status == constants.PaymentStatusCompleted {
		return payment, nil
	}
	if payment.Status != constants.PaymentStatusPending && payment.Status != constants.PaymentStatusProcessing {
		log.Warnw("payment_webhook_state_conflict", "payment_id", payment.ID, "status", payment.Status)
		return nil, ErrPaymentStateInvalid
	}

	order, err := s.orderRepo.GetByID(payment.OrderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	paidAt := time.Now()
	if event.PaidAt != nil {
		paidAt = *event.PaidAt
	}
	payment.Status = constants.PaymentStatusCompleted
	payment.PaidAt = &paidAt
	payment.ProviderPayload = string(event.RawBody)
	if event.ProviderRef != "" {
		ref := event.ProviderRef
		payment.ProviderRef = &ref
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.paymentRepo.WithTx(tx).Update(payment); err != nil {
			return err
		}
		if order.Status == constants.OrderStatusPending {
			return s.confirmOrderPaid(tx, order, paidAt)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Infow("payment_webhook_completed",
		"payment_id", payment.ID,
		"order_id", order.ID,
		"provider_ref", event.ProviderRef,
	)
	s.notifySold(order)
	return payment, nil
}

func (s *PaymentService) applyWebhookFailure(log *zap.SugaredLogger, payment *models.Payment, event webhookEvent) (*models.Payment, error) {
	// a completed payment never regresses on a late failure event
	if payment.Status == constants.PaymentStatusCompleted || payment.Status == constants.PaymentStatusRefunded {
		return payment, nil
	}
	payment.Status = constants.PaymentStatusFailed
	payment.ProviderPayload = string(event.RawBody)
	if event.ProviderRef != "" {
		ref := event.ProviderRef
		payment.ProviderRef = &ref
	}
	if err := s.paymentRepo.Update(payment); err != nil {
		return nil, err
	}
	log.Infow("payment_webhook_failed",
		"payment_id", payment.ID,
		"order_id", payment.OrderID,
		"provider_ref", event.ProviderRef,
	)
	return payment, nil
}

func paymentLogger(kv ...interface{}) *zap.SugaredLogger {
	if len(kv) == 0 {
		return logger.S()
	}
	return logger.SW(kv...)
}
