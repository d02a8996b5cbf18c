package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/educycle/marketplace/internal/config"
	"github.com/educycle/marketplace/internal/constants"
	"github.com/educycle/marketplace/internal/logger"
	"github.com/educycle/marketplace/internal/models"
	"github.com/educycle/marketplace/internal/payment/cardpay"
	"github.com/educycle/marketplace/internal/payment/upiwallet"
	"github.com/educycle/marketplace/internal/repository"

	"gorm.io/gorm"
)

// PaymentService drives payment attempts against orders. Gateway
// credentials are injected at construction; there is no global
// gateway state. Card and wallet payments are asynchronous and settle
// via webhook; cash on delivery settles synchronously at initiation.
type PaymentService struct {
	paymentRepo         repository.PaymentRepository
	orderRepo           repository.OrderRepository
	itemRepo            repository.ItemRepository
	notificationService *NotificationService
	cfg                 *config.PaymentConfig
}

// NewPaymentService creates the payment service.
func NewPaymentService(paymentRepo repository.PaymentRepository, orderRepo repository.OrderRepository, itemRepo repository.ItemRepository, notificationService *NotificationService, cfg *config.PaymentConfig) *PaymentService {
	return &PaymentService{
		paymentRepo:         paymentRepo,
		orderRepo:           orderRepo,
		itemRepo:            itemRepo,
		notificationService: notificationService,
		cfg:                 cfg,
	}
}

// InitiateResult is the outcome of starting a payment attempt. For
// card payments ClientSecret completes the charge on the client; for
// wallet payments ProviderOrderID and KeyID do. Cash on delivery
// needs nothing further.
type InitiateResult struct {
	Payment         *models.Payment `json:"payment"`
	Order           *models.Order   `json:"order"`
	ClientSecret    string          `json:"client_secret,omitempty"`
	ProviderOrderID string          `json:"provider_order_id,omitempty"`
	KeyID           string          `json:"key_id,omitempty"`
}

// Initiate starts a payment attempt for a pending order. The method
// was fixed at checkout and the switch below is exhaustive: an
// unknown method is an error, never a silent fallthrough.
func (s *PaymentService) Initiate(ctx context.Context, orderID uint, buyerID uint) (*InitiateResult, error) {
	order, err := s.orderRepo.GetByIDAndBuyer(orderID, buyerID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.Status != constants.OrderStatusPending {
		return nil, ErrOrderStateInvalid
	}

	switch order.PaymentMethod {
	case constants.PaymentMethodCOD:
		return s.initiateCOD(order)
	case constants.PaymentMethodCard:
		return s.initiateCard(ctx, order)
	case constants.PaymentMethodWallet:
		return s.initiateWallet(ctx, order)
	default:
		return nil, ErrPaymentMethodInvalid
	}
}

// initiateCOD settles cash on delivery synchronously: the payment
// stays pending until handover, but the order confirms immediately.
func (s *PaymentService) initiateCOD(order *models.Order) (*InitiateResult, error) {
	payment := &models.Payment{
		OrderID:  order.ID,
		Method:   constants.PaymentMethodCOD,
		Amount:   order.TotalAmount,
		Currency: order.Currency,
		Status:   constants.PaymentStatusPending,
	}
	now := time.Now()
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.paymentRepo.WithTx(tx).Create(payment); err != nil {
			return err
		}
		return s.confirmOrderPaid(tx, order, now)
	})
	if err != nil {
		return nil, err
	}
	s.notifySold(order)
	return &InitiateResult{Payment: payment, Order: order}, nil
}

func (s *PaymentService) initiateCard(ctx context.Context, order *models.Order) (*InitiateResult, error) {
	cfg, err := s.cardConfig()
	if err != nil {
		return nil, err
	}

	payment := &models.Payment{
		OrderID:  order.ID,
		Method:   constants.PaymentMethodCard,
		Amount:   order.TotalAmount,
		Currency: order.Currency,
		Status:   constants.PaymentStatusPending,
	}
	if err := s.paymentRepo.Create(payment); err != nil {
		return nil, err
	}

	result, err := cardpay.CreateIntent(ctx, cfg, cardpay.CreateInput{
		OrderID:     order.ID,
		OrderNo:     order.OrderNo,
		PaymentID:   payment.ID,
		Amount:      order.TotalAmount.String(),
		Currency:    order.Currency,
		Description: "EduCycle order " + order.OrderNo,
	})
	if err != nil {
		s.markAttemptFailed(payment, err)
		return nil, fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}

	payment.ProviderIntent = result.IntentID
	payment.Status = constants.PaymentStatusProcessing
	if err := s.paymentRepo.Update(payment); err != nil {
		return nil, err
	}
	return &InitiateResult{
		Payment:      payment,
		Order:        order,
		ClientSecret: result.ClientSecret,
	}, nil
}

func (s *PaymentService) initiateWallet(ctx context.Context, order *models.Order) (*InitiateResult, error) {
	cfg, err := s.walletConfig()
	if err != nil {
		return nil, err
	}

	payment := &models.Payment{
		OrderID:  order.ID,
		Method:   constants.PaymentMethodWallet,
		Amount:   order.TotalAmount,
		Currency: order.Currency,
		Status:   constants.PaymentStatusPending,
	}
	if err := s.paymentRepo.Create(payment); err != nil {
		return nil, err
	}

	result, err := upiwallet.CreateOrder(ctx, cfg, upiwallet.CreateInput{
		OrderID:  order.ID,
		OrderNo:  order.OrderNo,
		Amount:   order.TotalAmount.String(),
		Currency: order.Currency,
	})
	if err != nil {
		s.markAttemptFailed(payment, err)
		return nil, fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}

	payment.ProviderIntent = result.ProviderOrderID
	payment.Status = constants.PaymentStatusProcessing
	if err := s.paymentRepo.Update(payment); err != nil {
		return nil, err
	}
	return &InitiateResult{
		Payment:         payment,
		Order:           order,
		ProviderOrderID: result.ProviderOrderID,
		KeyID:           result.KeyID,
	}, nil
}

// Refund reverses a completed payment. Only the seller may refund,
// and only from the completed state. Gateway refunds run first: a
// provider failure leaves the payment untouched so the operation can
// be retried.
func (s *PaymentService) Refund(ctx context.Context, paymentID uint, sellerID uint) (*models.Payment, error) {
	payment, err := s.paymentRepo.GetByID(paymentID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, ErrPaymentNotFound
	}
	order, err := s.orderRepo.GetByID(payment.OrderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.SellerID != sellerID {
		return nil, ErrForbidden
	}
	if payment.Status != constants.PaymentStatusCompleted {
		return nil, ErrPaymentStateInvalid
	}

	switch payment.Method {
	case constants.PaymentMethodCard:
		cfg, err := s.cardConfig()
		if err != nil {
			return nil, err
		}
		if err := cardpay.Refund(ctx, cfg, payment.ProviderIntent); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPaymentFailed, err)
		}
	case constants.PaymentMethodWallet:
		cfg, err := s.walletConfig()
		if err != nil {
			return nil, err
		}
		ref := ""
		if payment.ProviderRef != nil {
			ref = *payment.ProviderRef
		}
		if err := upiwallet.Refund(ctx, cfg, ref); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPaymentFailed, err)
		}
	case constants.PaymentMethodCOD:
		// nothing to reverse at a gateway
	default:
		return nil, ErrPaymentMethodInvalid
	}

	now := time.Now()
	payment.Status = constants.PaymentStatusRefunded
	payment.RefundedAt = &now
	if err := s.paymentRepo.Update(payment); err != nil {
		return nil, err
	}

	if s.notificationService != nil {
		if _, err := s.notificationService.Notify(NotifyInput{
			UserID:  order.BuyerID,
			Type:    constants.NotificationTypeOrderStatus,
			Title:   fmt.Sprintf("Order %s refunded", order.OrderNo),
			Message: fmt.Sprintf("Your payment of %s %s for order %s has been refunded.", payment.Amount.String(), payment.Currency, order.OrderNo),
			OrderID: &order.ID,
		}); err != nil {
			logger.Warnw("refund_notify_failed", "order_id", order.ID, "error", err)
		}
	}
	return payment, nil
}

// ListByOrder fetches an order's payment attempts for its buyer or
// seller.
func (s *PaymentService) ListByOrder(orderID uint, userID uint) ([]models.Payment, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.BuyerID != userID && order.SellerID != userID {
		return nil, ErrForbidden
	}
	return s.paymentRepo.ListByOrderID(orderID)
}

// confirmOrderPaid moves a pending order to confirmed and marks its
// items sold. Runs inside the caller's transaction.
func (s *PaymentService) confirmOrderPaid(tx *gorm.DB, order *models.Order, now time.Time) error {
	if order.Status != constants.OrderStatusPending {
		return ErrOrderStateInvalid
	}
	orderRepo := s.orderRepo.WithTx(tx)
	itemRepo := s.itemRepo.WithTx(tx)

	if err := orderRepo.UpdateStatus(order.ID, constants.OrderStatusConfirmed, map[string]interface{}{
		"confirmed_at": &now,
	}); err != nil {
		return err
	}
	for i := range order.Items {
		if err := itemRepo.UpdateStatus(order.Items[i].ItemID, constants.ItemStatusSold); err != nil {
			return err
		}
	}
	order.Status = constants.OrderStatusConfirmed
	order.ConfirmedAt = &now
	return nil
}

// notifySold records the sale notifications for both parties. Best
// effort, runs after commit.
func (s *PaymentService) notifySold(order *models.Order) {
	if s.notificationService == nil || order == nil {
		return
	}
	if _, err := s.notificationService.Notify(NotifyInput{
		UserID:  order.SellerID,
		Type:    constants.NotificationTypeItemSold,
		Title:   fmt.Sprintf("Order %s confirmed", order.OrderNo),
		Message: fmt.Sprintf("You sold %d item(s) for %s %s.", len(order.Items), order.TotalAmount.String(), order.Currency),
		OrderID: &order.ID,
	}); err != nil {
		logger.Warnw("item_sold_notify_failed", "order_id", order.ID, "error", err)
	}
	if _, err := s.notificationService.Notify(NotifyInput{
		UserID:  order.BuyerID,
		Type:    constants.NotificationTypeItemPurchased,
		Title:   fmt.Sprintf("Order %s confirmed", order.OrderNo),
		Message: fmt.Sprintf("Your purchase of %s %s is confirmed.", order.TotalAmount.String(), order.Currency),
		OrderID: &order.ID,
	}); err != nil {
		logger.Warnw("item_purchased_notify_failed", "order_id", order.ID, "error", err)
	}
}

// markAttemptFailed flags an attempt whose gateway call never got off
// the ground. The order stays pending so the buyer can retry.
func (s *PaymentService) markAttemptFailed(payment *models.Payment, cause error) {
	payment.Status = constants.PaymentStatusFailed
	if err := s.paymentRepo.Update(payment); err != nil {
		logger.Errorw("payment_mark_failed_error",
			"payment_id", payment.ID,
			"cause", cause,
			"error", err,
		)
	}
}

func (s *PaymentService) cardConfig() (*cardpay.Config, error) {
	if s.cfg == nil || !s.cfg.Card.Enabled {
		return nil, ErrGatewayDisabled
	}
	cfg := &cardpay.Config{
		SecretKey:     s.cfg.Card.KeySecret,
		WebhookSecret: s.cfg.Card.WebhookSecret,
		APIBaseURL:    s.cfg.Card.APIBase,
		Timeout:       time.Duration(s.cfg.Card.TimeoutMS) * time.Millisecond,
	}
	cfg.Normalize()
	if err := cardpay.ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayDisabled, err)
	}
	return cfg, nil
}

func (s *PaymentService) walletConfig() (*upiwallet.Config, error) {
	if s.cfg == nil || !s.cfg.Wallet.Enabled {
		return nil, ErrGatewayDisabled
	}
	cfg := &upiwallet.Config{
		KeyID:         s.cfg.Wallet.KeyID,
		KeySecret:     s.cfg.Wallet.KeySecret,
		WebhookSecret: s.cfg.Wallet.WebhookSecret,
		APIBaseURL:    s.cfg.Wallet.APIBase,
		Timeout:       time.Duration(s.cfg.Wallet.TimeoutMS) * time.Millisecond,
	}
	cfg.Normalize()
	if err := upiwallet.ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayDisabled, err)
	}
	return cfg, nil
}

func normalizeCurrency(currency string) string {
	return strings.ToUpper(strings.TrimSpace(currency))
}
