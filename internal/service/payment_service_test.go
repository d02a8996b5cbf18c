package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/educycle/marketplace/internal/config"
	"github.com/educycle/marketplace/internal/constants"
	"github.com/educycle/marketplace/internal/models"
	"github.com/educycle/marketplace/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const testCardWebhookSecret = "whsec_test_abc"

type paymentTestEnv struct {
	db         *gorm.DB
	paymentSvc *PaymentService
	orderSvc   *OrderService
	cartSvc    *CartService
}

func setupPaymentTest(t *testing.T, name string) *paymentTestEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{}, &models.Item{}, &models.CartItem{},
		&models.Order{}, &models.OrderItem{}, &models.Payment{},
		&models.Notification{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	orderRepo := repository.NewOrderRepository(db)
	itemRepo := repository.NewItemRepository(db)
	cartRepo := repository.NewCartRepository(db)
	userRepo := repository.NewUserRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	notificationSvc := NewNotificationService(notificationRepo, userRepo, nil, nil)

	paymentCfg := &config.PaymentConfig{
		Currency: "INR",
		Card: config.GatewayConfig{
			Enabled:       true,
			KeySecret:     "sk_test_123",
			WebhookSecret: testCardWebhookSecret,
		},
	}
	paymentSvc := NewPaymentService(paymentRepo, orderRepo, itemRepo, notificationSvc, paymentCfg)
	orderSvc := NewOrderService(orderRepo, itemRepo, cartRepo, notificationSvc, nil, nil, "INR")
	cartSvc := NewCartService(cartRepo, itemRepo, "INR")
	return &paymentTestEnv{db: db, paymentSvc: paymentSvc, orderSvc: orderSvc, cartSvc: cartSvc}
}

func checkoutOneItem(t *testing.T, env *paymentTestEnv, method constants.PaymentMethod, price int64) (*models.User, *models.User, models.Order) {
	t.Helper()
	buyer := createTestUser(t, env.db, "buyer")
	seller := createTestUser(t, env.db, "seller")
	item := createTestItem(t, env.db, seller.ID, "Study Table", price)
	if err := env.cartSvc.Add(buyer.ID, item.ID, 1); err != nil {
		t.Fatalf("add to cart failed: %v", err)
	}
	orders, err := env.orderSvc.Checkout(CheckoutInput{
		BuyerID:       buyer.ID,
		PaymentMethod: method,
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("expected 1 order, got %d", len(orders))
	}
	return buyer, seller, orders[0]
}

func signedCardWebhook(t *testing.T, intentID string, orderID, paymentID uint, minorAmount int64, eventType string) (map[string]string, []byte) {
	t.Helper()
	now := time.Now()
	status := "succeeded"
	if eventType != "payment_intent.succeeded" {
		status = "requires_payment_method"
	}
	payload := map[string]interface{}{
		"id":   "evt_" + intentID,
		"type": eventType,
		"data": map[string]interface{}{
			"object": map[string]interface{}{
				"object":          "payment_intent",
				"id":              intentID,
				"status":          status,
				"currency":        "inr",
				"amount_received": minorAmount,
				"created":         now.Unix(),
				"metadata": map[string]interface{}{
					"order_id":   fmt.Sprintf("%d", orderID),
					"payment_id": fmt.Sprintf("%d", paymentID),
				},
			},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal webhook body failed: %v", err)
	}
	mac := hmac.New(sha256.New, []byte(testCardWebhookSecret))
	fmt.Fprintf(mac, "%d.", now.Unix())
	mac.Write(body)
	headers := map[string]string{
		"Stripe-Signature": fmt.Sprintf("t=%d,v1=%s", now.Unix(), hex.EncodeToString(mac.Sum(nil))),
	}
	return headers, body
}

func TestCODInitiateConfirmsSynchronously(t *testing.T) {
	env := setupPaymentTest(t, "payment_cod")
	buyer, seller, order := checkoutOneItem(t, env, constants.PaymentMethodCOD, 100)

	result, err := env.paymentSvc.Initiate(context.Background(), order.ID, buyer.ID)
	if err != nil {
		t.Fatalf("initiate failed: %v", err)
	}
	if result.Payment.Status != constants.PaymentStatusPending {
		t.Fatalf("expected pending payment, got %s", result.Payment.Status)
	}
	if result.Order.Status != constants.OrderStatusConfirmed {
		t.Fatalf("expected confirmed order, got %s", result.Order.Status)
	}

	var reloaded models.Order
	if err := env.db.First(&reloaded, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloaded.Status != constants.OrderStatusConfirmed || reloaded.ConfirmedAt == nil {
		t.Fatalf("expected persisted confirmation, got %s", reloaded.Status)
	}

	var soldCount int64
	if err := env.db.Model(&models.Item{}).Where("status = ?", constants.ItemStatusSold).Count(&soldCount).Error; err != nil {
		t.Fatalf("count sold items failed: %v", err)
	}
	if soldCount != 1 {
		t.Fatalf("expected 1 sold item, got %d", soldCount)
	}

	for _, expect := range []struct {
		userID uint
		typ    string
	}{
		{seller.ID, constants.NotificationTypeItemSold},
		{buyer.ID, constants.NotificationTypeItemPurchased},
	} {
		var count int64
		if err := env.db.Model(&models.Notification{}).
			Where("user_id = ? AND type = ?", expect.userID, expect.typ).
			Count(&count).Error; err != nil {
			t.Fatalf("count notifications failed: %v", err)
		}
		if count != 1 {
			t.Fatalf("expected 1 %s notification for user %d, got %d", expect.typ, expect.userID, count)
		}
	}
}

func TestInitiateRequiresPendingOrder(t *testing.T) {
	env := setupPaymentTest(t, "payment_initiate_state")
	buyer, _, order := checkoutOneItem(t, env, constants.PaymentMethodCOD, 100)

	if _, err := env.paymentSvc.Initiate(context.Background(), order.ID, buyer.ID); err != nil {
		t.Fatalf("initiate failed: %v", err)
	}
	// the order confirmed above; a second initiation has nothing to pay
	if _, err := env.paymentSvc.Initiate(context.Background(), order.ID, buyer.ID); !errors.Is(err, ErrOrderStateInvalid) {
		t.Fatalf("expected state invalid, got %v", err)
	}
}

func TestCardWebhookCompletesPayment(t *testing.T) {
	env := setupPaymentTest(t, "payment_card_webhook")
	_, _, order := checkoutOneItem(t, env, constants.PaymentMethodCard, 250)

	payment := models.Payment{
		OrderID:        order.ID,
		Method:         constants.PaymentMethodCard,
		Amount:         models.NewMoneyFromDecimal(decimal.NewFromInt(250)),
		Currency:       "INR",
		Status:         constants.PaymentStatusProcessing,
		ProviderIntent: "pi_hook_1",
	}
	if err := env.db.Create(&payment).Error; err != nil {
		t.Fatalf("create payment failed: %v", err)
	}

	headers, body := signedCardWebhook(t, "pi_hook_1", order.ID, payment.ID, 25000, "payment_intent.succeeded")
	updated, err := env.paymentSvc.HandleCardWebhook(headers, body)
	if err != nil {
		t.Fatalf("handle webhook failed: %v", err)
	}
	if updated.Status != constants.PaymentStatusCompleted {
		t.Fatalf("expected completed, got %s", updated.Status)
	}
	if updated.ProviderRef == nil || *updated.ProviderRef != "pi_hook_1" {
		t.Fatalf("expected provider ref bound, got %+v", updated.ProviderRef)
	}

	var reloadedOrder models.Order
	if err := env.db.First(&reloadedOrder, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloadedOrder.Status != constants.OrderStatusConfirmed {
		t.Fatalf("expected confirmed order, got %s", reloadedOrder.Status)
	}
}

func TestCardWebhookReplayIsNoOp(t *testing.T) {
	env := setupPaymentTest(t, "payment_card_replay")
	_, _, order := checkoutOneItem(t, env, constants.PaymentMethodCard, 250)

	payment := models.Payment{
		OrderID:        order.ID,
		Method:         constants.PaymentMethodCard,
		Amount:         models.NewMoneyFromDecimal(decimal.NewFromInt(250)),
		Currency:       "INR",
		Status:         constants.PaymentStatusProcessing,
		ProviderIntent: "pi_replay_1",
	}
	if err := env.db.Create(&payment).Error; err != nil {
		t.Fatalf("create payment failed: %v", err)
	}

	headers, body := signedCardWebhook(t, "pi_replay_1", order.ID, payment.ID, 25000, "payment_intent.succeeded")
	if _, err := env.paymentSvc.HandleCardWebhook(headers, body); err != nil {
		t.Fatalf("first delivery failed: %v", err)
	}
	var paidAtFirst models.Payment
	if err := env.db.First(&paidAtFirst, payment.ID).Error; err != nil {
		t.Fatalf("reload payment failed: %v", err)
	}

	// identical redelivery acknowledges without touching anything
	replayed, err := env.paymentSvc.HandleCardWebhook(headers, body)
	if err != nil {
		t.Fatalf("replay delivery failed: %v", err)
	}
	if replayed.ID != payment.ID {
		t.Fatalf("expected same payment, got %d", replayed.ID)
	}
	var paymentCount int64
	if err := env.db.Model(&models.Payment{}).Count(&paymentCount).Error; err != nil {
		t.Fatalf("count payments failed: %v", err)
	}
	if paymentCount != 1 {
		t.Fatalf("expected single payment row, got %d", paymentCount)
	}
	var afterReplay models.Payment
	if err := env.db.First(&afterReplay, payment.ID).Error; err != nil {
		t.Fatalf("reload payment failed: %v", err)
	}
	if !afterReplay.UpdatedAt.Equal(paidAtFirst.UpdatedAt) {
		t.Fatalf("expected replay to leave the payment untouched")
	}
}

func TestCardWebhookBadSignatureMutatesNothing(t *testing.T) {
	env := setupPaymentTest(t, "payment_card_badsig")
	_, _, order := checkoutOneItem(t, env, constants.PaymentMethodCard, 250)

	payment := models.Payment{
		OrderID:        order.ID,
		Method:         constants.PaymentMethodCard,
		Amount:         models.NewMoneyFromDecimal(decimal.NewFromInt(250)),
		Currency:       "INR",
		Status:         constants.PaymentStatusProcessing,
		ProviderIntent: "pi_badsig_1",
	}
	if err := env.db.Create(&payment).Error; err != nil {
		t.Fatalf("create payment failed: %v", err)
	}

	_, body := signedCardWebhook(t, "pi_badsig_1", order.ID, payment.ID, 25000, "payment_intent.succeeded")
	headers := map[string]string{
		"Stripe-Signature": fmt.Sprintf("t=%d,v1=deadbeef", time.Now().Unix()),
	}
	if _, err := env.paymentSvc.HandleCardWebhook(headers, body); !errors.Is(err, ErrWebhookRejected) {
		t.Fatalf("expected webhook rejected, got %v", err)
	}

	var reloaded models.Payment
	if err := env.db.First(&reloaded, payment.ID).Error; err != nil {
		t.Fatalf("reload payment failed: %v", err)
	}
	if reloaded.Status != constants.PaymentStatusProcessing {
		t.Fatalf("expected untouched payment, got %s", reloaded.Status)
	}
	var reloadedOrder models.Order
	if err := env.db.First(&reloadedOrder, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloadedOrder.Status != constants.OrderStatusPending {
		t.Fatalf("expected untouched order, got %s", reloadedOrder.Status)
	}
}

func TestCardWebhookAmountMismatchRejected(t *testing.T) {
	env := setupPaymentTest(t, "payment_card_mismatch")
	_, _, order := checkoutOneItem(t, env, constants.PaymentMethodCard, 250)

	payment := models.Payment{
		OrderID:        order.ID,
		Method:         constants.PaymentMethodCard,
		Amount:         models.NewMoneyFromDecimal(decimal.NewFromInt(250)),
		Currency:       "INR",
		Status:         constants.PaymentStatusProcessing,
		ProviderIntent: "pi_mismatch_1",
	}
	if err := env.db.Create(&payment).Error; err != nil {
		t.Fatalf("create payment failed: %v", err)
	}

	// gateway reports 100.00 against a 250.00 payment
	headers, body := signedCardWebhook(t, "pi_mismatch_1", order.ID, payment.ID, 10000, "payment_intent.succeeded")
	if _, err := env.paymentSvc.HandleCardWebhook(headers, body); !errors.Is(err, ErrWebhookRejected) {
		t.Fatalf("expected webhook rejected, got %v", err)
	}

	var reloaded models.Payment
	if err := env.db.First(&reloaded, payment.ID).Error; err != nil {
		t.Fatalf("reload payment failed: %v", err)
	}
	if reloaded.Status != constants.PaymentStatusProcessing {
		t.Fatalf("expected untouched payment, got %s", reloaded.Status)
	}
}

func TestCardWebhookFailureEventMarksFailedOnly(t *testing.T) {
	env := setupPaymentTest(t, "payment_card_failed")
	_, _, order := checkoutOneItem(t, env, constants.PaymentMethodCard, 250)

	payment := models.Payment{
		OrderID:        order.ID,
		Method:         constants.PaymentMethodCard,
		Amount:         models.NewMoneyFromDecimal(decimal.NewFromInt(250)),
		Currency:       "INR",
		Status:         constants.PaymentStatusProcessing,
		ProviderIntent: "pi_failed_1",
	}
	if err := env.db.Create(&payment).Error; err != nil {
		t.Fatalf("create payment failed: %v", err)
	}

	headers, body := signedCardWebhook(t, "pi_failed_1", order.ID, payment.ID, 25000, "payment_intent.payment_failed")
	updated, err := env.paymentSvc.HandleCardWebhook(headers, body)
	if err != nil {
		t.Fatalf("handle webhook failed: %v", err)
	}
	if updated.Status != constants.PaymentStatusFailed {
		t.Fatalf("expected failed payment, got %s", updated.Status)
	}

	// failed payment never touches the order; the buyer can retry
	var reloadedOrder models.Order
	if err := env.db.First(&reloadedOrder, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloadedOrder.Status != constants.OrderStatusPending {
		t.Fatalf("expected pending order, got %s", reloadedOrder.Status)
	}
}

func TestRefundOnlyFromCompleted(t *testing.T) {
	env := setupPaymentTest(t, "payment_refund")
	buyer, seller, order := checkoutOneItem(t, env, constants.PaymentMethodCOD, 100)

	result, err := env.paymentSvc.Initiate(context.Background(), order.ID, buyer.ID)
	if err != nil {
		t.Fatalf("initiate failed: %v", err)
	}

	// COD payment stays pending until handover: refund is premature
	if _, err := env.paymentSvc.Refund(context.Background(), result.Payment.ID, seller.ID); !errors.Is(err, ErrPaymentStateInvalid) {
		t.Fatalf("expected state invalid, got %v", err)
	}

	if err := env.db.Model(&models.Payment{}).Where("id = ?", result.Payment.ID).Update("status", constants.PaymentStatusCompleted).Error; err != nil {
		t.Fatalf("complete payment failed: %v", err)
	}

	// only the seller refunds
	if _, err := env.paymentSvc.Refund(context.Background(), result.Payment.ID, buyer.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}

	refunded, err := env.paymentSvc.Refund(context.Background(), result.Payment.ID, seller.ID)
	if err != nil {
		t.Fatalf("refund failed: %v", err)
	}
	if refunded.Status != constants.PaymentStatusRefunded || refunded.RefundedAt == nil {
		t.Fatalf("expected refunded payment, got %s", refunded.Status)
	}

	// refund is terminal
	if _, err := env.paymentSvc.Refund(context.Background(), result.Payment.ID, seller.ID); !errors.Is(err, ErrPaymentStateInvalid) {
		t.Fatalf("expected state invalid on double refund, got %v", err)
	}
}

func TestGatewayConfigDefaultsApply(t *testing.T) {
	svc := NewPaymentService(nil, nil, nil, nil, &config.PaymentConfig{
		Currency: "INR",
		Card: config.GatewayConfig{
			Enabled:       true,
			KeySecret:     "sk_test_123",
			WebhookSecret: "whsec_card",
		},
		Wallet: config.GatewayConfig{
			Enabled:       true,
			KeyID:         "rzp_test_key",
			KeySecret:     "rzp_test_secret",
			WebhookSecret: "whsec_wallet",
		},
	})

	// api_base left empty: the package default must apply instead of
	// the gateway being reported as disabled.
	cardCfg, err := svc.cardConfig()
	if err != nil {
		t.Fatalf("card config failed: %v", err)
	}
	if cardCfg.APIBaseURL == "" {
		t.Fatalf("expected default card api base url")
	}

	walletCfg, err := svc.walletConfig()
	if err != nil {
		t.Fatalf("wallet config failed: %v", err)
	}
	if walletCfg.APIBaseURL == "" {
		t.Fatalf("expected default wallet api base url")
	}
}
