package cardpay

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestNormalizeAndValidateConfig(t *testing.T) {
	cfg := &Config{
		SecretKey:     " sk_test_123 ",
		WebhookSecret: " whsec_123 ",
	}
	cfg.Normalize()
	if cfg.SecretKey != "sk_test_123" {
		t.Fatalf("unexpected secret key: %s", cfg.SecretKey)
	}
	if cfg.APIBaseURL != defaultAPIBaseURL {
		t.Fatalf("unexpected default api base url: %s", cfg.APIBaseURL)
	}
	if cfg.WebhookToleranceSeconds != defaultWebhookToleranceS {
		t.Fatalf("unexpected tolerance: %d", cfg.WebhookToleranceSeconds)
	}
	if err := ValidateConfig(cfg); err != nil {
		t.Fatalf("validate config failed: %v", err)
	}
}

func TestValidateConfigMissingSecret(t *testing.T) {
	cfg := &Config{WebhookSecret: "whsec_123", APIBaseURL: defaultAPIBaseURL}
	if err := ValidateConfig(cfg); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected config invalid error, got %v", err)
	}
}

func TestVerifyAndParseWebhookSucceeded(t *testing.T) {
	now := time.Unix(1760000000, 0)
	cfg := &Config{
		WebhookSecret:           "whsec_test_abc",
		WebhookToleranceSeconds: 300,
	}
	payload := map[string]interface{}{
		"id":   "evt_test_1",
		"type": "payment_intent.succeeded",
		"data": map[string]interface{}{
			"object": map[string]interface{}{
				"object":          "payment_intent",
				"id":              "pi_test_123",
				"status":          "succeeded",
				"currency":        "inr",
				"amount_received": 25000,
				"created":         now.Unix(),
				"metadata": map[string]interface{}{
					"order_id":   "42",
					"payment_id": "1001",
				},
			},
		},
	}
	body, _ := json.Marshal(payload)
	sig := computeSignature(cfg.WebhookSecret, now.Unix(), body)
	headers := map[string]string{
		"Stripe-Signature": "t=1760000000,v1=" + sig,
	}

	result, err := VerifyAndParseWebhook(cfg, headers, body, now)
	if err != nil {
		t.Fatalf("verify and parse webhook failed: %v", err)
	}
	if result.EventType != "payment_intent.succeeded" {
		t.Fatalf("unexpected event type: %s", result.EventType)
	}
	if result.OrderID != 42 {
		t.Fatalf("unexpected order id: %d", result.OrderID)
	}
	if result.PaymentID != 1001 {
		t.Fatalf("unexpected payment id: %d", result.PaymentID)
	}
	if result.ProviderRef != "pi_test_123" {
		t.Fatalf("unexpected provider ref: %s", result.ProviderRef)
	}
	if result.Status != "success" {
		t.Fatalf("unexpected status: %s", result.Status)
	}
	if result.Amount != "250.00" {
		t.Fatalf("unexpected amount: %s", result.Amount)
	}
}

func TestVerifyAndParseWebhookFailedEvent(t *testing.T) {
	now := time.Unix(1760000000, 0)
	cfg := &Config{
		WebhookSecret:           "whsec_test_abc",
		WebhookToleranceSeconds: 300,
	}
	payload := map[string]interface{}{
		"id":   "evt_test_2",
		"type": "payment_intent.payment_failed",
		"data": map[string]interface{}{
			"object": map[string]interface{}{
				"object":   "payment_intent",
				"id":       "pi_test_456",
				"status":   "requires_payment_method",
				"currency": "inr",
				"amount":   25000,
				"metadata": map[string]interface{}{
					"order_id": "42",
				},
			},
		},
	}
	body, _ := json.Marshal(payload)
	sig := computeSignature(cfg.WebhookSecret, now.Unix(), body)
	headers := map[string]string{
		"Stripe-Signature": "t=1760000000,v1=" + sig,
	}

	result, err := VerifyAndParseWebhook(cfg, headers, body, now)
	if err != nil {
		t.Fatalf("verify and parse webhook failed: %v", err)
	}
	if result.Status != "failed" {
		t.Fatalf("unexpected status: %s", result.Status)
	}
}

func TestVerifyAndParseWebhookInvalidSignature(t *testing.T) {
	now := time.Unix(1760000000, 0)
	cfg := &Config{
		WebhookSecret:           "whsec_test_abc",
		WebhookToleranceSeconds: 300,
	}
	payload := map[string]interface{}{
		"id":   "evt_test_1",
		"type": "payment_intent.succeeded",
		"data": map[string]interface{}{
			"object": map[string]interface{}{
				"object": "payment_intent",
				"id":     "pi_test_123",
			},
		},
	}
	body, _ := json.Marshal(payload)
	headers := map[string]string{
		"Stripe-Signature": "t=1760000000,v1=invalid-signature",
	}

	if _, err := VerifyAndParseWebhook(cfg, headers, body, now); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected signature error, got %v", err)
	}
}

func TestVerifyAndParseWebhookTimestampOutsideTolerance(t *testing.T) {
	now := time.Unix(1760000000, 0)
	cfg := &Config{
		WebhookSecret:           "whsec_test_abc",
		WebhookToleranceSeconds: 300,
	}
	payload := map[string]interface{}{
		"id":   "evt_test_1",
		"type": "payment_intent.succeeded",
		"data": map[string]interface{}{
			"object": map[string]interface{}{
				"object": "payment_intent",
				"id":     "pi_test_123",
			},
		},
	}
	body, _ := json.Marshal(payload)
	old := now.Add(-time.Hour).Unix()
	sig := computeSignature(cfg.WebhookSecret, old, body)
	headers := map[string]string{
		"Stripe-Signature": "t=1759996400,v1=" + sig,
	}

	if _, err := VerifyAndParseWebhook(cfg, headers, body, now); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected signature error, got %v", err)
	}
}

func TestToMinorAmount(t *testing.T) {
	minor, err := toMinorAmount("250.00", "INR")
	if err != nil {
		t.Fatalf("to minor amount failed: %v", err)
	}
	if minor != 25000 {
		t.Fatalf("unexpected minor amount: %d", minor)
	}

	minor, err = toMinorAmount("1200", "JPY")
	if err != nil {
		t.Fatalf("to minor amount failed: %v", err)
	}
	if minor != 1200 {
		t.Fatalf("unexpected zero-decimal minor amount: %d", minor)
	}

	if _, err := toMinorAmount("0", "INR"); err == nil {
		t.Fatalf("expected error for zero amount")
	}
}

func TestMapEventStatus(t *testing.T) {
	if got := mapEventStatus("payment_intent.succeeded", ""); got != "success" {
		t.Fatalf("expected success, got %s", got)
	}
	if got := mapEventStatus("payment_intent.processing", ""); got != "pending" {
		t.Fatalf("expected pending, got %s", got)
	}
	if got := mapEventStatus("payment_intent.payment_failed", ""); got != "failed" {
		t.Fatalf("expected failed, got %s", got)
	}
	if got := mapEventStatus("other.event", "succeeded"); got != "success" {
		t.Fatalf("expected object status fallback, got %s", got)
	}
}
