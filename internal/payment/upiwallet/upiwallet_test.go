package upiwallet

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestNormalizeAndValidateConfig(t *testing.T) {
	cfg := &Config{
		KeyID:         " rzp_test_key ",
		KeySecret:     " rzp_test_secret ",
		WebhookSecret: " whsec_123 ",
	}
	cfg.Normalize()
	if cfg.KeyID != "rzp_test_key" {
		t.Fatalf("unexpected key id: %s", cfg.KeyID)
	}
	if cfg.APIBaseURL != defaultAPIBaseURL {
		t.Fatalf("unexpected default api base url: %s", cfg.APIBaseURL)
	}
	if err := ValidateConfig(cfg); err != nil {
		t.Fatalf("validate config failed: %v", err)
	}
}

func TestValidateConfigMissingKey(t *testing.T) {
	cfg := &Config{KeySecret: "s", WebhookSecret: "w", APIBaseURL: defaultAPIBaseURL}
	if err := ValidateConfig(cfg); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected config invalid error, got %v", err)
	}
}

func buildCapturedEvent(t *testing.T) []byte {
	t.Helper()
	payload := map[string]interface{}{
		"event": "payment.captured",
		"payload": map[string]interface{}{
			"payment": map[string]interface{}{
				"entity": map[string]interface{}{
					"id":         "pay_test_123",
					"order_id":   "order_test_456",
					"status":     "captured",
					"currency":   "INR",
					"amount":     25000,
					"created_at": 1760000000,
					"notes": map[string]interface{}{
						"order_id": "42",
						"order_no": "EC1760000000123456",
					},
				},
			},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload failed: %v", err)
	}
	return body
}

func TestVerifyAndParseWebhookCaptured(t *testing.T) {
	cfg := &Config{WebhookSecret: "whsec_test_abc"}
	body := buildCapturedEvent(t)
	headers := map[string]string{
		"X-Razorpay-Signature": computeSignature(cfg.WebhookSecret, body),
	}

	result, err := VerifyAndParseWebhook(cfg, headers, body)
	if err != nil {
		t.Fatalf("verify and parse webhook failed: %v", err)
	}
	if result.EventType != "payment.captured" {
		t.Fatalf("unexpected event type: %s", result.EventType)
	}
	if result.ProviderRef != "pay_test_123" {
		t.Fatalf("unexpected provider ref: %s", result.ProviderRef)
	}
	if result.ProviderOrderID != "order_test_456" {
		t.Fatalf("unexpected provider order id: %s", result.ProviderOrderID)
	}
	if result.OrderID != 42 {
		t.Fatalf("unexpected order id: %d", result.OrderID)
	}
	if result.Status != "success" {
		t.Fatalf("unexpected status: %s", result.Status)
	}
	if result.Amount != "250.00" {
		t.Fatalf("unexpected amount: %s", result.Amount)
	}
}

func TestVerifyAndParseWebhookInvalidSignature(t *testing.T) {
	cfg := &Config{WebhookSecret: "whsec_test_abc"}
	body := buildCapturedEvent(t)
	headers := map[string]string{
		"X-Razorpay-Signature": "deadbeef",
	}

	if _, err := VerifyAndParseWebhook(cfg, headers, body); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected signature error, got %v", err)
	}
}

func TestVerifyAndParseWebhookMissingSignature(t *testing.T) {
	cfg := &Config{WebhookSecret: "whsec_test_abc"}
	body := buildCapturedEvent(t)

	if _, err := VerifyAndParseWebhook(cfg, nil, body); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected signature error, got %v", err)
	}
}

func TestMapEventStatus(t *testing.T) {
	if got := mapEventStatus("payment.captured", ""); got != "success" {
		t.Fatalf("expected success, got %s", got)
	}
	if got := mapEventStatus("payment.failed", ""); got != "failed" {
		t.Fatalf("expected failed, got %s", got)
	}
	if got := mapEventStatus("payment.authorized", "captured"); got != "success" {
		t.Fatalf("expected entity status fallback, got %s", got)
	}
	if got := mapEventStatus("payment.authorized", "authorized"); got != "pending" {
		t.Fatalf("expected pending, got %s", got)
	}
}

func TestToMinorAmount(t *testing.T) {
	minor, err := toMinorAmount("250.00")
	if err != nil {
		t.Fatalf("to minor amount failed: %v", err)
	}
	if minor != 25000 {
		t.Fatalf("unexpected minor amount: %d", minor)
	}
	if _, err := toMinorAmount("-1"); err == nil {
		t.Fatalf("expected error for negative amount")
	}
}
