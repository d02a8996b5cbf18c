package upiwallet

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrConfigInvalid    = errors.New("upiwallet config invalid")
	ErrRequestFailed    = errors.New("upiwallet request failed")
	ErrResponseInvalid  = errors.New("upiwallet response invalid")
	ErrSignatureInvalid = errors.New("upiwallet signature invalid")
)

const (
	defaultAPIBaseURL = "https://api.razorpay.com"
	defaultTimeout    = 12 * time.Second
)

// Config is the UPI/wallet gateway configuration, built once at
// startup and passed in explicitly.
type Config struct {
	KeyID         string
	KeySecret     string
	WebhookSecret string
	APIBaseURL    string
	Timeout       time.Duration
}

// CreateInput describes one provider order to create.
type CreateInput struct {
	OrderID  uint
	OrderNo  string
	Amount   string
	Currency string
}

// CreateResult is the gateway's answer to order creation. The client
// completes payment against ProviderOrderID out of band; final state
// arrives via webhook only.
type CreateResult struct {
	ProviderOrderID string
	KeyID           string
	Status          string
	Raw             map[string]interface{}
}

// WebhookResult is a verified, parsed webhook event.
type WebhookResult struct {
	EventType       string
	OrderID         uint
	ProviderOrderID string
	ProviderRef     string
	Status          string
	Amount          string
	Currency        string
	PaidAt          *time.Time
	Raw             map[string]interface{}
}

// Normalize fills defaults and trims fields.
func (c *Config) Normalize() {
	c.KeyID = strings.TrimSpace(c.KeyID)
	c.KeySecret = strings.TrimSpace(c.KeySecret)
	c.WebhookSecret = strings.TrimSpace(c.WebhookSecret)
	c.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.APIBaseURL), "/")
	if c.APIBaseURL == "" {
		c.APIBaseURL = defaultAPIBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
}

// ValidateConfig checks required fields.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.KeyID) == "" {
		return fmt.Errorf("%w: key_id is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.KeySecret) == "" {
		return fmt.Errorf("%w: key_secret is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.WebhookSecret) == "" {
		return fmt.Errorf("%w: webhook_secret is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.APIBaseURL) == "" {
		return fmt.Errorf("%w: api_base_url is required", ErrConfigInvalid)
	}
	if _, err := url.ParseRequestURI(strings.TrimSpace(cfg.APIBaseURL)); err != nil {
		return fmt.Errorf("%w: api_base_url is invalid", ErrConfigInvalid)
	}
	return nil
}

// CreateOrder creates a provider order for the order total. Amount is
// sent in minor units (paise for INR). The marketplace order id rides
// in the notes object and comes back on the webhook.
func CreateOrder(ctx context.Context, cfg *Config, input CreateInput) (*CreateResult, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if input.OrderID == 0 {
		return nil, fmt.Errorf("%w: order_id is required", ErrConfigInvalid)
	}
	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		return nil, fmt.Errorf("%w: currency is required", ErrConfigInvalid)
	}
	minorAmount, err := toMinorAmount(input.Amount)
	if err != nil {
		return nil, err
	}

	payload := map[string]interface{}{
		"amount":   minorAmount,
		"currency": currency,
		"receipt":  strings.TrimSpace(input.OrderNo),
		"notes": map[string]string{
			"order_id": strconv.FormatUint(uint64(input.OrderID), 10),
			"order_no": strings.TrimSpace(input.OrderNo),
		},
	}

	respBody, statusCode, err := doJSONRequest(ctx, cfg, http.MethodPost, "/v1/orders", payload)
	if err != nil {
		return nil, err
	}
	if statusCode < 200 || statusCode >= 300 {
		return nil, fmt.Errorf("%w: create order status %d", ErrResponseInvalid, statusCode)
	}

	raw, err := decodeRawMap(respBody)
	if err != nil {
		return nil, err
	}
	result := &CreateResult{Raw: raw, KeyID: cfg.KeyID}
	result.ProviderOrderID = strings.TrimSpace(readString(raw, "id"))
	result.Status = strings.TrimSpace(readString(raw, "status"))
	if result.ProviderOrderID == "" {
		return nil, fmt.Errorf("%w: missing provider order id", ErrResponseInvalid)
	}
	return result, nil
}

// Refund refunds a captured payment by its payment id.
func Refund(ctx context.Context, cfg *Config, paymentRef string) error {
	if err := ValidateConfig(cfg); err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	paymentRef = strings.TrimSpace(paymentRef)
	if paymentRef == "" {
		return fmt.Errorf("%w: payment ref is required", ErrConfigInvalid)
	}

	path := fmt.Sprintf("/v1/payments/%s/refund", url.PathEscape(paymentRef))
	respBody, statusCode, err := doJSONRequest(ctx, cfg, http.MethodPost, path, map[string]interface{}{})
	if err != nil {
		return err
	}
	if statusCode < 200 || statusCode >= 300 {
		return fmt.Errorf("%w: refund status %d", ErrResponseInvalid, statusCode)
	}
	raw, err := decodeRawMap(respBody)
	if err != nil {
		return err
	}
	if strings.TrimSpace(readString(raw, "id")) == "" {
		return fmt.Errorf("%w: missing refund id", ErrResponseInvalid)
	}
	return nil
}

// VerifyAndParseWebhook checks the raw-body HMAC signature and parses
// the event. Nothing in the payload is trusted before the HMAC matches.
func VerifyAndParseWebhook(cfg *Config, headers map[string]string, body []byte) (*WebhookResult, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config is nil", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.WebhookSecret) == "" {
		return nil, fmt.Errorf("%w: webhook_secret is required", ErrConfigInvalid)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: body is empty", ErrResponseInvalid)
	}

	signature := strings.ToLower(getHeaderValue(headers, "X-Razorpay-Signature"))
	if signature == "" {
		return nil, fmt.Errorf("%w: signature header is required", ErrSignatureInvalid)
	}
	expected := computeSignature(cfg.WebhookSecret, body)
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return nil, fmt.Errorf("%w: verify failed", ErrSignatureInvalid)
	}

	eventRaw, err := decodeRawMap(body)
	if err != nil {
		return nil, err
	}
	eventType := strings.TrimSpace(readString(eventRaw, "event"))
	if eventType == "" {
		return nil, fmt.Errorf("%w: missing event type", ErrResponseInvalid)
	}
	payloadRaw := readMap(eventRaw, "payload")
	paymentRaw := readMap(payloadRaw, "payment")
	entityRaw := readMap(paymentRaw, "entity")
	if entityRaw == nil {
		return nil, fmt.Errorf("%w: missing payment entity", ErrResponseInvalid)
	}

	result := &WebhookResult{
		EventType: eventType,
		Raw:       eventRaw,
	}
	result.ProviderRef = strings.TrimSpace(readString(entityRaw, "id"))
	result.ProviderOrderID = strings.TrimSpace(readString(entityRaw, "order_id"))
	result.Currency = strings.ToUpper(strings.TrimSpace(readString(entityRaw, "currency")))
	if amountMinor := readInt64(entityRaw, "amount"); amountMinor > 0 {
		result.Amount = fromMinorAmount(amountMinor)
	}
	if created := readInt64(entityRaw, "created_at"); created > 0 {
		paidAt := time.Unix(created, 0)
		result.PaidAt = &paidAt
	}
	notes := readMap(entityRaw, "notes")
	result.OrderID = parseNotesID(notes, "order_id")
	result.Status = mapEventStatus(eventType, strings.TrimSpace(readString(entityRaw, "status")))

	if result.ProviderRef == "" {
		return nil, fmt.Errorf("%w: missing payment id", ErrResponseInvalid)
	}
	return result, nil
}

func mapEventStatus(eventType, entityStatus string) string {
	switch strings.ToLower(strings.TrimSpace(eventType)) {
	case "payment.captured", "order.paid":
		return "success"
	case "payment.failed":
		return "failed"
	}
	switch strings.ToLower(strings.TrimSpace(entityStatus)) {
	case "captured":
		return "success"
	case "failed":
		return "failed"
	default:
		return "pending"
	}
}

func parseNotesID(notes map[string]interface{}, key string) uint {
	if len(notes) == 0 {
		return 0
	}
	raw := strings.TrimSpace(readString(notes, key))
	if raw == "" {
		return 0
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0
	}
	return uint(id)
}

// toMinorAmount converts a decimal amount to paise. INR always scales
// by 2.
func toMinorAmount(amount string) (int64, error) {
	parsed, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return 0, fmt.Errorf("%w: amount is invalid", ErrConfigInvalid)
	}
	if parsed.LessThanOrEqual(decimal.Zero) {
		return 0, fmt.Errorf("%w: amount must be greater than zero", ErrConfigInvalid)
	}
	return parsed.Shift(2).Round(0).IntPart(), nil
}

func fromMinorAmount(minor int64) string {
	return decimal.NewFromInt(minor).Shift(-2).StringFixed(2)
}

func computeSignature(secret string, body []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	_, _ = h.Write(body)
	return strings.ToLower(hex.EncodeToString(h.Sum(nil)))
}

func doJSONRequest(ctx context.Context, cfg *Config, method, path string, payload map[string]interface{}) ([]byte, int, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: encode request failed", ErrRequestFailed)
	}
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/") + path
	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: build request failed", ErrRequestFailed)
	}
	req.SetBasicAuth(cfg.KeyID, cfg.KeySecret)
	req.Header.Set("Content-Type", "application/json")

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	resp, err := (&http.Client{Timeout: timeout}).Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: read response failed", ErrResponseInvalid)
	}
	return body, resp.StatusCode, nil
}

func decodeRawMap(body []byte) (map[string]interface{}, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: decode response failed", ErrResponseInvalid)
	}
	return raw, nil
}

func getHeaderValue(headers map[string]string, key string) string {
	if len(headers) == 0 || strings.TrimSpace(key) == "" {
		return ""
	}
	for h, value := range headers {
		if strings.EqualFold(strings.TrimSpace(h), key) {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func readString(raw map[string]interface{}, key string) string {
	if raw == nil || strings.TrimSpace(key) == "" {
		return ""
	}
	value, ok := raw[key]
	if !ok || value == nil {
		return ""
	}
	switch typed := value.(type) {
	case string:
		return strings.TrimSpace(typed)
	case json.Number:
		return strings.TrimSpace(typed.String())
	case float64:
		return strings.TrimSpace(strconv.FormatInt(int64(typed), 10))
	default:
		return ""
	}
}

func readMap(raw map[string]interface{}, key string) map[string]interface{} {
	if raw == nil || strings.TrimSpace(key) == "" {
		return nil
	}
	value, ok := raw[key]
	if !ok || value == nil {
		return nil
	}
	mapped, ok := value.(map[string]interface{})
	if !ok {
		return nil
	}
	return mapped
}

func readInt64(raw map[string]interface{}, key string) int64 {
	if raw == nil || strings.TrimSpace(key) == "" {
		return 0
	}
	value, ok := raw[key]
	if !ok || value == nil {
		return 0
	}
	switch typed := value.(type) {
	case int64:
		return typed
	case int:
		return int64(typed)
	case float64:
		return int64(typed)
	case json.Number:
		parsed, err := typed.Int64()
		if err != nil {
			return 0
		}
		return parsed
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(typed), 10, 64)
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}
