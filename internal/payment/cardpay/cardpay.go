package cardpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrConfigInvalid    = errors.New("cardpay config invalid")
	ErrRequestFailed    = errors.New("cardpay request failed")
	ErrResponseInvalid  = errors.New("cardpay response invalid")
	ErrSignatureInvalid = errors.New("cardpay signature invalid")
)

const (
	defaultAPIBaseURL        = "https://api.stripe.com"
	defaultTimeout           = 12 * time.Second
	defaultWebhookToleranceS = 300
)

var zeroDecimalCurrencies = map[string]struct{}{
	"BIF": {},
	"CLP": {},
	"DJF": {},
	"GNF": {},
	"JPY": {},
	"KMF": {},
	"KRW": {},
	"MGA": {},
	"PYG": {},
	"RWF": {},
	"UGX": {},
	"VND": {},
	"VUV": {},
	"XAF": {},
	"XOF": {},
	"XPF": {},
}

// Config is the card gateway configuration. It is built once at
// startup from application config and passed in explicitly.
type Config struct {
	SecretKey               string
	WebhookSecret           string
	APIBaseURL              string
	WebhookToleranceSeconds int
	Timeout                 time.Duration
}

// CreateInput describes one payment intent to create.
type CreateInput struct {
	OrderID     uint
	OrderNo     string
	PaymentID   uint
	Amount      string
	Currency    string
	Description string
}

// CreateResult is the gateway's answer to intent creation. The client
// secret completes the payment out of band; final state arrives via
// webhook only.
type CreateResult struct {
	IntentID     string
	ClientSecret string
	Status       string
	Raw          map[string]interface{}
}

// WebhookResult is a verified, parsed webhook event.
type WebhookResult struct {
	EventID     string
	EventType   string
	OrderID     uint
	PaymentID   uint
	IntentID    string
	ProviderRef string
	Status      string
	Amount      string
	Currency    string
	PaidAt      *time.Time
	Raw         map[string]interface{}
}

// Normalize fills defaults and trims fields.
func (c *Config) Normalize() {
	c.SecretKey = strings.TrimSpace(c.SecretKey)
	c.WebhookSecret = strings.TrimSpace(c.WebhookSecret)
	c.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.APIBaseURL), "/")
	if c.APIBaseURL == "" {
		c.APIBaseURL = defaultAPIBaseURL
	}
	if c.WebhookToleranceSeconds <= 0 {
		c.WebhookToleranceSeconds = defaultWebhookToleranceS
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
	if strings.TrimSpace(cfg.SecretKey) == "" {
		return fmt.Errorf("%w: secret_key is required", ErrConfigInvalid)
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

// CreateIntent creates a payment intent for the order total. The order
// id rides in metadata and comes back on the webhook, which is the only
// place a final payment state is decided.
func CreateIntent(ctx context.Context, cfg *Config, input CreateInput) (*CreateResult, error) {
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
	minorAmount, err := toMinorAmount(input.Amount, currency)
	if err != nil {
		return nil, err
	}
	description := strings.TrimSpace(input.Description)
	if description == "" {
		description = strings.TrimSpace(input.OrderNo)
	}

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(minorAmount, 10))
	form.Set("currency", strings.ToLower(currency))
	form.Set("description", description)
	form.Set("metadata[order_id]", strconv.FormatUint(uint64(input.OrderID), 10))
	form.Set("metadata[order_no]", strings.TrimSpace(input.OrderNo))
	form.Set("metadata[payment_id]", strconv.FormatUint(uint64(input.PaymentID), 10))
	form.Add("payment_method_types[]", "card")

	respBody, statusCode, err := doFormRequest(ctx, cfg, http.MethodPost, "/v1/payment_intents", form)
	if err != nil {
		return nil, err
	}
	if statusCode < 200 || statusCode >= 300 {
		return nil, fmt.Errorf("%w: create payment intent status %d", ErrResponseInvalid, statusCode)
	}

	raw, err := decodeRawMap(respBody)
	if err != nil {
		return nil, err
	}
	result := &CreateResult{Raw: raw}
	result.IntentID = strings.TrimSpace(readString(raw, "id"))
	result.ClientSecret = strings.TrimSpace(readString(raw, "client_secret"))
	result.Status = strings.TrimSpace(readString(raw, "status"))
	if result.IntentID == "" || result.ClientSecret == "" {
		return nil, fmt.Errorf("%w: missing intent id or client secret", ErrResponseInvalid)
	}
	return result, nil
}

// Refund refunds a completed payment by its intent id.
func Refund(ctx context.Context, cfg *Config, intentID string) error {
	if err := ValidateConfig(cfg); err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	intentID = strings.TrimSpace(intentID)
	if intentID == "" {
		return fmt.Errorf("%w: intent id is required", ErrConfigInvalid)
	}

	form := url.Values{}
	form.Set("payment_intent", intentID)

	respBody, statusCode, err := doFormRequest(ctx, cfg, http.MethodPost, "/v1/refunds", form)
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

// VerifyAndParseWebhook checks the signature header and parses the
// event. Nothing in the payload is trusted before the HMAC matches.
func VerifyAndParseWebhook(cfg *Config, headers map[string]string, body []byte, now time.Time) (*WebhookResult, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config is nil", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.WebhookSecret) == "" {
		return nil, fmt.Errorf("%w: webhook_secret is required", ErrConfigInvalid)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: body is empty", ErrResponseInvalid)
	}
	if now.IsZero() {
		now = time.Now()
	}

	signatureHeader := getHeaderValue(headers, "Stripe-Signature")
	if strings.TrimSpace(signatureHeader) == "" {
		return nil, fmt.Errorf("%w: signature header is required", ErrSignatureInvalid)
	}
	timestamp, signatures, err := parseSignatureHeader(signatureHeader)
	if err != nil {
		return nil, err
	}
	tolerance := cfg.WebhookToleranceSeconds
	if tolerance <= 0 {
		tolerance = defaultWebhookToleranceS
	}
	delta := math.Abs(float64(now.Unix() - timestamp))
	if delta > float64(tolerance) {
		return nil, fmt.Errorf("%w: timestamp outside tolerance", ErrSignatureInvalid)
	}

	expected := computeSignature(cfg.WebhookSecret, timestamp, body)
	matched := false
	for _, sig := range signatures {
		if hmac.Equal([]byte(strings.ToLower(sig)), []byte(expected)) {
			matched = true
			break
		}
	}
	if !matched {
		return nil, fmt.Errorf("%w: verify failed", ErrSignatureInvalid)
	}

	eventRaw, err := decodeRawMap(body)
	if err != nil {
		return nil, err
	}
	eventType := strings.TrimSpace(readString(eventRaw, "type"))
	if eventType == "" {
		return nil, fmt.Errorf("%w: missing event type", ErrResponseInvalid)
	}
	dataRaw := readMap(eventRaw, "data")
	if dataRaw == nil {
		return nil, fmt.Errorf("%w: missing data object", ErrResponseInvalid)
	}
	objectRaw := readMap(dataRaw, "object")
	if objectRaw == nil {
		return nil, fmt.Errorf("%w: missing event object", ErrResponseInvalid)
	}

	result := &WebhookResult{
		EventID:   strings.TrimSpace(readString(eventRaw, "id")),
		EventType: eventType,
		Raw:       eventRaw,
	}

	metadata := readMap(objectRaw, "metadata")
	result.OrderID = parseMetadataID(metadata, "order_id")
	result.PaymentID = parseMetadataID(metadata, "payment_id")
	result.IntentID = strings.TrimSpace(readString(objectRaw, "id"))
	result.ProviderRef = result.IntentID
	result.Currency = strings.ToUpper(strings.TrimSpace(readString(objectRaw, "currency")))
	amountMinor := readInt64(objectRaw, "amount_received")
	if amountMinor <= 0 {
		amountMinor = readInt64(objectRaw, "amount")
	}
	if amountMinor > 0 && result.Currency != "" {
		result.Amount = fromMinorAmount(amountMinor, result.Currency)
	}
	if created := readInt64(objectRaw, "created"); created > 0 {
		paidAt := time.Unix(created, 0)
		result.PaidAt = &paidAt
	}
	result.Status = mapEventStatus(eventType, strings.TrimSpace(readString(objectRaw, "status")))

	return result, nil
}

func mapEventStatus(eventType, objectStatus string) string {
	switch strings.ToLower(strings.TrimSpace(eventType)) {
	case "payment_intent.succeeded":
		return "success"
	case "payment_intent.payment_failed", "payment_intent.canceled":
		return "failed"
	case "payment_intent.processing":
		return "pending"
	}
	switch strings.ToLower(strings.TrimSpace(objectStatus)) {
	case "succeeded":
		return "success"
	case "canceled", "requires_payment_method":
		return "failed"
	default:
		return "pending"
	}
}

func parseMetadataID(metadata map[string]interface{}, key string) uint {
	if len(metadata) == 0 {
		return 0
	}
	raw := strings.TrimSpace(readString(metadata, key))
	if raw == "" {
		return 0
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0
	}
	return uint(id)
}

func toMinorAmount(amount string, currency string) (int64, error) {
	parsed, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return 0, fmt.Errorf("%w: amount is invalid", ErrConfigInvalid)
	}
	if parsed.LessThanOrEqual(decimal.Zero) {
		return 0, fmt.Errorf("%w: amount must be greater than zero", ErrConfigInvalid)
	}
	scale := currencyScale(currency)
	minor := parsed.Shift(int32(scale)).Round(0)
	return minor.IntPart(), nil
}

func fromMinorAmount(minor int64, currency string) string {
	scale := currencyScale(currency)
	return decimal.NewFromInt(minor).Shift(int32(-scale)).StringFixed(int32(scale))
}

func currencyScale(currency string) int {
	upper := strings.ToUpper(strings.TrimSpace(currency))
	if _, ok := zeroDecimalCurrencies[upper]; ok {
		return 0
	}
	return 2
}

func doFormRequest(ctx context.Context, cfg *Config, method, path string, form url.Values) ([]byte, int, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/") + path
	req, err := http.NewRequestWithContext(ctx, method, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: build request failed", ErrRequestFailed)
	}
	req.Header.Set("Authorization", "Bearer "+cfg.SecretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

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

func computeSignature(secret string, timestamp int64, body []byte) string {
	payload := strconv.FormatInt(timestamp, 10) + "." + string(body)
	h := hmac.New(sha256.New, []byte(secret))
	_, _ = h.Write([]byte(payload))
	return strings.ToLower(hex.EncodeToString(h.Sum(nil)))
}

func parseSignatureHeader(signatureHeader string) (int64, []string, error) {
	timestamp := int64(0)
	signatures := make([]string, 0)
	for _, part := range strings.Split(signatureHeader, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		key := strings.TrimSpace(kv[0])
		value := strings.TrimSpace(kv[1])
		switch key {
		case "t":
			parsed, err := strconv.ParseInt(value, 10, 64)
			if err != nil || parsed <= 0 {
				return 0, nil, fmt.Errorf("%w: invalid timestamp", ErrSignatureInvalid)
			}
			timestamp = parsed
		case "v1":
			if value != "" {
				signatures = append(signatures, strings.ToLower(value))
			}
		}
	}
	if timestamp <= 0 {
		return 0, nil, fmt.Errorf("%w: timestamp is missing", ErrSignatureInvalid)
	}
	if len(signatures) == 0 {
		return 0, nil, fmt.Errorf("%w: v1 signature is missing", ErrSignatureInvalid)
	}
	return timestamp, signatures, nil
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
	case int64:
		return strings.TrimSpace(strconv.FormatInt(typed, 10))
	case int:
		return strings.TrimSpace(strconv.Itoa(typed))
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
		if err == nil {
			return parsed
		}
		floatVal, err := typed.Float64()
		if err != nil {
			return 0
		}
		return int64(floatVal)
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
