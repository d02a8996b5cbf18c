package service

import "errors"

// Sentinel errors shared across services. Handlers map these to
// response codes with errors.Is.
var (
	ErrUserExists         = errors.New("username or email already registered")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserNotFound       = errors.New("user not found")

	ErrItemNotFound     = errors.New("item not found")
	ErrInvalidListing   = errors.New("listing fields invalid")
	ErrItemNotAvailable = errors.New("item not available")
	ErrOwnItem          = errors.New("cannot act on your own item")
	ErrInvalidCategory  = errors.New("invalid item category")
	ErrForbidden        = errors.New("operation not permitted")

	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrCartEmpty       = errors.New("cart is empty")

	ErrOrderNotFound     = errors.New("order not found")
	ErrOrderStateInvalid = errors.New("order state does not allow this transition")

	ErrPaymentNotFound      = errors.New("payment not found")
	ErrPaymentFailed        = errors.New("payment attempt failed")
	ErrPaymentStateInvalid  = errors.New("payment state does not allow this operation")
	ErrPaymentMethodInvalid = errors.New("unsupported payment method")
	ErrGatewayDisabled      = errors.New("payment gateway not configured")
	ErrWebhookRejected      = errors.New("webhook rejected")

	ErrInvalidRating   = errors.New("rating must be between 1 and 5")
	ErrDuplicateReview = errors.New("item already reviewed by this user")

	ErrMessageBodyEmpty = errors.New("message body is empty")

	ErrEmailServiceDisabled      = errors.New("email service disabled")
	ErrEmailServiceNotConfigured = errors.New("email service not configured")
	ErrInvalidEmail              = errors.New("invalid email address")
	ErrEmailRecipientRejected    = errors.New("email recipient rejected")
)
