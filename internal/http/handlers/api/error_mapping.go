package api

import (
	"errors"

	"github.com/educycle/marketplace/internal/http/response"
	"github.com/educycle/marketplace/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError binds a business error to an API status code.
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackMsg, err)
}

var itemErrorRules = []mappedHandlerError{
	{target: service.ErrItemNotFound, code: response.CodeNotFound, msg: "item not found"},
	{target: service.ErrInvalidListing, code: response.CodeBadRequest, msg: "listing name required"},
	{target: service.ErrInvalidCategory, code: response.CodeBadRequest, msg: "unknown category"},
	{target: service.ErrItemNotAvailable, code: response.CodeBadRequest, msg: "item not available"},
	{target: service.ErrForbidden, code: response.CodeForbidden, msg: "forbidden"},
}

var cartErrorRules = []mappedHandlerError{
	{target: service.ErrItemNotFound, code: response.CodeNotFound, msg: "item not found"},
	{target: service.ErrItemNotAvailable, code: response.CodeBadRequest, msg: "item not available"},
	{target: service.ErrOwnItem, code: response.CodeBadRequest, msg: "cannot buy your own listing"},
	{target: service.ErrInvalidQuantity, code: response.CodeBadRequest, msg: "invalid quantity"},
}

var checkoutErrorRules = []mappedHandlerError{
	{target: service.ErrCartEmpty, code: response.CodeBadRequest, msg: "cart is empty"},
	{target: service.ErrPaymentMethodInvalid, code: response.CodeBadRequest, msg: "unsupported payment method"},
	{target: service.ErrItemNotFound, code: response.CodeBadRequest, msg: "cart contains a removed item"},
	{target: service.ErrItemNotAvailable, code: response.CodeBadRequest, msg: "cart contains an unavailable item"},
	{target: service.ErrOwnItem, code: response.CodeBadRequest, msg: "cannot buy your own listing"},
	{target: service.ErrInvalidQuantity, code: response.CodeBadRequest, msg: "invalid quantity"},
}

var orderErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, msg: "order not found"},
	{target: service.ErrOrderStateInvalid, code: response.CodeBadRequest, msg: "invalid order state"},
	{target: service.ErrForbidden, code: response.CodeForbidden, msg: "forbidden"},
}

var paymentErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, msg: "order not found"},
	{target: service.ErrOrderStateInvalid, code: response.CodeBadRequest, msg: "invalid order state"},
	{target: service.ErrPaymentNotFound, code: response.CodeNotFound, msg: "payment not found"},
	{target: service.ErrPaymentStateInvalid, code: response.CodeBadRequest, msg: "invalid payment state"},
	{target: service.ErrPaymentMethodInvalid, code: response.CodeBadRequest, msg: "unsupported payment method"},
	{target: service.ErrGatewayDisabled, code: response.CodeBadRequest, msg: "payment gateway disabled"},
	{target: service.ErrPaymentFailed, code: response.CodeBadRequest, msg: "payment attempt failed"},
	{target: service.ErrForbidden, code: response.CodeForbidden, msg: "forbidden"},
}

var reviewErrorRules = []mappedHandlerError{
	{target: service.ErrItemNotFound, code: response.CodeNotFound, msg: "item not found"},
	{target: service.ErrInvalidRating, code: response.CodeBadRequest, msg: "rating must be between 1 and 5"},
	{target: service.ErrDuplicateReview, code: response.CodeConflict, msg: "item already reviewed"},
	{target: service.ErrOwnItem, code: response.CodeBadRequest, msg: "cannot review your own listing"},
	{target: service.ErrForbidden, code: response.CodeForbidden, msg: "forbidden"},
}

var messageErrorRules = []mappedHandlerError{
	{target: service.ErrMessageBodyEmpty, code: response.CodeBadRequest, msg: "message body required"},
	{target: service.ErrUserNotFound, code: response.CodeNotFound, msg: "recipient not found"},
	{target: service.ErrItemNotFound, code: response.CodeNotFound, msg: "item not found"},
	{target: service.ErrForbidden, code: response.CodeForbidden, msg: "forbidden"},
}
