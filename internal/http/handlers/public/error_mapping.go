package public

import (
	"errors"

	"github.com/sofahub/sofahub-api/internal/http/response"
	"github.com/sofahub/sofahub-api/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError binds one service error to its API response. Rules
// with detail set carry the underlying error text to the client, for
// failures the customer can only act on when told what the upstream said.
type mappedHandlerError struct {
	target error
	code   int
	msg    string
	detail bool
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			if rule.detail && err != nil {
				respondErrorWithDetail(c, rule.code, rule.msg, err)
				return
			}
			respondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackMsg, err)
}

func respondErrorWithDetail(c *gin.Context, code int, msg string, err error) {
	requestLog(c).Errorw("handler_error",
		"code", code,
		"message", msg,
		"error", err,
	)
	response.ErrorWithData(c, code, msg, gin.H{"detail": err.Error()})
}

func concatMappedHandlerErrors(groups ...[]mappedHandlerError) []mappedHandlerError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]mappedHandlerError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

var cartCommonErrorRules = []mappedHandlerError{
	{target: service.ErrVariationNotFound, code: response.CodeNotFound, msg: "variation not found"},
	{target: service.ErrProductNotAvailable, code: response.CodeBadRequest, msg: "product not available"},
	{target: service.ErrCartItemNotFound, code: response.CodeNotFound, msg: "cart item not found"},
	{target: service.ErrQuantityInvalid, code: response.CodeBadRequest, msg: "quantity invalid"},
	{target: service.ErrInsufficientStock, code: response.CodeConflict, msg: "insufficient stock"},
}

var checkoutErrorRules = []mappedHandlerError{
	{target: service.ErrSessionInvalid, code: response.CodeBadRequest, msg: "session id missing"},
	{target: service.ErrCartEmpty, code: response.CodeBadRequest, msg: "cart is empty"},
	{target: service.ErrCustomerInfoInvalid, code: response.CodeBadRequest, msg: "customer info invalid"},
	{target: service.ErrPhoneInvalid, code: response.CodeBadRequest, msg: "phone number invalid"},
	{target: service.ErrEmailInvalid, code: response.CodeBadRequest, msg: "email invalid"},
	{target: service.ErrVariationNotFound, code: response.CodeBadRequest, msg: "variation no longer available"},
	{target: service.ErrProductNotAvailable, code: response.CodeBadRequest, msg: "product no longer available"},
	{target: service.ErrQuantityInvalid, code: response.CodeBadRequest, msg: "quantity invalid"},
	{target: service.ErrInsufficientStock, code: response.CodeConflict, msg: "insufficient stock"},
	{target: service.ErrPaymentInitFailed, code: response.CodeUpstreamFailed, msg: "payment prompt could not be sent", detail: true},
}

var sessionOrderErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, msg: "order not found"},
}

func respondCartError(c *gin.Context, err error) {
	respondWithMappedError(c, err, cartCommonErrorRules, response.CodeInternal, "cart operation failed")
}

func respondCheckoutError(c *gin.Context, err error) {
	respondWithMappedError(c, err, checkoutErrorRules, response.CodeInternal, "checkout failed")
}

func respondSessionOrderError(c *gin.Context, err error) {
	respondWithMappedError(c, err, sessionOrderErrorRules, response.CodeInternal, "order fetch failed")
}
