package service

import "errors"

// Sentinel errors returned by the service layer. Handlers map these to
// business codes and messages; everything else is treated as internal.
var (
	ErrProductNotFound     = errors.New("product not found")
	ErrProductNotAvailable = errors.New("product not available")
	ErrVariationNotFound   = errors.New("variation not found")
	ErrVariationInactive   = errors.New("variation not available")
	ErrSlugTaken           = errors.New("slug already in use")
	ErrSlugInvalid         = errors.New("slug invalid")
	ErrSKUTaken            = errors.New("sku already in use")
	ErrCategoryNotFound    = errors.New("category not found")

	ErrSessionInvalid    = errors.New("session id missing")
	ErrCartEmpty         = errors.New("cart is empty")
	ErrCartItemNotFound  = errors.New("cart item not found")
	ErrQuantityInvalid   = errors.New("quantity invalid")
	ErrInsufficientStock = errors.New("insufficient stock")

	ErrCustomerInfoInvalid = errors.New("customer info invalid")
	ErrPhoneInvalid        = errors.New("phone number invalid")
	ErrEmailInvalid        = errors.New("email invalid")

	ErrOrderNotFound      = errors.New("order not found")
	ErrOrderStatusInvalid = errors.New("order status does not allow this operation")

	ErrPaymentInitFailed = errors.New("payment initiation failed")
	ErrPaymentRejected   = errors.New("payment request rejected")
	ErrCallbackInvalid   = errors.New("payment callback invalid")

	ErrRedirectNotFound = errors.New("redirect not found")
	ErrRedirectInvalid  = errors.New("redirect paths invalid")

	ErrCredentialsInvalid = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account disabled")
)
