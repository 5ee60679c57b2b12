package constants

// Order status constants.
const (
	OrderStatusPending     = "pending"
	OrderStatusDepositPaid = "deposit_paid"
	OrderStatusCompleted   = "completed"
	OrderStatusCancelled   = "cancelled"
)

// Payment status text, derived per order for API responses.
const (
	PaymentStatusPending         = "pending"
	PaymentStatusDepositRequired = "deposit_required"
	PaymentStatusDepositPaid     = "deposit_paid"
	PaymentStatusFullyPaid       = "fully_paid"
	PaymentStatusFullPayment     = "full_payment"
)

// AccountReferencePrefix prefixes the order id in the gateway's
// account-reference field, so callbacks can be reconciled to an order.
const AccountReferencePrefix = "SOFAHUB"

// Daraja STK-push result codes. Zero means accepted/succeeded; anything
// else is a failure the gateway reports verbatim.
const (
	MpesaResultSuccess = 0
)

// Queue names.
const (
	QueueDefault  = "default"
	QueueCritical = "critical"
)

// Task type names.
const (
	TaskOrderNotification = "notify:order_message"
)
