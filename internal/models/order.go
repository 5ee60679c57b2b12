package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/sofahub/sofahub-api/internal/constants"
)

// Order is an immutable-after-creation snapshot of a completed checkout.
// It never recomputes pricing from live catalog state.
type Order struct {
	ID uint `gorm:"primarykey" json:"id"`

	// Customer contact snapshot.
	CustomerName  string `gorm:"not null" json:"customer_name"`
	CustomerEmail string `gorm:"not null" json:"customer_email"`
	CustomerPhone string `gorm:"not null;type:varchar(20)" json:"customer_phone"`

	// Shipping snapshot.
	ShippingAddress string `gorm:"type:text;not null" json:"shipping_address"`
	ShippingCity    string `gorm:"not null" json:"shipping_city"`
	ShippingZipCode string `gorm:"not null;type:varchar(20)" json:"shipping_zip_code"`

	// The originating cart session, kept as a plain reference (not a
	// foreign key) so the cart's later lifecycle cannot touch the order.
	CartSession string `gorm:"index;type:varchar(36)" json:"cart_session"`
	Subtotal    Money  `gorm:"type:decimal(20,2);not null" json:"subtotal"`
	Status      string `gorm:"index;not null;default:'pending'" json:"status"`

	// Payment bookkeeping.
	MpesaTransactionID string `gorm:"index;type:varchar(50)" json:"mpesa_transaction_id,omitempty"`
	CheckoutRequestID  string `gorm:"index;type:varchar(100)" json:"checkout_request_id,omitempty"`
	PaymentConfirmed   bool   `gorm:"default:false" json:"payment_confirmed"`

	// Downpayment split. Delivery fees are excluded from the split and
	// charged out-of-band at delivery time.
	IsDownpayment   bool  `gorm:"default:true" json:"is_downpayment"`
	DepositAmount   Money `gorm:"type:decimal(20,2);not null;default:0" json:"deposit_amount"`
	RemainingAmount Money `gorm:"type:decimal(20,2);not null;default:0" json:"remaining_amount"`
	DepositPaid     bool  `gorm:"default:false" json:"deposit_paid"`
	BalancePaid     bool  `gorm:"default:false" json:"balance_paid"`

	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"index" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

// TableName sets the table name.
func (Order) TableName() string {
	return "orders"
}

// TotalItems sums the quantities of all order items.
func (o *Order) TotalItems() int {
	total := 0
	for _, item := range o.Items {
		total += item.Quantity
	}
	return total
}

// PaymentStatusText derives the human-readable payment status.
func (o *Order) PaymentStatusText() string {
	if !o.IsDownpayment {
		if o.PaymentConfirmed {
			return constants.PaymentStatusFullPayment
		}
		return constants.PaymentStatusPending
	}
	if o.BalancePaid {
		return constants.PaymentStatusFullyPaid
	}
	if o.DepositPaid {
		return constants.PaymentStatusDepositPaid
	}
	return constants.PaymentStatusDepositRequired
}
