package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// OrderType is delivery or pickup
type OrderType string

const (
	OrderTypeDelivery OrderType = "delivery"
	OrderTypePickup   OrderType = "pickup"
)

// PaymentMethod is how the customer pays
type PaymentMethod string

const (
	PaymentMethodCOD    PaymentMethod = "cod"
	PaymentMethodOnline PaymentMethod = "online"
)

// PaymentStatus is the payment state of an order
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusVerified PaymentStatus = "verified"
	PaymentStatusFailed   PaymentStatus = "failed"
)

// OrderItem is one line of an order
type OrderItem struct {
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

// LineTotal returns quantity × unit price
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order represents a customer order as served by the backend
type Order struct {
	ID              ID              `json:"id"`
	CustomerName    string          `json:"customer_name"`
	CustomerPhone   string          `json:"customer_phone"`
	Items           []OrderItem     `json:"items"`
	OrderType       OrderType       `json:"order_type"`
	DeliveryAddress string          `json:"delivery_address,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	DeliveryFee     decimal.Decimal `json:"delivery_fee"`
	Total           decimal.Decimal `json:"total"`
	Status          OrderStatus     `json:"status"`
	PaymentMethod   PaymentMethod   `json:"payment_method"`
	PaymentStatus   PaymentStatus   `json:"payment_status"`
	CustomerUPIName string          `json:"customer_upi_name,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       *time.Time      `json:"updated_at,omitempty"`
}

// ExpectedTotal returns subtotal plus the delivery fee when it applies
func (o *Order) ExpectedTotal() decimal.Decimal {
	if o.OrderType == OrderTypeDelivery {
		return o.Subtotal.Add(o.DeliveryFee)
	}
	return o.Subtotal
}

// ItemsTotal sums the line totals of the order's items
func (o *Order) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// IsTerminal reports whether the order can no longer change status
func (o *Order) IsTerminal() bool {
	return o.Status.IsTerminal()
}

// CanVerifyPayment reports whether the manual payment confirmation should be
// offered to the operator.
func (o *Order) CanVerifyPayment() bool {
	return o.PaymentMethod == PaymentMethodOnline && o.PaymentStatus != PaymentStatusVerified
}

// Validate checks the record invariants and returns one error per violation
func (o *Order) Validate() []error {
	var violations []error

	if o.ID == "" {
		violations = append(violations, fmt.Errorf("order has no id"))
	}

	if !o.Status.Valid() {
		violations = append(violations, fmt.Errorf("order %s: unknown status %q", o.ID, o.Status))
	}

	if expected := o.ExpectedTotal(); !o.Total.Equal(expected) {
		violations = append(violations, fmt.Errorf("order %s: total %s does not match expected %s",
			o.ID, o.Total.StringFixed(2), expected.StringFixed(2)))
	}

	// Orders served without item lines are not checked against them
	if len(o.Items) > 0 {
		if items := o.ItemsTotal(); !o.Subtotal.Equal(items) {
			violations = append(violations, fmt.Errorf("order %s: subtotal %s does not match item lines %s",
				o.ID, o.Subtotal.StringFixed(2), items.StringFixed(2)))
		}
	}

	if o.PaymentStatus == PaymentStatusVerified &&
		o.PaymentMethod != PaymentMethodOnline &&
		o.CustomerUPIName == "" {
		violations = append(violations, fmt.Errorf("order %s: payment verified without online payment or manual verification", o.ID))
	}

	return violations
}
