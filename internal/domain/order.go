package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
	OrderRefunded   OrderStatus = "refunded"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderConfirmed, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled, OrderRefunded:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

// Validate checks the five required address fields; name prefixes the message.
func (a Address) Validate(name string) error {
	fields := []struct {
		key, value string
	}{
		{"street", a.Street},
		{"city", a.City},
		{"state", a.State},
		{"zipCode", a.ZipCode},
		{"country", a.Country},
	}
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.key)
		}
	}
	if len(missing) > 0 {
		return Validationf("%s is missing required fields: %s", name, strings.Join(missing, ", "))
	}
	return nil
}

type Order struct {
	ID              int64           `json:"id"`
	OrderNumber     string          `json:"orderNumber"`
	UserID          int64           `json:"userId"`
	Status          OrderStatus     `json:"status"`
	PaymentStatus   PaymentStatus   `json:"paymentStatus"`
	PaymentMethod   string          `json:"paymentMethod"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	TaxAmount       decimal.Decimal `json:"taxAmount"`
	ShippingAmount  decimal.Decimal `json:"shippingAmount"`
	DiscountAmount  decimal.Decimal `json:"discountAmount"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	ShippingAddress Address         `json:"shippingAddress"`
	BillingAddress  Address         `json:"billingAddress"`
	Notes           *string         `json:"notes,omitempty"`
	ShippedAt       *time.Time      `json:"shippedAt,omitempty"`
	DeliveredAt     *time.Time      `json:"deliveredAt,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
	Items           []OrderItem     `json:"orderItems"`
}

// ApplyStatus overwrites the status and stamps shippedAt/deliveredAt on the
// first transition into those states. Any status may follow any other.
func (o *Order) ApplyStatus(next OrderStatus, now time.Time) {
	if next == OrderShipped && o.Status != OrderShipped && o.ShippedAt == nil {
		o.ShippedAt = &now
	}
	if next == OrderDelivered && o.Status != OrderDelivered && o.DeliveredAt == nil {
		o.DeliveredAt = &now
	}
	o.Status = next
}

type OrderItem struct {
	ID              int64           `json:"id"`
	OrderID         int64           `json:"orderId"`
	ProductID       *int64          `json:"productId"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unitPrice"`
	TotalPrice      decimal.Decimal `json:"totalPrice"`
	ProductSnapshot ProductSnapshot `json:"productSnapshot"`
	CreatedAt       time.Time       `json:"createdAt"`
	Product         *ProductRef     `json:"product,omitempty"`
}
