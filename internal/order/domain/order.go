package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

type PaymentStatus string

const (
	StatusPendingPayment PaymentStatus = "PENDING_PAYMENT"
	StatusPaid           PaymentStatus = "PAID"
	StatusProcessing     PaymentStatus = "PROCESSING"
	StatusShipped        PaymentStatus = "SHIPPED"
	StatusCompleted      PaymentStatus = "COMPLETED"
	StatusCancelled      PaymentStatus = "CANCELLED"
)

var paymentStatuses = map[PaymentStatus]bool{
	StatusPendingPayment: true,
	StatusPaid:           true,
	StatusProcessing:     true,
	StatusShipped:        true,
	StatusCompleted:      true,
	StatusCancelled:      true,
}

func (s PaymentStatus) Valid() bool {
	return paymentStatuses[s]
}

const (
	PaymentQRIS         = "QRIS"
	PaymentBankTransfer = "BANK_TRANSFER"

	OrderCodePrefix = "TKO"

	UnknownCustomerEmail = "Unknown User"
	UnknownCustomerPhone = "-"
)

// OrderItem is a value snapshot of a product taken at checkout. It never changes afterwards.
type OrderItem struct {
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
	Note     string `json:"note"`
}

func (i OrderItem) Subtotal() int64 {
	return i.Price * int64(i.Quantity)
}

// Order fields below CreatedAt are derived on read and never stored.
type Order struct {
	ID            int64         `json:"id"`
	UserID        int64         `json:"user_id"`
	Items         []OrderItem   `json:"items"`
	TotalAmount   int64         `json:"total_amount"`
	PaymentMethod string        `json:"payment_method"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	Note          string        `json:"note"`
	CreatedAt     time.Time     `json:"created_at"`

	OrderCode           string `json:"order_code"`
	PaymentSuffix       string `json:"payment_suffix"`
	UniquePaymentAmount int64  `json:"unique_payment_amount"`

	CustomerEmail string `json:"customer_email,omitempty"`
	CustomerPhone string `json:"customer_phone,omitempty"`
}

// PaymentSuffix is the last three digits of the order id, zero padded.
func PaymentSuffix(id int64) string {
	return fmt.Sprintf("%03d", id%1000)
}

// UniquePaymentAmount adds the id suffix to the total so transfers can be matched to orders.
func UniquePaymentAmount(total, id int64) int64 {
	return total + id%1000
}

// OrderCode is TKO + yyMMdd (UTC creation date) + "-" + id.
func OrderCode(id int64, createdAt time.Time) string {
	return OrderCodePrefix + createdAt.UTC().Format("060102") + "-" + strconv.FormatInt(id, 10)
}

// Enrich fills the derived payment fields. It needs a stored id.
func (o *Order) Enrich() {
	o.PaymentSuffix = PaymentSuffix(o.ID)
	o.UniquePaymentAmount = UniquePaymentAmount(o.TotalAmount, o.ID)
	o.OrderCode = OrderCode(o.ID, o.CreatedAt)
}

func (o *Order) ItemCount() int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}

func EncodeItems(items []OrderItem) (string, error) {
	if items == nil {
		items = []OrderItem{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func DecodeItems(raw string) ([]OrderItem, error) {
	items := []OrderItem{}
	if raw == "" {
		return items, nil
	}
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, err
	}
	return items, nil
}

type CheckoutRequest struct {
	PaymentMethod string `json:"payment_method" binding:"omitempty,oneof=QRIS BANK_TRANSFER"`
}

type UpdateStatusRequest struct {
	PaymentStatus PaymentStatus `json:"payment_status" binding:"required"`
}
