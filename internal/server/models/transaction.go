package models

import "time"

// TransactionStatus is the payment lifecycle state. Status only moves
// forward: created -> paid.
type TransactionStatus string

const (
	StatusCreated TransactionStatus = "created"
	StatusPaid    TransactionStatus = "paid"
)

// Transaction records a payment attempt against the gateway. OrderID is the
// gateway-assigned identifier and the sole lookup key. PaymentID stays empty
// until the transaction is verified as paid.
type Transaction struct {
	OrderID   string            `json:"order_id"`
	Amount    int64             `json:"amount"`
	Currency  string            `json:"currency"`
	Status    TransactionStatus `json:"status"`
	UserID    string            `json:"user_id"`
	UserEmail string            `json:"user_email"`
	PaymentID string            `json:"payment_id,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}
