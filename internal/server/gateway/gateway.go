// Package gateway talks to the external payment gateway that mints orders.
// The gateway's own order and settlement semantics are opaque to this
// service; only order creation is consumed here.
package gateway

import "context"

// Order is the gateway's order descriptor as returned by a mint call.
// Amount is in the gateway's minor currency unit.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type Gateway interface {
	CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*Order, error)
}
