package transactions

import (
	"context"

	"github.com/astrotechlabs/astrotech-api/internal/server/models"
)

// Repository is the transaction-store contract: keyed upsert, lookup by key,
// and an atomic conditional status transition.
type Repository interface {
	// Upsert persists the transaction keyed by order id. Re-running it for
	// the same order id is a no-op, so a retried create-order call does not
	// double-book a position.
	Upsert(ctx context.Context, txn *models.Transaction) error

	GetByOrderID(ctx context.Context, orderID string) (*models.Transaction, error)

	// MarkPaid transitions the transaction to paid and records the payment
	// id, only if the current status is still created. It reports whether
	// this call won the transition.
	MarkPaid(ctx context.Context, orderID, paymentID string) (bool, error)
}
