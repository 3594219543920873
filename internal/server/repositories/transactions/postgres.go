package transactions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/astrotechlabs/astrotech-api/internal/common"
	"github.com/astrotechlabs/astrotech-api/internal/dbx"
	"github.com/astrotechlabs/astrotech-api/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Upsert(ctx context.Context, txn *models.Transaction) error {

	query :=
		`INSERT INTO transactions (order_id, amount, currency, status, user_id, user_email)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (order_id) DO NOTHING
		 `

	_, err := r.db.ExecContext(ctx, query,
		txn.OrderID, txn.Amount, txn.Currency, txn.Status, txn.UserID, txn.UserEmail)

	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) GetByOrderID(ctx context.Context, orderID string) (*models.Transaction, error) {
	query :=
		`SELECT order_id, amount, currency, status, user_id, user_email, payment_id, created_at, updated_at
		 FROM transactions
		 WHERE order_id = $1
		 `

	txn := &models.Transaction{}
	var paymentID sql.NullString

	err := r.db.QueryRowContext(ctx, query, orderID).Scan(
		&txn.OrderID, &txn.Amount, &txn.Currency, &txn.Status,
		&txn.UserID, &txn.UserEmail, &paymentID, &txn.CreatedAt, &txn.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	txn.PaymentID = paymentID.String

	return txn, nil
}

// MarkPaid is the single conditional operation the state machine relies on:
// the WHERE clause on (order_id, status) makes the created->paid transition
// a compare-and-swap, so concurrent callbacks for the same order cannot both
// win it.
func (r *PostgresRepository) MarkPaid(ctx context.Context, orderID, paymentID string) (bool, error) {

	query :=
		`UPDATE transactions
		 SET status = $3, payment_id = $2, updated_at = now()
		 WHERE order_id = $1 AND status = $4
		 `

	res, err := r.db.ExecContext(ctx, query, orderID, paymentID, models.StatusPaid, models.StatusCreated)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	return affected == 1, nil
}
