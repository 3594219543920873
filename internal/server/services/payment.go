package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/astrotechlabs/astrotech-api/internal/common"
	"github.com/astrotechlabs/astrotech-api/internal/server/config"
	"github.com/astrotechlabs/astrotech-api/internal/server/models"
	"github.com/astrotechlabs/astrotech-api/internal/server/repositories/repomanager"
)

// VerificationResult reports the terminal state of a verified transaction.
type VerificationResult struct {
	OrderID   string                   `json:"order_id"`
	PaymentID string                   `json:"payment_id"`
	Status    models.TransactionStatus `json:"status"`
}

// PaymentService validates gateway callback signatures and advances
// transaction state. The callback secret is process-wide configuration,
// loaded once at startup.
type PaymentService struct {
	db             *sql.DB
	repomanager    repomanager.RepositoryManager
	callbackSecret []byte
	storeTimeout   time.Duration
}

func NewPaymentService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *PaymentService {
	return &PaymentService{
		db:             db,
		repomanager:    m,
		callbackSecret: []byte(cfg.GatewayCallbackSecret),
		storeTimeout:   cfg.StoreTimeout,
	}
}

// Signature computes the expected callback MAC: hex-encoded HMAC-SHA256 over
// "orderID|paymentID" with the shared secret. This is the gateway's wire
// format for payment callbacks.
func Signature(orderID, paymentID string, secret []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyPayment checks the callback signature and, on a match, transitions
// the transaction created->paid exactly once.
//
// Re-delivery of the same valid callback is a no-op success. Concurrent
// deliveries race on a single conditional update; the loser observes the
// already-paid terminal state and also returns success.
func (s *PaymentService) VerifyPayment(ctx context.Context, orderID, paymentID, signature string) (*VerificationResult, error) {

	if orderID == "" || paymentID == "" || signature == "" {
		return nil, common.ErrInvalidCallback
	}

	expected := Signature(orderID, paymentID, s.callbackSecret)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return nil, common.ErrSignatureMismatch
	}

	// The caller disconnecting must not abort a half-applied payment, so the
	// store work runs detached from the request's cancellation.
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.storeTimeout)
	defer cancel()

	repo := s.repomanager.Transactions(s.db)

	txn, err := repo.GetByOrderID(sctx, orderID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrTransactionNotFound
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, common.ErrTimeout
		}
		return nil, fmt.Errorf("error loading transaction: %w", err)
	}

	if txn.Status == models.StatusPaid {
		return &VerificationResult{OrderID: orderID, PaymentID: txn.PaymentID, Status: models.StatusPaid}, nil
	}

	won, err := repo.MarkPaid(sctx, orderID, paymentID)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, common.ErrTimeout
		}
		return nil, fmt.Errorf("error updating transaction: %w", err)
	}

	if !won {
		// Lost the race: a concurrent delivery already applied the
		// transition. Re-read to report the recorded payment id.
		txn, err = repo.GetByOrderID(sctx, orderID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return nil, common.ErrTransactionNotFound
			}
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, common.ErrTimeout
			}
			return nil, fmt.Errorf("error reloading transaction: %w", err)
		}
		return &VerificationResult{OrderID: orderID, PaymentID: txn.PaymentID, Status: txn.Status}, nil
	}

	return &VerificationResult{OrderID: orderID, PaymentID: paymentID, Status: models.StatusPaid}, nil
}
