package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/astrotechlabs/astrotech-api/internal/common"
	"github.com/astrotechlabs/astrotech-api/internal/server/config"
	"github.com/astrotechlabs/astrotech-api/internal/server/gateway"
	"github.com/astrotechlabs/astrotech-api/internal/server/models"
	"github.com/astrotechlabs/astrotech-api/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// supportedCurrencies are the gateway currency codes this deployment accepts.
var supportedCurrencies = map[string]struct{}{
	"INR": {},
	"USD": {},
}

// OrderService requests payment orders from the gateway and records a
// pending transaction for each one.
type OrderService struct {
	db             *sql.DB
	repomanager    repomanager.RepositoryManager
	gateway        gateway.Gateway
	gatewayTimeout time.Duration
	storeTimeout   time.Duration
}

func NewOrderService(db *sql.DB, m repomanager.RepositoryManager, g gateway.Gateway, cfg *config.Config) *OrderService {
	return &OrderService{
		db:             db,
		repomanager:    m,
		gateway:        g,
		gatewayTimeout: cfg.GatewayTimeout,
		storeTimeout:   cfg.StoreTimeout,
	}
}

// CreateOrder validates the request, mints an order at the gateway, and
// persists a created transaction keyed by the gateway's order id.
//
// The two steps are not transactional: if the gateway call succeeds and the
// store write fails, the gateway holds an order this system does not know
// about. The store write is an idempotent upsert on order id, so a caller
// retry of the whole operation cannot double-book; the gateway remains the
// source of truth to reconcile against.
func (s *OrderService) CreateOrder(ctx context.Context, user *models.User, amount int64, currency string) (*gateway.Order, error) {

	if amount <= 0 {
		return nil, common.ErrInvalidOrderRequest
	}
	if _, ok := supportedCurrencies[currency]; !ok {
		return nil, common.ErrInvalidOrderRequest
	}

	receipt := "rcpt_" + uuid.NewString()

	// A caller disconnect must not abort an in-flight gateway mint or the
	// write that records it: a half-applied create strands a gateway-side
	// order with no local record and nobody left to retry. Both calls run
	// detached from the request's cancellation, bounded only by the
	// configured timeouts.
	gctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.gatewayTimeout)
	defer cancel()

	order, err := s.gateway.CreateOrder(gctx, amount, currency, receipt)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, common.ErrTimeout
		}
		return nil, fmt.Errorf("error creating gateway order: %w", err)
	}

	txn := &models.Transaction{
		OrderID:   order.ID,
		Amount:    amount,
		Currency:  currency,
		Status:    models.StatusCreated,
		UserID:    user.ID,
		UserEmail: user.Email,
	}

	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.storeTimeout)
	defer cancel()

	repo := s.repomanager.Transactions(s.db)
	if err := repo.Upsert(sctx, txn); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, common.ErrTimeout
		}
		return nil, fmt.Errorf("error persisting transaction: %w", err)
	}

	return order, nil
}
