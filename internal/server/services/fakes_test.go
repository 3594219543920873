package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/astrotechlabs/astrotech-api/internal/common"
	"github.com/astrotechlabs/astrotech-api/internal/dbx"
	"github.com/astrotechlabs/astrotech-api/internal/server/config"
	"github.com/astrotechlabs/astrotech-api/internal/server/gateway"
	"github.com/astrotechlabs/astrotech-api/internal/server/models"
	consultationsrepo "github.com/astrotechlabs/astrotech-api/internal/server/repositories/consultations"
	transactionsrepo "github.com/astrotechlabs/astrotech-api/internal/server/repositories/transactions"
	usersrepo "github.com/astrotechlabs/astrotech-api/internal/server/repositories/users"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func newTestConfig() *config.Config {
	return &config.Config{
		SecretKey:                   "k",
		AccessTokenValidityDuration: time.Hour,
		GatewayCallbackSecret:       "cb-secret",
		GatewayTimeout:              time.Second,
		StoreTimeout:                time.Second,
	}
}

// --- users ---

type fakeUsersRepo struct {
	createOut *models.User
	createErr error

	byEmail map[string]*models.User
	byID    map[string]*models.User
	getErr  error
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.createOut != nil {
		return f.createOut, nil
	}
	u.ID = "uuid-1"
	return u, nil
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

// --- transactions: in-memory store with a real compare-and-swap ---

type memTxnRepo struct {
	mu          sync.Mutex
	txns        map[string]*models.Transaction
	transitions int

	upsertErr error
	getErr    error
	markErr   error
}

func newMemTxnRepo() *memTxnRepo {
	return &memTxnRepo{txns: map[string]*models.Transaction{}}
}

func (m *memTxnRepo) Upsert(ctx context.Context, txn *models.Transaction) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.txns[txn.OrderID]; ok {
		return nil
	}
	cp := *txn
	m.txns[txn.OrderID] = &cp
	return nil
}

func (m *memTxnRepo) GetByOrderID(ctx context.Context, orderID string) (*models.Transaction, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	txn, ok := m.txns[orderID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *txn
	return &cp, nil
}

func (m *memTxnRepo) MarkPaid(ctx context.Context, orderID, paymentID string) (bool, error) {
	if m.markErr != nil {
		return false, m.markErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	txn, ok := m.txns[orderID]
	if !ok || txn.Status != models.StatusCreated {
		return false, nil
	}
	txn.Status = models.StatusPaid
	txn.PaymentID = paymentID
	m.transitions++
	return true, nil
}

// --- consultations ---

type fakeConsultationsRepo struct {
	createErr error
	created   *models.Consultation
}

func (f *fakeConsultationsRepo) Create(ctx context.Context, c *models.Consultation) (*models.Consultation, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	c.ID = "cons-1"
	c.CreatedAt = time.Now()
	f.created = c
	return c, nil
}

// --- manager ---

type fakeRepoManager struct {
	u *fakeUsersRepo
	t *memTxnRepo
	c *fakeConsultationsRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository { return m.u }

func (m *fakeRepoManager) Transactions(db dbx.DBTX) transactionsrepo.Repository { return m.t }

func (m *fakeRepoManager) Consultations(db dbx.DBTX) consultationsrepo.Repository { return m.c }

// --- gateway ---

type fakeGateway struct {
	order    *gateway.Order
	err      error
	calls    int
	honorCtx bool
}

func (f *fakeGateway) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*gateway.Order, error) {
	f.calls++
	if f.honorCtx && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.order != nil {
		return f.order, nil
	}
	return &gateway.Order{ID: "order_fake", Amount: amount, Currency: currency, Receipt: receipt, Status: "created"}, nil
}
