package httpapi

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"log/slog"

	"github.com/astrotechlabs/astrotech-api/internal/logging"
	"github.com/astrotechlabs/astrotech-api/internal/server/auth"
	"github.com/astrotechlabs/astrotech-api/internal/server/config"
	"github.com/astrotechlabs/astrotech-api/internal/server/gateway"
	"github.com/astrotechlabs/astrotech-api/internal/server/repositories/repomanager"
	"github.com/astrotechlabs/astrotech-api/internal/server/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeGateway struct {
	order *gateway.Order
	err   error
}

func (f *fakeGateway) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*gateway.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.order != nil {
		return f.order, nil
	}
	return &gateway.Order{ID: "order_test1", Amount: amount, Currency: currency, Receipt: receipt, Status: "created"}, nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SecretKey = "test-secret"
	cfg.GatewayCallbackSecret = "cb-secret"
	cfg.AccessTokenValidityDuration = time.Hour
	return cfg
}

// newTestServer wires real services over a sqlmock database.
func newTestServer(t *testing.T, gw gateway.Gateway) (*Server, *gin.Engine, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}

	cfg := testConfig()
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	m := repomanager.NewPostgresRepositoryManager()
	userSvc := services.NewUserService(db, m, cfg)
	orderSvc := services.NewOrderService(db, m, gw, cfg)
	paymentSvc := services.NewPaymentService(db, m, cfg)
	consultationSvc := services.NewConsultationService(db, m)
	reportSvc := services.NewReportService(cfg)

	srv := NewServer(cfg, logger, userSvc, orderSvc, paymentSvc, consultationSvc, reportSvc)
	return srv, srv.initRoutes(), mock, db
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func bearer(t *testing.T, subject string) map[string]string {
	t.Helper()
	token, err := auth.GenerateToken(subject, []byte("test-secret"), time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}
	return map[string]string{"Authorization": "Bearer " + token}
}

func userRow(email string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "email", "password_hash", "is_active", "created_at"}).
		AddRow("u1", email, "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy", true, time.Now())
}

func TestHealth(t *testing.T) {
	_, router, _, db := newTestServer(t, &fakeGateway{})
	defer db.Close()

	w := doJSON(t, router, http.MethodGet, "/health", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health: status %d", w.Code)
	}
}

func TestSignup(t *testing.T) {
	_, router, mock, db := newTestServer(t, &fakeGateway{})
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("alice@example.com", sqlmock.AnyArg(), true).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("u1", time.Now()))
	mock.ExpectQuery(`SELECT id, email, password_hash, is_active, created_at FROM users`).
		WithArgs("u1").
		WillReturnRows(userRow("alice@example.com"))
	mock.ExpectCommit()

	w := doJSON(t, router, http.MethodPost, "/signup",
		map[string]string{"email": "Alice@Example.com", "password": "password1"}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("POST /signup: status %d body %s", w.Code, w.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["email"] != "alice@example.com" {
		t.Fatalf("unexpected response: %v", resp)
	}
	if _, leaked := resp["password_hash"]; leaked {
		t.Fatal("password hash must never appear in responses")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestSignup_ShortPassword(t *testing.T) {
	_, router, _, db := newTestServer(t, &fakeGateway{})
	defer db.Close()

	w := doJSON(t, router, http.MethodPost, "/signup",
		map[string]string{"email": "a@b.com", "password": "short"}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("short password: status %d", w.Code)
	}
}

func TestToken_InvalidCredentials(t *testing.T) {
	_, router, mock, db := newTestServer(t, &fakeGateway{})
	defer db.Close()

	mock.ExpectQuery(`SELECT id, email, password_hash, is_active, created_at FROM users`).
		WithArgs("ghost@example.com").
		WillReturnError(sql.ErrNoRows)

	w := doJSON(t, router, http.MethodPost, "/token",
		map[string]string{"email": "ghost@example.com", "password": "password1"}, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("unknown email: status %d body %s", w.Code, w.Body.String())
	}
}

func TestUsersMe(t *testing.T) {
	_, router, mock, db := newTestServer(t, &fakeGateway{})
	defer db.Close()

	// middleware resolves the subject, handler echoes the record
	mock.ExpectQuery(`SELECT id, email, password_hash, is_active, created_at FROM users`).
		WithArgs("alice@example.com").
		WillReturnRows(userRow("alice@example.com"))

	w := doJSON(t, router, http.MethodGet, "/users/me", nil, bearer(t, "alice@example.com"))
	if w.Code != http.StatusOK {
		t.Fatalf("GET /users/me: status %d body %s", w.Code, w.Body.String())
	}
}

func TestUsersMe_Unauthorized(t *testing.T) {
	_, router, _, db := newTestServer(t, &fakeGateway{})
	defer db.Close()

	for name, headers := range map[string]map[string]string{
		"no header":   nil,
		"not bearer":  {"Authorization": "Basic abc"},
		"bad token":   {"Authorization": "Bearer not.a.jwt"},
		"wrong key":   {"Authorization": "Bearer " + mustToken(t, "alice@example.com", "other-key")},
		"expired jwt": {"Authorization": "Bearer " + mustExpiredToken(t, "alice@example.com")},
	} {
		w := doJSON(t, router, http.MethodGet, "/users/me", nil, headers)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s: status %d", name, w.Code)
		}
	}
}

func mustToken(t *testing.T, subject, key string) string {
	t.Helper()
	token, err := auth.GenerateToken(subject, []byte(key), time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}
	return token
}

func mustExpiredToken(t *testing.T, subject string) string {
	t.Helper()
	token, err := auth.GenerateToken(subject, []byte("test-secret"), 0)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}
	return token
}

func TestCreateOrder(t *testing.T) {
	_, router, mock, db := newTestServer(t, &fakeGateway{})
	defer db.Close()

	mock.ExpectQuery(`SELECT id, email, password_hash, is_active, created_at FROM users`).
		WithArgs("alice@example.com").
		WillReturnRows(userRow("alice@example.com"))
	mock.ExpectExec(`INSERT INTO transactions`).
		WithArgs("order_test1", int64(50000), "INR", "created", "u1", "alice@example.com").
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := doJSON(t, router, http.MethodPost, "/create-order",
		map[string]any{"amount": 50000, "currency": "INR"}, bearer(t, "alice@example.com"))
	if w.Code != http.StatusOK {
		t.Fatalf("POST /create-order: status %d body %s", w.Code, w.Body.String())
	}

	var order gateway.Order
	if err := json.Unmarshal(w.Body.Bytes(), &order); err != nil {
		t.Fatalf("decode order: %v", err)
	}
	if order.ID != "order_test1" || order.Amount != 50000 {
		t.Fatalf("unexpected order: %+v", order)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestCreateOrder_RequiresAuth(t *testing.T) {
	_, router, _, db := newTestServer(t, &fakeGateway{})
	defer db.Close()

	w := doJSON(t, router, http.MethodPost, "/create-order",
		map[string]any{"amount": 50000, "currency": "INR"}, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no token: status %d", w.Code)
	}
}

func TestVerifyPayment(t *testing.T) {
	_, router, mock, db := newTestServer(t, &fakeGateway{})
	defer db.Close()

	txnRows := sqlmock.NewRows([]string{
		"order_id", "amount", "currency", "status", "user_id", "user_email", "payment_id", "created_at", "updated_at",
	}).AddRow("order_test1", int64(50000), "INR", "created", "u1", "alice@example.com", nil, time.Now(), time.Now())

	mock.ExpectQuery(`SELECT order_id, amount, currency, status`).
		WithArgs("order_test1").
		WillReturnRows(txnRows)
	mock.ExpectExec(`UPDATE transactions`).
		WithArgs("order_test1", "pay_1", "paid", "created").
		WillReturnResult(sqlmock.NewResult(0, 1))

	sig := services.Signature("order_test1", "pay_1", []byte("cb-secret"))
	w := doJSON(t, router, http.MethodPost, "/verify-payment", map[string]string{
		"razorpay_order_id":   "order_test1",
		"razorpay_payment_id": "pay_1",
		"razorpay_signature":  sig,
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("POST /verify-payment: status %d body %s", w.Code, w.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["status"] != "paid" || resp["payment_id"] != "pay_1" {
		t.Fatalf("unexpected response: %v", resp)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestVerifyPayment_BadSignature(t *testing.T) {
	_, router, _, db := newTestServer(t, &fakeGateway{})
	defer db.Close()

	w := doJSON(t, router, http.MethodPost, "/verify-payment", map[string]string{
		"razorpay_order_id":   "order_test1",
		"razorpay_payment_id": "pay_1",
		"razorpay_signature":  "deadbeef",
	}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad signature: status %d", w.Code)
	}
}

func TestVerifyPayment_UnknownOrder(t *testing.T) {
	_, router, mock, db := newTestServer(t, &fakeGateway{})
	defer db.Close()

	mock.ExpectQuery(`SELECT order_id, amount, currency, status`).
		WithArgs("order_ghost").
		WillReturnError(sql.ErrNoRows)

	sig := services.Signature("order_ghost", "pay_1", []byte("cb-secret"))
	w := doJSON(t, router, http.MethodPost, "/verify-payment", map[string]string{
		"razorpay_order_id":   "order_ghost",
		"razorpay_payment_id": "pay_1",
		"razorpay_signature":  sig,
	}, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown order: status %d body %s", w.Code, w.Body.String())
	}
}

func TestCORS(t *testing.T) {
	_, router, _, db := newTestServer(t, &fakeGateway{})
	defer db.Close()

	w := doJSON(t, router, http.MethodGet, "/health", nil,
		map[string]string{"Origin": "http://localhost:5173"})
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("allowed origin not reflected: %q", got)
	}

	w = doJSON(t, router, http.MethodGet, "/health", nil,
		map[string]string{"Origin": "http://evil.example"})
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("disallowed origin reflected: %q", got)
	}

	req := httptest.NewRequest(http.MethodOptions, "/create-order", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight: status %d", rec.Code)
	}
}
