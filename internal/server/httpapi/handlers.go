package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/astrotechlabs/astrotech-api/internal/common"
	"github.com/astrotechlabs/astrotech-api/internal/server/services"
)

type errorResponse struct {
	Message string `json:"message"`
}

func newErrorResponse(c *gin.Context, statusCode int, errMessage string) {
	c.AbortWithStatusJSON(statusCode, errorResponse{Message: errMessage})
}

// respondError maps service sentinels to HTTP statuses. Unknown errors are
// logged with a correlation id; the caller only sees the id.
func (s *Server) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrPasswordTooShort),
		errors.Is(err, common.ErrPasswordTooLong),
		errors.Is(err, common.ErrInvalidOrderRequest),
		errors.Is(err, common.ErrInvalidCallback),
		errors.Is(err, common.ErrInvalidConsultation),
		errors.Is(err, common.ErrInvalidReportRequest),
		errors.Is(err, common.ErrSignatureMismatch):
		newErrorResponse(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrEmailAlreadyRegistered):
		newErrorResponse(c, http.StatusConflict, err.Error())
	case errors.Is(err, common.ErrInvalidCredentials),
		errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrTokenTampered),
		errors.Is(err, common.ErrTokenMalformed):
		newErrorResponse(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, common.ErrUserNotFound),
		errors.Is(err, common.ErrTransactionNotFound):
		newErrorResponse(c, http.StatusNotFound, err.Error())
	case errors.Is(err, common.ErrTimeout):
		newErrorResponse(c, http.StatusGatewayTimeout, err.Error())
	default:
		id := uuid.NewString()
		s.logger.Error(c.Request.Context(), "internal error", "correlation_id", id, "error", err)
		newErrorResponse(c, http.StatusInternalServerError, "internal error, correlation id "+id)
	}
}

// GET /
func (s *Server) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"service": "astrotech-api"})
}

// GET /health
func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type signupRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// POST /signup
func (s *Server) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.users.Signup(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// POST /token
func (s *Server) Token(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := s.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

// GET /users/me
func (s *Server) CurrentUser(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		newErrorResponse(c, http.StatusUnauthorized, "invalid token")
		return
	}
	c.JSON(http.StatusOK, user)
}

type createOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// POST /create-order
func (s *Server) CreateOrder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		newErrorResponse(c, http.StatusUnauthorized, "invalid token")
		return
	}

	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := s.orders.CreateOrder(c.Request.Context(), user, req.Amount, req.Currency)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

type verifyPaymentRequest struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

// POST /verify-payment
func (s *Server) VerifyPayment(c *gin.Context) {
	var req verifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.payments.VerifyPayment(c.Request.Context(), req.OrderID, req.PaymentID, req.Signature)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// POST /consultation
func (s *Server) Consultation(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		newErrorResponse(c, http.StatusUnauthorized, "invalid token")
		return
	}

	var req services.ConsultationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	cons, err := s.consultations.RequestConsultation(c.Request.Context(), user, req)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, cons)
}

// POST /generate-report
func (s *Server) GenerateReport(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		newErrorResponse(c, http.StatusUnauthorized, "invalid token")
		return
	}

	var req services.ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	url, err := s.reports.GenerateReport(c.Request.Context(), user, req)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"download_url": url})
}
