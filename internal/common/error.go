// Package common defines shared constants and sentinel errors used across
// the service layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")
	ErrTimeout    = errors.New("operation timed out")

	// Validation errors.
	ErrPasswordTooShort     = errors.New("password too short: minimum 6 characters required")
	ErrPasswordTooLong      = errors.New("password too long: maximum 72 characters allowed")
	ErrInvalidOrderRequest  = errors.New("invalid order request")
	ErrInvalidCallback      = errors.New("invalid payment callback")
	ErrInvalidConsultation  = errors.New("invalid consultation request")
	ErrInvalidReportRequest = errors.New("invalid report request")

	// Authentication errors.
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrInvalidCredentials     = errors.New("incorrect email or password")

	// Token lifecycle errors.
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenTampered  = errors.New("token signature invalid")
	ErrTokenMalformed = errors.New("token malformed")

	// Payment integrity errors.
	ErrSignatureMismatch = errors.New("payment signature mismatch")

	// Entity-specific not-found errors.
	ErrUserNotFound        = errors.New("user not found")
	ErrTransactionNotFound = errors.New("transaction not found")
)
