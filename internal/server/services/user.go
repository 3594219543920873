// Package services contains server-side business logic: credential
// management, token issuance, payment-order creation and callback
// verification, consultation intake, and report generation.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/astrotechlabs/astrotech-api/internal/common"
	"github.com/astrotechlabs/astrotech-api/internal/dbx"
	"github.com/astrotechlabs/astrotech-api/internal/server/auth"
	"github.com/astrotechlabs/astrotech-api/internal/server/config"
	"github.com/astrotechlabs/astrotech-api/internal/server/models"
	"github.com/astrotechlabs/astrotech-api/internal/server/repositories/repomanager"
)

// dummyDigest is compared against when the account does not exist, so a
// failed login costs the same whether the email is registered or not.
const dummyDigest = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// UserService provides authentication-related operations:
// - Signup: create users
// - Login: verify credentials and mint an access token
// - GetCurrentUser: resolve a presented token to a live user record
type UserService struct {
	db                          *sql.DB
	repomanager                 repomanager.RepositoryManager
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:                          db,
		repomanager:                 m,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
	}
}

// NormalizeEmail case-normalizes an email address for use as a lookup key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup hashes the password and creates a new active user. The insert and
// the read-back of the stored record run in one transaction.
func (s *UserService) Signup(ctx context.Context, email, password string) (*models.User, error) {
	email = NormalizeEmail(email)

	digest, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	var created *models.User
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)
		u, err := repo.Create(ctx, &models.User{
			Email:          email,
			HashedPassword: digest,
			IsActive:       true,
		})
		if err != nil {
			return err
		}
		created, err = repo.GetByID(ctx, u.ID)
		return err
	}); err != nil {
		if errors.Is(err, common.ErrEmailAlreadyRegistered) {
			return nil, common.ErrEmailAlreadyRegistered
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return created, nil
}

// Login verifies the email/password pair and, on success, mints an access
// token with the user's email as subject. Which factor failed is never
// disclosed to the caller.
func (s *UserService) Login(ctx context.Context, email, password string) (string, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			auth.CheckPassword(password, dummyDigest)
			return "", common.ErrInvalidCredentials
		}
		return "", common.ErrorInternal
	}

	if !auth.CheckPassword(password, user.HashedPassword) {
		return "", common.ErrInvalidCredentials
	}
	if !user.IsActive {
		return "", common.ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(user.Email, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return "", common.ErrorInternal
	}

	return token, nil
}

// GetCurrentUser validates the presented token and resolves its subject to a
// live user record. Token validation errors pass through unchanged so the
// transport can distinguish expiry from tampering for logging.
func (s *UserService) GetCurrentUser(ctx context.Context, token string) (*models.User, error) {
	subject, err := auth.GetSubjectFromToken(token, s.jwtSecret)
	if err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByEmail(ctx, subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUserNotFound
		}
		return nil, common.ErrorInternal
	}

	return user, nil
}
