package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/astrotechlabs/astrotech-api/internal/common"
	"github.com/astrotechlabs/astrotech-api/internal/server/models"
	"github.com/astrotechlabs/astrotech-api/internal/server/repositories/repomanager"
)

// ConsultationRequest is the typed intake form.
type ConsultationRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Topic   string `json:"topic"`
	Message string `json:"message"`
}

// ConsultationService persists consultation requests for authenticated users.
type ConsultationService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewConsultationService(db *sql.DB, m repomanager.RepositoryManager) *ConsultationService {
	return &ConsultationService{db: db, repomanager: m}
}

func (s *ConsultationService) RequestConsultation(ctx context.Context, user *models.User, req ConsultationRequest) (*models.Consultation, error) {

	if req.Name == "" || req.Email == "" || req.Message == "" {
		return nil, common.ErrInvalidConsultation
	}

	repo := s.repomanager.Consultations(s.db)
	c, err := repo.Create(ctx, &models.Consultation{
		UserID:  user.ID,
		Name:    req.Name,
		Email:   NormalizeEmail(req.Email),
		Phone:   req.Phone,
		Topic:   req.Topic,
		Message: req.Message,
	})
	if err != nil {
		return nil, fmt.Errorf("error saving consultation request: %w", err)
	}

	return c, nil
}
