package consultations

import (
	"context"

	"github.com/astrotechlabs/astrotech-api/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, c *models.Consultation) (*models.Consultation, error)
}
