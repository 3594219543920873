package consultations

import (
	"context"
	"fmt"

	"github.com/astrotechlabs/astrotech-api/internal/dbx"
	"github.com/astrotechlabs/astrotech-api/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, c *models.Consultation) (*models.Consultation, error) {

	query :=
		`INSERT INTO consultations (user_id, name, email, phone, topic, message)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		c.UserID, c.Name, c.Email, c.Phone, c.Topic, c.Message).Scan(&c.ID, &c.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return c, nil
}
