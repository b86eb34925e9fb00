package reviews

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Yuriltlef/ApexFlow-sub001/internal/repo"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/db/models"
)

// Repository reads and removes product reviews tied to orders.
type Repository struct {
	repo.Base
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) Create(ctx context.Context, review *models.Review) error {
	return r.DB(ctx).Create(review).Error
}

func (r *Repository) FindByOrderID(ctx context.Context, orderID string) ([]models.Review, error) {
	var reviews []models.Review
	if err := r.DB(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&reviews).Error; err != nil {
		return nil, err
	}
	return reviews, nil
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.DB(ctx).Delete(&models.Review{}, "id = ?", id).Error
}
