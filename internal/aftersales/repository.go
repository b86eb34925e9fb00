package aftersales

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Yuriltlef/ApexFlow-sub001/internal/repo"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/db/models"
)

// Repository reads and removes after-sales claims. Claim handling itself lives
// outside this service; orders only need lookup and cascade deletion.
type Repository struct {
	repo.Base
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) Create(ctx context.Context, claim *models.AfterSalesClaim) error {
	return r.DB(ctx).Create(claim).Error
}

// FindByOrderID returns the claims raised against an order, oldest first.
func (r *Repository) FindByOrderID(ctx context.Context, orderID string) ([]models.AfterSalesClaim, error) {
	var claims []models.AfterSalesClaim
	if err := r.DB(ctx).
		Where("order_id = ?", orderID).
		Order("applied_at ASC").
		Find(&claims).Error; err != nil {
		return nil, err
	}
	return claims, nil
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.DB(ctx).Delete(&models.AfterSalesClaim{}, "id = ?", id).Error
}
