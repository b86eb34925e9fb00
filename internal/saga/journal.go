package saga

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Yuriltlef/ApexFlow-sub001/pkg/db/models"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/enums"
)

// Journal persists compensation records.
type Journal interface {
	Create(ctx context.Context, rec *models.CompensationRecord) error
	ListPending(ctx context.Context, limit int) ([]models.CompensationRecord, error)
	ListByOrderID(ctx context.Context, orderID string) ([]models.CompensationRecord, error)
	SaveProgress(ctx context.Context, id uuid.UUID, steps []models.CompensationStep) error
	MarkResolved(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, lastErr string, abandon bool) error
}

type journal struct {
	db *gorm.DB
}

// NewJournal returns a gorm-backed journal.
func NewJournal(db *gorm.DB) Journal {
	return &journal{db: db}
}

func (j *journal) Create(ctx context.Context, rec *models.CompensationRecord) error {
	return j.db.WithContext(ctx).Create(rec).Error
}

func (j *journal) ListPending(ctx context.Context, limit int) ([]models.CompensationRecord, error) {
	var recs []models.CompensationRecord
	err := j.db.WithContext(ctx).
		Where("status = ?", enums.CompensationStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&recs).Error
	return recs, err
}

func (j *journal) ListByOrderID(ctx context.Context, orderID string) ([]models.CompensationRecord, error) {
	var recs []models.CompensationRecord
	err := j.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&recs).Error
	return recs, err
}

func (j *journal) SaveProgress(ctx context.Context, id uuid.UUID, steps []models.CompensationStep) error {
	return j.db.WithContext(ctx).
		Model(&models.CompensationRecord{ID: id}).
		Select("steps", "updated_at").
		Updates(&models.CompensationRecord{Steps: steps, UpdatedAt: time.Now().UTC()}).Error
}

func (j *journal) MarkResolved(ctx context.Context, id uuid.UUID) error {
	now := time.Now().UTC()
	return j.db.WithContext(ctx).
		Model(&models.CompensationRecord{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":      enums.CompensationStatusResolved,
			"resolved_at": now,
			"updated_at":  now,
		}).Error
}

func (j *journal) MarkFailed(ctx context.Context, id uuid.UUID, lastErr string, abandon bool) error {
	updates := map[string]any{
		"attempts":   gorm.Expr("attempts + 1"),
		"last_error": lastErr,
		"updated_at": time.Now().UTC(),
	}
	if abandon {
		updates["status"] = enums.CompensationStatusAbandoned
	}
	return j.db.WithContext(ctx).
		Model(&models.CompensationRecord{}).
		Where("id = ?", id).
		Updates(updates).Error
}
