package products

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Yuriltlef/ApexFlow-sub001/internal/repo"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/db/models"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/enums"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/pagination"
)

// ErrInsufficientStock is returned by DecreaseStock when the conditional
// update matched no row. Stock is left untouched.
var ErrInsufficientStock = errors.New("insufficient stock")

// ErrStockChanged is returned by UpdateStock when the stored value no longer
// matches the expected one.
var ErrStockChanged = errors.New("stock changed concurrently")

// StockChange is the outcome of a single-statement stock mutation.
type StockChange struct {
	Before int
	After  int
}

// ListFilter narrows product listings. Keyword matches a case-insensitive
// substring of the name.
type ListFilter struct {
	Category string
	Status   *enums.ProductStatus
	Keyword  string
}

// Details holds the catalog fields an operator may edit. Nil fields are left
// as they are. Stock is deliberately absent.
type Details struct {
	Name     *string
	Category *string
	Price    *decimal.Decimal
	ImageURL *string
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// Repository persists products. Stock columns are written only through the
// *Stock methods, each of which is a single conditional statement.
type Repository struct {
	repo.Base
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(tx)}
}

// FindByID loads the product.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.DB(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByIDs loads every product in ids keyed by id. Missing ids are absent.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	out := make(map[uuid.UUID]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Product
	if err := r.DB(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, p := range rows {
		out[p.ID] = p
	}
	return out, nil
}

// Create inserts a product with zero stock. Initial stock is applied by the
// stock guard so that it is ledgered.
func (r *Repository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	product.Stock = 0
	if err := r.DB(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateStatus lists or delists a product.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.ProductStatus) error {
	res := r.DB(ctx).Model(&models.Product{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateDetails writes the non-nil catalog fields.
func (r *Repository) UpdateDetails(ctx context.Context, id uuid.UUID, details Details) error {
	updates := map[string]any{}
	if details.Name != nil {
		updates["name"] = *details.Name
	}
	if details.Category != nil {
		updates["category"] = *details.Category
	}
	if details.Price != nil {
		updates["price"] = *details.Price
	}
	if details.ImageURL != nil {
		updates["image_url"] = *details.ImageURL
	}
	if len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now().UTC()
	res := r.DB(ctx).Model(&models.Product{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List returns a page of products ordered by creation time.
func (r *Repository) List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Product, int64, error) {
	q := r.DB(ctx).Model(&models.Product{})
	if c := strings.TrimSpace(filter.Category); c != "" {
		q = q.Where("category = ?", c)
	}
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	if k := strings.TrimSpace(filter.Keyword); k != "" {
		q = q.Where(`LOWER(name) LIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(strings.ToLower(k))+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params = params.Normalize()
	var rows []models.Product
	err := q.Order("created_at DESC").Order("id").
		Offset(params.Offset()).
		Limit(params.PageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ListLowStock returns listed products whose stock is strictly below threshold.
func (r *Repository) ListLowStock(ctx context.Context, threshold int) ([]models.Product, error) {
	var rows []models.Product
	err := r.DB(ctx).
		Where("stock < ? AND status = ?", threshold, enums.ProductStatusListed).
		Order("stock ASC").Order("name").
		Find(&rows).Error
	return rows, err
}

type stockRow struct {
	Stock int
}

// IncreaseStock adds qty and returns the stock on either side of the change.
func (r *Repository) IncreaseStock(ctx context.Context, id uuid.UUID, qty int) (StockChange, error) {
	var rows []stockRow
	err := r.DB(ctx).Raw(
		`UPDATE products SET stock = stock + ?, updated_at = ? WHERE id = ? RETURNING stock`,
		qty, time.Now().UTC(), id,
	).Scan(&rows).Error
	if err != nil {
		return StockChange{}, err
	}
	if len(rows) == 0 {
		return StockChange{}, gorm.ErrRecordNotFound
	}
	return StockChange{Before: rows[0].Stock - qty, After: rows[0].Stock}, nil
}

// DecreaseStock subtracts qty only when at least qty is available. The check
// and the write are one statement so concurrent callers cannot both succeed on
// the last unit. Returns ErrInsufficientStock when no row matched; callers use
// FindByID to tell a missing product from a short one.
func (r *Repository) DecreaseStock(ctx context.Context, id uuid.UUID, qty int) (StockChange, error) {
	var rows []stockRow
	err := r.DB(ctx).Raw(
		`UPDATE products SET stock = stock - ?, updated_at = ? WHERE id = ? AND stock >= ? RETURNING stock`,
		qty, time.Now().UTC(), id, qty,
	).Scan(&rows).Error
	if err != nil {
		return StockChange{}, err
	}
	if len(rows) == 0 {
		return StockChange{}, ErrInsufficientStock
	}
	return StockChange{Before: rows[0].Stock + qty, After: rows[0].Stock}, nil
}

// UpdateStock sets stock to newValue if it still equals expected.
func (r *Repository) UpdateStock(ctx context.Context, id uuid.UUID, expected, newValue int) (StockChange, error) {
	res := r.DB(ctx).Exec(
		`UPDATE products SET stock = ?, updated_at = ? WHERE id = ? AND stock = ?`,
		newValue, time.Now().UTC(), id, expected,
	)
	if res.Error != nil {
		return StockChange{}, res.Error
	}
	if res.RowsAffected == 0 {
		return StockChange{}, ErrStockChanged
	}
	return StockChange{Before: expected, After: newValue}, nil
}
