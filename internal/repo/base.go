package repo

import (
	"context"
	stdErrors "errors"

	"gorm.io/gorm"

	pkgerrors "github.com/Yuriltlef/ApexFlow-sub001/pkg/errors"
)

// Base provides a shared foundation for domain repositories.
type Base struct {
	db *gorm.DB
}

// NewBase constructs a Base repository backed by the provided GORM connection.
func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the GORM connection bound to the supplied context (if any).
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Conn returns the raw connection, for repositories that need to rebind.
func (b Base) Conn() *gorm.DB {
	return b.db
}

// NotFound converts gorm.ErrRecordNotFound into a typed not-found error and
// wraps anything else as a persistence failure.
func NotFound(err error, what string) error {
	if err == nil {
		return nil
	}
	if stdErrors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, what+" not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load "+what)
}

// Persist wraps a write error as a persistence failure.
func Persist(err error, action string) error {
	if err == nil {
		return nil
	}
	return pkgerrors.Wrap(pkgerrors.CodePersistence, err, action)
}
