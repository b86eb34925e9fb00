package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/Yuriltlef/ApexFlow-sub001/pkg/db/dbtest"
	pkgerrors "github.com/Yuriltlef/ApexFlow-sub001/pkg/errors"
)

type ctxKey struct{}

func TestBaseDB_BindsContext(t *testing.T) {
	db := dbtest.Open(t)
	base := NewBase(db)
	assert.Same(t, db, base.Conn())

	ctx := context.WithValue(context.Background(), ctxKey{}, "value")
	withCtx := base.DB(ctx)
	if assert.NotNil(t, withCtx.Statement) {
		assert.Equal(t, ctx, withCtx.Statement.Context)
	}

	//nolint:staticcheck // nil context path is part of the contract
	assert.Same(t, db, base.DB(nil))
}

func TestNotFoundMapsRecordNotFound(t *testing.T) {
	err := NotFound(gorm.ErrRecordNotFound, "order")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assert.Equal(t, "order not found", pkgerrors.As(err).Message())

	other := NotFound(errors.New("conn reset"), "order")
	assert.True(t, pkgerrors.IsCode(other, pkgerrors.CodePersistence))
	assert.Nil(t, NotFound(nil, "order"))
}

func TestPersistWraps(t *testing.T) {
	cause := errors.New("disk full")
	err := Persist(cause, "insert shipment")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodePersistence))
	assert.ErrorIs(t, err, cause)
	assert.Nil(t, Persist(nil, "noop"))
}
