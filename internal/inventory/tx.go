package inventory

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/Yuriltlef/ApexFlow-sub001/internal/products"
)

// TxRunner opens a database transaction around fn.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// TxStores hands fn a product store and ledger repository that share one
// transaction. A stock mutation and its ledger entry commit together or not
// at all.
type TxStores interface {
	InTx(ctx context.Context, fn func(store ProductStore, ledger LedgerRepository) error) error
}

type gormTxStores struct {
	runner   TxRunner
	products *products.Repository
	ledger   LedgerRepository
}

// NewTxStores binds the repositories to transactions opened by runner.
func NewTxStores(runner TxRunner, productRepo *products.Repository, ledgerRepo LedgerRepository) (TxStores, error) {
	switch {
	case runner == nil:
		return nil, fmt.Errorf("transaction runner required")
	case productRepo == nil:
		return nil, fmt.Errorf("product repository required")
	case ledgerRepo == nil:
		return nil, fmt.Errorf("ledger repository required")
	}
	return &gormTxStores{runner: runner, products: productRepo, ledger: ledgerRepo}, nil
}

func (s *gormTxStores) InTx(ctx context.Context, fn func(store ProductStore, ledger LedgerRepository) error) error {
	return s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		return fn(s.products.WithTx(tx), s.ledger.WithTx(tx))
	})
}
