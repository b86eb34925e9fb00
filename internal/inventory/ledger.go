package inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Yuriltlef/ApexFlow-sub001/pkg/db/models"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/enums"
	pkgerrors "github.com/Yuriltlef/ApexFlow-sub001/pkg/errors"
)

// RecordInput describes one stock mutation that already happened. Before is
// the stock value observed by the statement that applied Delta.
type RecordInput struct {
	ProductID  uuid.UUID
	ChangeType enums.StockChangeType
	Delta      int
	Before     int
	OrderID    *string
	Reason     string
}

// StockLedger writes the audit trail for stock mutations.
type StockLedger struct {
	repo LedgerRepository
}

// NewStockLedger wires a ledger with its repository.
func NewStockLedger(repo LedgerRepository) (*StockLedger, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &StockLedger{repo: repo}, nil
}

// Record validates and appends an entry.
func (l *StockLedger) Record(ctx context.Context, in RecordInput) (*models.StockLedgerEntry, error) {
	return l.recordTo(ctx, l.repo, in)
}

// recordTo appends through repo, which may be bound to the transaction that
// applied the stock change.
func (l *StockLedger) recordTo(ctx context.Context, repo LedgerRepository, in RecordInput) (*models.StockLedgerEntry, error) {
	if in.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if !in.ChangeType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid change type %q", in.ChangeType))
	}
	if in.ChangeType.IsIncrease() && in.Delta <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "increase entries require a positive delta")
	}
	if in.ChangeType == enums.StockChangeSaleOut && in.Delta >= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sale entries require a negative delta")
	}

	entry := &models.StockLedgerEntry{
		ProductID:   in.ProductID,
		ChangeType:  in.ChangeType,
		Delta:       in.Delta,
		BeforeStock: in.Before,
		AfterStock:  in.Before + in.Delta,
		OrderID:     in.OrderID,
	}
	if r := strings.TrimSpace(in.Reason); r != "" {
		entry.Reason = &r
	}
	if err := entry.Check(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "ledger entry rejected")
	}

	if err := repo.Create(ctx, entry); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "write stock ledger entry")
	}
	return entry, nil
}

// ChainGap is a pair of consecutive entries whose stock values do not line up.
type ChainGap struct {
	PreviousID    uuid.UUID `json:"previous_id"`
	EntryID       uuid.UUID `json:"entry_id"`
	PreviousAfter int       `json:"previous_after"`
	Before        int       `json:"before"`
}

// Verify walks a product's entries oldest first and reports every place where
// an entry's before-stock differs from its predecessor's after-stock.
func (l *StockLedger) Verify(ctx context.Context, productID uuid.UUID) ([]ChainGap, error) {
	entries, err := l.repo.ChainForProduct(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load stock ledger chain")
	}
	var gaps []ChainGap
	for i := 1; i < len(entries); i++ {
		prev, cur := entries[i-1], entries[i]
		if cur.BeforeStock != prev.AfterStock {
			gaps = append(gaps, ChainGap{
				PreviousID:    prev.ID,
				EntryID:       cur.ID,
				PreviousAfter: prev.AfterStock,
				Before:        cur.BeforeStock,
			})
		}
	}
	return gaps, nil
}
