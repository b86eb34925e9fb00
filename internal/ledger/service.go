package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Yuriltlef/ApexFlow-sub001/pkg/db/models"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/enums"
	pkgerrors "github.com/Yuriltlef/ApexFlow-sub001/pkg/errors"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/pagination"
)

// Service records and queries money movements tied to orders.
type Service interface {
	RecordEntry(ctx context.Context, input RecordEntryInput) (*models.FinancialEntry, error)
	RecordIncomeOnce(ctx context.Context, input RecordEntryInput) (*models.FinancialEntry, bool, error)
	ListByOrder(ctx context.Context, orderID string) ([]models.FinancialEntry, error)
	HasEntry(ctx context.Context, orderID string, entryType enums.FinancialEntryType) (bool, error)
	ListEntries(ctx context.Context, filter EntryFilter, params pagination.Params) (pagination.Page[models.FinancialEntry], error)
	Statistics(ctx context.Context) (Statistics, error)
	DeleteByOrder(ctx context.Context, orderID string) error
}

// Statistics totals posted money movements across all orders.
type Statistics struct {
	TotalIncome decimal.Decimal `json:"total_income"`
	TotalRefund decimal.Decimal `json:"total_refund"`
	NetIncome   decimal.Decimal `json:"net_income"`
}

type service struct {
	repo Repository
	now  func() time.Time
}

// RecordEntryInput captures the data a financial entry requires. Status
// defaults to posted and TransactionTime to now.
type RecordEntryInput struct {
	OrderID         string                     `json:"order_id"`
	Type            enums.FinancialEntryType   `json:"type"`
	Amount          decimal.Decimal            `json:"amount"`
	PaymentMethod   string                     `json:"payment_method"`
	Status          enums.FinancialEntryStatus `json:"status"`
	TransactionTime time.Time                  `json:"transaction_time"`
	Remark          string                     `json:"remark"`
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) RecordEntry(ctx context.Context, input RecordEntryInput) (*models.FinancialEntry, error) {
	if strings.TrimSpace(input.OrderID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid financial entry type %q", input.Type))
	}
	if input.Amount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount cannot be negative")
	}
	if input.Status == 0 {
		input.Status = enums.FinancialEntryPosted
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid financial entry status %d", input.Status))
	}
	if input.TransactionTime.IsZero() {
		input.TransactionTime = s.now().UTC()
	}

	entry := &models.FinancialEntry{
		OrderID:         input.OrderID,
		Type:            input.Type,
		Amount:          input.Amount,
		PaymentMethod:   input.PaymentMethod,
		Status:          input.Status,
		TransactionTime: input.TransactionTime,
	}
	if r := strings.TrimSpace(input.Remark); r != "" {
		entry.Remark = &r
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "create financial entry")
	}
	return entry, nil
}

// RecordIncomeOnce creates an income entry unless the order already has one.
// The bool reports whether a new entry was written; the entry is nil when one
// already existed.
func (s *service) RecordIncomeOnce(ctx context.Context, input RecordEntryInput) (*models.FinancialEntry, bool, error) {
	input.Type = enums.FinancialEntryIncome
	exists, err := s.HasEntry(ctx, input.OrderID, enums.FinancialEntryIncome)
	if err != nil {
		return nil, false, err
	}
	if exists {
		return nil, false, nil
	}
	entry, err := s.RecordEntry(ctx, input)
	if err != nil {
		return nil, false, err
	}
	return entry, true, nil
}

func (s *service) ListByOrder(ctx context.Context, orderID string) ([]models.FinancialEntry, error) {
	entries, err := s.repo.ListByOrderID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "list financial entries")
	}
	return entries, nil
}

func (s *service) HasEntry(ctx context.Context, orderID string, entryType enums.FinancialEntryType) (bool, error) {
	if strings.TrimSpace(orderID) == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if !entryType.IsValid() {
		return false, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid financial entry type %q", entryType))
	}
	n, err := s.repo.Count(ctx, EntryFilter{OrderID: orderID, Type: entryType})
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "count financial entries")
	}
	return n > 0, nil
}

// ListEntries pages through entries newest transaction first.
func (s *service) ListEntries(ctx context.Context, filter EntryFilter, params pagination.Params) (pagination.Page[models.FinancialEntry], error) {
	filter.OrderID = strings.TrimSpace(filter.OrderID)
	if filter.Type != "" && !filter.Type.IsValid() {
		return pagination.Page[models.FinancialEntry]{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid financial entry type %q", filter.Type))
	}
	if filter.Status != 0 && !filter.Status.IsValid() {
		return pagination.Page[models.FinancialEntry]{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid financial entry status %d", filter.Status))
	}
	params = params.Normalize()
	rows, total, err := s.repo.List(ctx, filter, params)
	if err != nil {
		return pagination.Page[models.FinancialEntry]{}, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "list financial entries")
	}
	return pagination.NewPage(rows, params, total), nil
}

// Statistics sums posted income and refunds. Pending entries are excluded.
func (s *service) Statistics(ctx context.Context) (Statistics, error) {
	income, err := s.repo.SumAmount(ctx, EntryFilter{Type: enums.FinancialEntryIncome, Status: enums.FinancialEntryPosted})
	if err != nil {
		return Statistics{}, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "sum income")
	}
	refund, err := s.repo.SumAmount(ctx, EntryFilter{Type: enums.FinancialEntryRefund, Status: enums.FinancialEntryPosted})
	if err != nil {
		return Statistics{}, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "sum refunds")
	}
	return Statistics{TotalIncome: income, TotalRefund: refund, NetIncome: income.Sub(refund)}, nil
}

// DeleteByOrder removes every entry of an order one by one.
func (s *service) DeleteByOrder(ctx context.Context, orderID string) error {
	entries, err := s.ListByOrder(ctx, orderID)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := s.repo.Delete(ctx, entry.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "delete financial entry")
		}
	}
	return nil
}
