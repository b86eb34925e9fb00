package enums

import "fmt"

// CompensationAction names one replayable repair step recorded in the saga log.
type CompensationAction string

const (
	CompensationRestoreStock           CompensationAction = "restore_stock"
	CompensationDeleteOrderItems       CompensationAction = "delete_order_items"
	CompensationDeleteShipment         CompensationAction = "delete_shipment"
	CompensationDeleteFinancialEntries CompensationAction = "delete_financial_entries"
	CompensationDeleteAfterSales       CompensationAction = "delete_after_sales"
	CompensationDeleteReview           CompensationAction = "delete_review"
	CompensationDeleteOrder            CompensationAction = "delete_order"
	CompensationRecordIncome           CompensationAction = "record_income"
)

var validCompensationActions = []CompensationAction{
	CompensationRestoreStock,
	CompensationDeleteOrderItems,
	CompensationDeleteShipment,
	CompensationDeleteFinancialEntries,
	CompensationDeleteAfterSales,
	CompensationDeleteReview,
	CompensationDeleteOrder,
	CompensationRecordIncome,
}

// IsValid reports whether the value is a known CompensationAction.
func (a CompensationAction) IsValid() bool {
	for _, candidate := range validCompensationActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// String implements fmt.Stringer.
func (a CompensationAction) String() string {
	return string(a)
}

// ParseCompensationAction converts raw input into a CompensationAction.
func ParseCompensationAction(value string) (CompensationAction, error) {
	for _, candidate := range validCompensationActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid compensation action %q", value)
}

// CompensationStatus tracks a saga log record.
type CompensationStatus string

const (
	CompensationStatusPending   CompensationStatus = "pending"
	CompensationStatusResolved  CompensationStatus = "resolved"
	CompensationStatusAbandoned CompensationStatus = "abandoned"
)

// IsValid reports whether the value is a known CompensationStatus.
func (s CompensationStatus) IsValid() bool {
	switch s {
	case CompensationStatusPending, CompensationStatusResolved, CompensationStatusAbandoned:
		return true
	}
	return false
}

// SagaOperation names the coordinator operation that produced a saga log record.
type SagaOperation string

const (
	SagaCreateOrder       SagaOperation = "create_order"
	SagaUpdateOrderStatus SagaOperation = "update_order_status"
	SagaDeleteOrder       SagaOperation = "delete_order"
)
