package enums

import "fmt"

// StockChangeType classifies a stock ledger entry.
type StockChangeType string

const (
	StockChangePurchaseIn          StockChangeType = "purchase_in"
	StockChangeSaleOut             StockChangeType = "sale_out"
	StockChangeAdjustment          StockChangeType = "adjustment"
	StockChangeCancellationRestore StockChangeType = "cancellation_restore"
)

var validStockChangeTypes = []StockChangeType{
	StockChangePurchaseIn,
	StockChangeSaleOut,
	StockChangeAdjustment,
	StockChangeCancellationRestore,
}

// String implements fmt.Stringer.
func (t StockChangeType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known StockChangeType.
func (t StockChangeType) IsValid() bool {
	for _, candidate := range validStockChangeTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// IsIncrease reports whether the change type may only carry a positive delta.
func (t StockChangeType) IsIncrease() bool {
	return t == StockChangePurchaseIn || t == StockChangeCancellationRestore
}

// ParseStockChangeType converts raw input into a StockChangeType.
func ParseStockChangeType(value string) (StockChangeType, error) {
	for _, candidate := range validStockChangeTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid stock change type %q", value)
}
