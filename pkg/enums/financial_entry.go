package enums

import "fmt"

// FinancialEntryType distinguishes money coming in from money going back out.
type FinancialEntryType string

const (
	FinancialEntryIncome FinancialEntryType = "income"
	FinancialEntryRefund FinancialEntryType = "refund"
)

var validFinancialEntryTypes = []FinancialEntryType{
	FinancialEntryIncome,
	FinancialEntryRefund,
}

// String implements fmt.Stringer.
func (t FinancialEntryType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known FinancialEntryType.
func (t FinancialEntryType) IsValid() bool {
	for _, candidate := range validFinancialEntryTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseFinancialEntryType converts raw input into a FinancialEntryType.
func ParseFinancialEntryType(value string) (FinancialEntryType, error) {
	for _, candidate := range validFinancialEntryTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid financial entry type %q", value)
}

// FinancialEntryStatus is stored as 1 (pending) or 2 (posted).
type FinancialEntryStatus int

const (
	FinancialEntryPending FinancialEntryStatus = 1
	FinancialEntryPosted  FinancialEntryStatus = 2
)

// IsValid reports whether the value is a known FinancialEntryStatus.
func (s FinancialEntryStatus) IsValid() bool {
	return s == FinancialEntryPending || s == FinancialEntryPosted
}

// String implements fmt.Stringer.
func (s FinancialEntryStatus) String() string {
	switch s {
	case FinancialEntryPending:
		return "pending"
	case FinancialEntryPosted:
		return "posted"
	default:
		return fmt.Sprintf("financial_entry_status(%d)", int(s))
	}
}
