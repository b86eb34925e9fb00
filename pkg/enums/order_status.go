package enums

import (
	"fmt"
	"strconv"
	"strings"
)

// OrderStatus is the persisted lifecycle stage of an order. Values are stable
// and stored as small integers.
type OrderStatus int

const (
	OrderStatusPendingPayment OrderStatus = 1
	OrderStatusPaid           OrderStatus = 2
	OrderStatusShipped        OrderStatus = 3
	OrderStatusCompleted      OrderStatus = 4
	OrderStatusCancelled      OrderStatus = 5
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPendingPayment,
	OrderStatusPaid,
	OrderStatusShipped,
	OrderStatusCompleted,
	OrderStatusCancelled,
}

var orderStatusNames = map[OrderStatus]string{
	OrderStatusPendingPayment: "pending_payment",
	OrderStatusPaid:           "paid",
	OrderStatusShipped:        "shipped",
	OrderStatusCompleted:      "completed",
	OrderStatusCancelled:      "cancelled",
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	if name, ok := orderStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("order_status(%d)", int(s))
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions leave this status.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// ParseOrderStatus accepts either the numeric code or the status name.
func ParseOrderStatus(value string) (OrderStatus, error) {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	if n, err := strconv.Atoi(trimmed); err == nil {
		if s := OrderStatus(n); s.IsValid() {
			return s, nil
		}
		return 0, fmt.Errorf("invalid order status %q", value)
	}
	for _, candidate := range validOrderStatuses {
		if orderStatusNames[candidate] == trimmed {
			return candidate, nil
		}
	}
	return 0, fmt.Errorf("invalid order status %q", value)
}
