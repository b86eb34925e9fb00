package orders

import (
	"fmt"

	"github.com/Yuriltlef/ApexFlow-sub001/pkg/enums"
	pkgerrors "github.com/Yuriltlef/ApexFlow-sub001/pkg/errors"
)

// Effect is the follow-up work the coordinator runs after a status write.
type Effect string

const (
	EffectNone         Effect = ""
	EffectRecordIncome Effect = "record_income"
	EffectRestoreStock Effect = "restore_stock"
)

// Transition is the plan for moving an order between two statuses.
type Transition struct {
	From enums.OrderStatus
	To   enums.OrderStatus
	// StampColumn is written with the current time in the same statement
	// that changes the status. Empty when the target has no timestamp.
	StampColumn string
	Effect      Effect
	NoOp        bool
}

var allowedTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPendingPayment: {enums.OrderStatusPaid, enums.OrderStatusCancelled},
	enums.OrderStatusPaid:           {enums.OrderStatusShipped, enums.OrderStatusCancelled},
	enums.OrderStatusShipped:        {enums.OrderStatusCompleted},
}

var stampColumns = map[enums.OrderStatus]string{
	enums.OrderStatusPaid:      "paid_at",
	enums.OrderStatusShipped:   "shipped_at",
	enums.OrderStatusCompleted: "completed_at",
}

var effects = map[enums.OrderStatus]Effect{
	enums.OrderStatusPaid:      EffectRecordIncome,
	enums.OrderStatusCancelled: EffectRestoreStock,
}

// CanTransition reports whether from may move to to. Same-status requests are
// not transitions and return false.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// Plan validates a status change and describes what it implies.
func Plan(from, to enums.OrderStatus) (Transition, error) {
	if !to.IsValid() {
		return Transition{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown order status %d", int(to)))
	}
	if from == to {
		return Transition{From: from, To: to, NoOp: true}, nil
	}
	if !CanTransition(from, to) {
		return Transition{}, pkgerrors.New(
			pkgerrors.CodeInvalidTransition,
			fmt.Sprintf("cannot move order from %s to %s", from, to),
		).WithDetails(map[string]any{"from": from.String(), "to": to.String()})
	}
	return Transition{
		From:        from,
		To:          to,
		StampColumn: stampColumns[to],
		Effect:      effects[to],
	}, nil
}

// Mutable reports whether an order in status s accepts header edits.
func Mutable(s enums.OrderStatus) bool {
	return s == enums.OrderStatusPendingPayment || s == enums.OrderStatusPaid
}

// Deletable reports whether an order in status s may be removed.
func Deletable(s enums.OrderStatus) bool {
	return s != enums.OrderStatusShipped && s != enums.OrderStatusCompleted
}
