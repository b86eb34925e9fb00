package finance

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Yuriltlef/ApexFlow-sub001/api/responses"
	"github.com/Yuriltlef/ApexFlow-sub001/api/validators"
	"github.com/Yuriltlef/ApexFlow-sub001/internal/ledger"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/db/models"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/enums"
	pkgerrors "github.com/Yuriltlef/ApexFlow-sub001/pkg/errors"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/logger"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/pagination"
)

type entryResponse struct {
	ID              uuid.UUID       `json:"id"`
	OrderID         string          `json:"order_id"`
	Type            string          `json:"type"`
	Amount          decimal.Decimal `json:"amount"`
	PaymentMethod   string          `json:"payment_method,omitempty"`
	Status          string          `json:"status"`
	TransactionTime time.Time       `json:"transaction_time"`
	Remark          *string         `json:"remark,omitempty"`
}

func newEntryResponse(e *models.FinancialEntry) entryResponse {
	return entryResponse{
		ID:              e.ID,
		OrderID:         e.OrderID,
		Type:            e.Type.String(),
		Amount:          e.Amount,
		PaymentMethod:   e.PaymentMethod,
		Status:          e.Status.String(),
		TransactionTime: e.TransactionTime,
		Remark:          e.Remark,
	}
}

// Entries pages the financial ledger, optionally by order, type and status.
func Entries(svc ledger.Service, defaultPageSize int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "finance service unavailable"))
			return
		}
		params, err := validators.ParsePage(r, defaultPageSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter, err := parseFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.ListEntries(r.Context(), filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Passthrough(err, pkgerrors.CodeDependency, "list financial entries"))
			return
		}
		items := make([]entryResponse, len(page.Items))
		for i := range page.Items {
			items[i] = newEntryResponse(&page.Items[i])
		}
		responses.WriteSuccess(w, pagination.Page[entryResponse]{
			Items:    items,
			Page:     page.Page,
			PageSize: page.PageSize,
			Total:    page.Total,
		})
	}
}

// Statistics reports posted income, posted refunds and their difference.
func Statistics(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "finance service unavailable"))
			return
		}
		stats, err := svc.Statistics(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Passthrough(err, pkgerrors.CodeDependency, "financial statistics"))
			return
		}
		responses.WriteSuccess(w, stats)
	}
}

func parseFilter(r *http.Request) (ledger.EntryFilter, error) {
	q := r.URL.Query()
	filter := ledger.EntryFilter{OrderID: validators.SanitizeString(q.Get("order_id"), 50)}
	if raw := strings.ToLower(strings.TrimSpace(q.Get("type"))); raw != "" {
		typ, err := enums.ParseFinancialEntryType(raw)
		if err != nil {
			return ledger.EntryFilter{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid entry type").WithDetails(map[string]any{"type": raw})
		}
		filter.Type = typ
	}
	switch raw := strings.ToLower(strings.TrimSpace(q.Get("status"))); raw {
	case "":
	case "1", "pending":
		filter.Status = enums.FinancialEntryPending
	case "2", "posted":
		filter.Status = enums.FinancialEntryPosted
	default:
		return ledger.EntryFilter{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid entry status").WithDetails(map[string]any{"status": raw})
	}
	return filter, nil
}
