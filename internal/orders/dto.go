package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Yuriltlef/ApexFlow-sub001/pkg/db/models"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/enums"
)

// ListFilter narrows order listings.
type ListFilter struct {
	UserID string
	Status *enums.OrderStatus
	// IncludeItems loads the items of every listed order in one extra query.
	IncludeItems bool
}

// CreateOrderInput is the payload for a new order. OrderID is generated when
// blank. Status defaults to pending payment.
type CreateOrderInput struct {
	OrderID       string
	UserID        string
	Status        enums.OrderStatus
	PaymentMethod string
	AddressID     *string
	// ReceiverAddress seeds the pending shipment.
	ReceiverAddress *string
	// TotalAmount, when supplied, must equal the computed total.
	TotalAmount *decimal.Decimal
	Items       []CreateItemInput
}

// CreateItemInput is one requested line. UnitPrice and Subtotal are optional
// and checked against the catalog price when present.
type CreateItemInput struct {
	ProductID uuid.UUID
	Quantity  int
	UnitPrice *decimal.Decimal
	Subtotal  *decimal.Decimal
}

// UpdateOrderInput holds the header fields that stay editable before shipping.
type UpdateOrderInput struct {
	AddressID     *string
	PaymentMethod *string
}

// OrderDTO is the order header returned to clients.
type OrderDTO struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Status        string          `json:"status"`
	StatusCode    int             `json:"status_code"`
	PaymentMethod string          `json:"payment_method"`
	AddressID     *string         `json:"address_id,omitempty"`
	PaidAt        *time.Time      `json:"paid_at,omitempty"`
	ShippedAt     *time.Time      `json:"shipped_at,omitempty"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Items         []OrderItemDTO  `json:"items,omitempty"`
}

// OrderItemDTO is one priced order line.
type OrderItemDTO struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// ShipmentDTO exposes the logistics record of an order.
type ShipmentDTO struct {
	ID              uuid.UUID  `json:"id"`
	OrderID         string     `json:"order_id"`
	Carrier         *string    `json:"carrier,omitempty"`
	TrackingNumber  *string    `json:"tracking_number,omitempty"`
	Status          string     `json:"status"`
	SenderAddress   *string    `json:"sender_address,omitempty"`
	ReceiverAddress *string    `json:"receiver_address,omitempty"`
	ShippedAt       *time.Time `json:"shipped_at,omitempty"`
	DeliveredAt     *time.Time `json:"delivered_at,omitempty"`
}

// FinancialEntryDTO is an income or refund line.
type FinancialEntryDTO struct {
	ID              uuid.UUID       `json:"id"`
	Type            string          `json:"type"`
	Amount          decimal.Decimal `json:"amount"`
	PaymentMethod   string          `json:"payment_method"`
	Status          string          `json:"status"`
	TransactionTime time.Time       `json:"transaction_time"`
	Remark          *string         `json:"remark,omitempty"`
}

// AfterSalesDTO summarises an after-sales claim.
type AfterSalesDTO struct {
	ID           uuid.UUID       `json:"id"`
	Type         string          `json:"type"`
	Reason       string          `json:"reason"`
	Status       int             `json:"status"`
	RefundAmount decimal.Decimal `json:"refund_amount"`
	AppliedAt    time.Time       `json:"applied_at"`
}

// ReviewDTO summarises a review left through the order.
type ReviewDTO struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	Rating    int       `json:"rating"`
	Content   string    `json:"content"`
	Anonymous bool      `json:"anonymous"`
	CreatedAt time.Time `json:"created_at"`
}

// CompensationDTO reports repair work still queued for the order.
type CompensationDTO struct {
	ID        uuid.UUID `json:"id"`
	Operation string    `json:"operation"`
	Status    string    `json:"status"`
	Steps     []string  `json:"steps"`
	Attempts  int       `json:"attempts"`
	LastError *string   `json:"last_error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// OrderDetail aggregates an order with everything that hangs off it.
type OrderDetail struct {
	Order            OrderDTO            `json:"order"`
	Shipment         *ShipmentDTO        `json:"shipment,omitempty"`
	FinancialEntries []FinancialEntryDTO `json:"financial_entries"`
	AfterSales       []AfterSalesDTO     `json:"after_sales"`
	Reviews          []ReviewDTO         `json:"reviews"`
	Compensations    []CompensationDTO   `json:"pending_compensations,omitempty"`
}

// NewOrderDTO builds the header DTO. items may be nil.
func NewOrderDTO(order *models.Order, items []models.OrderItem) OrderDTO {
	dto := OrderDTO{
		ID:            order.ID,
		UserID:        order.UserID,
		TotalAmount:   order.TotalAmount,
		Status:        order.Status.String(),
		StatusCode:    int(order.Status),
		PaymentMethod: order.PaymentMethod,
		AddressID:     order.AddressID,
		PaidAt:        order.PaidAt,
		ShippedAt:     order.ShippedAt,
		CompletedAt:   order.CompletedAt,
		CreatedAt:     order.CreatedAt,
		UpdatedAt:     order.UpdatedAt,
	}
	if items != nil {
		dto.Items = make([]OrderItemDTO, len(items))
		for i, item := range items {
			dto.Items[i] = OrderItemDTO{
				ID:          item.ID,
				ProductID:   item.ProductID,
				ProductName: item.ProductName,
				Quantity:    item.Quantity,
				UnitPrice:   item.UnitPrice,
				Subtotal:    item.Subtotal,
			}
		}
	}
	return dto
}

// NewShipmentDTO maps a shipment row.
func NewShipmentDTO(s *models.Shipment) *ShipmentDTO {
	if s == nil {
		return nil
	}
	return &ShipmentDTO{
		ID:              s.ID,
		OrderID:         s.OrderID,
		Carrier:         s.Carrier,
		TrackingNumber:  s.TrackingNumber,
		Status:          s.Status.String(),
		SenderAddress:   s.SenderAddress,
		ReceiverAddress: s.ReceiverAddress,
		ShippedAt:       s.ShippedAt,
		DeliveredAt:     s.DeliveredAt,
	}
}

func newDetail(order *models.Order, items []models.OrderItem, shipment *models.Shipment, entries []models.FinancialEntry, claims []models.AfterSalesClaim, reviews []models.Review, pending []models.CompensationRecord) *OrderDetail {
	detail := &OrderDetail{
		Order:            NewOrderDTO(order, items),
		Shipment:         NewShipmentDTO(shipment),
		FinancialEntries: make([]FinancialEntryDTO, 0, len(entries)),
		AfterSales:       make([]AfterSalesDTO, 0, len(claims)),
		Reviews:          make([]ReviewDTO, 0, len(reviews)),
	}
	if detail.Order.Items == nil {
		detail.Order.Items = []OrderItemDTO{}
	}
	for _, e := range entries {
		detail.FinancialEntries = append(detail.FinancialEntries, FinancialEntryDTO{
			ID:              e.ID,
			Type:            e.Type.String(),
			Amount:          e.Amount,
			PaymentMethod:   e.PaymentMethod,
			Status:          e.Status.String(),
			TransactionTime: e.TransactionTime,
			Remark:          e.Remark,
		})
	}
	for _, c := range claims {
		detail.AfterSales = append(detail.AfterSales, AfterSalesDTO{
			ID:           c.ID,
			Type:         c.Type,
			Reason:       c.Reason,
			Status:       c.Status,
			RefundAmount: c.RefundAmount,
			AppliedAt:    c.AppliedAt,
		})
	}
	for _, r := range reviews {
		detail.Reviews = append(detail.Reviews, ReviewDTO{
			ID:        r.ID,
			ProductID: r.ProductID,
			Rating:    r.Rating,
			Content:   r.Content,
			Anonymous: r.Anonymous,
			CreatedAt: r.CreatedAt,
		})
	}
	for _, rec := range pending {
		if rec.Status != enums.CompensationStatusPending {
			continue
		}
		steps := make([]string, len(rec.Steps))
		for i, step := range rec.Steps {
			steps[i] = step.Action.String()
		}
		detail.Compensations = append(detail.Compensations, CompensationDTO{
			ID:        rec.ID,
			Operation: string(rec.Operation),
			Status:    string(rec.Status),
			Steps:     steps,
			Attempts:  rec.Attempts,
			LastError: rec.LastError,
			CreatedAt: rec.CreatedAt,
		})
	}
	return detail
}
