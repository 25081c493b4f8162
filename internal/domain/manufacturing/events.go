package manufacturing

import (
	"github.com/loomworks/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Event types for the manufacturing order aggregate
const (
	EventOrderCreated          = "manufacturing.order.created"
	EventOrderPaymentRecorded  = "manufacturing.order.payment_recorded"
	EventOrderStageAdvanced    = "manufacturing.order.stage_advanced"
	EventOrderDocumentAttached = "manufacturing.order.document_attached"
)

const aggregateTypeOrder = "ManufacturingOrder"

// OrderCreatedEvent is raised when a new order is created
type OrderCreatedEvent struct {
	shared.BaseDomainEvent
	OrderNumber string          `json:"order_number"`
	ClientID    string          `json:"client_id"`
	GrandTotal  decimal.Decimal `json:"grand_total"`
}

// NewOrderCreatedEvent creates a new OrderCreatedEvent
func NewOrderCreatedEvent(order *Order) *OrderCreatedEvent {
	return &OrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventOrderCreated, aggregateTypeOrder, order.ID, order.TenantID),
		OrderNumber:     order.OrderNumber,
		ClientID:        order.ClientID.String(),
		GrandTotal:      order.GrandTotal,
	}
}

// OrderPaymentRecordedEvent is raised when a payment is added to the ledger
type OrderPaymentRecordedEvent struct {
	shared.BaseDomainEvent
	OrderNumber   string          `json:"order_number"`
	Amount        decimal.Decimal `json:"amount"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
}

// NewOrderPaymentRecordedEvent creates a new OrderPaymentRecordedEvent
func NewOrderPaymentRecordedEvent(order *Order, payment *Payment) *OrderPaymentRecordedEvent {
	return &OrderPaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventOrderPaymentRecorded, aggregateTypeOrder, order.ID, order.TenantID),
		OrderNumber:     order.OrderNumber,
		Amount:          payment.Amount,
		AmountPaid:      order.AmountPaid,
		PaymentStatus:   order.PaymentStatus,
	}
}

// OrderStageAdvancedEvent is raised when the manufacturing stage changes
type OrderStageAdvancedEvent struct {
	shared.BaseDomainEvent
	OrderNumber string      `json:"order_number"`
	Stage       Stage       `json:"stage"`
	StageStatus StageStatus `json:"stage_status"`
}

// NewOrderStageAdvancedEvent creates a new OrderStageAdvancedEvent
func NewOrderStageAdvancedEvent(order *Order, stage Stage, status StageStatus) *OrderStageAdvancedEvent {
	return &OrderStageAdvancedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventOrderStageAdvanced, aggregateTypeOrder, order.ID, order.TenantID),
		OrderNumber:     order.OrderNumber,
		Stage:           stage,
		StageStatus:     status,
	}
}

// OrderDocumentAttachedEvent is raised when a document is attached or replaced
type OrderDocumentAttachedEvent struct {
	shared.BaseDomainEvent
	OrderNumber  string  `json:"order_number"`
	DocumentName string  `json:"document_name"`
	SlotKey      SlotKey `json:"slot_key"`
}

// NewOrderDocumentAttachedEvent creates a new OrderDocumentAttachedEvent
func NewOrderDocumentAttachedEvent(order *Order, doc *Document) *OrderDocumentAttachedEvent {
	return &OrderDocumentAttachedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventOrderDocumentAttached, aggregateTypeOrder, order.ID, order.TenantID),
		OrderNumber:     order.OrderNumber,
		DocumentName:    doc.Name,
		SlotKey:         doc.SlotKey,
	}
}
