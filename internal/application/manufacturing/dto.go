package manufacturing

import (
	"time"

	"github.com/google/uuid"
	"github.com/loomworks/backend/internal/domain/manufacturing"
	"github.com/shopspring/decimal"
)

// ==================== Order DTOs ====================

// CustomChargeInput represents one ad hoc charge line in a request
type CustomChargeInput struct {
	Name   string          `json:"name" binding:"required,min=1,max=100"`
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

// InitialPaymentInput represents an advance recorded at order creation
type InitialPaymentInput struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Date   *time.Time      `json:"date"`
	Type   string          `json:"type" binding:"omitempty,oneof=advance installment final"`
	Notes  string          `json:"notes"`
}

// CreateOrderRequest represents a request to create a manufacturing order
type CreateOrderRequest struct {
	ClientID             uuid.UUID           `json:"client_id" binding:"required"`
	ProductID            uuid.UUID           `json:"product_id" binding:"required"`
	Quantity             int                 `json:"quantity" binding:"required,min=1"`
	UnitPrice            decimal.Decimal     `json:"unit_price" binding:"required"`
	Discount             decimal.Decimal     `json:"discount"`
	CustomCharges        []CustomChargeInput `json:"custom_charges"`
	ExpectedDeliveryDate time.Time           `json:"expected_delivery_date" binding:"required"`
	Notes                string              `json:"notes"`
	InitialPayment       *InitialPaymentInput `json:"initial_payment"`
}

// UpdateOrderRequest represents a partial update of a manufacturing order.
// Only the listed fields are mutable; the order number, sequence, payments,
// documents and activity trail change through their dedicated endpoints.
type UpdateOrderRequest struct {
	Quantity             *int                 `json:"quantity" binding:"omitempty,min=1"`
	UnitPrice            *decimal.Decimal     `json:"unit_price"`
	Discount             *decimal.Decimal     `json:"discount"`
	CustomCharges        *[]CustomChargeInput `json:"custom_charges"`
	ExpectedDeliveryDate *time.Time           `json:"expected_delivery_date"`
	DelayDays            *int                 `json:"delay_days"`
	DeliveryStatus       *string              `json:"delivery_status" binding:"omitempty,oneof=on-time delayed"`
	Notes                *string              `json:"notes"`
	PaymentStatus        *string              `json:"payment_status"`
	AdvancePercentage    *decimal.Decimal     `json:"advance_percentage"`
}

// AdvanceStageRequest represents a request to move an order to a stage
type AdvanceStageRequest struct {
	Stage  string `json:"stage" binding:"required"`
	Status string `json:"status" binding:"omitempty,oneof=pending in-progress completed"`
}

// SetDeliveryDelayRequest represents a request to record a delivery delay
type SetDeliveryDelayRequest struct {
	DelayDays int `json:"delay_days" binding:"min=0"`
}

// RecordPaymentRequest represents a request to record a payment
type RecordPaymentRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Date   *time.Time      `json:"date"`
	Type   string          `json:"type" binding:"omitempty,oneof=advance installment final"`
	Notes  string          `json:"notes"`
}

// UpdatePaymentRequest represents a partial update of a recorded payment
type UpdatePaymentRequest struct {
	Amount *decimal.Decimal `json:"amount"`
	Date   *time.Time       `json:"date"`
	Type   *string          `json:"type" binding:"omitempty,oneof=advance installment final"`
	Notes  *string          `json:"notes"`
}

// LogActivityRequest represents a request to append a manual activity entry
type LogActivityRequest struct {
	Action  string `json:"action" binding:"required,min=1,max=100"`
	Details string `json:"details" binding:"max=1000"`
}

// OrderListFilter represents filter options for the order list
type OrderListFilter struct {
	Search         string     `form:"search"`
	ClientID       *uuid.UUID `form:"client_id"`
	Stage          *string    `form:"stage"`
	PaymentStatus  *string    `form:"payment_status"`
	DeliveryStatus *string    `form:"delivery_status"`
	StartDate      *time.Time `form:"start_date"`
	EndDate        *time.Time `form:"end_date"`
	Page           int        `form:"page" binding:"min=0"`
	PageSize       int        `form:"page_size" binding:"min=0,max=100"`
	OrderBy        string     `form:"order_by"`
	OrderDir       string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ==================== Order Responses ====================

// CustomChargeResponse represents a custom charge in API responses
type CustomChargeResponse struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID         uuid.UUID       `json:"id"`
	Amount     decimal.Decimal `json:"amount"`
	Date       time.Time       `json:"date"`
	Type       string          `json:"type"`
	Notes      string          `json:"notes,omitempty"`
	RecordedBy uuid.UUID       `json:"recorded_by"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// StageEntryResponse represents a timeline entry in API responses
type StageEntryResponse struct {
	Stage     string     `json:"stage"`
	Status    string     `json:"status"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// DocumentResponse represents a document in API responses. URL is the stable
// object URL; DownloadURL, when present, is a short-lived presigned link.
type DocumentResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	SlotKey     string    `json:"slot_key"`
	IsSystem    bool      `json:"is_system"`
	URL         string    `json:"url"`
	FileType    string    `json:"file_type,omitempty"`
	DownloadURL string    `json:"download_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ActivityEntryResponse represents an activity trail entry in API responses
type ActivityEntryResponse struct {
	Action      string    `json:"action"`
	Details     string    `json:"details"`
	PerformedBy uuid.UUID `json:"performed_by"`
	Timestamp   time.Time `json:"timestamp"`
}

// OrderResponse represents a full manufacturing order in API responses
type OrderResponse struct {
	ID                   uuid.UUID               `json:"id"`
	TenantID             uuid.UUID               `json:"tenant_id"`
	OrderNumber          string                  `json:"order_number"`
	Sequence             int                     `json:"sequence"`
	ClientID             uuid.UUID               `json:"client_id"`
	ProductID            uuid.UUID               `json:"product_id"`
	Quantity             int                     `json:"quantity"`
	UnitPrice            decimal.Decimal         `json:"unit_price"`
	Discount             decimal.Decimal         `json:"discount"`
	CustomCharges        []CustomChargeResponse  `json:"custom_charges"`
	TaxRate              int                     `json:"tax_rate"`
	TaxableValue         decimal.Decimal         `json:"taxable_value"`
	GrandTotal           decimal.Decimal         `json:"grand_total"`
	Payments             []PaymentResponse       `json:"payments"`
	AmountPaid           decimal.Decimal         `json:"amount_paid"`
	BalanceDue           decimal.Decimal         `json:"balance_due"`
	PaymentStatus        string                  `json:"payment_status"`
	AdvancePercentage    decimal.Decimal         `json:"advance_percentage"`
	CurrentStage         string                  `json:"current_stage"`
	StageHistory         []StageEntryResponse    `json:"stage_history"`
	ExpectedDeliveryDate time.Time               `json:"expected_delivery_date"`
	DelayDays            int                     `json:"delay_days"`
	DeliveryStatus       string                  `json:"delivery_status"`
	CompletedAt          *time.Time              `json:"completed_at,omitempty"`
	Documents            []DocumentResponse      `json:"documents"`
	ActivityLog          []ActivityEntryResponse `json:"activity_log"`
	Notes                string                  `json:"notes,omitempty"`
	Version              int                     `json:"version"`
	CreatedAt            time.Time               `json:"created_at"`
	UpdatedAt            time.Time               `json:"updated_at"`
}

// OrderListItemResponse represents an order in list responses
type OrderListItemResponse struct {
	ID                   uuid.UUID       `json:"id"`
	OrderNumber          string          `json:"order_number"`
	ClientID             uuid.UUID       `json:"client_id"`
	ProductID            uuid.UUID       `json:"product_id"`
	Quantity             int             `json:"quantity"`
	GrandTotal           decimal.Decimal `json:"grand_total"`
	AmountPaid           decimal.Decimal `json:"amount_paid"`
	PaymentStatus        string          `json:"payment_status"`
	CurrentStage         string          `json:"current_stage"`
	ExpectedDeliveryDate time.Time       `json:"expected_delivery_date"`
	DeliveryStatus       string          `json:"delivery_status"`
	CreatedAt            time.Time       `json:"created_at"`
}

// ==================== Document DTOs ====================

// InitiateDocumentUploadRequest asks for a presigned upload URL
type InitiateDocumentUploadRequest struct {
	FileName    string `json:"file_name" binding:"required,min=1,max=255"`
	ContentType string `json:"content_type" binding:"required"`
}

// InitiateDocumentUploadResponse carries the presigned upload URL and the
// storage key to hand back when attaching the document
type InitiateDocumentUploadResponse struct {
	StorageKey string    `json:"storage_key"`
	UploadURL  string    `json:"upload_url"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// AttachDocumentRequest attaches an uploaded file to an order. SlotKey names
// one of the four fixed slots, or "custom" for a flexible attachment (Name
// required in that case).
type AttachDocumentRequest struct {
	SlotKey    string `json:"slot_key" binding:"required"`
	Name       string `json:"name"`
	StorageKey string `json:"storage_key" binding:"required"`
	FileType   string `json:"file_type"`
}

// RenameDocumentRequest renames a flexible document
type RenameDocumentRequest struct {
	Name string `json:"name" binding:"required,min=1,max=255"`
}

// DocumentDownloadResponse carries a short-lived presigned download URL
type DocumentDownloadResponse struct {
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// ==================== Mappers ====================

// ToOrderResponse converts a domain order to an OrderResponse
func ToOrderResponse(order *manufacturing.Order) OrderResponse {
	charges := make([]CustomChargeResponse, len(order.CustomCharges))
	for i, charge := range order.CustomCharges {
		charges[i] = CustomChargeResponse{Name: charge.Name, Amount: charge.Amount}
	}

	payments := make([]PaymentResponse, len(order.Payments))
	for i, payment := range order.Payments {
		payments[i] = ToPaymentResponse(&payment)
	}

	stages := make([]StageEntryResponse, len(order.StageHistory))
	for i, entry := range order.StageHistory {
		stages[i] = StageEntryResponse{
			Stage:     string(entry.Stage),
			Status:    string(entry.Status),
			StartedAt: entry.StartedAt,
			EndedAt:   entry.EndedAt,
		}
	}

	documents := make([]DocumentResponse, len(order.Documents))
	for i, doc := range order.Documents {
		documents[i] = ToDocumentResponse(&doc)
	}

	activity := make([]ActivityEntryResponse, len(order.ActivityLog))
	for i, entry := range order.ActivityLog {
		activity[i] = ActivityEntryResponse{
			Action:      entry.Action,
			Details:     entry.Details,
			PerformedBy: entry.PerformedBy,
			Timestamp:   entry.Timestamp,
		}
	}

	return OrderResponse{
		ID:                   order.ID,
		TenantID:             order.TenantID,
		OrderNumber:          order.OrderNumber,
		Sequence:             order.Sequence,
		ClientID:             order.ClientID,
		ProductID:            order.ProductID,
		Quantity:             order.Quantity,
		UnitPrice:            order.UnitPrice,
		Discount:             order.Discount,
		CustomCharges:        charges,
		TaxRate:              order.TaxRate,
		TaxableValue:         order.TaxableValue,
		GrandTotal:           order.GrandTotal,
		Payments:             payments,
		AmountPaid:           order.AmountPaid,
		BalanceDue:           order.BalanceDue(),
		PaymentStatus:        string(order.PaymentStatus),
		AdvancePercentage:    order.AdvancePercentage,
		CurrentStage:         string(order.CurrentStage),
		StageHistory:         stages,
		ExpectedDeliveryDate: order.ExpectedDeliveryDate,
		DelayDays:            order.DelayDays,
		DeliveryStatus:       string(order.DeliveryStatus),
		CompletedAt:          order.CompletedAt,
		Documents:            documents,
		ActivityLog:          activity,
		Notes:                order.Notes,
		Version:              order.Version,
		CreatedAt:            order.CreatedAt,
		UpdatedAt:            order.UpdatedAt,
	}
}

// ToPaymentResponse converts a domain payment to a PaymentResponse
func ToPaymentResponse(payment *manufacturing.Payment) PaymentResponse {
	return PaymentResponse{
		ID:         payment.ID,
		Amount:     payment.Amount,
		Date:       payment.Date,
		Type:       string(payment.Type),
		Notes:      payment.Notes,
		RecordedBy: payment.RecordedBy,
		CreatedAt:  payment.CreatedAt,
		UpdatedAt:  payment.UpdatedAt,
	}
}

// ToDocumentResponse converts a domain document to a DocumentResponse
func ToDocumentResponse(doc *manufacturing.Document) DocumentResponse {
	return DocumentResponse{
		ID:        doc.ID,
		Name:      doc.Name,
		SlotKey:   string(doc.SlotKey),
		IsSystem:  doc.IsSystem,
		URL:       doc.URL,
		FileType:  doc.FileType,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}

// ToOrderListItemResponse converts a domain order to a list item
func ToOrderListItemResponse(order *manufacturing.Order) OrderListItemResponse {
	return OrderListItemResponse{
		ID:                   order.ID,
		OrderNumber:          order.OrderNumber,
		ClientID:             order.ClientID,
		ProductID:            order.ProductID,
		Quantity:             order.Quantity,
		GrandTotal:           order.GrandTotal,
		AmountPaid:           order.AmountPaid,
		PaymentStatus:        string(order.PaymentStatus),
		CurrentStage:         string(order.CurrentStage),
		ExpectedDeliveryDate: order.ExpectedDeliveryDate,
		DeliveryStatus:       string(order.DeliveryStatus),
		CreatedAt:            order.CreatedAt,
	}
}

// ToOrderListItemResponses converts a slice of domain orders to list items
func ToOrderListItemResponses(orders []manufacturing.Order) []OrderListItemResponse {
	responses := make([]OrderListItemResponse, len(orders))
	for i := range orders {
		responses[i] = ToOrderListItemResponse(&orders[i])
	}
	return responses
}

// toCustomCharges converts charge inputs to domain charges
func toCustomCharges(inputs []CustomChargeInput) []manufacturing.CustomCharge {
	if inputs == nil {
		return nil
	}
	charges := make([]manufacturing.CustomCharge, len(inputs))
	for i, input := range inputs {
		charges[i] = manufacturing.CustomCharge{Name: input.Name, Amount: input.Amount}
	}
	return charges
}
