package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/loomworks/backend/internal/domain/manufacturing"
	"github.com/loomworks/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// CustomCharges is a slice of CustomCharge that implements GORM Scanner/Valuer for JSONB storage
type CustomCharges []manufacturing.CustomCharge

// Value implements driver.Valuer interface for GORM to store as JSONB
func (c CustomCharges) Value() (driver.Value, error) {
	if c == nil {
		return "[]", nil
	}
	return json.Marshal(c)
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (c *CustomCharges) Scan(value interface{}) error {
	return scanJSON(value, (*[]manufacturing.CustomCharge)(c))
}

// StageEntries is a slice of StageEntry that implements GORM Scanner/Valuer for JSONB storage
type StageEntries []manufacturing.StageEntry

// Value implements driver.Valuer interface for GORM to store as JSONB
func (s StageEntries) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	return json.Marshal(s)
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (s *StageEntries) Scan(value interface{}) error {
	return scanJSON(value, (*[]manufacturing.StageEntry)(s))
}

// ActivityEntries is a slice of ActivityEntry that implements GORM Scanner/Valuer for JSONB storage
type ActivityEntries []manufacturing.ActivityEntry

// Value implements driver.Valuer interface for GORM to store as JSONB
func (a ActivityEntries) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	return json.Marshal(a)
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (a *ActivityEntries) Scan(value interface{}) error {
	return scanJSON(value, (*[]manufacturing.ActivityEntry)(a))
}

// scanJSON decodes a JSONB column into dst, treating NULL and empty as an empty slice
func scanJSON[T any](value interface{}, dst *[]T) error {
	if value == nil {
		*dst = []T{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan JSONB column: unsupported type")
	}

	if len(bytes) == 0 {
		*dst = []T{}
		return nil
	}

	return json.Unmarshal(bytes, dst)
}

// ManufacturingOrderModel is the persistence model for the manufacturing Order aggregate root.
// TenantID and CreatedBy are declared inline rather than through TenantAggregateModel so
// the tenant column can participate in the composite unique indexes that back per-tenant
// order numbers and sequence allocation.
type ManufacturingOrderModel struct {
	AggregateModel
	TenantID    uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:idx_manufacturing_order_tenant_number,priority:1;uniqueIndex:idx_manufacturing_order_tenant_sequence,priority:1"`
	CreatedBy   *uuid.UUID `gorm:"type:uuid;index"`
	OrderNumber string     `gorm:"type:varchar(50);not null;uniqueIndex:idx_manufacturing_order_tenant_number,priority:2"`
	Sequence    int        `gorm:"not null;uniqueIndex:idx_manufacturing_order_tenant_sequence,priority:2"`
	ClientID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID  `gorm:"type:uuid;not null;index"`

	Quantity          int                          `gorm:"not null"`
	UnitPrice         decimal.Decimal              `gorm:"type:decimal(18,4);not null;default:0"`
	Discount          decimal.Decimal              `gorm:"type:decimal(18,4);not null;default:0"`
	CustomCharges     CustomCharges                `gorm:"type:jsonb;default:'[]'"`
	TaxRate           int                          `gorm:"not null;default:5"`
	TaxableValue      decimal.Decimal              `gorm:"type:decimal(18,4);not null;default:0"`
	GrandTotal        decimal.Decimal              `gorm:"type:decimal(18,4);not null;default:0"`
	AmountPaid        decimal.Decimal              `gorm:"type:decimal(18,4);not null;default:0"`
	PaymentStatus     manufacturing.PaymentStatus  `gorm:"type:varchar(30);not null;default:'advance-pending';index"`
	AdvancePercentage decimal.Decimal              `gorm:"type:decimal(5,2);not null;default:60"`
	Payments          []OrderPaymentModel          `gorm:"foreignKey:OrderID;references:ID"`

	CurrentStage         manufacturing.Stage          `gorm:"type:varchar(30);not null;default:'order-confirmed';index"`
	StageHistory         StageEntries                 `gorm:"type:jsonb;default:'[]'"`
	ExpectedDeliveryDate time.Time                    `gorm:"not null"`
	DelayDays            int                          `gorm:"not null;default:0"`
	DeliveryStatus       manufacturing.DeliveryStatus `gorm:"type:varchar(20);not null;default:'on-time';index"`
	CompletedAt          *time.Time

	Documents   []OrderDocumentModel `gorm:"foreignKey:OrderID;references:ID"`
	ActivityLog ActivityEntries      `gorm:"type:jsonb;default:'[]'"`
	Notes       string               `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ManufacturingOrderModel) TableName() string {
	return "manufacturing_orders"
}

// ToDomain converts the persistence model to a domain Order aggregate.
func (m *ManufacturingOrderModel) ToDomain() *manufacturing.Order {
	order := &manufacturing.Order{
		TenantAggregateRoot: shared.TenantAggregateRoot{
			BaseAggregateRoot: shared.BaseAggregateRoot{
				BaseEntity: shared.BaseEntity{
					ID:        m.ID,
					CreatedAt: m.CreatedAt,
					UpdatedAt: m.UpdatedAt,
				},
				Version: m.Version,
			},
			TenantID:  m.TenantID,
			CreatedBy: m.CreatedBy,
		},
		OrderNumber:          m.OrderNumber,
		Sequence:             m.Sequence,
		ClientID:             m.ClientID,
		ProductID:            m.ProductID,
		Quantity:             m.Quantity,
		UnitPrice:            m.UnitPrice,
		Discount:             m.Discount,
		CustomCharges:        m.CustomCharges,
		TaxRate:              m.TaxRate,
		TaxableValue:         m.TaxableValue,
		GrandTotal:           m.GrandTotal,
		AmountPaid:           m.AmountPaid,
		PaymentStatus:        m.PaymentStatus,
		AdvancePercentage:    m.AdvancePercentage,
		CurrentStage:         m.CurrentStage,
		StageHistory:         m.StageHistory,
		ExpectedDeliveryDate: m.ExpectedDeliveryDate,
		DelayDays:            m.DelayDays,
		DeliveryStatus:       m.DeliveryStatus,
		CompletedAt:          m.CompletedAt,
		ActivityLog:          m.ActivityLog,
		Notes:                m.Notes,
		Payments:             make([]manufacturing.Payment, len(m.Payments)),
		Documents:            make([]manufacturing.Document, len(m.Documents)),
	}
	for i, payment := range m.Payments {
		order.Payments[i] = *payment.ToDomain()
	}
	for i, doc := range m.Documents {
		order.Documents[i] = *doc.ToDomain()
	}
	return order
}

// FromDomain populates the persistence model from a domain Order aggregate.
func (m *ManufacturingOrderModel) FromDomain(o *manufacturing.Order) {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.TenantID = o.TenantID
	m.CreatedBy = o.CreatedBy
	m.OrderNumber = o.OrderNumber
	m.Sequence = o.Sequence
	m.ClientID = o.ClientID
	m.ProductID = o.ProductID
	m.Quantity = o.Quantity
	m.UnitPrice = o.UnitPrice
	m.Discount = o.Discount
	m.CustomCharges = o.CustomCharges
	m.TaxRate = o.TaxRate
	m.TaxableValue = o.TaxableValue
	m.GrandTotal = o.GrandTotal
	m.AmountPaid = o.AmountPaid
	m.PaymentStatus = o.PaymentStatus
	m.AdvancePercentage = o.AdvancePercentage
	m.CurrentStage = o.CurrentStage
	m.StageHistory = o.StageHistory
	m.ExpectedDeliveryDate = o.ExpectedDeliveryDate
	m.DelayDays = o.DelayDays
	m.DeliveryStatus = o.DeliveryStatus
	m.CompletedAt = o.CompletedAt
	m.ActivityLog = o.ActivityLog
	m.Notes = o.Notes
	m.Payments = make([]OrderPaymentModel, len(o.Payments))
	for i, payment := range o.Payments {
		m.Payments[i] = *OrderPaymentModelFromDomain(o.ID, &payment)
	}
	m.Documents = make([]OrderDocumentModel, len(o.Documents))
	for i, doc := range o.Documents {
		m.Documents[i] = *OrderDocumentModelFromDomain(o.ID, &doc)
	}
}

// ManufacturingOrderModelFromDomain creates a new persistence model from a domain Order aggregate.
func ManufacturingOrderModelFromDomain(o *manufacturing.Order) *ManufacturingOrderModel {
	m := &ManufacturingOrderModel{}
	m.FromDomain(o)
	return m
}

// OrderPaymentModel is the persistence model for a payment ledger entry.
type OrderPaymentModel struct {
	ID         uuid.UUID                 `gorm:"type:uuid;primary_key"`
	OrderID    uuid.UUID                 `gorm:"type:uuid;not null;index"`
	Amount     decimal.Decimal           `gorm:"type:decimal(18,4);not null"`
	Date       time.Time                 `gorm:"not null;index"`
	Type       manufacturing.PaymentType `gorm:"type:varchar(20);not null;default:'installment'"`
	Notes      string                    `gorm:"type:varchar(500)"`
	RecordedBy uuid.UUID                 `gorm:"type:uuid"`
	CreatedAt  time.Time                 `gorm:"not null"`
	UpdatedAt  time.Time                 `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderPaymentModel) TableName() string {
	return "manufacturing_order_payments"
}

// ToDomain converts the persistence model to a domain Payment entry.
func (m *OrderPaymentModel) ToDomain() *manufacturing.Payment {
	return &manufacturing.Payment{
		ID:         m.ID,
		Amount:     m.Amount,
		Date:       m.Date,
		Type:       m.Type,
		Notes:      m.Notes,
		RecordedBy: m.RecordedBy,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

// OrderPaymentModelFromDomain creates a persistence model from a domain Payment entry.
func OrderPaymentModelFromDomain(orderID uuid.UUID, p *manufacturing.Payment) *OrderPaymentModel {
	return &OrderPaymentModel{
		ID:         p.ID,
		OrderID:    orderID,
		Amount:     p.Amount,
		Date:       p.Date,
		Type:       p.Type,
		Notes:      p.Notes,
		RecordedBy: p.RecordedBy,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

// OrderDocumentModel is the persistence model for an attached document.
type OrderDocumentModel struct {
	ID         uuid.UUID             `gorm:"type:uuid;primary_key"`
	OrderID    uuid.UUID             `gorm:"type:uuid;not null;index"`
	Name       string                `gorm:"type:varchar(200);not null"`
	SlotKey    manufacturing.SlotKey `gorm:"type:varchar(30);not null"`
	IsSystem   bool                  `gorm:"not null;default:false"`
	URL        string                `gorm:"type:text"`
	FileType   string                `gorm:"type:varchar(100)"`
	StorageKey string                `gorm:"type:varchar(500)"`
	CreatedAt  time.Time             `gorm:"not null"`
	UpdatedAt  time.Time             `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderDocumentModel) TableName() string {
	return "manufacturing_order_documents"
}

// ToDomain converts the persistence model to a domain Document.
func (m *OrderDocumentModel) ToDomain() *manufacturing.Document {
	return &manufacturing.Document{
		ID:         m.ID,
		Name:       m.Name,
		SlotKey:    m.SlotKey,
		IsSystem:   m.IsSystem,
		URL:        m.URL,
		FileType:   m.FileType,
		StorageKey: m.StorageKey,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

// OrderDocumentModelFromDomain creates a persistence model from a domain Document.
func OrderDocumentModelFromDomain(orderID uuid.UUID, d *manufacturing.Document) *OrderDocumentModel {
	return &OrderDocumentModel{
		ID:         d.ID,
		OrderID:    orderID,
		Name:       d.Name,
		SlotKey:    d.SlotKey,
		IsSystem:   d.IsSystem,
		URL:        d.URL,
		FileType:   d.FileType,
		StorageKey: d.StorageKey,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}
