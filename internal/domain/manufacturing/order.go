package manufacturing

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/loomworks/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// orderNumberPrefix is the fixed leading segment of every order number
const orderNumberPrefix = "LW"

// FormatOrderNumber renders a human-readable order number from the tenant's
// short code and the per-tenant sequence, e.g. "LW/ON/ACME/07". Sequences
// beyond 99 lose the two-digit padding; this is cosmetic, not a correctness
// concern.
func FormatOrderNumber(shortCode string, sequence int) string {
	return fmt.Sprintf("%s/ON/%s/%02d", orderNumberPrefix, shortCode, sequence)
}

// DefaultAdvancePercentage is the share of the grand total that must be paid
// before an order clears its advance stage
var DefaultAdvancePercentage = decimal.NewFromInt(60)

// Order is the aggregate root for a manufacturing order. It owns the payment
// ledger, the document slots, the stage timeline and the activity trail, and
// is the unit of persistence and optimistic concurrency control.
type Order struct {
	shared.TenantAggregateRoot
	OrderNumber string
	Sequence    int
	ClientID    uuid.UUID
	ProductID   uuid.UUID

	Quantity          int
	UnitPrice         decimal.Decimal
	Discount          decimal.Decimal
	CustomCharges     []CustomCharge
	TaxRate           int
	TaxableValue      decimal.Decimal
	GrandTotal        decimal.Decimal
	Payments          []Payment
	AmountPaid        decimal.Decimal
	PaymentStatus     PaymentStatus
	AdvancePercentage decimal.Decimal

	CurrentStage         Stage
	StageHistory         []StageEntry
	ExpectedDeliveryDate time.Time
	DelayDays            int
	DeliveryStatus       DeliveryStatus
	CompletedAt          *time.Time

	Documents   []Document
	ActivityLog []ActivityEntry
	Notes       string
}

// NewOrder creates a manufacturing order with its initial pricing snapshot.
// The order number and sequence must already be allocated for the tenant and
// are immutable afterwards.
func NewOrder(
	tenantID, clientID, productID uuid.UUID,
	orderNumber string, sequence int,
	quantity int, unitPrice, discount decimal.Decimal,
	charges []CustomCharge,
	expectedDelivery time.Time,
	actor uuid.UUID,
) (*Order, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Company ID cannot be empty")
	}
	if clientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CLIENT", "Client ID cannot be empty")
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if orderNumber == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if sequence < 1 {
		return nil, shared.NewDomainError("INVALID_SEQUENCE", "Order sequence must be positive")
	}
	if quantity < 1 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be at least 1")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	if discount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_DISCOUNT", "Discount cannot be negative")
	}
	if err := validateCustomCharges(charges); err != nil {
		return nil, err
	}

	order := &Order{
		TenantAggregateRoot:  shared.NewTenantAggregateRoot(tenantID),
		OrderNumber:          orderNumber,
		Sequence:             sequence,
		ClientID:             clientID,
		ProductID:            productID,
		Quantity:             quantity,
		UnitPrice:            unitPrice,
		Discount:             discount,
		CustomCharges:        charges,
		TaxRate:              TaxRatePercent,
		AmountPaid:           decimal.Zero,
		PaymentStatus:        PaymentStatusAdvancePending,
		AdvancePercentage:    DefaultAdvancePercentage,
		CurrentStage:         StageOrderConfirmed,
		ExpectedDeliveryDate: expectedDelivery,
		DeliveryStatus:       DeliveryOnTime,
	}
	if actor != uuid.Nil {
		order.SetCreatedBy(actor)
	}

	order.StageHistory = []StageEntry{{
		Stage:     StageOrderConfirmed,
		Status:    StageStatusInProgress,
		StartedAt: order.CreatedAt,
	}}

	order.reprice()
	order.recordActivity("order_created", fmt.Sprintf("Order %s created", orderNumber), actor)
	order.AddDomainEvent(NewOrderCreatedEvent(order))

	return order, nil
}

// UpdatePatch holds the allow-listed mutable fields of an order. Order
// number, sequence, payments, documents, activity log and timestamps are
// excluded: those change only through their dedicated operations.
type UpdatePatch struct {
	Quantity             *int
	UnitPrice            *decimal.Decimal
	Discount             *decimal.Decimal
	CustomCharges        *[]CustomCharge
	ExpectedDeliveryDate *time.Time
	DelayDays            *int
	DeliveryStatus       *DeliveryStatus
	Notes                *string
	PaymentStatus        *PaymentStatus
	AdvancePercentage    *decimal.Decimal
}

// ApplyPatch applies the allow-listed fields, re-derives pricing when any
// priced field changed and appends one activity entry per logically distinct
// change.
func (o *Order) ApplyPatch(patch UpdatePatch, actor uuid.UUID) error {
	var pricingChanges []string

	if patch.Quantity != nil && *patch.Quantity != o.Quantity {
		if *patch.Quantity < 1 {
			return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be at least 1")
		}
		pricingChanges = append(pricingChanges, fmt.Sprintf("quantity %d to %d", o.Quantity, *patch.Quantity))
		o.Quantity = *patch.Quantity
	}
	if patch.UnitPrice != nil && !patch.UnitPrice.Equal(o.UnitPrice) {
		if patch.UnitPrice.IsNegative() {
			return shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
		}
		pricingChanges = append(pricingChanges, fmt.Sprintf("unit price %s to %s", o.UnitPrice.StringFixed(2), patch.UnitPrice.StringFixed(2)))
		o.UnitPrice = *patch.UnitPrice
	}
	if patch.Discount != nil && !patch.Discount.Equal(o.Discount) {
		if patch.Discount.IsNegative() {
			return shared.NewDomainError("INVALID_DISCOUNT", "Discount cannot be negative")
		}
		pricingChanges = append(pricingChanges, fmt.Sprintf("discount %s to %s", o.Discount.StringFixed(2), patch.Discount.StringFixed(2)))
		o.Discount = *patch.Discount
	}
	if patch.CustomCharges != nil {
		if err := validateCustomCharges(*patch.CustomCharges); err != nil {
			return err
		}
		pricingChanges = append(pricingChanges, fmt.Sprintf("custom charges (%d item(s))", len(*patch.CustomCharges)))
		o.CustomCharges = *patch.CustomCharges
	}
	if patch.AdvancePercentage != nil && !patch.AdvancePercentage.Equal(o.AdvancePercentage) {
		if patch.AdvancePercentage.IsNegative() {
			return shared.NewDomainError("INVALID_ADVANCE_PERCENTAGE", "Advance percentage cannot be negative")
		}
		o.AdvancePercentage = *patch.AdvancePercentage
		o.derivePaymentStatus()
		o.recordActivity("order_updated", fmt.Sprintf("Changed advance threshold to %s%%", o.AdvancePercentage.String()), actor)
	}

	if len(pricingChanges) > 0 {
		o.reprice()
		o.recordActivity("order_updated", "Changed "+strings.Join(pricingChanges, ", "), actor)
	}

	if patch.ExpectedDeliveryDate != nil && !patch.ExpectedDeliveryDate.Equal(o.ExpectedDeliveryDate) {
		// An explicit new date becomes the new undelayed baseline
		o.ExpectedDeliveryDate = *patch.ExpectedDeliveryDate
		o.DelayDays = 0
		o.DeliveryStatus = DeliveryOnTime
		o.recordActivity("order_updated",
			fmt.Sprintf("Changed expected delivery date to %s", o.ExpectedDeliveryDate.Format("2006-01-02")), actor)
	}
	if patch.DelayDays != nil {
		if err := o.SetDeliveryDelay(*patch.DelayDays, actor); err != nil {
			return err
		}
	} else if patch.DeliveryStatus != nil && *patch.DeliveryStatus != o.DeliveryStatus {
		if !patch.DeliveryStatus.IsValid() {
			return shared.NewDomainError("INVALID_DELIVERY_STATUS", fmt.Sprintf("Unknown delivery status %q", *patch.DeliveryStatus))
		}
		if *patch.DeliveryStatus == DeliveryOnTime {
			// Returning to on-time discards any recorded delay
			if err := o.SetDeliveryDelay(0, actor); err != nil {
				return err
			}
		} else {
			o.DeliveryStatus = DeliveryDelayed
			o.recordActivity("order_updated", "Marked delivery as delayed", actor)
		}
	}

	if patch.Notes != nil && *patch.Notes != o.Notes {
		o.Notes = *patch.Notes
		o.recordActivity("order_updated", "Updated order notes", actor)
	}

	if patch.PaymentStatus != nil {
		if err := o.overridePaymentStatus(*patch.PaymentStatus, actor); err != nil {
			return err
		}
	}

	o.UpdatedAt = time.Now()
	return nil
}

// overridePaymentStatus handles the explicit status override path. Setting
// Cancelled sticks and suppresses derivation; any other valid value clears
// the cancellation and hands the status back to derivation, which is
// authoritative.
func (o *Order) overridePaymentStatus(status PaymentStatus, actor uuid.UUID) error {
	if !status.IsValid() {
		return shared.NewDomainError("INVALID_PAYMENT_STATUS", fmt.Sprintf("Unknown payment status %q", status))
	}
	if status == PaymentStatusCancelled {
		if o.PaymentStatus != PaymentStatusCancelled {
			o.PaymentStatus = PaymentStatusCancelled
			o.recordActivity("payment_status_changed", "Payment cancelled", actor)
		}
		return nil
	}
	if o.PaymentStatus == PaymentStatusCancelled {
		o.PaymentStatus = PaymentStatusAdvancePending
		o.derivePaymentStatus()
		o.recordActivity("payment_status_changed",
			fmt.Sprintf("Payment reinstated, status now %s", o.PaymentStatus), actor)
	}
	return nil
}

// reprice re-derives the money totals from the current priced fields and
// re-derives the payment status against the new grand total
func (o *Order) reprice() {
	breakdown := Price(o.UnitPrice, o.Quantity, o.Discount, o.CustomCharges)
	o.TaxableValue = breakdown.TaxableValue
	o.GrandTotal = breakdown.GrandTotal
	o.derivePaymentStatus()
}

// BalanceDue returns the outstanding amount against the grand total
func (o *Order) BalanceDue() decimal.Decimal {
	balance := o.GrandTotal.Sub(o.AmountPaid)
	if balance.IsNegative() {
		return decimal.Zero
	}
	return balance
}

func validateCustomCharges(charges []CustomCharge) error {
	for _, charge := range charges {
		if charge.Name == "" {
			return shared.NewDomainError("INVALID_CHARGE", "Custom charge name cannot be empty")
		}
		if charge.Amount.IsNegative() {
			return shared.NewDomainError("INVALID_CHARGE", "Custom charge amount cannot be negative")
		}
	}
	return nil
}
