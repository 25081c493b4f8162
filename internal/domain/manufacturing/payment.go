package manufacturing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/loomworks/backend/internal/domain/shared"
	"github.com/loomworks/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// PaymentType classifies a payment within the order's settlement lifecycle
type PaymentType string

const (
	PaymentTypeAdvance     PaymentType = "advance"
	PaymentTypeInstallment PaymentType = "installment"
	PaymentTypeFinal       PaymentType = "final"
)

// IsValid checks if the payment type is valid
func (t PaymentType) IsValid() bool {
	switch t {
	case PaymentTypeAdvance, PaymentTypeInstallment, PaymentTypeFinal:
		return true
	}
	return false
}

// PaymentStatus is the settlement state of an order, derived from the
// recorded payments against the grand total
type PaymentStatus string

const (
	PaymentStatusAdvancePending PaymentStatus = "advance-pending"
	PaymentStatusBalancePending PaymentStatus = "balance-pending"
	PaymentStatusFullSettlement PaymentStatus = "full-settlement"
	PaymentStatusCancelled      PaymentStatus = "cancelled"
)

// IsValid checks if the payment status is valid
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusAdvancePending, PaymentStatusBalancePending,
		PaymentStatusFullSettlement, PaymentStatusCancelled:
		return true
	}
	return false
}

// Payment is a single installment recorded against an order
type Payment struct {
	ID         uuid.UUID       `json:"id"`
	Amount     decimal.Decimal `json:"amount"`
	Date       time.Time       `json:"date"`
	Type       PaymentType     `json:"type"`
	Notes      string          `json:"notes,omitempty"`
	RecordedBy uuid.UUID       `json:"recorded_by"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// PaymentPatch holds the mutable fields of an existing payment
type PaymentPatch struct {
	Amount *decimal.Decimal
	Date   *time.Time
	Type   *PaymentType
	Notes  *string
}

// AddPayment appends a payment to the order's ledger, recomputes the amount
// paid and re-derives the payment status.
func (o *Order) AddPayment(amount valueobject.Money, date time.Time, paymentType PaymentType, notes string, actor uuid.UUID) (*Payment, error) {
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if paymentType == "" {
		paymentType = PaymentTypeInstallment
	}
	if !paymentType.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_TYPE", fmt.Sprintf("Unknown payment type %q", paymentType))
	}

	now := time.Now()
	if date.IsZero() {
		date = now
	}

	payment := Payment{
		ID:         uuid.New(),
		Amount:     amount.Amount(),
		Date:       date,
		Type:       paymentType,
		Notes:      notes,
		RecordedBy: actor,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	o.Payments = append(o.Payments, payment)
	o.recalculatePayments()
	o.UpdatedAt = now

	o.recordActivity("payment_recorded",
		fmt.Sprintf("Recorded %s payment of %s", paymentType, amount), actor)
	o.AddDomainEvent(NewOrderPaymentRecordedEvent(o, &payment))

	return &o.Payments[len(o.Payments)-1], nil
}

// UpdatePayment mutates an existing payment's amount, date, type or notes,
// then recomputes the amount paid and payment status.
func (o *Order) UpdatePayment(paymentID uuid.UUID, patch PaymentPatch, actor uuid.UUID) (*Payment, error) {
	payment := o.paymentByID(paymentID)
	if payment == nil {
		return nil, shared.NewDomainError("PAYMENT_NOT_FOUND", "Payment not found on this order")
	}

	if patch.Amount != nil {
		if !patch.Amount.IsPositive() {
			return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
		}
		payment.Amount = *patch.Amount
	}
	if patch.Date != nil {
		payment.Date = *patch.Date
	}
	if patch.Type != nil {
		if !patch.Type.IsValid() {
			return nil, shared.NewDomainError("INVALID_PAYMENT_TYPE", fmt.Sprintf("Unknown payment type %q", *patch.Type))
		}
		payment.Type = *patch.Type
	}
	if patch.Notes != nil {
		payment.Notes = *patch.Notes
	}

	now := time.Now()
	payment.UpdatedAt = now
	o.recalculatePayments()
	o.UpdatedAt = now

	o.recordActivity("payment_updated",
		fmt.Sprintf("Updated payment of %s (total paid now %s)", payment.Amount.StringFixed(2), o.AmountPaid.StringFixed(2)), actor)

	return payment, nil
}

// DeletePayment removes a payment from the ledger, then recomputes the
// amount paid and payment status.
func (o *Order) DeletePayment(paymentID uuid.UUID, actor uuid.UUID) error {
	for idx, payment := range o.Payments {
		if payment.ID == paymentID {
			o.Payments = append(o.Payments[:idx], o.Payments[idx+1:]...)
			o.recalculatePayments()
			o.UpdatedAt = time.Now()
			o.recordActivity("payment_deleted",
				fmt.Sprintf("Deleted payment of %s (total paid now %s)", payment.Amount.StringFixed(2), o.AmountPaid.StringFixed(2)), actor)
			return nil
		}
	}
	return shared.NewDomainError("PAYMENT_NOT_FOUND", "Payment not found on this order")
}

// recalculatePayments restores the invariant that AmountPaid is the sum of
// the recorded payments, then re-derives the payment status.
func (o *Order) recalculatePayments() {
	total := decimal.Zero
	for _, payment := range o.Payments {
		total = total.Add(payment.Amount)
	}
	o.AmountPaid = total
	o.derivePaymentStatus()
}

// derivePaymentStatus derives the settlement state from the amount paid.
// Cancelled is sticky: it is only set by explicit instruction and suppresses
// derivation until explicitly cleared.
func (o *Order) derivePaymentStatus() {
	if o.PaymentStatus == PaymentStatusCancelled {
		return
	}

	threshold := o.GrandTotal.Mul(o.AdvancePercentage).Div(decimal.NewFromInt(100))
	switch {
	case o.AmountPaid.GreaterThanOrEqual(o.GrandTotal):
		o.PaymentStatus = PaymentStatusFullSettlement
	case o.AmountPaid.GreaterThanOrEqual(threshold):
		o.PaymentStatus = PaymentStatusBalancePending
	default:
		o.PaymentStatus = PaymentStatusAdvancePending
	}
}

// paymentByID returns the payment with the given ID, or nil
func (o *Order) paymentByID(paymentID uuid.UUID) *Payment {
	for idx := range o.Payments {
		if o.Payments[idx].ID == paymentID {
			return &o.Payments[idx]
		}
	}
	return nil
}

// GetPayment returns a payment by its ID
func (o *Order) GetPayment(paymentID uuid.UUID) *Payment {
	return o.paymentByID(paymentID)
}
