// Package notify delivers order lifecycle notifications. The current
// implementation writes structured log records; a mail or webhook transport
// can replace it behind the same event subscription.
package notify

import (
	"context"

	"github.com/loomworks/backend/internal/domain/manufacturing"
	"github.com/loomworks/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// OrderNotifier subscribes to manufacturing order events and emits one
// notification per event. Notification failures are soft: the business
// operation that raised the event has already committed.
type OrderNotifier struct {
	logger *zap.Logger
}

// NewOrderNotifier creates a new OrderNotifier
func NewOrderNotifier(logger *zap.Logger) *OrderNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderNotifier{logger: logger.Named("notify")}
}

// EventTypes returns the order events the notifier reacts to
func (n *OrderNotifier) EventTypes() []string {
	return []string{
		manufacturing.EventOrderCreated,
		manufacturing.EventOrderPaymentRecorded,
		manufacturing.EventOrderStageAdvanced,
		manufacturing.EventOrderDocumentAttached,
	}
}

// Handle emits a notification for a single order event
func (n *OrderNotifier) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *manufacturing.OrderCreatedEvent:
		n.logger.Info("order created notification",
			zap.String("tenant_id", e.TenantID().String()),
			zap.String("order_number", e.OrderNumber),
			zap.String("grand_total", e.GrandTotal.String()),
		)
	case *manufacturing.OrderPaymentRecordedEvent:
		n.logger.Info("payment recorded notification",
			zap.String("tenant_id", e.TenantID().String()),
			zap.String("order_number", e.OrderNumber),
			zap.String("amount", e.Amount.String()),
			zap.String("payment_status", string(e.PaymentStatus)),
		)
	case *manufacturing.OrderStageAdvancedEvent:
		n.logger.Info("stage advanced notification",
			zap.String("tenant_id", e.TenantID().String()),
			zap.String("order_number", e.OrderNumber),
			zap.String("stage", string(e.Stage)),
			zap.String("stage_status", string(e.StageStatus)),
		)
	case *manufacturing.OrderDocumentAttachedEvent:
		n.logger.Info("document attached notification",
			zap.String("tenant_id", e.TenantID().String()),
			zap.String("order_number", e.OrderNumber),
			zap.String("document", e.DocumentName),
			zap.String("slot", string(e.SlotKey)),
		)
	default:
		n.logger.Debug("unhandled event type", zap.String("event_type", event.EventType()))
	}
	return nil
}

// Ensure OrderNotifier implements EventHandler
var _ shared.EventHandler = (*OrderNotifier)(nil)
