package manufacturing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/loomworks/backend/internal/domain/manufacturing"
	"github.com/loomworks/backend/internal/domain/shared"
	"github.com/loomworks/backend/internal/domain/shared/valueobject"
)

// maxSequenceRetries bounds how often Create re-allocates a sequence after
// losing the (tenant, sequence) uniqueness race to a concurrent creator
const maxSequenceRetries = 3

// OrderService handles manufacturing order business operations
type OrderService struct {
	orderRepo      manufacturing.OrderRepository
	companies      manufacturing.CompanyDirectory
	eventPublisher shared.EventPublisher
}

// NewOrderService creates a new OrderService
func NewOrderService(orderRepo manufacturing.OrderRepository, companies manufacturing.CompanyDirectory) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		companies: companies,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *OrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create creates a new manufacturing order. The order number is derived from
// the tenant's short code and a per-tenant sequence; uniqueness is enforced
// at commit time and lost races are retried with a fresh sequence.
func (s *OrderService) Create(ctx context.Context, tenantID, actorID uuid.UUID, req CreateOrderRequest) (*OrderResponse, error) {
	shortCode, err := s.companies.ShortCode(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxSequenceRetries; attempt++ {
		sequence, err := s.orderRepo.NextSequence(ctx, tenantID)
		if err != nil {
			return nil, err
		}

		order, err := manufacturing.NewOrder(
			tenantID,
			req.ClientID,
			req.ProductID,
			manufacturing.FormatOrderNumber(shortCode, sequence),
			sequence,
			req.Quantity,
			req.UnitPrice,
			req.Discount,
			toCustomCharges(req.CustomCharges),
			req.ExpectedDeliveryDate,
			actorID,
		)
		if err != nil {
			return nil, err
		}
		order.Notes = req.Notes

		if req.InitialPayment != nil {
			_, err := order.AddPayment(
				valueobject.NewMoneyINR(req.InitialPayment.Amount),
				timeOrZero(req.InitialPayment.Date),
				manufacturing.PaymentType(req.InitialPayment.Type),
				req.InitialPayment.Notes,
				actorID,
			)
			if err != nil {
				return nil, err
			}
		}

		if err := s.orderRepo.Save(ctx, order); err != nil {
			// Another creator committed this sequence first, allocate again
			if errors.Is(err, shared.ErrAlreadyExists) {
				continue
			}
			return nil, err
		}

		s.publishEvents(ctx, order)
		response := ToOrderResponse(order)
		return &response, nil
	}

	return nil, shared.NewDomainError("CONCURRENCY_CONFLICT",
		"Could not allocate an order number, please retry")
}

// GetByID retrieves an order by ID
func (s *OrderService) GetByID(ctx context.Context, tenantID, orderID uuid.UUID) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	response := ToOrderResponse(order)
	return &response, nil
}

// GetByOrderNumber retrieves an order by its human-readable order number
func (s *OrderService) GetByOrderNumber(ctx context.Context, tenantID uuid.UUID, orderNumber string) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByOrderNumber(ctx, tenantID, orderNumber)
	if err != nil {
		return nil, err
	}
	response := ToOrderResponse(order)
	return &response, nil
}

// List retrieves orders with filtering and pagination
func (s *OrderService) List(ctx context.Context, tenantID uuid.UUID, filter OrderListFilter) ([]OrderListItemResponse, int64, error) {
	// Set defaults
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "created_at"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]interface{}),
	}

	if filter.ClientID != nil {
		domainFilter.Filters["client_id"] = *filter.ClientID
	}
	if filter.Stage != nil {
		domainFilter.Filters["current_stage"] = *filter.Stage
	}
	if filter.PaymentStatus != nil {
		domainFilter.Filters["payment_status"] = *filter.PaymentStatus
	}
	if filter.DeliveryStatus != nil {
		domainFilter.Filters["delivery_status"] = *filter.DeliveryStatus
	}
	if filter.StartDate != nil {
		domainFilter.Filters["start_date"] = *filter.StartDate
	}
	if filter.EndDate != nil {
		domainFilter.Filters["end_date"] = *filter.EndDate
	}

	orders, err := s.orderRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.orderRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToOrderListItemResponses(orders), total, nil
}

// Update applies a partial update to an order
func (s *OrderService) Update(ctx context.Context, tenantID, orderID, actorID uuid.UUID, req UpdateOrderRequest) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}

	patch := manufacturing.UpdatePatch{
		Quantity:             req.Quantity,
		UnitPrice:            req.UnitPrice,
		Discount:             req.Discount,
		ExpectedDeliveryDate: req.ExpectedDeliveryDate,
		DelayDays:            req.DelayDays,
		Notes:                req.Notes,
		AdvancePercentage:    req.AdvancePercentage,
	}
	if req.CustomCharges != nil {
		charges := toCustomCharges(*req.CustomCharges)
		patch.CustomCharges = &charges
	}
	if req.DeliveryStatus != nil {
		status := manufacturing.DeliveryStatus(*req.DeliveryStatus)
		patch.DeliveryStatus = &status
	}
	if req.PaymentStatus != nil {
		status := manufacturing.PaymentStatus(*req.PaymentStatus)
		patch.PaymentStatus = &status
	}

	if err := order.ApplyPatch(patch, actorID); err != nil {
		return nil, err
	}

	// Save with optimistic locking
	if err := s.orderRepo.SaveWithLock(ctx, order); err != nil {
		return nil, err
	}

	response := ToOrderResponse(order)
	return &response, nil
}

// AdvanceStage moves an order to a manufacturing stage
func (s *OrderService) AdvanceStage(ctx context.Context, tenantID, orderID, actorID uuid.UUID, req AdvanceStageRequest) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}

	if err := order.AdvanceStage(manufacturing.Stage(req.Stage), manufacturing.StageStatus(req.Status), actorID); err != nil {
		return nil, err
	}

	// Save with optimistic locking
	if err := s.orderRepo.SaveWithLock(ctx, order); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, order)
	response := ToOrderResponse(order)
	return &response, nil
}

// SetDeliveryDelay records an absolute delivery delay on an order
func (s *OrderService) SetDeliveryDelay(ctx context.Context, tenantID, orderID, actorID uuid.UUID, req SetDeliveryDelayRequest) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}

	if err := order.SetDeliveryDelay(req.DelayDays, actorID); err != nil {
		return nil, err
	}

	if err := s.orderRepo.SaveWithLock(ctx, order); err != nil {
		return nil, err
	}

	response := ToOrderResponse(order)
	return &response, nil
}

// RecordPayment adds a payment to an order's ledger
func (s *OrderService) RecordPayment(ctx context.Context, tenantID, orderID, actorID uuid.UUID, req RecordPaymentRequest) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}

	_, err = order.AddPayment(
		valueobject.NewMoneyINR(req.Amount),
		timeOrZero(req.Date),
		manufacturing.PaymentType(req.Type),
		req.Notes,
		actorID,
	)
	if err != nil {
		return nil, err
	}

	// Save with optimistic locking
	if err := s.orderRepo.SaveWithLock(ctx, order); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, order)
	response := ToOrderResponse(order)
	return &response, nil
}

// UpdatePayment updates a recorded payment
func (s *OrderService) UpdatePayment(ctx context.Context, tenantID, orderID, paymentID, actorID uuid.UUID, req UpdatePaymentRequest) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}

	patch := manufacturing.PaymentPatch{
		Amount: req.Amount,
		Date:   req.Date,
		Notes:  req.Notes,
	}
	if req.Type != nil {
		paymentType := manufacturing.PaymentType(*req.Type)
		patch.Type = &paymentType
	}

	if _, err := order.UpdatePayment(paymentID, patch, actorID); err != nil {
		return nil, err
	}

	if err := s.orderRepo.SaveWithLock(ctx, order); err != nil {
		return nil, err
	}

	response := ToOrderResponse(order)
	return &response, nil
}

// DeletePayment removes a recorded payment
func (s *OrderService) DeletePayment(ctx context.Context, tenantID, orderID, paymentID, actorID uuid.UUID) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}

	if err := order.DeletePayment(paymentID, actorID); err != nil {
		return nil, err
	}

	if err := s.orderRepo.SaveWithLock(ctx, order); err != nil {
		return nil, err
	}

	response := ToOrderResponse(order)
	return &response, nil
}

// LogActivity appends a manual entry to an order's activity trail
func (s *OrderService) LogActivity(ctx context.Context, tenantID, orderID, actorID uuid.UUID, req LogActivityRequest) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}

	if err := order.LogActivity(req.Action, req.Details, actorID); err != nil {
		return nil, err
	}

	if err := s.orderRepo.SaveWithLock(ctx, order); err != nil {
		return nil, err
	}

	response := ToOrderResponse(order)
	return &response, nil
}

// publishEvents publishes pending domain events for cross-context
// integration. Event handling is async; failures never fail the operation.
func (s *OrderService) publishEvents(ctx context.Context, order *manufacturing.Order) {
	if s.eventPublisher == nil {
		return
	}
	for _, event := range order.GetDomainEvents() {
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			// Log error but don't fail the operation
			continue
		}
	}
	order.ClearDomainEvents()
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
