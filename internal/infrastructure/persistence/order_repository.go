package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/loomworks/backend/internal/domain/manufacturing"
	"github.com/loomworks/backend/internal/domain/shared"
	"github.com/loomworks/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormOrderRepository implements manufacturing.OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByIDForTenant finds a manufacturing order by ID within a tenant
func (r *GormOrderRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*manufacturing.Order, error) {
	var model models.ManufacturingOrderModel
	if err := r.db.WithContext(ctx).
		Preload("Payments").
		Preload("Documents").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByOrderNumber finds a manufacturing order by order number for a tenant
func (r *GormOrderRepository) FindByOrderNumber(ctx context.Context, tenantID uuid.UUID, orderNumber string) (*manufacturing.Order, error) {
	var model models.ManufacturingOrderModel
	if err := r.db.WithContext(ctx).
		Preload("Payments").
		Preload("Documents").
		Where("tenant_id = ? AND order_number = ?", tenantID, orderNumber).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant finds all manufacturing orders for a tenant with filtering
func (r *GormOrderRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]manufacturing.Order, error) {
	var orderModels []models.ManufacturingOrderModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.ManufacturingOrderModel{}).
			Preload("Payments").
			Preload("Documents").
			Where("tenant_id = ?", tenantID),
		filter,
	)

	if err := query.Find(&orderModels).Error; err != nil {
		return nil, err
	}

	orders := make([]manufacturing.Order, len(orderModels))
	for i := range orderModels {
		orders[i] = *orderModels[i].ToDomain()
	}
	return orders, nil
}

// CountForTenant counts manufacturing orders for a tenant with optional filters
func (r *GormOrderRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.ManufacturingOrderModel{}).Where("tenant_id = ?", tenantID)
	query = r.applyFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// NextSequence returns the next order sequence for a tenant. The value is
// derived from the highest committed sequence; the unique index on
// (tenant_id, sequence) is the real arbiter, so concurrent allocations of the
// same value surface as shared.ErrAlreadyExists from Save.
func (r *GormOrderRepository) NextSequence(ctx context.Context, tenantID uuid.UUID) (int, error) {
	var next int
	if err := r.db.WithContext(ctx).
		Model(&models.ManufacturingOrderModel{}).
		Where("tenant_id = ?", tenantID).
		Select("COALESCE(MAX(sequence), 0) + 1").
		Scan(&next).Error; err != nil {
		return 0, err
	}
	return next, nil
}

// Save inserts a new manufacturing order with its embedded collections
func (r *GormOrderRepository) Save(ctx context.Context, order *manufacturing.Order) error {
	model := models.ManufacturingOrderModelFromDomain(order)

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormOrderRepository) SaveWithLock(ctx context.Context, order *manufacturing.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Get current version from database
		var currentVersion int
		versionQuery := tx.Model(&models.ManufacturingOrderModel{}).
			Where("id = ?", order.ID).
			Select("version").
			Scan(&currentVersion)
		if versionQuery.Error != nil {
			return versionQuery.Error
		}
		// Scan reports no error on zero rows; a vanished order is not a
		// version conflict
		if versionQuery.RowsAffected == 0 {
			return shared.ErrNotFound
		}

		// Check version matches
		if currentVersion != order.Version {
			return shared.ErrConcurrencyConflict
		}

		// Increment version
		order.Version++
		order.UpdatedAt = time.Now()

		// Update order with version check
		result := tx.Model(&models.ManufacturingOrderModel{}).
			Where("id = ? AND version = ?", order.ID, currentVersion).
			Updates(map[string]interface{}{
				"quantity":               order.Quantity,
				"unit_price":             order.UnitPrice,
				"discount":               order.Discount,
				"custom_charges":         models.CustomCharges(order.CustomCharges),
				"tax_rate":               order.TaxRate,
				"taxable_value":          order.TaxableValue,
				"grand_total":            order.GrandTotal,
				"amount_paid":            order.AmountPaid,
				"payment_status":         order.PaymentStatus,
				"advance_percentage":     order.AdvancePercentage,
				"current_stage":          order.CurrentStage,
				"stage_history":          models.StageEntries(order.StageHistory),
				"expected_delivery_date": order.ExpectedDeliveryDate,
				"delay_days":             order.DelayDays,
				"delivery_status":        order.DeliveryStatus,
				"completed_at":           order.CompletedAt,
				"activity_log":           models.ActivityEntries(order.ActivityLog),
				"notes":                  order.Notes,
				"version":                order.Version,
				"updated_at":             order.UpdatedAt,
			})

		if result.Error != nil {
			return result.Error
		}

		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		if err := r.savePayments(tx, order); err != nil {
			return err
		}
		return r.saveDocuments(tx, order)
	})
}

// savePayments reconciles the payment ledger rows with the aggregate state
func (r *GormOrderRepository) savePayments(tx *gorm.DB, order *manufacturing.Order) error {
	currentIDs := make([]uuid.UUID, len(order.Payments))
	for i, payment := range order.Payments {
		currentIDs[i] = payment.ID
	}

	// Delete payments not in the current list
	if len(currentIDs) > 0 {
		if err := tx.Where("order_id = ? AND id NOT IN ?", order.ID, currentIDs).
			Delete(&models.OrderPaymentModel{}).Error; err != nil {
			return err
		}
	} else {
		if err := tx.Where("order_id = ?", order.ID).
			Delete(&models.OrderPaymentModel{}).Error; err != nil {
			return err
		}
	}

	// Save/update remaining payments
	for i := range order.Payments {
		model := models.OrderPaymentModelFromDomain(order.ID, &order.Payments[i])
		if err := tx.Save(model).Error; err != nil {
			return err
		}
	}
	return nil
}

// saveDocuments reconciles the document rows with the aggregate state
func (r *GormOrderRepository) saveDocuments(tx *gorm.DB, order *manufacturing.Order) error {
	currentIDs := make([]uuid.UUID, len(order.Documents))
	for i, doc := range order.Documents {
		currentIDs[i] = doc.ID
	}

	// Delete documents not in the current list
	if len(currentIDs) > 0 {
		if err := tx.Where("order_id = ? AND id NOT IN ?", order.ID, currentIDs).
			Delete(&models.OrderDocumentModel{}).Error; err != nil {
			return err
		}
	} else {
		if err := tx.Where("order_id = ?", order.ID).
			Delete(&models.OrderDocumentModel{}).Error; err != nil {
			return err
		}
	}

	// Save/update remaining documents
	for i := range order.Documents {
		model := models.OrderDocumentModelFromDomain(order.ID, &order.Documents[i])
		if err := tx.Save(model).Error; err != nil {
			return err
		}
	}
	return nil
}

// applyFilter applies filter options to the query
func (r *GormOrderRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	// Apply sorting with whitelist validation to prevent SQL injection
	sortField := ValidateSortField(filter.OrderBy, ManufacturingOrderSortFields, "created_at")
	sortOrder := ValidateSortOrder(filter.OrderDir)
	query = query.Order(fmt.Sprintf("%s %s", sortField, sortOrder))

	return query.Offset(filter.Offset()).Limit(filter.Limit())
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormOrderRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	// Apply search
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("order_number ILIKE ?", searchPattern)
	}

	// Apply additional filters
	for key, value := range filter.Filters {
		switch key {
		case "client_id":
			query = query.Where("client_id = ?", value)
		case "product_id":
			query = query.Where("product_id = ?", value)
		case "current_stage":
			query = query.Where("current_stage = ?", value)
		case "payment_status":
			query = query.Where("payment_status = ?", value)
		case "delivery_status":
			query = query.Where("delivery_status = ?", value)
		case "start_date":
			if t, ok := value.(time.Time); ok {
				query = query.Where("created_at >= ?", t)
			}
		case "end_date":
			if t, ok := value.(time.Time); ok {
				query = query.Where("created_at <= ?", t)
			}
		}
	}

	return query
}

// Ensure GormOrderRepository implements OrderRepository
var _ manufacturing.OrderRepository = (*GormOrderRepository)(nil)
