package manufacturing

import (
	"context"

	"github.com/google/uuid"
	"github.com/loomworks/backend/internal/domain/shared"
)

// ErrTenantNotFound signals that a company (tenant) or its short code is missing
var ErrTenantNotFound = shared.NewDomainError("TENANT_NOT_FOUND", "Company not found")

// OrderRepository persists manufacturing orders. The order aggregate,
// including its embedded payments, documents, stage history and activity
// log, is the unit of atomic persistence.
type OrderRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Order, error)
	FindByOrderNumber(ctx context.Context, tenantID uuid.UUID, orderNumber string) (*Order, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Order, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)

	// NextSequence returns the next order sequence for a tenant. The value
	// is provisional: Save enforces uniqueness of (tenant, sequence) at
	// commit time and callers retry on conflict.
	NextSequence(ctx context.Context, tenantID uuid.UUID) (int, error)

	// Save inserts a new order. Returns shared.ErrAlreadyExists if another
	// order committed the same (tenant, sequence) first.
	Save(ctx context.Context, order *Order) error

	// SaveWithLock updates an existing order with an optimistic version
	// check. Returns a CONCURRENCY_CONFLICT domain error on a stale version.
	SaveWithLock(ctx context.Context, order *Order) error
}

// CompanyDirectory resolves tenant metadata owned by the company registry
type CompanyDirectory interface {
	// ShortCode returns the tenant's short human-readable code used in
	// order numbers. Returns ErrTenantNotFound if the tenant or its code
	// is missing.
	ShortCode(ctx context.Context, tenantID uuid.UUID) (string, error)
}
