// Package directory resolves company (tenant) metadata for the order
// pipeline. Lookups hit the companies table with a Redis cache in front of
// the short codes used in every order number.
package directory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/loomworks/backend/internal/domain/manufacturing"
	"github.com/loomworks/backend/internal/infrastructure/persistence/models"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultShortCodeTTL = 30 * time.Minute

// CompanyDirectory implements manufacturing.CompanyDirectory backed by the
// companies table. Short codes are cached in Redis because they are read on
// every order creation and change essentially never. Cache failures degrade
// to a database lookup, they are never surfaced to the caller.
type CompanyDirectory struct {
	db     *gorm.DB
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// CompanyDirectoryOption is a functional option for configuring the directory
type CompanyDirectoryOption func(*CompanyDirectory)

// WithShortCodeTTL sets how long cached short codes live
func WithShortCodeTTL(ttl time.Duration) CompanyDirectoryOption {
	return func(d *CompanyDirectory) {
		if ttl > 0 {
			d.ttl = ttl
		}
	}
}

// WithDirectoryLogger sets the logger for the directory
func WithDirectoryLogger(logger *zap.Logger) CompanyDirectoryOption {
	return func(d *CompanyDirectory) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewCompanyDirectory creates a directory over the given database connection.
// The Redis client is optional; pass nil to disable caching.
func NewCompanyDirectory(db *gorm.DB, client *redis.Client, opts ...CompanyDirectoryOption) *CompanyDirectory {
	d := &CompanyDirectory{
		db:     db,
		client: client,
		ttl:    defaultShortCodeTTL,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ShortCode returns the tenant's order-number short code
func (d *CompanyDirectory) ShortCode(ctx context.Context, tenantID uuid.UUID) (string, error) {
	cacheKey := d.shortCodeKey(tenantID)

	if d.client != nil {
		code, err := d.client.Get(ctx, cacheKey).Result()
		if err == nil && code != "" {
			return code, nil
		}
		if err != nil && !errors.Is(err, redis.Nil) {
			d.logger.Warn("Short code cache read failed",
				zap.String("tenant_id", tenantID.String()),
				zap.Error(err))
		}
	}

	var company models.CompanyModel
	if err := d.db.WithContext(ctx).
		Select("short_code").
		Where("id = ?", tenantID).
		First(&company).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", manufacturing.ErrTenantNotFound
		}
		return "", err
	}
	if company.ShortCode == "" {
		return "", manufacturing.ErrTenantNotFound
	}

	if d.client != nil {
		if err := d.client.Set(ctx, cacheKey, company.ShortCode, d.ttl).Err(); err != nil {
			d.logger.Warn("Short code cache write failed",
				zap.String("tenant_id", tenantID.String()),
				zap.Error(err))
		}
	}

	return company.ShortCode, nil
}

// Invalidate drops the cached short code for a tenant
func (d *CompanyDirectory) Invalidate(ctx context.Context, tenantID uuid.UUID) {
	if d.client == nil {
		return
	}
	if err := d.client.Del(ctx, d.shortCodeKey(tenantID)).Err(); err != nil {
		d.logger.Warn("Short code cache invalidation failed",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err))
	}
}

func (d *CompanyDirectory) shortCodeKey(tenantID uuid.UUID) string {
	return fmt.Sprintf("company:short_code:%s", tenantID.String())
}

// Ensure CompanyDirectory implements the domain port
var _ manufacturing.CompanyDirectory = (*CompanyDirectory)(nil)
