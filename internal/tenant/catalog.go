package tenant

import (
	"context"
	"errors"
	"strings"

	"github.com/suteetoe/metacore/internal/apperr"
	"github.com/suteetoe/metacore/internal/model"
	"gorm.io/gorm"
)

// Catalog is the persistent store of tenant records.
type Catalog interface {
	GetByID(ctx context.Context, id uint) (*model.Tenant, error)
	GetByHost(ctx context.Context, host string) (*model.Tenant, error)
	HostExists(ctx context.Context, host string) (bool, error)
	Create(ctx context.Context, t *model.Tenant) error
	Update(ctx context.Context, t *model.Tenant) error
	List(ctx context.Context) ([]model.Tenant, error)
}

// gormCatalog implements Catalog on top of the tenants table.
type gormCatalog struct {
	db *gorm.DB
}

// NewCatalog creates a Catalog backed by the given database.
func NewCatalog(db *gorm.DB) Catalog {
	return &gormCatalog{db: db}
}

func (c *gormCatalog) GetByID(ctx context.Context, id uint) (*model.Tenant, error) {
	var t model.Tenant
	result := c.db.WithContext(ctx).First(&t, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("tenant %d", id)
		}
		return nil, result.Error
	}
	return &t, nil
}

func (c *gormCatalog) GetByHost(ctx context.Context, host string) (*model.Tenant, error) {
	var t model.Tenant
	result := c.db.WithContext(ctx).Where("host = ?", strings.ToLower(host)).First(&t)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("tenant host %q", host)
		}
		return nil, result.Error
	}
	return &t, nil
}

func (c *gormCatalog) HostExists(ctx context.Context, host string) (bool, error) {
	var count int64
	result := c.db.WithContext(ctx).Model(&model.Tenant{}).
		Where("host = ?", strings.ToLower(host)).
		Count(&count)
	if result.Error != nil {
		return false, result.Error
	}
	return count > 0, nil
}

func (c *gormCatalog) Create(ctx context.Context, t *model.Tenant) error {
	t.Host = strings.ToLower(t.Host)
	result := c.db.WithContext(ctx).Create(t)
	if result.Error != nil {
		// The unique index on host is the authority; the caller's
		// pre-check is only a fast path.
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return apperr.Conflictf("tenant host %q", t.Host)
		}
		return result.Error
	}
	return nil
}

func (c *gormCatalog) Update(ctx context.Context, t *model.Tenant) error {
	t.Host = strings.ToLower(t.Host)
	result := c.db.WithContext(ctx).Save(t)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return apperr.Conflictf("tenant host %q", t.Host)
		}
		return result.Error
	}
	return nil
}

func (c *gormCatalog) List(ctx context.Context) ([]model.Tenant, error) {
	var tenants []model.Tenant
	result := c.db.WithContext(ctx).Order("id").Find(&tenants)
	if result.Error != nil {
		return nil, result.Error
	}
	return tenants, nil
}
