// Package registry manages the per-tenant dynamic object and field
// metadata: the business objects a tenant has modeled and the typed,
// constraint-carrying fields that belong to them.
package registry

import (
	"context"
	"errors"
	"strings"

	"github.com/suteetoe/metacore/internal/apperr"
	"github.com/suteetoe/metacore/internal/model"
	"gorm.io/gorm"
)

// ObjectStore persists dynamic object definitions. Every read is
// filtered by tenant; a cross-tenant lookup behaves exactly like a
// missing record.
type ObjectStore interface {
	GetByKey(ctx context.Context, tenantID uint, objectKey string) (*model.DynamicObject, error)
	GetByID(ctx context.Context, tenantID, id uint) (*model.DynamicObject, error)
	KeyExists(ctx context.Context, tenantID uint, objectKey string) (bool, error)
	NameExists(ctx context.Context, tenantID uint, name string, excludeID uint) (bool, error)
	Create(ctx context.Context, obj *model.DynamicObject) error
	Save(ctx context.Context, obj *model.DynamicObject) error
	SoftDelete(ctx context.Context, id uint) error
}

// FieldStore persists dynamic field definitions. Tenant ownership is
// enforced one level up, through the owning object.
type FieldStore interface {
	ListByObject(ctx context.Context, objectID uint) ([]model.DynamicObjectField, error)
	GetByID(ctx context.Context, id uint) (*model.DynamicObjectField, error)
	KeyExists(ctx context.Context, objectID uint, fieldKey string) (bool, error)
	Create(ctx context.Context, field *model.DynamicObjectField) error
	Save(ctx context.Context, field *model.DynamicObjectField) error
	SoftDelete(ctx context.Context, id uint) error
}

type gormObjectStore struct {
	db *gorm.DB
}

// NewObjectStore creates an ObjectStore backed by the given database.
func NewObjectStore(db *gorm.DB) ObjectStore {
	return &gormObjectStore{db: db}
}

func (s *gormObjectStore) GetByKey(ctx context.Context, tenantID uint, objectKey string) (*model.DynamicObject, error) {
	var obj model.DynamicObject
	result := s.db.WithContext(ctx).
		Where("tenant_id = ? AND object_key = ?", tenantID, strings.ToLower(objectKey)).
		First(&obj)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("object %q", objectKey)
		}
		return nil, result.Error
	}
	return &obj, nil
}

func (s *gormObjectStore) GetByID(ctx context.Context, tenantID, id uint) (*model.DynamicObject, error) {
	var obj model.DynamicObject
	result := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		First(&obj, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("object %d", id)
		}
		return nil, result.Error
	}
	return &obj, nil
}

func (s *gormObjectStore) KeyExists(ctx context.Context, tenantID uint, objectKey string) (bool, error) {
	var count int64
	result := s.db.WithContext(ctx).Model(&model.DynamicObject{}).
		Where("tenant_id = ? AND object_key = ?", tenantID, strings.ToLower(objectKey)).
		Count(&count)
	if result.Error != nil {
		return false, result.Error
	}
	return count > 0, nil
}

func (s *gormObjectStore) NameExists(ctx context.Context, tenantID uint, name string, excludeID uint) (bool, error) {
	query := s.db.WithContext(ctx).Model(&model.DynamicObject{}).
		Where("tenant_id = ? AND LOWER(name) = ?", tenantID, strings.ToLower(name))
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if result := query.Count(&count); result.Error != nil {
		return false, result.Error
	}
	return count > 0, nil
}

func (s *gormObjectStore) Create(ctx context.Context, obj *model.DynamicObject) error {
	result := s.db.WithContext(ctx).Create(obj)
	if result.Error != nil {
		// The composite unique index is the authority when two
		// concurrent creates race past the pre-check.
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return apperr.Conflictf("object key %q", obj.ObjectKey)
		}
		return result.Error
	}
	return nil
}

func (s *gormObjectStore) Save(ctx context.Context, obj *model.DynamicObject) error {
	result := s.db.WithContext(ctx).Save(obj)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return apperr.Conflictf("object key %q", obj.ObjectKey)
		}
		return result.Error
	}
	return nil
}

func (s *gormObjectStore) SoftDelete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Delete(&model.DynamicObject{}, id).Error
}

type gormFieldStore struct {
	db *gorm.DB
}

// NewFieldStore creates a FieldStore backed by the given database.
func NewFieldStore(db *gorm.DB) FieldStore {
	return &gormFieldStore{db: db}
}

func (s *gormFieldStore) ListByObject(ctx context.Context, objectID uint) ([]model.DynamicObjectField, error) {
	var fields []model.DynamicObjectField
	result := s.db.WithContext(ctx).
		Where("object_id = ?", objectID).
		Order("label, id").
		Find(&fields)
	if result.Error != nil {
		return nil, result.Error
	}
	return fields, nil
}

func (s *gormFieldStore) GetByID(ctx context.Context, id uint) (*model.DynamicObjectField, error) {
	var field model.DynamicObjectField
	result := s.db.WithContext(ctx).First(&field, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("field %d", id)
		}
		return nil, result.Error
	}
	return &field, nil
}

func (s *gormFieldStore) KeyExists(ctx context.Context, objectID uint, fieldKey string) (bool, error) {
	var count int64
	result := s.db.WithContext(ctx).Model(&model.DynamicObjectField{}).
		Where("object_id = ? AND field_key = ?", objectID, strings.ToLower(fieldKey)).
		Count(&count)
	if result.Error != nil {
		return false, result.Error
	}
	return count > 0, nil
}

func (s *gormFieldStore) Create(ctx context.Context, field *model.DynamicObjectField) error {
	result := s.db.WithContext(ctx).Create(field)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return apperr.Conflictf("field key %q", field.FieldKey)
		}
		return result.Error
	}
	return nil
}

func (s *gormFieldStore) Save(ctx context.Context, field *model.DynamicObjectField) error {
	result := s.db.WithContext(ctx).Save(field)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return apperr.Conflictf("field key %q", field.FieldKey)
		}
		return result.Error
	}
	return nil
}

func (s *gormFieldStore) SoftDelete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Delete(&model.DynamicObjectField{}, id).Error
}
