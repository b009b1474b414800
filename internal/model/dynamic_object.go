package model

import (
	"time"

	"gorm.io/gorm"
)

// ObjectCategory classifies a dynamic object definition.
type ObjectCategory string

const (
	ObjectCategoryStandard  ObjectCategory = "Standard"
	ObjectCategoryDedicated ObjectCategory = "Dedicated"
	ObjectCategoryCustom    ObjectCategory = "Custom"
)

// Valid reports whether the category is one of the known values.
func (c ObjectCategory) Valid() bool {
	switch c {
	case ObjectCategoryStandard, ObjectCategoryDedicated, ObjectCategoryCustom:
		return true
	}
	return false
}

// DynamicObject represents tenant-defined object metadata. The pair
// (tenant_id, object_key) is unique among live rows; the partial
// index is the authority when two concurrent creates race past the
// service-level pre-check, and a soft-deleted row releases its key.
type DynamicObject struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	TenantID      uint           `json:"tenant_id" gorm:"index;not null;uniqueIndex:idx_objects_tenant_key,where:deleted_at IS NULL"`
	ObjectKey     string         `json:"object_key" gorm:"type:varchar(100);not null;uniqueIndex:idx_objects_tenant_key,where:deleted_at IS NULL"`
	Name          string         `json:"name" gorm:"type:varchar(100);not null"`
	SingularLabel string         `json:"singular_label" gorm:"type:varchar(100)"`
	PluralLabel   string         `json:"plural_label" gorm:"type:varchar(100)"`
	Description   string         `json:"description" gorm:"type:text"`
	Category      ObjectCategory `json:"category" gorm:"type:varchar(20);default:'Custom'"`
	CreatedAt     time.Time      `json:"created_at"`
	CreatedBy     uint           `json:"created_by"`
	UpdatedAt     time.Time      `json:"updated_at"`
	UpdatedBy     uint           `json:"updated_by"`
	DeletedAt     gorm.DeletedAt `json:"-" gorm:"index"`
}
