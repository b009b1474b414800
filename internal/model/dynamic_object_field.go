package model

import (
	"time"

	"gorm.io/gorm"
)

// DynamicObjectField represents field metadata belonging to a dynamic
// object. Constraint attributes are nullable; which of them may be
// populated depends on the field type's category and is enforced by
// the registry validation pass before anything is persisted.
type DynamicObjectField struct {
	ID       uint      `json:"id" gorm:"primaryKey"`
	ObjectID uint      `json:"object_id" gorm:"index;not null;uniqueIndex:idx_fields_object_key,where:deleted_at IS NULL"`
	FieldKey string    `json:"field_key" gorm:"type:varchar(100);not null;uniqueIndex:idx_fields_object_key,where:deleted_at IS NULL"`
	Label    string    `json:"label" gorm:"type:varchar(100);not null"`
	Type     FieldType `json:"type" gorm:"type:varchar(30);not null"`

	Required bool `json:"required" gorm:"default:false"`
	Unique   bool `json:"unique" gorm:"default:false"`

	// Text constraints
	MinLength *int `json:"min_length,omitempty"`
	MaxLength *int `json:"max_length,omitempty"`

	// Numeric constraints
	Decimals *int `json:"decimals,omitempty"`

	// File constraints
	MaxFileSize      *int64 `json:"max_file_size,omitempty"`
	MinFileCount     *int   `json:"min_file_count,omitempty"`
	MaxFileCount     *int   `json:"max_file_count,omitempty"`
	AllowedFileTypes string `json:"allowed_file_types,omitempty" gorm:"type:varchar(255)"`

	// Choice constraints
	ValueListID      *uint `json:"value_list_id,omitempty"`
	MinSelectedItems *int  `json:"min_selected_items,omitempty"`
	MaxSelectedItems *int  `json:"max_selected_items,omitempty"`

	// UI context flags
	VisibleOnCreate bool `json:"visible_on_create" gorm:"default:true"`
	VisibleOnEdit   bool `json:"visible_on_edit" gorm:"default:true"`
	VisibleOnView   bool `json:"visible_on_view" gorm:"default:true"`
	EditableOnEdit  bool `json:"editable_on_edit" gorm:"default:true"`

	// AuditChanges controls whether value transitions on this field
	// are written to the change history log.
	AuditChanges bool `json:"audit_changes" gorm:"default:false"`

	CreatedAt time.Time      `json:"created_at"`
	CreatedBy uint           `json:"created_by"`
	UpdatedAt time.Time      `json:"updated_at"`
	UpdatedBy uint           `json:"updated_by"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
