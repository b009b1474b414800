package model

import (
	"time"

	"gorm.io/gorm"
)

// Tenant represents the tenant model stored in the database
// This is the core of our multi-tenant architecture
type Tenant struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"type:varchar(100);not null"`
	// Host is the externally visible routing key. It is stored
	// lowercase and must be unique system-wide.
	Host             string         `json:"host" gorm:"type:varchar(255);uniqueIndex;not null"`
	ContactEmail     string         `json:"contact_email" gorm:"type:varchar(255)"`
	TimeZone         string         `json:"time_zone" gorm:"type:varchar(64)"`
	OwnerID          uint           `json:"owner_id" gorm:"index;not null"`
	StoragePartition string         `json:"storage_partition,omitempty" gorm:"type:varchar(100)"`
	Active           bool           `json:"active" gorm:"default:true"`
	CreatedAt        time.Time      `json:"created_at"`
	CreatedBy        uint           `json:"created_by"`
	UpdatedAt        time.Time      `json:"updated_at"`
	UpdatedBy        uint           `json:"updated_by"`
	DeletedAt        gorm.DeletedAt `json:"-" gorm:"index"`
}
