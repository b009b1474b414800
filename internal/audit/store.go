// Package audit implements the append-only audit and change-history
// trail. Entries are written once and never updated or deleted.
package audit

import (
	"context"
	"time"

	"github.com/suteetoe/metacore/internal/model"
	"gorm.io/gorm"
)

// Filter narrows an audit or change-history query. Zero-valued
// fields are ignored. Page numbers start at 1.
type Filter struct {
	ObjectKey string
	TargetKey string
	TargetID  uint
	ActorID   uint
	From      time.Time
	To        time.Time
	Page      int
	PageSize  int
}

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

func (f *Filter) limits() (offset, limit int) {
	page := f.Page
	if page < 1 {
		page = 1
	}
	size := f.PageSize
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return (page - 1) * size, size
}

// Store persists and queries the two append-only logs.
type Store interface {
	AppendEvent(ctx context.Context, entry *model.AuditLogEntry) error
	AppendFieldChange(ctx context.Context, entry *model.ChangeHistoryEntry) error
	QueryEvents(ctx context.Context, tenantID uint, filter Filter) ([]model.AuditLogEntry, int64, error)
	QueryFieldChanges(ctx context.Context, tenantID uint, filter Filter) ([]model.ChangeHistoryEntry, int64, error)
}

type gormStore struct {
	db *gorm.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) AppendEvent(ctx context.Context, entry *model.AuditLogEntry) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

func (s *gormStore) AppendFieldChange(ctx context.Context, entry *model.ChangeHistoryEntry) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

func (s *gormStore) QueryEvents(ctx context.Context, tenantID uint, filter Filter) ([]model.AuditLogEntry, int64, error) {
	query := s.applyFilter(s.db.WithContext(ctx).Model(&model.AuditLogEntry{}), tenantID, filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset, limit := filter.limits()
	var entries []model.AuditLogEntry
	err := query.Order("created_at DESC, id DESC").Offset(offset).Limit(limit).Find(&entries).Error
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (s *gormStore) QueryFieldChanges(ctx context.Context, tenantID uint, filter Filter) ([]model.ChangeHistoryEntry, int64, error) {
	query := s.applyFilter(s.db.WithContext(ctx).Model(&model.ChangeHistoryEntry{}), tenantID, filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset, limit := filter.limits()
	var entries []model.ChangeHistoryEntry
	err := query.Order("created_at DESC, id DESC").Offset(offset).Limit(limit).Find(&entries).Error
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (s *gormStore) applyFilter(query *gorm.DB, tenantID uint, filter Filter) *gorm.DB {
	query = query.Where("tenant_id = ?", tenantID)
	if filter.ObjectKey != "" {
		query = query.Where("object_key = ?", filter.ObjectKey)
	}
	if filter.TargetKey != "" {
		query = query.Where("target_key = ?", filter.TargetKey)
	}
	if filter.TargetID != 0 {
		query = query.Where("target_id = ?", filter.TargetID)
	}
	if filter.ActorID != 0 {
		query = query.Where("actor_id = ?", filter.ActorID)
	}
	if !filter.From.IsZero() {
		query = query.Where("created_at >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		query = query.Where("created_at <= ?", filter.To)
	}
	return query
}
