package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/suteetoe/metacore/internal/model"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "audit.db")), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.AuditLogEntry{}, &model.ChangeHistoryEntry{}))
	return db
}

func seedEvents(t *testing.T, store Store) (early, mid, late time.Time) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	early, mid, late = base, base.Add(1*time.Hour), base.Add(2*time.Hour)

	targetID := uint(1)
	for _, e := range []model.AuditLogEntry{
		{TenantID: 1, ObjectKey: "invoice", Event: model.AuditEventCreate, TargetID: &targetID, ActorID: 7, CreatedAt: early},
		{TenantID: 1, ObjectKey: "invoice", Event: model.AuditEventUpdate, TargetID: &targetID, ActorID: 7, CreatedAt: mid},
		{TenantID: 1, ObjectKey: "contact", Event: model.AuditEventCreate, TargetID: &targetID, ActorID: 8, CreatedAt: late},
		{TenantID: 2, ObjectKey: "invoice", Event: model.AuditEventCreate, TargetID: &targetID, ActorID: 7, CreatedAt: mid},
	} {
		entry := e
		require.NoError(t, store.AppendEvent(ctx, &entry))
	}
	return early, mid, late
}

func TestQueryEventsNewestFirst(t *testing.T) {
	store := NewStore(openTestDB(t))
	_, mid, late := seedEvents(t, store)

	entries, total, err := store.QueryEvents(context.Background(), 1, Filter{})
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
	require.Len(t, entries, 3)
	require.Equal(t, late.Unix(), entries[0].CreatedAt.Unix())
	require.Equal(t, mid.Unix(), entries[1].CreatedAt.Unix())

	// The other tenant's entries stay out of scope.
	for _, e := range entries {
		require.Equal(t, uint(1), e.TenantID)
	}
}

func TestQueryEventsFilters(t *testing.T) {
	store := NewStore(openTestDB(t))
	early, mid, _ := seedEvents(t, store)
	ctx := context.Background()

	entries, total, err := store.QueryEvents(ctx, 1, Filter{ObjectKey: "invoice"})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, entries, 2)

	entries, total, err = store.QueryEvents(ctx, 1, Filter{ActorID: 8})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, "contact", entries[0].ObjectKey)

	entries, total, err = store.QueryEvents(ctx, 1, Filter{From: early, To: mid})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, entries, 2)
	require.Equal(t, model.AuditEventUpdate, entries[0].Event)
}

func TestQueryEventsPagination(t *testing.T) {
	store := NewStore(openTestDB(t))
	early, _, _ := seedEvents(t, store)
	ctx := context.Background()

	entries, total, err := store.QueryEvents(ctx, 1, Filter{Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
	require.Len(t, entries, 1)
	require.Equal(t, early.Unix(), entries[0].CreatedAt.Unix())

	// An unset page size falls back to the default, which covers the
	// whole seed set here; the total is unaffected by paging.
	entries, total, err = store.QueryEvents(ctx, 1, Filter{})
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
	require.Len(t, entries, 3)
}

func TestQueryFieldChanges(t *testing.T) {
	store := NewStore(openTestDB(t))
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	targetID := uint(5)
	for i, change := range []model.ChangeHistoryEntry{
		{TenantID: 1, ObjectKey: "invoice", TargetID: &targetID, FieldName: "label", OldValue: "A", NewValue: "B", ActorID: 7},
		{TenantID: 1, ObjectKey: "invoice", TargetID: &targetID, FieldName: "required", OldValue: "false", NewValue: "true", ActorID: 7},
		{TenantID: 2, ObjectKey: "invoice", TargetID: &targetID, FieldName: "label", OldValue: "X", NewValue: "Y", ActorID: 7},
	} {
		entry := change
		entry.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, store.AppendFieldChange(ctx, &entry))
	}

	entries, total, err := store.QueryFieldChanges(ctx, 1, Filter{})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, entries, 2)
	require.Equal(t, "required", entries[0].FieldName)
	require.Equal(t, "label", entries[1].FieldName)

	entries, total, err = store.QueryFieldChanges(ctx, 1, Filter{TargetID: targetID})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, entries, 2)
}
