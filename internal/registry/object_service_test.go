package registry

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/suteetoe/metacore/internal/apperr"
	"github.com/suteetoe/metacore/internal/model"
)

func TestObjectCreate(t *testing.T) {
	env := newTestEnv(t)
	ctx := tenantContext(1)

	obj, err := env.objectSvc.Create(ctx, 1, ObjectDefinition{
		ObjectKey: "Invoice",
		Name:      "Invoice",
	}, testActor())
	require.NoError(t, err)
	require.Equal(t, "invoice", obj.ObjectKey, "object key is normalized lowercase")
	require.Equal(t, model.ObjectCategoryCustom, obj.Category)
	require.Equal(t, uint(99), obj.CreatedBy)

	// The creation is audited with full attribution.
	require.Len(t, env.auditStore.events, 1)
	event := env.auditStore.events[0]
	require.Equal(t, model.AuditEventCreate, event.Event)
	require.Equal(t, uint(1), event.TenantID)
	require.Equal(t, "invoice", event.ObjectKey)
	require.Equal(t, uint(99), event.ActorID)
	require.Equal(t, "req-123", event.CorrelationID)
	require.Equal(t, "203.0.113.7", event.ClientIP)
	require.NotNil(t, event.TargetID)
	require.Equal(t, obj.ID, *event.TargetID)
}

func TestObjectCreateConflicts(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.objectSvc.Create(tenantContext(1), 1, ObjectDefinition{ObjectKey: "invoice", Name: "Invoice"}, testActor())
	require.NoError(t, err)

	t.Run("same key same tenant conflicts", func(t *testing.T) {
		_, err := env.objectSvc.Create(tenantContext(1), 1, ObjectDefinition{ObjectKey: "invoice", Name: "Invoice Copy"}, testActor())
		require.ErrorIs(t, err, apperr.ErrConflict)
	})

	t.Run("name collision is case-insensitive", func(t *testing.T) {
		_, err := env.objectSvc.Create(tenantContext(1), 1, ObjectDefinition{ObjectKey: "bill", Name: "INVOICE"}, testActor())
		require.ErrorIs(t, err, apperr.ErrConflict)
	})

	t.Run("same key different tenant succeeds", func(t *testing.T) {
		_, err := env.objectSvc.Create(tenantContext(2), 2, ObjectDefinition{ObjectKey: "invoice", Name: "Invoice"}, testActor())
		require.NoError(t, err)
	})
}

func TestObjectCreateValidation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.objectSvc.Create(tenantContext(1), 1, ObjectDefinition{Name: "Invoice"}, testActor())
	verr, ok := apperr.AsValidation(err)
	require.True(t, ok)
	require.Equal(t, "object_key", verr.Attribute)

	_, err = env.objectSvc.Create(tenantContext(1), 1, ObjectDefinition{ObjectKey: "invoice"}, testActor())
	verr, ok = apperr.AsValidation(err)
	require.True(t, ok)
	require.Equal(t, "name", verr.Attribute)

	_, err = env.objectSvc.Create(tenantContext(1), 1, ObjectDefinition{
		ObjectKey: "invoice", Name: "Invoice", Category: "Exotic",
	}, testActor())
	verr, ok = apperr.AsValidation(err)
	require.True(t, ok)
	require.Equal(t, "category", verr.Attribute)
}

func TestObjectGetByKeyUsesCache(t *testing.T) {
	env := newTestEnv(t)
	ctx := tenantContext(1)

	created, err := env.objectSvc.Create(ctx, 1, ObjectDefinition{ObjectKey: "invoice", Name: "Invoice"}, testActor())
	require.NoError(t, err)

	first, err := env.objectSvc.GetByKey(ctx, 1, "invoice")
	require.NoError(t, err)
	require.Equal(t, created.ID, first.ID)
	storeReads := env.objects.gets

	// The second read is served from cache.
	second, err := env.objectSvc.GetByKey(ctx, 1, "invoice")
	require.NoError(t, err)
	require.Equal(t, created.ID, second.ID)
	require.Equal(t, storeReads, env.objects.gets)
}

func TestObjectGetByKeyCacheIsTenantScoped(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.objectSvc.Create(tenantContext(1), 1, ObjectDefinition{ObjectKey: "invoice", Name: "Invoice"}, testActor())
	require.NoError(t, err)

	_, err = env.objectSvc.GetByKey(tenantContext(1), 1, "invoice")
	require.NoError(t, err)

	// Tenant 2 must miss even though tenant 1 just cached the key.
	_, err = env.objectSvc.GetByKey(tenantContext(2), 2, "invoice")
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestObjectUpdate(t *testing.T) {
	env := newTestEnv(t)
	ctx := tenantContext(1)

	obj, err := env.objectSvc.Create(ctx, 1, ObjectDefinition{ObjectKey: "invoice", Name: "Invoice", Description: "Billing"}, testActor())
	require.NoError(t, err)

	name := "Bill"
	description := "Outgoing billing"
	updated, err := env.objectSvc.Update(ctx, 1, obj.ID, ObjectChanges{Name: &name, Description: &description}, testActor())
	require.NoError(t, err)
	require.Equal(t, "Bill", updated.Name)

	// One Update event plus one change history row per changed attribute.
	require.Len(t, env.auditStore.events, 2)
	require.Equal(t, model.AuditEventUpdate, env.auditStore.events[1].Event)
	require.Len(t, env.auditStore.changes, 2)

	byField := map[string]model.ChangeHistoryEntry{}
	for _, change := range env.auditStore.changes {
		byField[change.FieldName] = change
	}
	require.Equal(t, "Invoice", byField["name"].OldValue)
	require.Equal(t, "Bill", byField["name"].NewValue)
	require.Equal(t, "Billing", byField["description"].OldValue)
	require.Equal(t, "Outgoing billing", byField["description"].NewValue)
}

func TestObjectUpdateUnchangedAttributeNotRecorded(t *testing.T) {
	env := newTestEnv(t)
	ctx := tenantContext(1)

	obj, err := env.objectSvc.Create(ctx, 1, ObjectDefinition{ObjectKey: "invoice", Name: "Invoice"}, testActor())
	require.NoError(t, err)

	same := "Invoice"
	_, err = env.objectSvc.Update(ctx, 1, obj.ID, ObjectChanges{Name: &same}, testActor())
	require.NoError(t, err)
	require.Empty(t, env.auditStore.changes)
}

func TestObjectUpdateCrossTenantIsNotFound(t *testing.T) {
	env := newTestEnv(t)

	obj, err := env.objectSvc.Create(tenantContext(1), 1, ObjectDefinition{ObjectKey: "invoice", Name: "Invoice"}, testActor())
	require.NoError(t, err)

	name := "Stolen"
	_, err = env.objectSvc.Update(tenantContext(2), 2, obj.ID, ObjectChanges{Name: &name}, testActor())
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestObjectDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := tenantContext(1)

	obj, err := env.objectSvc.Create(ctx, 1, ObjectDefinition{ObjectKey: "invoice", Name: "Invoice"}, testActor())
	require.NoError(t, err)

	// Populate the cache so deletion has something to invalidate.
	_, err = env.objectSvc.GetByKey(ctx, 1, "invoice")
	require.NoError(t, err)

	require.NoError(t, env.objectSvc.Delete(ctx, 1, obj.ID, testActor()))

	// The object is gone from lookups, through cache and store alike.
	_, err = env.objectSvc.GetByKey(ctx, 1, "invoice")
	require.ErrorIs(t, err, apperr.ErrNotFound)

	// A Delete event was appended; prior entries are untouched.
	require.Equal(t, model.AuditEventDelete, env.auditStore.events[len(env.auditStore.events)-1].Event)
	require.Equal(t, model.AuditEventCreate, env.auditStore.events[0].Event)

	// The key can be reused after the soft delete.
	_, err = env.objectSvc.Create(ctx, 1, ObjectDefinition{ObjectKey: "invoice", Name: "Invoice"}, testActor())
	require.NoError(t, err)
}
