package registry

import (
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/suteetoe/metacore/internal/apperr"
	"github.com/suteetoe/metacore/internal/audit"
	"github.com/suteetoe/metacore/internal/cache"
	"github.com/suteetoe/metacore/internal/model"
	"github.com/suteetoe/metacore/internal/tenant"
)

// fakeObjectStore keeps objects in memory with the same visibility
// rules as the real store: tenant-filtered, soft-deleted rows hidden.
type fakeObjectStore struct {
	nextID  uint
	objects map[uint]*model.DynamicObject
	deleted map[uint]bool
	gets    int
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{
		nextID:  1,
		objects: make(map[uint]*model.DynamicObject),
		deleted: make(map[uint]bool),
	}
}

func (f *fakeObjectStore) GetByKey(ctx context.Context, tenantID uint, objectKey string) (*model.DynamicObject, error) {
	f.gets++
	key := strings.ToLower(objectKey)
	for id, obj := range f.objects {
		if !f.deleted[id] && obj.TenantID == tenantID && obj.ObjectKey == key {
			return obj, nil
		}
	}
	return nil, apperr.NotFoundf("object %q", objectKey)
}

func (f *fakeObjectStore) GetByID(ctx context.Context, tenantID, id uint) (*model.DynamicObject, error) {
	obj, ok := f.objects[id]
	if !ok || f.deleted[id] || obj.TenantID != tenantID {
		return nil, apperr.NotFoundf("object %d", id)
	}
	return obj, nil
}

func (f *fakeObjectStore) KeyExists(ctx context.Context, tenantID uint, objectKey string) (bool, error) {
	key := strings.ToLower(objectKey)
	for id, obj := range f.objects {
		if !f.deleted[id] && obj.TenantID == tenantID && obj.ObjectKey == key {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeObjectStore) NameExists(ctx context.Context, tenantID uint, name string, excludeID uint) (bool, error) {
	for id, obj := range f.objects {
		if f.deleted[id] || obj.TenantID != tenantID || id == excludeID {
			continue
		}
		if strings.EqualFold(obj.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeObjectStore) Create(ctx context.Context, obj *model.DynamicObject) error {
	if exists, _ := f.KeyExists(ctx, obj.TenantID, obj.ObjectKey); exists {
		return apperr.Conflictf("object key %q", obj.ObjectKey)
	}
	obj.ID = f.nextID
	f.nextID++
	obj.CreatedAt = time.Now()
	obj.UpdatedAt = obj.CreatedAt
	f.objects[obj.ID] = obj
	return nil
}

func (f *fakeObjectStore) Save(ctx context.Context, obj *model.DynamicObject) error {
	obj.UpdatedAt = time.Now()
	f.objects[obj.ID] = obj
	return nil
}

func (f *fakeObjectStore) SoftDelete(ctx context.Context, id uint) error {
	f.deleted[id] = true
	return nil
}

// fakeFieldStore mirrors the real field store's visibility rules.
type fakeFieldStore struct {
	nextID  uint
	fields  map[uint]*model.DynamicObjectField
	deleted map[uint]bool
	lists   int
}

func newFakeFieldStore() *fakeFieldStore {
	return &fakeFieldStore{
		nextID:  1,
		fields:  make(map[uint]*model.DynamicObjectField),
		deleted: make(map[uint]bool),
	}
}

func (f *fakeFieldStore) ListByObject(ctx context.Context, objectID uint) ([]model.DynamicObjectField, error) {
	f.lists++
	var out []model.DynamicObjectField
	for id, field := range f.fields {
		if !f.deleted[id] && field.ObjectID == objectID {
			out = append(out, *field)
		}
	}
	// Stable label order, matching the store contract.
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out, nil
}

func (f *fakeFieldStore) GetByID(ctx context.Context, id uint) (*model.DynamicObjectField, error) {
	field, ok := f.fields[id]
	if !ok || f.deleted[id] {
		return nil, apperr.NotFoundf("field %d", id)
	}
	return field, nil
}

func (f *fakeFieldStore) KeyExists(ctx context.Context, objectID uint, fieldKey string) (bool, error) {
	key := strings.ToLower(fieldKey)
	for id, field := range f.fields {
		if !f.deleted[id] && field.ObjectID == objectID && field.FieldKey == key {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeFieldStore) Create(ctx context.Context, field *model.DynamicObjectField) error {
	if exists, _ := f.KeyExists(ctx, field.ObjectID, field.FieldKey); exists {
		return apperr.Conflictf("field key %q", field.FieldKey)
	}
	field.ID = f.nextID
	f.nextID++
	field.CreatedAt = time.Now()
	field.UpdatedAt = field.CreatedAt
	f.fields[field.ID] = field
	return nil
}

func (f *fakeFieldStore) Save(ctx context.Context, field *model.DynamicObjectField) error {
	field.UpdatedAt = time.Now()
	f.fields[field.ID] = field
	return nil
}

func (f *fakeFieldStore) SoftDelete(ctx context.Context, id uint) error {
	f.deleted[id] = true
	return nil
}

// captureAuditStore records appended entries for assertions.
type captureAuditStore struct {
	events  []model.AuditLogEntry
	changes []model.ChangeHistoryEntry
	failErr error
}

func (s *captureAuditStore) AppendEvent(ctx context.Context, entry *model.AuditLogEntry) error {
	if s.failErr != nil {
		return s.failErr
	}
	s.events = append(s.events, *entry)
	return nil
}

func (s *captureAuditStore) AppendFieldChange(ctx context.Context, entry *model.ChangeHistoryEntry) error {
	if s.failErr != nil {
		return s.failErr
	}
	s.changes = append(s.changes, *entry)
	return nil
}

func (s *captureAuditStore) QueryEvents(ctx context.Context, tenantID uint, filter audit.Filter) ([]model.AuditLogEntry, int64, error) {
	return nil, 0, nil
}

func (s *captureAuditStore) QueryFieldChanges(ctx context.Context, tenantID uint, filter audit.Filter) ([]model.ChangeHistoryEntry, int64, error) {
	return nil, 0, nil
}

type testEnv struct {
	objects    *fakeObjectStore
	fields     *fakeFieldStore
	auditStore *captureAuditStore
	objectSvc  *ObjectService
	fieldSvc   *FieldService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	objects := newFakeObjectStore()
	fields := newFakeFieldStore()
	auditStore := &captureAuditStore{}
	recorder := audit.NewRecorder(auditStore)
	tenantCache := cache.NewTenantCache(cache.NewMemoryStore(0), 0, 0)
	return &testEnv{
		objects:    objects,
		fields:     fields,
		auditStore: auditStore,
		objectSvc:  NewObjectService(objects, tenantCache, recorder),
		fieldSvc:   NewFieldService(objects, fields, tenantCache, recorder),
	}
}

func tenantContext(id uint) context.Context {
	return tenant.WithTenant(context.Background(), &model.Tenant{ID: id})
}

func testActor() Actor {
	return Actor{ID: 99, IP: "203.0.113.7", CorrelationID: "req-123"}
}
