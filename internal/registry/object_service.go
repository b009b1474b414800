package registry

import (
	"context"
	"strings"
	"time"

	"github.com/suteetoe/metacore/internal/apperr"
	"github.com/suteetoe/metacore/internal/audit"
	"github.com/suteetoe/metacore/internal/cache"
	"github.com/suteetoe/metacore/internal/model"
	"github.com/suteetoe/metacore/pkg/logger"
	"github.com/suteetoe/metacore/prometheus"
	"go.uber.org/zap"
)

// ObjectDefinition is the input for creating a dynamic object.
type ObjectDefinition struct {
	ObjectKey     string               `json:"object_key"`
	Name          string               `json:"name"`
	SingularLabel string               `json:"singular_label"`
	PluralLabel   string               `json:"plural_label"`
	Description   string               `json:"description"`
	Category      model.ObjectCategory `json:"category"`
}

// ObjectChanges carries the mutable attributes of an object update.
// Nil fields are left untouched; the object key is immutable.
type ObjectChanges struct {
	Name          *string               `json:"name,omitempty"`
	SingularLabel *string               `json:"singular_label,omitempty"`
	PluralLabel   *string               `json:"plural_label,omitempty"`
	Description   *string               `json:"description,omitempty"`
	Category      *model.ObjectCategory `json:"category,omitempty"`
}

// ObjectService implements the dynamic object registry: cache-first
// reads and audited, cache-invalidating writes.
type ObjectService struct {
	objects  ObjectStore
	cache    *cache.TenantCache
	recorder *audit.Recorder
}

// NewObjectService creates an ObjectService.
func NewObjectService(objects ObjectStore, tenantCache *cache.TenantCache, recorder *audit.Recorder) *ObjectService {
	return &ObjectService{
		objects:  objects,
		cache:    tenantCache,
		recorder: recorder,
	}
}

// GetByKey returns the non-deleted object with the given key for the
// tenant. The cache is consulted first; a miss falls back to the
// store and repopulates the cache.
func (s *ObjectService) GetByKey(ctx context.Context, tenantID uint, objectKey string) (*model.DynamicObject, error) {
	cacheKey := objectCacheKey(tenantID, objectKey)

	var cached model.DynamicObject
	hit, err := s.cache.Get(ctx, cacheKey, &cached)
	if err != nil {
		// A broken cache must not break reads.
		logger.FromContext(ctx).Warn("Object cache read failed", zap.Error(err))
	}
	if hit {
		return &cached, nil
	}

	defer prometheus.TrackDBOperation("object_get")(time.Now())
	obj, err := s.objects.GetByKey(ctx, tenantID, objectKey)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, cacheKey, obj); err != nil {
		logger.FromContext(ctx).Warn("Object cache write failed", zap.Error(err))
	}
	return obj, nil
}

// Create registers a new object definition for the tenant. The key
// and, case-insensitively, the name must be unused among the tenant's
// non-deleted objects.
func (s *ObjectService) Create(ctx context.Context, tenantID uint, def ObjectDefinition, actor Actor) (*model.DynamicObject, error) {
	key := strings.ToLower(strings.TrimSpace(def.ObjectKey))
	if key == "" {
		return nil, apperr.Validation("object_key", "must not be empty")
	}
	name := strings.TrimSpace(def.Name)
	if name == "" {
		return nil, apperr.Validation("name", "must not be empty")
	}
	category := def.Category
	if category == "" {
		category = model.ObjectCategoryCustom
	}
	if !category.Valid() {
		return nil, apperr.Validationf("category", "unknown object category %q", def.Category)
	}

	// Pre-checks are a fast path; the unique index decides races.
	if exists, err := s.objects.KeyExists(ctx, tenantID, key); err != nil {
		return nil, err
	} else if exists {
		return nil, apperr.Conflictf("object key %q", key)
	}
	if exists, err := s.objects.NameExists(ctx, tenantID, name, 0); err != nil {
		return nil, err
	} else if exists {
		return nil, apperr.Conflictf("object name %q", name)
	}

	obj := &model.DynamicObject{
		TenantID:      tenantID,
		ObjectKey:     key,
		Name:          name,
		SingularLabel: def.SingularLabel,
		PluralLabel:   def.PluralLabel,
		Description:   def.Description,
		Category:      category,
		CreatedBy:     actor.ID,
		UpdatedBy:     actor.ID,
	}

	defer prometheus.TrackDBOperation("object_create")(time.Now())
	if err := s.objects.Create(ctx, obj); err != nil {
		return nil, err
	}

	s.invalidate(ctx, objectCacheKey(tenantID, key))
	prometheus.CreateObjectCounter.Inc()

	s.recorder.RecordEvent(ctx, audit.Event{
		TenantID:      tenantID,
		ObjectKey:     obj.ObjectKey,
		Name:          model.AuditEventCreate,
		Target:        audit.TargetByID(obj.ID),
		ActorID:       actor.ID,
		ClientIP:      actor.IP,
		Payload:       obj,
		CorrelationID: actor.CorrelationID,
	})

	return obj, nil
}

// Update mutates an object the tenant owns. A cross-tenant object id
// reports NotFound so existence is not leaked. Every changed
// attribute is written to the change history.
func (s *ObjectService) Update(ctx context.Context, tenantID, objectID uint, changes ObjectChanges, actor Actor) (*model.DynamicObject, error) {
	obj, err := s.objects.GetByID(ctx, tenantID, objectID)
	if err != nil {
		return nil, err
	}

	var transitions []audit.FieldChange
	record := func(field, oldValue, newValue string) {
		if oldValue == newValue {
			return
		}
		transitions = append(transitions, audit.FieldChange{
			TenantID:      tenantID,
			ObjectKey:     obj.ObjectKey,
			Target:        audit.TargetByID(obj.ID),
			FieldName:     field,
			OldValue:      oldValue,
			NewValue:      newValue,
			ActorID:       actor.ID,
			CorrelationID: actor.CorrelationID,
		})
	}

	if changes.Name != nil {
		name := strings.TrimSpace(*changes.Name)
		if name == "" {
			return nil, apperr.Validation("name", "must not be empty")
		}
		if !strings.EqualFold(name, obj.Name) {
			if exists, err := s.objects.NameExists(ctx, tenantID, name, obj.ID); err != nil {
				return nil, err
			} else if exists {
				return nil, apperr.Conflictf("object name %q", name)
			}
		}
		record("name", obj.Name, name)
		obj.Name = name
	}
	if changes.SingularLabel != nil {
		record("singular_label", obj.SingularLabel, *changes.SingularLabel)
		obj.SingularLabel = *changes.SingularLabel
	}
	if changes.PluralLabel != nil {
		record("plural_label", obj.PluralLabel, *changes.PluralLabel)
		obj.PluralLabel = *changes.PluralLabel
	}
	if changes.Description != nil {
		record("description", obj.Description, *changes.Description)
		obj.Description = *changes.Description
	}
	if changes.Category != nil {
		if !changes.Category.Valid() {
			return nil, apperr.Validationf("category", "unknown object category %q", *changes.Category)
		}
		record("category", string(obj.Category), string(*changes.Category))
		obj.Category = *changes.Category
	}

	obj.UpdatedBy = actor.ID

	defer prometheus.TrackDBOperation("object_update")(time.Now())
	if err := s.objects.Save(ctx, obj); err != nil {
		return nil, err
	}

	s.invalidate(ctx, objectCacheKey(tenantID, obj.ObjectKey))
	prometheus.UpdateObjectCounter.Inc()

	s.recorder.RecordEvent(ctx, audit.Event{
		TenantID:      tenantID,
		ObjectKey:     obj.ObjectKey,
		Name:          model.AuditEventUpdate,
		Target:        audit.TargetByID(obj.ID),
		ActorID:       actor.ID,
		ClientIP:      actor.IP,
		Payload:       changes,
		CorrelationID: actor.CorrelationID,
	})
	for _, transition := range transitions {
		s.recorder.RecordFieldChange(ctx, transition)
	}

	return obj, nil
}

// Delete soft-deletes an object the tenant owns and invalidates the
// cache entries for the object and its field list.
func (s *ObjectService) Delete(ctx context.Context, tenantID, objectID uint, actor Actor) error {
	obj, err := s.objects.GetByID(ctx, tenantID, objectID)
	if err != nil {
		return err
	}

	defer prometheus.TrackDBOperation("object_delete")(time.Now())
	if err := s.objects.SoftDelete(ctx, obj.ID); err != nil {
		return err
	}

	s.invalidate(ctx, objectCacheKey(tenantID, obj.ObjectKey))
	s.invalidate(ctx, fieldListCacheKey(obj.ID))
	prometheus.DeleteObjectCounter.Inc()

	s.recorder.RecordEvent(ctx, audit.Event{
		TenantID:      tenantID,
		ObjectKey:     obj.ObjectKey,
		Name:          model.AuditEventDelete,
		Target:        audit.TargetByID(obj.ID),
		ActorID:       actor.ID,
		ClientIP:      actor.IP,
		CorrelationID: actor.CorrelationID,
	})

	return nil
}

func (s *ObjectService) invalidate(ctx context.Context, key string) {
	if err := s.cache.Remove(ctx, key); err != nil {
		logger.FromContext(ctx).Warn("Cache invalidation failed",
			zap.String("key", key), zap.Error(err))
	}
}
