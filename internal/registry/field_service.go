package registry

import (
	"context"
	"strconv"
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

// FieldDefinition is the input for adding a field to an object. The
// field type is fixed at creation. Nil visibility flags default to
// visible.
type FieldDefinition struct {
	FieldKey string          `json:"field_key"`
	Label    string          `json:"label"`
	Type     model.FieldType `json:"type"`

	Required bool `json:"required"`
	Unique   bool `json:"unique"`

	MinLength        *int   `json:"min_length,omitempty"`
	MaxLength        *int   `json:"max_length,omitempty"`
	Decimals         *int   `json:"decimals,omitempty"`
	MaxFileSize      *int64 `json:"max_file_size,omitempty"`
	MinFileCount     *int   `json:"min_file_count,omitempty"`
	MaxFileCount     *int   `json:"max_file_count,omitempty"`
	AllowedFileTypes string `json:"allowed_file_types,omitempty"`
	ValueListID      *uint  `json:"value_list_id,omitempty"`
	MinSelectedItems *int   `json:"min_selected_items,omitempty"`
	MaxSelectedItems *int   `json:"max_selected_items,omitempty"`

	VisibleOnCreate *bool `json:"visible_on_create,omitempty"`
	VisibleOnEdit   *bool `json:"visible_on_edit,omitempty"`
	VisibleOnView   *bool `json:"visible_on_view,omitempty"`
	EditableOnEdit  *bool `json:"editable_on_edit,omitempty"`

	AuditChanges bool `json:"audit_changes"`
}

// FieldChanges carries the mutable attributes of a field update. Nil
// fields are left untouched; field key and type are immutable.
type FieldChanges struct {
	Label    *string `json:"label,omitempty"`
	Required *bool   `json:"required,omitempty"`
	Unique   *bool   `json:"unique,omitempty"`

	MinLength        *int    `json:"min_length,omitempty"`
	MaxLength        *int    `json:"max_length,omitempty"`
	Decimals         *int    `json:"decimals,omitempty"`
	MaxFileSize      *int64  `json:"max_file_size,omitempty"`
	MinFileCount     *int    `json:"min_file_count,omitempty"`
	MaxFileCount     *int    `json:"max_file_count,omitempty"`
	AllowedFileTypes *string `json:"allowed_file_types,omitempty"`
	ValueListID      *uint   `json:"value_list_id,omitempty"`
	MinSelectedItems *int    `json:"min_selected_items,omitempty"`
	MaxSelectedItems *int    `json:"max_selected_items,omitempty"`

	VisibleOnCreate *bool `json:"visible_on_create,omitempty"`
	VisibleOnEdit   *bool `json:"visible_on_edit,omitempty"`
	VisibleOnView   *bool `json:"visible_on_view,omitempty"`
	EditableOnEdit  *bool `json:"editable_on_edit,omitempty"`

	AuditChanges *bool `json:"audit_changes,omitempty"`
}

// FieldService implements the dynamic field registry. Tenant
// ownership is checked through the owning object; a mismatch is a
// NotFound, never a Forbidden.
type FieldService struct {
	objects  ObjectStore
	fields   FieldStore
	cache    *cache.TenantCache
	recorder *audit.Recorder
}

// NewFieldService creates a FieldService.
func NewFieldService(objects ObjectStore, fields FieldStore, tenantCache *cache.TenantCache, recorder *audit.Recorder) *FieldService {
	return &FieldService{
		objects:  objects,
		fields:   fields,
		cache:    tenantCache,
		recorder: recorder,
	}
}

// ListFields returns the object's non-deleted fields ordered by
// label, cache-first.
func (s *FieldService) ListFields(ctx context.Context, objectID uint) ([]model.DynamicObjectField, error) {
	cacheKey := fieldListCacheKey(objectID)

	var cached []model.DynamicObjectField
	hit, err := s.cache.Get(ctx, cacheKey, &cached)
	if err != nil {
		logger.FromContext(ctx).Warn("Field list cache read failed", zap.Error(err))
	}
	if hit {
		return cached, nil
	}

	defer prometheus.TrackDBOperation("field_list")(time.Now())
	fields, err := s.fields.ListByObject(ctx, objectID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, cacheKey, fields); err != nil {
		logger.FromContext(ctx).Warn("Field list cache write failed", zap.Error(err))
	}
	return fields, nil
}

// AddField validates and persists a new field on an object the
// tenant owns. Validation runs in two phases before any persistence;
// only then is key uniqueness checked.
func (s *FieldService) AddField(ctx context.Context, tenantID, objectID uint, def FieldDefinition, actor Actor) (*model.DynamicObjectField, error) {
	obj, err := s.objects.GetByID(ctx, tenantID, objectID)
	if err != nil {
		return nil, err
	}

	field := &model.DynamicObjectField{
		ObjectID:         obj.ID,
		FieldKey:         strings.ToLower(strings.TrimSpace(def.FieldKey)),
		Label:            strings.TrimSpace(def.Label),
		Type:             def.Type,
		Required:         def.Required,
		Unique:           def.Unique,
		MinLength:        def.MinLength,
		MaxLength:        def.MaxLength,
		Decimals:         def.Decimals,
		MaxFileSize:      def.MaxFileSize,
		MinFileCount:     def.MinFileCount,
		MaxFileCount:     def.MaxFileCount,
		AllowedFileTypes: def.AllowedFileTypes,
		ValueListID:      def.ValueListID,
		MinSelectedItems: def.MinSelectedItems,
		MaxSelectedItems: def.MaxSelectedItems,
		VisibleOnCreate:  boolOrDefault(def.VisibleOnCreate, true),
		VisibleOnEdit:    boolOrDefault(def.VisibleOnEdit, true),
		VisibleOnView:    boolOrDefault(def.VisibleOnView, true),
		EditableOnEdit:   boolOrDefault(def.EditableOnEdit, true),
		AuditChanges:     def.AuditChanges,
		CreatedBy:        actor.ID,
		UpdatedBy:        actor.ID,
	}

	if err := ValidateFieldDefinition(field); err != nil {
		return nil, err
	}

	if exists, err := s.fields.KeyExists(ctx, obj.ID, field.FieldKey); err != nil {
		return nil, err
	} else if exists {
		return nil, apperr.Conflictf("field key %q", field.FieldKey)
	}

	defer prometheus.TrackDBOperation("field_create")(time.Now())
	if err := s.fields.Create(ctx, field); err != nil {
		return nil, err
	}

	s.invalidate(ctx, fieldListCacheKey(obj.ID))
	prometheus.CreateFieldCounter.Inc()

	s.recorder.RecordEvent(ctx, audit.Event{
		TenantID:      tenantID,
		ObjectKey:     obj.ObjectKey,
		Name:          model.AuditEventCreate,
		Target:        audit.TargetByID(field.ID),
		ActorID:       actor.ID,
		ClientIP:      actor.IP,
		Payload:       field,
		CorrelationID: actor.CorrelationID,
	})

	return field, nil
}

// UpdateField mutates a field on an object the tenant owns and
// re-validates the merged definition through both phases. Attribute
// transitions go to the change history when the field had
// AuditChanges set before the update.
func (s *FieldService) UpdateField(ctx context.Context, tenantID, fieldID uint, changes FieldChanges, actor Actor) (*model.DynamicObjectField, error) {
	field, obj, err := s.ownedField(ctx, tenantID, fieldID)
	if err != nil {
		return nil, err
	}

	auditTransitions := field.AuditChanges

	var transitions []audit.FieldChange
	record := func(name, oldValue, newValue string) {
		if oldValue == newValue {
			return
		}
		transitions = append(transitions, audit.FieldChange{
			TenantID:      tenantID,
			ObjectKey:     obj.ObjectKey,
			Target:        audit.TargetByID(field.ID),
			FieldName:     name,
			OldValue:      oldValue,
			NewValue:      newValue,
			ActorID:       actor.ID,
			CorrelationID: actor.CorrelationID,
		})
	}

	if changes.Label != nil {
		label := strings.TrimSpace(*changes.Label)
		record("label", field.Label, label)
		field.Label = label
	}
	if changes.Required != nil {
		record("required", strconv.FormatBool(field.Required), strconv.FormatBool(*changes.Required))
		field.Required = *changes.Required
	}
	if changes.Unique != nil {
		record("unique", strconv.FormatBool(field.Unique), strconv.FormatBool(*changes.Unique))
		field.Unique = *changes.Unique
	}
	if changes.MinLength != nil {
		record("min_length", intString(field.MinLength), strconv.Itoa(*changes.MinLength))
		field.MinLength = changes.MinLength
	}
	if changes.MaxLength != nil {
		record("max_length", intString(field.MaxLength), strconv.Itoa(*changes.MaxLength))
		field.MaxLength = changes.MaxLength
	}
	if changes.Decimals != nil {
		record("decimals", intString(field.Decimals), strconv.Itoa(*changes.Decimals))
		field.Decimals = changes.Decimals
	}
	if changes.MaxFileSize != nil {
		record("max_file_size", int64String(field.MaxFileSize), strconv.FormatInt(*changes.MaxFileSize, 10))
		field.MaxFileSize = changes.MaxFileSize
	}
	if changes.MinFileCount != nil {
		record("min_file_count", intString(field.MinFileCount), strconv.Itoa(*changes.MinFileCount))
		field.MinFileCount = changes.MinFileCount
	}
	if changes.MaxFileCount != nil {
		record("max_file_count", intString(field.MaxFileCount), strconv.Itoa(*changes.MaxFileCount))
		field.MaxFileCount = changes.MaxFileCount
	}
	if changes.AllowedFileTypes != nil {
		record("allowed_file_types", field.AllowedFileTypes, *changes.AllowedFileTypes)
		field.AllowedFileTypes = *changes.AllowedFileTypes
	}
	if changes.ValueListID != nil {
		record("value_list_id", uintString(field.ValueListID), strconv.FormatUint(uint64(*changes.ValueListID), 10))
		field.ValueListID = changes.ValueListID
	}
	if changes.MinSelectedItems != nil {
		record("min_selected_items", intString(field.MinSelectedItems), strconv.Itoa(*changes.MinSelectedItems))
		field.MinSelectedItems = changes.MinSelectedItems
	}
	if changes.MaxSelectedItems != nil {
		record("max_selected_items", intString(field.MaxSelectedItems), strconv.Itoa(*changes.MaxSelectedItems))
		field.MaxSelectedItems = changes.MaxSelectedItems
	}
	if changes.VisibleOnCreate != nil {
		record("visible_on_create", strconv.FormatBool(field.VisibleOnCreate), strconv.FormatBool(*changes.VisibleOnCreate))
		field.VisibleOnCreate = *changes.VisibleOnCreate
	}
	if changes.VisibleOnEdit != nil {
		record("visible_on_edit", strconv.FormatBool(field.VisibleOnEdit), strconv.FormatBool(*changes.VisibleOnEdit))
		field.VisibleOnEdit = *changes.VisibleOnEdit
	}
	if changes.VisibleOnView != nil {
		record("visible_on_view", strconv.FormatBool(field.VisibleOnView), strconv.FormatBool(*changes.VisibleOnView))
		field.VisibleOnView = *changes.VisibleOnView
	}
	if changes.EditableOnEdit != nil {
		record("editable_on_edit", strconv.FormatBool(field.EditableOnEdit), strconv.FormatBool(*changes.EditableOnEdit))
		field.EditableOnEdit = *changes.EditableOnEdit
	}
	if changes.AuditChanges != nil {
		record("audit_changes", strconv.FormatBool(field.AuditChanges), strconv.FormatBool(*changes.AuditChanges))
		field.AuditChanges = *changes.AuditChanges
	}

	if err := ValidateFieldDefinition(field); err != nil {
		return nil, err
	}

	field.UpdatedBy = actor.ID

	defer prometheus.TrackDBOperation("field_update")(time.Now())
	if err := s.fields.Save(ctx, field); err != nil {
		return nil, err
	}

	s.invalidate(ctx, fieldListCacheKey(obj.ID))
	prometheus.UpdateFieldCounter.Inc()

	s.recorder.RecordEvent(ctx, audit.Event{
		TenantID:      tenantID,
		ObjectKey:     obj.ObjectKey,
		Name:          model.AuditEventUpdate,
		Target:        audit.TargetByID(field.ID),
		ActorID:       actor.ID,
		ClientIP:      actor.IP,
		Payload:       changes,
		CorrelationID: actor.CorrelationID,
	})
	if auditTransitions {
		for _, transition := range transitions {
			s.recorder.RecordFieldChange(ctx, transition)
		}
	}

	return field, nil
}

// DeleteField soft-deletes a field on an object the tenant owns and
// invalidates the object's field-list cache entry.
func (s *FieldService) DeleteField(ctx context.Context, tenantID, fieldID uint, actor Actor) error {
	field, obj, err := s.ownedField(ctx, tenantID, fieldID)
	if err != nil {
		return err
	}

	defer prometheus.TrackDBOperation("field_delete")(time.Now())
	if err := s.fields.SoftDelete(ctx, field.ID); err != nil {
		return err
	}

	s.invalidate(ctx, fieldListCacheKey(obj.ID))
	prometheus.DeleteFieldCounter.Inc()

	s.recorder.RecordEvent(ctx, audit.Event{
		TenantID:      tenantID,
		ObjectKey:     obj.ObjectKey,
		Name:          model.AuditEventDelete,
		Target:        audit.TargetByID(field.ID),
		ActorID:       actor.ID,
		ClientIP:      actor.IP,
		CorrelationID: actor.CorrelationID,
	})

	return nil
}

// ownedField loads a field and proves tenant ownership through the
// owning object. Any mismatch surfaces as the same NotFound a missing
// field produces.
func (s *FieldService) ownedField(ctx context.Context, tenantID, fieldID uint) (*model.DynamicObjectField, *model.DynamicObject, error) {
	field, err := s.fields.GetByID(ctx, fieldID)
	if err != nil {
		return nil, nil, err
	}
	obj, err := s.objects.GetByID(ctx, tenantID, field.ObjectID)
	if err != nil {
		return nil, nil, err
	}
	return field, obj, nil
}

func (s *FieldService) invalidate(ctx context.Context, key string) {
	if err := s.cache.Remove(ctx, key); err != nil {
		logger.FromContext(ctx).Warn("Cache invalidation failed",
			zap.String("key", key), zap.Error(err))
	}
}

func boolOrDefault(value *bool, fallback bool) bool {
	if value == nil {
		return fallback
	}
	return *value
}

func intString(value *int) string {
	if value == nil {
		return ""
	}
	return strconv.Itoa(*value)
}

func int64String(value *int64) string {
	if value == nil {
		return ""
	}
	return strconv.FormatInt(*value, 10)
}

func uintString(value *uint) string {
	if value == nil {
		return ""
	}
	return strconv.FormatUint(uint64(*value), 10)
}
