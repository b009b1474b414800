package audit

import (
	"context"
	"encoding/json"

	"github.com/suteetoe/metacore/internal/model"
	"github.com/suteetoe/metacore/pkg/logger"
	"github.com/suteetoe/metacore/prometheus"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// TargetRef identifies the entity an entry is about. Exactly one of
// Key and ID must be populated.
type TargetRef struct {
	Key *string
	ID  *uint
}

// TargetByID builds a TargetRef from an integer surrogate.
func TargetByID(id uint) TargetRef {
	return TargetRef{ID: &id}
}

// TargetByKey builds a TargetRef from a structured identifier.
func TargetByKey(key string) TargetRef {
	return TargetRef{Key: &key}
}

func (t TargetRef) valid() bool {
	return (t.Key != nil) != (t.ID != nil)
}

// Event describes one audit event to record.
type Event struct {
	TenantID      uint
	ObjectKey     string
	Name          string
	Target        TargetRef
	ActorID       uint
	ClientIP      string
	Payload       interface{}
	CorrelationID string
}

// FieldChange describes one field-level value transition to record.
type FieldChange struct {
	TenantID      uint
	ObjectKey     string
	Target        TargetRef
	FieldName     string
	OldValue      string
	NewValue      string
	ActorID       uint
	CorrelationID string
}

// Recorder writes to the append-only logs. Writes happen
// synchronously, but a failure never propagates to the caller: the
// triggering business mutation has already succeeded and must not be
// rolled back. Failures are logged and counted so operators can
// detect gaps in the trail.
type Recorder struct {
	store Store
}

// NewRecorder creates a Recorder over the given store.
func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store}
}

// RecordEvent appends one audit log entry.
func (r *Recorder) RecordEvent(ctx context.Context, event Event) {
	log := logger.FromContext(ctx)

	if !event.Target.valid() {
		r.fail(log, "audit", nil,
			zap.String("object_key", event.ObjectKey),
			zap.String("event", event.Name),
			zap.String("reason", "target reference must have exactly one of key and id"))
		return
	}

	var payload datatypes.JSON
	if event.Payload != nil {
		raw, err := json.Marshal(event.Payload)
		if err != nil {
			r.fail(log, "audit", err,
				zap.String("object_key", event.ObjectKey),
				zap.String("event", event.Name))
			return
		}
		payload = datatypes.JSON(raw)
	}

	entry := &model.AuditLogEntry{
		TenantID:      event.TenantID,
		ObjectKey:     event.ObjectKey,
		Event:         event.Name,
		TargetKey:     event.Target.Key,
		TargetID:      event.Target.ID,
		ClientIP:      event.ClientIP,
		Payload:       payload,
		CorrelationID: event.CorrelationID,
		ActorID:       event.ActorID,
	}

	// The request may already be cancelled when the mutation
	// response goes out; the trail is written regardless.
	if err := r.store.AppendEvent(context.WithoutCancel(ctx), entry); err != nil {
		r.fail(log, "audit", err,
			zap.String("object_key", event.ObjectKey),
			zap.String("event", event.Name),
			zap.String("correlation_id", event.CorrelationID))
	}
}

// RecordFieldChange appends one change history entry.
func (r *Recorder) RecordFieldChange(ctx context.Context, change FieldChange) {
	log := logger.FromContext(ctx)

	if !change.Target.valid() {
		r.fail(log, "change_history", nil,
			zap.String("object_key", change.ObjectKey),
			zap.String("field", change.FieldName),
			zap.String("reason", "target reference must have exactly one of key and id"))
		return
	}

	entry := &model.ChangeHistoryEntry{
		TenantID:      change.TenantID,
		ObjectKey:     change.ObjectKey,
		TargetKey:     change.Target.Key,
		TargetID:      change.Target.ID,
		FieldName:     change.FieldName,
		OldValue:      change.OldValue,
		NewValue:      change.NewValue,
		CorrelationID: change.CorrelationID,
		ActorID:       change.ActorID,
	}

	if err := r.store.AppendFieldChange(context.WithoutCancel(ctx), entry); err != nil {
		r.fail(log, "change_history", err,
			zap.String("object_key", change.ObjectKey),
			zap.String("field", change.FieldName),
			zap.String("correlation_id", change.CorrelationID))
	}
}

func (r *Recorder) fail(log *zap.Logger, which string, err error, fields ...zap.Field) {
	prometheus.AuditWriteFailureCounter.WithLabelValues(which).Inc()
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	log.Error("Failed to write "+which+" entry", fields...)
}
