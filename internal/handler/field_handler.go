package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/metacore/internal/registry"
	"github.com/suteetoe/metacore/internal/tenant"
	"github.com/suteetoe/metacore/pkg/logger"
	"go.uber.org/zap"
)

// FieldHandler exposes the dynamic field registry over HTTP. Fields
// are addressed through their owning object's key for list/add and by
// id for update/delete.
type FieldHandler struct {
	objects *registry.ObjectService
	fields  *registry.FieldService
}

// NewFieldHandler creates a FieldHandler.
func NewFieldHandler(objects *registry.ObjectService, fields *registry.FieldService) *FieldHandler {
	return &FieldHandler{objects: objects, fields: fields}
}

// List handles field listing for an object
func (h *FieldHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	current, _ := tenant.CurrentTenant(ctx)

	obj, err := h.objects.GetByKey(ctx, current.ID, c.Param("key"))
	if err != nil {
		return writeError(c, err)
	}

	fields, err := h.fields.ListFields(ctx, obj.ID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"fields": fields})
}

// Add handles field creation on an object
func (h *FieldHandler) Add(c echo.Context) error {
	log := logger.FromEcho(c)
	ctx := c.Request().Context()
	current, _ := tenant.CurrentTenant(ctx)

	obj, err := h.objects.GetByKey(ctx, current.ID, c.Param("key"))
	if err != nil {
		return writeError(c, err)
	}

	var req registry.FieldDefinition
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse field creation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	field, err := h.fields.AddField(ctx, current.ID, obj.ID, req, actorFrom(c))
	if err != nil {
		log.Error("Failed to add field",
			zap.String("object_key", obj.ObjectKey),
			zap.String("field_key", req.FieldKey),
			zap.Error(err))
		return writeError(c, err)
	}

	log.Info("Field added",
		zap.String("object_key", obj.ObjectKey),
		zap.String("field_key", field.FieldKey),
		zap.Uint("id", field.ID))

	return c.JSON(http.StatusCreated, field)
}

// Update handles field updates
func (h *FieldHandler) Update(c echo.Context) error {
	log := logger.FromEcho(c)
	ctx := c.Request().Context()
	current, _ := tenant.CurrentTenant(ctx)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid field ID"})
	}

	var req registry.FieldChanges
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse field update request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	field, err := h.fields.UpdateField(ctx, current.ID, uint(id), req, actorFrom(c))
	if err != nil {
		log.Error("Failed to update field", zap.Uint64("id", id), zap.Error(err))
		return writeError(c, err)
	}

	log.Info("Field updated",
		zap.String("field_key", field.FieldKey),
		zap.Uint("id", field.ID))

	return c.JSON(http.StatusOK, field)
}

// Delete handles field soft deletion
func (h *FieldHandler) Delete(c echo.Context) error {
	log := logger.FromEcho(c)
	ctx := c.Request().Context()
	current, _ := tenant.CurrentTenant(ctx)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid field ID"})
	}

	if err := h.fields.DeleteField(ctx, current.ID, uint(id), actorFrom(c)); err != nil {
		log.Error("Failed to delete field", zap.Uint64("id", id), zap.Error(err))
		return writeError(c, err)
	}

	log.Info("Field deleted", zap.Uint64("id", id))

	return c.JSON(http.StatusOK, echo.Map{"message": "field deleted"})
}
