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

// ObjectHandler exposes the dynamic object registry over HTTP. All
// routes run behind the tenant resolution middleware with an active
// tenant required.
type ObjectHandler struct {
	objects *registry.ObjectService
}

// NewObjectHandler creates an ObjectHandler.
func NewObjectHandler(objects *registry.ObjectService) *ObjectHandler {
	return &ObjectHandler{objects: objects}
}

// Create handles object creation
func (h *ObjectHandler) Create(c echo.Context) error {
	log := logger.FromEcho(c)
	ctx := c.Request().Context()

	current, _ := tenant.CurrentTenant(ctx)

	var req registry.ObjectDefinition
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse object creation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	obj, err := h.objects.Create(ctx, current.ID, req, actorFrom(c))
	if err != nil {
		log.Error("Failed to create object",
			zap.String("object_key", req.ObjectKey), zap.Error(err))
		return writeError(c, err)
	}

	log.Info("Object created",
		zap.String("object_key", obj.ObjectKey),
		zap.Uint("id", obj.ID),
		zap.Uint("tenant_id", obj.TenantID))

	return c.JSON(http.StatusCreated, obj)
}

// GetByKey handles object retrieval by key
func (h *ObjectHandler) GetByKey(c echo.Context) error {
	ctx := c.Request().Context()
	current, _ := tenant.CurrentTenant(ctx)

	obj, err := h.objects.GetByKey(ctx, current.ID, c.Param("key"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, obj)
}

// Update handles object updates
func (h *ObjectHandler) Update(c echo.Context) error {
	log := logger.FromEcho(c)
	ctx := c.Request().Context()
	current, _ := tenant.CurrentTenant(ctx)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid object ID"})
	}

	var req registry.ObjectChanges
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse object update request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	obj, err := h.objects.Update(ctx, current.ID, uint(id), req, actorFrom(c))
	if err != nil {
		log.Error("Failed to update object", zap.Uint64("id", id), zap.Error(err))
		return writeError(c, err)
	}

	log.Info("Object updated",
		zap.String("object_key", obj.ObjectKey),
		zap.Uint("id", obj.ID))

	return c.JSON(http.StatusOK, obj)
}

// Delete handles object soft deletion
func (h *ObjectHandler) Delete(c echo.Context) error {
	log := logger.FromEcho(c)
	ctx := c.Request().Context()
	current, _ := tenant.CurrentTenant(ctx)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid object ID"})
	}

	if err := h.objects.Delete(ctx, current.ID, uint(id), actorFrom(c)); err != nil {
		log.Error("Failed to delete object", zap.Uint64("id", id), zap.Error(err))
		return writeError(c, err)
	}

	log.Info("Object deleted", zap.Uint64("id", id))

	return c.JSON(http.StatusOK, echo.Map{"message": "object deleted"})
}
