package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/metacore/internal/audit"
	"github.com/suteetoe/metacore/internal/model"
	"github.com/suteetoe/metacore/internal/tenant"
	"github.com/suteetoe/metacore/pkg/logger"
	"go.uber.org/zap"
)

const tenantObjectKey = "tenant"

// TenantHandler exposes tenant administration. All routes require
// system-admin mode; a tenant request cannot see or manage tenants.
type TenantHandler struct {
	catalog  tenant.Catalog
	recorder *audit.Recorder
}

// NewTenantHandler creates a TenantHandler.
func NewTenantHandler(catalog tenant.Catalog, recorder *audit.Recorder) *TenantHandler {
	return &TenantHandler{catalog: catalog, recorder: recorder}
}

// Register handles tenant registration
func (h *TenantHandler) Register(c echo.Context) error {
	log := logger.FromEcho(c)
	ctx := c.Request().Context()

	var req struct {
		Name             string `json:"name"`
		Host             string `json:"host"`
		ContactEmail     string `json:"contact_email"`
		TimeZone         string `json:"time_zone"`
		OwnerID          uint   `json:"owner_id"`
		StoragePartition string `json:"storage_partition"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse tenant registration request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Host = strings.ToLower(strings.TrimSpace(req.Host))
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	if req.Host == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "host is required"})
	}

	// Fast-path host check; the unique index decides races.
	if exists, err := h.catalog.HostExists(ctx, req.Host); err != nil {
		log.Error("Failed to check tenant host", zap.Error(err))
		return writeError(c, err)
	} else if exists {
		return c.JSON(http.StatusConflict, echo.Map{"error": "host is already in use"})
	}

	actor := actorFrom(c)
	t := &model.Tenant{
		Name:             req.Name,
		Host:             req.Host,
		ContactEmail:     req.ContactEmail,
		TimeZone:         req.TimeZone,
		OwnerID:          req.OwnerID,
		StoragePartition: req.StoragePartition,
		Active:           true,
		CreatedBy:        actor.ID,
		UpdatedBy:        actor.ID,
	}

	if err := h.catalog.Create(ctx, t); err != nil {
		log.Error("Failed to create tenant", zap.String("host", req.Host), zap.Error(err))
		return writeError(c, err)
	}

	h.recorder.RecordEvent(ctx, audit.Event{
		TenantID:      t.ID,
		ObjectKey:     tenantObjectKey,
		Name:          model.AuditEventCreate,
		Target:        audit.TargetByID(t.ID),
		ActorID:       actor.ID,
		ClientIP:      actor.IP,
		Payload:       t,
		CorrelationID: actor.CorrelationID,
	})

	log.Info("Tenant registered",
		zap.String("name", t.Name),
		zap.String("host", t.Host),
		zap.Uint("id", t.ID))

	return c.JSON(http.StatusCreated, t)
}

// Get handles tenant retrieval
func (h *TenantHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tenant ID"})
	}

	t, err := h.catalog.GetByID(ctx, uint(id))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

// List handles tenant listing
func (h *TenantHandler) List(c echo.Context) error {
	tenants, err := h.catalog.List(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"tenants": tenants})
}

// Deactivate handles tenant deactivation. The record stays; its
// requests are rejected from the next resolution on.
func (h *TenantHandler) Deactivate(c echo.Context) error {
	log := logger.FromEcho(c)
	ctx := c.Request().Context()

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tenant ID"})
	}

	t, err := h.catalog.GetByID(ctx, uint(id))
	if err != nil {
		return writeError(c, err)
	}

	if !t.Active {
		return c.JSON(http.StatusOK, t)
	}

	actor := actorFrom(c)
	t.Active = false
	t.UpdatedBy = actor.ID
	if err := h.catalog.Update(ctx, t); err != nil {
		log.Error("Failed to deactivate tenant", zap.Uint("id", t.ID), zap.Error(err))
		return writeError(c, err)
	}

	h.recorder.RecordEvent(ctx, audit.Event{
		TenantID:      t.ID,
		ObjectKey:     tenantObjectKey,
		Name:          model.AuditEventUpdate,
		Target:        audit.TargetByID(t.ID),
		ActorID:       actor.ID,
		ClientIP:      actor.IP,
		Payload:       echo.Map{"active": false},
		CorrelationID: actor.CorrelationID,
	})
	h.recorder.RecordFieldChange(ctx, audit.FieldChange{
		TenantID:      t.ID,
		ObjectKey:     tenantObjectKey,
		Target:        audit.TargetByID(t.ID),
		FieldName:     "active",
		OldValue:      "true",
		NewValue:      "false",
		ActorID:       actor.ID,
		CorrelationID: actor.CorrelationID,
	})

	log.Info("Tenant deactivated", zap.Uint("id", t.ID), zap.String("host", t.Host))

	return c.JSON(http.StatusOK, t)
}
