package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/metacore/internal/audit"
	"github.com/suteetoe/metacore/internal/tenant"
)

// AuditHandler exposes read access to the audit and change-history
// logs. In tenant mode the scope is fixed to the resolved tenant; in
// system-admin mode a tenant_id query parameter selects the scope.
type AuditHandler struct {
	store audit.Store
}

// NewAuditHandler creates an AuditHandler.
func NewAuditHandler(store audit.Store) *AuditHandler {
	return &AuditHandler{store: store}
}

// Events handles audit log queries
func (h *AuditHandler) Events(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := h.scope(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}

	filter, err := parseFilter(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	entries, total, err := h.store.QueryEvents(ctx, tenantID, filter)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"entries": entries,
		"total":   total,
	})
}

// Changes handles change history queries
func (h *AuditHandler) Changes(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := h.scope(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}

	filter, err := parseFilter(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	entries, total, err := h.store.QueryFieldChanges(ctx, tenantID, filter)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"entries": entries,
		"total":   total,
	})
}

func (h *AuditHandler) scope(c echo.Context) (uint, bool) {
	ctx := c.Request().Context()
	if current, ok := tenant.CurrentTenant(ctx); ok {
		return current.ID, true
	}
	// System-admin mode: the scope comes from the query.
	id, err := strconv.ParseUint(c.QueryParam("tenant_id"), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func parseFilter(c echo.Context) (audit.Filter, error) {
	filter := audit.Filter{
		ObjectKey: c.QueryParam("object_key"),
		TargetKey: c.QueryParam("target_key"),
	}

	if v := c.QueryParam("target_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return filter, fmt.Errorf("invalid target_id")
		}
		filter.TargetID = uint(id)
	}
	if v := c.QueryParam("actor_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return filter, fmt.Errorf("invalid actor_id")
		}
		filter.ActorID = uint(id)
	}
	if v := c.QueryParam("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, fmt.Errorf("invalid from timestamp")
		}
		filter.From = t
	}
	if v := c.QueryParam("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, fmt.Errorf("invalid to timestamp")
		}
		filter.To = t
	}
	if v := c.QueryParam("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil {
			return filter, fmt.Errorf("invalid page")
		}
		filter.Page = page
	}
	if v := c.QueryParam("page_size"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil {
			return filter, fmt.Errorf("invalid page_size")
		}
		filter.PageSize = size
	}

	return filter, nil
}
