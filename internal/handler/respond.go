package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/metacore/internal/apperr"
	"github.com/suteetoe/metacore/internal/middleware"
	"github.com/suteetoe/metacore/internal/registry"
)

// writeError maps the error taxonomy onto HTTP responses.
func writeError(c echo.Context, err error) error {
	if verr, ok := apperr.AsValidation(err); ok {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":     verr.Reason,
			"attribute": verr.Attribute,
		})
	}
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, apperr.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, apperr.ErrRejected):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "tenant is not active"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// actorFrom builds the audit attribution for the current request from
// the JWT claims and the request metadata.
func actorFrom(c echo.Context) registry.Actor {
	actor := registry.Actor{
		IP:            c.RealIP(),
		CorrelationID: middleware.CorrelationID(c),
	}
	if claims, ok := middleware.ActorClaims(c); ok {
		actor.ID = claims.UserID
	}
	return actor
}
