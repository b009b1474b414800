package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/metacore/internal/apperr"
	"github.com/suteetoe/metacore/internal/tenant"
	"github.com/suteetoe/metacore/pkg/logger"
	"github.com/suteetoe/metacore/prometheus"
	"go.uber.org/zap"
)

// TenantResolutionMiddleware resolves the request host to a tenant
// and installs it into the request context for everything downstream.
// An unknown host is a 404 and an inactive tenant a 403; neither
// falls through to tenant or admin behavior.
func TenantResolutionMiddleware(resolver *tenant.Resolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromEcho(c)
			host := c.Request().Host

			identifier := resolver.ResolveIdentifier(host)
			ctx, err := resolver.Activate(c.Request().Context(), identifier)
			if err != nil {
				if errors.Is(err, apperr.ErrRejected) {
					prometheus.TenantResolutionCounter.WithLabelValues("rejected").Inc()
					log.Warn("Tenant rejected", zap.String("host", host))
					return c.JSON(http.StatusForbidden, echo.Map{"error": "tenant is not active"})
				}
				if errors.Is(err, apperr.ErrNotFound) {
					prometheus.TenantResolutionCounter.WithLabelValues("unknown").Inc()
					log.Warn("Unknown tenant host", zap.String("host", host))
					return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown tenant"})
				}
				prometheus.TenantResolutionCounter.WithLabelValues("error").Inc()
				log.Error("Tenant resolution failed", zap.String("host", host), zap.Error(err))
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant resolution failed"})
			}

			if t, ok := tenant.CurrentTenant(ctx); ok {
				prometheus.TenantResolutionCounter.WithLabelValues("tenant").Inc()
				log = log.With(zap.Uint("tenant_id", t.ID))
				c.Set("logger", log)
			} else {
				prometheus.TenantResolutionCounter.WithLabelValues("system_admin").Inc()
			}

			// Carry the logger alongside the tenancy scope so
			// service-level logs keep the request fields.
			ctx = logger.WithContext(ctx, log)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// RequireTenant rejects requests that did not resolve to an active
// tenant. Used on the registry routes, which are meaningless in
// system-admin mode.
func RequireTenant() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := tenant.CurrentTenant(c.Request().Context()); !ok {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant context required"})
			}
			return next(c)
		}
	}
}

// RequireSystemAdmin rejects requests outside system-admin mode.
// Used on the tenant administration routes.
func RequireSystemAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !tenant.IsSystemAdmin(c.Request().Context()) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
			}
			return next(c)
		}
	}
}
