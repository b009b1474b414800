package tenant

import (
	"context"
	"net"
	"strings"

	"github.com/suteetoe/metacore/internal/apperr"
	"github.com/suteetoe/metacore/pkg/logger"
	"go.uber.org/zap"
)

// Resolver derives a tenant identifier from a request host and
// activates the matching tenant into the request context.
type Resolver struct {
	adminHost string
	catalog   Catalog
}

// NewResolver creates a resolver. adminHost is the designated
// administrative host that resolves to no tenant.
func NewResolver(adminHost string, catalog Catalog) *Resolver {
	return &Resolver{
		adminHost: normalizeHost(adminHost),
		catalog:   catalog,
	}
}

// ResolveIdentifier strips any port suffix from the request host and
// normalizes it. It returns the empty string when the host is the
// administrative host (system-admin mode).
func (r *Resolver) ResolveIdentifier(requestHost string) string {
	host := normalizeHost(requestHost)
	if host == r.adminHost {
		return ""
	}
	return host
}

// Activate looks up the identifier and installs the tenant into the
// context. An empty identifier activates system-admin mode. An
// unknown host fails with NotFound; a known but inactive tenant fails
// with Rejected. On failure the returned context is unchanged, so the
// request cannot fall through to either tenant or admin behavior.
func (r *Resolver) Activate(ctx context.Context, identifier string) (context.Context, error) {
	if identifier == "" {
		return WithSystemAdmin(ctx), nil
	}

	t, err := r.catalog.GetByHost(ctx, identifier)
	if err != nil {
		return ctx, err
	}

	if !t.Active {
		logger.FromContext(ctx).Warn("Inactive tenant rejected",
			zap.String("host", identifier),
			zap.Uint("tenant_id", t.ID))
		return ctx, apperr.ErrRejected
	}

	return WithTenant(ctx, t), nil
}

// normalizeHost trims whitespace, removes a port suffix if present
// and lowercases the remainder.
func normalizeHost(requestHost string) string {
	host := strings.TrimSpace(requestHost)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.ToLower(host)
}
