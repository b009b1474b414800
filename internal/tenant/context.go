package tenant

import (
	"context"
	"fmt"

	"github.com/suteetoe/metacore/internal/model"
)

type contextKey struct{}

// scope is the request-scoped tenancy value. A nil tenant with the
// scope present means system-admin mode; an absent scope means the
// request was never resolved.
type scope struct {
	tenant *model.Tenant
}

// WithTenant returns a context carrying the given active tenant.
func WithTenant(ctx context.Context, t *model.Tenant) context.Context {
	return context.WithValue(ctx, contextKey{}, &scope{tenant: t})
}

// WithSystemAdmin returns a context in system-admin mode (no tenant).
func WithSystemAdmin(ctx context.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, &scope{})
}

// CurrentTenant returns the active tenant, if any. The second return
// is false both in system-admin mode and on an unresolved context.
func CurrentTenant(ctx context.Context) (*model.Tenant, bool) {
	s, ok := ctx.Value(contextKey{}).(*scope)
	if !ok || s.tenant == nil {
		return nil, false
	}
	return s.tenant, true
}

// IsSystemAdmin reports whether the context was resolved to
// system-admin mode.
func IsSystemAdmin(ctx context.Context) bool {
	s, ok := ctx.Value(contextKey{}).(*scope)
	return ok && s.tenant == nil
}

// IsResolved reports whether tenancy resolution ran for this context.
func IsResolved(ctx context.Context) bool {
	_, ok := ctx.Value(contextKey{}).(*scope)
	return ok
}

// Partition returns the cache partition for the context: the tenant's
// partition when a tenant is active, the global partition in
// system-admin mode, and an error on an unresolved context so callers
// cannot accidentally share cache entries before resolution.
func Partition(ctx context.Context) (string, error) {
	s, ok := ctx.Value(contextKey{}).(*scope)
	if !ok {
		return "", fmt.Errorf("tenant context not resolved")
	}
	if s.tenant == nil {
		return "global", nil
	}
	return fmt.Sprintf("tenant:%d", s.tenant.ID), nil
}
