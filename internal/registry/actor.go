package registry

import (
	"fmt"
	"strings"
)

// Actor identifies who performs a registry mutation and under which
// request, for audit attribution. Handlers fill it from the JWT
// claims and the request metadata.
type Actor struct {
	ID            uint
	IP            string
	CorrelationID string
}

// objectCacheKey is the logical cache key for one object definition.
// The tenant id is part of the key on top of the cache partition, so
// system-admin reads on behalf of a tenant stay distinct too.
func objectCacheKey(tenantID uint, objectKey string) string {
	return fmt.Sprintf("object:%d:%s", tenantID, strings.ToLower(objectKey))
}

// fieldListCacheKey is the logical cache key for an object's field
// list.
func fieldListCacheKey(objectID uint) string {
	return fmt.Sprintf("fields:%d", objectID)
}
