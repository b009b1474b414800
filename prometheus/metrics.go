package prometheus

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var CreateObjectCounter = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "registry_object_create_total",
		Help: "Total number of dynamic object creations",
	},
)

var UpdateObjectCounter = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "registry_object_update_total",
		Help: "Total number of dynamic object updates",
	},
)

var DeleteObjectCounter = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "registry_object_delete_total",
		Help: "Total number of dynamic object soft deletes",
	},
)

var CreateFieldCounter = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "registry_field_create_total",
		Help: "Total number of dynamic field creations",
	},
)

var UpdateFieldCounter = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "registry_field_update_total",
		Help: "Total number of dynamic field updates",
	},
)

var DeleteFieldCounter = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "registry_field_delete_total",
		Help: "Total number of dynamic field soft deletes",
	},
)

// CacheHitCounter and CacheMissCounter track tenant cache effectiveness
var CacheHitCounter = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "tenant_cache_hit_total",
		Help: "Total number of tenant cache hits",
	},
)

var CacheMissCounter = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "tenant_cache_miss_total",
		Help: "Total number of tenant cache misses",
	},
)

// AuditWriteFailureCounter makes lost audit records observable; audit
// write failures never fail the triggering mutation.
var AuditWriteFailureCounter = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "audit_write_failure_total",
		Help: "Total number of failed audit or change history writes",
	},
	[]string{"log"},
)

var TenantResolutionCounter = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "tenant_resolution_total",
		Help: "Total number of tenant resolutions by outcome",
	},
	[]string{"outcome"},
)

var DBOperationDurationHistogram = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "registry_db_operation_duration_seconds",
		Help:    "Duration of registry database operations in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"operation"},
)

func init() {
	prometheus.MustRegister(CreateObjectCounter)
	prometheus.MustRegister(UpdateObjectCounter)
	prometheus.MustRegister(DeleteObjectCounter)
	prometheus.MustRegister(CreateFieldCounter)
	prometheus.MustRegister(UpdateFieldCounter)
	prometheus.MustRegister(DeleteFieldCounter)
	prometheus.MustRegister(CacheHitCounter)
	prometheus.MustRegister(CacheMissCounter)
	prometheus.MustRegister(AuditWriteFailureCounter)
	prometheus.MustRegister(TenantResolutionCounter)
	prometheus.MustRegister(DBOperationDurationHistogram)
}

func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// TrackDBOperation returns a function that records the duration of a
// database operation when called with the start time.
func TrackDBOperation(operation string) func(time.Time) {
	return func(start time.Time) {
		DBOperationDurationHistogram.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}
