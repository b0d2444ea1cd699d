package metrics

import (
	"time"

	"github.com/calgate/calgate/internal/observability"
)

// Application-level metrics following Prometheus conventions
var (
	// Chat endpoint metrics
	ChatRequestsTotal     = "app_chat_requests_total"
	RateLimitDenialsTotal = "app_rate_limit_denials_total"
	TrackedIdentities     = "app_rate_limit_tracked_identities"
	UpstreamLatencyMs     = "app_upstream_latency_ms"

	// Health check metrics
	HealthCheckTotal    = "app_health_check_total"
	HealthCheckDuration = "app_health_check_duration_ms"

	// Server lifecycle metrics
	ServerStartTime = "app_server_start_time_seconds"
)

// RecordChatRequest records a chat request by outcome and credential source.
func RecordChatRequest(outcome string, usingUserKey bool) {
	source := "shared"
	if usingUserKey {
		source = "user"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			ChatRequestsTotal,
			1,
			map[string]string{
				"outcome": outcome,
				"key":     source,
			},
		)
	}
}

// RecordRateLimitDenial records an admission denial on the shared credential.
func RecordRateLimitDenial() {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			RateLimitDenialsTotal,
			1,
			nil,
		)
	}
}

// SetTrackedIdentities sets the number of client identities the limiter
// currently tracks.
func SetTrackedIdentities(count int64) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(
			TrackedIdentities,
			float64(count),
			nil,
		)
	}
}

// ObserveUpstreamLatency records the round-trip time of an upstream
// completion call.
func ObserveUpstreamLatency(duration time.Duration) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Histogram(
			UpstreamLatencyMs,
			duration,
			nil,
		)
	}
}

// RecordHealthCheck records a health check execution
func RecordHealthCheck(checkName string, healthy bool, duration time.Duration) {
	status := "healthy"
	if !healthy {
		status = "unhealthy"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			HealthCheckTotal,
			1,
			map[string]string{
				"check":  checkName,
				"status": status,
			},
		)

		_ = observability.TelemetrySystem.Histogram(
			HealthCheckDuration,
			duration,
			map[string]string{
				"check": checkName,
			},
		)
	}
}

// SetServerStartTime records the server start time (Unix timestamp)
func SetServerStartTime(timestamp int64) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(
			ServerStartTime,
			float64(timestamp),
			nil,
		)
	}
}
