package domain

// ============================================================
// Health & Metrics API Responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of a dependency.
type ServiceHealth struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// CacheMetrics is returned by GET /v1/metrics/cache.
type CacheMetrics struct {
	Hits          float64 `json:"hits"`
	Misses        float64 `json:"misses"`
	HitRate       float64 `json:"hitRate"`
	Invalidations float64 `json:"invalidations"`
	UpstreamCalls float64 `json:"upstreamCalls"`
	UpstreamFails float64 `json:"upstreamFailures"`
}

// SuccessResponse wraps a successful acknowledgement.
type SuccessResponse struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}
