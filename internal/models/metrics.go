package models

import "time"

// SystemMetrics is a JSON snapshot of in-process instrumentation.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	SubmissionsAccepted      uint64    `json:"submissions_accepted"`
	SubmissionsRejected      uint64    `json:"submissions_rejected"`
	SurveysExpired           uint64    `json:"surveys_expired"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
