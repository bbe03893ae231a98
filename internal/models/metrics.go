package models

import "time"

// SystemMetrics is a lightweight aggregate snapshot exposed to operators.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cacheHitRatio"`
	CacheHits                uint64    `json:"cacheHits"`
	CacheMisses              uint64    `json:"cacheMisses"`
	RequestsTotal            uint64    `json:"requestsTotal"`
	AverageRequestDurationMs float64   `json:"averageRequestDurationMs"`
	FeedEventsTotal          uint64    `json:"feedEventsTotal"`
	SessionTransitionsTotal  uint64    `json:"sessionTransitionsTotal"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generatedAt"`
}
