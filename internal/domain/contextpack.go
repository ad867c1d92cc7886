package domain

import "time"

// ContextPack is the point-in-time market snapshot consumed read-only by
// Generate and Charter. The core never mutates it and never fetches
// fresher data to override it — AnchorDate is authoritative (§6.1).
type ContextPack struct {
	AnchorDate          time.Time         `json:"anchor_date"`
	RegimeSnapshot      string            `json:"regime_snapshot"`
	MacroIndicators     map[string]float64 `json:"macro_indicators"`
	BenchmarkPerformance map[string]float64 `json:"benchmark_performance"`
	RecentEvents        []string          `json:"recent_events"`
	RegimeTags          []string          `json:"regime_tags"`
}
