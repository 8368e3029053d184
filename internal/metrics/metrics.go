// Package metrics exposes the server's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ScansTotal counts completed scans by outcome (positive, negative).
	ScansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "forensicate",
		Subsystem: "scan",
		Name:      "total",
		Help:      "Total scans by outcome",
	}, []string{"outcome"})

	// RuleMatchesTotal counts individual rule matches by rule id.
	RuleMatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "forensicate",
		Subsystem: "scan",
		Name:      "rule_matches_total",
		Help:      "Total rule matches by rule id",
	}, []string{"rule_id"})

	// CompoundThreatsTotal counts compound-threat detections by definition id.
	CompoundThreatsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "forensicate",
		Subsystem: "scan",
		Name:      "compound_threats_total",
		Help:      "Total compound threat detections by definition id",
	}, []string{"compound_id"})

	// ScanDurationSeconds measures end-to-end /v1/scan handler latency.
	ScanDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "forensicate",
		Subsystem: "scan",
		Name:      "duration_seconds",
		Help:      "Scan handler latency",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	})

	// RateLimitedTotal counts requests rejected by the per-tenant rate limiter.
	RateLimitedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "forensicate",
		Subsystem: "http",
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the per-tenant rate limiter",
	}, []string{"tenant_id"})

	// CommunityRuleFetchTotal counts community rule fetch attempts by result.
	CommunityRuleFetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "forensicate",
		Subsystem: "community",
		Name:      "rule_fetch_total",
		Help:      "Community rule fetch attempts by result",
	}, []string{"result"})
)

// RecordScan records a scan outcome and its matched rules/compound threats.
func RecordScan(isPositive bool, ruleIDs, compoundIDs []string) {
	outcome := "negative"
	if isPositive {
		outcome = "positive"
	}
	ScansTotal.WithLabelValues(outcome).Inc()
	for _, id := range ruleIDs {
		RuleMatchesTotal.WithLabelValues(id).Inc()
	}
	for _, id := range compoundIDs {
		CompoundThreatsTotal.WithLabelValues(id).Inc()
	}
}
