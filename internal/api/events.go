package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/forensicate/forensicate/internal/chread"
	"go.uber.org/zap"
)

func (d *Dependencies) handleListScanEvents(w http.ResponseWriter, r *http.Request) {
	if d.Reader == nil {
		writeError(w, CodeInternalError, "ClickHouse not configured")
		return
	}

	q := r.URL.Query()
	tenantID := q.Get("tenant_id")
	if tenantID == "" {
		writeError(w, CodeValidationError, "tenant_id query parameter is required")
		return
	}

	params := chread.ListScanEventsParams{
		TenantID: tenantID,
		Page:     queryInt(q, "page", 1),
		PageSize: queryInt(q, "page_size", 50),
	}
	if params.PageSize > 200 {
		params.PageSize = 200
	}
	if params.Page < 1 {
		params.Page = 1
	}

	if v := q.Get("risk_level"); v != "" {
		params.RiskLevel = &v
	}
	if v := q.Get("rule_id"); v != "" {
		params.RuleID = &v
	}
	if v := q.Get("category"); v != "" {
		params.Category = &v
	}
	if v := q.Get("is_positive"); v != "" {
		b := v == "true" || v == "1"
		params.IsPositive = &b
	}
	if v := q.Get("start_time"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			params.StartTime = &t
		}
	}
	if v := q.Get("end_time"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			params.EndTime = &t
		}
	}

	events, total, err := d.Reader.ListScanEvents(r.Context(), params)
	if err != nil {
		d.Logger.Error("failed to list scan events", zap.Error(err))
		writeError(w, CodeInternalError, "Failed to list scan events")
		return
	}

	resp := ScanEventListResp{
		Events:   make([]ScanEventResp, 0, len(events)),
		Total:    total,
		Page:     params.Page,
		PageSize: params.PageSize,
	}
	for _, e := range events {
		resp.Events = append(resp.Events, scanEventRowToResp(e))
	}

	writeJSON(w, http.StatusOK, resp)
}

func (d *Dependencies) handleGetScanEvent(w http.ResponseWriter, r *http.Request) {
	if d.Reader == nil {
		writeError(w, CodeInternalError, "ClickHouse not configured")
		return
	}

	requestID := r.PathValue("request_id")
	tenantID := r.URL.Query().Get("tenant_id")
	if tenantID == "" {
		writeError(w, CodeValidationError, "tenant_id query parameter is required")
		return
	}

	event, err := d.Reader.GetScanEvent(r.Context(), tenantID, requestID)
	if err != nil {
		d.Logger.Error("failed to get scan event", zap.Error(err))
		writeError(w, CodeInternalError, "Failed to get scan event")
		return
	}
	if event == nil {
		writeError(w, CodeNotFound, "Scan event not found")
		return
	}

	writeJSON(w, http.StatusOK, scanEventRowToResp(*event))
}

func (d *Dependencies) handleGetAnalytics(w http.ResponseWriter, r *http.Request) {
	if d.Reader == nil {
		writeError(w, CodeInternalError, "ClickHouse not configured")
		return
	}

	q := r.URL.Query()
	tenantID := q.Get("tenant_id")
	if tenantID == "" {
		writeError(w, CodeValidationError, "tenant_id query parameter is required")
		return
	}

	days := queryInt(q, "days", 7)
	if days < 1 {
		days = 1
	}
	if days > 90 {
		days = 90
	}

	result, err := d.Reader.GetAnalytics(r.Context(), tenantID, days)
	if err != nil {
		d.Logger.Error("failed to get analytics", zap.Error(err))
		writeError(w, CodeInternalError, "Failed to get analytics")
		return
	}

	writeJSON(w, http.StatusOK, AnalyticsResp{
		Summary: SummaryStatsResp{
			TotalScans: result.Summary.TotalScans,
			Positives:  result.Summary.Positives,
			Negatives:  result.Summary.Negatives,
		},
		ScansOverTime: toTimeSeriesResp(result.ScansOverTime),
		TopRules:      toRuleCountResp(result.TopRules),
		TopCategories: toCategoryResp(result.TopCategories),
		RiskLevels: RiskLevelCountsResp{
			Low:    result.RiskLevels.Low,
			Medium: result.RiskLevels.Medium,
			High:   result.RiskLevels.High,
		},
		LatencyPercentiles: LatencyPercentilesResp{
			P50: result.LatencyPercentiles.P50,
			P95: result.LatencyPercentiles.P95,
			P99: result.LatencyPercentiles.P99,
		},
	})
}

// scanEventRowToResp converts a ClickHouse ScanEventRow to the API response.
func scanEventRowToResp(e chread.ScanEventRow) ScanEventResp {
	return ScanEventResp{
		RequestID:         e.RequestID,
		TenantID:          e.TenantID,
		Timestamp:         e.Timestamp,
		PayloadHash:       e.PayloadHash,
		PayloadSize:       e.PayloadSize,
		IsPositive:        e.IsPositive == 1,
		Confidence:        int(e.Confidence),
		RiskLevel:         e.RiskLevel,
		MatchedRuleIDs:    e.MatchedRuleIDs,
		MatchedRuleNames:  e.MatchedRuleNames,
		Severities:        e.Severities,
		Categories:        e.Categories,
		CompoundThreatIDs: e.CompoundThreatIDs,
		ClientTraceID:     nilIfEmpty(e.ClientTraceID),
		LatencyMs:         e.LatencyMs,
		Source:            e.Source,
	}
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func queryInt(q interface{ Get(string) string }, key string, defaultVal int) int {
	v := q.Get(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func toTimeSeriesResp(buckets []chread.TimeSeriesBucket) []TimeSeriesBucketResp {
	out := make([]TimeSeriesBucketResp, len(buckets))
	for i, b := range buckets {
		out[i] = TimeSeriesBucketResp{Hour: b.Hour, Count: b.Count}
	}
	return out
}

func toRuleCountResp(rcs []chread.RuleCount) []RuleCountResp {
	out := make([]RuleCountResp, len(rcs))
	for i, rc := range rcs {
		out[i] = RuleCountResp{RuleID: rc.RuleID, Count: rc.Count}
	}
	return out
}

func toCategoryResp(cats []chread.CategoryCount) []CategoryCountResp {
	out := make([]CategoryCountResp, len(cats))
	for i, c := range cats {
		out[i] = CategoryCountResp{Category: c.Category, Count: c.Count}
	}
	return out
}
