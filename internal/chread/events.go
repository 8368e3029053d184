// Package chread provides read-only ClickHouse queries over the
// scan_events table that internal/storage writes to, backing the
// tenant-facing events and analytics HTTP endpoints.
package chread

import (
	"context"
	"crypto/tls"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"
)

// Reader provides read access to the ClickHouse scan_events table.
type Reader struct {
	conn   driver.Conn
	logger *zap.Logger
}

// NewReader opens a ClickHouse connection for read queries.
func NewReader(dsn string, logger *zap.Logger) (*Reader, error) {
	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("NewReader: %w", err)
	}
	if opts.TLS == nil {
		opts.TLS = &tls.Config{}
	}

	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("NewReader: %w", err)
	}
	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("NewReader: %w", err)
	}

	return &Reader{conn: conn, logger: logger}, nil
}

// Close closes the ClickHouse connection.
func (r *Reader) Close() error {
	return r.conn.Close()
}

// ScanEventRow represents a single row from the scan_events table.
// Deliberately absent, as in storage.ScanEvent: the scanned text itself.
type ScanEventRow struct {
	RequestID         string
	TenantID          string
	Timestamp         time.Time
	PayloadHash       string
	PayloadSize       uint32
	IsPositive        uint8
	Confidence        int32
	RiskLevel         string
	MatchedRuleIDs    []string
	MatchedRuleNames  []string
	Severities        []string
	Categories        []string
	CompoundThreatIDs []string
	ClientTraceID     string
	LatencyMs         float32
	Source            string
}

// ListScanEventsParams holds filters and pagination for event listing.
type ListScanEventsParams struct {
	TenantID   string
	RiskLevel  *string
	RuleID     *string
	Category   *string
	IsPositive *bool
	StartTime  *time.Time
	EndTime    *time.Time
	Page       int
	PageSize   int
}

// ListScanEvents returns paginated, filtered scan events and the total count.
func (r *Reader) ListScanEvents(ctx context.Context, params ListScanEventsParams) ([]ScanEventRow, int, error) {
	conditions := []string{"tenant_id = @tenant_id"}
	args := []any{
		clickhouse.Named("tenant_id", params.TenantID),
	}

	if params.RiskLevel != nil {
		conditions = append(conditions, "risk_level = @risk_level")
		args = append(args, clickhouse.Named("risk_level", *params.RiskLevel))
	}
	if params.RuleID != nil {
		conditions = append(conditions, "has(matched_rule_ids, @rule_id)")
		args = append(args, clickhouse.Named("rule_id", *params.RuleID))
	}
	if params.Category != nil {
		conditions = append(conditions, "has(categories, @category)")
		args = append(args, clickhouse.Named("category", *params.Category))
	}
	if params.IsPositive != nil {
		var v uint8
		if *params.IsPositive {
			v = 1
		}
		conditions = append(conditions, "is_positive = @is_positive")
		args = append(args, clickhouse.Named("is_positive", v))
	}
	if params.StartTime != nil {
		conditions = append(conditions, "timestamp >= @start_time")
		args = append(args, clickhouse.Named("start_time", *params.StartTime))
	}
	if params.EndTime != nil {
		conditions = append(conditions, "timestamp <= @end_time")
		args = append(args, clickhouse.Named("end_time", *params.EndTime))
	}

	where := strings.Join(conditions, " AND ")
	offset := (params.Page - 1) * params.PageSize

	var total uint64
	countQuery := fmt.Sprintf("SELECT count() FROM scan_events WHERE %s", where)
	if err := r.conn.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ListScanEvents count: %w", err)
	}

	dataQuery := fmt.Sprintf(
		"SELECT request_id, tenant_id, timestamp, payload_hash, payload_size, "+
			"is_positive, confidence, risk_level, "+
			"matched_rule_ids, matched_rule_names, severities, categories, compound_threat_ids, "+
			"client_trace_id, latency_ms, source "+
			"FROM scan_events WHERE %s "+
			"ORDER BY timestamp DESC "+
			"LIMIT @limit OFFSET @offset",
		where,
	)
	args = append(args,
		clickhouse.Named("limit", uint32(params.PageSize)),
		clickhouse.Named("offset", uint32(offset)),
	)

	rows, err := r.conn.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ListScanEvents query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []ScanEventRow
	for rows.Next() {
		var e ScanEventRow
		if err := rows.Scan(
			&e.RequestID, &e.TenantID, &e.Timestamp, &e.PayloadHash, &e.PayloadSize,
			&e.IsPositive, &e.Confidence, &e.RiskLevel,
			&e.MatchedRuleIDs, &e.MatchedRuleNames, &e.Severities, &e.Categories, &e.CompoundThreatIDs,
			&e.ClientTraceID, &e.LatencyMs, &e.Source,
		); err != nil {
			return nil, 0, fmt.Errorf("ListScanEvents scan: %w", err)
		}
		events = append(events, e)
	}

	return events, int(total), rows.Err()
}

// GetScanEvent returns a single event by tenant ID and request ID, or nil if not found.
func (r *Reader) GetScanEvent(ctx context.Context, tenantID, requestID string) (*ScanEventRow, error) {
	row := r.conn.QueryRow(ctx,
		"SELECT request_id, tenant_id, timestamp, payload_hash, payload_size, "+
			"is_positive, confidence, risk_level, "+
			"matched_rule_ids, matched_rule_names, severities, categories, compound_threat_ids, "+
			"client_trace_id, latency_ms, source "+
			"FROM scan_events "+
			"WHERE tenant_id = @tenant_id AND request_id = @request_id",
		clickhouse.Named("tenant_id", tenantID),
		clickhouse.Named("request_id", requestID),
	)

	var e ScanEventRow
	if err := row.Scan(
		&e.RequestID, &e.TenantID, &e.Timestamp, &e.PayloadHash, &e.PayloadSize,
		&e.IsPositive, &e.Confidence, &e.RiskLevel,
		&e.MatchedRuleIDs, &e.MatchedRuleNames, &e.Severities, &e.Categories, &e.CompoundThreatIDs,
		&e.ClientTraceID, &e.LatencyMs, &e.Source,
	); err != nil {
		// ClickHouse doesn't return sql.ErrNoRows, so check for empty result
		return nil, fmt.Errorf("GetScanEvent: %w", err)
	}
	if e.RequestID == "" {
		return nil, nil
	}
	return &e, nil
}

// SummaryStats holds aggregate scan counts.
type SummaryStats struct {
	TotalScans int `json:"total_scans"`
	Positives  int `json:"positives"`
	Negatives  int `json:"negatives"`
}

// TimeSeriesBucket holds an hourly count.
type TimeSeriesBucket struct {
	Hour  string `json:"hour"`
	Count int    `json:"count"`
}

// RuleCount holds a rule id and its match count.
type RuleCount struct {
	RuleID string `json:"rule_id"`
	Count  int    `json:"count"`
}

// CategoryCount holds a category and its count.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// RiskLevelCounts holds the distribution of positive scans by risk level.
type RiskLevelCounts struct {
	Low    int `json:"low"`
	Medium int `json:"medium"`
	High   int `json:"high"`
}

// LatencyStats holds latency percentiles.
type LatencyStats struct {
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
}

// AnalyticsResult holds all analytics aggregations for a tenant.
type AnalyticsResult struct {
	Summary            SummaryStats     `json:"summary"`
	ScansOverTime      []TimeSeriesBucket `json:"scans_over_time"`
	TopRules           []RuleCount      `json:"top_rules"`
	TopCategories      []CategoryCount  `json:"top_categories"`
	RiskLevels         RiskLevelCounts  `json:"risk_levels"`
	LatencyPercentiles LatencyStats     `json:"latency_percentiles"`
}

// GetAnalytics returns aggregated analytics for a tenant over the given number of days.
func (r *Reader) GetAnalytics(ctx context.Context, tenantID string, days int) (*AnalyticsResult, error) {
	now := time.Now().UTC()
	rangeStart := now.Add(-time.Duration(days) * 24 * time.Hour)
	dayStart := now.Add(-24 * time.Hour)

	baseArgs := []any{
		clickhouse.Named("tenant_id", tenantID),
		clickhouse.Named("range_start", rangeStart),
	}

	result := &AnalyticsResult{}

	var totalScans, positives, negatives uint64
	err := r.conn.QueryRow(ctx,
		"SELECT count() as total_scans, "+
			"countIf(is_positive = 1) as positives, "+
			"countIf(is_positive = 0) as negatives "+
			"FROM scan_events "+
			"WHERE tenant_id = @tenant_id AND timestamp >= @range_start",
		baseArgs...,
	).Scan(&totalScans, &positives, &negatives)
	if err != nil {
		return nil, fmt.Errorf("GetAnalytics summary: %w", err)
	}
	result.Summary = SummaryStats{
		TotalScans: int(totalScans), Positives: int(positives), Negatives: int(negatives),
	}

	sotRows, err := r.conn.Query(ctx,
		"SELECT toStartOfHour(timestamp) as hour, count() as count "+
			"FROM scan_events "+
			"WHERE tenant_id = @tenant_id AND is_positive = 1 "+
			"AND timestamp >= @range_start "+
			"GROUP BY hour ORDER BY hour",
		baseArgs...,
	)
	if err != nil {
		return nil, fmt.Errorf("GetAnalytics scans_over_time: %w", err)
	}
	defer func() { _ = sotRows.Close() }()
	for sotRows.Next() {
		var hour time.Time
		var count uint64
		if err := sotRows.Scan(&hour, &count); err != nil {
			return nil, fmt.Errorf("GetAnalytics scans_over_time scan: %w", err)
		}
		result.ScansOverTime = append(result.ScansOverTime, TimeSeriesBucket{
			Hour: hour.Format(time.RFC3339), Count: int(count),
		})
	}

	ruleRows, err := r.conn.Query(ctx,
		"SELECT arrayJoin(matched_rule_ids) as rule_id, count() as count "+
			"FROM scan_events "+
			"WHERE tenant_id = @tenant_id AND is_positive = 1 "+
			"AND timestamp >= @range_start "+
			"GROUP BY rule_id ORDER BY count DESC LIMIT 10",
		baseArgs...,
	)
	if err != nil {
		return nil, fmt.Errorf("GetAnalytics top_rules: %w", err)
	}
	defer func() { _ = ruleRows.Close() }()
	for ruleRows.Next() {
		var id string
		var count uint64
		if err := ruleRows.Scan(&id, &count); err != nil {
			return nil, fmt.Errorf("GetAnalytics top_rules scan: %w", err)
		}
		result.TopRules = append(result.TopRules, RuleCount{RuleID: id, Count: int(count)})
	}

	catRows, err := r.conn.Query(ctx,
		"SELECT arrayJoin(categories) as category, count() as count "+
			"FROM scan_events "+
			"WHERE tenant_id = @tenant_id AND is_positive = 1 "+
			"AND timestamp >= @range_start "+
			"GROUP BY category ORDER BY count DESC LIMIT 10",
		baseArgs...,
	)
	if err != nil {
		return nil, fmt.Errorf("GetAnalytics top_categories: %w", err)
	}
	defer func() { _ = catRows.Close() }()
	for catRows.Next() {
		var cat string
		var count uint64
		if err := catRows.Scan(&cat, &count); err != nil {
			return nil, fmt.Errorf("GetAnalytics top_categories scan: %w", err)
		}
		result.TopCategories = append(result.TopCategories, CategoryCount{Category: cat, Count: int(count)})
	}

	var low, medium, high uint64
	err = r.conn.QueryRow(ctx,
		"SELECT countIf(risk_level = 'low') as low, "+
			"countIf(risk_level = 'medium') as medium, "+
			"countIf(risk_level = 'high') as high "+
			"FROM scan_events "+
			"WHERE tenant_id = @tenant_id AND is_positive = 1 "+
			"AND timestamp >= @range_start",
		baseArgs...,
	).Scan(&low, &medium, &high)
	if err != nil {
		return nil, fmt.Errorf("GetAnalytics risk_levels: %w", err)
	}
	result.RiskLevels = RiskLevelCounts{Low: int(low), Medium: int(medium), High: int(high)}

	var p50, p95, p99 float64
	err = r.conn.QueryRow(ctx,
		"SELECT quantile(0.5)(latency_ms) as p50, "+
			"quantile(0.95)(latency_ms) as p95, "+
			"quantile(0.99)(latency_ms) as p99 "+
			"FROM scan_events "+
			"WHERE tenant_id = @tenant_id AND timestamp >= @day_start",
		clickhouse.Named("tenant_id", tenantID),
		clickhouse.Named("day_start", dayStart),
	).Scan(&p50, &p95, &p99)
	if err != nil {
		return nil, fmt.Errorf("GetAnalytics latency: %w", err)
	}
	result.LatencyPercentiles = LatencyStats{P50: safeFloat(p50), P95: safeFloat(p95), P99: safeFloat(p99)}

	if result.ScansOverTime == nil {
		result.ScansOverTime = []TimeSeriesBucket{}
	}
	if result.TopRules == nil {
		result.TopRules = []RuleCount{}
	}
	if result.TopCategories == nil {
		result.TopCategories = []CategoryCount{}
	}

	return result, nil
}

// safeFloat replaces NaN/Inf with 0.0.
// ClickHouse returns NaN for quantile() on empty result sets.
func safeFloat(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0.0
	}
	return f
}
