package api

import (
	"encoding/json"
	"time"
)

// --- POST /v1/scan ---

// ScanRequest is the JSON body for POST /v1/scan.
type ScanRequest struct {
	Text                string            `json:"text"`
	ConfidenceThreshold *int              `json:"confidenceThreshold,omitempty"`
	IncludePositions    bool              `json:"includePositions,omitempty"`
	Metadata            map[string]string `json:"metadata,omitempty"`
}

// MatchResp is one matched rule in a scan response.
type MatchResp struct {
	RuleID           string             `json:"ruleId"`
	RuleName         string             `json:"ruleName"`
	RuleType         string             `json:"ruleType"`
	Category         string             `json:"category"`
	Severity         string             `json:"severity"`
	Description      string             `json:"description"`
	ConfidenceImpact *float64           `json:"confidenceImpact,omitempty"`
	Matches          []string           `json:"matches,omitempty"`
	Positions        []PositionResp     `json:"positions,omitempty"`
}

// PositionResp is one enhanced match position.
type PositionResp struct {
	Start  int    `json:"start"`
	End    int    `json:"end"`
	Text   string `json:"text"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

// ScanResultResp is the "data" payload of a successful /v1/scan response.
type ScanResultResp struct {
	TextLength       int         `json:"textLength"`
	Confidence       int         `json:"confidence"`
	RiskLevel        string      `json:"riskLevel"`
	MatchCount       int         `json:"matchCount"`
	Matches          []MatchResp `json:"matches"`
	ScannedAt        string      `json:"scannedAt"`
	ProcessingTimeMs float64     `json:"processingTimeMs"`
}

// ScanResponse is the full successful response envelope for POST /v1/scan.
type ScanResponse struct {
	Success bool           `json:"success"`
	Data    ScanResultResp `json:"data"`
}

// ErrorBody is the "error" payload of a failed response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ErrorResponse is the envelope for any non-200 response.
type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

const (
	maxScanTextChars = 100_000
	maxMetadataBytes = 4096
	maxMetadataKeys  = 20
	echoLimitChars   = 1_000
)

// --- Tenant CRUD ---

// CreateTenantReq is the JSON body for POST /api/tenants.
type CreateTenantReq struct {
	Name string `json:"name"`
}

// CreateTenantResp includes the plaintext API key (shown once).
type CreateTenantResp struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	APIKey       string    `json:"apiKey"`
	APIKeyPrefix string    `json:"apiKeyPrefix"`
	Threshold    int       `json:"threshold"`
	CreatedAt    time.Time `json:"createdAt"`
}

// UpdateTenantReq is the JSON body for PATCH /api/tenants/{id}.
type UpdateTenantReq struct {
	Name      *string `json:"name,omitempty"`
	Threshold *int    `json:"threshold,omitempty"`
}

// TenantResp mirrors a tenant row without its key hash.
type TenantResp struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	APIKeyPrefix string    `json:"apiKeyPrefix"`
	Threshold    int       `json:"threshold"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// RotateKeyResp includes the new plaintext API key (shown once).
type RotateKeyResp struct {
	APIKey       string `json:"apiKey"`
	APIKeyPrefix string `json:"apiKeyPrefix"`
}

// --- Rule Override CRUD ---

// UpdateRuleOverrideReq is the JSON body for PATCH rule-override endpoints.
type UpdateRuleOverrideReq struct {
	DisabledRuleIDs json.RawMessage `json:"disabledRuleIds,omitempty"`
	CustomWeights   json.RawMessage `json:"customWeights,omitempty"`
}

// RuleOverrideResp mirrors a tenant's rule override row.
type RuleOverrideResp struct {
	ID              string          `json:"id"`
	TenantID        string          `json:"tenantId"`
	DisabledRuleIDs json.RawMessage `json:"disabledRuleIds"`
	CustomWeights   json.RawMessage `json:"customWeights"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// --- Rule Stats ---

// RuleStatsResp mirrors scanner.Stats.
type RuleStatsResp struct {
	Total      int            `json:"total"`
	Enabled    int            `json:"enabled"`
	ByKind     map[string]int `json:"byKind"`
	BySeverity map[string]int `json:"bySeverity"`
}

// --- Community Rules ---

// CommunityRuleResp describes one loaded community rule. Community rules
// are listed only: they are not part of the catalog /v1/scan runs, and a
// rule-override update cannot enable them.
type CommunityRuleResp struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Kind        string `json:"kind"`
	Severity    string `json:"severity"`
	Category    string `json:"category"`
}

// CommunityRuleListResp is the response for GET /api/community-rules.
type CommunityRuleListResp struct {
	Rules    []CommunityRuleResp `json:"rules"`
	Failures map[string]string   `json:"failures,omitempty"`
}

// --- Scan Events & Analytics ---

// ScanEventResp mirrors a persisted scan_events row.
type ScanEventResp struct {
	RequestID         string    `json:"requestId"`
	TenantID          string    `json:"tenantId"`
	Timestamp         time.Time `json:"timestamp"`
	PayloadHash       string    `json:"payloadHash"`
	PayloadSize       uint32    `json:"payloadSize"`
	IsPositive        bool      `json:"isPositive"`
	Confidence        int       `json:"confidence"`
	RiskLevel         string    `json:"riskLevel"`
	MatchedRuleIDs    []string  `json:"matchedRuleIds"`
	MatchedRuleNames  []string  `json:"matchedRuleNames"`
	Severities        []string  `json:"severities"`
	Categories        []string  `json:"categories"`
	CompoundThreatIDs []string  `json:"compoundThreatIds"`
	ClientTraceID     *string   `json:"clientTraceId"`
	LatencyMs         float32   `json:"latencyMs"`
	Source            string    `json:"source"`
}

// ScanEventListResp is the response for GET /api/scan-events.
type ScanEventListResp struct {
	Events   []ScanEventResp `json:"events"`
	Total    int             `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"pageSize"`
}

// AnalyticsResp mirrors chread.AnalyticsResult.
type AnalyticsResp struct {
	Summary            SummaryStatsResp       `json:"summary"`
	ScansOverTime      []TimeSeriesBucketResp `json:"scansOverTime"`
	TopRules           []RuleCountResp        `json:"topRules"`
	TopCategories      []CategoryCountResp    `json:"topCategories"`
	RiskLevels         RiskLevelCountsResp    `json:"riskLevels"`
	LatencyPercentiles LatencyPercentilesResp `json:"latencyPercentiles"`
}

// SummaryStatsResp holds aggregate scan counts.
type SummaryStatsResp struct {
	TotalScans int `json:"totalScans"`
	Positives  int `json:"positives"`
	Negatives  int `json:"negatives"`
}

// TimeSeriesBucketResp holds an hourly count.
type TimeSeriesBucketResp struct {
	Hour  string `json:"hour"`
	Count int    `json:"count"`
}

// RuleCountResp holds a rule id and its match count.
type RuleCountResp struct {
	RuleID string `json:"ruleId"`
	Count  int    `json:"count"`
}

// CategoryCountResp holds a category and its count.
type CategoryCountResp struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// RiskLevelCountsResp holds the distribution of positive scans by risk level.
type RiskLevelCountsResp struct {
	Low    int `json:"low"`
	Medium int `json:"medium"`
	High   int `json:"high"`
}

// LatencyPercentilesResp holds latency percentiles.
type LatencyPercentilesResp struct {
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
}
