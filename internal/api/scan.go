package api

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/forensicate/forensicate/internal/metrics"
	"github.com/forensicate/forensicate/internal/rules"
	"github.com/forensicate/forensicate/internal/scanner"
	"github.com/forensicate/forensicate/internal/storage"
	"github.com/google/uuid"
)

// riskLevel implements §9's fixed 70/30 cutoffs: >=70 high, >=30 medium,
// otherwise low.
func riskLevel(confidence int) string {
	switch {
	case confidence >= 70:
		return "high"
	case confidence >= 30:
		return "medium"
	default:
		return "low"
	}
}

// handleScan implements POST /v1/scan. Auth middleware has already
// validated the Bearer token and injected the tenant context.
func (d *Dependencies) handleScan(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if r.Header.Get("Content-Type") != "application/json" {
		writeError(w, CodeInvalidContentType, "Content-Type must be application/json")
		return
	}

	tenant := tenantFromContext(r.Context())
	if tenant == nil {
		writeError(w, CodeInternalError, "missing tenant context")
		return
	}

	if allowed, retryAfter := d.Limiters.Allow(tenant.TenantID); !allowed {
		metrics.RateLimitedTotal.WithLabelValues(tenant.TenantID).Inc()
		w.Header().Set("Retry-After", fmt.Sprintf("%d", int(retryAfter.Seconds())))
		writeError(w, CodeRateLimitExceeded, "Too many requests")
		return
	}

	var req ScanRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, CodeInvalidJSON, "Request body is not valid JSON")
		return
	}

	if err := validateScanRequest(&req); err != nil {
		if err == errTextTooLong {
			writeError(w, CodeTextTooLong, err.Error())
			return
		}
		writeError(w, CodeValidationError, err.Error())
		return
	}

	threshold := tenant.Threshold
	if req.ConfidenceThreshold != nil {
		threshold = *req.ConfidenceThreshold
	}

	ctx, cancel := context.WithTimeout(r.Context(), d.ScanTimeout)
	defer cancel()

	resultCh := make(chan scanner.ScanResult, 1)
	go func() {
		resultCh <- d.Scanner.ScanForTenant(req.Text, threshold, tenant.DisabledRuleIDs, tenant.CustomWeights)
	}()

	var result scanner.ScanResult
	select {
	case result = <-resultCh:
	case <-ctx.Done():
		writeError(w, CodeScanTimeout, "Scan exceeded its deadline")
		return
	}

	requestID := uuid.New().String()
	processingMs := float64(time.Since(start)) / float64(time.Millisecond)
	confidence := result.Confidence
	level := riskLevel(confidence)

	metrics.ScanDurationSeconds.Observe(time.Since(start).Seconds())
	matchedIDs := make([]string, len(result.MatchedRules))
	for i, m := range result.MatchedRules {
		matchedIDs[i] = m.RuleID
	}
	compoundIDs := make([]string, len(result.CompoundThreats))
	for i, c := range result.CompoundThreats {
		compoundIDs[i] = c.ID
	}
	metrics.RecordScan(result.IsPositive, matchedIDs, compoundIDs)

	d.writeScanEvent(req, tenant.TenantID, requestID, result, level, float32(processingMs))

	writeJSON(w, http.StatusOK, ScanResponse{
		Success: true,
		Data: ScanResultResp{
			TextLength:       len([]rune(req.Text)),
			Confidence:       confidence,
			RiskLevel:        level,
			MatchCount:       len(result.MatchedRules),
			Matches:          toMatchResp(result.MatchedRules, req.IncludePositions, d.Catalog),
			ScannedAt:        result.Timestamp.Format(time.RFC3339),
			ProcessingTimeMs: processingMs,
		},
	})
}

var errTextTooLong = fmt.Errorf("text exceeds %d characters", maxScanTextChars)

func validateScanRequest(req *ScanRequest) error {
	if strings.TrimSpace(req.Text) == "" {
		return fmt.Errorf("text is required and must be non-empty after trim")
	}
	if len([]rune(req.Text)) > maxScanTextChars {
		return errTextTooLong
	}
	if req.ConfidenceThreshold != nil && (*req.ConfidenceThreshold < 0 || *req.ConfidenceThreshold > 100) {
		return fmt.Errorf("confidenceThreshold must be between 0 and 100")
	}
	if len(req.Metadata) > maxMetadataKeys {
		return fmt.Errorf("metadata must have at most %d keys", maxMetadataKeys)
	}
	if len(req.Metadata) > 0 {
		raw, err := json.Marshal(req.Metadata)
		if err == nil && len(raw) > maxMetadataBytes {
			return fmt.Errorf("metadata must be at most %d bytes", maxMetadataBytes)
		}
	}
	return nil
}

func toMatchResp(matches []scanner.RuleMatch, includePositions bool, catalog *rules.Catalog) []MatchResp {
	out := make([]MatchResp, 0, len(matches))
	for _, m := range matches {
		impact := m.ConfidenceImpact
		resp := MatchResp{
			RuleID:           m.RuleID,
			RuleName:         m.RuleName,
			RuleType:         string(m.RuleKind),
			Category:         categoryName(catalog, m.CategoryID),
			Severity:         string(m.Severity),
			Description:      ruleDescription(catalog, m.RuleID),
			ConfidenceImpact: &impact,
			Matches:          capStrings(m.Matches, 5),
		}
		if includePositions && len(m.MatchPositions) > 0 {
			positions := m.MatchPositions
			if len(positions) > 10 {
				positions = positions[:10]
			}
			resp.Positions = make([]PositionResp, len(positions))
			for i, p := range positions {
				resp.Positions[i] = PositionResp{
					Start: p.Start, End: p.End, Text: p.Text, Line: p.Line, Column: p.Column,
				}
			}
		}
		out = append(out, resp)
	}
	return out
}

func categoryName(catalog *rules.Catalog, categoryID string) string {
	if catalog == nil {
		return categoryID
	}
	if c := catalog.CategoryByID(categoryID); c != nil {
		return c.Name
	}
	return categoryID
}

func ruleDescription(catalog *rules.Catalog, ruleID string) string {
	if catalog == nil {
		return ""
	}
	for _, r := range catalog.Rules {
		if r.ID == ruleID {
			return r.Description
		}
	}
	return ""
}

func capStrings(ss []string, n int) []string {
	if len(ss) <= n {
		return ss
	}
	return ss[:n]
}

// writeScanEvent builds a storage.ScanEvent and fires it to the async
// writer. Never includes the scanned text, only its hash/length.
func (d *Dependencies) writeScanEvent(
	req ScanRequest,
	tenantID, requestID string,
	result scanner.ScanResult,
	riskLevel string,
	latencyMs float32,
) {
	ruleIDs := make([]string, len(result.MatchedRules))
	ruleNames := make([]string, len(result.MatchedRules))
	severities := make([]string, len(result.MatchedRules))
	categories := make([]string, len(result.MatchedRules))
	for i, m := range result.MatchedRules {
		ruleIDs[i] = m.RuleID
		ruleNames[i] = m.RuleName
		severities[i] = string(m.Severity)
		categories[i] = m.CategoryID
	}
	compoundIDs := make([]string, len(result.CompoundThreats))
	for i, c := range result.CompoundThreats {
		compoundIDs[i] = c.ID
	}

	hash := sha256.Sum256([]byte(req.Text))

	event := &storage.ScanEvent{
		RequestID:         requestID,
		TenantID:          tenantID,
		Timestamp:         time.Now().UTC(),
		PayloadHash:       fmt.Sprintf("%x", hash),
		PayloadSize:       uint32(len(req.Text)),
		IsPositive:        result.IsPositive,
		Confidence:        result.Confidence,
		RiskLevel:         riskLevel,
		MatchedRuleIDs:    ruleIDs,
		MatchedRuleNames:  ruleNames,
		Severities:        severities,
		Categories:        categories,
		CompoundThreatIDs: compoundIDs,
		Metadata:          req.Metadata,
		LatencyMs:         latencyMs,
		Source:            "http",
	}
	d.Writer.Write(event)
}
