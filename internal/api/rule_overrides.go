package api

import (
	"encoding/json"
	"net/http"

	"github.com/forensicate/forensicate/internal/store"
	"go.uber.org/zap"
)

func (d *Dependencies) handleGetRuleOverride(w http.ResponseWriter, r *http.Request) {
	tenantID := r.PathValue("tenant_id")
	ro, err := d.Store.GetRuleOverride(r.Context(), tenantID)
	if err != nil {
		d.Logger.Error("failed to get rule override", zap.Error(err))
		writeError(w, CodeInternalError, "Failed to get rule override")
		return
	}
	if ro == nil {
		writeError(w, CodeNotFound, "Rule override not found")
		return
	}
	writeJSON(w, http.StatusOK, ruleOverrideToResp(ro))
}

func (d *Dependencies) handleUpdateRuleOverride(w http.ResponseWriter, r *http.Request) {
	tenantID := r.PathValue("tenant_id")

	var req UpdateRuleOverrideReq
	if err := readJSON(r, &req); err != nil {
		writeError(w, CodeInvalidJSON, "Invalid JSON body")
		return
	}

	var disabledPtr, weightsPtr *json.RawMessage
	if req.DisabledRuleIDs != nil {
		disabledPtr = &req.DisabledRuleIDs
	}
	if req.CustomWeights != nil {
		weightsPtr = &req.CustomWeights
	}

	ro, err := d.Store.UpdateRuleOverride(r.Context(), tenantID, disabledPtr, weightsPtr)
	if err != nil {
		d.Logger.Error("failed to update rule override", zap.Error(err))
		writeError(w, CodeInternalError, "Failed to update rule override")
		return
	}
	if ro == nil {
		writeError(w, CodeNotFound, "Tenant not found")
		return
	}
	writeJSON(w, http.StatusOK, ruleOverrideToResp(ro))
}

func (d *Dependencies) handleReplaceRuleOverride(w http.ResponseWriter, r *http.Request) {
	tenantID := r.PathValue("tenant_id")

	var req UpdateRuleOverrideReq
	if err := readJSON(r, &req); err != nil {
		writeError(w, CodeInvalidJSON, "Invalid JSON body")
		return
	}

	ro, err := d.Store.ReplaceRuleOverride(r.Context(), tenantID, req.DisabledRuleIDs, req.CustomWeights)
	if err != nil {
		d.Logger.Error("failed to replace rule override", zap.Error(err))
		writeError(w, CodeInternalError, "Failed to replace rule override")
		return
	}
	if ro == nil {
		writeError(w, CodeNotFound, "Tenant not found")
		return
	}
	writeJSON(w, http.StatusOK, ruleOverrideToResp(ro))
}

func (d *Dependencies) handleRuleStats(w http.ResponseWriter, r *http.Request) {
	stats := d.Scanner.RuleStats()
	writeJSON(w, http.StatusOK, RuleStatsResp{
		Total:      stats.Total,
		Enabled:    stats.Enabled,
		ByKind:     stats.ByKind,
		BySeverity: stats.BySeverity,
	})
}

func ruleOverrideToResp(ro *store.RuleOverride) RuleOverrideResp {
	return RuleOverrideResp{
		ID:              ro.ID,
		TenantID:        ro.TenantID,
		DisabledRuleIDs: ro.DisabledRuleIDs,
		CustomWeights:   ro.CustomWeights,
		CreatedAt:       ro.CreatedAt,
		UpdatedAt:       ro.UpdatedAt,
	}
}
