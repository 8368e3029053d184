package api

import (
	"net/http"

	"github.com/forensicate/forensicate/internal/metrics"
	"github.com/forensicate/forensicate/internal/rules"
)

// handleListCommunityRules loads and returns every community rule the
// configured index currently references. Rules that failed to load or
// validate are reported under "failures" rather than aborting the request.
func (d *Dependencies) handleListCommunityRules(w http.ResponseWriter, r *http.Request) {
	if d.CommunityLoader == nil {
		writeError(w, CodeInternalError, "Community rules are not configured")
		return
	}

	loaded, failures := d.CommunityLoader.LoadAll(r.Context())

	metrics.CommunityRuleFetchTotal.WithLabelValues("success").Add(float64(len(loaded)))
	metrics.CommunityRuleFetchTotal.WithLabelValues("failure").Add(float64(len(failures)))

	resp := CommunityRuleListResp{
		Rules: make([]CommunityRuleResp, 0, len(loaded)),
	}
	for _, rule := range loaded {
		resp.Rules = append(resp.Rules, communityRuleToResp(rule, d.Catalog))
	}
	if len(failures) > 0 {
		resp.Failures = make(map[string]string, len(failures))
		for id, err := range failures {
			resp.Failures[id] = err.Error()
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func communityRuleToResp(r *rules.Rule, catalog *rules.Catalog) CommunityRuleResp {
	return CommunityRuleResp{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Kind:        string(r.Kind),
		Severity:    string(r.Severity),
		Category:    categoryName(catalog, r.CategoryID),
	}
}
