package scanner

import (
	"time"

	"github.com/forensicate/forensicate/internal/matcher"
	"github.com/forensicate/forensicate/internal/position"
	"github.com/forensicate/forensicate/internal/rules"
)

// DefaultThreshold is the confidence percentage at or above which a scan
// is flagged positive when the caller does not specify its own.
const DefaultThreshold = 70

// Driver runs the full scan sequence (§4.5) against a fixed catalog. It is
// synchronous, single-threaded, and side-effect-free: a Scan call never
// blocks on I/O and never logs the text it is given.
type Driver struct {
	catalog *rules.Catalog
	matcher *matcher.Matcher
}

// New builds a Driver over catalog, reporting matcher diagnostics (compile
// errors, heuristic panics) to diag. A nil diag discards them.
func New(catalog *rules.Catalog, diag matcher.Diagnostics) *Driver {
	return &Driver{catalog: catalog, matcher: matcher.New(diag)}
}

// Scan runs every enabled rule in the driver's catalog against text at the
// given confidence threshold (§4.5 steps 1-10).
func (d *Driver) Scan(text string, threshold int) ScanResult {
	return d.scan(text, d.catalog.Rules, threshold)
}

// ScanWithCategories runs only the rules whose category is in categoryIDs,
// preserving the catalog's rule iteration order. An empty categoryIDs set
// behaves like Scan against every enabled rule.
func (d *Driver) ScanWithCategories(text string, categoryIDs []string, threshold int) ScanResult {
	if len(categoryIDs) == 0 {
		return d.Scan(text, threshold)
	}
	want := make(map[string]bool, len(categoryIDs))
	for _, id := range categoryIDs {
		want[id] = true
	}
	filtered := make([]*rules.Rule, 0, len(d.catalog.Rules))
	for _, r := range d.catalog.Rules {
		if want[r.CategoryID] {
			filtered = append(filtered, r)
		}
	}
	return d.scan(text, filtered, threshold)
}

// ScanForTenant runs Scan with a tenant's rule-override configuration
// applied first: rules in disabledRuleIDs are excluded from the scan
// entirely (and so do not count toward TotalRulesChecked), and rules
// named in customWeights run with that weight in place of their
// catalog-default or severity-derived one.
func (d *Driver) ScanForTenant(text string, threshold int, disabledRuleIDs map[string]bool, customWeights map[string]float64) ScanResult {
	if len(disabledRuleIDs) == 0 && len(customWeights) == 0 {
		return d.Scan(text, threshold)
	}
	candidates := make([]*rules.Rule, 0, len(d.catalog.Rules))
	for _, r := range d.catalog.Rules {
		if disabledRuleIDs[r.ID] {
			continue
		}
		if w, ok := customWeights[r.ID]; ok {
			clone := *r
			clone.Weight = &w
			candidates = append(candidates, &clone)
			continue
		}
		candidates = append(candidates, r)
	}
	return d.scan(text, candidates, threshold)
}

// RuleStats reports counts over the driver's full catalog, independent of
// any particular scan.
func (d *Driver) RuleStats() Stats {
	stats := Stats{
		ByKind:     make(map[string]int),
		BySeverity: make(map[string]int),
	}
	for _, r := range d.catalog.Rules {
		stats.Total++
		if r.Enabled {
			stats.Enabled++
		}
		stats.ByKind[string(r.Kind)]++
		stats.BySeverity[string(r.Severity)]++
	}
	return stats
}

func (d *Driver) scan(text string, candidates []*rules.Rule, threshold int) ScanResult {
	now := time.Now().UTC()

	if text == "" {
		return ScanResult{
			IsPositive:        false,
			Confidence:        0,
			Reasons:           renderReasons(nil, 0, threshold, false),
			Timestamp:         now,
			TotalRulesChecked: 0,
		}
	}

	// §4.5 step 2: hard cap, silent truncation, never an error.
	runes := []rune(text)
	if len(runes) > HardCapChars {
		text = string(runes[:HardCapChars])
	}

	mapper := position.NewMapper(text)
	byteToRune := position.ByteToRuneOffsets(text)

	enabled := make([]*rules.Rule, 0, len(candidates))
	for _, r := range candidates {
		if r.Enabled {
			enabled = append(enabled, r)
		}
	}

	var ruleMatches []RuleMatch
	var matchedRuleIDs []string
	for _, r := range enabled {
		res := d.matcher.Execute(r, text, byteToRune)
		if !res.Matched {
			continue
		}

		effectiveWeight, impact := confidenceImpact(r, len(res.Positions))

		rm := RuleMatch{
			RuleID:           r.ID,
			RuleName:         r.Name,
			RuleKind:         r.Kind,
			Severity:         r.Severity,
			CategoryID:       r.CategoryID,
			Matches:          res.Matches,
			Positions:        res.Positions,
			Details:          res.Details,
			Weight:           effectiveWeight,
			ConfidenceImpact: impact,
		}
		if len(res.Positions) > 0 {
			rm.MatchPositions = mapper.EnhanceAll(res.Positions)
		}
		ruleMatches = append(ruleMatches, rm)
		matchedRuleIDs = append(matchedRuleIDs, r.ID)
	}

	confidence := aggregateConfidence(ruleMatches)
	isPositive := len(ruleMatches) > 0 && confidence >= threshold

	result := ScanResult{
		IsPositive:        isPositive,
		Confidence:        confidence,
		Reasons:           renderReasons(ruleMatches, confidence, threshold, isPositive),
		Timestamp:         now,
		MatchedRules:      ruleMatches,
		TotalRulesChecked: len(enabled),
		CompoundThreats:   d.compoundThreats(matchedRuleIDs),
	}

	return result
}

// compoundThreats implements §4.6: a compound definition fires only when
// every one of its required categories is represented among the matched
// rules' categories. Output order follows BuiltinCompoundDefinitions.
func (d *Driver) compoundThreats(matchedRuleIDs []string) []CompoundThreat {
	matchedCategories := d.catalog.MatchedCategories(matchedRuleIDs)

	var threats []CompoundThreat
	for _, def := range rules.BuiltinCompoundDefinitions {
		all := true
		for _, cat := range def.RequiredCategories {
			if !matchedCategories[cat] {
				all = false
				break
			}
		}
		if !all {
			continue
		}
		threats = append(threats, CompoundThreat{
			ID:                  def.ID,
			Name:                def.Name,
			Description:         def.Description,
			Severity:            def.Severity,
			TriggeredCategories: def.RequiredCategories,
		})
	}
	return threats
}
