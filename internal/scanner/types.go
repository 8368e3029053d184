// Package scanner implements the Scanner Driver: the synchronous,
// single-threaded, side-effect-free public contract (scan /
// scan_with_categories / rule_stats) that iterates a rule set, collects
// matches, computes confidence, renders reasons, and runs the compound
// detector. The driver itself never performs I/O and never logs the
// scanned text.
package scanner

import (
	"time"

	"github.com/forensicate/forensicate/internal/position"
	"github.com/forensicate/forensicate/internal/rules"
)

// HardCapChars is the scan's input size ceiling (§4.1, §4.5): text
// longer than this is silently truncated before scanning, never
// rejected as an error.
const HardCapChars = 1_000_000

// RuleMatch is one rule's contribution to a ScanResult.
type RuleMatch struct {
	RuleID           string              `json:"ruleId"`
	RuleName         string              `json:"ruleName"`
	RuleKind         rules.Kind          `json:"ruleKind"`
	Severity         rules.Severity      `json:"severity"`
	CategoryID       string              `json:"categoryId"`
	Matches          []string            `json:"matches,omitempty"`
	Positions        []position.Primitive `json:"positions,omitempty"`
	MatchPositions   []position.Enhanced `json:"matchPositions,omitempty"`
	Details          string              `json:"details,omitempty"`
	Weight           float64             `json:"weight"`
	ConfidenceImpact float64             `json:"confidenceImpact"`
}

// CompoundThreat is a post-processed, multi-category finding.
type CompoundThreat struct {
	ID                  string         `json:"id"`
	Name                string         `json:"name"`
	Description         string         `json:"description"`
	Severity            rules.Severity `json:"severity"`
	TriggeredCategories []string       `json:"triggeredCategories"`
}

// ScanResult is the engine's one public output shape.
type ScanResult struct {
	IsPositive        bool             `json:"isPositive"`
	Confidence        int              `json:"confidence"`
	Reasons           []string         `json:"reasons"`
	Timestamp         time.Time        `json:"timestamp"`
	MatchedRules      []RuleMatch      `json:"matchedRules"`
	TotalRulesChecked int              `json:"totalRulesChecked"`
	CompoundThreats   []CompoundThreat `json:"compoundThreats,omitempty"`
}

// Stats is rule_stats()'s return shape.
type Stats struct {
	Total      int            `json:"total"`
	Enabled    int            `json:"enabled"`
	ByKind     map[string]int `json:"byKind"`
	BySeverity map[string]int `json:"bySeverity"`
}
