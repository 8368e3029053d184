package scanner

import (
	"math"

	"github.com/forensicate/forensicate/internal/rules"
)

// perAdditionalHit and maxAdditionalHitBonus implement §4.5 step 5's
// "+5 per additional hit, capped at +20" rule (additional hits beyond
// the first, capped at 4 additional hits).
const (
	perAdditionalHit     = 5.0
	maxAdditionalHits    = 4
	maxAdditionalHitBonus = perAdditionalHit * maxAdditionalHits // 20
)

// confidenceImpact computes a single match's contribution per §4.5 step 5:
// effectiveWeight, plus +5 per hit beyond the first (capped at +20) when
// the rule produced more than one literal hit.
func confidenceImpact(r *rules.Rule, hitCount int) (effectiveWeight, impact float64) {
	effectiveWeight = r.EffectiveWeight()
	if hitCount <= 1 {
		return effectiveWeight, effectiveWeight
	}
	bonus := float64(hitCount-1) * perAdditionalHit
	if bonus > maxAdditionalHitBonus {
		bonus = maxAdditionalHitBonus
	}
	return effectiveWeight, effectiveWeight + bonus
}

// aggregateConfidence implements §4.5's confidence formula:
//
//	base  = sum(match.confidence_impact)
//	crit  = count of matched rules with severity Critical
//	high  = count of matched rules with severity High
//	total = base + 30*crit + (20 if high >= 2 else 0)
//	confidence = min(99, round(50 + 50*log10(1 + total/50)))
//
// With zero matches the result is always 0 (handled by the early return
// below — log10(1) == 0 would otherwise yield 50, which is wrong for the
// "no matches" case).
func aggregateConfidence(matches []RuleMatch) int {
	if len(matches) == 0 {
		return 0
	}

	var base float64
	var crit, high int
	for _, m := range matches {
		base += m.ConfidenceImpact
		switch m.Severity {
		case rules.SeverityCritical:
			crit++
		case rules.SeverityHigh:
			high++
		}
	}

	total := base + 30*float64(crit)
	if high >= 2 {
		total += 20
	}

	raw := 50 + 50*math.Log10(1+total/50)
	if raw > 99 {
		raw = 99
	}
	if raw < 0 {
		raw = 0
	}
	return int(math.Round(raw))
}
