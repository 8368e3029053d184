package heuristics

import "github.com/forensicate/forensicate/internal/rules"

// Registry returns the id -> function map used to rehydrate rules after
// they cross a serialization boundary (the catalog loader calls this to
// attach Func to each heuristic Rule by HeuristicID; a future
// deserialize-from-JSON path would call it the same way). Registering a
// heuristic here is the only step required to make it reachable by id —
// whether or not a built-in catalog rule currently references it.
func Registry() map[string]rules.HeuristicFunc {
	return map[string]rules.HeuristicFunc{
		"heur-shannon-entropy":         ShannonEntropyWindows,
		"heur-imperative-verb-density": ImperativeVerbDensity,
		"heur-nested-delimiters":       NestedDelimiterSurvey,
		"heur-script-switch":           UnicodeScriptSwitch,
		"heur-sentiment-extreme":       SentimentExtreme,
		"heur-entity-impersonation":    EntityImpersonation,
		"heur-sentence-anomaly":        SentenceStructureAnomaly,
	}
}
