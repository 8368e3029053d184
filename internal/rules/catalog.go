package rules

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed catalog/*.yaml
var embeddedCatalog embed.FS

// ruleFile mirrors the top-level shape of one catalog/*.yaml file.
type ruleFile struct {
	Rules []Rule `yaml:"rules"`
}

// Catalog is the immutable, built-in rule set plus its category index.
// Constructed once at startup and passed by reference into every scan;
// a scan never mutates a Catalog.
type Catalog struct {
	Rules      []*Rule
	Categories []*Category
	byCategory map[string]*Category
}

// CategoryByID looks up a category, or nil if unknown.
func (c *Catalog) CategoryByID(id string) *Category {
	return c.byCategory[id]
}

// builtinHeuristics lists the four built-in heuristics in catalog order.
// Each entry's HeuristicID must have a matching function in the registry
// passed to LoadBuiltinCatalog.
var builtinHeuristics = []Rule{
	{
		ID:          "heur-shannon-entropy",
		Name:        "High-Entropy Window Survey",
		Description: "Sliding-window Shannon entropy probe for encoded/obfuscated content.",
		Kind:        KindHeuristic,
		Severity:    SeverityMedium,
		Enabled:     true,
		CategoryID:  "encoding-obfuscation",
		HeuristicID: "heur-shannon-entropy",
	},
	{
		ID:          "heur-imperative-verb-density",
		Name:        "Imperative Verb Density",
		Description: "High ratio of compliance-forcing imperative verbs across the text.",
		Kind:        KindHeuristic,
		Severity:    SeverityMedium,
		Enabled:     true,
		CategoryID:  "compliance-forcing",
		HeuristicID: "heur-imperative-verb-density",
	},
	{
		ID:          "heur-nested-delimiters",
		Name:        "Nested Delimiter Survey",
		Description: "Multiple distinct delimiter styles present, consistent with fake context framing.",
		Kind:        KindHeuristic,
		Severity:    SeverityLow,
		Enabled:     true,
		CategoryID:  "context-manipulation",
		HeuristicID: "heur-nested-delimiters",
	},
	{
		ID:          "heur-script-switch",
		Name:        "Unicode Script Switching",
		Description: "Mixed-script / confusable-script content consistent with homoglyph obfuscation.",
		Kind:        KindHeuristic,
		Severity:    SeverityMedium,
		Enabled:     true,
		CategoryID:  "encoding-obfuscation",
		HeuristicID: "heur-script-switch",
	},
}

// LoadBuiltinCatalog parses the embedded YAML rule files and wires the
// built-in heuristic rules against the supplied registry (heuristic id ->
// function). The registry is expected to come from internal/heuristics;
// rules depends only on the HeuristicFunc type, never on that package,
// to keep the dependency one-directional.
func LoadBuiltinCatalog(heuristicRegistry map[string]HeuristicFunc) (*Catalog, error) {
	entries, err := fs.ReadDir(embeddedCatalog, "catalog")
	if err != nil {
		return nil, fmt.Errorf("rules: read embedded catalog: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	cat := &Catalog{byCategory: make(map[string]*Category, len(categoryOrder))}
	for i := range categoryOrder {
		c := categoryOrder[i]
		cat.Categories = append(cat.Categories, &c)
		cat.byCategory[c.ID] = &c
	}

	seen := make(map[string]bool)
	for _, name := range names {
		data, err := embeddedCatalog.ReadFile("catalog/" + name)
		if err != nil {
			return nil, fmt.Errorf("rules: read %s: %w", name, err)
		}
		var rf ruleFile
		if err := yaml.Unmarshal(data, &rf); err != nil {
			return nil, fmt.Errorf("rules: parse %s: %w", name, err)
		}
		for i := range rf.Rules {
			r := rf.Rules[i]
			r.Source = "builtin"
			if seen[r.ID] {
				return nil, fmt.Errorf("rules: duplicate rule id %q in %s", r.ID, name)
			}
			seen[r.ID] = true
			if err := validateStaticRule(&r); err != nil {
				return nil, fmt.Errorf("rules: %s: %w", name, err)
			}
			if r.Kind == KindHeuristic {
				fn, ok := heuristicRegistry[r.HeuristicID]
				if !ok {
					return nil, fmt.Errorf("rules: %s: no heuristic registered for id %q", name, r.HeuristicID)
				}
				r.Func = fn
			}
			cat.addRule(&r)
		}
	}

	for i := range builtinHeuristics {
		r := builtinHeuristics[i]
		r.Source = "builtin"
		fn, ok := heuristicRegistry[r.HeuristicID]
		if !ok {
			return nil, fmt.Errorf("rules: no heuristic registered for id %q", r.HeuristicID)
		}
		r.Func = fn
		cat.addRule(&r)
	}

	return cat, nil
}

func (c *Catalog) addRule(r *Rule) {
	c.Rules = append(c.Rules, r)
	if cg, ok := c.byCategory[r.CategoryID]; ok {
		cg.Rules = append(cg.Rules, r)
	}
}

// validateStaticRule enforces the Rule invariant for built-in,
// YAML-sourced rules: exactly one payload kind populated.
func validateStaticRule(r *Rule) error {
	switch r.Kind {
	case KindKeyword:
		if len(r.Keywords) == 0 {
			return fmt.Errorf("rule %q: kind keyword requires non-empty keywords", r.ID)
		}
	case KindRegex, KindEncoding, KindStructural:
		if r.Pattern == "" {
			return fmt.Errorf("rule %q: kind %s requires a pattern", r.ID, r.Kind)
		}
		if r.Flags == "" {
			r.Flags = "gi"
		}
	case KindHeuristic:
		if r.HeuristicID == "" {
			return fmt.Errorf("rule %q: kind heuristic requires heuristicId", r.ID)
		}
	default:
		return fmt.Errorf("rule %q: unknown kind %q", r.ID, r.Kind)
	}
	return nil
}

// MatchedCategories returns the set of category IDs represented by the
// given rule IDs, using "first category in catalog order that claims the
// rule" as required by the compound-detection contract.
func (c *Catalog) MatchedCategories(ruleIDs []string) map[string]bool {
	matched := make(map[string]bool, len(ruleIDs))
	idSet := make(map[string]bool, len(ruleIDs))
	for _, id := range ruleIDs {
		idSet[id] = true
	}
	for _, cg := range c.Categories {
		for _, r := range cg.Rules {
			if idSet[r.ID] {
				matched[cg.ID] = true
				break
			}
		}
	}
	return matched
}
