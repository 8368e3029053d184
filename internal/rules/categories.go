package rules

// categoryOrder is the canonical, deterministic iteration order for
// built-in categories. Compound detection's "first category containing a
// rule wins" rule and any category-ordered output rely on this slice
// rather than map iteration.
var categoryOrder = []Category{
	{ID: "instruction-override", Name: "Instruction Override", Description: "Attempts to discard or supersede prior instructions."},
	{ID: "role-manipulation", Name: "Role Manipulation", Description: "Attempts to assign the model a different persona or operating mode."},
	{ID: "compliance-forcing", Name: "Compliance Forcing", Description: "Imperative language demanding obedience without justification."},
	{ID: "context-manipulation", Name: "Context Manipulation", Description: "Injected delimiters or fake system/role markup."},
	{ID: "prompt-extraction", Name: "Prompt Extraction", Description: "Attempts to exfiltrate system prompt or hidden instructions."},
	{ID: "jailbreak", Name: "Jailbreak", Description: "Named jailbreak personas or techniques."},
	{ID: "safety-removal", Name: "Safety Removal", Description: "Claims that safety constraints no longer apply."},
	{ID: "authority-developer", Name: "Authority / Developer Claim", Description: "Claims of elevated privilege (developer, administrator)."},
	{ID: "fiction-hypothetical", Name: "Fiction / Hypothetical Framing", Description: "Wraps a request in fictional or hypothetical framing to evade refusal."},
	{ID: "encoding-obfuscation", Name: "Encoding / Obfuscation", Description: "High-entropy, encoded, or script-mixed content consistent with payload smuggling."},
}

// BuiltinCompoundDefinitions is the fixed compound-threat table from the
// detection spec. Order is significant: it is the output order for
// compound_threats.
var BuiltinCompoundDefinitions = []CompoundDefinition{
	{
		ID:                 "compound-manipulation-chain",
		Name:               "Manipulation Chain",
		Description:        "Role manipulation combined with explicit compliance forcing.",
		Severity:           SeverityCritical,
		RequiredCategories: []string{"role-manipulation", "compliance-forcing"},
	},
	{
		ID:                 "compound-extraction-attack",
		Name:               "Extraction Attack",
		Description:        "Fake context markup combined with a prompt-extraction attempt.",
		Severity:           SeverityCritical,
		RequiredCategories: []string{"context-manipulation", "prompt-extraction"},
	},
	{
		ID:                 "compound-full-bypass",
		Name:               "Full Bypass Attempt",
		Description:        "A named jailbreak combined with an explicit safety-removal claim.",
		Severity:           SeverityCritical,
		RequiredCategories: []string{"jailbreak", "safety-removal"},
	},
	{
		ID:                 "compound-authority-override",
		Name:               "Authority Override",
		Description:        "A developer/administrator claim combined with an instruction override.",
		Severity:           SeverityHigh,
		RequiredCategories: []string{"authority-developer", "instruction-override"},
	},
	{
		ID:                 "compound-fiction-extraction",
		Name:               "Fiction-Wrapped Extraction",
		Description:        "Fictional/hypothetical framing combined with a prompt-extraction attempt.",
		Severity:           SeverityHigh,
		RequiredCategories: []string{"fiction-hypothetical", "prompt-extraction"},
	},
}
