// Package community implements the Community Rule Loader (§4.7): fetching
// declarative rules from an external index + per-rule endpoint, validating
// each against a fixed schema, and converting survivors into disabled
// internal/rules.Rule values that the operator must opt in to.
package community

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// documentSchemaJSON is the §4.7 validated shape for one fetched rule
// document. kind intentionally omits "heuristic" from its enum: a
// community rule claiming kind=heuristic must be hard-rejected, since
// accepting it would mean executing code of untrusted origin.
const documentSchemaJSON = `{
  "type": "object",
  "required": ["id", "name", "description", "kind", "severity"],
  "properties": {
    "id":          { "type": "string", "minLength": 1, "maxLength": 100 },
    "name":        { "type": "string", "minLength": 1, "maxLength": 200 },
    "description": { "type": "string", "maxLength": 1000 },
    "kind":        { "type": "string", "enum": ["keyword", "regex"] },
    "severity":    { "type": "string", "enum": ["low", "medium", "high", "critical"] },
    "pattern":     { "type": "string", "maxLength": 2000 },
    "keywords": {
      "type": "array",
      "maxItems": 100,
      "items": { "type": "string", "maxLength": 200 }
    },
    "weight":     { "type": "number", "minimum": 0, "maximum": 100 },
    "references": { "type": "array", "items": { "type": "string" } }
  }
}`

// schemaKindHeuristic is checked explicitly (rather than relying solely on
// the enum above) so a rejected document always surfaces the specific
// ErrHeuristicRejected error rather than a generic schema-validation error.
const schemaKindHeuristic = "heuristic"

var compiledSchema *jsonschema.Schema

func init() {
	var schemaObj any
	if err := json.Unmarshal([]byte(documentSchemaJSON), &schemaObj); err != nil {
		panic(fmt.Sprintf("community: invalid embedded schema: %v", err))
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("community-rule.json", schemaObj); err != nil {
		panic(fmt.Sprintf("community: schema compile error: %v", err))
	}
	sch, err := c.Compile("community-rule.json")
	if err != nil {
		panic(fmt.Sprintf("community: schema compile error: %v", err))
	}
	compiledSchema = sch
}

// validateDocument enforces §4.7's required/optional shape and the
// hard rejection of kind == heuristic. raw is the decoded JSON document
// (map[string]any), so schema validation can inspect it directly.
func validateDocument(raw map[string]any) error {
	if kind, _ := raw["kind"].(string); kind == schemaKindHeuristic {
		return ErrHeuristicRejected
	}
	if err := compiledSchema.Validate(raw); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaInvalid, err)
	}
	return nil
}
