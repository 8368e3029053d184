package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// RuleOverride represents a row in the rule_overrides table: a tenant's
// customization of the built-in catalog — rules it has disabled, and
// rules whose weight it has overridden.
type RuleOverride struct {
	ID              string
	TenantID        string
	DisabledRuleIDs json.RawMessage // JSON array of rule ids
	CustomWeights   json.RawMessage // JSON object: rule id -> weight
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// GetRuleOverride returns a tenant's rule override row, or nil if not found.
func (s *Store) GetRuleOverride(ctx context.Context, tenantID string) (*RuleOverride, error) {
	var ro RuleOverride
	err := s.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, disabled_rule_ids, COALESCE(custom_weights, 'null'::jsonb), created_at, updated_at
		FROM rule_overrides WHERE tenant_id = $1`, tenantID,
	).Scan(&ro.ID, &ro.TenantID, &ro.DisabledRuleIDs, &ro.CustomWeights, &ro.CreatedAt, &ro.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetRuleOverride: %w", err)
	}
	return &ro, nil
}

// UpdateRuleOverride merges non-nil fields into the existing row.
func (s *Store) UpdateRuleOverride(ctx context.Context, tenantID string, disabledRuleIDs, customWeights *json.RawMessage) (*RuleOverride, error) {
	var ro RuleOverride
	err := s.db.QueryRowContext(ctx, `
		UPDATE rule_overrides SET
			disabled_rule_ids = COALESCE($2, disabled_rule_ids),
			custom_weights    = COALESCE($3, custom_weights),
			updated_at        = now()
		WHERE tenant_id = $1
		RETURNING id, tenant_id, disabled_rule_ids, COALESCE(custom_weights, 'null'::jsonb), created_at, updated_at`,
		tenantID, nullableRaw(disabledRuleIDs), nullableRaw(customWeights),
	).Scan(&ro.ID, &ro.TenantID, &ro.DisabledRuleIDs, &ro.CustomWeights, &ro.CreatedAt, &ro.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("UpdateRuleOverride: %w", err)
	}
	return &ro, nil
}

// ReplaceRuleOverride overwrites both fields unconditionally.
func (s *Store) ReplaceRuleOverride(ctx context.Context, tenantID string, disabledRuleIDs, customWeights json.RawMessage) (*RuleOverride, error) {
	var ro RuleOverride
	err := s.db.QueryRowContext(ctx, `
		UPDATE rule_overrides SET
			disabled_rule_ids = $2,
			custom_weights    = $3,
			updated_at        = now()
		WHERE tenant_id = $1
		RETURNING id, tenant_id, disabled_rule_ids, COALESCE(custom_weights, 'null'::jsonb), created_at, updated_at`,
		tenantID, nullableJSON(disabledRuleIDs), nullableJSON(customWeights),
	).Scan(&ro.ID, &ro.TenantID, &ro.DisabledRuleIDs, &ro.CustomWeights, &ro.CreatedAt, &ro.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ReplaceRuleOverride: %w", err)
	}
	return &ro, nil
}

// nullableJSON converts an empty/nil RawMessage into SQL NULL so a column
// default (or an explicit NULL write) is used instead of storing "".
func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}

// nullableRaw is nullableJSON for an optional (possibly nil) pointer,
// used by partial-update endpoints where "field omitted" must mean
// "leave unchanged" rather than "set to null".
func nullableRaw(raw *json.RawMessage) any {
	if raw == nil || len(*raw) == 0 {
		return nil
	}
	return []byte(*raw)
}
