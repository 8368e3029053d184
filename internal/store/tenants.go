package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Tenant represents a row in the tenants table: an API consumer with its
// own API key and default confidence threshold.
type Tenant struct {
	ID           string
	Name         string
	APIKeyHash   string
	APIKeyPrefix string
	Threshold    int // default confidenceThreshold applied when a /v1/scan request omits one
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TenantWithOverride is a Tenant joined with its RuleOverride row (for auth lookups).
type TenantWithOverride struct {
	Tenant
	DisabledRuleIDs json.RawMessage // from rule_overrides.disabled_rule_ids
	CustomWeights   json.RawMessage // from rule_overrides.custom_weights
}

// UpdateTenantParams holds optional fields for partial tenant updates.
type UpdateTenantParams struct {
	Name      *string
	Threshold *int
}

// GenerateAPIKey creates a new fcs_ API key with its bcrypt hash and prefix.
// Returns (fullKey, hash, prefix, error). The fullKey is shown to the user once.
func GenerateAPIKey() (string, string, string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", "", "", fmt.Errorf("GenerateAPIKey: %w", err)
	}
	fullKey := "fcs_" + hex.EncodeToString(raw)

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(fullKey), bcrypt.DefaultCost)
	if err != nil {
		return "", "", "", fmt.Errorf("GenerateAPIKey: %w", err)
	}

	prefix := fullKey[:8] // "fcs_abcd"
	return fullKey, string(hashBytes), prefix, nil
}

// CreateTenant inserts a new tenant and its default rule override row in a
// single transaction. Returns the tenant, override, and plaintext API key
// (shown once).
func (s *Store) CreateTenant(ctx context.Context, name string) (*Tenant, *RuleOverride, string, error) {
	fullKey, keyHash, keyPrefix, err := GenerateAPIKey()
	if err != nil {
		return nil, nil, "", fmt.Errorf("CreateTenant: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, "", fmt.Errorf("CreateTenant: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var t Tenant
	err = tx.QueryRowContext(ctx, `
		INSERT INTO tenants (name, api_key_hash, api_key_prefix)
		VALUES ($1, $2, $3)
		RETURNING id, name, api_key_hash, api_key_prefix, threshold, created_at, updated_at`,
		name, keyHash, keyPrefix,
	).Scan(&t.ID, &t.Name, &t.APIKeyHash, &t.APIKeyPrefix, &t.Threshold, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, nil, "", fmt.Errorf("CreateTenant: %w", err)
	}

	var ro RuleOverride
	err = tx.QueryRowContext(ctx, `
		INSERT INTO rule_overrides (tenant_id)
		VALUES ($1)
		RETURNING id, tenant_id, disabled_rule_ids, COALESCE(custom_weights, 'null'::jsonb), created_at, updated_at`,
		t.ID,
	).Scan(&ro.ID, &ro.TenantID, &ro.DisabledRuleIDs, &ro.CustomWeights, &ro.CreatedAt, &ro.UpdatedAt)
	if err != nil {
		return nil, nil, "", fmt.Errorf("CreateTenant: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, "", fmt.Errorf("CreateTenant: %w", err)
	}

	return &t, &ro, fullKey, nil
}

// ListTenants returns all tenants ordered by created_at DESC.
func (s *Store) ListTenants(ctx context.Context) ([]*Tenant, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, api_key_hash, api_key_prefix, threshold, created_at, updated_at
		FROM tenants ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("ListTenants: %w", err)
	}
	defer rows.Close()

	var tenants []*Tenant
	for rows.Next() {
		var t Tenant
		if err := rows.Scan(&t.ID, &t.Name, &t.APIKeyHash, &t.APIKeyPrefix,
			&t.Threshold, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("ListTenants: %w", err)
		}
		tenants = append(tenants, &t)
	}
	return tenants, rows.Err()
}

// GetTenant returns a tenant by ID, or nil if not found.
func (s *Store) GetTenant(ctx context.Context, id string) (*Tenant, error) {
	var t Tenant
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, api_key_hash, api_key_prefix, threshold, created_at, updated_at
		FROM tenants WHERE id = $1`, id,
	).Scan(&t.ID, &t.Name, &t.APIKeyHash, &t.APIKeyPrefix, &t.Threshold, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetTenant: %w", err)
	}
	return &t, nil
}

// UpdateTenant applies a partial update to a tenant. Only non-nil fields are changed.
func (s *Store) UpdateTenant(ctx context.Context, id string, params UpdateTenantParams) (*Tenant, error) {
	var t Tenant
	err := s.db.QueryRowContext(ctx, `
		UPDATE tenants SET
			name       = COALESCE($2, name),
			threshold  = COALESCE($3, threshold),
			updated_at = now()
		WHERE id = $1
		RETURNING id, name, api_key_hash, api_key_prefix, threshold, created_at, updated_at`,
		id, params.Name, params.Threshold,
	).Scan(&t.ID, &t.Name, &t.APIKeyHash, &t.APIKeyPrefix, &t.Threshold, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("UpdateTenant: %w", err)
	}
	return &t, nil
}

// DeleteTenant deletes a tenant by ID. Its rule override row cascades.
func (s *Store) DeleteTenant(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM tenants WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("DeleteTenant: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// RotateAPIKey generates a new API key for a tenant.
// Returns the updated tenant and the plaintext key (shown once).
func (s *Store) RotateAPIKey(ctx context.Context, id string) (*Tenant, string, error) {
	fullKey, keyHash, keyPrefix, err := GenerateAPIKey()
	if err != nil {
		return nil, "", fmt.Errorf("RotateAPIKey: %w", err)
	}

	var t Tenant
	err = s.db.QueryRowContext(ctx, `
		UPDATE tenants SET
			api_key_hash   = $2,
			api_key_prefix = $3,
			updated_at     = now()
		WHERE id = $1
		RETURNING id, name, api_key_hash, api_key_prefix, threshold, created_at, updated_at`,
		id, keyHash, keyPrefix,
	).Scan(&t.ID, &t.Name, &t.APIKeyHash, &t.APIKeyPrefix, &t.Threshold, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, "", sql.ErrNoRows
	}
	if err != nil {
		return nil, "", fmt.Errorf("RotateAPIKey: %w", err)
	}

	return &t, fullKey, nil
}

// LookupByPrefix finds a tenant by API key prefix (first 8 chars).
// Used by auth to narrow candidates before bcrypt verify.
func (s *Store) LookupByPrefix(ctx context.Context, prefix string) (*TenantWithOverride, error) {
	var tw TenantWithOverride
	err := s.db.QueryRowContext(ctx, `
		SELECT t.id, t.name, t.api_key_hash, t.api_key_prefix, t.threshold, t.created_at, t.updated_at,
		       COALESCE(ro.disabled_rule_ids, '[]'),
		       COALESCE(ro.custom_weights, 'null'::jsonb)
		FROM tenants t
		LEFT JOIN rule_overrides ro ON ro.tenant_id = t.id
		WHERE t.api_key_prefix = $1`, prefix,
	).Scan(&tw.ID, &tw.Name, &tw.APIKeyHash, &tw.APIKeyPrefix, &tw.Threshold, &tw.CreatedAt, &tw.UpdatedAt,
		&tw.DisabledRuleIDs, &tw.CustomWeights)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("LookupByPrefix: %w", err)
	}
	return &tw, nil
}
