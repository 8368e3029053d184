package auth

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// TenantStore is the subset of store.Store that auth depends on, kept as an
// interface here so tests can substitute a fake without a live Postgres.
type TenantStore interface {
	LookupByPrefix(ctx context.Context, prefix string) (*tenantRow, error)
}

// tenantRow mirrors the fields auth needs from store.TenantWithOverride,
// duplicated here to avoid an import cycle (store does not import auth,
// but auth's test doubles need a concrete shape to implement).
type tenantRow struct {
	ID              string
	APIKeyHash      string
	Threshold       int
	DisabledRuleIDs json.RawMessage
	CustomWeights   json.RawMessage
}

// sqlTenantStore adapts *sql.DB (as used by the server's real Postgres pool)
// to TenantStore via a direct query, independent of internal/store's own
// richer Tenant/RuleOverride types.
type sqlTenantStore struct {
	db *sql.DB
}

// NewSQLTenantStore builds a TenantStore backed by db.
func NewSQLTenantStore(db *sql.DB) TenantStore {
	return &sqlTenantStore{db: db}
}

func (s *sqlTenantStore) LookupByPrefix(ctx context.Context, prefix string) (*tenantRow, error) {
	var row tenantRow
	err := s.db.QueryRowContext(ctx, `
		SELECT t.id, t.api_key_hash, t.threshold,
		       COALESCE(ro.disabled_rule_ids, '[]'),
		       COALESCE(ro.custom_weights, 'null'::jsonb)
		FROM tenants t
		LEFT JOIN rule_overrides ro ON ro.tenant_id = t.id
		WHERE t.api_key_prefix = $1`, prefix,
	).Scan(&row.ID, &row.APIKeyHash, &row.Threshold, &row.DisabledRuleIDs, &row.CustomWeights)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("LookupByPrefix: %w", err)
	}
	return &row, nil
}

// PostgresAuthenticator validates API keys against Postgres, bcrypt-verifying
// the full key against its stored hash after narrowing by prefix. Results are
// cached with stale-while-revalidate semantics so the hot path almost never
// pays the bcrypt cost.
type PostgresAuthenticator struct {
	store  TenantStore
	cache  *Cache
	logger *zap.Logger
}

// NewPostgresAuthenticator builds a PostgresAuthenticator caching hits for ttl.
func NewPostgresAuthenticator(store TenantStore, ttl time.Duration, logger *zap.Logger) *PostgresAuthenticator {
	return &PostgresAuthenticator{store: store, cache: NewCache(ttl), logger: logger}
}

// Authenticate resolves apiKey to a TenantContext, serving from cache when
// possible and triggering a background refresh for stale entries.
func (a *PostgresAuthenticator) Authenticate(ctx context.Context, apiKey string) (*TenantContext, error) {
	cached := a.cache.Get(apiKey)
	if cached.Hit && cached.NeedsRefresh {
		go a.backgroundRefresh(apiKey)
	}
	if cached.Hit && cached.Tenant != nil {
		return cached.Tenant, nil
	}

	tenant, err := a.lookupAndVerify(ctx, apiKey)
	if err != nil {
		return nil, a.handleLookupError(err)
	}

	a.cache.Set(apiKey, tenant)
	return tenant, nil
}

func (a *PostgresAuthenticator) backgroundRefresh(apiKey string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	tenant, err := a.lookupAndVerify(ctx, apiKey)
	if err != nil {
		a.logger.Warn("background auth refresh failed", zap.Error(err))
		return
	}
	a.cache.Set(apiKey, tenant)
}

func (a *PostgresAuthenticator) lookupAndVerify(ctx context.Context, apiKey string) (*TenantContext, error) {
	if len(apiKey) < 8 {
		return nil, ErrInvalidAPIKey
	}
	prefix := apiKey[:8]

	row, err := a.store.LookupByPrefix(ctx, prefix)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, ErrInvalidAPIKey
	}

	if err := bcrypt.CompareHashAndPassword([]byte(row.APIKeyHash), []byte(apiKey)); err != nil {
		return nil, ErrInvalidAPIKey
	}

	return &TenantContext{
		TenantID:        row.ID,
		Threshold:       row.Threshold,
		DisabledRuleIDs: parseDisabledRuleIDs(row.DisabledRuleIDs),
		CustomWeights:   parseCustomWeights(row.CustomWeights),
	}, nil
}

// handleLookupError never fails open on an invalid key — only a DB-layer
// unavailability is reported as ErrAuthUnavailable; a genuinely absent or
// mismatched key always surfaces as ErrInvalidAPIKey.
func (a *PostgresAuthenticator) handleLookupError(err error) error {
	if errors.Is(err, ErrInvalidAPIKey) {
		return ErrInvalidAPIKey
	}
	return fmt.Errorf("%w: %v", ErrAuthUnavailable, err)
}

func parseDisabledRuleIDs(raw json.RawMessage) map[string]bool {
	if len(raw) == 0 {
		return nil
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func parseCustomWeights(raw json.RawMessage) map[string]float64 {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var weights map[string]float64
	if err := json.Unmarshal(raw, &weights); err != nil {
		return nil
	}
	return weights
}
