package auth

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type fakeTenantStore struct {
	rows map[string]*tenantRow
	err  error
}

func (f *fakeTenantStore) LookupByPrefix(ctx context.Context, prefix string) (*tenantRow, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.rows[prefix], nil
}

func mustHash(t *testing.T, key string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestAuthenticate_ValidKeySucceeds(t *testing.T) {
	key := "fcs_abcd1234validkeymaterial"
	store := &fakeTenantStore{rows: map[string]*tenantRow{
		key[:8]: {ID: "tenant-1", APIKeyHash: mustHash(t, key), Threshold: 70},
	}}
	a := NewPostgresAuthenticator(store, time.Minute, zap.NewNop())

	tc, err := a.Authenticate(context.Background(), key)
	require.NoError(t, err)
	require.Equal(t, "tenant-1", tc.TenantID)
	require.Equal(t, 70, tc.Threshold)
}

func TestAuthenticate_WrongKeyNeverFailsOpen(t *testing.T) {
	key := "fcs_abcd1234validkeymaterial"
	store := &fakeTenantStore{rows: map[string]*tenantRow{
		key[:8]: {ID: "tenant-1", APIKeyHash: mustHash(t, key), Threshold: 70},
	}}
	a := NewPostgresAuthenticator(store, time.Minute, zap.NewNop())

	_, err := a.Authenticate(context.Background(), "fcs_abcd1234wrongkeymateria")
	require.ErrorIs(t, err, ErrInvalidAPIKey)
}

func TestAuthenticate_UnknownPrefixIsInvalidNotUnavailable(t *testing.T) {
	store := &fakeTenantStore{rows: map[string]*tenantRow{}}
	a := NewPostgresAuthenticator(store, time.Minute, zap.NewNop())

	_, err := a.Authenticate(context.Background(), "fcs_00000000nosuchkey")
	require.ErrorIs(t, err, ErrInvalidAPIKey)
}

func TestAuthenticate_DBUnavailableSurfacesAsAuthUnavailable(t *testing.T) {
	store := &fakeTenantStore{err: errors.New("connection refused")}
	a := NewPostgresAuthenticator(store, time.Minute, zap.NewNop())

	_, err := a.Authenticate(context.Background(), "fcs_abcd1234anything")
	require.ErrorIs(t, err, ErrAuthUnavailable)
}

func TestAuthenticate_CustomWeightsAndDisabledRulesParsed(t *testing.T) {
	key := "fcs_abcd1234validkeymaterial"
	disabled, _ := json.Marshal([]string{"kw-ignore-instructions"})
	weights, _ := json.Marshal(map[string]float64{"kw-dan-jailbreak": 80})
	store := &fakeTenantStore{rows: map[string]*tenantRow{
		key[:8]: {
			ID: "tenant-1", APIKeyHash: mustHash(t, key), Threshold: 70,
			DisabledRuleIDs: disabled, CustomWeights: weights,
		},
	}}
	a := NewPostgresAuthenticator(store, time.Minute, zap.NewNop())

	tc, err := a.Authenticate(context.Background(), key)
	require.NoError(t, err)
	require.True(t, tc.DisabledRuleIDs["kw-ignore-instructions"])
	require.Equal(t, float64(80), tc.CustomWeights["kw-dan-jailbreak"])
}

func TestAuthenticate_CacheServesStaleAndTriggersRefresh(t *testing.T) {
	key := "fcs_abcd1234validkeymaterial"
	store := &fakeTenantStore{rows: map[string]*tenantRow{
		key[:8]: {ID: "tenant-1", APIKeyHash: mustHash(t, key), Threshold: 70},
	}}
	a := NewPostgresAuthenticator(store, time.Millisecond, zap.NewNop())

	_, err := a.Authenticate(context.Background(), key)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)

	tc, err := a.Authenticate(context.Background(), key)
	require.NoError(t, err)
	require.Equal(t, "tenant-1", tc.TenantID)
}
