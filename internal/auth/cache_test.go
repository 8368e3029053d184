package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCache_MissReturnsNoHit(t *testing.T) {
	c := NewCache(time.Minute)
	res := c.Get("fcs_doesnotexist")
	require.False(t, res.Hit)
}

func TestCache_FreshHitNeedsNoRefresh(t *testing.T) {
	c := NewCache(time.Minute)
	tenant := &TenantContext{TenantID: "tenant-1"}
	c.Set("fcs_key", tenant)

	res := c.Get("fcs_key")
	require.True(t, res.Hit)
	require.False(t, res.NeedsRefresh)
	require.Equal(t, "tenant-1", res.Tenant.TenantID)
}

func TestCache_StaleHitServesValueAndSignalsRefreshOnce(t *testing.T) {
	c := NewCache(time.Millisecond)
	c.Set("fcs_key", &TenantContext{TenantID: "tenant-1"})
	time.Sleep(5 * time.Millisecond)

	first := c.Get("fcs_key")
	require.True(t, first.Hit)
	require.True(t, first.NeedsRefresh)
	require.Equal(t, "tenant-1", first.Tenant.TenantID)

	second := c.Get("fcs_key")
	require.True(t, second.Hit)
	require.False(t, second.NeedsRefresh)
}

func TestCache_DeleteRemovesEntry(t *testing.T) {
	c := NewCache(time.Minute)
	c.Set("fcs_key", &TenantContext{TenantID: "tenant-1"})
	c.Delete("fcs_key")

	res := c.Get("fcs_key")
	require.False(t, res.Hit)
}
