package community

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/forensicate/forensicate/internal/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, index []indexEntry, docs map[string]document) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/index.json", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(index)
	})
	for file, doc := range docs {
		doc := doc
		mux.HandleFunc("/"+file, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(doc)
		})
	}
	return httptest.NewServer(mux)
}

func TestLoadAll_ValidRuleConvertsDisabled(t *testing.T) {
	docs := map[string]document{
		"rule-1.json": {
			ID: "community-1", Name: "Test Rule", Description: "desc",
			Kind: "keyword", Severity: "high", Keywords: []string{"test"},
		},
	}
	srv := newTestServer(t, []indexEntry{{ID: "community-1", File: "rule-1.json"}}, docs)
	defer srv.Close()

	loader := NewLoader(srv.URL, time.Hour)
	loaded, failures := loader.LoadAll(context.Background())

	require.Empty(t, failures)
	require.Len(t, loaded, 1)
	assert.False(t, loaded[0].Enabled, "community rule must start disabled")
	assert.Equal(t, rules.KindKeyword, loaded[0].Kind)
}

func TestLoadAll_HeuristicKindIsHardRejected(t *testing.T) {
	docs := map[string]document{
		"rule-1.json": {
			ID: "community-bad", Name: "Bad", Description: "desc",
			Kind: "heuristic", Severity: "high",
		},
	}
	srv := newTestServer(t, []indexEntry{{ID: "community-bad", File: "rule-1.json"}}, docs)
	defer srv.Close()

	loader := NewLoader(srv.URL, time.Hour)
	loaded, failures := loader.LoadAll(context.Background())

	require.Empty(t, loaded)
	err, ok := failures["community-bad"]
	require.True(t, ok, "expected a failure entry for community-bad")
	assert.ErrorIs(t, err, ErrHeuristicRejected)
}

func TestLoadAll_OneBadRuleDoesNotAbortOthers(t *testing.T) {
	docs := map[string]document{
		"good.json": {ID: "good", Name: "Good", Description: "d", Kind: "regex", Severity: "low", Pattern: "x"},
		"bad.json":  {ID: "bad", Name: "", Description: "d", Kind: "regex", Severity: "low", Pattern: "x"}, // empty name fails schema
	}
	srv := newTestServer(t, []indexEntry{
		{ID: "good", File: "good.json"},
		{ID: "bad", File: "bad.json"},
	}, docs)
	defer srv.Close()

	loader := NewLoader(srv.URL, time.Hour)
	loaded, failures := loader.LoadAll(context.Background())

	require.Len(t, loaded, 1)
	assert.Equal(t, "good", loaded[0].ID)
	_, ok := failures["bad"]
	assert.True(t, ok, "expected a failure recorded for 'bad'")
}

func TestCache_StaleEntryServedWithRefreshFlag(t *testing.T) {
	c := NewCache(1 * time.Millisecond)
	c.Set("k", []byte("v"))
	time.Sleep(5 * time.Millisecond)

	first := c.Get("k")
	require.True(t, first.Hit)
	require.True(t, first.NeedsRefresh)

	second := c.Get("k")
	assert.True(t, second.Hit)
	assert.False(t, second.NeedsRefresh, "expected second caller to not duplicate the refresh signal")
}

func TestCache_ClearRemovesEverything(t *testing.T) {
	c := NewCache(time.Hour)
	c.Set("a", []byte("1"))
	c.Set("b", []byte("2"))
	c.Clear()

	assert.False(t, c.Get("a").Hit)
	assert.False(t, c.Get("b").Hit)
}
