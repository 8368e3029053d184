package community

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/forensicate/forensicate/internal/rules"
)

const indexCacheKey = "__index__"

// indexEntry is one row of the `<base>/index.json` listing.
type indexEntry struct {
	ID   string `json:"id"`
	File string `json:"file"`
}

// document is the wire shape of one `<base>/<file>` rule document,
// mirroring the §4.7 schema before conversion to rules.Rule.
type document struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Kind        string   `json:"kind"`
	Severity    string   `json:"severity"`
	Pattern     string   `json:"pattern,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
	Weight      *float64 `json:"weight,omitempty"`
	References  []string `json:"references,omitempty"`
}

// Loader fetches and validates community rules over HTTPS, caching both
// the index and individual rule documents.
type Loader struct {
	baseURL string
	client  *http.Client
	cache   *Cache
}

// NewLoader builds a Loader against baseURL (e.g.
// "https://rules.example.com/community"), caching fetched documents for ttl.
func NewLoader(baseURL string, ttl time.Duration) *Loader {
	return &Loader{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		cache:   NewCache(ttl),
	}
}

// ClearCache exposes the manual cache-clear operation required by §4.7.
func (l *Loader) ClearCache() {
	l.cache.Clear()
}

// FetchIndex retrieves and caches the rule index.
func (l *Loader) FetchIndex(ctx context.Context) ([]indexEntry, error) {
	if cached := l.cache.Get(indexCacheKey); cached.Hit && !cached.NeedsRefresh {
		return decodeIndex(cached.Data)
	}

	body, err := l.get(ctx, l.baseURL+"/index.json")
	if err != nil {
		if cached := l.cache.Get(indexCacheKey); cached.Hit {
			return decodeIndex(cached.Data) // stale-while-revalidate fallback
		}
		return nil, err
	}

	entries, decodeErr := decodeIndex(body)
	if decodeErr != nil {
		l.cache.Invalidate(indexCacheKey)
		return nil, decodeErr
	}
	l.cache.Set(indexCacheKey, body)
	return entries, nil
}

// FetchRule retrieves, validates, and converts one rule document to a
// disabled rules.Rule. A validation failure is returned for that rule
// only; it never aborts a caller iterating the full index.
func (l *Loader) FetchRule(ctx context.Context, entry indexEntry) (*rules.Rule, error) {
	cacheKey := "rule:" + entry.ID

	var body []byte
	if cached := l.cache.Get(cacheKey); cached.Hit && !cached.NeedsRefresh {
		body = cached.Data
	} else {
		fetched, err := l.get(ctx, l.baseURL+"/"+entry.File)
		if err != nil {
			if cached := l.cache.Get(cacheKey); cached.Hit {
				body = cached.Data
			} else {
				return nil, err
			}
		} else {
			body = fetched
		}
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		l.cache.Invalidate(cacheKey)
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}

	if err := validateDocument(raw); err != nil {
		l.cache.Invalidate(cacheKey)
		return nil, err
	}

	var doc document
	if err := json.Unmarshal(body, &doc); err != nil {
		l.cache.Invalidate(cacheKey)
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}

	l.cache.Set(cacheKey, body)
	return toRule(doc), nil
}

// LoadAll fetches the index and every rule it references, skipping (and
// collecting) individual rule failures rather than aborting the whole load.
func (l *Loader) LoadAll(ctx context.Context) ([]*rules.Rule, map[string]error) {
	entries, err := l.FetchIndex(ctx)
	if err != nil {
		return nil, map[string]error{indexCacheKey: err}
	}

	var loaded []*rules.Rule
	failures := make(map[string]error)
	for _, entry := range entries {
		r, err := l.FetchRule(ctx, entry)
		if err != nil {
			failures[entry.ID] = err
			continue
		}
		loaded = append(loaded, r)
	}
	return loaded, failures
}

func (l *Loader) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d from %s", ErrFetchFailed, resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	return body, nil
}

func decodeIndex(body []byte) ([]indexEntry, error) {
	var entries []indexEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	return entries, nil
}

// toRule converts a validated document into a Rule. It always starts
// disabled (§4.7: "the user must opt in") and tags its source for
// provenance in the catalog/UI.
func toRule(doc document) *rules.Rule {
	r := &rules.Rule{
		ID:          doc.ID,
		Name:        doc.Name,
		Description: doc.Description,
		Kind:        rules.Kind(doc.Kind),
		Severity:    rules.Severity(doc.Severity),
		Enabled:     false,
		Weight:      doc.Weight,
		Keywords:    doc.Keywords,
		Pattern:     doc.Pattern,
		CategoryID:  "community",
		Source:      "community",
	}
	if r.Kind.IsRegexLike() && r.Pattern != "" {
		r.Flags = "gi"
	}
	return r
}
