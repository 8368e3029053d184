package community

import "errors"

// Sentinel errors returned by FetchRule and FetchIndex, matching the engine's
// "never panic for input-level problems" contract (§7): every failure
// mode here is a typed, returned error, not a throw.
var (
	// ErrHeuristicRejected is returned for any document declaring
	// kind == "heuristic". This is a load-bearing security contract (§9):
	// community rules must never carry executable code.
	ErrHeuristicRejected = errors.New("community: heuristic-kind rules are never accepted")
	// ErrSchemaInvalid is returned when a document fails the §4.7 schema.
	ErrSchemaInvalid = errors.New("community: document failed schema validation")
	// ErrFetchFailed wraps a transport-level failure fetching the index
	// or a rule file.
	ErrFetchFailed = errors.New("community: fetch failed")
	// ErrDecodeFailed wraps a JSON decode failure on a fetched document.
	ErrDecodeFailed = errors.New("community: response body was not valid JSON")
)
