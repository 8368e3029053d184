package api

import "net/http"

// Error codes per the /v1/scan external interface contract. Every
// delivery-level failure maps to exactly one of these.
const (
	CodeInvalidContentType = "INVALID_CONTENT_TYPE"
	CodeInvalidJSON        = "INVALID_JSON"
	CodeValidationError    = "VALIDATION_ERROR"
	CodeTextTooLong        = "TEXT_TOO_LONG"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeRateLimitExceeded  = "RATE_LIMIT_EXCEEDED"
	CodeNotFound           = "NOT_FOUND"
	CodeScanTimeout        = "SCAN_TIMEOUT"
	CodeOutOfMemory        = "OUT_OF_MEMORY"
	CodeInternalError      = "INTERNAL_ERROR"
)

// statusForCode maps an error code to its HTTP status, the 1:1 table in
// the external interface spec.
var statusForCode = map[string]int{
	CodeInvalidContentType: http.StatusUnsupportedMediaType,
	CodeInvalidJSON:        http.StatusBadRequest,
	CodeValidationError:    http.StatusBadRequest,
	CodeTextTooLong:        http.StatusRequestEntityTooLarge,
	CodeUnauthorized:       http.StatusUnauthorized,
	CodeForbidden:          http.StatusForbidden,
	CodeRateLimitExceeded:  http.StatusTooManyRequests,
	CodeNotFound:           http.StatusNotFound,
	CodeScanTimeout:        http.StatusGatewayTimeout,
	CodeOutOfMemory:        http.StatusInsufficientStorage,
	CodeInternalError:      http.StatusInternalServerError,
}

// writeError writes the standard {success:false, error:{...}} envelope,
// deriving the HTTP status from code.
func writeError(w http.ResponseWriter, code, message string, details ...string) {
	status, ok := statusForCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	body := ErrorBody{Code: code, Message: message}
	if len(details) > 0 {
		body.Details = details[0]
	}
	writeJSON(w, status, ErrorResponse{Success: false, Error: body})
}
