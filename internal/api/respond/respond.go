// Package respond writes the API's JSON bodies: cached reads with ETags,
// uncached objects, and the error envelope shared by every endpoint.
package respond

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/albapepper/courtstats/internal/ingest"
	"github.com/albapepper/courtstats/internal/provider"
	"github.com/albapepper/courtstats/internal/schema"
	"github.com/albapepper/courtstats/internal/storage"
)

// Error codes carried in ErrorResponse.
const (
	CodeInternal          = "INTERNAL"
	CodeUploadTooLarge    = "UPLOAD_TOO_LARGE"
	CodeMissingFile       = "MISSING_FILE"
	CodeNoDemoDatabase    = "NO_DEMO_DATABASE"
	CodeInvalidIdentifier = "INVALID_IDENTIFIER"
	CodeEmptyFile         = "EMPTY_FILE"
	CodeFileNotFound      = "FILE_NOT_FOUND"
	CodeTableNotFound     = "TABLE_NOT_FOUND"
	CodeHeaderMismatch    = "HEADER_MISMATCH"
	CodeMalformedRow      = "MALFORMED_ROW"
	CodeRowRejected       = "ROW_REJECTED"
	CodeUpstream          = "UPSTREAM"
	CodeTimeout           = "TIMEOUT"
	CodeRateLimited       = "RATE_LIMITED"
	CodeNotFound          = "NOT_FOUND"
	CodeInvalidParam      = "INVALID_PARAMETER"
	CodeDisabled          = "DISABLED"
)

// ErrorResponse is the standard error shape for all API errors.
type ErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Detail  string `json:"detail,omitempty"`
	} `json:"error"`
}

// errorClass maps one sentinel onto a status and code.
type errorClass struct {
	target error
	status int
	code   string
}

// Sentinels in match order. Input problems come before store problems so a
// wrapped chain reports its most specific cause.
var errorClasses = []errorClass{
	{storage.ErrUnsafeIdentifier, http.StatusBadRequest, CodeInvalidIdentifier},
	{schema.ErrEmptySample, http.StatusBadRequest, CodeEmptyFile},
	{ingest.ErrFileNotFound, http.StatusBadRequest, CodeFileNotFound},
	{storage.ErrNoSuchTable, http.StatusNotFound, CodeTableNotFound},
	{ingest.ErrHeaderMismatch, http.StatusUnprocessableEntity, CodeHeaderMismatch},
	{ingest.ErrMalformedRow, http.StatusUnprocessableEntity, CodeMalformedRow},
	{storage.ErrRowRejected, http.StatusUnprocessableEntity, CodeRowRejected},
	{provider.ErrNoData, http.StatusBadGateway, CodeUpstream},
	{context.DeadlineExceeded, http.StatusGatewayTimeout, CodeTimeout},
}

// Classify returns the status and code for a domain error. Unknown errors
// are 500 INTERNAL.
func Classify(err error) (int, string) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge, CodeUploadTooLarge
	}
	for _, c := range errorClasses {
		if errors.Is(err, c.target) {
			return c.status, c.code
		}
	}
	return http.StatusInternalServerError, CodeInternal
}

// WriteJSON writes cached JSON bytes with cache and ETag headers.
func WriteJSON(w http.ResponseWriter, data []byte, etag string, ttl time.Duration, cacheHit bool) {
	h := w.Header()
	h.Set("Content-Type", "application/json")
	h.Set("ETag", etag)
	h.Set("Vary", "Accept-Encoding")
	if cacheHit {
		h.Set("X-Cache", "HIT")
	} else {
		h.Set("X-Cache", "MISS")
	}
	maxAge := int(ttl.Seconds())
	h.Set("Cache-Control", fmt.Sprintf("public, max-age=%d, stale-while-revalidate=%d", maxAge, maxAge/2))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// WriteNotModified sends a 304 with the matching ETag.
func WriteNotModified(w http.ResponseWriter, etag string) {
	w.Header().Set("ETag", etag)
	w.WriteHeader(http.StatusNotModified)
}

// WriteError sends an error envelope without detail.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteErrorDetail(w, status, code, message, "")
}

// WriteErrorDetail sends an error envelope. Errors are never cached.
func WriteErrorDetail(w http.ResponseWriter, status int, code, message, detail string) {
	var resp ErrorResponse
	resp.Error.Code = code
	resp.Error.Message = message
	resp.Error.Detail = detail
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	WriteJSONObject(w, status, resp)
}

// WriteDomainError classifies err, writes the envelope with err as detail,
// and returns the status it chose.
func WriteDomainError(w http.ResponseWriter, err error) int {
	status, code := Classify(err)
	WriteErrorDetail(w, status, code, http.StatusText(status), err.Error())
	return status
}

// WriteJSONObject marshals v and writes it uncached.
func WriteJSONObject(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
