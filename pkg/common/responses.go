package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	pkgerrors "knowspark/pkg/errors"
)

// DefaultMaxBodyBytes caps request bodies. Sync payloads carry whole
// projects, so the cap is generous.
const DefaultMaxBodyBytes int64 = 4 << 20

// ListResponse wraps collection results
type ListResponse struct {
	Items interface{} `json:"items"`
	Count int         `json:"count"`
}

// RespondJSON writes data as a JSON body with status
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

// RespondList writes items with their count
func RespondList(w http.ResponseWriter, items interface{}, count int) {
	RespondJSON(w, http.StatusOK, ListResponse{Items: items, Count: count})
}

// RespondNoContent writes an empty 204
func RespondNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// DecodeJSON parses the request body into v. Unknown fields, trailing data
// and oversized bodies are validation errors.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}, maxBytes int64) error {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return pkgerrors.NewValidationError("request body is empty")
		case errors.As(err, &maxErr):
			return pkgerrors.NewValidationError(fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit))
		default:
			return pkgerrors.NewValidationError("invalid request body").WithCause(err)
		}
	}
	if decoder.More() {
		return pkgerrors.NewValidationError("request body must contain a single JSON object")
	}
	return nil
}
