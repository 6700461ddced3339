package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"smartkitchen/pkg/errors"
	"smartkitchen/pkg/logger"
)

// ErrorBody is the error response shape shared by every service
type ErrorBody struct {
	Detail string `json:"detail"`
}

// WriteJSON writes v with status
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Get().Component("http").Warn("failed to encode response", "error", err)
	}
}

// WriteDetail writes an error body with status
func WriteDetail(w http.ResponseWriter, status int, detail string) {
	WriteJSON(w, status, ErrorBody{Detail: detail})
}

// StatusFor maps an error to its HTTP status: invalid input is 400, everything else 500
func StatusFor(err error) int {
	if errors.Is(err, errors.ErrInvalidInput) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// WriteError writes err as {"detail": ...} with the mapped status
func WriteError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Get().Component("http").Error("request failed", "error", err)
	}
	WriteDetail(w, status, err.Error())
}

// DecodeJSON reads a JSON body into v; malformed bodies are invalid input
func DecodeJSON(r io.Reader, v interface{}) error {
	if err := json.NewDecoder(r).Decode(v); err != nil {
		return errors.NewValidationError("body", "malformed JSON: "+err.Error(), nil)
	}
	return nil
}

// Missing collects the names of absent required fields
type Missing []string

// Check records name when present is false
func (m *Missing) Check(name string, present bool) {
	if !present {
		*m = append(*m, name)
	}
}

// Err returns a validation error naming every missing field, or nil
func (m Missing) Err() error {
	if len(m) == 0 {
		return nil
	}
	return errors.NewValidationError(strings.Join(m, ", "), "field required", nil)
}
