package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrUnauthorized matches any 401 APIError
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden matches any 403 APIError
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound matches any 404 APIError
	ErrNotFound = errors.New("not found")
)

// APIError represents an error response from the API.
// The backend answers with {"detail": ...}; older endpoints use
// {"error": ...} or {"code", "message"}.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code,omitempty"`
	Message    string `json:"message,omitempty"`
	Detail     string `json:"detail,omitempty"`
	ErrorText  string `json:"error,omitempty"`
}

func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{}
	if json.Unmarshal(body, apiErr) != nil || apiErr.text() == "" {
		apiErr = &APIError{Message: strings.TrimSpace(string(body))}
	}
	apiErr.StatusCode = status
	return apiErr
}

func (e *APIError) text() string {
	switch {
	case e.Detail != "":
		return e.Detail
	case e.Message != "":
		return e.Message
	default:
		return e.ErrorText
	}
}

// Error implements the error interface.
func (e *APIError) Error() string {
	msg := e.text()
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Code != "" {
		return fmt.Sprintf("%s (status %d): %s", e.Code, e.StatusCode, msg)
	}
	return fmt.Sprintf("status %d: %s", e.StatusCode, msg)
}

// Is lets callers match on status classes with errors.Is
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrForbidden:
		return e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}
