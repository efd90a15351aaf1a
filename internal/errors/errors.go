// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrTimeout is returned when a request to the campaign API does not finish
// within its configured deadline.
var ErrTimeout = errors.New("request timeout")

// ErrMissingBaseURL is returned when no API base URL has been configured.
var ErrMissingBaseURL = errors.New("missing api base url")

// ErrResponseTooLarge is returned when a response body exceeds the client's
// read limit.
var ErrResponseTooLarge = errors.New("response body too large")

// HTTPError carries a non-2xx response from the campaign API.
type HTTPError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("HTTP %d", e.Status)
	}
	return fmt.Sprintf("HTTP %d: %s", e.Status, body)
}

// NewHTTPError builds an HTTPError. body is only kept for write operations.
func NewHTTPError(method, path string, status int, body string) error {
	return &HTTPError{Method: method, Path: path, Status: status, Body: body}
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Status
	}
	return 0
}

// PageNotFoundError is returned when a page id is not registered.
type PageNotFoundError struct {
	PageID string
}

func (e *PageNotFoundError) Error() string {
	return fmt.Sprintf("page %q not found", e.PageID)
}

func NewPageNotFound(id string) error {
	return &PageNotFoundError{PageID: id}
}

// ValidationError lists the problems found in a submitted form.
type ValidationError struct {
	Form     string
	Problems []string
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 0 {
		return fmt.Sprintf("%s is invalid", e.Form)
	}
	return strings.Join(e.Problems, "; ")
}

func NewValidation(form string, problems ...string) error {
	return &ValidationError{Form: form, Problems: problems}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
