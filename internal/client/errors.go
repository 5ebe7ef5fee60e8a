package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// APIError is a non-success response from the game server.
type APIError struct {
	Status int
	Detail string
	Path   string
}

// Error returns the server's detail message verbatim.
func (e *APIError) Error() string {
	return e.Detail
}

// IsStatus reports whether err is an APIError with the given HTTP status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// newAPIError builds an APIError from a response body. FastAPI reports
// failures as {"detail": "..."}; anything else falls back to the status.
func newAPIError(status int, path string, body []byte) *APIError {
	e := &APIError{Status: status, Path: path}
	var eb errorBody
	if json.Unmarshal(body, &eb) == nil && strings.TrimSpace(eb.Detail) != "" {
		e.Detail = eb.Detail
	} else {
		e.Detail = fmt.Sprintf("HTTP %d", status)
	}
	return e
}
