package api

import (
	"errors"
	"fmt"
)

// ErrNoToken is returned by a token source when no session is active.
// The client sends the request unauthenticated in that case.
var ErrNoToken = errors.New("no bearer token available")

// APIError is a non-2xx response from the TaskMaster API. Detail carries
// the server-supplied message when the body had one.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api error %d: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("api error %d", e.Status)
}

// IsUnauthorized reports whether err is a 401 response.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == 401
}

// ErrorMessage extracts a user-facing message from err: the server detail
// when present, otherwise the fallback. Transport failures never leak raw
// error text to the user.
func ErrorMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return fallback
}
