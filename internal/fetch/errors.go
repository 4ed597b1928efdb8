package fetch

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidQuery reports a query rejected before any network I/O.
	ErrInvalidQuery = errors.New("invalid query")

	ErrTransport     = errors.New("transport error")
	ErrStatus        = errors.New("unexpected status")
	ErrMalformedBody = errors.New("malformed response body")
)

// FetchError describes a failed request. Err wraps one of ErrTransport,
// ErrStatus or ErrMalformedBody.
type FetchError struct {
	Query      Query
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch chat %s from %s: status %d: %v", e.Query.ChatID, e.Query.FromDate, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch chat %s from %s: %v", e.Query.ChatID, e.Query.FromDate, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
