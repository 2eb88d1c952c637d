package gateway

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is returned when a page or limit precondition is violated.
var ErrInvalidArgument = errors.New("invalid argument")

// FetchError is returned whenever a remote call does not succeed: the request could
// not be sent, the server answered with a non-2xx status or the body could not be
// decoded.
type FetchError struct {
	// Op names the failed operation, e.g. "fetch posts".
	Op string

	URL string

	// StatusCode is zero when no response was received.
	StatusCode int

	Err error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to %s: %s returned status %d", e.Op, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
