// Package errors translates feed explorer errors into HTTP responses.
package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Jyoti-coder1/Postsphere-feed-explorer/pkg/gateway"
	"github.com/Jyoti-coder1/Postsphere-feed-explorer/pkg/search"
	"github.com/Jyoti-coder1/Postsphere-feed-explorer/pkg/transform"
)

const InternalServerErrorMsg = "Internal Server Error"

const (
	CodeInvalidArgument  = "invalid_argument"
	CodeNotFound         = "not_found"
	CodeUpstream         = "upstream_error"
	CodeDeadlineExceeded = "deadline_exceeded"
	CodeCancelled        = "cancelled"
	CodeInternal         = "internal_error"
)

var (
	RequestDeadlineExceeded = &EncodedError{HTTPStatusCode: http.StatusGatewayTimeout, Code: CodeDeadlineExceeded, Message: "request deadline exceeded"}

	// RequestCancelled uses the non-standard 499 status nginx uses for a client that went away.
	RequestCancelled = &EncodedError{HTTPStatusCode: 499, Code: CodeCancelled, Message: "request cancelled"}
)

// EncodedError is an error with the HTTP status and the JSON body sent to the client.
type EncodedError struct {
	HTTPStatusCode int    `json:"-"`
	Code           string `json:"code"`
	Message        string `json:"message"`
}

func (e *EncodedError) Error() string {
	return e.Message
}

// Is matches any EncodedError with the same code, so sentinel values can be checked
// with errors.Is.
func (e *EncodedError) Is(target error) bool {
	var other *EncodedError
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code && e.HTTPStatusCode == other.HTTPStatusCode
}

func NewEncodedError(httpStatusCode int, code, message string) *EncodedError {
	return &EncodedError{HTTPStatusCode: httpStatusCode, Code: code, Message: message}
}

// InvalidArgument reports a bad request parameter.
func InvalidArgument(format string, a ...any) *EncodedError {
	return NewEncodedError(http.StatusBadRequest, CodeInvalidArgument, fmt.Sprintf(format, a...))
}

// NewInternalError returns an error that is safe to send to clients. The internal
// cause is never exposed.
func NewInternalError(public string, _ error) *EncodedError {
	if public == "" {
		public = InternalServerErrorMsg
	}
	return NewEncodedError(http.StatusInternalServerError, CodeInternal, public)
}

// HandleError maps an error returned by the feed explorer core to an EncodedError.
// Input errors become 400, a missing remote resource 404, any other failed fetch 502.
func HandleError(public string, err error) *EncodedError {
	var encoded *EncodedError
	var fetchErr *gateway.FetchError

	switch {
	case errors.As(err, &encoded):
		return encoded
	case errors.Is(err, context.DeadlineExceeded):
		return RequestDeadlineExceeded
	case errors.Is(err, context.Canceled):
		return RequestCancelled
	case errors.Is(err, gateway.ErrInvalidArgument),
		errors.Is(err, search.ErrUnknownMode),
		errors.Is(err, transform.ErrUnknownStage),
		errors.Is(err, transform.ErrDuplicateStage):
		return NewEncodedError(http.StatusBadRequest, CodeInvalidArgument, err.Error())
	case errors.As(err, &fetchErr):
		if fetchErr.StatusCode == http.StatusNotFound {
			return NewEncodedError(http.StatusNotFound, CodeNotFound, err.Error())
		}
		return NewEncodedError(http.StatusBadGateway, CodeUpstream, err.Error())
	default:
		return NewInternalError(public, err)
	}
}

// WriteHTTPError writes err as a JSON body with its status code.
func WriteHTTPError(w http.ResponseWriter, err *EncodedError) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(err.HTTPStatusCode)

	responseBody, marshalErr := json.Marshal(err)
	if marshalErr != nil {
		http.Error(w, InternalServerErrorMsg, http.StatusInternalServerError)
		return
	}
	_, _ = w.Write(responseBody)
}
