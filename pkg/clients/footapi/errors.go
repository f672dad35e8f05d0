package footapi

import (
	"errors"
	"fmt"
)

// ErrUnexpectedContent is returned when an endpoint that must answer with JSON
// answers with something else, or with JSON that does not decode.
var ErrUnexpectedContent = errors.New("unexpected response from server")

// APIError is a response outside the 2xx range, or a 2xx response missing the
// field the call exists for.
type APIError struct {
	StatusCode int
	// Message is the server's "error" field, empty when absent.
	Message string
	Body    []byte
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server returned status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("server returned status %d", e.StatusCode)
}

// ContentError carries the offending response of ErrUnexpectedContent.
type ContentError struct {
	StatusCode  int
	ContentType string
	Body        []byte
	Err         error
}

func (e *ContentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unexpected response (status %d, content type %q): %v", e.StatusCode, e.ContentType, e.Err)
	}
	return fmt.Sprintf("unexpected response (status %d, content type %q)", e.StatusCode, e.ContentType)
}

func (e *ContentError) Is(target error) bool {
	return target == ErrUnexpectedContent
}

func (e *ContentError) Unwrap() error {
	return e.Err
}

// TransportError wraps failures to reach the server or read its answer.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("error calling %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ServerMessage returns the server-provided error message of err, if any.
func ServerMessage(err error) (string, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message, true
	}
	return "", false
}

// IsTransport reports whether err is a transport failure.
func IsTransport(err error) bool {
	var tErr *TransportError
	return errors.As(err, &tErr)
}
