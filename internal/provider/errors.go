package provider

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotImplemented marks generation features that are not supported.
var ErrNotImplemented = errors.New("not implemented")

// maxErrorBody bounds how much of a rejected response body is kept for diagnosis.
const maxErrorBody = 4 << 10

// TransportError reports a failure to reach the provider, including timeouts
// and cancellation of the outbound call.
type TransportError struct {
	Provider string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: request failed: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RejectionError reports a non-success HTTP status returned by the provider.
// Body holds the (possibly truncated) response body for diagnosis.
type RejectionError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("%s API error: %d %s - %s",
		e.Provider, e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

// Is reports a provider-side 501 as ErrNotImplemented so callers can surface
// it as an unsupported feature rather than a generic failure.
func (e *RejectionError) Is(target error) bool {
	return target == ErrNotImplemented && e.StatusCode == http.StatusNotImplemented
}

// ReportedError is returned when a provider answers with a success status but
// carries its own error message in the response body.
type ReportedError struct {
	Provider string
	Message  string
}

func (e *ReportedError) Error() string {
	return fmt.Sprintf("%s API returned error: %s", e.Provider, e.Message)
}

// ShapeError reports a well-formed success response that lacks the expected
// result. Body holds the raw response so it can be logged.
type ShapeError struct {
	Provider string
	Reason   string
	Body     []byte
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s: unexpected response: %s", e.Provider, e.Reason)
}

// LocalIOError reports a failure writing or verifying a generated file.
type LocalIOError struct {
	Op   string
	Path string
	Err  error
}

func (e *LocalIOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *LocalIOError) Unwrap() error {
	return e.Err
}
