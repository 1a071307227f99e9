package client

import (
	"errors"
	"fmt"
	"syscall"
)

// ServiceError is a structured error answered by the task service. The
// service reports failure context through response headers (X-Error-Detail,
// X-Error-Info, X-Error-Id) alongside the HTTP status; the numeric status is
// the authoritative exit code for automation wrapping the CLI.
type ServiceError struct {
	Status  int
	Reason  string
	Detail  string // X-Error-Detail header
	Info    string // X-Error-Info header
	ErrorID string // X-Error-Id header
	URL     string
	ReqData string
	Result  string // raw response body, if any
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("task service returned %d: %s", e.Status, e.Reason)
}

// TransportError is a low-level network failure (DNS, connect, TLS) raised
// before the service produced any answer. Code carries the primary numeric
// error code of the transport: the OS errno when one is present in the error
// chain, 1 otherwise.
type TransportError struct {
	Code int
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure (code %d): %v", e.Code, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// newTransportError wraps a transport-level failure, extracting the errno
// from the chain when the OS supplied one.
func newTransportError(err error) *TransportError {
	code := 1
	var errno syscall.Errno
	if errors.As(err, &errno) {
		code = int(errno)
	}
	return &TransportError{Code: code, Err: err}
}
