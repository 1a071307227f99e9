// Package command defines the contract between the gridctl front controller
// and the sub-command plug-ins it dispatches to, along with the error types
// commands use to signal expected failure conditions.
//
// The contract is deliberately narrow: the dispatcher constructs a command,
// executes it once, and calls Terminate with the final exit code. Everything
// a command learns during execution that the outer layers need for reporting
// (the proxy credential path, the session log location) is exposed through
// explicit accessors that default to "unknown" rather than being optional
// attributes, so callers never have to probe for presence.
package command

import (
	"context"
	"errors"
	"fmt"
)

// Command is one resolved, constructed sub-command bound to the session
// logger and its remaining CLI arguments.
//
// Execute performs the command's single authoritative attempt; nothing is
// retried automatically. Terminate is invoked unconditionally at process end
// with the final exit code, giving the command a last-chance cleanup hook
// that knows the verdict. ProxyFile returns the credential artifact path once
// authentication has established one, or "" while it is unknown. LogPath
// returns the session log destination once the project directory is known,
// or "" for the dispatcher to fall back to the default.
type Command interface {
	Execute(ctx context.Context) error
	Terminate(exitCode int)
	ProxyFile() string
	LogPath() string
}

// ErrStopExecution signals deliberate early, successful termination: the
// command decided there is nothing (more) to do and the process should exit
// with code 0 regardless of any partial work done.
var ErrStopExecution = errors.New("execution stopped")

// ClientError is a locally detected, expected failure condition (bad input,
// violated local precondition) carrying its own declared exit code so that
// automation wrapping the CLI can branch on it.
type ClientError struct {
	Code    int
	Message string
}

func (e *ClientError) Error() string {
	return e.Message
}

// NewClientError creates a ClientError with the given exit code and message.
func NewClientError(code int, format string, v ...any) *ClientError {
	return &ClientError{Code: code, Message: fmt.Sprintf(format, v...)}
}
