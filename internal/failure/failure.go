// Package failure translates every possible outcome of a command run into a
// process exit code, console summary, and session log detail.
//
// The translator is a pure classification function over the closed set of
// outcome categories plus a reporting step with side effects. Keeping
// Classify free of I/O makes the exit-code taxonomy independently testable:
// the dispatcher feeds it the error returned by command execution (or a
// wrapped panic) and acts on the resulting Classification.
//
// EXIT CODE TAXONOMY:
//   - Success, ControlledStop: 0
//   - RemoteServiceError: the remote HTTP status code
//   - TransportError: the transport's numeric error code
//   - ClientError: the error's own declared exit code
//   - UserCancelled, UnhandledError: 1
//
// RemoteServiceError and ClientError surface the server's or the command's
// own declared code so that automation wrapping the CLI can branch on it;
// the other categories fall back to fixed sentinel codes because no more
// specific contract exists.
package failure

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gridhive-dev/gridctl/internal/client"
	"github.com/gridhive-dev/gridctl/internal/command"
	"github.com/gridhive-dev/gridctl/internal/logging"
	"github.com/gridhive-dev/gridctl/internal/version"
)

// Fixed sentinel exit codes. Category-specific codes (service status, errno,
// declared client code) take precedence where the classification table says so.
const (
	ExitOK      = 0
	ExitUsage   = -1
	ExitFailure = 1
)

// interventionMarker is the frontend banner served while the remote service
// is down for a scheduled intervention.
const interventionMarker = "CMSWEB Error: Service unavailable"

// Category is one terminal classification of a command run.
type Category int

const (
	Success Category = iota
	RemoteServiceError
	TransportError
	ClientError
	UserCancelled
	ControlledStop
	UnhandledError
)

func (c Category) String() string {
	switch c {
	case Success:
		return "success"
	case RemoteServiceError:
		return "remote service error"
	case TransportError:
		return "transport error"
	case ClientError:
		return "client error"
	case UserCancelled:
		return "cancelled"
	case ControlledStop:
		return "stopped"
	case UnhandledError:
		return "unhandled error"
	default:
		return "unknown"
	}
}

// Classification is the terminal verdict for one run: what to tell the user,
// what to record in the session log, which code to exit with, and whether a
// session log upload should be attempted.
type Classification struct {
	Category Category
	Summary  string
	Detail   string
	ExitCode int
	Upload   bool
}

// PanicError wraps a recovered panic value and its stack so panics flow
// through the same classification path as ordinary errors.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Classify maps the outcome of a command run onto exactly one terminal
// classification. A nil error is Success; everything else lands in one of
// the failure categories of the taxonomy above.
//
// Cancellation is tested before the typed errors because the client wraps a
// cancelled request into a TransportError; the user pressing Ctrl-C must win
// over the incidental transport failure it causes.
func Classify(err error) Classification {
	if err == nil {
		return Classification{Category: Success, ExitCode: ExitOK}
	}

	if errors.Is(err, command.ErrStopExecution) {
		return Classification{
			Category: ControlledStop,
			Summary:  "execution stopped deliberately",
			ExitCode: ExitOK,
		}
	}

	if errors.Is(err, context.Canceled) {
		return Classification{
			Category: UserCancelled,
			Summary:  "cancelled by user",
			ExitCode: ExitFailure,
		}
	}

	var panicErr *PanicError
	if errors.As(err, &panicErr) {
		return Classification{
			Category: UnhandledError,
			Summary:  fmt.Sprintf("unhandled failure: %v", panicErr.Value),
			Detail:   unhandledDetail(string(panicErr.Stack)),
			ExitCode: ExitFailure,
			Upload:   true,
		}
	}

	var svcErr *client.ServiceError
	if errors.As(err, &svcErr) {
		return classifyServiceError(svcErr)
	}

	var transErr *client.TransportError
	if errors.As(err, &transErr) {
		return Classification{
			Category: TransportError,
			Summary:  fmt.Sprintf("could not reach the task service: %v", transErr.Err),
			Detail:   transErr.Error(),
			ExitCode: transErr.Code,
			Upload:   true,
		}
	}

	var clientErr *command.ClientError
	if errors.As(err, &clientErr) {
		return Classification{
			Category: ClientError,
			Summary:  clientErr.Message,
			Detail:   fmt.Sprintf("client error (exit code %d): %s", clientErr.Code, clientErr.Message),
			ExitCode: clientErr.Code,
			Upload:   true,
		}
	}

	return Classification{
		Category: UnhandledError,
		Summary:  fmt.Sprintf("unhandled failure: %v", err),
		Detail:   unhandledDetail(fmt.Sprintf("%+v", err)),
		ExitCode: ExitFailure,
		Upload:   true,
	}
}

// classifyServiceError builds the RemoteServiceError classification: the
// remote status becomes the exit code, internal parameter names in the
// service's reason text are expanded to their user-facing flag aliases, and
// the scheduled-intervention banner gets its advisory.
func classifyServiceError(svcErr *client.ServiceError) Classification {
	reason := ExpandParamAliases(svcErr.Reason)

	var detail strings.Builder
	fmt.Fprintf(&detail, "task service answered %d: %s\n", svcErr.Status, reason)
	if svcErr.Detail != "" {
		fmt.Fprintf(&detail, "detail: %s\n", ExpandParamAliases(svcErr.Detail))
	}
	if svcErr.Info != "" {
		fmt.Fprintf(&detail, "info: %s\n", ExpandParamAliases(svcErr.Info))
	}
	if svcErr.ErrorID != "" {
		fmt.Fprintf(&detail, "error id: %s\n", svcErr.ErrorID)
	}
	if svcErr.URL != "" {
		fmt.Fprintf(&detail, "url: %s\n", svcErr.URL)
	}
	if svcErr.ReqData != "" {
		fmt.Fprintf(&detail, "request: %s\n", svcErr.ReqData)
	}

	summary := fmt.Sprintf("the task service answered with an error (status %d): %s",
		svcErr.Status, reason)

	if svcErr.Status == 503 && strings.Contains(svcErr.Result, interventionMarker) {
		advisory := "the service is undergoing a scheduled intervention; please retry once the intervention is announced as finished"
		summary = fmt.Sprintf("%s\n%s", summary, advisory)
		fmt.Fprintf(&detail, "%s\n", advisory)
	}

	return Classification{
		Category: RemoteServiceError,
		Summary:  summary,
		Detail:   detail.String(),
		ExitCode: svcErr.Status,
		Upload:   true,
	}
}

// unhandledDetail appends the version banner and support instructions that
// accompany every unhandled failure.
func unhandledDetail(trace string) string {
	return fmt.Sprintf("%s\ngridctl version: %s\nplease report this problem at %s and attach the session log",
		trace, version.Version, version.SupportContact)
}

// UploadFunc uploads a session log and returns its retrieval URL. Matches
// upload.Log; injected so reporting is testable without a network.
type UploadFunc func(ctx context.Context, sess *logging.Session, proxyFile, logFile, instance string) (string, error)

// Report acts on a classification: logs the summary for the console and the
// full detail for the session log, flushes the session to logPath so the
// file exists on disk, and attempts the log upload when the category calls
// for one and a proxy credential is known.
//
// A failed upload degrades to manual-upload instructions; it never escalates
// and never masks the classification being reported.
func Report(ctx context.Context, sess *logging.Session, cls Classification,
	proxyFile, logPath, instance string, uploadFn UploadFunc) {

	switch cls.Category {
	case Success:
		// Normal logging already told the story.
	case ControlledStop:
		sess.Debug("%s", cls.Summary)
	case UserCancelled:
		sess.Warn("%s", cls.Summary)
	default:
		sess.Error("%s", cls.Summary)
	}
	if cls.Detail != "" {
		sess.Debug("%s", cls.Detail)
	}

	if err := sess.Flush(logPath); err != nil {
		sess.Warn("failed to write session log: %v", err)
	}

	if !cls.Upload {
		return
	}
	if proxyFile == "" {
		sess.Debug("no proxy credential known, skipping session log upload")
		return
	}
	if uploadFn == nil {
		return
	}

	url, err := uploadFn(ctx, sess, proxyFile, sess.FilePath(), instance)
	if err != nil {
		sess.Warn("failed to upload the session log: %v", err)
		sess.Warn("please attach %s manually when reporting this problem", sess.FilePath())
		return
	}
	sess.Warn("session log available at %s", url)
}
