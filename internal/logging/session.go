// Package logging provides the session log pipeline for gridctl, ensuring
// consistent log formatting on the console and complete capture of every
// record into the durable session log file.
//
// Implements a buffered logging session that solves the central chicken-and-egg
// problem of the CLI: the session log lives inside the task's project
// directory, but that directory is only known once the executed command has
// resolved it. Every record emitted before that point is held in an in-memory
// buffer and replayed into the file when the path becomes known.
//
// LOGGING FEATURES:
//   - Color-coded levels: DEBUG (purple), INFO (blue), WARN (yellow), ERROR (red)
//   - Memory buffering: full-detail capture independent of console verbosity
//   - Idempotent flush: attaching the file sink twice never duplicates records
//   - Console verbosity: quiet (WARN+), default (INFO+), debug (everything)
//
// The console level only controls what the user sees on the terminal; the
// memory buffer and the eventual file always receive full detail so that a
// quiet run still produces a complete session log for troubleshooting.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// Record is a single captured log entry held in the session's memory buffer
// until the durable log file is attached.
type Record struct {
	Time    time.Time
	Level   log.Level
	Message string
}

// Session owns the complete logging state for one CLI invocation: the styled
// console logger, the full-detail memory buffer, and the lazily attached
// session log file. The dispatcher creates exactly one Session per process
// and shares a reference with the executed command and the failure reporter.
//
// Single-threaded by design: one command runs per invocation, so no locking
// is needed. The file sink is attached at most once; Flush is safe to call
// from both the normal-return path and the failure path.
type Session struct {
	console *log.Logger
	records []Record

	filePath string
	file     *os.File
}

// setupCustomStyles configures custom color schemes for log levels to improve
// visual distinction between routine progress output and failures.
//
// Provides carefully chosen colors that work well in both light and dark
// terminals while maintaining readability for interactive use.
func setupCustomStyles() *log.Styles {
	styles := log.DefaultStyles()

	// DEBUG: light purple
	styles.Levels[log.DebugLevel] = lipgloss.NewStyle().
		SetString("DEBUG").
		Foreground(lipgloss.Color("#7F6DFF"))

	// INFO: light blue
	styles.Levels[log.InfoLevel] = lipgloss.NewStyle().
		SetString("INFO").
		Foreground(lipgloss.Color("#42E7FF"))

	// WARN: light yellow
	styles.Levels[log.WarnLevel] = lipgloss.NewStyle().
		SetString("WARN").
		Foreground(lipgloss.Color("#FFE763"))

	// ERROR: light red/pink
	styles.Levels[log.ErrorLevel] = lipgloss.NewStyle().
		SetString("ERROR").
		Foreground(lipgloss.Color("#FF4473"))

	return styles
}

// NewSession creates a logging session writing console output to w (normally
// os.Stderr) at the default INFO level. The memory buffer starts capturing
// immediately, so records emitted before SetConsoleLevel or Flush are never
// lost.
func NewSession(w io.Writer) *Session {
	console := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
	})
	console.SetStyles(setupCustomStyles())
	console.SetLevel(log.InfoLevel)

	return &Session{console: console}
}

// SetConsoleLevel configures terminal verbosity from the mutually exclusive
// --quiet and --debug global flags: quiet shows WARN and above only, debug
// shows everything, the default shows INFO and above.
//
// Only console output is affected. The memory buffer and the session log file
// always receive full detail regardless of this setting.
func (s *Session) SetConsoleLevel(quiet, debug bool) {
	switch {
	case quiet:
		s.console.SetLevel(log.WarnLevel)
	case debug:
		s.console.SetLevel(log.DebugLevel)
	default:
		s.console.SetLevel(log.InfoLevel)
	}
}

// Debug logs detailed debugging information for troubleshooting.
func (s *Session) Debug(format string, v ...any) {
	s.emit(log.DebugLevel, format, v...)
}

// Info logs informational messages for command progress and status updates.
func (s *Session) Info(format string, v ...any) {
	s.emit(log.InfoLevel, format, v...)
}

// Warn logs warning messages for non-critical issues requiring attention.
func (s *Session) Warn(format string, v ...any) {
	s.emit(log.WarnLevel, format, v...)
}

// Error logs error messages for failures in command execution.
func (s *Session) Error(format string, v ...any) {
	s.emit(log.ErrorLevel, format, v...)
}

// emit routes one record to the console (subject to the console level), into
// the memory buffer, and through to the session log file once attached.
func (s *Session) emit(level log.Level, format string, v ...any) {
	msg := fmt.Sprintf(format, v...)
	rec := Record{Time: time.Now(), Level: level, Message: msg}

	s.records = append(s.records, rec)
	s.console.Log(level, msg)

	if s.file != nil {
		fmt.Fprint(s.file, formatRecord(rec))
	}
}

// formatRecord renders one record as a session log file line.
func formatRecord(rec Record) string {
	return fmt.Sprintf("%s %-5s %s\n",
		rec.Time.Format(time.RFC3339), strings.ToUpper(rec.Level.String()), rec.Message)
}

// Flush attaches the session log file at path and replays every buffered
// record into it, in emission order. Subsequent records are written through
// immediately, so calling Flush again is a no-op: at most one file sink is
// ever attached and buffered records are written to the file exactly once.
//
// This is the liveness guarantee of the whole pipeline: it runs on every exit
// path (success, handled failure, unhandled failure, cancellation) so that no
// record is dropped just because the project directory was unknown at startup.
func (s *Session) Flush(path string) error {
	if s.file != nil {
		// Already attached. A different target here would mean the log file
		// path transitioned twice, which the session does not allow.
		if path != s.filePath {
			s.Debug("session log already attached to %s, ignoring flush to %s", s.filePath, path)
		}
		return nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open session log %s: %w", path, err)
	}

	for _, rec := range s.records {
		if _, err := fmt.Fprint(f, formatRecord(rec)); err != nil {
			f.Close()
			return fmt.Errorf("failed to replay session log records: %w", err)
		}
	}

	s.file = f
	s.filePath = path
	return nil
}

// Attached reports whether the session log file sink has been attached.
func (s *Session) Attached() bool {
	return s.file != nil
}

// FilePath returns the attached session log path, or "" before Flush.
func (s *Session) FilePath() string {
	return s.filePath
}

// Records returns the full-detail records captured so far. The returned slice
// is the session's backing store and must not be mutated.
func (s *Session) Records() []Record {
	return s.records
}

// Close releases the session log file handle if one was attached.
func (s *Session) Close() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}
