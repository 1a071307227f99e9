package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestConsoleLevels tests that console verbosity filters terminal output
func TestConsoleLevels(t *testing.T) {
	tests := []struct {
		name         string
		quiet        bool
		debug        bool
		logFunc      func(s *Session)
		shouldOutput bool
	}{
		{
			name: "info visible at default level",
			logFunc: func(s *Session) {
				s.Info("info message")
			},
			shouldOutput: true,
		},
		{
			name: "debug hidden at default level",
			logFunc: func(s *Session) {
				s.Debug("debug message")
			},
			shouldOutput: false,
		},
		{
			name:  "info hidden when quiet",
			quiet: true,
			logFunc: func(s *Session) {
				s.Info("info message")
			},
			shouldOutput: false,
		},
		{
			name:  "warn visible when quiet",
			quiet: true,
			logFunc: func(s *Session) {
				s.Warn("warn message")
			},
			shouldOutput: true,
		},
		{
			name:  "debug visible when debug",
			debug: true,
			logFunc: func(s *Session) {
				s.Debug("debug message")
			},
			shouldOutput: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			sess := NewSession(&buf)
			sess.SetConsoleLevel(tt.quiet, tt.debug)

			tt.logFunc(sess)

			output := strings.TrimSpace(buf.String())
			if tt.shouldOutput && output == "" {
				t.Error("expected console output but got none")
			}
			if !tt.shouldOutput && output != "" {
				t.Errorf("expected no console output but got: %s", output)
			}
		})
	}
}

// TestBufferCapturesAllLevels tests that the memory buffer receives full
// detail even when the console is quiet
func TestBufferCapturesAllLevels(t *testing.T) {
	var buf bytes.Buffer
	sess := NewSession(&buf)
	sess.SetConsoleLevel(true, false) // quiet

	sess.Debug("debug detail")
	sess.Info("progress note")
	sess.Warn("something odd")
	sess.Error("something failed")

	records := sess.Records()
	if len(records) != 4 {
		t.Fatalf("expected 4 buffered records, got %d", len(records))
	}

	want := []string{"debug detail", "progress note", "something odd", "something failed"}
	for i, rec := range records {
		if rec.Message != want[i] {
			t.Errorf("record %d = %q, want %q", i, rec.Message, want[i])
		}
	}
}

// TestFlushReplaysBufferedRecords tests the no-record-loss property: records
// emitted before the file path was known end up in the file
func TestFlushReplaysBufferedRecords(t *testing.T) {
	var buf bytes.Buffer
	sess := NewSession(&buf)
	sess.SetConsoleLevel(true, false)

	sess.Debug("before flush one")
	sess.Info("before flush two")

	path := filepath.Join(t.TempDir(), "gridctl.log")
	if err := sess.Flush(path); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	defer sess.Close()

	sess.Info("after flush")

	content := readLog(t, path)
	for _, want := range []string{"before flush one", "before flush two", "after flush"} {
		if !strings.Contains(content, want) {
			t.Errorf("session log missing %q:\n%s", want, content)
		}
	}

	// Order preserved
	if strings.Index(content, "before flush one") > strings.Index(content, "before flush two") {
		t.Error("buffered records replayed out of order")
	}
}

// TestFlushIdempotent tests that a second flush attaches no second sink and
// duplicates no buffered records
func TestFlushIdempotent(t *testing.T) {
	var buf bytes.Buffer
	sess := NewSession(&buf)

	sess.Info("only once")

	path := filepath.Join(t.TempDir(), "gridctl.log")
	if err := sess.Flush(path); err != nil {
		t.Fatalf("first Flush failed: %v", err)
	}
	if err := sess.Flush(path); err != nil {
		t.Fatalf("second Flush failed: %v", err)
	}
	defer sess.Close()

	content := readLog(t, path)
	if got := strings.Count(content, "only once"); got != 1 {
		t.Errorf("record written %d times, want 1:\n%s", got, content)
	}
}

// TestFlushSecondPathIgnored tests that the log file path transitions once
func TestFlushSecondPathIgnored(t *testing.T) {
	var buf bytes.Buffer
	sess := NewSession(&buf)

	dir := t.TempDir()
	first := filepath.Join(dir, "first.log")
	second := filepath.Join(dir, "second.log")

	if err := sess.Flush(first); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	defer sess.Close()

	if err := sess.Flush(second); err != nil {
		t.Fatalf("Flush to second path returned error: %v", err)
	}
	if sess.FilePath() != first {
		t.Errorf("FilePath() = %q, want %q", sess.FilePath(), first)
	}
	if _, err := os.Stat(second); !os.IsNotExist(err) {
		t.Error("second log file was created, want none")
	}
}

// TestFlushCreatesParentDirectory tests flushing into a not-yet-existing
// project directory
func TestFlushCreatesParentDirectory(t *testing.T) {
	var buf bytes.Buffer
	sess := NewSession(&buf)
	sess.Info("record")

	path := filepath.Join(t.TempDir(), "project", "gridctl.log")
	if err := sess.Flush(path); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	defer sess.Close()

	if !strings.Contains(readLog(t, path), "record") {
		t.Error("record not written to created directory")
	}
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read session log: %v", err)
	}
	return string(content)
}
