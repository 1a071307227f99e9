package dispatch

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gridhive-dev/gridctl/internal/client"
	"github.com/gridhive-dev/gridctl/internal/command"
	"github.com/gridhive-dev/gridctl/internal/config"
	"github.com/gridhive-dev/gridctl/internal/logging"
	"github.com/gridhive-dev/gridctl/internal/registry"
	"github.com/gridhive-dev/gridctl/internal/version"
)

// fakeCommand is a scriptable command plug-in for exercising the dispatcher.
type fakeCommand struct {
	execErr    error
	panicWith  any
	proxy      string
	logPath    string
	executed   bool
	terminated []int
}

func (c *fakeCommand) Execute(ctx context.Context) error {
	c.executed = true
	if c.panicWith != nil {
		panic(c.panicWith)
	}
	return c.execErr
}

func (c *fakeCommand) Terminate(exitCode int) { c.terminated = append(c.terminated, exitCode) }
func (c *fakeCommand) ProxyFile() string      { return c.proxy }
func (c *fakeCommand) LogPath() string        { return c.logPath }

// newTestDispatcher wires a dispatcher around one fake command registered as
// "run" (alias "r"), isolated from the user's real configuration and cwd.
func newTestDispatcher(t *testing.T, fake *fakeCommand) (*Dispatcher, *bytes.Buffer) {
	t.Helper()
	chdir(t, t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	out := &bytes.Buffer{}
	d := &Dispatcher{
		Out: out,
		Commands: []*registry.Descriptor{
			{
				Name:    "run",
				Aliases: []string{"r"},
				Summary: "Run the fake command",
				New: func(sess *logging.Session, cfg *config.Config, args []string) (command.Command, error) {
					return fake, nil
				},
			},
		},
	}
	return d, out
}

// TestRunNoCommand tests that a bare invocation prints usage, exits with the
// usage code, and never constructs or terminates a command
func TestRunNoCommand(t *testing.T) {
	fake := &fakeCommand{}
	d, out := newTestDispatcher(t, fake)

	if code := d.Run(nil); code != -1 {
		t.Errorf("Run() = %d, want -1", code)
	}
	if !strings.Contains(out.String(), "Usage: gridctl") {
		t.Error("usage text not printed")
	}
	if fake.executed {
		t.Error("command executed without a token")
	}
	if len(fake.terminated) != 0 {
		t.Error("Terminate called for a command that was never constructed")
	}
}

// TestRunUnknownCommand tests the unknown-token usage path
func TestRunUnknownCommand(t *testing.T) {
	fake := &fakeCommand{}
	d, out := newTestDispatcher(t, fake)

	if code := d.Run([]string{"frobnicate"}); code != -1 {
		t.Errorf("Run() = %d, want -1", code)
	}
	if !strings.Contains(out.String(), "'frobnicate' is not a valid command") {
		t.Errorf("missing unknown-command message, got %q", out.String())
	}
	if !strings.Contains(out.String(), "Usage: gridctl") {
		t.Error("usage text not printed after unknown command")
	}
}

// TestRunHelpFlag tests that --help prints usage and exits cleanly
func TestRunHelpFlag(t *testing.T) {
	d, out := newTestDispatcher(t, &fakeCommand{})

	if code := d.Run([]string{"--help"}); code != 0 {
		t.Errorf("Run() = %d, want 0", code)
	}
	if !strings.Contains(out.String(), "run (r)") {
		t.Errorf("command list missing from help, got %q", out.String())
	}
}

// TestRunVersionFlag tests the --version short circuit
func TestRunVersionFlag(t *testing.T) {
	d, out := newTestDispatcher(t, &fakeCommand{})

	if code := d.Run([]string{"--version"}); code != 0 {
		t.Errorf("Run() = %d, want 0", code)
	}
	if !strings.Contains(out.String(), version.Version) {
		t.Errorf("version banner missing, got %q", out.String())
	}
}

// TestRunQuietDebugConflict tests that the verbosity flags are mutually exclusive
func TestRunQuietDebugConflict(t *testing.T) {
	d, _ := newTestDispatcher(t, &fakeCommand{})

	if code := d.Run([]string{"--quiet", "--debug", "run"}); code != -1 {
		t.Errorf("Run() = %d, want -1", code)
	}
}

// TestRunSuccess tests the happy path: exit 0, Terminate(0), and the session
// log flushed to the command's resolved location
func TestRunSuccess(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "project", "gridctl.log")
	fake := &fakeCommand{logPath: logPath}
	d, _ := newTestDispatcher(t, fake)

	if code := d.Run([]string{"run"}); code != 0 {
		t.Errorf("Run() = %d, want 0", code)
	}
	if !fake.executed {
		t.Error("command not executed")
	}
	if len(fake.terminated) != 1 || fake.terminated[0] != 0 {
		t.Errorf("Terminate calls = %v, want [0]", fake.terminated)
	}
	if _, err := os.Stat(logPath); err != nil {
		t.Errorf("session log not flushed to %s: %v", logPath, err)
	}
}

// TestRunAliasResolves tests dispatch through a command alias
func TestRunAliasResolves(t *testing.T) {
	fake := &fakeCommand{}
	d, _ := newTestDispatcher(t, fake)

	if code := d.Run([]string{"r"}); code != 0 {
		t.Errorf("Run() = %d, want 0", code)
	}
	if !fake.executed {
		t.Error("alias did not reach the command")
	}
}

// TestRunClientErrorCode tests that a declared client exit code propagates
func TestRunClientErrorCode(t *testing.T) {
	fake := &fakeCommand{execErr: command.NewClientError(42, "task file unreadable")}
	d, _ := newTestDispatcher(t, fake)

	if code := d.Run([]string{"run"}); code != 42 {
		t.Errorf("Run() = %d, want 42", code)
	}
	if len(fake.terminated) != 1 || fake.terminated[0] != 42 {
		t.Errorf("Terminate calls = %v, want [42]", fake.terminated)
	}
}

// TestRunControlledStop tests that a deliberate stop exits successfully
func TestRunControlledStop(t *testing.T) {
	fake := &fakeCommand{execErr: command.ErrStopExecution}
	d, _ := newTestDispatcher(t, fake)

	if code := d.Run([]string{"run"}); code != 0 {
		t.Errorf("Run() = %d, want 0", code)
	}
}

// TestRunServiceErrorStatus tests that the remote status becomes the exit code
func TestRunServiceErrorStatus(t *testing.T) {
	fake := &fakeCommand{execErr: &client.ServiceError{Status: 403, Reason: "not authorized"}}
	d, _ := newTestDispatcher(t, fake)

	if code := d.Run([]string{"run"}); code != 403 {
		t.Errorf("Run() = %d, want 403", code)
	}
}

// TestRunPanicRecovered tests that a panicking command is translated instead
// of crashing the process, with Terminate still observing the final code
func TestRunPanicRecovered(t *testing.T) {
	fake := &fakeCommand{panicWith: "wedged"}
	d, out := newTestDispatcher(t, fake)

	if code := d.Run([]string{"run"}); code != 1 {
		t.Errorf("Run() = %d, want 1", code)
	}
	if !strings.Contains(out.String(), "unhandled failure: wedged") {
		t.Errorf("panic summary missing, got %q", out.String())
	}
	if len(fake.terminated) != 1 || fake.terminated[0] != 1 {
		t.Errorf("Terminate calls = %v, want [1]", fake.terminated)
	}
}

// TestRunFactoryError tests a construction-time failure: the declared code
// propagates and Terminate is never called since no instance exists
func TestRunFactoryError(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	d := &Dispatcher{
		Out: &bytes.Buffer{},
		Commands: []*registry.Descriptor{
			{
				Name:    "broken",
				Summary: "Never constructs",
				New: func(sess *logging.Session, cfg *config.Config, args []string) (command.Command, error) {
					return nil, command.NewClientError(7, "bad arguments")
				},
			},
		},
	}

	if code := d.Run([]string{"broken"}); code != 7 {
		t.Errorf("Run() = %d, want 7", code)
	}
}

// TestRunUploadSkippedWithoutProxy tests that no upload is attempted when the
// command never established a proxy credential
func TestRunUploadSkippedWithoutProxy(t *testing.T) {
	fake := &fakeCommand{execErr: &client.ServiceError{Status: 500, Reason: "boom"}}
	d, _ := newTestDispatcher(t, fake)

	uploads := 0
	d.Upload = func(ctx context.Context, sess *logging.Session, proxyFile, logFile, instance string) (string, error) {
		uploads++
		return "", nil
	}

	if code := d.Run([]string{"run"}); code != 500 {
		t.Errorf("Run() = %d, want 500", code)
	}
	if uploads != 0 {
		t.Errorf("upload attempted %d times without a proxy", uploads)
	}
}

// TestRunUploadWithProxy tests that a failure with a known proxy uploads the
// flushed session log
func TestRunUploadWithProxy(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "gridctl.log")
	fake := &fakeCommand{
		execErr: &client.ServiceError{Status: 500, Reason: "boom"},
		proxy:   filepath.Join(dir, "proxy.pem"),
		logPath: logPath,
	}
	d, _ := newTestDispatcher(t, fake)

	var gotProxy, gotLog string
	d.Upload = func(ctx context.Context, sess *logging.Session, proxyFile, logFile, instance string) (string, error) {
		gotProxy, gotLog = proxyFile, logFile
		return "https://cache.gridhive.dev/logs/gridctl-test.log", nil
	}

	if code := d.Run([]string{"run"}); code != 500 {
		t.Errorf("Run() = %d, want 500", code)
	}
	if gotProxy != fake.proxy {
		t.Errorf("upload proxy = %q, want %q", gotProxy, fake.proxy)
	}
	if gotLog != logPath {
		t.Errorf("uploaded log = %q, want %q", gotLog, logPath)
	}
}

// chdir switches to dir for the duration of the test, restoring the previous
// working directory on cleanup.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(old) })
}
