// Package dispatch implements the gridctl front controller.
//
// The dispatcher owns the complete life of one CLI invocation: it parses the
// global options, initializes the logging session, resolves the requested
// sub-command through the registry, constructs and executes it, hands the
// outcome to the failure translator, guarantees the session log flush on
// every exit path, and finally invokes the command's Terminate hook with the
// computed exit code.
//
// DISPATCH FLOW:
//  1. Parse global options and the sub-command token
//  2. Initialize the LogSession and set console verbosity
//  3. Arm the last-resort uncaught-failure hook
//  4. Resolve the token via the command registry (usage exit -1 on miss)
//  5. Construct and execute the command under signal-aware context
//  6. Classify the outcome and report it (log, flush, optional upload)
//  7. Call Terminate with the final verdict and return the exit code
//
// Failure translation happens through an ordinary function call wrapping
// command execution; the process-wide hook is only a safety net for panics
// that escape the regular path, armed once before any command runs so even
// construction-time failures are captured.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/gridhive-dev/gridctl/internal/command"
	"github.com/gridhive-dev/gridctl/internal/commands"
	"github.com/gridhive-dev/gridctl/internal/config"
	"github.com/gridhive-dev/gridctl/internal/failure"
	"github.com/gridhive-dev/gridctl/internal/logging"
	"github.com/gridhive-dev/gridctl/internal/registry"
	"github.com/gridhive-dev/gridctl/internal/upload"
	"github.com/gridhive-dev/gridctl/internal/version"
)

// defaultLogPath receives the session log when the executed command never
// resolved a project directory.
const defaultLogPath = "gridctl.log"

// exitCodeConfig is the declared client-error code for an unusable
// configuration, detected before any command is constructed.
const exitCodeConfig = 2

// Dispatcher is the front controller. The zero value is not usable; Run
// builds one wired to the real command set and upload pipeline, tests
// inject their own.
type Dispatcher struct {
	Out      io.Writer              // console destination (usage text and session logger)
	Commands []*registry.Descriptor // installable sub-commands
	Upload   failure.UploadFunc     // session log uploader, nil disables uploads
}

// Run dispatches one CLI invocation with the production wiring and returns
// the process exit code.
func Run(argv []string) int {
	d := &Dispatcher{
		Out:      os.Stderr,
		Commands: commands.Discover(),
		Upload:   upload.Log,
	}
	return d.Run(argv)
}

// globalOptions holds the parsed global CLI flags.
type globalOptions struct {
	Quiet      bool
	Debug      bool
	Version    bool
	Instance   string
	Proxy      string
	ConfigFile string
}

// newGlobalFlagSet builds the global flag set. Interspersed parsing is off
// so the first positional argument is the sub-command token and everything
// after it belongs to the command.
func newGlobalFlagSet() (*pflag.FlagSet, *globalOptions) {
	opts := &globalOptions{}
	flags := pflag.NewFlagSet("gridctl", pflag.ContinueOnError)
	flags.SetInterspersed(false)
	flags.SetOutput(io.Discard)

	flags.BoolVar(&opts.Quiet, "quiet", false, "Show warnings and errors only")
	flags.BoolVar(&opts.Debug, "debug", false, "Show debug output")
	flags.StringVar(&opts.Instance, "instance", "", "Task service endpoint (host:port)")
	flags.StringVar(&opts.Proxy, "proxy", "", "Path to an existing proxy credential")
	flags.StringVar(&opts.ConfigFile, "config", "", "Path to the configuration file")
	flags.BoolVar(&opts.Version, "version", false, "Print the gridctl version and exit")

	return flags, opts
}

// Run dispatches one CLI invocation and returns the process exit code.
func (d *Dispatcher) Run(argv []string) (code int) {
	sess := logging.NewSession(d.Out)
	defer sess.Close()

	logPath := defaultLogPath
	proxyFile := ""
	instance := ""

	// Last-resort uncaught-failure hook, armed before anything else runs: a
	// panic escaping the regular translation path still gets logged, flushed
	// to the session log, and mapped to the fallback exit code.
	defer func() {
		if r := recover(); r != nil {
			d.reportLastResort(sess, r, &code, proxyFile, logPath, instance)
		}
	}()

	flags, opts := newGlobalFlagSet()
	if err := flags.Parse(argv); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			d.printUsage(flags, d.index())
			return failure.ExitOK
		}
		fmt.Fprintln(d.Out, err)
		d.printUsage(flags, d.index())
		return failure.ExitUsage
	}
	if opts.Quiet && opts.Debug {
		fmt.Fprintln(d.Out, "--quiet and --debug are mutually exclusive")
		return failure.ExitUsage
	}

	sess.SetConsoleLevel(opts.Quiet, opts.Debug)

	if opts.Version {
		fmt.Fprintf(d.Out, "gridctl %s\n", version.Version)
		return failure.ExitOK
	}

	index, err := registry.Discover(d.Commands)
	if err != nil {
		// A duplicate name or alias is a build configuration defect, not a
		// user mistake.
		sess.Error("broken command registry: %v", err)
		return failure.ExitFailure
	}

	rest := flags.Args()
	if len(rest) == 0 {
		d.printUsage(flags, index)
		return failure.ExitUsage
	}

	desc, ok := registry.Resolve(index, rest[0])
	if !ok {
		sess.Error("'%s' is not a valid command", rest[0])
		d.printUsage(flags, index)
		return failure.ExitUsage
	}

	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		cls := failure.Classify(command.NewClientError(exitCodeConfig, "invalid configuration: %v", err))
		failure.Report(context.Background(), sess, cls, "", logPath, "", nil)
		return cls.ExitCode
	}

	// Global flags override the file and environment layers.
	if opts.Instance != "" {
		cfg.Instance = opts.Instance
		if err := cfg.Validate(); err != nil {
			fmt.Fprintln(d.Out, err)
			return failure.ExitUsage
		}
	}
	if opts.Proxy != "" {
		cfg.Proxy = opts.Proxy
	}
	instance = cfg.Instance

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cmd command.Command
	outcome := d.execute(ctx, desc, sess, cfg, rest[1:], &cmd)

	cls := failure.Classify(outcome)

	if cmd != nil {
		if p := cmd.LogPath(); p != "" {
			logPath = p
		}
		proxyFile = cmd.ProxyFile()
	}

	// Reporting runs on a fresh context: a cancelled run must not prevent
	// the session log from being written.
	failure.Report(context.Background(), sess, cls, proxyFile, logPath, instance, d.Upload)

	if cmd != nil {
		cmd.Terminate(cls.ExitCode)
	}

	return cls.ExitCode
}

// execute constructs and runs the command, converting a panic on either step
// into a PanicError for classification. The constructed instance is handed
// back through out even when execution fails, so the outer layers can read
// its proxy and session log locations.
func (d *Dispatcher) execute(ctx context.Context, desc *registry.Descriptor, sess *logging.Session,
	cfg *config.Config, args []string, out *command.Command) (err error) {

	defer func() {
		if r := recover(); r != nil {
			err = &failure.PanicError{Value: r, Stack: debug.Stack()}
		}
	}()

	cmd, err := desc.New(sess, cfg, args)
	if err != nil {
		return err
	}
	*out = cmd

	sess.Debug("executing command %s", desc.Name)
	return cmd.Execute(ctx)
}

// reportLastResort handles a panic that escaped the regular translation
// path. It reuses the ordinary classification and reporting pipeline,
// preserves an exit code that was already computed, and never raises: a
// secondary failure during reporting is swallowed with a console note so
// the hook cannot crash the process it is protecting.
func (d *Dispatcher) reportLastResort(sess *logging.Session, recovered any, code *int,
	proxyFile, logPath, instance string) {

	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(d.Out, "failure while reporting an unhandled error: %v\n", r)
			fmt.Fprintf(d.Out, "please attach %s manually when reporting this problem\n", logPath)
		}
	}()

	cls := failure.Classify(&failure.PanicError{Value: recovered, Stack: debug.Stack()})
	failure.Report(context.Background(), sess, cls, proxyFile, logPath, instance, d.Upload)

	if *code == 0 {
		*code = cls.ExitCode
	}
}

// index builds the registry index for usage text, tolerating a broken
// registry (usage is printed on error paths where a second failure would
// only obscure the first).
func (d *Dispatcher) index() registry.Index {
	index, err := registry.Discover(d.Commands)
	if err != nil {
		return nil
	}
	return index
}

// printUsage prints the usage banner, the command list, and the global
// options to the console writer.
func (d *Dispatcher) printUsage(flags *pflag.FlagSet, index registry.Index) {
	fmt.Fprintf(d.Out, "Usage: gridctl [global options] <command> [arguments]\n")

	if index != nil {
		fmt.Fprintf(d.Out, "\nCommands:\n")
		for _, name := range registry.Names(index) {
			desc, _ := registry.Resolve(index, name)
			label := name
			if len(desc.Aliases) > 0 {
				label = fmt.Sprintf("%s (%s)", name, strings.Join(desc.Aliases, ", "))
			}
			fmt.Fprintf(d.Out, "  %-16s %s\n", label, desc.Summary)
		}
	}

	fmt.Fprintf(d.Out, "\nGlobal options:\n%s", flags.FlagUsages())
}
