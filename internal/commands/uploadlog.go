package commands

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/gridhive-dev/gridctl/internal/command"
	"github.com/gridhive-dev/gridctl/internal/config"
	"github.com/gridhive-dev/gridctl/internal/logging"
	"github.com/gridhive-dev/gridctl/internal/upload"
)

// uploadFunc matches upload.Log; swapped out in tests.
type uploadFunc func(ctx context.Context, sess *logging.Session, proxyFile, logFile, instance string) (string, error)

// uploadLogCommand pushes an existing session log to the artifact cache on
// demand, for attaching to support requests without waiting for a failure.
type uploadLogCommand struct {
	base
	dir      string
	uploadFn uploadFunc
}

func newUploadLog(sess *logging.Session, cfg *config.Config, args []string) (command.Command, error) {
	flags := pflag.NewFlagSet("uploadlog", pflag.ContinueOnError)
	flags.SetOutput(io.Discard)
	dir := flags.StringP("dir", "d", ".", "Task project directory")

	if err := flags.Parse(args); err != nil {
		return nil, command.NewClientError(exitBadArgs, "invalid uploadlog arguments: %v", err)
	}
	if len(flags.Args()) != 0 {
		return nil, command.NewClientError(exitBadArgs, "uploadlog takes no positional arguments")
	}

	return &uploadLogCommand{
		base:     base{sess: sess, cfg: cfg, logPath: filepath.Join(*dir, "gridctl.log")},
		dir:      *dir,
		uploadFn: upload.Log,
	}, nil
}

func (c *uploadLogCommand) Execute(ctx context.Context) error {
	if _, err := os.Stat(c.logPath); err != nil {
		return command.NewClientError(exitBadProject, "no session log found at %s", c.logPath)
	}

	if err := c.establishProxy(); err != nil {
		return err
	}

	// Fold this session's records into the file before shipping it; the
	// dispatcher's later flush becomes a no-op.
	if err := c.sess.Flush(c.logPath); err != nil {
		return command.NewClientError(exitUploadFail, "cannot update session log %s: %v", c.logPath, err)
	}

	url, err := c.uploadFn(ctx, c.sess, c.proxy, c.logPath, c.cfg.Instance)
	if err != nil {
		return command.NewClientError(exitUploadFail, "failed to upload session log: %v", err)
	}

	c.sess.Info("session log available at %s", url)
	return nil
}
