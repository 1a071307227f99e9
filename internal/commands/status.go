package commands

import (
	"context"
	"io"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/gridhive-dev/gridctl/internal/client"
	"github.com/gridhive-dev/gridctl/internal/command"
	"github.com/gridhive-dev/gridctl/internal/config"
	"github.com/gridhive-dev/gridctl/internal/logging"
)

// statusCommand reports the service-side state of a submitted task.
type statusCommand struct {
	base
	dir string
}

func newStatus(sess *logging.Session, cfg *config.Config, args []string) (command.Command, error) {
	flags := pflag.NewFlagSet("status", pflag.ContinueOnError)
	flags.SetOutput(io.Discard)
	dir := flags.StringP("dir", "d", ".", "Task project directory")

	if err := flags.Parse(args); err != nil {
		return nil, command.NewClientError(exitBadArgs, "invalid status arguments: %v", err)
	}
	if len(flags.Args()) != 0 {
		return nil, command.NewClientError(exitBadArgs, "status takes no positional arguments")
	}

	return &statusCommand{
		base: base{sess: sess, cfg: cfg, logPath: filepath.Join(*dir, "gridctl.log")},
		dir:  *dir,
	}, nil
}

func (c *statusCommand) Execute(ctx context.Context) error {
	ref, err := readTaskRef(c.dir)
	if err != nil {
		return err
	}

	if err := c.establishProxy(); err != nil {
		return err
	}

	api := client.New(c.cfg, c.sess, c.proxy)
	status, err := api.TaskStatus(ctx, ref.Name)
	if err != nil {
		return err
	}

	c.sess.Info("task %s is %s", status.Name, status.State)
	for state, count := range status.JobsByState {
		c.sess.Info("  %-12s %d", state, count)
	}
	if status.Message != "" {
		c.sess.Info("%s", status.Message)
	}

	return nil
}
