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

// killCommand requests termination of a submitted task.
type killCommand struct {
	base
	dir string
}

func newKill(sess *logging.Session, cfg *config.Config, args []string) (command.Command, error) {
	flags := pflag.NewFlagSet("kill", pflag.ContinueOnError)
	flags.SetOutput(io.Discard)
	dir := flags.StringP("dir", "d", ".", "Task project directory")

	if err := flags.Parse(args); err != nil {
		return nil, command.NewClientError(exitBadArgs, "invalid kill arguments: %v", err)
	}
	if len(flags.Args()) != 0 {
		return nil, command.NewClientError(exitBadArgs, "kill takes no positional arguments")
	}

	return &killCommand{
		base: base{sess: sess, cfg: cfg, logPath: filepath.Join(*dir, "gridctl.log")},
		dir:  *dir,
	}, nil
}

func (c *killCommand) Execute(ctx context.Context) error {
	ref, err := readTaskRef(c.dir)
	if err != nil {
		return err
	}

	if err := c.establishProxy(); err != nil {
		return err
	}

	api := client.New(c.cfg, c.sess, c.proxy)
	if err := api.KillTask(ctx, ref.Name); err != nil {
		return err
	}

	c.sess.Info("kill request for task %s accepted", ref.Name)
	return nil
}
