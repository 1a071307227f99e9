package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/gridhive-dev/gridctl/internal/client"
	"github.com/gridhive-dev/gridctl/internal/command"
	"github.com/gridhive-dev/gridctl/internal/config"
	"github.com/gridhive-dev/gridctl/internal/logging"
	"github.com/gridhive-dev/gridctl/internal/validate"
)

// submitCommand submits a new task from a YAML task file. Submission creates
// the project directory named after the task, which in turn fixes where the
// session log lands.
type submitCommand struct {
	base
	taskFile string
	dryRun   bool
}

func newSubmit(sess *logging.Session, cfg *config.Config, args []string) (command.Command, error) {
	flags := pflag.NewFlagSet("submit", pflag.ContinueOnError)
	flags.SetOutput(io.Discard)
	dryRun := flags.Bool("dry-run", false, "Validate the task and stop before submission")

	if err := flags.Parse(args); err != nil {
		return nil, command.NewClientError(exitBadArgs, "invalid submit arguments: %v", err)
	}
	rest := flags.Args()
	if len(rest) != 1 {
		return nil, command.NewClientError(exitBadArgs, "submit expects exactly one task file, got %d arguments", len(rest))
	}

	return &submitCommand{
		base:     base{sess: sess, cfg: cfg},
		taskFile: rest[0],
		dryRun:   *dryRun,
	}, nil
}

func (c *submitCommand) Execute(ctx context.Context) error {
	data, err := os.ReadFile(c.taskFile)
	if err != nil {
		return command.NewClientError(exitBadTaskFile, "cannot read task file %s: %v", c.taskFile, err)
	}

	var spec client.TaskSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return command.NewClientError(exitBadTaskFile, "malformed task file %s: %v", c.taskFile, err)
	}
	if err := validate.TaskNameFormat(spec.Name); err != nil {
		return command.NewClientError(exitBadTaskFile, "invalid task file %s: %v", c.taskFile, err)
	}

	projectDir := fmt.Sprintf("gridhive_%s", spec.Name)
	if err := os.Mkdir(projectDir, 0o755); err != nil {
		if os.IsExist(err) {
			return command.NewClientError(exitBadProject,
				"project directory %s already exists; remove it or rename the task", projectDir)
		}
		return command.NewClientError(exitBadProject, "cannot create project directory %s: %v", projectDir, err)
	}

	// From here on the session log belongs in the project directory.
	c.logPath = filepath.Join(projectDir, "gridctl.log")
	c.sess.Info("created project directory %s", projectDir)

	if c.dryRun {
		c.sess.Info("dry run requested, stopping before submission")
		return command.ErrStopExecution
	}

	if err := c.establishProxy(); err != nil {
		return err
	}

	api := client.New(c.cfg, c.sess, c.proxy)
	ref, err := api.SubmitTask(ctx, &spec)
	if err != nil {
		return err
	}

	if err := writeTaskRef(projectDir, ref); err != nil {
		// The task is already on the service side; losing the local
		// reference is worth a warning but not a failed submission.
		c.sess.Warn("task submitted but local reference not saved: %v", err)
	}

	c.sess.Info("task %s submitted, request id %s", ref.Name, ref.RequestID)
	return nil
}
