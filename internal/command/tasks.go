package command

import (
	"flag"
	"io"

	"github.com/joeycumines/focus-flow/internal/config"
	"github.com/joeycumines/focus-flow/internal/study"
)

// TasksCommand lists the tasks a new session starts with.
type TasksCommand struct {
	*BaseCommand
	session sessionOptions
}

// NewTasksCommand creates a new tasks command.
func NewTasksCommand(cfg *config.Config) *TasksCommand {
	return &TasksCommand{
		BaseCommand: NewBaseCommand(
			"tasks",
			"List the configured tasks",
			"tasks",
		),
		session: sessionOptions{config: cfg},
	}
}

// SetupFlags configures the flags for the tasks command.
func (c *TasksCommand) SetupFlags(fs *flag.FlagSet) {
	c.session.setupFlags(fs)
}

// Execute prints the task table.
func (c *TasksCommand) Execute(args []string, stdout, stderr io.Writer) error {
	if err := noArgs(args, stderr); err != nil {
		return err
	}
	ctrl, logger, err := c.session.open(&study.ManualScheduler{})
	if err != nil {
		return err
	}
	defer logger.Close()
	defer ctrl.Close()
	return writeTasks(stdout, ctrl.Snapshot())
}
