package command

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/joeycumines/focus-flow/internal/config"
	"github.com/joeycumines/focus-flow/internal/study"
)

// ExecCommand runs interpreter commands from a file or stdin against a
// manual clock, so scripts are deterministic.
type ExecCommand struct {
	*BaseCommand
	session  sessionOptions
	failFast bool
	echo     bool
	stdin    io.Reader
}

// NewExecCommand creates a new exec command.
func NewExecCommand(cfg *config.Config) *ExecCommand {
	return &ExecCommand{
		BaseCommand: NewBaseCommand(
			"exec",
			"Run session commands from a file or stdin, with a manual clock",
			"exec [options] [file|-]",
		),
		session: sessionOptions{config: cfg},
		stdin:   os.Stdin,
	}
}

// SetupFlags configures the flags for the exec command.
func (c *ExecCommand) SetupFlags(fs *flag.FlagSet) {
	c.session.setupFlags(fs)
	failFast, _ := config.DefaultSchema().ResolveCommandBool(c.session.config, "exec", "fail-fast")
	fs.BoolVar(&c.failFast, "fail-fast", failFast, "Stop at the first failing command")
	fs.BoolVar(&c.echo, "echo", false, "Echo each command before its output")
}

// Execute runs the script.
func (c *ExecCommand) Execute(args []string, stdout, stderr io.Writer) error {
	if len(args) > 1 {
		_, _ = fmt.Fprintf(stderr, "unexpected arguments: %v\n", args[1:])
		return fmt.Errorf("unexpected arguments")
	}
	src := c.stdin
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open script: %w", err)
		}
		defer f.Close()
		src = f
	}

	clock := &study.ManualScheduler{}
	ctrl, logger, err := c.session.open(clock)
	if err != nil {
		return err
	}
	defer logger.Close()
	defer ctrl.Close()
	ctrl.Start()

	in := newInterpreter(ctrl, stdout, withManualClock(clock), withLogs(logger.Ring))
	if err := in.watch(); err != nil {
		return err
	}
	defer in.close()

	failures := 0
	scanner := bufio.NewScanner(src)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := scanner.Text()
		if c.echo {
			_, _ = fmt.Fprintf(stdout, "> %s\n", line)
		}
		exit, err := in.Execute(line)
		if err != nil {
			failures++
			_, _ = fmt.Fprintf(stderr, "line %d: %v\n", lineNo, err)
			if c.failFast {
				return fmt.Errorf("line %d: %w", lineNo, err)
			}
		}
		if exit {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading script: %w", err)
	}
	if failures > 0 {
		return fmt.Errorf("%d command(s) failed", failures)
	}
	return nil
}
