package command

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joeycumines/go-prompt"
	istrings "github.com/joeycumines/go-prompt/strings"
	"golang.org/x/term"

	"github.com/joeycumines/focus-flow/internal/config"
	"github.com/joeycumines/focus-flow/internal/runloop"
)

// promptRunner runs a prompt until its exit checker fires.
type promptRunner func(executor prompt.Executor, opts ...prompt.Option)

// ShellCommand is an interactive prompt over the line interpreter, with the
// countdown running in real time.
type ShellCommand struct {
	*BaseCommand
	session sessionOptions
	prefix  string

	// runPrompt replaces the terminal on stdin when set.
	runPrompt promptRunner
}

// NewShellCommand creates a new shell command.
func NewShellCommand(cfg *config.Config) *ShellCommand {
	return &ShellCommand{
		BaseCommand: NewBaseCommand(
			"shell",
			"Interactive command prompt with completion",
			"shell [options]",
		),
		session: sessionOptions{config: cfg},
	}
}

// SetupFlags configures the flags for the shell command.
func (c *ShellCommand) SetupFlags(fs *flag.FlagSet) {
	c.session.setupFlags(fs)
	fs.StringVar(&c.prefix, "prompt", config.DefaultSchema().ResolveCommand(c.session.config, "shell", "prompt"), "Prompt prefix")
}

// Execute runs the prompt until exit.
func (c *ShellCommand) Execute(args []string, stdout, stderr io.Writer) error {
	if err := noArgs(args, stderr); err != nil {
		return err
	}
	run := c.runPrompt
	if run == nil {
		fd := int(os.Stdin.Fd())
		if !term.IsTerminal(fd) {
			return errors.New("shell needs an interactive terminal; use 'focusflow exec' to run commands from a file or pipe")
		}
		// go-prompt leaves the terminal in raw mode on some exit paths.
		if state, err := term.GetState(fd); err == nil {
			defer func() { _ = term.Restore(fd, state) }()
		}
		run = func(executor prompt.Executor, opts ...prompt.Option) {
			prompt.New(executor, opts...).Run()
		}
	}

	loop, err := runloop.New(context.Background())
	if err != nil {
		return err
	}
	defer loop.Close()

	ctrl, logger, err := c.session.open(loop)
	if err != nil {
		return err
	}
	defer logger.Close()
	defer func() {
		_ = loop.Do(func() error {
			ctrl.Close()
			return nil
		})
	}()
	if err := loop.Do(func() error {
		ctrl.Start()
		return nil
	}); err != nil {
		return err
	}

	in := newInterpreter(ctrl, stdout, withDo(loop.Do), withLogs(logger.Ring))
	if err := in.watch(); err != nil {
		return err
	}
	defer in.close()

	_, _ = fmt.Fprintln(stdout, "focusflow shell. Type 'help' for commands, 'exit' to quit.")

	prefix := c.prefix
	if !strings.HasSuffix(prefix, " ") {
		prefix += " "
	}
	var exited bool
	executor := func(line string) {
		exit, err := in.Execute(line)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		exited = exit
	}
	completer := func(document prompt.Document) ([]prompt.Suggest, istrings.RuneNumber, istrings.RuneNumber) {
		found, start, end := in.suggest(document.TextBeforeCursor())
		suggestions := make([]prompt.Suggest, len(found))
		for i, s := range found {
			suggestions[i] = prompt.Suggest{Text: s.Text, Description: s.Description}
		}
		return suggestions, istrings.RuneNumber(start), istrings.RuneNumber(end)
	}

	run(
		executor,
		prompt.WithPrefix(prefix),
		prompt.WithCompleter(completer),
		prompt.WithExitChecker(func(_ string, breakline bool) bool {
			return breakline && exited
		}),
	)
	return nil
}
