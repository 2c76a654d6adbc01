package command

import (
	"context"
	"errors"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/joeycumines/focus-flow/internal/config"
	"github.com/joeycumines/focus-flow/internal/runloop"
	"github.com/joeycumines/focus-flow/internal/tui"
)

// RunCommand starts the interactive timer view.
type RunCommand struct {
	*BaseCommand
	session   sessionOptions
	theme     string
	mouse     bool
	altScreen bool

	// input is read for keys; nil means os.Stdin.
	input *os.File
}

// NewRunCommand creates a new run command.
func NewRunCommand(cfg *config.Config) *RunCommand {
	return &RunCommand{
		BaseCommand: NewBaseCommand(
			"run",
			"Start the interactive focus timer",
			"run [options]",
		),
		session: sessionOptions{config: cfg},
	}
}

// SetupFlags configures the flags for the run command.
func (c *RunCommand) SetupFlags(fs *flag.FlagSet) {
	schema := config.DefaultSchema()
	c.session.setupFlags(fs)
	mouse, err := schema.ResolveCommandBool(c.session.config, "run", "mouse")
	if err != nil {
		mouse = true
	}
	fs.StringVar(&c.theme, "theme", schema.Resolve(c.session.config, "theme"), "Colour theme: default, mono")
	fs.BoolVar(&c.mouse, "mouse", mouse, "Select tasks by clicking them")
	fs.BoolVar(&c.altScreen, "alt-screen", true, "Use the terminal's alternate screen")
}

// Execute runs the view until the user quits.
func (c *RunCommand) Execute(args []string, stdout, stderr io.Writer) error {
	if err := noArgs(args, stderr); err != nil {
		return err
	}
	input := c.input
	if input == nil {
		input = os.Stdin
	}
	output, ok := stdout.(*os.File)
	if !ok || !term.IsTerminal(int(input.Fd())) || !term.IsTerminal(int(output.Fd())) {
		return errors.New("run needs an interactive terminal; use 'focusflow exec' to run commands from a file or pipe")
	}
	theme, err := tui.ThemeByName(c.theme)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loop, err := runloop.New(ctx)
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

	return tui.Run(ctx, tui.Options{
		Controller: ctrl,
		Do:         loop.Do,
		Logs:       logger.Ring,
		Theme:      theme,
		Mouse:      c.mouse,
		AltScreen:  c.altScreen,
		Input:      input,
		Output:     output,
	})
}
