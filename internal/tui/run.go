package tui

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/joeycumines/focus-flow/internal/logging"
	"github.com/joeycumines/focus-flow/internal/study"
)

// Options configures Run.
type Options struct {
	Controller *study.Controller
	// Do runs a function on the controller's thread and waits for it.
	Do func(func() error) error
	// Logs, when set, feeds the log pane.
	Logs  *logging.RingHandler
	Theme Theme
	// Mouse enables clicking tasks to select them.
	Mouse     bool
	AltScreen bool
	Input     io.Reader
	Output    io.Writer
}

// Run shows the view until the user quits or ctx is done.
func Run(ctx context.Context, opts Options) error {
	if opts.Controller == nil || opts.Do == nil {
		return fmt.Errorf("tui: controller and do are required")
	}
	model := newModel(opts)
	if model.zones != nil {
		defer model.zones.Close()
	}

	var progOpts []tea.ProgramOption
	if opts.AltScreen {
		progOpts = append(progOpts, tea.WithAltScreen())
	}
	if opts.Mouse {
		progOpts = append(progOpts, tea.WithMouseCellMotion())
	}
	if opts.Input != nil {
		progOpts = append(progOpts, tea.WithInput(opts.Input))
	}
	if opts.Output != nil {
		progOpts = append(progOpts, tea.WithOutput(opts.Output))
	}
	p := tea.NewProgram(model, progOpts...)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	// Send blocks until the program is reading, which would stall the
	// controller's thread if the subscription were made before Run.
	var unsubscribe func()
	subscribed := make(chan struct{})
	go func() {
		defer close(subscribed)
		_ = opts.Do(func() error {
			unsubscribe = opts.Controller.Subscribe(func(s study.Snapshot) {
				p.Send(snapshotMsg(s))
			})
			return nil
		})
	}()

	_, err := p.Run()
	cancel()
	<-subscribed
	if unsubscribe != nil {
		_ = opts.Do(func() error {
			unsubscribe()
			return nil
		})
	}
	if err != nil {
		return fmt.Errorf("failed to run program: %w", err)
	}
	return nil
}
