package command

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joeycumines/focus-flow/internal/logging"
	"github.com/joeycumines/focus-flow/internal/study"
)

// lineCommand is one command of the line interpreter.
type lineCommand struct {
	name string
	args string
	help string
	run  func(in *Interpreter, args []string) error
}

// lineCommands is the grammar shared by shell and exec. help and exit are
// handled by the interpreter itself.
var lineCommands = []lineCommand{
	{name: "tasks", help: "List tasks", run: (*Interpreter).tasks},
	{name: "status", help: "Show the session state", run: (*Interpreter).status},
	{name: "stats", help: "Show analytics", run: (*Interpreter).stats},
	{name: "select", args: "ID", help: "Select a task for the next session", run: (*Interpreter).selectTask},
	{name: "cancel", help: "Drop the selected task", run: (*Interpreter).cancel},
	{name: "start", args: "[MINUTES]", help: "Start the selected task", run: (*Interpreter).start},
	{name: "pause", help: "Pause or resume the session", run: (*Interpreter).pause},
	{name: "skip", help: "Abandon the session", run: (*Interpreter).skip},
	{name: "complete", help: "Finish the session now", run: (*Interpreter).complete},
	{name: "rate", args: "[N [NOTES...]]", help: "Rate the finished session", run: (*Interpreter).rate},
	{name: "norate", help: "Close the rating prompt without rating", run: (*Interpreter).norate},
	{name: "add", args: "NAME SUBJECT DIFFICULTY MINUTES [TIP]", help: "Add a task", run: (*Interpreter).add},
	{name: "edit", args: "ID NAME SUBJECT DIFFICULTY MINUTES [TIP]", help: "Replace a task's fields", run: (*Interpreter).edit},
	{name: "delete", args: "ID", help: "Delete a task", run: (*Interpreter).deleteTask},
	{name: "reset", help: "Reset every task and clear the session history", run: (*Interpreter).reset},
	{name: "tick", args: "[N]", help: "Advance the manual clock by N ticks", run: (*Interpreter).tick},
	{name: "log", args: "[N] | search TEXT | clear", help: "Show, search or clear recent log entries", run: (*Interpreter).log},
	{name: "help", help: "Show this help"},
	{name: "exit", help: "Leave"},
}

func lookupCommand(name string) (lineCommand, bool) {
	if name == "quit" {
		name = "exit"
	}
	for _, c := range lineCommands {
		if c.name == name {
			return c, true
		}
	}
	return lineCommand{}, false
}

// Interpreter runs text commands against a controller. Controller access
// goes through do, which must run its argument on the controller's thread.
// Session completion notices are queued and written around each command.
type Interpreter struct {
	ctrl  *study.Controller
	out   io.Writer
	do    func(func() error) error
	clock *study.ManualScheduler
	logs  *logging.RingHandler

	phase       study.Phase
	unsubscribe func()

	mu      sync.Mutex
	notices []string
}

// InterpreterOption configures an Interpreter.
type InterpreterOption func(*Interpreter)

// withDo routes controller access through do, such as runloop.Loop.Do.
func withDo(do func(func() error) error) InterpreterOption {
	return func(in *Interpreter) { in.do = do }
}

// withManualClock enables the tick command.
func withManualClock(clock *study.ManualScheduler) InterpreterOption {
	return func(in *Interpreter) { in.clock = clock }
}

// withLogs enables the log command.
func withLogs(logs *logging.RingHandler) InterpreterOption {
	return func(in *Interpreter) { in.logs = logs }
}

func newInterpreter(ctrl *study.Controller, out io.Writer, opts ...InterpreterOption) *Interpreter {
	in := &Interpreter{
		ctrl: ctrl,
		out:  out,
		do:   func(fn func() error) error { return fn() },
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// watch subscribes to the controller so finished sessions produce notices.
func (in *Interpreter) watch() error {
	return in.do(func() error {
		in.unsubscribe = in.ctrl.Subscribe(in.observe)
		return nil
	})
}

// close undoes watch.
func (in *Interpreter) close() {
	if in.unsubscribe == nil {
		return
	}
	_ = in.do(func() error {
		in.unsubscribe()
		in.unsubscribe = nil
		return nil
	})
}

func (in *Interpreter) observe(s study.Snapshot) {
	prev := in.phase
	in.phase = s.Engine.Phase
	if prev == study.PhaseCompleted || s.Engine.Phase != study.PhaseCompleted || s.Engine.PendingRating == nil {
		return
	}
	rec := s.Engine.PendingRating
	settings := in.ctrl.Settings()
	in.notify(fmt.Sprintf("Session complete: %s, %d minutes. Rate your focus with 'rate N [notes]' (%d-%d, default %d) or 'norate'.",
		rec.TaskName, rec.DurationMinutes, settings.RatingMin, settings.RatingMax, settings.RatingDefault))
}

func (in *Interpreter) notify(msg string) {
	in.mu.Lock()
	in.notices = append(in.notices, msg)
	in.mu.Unlock()
}

// flush writes queued notices.
func (in *Interpreter) flush() {
	in.mu.Lock()
	notices := in.notices
	in.notices = nil
	in.mu.Unlock()
	for _, n := range notices {
		_, _ = fmt.Fprintln(in.out, n)
	}
}

// Execute runs one line. It reports exit when the line asks to leave.
func (in *Interpreter) Execute(line string) (exit bool, err error) {
	in.flush()
	defer in.flush()

	args, err := fields(strings.TrimSpace(line))
	if err != nil {
		return false, err
	}
	if len(args) == 0 || strings.HasPrefix(args[0], "#") {
		return false, nil
	}
	cmd, ok := lookupCommand(args[0])
	if !ok {
		return false, fmt.Errorf("unknown command: %s (try 'help')", args[0])
	}
	switch cmd.name {
	case "exit":
		return true, nil
	case "help":
		in.printHelp()
		return false, nil
	}
	return false, cmd.run(in, args[1:])
}

func (in *Interpreter) printHelp() {
	var t table
	for _, c := range lineCommands {
		t.add(strings.TrimSpace(c.name+" "+c.args), c.help)
	}
	_ = t.write(in.out)
}

func (in *Interpreter) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(in.out, format, args...)
}

func (in *Interpreter) tasks(args []string) error {
	if err := wantArgs(args, 0, 0); err != nil {
		return err
	}
	return in.do(func() error { return writeTasks(in.out, in.ctrl.Snapshot()) })
}

func (in *Interpreter) status(args []string) error {
	if err := wantArgs(args, 0, 0); err != nil {
		return err
	}
	return in.do(func() error {
		return writeStatus(in.out, in.ctrl.Snapshot(), in.ctrl.Settings().DurationOptions)
	})
}

func (in *Interpreter) stats(args []string) error {
	if err := wantArgs(args, 0, 0); err != nil {
		return err
	}
	return in.do(func() error { return writeStats(in.out, in.ctrl.Analytics()) })
}

func (in *Interpreter) selectTask(args []string) error {
	if err := wantArgs(args, 1, 1); err != nil {
		return err
	}
	id, err := parseInt("task id", args[0])
	if err != nil {
		return err
	}
	return in.do(func() error {
		if err := in.ctrl.SelectTask(id); err != nil {
			return err
		}
		e := in.ctrl.Snapshot().Engine
		if e.StagedTask == nil || e.StagedTask.ID != id {
			in.printf("Task %d is already completed.\n", id)
			return nil
		}
		in.printf("Selected %d: %s. Start with 'start [MINUTES]' (options: %s; default %d).\n",
			id, e.StagedTask.Name, joinInts(in.ctrl.Settings().DurationOptions), e.SelectedDurationMinutes)
		return nil
	})
}

func (in *Interpreter) cancel(args []string) error {
	if err := wantArgs(args, 0, 0); err != nil {
		return err
	}
	return in.do(func() error {
		if in.ctrl.Snapshot().Engine.Phase != study.PhaseStaged {
			in.printf("Nothing selected.\n")
			return nil
		}
		in.ctrl.CancelSelection()
		in.printf("Selection cancelled.\n")
		return nil
	})
}

func (in *Interpreter) start(args []string) error {
	if err := wantArgs(args, 0, 1); err != nil {
		return err
	}
	minutes := 0
	if len(args) == 1 {
		var err error
		if minutes, err = parseInt("minutes", args[0]); err != nil {
			return err
		}
	}
	return in.do(func() error {
		if len(args) == 0 {
			minutes = in.ctrl.Snapshot().Engine.SelectedDurationMinutes
		}
		if err := in.ctrl.ConfirmStart(minutes); err != nil {
			return err
		}
		snap := in.ctrl.Snapshot()
		in.printf("Started %s for %d minutes.\n", snap.Engine.CurrentTask.Name, minutes)
		return nil
	})
}

func (in *Interpreter) pause(args []string) error {
	if err := wantArgs(args, 0, 0); err != nil {
		return err
	}
	return in.do(func() error {
		in.ctrl.TogglePause()
		snap := in.ctrl.Snapshot()
		switch snap.Engine.Phase {
		case study.PhasePaused:
			in.printf("Paused with %s left.\n", snap.Clock)
		case study.PhaseRunning:
			in.printf("Resumed with %s left.\n", snap.Clock)
		default:
			in.printf("No active session.\n")
		}
		return nil
	})
}

func (in *Interpreter) skip(args []string) error {
	if err := wantArgs(args, 0, 0); err != nil {
		return err
	}
	return in.do(func() error {
		e := in.ctrl.Snapshot().Engine
		if !e.IsActive {
			in.printf("No active session.\n")
			return nil
		}
		in.ctrl.Skip()
		in.printf("Skipped %s; it is pending again.\n", e.CurrentTask.Name)
		return nil
	})
}

func (in *Interpreter) complete(args []string) error {
	if err := wantArgs(args, 0, 0); err != nil {
		return err
	}
	return in.do(func() error {
		if !in.ctrl.Snapshot().Engine.IsActive {
			in.printf("No active session.\n")
			return nil
		}
		in.ctrl.CompleteNow()
		return nil
	})
}

func (in *Interpreter) rate(args []string) error {
	return in.do(func() error {
		settings := in.ctrl.Settings()
		rating := settings.RatingDefault
		var notes string
		if len(args) > 0 {
			var err error
			if rating, err = parseInt("rating", args[0]); err != nil {
				return err
			}
			notes = strings.Join(args[1:], " ")
		}
		rec, err := in.ctrl.SubmitRating(rating, notes)
		if err != nil {
			return err
		}
		in.printf("Rated %s %d/%d.\n", rec.TaskName, rating, settings.RatingMax)
		return nil
	})
}

func (in *Interpreter) norate(args []string) error {
	if err := wantArgs(args, 0, 0); err != nil {
		return err
	}
	return in.do(func() error {
		if err := in.ctrl.SkipRating(); err != nil {
			return err
		}
		in.printf("Rating skipped.\n")
		return nil
	})
}

func (in *Interpreter) add(args []string) error {
	input, err := parseTaskInput(args)
	if err != nil {
		return err
	}
	return in.do(func() error {
		task, err := in.ctrl.AddTask(input)
		if err != nil {
			return err
		}
		in.printf("Added task %d: %s.\n", task.ID, task.Name)
		return nil
	})
}

func (in *Interpreter) edit(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: edit ID NAME SUBJECT DIFFICULTY MINUTES [TIP]")
	}
	id, err := parseInt("task id", args[0])
	if err != nil {
		return err
	}
	input, err := parseTaskInput(args[1:])
	if err != nil {
		return err
	}
	return in.do(func() error {
		task, err := in.ctrl.EditTask(id, input)
		if err != nil {
			return err
		}
		in.printf("Updated task %d: %s.\n", task.ID, task.Name)
		return nil
	})
}

func (in *Interpreter) deleteTask(args []string) error {
	if err := wantArgs(args, 1, 1); err != nil {
		return err
	}
	id, err := parseInt("task id", args[0])
	if err != nil {
		return err
	}
	return in.do(func() error {
		if err := in.ctrl.DeleteTask(id); err != nil {
			return err
		}
		in.printf("Deleted task %d.\n", id)
		return nil
	})
}

func (in *Interpreter) reset(args []string) error {
	if err := wantArgs(args, 0, 0); err != nil {
		return err
	}
	return in.do(func() error {
		in.ctrl.ResetAll()
		in.printf("All tasks reset; session history cleared.\n")
		return nil
	})
}

// maxTickSpan bounds a single tick command.
const maxTickSpan = 24 * time.Hour

func (in *Interpreter) tick(args []string) error {
	if in.clock == nil {
		return errors.New("tick needs the manual clock; the countdown runs on its own here")
	}
	if err := wantArgs(args, 0, 1); err != nil {
		return err
	}
	n := 1
	if len(args) == 1 {
		var err error
		if n, err = parseInt("tick count", args[0]); err != nil {
			return err
		}
		if n <= 0 {
			return fmt.Errorf("tick count must be positive, got %d", n)
		}
	}
	interval := in.ctrl.Settings().TickInterval
	if limit := max(1, int(maxTickSpan/interval)); n > limit {
		return fmt.Errorf("tick count must be at most %d, got %d", limit, n)
	}
	return in.do(func() error {
		in.clock.Advance(time.Duration(n) * interval)
		return nil
	})
}

func (in *Interpreter) log(args []string) error {
	if in.logs == nil {
		return errors.New("no log buffer")
	}
	if len(args) > 0 {
		switch args[0] {
		case "search":
			if len(args) == 1 {
				return errors.New("usage: log search TEXT")
			}
			return writeLog(in.out, in.logs.Search(strings.Join(args[1:], " ")))
		case "clear":
			if err := wantArgs(args, 1, 1); err != nil {
				return err
			}
			in.logs.Clear()
			in.printf("Log buffer cleared.\n")
			return nil
		}
	}
	if err := wantArgs(args, 0, 1); err != nil {
		return err
	}
	n := 20
	if len(args) == 1 {
		var err error
		if n, err = parseInt("entry count", args[0]); err != nil {
			return err
		}
	}
	return writeLog(in.out, in.logs.Recent(n))
}

func wantArgs(args []string, lo, hi int) error {
	switch {
	case len(args) < lo:
		return fmt.Errorf("expected at least %d argument(s), got %d", lo, len(args))
	case len(args) > hi:
		return fmt.Errorf("expected at most %d argument(s), got %d", hi, len(args))
	}
	return nil
}

func parseInt(what, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", what, s)
	}
	return n, nil
}

// parseTaskInput parses NAME SUBJECT DIFFICULTY MINUTES [TIP].
func parseTaskInput(args []string) (study.TaskInput, error) {
	if len(args) < 4 || len(args) > 5 {
		return study.TaskInput{}, errors.New("expected NAME SUBJECT DIFFICULTY MINUTES [TIP]; quote values containing spaces")
	}
	difficulty, err := study.ParseDifficulty(args[2])
	if err != nil {
		return study.TaskInput{}, err
	}
	minutes, err := parseInt("minutes", args[3])
	if err != nil {
		return study.TaskInput{}, err
	}
	in := study.TaskInput{
		Name:            args[0],
		Subject:         args[1],
		Difficulty:      difficulty,
		DurationMinutes: minutes,
	}
	if len(args) == 5 {
		in.Tip = args[4]
	}
	return in, nil
}
