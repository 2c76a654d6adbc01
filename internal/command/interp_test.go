package command

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeycumines/focus-flow/internal/logging"
	"github.com/joeycumines/focus-flow/internal/study"
)

type interpHarness struct {
	t    *testing.T
	in   *Interpreter
	out  *bytes.Buffer
	ctrl *study.Controller
}

func newInterpHarness(t *testing.T, opts ...InterpreterOption) *interpHarness {
	t.Helper()
	clock := &study.ManualScheduler{}
	ring := logging.NewRingHandler(100, slog.LevelDebug)
	ctrl, err := study.NewController(study.DefaultSettings(), clock, study.WithLogger(slog.New(ring)))
	require.NoError(t, err)
	t.Cleanup(ctrl.Close)

	out := &bytes.Buffer{}
	opts = append([]InterpreterOption{withManualClock(clock), withLogs(ring)}, opts...)
	in := newInterpreter(ctrl, out, opts...)
	require.NoError(t, in.watch())
	t.Cleanup(in.close)
	return &interpHarness{t: t, in: in, out: out, ctrl: ctrl}
}

// run executes line, requiring success, and returns what it printed.
func (h *interpHarness) run(line string) string {
	h.t.Helper()
	h.out.Reset()
	exit, err := h.in.Execute(line)
	require.NoError(h.t, err, line)
	require.False(h.t, exit, line)
	return h.out.String()
}

func (h *interpHarness) fail(line string) error {
	h.t.Helper()
	h.out.Reset()
	_, err := h.in.Execute(line)
	require.Error(h.t, err, line)
	return err
}

func TestInterpreter_FullSession(t *testing.T) {
	h := newInterpHarness(t)

	assert.Equal(t, "Selected 3: Calculus Integration Practice. Start with 'start [MINUTES]' (options: 15 25 30 45 60 90; default 25).\n", h.run("select 3"))
	assert.Equal(t, "Started Calculus Integration Practice for 15 minutes.\n", h.run("start 15"))

	assert.Empty(t, h.run("tick 899"))
	assert.Contains(t, h.run("status"), "00:01 left of 15:00")

	assert.Equal(t, "Session complete: Calculus Integration Practice, 15 minutes. Rate your focus with 'rate N [notes]' (1-10, default 8) or 'norate'.\n", h.run("tick"))
	assert.Contains(t, h.run("status"), "Finished: Calculus Integration Practice, 15 minutes")

	assert.Equal(t, "Rated Calculus Integration Practice 9/10.\n", h.run("rate 9 deep work"))

	stats := h.run("stats")
	assert.Contains(t, stats, "20% (1 of 5 tasks)")
	assert.Contains(t, stats, "9 over 1 rated sessions")
	assert.Contains(t, stats, "15 over 1 sessions")
	assert.Contains(t, stats, "Mathematics")

	sessions := h.ctrl.Snapshot().Sessions
	require.Len(t, sessions, 1)
	assert.Equal(t, "deep work", sessions[0].Notes)
}

func TestInterpreter_RateDefaultsWhenOmitted(t *testing.T) {
	h := newInterpHarness(t)
	h.run("select 1")
	h.run("start 15")
	h.run("complete")
	assert.Equal(t, "Rated Physics Problem Set Ch. 12 8/10.\n", h.run("rate"))
}

func TestInterpreter_PauseResumeSkipCancel(t *testing.T) {
	h := newInterpHarness(t)

	assert.Equal(t, "No active session.\n", h.run("pause"))
	assert.Equal(t, "No active session.\n", h.run("skip"))
	assert.Equal(t, "Nothing selected.\n", h.run("cancel"))

	h.run("select 1")
	assert.Equal(t, "Selection cancelled.\n", h.run("cancel"))

	h.run("select 1")
	assert.Equal(t, "Started Physics Problem Set Ch. 12 for 25 minutes.\n", h.run("start"))
	h.run("tick 5")
	assert.Equal(t, "Paused with 24:55 left.\n", h.run("pause"))
	h.run("tick 10")
	assert.Equal(t, "Resumed with 24:55 left.\n", h.run("pause"))
	assert.Equal(t, "Skipped Physics Problem Set Ch. 12; it is pending again.\n", h.run("skip"))

	assert.Equal(t, study.PhaseIdle, h.ctrl.Snapshot().Engine.Phase)
	assert.Empty(t, h.ctrl.Snapshot().Sessions)
}

func TestInterpreter_TaskEditing(t *testing.T) {
	h := newInterpHarness(t)

	assert.Equal(t, "Added task 6: Essay outline.\n", h.run(`add "Essay outline" English easy 30 "Start with the thesis"`))
	assert.Equal(t, "Updated task 6: Essay draft.\n", h.run(`edit 6 "Essay draft" English hard 45`))

	tasks := h.run("tasks")
	assert.Contains(t, tasks, "Essay draft")
	assert.Contains(t, tasks, "Hard")
	assert.Contains(t, tasks, "Pending")
	assert.Len(t, strings.Split(strings.TrimSpace(tasks), "\n"), 7, "header plus six tasks")

	assert.Equal(t, "Deleted task 6.\n", h.run("delete 6"))
	assert.Len(t, h.ctrl.Tasks(), 5)
}

func TestInterpreter_TasksMarksStagedTask(t *testing.T) {
	h := newInterpHarness(t)
	h.run("select 2")
	lines := strings.Split(h.run("tasks"), "\n")
	assert.True(t, strings.HasPrefix(lines[2], ">"), "row for task 2: %q", lines[2])
	assert.False(t, strings.HasPrefix(lines[1], ">"))
}

func TestInterpreter_SelectCompletedTask(t *testing.T) {
	h := newInterpHarness(t)
	h.run("select 1")
	h.run("start 15")
	h.run("complete")
	h.run("norate")
	assert.Equal(t, "Task 1 is already completed.\n", h.run("select 1"))
	assert.Equal(t, study.PhaseIdle, h.ctrl.Snapshot().Engine.Phase)
}

func TestInterpreter_Errors(t *testing.T) {
	h := newInterpHarness(t)

	assert.ErrorIs(t, h.fail("select 99"), study.ErrNotFound)
	assert.ErrorIs(t, h.fail("start"), study.ErrInvalidState)
	assert.ErrorIs(t, h.fail("norate"), study.ErrInvalidState)
	assert.ErrorIs(t, h.fail("rate 5"), study.ErrInvalidState)

	h.run("select 1")
	assert.ErrorIs(t, h.fail("start 17"), study.ErrValidation)
	h.run("start 15")
	assert.ErrorIs(t, h.fail("delete 1"), study.ErrInvalidState)
	h.run("complete")
	assert.ErrorIs(t, h.fail("rate 11"), study.ErrValidation)

	assert.EqualError(t, h.fail("bogus"), "unknown command: bogus (try 'help')")
	assert.EqualError(t, h.fail("select x"), `invalid task id "x"`)
	assert.EqualError(t, h.fail("select"), "expected at least 1 argument(s), got 0")
	assert.EqualError(t, h.fail("tasks now"), "expected at most 0 argument(s), got 1")
	assert.EqualError(t, h.fail("tick 0"), "tick count must be positive, got 0")
	assert.EqualError(t, h.fail(`add "open`), `unterminated " quote`)
	assert.Error(t, h.fail("add only two"))
	assert.Error(t, h.fail("add a b brutal 25"))
	assert.ErrorIs(t, h.fail(`add "  " b easy 25`), study.ErrValidation)
}

func TestInterpreter_StartZeroIsRejected(t *testing.T) {
	h := newInterpHarness(t)
	h.run("select 3")

	assert.ErrorIs(t, h.fail("start 0"), study.ErrValidation)
	assert.ErrorIs(t, h.fail("start -25"), study.ErrValidation)
	assert.Equal(t, study.PhaseStaged, h.ctrl.Snapshot().Engine.Phase)

	assert.Equal(t, "Started Calculus Integration Practice for 25 minutes.\n", h.run("start"))
}

func TestInterpreter_TickCountIsBounded(t *testing.T) {
	h := newInterpHarness(t)
	h.run("select 3")
	h.run("start 25")

	assert.EqualError(t, h.fail("tick 10000000000"), "tick count must be at most 86400, got 10000000000")
	assert.EqualError(t, h.fail("tick 86401"), "tick count must be at most 86400, got 86401")
	assert.Equal(t, study.PhaseRunning, h.ctrl.Snapshot().Engine.Phase, "a rejected tick leaves the clock alone")

	assert.Contains(t, h.run("tick 1500"), "Session complete: Calculus Integration Practice, 25 minutes.")
	assert.Equal(t, study.PhaseCompleted, h.ctrl.Snapshot().Engine.Phase)
}

func TestInterpreter_ExitHelpAndBlankLines(t *testing.T) {
	h := newInterpHarness(t)

	for _, line := range []string{"exit", "quit", "  exit  "} {
		exit, err := h.in.Execute(line)
		require.NoError(t, err)
		assert.True(t, exit, line)
	}

	assert.Empty(t, h.run(""))
	assert.Empty(t, h.run("   "))
	assert.Empty(t, h.run("# a comment"))

	help := h.run("help")
	assert.Contains(t, help, "select ID")
	assert.Contains(t, help, "Select a task for the next session")
	assert.Contains(t, help, "add NAME SUBJECT DIFFICULTY MINUTES [TIP]")
}

func TestInterpreter_NoticeIsWrittenOnce(t *testing.T) {
	h := newInterpHarness(t)
	h.run("select 4")
	h.run("start 15")
	assert.Contains(t, h.run("complete"), "Session complete: Cell Biology Review")
	assert.NotContains(t, h.run("status"), "Session complete")
}

func TestInterpreter_Log(t *testing.T) {
	h := newInterpHarness(t)
	h.run("select 1")
	out := h.run("log 5")
	assert.Contains(t, out, "task staged")

	var buf bytes.Buffer
	empty := newInterpreter(h.ctrl, &buf, withLogs(logging.NewRingHandler(10, slog.LevelInfo)))
	_, err := empty.Execute("log")
	require.NoError(t, err)
	assert.Equal(t, "No log entries.\n", buf.String())
}

func TestInterpreter_LogSearchAndClear(t *testing.T) {
	h := newInterpHarness(t)
	h.run("select 1")
	h.run("start 25")

	found := h.run("log search session STARTED")
	assert.Contains(t, found, "session started")
	assert.NotContains(t, found, "task staged")
	assert.Equal(t, "No log entries.\n", h.run("log search no-such-text"))

	assert.EqualError(t, h.fail("log search"), "usage: log search TEXT")
	assert.EqualError(t, h.fail("log clear now"), "expected at most 1 argument(s), got 2")

	assert.Equal(t, "Log buffer cleared.\n", h.run("log clear"))
	assert.Equal(t, "No log entries.\n", h.run("log"))

	got, _, _ := h.in.suggest("log ")
	assert.Equal(t, []string{"search", "clear"}, suggestionTexts(got))
}

func TestInterpreter_OptionalFeatures(t *testing.T) {
	ctrl, err := study.NewController(study.DefaultSettings(), &study.ManualScheduler{})
	require.NoError(t, err)
	t.Cleanup(ctrl.Close)

	in := newInterpreter(ctrl, &bytes.Buffer{})
	_, err = in.Execute("tick")
	assert.ErrorContains(t, err, "manual clock")
	_, err = in.Execute("log")
	assert.EqualError(t, err, "no log buffer")
}

func TestInterpreter_DoRoutesControllerAccess(t *testing.T) {
	ctrl, err := study.NewController(study.DefaultSettings(), &study.ManualScheduler{})
	require.NoError(t, err)
	t.Cleanup(ctrl.Close)

	calls := 0
	in := newInterpreter(ctrl, &bytes.Buffer{}, withDo(func(fn func() error) error {
		calls++
		return fn()
	}))
	_, err = in.Execute("select 2")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	stopped := errors.New("loop stopped")
	in = newInterpreter(ctrl, &bytes.Buffer{}, withDo(func(func() error) error { return stopped }))
	_, err = in.Execute("status")
	assert.ErrorIs(t, err, stopped)
}

func suggestionTexts(s []suggestion) []string {
	out := make([]string, len(s))
	for i, v := range s {
		out[i] = v.Text
	}
	return out
}

func TestInterpreter_Suggest(t *testing.T) {
	h := newInterpHarness(t)

	all, start, end := h.in.suggest("")
	assert.Len(t, all, len(lineCommands))
	assert.Equal(t, 0, start)
	assert.Equal(t, 0, end)

	got, start, end := h.in.suggest("st")
	assert.Equal(t, []string{"status", "stats", "start"}, suggestionTexts(got))
	assert.Equal(t, 0, start)
	assert.Equal(t, 2, end)

	got, start, end = h.in.suggest("select ")
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, suggestionTexts(got))
	assert.Equal(t, "Physics Problem Set Ch. 12", got[0].Description)
	assert.Equal(t, 7, start)
	assert.Equal(t, 7, end)

	got, _, _ = h.in.suggest("start 2")
	assert.Equal(t, []string{"25"}, suggestionTexts(got))

	got, _, _ = h.in.suggest("add x y ")
	assert.Equal(t, []string{"Easy", "Medium", "Hard"}, suggestionTexts(got))
	got, _, _ = h.in.suggest("add x y m")
	assert.Equal(t, []string{"Medium"}, suggestionTexts(got))
	got, _, _ = h.in.suggest("edit 1 x y ")
	assert.Len(t, got, 3)

	got, _, _ = h.in.suggest("tasks ")
	assert.Empty(t, got)

	h.run("select 1")
	h.run("start 15")
	h.run("complete")
	h.run("norate")
	got, _, _ = h.in.suggest("select ")
	assert.NotContains(t, suggestionTexts(got), "1", "completed tasks cannot be selected")
	got, _, _ = h.in.suggest("delete ")
	assert.Contains(t, suggestionTexts(got), "1")
}
