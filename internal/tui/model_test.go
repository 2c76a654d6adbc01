package tui

import (
	"log/slog"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rivo/uniseg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeycumines/focus-flow/internal/logging"
	"github.com/joeycumines/focus-flow/internal/study"
)

type harness struct {
	t     *testing.T
	ctrl  *study.Controller
	clock *study.ManualScheduler
	model Model
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	clock := &study.ManualScheduler{}
	ctrl, err := study.NewController(study.DefaultSettings(), clock)
	require.NoError(t, err)
	t.Cleanup(ctrl.Close)
	ctrl.Start()

	h := &harness{
		t:     t,
		ctrl:  ctrl,
		clock: clock,
		model: newModel(Options{
			Controller: ctrl,
			Do:         func(fn func() error) error { return fn() },
			Logs:       logging.NewRingHandler(10, slog.LevelInfo),
		}),
	}
	h.sync()
	return h
}

// send feeds msg to the model, runs any resulting command, and then
// delivers the controller's latest snapshot.
func (h *harness) send(msg tea.Msg) {
	h.t.Helper()
	next, cmd := h.model.Update(msg)
	h.model = next.(Model)
	if res, ok := runCmd(cmd).(resultMsg); ok {
		next, _ = h.model.Update(res)
		h.model = next.(Model)
	}
	h.sync()
}

// runCmd runs cmd and returns its message. Controller commands finish
// immediately; cursor blink commands sleep, so those are abandoned.
func runCmd(cmd tea.Cmd) tea.Msg {
	if cmd == nil {
		return nil
	}
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

func (h *harness) sync() {
	next, _ := h.model.Update(snapshotMsg(h.ctrl.Snapshot()))
	h.model = next.(Model)
}

func (h *harness) keys(s string) {
	h.t.Helper()
	for _, r := range s {
		h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func (h *harness) key(k tea.KeyType) {
	h.t.Helper()
	h.send(tea.KeyMsg{Type: k})
}

func (h *harness) engine() study.EngineState {
	return h.ctrl.Snapshot().Engine
}

func TestModel_LoadingUntilFirstSnapshot(t *testing.T) {
	clock := &study.ManualScheduler{}
	ctrl, err := study.NewController(study.DefaultSettings(), clock)
	require.NoError(t, err)
	t.Cleanup(ctrl.Close)

	m := newModel(Options{Controller: ctrl, Do: func(fn func() error) error { return fn() }})
	assert.Nil(t, m.Init())
	assert.Equal(t, "Loading…\n", m.View())
	assert.Equal(t, "default", m.theme.Name)
}

func TestModel_SelectStartAndRate(t *testing.T) {
	h := newHarness(t)

	h.keys("jj")
	assert.Equal(t, 2, h.model.cursor)
	h.key(tea.KeyEnter)
	require.Equal(t, study.PhaseStaged, h.engine().Phase)
	assert.Equal(t, modeDuration, h.model.mode)
	assert.Equal(t, 25, h.model.settings.DurationOptions[h.model.duration])

	h.keys("h")
	h.key(tea.KeyEnter)
	e := h.engine()
	require.Equal(t, study.PhaseRunning, e.Phase)
	assert.Equal(t, 3, e.CurrentTask.ID)
	assert.Equal(t, 15, e.SelectedDurationMinutes)
	assert.Equal(t, modeList, h.model.mode)

	h.keys("p")
	assert.Equal(t, study.PhasePaused, h.engine().Phase)
	h.keys("p")
	assert.Equal(t, study.PhaseRunning, h.engine().Phase)

	h.clock.Advance(15 * time.Minute)
	h.sync()
	require.Equal(t, study.PhaseCompleted, h.engine().Phase)
	assert.Equal(t, modeRating, h.model.mode)
	assert.Equal(t, 8, h.model.rating)

	h.key(tea.KeyUp)
	h.keys("calm")
	assert.Contains(t, h.model.View(), "Session complete: Calculus Integration Practice (15 min)")
	h.key(tea.KeyEnter)

	assert.Equal(t, study.PhaseIdle, h.engine().Phase)
	assert.Equal(t, modeList, h.model.mode)
	assert.Equal(t, "Rated 9/10", h.model.message)

	history := h.ctrl.Analytics()
	assert.Equal(t, 1, history.Sessions)
	assert.Equal(t, 9, history.AverageFocus)
}

func TestModel_CancelAndSkip(t *testing.T) {
	h := newHarness(t)

	h.key(tea.KeyEnter)
	require.Equal(t, modeDuration, h.model.mode)
	h.key(tea.KeyEsc)
	assert.Equal(t, study.PhaseIdle, h.engine().Phase)
	assert.Equal(t, modeList, h.model.mode)

	h.key(tea.KeyEnter)
	h.key(tea.KeyEnter)
	require.Equal(t, study.PhaseRunning, h.engine().Phase)
	h.keys("s")
	assert.Equal(t, study.PhaseIdle, h.engine().Phase)
	assert.Equal(t, "Session skipped", h.model.message)
	assert.Equal(t, study.StatusPending, h.ctrl.Tasks()[0].Status)
}

func TestModel_CompleteNowAndSkipRating(t *testing.T) {
	h := newHarness(t)
	h.key(tea.KeyEnter)
	h.key(tea.KeyEnter)
	h.keys("c")
	require.Equal(t, modeRating, h.model.mode)

	h.key(tea.KeyEsc)
	assert.Equal(t, study.PhaseIdle, h.engine().Phase)
	assert.Equal(t, "Rating skipped", h.model.message)
	assert.Equal(t, study.StatusCompleted, h.ctrl.Tasks()[0].Status)

	h.key(tea.KeyEnter)
	assert.Equal(t, modeList, h.model.mode, "completed tasks cannot be selected")
	assert.Equal(t, "Physics Problem Set Ch. 12 is already completed", h.model.message)
}

func TestModel_AddTask(t *testing.T) {
	h := newHarness(t)
	h.keys("a")
	require.Equal(t, modeForm, h.model.mode)
	assert.Contains(t, h.model.View(), "New task")

	h.keys("Essay")
	h.key(tea.KeyTab)
	h.keys("English")
	h.key(tea.KeyTab)
	h.model.form.inputs[fieldDifficulty].SetValue("hard")
	h.key(tea.KeyEnter)

	assert.Equal(t, modeList, h.model.mode)
	assert.Equal(t, "Added Essay", h.model.message)
	tasks := h.ctrl.Tasks()
	require.Len(t, tasks, 6)
	added := tasks[5]
	assert.Equal(t, "Essay", added.Name)
	assert.Equal(t, "English", added.Subject)
	assert.Equal(t, study.DifficultyHard, added.Difficulty)
	assert.Equal(t, 25, added.DurationMinutes)
}

func TestModel_FormErrorsStayInForm(t *testing.T) {
	h := newHarness(t)
	h.keys("a")
	h.model.form.inputs[fieldMinutes].SetValue("soon")
	h.key(tea.KeyEnter)
	assert.Equal(t, modeForm, h.model.mode)
	assert.True(t, h.model.failed)
	assert.Equal(t, "minutes must be a whole number", h.model.message)

	h.model.form.inputs[fieldMinutes].SetValue("25")
	h.key(tea.KeyEnter)
	assert.Equal(t, modeForm, h.model.mode, "empty name is rejected by the store")
	assert.True(t, h.model.failed)

	h.key(tea.KeyEsc)
	assert.Equal(t, modeList, h.model.mode)
	assert.Len(t, h.ctrl.Tasks(), 5)
}

func TestModel_EditAndDelete(t *testing.T) {
	h := newHarness(t)
	h.keys("jjj")
	h.keys("e")
	require.Equal(t, modeForm, h.model.mode)
	assert.Equal(t, 4, h.model.form.editing)
	assert.Equal(t, "Cell Biology Review", h.model.form.inputs[fieldName].Value())

	h.model.form.inputs[fieldMinutes].SetValue("45")
	h.key(tea.KeyEnter)
	assert.Equal(t, "Updated Cell Biology Review", h.model.message)
	assert.Equal(t, 45, h.ctrl.Tasks()[3].DurationMinutes)

	h.keys("d")
	assert.Equal(t, "Deleted Cell Biology Review", h.model.message)
	assert.Len(t, h.ctrl.Tasks(), 4)
	assert.Equal(t, 3, h.model.cursor)
}

func TestModel_ResetNeedsConfirmation(t *testing.T) {
	h := newHarness(t)
	h.key(tea.KeyEnter)
	h.key(tea.KeyEnter)
	h.keys("c")
	h.key(tea.KeyEsc)
	require.Equal(t, study.StatusCompleted, h.ctrl.Tasks()[0].Status)

	h.keys("R")
	require.Equal(t, modeConfirmReset, h.model.mode)
	assert.Contains(t, h.model.View(), "(y/N)")
	h.keys("n")
	assert.Equal(t, modeList, h.model.mode)
	assert.Equal(t, study.StatusCompleted, h.ctrl.Tasks()[0].Status)

	h.keys("Ry")
	assert.Equal(t, "All tasks reset", h.model.message)
	assert.Equal(t, study.StatusPending, h.ctrl.Tasks()[0].Status)
	assert.Zero(t, h.ctrl.Analytics().Sessions)
}

func TestModel_View(t *testing.T) {
	h := newHarness(t)
	h.send(tea.WindowSizeMsg{Width: 100, Height: 40})
	view := h.model.View()
	assert.Contains(t, view, "Focus Flow")
	assert.Contains(t, view, "Cell Biology Review")
	assert.Contains(t, view, "Pick a task to begin")
	assert.Contains(t, view, "○ pending")
	assert.Contains(t, view, "Completion 0%")
	assert.NotContains(t, view, "No log entries.")

	h.keys("L")
	assert.Contains(t, h.model.View(), "No log entries.")
	h.keys("?")
	assert.True(t, h.model.help.ShowAll)

	h.key(tea.KeyEnter)
	view = h.model.View()
	assert.Contains(t, view, "Ready: Physics Problem Set Ch. 12")
	assert.Contains(t, view, "Session length (minutes)")
}

func TestModel_AnalyticsBySubject(t *testing.T) {
	h := newHarness(t)
	h.model = newModel(Options{
		Controller: h.ctrl,
		Do:         func(fn func() error) error { return fn() },
		Theme:      MonoTheme(),
	})
	h.sync()

	h.keys("A")
	assert.Contains(t, h.model.View(), "No sessions yet.")

	_, err := h.ctrl.AddTask(study.TaskInput{Name: "Optics", Subject: "Physics", Difficulty: study.DifficultyEasy, DurationMinutes: 25})
	require.NoError(t, err)
	h.sync()
	finish := func() {
		h.key(tea.KeyEnter)
		h.key(tea.KeyEnter)
		h.keys("c")
		h.key(tea.KeyEsc)
		require.Equal(t, study.PhaseIdle, h.engine().Phase)
	}
	finish()
	h.keys("jjjjj")
	finish()
	h.keys("kkkk")
	finish()

	view := h.model.View()
	assert.Contains(t, view, "Tasks 3/6 completed  •  Sessions 3 (0 rated)")
	var physics, chemistry string
	for _, line := range strings.Split(view, "\n") {
		if !strings.Contains(line, "#") {
			continue
		}
		switch {
		case strings.Contains(line, "Physics"):
			physics = line
		case strings.Contains(line, "Chemistry"):
			chemistry = line
		}
	}
	assert.Contains(t, physics, strings.Repeat("#", 12)+" 2")
	assert.NotContains(t, physics, "%", "subject bars carry no percentage")
	assert.Contains(t, chemistry, "######")
	assert.NotContains(t, chemistry, "#######")
	assert.Contains(t, chemistry, "------ 1")
	assert.Less(t, strings.Index(view, physics), strings.Index(view, chemistry), "busiest subject first")

	h.keys("A")
	assert.NotContains(t, h.model.View(), "Sessions 3 (0 rated)")
}

func TestModel_Quit(t *testing.T) {
	h := newHarness(t)
	_, cmd := h.model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())

	h.keys("a")
	_, cmd = h.model.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestModel_MouseIgnoredWithoutZones(t *testing.T) {
	h := newHarness(t)
	h.send(tea.MouseMsg{X: 3, Y: 3, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	assert.Equal(t, study.PhaseIdle, h.engine().Phase)
}

func TestThemeByName(t *testing.T) {
	for _, name := range []string{"", "default"} {
		th, err := ThemeByName(name)
		require.NoError(t, err)
		assert.Equal(t, "default", th.Name)
	}
	th, err := ThemeByName("mono")
	require.NoError(t, err)
	assert.Equal(t, "mono", th.Name)

	_, err = ThemeByName("neon")
	assert.EqualError(t, err, `unknown theme "neon" (want default or mono)`)
}

func TestCell(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"abc", 5, "abc  "},
		{"abcde", 5, "abcde"},
		{"abcdef", 5, "abcd…"},
		{"日本語テキスト", 6, "日本… "},
	}
	for _, tt := range tests {
		got := cell(tt.in, tt.n)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.n, uniseg.StringWidth(got), tt.in)
	}
}
