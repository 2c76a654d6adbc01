package tui

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/rivo/uniseg"

	"github.com/joeycumines/focus-flow/internal/logging"
	"github.com/joeycumines/focus-flow/internal/study"
	"github.com/joeycumines/focus-flow/internal/termui/progress"
)

type mode int

const (
	modeList mode = iota
	modeDuration
	modeRating
	modeForm
	modeConfirmReset
)

// snapshotMsg delivers controller state to the model.
type snapshotMsg study.Snapshot

// resultMsg reports the outcome of a controller command.
type resultMsg struct {
	err  error
	info string
}

const logLines = 6

// Model is the Bubble Tea model of the focus timer. It renders the latest
// snapshot and turns input into controller commands, which run through do
// inside tea.Cmds so Update never blocks on the controller's thread.
type Model struct {
	ctrl     *study.Controller
	do       func(func() error) error
	settings study.Settings
	logs     *logging.RingHandler
	zones    *zone.Manager

	theme      Theme
	keys       keyMap
	help       help.Model
	bar        progress.Model
	subjectBar progress.Model

	snap  study.Snapshot
	ready bool

	mode      mode
	cursor    int
	duration  int
	rating    int
	notes     textinput.Model
	form      taskForm
	message   string
	failed    bool
	showLogs  bool
	showStats bool
	width     int
}

func newModel(opts Options) Model {
	notes := textinput.New()
	notes.Placeholder = "notes (optional)"
	notes.CharLimit = 200
	m := Model{
		ctrl:     opts.Controller,
		do:       opts.Do,
		settings: opts.Controller.Settings(),
		logs:     opts.Logs,
		theme:    opts.Theme,
		keys:     defaultKeyMap(),
		help:     help.New(),
		notes:    notes,
	}
	if m.theme.Name == "" {
		m.theme = DefaultTheme()
	}
	if opts.Mouse {
		m.zones = zone.New()
	}
	m.bar = progress.New(
		progress.WithWidth(30),
		progress.WithStyles(m.theme.BarFilled, m.theme.BarEmpty),
		progress.WithChars(m.theme.BarChars[0], m.theme.BarChars[1]),
	)
	m.subjectBar = progress.New(
		progress.WithWidth(12),
		progress.WithStyles(m.theme.BarFilled, m.theme.BarEmpty),
		progress.WithChars(m.theme.BarChars[0], m.theme.BarChars[1]),
		progress.WithoutPercent(),
	)
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// run executes fn on the controller's thread and reports the result.
func (m Model) run(info string, fn func() error) tea.Cmd {
	do := m.do
	return func() tea.Msg {
		if err := do(fn); err != nil {
			return resultMsg{err: err}
		}
		return resultMsg{info: info}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		m.apply(study.Snapshot(msg))
		return m, nil
	case resultMsg:
		m.failed = msg.err != nil
		m.message = msg.info
		if msg.err != nil {
			m.message = msg.err.Error()
		} else if m.mode == modeForm {
			m.mode = modeList
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil
	case tea.MouseMsg:
		return m.handleMouse(msg)
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch m.mode {
		case modeDuration:
			return m.updateDuration(msg)
		case modeRating:
			return m.updateRating(msg)
		case modeForm:
			return m.updateForm(msg)
		case modeConfirmReset:
			return m.updateConfirmReset(msg)
		default:
			return m.updateList(msg)
		}
	}
	return m, nil
}

// apply takes a new snapshot and moves between modes as the engine does.
func (m *Model) apply(s study.Snapshot) {
	prev := m.snap.Engine.Phase
	m.snap = s
	m.ready = true
	if m.cursor >= len(s.Tasks) {
		m.cursor = max(0, len(s.Tasks)-1)
	}
	switch s.Engine.Phase {
	case study.PhaseStaged:
		if prev != study.PhaseStaged {
			m.mode = modeDuration
			m.duration = max(0, slices.Index(m.settings.DurationOptions, s.Engine.SelectedDurationMinutes))
		}
	case study.PhaseCompleted:
		if prev != study.PhaseCompleted {
			m.mode = modeRating
			m.rating = m.settings.RatingDefault
			m.notes.SetValue("")
			m.notes.Focus()
		}
	default:
		if m.mode == modeDuration || m.mode == modeRating {
			m.mode = modeList
			m.notes.Blur()
		}
	}
}

func (m Model) cursorTask() (study.Task, bool) {
	if m.cursor < 0 || m.cursor >= len(m.snap.Tasks) {
		return study.Task{}, false
	}
	return m.snap.Tasks[m.cursor], true
}

func (m Model) selectTask(id int) tea.Cmd {
	ctrl := m.ctrl
	return m.run("", func() error { return ctrl.SelectTask(id) })
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ctrl := m.ctrl
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.snap.Tasks)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Select):
		if t, ok := m.cursorTask(); ok {
			if t.Status == study.StatusCompleted {
				m.message, m.failed = fmt.Sprintf("%s is already completed", t.Name), false
				return m, nil
			}
			return m, m.selectTask(t.ID)
		}
	case key.Matches(msg, m.keys.Pause):
		return m, m.run("", func() error { ctrl.TogglePause(); return nil })
	case key.Matches(msg, m.keys.Skip):
		if m.snap.Engine.IsActive {
			return m, m.run("Session skipped", func() error { ctrl.Skip(); return nil })
		}
	case key.Matches(msg, m.keys.Complete):
		if m.snap.Engine.IsActive {
			return m, m.run("", func() error { ctrl.CompleteNow(); return nil })
		}
	case key.Matches(msg, m.keys.Add):
		m.form = newTaskForm(nil, m.settings.DefaultDuration)
		m.mode = modeForm
		m.message = ""
		return m, textinput.Blink
	case key.Matches(msg, m.keys.Edit):
		if t, ok := m.cursorTask(); ok {
			m.form = newTaskForm(&t, m.settings.DefaultDuration)
			m.mode = modeForm
			m.message = ""
			return m, textinput.Blink
		}
	case key.Matches(msg, m.keys.Delete):
		if t, ok := m.cursorTask(); ok {
			id := t.ID
			return m, m.run(fmt.Sprintf("Deleted %s", t.Name), func() error { return ctrl.DeleteTask(id) })
		}
	case key.Matches(msg, m.keys.Reset):
		m.mode = modeConfirmReset
	case key.Matches(msg, m.keys.Logs):
		m.showLogs = !m.showLogs
	case key.Matches(msg, m.keys.Stats):
		m.showStats = !m.showStats
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m Model) updateDuration(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ctrl := m.ctrl
	options := m.settings.DurationOptions
	switch {
	case key.Matches(msg, m.keys.Left), key.Matches(msg, m.keys.Up):
		if m.duration > 0 {
			m.duration--
		}
	case key.Matches(msg, m.keys.Right), key.Matches(msg, m.keys.Down):
		if m.duration < len(options)-1 {
			m.duration++
		}
	case key.Matches(msg, m.keys.Select):
		minutes := options[m.duration]
		return m, m.run("", func() error { return ctrl.ConfirmStart(minutes) })
	case key.Matches(msg, m.keys.Back):
		return m, m.run("", func() error { ctrl.CancelSelection(); return nil })
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) updateRating(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ctrl := m.ctrl
	switch msg.Type {
	case tea.KeyUp, tea.KeyRight:
		if m.rating < m.settings.RatingMax {
			m.rating++
		}
		return m, nil
	case tea.KeyDown, tea.KeyLeft:
		if m.rating > m.settings.RatingMin {
			m.rating--
		}
		return m, nil
	case tea.KeyEnter:
		rating, notes := m.rating, strings.TrimSpace(m.notes.Value())
		return m, m.run(fmt.Sprintf("Rated %d/%d", rating, m.settings.RatingMax), func() error {
			_, err := ctrl.SubmitRating(rating, notes)
			return err
		})
	case tea.KeyEsc:
		return m, m.run("Rating skipped", ctrl.SkipRating)
	}
	var cmd tea.Cmd
	m.notes, cmd = m.notes.Update(msg)
	return m, cmd
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ctrl := m.ctrl
	switch {
	case key.Matches(msg, m.keys.Back):
		m.mode = modeList
		m.message = ""
		return m, nil
	case key.Matches(msg, m.keys.Next):
		return m, m.form.move(1)
	case key.Matches(msg, m.keys.Prev):
		return m, m.form.move(-1)
	case key.Matches(msg, m.keys.Select):
		input, err := m.form.input()
		if err != nil {
			m.message, m.failed = err.Error(), true
			return m, nil
		}
		if id := m.form.editing; id != 0 {
			return m, m.run(fmt.Sprintf("Updated %s", strings.TrimSpace(input.Name)), func() error {
				_, err := ctrl.EditTask(id, input)
				return err
			})
		}
		return m, m.run(fmt.Sprintf("Added %s", strings.TrimSpace(input.Name)), func() error {
			_, err := ctrl.AddTask(input)
			return err
		})
	}
	return m, m.form.update(msg)
}

func (m Model) updateConfirmReset(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.mode = modeList
	if msg.String() == "y" || msg.String() == "Y" {
		ctrl := m.ctrl
		return m, m.run("All tasks reset", func() error { ctrl.ResetAll(); return nil })
	}
	m.message = ""
	return m, nil
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.zones == nil || m.mode != modeList || msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}
	for i, t := range m.snap.Tasks {
		if z := m.zones.Get(taskZone(t.ID)); z == nil || !z.InBounds(msg) {
			continue
		}
		m.cursor = i
		if t.Status == study.StatusCompleted || m.snap.Engine.Phase != study.PhaseIdle {
			return m, nil
		}
		return m, m.selectTask(t.ID)
	}
	return m, nil
}

func taskZone(id int) string { return "task-" + strconv.Itoa(id) }

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading…\n"
	}
	t := m.theme
	sections := []string{
		t.Title.Render("Focus Flow"),
		t.Tip.Render(m.snap.Tip),
		t.Panel.Render(m.tasksView()),
		t.Panel.Render(m.timerView()),
		m.statsView(),
	}
	if m.showStats {
		sections = append(sections, t.Panel.Render(m.analyticsView()))
	}
	switch m.mode {
	case modeDuration:
		sections = append(sections, t.Panel.Render(m.durationView()))
	case modeRating:
		sections = append(sections, t.Panel.Render(m.ratingView()))
	case modeForm:
		sections = append(sections, t.Panel.Render(m.form.view(t)))
	case modeConfirmReset:
		sections = append(sections, t.Error.Render("Reset every task and clear the session history? (y/N)"))
	}
	if m.message != "" {
		style := t.Info
		if m.failed {
			style = t.Error
		}
		sections = append(sections, style.Render(m.message))
	}
	if m.showLogs && m.logs != nil {
		sections = append(sections, t.Panel.Render(m.logView()))
	}
	sections = append(sections, m.help.View(m.keys))
	view := lipgloss.JoinVertical(lipgloss.Left, sections...)
	if m.zones != nil {
		view = m.zones.Scan(view)
	}
	return view
}

func (m Model) tasksView() string {
	t := m.theme
	focus := 0
	if e := m.snap.Engine; e.StagedTask != nil {
		focus = e.StagedTask.ID
	} else if e.CurrentTask != nil {
		focus = e.CurrentTask.ID
	}
	if len(m.snap.Tasks) == 0 {
		return t.Muted.Render("No tasks yet. Press a to add one.")
	}
	rows := make([]string, 0, len(m.snap.Tasks))
	for i, task := range m.snap.Tasks {
		pointer := "  "
		if i == m.cursor && m.mode == modeList {
			pointer = t.Cursor.Render("> ")
		}
		line := fmt.Sprintf("%s %s %-6s %3dm  %s",
			cell(task.Name, 24), cell(task.Subject, 14), task.Difficulty, task.DurationMinutes, m.statusBadge(task.Status))
		if task.ID == focus {
			line = t.Selected.Render(line)
		} else {
			line = t.Row.Render(line)
		}
		row := pointer + line
		if m.zones != nil {
			row = m.zones.Mark(taskZone(task.ID), row)
		}
		rows = append(rows, row)
	}
	return strings.Join(rows, "\n")
}

func (m Model) statusBadge(s study.Status) string {
	switch s {
	case study.StatusActive:
		return m.theme.Active.Render("● active")
	case study.StatusCompleted:
		return m.theme.Completed.Render("✓ done")
	default:
		return m.theme.Pending.Render("○ pending")
	}
}

func (m Model) timerView() string {
	t := m.theme
	e := m.snap.Engine
	var head string
	switch e.Phase {
	case study.PhaseRunning:
		head = "Focusing on " + e.CurrentTask.Name
	case study.PhasePaused:
		head = "Paused: " + e.CurrentTask.Name
	case study.PhaseStaged:
		head = "Ready: " + e.StagedTask.Name
	case study.PhaseCompleted:
		head = "Finished: " + e.PendingRating.TaskName
	default:
		head = "Pick a task to begin"
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		t.Muted.Render(head),
		t.Clock.Render(m.snap.Clock)+"  "+m.bar.SetFraction(m.snap.Progress).View(),
	)
}

func (m Model) statsView() string {
	a := m.snap.Analytics
	focus := "-"
	if a.HasAverageFocus {
		focus = fmt.Sprintf("%d/%d", a.AverageFocus, m.settings.RatingMax)
	}
	return m.theme.Muted.Render(fmt.Sprintf("Completion %d%%  •  Focus %s  •  Streak %d  •  Peak %s  •  %d min",
		a.CompletionRate, focus, a.StudyStreak, a.PeakWindow, a.TotalFocusMinutes))
}

// analyticsView breaks the session history down by subject, busiest first.
func (m Model) analyticsView() string {
	a := m.snap.Analytics
	lines := []string{fmt.Sprintf("Tasks %d/%d completed  •  Sessions %d (%d rated)",
		a.CompletedTasks, a.TotalTasks, a.Sessions, a.RatedSessions)}
	if len(a.BySubject) == 0 {
		return strings.Join(append(lines, m.theme.Muted.Render("No sessions yet.")), "\n")
	}
	top := a.BySubject[0].Sessions
	for _, sc := range a.BySubject {
		bar := m.subjectBar.SetFraction(float64(sc.Sessions) / float64(top))
		lines = append(lines, fmt.Sprintf("%s %s %d", cell(sc.Subject, 14), bar.View(), sc.Sessions))
	}
	return strings.Join(lines, "\n")
}

func (m Model) durationView() string {
	t := m.theme
	parts := make([]string, len(m.settings.DurationOptions))
	for i, d := range m.settings.DurationOptions {
		label := fmt.Sprintf(" %d ", d)
		if i == m.duration {
			parts[i] = t.Selected.Render(label)
		} else {
			parts[i] = t.Row.Render(label)
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		"Session length (minutes)",
		strings.Join(parts, " "),
		t.Muted.Render("←/→: choose • enter: start • esc: cancel"),
	)
}

func (m Model) ratingView() string {
	t := m.theme
	var rec study.Record
	if p := m.snap.Engine.PendingRating; p != nil {
		rec = *p
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		fmt.Sprintf("Session complete: %s (%d min)", rec.TaskName, rec.DurationMinutes),
		fmt.Sprintf("How focused were you? %s", t.Clock.Render(fmt.Sprintf("%d/%d", m.rating, m.settings.RatingMax))),
		m.notes.View(),
		t.Muted.Render("↑/↓: rating • enter: save • esc: skip"),
	)
}

func (m Model) logView() string {
	entries := m.logs.Recent(logLines)
	if len(entries) == 0 {
		return m.theme.Muted.Render("No log entries.")
	}
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = e.String()
	}
	return strings.Join(lines, "\n")
}

// cell fits s into exactly n terminal cells, truncating with an ellipsis.
func cell(s string, n int) string {
	if w := uniseg.StringWidth(s); w <= n {
		return s + strings.Repeat(" ", n-w)
	}
	var b strings.Builder
	width := 0
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		w := g.Width()
		if width+w > n-1 {
			break
		}
		b.WriteString(g.Str())
		width += w
	}
	return b.String() + "…" + strings.Repeat(" ", n-1-width)
}
