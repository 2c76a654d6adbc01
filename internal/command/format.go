package command

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rivo/uniseg"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/joeycumines/focus-flow/internal/logging"
	"github.com/joeycumines/focus-flow/internal/study"
)

// table writes left-aligned columns. Cell widths are measured in terminal
// cells so names and tips containing emoji stay aligned.
type table struct {
	rows [][]string
}

func (t *table) add(cells ...string) { t.rows = append(t.rows, cells) }

func (t *table) write(w io.Writer) error {
	var widths []int
	for _, row := range t.rows {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], uniseg.StringWidth(cell))
		}
	}
	var b strings.Builder
	for _, row := range t.rows {
		for i, cell := range row {
			if i == len(row)-1 {
				b.WriteString(cell)
				break
			}
			b.WriteString(cell)
			b.WriteString(strings.Repeat(" ", widths[i]-uniseg.StringWidth(cell)+2))
		}
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func title(s string) string {
	return cases.Title(language.English).String(s)
}

// writeTasks lists tasks, marking the staged or current one with ">".
func writeTasks(w io.Writer, snap study.Snapshot) error {
	if len(snap.Tasks) == 0 {
		_, err := fmt.Fprintln(w, "No tasks. Add one with: add NAME SUBJECT DIFFICULTY MINUTES [TIP]")
		return err
	}
	focus := 0
	switch {
	case snap.Engine.StagedTask != nil:
		focus = snap.Engine.StagedTask.ID
	case snap.Engine.CurrentTask != nil:
		focus = snap.Engine.CurrentTask.ID
	}
	var t table
	t.add("", "ID", "NAME", "SUBJECT", "DIFFICULTY", "MIN", "STATUS")
	for _, task := range snap.Tasks {
		mark := ""
		if task.ID == focus {
			mark = ">"
		}
		t.add(mark, strconv.Itoa(task.ID), task.Name, task.Subject, string(task.Difficulty),
			strconv.Itoa(task.DurationMinutes), title(string(task.Status)))
	}
	return t.write(w)
}

// writeStatus describes the engine state in a few lines.
func writeStatus(w io.Writer, snap study.Snapshot, durations []int) error {
	e := snap.Engine
	var b strings.Builder
	fmt.Fprintf(&b, "Phase:    %s\n", title(e.Phase.String()))
	switch e.Phase {
	case study.PhaseStaged:
		fmt.Fprintf(&b, "Task:     %s (%s)\n", e.StagedTask.Name, e.StagedTask.Subject)
		fmt.Fprintf(&b, "Duration: %d minutes (options: %s)\n", e.SelectedDurationMinutes, joinInts(durations))
	case study.PhaseRunning, study.PhasePaused:
		fmt.Fprintf(&b, "Task:     %s (%s)\n", e.CurrentTask.Name, e.CurrentTask.Subject)
		fmt.Fprintf(&b, "Time:     %s left of %d:00 (%d%%)\n", snap.Clock, e.TotalSeconds/60, int(snap.Progress*100))
	case study.PhaseCompleted:
		fmt.Fprintf(&b, "Finished: %s, %d minutes\n", e.PendingRating.TaskName, e.PendingRating.DurationMinutes)
	default:
		fmt.Fprintf(&b, "Clock:    %s\n", snap.Clock)
	}
	fmt.Fprintf(&b, "Tip:      %s\n", snap.Tip)
	_, err := io.WriteString(w, b.String())
	return err
}

// writeStats renders the analytics summary.
func writeStats(w io.Writer, s study.Summary) error {
	var t table
	t.add("Completion rate", fmt.Sprintf("%d%% (%d of %d tasks)", s.CompletionRate, s.CompletedTasks, s.TotalTasks))
	focus := "-"
	if s.HasAverageFocus {
		focus = fmt.Sprintf("%d over %d rated sessions", s.AverageFocus, s.RatedSessions)
	}
	t.add("Average focus", focus)
	t.add("Study streak", strconv.Itoa(s.StudyStreak))
	t.add("Peak window", string(s.PeakWindow))
	t.add("Focus minutes", fmt.Sprintf("%d over %d sessions", s.TotalFocusMinutes, s.Sessions))
	for _, sc := range s.BySubject {
		t.add("  "+sc.Subject, strconv.Itoa(sc.Sessions))
	}
	return t.write(w)
}

func writeLog(w io.Writer, entries []logging.Entry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No log entries.")
		return err
	}
	for _, e := range entries {
		if _, err := fmt.Fprintln(w, e.String()); err != nil {
			return err
		}
	}
	return nil
}

func joinInts(v []int) string {
	s := make([]string, len(v))
	for i, n := range v {
		s[i] = strconv.Itoa(n)
	}
	return strings.Join(s, " ")
}
