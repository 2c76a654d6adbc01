package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/joeycumines/focus-flow/internal/study"
)

const (
	fieldName = iota
	fieldSubject
	fieldDifficulty
	fieldMinutes
	fieldTip
	fieldCount
)

var fieldLabels = [fieldCount]string{"Name", "Subject", "Difficulty", "Minutes", "Tip"}

// taskForm edits the fields of a new or existing task. editing is the id
// of the task being edited, or 0 when adding.
type taskForm struct {
	editing int
	focus   int
	inputs  [fieldCount]textinput.Model
}

func newTaskForm(task *study.Task, defaultMinutes int) taskForm {
	f := taskForm{}
	placeholders := [fieldCount]string{"Chapter 3 review", "Biology", "Easy, Medium or Hard", "25", "optional"}
	for i := range f.inputs {
		in := textinput.New()
		in.Prompt = ""
		in.Placeholder = placeholders[i]
		in.CharLimit = 120
		f.inputs[i] = in
	}
	f.inputs[fieldDifficulty].SetValue(string(study.DifficultyMedium))
	f.inputs[fieldMinutes].SetValue(strconv.Itoa(defaultMinutes))
	if task != nil {
		f.editing = task.ID
		f.inputs[fieldName].SetValue(task.Name)
		f.inputs[fieldSubject].SetValue(task.Subject)
		f.inputs[fieldDifficulty].SetValue(string(task.Difficulty))
		f.inputs[fieldMinutes].SetValue(strconv.Itoa(task.DurationMinutes))
		f.inputs[fieldTip].SetValue(task.Tip)
	}
	f.inputs[fieldName].Focus()
	return f
}

// move shifts focus by delta, wrapping around.
func (f *taskForm) move(delta int) tea.Cmd {
	f.inputs[f.focus].Blur()
	f.focus = (f.focus + delta + fieldCount) % fieldCount
	return f.inputs[f.focus].Focus()
}

func (f *taskForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

// input parses the form. Name and range checks are left to the store.
func (f *taskForm) input() (study.TaskInput, error) {
	difficulty, err := study.ParseDifficulty(strings.TrimSpace(f.inputs[fieldDifficulty].Value()))
	if err != nil {
		return study.TaskInput{}, err
	}
	minutes, err := strconv.Atoi(strings.TrimSpace(f.inputs[fieldMinutes].Value()))
	if err != nil {
		return study.TaskInput{}, fmt.Errorf("minutes must be a whole number")
	}
	return study.TaskInput{
		Name:            f.inputs[fieldName].Value(),
		Subject:         f.inputs[fieldSubject].Value(),
		Difficulty:      difficulty,
		DurationMinutes: minutes,
		Tip:             f.inputs[fieldTip].Value(),
	}, nil
}

func (f *taskForm) view(t Theme) string {
	var b strings.Builder
	heading := "New task"
	if f.editing != 0 {
		heading = fmt.Sprintf("Edit task %d", f.editing)
	}
	b.WriteString(t.Title.Render(heading))
	b.WriteByte('\n')
	for i, in := range f.inputs {
		label := fmt.Sprintf("%-11s", fieldLabels[i])
		if i == f.focus {
			label = t.Cursor.Render(label)
		} else {
			label = t.Muted.Render(label)
		}
		b.WriteString(label)
		b.WriteString(in.View())
		b.WriteByte('\n')
	}
	b.WriteString(t.Muted.Render("tab: next field • enter: save • esc: cancel"))
	return b.String()
}
