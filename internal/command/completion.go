package command

import (
	"strconv"
	"strings"

	"github.com/joeycumines/focus-flow/internal/study"
)

// suggestion is a completion candidate.
type suggestion struct {
	Text        string
	Description string
}

// suggest completes the word under the cursor. start and end are the rune
// span to replace.
func (in *Interpreter) suggest(before string) (out []suggestion, start, end int) {
	completed, current := currentWord(before)
	start, end = current.Start, current.End

	var candidates []suggestion
	if len(completed) == 0 {
		for _, c := range lineCommands {
			candidates = append(candidates, suggestion{Text: c.name, Description: c.help})
		}
	} else {
		candidates = in.argCandidates(completed[0], len(completed)-1)
	}

	for _, c := range candidates {
		if strings.HasPrefix(strings.ToLower(c.Text), strings.ToLower(current.Text)) {
			out = append(out, c)
		}
	}
	return out, start, end
}

// argCandidates returns candidates for argument pos (zero based) of cmd.
func (in *Interpreter) argCandidates(cmd string, pos int) []suggestion {
	switch {
	case (cmd == "select" || cmd == "delete" || cmd == "edit") && pos == 0:
		var tasks []study.Task
		if err := in.do(func() error {
			tasks = in.ctrl.Tasks()
			return nil
		}); err != nil {
			return nil
		}
		out := make([]suggestion, 0, len(tasks))
		for _, t := range tasks {
			if cmd == "select" && t.Status == study.StatusCompleted {
				continue
			}
			out = append(out, suggestion{Text: strconv.Itoa(t.ID), Description: t.Name})
		}
		return out
	case cmd == "start" && pos == 0:
		var options []int
		_ = in.do(func() error {
			options = in.ctrl.Settings().DurationOptions
			return nil
		})
		out := make([]suggestion, 0, len(options))
		for _, m := range options {
			out = append(out, suggestion{Text: strconv.Itoa(m), Description: "minutes"})
		}
		return out
	case cmd == "log" && pos == 0:
		return []suggestion{
			{Text: "search", Description: "entries containing text"},
			{Text: "clear", Description: "drop buffered entries"},
		}
	case (cmd == "add" && pos == 2) || (cmd == "edit" && pos == 3):
		out := make([]suggestion, 0, len(study.Difficulties))
		for _, d := range study.Difficulties {
			out = append(out, suggestion{Text: string(d), Description: "difficulty"})
		}
		return out
	}
	return nil
}
