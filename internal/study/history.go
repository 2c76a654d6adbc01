package study

import (
	"time"
)

// Record is a completed focus session. The task fields are copied at
// completion time so later edits or deletes do not rewrite history.
type Record struct {
	ID              string
	TaskID          int
	TaskName        string
	Subject         string
	DurationMinutes int
	ElapsedSeconds  int
	CompletedAt     time.Time
	// FocusRating is nil until a rating is submitted.
	FocusRating *int
	Notes       string
}

// Rated reports whether a focus rating has been attached.
func (r Record) Rated() bool { return r.FocusRating != nil }

func (r Record) clone() Record {
	if r.FocusRating != nil {
		v := *r.FocusRating
		r.FocusRating = &v
	}
	return r
}

// History is the append-only list of completed sessions.
type History struct {
	records []Record
	// rated tracks whether the newest record has had its rating step
	// resolved, so a skipped rating cannot be filled in later.
	rated bool
}

func (h *History) append(r Record) {
	h.records = append(h.records, r)
	h.rated = false
}

// rateLatest attaches a rating to the newest record, which must still be open.
func (h *History) rateLatest(rating int, notes string) (Record, error) {
	const op = "submit rating"
	if len(h.records) == 0 {
		return Record{}, invalidStatef(op, "no session to rate")
	}
	last := &h.records[len(h.records)-1]
	if h.rated || last.FocusRating != nil {
		return Record{}, invalidStatef(op, "latest session already rated")
	}
	v := rating
	last.FocusRating = &v
	last.Notes = notes
	h.rated = true
	return last.clone(), nil
}

func (h *History) closeRating() {
	h.rated = true
}

func (h *History) clear() {
	h.records = nil
	h.rated = false
}

// Len returns the number of records.
func (h *History) Len() int { return len(h.records) }

// List returns deep copies of all records, oldest first.
func (h *History) List() []Record {
	out := make([]Record, len(h.records))
	for i, r := range h.records {
		out[i] = r.clone()
	}
	return out
}
