package study

import (
	"math"
	"sort"
	"time"
)

// PeakWindow is a coarse bucket of the hour of day.
type PeakWindow string

const (
	PeakMorning   PeakWindow = "Morning"
	PeakAfternoon PeakWindow = "Afternoon"
	PeakEvening   PeakWindow = "Evening"
)

// PeakWindowAt buckets t: before noon, before 17:00, or later.
func PeakWindowAt(t time.Time) PeakWindow {
	switch h := t.Hour(); {
	case h < 12:
		return PeakMorning
	case h < 17:
		return PeakAfternoon
	default:
		return PeakEvening
	}
}

// SubjectCount is the number of sessions completed for one subject.
type SubjectCount struct {
	Subject  string
	Sessions int
}

// Summary holds the derived analytics.
type Summary struct {
	TotalTasks     int
	CompletedTasks int
	// CompletionRate is the rounded percentage of tasks completed.
	CompletionRate int

	Sessions      int
	RatedSessions int
	// AverageFocus is only meaningful when HasAverageFocus is true.
	AverageFocus    int
	HasAverageFocus bool

	// StudyStreak is max(1, sessions); it is not calendar aware.
	StudyStreak       int
	PeakWindow        PeakWindow
	TotalFocusMinutes int
	BySubject         []SubjectCount
}

// Summarize computes the analytics for the given tasks and sessions. It
// never modifies its inputs.
func Summarize(tasks []Task, sessions []Record, now time.Time) Summary {
	s := Summary{
		TotalTasks:  len(tasks),
		Sessions:    len(sessions),
		StudyStreak: max(1, len(sessions)),
		PeakWindow:  PeakWindowAt(now),
	}
	for _, t := range tasks {
		if t.Status == StatusCompleted {
			s.CompletedTasks++
		}
	}
	if s.TotalTasks > 0 {
		s.CompletionRate = int(math.Round(100 * float64(s.CompletedTasks) / float64(s.TotalTasks)))
	}

	var ratingSum int
	bySubject := make(map[string]int)
	for _, r := range sessions {
		s.TotalFocusMinutes += r.DurationMinutes
		bySubject[r.Subject]++
		if r.FocusRating != nil {
			s.RatedSessions++
			ratingSum += *r.FocusRating
		}
	}
	if s.RatedSessions > 0 {
		s.HasAverageFocus = true
		s.AverageFocus = int(math.Round(float64(ratingSum) / float64(s.RatedSessions)))
	}

	for subject, n := range bySubject {
		s.BySubject = append(s.BySubject, SubjectCount{Subject: subject, Sessions: n})
	}
	sort.Slice(s.BySubject, func(i, j int) bool {
		if s.BySubject[i].Sessions != s.BySubject[j].Sessions {
			return s.BySubject[i].Sessions > s.BySubject[j].Sessions
		}
		return s.BySubject[i].Subject < s.BySubject[j].Subject
	})
	return s
}
