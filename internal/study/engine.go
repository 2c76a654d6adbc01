package study

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Phase is the state of the session engine.
type Phase int

const (
	// PhaseIdle has no task selected.
	PhaseIdle Phase = iota
	// PhaseStaged has a task selected, awaiting a duration and confirmation.
	PhaseStaged
	// PhaseRunning is counting down.
	PhaseRunning
	// PhasePaused holds the countdown.
	PhasePaused
	// PhaseCompleted has a finished session awaiting its focus rating.
	PhaseCompleted
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseStaged:
		return "staged"
	case PhaseRunning:
		return "running"
	case PhasePaused:
		return "paused"
	case PhaseCompleted:
		return "completed"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// EngineState is a read-only view of the engine.
//
// IsActive is true only while Running or Paused; when it is false
// CurrentTask is nil and SecondsRemaining is zero.
type EngineState struct {
	Phase                   Phase
	CurrentTask             *Task
	StagedTask              *Task
	IsActive                bool
	IsPaused                bool
	SecondsRemaining        int
	TotalSeconds            int
	SelectedDurationMinutes int
	// PendingRating is the session awaiting a rating, set only in PhaseCompleted.
	PendingRating *Record
}

// Clock renders the countdown as MM:SS. While no session is active it shows
// the selected duration.
func (s EngineState) Clock() string {
	if s.IsActive {
		return FormatClock(s.SecondsRemaining)
	}
	return FormatClock(s.SelectedDurationMinutes * 60)
}

// Progress returns the elapsed fraction of the running session, in [0, 1].
func (s EngineState) Progress() float64 {
	if !s.IsActive || s.TotalSeconds <= 0 {
		return 0
	}
	return float64(s.TotalSeconds-s.SecondsRemaining) / float64(s.TotalSeconds)
}

// FormatClock renders seconds as zero-padded MM:SS.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// Engine is the session/timer state machine. It owns the countdown tick and
// the session history, and drives task status transitions in the store.
//
// Engine is not safe for concurrent use: commands and ticks must arrive on
// the scheduler's logical thread.
type Engine struct {
	settings Settings
	store    *Store
	history  *History
	sched    Scheduler
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
	// onTick is called after every tick, including the one that completes.
	onTick func()

	phase     Phase
	taskID    int
	selected  int
	remaining int
	total     int

	cancelTick func()
}

// NewEngine creates an idle engine.
func NewEngine(store *Store, history *History, sched Scheduler, settings Settings) *Engine {
	return &Engine{
		settings: settings,
		store:    store,
		history:  history,
		sched:    sched,
		logger:   slog.New(slog.DiscardHandler),
		now:      time.Now,
		newID:    uuid.NewString,
		selected: settings.DefaultDuration,
	}
}

// Phase returns the current phase.
func (e *Engine) Phase() Phase { return e.phase }

// IsActive reports whether a session is running or paused.
func (e *Engine) IsActive() bool {
	return e.phase == PhaseRunning || e.phase == PhasePaused
}

// TaskID returns the staged or current task, or 0.
func (e *Engine) TaskID() int { return e.taskID }

// SelectTask stages task id for a new session. Selecting a completed task
// is ignored.
func (e *Engine) SelectTask(id int) error {
	const op = "select task"
	t, ok := e.store.Get(id)
	if !ok {
		return notFound(op, id)
	}
	if t.Status == StatusCompleted {
		e.logger.Debug("ignoring selection of completed task", "task", id)
		return nil
	}
	switch e.phase {
	case PhaseRunning, PhasePaused:
		return invalidStatef(op, "a session is already in progress")
	case PhaseCompleted:
		return invalidStatef(op, "the finished session has not been rated")
	}
	e.phase = PhaseStaged
	e.taskID = id
	e.selected = e.settings.DefaultDuration
	e.logger.Debug("task staged", "task", id)
	return nil
}

// CancelSelection drops a staged task. It reports whether anything changed.
func (e *Engine) CancelSelection() bool {
	if e.phase != PhaseStaged {
		return false
	}
	e.toIdle()
	return true
}

// ConfirmStart starts the countdown for the staged task.
func (e *Engine) ConfirmStart(minutes int) error {
	const op = "start session"
	switch e.phase {
	case PhaseStaged:
	case PhaseRunning, PhasePaused:
		return invalidStatef(op, "a session is already in progress")
	default:
		return invalidStatef(op, "no task selected")
	}
	if minutes <= 0 || !e.settings.IsDurationOption(minutes) {
		return validationf(op, "duration %d is not one of %v", minutes, e.settings.DurationOptions)
	}
	if err := e.store.setStatus(e.taskID, StatusActive); err != nil {
		return err
	}
	e.selected = minutes
	e.total = minutes * 60
	e.remaining = e.total
	e.phase = PhaseRunning
	e.startTicker()
	e.logger.Info("session started", "task", e.taskID, "minutes", minutes)
	return nil
}

// TogglePause switches between running and paused. It reports whether
// anything changed; it is a no-op when no session is active.
func (e *Engine) TogglePause() bool {
	switch e.phase {
	case PhaseRunning:
		e.stopTicker()
		e.phase = PhasePaused
		e.logger.Debug("session paused", "task", e.taskID, "remaining", e.remaining)
	case PhasePaused:
		e.phase = PhaseRunning
		e.startTicker()
		e.logger.Debug("session resumed", "task", e.taskID, "remaining", e.remaining)
	default:
		return false
	}
	return true
}

// Skip abandons the active session without recording it. The task goes
// back to pending.
func (e *Engine) Skip() bool {
	if !e.IsActive() {
		return false
	}
	e.stopTicker()
	if err := e.store.setStatus(e.taskID, StatusPending); err != nil {
		e.logger.Warn("skip: could not revert task status", "task", e.taskID, "error", err)
	}
	e.logger.Info("session skipped", "task", e.taskID, "remaining", e.remaining)
	e.toIdle()
	return true
}

// CompleteNow finishes the active session early.
func (e *Engine) CompleteNow() bool {
	if !e.IsActive() {
		return false
	}
	e.complete()
	return true
}

// Tick advances the countdown by one second. It does nothing unless running.
func (e *Engine) Tick() {
	if e.phase != PhaseRunning {
		return
	}
	if e.remaining > 0 {
		e.remaining--
	}
	if e.remaining == 0 {
		e.complete()
	}
	if e.onTick != nil {
		e.onTick()
	}
}

func (e *Engine) complete() {
	e.stopTicker()
	t, _ := e.store.Get(e.taskID)
	if err := e.store.setStatus(e.taskID, StatusCompleted); err != nil {
		e.logger.Warn("complete: could not mark task completed", "task", e.taskID, "error", err)
	}
	rec := Record{
		ID:              e.newID(),
		TaskID:          e.taskID,
		TaskName:        t.Name,
		Subject:         t.Subject,
		DurationMinutes: e.selected,
		ElapsedSeconds:  e.total - e.remaining,
		CompletedAt:     e.now(),
	}
	e.history.append(rec)
	e.phase = PhaseCompleted
	e.taskID = 0
	e.remaining = 0
	e.total = 0
	e.logger.Info("session completed", "task", rec.TaskID, "minutes", rec.DurationMinutes, "elapsed", rec.ElapsedSeconds)
}

// SubmitRating attaches a focus rating and notes to the session that just
// finished, then returns the engine to idle.
func (e *Engine) SubmitRating(rating int, notes string) (Record, error) {
	const op = "submit rating"
	if e.phase != PhaseCompleted {
		return Record{}, invalidStatef(op, "no finished session is awaiting a rating")
	}
	if rating < e.settings.RatingMin || rating > e.settings.RatingMax {
		return Record{}, validationf(op, "rating %d outside %d-%d", rating, e.settings.RatingMin, e.settings.RatingMax)
	}
	rec, err := e.history.rateLatest(rating, notes)
	if err != nil {
		return Record{}, err
	}
	e.logger.Info("session rated", "session", rec.ID, "rating", rating)
	e.toIdle()
	return rec, nil
}

// SkipRating closes the rating prompt, leaving the session unrated.
func (e *Engine) SkipRating() error {
	if e.phase != PhaseCompleted {
		return invalidStatef("skip rating", "no finished session is awaiting a rating")
	}
	e.history.closeRating()
	e.toIdle()
	return nil
}

// Reset abandons any staged, active or unrated session and clears the
// session history. Task statuses are left to the caller.
func (e *Engine) Reset() {
	e.stopTicker()
	e.history.clear()
	e.toIdle()
}

// State returns a snapshot of the engine.
func (e *Engine) State() EngineState {
	s := EngineState{
		Phase:                   e.phase,
		IsActive:                e.IsActive(),
		IsPaused:                e.phase == PhasePaused,
		SelectedDurationMinutes: e.selected,
	}
	if s.IsActive {
		s.SecondsRemaining = e.remaining
		s.TotalSeconds = e.total
		if t, ok := e.store.Get(e.taskID); ok {
			s.CurrentTask = &t
		}
	}
	if e.phase == PhaseStaged {
		if t, ok := e.store.Get(e.taskID); ok {
			s.StagedTask = &t
		}
	}
	if e.phase == PhaseCompleted && e.history.Len() > 0 {
		rec := e.history.records[e.history.Len()-1].clone()
		s.PendingRating = &rec
	}
	return s
}

func (e *Engine) toIdle() {
	e.phase = PhaseIdle
	e.taskID = 0
	e.remaining = 0
	e.total = 0
	e.selected = e.settings.DefaultDuration
}

// startTicker cancels any previous tick before scheduling a new one, so
// repeated start/stop cycles never leave two countdown timers behind.
func (e *Engine) startTicker() {
	e.stopTicker()
	e.cancelTick = e.sched.Every(e.settings.TickInterval, e.Tick)
}

func (e *Engine) stopTicker() {
	if e.cancelTick != nil {
		e.cancelTick()
		e.cancelTick = nil
	}
}
