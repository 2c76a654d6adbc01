package study

import (
	"fmt"
	"log/slog"
	"time"
)

// Snapshot is an immutable view of the whole application state, published
// to subscribers after every mutation.
type Snapshot struct {
	Engine    EngineState
	Tasks     []Task
	Sessions  []Record
	Analytics Summary
	// Tip is the selected task's tip while one is staged or active, otherwise
	// the current idle tip.
	Tip   string
	Clock string
	// Progress is the elapsed fraction of the active session.
	Progress float64
	TakenAt  time.Time
}

// Controller is the application state. It owns the task store, the session
// engine with its history, and the tip rotation, and exposes them only
// through commands and snapshots.
//
// Controller is not safe for concurrent use. All calls, including the
// scheduler callbacks it registers, must happen on one logical thread.
type Controller struct {
	settings Settings
	store    *Store
	history  *History
	engine   *Engine
	tips     *TipRotator
	sched    Scheduler
	logger   *slog.Logger
	now      func() time.Time

	subs     map[int]func(Snapshot)
	nextSub  int
	stopTips func()
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock overrides the wall clock used for timestamps and analytics.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithLogger sets the logger for state transitions.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// WithIDGenerator overrides how session record IDs are generated.
func WithIDGenerator(fn func() string) Option {
	return func(c *Controller) { c.engine.newID = fn }
}

// NewController builds the application state from settings. The scheduler
// drives the countdown and tip rotation; call Start to begin rotating tips.
func NewController(settings Settings, sched Scheduler, opts ...Option) (*Controller, error) {
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	if sched == nil {
		return nil, fmt.Errorf("nil scheduler")
	}
	store, err := NewStore(settings.Tasks)
	if err != nil {
		return nil, fmt.Errorf("seeding tasks: %w", err)
	}
	history := &History{}
	c := &Controller{
		settings: settings,
		store:    store,
		history:  history,
		engine:   NewEngine(store, history, sched, settings),
		tips:     NewTipRotator(settings.Tips),
		sched:    sched,
		logger:   slog.New(slog.DiscardHandler),
		now:      time.Now,
		subs:     make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.engine.logger = c.logger
	c.engine.now = c.now
	c.engine.onTick = c.publish
	return c, nil
}

// Settings returns the configuration the controller was built with.
func (c *Controller) Settings() Settings { return c.settings }

// Start begins the idle tip rotation. Calling it again restarts the rotation.
func (c *Controller) Start() {
	c.stopTipRotation()
	c.stopTips = c.sched.Every(c.settings.TipInterval, c.rotateTip)
}

// Close stops every schedule the controller owns.
func (c *Controller) Close() {
	c.stopTipRotation()
	c.engine.stopTicker()
}

func (c *Controller) stopTipRotation() {
	if c.stopTips != nil {
		c.stopTips()
		c.stopTips = nil
	}
}

func (c *Controller) rotateTip() {
	if c.engine.IsActive() {
		return
	}
	c.tips.Advance()
	c.publish()
}

// Subscribe registers fn to receive a snapshot after every mutation. The
// current snapshot is delivered immediately. The returned func unsubscribes.
func (c *Controller) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.logger.Debug("subscriber added", "subscribers", len(c.subs))
	fn(c.Snapshot())
	return func() {
		if _, ok := c.subs[id]; !ok {
			return
		}
		delete(c.subs, id)
		c.logger.Debug("subscriber removed", "subscribers", len(c.subs))
	}
}

func (c *Controller) publish() {
	if len(c.subs) == 0 {
		return
	}
	snap := c.Snapshot()
	for _, fn := range c.subs {
		fn(snap)
	}
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	now := c.now()
	es := c.engine.State()
	tasks := c.store.List()
	sessions := c.history.List()
	snap := Snapshot{
		Engine:    es,
		Tasks:     tasks,
		Sessions:  sessions,
		Analytics: Summarize(tasks, sessions, now),
		Clock:     es.Clock(),
		Progress:  es.Progress(),
		TakenAt:   now,
	}
	switch {
	case es.CurrentTask != nil:
		snap.Tip = taskTip(es.CurrentTask)
	case es.StagedTask != nil:
		snap.Tip = taskTip(es.StagedTask)
	default:
		snap.Tip = c.tips.Current()
	}
	return snap
}

// Analytics returns the derived metrics only.
func (c *Controller) Analytics() Summary {
	return Summarize(c.store.List(), c.history.List(), c.now())
}

// Tasks returns a copy of the task list.
func (c *Controller) Tasks() []Task { return c.store.List() }

// SelectTask stages a task for a new session.
func (c *Controller) SelectTask(id int) error {
	if err := c.engine.SelectTask(id); err != nil {
		return err
	}
	c.publish()
	return nil
}

// CancelSelection drops the staged task, if any.
func (c *Controller) CancelSelection() {
	if c.engine.CancelSelection() {
		c.publish()
	}
}

// ConfirmStart starts the staged task with the given duration in minutes.
func (c *Controller) ConfirmStart(minutes int) error {
	if err := c.engine.ConfirmStart(minutes); err != nil {
		return err
	}
	c.publish()
	return nil
}

// TogglePause pauses or resumes the active session.
func (c *Controller) TogglePause() {
	if c.engine.TogglePause() {
		c.publish()
	}
}

// Skip abandons the active session.
func (c *Controller) Skip() {
	if c.engine.Skip() {
		c.publish()
	}
}

// CompleteNow finishes the active session immediately.
func (c *Controller) CompleteNow() {
	if c.engine.CompleteNow() {
		c.publish()
	}
}

// SubmitRating rates the session that just finished.
func (c *Controller) SubmitRating(rating int, notes string) (Record, error) {
	rec, err := c.engine.SubmitRating(rating, notes)
	if err != nil {
		return Record{}, err
	}
	c.publish()
	return rec, nil
}

// SkipRating closes the rating prompt without rating.
func (c *Controller) SkipRating() error {
	if err := c.engine.SkipRating(); err != nil {
		return err
	}
	c.publish()
	return nil
}

// AddTask adds a pending task.
func (c *Controller) AddTask(in TaskInput) (Task, error) {
	t, err := c.store.Add(in)
	if err != nil {
		return Task{}, err
	}
	c.logger.Info("task added", "task", t.ID, "name", t.Name)
	c.publish()
	return t, nil
}

// EditTask overwrites the editable fields of a task.
func (c *Controller) EditTask(id int, in TaskInput) (Task, error) {
	t, err := c.store.Edit(id, in)
	if err != nil {
		return Task{}, err
	}
	c.logger.Info("task edited", "task", t.ID)
	c.publish()
	return t, nil
}

// DeleteTask removes a task. The staged or running task cannot be deleted
// until its session is cancelled.
func (c *Controller) DeleteTask(id int) error {
	if c.engine.TaskID() == id {
		switch c.engine.Phase() {
		case PhaseStaged, PhaseRunning, PhasePaused:
			return invalidStatef("delete task", "task %d is in use by the current session", id)
		}
	}
	if err := c.store.Delete(id); err != nil {
		return err
	}
	c.logger.Info("task deleted", "task", id)
	c.publish()
	return nil
}

// ResetAll abandons any session in progress, puts every task back to
// pending and clears the session history.
func (c *Controller) ResetAll() {
	c.engine.Reset()
	c.store.ResetAll()
	c.logger.Info("all tasks reset")
	c.publish()
}

// Resync re-publishes the current state, for example after a view regains
// focus. Remaining time comes from the countdown, not from the wall clock.
func (c *Controller) Resync() {
	c.publish()
}
