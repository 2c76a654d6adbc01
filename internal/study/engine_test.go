package study

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

type engineFixture struct {
	store   *Store
	history *History
	sched   *ManualScheduler
	engine  *Engine
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()
	settings := DefaultSettings()
	store, err := NewStore([]TaskInput{
		{Name: "Physics", Subject: "Physics", Difficulty: DifficultyHard, DurationMinutes: 60, Tip: "steps"},
		{Name: "Chemistry", Subject: "Chemistry", Difficulty: DifficultyMedium, DurationMinutes: 45},
		{Name: "Biology", Subject: "Biology", Difficulty: DifficultyEasy, DurationMinutes: 30},
	})
	require.NoError(t, err)
	f := &engineFixture{store: store, history: &History{}, sched: &ManualScheduler{}}
	f.engine = NewEngine(f.store, f.history, f.sched, settings)
	f.engine.now = func() time.Time { return fixedNow }
	n := 0
	f.engine.newID = func() string {
		n++
		return fmt.Sprintf("rec-%d", n)
	}
	return f
}

func (f *engineFixture) tick(n int) {
	f.sched.Advance(time.Duration(n) * time.Second)
}

func (f *engineFixture) start(t *testing.T, id, minutes int) {
	t.Helper()
	require.NoError(t, f.engine.SelectTask(id))
	require.NoError(t, f.engine.ConfirmStart(minutes))
}

func (f *engineFixture) status(id int) Status {
	task, _ := f.store.Get(id)
	return task.Status
}

func (f *engineFixture) checkInvariants(t *testing.T) {
	t.Helper()
	st := f.engine.State()
	if !st.IsActive {
		assert.Nil(t, st.CurrentTask, "inactive engine has no current task")
		assert.Zero(t, st.SecondsRemaining, "inactive engine has no remaining time")
	}
	if st.IsPaused {
		assert.True(t, st.IsActive, "paused implies active")
	}
	assert.GreaterOrEqual(t, st.SecondsRemaining, 0)
	assert.LessOrEqual(t, f.sched.Active(), 1, "at most one countdown timer")

	active := 0
	for _, task := range f.store.List() {
		if task.Status == StatusActive {
			active++
		}
	}
	assert.LessOrEqual(t, active, 1, "at most one active task")
	if st.IsActive {
		assert.Equal(t, 1, active)
	}
}

func TestEngine_CountdownCompletesAfterExactlyNTimes60Ticks(t *testing.T) {
	for _, minutes := range DefaultSettings().DurationOptions {
		t.Run(fmt.Sprintf("%dm", minutes), func(t *testing.T) {
			f := newEngineFixture(t)
			f.start(t, 1, minutes)
			assert.Equal(t, minutes*60, f.engine.State().SecondsRemaining)

			f.tick(minutes*60 - 1)
			st := f.engine.State()
			assert.Equal(t, PhaseRunning, st.Phase)
			assert.Equal(t, 1, st.SecondsRemaining)
			assert.Zero(t, f.history.Len())

			f.tick(1)
			st = f.engine.State()
			assert.Equal(t, PhaseCompleted, st.Phase)
			assert.Zero(t, st.SecondsRemaining)
			assert.Equal(t, StatusCompleted, f.status(1))
			require.Equal(t, 1, f.history.Len())
			assert.Zero(t, f.sched.Active(), "tick must stop at zero")

			f.tick(120)
			assert.Equal(t, 1, f.history.Len(), "completion happens exactly once")
			f.checkInvariants(t)
		})
	}
}

func TestEngine_TickDisplayTracksRemaining(t *testing.T) {
	f := newEngineFixture(t)
	f.start(t, 1, 25)
	assert.Equal(t, "25:00", f.engine.State().Clock())
	f.tick(1)
	assert.Equal(t, "24:59", f.engine.State().Clock())
	f.tick(59)
	assert.Equal(t, "24:00", f.engine.State().Clock())
	assert.InDelta(t, 60.0/1500.0, f.engine.State().Progress(), 1e-9)
}

func TestEngine_SelectTask(t *testing.T) {
	f := newEngineFixture(t)

	assert.ErrorIs(t, f.engine.SelectTask(99), ErrNotFound)

	require.NoError(t, f.engine.SelectTask(2))
	st := f.engine.State()
	assert.Equal(t, PhaseStaged, st.Phase)
	require.NotNil(t, st.StagedTask)
	assert.Equal(t, 2, st.StagedTask.ID)
	assert.Nil(t, st.CurrentTask)
	assert.False(t, st.IsActive)
	assert.Equal(t, StatusPending, f.status(2), "staging does not change status")
	assert.Equal(t, "25:00", st.Clock())
	f.checkInvariants(t)

	require.NoError(t, f.engine.SelectTask(3), "re-selecting replaces the staged task")
	assert.Equal(t, 3, f.engine.State().StagedTask.ID)

	assert.True(t, f.engine.CancelSelection())
	assert.Equal(t, PhaseIdle, f.engine.Phase())
	assert.False(t, f.engine.CancelSelection())
}

func TestEngine_SelectCompletedTaskIsIgnored(t *testing.T) {
	f := newEngineFixture(t)
	f.start(t, 1, 25)
	f.engine.CompleteNow()
	require.NoError(t, f.engine.SkipRating())

	before := f.engine.State()
	require.NoError(t, f.engine.SelectTask(1))
	assert.Equal(t, before, f.engine.State())
	assert.Equal(t, StatusCompleted, f.status(1))
	assert.ErrorIs(t, f.engine.ConfirmStart(25), ErrInvalidState)
}

func TestEngine_ConfirmStart(t *testing.T) {
	f := newEngineFixture(t)
	assert.ErrorIs(t, f.engine.ConfirmStart(25), ErrInvalidState, "no task staged")

	require.NoError(t, f.engine.SelectTask(1))
	assert.ErrorIs(t, f.engine.ConfirmStart(0), ErrValidation)
	assert.ErrorIs(t, f.engine.ConfirmStart(26), ErrValidation, "not on the duration menu")
	assert.Equal(t, PhaseStaged, f.engine.Phase(), "failed confirm keeps the selection")

	require.NoError(t, f.engine.ConfirmStart(45))
	st := f.engine.State()
	assert.Equal(t, PhaseRunning, st.Phase)
	assert.True(t, st.IsActive)
	assert.Equal(t, 45, st.SelectedDurationMinutes)
	assert.Equal(t, 45*60, st.TotalSeconds)
	require.NotNil(t, st.CurrentTask)
	assert.Equal(t, StatusActive, st.CurrentTask.Status)
	assert.Equal(t, 1, f.sched.Active())

	assert.ErrorIs(t, f.engine.ConfirmStart(25), ErrInvalidState)
	assert.ErrorIs(t, f.engine.SelectTask(2), ErrInvalidState)
	f.checkInvariants(t)
}

func TestEngine_PauseResume(t *testing.T) {
	f := newEngineFixture(t)
	assert.False(t, f.engine.TogglePause(), "no-op when idle")

	f.start(t, 1, 15)
	f.tick(10)
	require.True(t, f.engine.TogglePause())
	st := f.engine.State()
	assert.True(t, st.IsPaused)
	assert.Equal(t, PhasePaused, st.Phase)
	assert.Zero(t, f.sched.Active(), "paused sessions hold no timer")

	f.tick(300)
	assert.Equal(t, 15*60-10, f.engine.State().SecondsRemaining, "paused countdown does not move")

	require.True(t, f.engine.TogglePause())
	f.tick(5)
	assert.Equal(t, 15*60-15, f.engine.State().SecondsRemaining)
	f.checkInvariants(t)
}

func TestEngine_RepeatedToggleKeepsOneTimer(t *testing.T) {
	f := newEngineFixture(t)
	f.start(t, 1, 15)
	for i := 0; i < 50; i++ {
		f.engine.TogglePause()
		f.checkInvariants(t)
	}
	// An even number of toggles leaves the session running.
	assert.Equal(t, PhaseRunning, f.engine.Phase())
	assert.Equal(t, 1, f.sched.Active())
	f.tick(1)
	assert.Equal(t, 15*60-1, f.engine.State().SecondsRemaining, "one tick, not one per restart")
}

func TestEngine_Skip(t *testing.T) {
	f := newEngineFixture(t)
	assert.False(t, f.engine.Skip(), "no-op when idle")

	f.start(t, 2, 25)
	f.tick(100)
	require.True(t, f.engine.Skip())

	st := f.engine.State()
	assert.Equal(t, PhaseIdle, st.Phase)
	assert.Equal(t, StatusPending, f.status(2))
	assert.Zero(t, f.history.Len(), "skip records nothing")
	assert.Zero(t, f.sched.Active())
	assert.Equal(t, 25, st.SelectedDurationMinutes)
	f.checkInvariants(t)

	// Skipping while paused behaves the same.
	f.start(t, 2, 30)
	f.engine.TogglePause()
	require.True(t, f.engine.Skip())
	assert.Equal(t, StatusPending, f.status(2))
	assert.Zero(t, f.history.Len())
}

func TestEngine_CompleteNow(t *testing.T) {
	f := newEngineFixture(t)
	assert.False(t, f.engine.CompleteNow(), "no-op when idle")

	f.start(t, 1, 30)
	f.tick(90)
	f.engine.TogglePause()
	require.True(t, f.engine.CompleteNow())

	st := f.engine.State()
	assert.Equal(t, PhaseCompleted, st.Phase)
	assert.False(t, st.IsActive)
	assert.Nil(t, st.CurrentTask)
	require.NotNil(t, st.PendingRating)
	assert.Equal(t, Record{
		ID:              "rec-1",
		TaskID:          1,
		TaskName:        "Physics",
		Subject:         "Physics",
		DurationMinutes: 30,
		ElapsedSeconds:  90,
		CompletedAt:     fixedNow,
	}, *st.PendingRating)
	assert.Equal(t, StatusCompleted, f.status(1))
	assert.Equal(t, 1, f.history.Len())

	assert.False(t, f.engine.TogglePause(), "no pause while awaiting rating")
	assert.False(t, f.engine.Skip())
	assert.False(t, f.engine.CompleteNow())
	assert.Equal(t, 1, f.history.Len())
	assert.ErrorIs(t, f.engine.SelectTask(2), ErrInvalidState, "rate before starting another session")
	f.checkInvariants(t)
}

func TestEngine_SubmitRating(t *testing.T) {
	f := newEngineFixture(t)
	_, err := f.engine.SubmitRating(8, "")
	assert.ErrorIs(t, err, ErrInvalidState, "nothing to rate yet")

	f.start(t, 1, 15)
	f.tick(15 * 60)
	require.Equal(t, PhaseCompleted, f.engine.Phase())

	_, err = f.engine.SubmitRating(0, "")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.engine.SubmitRating(11, "")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, PhaseCompleted, f.engine.Phase(), "invalid rating keeps the prompt open")

	rec, err := f.engine.SubmitRating(9, "good flow")
	require.NoError(t, err)
	require.NotNil(t, rec.FocusRating)
	assert.Equal(t, 9, *rec.FocusRating)
	assert.Equal(t, "good flow", rec.Notes)

	st := f.engine.State()
	assert.Equal(t, PhaseIdle, st.Phase)
	assert.Equal(t, 25, st.SelectedDurationMinutes)
	assert.Nil(t, st.PendingRating)

	_, err = f.engine.SubmitRating(7, "again")
	assert.ErrorIs(t, err, ErrInvalidState, "second rating without a new session")
	list := f.history.List()
	require.Len(t, list, 1)
	assert.Equal(t, 9, *list[0].FocusRating)
}

func TestEngine_SkipRating(t *testing.T) {
	f := newEngineFixture(t)
	assert.ErrorIs(t, f.engine.SkipRating(), ErrInvalidState)

	f.start(t, 1, 15)
	f.engine.CompleteNow()
	require.NoError(t, f.engine.SkipRating())
	assert.Equal(t, PhaseIdle, f.engine.Phase())

	list := f.history.List()
	require.Len(t, list, 1)
	assert.False(t, list[0].Rated())

	_, err := f.engine.SubmitRating(5, "")
	assert.ErrorIs(t, err, ErrInvalidState, "a skipped rating cannot be filled in later")
}

func TestEngine_RatingAttachesToNewestSession(t *testing.T) {
	f := newEngineFixture(t)

	f.start(t, 1, 15)
	f.engine.CompleteNow()
	_, err := f.engine.SubmitRating(6, "")
	require.NoError(t, err)

	f.start(t, 2, 25)
	f.engine.CompleteNow()
	_, err = f.engine.SubmitRating(10, "best")
	require.NoError(t, err)

	list := f.history.List()
	require.Len(t, list, 2)
	assert.Equal(t, 6, *list[0].FocusRating)
	assert.Equal(t, 10, *list[1].FocusRating)
	assert.Equal(t, "best", list[1].Notes)
}

func TestEngine_Reset(t *testing.T) {
	f := newEngineFixture(t)
	f.start(t, 1, 15)
	f.engine.CompleteNow()
	_, _ = f.engine.SubmitRating(8, "")
	f.start(t, 2, 15)

	f.engine.Reset()
	assert.Equal(t, PhaseIdle, f.engine.Phase())
	assert.Zero(t, f.history.Len())
	assert.Zero(t, f.sched.Active())
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "running", PhaseRunning.String())
	assert.Equal(t, "Phase(42)", Phase(42).String())
}

func TestFormatClock(t *testing.T) {
	for seconds, want := range map[int]string{
		0:    "00:00",
		59:   "00:59",
		60:   "01:00",
		1500: "25:00",
		5400: "90:00",
		-3:   "00:00",
	} {
		assert.Equal(t, want, FormatClock(seconds), "seconds=%d", seconds)
	}
}
