package study

import (
	"fmt"
	"slices"
	"time"
)

// Settings is the recognized configuration of the study core.
type Settings struct {
	// DurationOptions is the fixed menu of session lengths, in minutes.
	DurationOptions []int
	// DefaultDuration is the selected duration whenever the engine is idle.
	DefaultDuration int

	RatingMin     int
	RatingMax     int
	RatingDefault int

	// TickInterval is the period of the countdown clock. One tick always
	// removes exactly one second from the countdown.
	TickInterval time.Duration
	// TipInterval is the period of the idle tip rotation.
	TipInterval time.Duration

	// Tips are the idle motivational messages.
	Tips []string
	// Tasks seeds the task store.
	Tasks []TaskInput
}

// DefaultSettings returns the built-in configuration.
func DefaultSettings() Settings {
	return Settings{
		DurationOptions: []int{15, 25, 30, 45, 60, 90},
		DefaultDuration: 25,
		RatingMin:       1,
		RatingMax:       10,
		RatingDefault:   8,
		TickInterval:    time.Second,
		TipInterval:     10 * time.Second,
		Tips:            DefaultTips(),
		Tasks:           DefaultTasks(),
	}
}

// DefaultTips returns the idle tip list.
func DefaultTips() []string {
	return []string{
		"🌱 Create your perfect study flow - edit tasks to match today's priorities!",
		"🧠 Your brain thrives on focused 25-minute sessions followed by brief breaks!",
		"⚡ The first 5 minutes are the hardest - push through and flow begins!",
		"🎯 Clear goals and deep focus create the optimal learning state!",
		"🌊 Let your mind flow like water - gentle, persistent, and powerful!",
		"✨ Each completed session builds momentum for the next challenge!",
		"🔥 Your focus muscle grows stronger with every mindful practice!",
	}
}

// Validate checks the settings are self-consistent.
func (s Settings) Validate() error {
	if len(s.DurationOptions) == 0 {
		return fmt.Errorf("at least one duration option is required")
	}
	for _, d := range s.DurationOptions {
		if d <= 0 {
			return fmt.Errorf("duration option must be positive, got %d", d)
		}
	}
	if !slices.Contains(s.DurationOptions, s.DefaultDuration) {
		return fmt.Errorf("default duration %d is not one of the duration options %v", s.DefaultDuration, s.DurationOptions)
	}
	if s.RatingMin > s.RatingMax {
		return fmt.Errorf("rating min %d exceeds max %d", s.RatingMin, s.RatingMax)
	}
	if s.RatingDefault < s.RatingMin || s.RatingDefault > s.RatingMax {
		return fmt.Errorf("rating default %d outside %d-%d", s.RatingDefault, s.RatingMin, s.RatingMax)
	}
	if s.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be positive")
	}
	if s.TipInterval <= 0 {
		return fmt.Errorf("tip interval must be positive")
	}
	return nil
}

// IsDurationOption reports whether minutes is on the duration menu.
func (s Settings) IsDurationOption(minutes int) bool {
	return slices.Contains(s.DurationOptions, minutes)
}
