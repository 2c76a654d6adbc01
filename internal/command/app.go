package command

import (
	"flag"
	"fmt"

	"github.com/joeycumines/focus-flow/internal/config"
	"github.com/joeycumines/focus-flow/internal/logging"
	"github.com/joeycumines/focus-flow/internal/study"
)

// settingsFromConfig builds the study settings from the effective
// configuration. [tasks] replaces the built-in tasks, which are otherwise
// seeded unless tasks.seed-defaults is false. [tips] replaces the idle tips.
func settingsFromConfig(cfg *config.Config) (study.Settings, error) {
	s, err := resolveSettings(cfg)
	if err != nil {
		return s, fmt.Errorf("invalid configuration: %w", err)
	}
	return s, nil
}

func resolveSettings(cfg *config.Config) (study.Settings, error) {
	schema := config.DefaultSchema()
	s := study.DefaultSettings()

	var err error
	if s.DurationOptions, err = schema.ResolveIntList(cfg, "duration.options"); err != nil {
		return s, err
	}
	if s.DefaultDuration, err = schema.ResolveInt(cfg, "duration.default"); err != nil {
		return s, err
	}
	if s.RatingMin, err = schema.ResolveInt(cfg, "rating.min"); err != nil {
		return s, err
	}
	if s.RatingMax, err = schema.ResolveInt(cfg, "rating.max"); err != nil {
		return s, err
	}
	if s.RatingDefault, err = schema.ResolveInt(cfg, "rating.default"); err != nil {
		return s, err
	}
	if s.TickInterval, err = schema.ResolveDuration(cfg, "tick.interval"); err != nil {
		return s, err
	}
	if s.TipInterval, err = schema.ResolveDuration(cfg, "tip.interval"); err != nil {
		return s, err
	}

	if len(cfg.Tips) > 0 {
		s.Tips = append([]string(nil), cfg.Tips...)
	}

	seedDefaults, err := schema.ResolveBool(cfg, "tasks.seed-defaults")
	if err != nil {
		return s, err
	}
	switch {
	case len(cfg.Tasks) > 0:
		s.Tasks = make([]study.TaskInput, 0, len(cfg.Tasks))
		for _, seed := range cfg.Tasks {
			difficulty, err := study.ParseDifficulty(seed.Difficulty)
			if err != nil {
				return s, fmt.Errorf("task %q: %w", seed.Name, err)
			}
			s.Tasks = append(s.Tasks, study.TaskInput{
				Name:            seed.Name,
				Subject:         seed.Subject,
				Difficulty:      difficulty,
				DurationMinutes: seed.Minutes,
				Tip:             seed.Tip,
			})
		}
	case !seedDefaults:
		s.Tasks = nil
	}

	return s, s.Validate()
}

// sessionOptions holds what every command that drives a study session
// needs: the loaded configuration and the logging overrides.
type sessionOptions struct {
	config *config.Config
	logs   logFlags
}

func (o *sessionOptions) setupFlags(fs *flag.FlagSet) {
	o.logs.setupFlags(fs)
}

// open builds the logger and a controller scheduled by sched. The caller
// must Close the logger after the controller is closed.
func (o *sessionOptions) open(sched study.Scheduler) (*study.Controller, *logging.Logger, error) {
	settings, err := settingsFromConfig(o.config)
	if err != nil {
		return nil, nil, err
	}
	logOpts, err := resolveLogOptions(o.logs, o.config)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.Setup(logOpts)
	if err != nil {
		return nil, nil, err
	}
	for _, w := range o.config.Warnings {
		logger.Warn("config", "issue", w)
	}
	ctrl, err := study.NewController(settings, sched, study.WithLogger(logger.Logger))
	if err != nil {
		_ = logger.Close()
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return ctrl, logger, nil
}
