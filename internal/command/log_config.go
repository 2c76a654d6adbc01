package command

import (
	"flag"

	"github.com/joeycumines/focus-flow/internal/config"
	"github.com/joeycumines/focus-flow/internal/logging"
)

// logFlags are the logging overrides shared by session commands.
type logFlags struct {
	level string
	file  string
}

func (f *logFlags) setupFlags(fs *flag.FlagSet) {
	fs.StringVar(&f.level, "log-level", "", "Log level: debug, info, warn, error (default from config)")
	fs.StringVar(&f.file, "log-file", "", "Write JSON logs to this file (default from config)")
}

// resolveLogOptions resolves logging configuration from flags and config.
// Flag values take precedence; config values (including their environment
// overrides) are used when a flag is unset. cfg may be nil.
func resolveLogOptions(flags logFlags, cfg *config.Config) (logging.Options, error) {
	schema := config.DefaultSchema()
	if cfg == nil {
		cfg = config.NewConfig()
	}
	resolveInt := func(key string, fallback int) int {
		n, err := schema.ResolveInt(cfg, key)
		if err != nil {
			return fallback
		}
		return n
	}

	var opts logging.Options

	// Level: flag → config → info.
	levelStr := flags.level
	if levelStr == "" {
		levelStr = schema.Resolve(cfg, "log.level")
	}
	level, err := logging.ParseLevel(levelStr)
	if err != nil {
		return opts, err
	}
	opts.Level = level

	opts.BufferSize = resolveInt("log.buffer-size", 1000)
	if opts.BufferSize <= 0 {
		opts.BufferSize = 1000
	}

	opts.File = flags.file
	if opts.File == "" {
		opts.File = schema.Resolve(cfg, "log.file")
	}
	if opts.File != "" {
		opts.MaxSizeMB = resolveInt("log.max-size-mb", 10)
		if opts.MaxSizeMB <= 0 {
			opts.MaxSizeMB = 10
		}
		// Zero backups is valid: the file is truncated on rotation.
		opts.MaxFiles = resolveInt("log.max-files", 5)
		if opts.MaxFiles < 0 {
			opts.MaxFiles = 5
		}
	}
	return opts, nil
}
