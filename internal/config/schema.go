package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// OptionType represents the expected type of a configuration option value.
type OptionType string

const (
	// TypeString is a plain string value (the default for all config values).
	TypeString OptionType = "string"
	// TypeBool is a boolean value (true/false/yes/no/1/0/on/off).
	TypeBool OptionType = "bool"
	// TypeInt is an integer value.
	TypeInt OptionType = "int"
	// TypeIntList is a comma-separated list of integers (e.g. "15,25,30").
	TypeIntList OptionType = "int-list"
	// TypeDuration is a Go time.Duration value (e.g. "1s", "10s", "1m").
	TypeDuration OptionType = "duration"
	// TypeLevel is a log level: debug, info, warn or error.
	TypeLevel OptionType = "level"
)

// ConfigOption declares a single configuration option with its type, default,
// documentation, and environment variable override.
type ConfigOption struct {
	// Key is the option name as it appears in the config file.
	Key string
	// Type is the expected value type for validation.
	Type OptionType
	// Default is the default value as a string, or "" for no default.
	Default string
	// Description is a human-readable description of the option.
	Description string
	// Section is "" for global options, or a command name.
	Section string
	// EnvVar is the environment variable that overrides this option, or "".
	EnvVar string
}

// ConfigSchema declares the expected configuration options.
type ConfigSchema struct {
	options   []*ConfigOption
	byKey     map[string]*ConfigOption
	bySection map[string]map[string]*ConfigOption
}

// NewSchema creates a new empty ConfigSchema.
func NewSchema() *ConfigSchema {
	return &ConfigSchema{
		byKey:     make(map[string]*ConfigOption),
		bySection: make(map[string]map[string]*ConfigOption),
	}
}

// Register adds a ConfigOption to the schema. The last registration of a key
// within a section wins.
func (s *ConfigSchema) Register(opt ConfigOption) {
	ref := new(ConfigOption)
	*ref = opt
	s.options = append(s.options, ref)
	if opt.Section == "" {
		s.byKey[opt.Key] = ref
		return
	}
	if s.bySection[opt.Section] == nil {
		s.bySection[opt.Section] = make(map[string]*ConfigOption)
	}
	s.bySection[opt.Section][opt.Key] = ref
}

// RegisterAll adds multiple ConfigOptions to the schema.
func (s *ConfigSchema) RegisterAll(opts []ConfigOption) {
	for _, opt := range opts {
		s.Register(opt)
	}
}

// Lookup returns the ConfigOption for a key in a given section ("" for
// global), or nil.
func (s *ConfigSchema) Lookup(section, key string) *ConfigOption {
	if section == "" {
		return s.byKey[key]
	}
	return s.bySection[section][key]
}

// IsKnown returns true if the key is registered in the given section. Global
// keys are known in every section.
func (s *ConfigSchema) IsKnown(section, key string) bool {
	if section != "" && s.bySection[section][key] != nil {
		return true
	}
	return s.byKey[key] != nil
}

// Options returns every registered option, in registration order.
func (s *ConfigSchema) Options() []ConfigOption {
	out := make([]ConfigOption, 0, len(s.options))
	for _, o := range s.options {
		out = append(out, *o)
	}
	return out
}

// SectionOptions returns all registered options for a section ("" for
// global).
func (s *ConfigSchema) SectionOptions(section string) []ConfigOption {
	var out []ConfigOption
	for _, o := range s.options {
		if o.Section == section {
			out = append(out, *o)
		}
	}
	return out
}

// Sections returns the sorted non-empty section names.
func (s *ConfigSchema) Sections() []string {
	out := make([]string, 0, len(s.bySection))
	for sec := range s.bySection {
		out = append(out, sec)
	}
	sort.Strings(out)
	return out
}

// Resolve returns the effective value for a global config key by checking,
// in order: (1) the environment variable declared in the schema for this key,
// (2) the config value, (3) the schema default.
func (s *ConfigSchema) Resolve(c *Config, key string) string {
	opt := s.Lookup("", key)
	if opt != nil && opt.EnvVar != "" {
		if v, ok := os.LookupEnv(opt.EnvVar); ok {
			return v
		}
	}
	if v, ok := c.GetGlobalOption(key); ok {
		return v
	}
	if opt != nil {
		return opt.Default
	}
	return ""
}

// ResolveCommand is Resolve for a command section, falling back to the
// global value and then the section default.
func (s *ConfigSchema) ResolveCommand(c *Config, command, key string) string {
	if v, ok := c.GetCommandOption(command, key); ok {
		return v
	}
	if opt := s.Lookup(command, key); opt != nil {
		return opt.Default
	}
	return s.Resolve(c, key)
}

// ResolveInt resolves key and parses it as an int.
func (s *ConfigSchema) ResolveInt(c *Config, key string) (int, error) {
	v := s.Resolve(c, key)
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("option %q: expected int, got %q", key, v)
	}
	return n, nil
}

// ResolveBool resolves key and parses it as a bool.
func (s *ConfigSchema) ResolveBool(c *Config, key string) (bool, error) {
	v := s.Resolve(c, key)
	b, err := parseBool(v)
	if err != nil {
		return false, fmt.Errorf("option %q: expected bool, got %q", key, v)
	}
	return b, nil
}

// ResolveCommandBool is ResolveCommand parsed as a bool.
func (s *ConfigSchema) ResolveCommandBool(c *Config, command, key string) (bool, error) {
	v := s.ResolveCommand(c, command, key)
	b, err := parseBool(v)
	if err != nil {
		return false, fmt.Errorf("option [%s] %q: expected bool, got %q", command, key, v)
	}
	return b, nil
}

// ResolveDuration resolves key and parses it as a time.Duration.
func (s *ConfigSchema) ResolveDuration(c *Config, key string) (time.Duration, error) {
	v := s.Resolve(c, key)
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("option %q: expected duration, got %q", key, v)
	}
	return d, nil
}

// ResolveIntList resolves key and parses it as a comma-separated int list.
func (s *ConfigSchema) ResolveIntList(c *Config, key string) ([]int, error) {
	v := s.Resolve(c, key)
	list, err := parseIntList(v)
	if err != nil {
		return nil, fmt.Errorf("option %q: expected int list, got %q: %w", key, v, err)
	}
	return list, nil
}

// ValidateConfig checks a loaded Config against the schema and returns a
// sorted list of human-readable issues: unknown options and type mismatches.
func ValidateConfig(c *Config, s *ConfigSchema) []string {
	var issues []string

	for key, value := range c.Global {
		opt := s.Lookup("", key)
		if opt == nil {
			issues = append(issues, fmt.Sprintf("unknown global option: %q (value: %q)", key, value))
			continue
		}
		if err := ValidateValue(opt.Type, value); err != nil {
			issues = append(issues, fmt.Sprintf("global option %q: %v", key, err))
		}
	}

	for section, opts := range c.Commands {
		for key, value := range opts {
			if !s.IsKnown(section, key) {
				issues = append(issues, fmt.Sprintf("unknown option for command %q: %q (value: %q)", section, key, value))
				continue
			}
			opt := s.Lookup(section, key)
			if opt == nil {
				opt = s.Lookup("", key)
			}
			if err := ValidateValue(opt.Type, value); err != nil {
				issues = append(issues, fmt.Sprintf("option %q in [%s]: %v", key, section, err))
			}
		}
	}

	sort.Strings(issues)
	return issues
}

// ValidateValue checks that a string value matches the expected OptionType.
func ValidateValue(t OptionType, value string) error {
	switch t {
	case TypeString, "":
		return nil
	case TypeBool:
		if _, err := parseBool(value); err != nil {
			return fmt.Errorf("expected bool, got %q", value)
		}
	case TypeInt:
		if _, err := strconv.Atoi(value); err != nil {
			return fmt.Errorf("expected int, got %q", value)
		}
	case TypeIntList:
		if _, err := parseIntList(value); err != nil {
			return fmt.Errorf("expected int list, got %q", value)
		}
	case TypeDuration:
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("expected duration, got %q", value)
		}
	case TypeLevel:
		switch strings.ToLower(value) {
		case "debug", "info", "warn", "warning", "error":
		default:
			return fmt.Errorf("expected debug, info, warn or error, got %q", value)
		}
	default:
		return fmt.Errorf("unknown option type %q", t)
	}
	return nil
}

// FormatHelp returns a human-readable reference of all registered options,
// grouped by section.
func (s *ConfigSchema) FormatHelp() string {
	var b strings.Builder

	if globals := s.SectionOptions(""); len(globals) > 0 {
		b.WriteString("Global Options:\n")
		for _, o := range globals {
			writeOptionHelp(&b, o)
		}
	}

	for _, sec := range s.Sections() {
		opts := s.SectionOptions(sec)
		if len(opts) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n[%s] Options:\n", sec)
		for _, o := range opts {
			writeOptionHelp(&b, o)
		}
	}

	b.WriteString("\n[tasks] Section:\n")
	b.WriteString("  One seed task per line: Name | Subject | Difficulty | Minutes | Tip (tip optional)\n")
	b.WriteString("\n[tips] Section:\n")
	b.WriteString("  One idle tip per line, shown in rotation between sessions\n")

	return b.String()
}

func writeOptionHelp(b *strings.Builder, o ConfigOption) {
	fmt.Fprintf(b, "  %-22s %s", o.Key, o.Description)
	parts := make([]string, 0, 3)
	if o.Type != "" && o.Type != TypeString {
		parts = append(parts, fmt.Sprintf("type: %s", o.Type))
	}
	if o.Default != "" {
		parts = append(parts, fmt.Sprintf("default: %s", o.Default))
	}
	if o.EnvVar != "" {
		parts = append(parts, fmt.Sprintf("env: %s", o.EnvVar))
	}
	if len(parts) > 0 {
		fmt.Fprintf(b, " (%s)", strings.Join(parts, ", "))
	}
	b.WriteString("\n")
}

// DefaultSchema returns the schema of every known focusflow option.
func DefaultSchema() *ConfigSchema {
	s := NewSchema()
	s.RegisterAll([]ConfigOption{
		{Key: "duration.options", Type: TypeIntList, Default: "15,25,30,45,60,90", Description: "Session lengths offered, in minutes"},
		{Key: "duration.default", Type: TypeInt, Default: "25", Description: "Preselected session length, in minutes"},
		{Key: "rating.min", Type: TypeInt, Default: "1", Description: "Lowest focus rating"},
		{Key: "rating.max", Type: TypeInt, Default: "10", Description: "Highest focus rating"},
		{Key: "rating.default", Type: TypeInt, Default: "8", Description: "Preselected focus rating"},
		{Key: "tick.interval", Type: TypeDuration, Default: "1s", Description: "Countdown clock period; each tick removes one second"},
		{Key: "tip.interval", Type: TypeDuration, Default: "10s", Description: "Idle tip rotation period"},
		{Key: "tasks.seed-defaults", Type: TypeBool, Default: "true", Description: "Seed the built-in tasks when [tasks] is empty"},
		{Key: "theme", Type: TypeString, Default: "default", Description: "Colour theme: default, mono", EnvVar: "FOCUSFLOW_THEME"},

		{Key: "log.file", Type: TypeString, Default: "", Description: "Log file path (JSON output)", EnvVar: "FOCUSFLOW_LOG_FILE"},
		{Key: "log.level", Type: TypeLevel, Default: "info", Description: "Log level: debug, info, warn, error", EnvVar: "FOCUSFLOW_LOG_LEVEL"},
		{Key: "log.max-size-mb", Type: TypeInt, Default: "10", Description: "Max log file size in MB before rotation"},
		{Key: "log.max-files", Type: TypeInt, Default: "5", Description: "Max number of rotated log backup files"},
		{Key: "log.buffer-size", Type: TypeInt, Default: "1000", Description: "In-memory log buffer size (entries)"},

		{Key: "mouse", Section: "run", Type: TypeBool, Default: "true", Description: "Select tasks by clicking them"},
		{Key: "prompt", Section: "shell", Type: TypeString, Default: "focus> ", Description: "Prompt prefix"},
		{Key: "fail-fast", Section: "exec", Type: TypeBool, Default: "false", Description: "Stop at the first failing command"},
	})
	return s
}
