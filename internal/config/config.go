package config

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Config represents the application configuration.
type Config struct {
	// Global options that apply to all commands
	Global map[string]string
	// Command-specific options
	Commands map[string]map[string]string
	// Tasks are the seed tasks from the [tasks] section, in file order.
	Tasks []TaskSeed
	// Tips are the idle tips from the [tips] section, in file order.
	Tips []string
	// Warnings contains any warnings generated during config loading
	Warnings []string
}

// TaskSeed is one line of the [tasks] section:
//
//	Name | Subject | Difficulty | Minutes | Tip
//
// The tip is optional.
type TaskSeed struct {
	Name       string
	Subject    string
	Difficulty string
	Minutes    int
	Tip        string
}

// NewConfig creates a new empty configuration.
func NewConfig() *Config {
	return &Config{
		Global:   make(map[string]string),
		Commands: make(map[string]map[string]string),
		Warnings: make([]string, 0),
	}
}

// Load loads configuration from the default config file path.
func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}
	return LoadFromPath(configPath)
}

// LoadFromPath loads configuration from the specified file path. A missing
// file yields an empty configuration. Symlinks are rejected.
func LoadFromPath(path string) (*Config, error) {
	fi, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewConfig(), nil
		}
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fi.Mode()&os.ModeSymlink != 0 {
		return nil, fmt.Errorf("symlink not allowed in config path: %s", path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	return LoadFromReader(file)
}

// LoadFromReader loads configuration from an io.Reader.
//
// The format is dnsmasq-style: one "optionName value" per line, "#" comments,
// and "[section]" headers. The [tasks] and [tips] sections hold data lines
// instead of options.
func LoadFromReader(r io.Reader) (*Config, error) {
	config := NewConfig()
	scanner := bufio.NewScanner(r)

	var section string
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.TrimSpace(strings.Trim(line, "[]"))
			switch section {
			case sectionTasks, sectionTips:
			default:
				if config.Commands[section] == nil {
					config.Commands[section] = make(map[string]string)
				}
			}
			continue
		}

		switch section {
		case sectionTasks:
			seed, err := parseTaskLine(line)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid task: %w", lineNo, err)
			}
			config.Tasks = append(config.Tasks, seed)
		case sectionTips:
			config.Tips = append(config.Tips, line)
		default:
			name, value, _ := strings.Cut(line, " ")
			value = strings.TrimSpace(value)
			if section == "" {
				config.Global[name] = value
			} else {
				config.Commands[section][name] = value
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config: %w", err)
	}

	for _, issue := range ValidateConfig(config, DefaultSchema()) {
		config.addWarning("%s", issue)
	}

	return config, nil
}

const (
	sectionTasks = "tasks"
	sectionTips  = "tips"
)

// parseTaskLine parses "Name | Subject | Difficulty | Minutes [| Tip]".
// Difficulty is kept verbatim; the caller validates it.
func parseTaskLine(line string) (TaskSeed, error) {
	fields := strings.Split(line, "|")
	if len(fields) < 4 || len(fields) > 5 {
		return TaskSeed{}, fmt.Errorf("want 4 or 5 |-separated fields, got %d", len(fields))
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	minutes, err := strconv.Atoi(fields[3])
	if err != nil {
		return TaskSeed{}, fmt.Errorf("invalid minutes %q: %w", fields[3], err)
	}
	seed := TaskSeed{
		Name:       fields[0],
		Subject:    fields[1],
		Difficulty: fields[2],
		Minutes:    minutes,
	}
	if len(fields) == 5 {
		seed.Tip = fields[4]
	}
	return seed, nil
}

// addWarning adds a warning to the config's warnings list.
func (c *Config) addWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	c.Warnings = append(c.Warnings, msg)
	slog.Warn("[Config] " + msg)
}

// parseBool parses a boolean value from string.
// Accepts: true, false, 1, 0, yes, no, on, off (case-insensitive)
func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true", "1", "yes", "on":
		return true, nil
	case "false", "0", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean value: %s", s)
	}
}

// parseIntList parses a comma-separated list of integers, e.g. "15,25,30".
func parseIntList(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", part)
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty list")
	}
	return out, nil
}

// GetGlobalOption returns a global configuration option.
func (c *Config) GetGlobalOption(name string) (string, bool) {
	value, exists := c.Global[name]
	return value, exists
}

// GetCommandOption returns a command-specific configuration option.
// It first checks command-specific options, then falls back to global options.
func (c *Config) GetCommandOption(command, name string) (string, bool) {
	if cmdOptions, exists := c.Commands[command]; exists {
		if value, exists := cmdOptions[name]; exists {
			return value, true
		}
	}
	return c.GetGlobalOption(name)
}

// SetGlobalOption sets a global configuration option.
func (c *Config) SetGlobalOption(name, value string) {
	c.Global[name] = value
}

// SetCommandOption sets a command-specific configuration option.
func (c *Config) SetCommandOption(command, name, value string) {
	if c.Commands[command] == nil {
		c.Commands[command] = make(map[string]string)
	}
	c.Commands[command][name] = value
}
