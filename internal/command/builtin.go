package command

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"text/tabwriter"

	"github.com/joeycumines/focus-flow/internal/config"
)

// HelpCommand displays help information for commands.
type HelpCommand struct {
	*BaseCommand
	registry *Registry
}

// NewHelpCommand creates a new help command.
func NewHelpCommand(registry *Registry) *HelpCommand {
	return &HelpCommand{
		BaseCommand: NewBaseCommand(
			"help",
			"Display help information for commands",
			"help [command]",
		),
		registry: registry,
	}
}

// Execute displays help information.
func (c *HelpCommand) Execute(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		_, _ = fmt.Fprintln(stdout, "focusflow - a focus timer for study sessions, in your terminal")
		_, _ = fmt.Fprintln(stdout, "")
		_, _ = fmt.Fprintln(stdout, "Usage: focusflow <command> [options] [args...]")
		_, _ = fmt.Fprintln(stdout, "")
		_, _ = fmt.Fprintln(stdout, "Available commands:")

		w := tabwriter.NewWriter(stdout, 0, 8, 2, ' ', 0)
		for _, name := range c.registry.List() {
			if cmd, err := c.registry.Get(name); err == nil {
				_, _ = fmt.Fprintf(w, "  %s\t%s\n", name, cmd.Description())
			}
		}
		_ = w.Flush()

		_, _ = fmt.Fprintln(stdout, "")
		_, _ = fmt.Fprintln(stdout, "Use 'focusflow help <command>' for more information about a specific command (includes flags).")
		return nil
	}

	cmdName := args[0]
	cmd, err := c.registry.Get(cmdName)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Unknown command: %s\n", cmdName)
		return err
	}

	_, _ = fmt.Fprintf(stdout, "Command: %s\n", cmd.Name())
	_, _ = fmt.Fprintf(stdout, "Description: %s\n", cmd.Description())
	_, _ = fmt.Fprintf(stdout, "Usage: %s\n", cmd.Usage())

	// Flags are discovered by running SetupFlags against a throwaway FlagSet.
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	buf := &bytes.Buffer{}
	fs.SetOutput(buf)
	cmd.SetupFlags(fs)
	fs.PrintDefaults()
	if buf.Len() > 0 {
		_, _ = fmt.Fprintln(stdout, "")
		_, _ = fmt.Fprintln(stdout, "Flags:")
		_, _ = fmt.Fprint(stdout, buf.String())
	}
	return nil
}

// VersionCommand displays version information.
type VersionCommand struct {
	*BaseCommand
	version string
}

// NewVersionCommand creates a new version command.
func NewVersionCommand(version string) *VersionCommand {
	return &VersionCommand{
		BaseCommand: NewBaseCommand(
			"version",
			"Display version information",
			"version",
		),
		version: version,
	}
}

// Execute displays version information.
func (c *VersionCommand) Execute(args []string, stdout, stderr io.Writer) error {
	if err := noArgs(args, stderr); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(stdout, "focusflow version %s\n", c.version)
	return nil
}

// ConfigCommand manages configuration.
type ConfigCommand struct {
	*BaseCommand
	config     *config.Config
	configPath string
	showGlobal bool
	showAll    bool
}

// NewConfigCommand creates a new config command. If configPath is empty,
// set only changes the in-memory configuration.
func NewConfigCommand(cfg *config.Config, configPath string) *ConfigCommand {
	return &ConfigCommand{
		BaseCommand: NewBaseCommand(
			"config",
			"Manage configuration settings",
			"config [options] [show|get|set|schema|path|validate] [key] [value]",
		),
		config:     cfg,
		configPath: configPath,
	}
}

// SetupFlags configures the flags for the config command.
func (c *ConfigCommand) SetupFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.showGlobal, "global", false, "Show only global configuration")
	fs.BoolVar(&c.showAll, "all", false, "Show all configuration (global, command sections, tasks and tips)")
}

// Execute manages configuration.
func (c *ConfigCommand) Execute(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		switch {
		case c.showAll:
			c.printGlobal(stdout)
			c.printSections(stdout)
			c.printSeeds(stdout)
		case c.showGlobal:
			c.printGlobal(stdout)
		default:
			_, _ = fmt.Fprintln(stdout, "Configuration management:")
			_, _ = fmt.Fprintln(stdout, "  config show           - Show effective values of every option")
			_, _ = fmt.Fprintln(stdout, "  config get <key>      - Get configuration value")
			_, _ = fmt.Fprintln(stdout, "  config set <key> <v>  - Set configuration value")
			_, _ = fmt.Fprintln(stdout, "  config schema         - Show configuration schema")
			_, _ = fmt.Fprintln(stdout, "  config path           - Show the configuration file path")
			_, _ = fmt.Fprintln(stdout, "  config validate       - Validate configuration")
			_, _ = fmt.Fprintln(stdout, "  config -global        - Show global configuration")
			_, _ = fmt.Fprintln(stdout, "  config -all           - Show all configuration")
		}
		return nil
	}

	schema := config.DefaultSchema()
	sub, rest := args[0], args[1:]
	switch sub {
	case "show":
		w := tabwriter.NewWriter(stdout, 0, 8, 2, ' ', 0)
		for _, opt := range schema.SectionOptions("") {
			_, _ = fmt.Fprintf(w, "%s\t%s\n", opt.Key, schema.Resolve(c.config, opt.Key))
		}
		return w.Flush()
	case "get":
		if len(rest) != 1 {
			_, _ = fmt.Fprintln(stderr, "Usage: config get <key>")
			return fmt.Errorf("invalid arguments")
		}
		return c.get(schema, rest[0], stdout)
	case "set":
		if len(rest) != 2 {
			_, _ = fmt.Fprintln(stderr, "Usage: config set <key> <value>")
			return fmt.Errorf("invalid arguments")
		}
		return c.set(schema, rest[0], rest[1], stdout, stderr)
	case "schema":
		_, _ = fmt.Fprint(stdout, schema.FormatHelp())
		return nil
	case "path":
		path := c.configPath
		if path == "" {
			var err error
			if path, err = config.GetConfigPath(); err != nil {
				return fmt.Errorf("failed to get config path: %w", err)
			}
		}
		_, _ = fmt.Fprintln(stdout, path)
		return nil
	case "validate":
		return c.executeValidate(stdout)
	}

	_, _ = fmt.Fprintf(stderr, "Unknown config subcommand: %s\n", sub)
	return fmt.Errorf("unknown config subcommand: %s", sub)
}

func (c *ConfigCommand) get(schema *config.ConfigSchema, key string, stdout io.Writer) error {
	value := schema.Resolve(c.config, key)
	if value != "" {
		_, _ = fmt.Fprintf(stdout, "%s: %s\n", key, value)
	} else if _, exists := c.config.GetGlobalOption(key); exists || schema.IsKnown("", key) {
		_, _ = fmt.Fprintf(stdout, "%s: \n", key)
	} else {
		_, _ = fmt.Fprintf(stdout, "Configuration key '%s' not found\n", key)
	}
	return nil
}

func (c *ConfigCommand) set(schema *config.ConfigSchema, key, value string, stdout, stderr io.Writer) error {
	opt := schema.Lookup("", key)
	if opt == nil {
		_, _ = fmt.Fprintf(stderr, "Unknown configuration key: %s\n", key)
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	if err := config.ValidateValue(opt.Type, value); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	c.config.SetGlobalOption(key, value)

	if c.configPath != "" {
		if err := config.SetKeyInFile(c.configPath, key, value); err != nil {
			_, _ = fmt.Fprintf(stderr, "Warning: failed to persist config to disk: %v\n", err)
		}
	}

	_, _ = fmt.Fprintf(stdout, "Set configuration: %s = %s\n", key, value)
	return nil
}

func (c *ConfigCommand) printGlobal(stdout io.Writer) {
	_, _ = fmt.Fprintln(stdout, "Global configuration:")
	for _, key := range sortedMapKeys(c.config.Global) {
		_, _ = fmt.Fprintf(stdout, "  %s: %s\n", key, c.config.Global[key])
	}
}

func (c *ConfigCommand) printSections(stdout io.Writer) {
	_, _ = fmt.Fprintln(stdout, "\nCommand-specific configuration:")
	sections := make([]string, 0, len(c.config.Commands))
	for name := range c.config.Commands {
		sections = append(sections, name)
	}
	sort.Strings(sections)
	for _, name := range sections {
		_, _ = fmt.Fprintf(stdout, "  [%s]\n", name)
		options := c.config.Commands[name]
		for _, key := range sortedMapKeys(options) {
			_, _ = fmt.Fprintf(stdout, "    %s: %s\n", key, options[key])
		}
	}
}

func (c *ConfigCommand) printSeeds(stdout io.Writer) {
	if len(c.config.Tasks) > 0 {
		_, _ = fmt.Fprintln(stdout, "\nTasks:")
		for _, t := range c.config.Tasks {
			_, _ = fmt.Fprintf(stdout, "  %s | %s | %s | %d", t.Name, t.Subject, t.Difficulty, t.Minutes)
			if t.Tip != "" {
				_, _ = fmt.Fprintf(stdout, " | %s", t.Tip)
			}
			_, _ = fmt.Fprintln(stdout)
		}
	}
	if len(c.config.Tips) > 0 {
		_, _ = fmt.Fprintln(stdout, "\nTips:")
		for _, tip := range c.config.Tips {
			_, _ = fmt.Fprintf(stdout, "  %s\n", tip)
		}
	}
}

// executeValidate validates the current config against the schema.
func (c *ConfigCommand) executeValidate(stdout io.Writer) error {
	issues := config.ValidateConfig(c.config, config.DefaultSchema())
	if _, err := settingsFromConfig(c.config); err != nil {
		issues = append(issues, err.Error())
	}
	if len(issues) == 0 {
		_, _ = fmt.Fprintln(stdout, "Configuration is valid.")
		return nil
	}
	_, _ = fmt.Fprintf(stdout, "Configuration has %d issue(s):\n", len(issues))
	for _, issue := range issues {
		_, _ = fmt.Fprintf(stdout, "  - %s\n", issue)
	}
	return nil
}

func sortedMapKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// InitCommand writes a starter configuration file.
type InitCommand struct {
	*BaseCommand
	configPath string
	force      bool
}

// NewInitCommand creates a new init command writing to configPath.
func NewInitCommand(configPath string) *InitCommand {
	return &InitCommand{
		BaseCommand: NewBaseCommand(
			"init",
			"Write a starter configuration file",
			"init [options]",
		),
		configPath: configPath,
	}
}

// SetupFlags configures the flags for the init command.
func (c *InitCommand) SetupFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.force, "force", false, "Overwrite an existing configuration")
}

const starterConfig = `# focusflow configuration file
# Format: optionName remainingLineIsTheValue
# Run 'focusflow config schema' for every option.

duration.options 15,25,30,45,60,90
duration.default 25
rating.default 8
tip.interval 10s
# log.file ~/.focusflow/focusflow.log
# log.level debug

# Replace the built-in tasks with your own:
# tasks.seed-defaults false
# [tasks]
# Calculus Problem Set | Mathematics | Hard | 45 | Break problems into smaller steps
`

// Execute writes the starter configuration.
func (c *InitCommand) Execute(args []string, stdout, stderr io.Writer) error {
	if err := noArgs(args, stderr); err != nil {
		return err
	}
	if _, err := os.Lstat(c.configPath); err == nil && !c.force {
		_, _ = fmt.Fprintf(stdout, "Configuration already exists at: %s\n", c.configPath)
		_, _ = fmt.Fprintln(stdout, "Use -force to overwrite existing configuration")
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(c.configPath), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(c.configPath, []byte(starterConfig), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	cfg, err := config.LoadFromPath(c.configPath)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Warning: failed to load created config: %v\n", err)
	} else if _, err := settingsFromConfig(cfg); err != nil {
		_, _ = fmt.Fprintf(stderr, "Warning: created config is invalid: %v\n", err)
	}

	_, _ = fmt.Fprintf(stdout, "Initialized focusflow configuration at: %s\n", c.configPath)
	return nil
}
