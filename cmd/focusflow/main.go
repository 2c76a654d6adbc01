// Command focusflow is a focus timer for study sessions.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/joeycumines/focus-flow/internal/command"
	"github.com/joeycumines/focus-flow/internal/config"
)

const version = "0.1.0"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	configPath, err := config.GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	cfg, err := config.LoadFromPath(configPath)
	if err != nil {
		return err
	}

	registry := command.NewRegistry()
	help := command.NewHelpCommand(registry)
	for _, cmd := range []command.Command{
		help,
		command.NewVersionCommand(version),
		command.NewConfigCommand(cfg, configPath),
		command.NewInitCommand(configPath),
		command.NewTasksCommand(cfg),
		command.NewRunCommand(cfg),
		command.NewShellCommand(cfg),
		command.NewExecCommand(cfg),
	} {
		registry.Register(cmd)
	}

	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" {
		return help.Execute(nil, stdout, stderr)
	}

	cmd, err := registry.Get(args[0])
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Unknown command: %s\nRun 'focusflow help' for the list.\n", args[0])
		return err
	}

	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		_, _ = fmt.Fprintf(stderr, "Usage: focusflow %s\n\n%s\n\nOptions:\n", cmd.Usage(), cmd.Description())
		fs.PrintDefaults()
	}
	cmd.SetupFlags(fs)
	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	return cmd.Execute(fs.Args(), stdout, stderr)
}
