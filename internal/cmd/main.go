// Package cmd implements docctl, the operator CLI.
package cmd

import (
	"bufio"
	"os"
	"path/filepath"

	"github.com/mitchellh/cli"
	"github.com/spf13/afero"

	"drivedocs/internal/cmd/base"
	"drivedocs/internal/cmd/commands/auth"
	"drivedocs/internal/cmd/commands/create"
	"drivedocs/internal/cmd/commands/download"
	"drivedocs/internal/config"
	"drivedocs/internal/logging"
)

// Version is stamped at build time with -ldflags.
var Version = "dev"

// Commands builds the subcommand table around b.
func Commands(b *base.Command) map[string]cli.CommandFactory {
	return map[string]cli.CommandFactory{
		"auth": func() (cli.Command, error) {
			return &auth.Command{Command: b}, nil
		},
		"create": func() (cli.Command, error) {
			return &create.Command{Command: b}, nil
		},
		"download": func() (cli.Command, error) {
			return &download.Command{Command: b}, nil
		},
	}
}

// Main runs the CLI with the given arguments and returns the exit code.
func Main(args []string) int {
	cliName := filepath.Base(args[0])

	cfg := config.Load()

	// Logs go to stderr so command output stays pipeable.
	log := logging.New(logging.Options{
		Name:     cliName,
		Level:    cfg.LogLevel,
		Output:   os.Stderr,
		Location: cfg.Location(),
	})

	ui := &cli.BasicUi{
		Reader:      bufio.NewReader(os.Stdin),
		Writer:      os.Stdout,
		ErrorWriter: os.Stderr,
	}

	b := &base.Command{
		Log:    log,
		UI:     ui,
		Config: cfg,
		Fs:     afero.NewOsFs(),
	}

	c := &cli.CLI{
		Name:     cliName,
		Args:     args[1:],
		Version:  Version,
		Commands: Commands(b),
	}

	exitCode, err := c.Run()
	if err != nil {
		log.Error("error running command", "error", err)
		return 1
	}

	return exitCode
}
