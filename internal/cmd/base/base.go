// Package base holds what every docctl subcommand shares.
package base

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
	"github.com/spf13/afero"

	"drivedocs/internal/app"
	"drivedocs/internal/config"
	"drivedocs/internal/credential"
)

// Command is embedded by every subcommand.
type Command struct {
	Log    hclog.Logger
	UI     cli.Ui
	Config *config.AppConfig
	Fs     afero.Fs

	// Authorizer runs the interactive consent flow for commands allowed to
	// prompt. Defaults to a LoopbackAuthorizer.
	Authorizer credential.Authorizer

	// Stack overrides assembly of the document stack. Tests set it.
	Stack func(ctx context.Context, interactive, registry bool) (*app.App, error)
}

// App assembles the document stack. Interactive commands may fall back to
// browser consent when the stored credential is unusable. The registry is
// opened only when asked for and configured.
func (c *Command) App(ctx context.Context, interactive, registry bool) (*app.App, error) {
	if c.Stack != nil {
		return c.Stack(ctx, interactive, registry)
	}

	if err := c.Config.Validate(); err != nil {
		return nil, err
	}

	opts := app.Options{Fs: c.Fs, SkipRegistry: !registry}
	if interactive {
		opts.Authorizer = c.authorizer()
	}
	return app.New(ctx, c.Config, c.Log, opts)
}

func (c *Command) authorizer() credential.Authorizer {
	if c.Authorizer != nil {
		return c.Authorizer
	}
	return &credential.LoopbackAuthorizer{Logger: c.Log.Named("authorizer")}
}

// FlagSet adds help rendering to flag.FlagSet.
type FlagSet struct {
	*flag.FlagSet
}

// NewFlagSet wraps f.
func NewFlagSet(f *flag.FlagSet) *FlagSet {
	return &FlagSet{FlagSet: f}
}

// Help renders the flags as an "Options:" block for cli.Command.Help.
func (f *FlagSet) Help() string {
	var buf bytes.Buffer
	f.VisitAll(func(fl *flag.Flag) {
		fmt.Fprintf(&buf, "\n  -%s\n      %s", fl.Name, fl.Usage)
		if fl.DefValue != "" && fl.DefValue != "false" {
			fmt.Fprintf(&buf, " (default %q)", fl.DefValue)
		}
		buf.WriteString("\n")
	})
	if buf.Len() == 0 {
		return ""
	}
	return "\n\nOptions:\n" + strings.TrimRight(buf.String(), "\n")
}
