package auth

import (
	"context"
	"flag"
	"fmt"
	"time"

	"drivedocs/internal/cmd/base"
	"drivedocs/internal/credential"
)

type Command struct {
	*base.Command

	flagCheck   bool
	flagTimeout time.Duration
}

func (c *Command) Synopsis() string {
	return "Authorize access to Google Drive"
}

func (c *Command) Help() string {
	return `Usage: docctl auth [options]

  Runs the browser consent flow for the configured Google account and saves
  the resulting token to GOOGLE_TOKEN_PATH. Run this once before starting the
  server; the server never prompts.

  With -check, reports on the stored token without any network call and
  exits non-zero when it cannot be used.` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("auth", flag.ContinueOnError))

	f.BoolVar(
		&c.flagCheck, "check", false,
		"Only print the status of the stored token.",
	)
	f.DurationVar(
		&c.flagTimeout, "timeout", 5*time.Minute,
		"How long to wait for consent in the browser.",
	)

	return f
}

func (c *Command) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.flagTimeout)
	defer cancel()

	stack, err := c.App(ctx, !c.flagCheck, false)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error initializing: %v", err))
		return 1
	}
	defer stack.Close()

	if c.flagCheck {
		return c.check(stack.Credentials)
	}

	c.UI.Info("Opening the browser for Google consent...")
	cred, err := stack.Credentials.Authorize(ctx)
	if err != nil {
		c.UI.Error(fmt.Sprintf("authorization failed: %v", err))
		return 1
	}

	c.UI.Output(fmt.Sprintf("Authorization complete. Token saved to %s (expires %s).",
		c.Config.Google.TokenPath, cred.Expiry.Format(time.RFC3339)))
	return 0
}

func (c *Command) check(creds *credential.Manager) int {
	st, err := creds.Status()
	if err != nil {
		c.UI.Error(fmt.Sprintf("error reading token: %v", err))
		return 1
	}

	c.UI.Output(fmt.Sprintf("Token file:   %s", c.Config.Google.TokenPath))
	c.UI.Output(fmt.Sprintf("Present:      %t", st.Present))
	if !st.Present {
		c.UI.Warn("No stored token. Run `docctl auth` to authorize.")
		return 1
	}
	c.UI.Output(fmt.Sprintf("Valid:        %t", st.Valid))
	c.UI.Output(fmt.Sprintf("Refreshable:  %t", st.Refreshable))
	c.UI.Output(fmt.Sprintf("Scoped:       %t", st.Scoped))
	if !st.Expiry.IsZero() {
		c.UI.Output(fmt.Sprintf("Expiry:       %s", st.Expiry.Format(time.RFC3339)))
	}

	if !st.Scoped || (!st.Valid && !st.Refreshable) {
		c.UI.Warn("Stored token cannot be used. Run `docctl auth` to re-authorize.")
		return 1
	}
	return 0
}
