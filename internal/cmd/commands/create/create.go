package create

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"drivedocs/internal/cmd/base"
)

type Command struct {
	*base.Command

	flagName    string
	flagContent string
}

func (c *Command) Synopsis() string {
	return "Create a Google Doc from text"
}

func (c *Command) Help() string {
	return `Usage: docctl create [options]

  Creates a Google Doc and prints its file ID and download URL. The name and
  content are prompted for unless given as flags.` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("create", flag.ContinueOnError))

	f.StringVar(
		&c.flagName, "name", "",
		"Document name. Prompted for when empty.",
	)
	f.StringVar(
		&c.flagContent, "content", "",
		"Document text. Prompted for when empty.",
	)

	return f
}

func (c *Command) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	name, err := c.valueOrAsk(c.flagName, "Document name:")
	if err != nil {
		c.UI.Error(fmt.Sprintf("error reading name: %v", err))
		return 1
	}
	content, err := c.valueOrAsk(c.flagContent, "Document content:")
	if err != nil {
		c.UI.Error(fmt.Sprintf("error reading content: %v", err))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	stack, err := c.App(ctx, true, true)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error initializing: %v", err))
		return 1
	}
	defer stack.Close()

	doc, err := stack.Documents.Create(ctx, name, content)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error creating document: %v", err))
		return 1
	}

	c.UI.Output(fmt.Sprintf("File ID: %s", doc.FileID))
	c.UI.Output(fmt.Sprintf("Download it at: %s%s", c.Config.APIURL, doc.FileID))
	return 0
}

func (c *Command) valueOrAsk(v, query string) (string, error) {
	if v != "" {
		return v, nil
	}
	return c.UI.Ask(query)
}
