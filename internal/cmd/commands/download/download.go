package download

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/afero"

	"drivedocs/internal/cmd/base"
)

type Command struct {
	*base.Command

	flagOut string
}

func (c *Command) Synopsis() string {
	return "Export a Google Doc to a local .docx file"
}

func (c *Command) Help() string {
	return `Usage: docctl download [options] FILE_ID

  Exports the document as .docx. Without -out the file is written to the
  current directory under the document's name.` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("download", flag.ContinueOnError))

	f.StringVar(
		&c.flagOut, "out", "",
		"Destination path.",
	)

	return f
}

func (c *Command) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if f.NArg() != 1 {
		c.UI.Error("expected exactly one FILE_ID argument")
		return 1
	}
	fileID := f.Arg(0)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	stack, err := c.App(ctx, true, false)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error initializing: %v", err))
		return 1
	}
	defer stack.Close()

	res, err := stack.Documents.Download(ctx, fileID)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error downloading document: %v", err))
		return 1
	}

	out := c.flagOut
	if out == "" {
		out = localName(res.Filename)
	}
	if err := afero.WriteFile(c.Fs, out, res.Content, 0o644); err != nil {
		c.UI.Error(fmt.Sprintf("error writing %s: %v", out, err))
		return 1
	}

	c.UI.Output(fmt.Sprintf("Saved %d bytes to %s", len(res.Content), out))
	return 0
}

// localName turns a document name into a file name in the current directory.
func localName(name string) string {
	name = strings.NewReplacer("/", "_", "\\", "_").Replace(strings.TrimSpace(name))
	if name == "" || name == "." || name == ".." {
		name = "document"
	}
	if !strings.HasSuffix(strings.ToLower(name), ".docx") {
		name += ".docx"
	}
	return name
}
