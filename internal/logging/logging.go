package logging

import (
	"io"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"
)

// Options controls the root logger.
type Options struct {
	Name   string
	Level  string
	Output io.Writer
	// Location is used for timestamps. Defaults to UTC.
	Location *time.Location
}

// New builds the process-wide JSON logger. Components derive their own
// loggers from it with Named.
func New(opts Options) hclog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	level := hclog.LevelFromString(opts.Level)
	if level == hclog.NoLevel {
		level = hclog.Info
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:       opts.Name,
		Level:      level,
		Output:     out,
		JSONFormat: true,
		TimeFn:     func() time.Time { return time.Now().In(loc) },
		TimeFormat: time.RFC3339Nano,
	})
}

// Discard returns a logger that drops everything; handy in tests.
func Discard() hclog.Logger {
	return hclog.NewNullLogger()
}
