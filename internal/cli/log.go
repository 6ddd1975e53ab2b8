// Package cli implements the releasehub command-line interface.
//
// The CLI runs the HTTP service and exposes the same data for one-off use
// in a terminal. It is built with cobra; output is styled with lipgloss and
// logging goes through charmbracelet/log.
//
// # Commands
//
// The main commands are:
//   - serve: Run the HTTP API, webhooks and feeds
//   - discover: List the packages published by the registered repositories
//   - releases: Show the merged release history of a package
//   - browse: Pick a package interactively and show its releases
//   - tracker: Show the member work board of a repository
//   - refresh: Re-fetch every repository and update the cache
//   - changelog: Parse a CHANGELOG.md file
//   - cache: Inspect and clear cached entries
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to the commands.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time, e.g. "Discovered 42 packages (1.234s)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger returns a new context with the given logger attached.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx, or log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
