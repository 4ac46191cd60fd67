// Package cli implements the doublediamond command-line interface.
//
// The commands are thin hosts around [pipeline.Runner]: they capture a
// diagram configuration from files and flags, run the layout and renderers,
// and write or serve the results. The CLI is built using cobra and supports
// verbose logging via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - render: Generate SVG, PNG or JSON for one configuration
//   - batch: Generate many configurations in parallel
//   - init: Write the default configuration file
//   - serve: Host the live-preview page and HTTP API
//   - edit: Edit a configuration in the terminal with live geometry
//   - cache: Manage the artifact cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context.
//
// [pipeline.Runner]: github.com/matzehuels/doublediamond/pkg/pipeline#Runner
package cli

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates the command logger. Timestamps are "HH:MM:SS.ms".
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress counts finished diagrams for a render run and logs a summary with
// the elapsed time. report matches [pipeline.Options].Progress and may be
// called from worker goroutines.
//
// [pipeline.Options]: github.com/matzehuels/doublediamond/pkg/pipeline#Options
type progress struct {
	logger   *log.Logger
	start    time.Time
	total    int
	finished atomic.Int64
	onChange func(string) // receives String() after each report
}

func newProgress(l *log.Logger, total int) *progress {
	return &progress{logger: l, start: time.Now(), total: total}
}

func (p *progress) report(done, total int) {
	p.finished.Store(int64(done))
	if p.onChange != nil {
		p.onChange(p.String())
	}
}

// String renders the running count, e.g. "3/10 rendered".
func (p *progress) String() string {
	return fmt.Sprintf("%d/%d rendered", p.finished.Load(), p.total)
}

// summary describes the outcome once failed of total diagrams did not render.
func (p *progress) summary(failed int) string {
	noun := "diagrams"
	if p.total == 1 {
		noun = "diagram"
	}
	if failed == 0 {
		return fmt.Sprintf("Rendered %d %s", p.total, noun)
	}
	return fmt.Sprintf("Rendered %d of %d %s", p.total-failed, p.total, noun)
}

// done logs the summary, e.g. "Rendered 9 of 10 diagrams (1.234s)".
func (p *progress) done(failed int) {
	p.logger.Infof("%s (%s)", p.summary(failed), time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger attaches l to ctx for the commands run under it.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger attached by the root command, or
// log.Default() for commands invoked without it (tests, completion).
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
