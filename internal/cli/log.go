// Package cli implements the synopackage command-line interface.
//
// # Commands
//
// The main commands are:
//   - serve: Run the HTTP API
//   - packages: Query one source
//   - search: Search every active source
//   - browse: Interactive package list for one source
//   - sources: List the configured sources
//   - cache: Clear the caches or print where they live
//
// # Configuration
//
// The config file is taken from --config, then $SYNOPACKAGE_CONFIG. Without
// either the built-in defaults apply.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The same
// logger is handed to the service, the caches and the API.
//
// # Example
//
//	import "github.com/matzehuels/synopackage/internal/cli"
//
//	func main() {
//	    if err := cli.Execute(context.Background()); err != nil {
//	        os.Exit(1)
//	    }
//	}
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// The logger writes to w and filters messages at the specified level.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
// It is safe for sequential use by a single goroutine; concurrent calls to done will race.
type progress struct {
	logger *log.Logger
	start  time.Time
}

// newProgress creates a progress tracker that captures the current time as start.
// The returned progress should call done when the operation completes.
func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
// The duration is rounded to the nearest millisecond.
// Example output: "Resolved 42 packages (1.234s)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}
