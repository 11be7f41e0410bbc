// Package progress reports per-file indexing progress on stderr.
package progress

import (
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
)

// Reporter receives progress updates. Update matches the indexer's
// per-file callback, so r.Update can be passed to SetProgressFunc directly.
type Reporter interface {
	Update(done, total int, current string)
	Finish()
}

// NewReporter returns a TerminalReporter for interactive use, or a
// CIReporter when the CI or GITHUB_ACTIONS environment variable is set.
func NewReporter(description string) Reporter {
	if os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != "" {
		return &CIReporter{Out: os.Stderr, Description: description}
	}
	return &TerminalReporter{description: description}
}

// TerminalReporter displays a progress bar. The bar is created on the
// first update, once the total is known.
type TerminalReporter struct {
	description string
	bar         *progressbar.ProgressBar
}

func (r *TerminalReporter) Update(done, total int, current string) {
	if r.bar == nil {
		r.bar = progressbar.NewOptions(total,
			progressbar.OptionSetDescription(r.description),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}
	r.bar.Describe(fmt.Sprintf("%s %s", r.description, current))
	_ = r.bar.Set(done)
}

func (r *TerminalReporter) Finish() {
	if r.bar != nil {
		_ = r.bar.Finish()
	}
}

// CIReporter prints one line per update, suitable for CI logs.
type CIReporter struct {
	Out         io.Writer
	Description string
	started     bool
}

func (r *CIReporter) Update(done, total int, current string) {
	if !r.started {
		r.started = true
		fmt.Fprintf(r.Out, "%s: %d files\n", r.Description, total)
	}
	fmt.Fprintf(r.Out, "[%d/%d] %s\n", done, total, current)
}

func (r *CIReporter) Finish() {
	if r.started {
		fmt.Fprintf(r.Out, "%s: done\n", r.Description)
	}
}
