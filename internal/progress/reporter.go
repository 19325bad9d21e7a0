package progress

import (
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
)

// Reporter provides progress feedback during long batch runs.
type Reporter interface {
	Start(total int)
	Update(current int, message string)
	Fail(item string, err error)
	Finish()
}

// NewReporter returns a CIReporter if the CI environment variable is set,
// or a TerminalReporter otherwise. Both write to stderr.
func NewReporter(label string) Reporter {
	if os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != "" {
		return &CIReporter{Label: label, Out: os.Stderr}
	}
	return &TerminalReporter{Label: label, Out: os.Stderr}
}

// TerminalReporter displays a progress bar in the terminal.
type TerminalReporter struct {
	Label string
	Out   io.Writer

	bar    *progressbar.ProgressBar
	failed []string
}

func (r *TerminalReporter) Start(total int) {
	r.bar = progressbar.NewOptions(total,
		progressbar.OptionSetDescription(r.Label),
		progressbar.OptionSetWriter(r.Out),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

func (r *TerminalReporter) Update(current int, message string) {
	if r.bar != nil {
		r.bar.Describe(message)
		_ = r.bar.Set(current)
	}
}

// Fail records a failed item; failures are listed after the bar clears.
func (r *TerminalReporter) Fail(item string, err error) {
	r.failed = append(r.failed, fmt.Sprintf("%s: %v", item, err))
}

func (r *TerminalReporter) Finish() {
	if r.bar != nil {
		_ = r.bar.Finish()
	}
	for _, f := range r.failed {
		fmt.Fprintf(r.Out, "failed: %s\n", f)
	}
}

// CIReporter prints line-by-line progress suitable for CI logs.
type CIReporter struct {
	Label string
	Out   io.Writer

	total  int
	failed int
}

func (r *CIReporter) Start(total int) {
	r.total = total
	fmt.Fprintf(r.Out, "%s: starting %d items\n", r.Label, total)
}

func (r *CIReporter) Update(current int, message string) {
	fmt.Fprintf(r.Out, "[%d/%d] %s\n", current, r.total, message)
}

func (r *CIReporter) Fail(item string, err error) {
	r.failed++
	fmt.Fprintf(r.Out, "FAILED %s: %v\n", item, err)
}

func (r *CIReporter) Finish() {
	fmt.Fprintf(r.Out, "%s: complete (%d failed)\n", r.Label, r.failed)
}
