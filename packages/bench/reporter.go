package bench

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
)

// Reporter renders a Summary for humans.
type Reporter struct {
	writer  io.Writer
	noColor bool

	green  *color.Color
	red    *color.Color
	cyan   *color.Color
	bold   *color.Color
}

// ReporterOption configures the reporter.
type ReporterOption func(*Reporter)

// WithWriter sets the output writer.
func WithWriter(w io.Writer) ReporterOption {
	return func(r *Reporter) { r.writer = w }
}

// WithNoColor disables colored output.
func WithNoColor(noColor bool) ReporterOption {
	return func(r *Reporter) { r.noColor = noColor }
}

// NewReporter creates a reporter writing to stdout by default.
func NewReporter(opts ...ReporterOption) *Reporter {
	r := &Reporter{writer: os.Stdout}
	for _, opt := range opts {
		opt(r)
	}
	color.NoColor = r.noColor
	r.green = color.New(color.FgGreen)
	r.red = color.New(color.FgRed)
	r.cyan = color.New(color.FgCyan)
	r.bold = color.New(color.Bold)
	return r
}

// Report writes the run summary.
func (r *Reporter) Report(s Summary) {
	fmt.Fprintln(r.writer)
	r.bold.Fprintln(r.writer, "Benchmark results")
	fmt.Fprintf(r.writer, "  Duration:  %s\n", s.Duration.Round(time.Millisecond))
	fmt.Fprintf(r.writer, "  Requests:  %d (%.1f req/s)\n", s.Total, s.RPS)
	r.green.Fprintf(r.writer, "  Success:   %d\n", s.Success)
	if s.Errors > 0 {
		r.red.Fprintf(r.writer, "  Errors:    %d\n", s.Errors)
	} else {
		fmt.Fprintf(r.writer, "  Errors:    0\n")
	}
	r.cyan.Fprintln(r.writer, "  Latency:")
	fmt.Fprintf(r.writer, "    p50:  %s\n", s.P50.Round(time.Microsecond))
	fmt.Fprintf(r.writer, "    p90:  %s\n", s.P90.Round(time.Microsecond))
	fmt.Fprintf(r.writer, "    p99:  %s\n", s.P99.Round(time.Microsecond))
	fmt.Fprintf(r.writer, "    max:  %s\n", s.Max.Round(time.Microsecond))
}
