// Package report renders verification results as colored, line-oriented
// terminal output with INFO/WARN/ERROR level prefixes.
package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/teeutil/tee-host-setup/hostcheck"
	"github.com/teeutil/tee-host-setup/interfaces"
)

// Printer writes level-prefixed lines to a single destination. Output is not
// machine-readable; structured consumers should use --log-json instead.
type Printer struct {
	out   io.Writer
	info  *color.Color
	warn  *color.Color
	error *color.Color
}

// NewPrinter creates a Printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{
		out:   w,
		info:  color.New(color.FgGreen),
		warn:  color.New(color.FgYellow),
		error: color.New(color.FgRed),
	}
}

// Info prints a green INFO line.
func (p *Printer) Info(format string, args ...any) {
	p.line(p.info, "INFO", format, args...)
}

// Warn prints a yellow WARN line.
func (p *Printer) Warn(format string, args ...any) {
	p.line(p.warn, "WARN", format, args...)
}

// Error prints a red ERROR line.
func (p *Printer) Error(format string, args ...any) {
	p.line(p.error, "ERROR", format, args...)
}

func (p *Printer) line(c *color.Color, level, format string, args ...any) {
	prefix := c.Sprintf("[%s]", level)
	fmt.Fprintf(p.out, "%s %s\n", prefix, fmt.Sprintf(format, args...))
}

// Render prints a verification report: the vendor, one line per check result
// (warnings for absent features), matched kernel log lines indented under
// their check, and finally the raw kernel command line.
func (p *Printer) Render(rep *hostcheck.Report) {
	p.Info("CPU vendor: %s", rep.Vendor)

	for _, result := range rep.Results {
		switch result.Status {
		case interfaces.StatusWarn:
			p.Warn("%s", result.Detail)
		default:
			p.Info("%s", result.Detail)
		}
		for _, matched := range result.Lines {
			fmt.Fprintf(p.out, "       %s\n", matched)
		}
	}

	p.Info("kernel cmdline: %s", rep.Cmdline)
}
