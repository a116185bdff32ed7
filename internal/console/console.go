// Package console prints the human-facing progress lines of the sqrly CLI:
// a green arrow for steps, a red arrow for failures, and indented lists.
package console

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Printer writes progress lines to an output stream.
type Printer struct {
	out  io.Writer
	ok   *color.Color
	fail *color.Color
}

// New returns a Printer. Colors are disabled when colorize is false.
func New(out io.Writer, colorize bool) *Printer {
	ok := color.New(color.FgGreen)
	fail := color.New(color.FgRed)
	if !colorize {
		ok.DisableColor()
		fail.DisableColor()
	} else {
		ok.EnableColor()
		fail.EnableColor()
	}
	return &Printer{out: out, ok: ok, fail: fail}
}

// Step prints a successful step.
func (p *Printer) Step(format string, a ...any) {
	fmt.Fprintf(p.out, "%s %s\n", p.ok.Sprint("->"), fmt.Sprintf(format, a...))
}

// Fail prints a failed step.
func (p *Printer) Fail(format string, a ...any) {
	fmt.Fprintf(p.out, "%s %s\n", p.fail.Sprint("->"), fmt.Sprintf(format, a...))
}

// List prints items one per line, indented.
func (p *Printer) List(items []string) {
	for _, item := range items {
		fmt.Fprintf(p.out, "   %s\n", item)
	}
}

// Command prints a shell command line.
func (p *Printer) Command(cmd string) {
	fmt.Fprintf(p.out, " $ %s\n", cmd)
}

// Raw prints text verbatim, adding a trailing newline when missing.
func (p *Printer) Raw(text string) {
	if text == "" {
		return
	}
	fmt.Fprint(p.out, text)
	if text[len(text)-1] != '\n' {
		fmt.Fprintln(p.out)
	}
}
