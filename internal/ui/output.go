// Package ui provides consistent styled output for the setup-kustomize CLI.
package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// Writer provides styled output methods that respect color settings.
type Writer struct {
	out    io.Writer
	errOut io.Writer

	green  *color.Color
	yellow *color.Color
	red    *color.Color
	cyan   *color.Color
	bold   *color.Color
	faint  *color.Color
}

// NewWriter creates a Writer that writes to stdout/stderr.
// Color is disabled when noColor is true or the NO_COLOR env var is set.
func NewWriter(noColor bool) *Writer {
	return NewWriterWithOutputs(os.Stdout, os.Stderr, noColor || os.Getenv("NO_COLOR") != "")
}

// NewWriterWithOutputs creates a Writer with custom output destinations.
// Intended for testing.
func NewWriterWithOutputs(out, errOut io.Writer, noColor bool) *Writer {
	w := &Writer{
		out:    out,
		errOut: errOut,
		green:  color.New(color.FgGreen),
		yellow: color.New(color.FgYellow),
		red:    color.New(color.FgRed),
		cyan:   color.New(color.FgCyan),
		bold:   color.New(color.Bold),
		faint:  color.New(color.Faint),
	}

	for _, c := range []*color.Color{w.green, w.yellow, w.red, w.cyan, w.bold, w.faint} {
		if noColor {
			c.DisableColor()
		} else {
			c.EnableColor()
		}
	}

	return w
}

// Success prints a success message with a green checkmark prefix.
func (w *Writer) Success(msg string) {
	writeLine(w.out, w.green.Sprint("✓"), msg)
}

// Warning prints a warning message to stderr with a yellow prefix.
func (w *Writer) Warning(msg string) {
	writeLine(w.errOut, w.yellow.Sprint("warning:"), msg)
}

// Error prints an error message to stderr with a red prefix.
func (w *Writer) Error(msg string) {
	writeLine(w.errOut, w.red.Sprint("error:"), msg)
}

// Info prints an informational message with a cyan prefix.
func (w *Writer) Info(msg string) {
	writeLine(w.out, w.cyan.Sprint("info:"), msg)
}

// Item prints an indented list entry with a dimmed detail column.
func (w *Writer) Item(name, detail string) {
	if detail == "" {
		writeLine(w.out, " ", name)

		return
	}

	writeLine(w.out, " ", fmt.Sprintf("%-12s %s", name, w.faint.Sprint(detail)))
}

// Bold prints text in bold.
func (w *Writer) Bold(msg string) string {
	return w.bold.Sprint(msg)
}

// Successf prints a formatted success message.
func (w *Writer) Successf(format string, args ...any) {
	w.Success(fmt.Sprintf(format, args...))
}

// Warningf prints a formatted warning message.
func (w *Writer) Warningf(format string, args ...any) {
	w.Warning(fmt.Sprintf(format, args...))
}

// Errorf prints a formatted error message.
func (w *Writer) Errorf(format string, args ...any) {
	w.Error(fmt.Sprintf(format, args...))
}

// Infof prints a formatted informational message.
func (w *Writer) Infof(format string, args ...any) {
	w.Info(fmt.Sprintf(format, args...))
}

func writeLine(out io.Writer, prefix, msg string) {
	if _, err := fmt.Fprintf(out, "%s %s\n", prefix, msg); err != nil {
		// Best-effort output; if stderr fails there's nothing useful to do.
		return
	}
}
