package output

import (
	"fmt"
	"io"
	"strings"
)

// Format represents the output format.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat accepts table, json or yaml (case-insensitive).
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want table, json or yaml)", s)
	}
}

// Formatter formats data for output.
type Formatter interface {
	Format(w io.Writer, data any) error
}

// NewFormatter creates a formatter for the given format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{}
	case FormatYAML:
		return &YAMLFormatter{}
	default:
		return &TableFormatter{}
	}
}

// Printer writes results and human messages to one writer.
type Printer struct {
	w         io.Writer
	format    Format
	formatter Formatter
}

// NewPrinter creates a Printer.
func NewPrinter(w io.Writer, format Format) *Printer {
	return &Printer{w: w, format: format, formatter: NewFormatter(format)}
}

// Format returns the printer's format.
func (p *Printer) Format() Format {
	return p.format
}

// Print renders data.
func (p *Printer) Print(data any) error {
	return p.formatter.Format(p.w, data)
}

// Message prints a line for humans. Suppressed for json and yaml so the
// output stays machine-readable.
func (p *Printer) Message(format string, args ...any) {
	if p.format != FormatTable {
		return
	}
	fmt.Fprintf(p.w, format+"\n", args...)
}
