// Package output renders CLI results as text tables or JSON documents.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Format selects how command results are rendered.
type Format string

// Supported output formats. Auto resolves at construction time.
const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatAuto Format = "auto"
)

// Formatter writes command results in a fixed format. In JSON mode the
// document is the only stdout payload; progress lines are dropped so
// piped output stays machine-readable.
type Formatter struct {
	format Format
	w      io.Writer
}

// NewFormatter resolves spec ("text", "json", anything else auto)
// against the writer. Auto picks text on a terminal and JSON otherwise.
func NewFormatter(spec string, w io.Writer) *Formatter {
	f := &Formatter{w: w}
	switch Format(strings.ToLower(strings.TrimSpace(spec))) {
	case FormatJSON:
		f.format = FormatJSON
	case FormatText:
		f.format = FormatText
	default:
		f.format = FormatJSON
		if isTerminal(w) {
			f.format = FormatText
		}
	}
	return f
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd())) //nolint:gosec // G115: Fd fits in int on supported platforms
}

// Format returns the resolved format.
func (f *Formatter) Format() Format {
	return f.format
}

// Writer returns the underlying writer.
func (f *Formatter) Writer() io.Writer {
	return f.w
}

// IsJSON reports whether results render as JSON.
func (f *Formatter) IsJSON() bool {
	return f.format == FormatJSON
}

// Print renders v: indented JSON in JSON mode, its string form in text
// mode.
func (f *Formatter) Print(v any) error {
	if f.format == FormatJSON {
		enc := json.NewEncoder(f.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	switch val := v.(type) {
	case string:
		_, err := fmt.Fprintln(f.w, val)
		return err
	case fmt.Stringer:
		_, err := fmt.Fprintln(f.w, val.String())
		return err
	default:
		_, err := fmt.Fprintf(f.w, "%v\n", val)
		return err
	}
}

// Printf writes formatted text to the underlying writer.
func (f *Formatter) Printf(format string, args ...any) error {
	_, err := fmt.Fprintf(f.w, format, args...)
	return err
}

// Println writes a line of text to the underlying writer.
func (f *Formatter) Println(args ...any) error {
	_, err := fmt.Fprintln(f.w, args...)
	return err
}

// Infof writes a progress line in text mode and nothing in JSON mode.
func (f *Formatter) Infof(format string, args ...any) {
	if f.format == FormatJSON {
		return
	}
	_, _ = fmt.Fprintf(f.w, format+"\n", args...)
}
