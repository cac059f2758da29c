// Package render turns walker lines into text or JSON output.
package render

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/sadopc/dtree/internal/walker"
)

// IndentUnit is the indentation added per depth level.
const IndentUnit = "    "

const unreadableTarget = "(unreadable)"

// errWriter wraps an io.Writer and captures the first write error.
// Subsequent writes after an error are no-ops, avoiding verbose per-call checks.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) WriteString(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = io.WriteString(ew.w, s)
}

// TextOptions configures the text renderer.
type TextOptions struct {
	// Details prefixes every line with a permission string and shows symlink
	// targets.
	Details bool
	// Report appends a "N directories, M files" summary.
	Report bool
	// Style colors names; nil renders plain text.
	Style *Style
}

// Text renders the indented tree line by line.
type Text struct {
	bw   *bufio.Writer
	ew   *errWriter
	opts TextOptions
}

// NewText creates a text renderer writing to out.
func NewText(out io.Writer, opts TextOptions) *Text {
	bw := bufio.NewWriterSize(out, 32*1024)
	return &Text{bw: bw, ew: &errWriter{w: bw}, opts: opts}
}

// Line writes one entry. Output is flushed whenever a directory line is
// written so long walks stream.
func (t *Text) Line(l walker.Line) error {
	t.ew.WriteString(FormatLine(l, t.opts.Details, t.opts.Style))
	t.ew.WriteString("\n")
	if t.ew.err == nil && l.Entry.Kind == walker.KindDir {
		t.ew.err = t.bw.Flush()
	}
	return t.ew.err
}

// Finish writes the optional report and flushes.
func (t *Text) Finish(res walker.Result) error {
	if t.opts.Report {
		t.ew.WriteString(fmt.Sprintf("\n%s, %s\n",
			plural(res.Directories, "directory", "directories"),
			plural(res.Files, "file", "files")))
	}
	if t.ew.err != nil {
		return t.ew.err
	}
	return t.bw.Flush()
}

// FormatLine renders l without a trailing newline.
//
// Plain:   <indent><name>
// Details: <perm><indent> <name>[ -> <target>]
// Errors append ": <message>"; an entry that could not be stat'ed is printed
// as <indent><name>: <message> without a permission column.
func FormatLine(l walker.Line, details bool, style *Style) string {
	if style == nil {
		style = &Style{}
	}
	var b strings.Builder
	indent := strings.Repeat(IndentUnit, l.Depth)
	e := l.Entry

	if l.Unclassified {
		b.WriteString(indent)
		b.WriteString(e.Name)
		b.WriteString(": ")
		b.WriteString(style.paint(style.ErrorText, walker.ErrorText(l.Err)))
		return b.String()
	}

	if details {
		b.WriteString(style.paint(style.Perm, walker.PermString(e.Mode)))
		b.WriteString(indent)
		b.WriteString(" ")
	} else {
		b.WriteString(indent)
	}
	b.WriteString(style.Name(e, l.Depth))

	if details && e.Kind == walker.KindSymlink && !l.Bare {
		b.WriteString(" -> ")
		if e.TargetErr != nil {
			b.WriteString(style.paint(style.ErrorText, unreadableTarget))
		} else {
			b.WriteString(style.paint(style.Target, e.Target))
		}
	}
	if l.Err != nil {
		b.WriteString(": ")
		b.WriteString(style.paint(style.ErrorText, walker.ErrorText(l.Err)))
	}
	return b.String()
}

func plural(n int64, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}
