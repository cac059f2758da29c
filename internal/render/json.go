package render

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/sadopc/dtree/internal/walker"
)

// JSON output format:
// [
//   {"type":"directory","name":"/path","contents":[
//     {"type":"file","name":"a.txt"},
//     {"type":"link","name":"l","target":"a.txt"},
//     {"type":"directory","name":"sub","error":"permission denied"},
//     {"type":"error","name":"gone","error":"no such file or directory"}
//   ]},
//   {"type":"report","directories":1,"files":2,"errors":2}
// ]

type jsonEntry struct {
	Type       string       `json:"type"`
	Name       string       `json:"name"`
	Mode       string       `json:"mode,omitempty"`
	Target     string       `json:"target,omitempty"`
	Unreadable bool         `json:"unreadable,omitempty"`
	Error      string       `json:"error,omitempty"`
	Contents   []*jsonEntry `json:"contents,omitempty"`
}

type jsonReport struct {
	Type        string `json:"type"`
	Directories int64  `json:"directories"`
	Files       int64  `json:"files"`
	Errors      int64  `json:"errors"`
}

// JSONOptions configures the JSON renderer.
type JSONOptions struct {
	// Details adds the permission string of every entry.
	Details bool
}

// JSON collects the walk into a nested document written on Finish.
type JSON struct {
	out   io.Writer
	opts  JSONOptions
	roots []*jsonEntry
	stack []*jsonEntry
}

// NewJSON creates a JSON renderer writing to out.
func NewJSON(out io.Writer, opts JSONOptions) *JSON {
	return &JSON{out: out, opts: opts}
}

// Line attaches l to its parent directory, which is the most recent
// directory seen one level up.
func (j *JSON) Line(l walker.Line) error {
	node := j.entry(l)

	if l.Depth == 0 {
		j.roots = append(j.roots, node)
		j.stack = j.stack[:0]
	} else {
		if l.Depth > len(j.stack) {
			return fmt.Errorf("json: entry %q at depth %d has no parent", l.Entry.Name, l.Depth)
		}
		j.stack = j.stack[:l.Depth]
		parent := j.stack[l.Depth-1]
		parent.Contents = append(parent.Contents, node)
	}

	if node.Type == walker.KindDir.String() {
		j.stack = append(j.stack, node)
	}
	return nil
}

func (j *JSON) entry(l walker.Line) *jsonEntry {
	e := l.Entry
	if l.Unclassified {
		return &jsonEntry{Type: "error", Name: e.Name, Error: walker.ErrorText(l.Err)}
	}

	node := &jsonEntry{Type: e.Kind.String(), Name: e.Name}
	if j.opts.Details {
		node.Mode = walker.PermString(e.Mode)
	}
	if e.Kind == walker.KindSymlink && !l.Bare {
		if e.TargetErr != nil {
			node.Unreadable = true
		} else {
			node.Target = e.Target
		}
	}
	if l.Err != nil {
		node.Error = walker.ErrorText(l.Err)
	}
	return node
}

// Finish writes the document followed by the report element.
func (j *JSON) Finish(res walker.Result) error {
	bw := bufio.NewWriterSize(j.out, 64*1024)
	ew := &errWriter{w: bw}

	ew.WriteString("[")
	for _, root := range j.roots {
		data, err := json.Marshal(root)
		if err != nil {
			return err
		}
		ew.WriteString("\n  ")
		ew.WriteString(string(data))
		ew.WriteString(",")
	}

	data, err := json.Marshal(jsonReport{
		Type:        "report",
		Directories: res.Directories,
		Files:       res.Files,
		Errors:      res.Errors,
	})
	if err != nil {
		return err
	}
	ew.WriteString("\n  ")
	ew.WriteString(string(data))
	ew.WriteString("\n]\n")

	if ew.err != nil {
		return ew.err
	}
	return bw.Flush()
}
