package walker

import (
	"context"
	"fmt"

	"github.com/sadopc/dtree/internal/logger"
)

// Line is one rendered row of the tree, emitted in depth-first order with
// children sorted.
type Line struct {
	Depth int
	Entry Entry
	// Err is set when the entry could not be classified or when a directory
	// could not be entered or listed.
	Err error
	// Unclassified marks a stat failure: Entry carries only Name and Path.
	Unclassified bool
	// Bare marks the single root line of a depth-zero walk. It is rendered
	// without a symlink target.
	Bare bool
}

// Renderer consumes lines as the walk produces them.
type Renderer interface {
	Line(Line) error
	// Finish is called once after the last line with the walk summary.
	Finish(Result) error
}

// Result summarizes a walk.
type Result struct {
	// ErrorOccurred is set when any entry failed; the walk itself still ran
	// to completion.
	ErrorOccurred bool
	Directories   int64
	Files         int64
	Errors        int64
}

// Walker renders directory trees depth-first.
type Walker struct {
	fsys FileSystem
	opts Options
	log  logger.Logger
}

// New creates a walker over fsys. A nil log discards diagnostics.
func New(fsys FileSystem, opts Options, log logger.Logger) *Walker {
	if log == nil {
		log = logger.Nop()
	}
	return &Walker{fsys: fsys, opts: opts, log: log}
}

// walkState is owned by a single Walk call.
type walkState struct {
	r       Renderer
	visited *VisitedSet
	result  Result
}

func (st *walkState) emit(l Line) error {
	if l.Err != nil {
		st.result.ErrorOccurred = true
		st.result.Errors++
	}
	if l.Depth > 0 && !l.Unclassified {
		if l.Entry.Kind == KindDir {
			st.result.Directories++
		} else {
			st.result.Files++
		}
	}
	return st.r.Line(l)
}

// Walk renders the tree rooted at root into r. A failure to stat the root is
// returned as an error before anything is rendered; every other filesystem
// error is rendered inline and reported through Result.ErrorOccurred. The
// returned error is non-nil only for the root, a renderer failure or ctx
// cancellation.
func (w *Walker) Walk(ctx context.Context, root string, r Renderer) (Result, error) {
	info, err := w.fsys.Lstat(root)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", root, systemError(err))
	}

	st := &walkState{r: r, visited: NewVisitedSet()}
	entry := Entry{Name: root, Path: root, Kind: kindOf(info.Mode()), Mode: info.Mode()}

	switch {
	case w.opts.MaxDepth == 0:
		if err := st.emit(Line{Depth: 0, Entry: entry, Bare: true}); err != nil {
			return st.result, err
		}
	case entry.Kind != KindDir:
		if entry.Kind == KindSymlink {
			entry.Target, entry.TargetErr = w.fsys.ReadLink(root)
		}
		if err := st.emit(Line{Depth: 0, Entry: entry}); err != nil {
			return st.result, err
		}
	default:
		if err := w.walkDir(ctx, st, entry, 0); err != nil {
			return st.result, err
		}
	}

	w.log.Debug("walk finished",
		"root", root,
		"directories", st.result.Directories,
		"files", st.result.Files,
		"errors", st.result.Errors,
		"visited", st.visited.Len(),
	)
	return st.result, r.Finish(st.result)
}

// walkDir renders dir's own line, then its children. Child directories are
// descended into while the depth limit allows; beyond it they render as
// leaves. When dir cannot be entered or listed, the error goes on dir's own
// line and no children are rendered.
func (w *Walker) walkDir(ctx context.Context, st *walkState, dir Entry, depth int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := w.fsys.Enter(dir.Path); err != nil {
		w.log.Warn("cannot enter directory", "path", dir.Path, "error", err)
		return st.emit(Line{Depth: depth, Entry: dir, Err: err})
	}

	canonical, err := w.fsys.RealPath(dir.Path)
	if err != nil {
		w.log.Warn("cannot resolve directory", "path", dir.Path, "error", err)
		return st.emit(Line{Depth: depth, Entry: dir, Err: err})
	}
	if st.visited.MarkAndCheck(canonical) {
		w.log.Debug("directory already visited", "path", dir.Path, "canonical", canonical)
		return st.emit(Line{Depth: depth, Entry: dir})
	}

	names, err := listChildren(w.fsys, dir.Path, w.opts)
	if err != nil {
		w.log.Warn("cannot list directory", "path", dir.Path, "error", err)
		return st.emit(Line{Depth: depth, Entry: dir, Err: err})
	}
	if err := st.emit(Line{Depth: depth, Entry: dir}); err != nil {
		return err
	}
	w.log.Debug("entered directory", "path", dir.Path, "children", len(names))

	childDepth := depth + 1
	for _, name := range names {
		child, err := classify(w.fsys, w.fsys.Join(dir.Path, name), name)
		if err != nil {
			w.log.Warn("cannot stat entry", "path", child.Path, "error", err)
			if err := st.emit(Line{Depth: childDepth, Entry: child, Err: err, Unclassified: true}); err != nil {
				return err
			}
			continue
		}

		if child.Kind == KindDir && w.opts.expands(childDepth) {
			if err := w.walkDir(ctx, st, child, childDepth); err != nil {
				return err
			}
			continue
		}
		if err := st.emit(Line{Depth: childDepth, Entry: child}); err != nil {
			return err
		}
	}
	return nil
}
