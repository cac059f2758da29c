package walker

import (
	"errors"
	"io/fs"
	"os"
)

// Kind classifies a filesystem object.
type Kind uint8

const (
	KindOther Kind = iota
	KindDir
	KindSymlink
)

func (k Kind) String() string {
	switch k {
	case KindDir:
		return "directory"
	case KindSymlink:
		return "link"
	default:
		return "file"
	}
}

// Entry is one classified filesystem object.
type Entry struct {
	Name string // as printed: the root path at depth 0, the child name below
	Path string // path handed to the FileSystem
	Kind Kind
	Mode os.FileMode

	// Target is the symlink target; TargetErr is set when it could not be read.
	Target    string
	TargetErr error
}

func kindOf(mode os.FileMode) Kind {
	switch {
	case mode&os.ModeSymlink != 0:
		return KindSymlink
	case mode.IsDir():
		return KindDir
	default:
		return KindOther
	}
}

// classify stats path without following symlinks.
func classify(fsys FileSystem, path, name string) (Entry, error) {
	info, err := fsys.Lstat(path)
	if err != nil {
		return Entry{Name: name, Path: path}, err
	}
	e := Entry{
		Name: name,
		Path: path,
		Kind: kindOf(info.Mode()),
		Mode: info.Mode(),
	}
	if e.Kind == KindSymlink {
		e.Target, e.TargetErr = fsys.ReadLink(path)
	}
	return e, nil
}

// PermString renders mode as a 10-character ls-style permission string:
// a type flag (d, l or -) followed by rwx for owner, group and other.
func PermString(mode os.FileMode) string {
	var b [10]byte
	switch kindOf(mode) {
	case KindDir:
		b[0] = 'd'
	case KindSymlink:
		b[0] = 'l'
	default:
		b[0] = '-'
	}
	const rwx = "rwxrwxrwx"
	perm := mode.Perm()
	for i := 0; i < 9; i++ {
		if perm&(1<<uint(8-i)) != 0 {
			b[i+1] = rwx[i]
		} else {
			b[i+1] = '-'
		}
	}
	return string(b[:])
}

// ErrorText returns the bare system message of err, dropping the operation
// and path that os wraps around it.
func ErrorText(err error) string {
	if err == nil {
		return ""
	}
	return systemError(err).Error()
}

func systemError(err error) error {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) && pathErr.Err != nil {
		return pathErr.Err
	}
	var linkErr *os.LinkError
	if errors.As(err, &linkErr) && linkErr.Err != nil {
		return linkErr.Err
	}
	var sysErr *os.SyscallError
	if errors.As(err, &sysErr) && sysErr.Err != nil {
		return sysErr.Err
	}
	return err
}
