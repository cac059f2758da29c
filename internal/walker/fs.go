package walker

import (
	"os"
	"path/filepath"

	"github.com/karrick/godirwalk"
)

// FileSystem is the set of operations the walker needs from a hierarchical
// filesystem. Paths are built with Join and never depend on a working
// directory.
type FileSystem interface {
	// Lstat returns file info without following a final symlink.
	Lstat(name string) (os.FileInfo, error)
	// ReadDirNames returns the names of the entries of a directory in
	// filesystem order.
	ReadDirNames(name string) ([]string, error)
	// Enter reports whether the directory name can be searched, so that its
	// children can be reached by path.
	Enter(name string) error
	// ReadLink returns the target of a symlink.
	ReadLink(name string) (string, error)
	// RealPath returns the canonical absolute path of name.
	RealPath(name string) (string, error)
	// Join joins path elements.
	Join(elem ...string) string
}

// LocalFS implements FileSystem on the local disk.
type LocalFS struct {
	scratch []byte
}

// NewLocalFS creates a local filesystem. It is not safe for concurrent use
// because directory reads share one scratch buffer.
func NewLocalFS() *LocalFS {
	return &LocalFS{scratch: make([]byte, godirwalk.MinimumScratchBufferSize)}
}

func (l *LocalFS) Lstat(name string) (os.FileInfo, error) {
	return os.Lstat(name)
}

func (l *LocalFS) ReadDirNames(name string) ([]string, error) {
	return godirwalk.ReadDirnames(name, l.scratch)
}

// Enter stats name's "." entry, which needs search permission on name even
// when the directory itself is readable.
func (l *LocalFS) Enter(name string) error {
	_, err := os.Lstat(name + string(filepath.Separator) + ".")
	return err
}

func (l *LocalFS) ReadLink(name string) (string, error) {
	return os.Readlink(name)
}

// RealPath resolves name to an absolute path with every symlink and ".."
// component removed.
func (l *LocalFS) RealPath(name string) (string, error) {
	abs, err := filepath.Abs(name)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

func (l *LocalFS) Join(elem ...string) string {
	return filepath.Join(elem...)
}
