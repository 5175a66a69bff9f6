package fs

import (
	"io"
	"os"
	"path/filepath"
)

// LocalFS implements FileSystem using the local filesystem.
type LocalFS struct {
	root string
}

// NewLocalFS creates a LocalFS rooted at the given directory. An empty root
// means paths are used exactly as given.
func NewLocalFS(root string) *LocalFS {
	return &LocalFS{root: root}
}

// Root returns the directory paths are resolved against.
func (l *LocalFS) Root() string {
	return l.root
}

// Abs resolves path against the root.
func (l *LocalFS) Abs(path string) string {
	if l.root == "" {
		return path
	}
	if path == "" || path == "." {
		return l.root
	}
	return filepath.Join(l.root, path)
}

// Open opens the file at the given path for reading.
func (l *LocalFS) Open(path string) (io.ReadCloser, error) {
	return os.Open(l.Abs(path))
}

// Stat returns metadata for the file or directory at the given path, following symlinks.
func (l *LocalFS) Stat(path string) (FileInfo, error) {
	abs := l.Abs(path)
	info, err := os.Stat(abs)
	if err != nil {
		return FileInfo{}, err
	}
	return FileInfo{
		Name:    info.Name(),
		IsDir:   info.IsDir(),
		Size:    info.Size(),
		ModTime: info.ModTime(),
		Created: birthTime(abs),
	}, nil
}

// ReadDir lists the immediate children of the directory at the given path.
// Unlike os.ReadDir the result keeps directory-read order.
func (l *LocalFS) ReadDir(path string) ([]DirEntry, error) {
	f, err := os.Open(l.Abs(path))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	entries, err := f.ReadDir(-1)
	if err != nil {
		return nil, err
	}
	result := make([]DirEntry, len(entries))
	for i, e := range entries {
		result[i] = DirEntry{
			Name:  e.Name(),
			IsDir: e.IsDir(),
		}
	}
	return result, nil
}
