// Package fs provides the metadata and content capabilities the classifier reads from:
// the local disk or the tree of a git ref.
package fs

import (
	"io"
	"time"
)

// FileInfo holds the raw metadata of one path.
// A zero ModTime or Created means the source could not supply it.
type FileInfo struct {
	Name    string
	IsDir   bool
	Size    int64
	ModTime time.Time
	Created time.Time
}

// DirEntry represents a single directory entry.
type DirEntry struct {
	Name  string
	IsDir bool
}

// FileSystem abstracts the read-only operations classification needs so callers
// can work with either the local filesystem or a git object database.
type FileSystem interface {
	// Open returns a reader positioned at the start of the file's content.
	Open(path string) (io.ReadCloser, error)
	Stat(path string) (FileInfo, error)
	// ReadDir lists immediate children in the order the source returns them.
	ReadDir(path string) ([]DirEntry, error)
}
