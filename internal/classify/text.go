package classify

import (
	"errors"
	"io"

	"github.com/CageChen/fsclass/internal/fs"
	"github.com/CageChen/fsclass/internal/logging"
)

// SniffSize is how many leading bytes the text heuristic inspects.
const SniffSize = 1024

// IsTextPrefix reports whether every byte of b is a tab, line feed, carriage
// return or printable ASCII. An empty slice is text.
func IsTextPrefix(b []byte) bool {
	for _, c := range b {
		if c == '\t' || c == '\n' || c == '\r' || (c >= 0x20 && c <= 0x7e) {
			continue
		}
		return false
	}
	return true
}

// LooksLikeText reads up to SniffSize bytes of path and applies IsTextPrefix.
// Files that cannot be opened or read are not text.
func LooksLikeText(fsys fs.FileSystem, path string) bool {
	return looksLikeText(fsys, path, logging.Nop())
}

func looksLikeText(fsys fs.FileSystem, path string, log logging.Logger) bool {
	log.Debug("checking if path is a text file", "path", path)

	f, err := fsys.Open(path)
	if err != nil {
		log.Error("failed to open file", "path", path, "error", err)
		return false
	}
	defer f.Close()

	buf := make([]byte, SniffSize)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		log.Error("failed to read file", "path", path, "error", err)
		return false
	}
	log.Debug("read prefix", "path", path, "bytes", n)

	if !IsTextPrefix(buf[:n]) {
		log.Debug("non-text byte found", "path", path)
		return false
	}
	log.Debug("file appears to be text", "path", path)
	return true
}
