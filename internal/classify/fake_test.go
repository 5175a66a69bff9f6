package classify

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/CageChen/fsclass/internal/fs"
	"github.com/CageChen/fsclass/internal/logging"
)

// memFS is an in-memory fs.FileSystem whose failures can be chosen per path.
type memFS struct {
	files   map[string][]byte
	dirs    map[string][]fs.DirEntry
	statErr map[string]error
	openErr map[string]error
}

func newMemFS() *memFS {
	return &memFS{
		files:   map[string][]byte{},
		dirs:    map[string][]fs.DirEntry{},
		statErr: map[string]error{},
		openErr: map[string]error{},
	}
}

func (m *memFS) Open(path string) (io.ReadCloser, error) {
	if err := m.openErr[path]; err != nil {
		return nil, err
	}
	data, ok := m.files[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memFS) Stat(path string) (fs.FileInfo, error) {
	if err := m.statErr[path]; err != nil {
		return fs.FileInfo{}, err
	}
	if data, ok := m.files[path]; ok {
		return fs.FileInfo{Name: entryName(path), Size: int64(len(data))}, nil
	}
	if _, ok := m.dirs[path]; ok {
		return fs.FileInfo{Name: entryName(path), IsDir: true, Size: 4096}, nil
	}
	return fs.FileInfo{}, os.ErrNotExist
}

func (m *memFS) ReadDir(path string) ([]fs.DirEntry, error) {
	entries, ok := m.dirs[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return entries, nil
}

// failingReader fails on the first read.
type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("io failure") }
func (failingReader) Close() error             { return nil }

type readFailFS struct{ *memFS }

func (r readFailFS) Open(string) (io.ReadCloser, error) { return failingReader{}, nil }

// recordLogger keeps every message with its level.
type recordLogger struct {
	mu      sync.Mutex
	records []string
}

func (r *recordLogger) add(level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, fmt.Sprintf("%s: %s", level, msg))
}

func (r *recordLogger) Debug(msg string, _ ...any) { r.add("debug", msg) }
func (r *recordLogger) Info(msg string, _ ...any)  { r.add("info", msg) }
func (r *recordLogger) Warn(msg string, _ ...any)  { r.add("warn", msg) }
func (r *recordLogger) Error(msg string, _ ...any) { r.add("error", msg) }
func (r *recordLogger) With(...any) logging.Logger { return r }
func (r *recordLogger) Sync() error                { return nil }

func (r *recordLogger) has(record string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec == record {
			return true
		}
	}
	return false
}
