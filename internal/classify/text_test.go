package classify

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/CageChen/fsclass/internal/fs"
)

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestIsTextPrefix(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want bool
	}{
		{"empty", nil, true},
		{"ascii", []byte("hello, world"), true},
		{"whitespace", []byte("a\tb\r\nc\n"), true},
		{"tilde and space", []byte{0x20, 0x7e}, true},
		{"nul", []byte("abc\x00def"), false},
		{"del", []byte{0x7f}, false},
		{"form feed", []byte{0x0c}, false},
		{"utf8", []byte("caf\xc3\xa9"), false},
		{"high byte", []byte{0xff}, false},
	}
	for _, tt := range tests {
		if got := IsTextPrefix(tt.data); got != tt.want {
			t.Errorf("%s: IsTextPrefix = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestLooksLikeText(t *testing.T) {
	dir := t.TempDir()
	local := fs.NewLocalFS("")

	tests := []struct {
		name string
		data []byte
		want bool
	}{
		{"plain.txt", []byte("just words\n"), true},
		{"empty", []byte{}, true},
		{"nul.bin", []byte{'a', 0x00, 'b'}, false},
		{"late-nul", append(bytes.Repeat([]byte("a"), SniffSize-1), 0x00), false},
		{"beyond-prefix", append(bytes.Repeat([]byte("a"), SniffSize), 0x00, 0xff), true},
	}
	for _, tt := range tests {
		path := writeFile(t, dir, tt.name, tt.data)
		if got := LooksLikeText(local, path); got != tt.want {
			t.Errorf("LooksLikeText(%s) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestLooksLikeText_Unreadable(t *testing.T) {
	if LooksLikeText(fs.NewLocalFS(""), filepath.Join(t.TempDir(), "missing")) {
		t.Error("missing file must not be text")
	}
	if LooksLikeText(readFailFS{newMemFS()}, "any") {
		t.Error("read failure must not be text")
	}
}
