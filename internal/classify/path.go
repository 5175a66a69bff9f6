package classify

import (
	"path/filepath"
	"strings"
)

const sep = string(filepath.Separator)

// trimDotTail drops trailing separators and "." components, so "a/b/./" reads as "a/b".
func trimDotTail(p string) string {
	p = strings.TrimRight(p, sep)
	for strings.HasSuffix(p, sep+".") {
		p = strings.TrimRight(p[:len(p)-1], sep)
	}
	return p
}

// entryName returns the final path segment, or "" for roots, empty paths and "..".
func entryName(p string) string {
	p = trimDotTail(p)
	if p == "" || p == "." || p == ".." || strings.HasSuffix(p, sep+"..") {
		return ""
	}
	if i := strings.LastIndex(p, sep); i >= 0 {
		return p[i+1:]
	}
	return p
}

// extension returns the text after the last dot of name. Names whose only dot
// is the leading one (".bashrc") have no extension.
func extension(name string) string {
	if name == ".." {
		return ""
	}
	i := strings.LastIndexByte(name, '.')
	if i <= 0 {
		return ""
	}
	return name[i+1:]
}

// parentOf returns the lexical parent of p. Roots and the empty path have none;
// a single relative segment has the empty path as parent.
func parentOf(p string) (string, bool) {
	rooted := strings.HasPrefix(p, sep)
	p = trimDotTail(p)
	switch {
	case p == "":
		return "", false
	case p == ".":
		return "", true
	}
	i := strings.LastIndex(p, sep)
	if i < 0 {
		return "", true
	}
	parent := strings.TrimRight(p[:i], sep)
	if parent == "" && rooted {
		return sep, true
	}
	return parent, true
}

// joinChild appends name to dir without cleaning the result.
func joinChild(dir, name string) string {
	if dir == "" {
		return name
	}
	if strings.HasSuffix(dir, sep) {
		return dir + name
	}
	return dir + sep + name
}
