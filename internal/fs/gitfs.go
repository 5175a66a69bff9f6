package fs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// ErrIsDir is returned when a file operation is attempted on a tree.
var ErrIsDir = errors.New("is a directory")

// GitFS implements FileSystem by reading from a git ref (branch, tag, or commit).
// Git does not record creation times, so Created is always zero.
type GitFS struct {
	repoPath string
	ref      string
}

// NewGitFS creates a GitFS that reads the given ref in the repository at repoPath.
func NewGitFS(repoPath, ref string) *GitFS {
	return &GitFS{repoPath: repoPath, ref: ref}
}

func (g *GitFS) command(args ...string) *exec.Cmd {
	cmd := exec.Command("git", append([]string{"-C", g.repoPath}, args...)...)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	return cmd
}

func (g *GitFS) git(args ...string) (string, error) {
	out, err := g.command(args...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("git %s: %s", strings.Join(args, " "), strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", err
	}
	return string(out), nil
}

func (g *GitFS) object(path string) string {
	return g.ref + ":" + path
}

// treeLine is one parsed row of `git ls-tree -l`.
type treeLine struct {
	objType string
	size    int64
	name    string
}

// parseTreeLine parses "<mode> <type> <hash> <size>\t<name>". Trees report "-" as size.
func parseTreeLine(line string) (treeLine, bool) {
	tab := strings.IndexByte(line, '\t')
	if tab < 0 {
		return treeLine{}, false
	}
	fields := strings.Fields(line[:tab])
	if len(fields) < 4 {
		return treeLine{}, false
	}
	tl := treeLine{objType: fields[1], name: baseName(line[tab+1:])}
	if fields[3] != "-" {
		tl.size, _ = strconv.ParseInt(fields[3], 10, 64)
	}
	return tl, true
}

// Open streams the blob at path. The returned reader must be closed to reap the
// git process.
func (g *GitFS) Open(path string) (io.ReadCloser, error) {
	if path == "" || path == "." {
		return nil, ErrIsDir
	}
	kind, err := g.git("cat-file", "-t", g.object(path))
	if err != nil {
		return nil, os.ErrNotExist
	}
	if strings.TrimSpace(kind) != "blob" {
		return nil, ErrIsDir
	}

	cmd := g.command("cat-file", "blob", g.object(path))
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &blobReader{ReadCloser: stdout, cmd: cmd}, nil
}

// blobReader stops the git process once the caller is done, even if the
// blob was only partially read.
type blobReader struct {
	io.ReadCloser
	cmd *exec.Cmd
}

func (b *blobReader) Close() error {
	_ = b.ReadCloser.Close()
	if b.cmd.ProcessState == nil {
		_ = b.cmd.Process.Kill()
	}
	_ = b.cmd.Wait()
	return nil
}

// Stat returns metadata for the file or directory at the given path in the git ref.
func (g *GitFS) Stat(path string) (FileInfo, error) {
	if path == "" || path == "." {
		if _, err := g.git("rev-parse", "--verify", g.ref); err != nil {
			return FileInfo{}, os.ErrNotExist
		}
		return FileInfo{Name: g.ref, IsDir: true, ModTime: g.modTime("")}, nil
	}

	out, err := g.git("ls-tree", "-l", g.ref, strings.TrimSuffix(path, "/"))
	if err != nil {
		return FileInfo{}, os.ErrNotExist
	}
	tl, ok := parseTreeLine(strings.TrimSpace(out))
	if !ok {
		return FileInfo{}, os.ErrNotExist
	}

	info := FileInfo{
		Name:    tl.name,
		IsDir:   tl.objType == "tree",
		ModTime: g.modTime(path),
	}
	if !info.IsDir {
		info.Size = tl.size
	}
	return info, nil
}

// ReadDir lists the immediate children of the directory at the given path in the git ref.
func (g *GitFS) ReadDir(path string) ([]DirEntry, error) {
	args := []string{"ls-tree", "-l", g.ref}
	if path != "" && path != "." {
		info, err := g.Stat(path)
		if err != nil {
			return nil, err
		}
		if !info.IsDir {
			return nil, fmt.Errorf("%s: not a directory", path)
		}
		args = append(args, strings.TrimSuffix(path, "/")+"/")
	}

	out, err := g.git(args...)
	if err != nil {
		return nil, os.ErrNotExist
	}

	entries := []DirEntry{}
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		tl, ok := parseTreeLine(line)
		if !ok {
			continue
		}
		entries = append(entries, DirEntry{Name: tl.name, IsDir: tl.objType == "tree"})
	}
	return entries, nil
}

// modTime is the commit time of the last commit touching path, or zero.
func (g *GitFS) modTime(path string) time.Time {
	args := []string{"log", "-1", "--format=%ct", g.ref}
	if path != "" && path != "." {
		args = append(args, "--", path)
	}
	out, err := g.git(args...)
	if err != nil {
		return time.Time{}
	}
	sec, err := strconv.ParseInt(strings.TrimSpace(out), 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(sec, 0)
}

func baseName(path string) string {
	path = strings.TrimSuffix(path, "/")
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}
