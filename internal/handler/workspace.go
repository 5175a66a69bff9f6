// Package handler provides HTTP handlers for the fsclass REST API.
package handler

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/CageChen/fsclass/internal/classify"
	"github.com/CageChen/fsclass/internal/config"
	mfs "github.com/CageChen/fsclass/internal/fs"
	"github.com/CageChen/fsclass/internal/logging"
	"github.com/CageChen/fsclass/internal/preview"
	"github.com/CageChen/fsclass/internal/watcher"
)

var (
	errUnknownRoot = errors.New("unknown root")
	errTraversal   = errors.New("path escapes root")
)

// Workspace is the state shared by the handlers: the configured roots and how
// to classify paths inside them.
type Workspace struct {
	mu      sync.RWMutex
	cfg     *config.Config
	labeler *classify.Labeler
	log     logging.Logger
	watcher *watcher.Watcher
}

// NewWorkspace creates a Workspace over cfg.
func NewWorkspace(cfg *config.Config, labeler *classify.Labeler, log logging.Logger) *Workspace {
	if labeler == nil {
		labeler = classify.DefaultLabeler()
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Workspace{cfg: cfg, labeler: labeler, log: log}
}

// SetWatcher enables live updates. Local roots are watched right away and
// any other directory once it has been listed.
func (w *Workspace) SetWatcher(wt *watcher.Watcher) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.watcher = wt
	for _, root := range w.cfg.Roots {
		w.watchRootLocked(root)
	}
}

// watchRootLocked starts watching a local root. w.mu must be held.
func (w *Workspace) watchRootLocked(root config.Root) {
	if w.watcher == nil || root.GitRef != "" {
		return
	}
	if err := w.watcher.Add(root.Path); err != nil {
		w.log.Warn("cannot watch root", "alias", root.Alias, "path", root.Path, "error", err)
	}
}

// target is a request path resolved to a root and a path relative to it.
type target struct {
	root    config.Root
	fsys    mfs.FileSystem
	rel     string
	builder *classify.Builder
}

// fsForRoot returns the appropriate FileSystem for a root.
func fsForRoot(root config.Root) mfs.FileSystem {
	if root.GitRef != "" {
		return mfs.NewGitFS(root.Path, root.GitRef)
	}
	return mfs.NewLocalFS(root.Path)
}

func (w *Workspace) newTarget(root config.Root, rel string) *target {
	fsys := fsForRoot(root)
	opts := []classify.Option{
		classify.WithLabeler(w.labeler),
		classify.WithLogger(w.log.With("root", root.Alias)),
	}
	if w.cfg.Languages {
		opts = append(opts, classify.WithLanguages(preview.DetectLanguage))
	}
	return &target{
		root:    root,
		fsys:    fsys,
		rel:     rel,
		builder: classify.NewBuilder(fsys, opts...),
	}
}

// resolve maps "{alias}/{relative path}" to a target.
func (w *Workspace) resolve(requestPath string) (*target, error) {
	requestPath = strings.Trim(requestPath, "/")
	if requestPath == "" {
		return nil, errUnknownRoot
	}

	alias, rel, _ := strings.Cut(requestPath, "/")
	for _, part := range strings.Split(rel, "/") {
		if part == ".." {
			return nil, errTraversal
		}
	}

	w.mu.RLock()
	defer w.mu.RUnlock()
	root, ok := w.cfg.FindRoot(alias)
	if !ok {
		return nil, errUnknownRoot
	}
	return w.newTarget(root, rel), nil
}

// locate maps an absolute path reported by the watcher back to a local root.
func (w *Workspace) locate(absPath string) (*target, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, root := range w.cfg.Roots {
		if root.GitRef != "" {
			continue
		}
		rel, err := filepath.Rel(root.Path, absPath)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		if rel == "." {
			rel = ""
		}
		return w.newTarget(root, filepath.ToSlash(rel)), true
	}
	return nil, false
}

// watch starts watching a listed local directory when live updates are enabled.
func (w *Workspace) watch(t *target) {
	w.mu.RLock()
	wt := w.watcher
	w.mu.RUnlock()

	local, ok := t.fsys.(*mfs.LocalFS)
	if wt == nil || !ok {
		return
	}
	if err := wt.Add(local.Abs(filepath.FromSlash(t.rel))); err != nil {
		w.log.Warn("cannot watch directory", "path", t.rel, "error", err)
	}
}

func (w *Workspace) isExcluded(name string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.cfg.IsExcluded(name)
}

func isNotFound(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
