package handler

import (
	"errors"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/CageChen/fsclass/internal/config"
	mfs "github.com/CageChen/fsclass/internal/fs"
)

// RootsHandler manages the configured roots
type RootsHandler struct {
	ws *Workspace
}

// NewRootsHandler creates a new roots handler
func NewRootsHandler(ws *Workspace) *RootsHandler {
	return &RootsHandler{ws: ws}
}

// RootsResponse is the response for GET /api/roots
type RootsResponse struct {
	Roots   []config.Root `json:"roots"`
	Exclude []string      `json:"exclude"`
}

// GetRoots returns the configured roots
func (h *RootsHandler) GetRoots(c *gin.Context) {
	h.ws.mu.RLock()
	defer h.ws.mu.RUnlock()

	roots := make([]config.Root, len(h.ws.cfg.Roots))
	copy(roots, h.ws.cfg.Roots)
	c.JSON(http.StatusOK, RootsResponse{Roots: roots, Exclude: h.ws.cfg.Exclude})
}

// AddRootRequest is the request body for adding a root
type AddRootRequest struct {
	Path   string `json:"path" binding:"required"`
	Alias  string `json:"alias"`
	GitRef string `json:"git_ref"`
}

// AddRoot adds a new root and persists the config
func (h *RootsHandler) AddRoot(c *gin.Context) {
	var req AddRootRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	info, err := os.Stat(req.Path)
	if err != nil || !info.IsDir() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path does not exist or is not a directory"})
		return
	}
	if req.GitRef != "" {
		if _, err := mfs.NewGitFS(req.Path, req.GitRef).Stat(""); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read git ref: " + err.Error()})
			return
		}
	}

	h.ws.mu.Lock()
	defer h.ws.mu.Unlock()

	if err := h.ws.cfg.AddRoot(req.Path, req.Alias, req.GitRef); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, config.ErrConfigInvalid) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	if err := h.ws.cfg.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save config: " + err.Error()})
		return
	}

	for _, root := range h.ws.cfg.Roots {
		h.ws.watchRootLocked(root)
	}
	h.ws.log.Info("root added", "path", req.Path, "alias", req.Alias, "git_ref", req.GitRef)
	c.JSON(http.StatusOK, gin.H{"success": true, "roots": h.ws.cfg.Roots})
}

// RemoveRootRequest is the request body for removing a root
type RemoveRootRequest struct {
	Index int `json:"index"`
}

// RemoveRoot removes a root by index and persists the config
func (h *RootsHandler) RemoveRoot(c *gin.Context) {
	var req RemoveRootRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	h.ws.mu.Lock()
	defer h.ws.mu.Unlock()

	if req.Index < 0 || req.Index >= len(h.ws.cfg.Roots) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid index"})
		return
	}

	removed := h.ws.cfg.Roots[req.Index]
	h.ws.cfg.RemoveRootByIndex(req.Index)
	if err := h.ws.cfg.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save config: " + err.Error()})
		return
	}

	h.ws.log.Info("root removed", "alias", removed.Alias)
	c.JSON(http.StatusOK, gin.H{"success": true, "roots": h.ws.cfg.Roots})
}
