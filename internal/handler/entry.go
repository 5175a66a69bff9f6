package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/CageChen/fsclass/internal/classify"
	"github.com/CageChen/fsclass/internal/metrics"
	"github.com/CageChen/fsclass/internal/preview"
)

// ListResponse is a listing together with where it was taken.
type ListResponse struct {
	Root string `json:"root"`
	Path string `json:"path"`
	classify.Listing
}

// EntryHandler serves classified entries, listings and previews
type EntryHandler struct {
	ws              *Workspace
	previewMaxBytes int64
}

// NewEntryHandler creates a new entry handler
func NewEntryHandler(ws *Workspace) *EntryHandler {
	return &EntryHandler{ws: ws, previewMaxBytes: ws.cfg.PreviewMaxBytes}
}

func strict(c *gin.Context) bool {
	switch c.Query("strict") {
	case "1", "true", "yes":
		return true
	}
	return false
}

// target resolves the request path or writes the error response.
func (h *EntryHandler) target(c *gin.Context) (*target, bool) {
	t, err := h.ws.resolve(c.Param("path"))
	switch {
	case err == nil:
		return t, true
	case errors.Is(err, errTraversal):
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid path"})
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "root not found"})
	}
	return nil, false
}

// GetEntry returns the classified entry for a path. Unreadable paths yield a
// placeholder entry unless strict is requested.
func (h *EntryHandler) GetEntry(c *gin.Context) {
	t, ok := h.target(c)
	if !ok {
		return
	}

	var entry classify.Entry
	if strict(c) {
		var err error
		entry, err = t.builder.Stat(t.rel)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "entry not found"})
			return
		}
	} else {
		entry = t.builder.Entry(t.rel)
	}

	metrics.RecordEntry(entry)
	c.JSON(http.StatusOK, entry)
}

// GetList returns the classified children of a directory, minus excluded names.
// Unreadable directories yield an empty listing unless strict is requested.
func (h *EntryHandler) GetList(c *gin.Context) {
	t, ok := h.target(c)
	if !ok {
		return
	}

	listing, err := t.builder.List(t.rel)
	metrics.RecordListing(listing, err)
	if err != nil {
		if strict(c) {
			c.JSON(http.StatusNotFound, gin.H{"error": "directory not readable"})
			return
		}
		h.ws.log.Error("failed to read directory", "root", t.root.Alias, "path", t.rel, "error", err)
		listing = classify.Listing{Entries: []classify.Entry{}}
	} else {
		h.ws.watch(t)
	}

	kept := listing.Entries[:0]
	for _, e := range listing.Entries {
		if !h.ws.isExcluded(e.Name) {
			kept = append(kept, e)
		}
	}
	listing.Entries = kept

	c.JSON(http.StatusOK, ListResponse{Root: t.root.Alias, Path: t.rel, Listing: listing})
}

// GetPreview returns a rendered preview of a text file
func (h *EntryHandler) GetPreview(c *gin.Context) {
	t, ok := h.target(c)
	if !ok {
		return
	}

	r := preview.NewRenderer(t.fsys, t.builder.Resolver(), h.previewMaxBytes)
	res, err := r.Render(t.rel)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, res)
	case errors.Is(err, preview.ErrNotText):
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "not a text file"})
	case errors.Is(err, preview.ErrIsDirectory):
		c.JSON(http.StatusBadRequest, gin.H{"error": "path is a directory"})
	case isNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render preview: " + err.Error()})
	}
}
