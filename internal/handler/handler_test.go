package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/CageChen/fsclass/internal/classify"
	"github.com/CageChen/fsclass/internal/config"
	"github.com/CageChen/fsclass/internal/watcher"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// setup creates a root with a few files and a router serving it as "data".
func setup(t *testing.T) (*Workspace, *gin.Engine, string) {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"notes.txt":     "plain notes\n",
		"readme.md":     "# Title\n\n## Usage\n\ntext\n",
		"main.go":       "package main\n",
		"sub/inner.txt": "inner\n",
	}
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "blob"), []byte{0x00, 0xff, 0xfe, 0x01}, 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, ".git"), 0755); err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	cfg.Metrics = false
	cfg.Roots = []config.Root{{Path: dir, Alias: "data"}}
	cfg.SetConfigFilePath(filepath.Join(t.TempDir(), "fsclass.yaml"))

	ws := NewWorkspace(cfg, nil, nil)
	return ws, NewRouter(ws, NewWSHandler(ws)), dir
}

func do(t *testing.T, r http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func TestGetEntry(t *testing.T) {
	_, r, _ := setup(t)

	tests := []struct {
		path     string
		name     string
		category classify.Category
		isDir    bool
	}{
		{"/api/entry/data/notes.txt", "notes.txt", classify.Text, false},
		{"/api/entry/data/main.go", "main.go", classify.Text, false},
		{"/api/entry/data/blob", "blob", classify.Unknown, false},
		{"/api/entry/data/sub", "sub", classify.Unknown, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, r, http.MethodGet, tt.path, nil)
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
			}
			e := decode[classify.Entry](t, w)
			if e.Name != tt.name {
				t.Errorf("Name = %q, want %q", e.Name, tt.name)
			}
			if e.IsDir != tt.isDir {
				t.Errorf("IsDir = %v, want %v", e.IsDir, tt.isDir)
			}
			if e.Category != tt.category {
				t.Errorf("Category = %v, want %v", e.Category, tt.category)
			}
		})
	}
}

func TestGetEntry_Language(t *testing.T) {
	_, r, _ := setup(t)

	e := decode[classify.Entry](t, do(t, r, http.MethodGet, "/api/entry/data/main.go", nil))
	if e.Language != "Go" {
		t.Errorf("Language = %q, want Go", e.Language)
	}
}

func TestGetEntry_Missing(t *testing.T) {
	_, r, _ := setup(t)

	w := do(t, r, http.MethodGet, "/api/entry/data/missing.txt", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	e := decode[classify.Entry](t, w)
	if e.Name != "" || e.Category != classify.Text {
		t.Errorf("placeholder = %+v", e)
	}

	w = do(t, r, http.MethodGet, "/api/entry/data/missing.txt?strict=1", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("strict status = %d, want 404", w.Code)
	}
}

func TestGetEntry_UnknownRoot(t *testing.T) {
	_, r, _ := setup(t)

	if w := do(t, r, http.MethodGet, "/api/entry/nope/notes.txt", nil); w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestResolve(t *testing.T) {
	ws, _, _ := setup(t)

	tests := []struct {
		path    string
		rel     string
		wantErr error
	}{
		{"/data/notes.txt", "notes.txt", nil},
		{"/data", "", nil},
		{"/data/sub/inner.txt", "sub/inner.txt", nil},
		{"/data/../etc/passwd", "", errTraversal},
		{"/data/sub/../../x", "", errTraversal},
		{"/other/notes.txt", "", errUnknownRoot},
		{"/", "", errUnknownRoot},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := ws.resolve(tt.path)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got.rel != tt.rel {
				t.Errorf("rel = %q, want %q", got.rel, tt.rel)
			}
		})
	}
}

func TestGetList(t *testing.T) {
	_, r, _ := setup(t)

	w := do(t, r, http.MethodGet, "/api/list/data", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	resp := decode[ListResponse](t, w)
	if resp.Root != "data" || resp.Path != "" {
		t.Errorf("root/path = %q/%q", resp.Root, resp.Path)
	}
	if resp.Parent != nil {
		t.Errorf("Parent = %q, want nil for the root listing", *resp.Parent)
	}

	names := make(map[string]bool)
	for _, e := range resp.Entries {
		names[e.Name] = true
	}
	for _, want := range []string{"notes.txt", "readme.md", "main.go", "blob", "sub"} {
		if !names[want] {
			t.Errorf("listing misses %q", want)
		}
	}
	if names[".git"] {
		t.Error("excluded .git should not be listed")
	}
}

func TestGetList_Subdirectory(t *testing.T) {
	_, r, _ := setup(t)

	resp := decode[ListResponse](t, do(t, r, http.MethodGet, "/api/list/data/sub", nil))
	if resp.Parent == nil || *resp.Parent != "" {
		t.Errorf("Parent = %v, want empty string", resp.Parent)
	}
	if len(resp.Entries) != 1 || resp.Entries[0].Name != "inner.txt" {
		t.Errorf("Entries = %+v", resp.Entries)
	}
}

func TestGetList_Missing(t *testing.T) {
	_, r, _ := setup(t)

	w := do(t, r, http.MethodGet, "/api/list/data/missing", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"entries":[]`) {
		t.Errorf("body = %s, want empty entries", w.Body.String())
	}

	if w := do(t, r, http.MethodGet, "/api/list/data/missing?strict=true", nil); w.Code != http.StatusNotFound {
		t.Errorf("strict status = %d, want 404", w.Code)
	}
}

func TestGetPreview(t *testing.T) {
	_, r, _ := setup(t)

	w := do(t, r, http.MethodGet, "/api/preview/data/readme.md", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"format":"markdown"`) {
		t.Errorf("body = %s", w.Body.String())
	}

	tests := []struct {
		path string
		code int
	}{
		{"/api/preview/data/blob", http.StatusUnsupportedMediaType},
		{"/api/preview/data/sub", http.StatusBadRequest},
		{"/api/preview/data/missing.txt", http.StatusNotFound},
	}
	for _, tt := range tests {
		if w := do(t, r, http.MethodGet, tt.path, nil); w.Code != tt.code {
			t.Errorf("%s: status = %d, want %d", tt.path, w.Code, tt.code)
		}
	}
}

func TestRoots(t *testing.T) {
	ws, r, _ := setup(t)

	resp := decode[RootsResponse](t, do(t, r, http.MethodGet, "/api/roots", nil))
	if len(resp.Roots) != 1 || resp.Roots[0].Alias != "data" {
		t.Fatalf("Roots = %+v", resp.Roots)
	}

	extra := t.TempDir()
	w := do(t, r, http.MethodPost, "/api/roots", AddRootRequest{Path: extra, Alias: "extra"})
	if w.Code != http.StatusOK {
		t.Fatalf("add status = %d, body %s", w.Code, w.Body.String())
	}
	if _, err := os.Stat(ws.cfg.GetConfigFilePath()); err != nil {
		t.Errorf("config not saved: %v", err)
	}
	if _, ok := ws.cfg.FindRoot("extra"); !ok {
		t.Error("extra root not added")
	}

	if w := do(t, r, http.MethodPost, "/api/roots", AddRootRequest{Path: filepath.Join(extra, "nope")}); w.Code != http.StatusBadRequest {
		t.Errorf("missing dir status = %d, want 400", w.Code)
	}
	if w := do(t, r, http.MethodPost, "/api/roots", AddRootRequest{Path: t.TempDir(), Alias: "extra"}); w.Code != http.StatusBadRequest {
		t.Errorf("duplicate alias status = %d, want 400", w.Code)
	}

	if w := do(t, r, http.MethodDelete, "/api/roots", RemoveRootRequest{Index: 5}); w.Code != http.StatusBadRequest {
		t.Errorf("bad index status = %d, want 400", w.Code)
	}
	if w := do(t, r, http.MethodDelete, "/api/roots", RemoveRootRequest{Index: 1}); w.Code != http.StatusOK {
		t.Fatalf("remove status = %d", w.Code)
	}
	if _, ok := ws.cfg.FindRoot("extra"); ok {
		t.Error("extra root still present")
	}
}

func TestAddRoot_InvalidAlias(t *testing.T) {
	ws, r, _ := setup(t)

	w := do(t, r, http.MethodPost, "/api/roots", AddRootRequest{Path: t.TempDir(), Alias: "bad/alias"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if len(ws.cfg.Roots) != 1 {
		t.Fatalf("rejected root was kept: %+v", ws.cfg.Roots)
	}

	if w := do(t, r, http.MethodPost, "/api/roots", AddRootRequest{Path: t.TempDir(), Alias: "good"}); w.Code != http.StatusOK {
		t.Fatalf("valid add status = %d, body %s", w.Code, w.Body.String())
	}
	if w := do(t, r, http.MethodDelete, "/api/roots", RemoveRootRequest{Index: 1}); w.Code != http.StatusOK {
		t.Fatalf("remove status = %d", w.Code)
	}

	cfg, err := config.Load(ws.cfg.GetConfigFilePath())
	if err != nil {
		t.Fatalf("saved config does not load: %v", err)
	}
	if len(cfg.Roots) != 1 || cfg.Roots[0].Alias != "data" {
		t.Errorf("saved roots = %+v", cfg.Roots)
	}
}

func TestLocate(t *testing.T) {
	ws, _, dir := setup(t)

	got, ok := ws.locate(filepath.Join(dir, "sub", "inner.txt"))
	if !ok {
		t.Fatal("locate failed")
	}
	if got.root.Alias != "data" || got.rel != "sub/inner.txt" {
		t.Errorf("got %s/%s", got.root.Alias, got.rel)
	}

	if _, ok := ws.locate(filepath.Join(filepath.Dir(dir), "elsewhere")); ok {
		t.Error("path outside every root should not be located")
	}
}

func TestWebSocket_EntryChange(t *testing.T) {
	ws, r, dir := setup(t)
	wsHandler := NewWSHandler(ws)
	r.GET("/test/ws", wsHandler.HandleWS)

	srv := httptest.NewServer(r)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/test/ws", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for wsHandler.clientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	wsHandler.OnFileChange(watcher.Event{Type: watcher.EventWrite, Path: filepath.Join(dir, "notes.txt")})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg struct {
		Type    string      `json:"type"`
		Payload EntryChange `json:"payload"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatal(err)
	}
	if msg.Type != "entryChange" {
		t.Errorf("Type = %q", msg.Type)
	}
	p := msg.Payload
	if p.Event != "update" || p.Root != "data" || p.Path != "notes.txt" {
		t.Errorf("payload = %+v", p)
	}
	if p.Entry == nil || p.Entry.Name != "notes.txt" || p.Entry.Category != classify.Text {
		t.Errorf("Entry = %+v", p.Entry)
	}
}

func TestSetWatcher_WatchesLocalRoots(t *testing.T) {
	ws, r, dir := setup(t)

	w, err := watcher.New(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = w.Stop() }()

	ws.SetWatcher(w)
	if !w.Watching(dir) {
		t.Error("root directory should be watched")
	}

	if w.Watching(filepath.Join(dir, "sub")) {
		t.Fatal("sub should not be watched before it is listed")
	}
	do(t, r, http.MethodGet, "/api/list/data/sub", nil)
	if !w.Watching(filepath.Join(dir, "sub")) {
		t.Error("listed directory should be watched")
	}
}
