package handler

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/CageChen/fsclass/internal/classify"
	"github.com/CageChen/fsclass/internal/watcher"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// EntryChange is the payload of an "entryChange" message. Entry is absent for
// removals and renames.
type EntryChange struct {
	Event string          `json:"event"`
	Root  string          `json:"root"`
	Path  string          `json:"path"`
	Entry *classify.Entry `json:"entry,omitempty"`
}

// WSHandler pushes entry changes to connected clients
type WSHandler struct {
	ws      *Workspace
	clients map[*websocket.Conn]bool
	mu      sync.RWMutex
}

// NewWSHandler creates a new WebSocket handler
func NewWSHandler(ws *Workspace) *WSHandler {
	return &WSHandler{
		ws:      ws,
		clients: make(map[*websocket.Conn]bool),
	}
}

// HandleWS handles WebSocket upgrade and connection
func (h *WSHandler) HandleWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.ws.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer func() {
		h.removeClient(conn)
		_ = conn.Close()
	}()

	h.addClient(conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// OnFileChange reclassifies the changed path and broadcasts the result. It is
// registered as the watcher callback.
func (h *WSHandler) OnFileChange(event watcher.Event) {
	t, ok := h.ws.locate(event.Path)
	if !ok {
		return
	}

	change := EntryChange{
		Event: event.Type.String(),
		Root:  t.root.Alias,
		Path:  t.rel,
	}
	switch event.Type {
	case watcher.EventCreate, watcher.EventWrite:
		entry, err := t.builder.Stat(t.rel)
		if err != nil {
			// Gone again before we got to it; a remove event follows.
			h.ws.log.Debug("changed entry vanished", "path", event.Path, "error", err)
			return
		}
		change.Entry = &entry
	case watcher.EventRemove, watcher.EventRename:
	default:
		return
	}

	h.broadcast(WSMessage{Type: "entryChange", Payload: change})
}

func (h *WSHandler) addClient(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = true
}

func (h *WSHandler) removeClient(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
}

func (h *WSHandler) clientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *WSHandler) broadcast(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.ws.log.Error("failed to encode websocket message", "error", err)
		return
	}

	h.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		if err := client.WriteMessage(websocket.TextMessage, data); err != nil {
			h.removeClient(client)
		}
	}
}
