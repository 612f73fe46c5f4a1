package watch

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/conduit-lang/modelkit/internal/logging"
)

// Reload message types.
const (
	MessageReload = "reload"
	MessageError  = "error"
)

const (
	pongWait  = 60 * time.Second
	writeWait = 5 * time.Second
)

// ReloadMessage is pushed to every connected client after a reload attempt.
type ReloadMessage struct {
	Type      string   `json:"type"`
	Timestamp int64    `json:"timestamp"`
	Files     []string `json:"files,omitempty"`
	Classes   int      `json:"classes,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// ReloadServer tells WebSocket clients when definitions were reloaded.
type ReloadServer struct {
	mu          sync.Mutex
	connections map[*websocket.Conn]bool
	closed      bool
	upgrader    websocket.Upgrader
}

// NewReloadServer creates a reload server accepting same-origin and
// localhost clients.
func NewReloadServer() *ReloadServer {
	return &ReloadServer{
		connections: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				return strings.HasPrefix(origin, "http://localhost") ||
					strings.HasPrefix(origin, "https://localhost") ||
					strings.HasPrefix(origin, "http://127.0.0.1") ||
					strings.HasPrefix(origin, "https://127.0.0.1")
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// ServeHTTP upgrades the connection and registers the client.
func (rs *ReloadServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := rs.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.L().Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	rs.mu.Lock()
	if rs.closed {
		rs.mu.Unlock()
		conn.Close()
		return
	}
	rs.connections[conn] = true
	count := len(rs.connections)
	rs.mu.Unlock()

	logging.L().Debug("reload client connected", zap.Int("clients", count))
	go rs.readMessages(conn)
}

// readMessages drains the client until it goes away; clients only send
// pongs and close frames.
func (rs *ReloadServer) readMessages(conn *websocket.Conn) {
	defer rs.remove(conn)

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.L().Debug("reload client error", zap.Error(err))
			}
			return
		}
	}
}

func (rs *ReloadServer) remove(conn *websocket.Conn) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if rs.connections[conn] {
		delete(rs.connections, conn)
		conn.Close()
	}
}

// NotifyReload announces a successful reload.
func (rs *ReloadServer) NotifyReload(files []string, classes int) {
	rs.broadcast(&ReloadMessage{
		Type:      MessageReload,
		Timestamp: time.Now().Unix(),
		Files:     files,
		Classes:   classes,
	})
}

// NotifyError announces a failed reload.
func (rs *ReloadServer) NotifyError(files []string, err error) {
	rs.broadcast(&ReloadMessage{
		Type:      MessageError,
		Timestamp: time.Now().Unix(),
		Files:     files,
		Error:     err.Error(),
	})
}

func (rs *ReloadServer) broadcast(msg *ReloadMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		logging.L().Warn("failed to marshal reload message", zap.Error(err))
		return
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()
	for conn := range rs.connections {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			logging.L().Debug("reload client dropped", zap.Error(err))
			delete(rs.connections, conn)
			conn.Close()
		}
	}
}

// ConnectionCount returns the number of connected clients.
func (rs *ReloadServer) ConnectionCount() int {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return len(rs.connections)
}

// Close disconnects every client and refuses new ones.
func (rs *ReloadServer) Close() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	rs.closed = true
	for conn := range rs.connections {
		conn.Close()
	}
	rs.connections = make(map[*websocket.Conn]bool)
}
