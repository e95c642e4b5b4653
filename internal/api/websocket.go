package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/FocuswithJustin/musictext/core/notation"
	"github.com/FocuswithJustin/musictext/core/pipeline"
	"github.com/FocuswithJustin/musictext/core/score"
	"github.com/FocuswithJustin/musictext/internal/logging"
	"github.com/FocuswithJustin/musictext/internal/validation"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 54 * time.Second
	wsMaxMessage = 256 << 10
)

// Message types sent over the websocket.
const (
	MessageResult = "result"
	MessageError  = "error"
	MessageStored = "stored"
)

// ProgressMessage is sent to websocket clients. A client receives one
// "result" or "error" message per text frame it sends, and "stored"
// messages whenever any request persists a document.
type ProgressMessage struct {
	Type      string          `json:"type"`
	Operation string          `json:"operation"`
	Message   string          `json:"message,omitempty"`
	Timestamp string          `json:"timestamp"`
	Document  *score.Document `json:"document,omitempty"`
	Data      map[string]any  `json:"data,omitempty"`
}

// Client represents a WebSocket client connection.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	system notation.System

	// done is closed when writePump exits.
	done chan struct{}
}

// Hub maintains active WebSocket connections and broadcasts messages.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
}

// NewHub creates a new WebSocket hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run handles client registration and broadcasting until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			clear(h.clients)
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			n := len(h.clients)
			h.mu.Unlock()
			logging.WebSocketEvent("client_connected", n)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			logging.WebSocketEvent("client_disconnected", n)

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					logging.Warn("websocket client queue full, dropping message")
				}
			}
			h.mu.RUnlock()
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends a message to all connected clients.
func (h *Hub) Broadcast(msg ProgressMessage) {
	data, err := encodeMessage(msg)
	if err != nil {
		logging.Error("failed to marshal websocket message", "error", err)
		return
	}
	select {
	case h.broadcast <- data:
	default:
		logging.Warn("broadcast channel full, dropping message")
	}
}

// BroadcastStored announces a newly stored document.
func (h *Hub) BroadcastStored(id string, doc *score.Document) {
	h.Broadcast(ProgressMessage{
		Type:      MessageStored,
		Operation: "store",
		Message:   "document stored",
		Data: map[string]any{
			"id":     id,
			"hash":   doc.Hash,
			"title":  doc.Title,
			"staves": len(doc.Staves),
		},
	})
}

func encodeMessage(msg ProgressMessage) ([]byte, error) {
	if msg.Timestamp == "" {
		msg.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	return json.Marshal(msg)
}

// leave unregisters c unless the hub has already stopped.
func (c *Client) leave() {
	select {
	case c.hub.unregister <- c:
	case <-c.hub.done:
	}
}

// queue hands a reply to writePump. It returns false once the writer or the
// hub has stopped.
func (c *Client) queue(msg []byte) bool {
	select {
	case c.send <- msg:
		return true
	case <-c.done:
		return false
	case <-c.hub.done:
		return false
	}
}

// readPump analyzes every text frame the client sends and queues the reply.
func (c *Client) readPump(s *Server) {
	defer func() {
		c.leave()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(wsMaxMessage)
	c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	for {
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Error("websocket unexpected close", "error", err)
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}

		msg := ProgressMessage{Type: MessageResult, Operation: "parse"}
		var doc *score.Document
		err = validation.ValidateText(data)
		if err == nil {
			doc, err = pipeline.Process(context.Background(), string(data), s.pipelineOptions(c.system))
		}
		if err != nil {
			msg.Type = MessageError
			msg.Message = err.Error()
		} else {
			msg.Document = doc
		}
		out, err := encodeMessage(msg)
		if err != nil {
			logging.Error("failed to marshal websocket reply", "error", err)
			continue
		}
		if !c.queue(out) {
			return
		}
	}
}

// writePump writes queued messages to the connection, one frame each.
func (c *Client) writePump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		close(c.done)
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.hub.done:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return
		}
	}
}

// handleWebSocket upgrades the connection and starts a parse session. The
// optional "system" query parameter applies to every frame.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	system, err := notation.ParseSystem(r.URL.Query().Get("system"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_SYSTEM", err.Error())
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.SecurityEvent("websocket_upgrade_failed", "api", "error", err.Error())
		return
	}

	client := &Client{
		hub:    s.hub,
		conn:   conn,
		send:   make(chan []byte, 64),
		system: system,
		done:   make(chan struct{}),
	}
	select {
	case s.hub.register <- client:
	case <-s.hub.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump(s)
}
