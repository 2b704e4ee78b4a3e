package web

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"wtr-service/pkg/common"
	"wtr-service/pkg/models"
)

// WebSocket message types.
const (
	MessageTypeMatch    = "match"
	MessageTypeFinished = "finished"
	MessageTypeHistory  = "history"
)

// WSMessage is the frame pushed to websocket clients.
type WSMessage struct {
	Type      string      `json:"type"`
	MatchID   string      `json:"matchId,omitempty"`
	OwnerID   string      `json:"ownerId,omitempty"`
	Timestamp int64       `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// Client is one websocket connection.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	mu       sync.RWMutex
	filters  map[string]bool // message types
	matchIDs map[string]bool
}

// Hub fans match and history updates out to websocket clients.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan *WSMessage
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	logger     common.Logger
	mu         sync.RWMutex
}

// NewHub creates a hub. Call Run to start dispatching.
func NewHub(logger common.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan *WSMessage, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run dispatches until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("Client registered. Total clients: %d", total)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("Client unregistered. Total clients: %d", total)

		case message := <-h.broadcast:
			h.dispatch(message)
		}
	}
}

func (h *Hub) dispatch(message *WSMessage) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("Failed to marshal %s message: %v", message.Type, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		if !client.shouldReceive(message) {
			continue
		}
		select {
		case client.send <- data:
		default:
			// Slow client.
			close(client.send)
			delete(h.clients, client)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast queues message for delivery. It drops the message when the
// queue is full rather than blocking the caller.
func (h *Hub) Broadcast(message *WSMessage) {
	if message.Timestamp == 0 {
		message.Timestamp = time.Now().UnixMilli()
	}
	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("Broadcast queue full, dropping %s message", message.Type)
	}
}

// MatchUpdated pushes the active match snapshot.
func (h *Hub) MatchUpdated(match models.Match) {
	h.Broadcast(&WSMessage{Type: MessageTypeMatch, MatchID: match.ID, Data: match})
}

// MatchFinished pushes the finished snapshot.
func (h *Hub) MatchFinished(match models.FinishedMatch) {
	h.Broadcast(&WSMessage{Type: MessageTypeFinished, MatchID: match.ID, Data: match})
}

// PublishHistory pushes ownerID's current remote history.
func (h *Hub) PublishHistory(ownerID string, records []models.RemoteMatch) {
	if records == nil {
		records = []models.RemoteMatch{}
	}
	h.Broadcast(&WSMessage{Type: MessageTypeHistory, OwnerID: ownerID, Data: records})
}

func (c *Client) shouldReceive(message *WSMessage) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.filters) > 0 && !c.filters[message.Type] {
		return false
	}
	// History is not tied to a match.
	if len(c.matchIDs) > 0 && message.MatchID != "" && !c.matchIDs[message.MatchID] {
		return false
	}
	return true
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("WebSocket error: %v", err)
			}
			break
		}
		c.handleMessage(message)
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

type clientCommand struct {
	Type         string   `json:"type"`
	MessageTypes []string `json:"message_types"`
	MatchIDs     []string `json:"match_ids"`
}

// handleMessage applies subscribe / unsubscribe commands.
func (c *Client) handleMessage(message []byte) {
	var cmd clientCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		c.hub.logger.Debug("Failed to unmarshal client message: %v", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	switch cmd.Type {
	case "subscribe":
		if cmd.MessageTypes != nil {
			c.filters = toSet(cmd.MessageTypes)
		}
		if cmd.MatchIDs != nil {
			c.matchIDs = toSet(cmd.MatchIDs)
		}
	case "unsubscribe":
		c.filters = map[string]bool{}
		c.matchIDs = map[string]bool{}
	}
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

// handleWebSocket upgrades the connection and primes it with the active match.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade error: %v", err)
		return
	}

	client := &Client{
		hub:      s.wsHub,
		conn:     conn,
		send:     make(chan []byte, 256),
		filters:  make(map[string]bool),
		matchIDs: make(map[string]bool),
	}
	if match, ok := s.session.Current(); ok {
		if data, err := json.Marshal(&WSMessage{Type: MessageTypeMatch, MatchID: match.ID, Timestamp: time.Now().UnixMilli(), Data: match}); err == nil {
			client.send <- data
		}
	}

	select {
	case client.hub.register <- client:
	case <-client.hub.done:
		conn.Close()
		return
	}
	go client.writePump()
	go client.readPump()
}
