package web

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sweeney/lift-controller/internal/controller"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		// LAN appliance: any page may drive the lift.
		return true
	},
}

// Hub tracks connected clients and fans messages out to them.
// It satisfies controller.Fanout.
type Hub struct {
	mu      sync.RWMutex
	clients map[controller.Session]struct{}
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[controller.Session]struct{})}
}

// Add registers s.
func (h *Hub) Add(s controller.Session) {
	h.mu.Lock()
	h.clients[s] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	log.Printf("websocket: client connected (%d total)", n)
}

// Remove unregisters s. Only the call that actually removes a Client closes
// its send channel.
func (h *Hub) Remove(s controller.Session) {
	h.mu.Lock()
	_, existed := h.clients[s]
	delete(h.clients, s)
	n := len(h.clients)
	h.mu.Unlock()

	if !existed {
		return
	}
	if c, ok := s.(*Client); ok {
		close(c.send)
	}
	log.Printf("websocket: client disconnected (%d total)", n)
}

// Broadcast delivers msg to every registered session. The frame is encoded
// once; slow clients drop it.
func (h *Hub) Broadcast(msg controller.Message) {
	data, err := encodeMessage(msg)
	if err != nil {
		log.Printf("websocket: encode %s: %v", msg.Event, err)
		return
	}

	h.mu.RLock()
	sessions := make([]controller.Session, 0, len(h.clients))
	for s := range h.clients {
		sessions = append(sessions, s)
	}
	h.mu.RUnlock()

	for _, s := range sessions {
		if c, ok := s.(*Client); ok {
			c.trySend(data)
			continue
		}
		s.Send(msg)
	}
}

// ClientCount returns the number of connected sessions.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for s := range h.clients {
		if c, ok := s.(*Client); ok {
			close(c.send)
			c.conn.Close()
		}
		delete(h.clients, s)
	}
}

// Client is one WebSocket connection. It satisfies controller.Session.
type Client struct {
	conn *websocket.Conn
	send chan []byte
}

// Send encodes msg and queues it without blocking.
func (c *Client) Send(msg controller.Message) {
	data, err := encodeMessage(msg)
	if err != nil {
		log.Printf("websocket: encode %s: %v", msg.Event, err)
		return
	}
	c.trySend(data)
}

// trySend queues data, dropping it if the buffer is full or the client is
// already gone.
func (c *Client) trySend(data []byte) {
	defer func() {
		recover() //nolint:errcheck // send on closed channel after Remove
	}()

	select {
	case c.send <- data:
	default:
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket: upgrade failed: %v", err)
		return
	}

	client := &Client{
		conn: conn,
		send: make(chan []byte, s.cfg.WebSocket.SendBuffer),
	}
	s.ctl.Connect(client)

	go s.writePump(client)
	go s.readPump(client)
}

func (s *Server) readPump(c *Client) {
	defer func() {
		s.ctl.Disconnect(c)
		c.conn.Close()
	}()

	wait := s.cfg.PingInterval() + s.cfg.PongTimeout()
	c.conn.SetReadLimit(int64(s.cfg.WebSocket.MaxMessageSize))
	c.conn.SetReadDeadline(time.Now().Add(wait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("websocket: read error: %v", err)
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(wait))
		s.handleMessage(c, message)
	}
}

func (s *Server) writePump(c *Client) {
	ticker := time.NewTicker(s.cfg.PingInterval())
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	writeWait := s.cfg.PongTimeout()
	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage dispatches one client frame. Protocol errors are reported to
// the sender only.
func (s *Server) handleMessage(c *Client, data []byte) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		c.Send(controller.LogMessage("Invalid message: " + err.Error()))
		return
	}
	if env.Event != string(controller.EventCommand) {
		c.Send(controller.LogMessage("Unknown event: " + env.Event))
		return
	}

	text, raw, isString, err := decodeCommand(env.Data)
	if err != nil {
		c.Send(controller.LogMessage("Invalid command: " + err.Error()))
		return
	}
	if isString {
		s.ctl.HandleCommand(c, text)
		return
	}
	s.ctl.HandleRaw(c, raw)
}
