package web

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = (pongWait * 9) / 10

	// Commands are tiny; anything larger is not a client of ours.
	maxMessageSize = 512

	sendBuffer = 16
)

// wsCommand is a message sent by a websocket client.
type wsCommand struct {
	Command string `json:"command"`
}

// wsError is sent back when a client command fails.
type wsError struct {
	Error   string `json:"error"`
	Command string `json:"command"`
}

// hub tracks websocket clients and fans status updates out to them.
type hub struct {
	server   *Server
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]bool
}

type client struct {
	hub  *hub
	conn *websocket.Conn

	// send serializes writes to conn; only writePump writes.
	send chan []byte
}

func newHub(s *Server, origins []string) *hub {
	h := &hub{
		server:  s,
		clients: make(map[*client]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	if len(origins) > 0 {
		h.upgrader.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || slices.Contains(origins, origin) || slices.Contains(origins, "*")
		}
	}
	return h
}

func (h *hub) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("websocket upgrade failed")
		return
	}

	c := &client{hub: h, conn: conn, send: make(chan []byte, sendBuffer)}

	// New clients get the current state straight away.
	c.send <- compactJSON(h.server.tracker.Snapshot())
	h.add(c)
	log.Debug().Str("remote", r.RemoteAddr).Msg("websocket client connected")

	go c.writePump()
	go c.readPump()
}

func (h *hub) add(c *client) {
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
}

// remove closes the client's send channel once; writePump then closes the connection.
func (h *hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c] {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// broadcast queues msg for every client. Clients that cannot keep up are dropped.
func (h *hub) broadcast(msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			log.Warn().Str("remote", c.conn.RemoteAddr().String()).Msg("websocket client too slow, dropping")
			delete(h.clients, c)
			close(c.send)
		}
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

func (c *client) readPump() {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Msg("websocket read")
			}
			return
		}

		var req wsCommand
		if err := json.Unmarshal(payload, &req); err != nil {
			c.reply(wsError{Error: "invalid message"})
			continue
		}
		if _, err := c.hub.server.apply(context.Background(), req.Command); err != nil {
			c.reply(wsError{Error: err.Error(), Command: req.Command})
		}
		// Success is visible through the broadcast that follows the change.
	}
}

// reply queues a message for this client only.
func (c *client) reply(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.hub.mu.Lock()
	defer c.hub.mu.Unlock()
	if !c.hub.clients[c] {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Debug().Err(err).Msg("websocket write")
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
