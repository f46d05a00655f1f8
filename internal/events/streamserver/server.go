// Package streamserver fans a task's Event stream out to WebSocket
// clients. One global stream, no per-task rooms, since the chat layer tails
// every task at once.
package streamserver

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/amalgammas/ozon-slotbot/internal/events"
)

// Config holds per-connection buffer and timeout limits.
type Config struct {
	WriteTimeout    time.Duration
	ReadBufferSize  int
	WriteBufferSize int
	SendBuffer      int
}

// DefaultConfig returns sane connection limits for the demo server.
func DefaultConfig() Config {
	return Config{
		WriteTimeout:    10 * time.Second,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		SendBuffer:      256,
	}
}

// Server upgrades HTTP requests to WebSocket connections and broadcasts
// every Event it is fed to all of them.
type Server struct {
	cfg      Config
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[string]*connection
}

type connection struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// New constructs a Server.
func New(cfg Config) *Server {
	return &Server{
		cfg: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		conns: make(map[string]*connection),
	}
}

// ServeHTTP upgrades the request to a WebSocket connection and registers it
// to receive every subsequent broadcast.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	wsConn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("streamserver: websocket upgrade failed")
		return
	}

	c := &connection{id: uuid.NewString(), conn: wsConn, send: make(chan []byte, s.cfg.SendBuffer)}
	s.mu.Lock()
	s.conns[c.id] = c
	s.mu.Unlock()

	go s.writePump(c)
	go s.readPump(c)
}

// writePump drains c.send to the socket until it is closed.
func (s *Server) writePump(c *connection) {
	defer s.unregister(c)
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// readPump discards inbound traffic; its only job is noticing the client
// went away so the connection can be unregistered.
func (s *Server) readPump(c *connection) {
	defer s.unregister(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) unregister(c *connection) {
	s.mu.Lock()
	if _, ok := s.conns[c.id]; ok {
		delete(s.conns, c.id)
		close(c.send)
	}
	s.mu.Unlock()
	_ = c.conn.Close()
}

// Broadcast fans e out to every connected client, best-effort: a client
// whose send buffer is full does not receive e (it stays connected) rather
// than letting it stall the others.
func (s *Server) Broadcast(e events.Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		log.Error().Err(err).Msg("streamserver: marshal event failed")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, c := range s.conns {
		select {
		case c.send <- payload:
		default:
			log.Warn().Str("connection_id", id).Msg("streamserver: client send buffer full, dropping")
		}
	}
}

// Pump reads from ch until it closes, broadcasting every event it receives.
// Intended to run in its own goroutine fed by an events.ChannelBus.
func (s *Server) Pump(ch <-chan events.Event) {
	for e := range ch {
		s.Broadcast(e)
	}
}
