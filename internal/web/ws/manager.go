package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mcoot/greenlight/internal/model"
)

// MessageType identifies a websocket message
type MessageType string

const (
	MessageState      MessageType = "state"       // server -> client
	MessageRoundEnded MessageType = "round_ended" // server -> client
	MessageError      MessageType = "error"       // server -> client
	MessageClick      MessageType = "click"       // client -> server
)

// Message is the JSON frame exchanged over a session socket
type Message struct {
	Type         MessageType         `json:"type"`
	State        *model.GameState    `json:"state,omitempty"`
	Notification *model.Notification `json:"notification,omitempty"`
	Error        string              `json:"error,omitempty"`
}

// Clicker forwards a player's click to the session's game
type Clicker interface {
	Click(id model.SessionID) error
}

// Config holds websocket connection settings
type Config struct {
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	PingInterval   time.Duration `yaml:"ping_interval"`
	MaxMessageSize int64         `yaml:"max_message_size"`
	SendBuffer     int           `yaml:"send_buffer"`
	AllowedOrigins []string      `yaml:"allowed_origins"` // empty allows any origin
}

// DefaultConfig returns the default websocket settings
func DefaultConfig() Config {
	return Config{
		WriteTimeout:   10 * time.Second,
		ReadTimeout:    60 * time.Second,
		PingInterval:   30 * time.Second,
		MaxMessageSize: 1024,
		SendBuffer:     256,
	}
}

type broadcast struct {
	sessionID model.SessionID
	data      []byte
}

// Manager tracks websocket connections per session and pushes game events to them
type Manager struct {
	conns map[model.SessionID]map[*Connection]struct{}
	mu    sync.RWMutex

	upgrader    websocket.Upgrader
	config      Config
	clicker     Clicker
	broadcastCh chan broadcast
	logger      *slog.Logger
}

// Connection is one client socket bound to a session
type Connection struct {
	id          string
	sessionID   model.SessionID
	conn        *websocket.Conn
	send        chan []byte
	manager     *Manager
	connectedAt time.Time
}

// NewManager creates a new Manager
func NewManager(cfg Config, clicker Clicker, logger *slog.Logger) *Manager {
	def := DefaultConfig()
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = def.ReadTimeout
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = def.PingInterval
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = def.MaxMessageSize
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = def.SendBuffer
	}
	m := &Manager{
		conns:       make(map[model.SessionID]map[*Connection]struct{}),
		config:      cfg,
		clicker:     clicker,
		broadcastCh: make(chan broadcast, 1000),
		logger:      logger.With(slog.String("component", "ws")),
	}
	m.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     m.checkOrigin,
	}
	return m
}

func (m *Manager) checkOrigin(r *http.Request) bool {
	if len(m.config.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	return origin == "" || slices.Contains(m.config.AllowedOrigins, "*") || slices.Contains(m.config.AllowedOrigins, origin)
}

// Start delivers broadcasts until ctx is cancelled, then disconnects every client
func (m *Manager) Start(ctx context.Context) {
	m.logger.Info("ws manager started")
	for {
		select {
		case <-ctx.Done():
			m.closeAll()
			m.logger.Info("ws manager stopped")
			return
		case b := <-m.broadcastCh:
			m.deliver(b)
		}
	}
}

// Upgrade turns the request into a socket for the session and sends it the current state
func (m *Manager) Upgrade(w http.ResponseWriter, r *http.Request, id model.SessionID, initial model.GameState) error {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	c := &Connection{
		id:          uuid.NewString(),
		sessionID:   id,
		conn:        conn,
		send:        make(chan []byte, m.config.SendBuffer),
		manager:     m,
		connectedAt: time.Now(),
	}
	if data, err := encode(Message{Type: MessageState, State: &initial}); err == nil {
		c.send <- data
	}
	m.register(c)

	go c.writePump()
	go c.readPump()

	m.logger.Info("ws connection established",
		slog.String("connection_id", c.id),
		slog.String("session", string(id)))
	return nil
}

// ConnectionCount returns the number of sockets open for a session
func (m *Manager) ConnectionCount(id model.SessionID) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.conns[id])
}

// StateChanged pushes the new state to the session's sockets
func (m *Manager) StateChanged(id model.SessionID, state model.GameState) {
	m.enqueue(id, Message{Type: MessageState, State: &state})
}

// RoundEnded pushes the end-of-round notification to the session's sockets
func (m *Manager) RoundEnded(id model.SessionID, n model.Notification) {
	m.enqueue(id, Message{Type: MessageRoundEnded, Notification: &n})
}

// SessionClosed disconnects every socket of a closed session
func (m *Manager) SessionClosed(id model.SessionID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for c := range m.conns[id] {
		close(c.send)
	}
	if n := len(m.conns[id]); n > 0 {
		m.logger.Info("ws session closed", slog.String("session", string(id)), slog.Int("connections", n))
	}
	delete(m.conns, id)
}

func (m *Manager) enqueue(id model.SessionID, msg Message) {
	data, err := encode(msg)
	if err != nil {
		m.logger.Error("ws failed to encode message", slog.Any("error", err))
		return
	}
	select {
	case m.broadcastCh <- broadcast{sessionID: id, data: data}:
	default:
		m.logger.Warn("ws broadcast channel full, dropping message", slog.String("session", string(id)))
	}
}

func (m *Manager) register(c *Connection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conns[c.sessionID] == nil {
		m.conns[c.sessionID] = make(map[*Connection]struct{})
	}
	m.conns[c.sessionID][c] = struct{}{}
}

func (m *Manager) unregister(c *Connection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	conns, ok := m.conns[c.sessionID]
	if !ok {
		return
	}
	if _, ok := conns[c]; !ok {
		return
	}
	delete(conns, c)
	close(c.send)
	if len(conns) == 0 {
		delete(m.conns, c.sessionID)
	}
	m.logger.Info("ws connection closed",
		slog.String("connection_id", c.id),
		slog.String("session", string(c.sessionID)),
		slog.Duration("connection_duration", time.Since(c.connectedAt)))
}

func (m *Manager) closeAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, conns := range m.conns {
		for c := range conns {
			close(c.send)
		}
		delete(m.conns, id)
	}
}

// deliver sends while holding the read lock so no send channel can close underneath it
func (m *Manager) deliver(b broadcast) {
	var slow []*Connection
	m.mu.RLock()
	for c := range m.conns[b.sessionID] {
		select {
		case c.send <- b.data:
		default:
			slow = append(slow, c)
		}
	}
	m.mu.RUnlock()

	for _, c := range slow {
		m.logger.Warn("ws send buffer full, closing connection", slog.String("connection_id", c.id))
		m.unregister(c)
	}
}

// reply sends a message to one connection if it is still registered
func (m *Manager) reply(c *Connection, msg Message) {
	data, err := encode(msg)
	if err != nil {
		return
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.conns[c.sessionID][c]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(c.manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.manager.config.WriteTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.manager.logger.Debug("ws write failed",
					slog.String("connection_id", c.id),
					slog.Any("error", err))
				c.manager.unregister(c)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.manager.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.manager.unregister(c)
				return
			}
		}
	}
}

func (c *Connection) readPump() {
	defer func() {
		c.manager.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(c.manager.config.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.manager.config.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.manager.config.ReadTimeout))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.manager.logger.Warn("ws unexpected close",
					slog.String("connection_id", c.id),
					slog.Any("error", err))
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(c.manager.config.ReadTimeout))
		c.handle(data)
	}
}

func (c *Connection) handle(data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		c.manager.reply(c, Message{Type: MessageError, Error: "invalid message"})
		return
	}
	switch msg.Type {
	case MessageClick:
		if err := c.manager.clicker.Click(c.sessionID); err != nil {
			c.manager.reply(c, Message{Type: MessageError, Error: clickError(err)})
		}
	default:
		c.manager.reply(c, Message{Type: MessageError, Error: fmt.Sprintf("unsupported message type %q", msg.Type)})
	}
}

func clickError(err error) string {
	switch {
	case errors.Is(err, model.ErrSessionNotFound):
		return "session not found"
	case errors.Is(err, model.ErrEngineStopped):
		return "game is not running"
	default:
		return "click rejected"
	}
}

func encode(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}
