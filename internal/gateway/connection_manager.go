package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"typerace/internal/coordinator"
)

// EventSink receives everything a connection produces: decoded-or-not raw
// frames and the synthesized disconnect when the read loop ends.
type EventSink interface {
	HandleMessage(client coordinator.Client, raw []byte)
	HandleDisconnect(client coordinator.Client)
}

// ConnectionManager owns the WebSocket connection pools, organized by room.
// A connection enters a room's pool when the coordinator accepts its join
// and leaves it on disconnect (or when it moves rooms).
type ConnectionManager struct {
	roomConns map[string]map[coordinator.Client]bool
	mu        sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig
}

// ConnectionConfig holds tuning for individual WebSocket connections.
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConnectionConfig returns default WebSocket configuration.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  4096,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// Allow all origins in development - restrict in production
			return true
		},
	}
}

// NewConnectionManager creates a new WebSocket connection manager.
func NewConnectionManager(config ConnectionConfig) *ConnectionManager {
	return &ConnectionManager{
		roomConns: make(map[string]map[coordinator.Client]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config: config,
	}
}

// UpgradeConnection upgrades an HTTP request to a WebSocket session and
// starts its read/write pumps. Inbound frames and the final disconnect are
// forwarded to sink.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request, sink EventSink) error {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to upgrade WebSocket connection")
		return fmt.Errorf("upgrade connection: %w", err)
	}

	connection := &Connection{
		id:          uuid.New().String(),
		conn:        conn,
		send:        make(chan []byte, 256),
		closed:      make(chan struct{}),
		manager:     cm,
		sink:        sink,
		connectedAt: time.Now(),
	}

	go connection.writePump()
	go connection.readPump()

	log.Info().
		Str("session_id", connection.id).
		Str("remote", r.RemoteAddr).
		Msg("WebSocket connection established")

	return nil
}

// Join adds a client to a room's broadcast pool.
func (cm *ConnectionManager) Join(roomID string, c coordinator.Client) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.roomConns[roomID] == nil {
		cm.roomConns[roomID] = make(map[coordinator.Client]bool)
	}
	cm.roomConns[roomID][c] = true

	log.Debug().
		Str("session_id", c.SessionID()).
		Str("room_id", roomID).
		Int("room_connections", len(cm.roomConns[roomID])).
		Msg("connection joined room pool")
}

// Leave removes a client from a room's broadcast pool. Empty pools are
// cleaned up; the room itself lives on in the store.
func (cm *ConnectionManager) Leave(roomID string, c coordinator.Client) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if pool, ok := cm.roomConns[roomID]; ok {
		delete(pool, c)
		if len(pool) == 0 {
			delete(cm.roomConns, roomID)
		}
	}
}

// Broadcast sends a message to every client in the room's pool. Delivery is
// best-effort: clients whose send buffer is full are closed and will be
// cleaned up through their own disconnect path.
func (cm *ConnectionManager) Broadcast(roomID string, msg coordinator.OutboundMessage) {
	cm.mu.RLock()
	pool, ok := cm.roomConns[roomID]
	if !ok {
		cm.mu.RUnlock()
		return
	}
	targets := make([]coordinator.Client, 0, len(pool))
	for c := range pool {
		targets = append(targets, c)
	}
	cm.mu.RUnlock()

	// Marshal the message once for the whole room.
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("room_id", roomID).Msg("failed to marshal broadcast message")
		return
	}

	for _, c := range targets {
		var err error
		if conn, isConn := c.(*Connection); isConn {
			err = conn.enqueue(data)
		} else {
			err = c.Send(msg)
		}
		if err != nil {
			log.Warn().
				Err(err).
				Str("session_id", c.SessionID()).
				Str("room_id", roomID).
				Msg("dropping slow connection")
			if conn, isConn := c.(*Connection); isConn {
				conn.close()
			}
		}
	}
}

// GetConnectionStats returns statistics about active connections.
func (cm *ConnectionManager) GetConnectionStats() map[string]any {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	total := 0
	roomCounts := make(map[string]int)
	for roomID, pool := range cm.roomConns {
		total += len(pool)
		roomCounts[roomID] = len(pool)
	}

	return map[string]any{
		"total_connections": total,
		"active_rooms":      len(cm.roomConns),
		"room_connections":  roomCounts,
	}
}

// Connection is one WebSocket session. It implements coordinator.Client.
type Connection struct {
	id   string
	conn *websocket.Conn

	send      chan []byte
	closed    chan struct{}
	closeOnce sync.Once

	manager *ConnectionManager
	sink    EventSink

	connectedAt time.Time
}

// SessionID returns the server-assigned id for this session.
func (c *Connection) SessionID() string { return c.id }

// Send queues a message for delivery to this session only. It fails when
// the session's send buffer is full, which the caller treats as a dead or
// hopelessly slow consumer.
func (c *Connection) Send(msg coordinator.OutboundMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal outbound message: %w", err)
	}
	return c.enqueue(data)
}

// enqueue pushes pre-marshaled bytes onto the send buffer, letting a room
// broadcast marshal its message once for every connection.
func (c *Connection) enqueue(data []byte) error {
	select {
	case c.send <- data:
		return nil
	case <-c.closed:
		return fmt.Errorf("connection closed")
	default:
		return fmt.Errorf("send buffer full")
	}
}

func (c *Connection) close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		c.conn.Close()
	})
}

// writePump drains the send buffer to the socket and keeps the connection
// alive with periodic pings.
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.closed:
			return

		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.manager.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Debug().Err(err).Str("session_id", c.id).Msg("failed to write message")
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.manager.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug().Err(err).Str("session_id", c.id).Msg("failed to send ping")
				return
			}
		}
	}
}

// readPump forwards inbound frames to the sink until the socket dies, then
// synthesizes the disconnect event. Per-session ordering is preserved
// because this loop is the session's only producer.
func (c *Connection) readPump() {
	defer func() {
		c.close()
		c.sink.HandleDisconnect(c)
		log.Info().Str("session_id", c.id).Msg("WebSocket connection closed")
	}()

	c.conn.SetReadLimit(c.manager.config.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.manager.config.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.manager.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Str("session_id", c.id).Msg("unexpected WebSocket close")
			}
			return
		}

		c.sink.HandleMessage(c, message)
		c.conn.SetReadDeadline(time.Now().Add(c.manager.config.ReadTimeout))
	}
}
