// Package notifications provides real-time notification delivery and management.
package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"

	"mindbridge/internal/observability"

	"github.com/gofiber/websocket/v2"
	"github.com/redis/go-redis/v9"
)

const (
	// Max connections per user
	maxConnsPerUser = 12
	// Max total connections
	maxTotalConns = 10000
)

// RoomEvent is the envelope published to a circle room channel. The hub
// skips delivery to the originating user so clients do not receive echoes
// of their own actions.
type RoomEvent struct {
	Type         string          `json:"type"`
	CircleID     uint            `json:"circle_id,omitempty"`
	OriginUserID uint            `json:"origin_user_id,omitempty"`
	Payload      json.RawMessage `json:"payload,omitempty"`
}

// Hub maps userID -> connected Clients, and circleID -> the users who have
// joined that circle's room. One hub serves both the personal notification
// feed and circle room fan-out.
type Hub struct {
	mu          sync.RWMutex
	conns       map[uint]map[*Client]struct{}
	circles     map[uint]map[uint]struct{}
	userCircles map[uint]map[uint]struct{}
	totalConns  int
	shutdown    chan struct{}
	done        chan struct{}
	presence    *ConnectionManager
	roomMetrics *observability.WebSocketRoomMetrics
	wsLog       *observability.WSLogger
}

// NewHub creates a new Hub instance for managing notifications.
func NewHub(redisClients ...*redis.Client) *Hub {
	var redisClient *redis.Client
	if len(redisClients) > 0 {
		redisClient = redisClients[0]
	}

	return &Hub{
		conns:       make(map[uint]map[*Client]struct{}),
		circles:     make(map[uint]map[uint]struct{}),
		userCircles: make(map[uint]map[uint]struct{}),
		shutdown:    make(chan struct{}),
		done:        make(chan struct{}),
		presence:    NewConnectionManager(redisClient, ConnectionManagerConfig{}),
		roomMetrics: observability.NewWebSocketRoomMetrics(),
		wsLog:       observability.NewWSLogger("notification hub"),
	}
}

// Name returns a human-readable identifier for this hub.
func (h *Hub) Name() string { return "notification hub" }

// Register a connection for a given userID. Returns the Client or error if limits exceeded.
func (h *Hub) Register(userID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()

	if h.totalConns >= maxTotalConns {
		h.mu.Unlock()
		return nil, errors.New("server connection limit reached")
	}

	m, ok := h.conns[userID]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[userID] = m
	}

	if len(m) >= maxConnsPerUser {
		h.mu.Unlock()
		return nil, errors.New("user connection limit reached")
	}

	client := NewClient(h, conn, userID)
	client.OnActivity = func(uid uint) {
		if h.presence != nil {
			h.presence.Touch(context.Background(), uid)
		}
	}

	m[client] = struct{}{}
	h.totalConns++
	h.mu.Unlock()

	if h.presence != nil {
		h.presence.Register(context.Background(), userID)
	}
	h.roomMetrics.IncrementRoom(userRoomID(userID))
	h.wsLog.LogConnect(context.Background(), userID, userRoomID(userID))

	return client, nil
}

// UnregisterClient removes a client connection. When the user's last
// connection goes away their circle room subscriptions are dropped too.
func (h *Hub) UnregisterClient(client *Client) {
	h.mu.Lock()
	removedClient := false
	lastConn := false
	if m, ok := h.conns[client.UserID]; ok {
		if _, exists := m[client]; exists {
			delete(m, client)
			h.totalConns--
			removedClient = true
		}
		if len(m) == 0 {
			delete(h.conns, client.UserID)
			lastConn = true
		}
	}
	if lastConn {
		for circleID := range h.userCircles[client.UserID] {
			h.dropFromCircleLocked(client.UserID, circleID)
		}
		delete(h.userCircles, client.UserID)
	}
	h.mu.Unlock()

	if removedClient {
		if h.presence != nil {
			h.presence.Unregister(context.Background(), client.UserID)
		}
		h.roomMetrics.DecrementRoom(userRoomID(client.UserID))
		h.wsLog.LogDisconnect(context.Background(), client.UserID, userRoomID(client.UserID), "connection closed")
	}
}

// JoinCircle subscribes a connected user to a circle's room events.
func (h *Hub) JoinCircle(userID, circleID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, connected := h.conns[userID]; !connected {
		return
	}

	if h.circles[circleID] == nil {
		h.circles[circleID] = make(map[uint]struct{})
	}
	h.circles[circleID][userID] = struct{}{}

	if h.userCircles[userID] == nil {
		h.userCircles[userID] = make(map[uint]struct{})
	}
	h.userCircles[userID][circleID] = struct{}{}

	h.roomMetrics.RecordWebSocketEvent("join_circle")
}

// LeaveCircle unsubscribes a user from a circle's room events.
func (h *Hub) LeaveCircle(userID, circleID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.dropFromCircleLocked(userID, circleID)
	if circles, ok := h.userCircles[userID]; ok {
		delete(circles, circleID)
	}
	h.roomMetrics.RecordWebSocketEvent("leave_circle")
}

func (h *Hub) dropFromCircleLocked(userID, circleID uint) {
	if users, ok := h.circles[circleID]; ok {
		delete(users, userID)
		if len(users) == 0 {
			delete(h.circles, circleID)
		}
	}
}

// InCircleRoom reports whether the user has joined the circle's room.
func (h *Hub) InCircleRoom(userID, circleID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if users, ok := h.circles[circleID]; ok {
		_, in := users[userID]
		return in
	}
	return false
}

// Broadcast sends message to all connections for userID
func (h *Hub) Broadcast(userID uint, message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if clients, ok := h.conns[userID]; ok {
		data := []byte(message)
		for c := range clients {
			c.TrySend(data)
		}
	}
}

// BroadcastAll sends message to every connected websocket client.
func (h *Hub) BroadcastAll(message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	data := []byte(message)
	for _, clients := range h.conns {
		for c := range clients {
			c.TrySend(data)
		}
	}
}

// BroadcastCircle sends message to every user in the circle's room except
// the excluded user (0 excludes nobody).
func (h *Hub) BroadcastCircle(circleID uint, message string, excludeUserID uint) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	users, ok := h.circles[circleID]
	if !ok {
		return
	}

	data := []byte(message)
	for userID := range users {
		if userID == excludeUserID {
			continue
		}
		for c := range h.conns[userID] {
			c.TrySend(data)
		}
	}
}

// IsOnline reports whether a user currently has at least one active websocket connection.
func (h *Hub) IsOnline(userID uint) bool {
	if h.presence != nil {
		return h.presence.IsOnline(context.Background(), userID)
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	clients, ok := h.conns[userID]
	return ok && len(clients) > 0
}

// SetPresenceCallbacks installs online/offline transition callbacks.
func (h *Hub) SetPresenceCallbacks(onOnline, onOffline func(userID uint)) {
	if h.presence == nil {
		return
	}
	h.presence.SetCallbacks(onOnline, onOffline)
}

// StartWiring connects the Notifier to this hub: it subscribes to the Redis
// patterns and forwards messages to the matching user or circle room.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartPatternSubscriber(ctx, func(channel, payload string) {
		switch {
		case channel == "notifications:broadcast":
			h.BroadcastAll(payload)
		case strings.HasPrefix(channel, "notifications:user:"):
			var userID uint
			if _, err := fmt.Sscanf(channel, "notifications:user:%d", &userID); err != nil {
				log.Printf("invalid notification channel: %s", channel)
				return
			}
			h.Broadcast(userID, payload)
		case strings.HasPrefix(channel, "circles:room:"):
			var circleID uint
			if _, err := fmt.Sscanf(channel, "circles:room:%d", &circleID); err != nil {
				log.Printf("invalid circle channel: %s", channel)
				return
			}
			var event RoomEvent
			if err := json.Unmarshal([]byte(payload), &event); err != nil {
				log.Printf("invalid circle event on %s: %v", channel, err)
				return
			}
			h.BroadcastCircle(circleID, payload, event.OriginUserID)
		default:
			log.Printf("invalid notification channel: %s", channel)
		}
	})
}

// Shutdown gracefully closes all websocket connections
func (h *Hub) Shutdown(_ context.Context) error {
	close(h.shutdown)

	if h.presence != nil {
		h.presence.Stop()
	}

	// Close all connections gracefully
	h.mu.Lock()
	for userID, userConns := range h.conns {
		for client := range userConns {
			if client.Conn == nil {
				continue
			}
			// Send close message to client
			if err := client.Conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "Server shutting down")); err != nil {
				log.Printf("failed to write close message for user %d: %v", userID, err)
			}
			// Close the connection
			if err := client.Conn.Close(); err != nil {
				log.Printf("failed to close websocket for user %d: %v", userID, err)
			}
		}
	}
	// Clear all connections
	h.conns = make(map[uint]map[*Client]struct{})
	h.circles = make(map[uint]map[uint]struct{})
	h.userCircles = make(map[uint]map[uint]struct{})
	h.mu.Unlock()

	// Signal completion
	close(h.done)

	return nil
}

func userRoomID(userID uint) string {
	return "user:" + strconv.FormatUint(uint64(userID), 10)
}
