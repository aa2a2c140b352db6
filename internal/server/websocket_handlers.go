package server

import (
	"context"
	"encoding/json"
	"log"

	"mindbridge/internal/notifications"
	"mindbridge/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// WebsocketHandler upgrades /api/ws connections and binds them to the hub.
// The session cookie authenticates the handshake; on connect the client is
// registered in its per-user room.
func (s *Server) WebsocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		observability.WebSocketConnectionsTotal.Inc()
		defer observability.WebSocketConnectionsTotal.Dec()

		ctx := context.Background()

		userIDVal := conn.Locals("userID")
		if userIDVal == nil {
			log.Printf("WebSocket: unauthenticated connection attempt")
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unauthorized"}`))
			_ = conn.Close()
			return
		}
		userID := userIDVal.(uint)

		if s.hub == nil {
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(userID, conn)
		if err != nil {
			log.Printf("WebSocket: failed to register user %d: %v", userID, err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		client.IncomingHandler = func(c *notifications.Client, message []byte) {
			var incoming struct {
				Type     string          `json:"type"`
				CircleID uint            `json:"circle_id"`
				Payload  json.RawMessage `json:"payload"`
			}
			if err := json.Unmarshal(message, &incoming); err != nil {
				log.Printf("WebSocket: invalid message format from user %d", userID)
				return
			}

			switch incoming.Type {
			case "join_circle":
				// Only circle members may listen to the circle's room.
				if incoming.CircleID == 0 {
					return
				}
				isMember, merr := s.circleService.IsMember(ctx, incoming.CircleID, userID)
				if merr != nil || !isMember {
					return
				}
				s.hub.JoinCircle(userID, incoming.CircleID)
				response, _ := json.Marshal(map[string]interface{}{
					"type":      "joined_circle",
					"circle_id": incoming.CircleID,
				})
				c.TrySend(response)

			case "leave_circle":
				if incoming.CircleID != 0 {
					s.hub.LeaveCircle(userID, incoming.CircleID)
				}

			case "new_post":
				// Forwarded to the circle room (excluding the sender) as a
				// post_received event.
				if incoming.CircleID == 0 || len(incoming.Payload) == 0 {
					return
				}
				if !s.flags.Enabled("realtime_post_sync", userID) {
					return
				}
				isMember, merr := s.circleService.IsMember(ctx, incoming.CircleID, userID)
				if merr != nil || !isMember {
					return
				}
				s.publishCircleEvent(incoming.CircleID, userID, EventPostReceived, incoming.Payload)
				observability.NotificationsDelivered.WithLabelValues(EventPostReceived).Inc()

			case "join_user_room":
				// The authenticated connect already bound the user room;
				// accepted and ignored for client compatibility.

			default:
				log.Printf("WebSocket: unknown event %q from user %d", incoming.Type, userID)
			}
		}

		welcome, _ := json.Marshal(map[string]interface{}{
			"type":    "connected",
			"payload": map[string]interface{}{"user_id": userID},
		})
		client.TrySend(welcome)

		// Start write pump in a goroutine
		go client.WritePump()

		// Read pump runs in the main handler goroutine (blocking)
		client.ReadPump()
	})
}
